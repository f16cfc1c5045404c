// Package model defines the database schema used by the application
package model

import "time"

type User struct {
	ID           string `gorm:"primaryKey" json:"_id"`
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Gender       string `json:"gender"`
	ProfilePic   string `gorm:"default:default.svg" json:"profilePic"`
	BannerPic    string `json:"bannerPic"`
	BannerColor  string `gorm:"default:#87CEEB" json:"bannerColor"`
	IsAdmin      bool   `gorm:"default:false" json:"isAdmin"`
	Verified     bool   `gorm:"default:false" json:"-"`

	// Pending one-time code. A verified user never has one, a new
	// issuance overwrites the previous pair.
	OTP          *string    `json:"-"`
	OTPExpiresAt *time.Time `json:"-"`

	// Unverified accounts are purged after this deadline
	PurgeAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	ResendRequests []ResendRequest `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
