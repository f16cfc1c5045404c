package model

import "time"

type Chat struct {
	ID           string `gorm:"primaryKey" json:"_id"`
	IsGroupChat  bool   `gorm:"default:false" json:"isGroupChat"`
	ChatName     string `json:"chatName"`
	GroupAdminID string `gorm:"index" json:"groupAdmin"`
	GroupPic     string `json:"groupPic"`

	LatestMessageID *string  `json:"-"`
	LatestMessage   *Message `gorm:"foreignKey:LatestMessageID" json:"latestMessage,omitempty"`

	Members []User `gorm:"many2many:chat_members;" json:"users"`

	// User IDs that blocked this conversation
	BlockedBy StringSlice `gorm:"type:text" json:"blockedBy"`

	// Both maps are keyed by user ID and serialized as plain JSON
	// objects, also at the API boundary
	Wallpapers StringMap `gorm:"type:text" json:"wallpapers"`
	Nicknames  StringMap `gorm:"type:text" json:"nicknames"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
