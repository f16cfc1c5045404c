package model

import "time"

type Message struct {
	ID         string `gorm:"primaryKey" json:"_id"`
	ChatID     string `gorm:"index;not null" json:"chatId"`
	SenderID   string `gorm:"index;not null" json:"-"`
	Sender     User   `gorm:"foreignKey:SenderID" json:"sender"`
	Content    string `json:"content"`
	Attachment string `json:"attachment"`

	CreatedAt time.Time `json:"createdAt"`
}
