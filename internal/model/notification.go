package model

import (
	"time"

	"gorm.io/gorm"
)

type Notification struct {
	ID        string    `gorm:"type:varchar(32);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(32);not null;index" json:"user_id"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = NewID("NTF")
	}
	return nil
}
