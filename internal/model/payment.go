package model

import (
	"time"

	"gorm.io/gorm"
)

// Payment is an immutable charge record, optionally linked to the guest
// session or pass it settled.
type Payment struct {
	ID        string    `gorm:"type:varchar(32);primaryKey" json:"id"`
	Amount    float64   `gorm:"not null" json:"amount"`
	Status    string    `gorm:"type:varchar(16);not null" json:"status"`
	Processor string    `gorm:"type:varchar(32);not null" json:"processor"`
	Reference *string   `gorm:"type:varchar(64)" json:"reference"`
	Currency  string    `gorm:"type:varchar(8);not null" json:"currency"`
	SessionID *string   `gorm:"type:varchar(32)" json:"session_id"`
	PassID    *string   `gorm:"type:varchar(32)" json:"pass_id"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID("PAY")
	}
	return nil
}
