package model

import (
	"time"

	"gorm.io/gorm"
)

// Pass is a time-boxed authorization. It only admits its owner while paid and
// the validity window [valid_from, valid_to) has not closed.
type Pass struct {
	ID        string     `gorm:"type:varchar(32);primaryKey" json:"id"`
	UserID    string     `gorm:"type:varchar(32);not null;index" json:"user_id"`
	Role      Role       `gorm:"type:varchar(16);not null" json:"role"`
	PlanType  string     `gorm:"type:varchar(32);not null" json:"plan_type"`
	ValidFrom time.Time  `gorm:"not null" json:"valid_from"`
	ValidTo   time.Time  `gorm:"not null;index" json:"valid_to"`
	PriceRM   float64    `gorm:"not null" json:"price_rm"`
	IsPaid    bool       `gorm:"not null;default:false" json:"is_paid"`
	PaidAt    *time.Time `json:"paid_at"`
}

func (Pass) TableName() string {
	return "passes"
}

func (p *Pass) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID("PASS")
	}
	return nil
}
