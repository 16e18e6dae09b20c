package model

import (
	"time"

	"gorm.io/gorm"
)

type Decision string

const (
	DecisionAllow Decision = "ALLOW"
	DecisionDeny  Decision = "DENY"
	DecisionGuest Decision = "GUEST"
)

// AccessEventCapacity bounds the audit log; the store keeps the newest
// events and trims the tail.
const AccessEventCapacity = 200

// AccessEvent is an immutable audit record of a single gate decision.
// Confidence is informational only and never feeds back into admission.
type AccessEvent struct {
	ID          string    `gorm:"type:varchar(32);primaryKey" json:"id"`
	PlateText   string    `gorm:"type:varchar(32);not null;index" json:"plate_text"`
	Confidence  float64   `gorm:"not null" json:"confidence"`
	Decision    Decision  `gorm:"type:varchar(8);not null" json:"decision"`
	Role        Role      `gorm:"type:varchar(16);not null" json:"role"`
	Reason      string    `gorm:"type:text" json:"reason"`
	Gate        string    `gorm:"type:varchar(64);not null" json:"gate"`
	SnapshotURL *string   `gorm:"type:text" json:"snapshot_url"`
	Timestamp   time.Time `gorm:"not null;index" json:"timestamp"`
}

func (AccessEvent) TableName() string {
	return "access_events"
}

func (e *AccessEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = NewID("EVT")
	}
	return nil
}
