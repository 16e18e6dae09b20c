package model

import (
	"time"

	"gorm.io/gorm"
)

type GuestSessionStatus string

const (
	GuestSessionOpen   GuestSessionStatus = "open"
	GuestSessionClosed GuestSessionStatus = "closed"
	GuestSessionPaid   GuestSessionStatus = "paid"
)

// GuestSession is a metered pay-per-use window for an unregistered plate.
// Transitions are monotonic: open -> closed -> paid, or open -> paid.
type GuestSession struct {
	ID        string             `gorm:"type:varchar(32);primaryKey" json:"id"`
	PlateText string             `gorm:"type:varchar(32);not null;index" json:"plate_text"`
	StartTime time.Time          `gorm:"not null" json:"start_time"`
	EndTime   *time.Time         `json:"end_time"`
	Minutes   *int               `json:"minutes"`
	Fee       *float64           `json:"fee"`
	Status    GuestSessionStatus `gorm:"type:varchar(16);not null;default:open" json:"status"`
}

func (GuestSession) TableName() string {
	return "guest_sessions"
}

func (s *GuestSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = NewID("GST")
	}
	return nil
}

// GuestRate is the administrator-settable metering configuration, read at
// fee-computation time.
type GuestRate struct {
	ID            int     `gorm:"primaryKey" json:"-"`
	BaseRate      float64 `gorm:"not null" json:"base_rate"`
	PerMinuteRate float64 `gorm:"not null" json:"per_minute_rate"`
}

func (GuestRate) TableName() string {
	return "guest_rates"
}

// Fee computes base + per-minute * minutes, never below the base rate.
func (r GuestRate) Fee(minutes int) float64 {
	if minutes < 0 {
		minutes = 0
	}
	return r.BaseRate + r.PerMinuteRate*float64(minutes)
}

// BillableMinutes floors the elapsed time to whole minutes with a one-minute
// minimum charge.
func BillableMinutes(start, end time.Time) int {
	minutes := int(end.Sub(start) / time.Minute)
	if minutes < 1 {
		return 1
	}
	return minutes
}
