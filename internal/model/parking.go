package model

import (
	"math"

	"gorm.io/gorm"
)

// ParkingVenue is a capacity-clamped occupancy counter. Occupied always sits
// in [0, capacity] and percent is derived, 0 when capacity is 0.
type ParkingVenue struct {
	ID       string  `gorm:"type:varchar(32);primaryKey" json:"id"`
	Name     string  `gorm:"type:varchar(128);not null" json:"name"`
	Capacity int     `gorm:"not null" json:"capacity"`
	Occupied int     `gorm:"not null" json:"occupied"`
	Percent  float64 `gorm:"not null" json:"percent"`
}

func (ParkingVenue) TableName() string {
	return "parking_venues"
}

func (v *ParkingVenue) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = NewID("VEN")
	}
	return nil
}

// Clamp normalizes capacity and occupancy and recomputes percent.
func (v *ParkingVenue) Clamp() {
	if v.Capacity < 0 {
		v.Capacity = 0
	}
	if v.Occupied < 0 {
		v.Occupied = 0
	}
	if v.Occupied > v.Capacity {
		v.Occupied = v.Capacity
	}
	if v.Capacity == 0 {
		v.Percent = 0
		return
	}
	v.Percent = math.Round(float64(v.Occupied)/float64(v.Capacity)*1000) / 10
}

type ParkingOverview struct {
	Venues []ParkingVenue `json:"venues"`
}
