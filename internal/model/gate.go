package model

import "gorm.io/gorm"

type ParkingDirection string

const (
	DirectionEntry ParkingDirection = "entry"
	DirectionExit  ParkingDirection = "exit"
)

// Gate is a physical checkpoint. Slug is unique and lowercase; the optional
// venue binding makes admitted traffic move the occupancy counter.
type Gate struct {
	ID               string            `gorm:"type:varchar(32);primaryKey" json:"id"`
	Name             string            `gorm:"type:varchar(128);not null" json:"name"`
	Slug             string            `gorm:"type:varchar(64);uniqueIndex;not null" json:"slug"`
	MinRole          Role              `gorm:"type:varchar(16);not null;default:guest" json:"min_role"`
	Location         string            `gorm:"type:varchar(128)" json:"location"`
	IsActive         bool              `gorm:"not null;default:true" json:"is_active"`
	ParkingVenueID   *string           `gorm:"type:varchar(32)" json:"parking_venue_id"`
	ParkingDirection *ParkingDirection `gorm:"type:varchar(16)" json:"parking_direction"`
}

func (Gate) TableName() string {
	return "gates"
}

func (g *Gate) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = NewID("GTE")
	}
	return nil
}
