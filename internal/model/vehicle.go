package model

import "gorm.io/gorm"

// Vehicle stores the plate in normalized form: uppercase, alphanumeric with
// runs of other characters collapsed to single spaces.
type Vehicle struct {
	ID        string `gorm:"type:varchar(32);primaryKey" json:"id"`
	PlateText string `gorm:"type:varchar(32);not null;index" json:"plate_text"`
	UserID    string `gorm:"type:varchar(32);not null;index" json:"user_id"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}

func (v *Vehicle) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = NewID("VEH")
	}
	return nil
}
