package model

import "gorm.io/gorm"

type User struct {
	ID        string `gorm:"type:varchar(32);primaryKey" json:"id"`
	Name      string `gorm:"type:varchar(128);not null" json:"name"`
	Email     string `gorm:"type:varchar(128);index" json:"email"`
	Phone     string `gorm:"type:varchar(32)" json:"phone"`
	Role      Role   `gorm:"type:varchar(16);not null;default:guest" json:"role"`
	Programme string `gorm:"type:varchar(64)" json:"programme"`

	// Derived from the client profile, never persisted on the user row.
	WalletBalance float64 `gorm:"-" json:"wallet_balance"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID("USR")
	}
	return nil
}

type UserCredential struct {
	UserID       string `gorm:"type:varchar(32);primaryKey" json:"user_id"`
	PasswordHash string `gorm:"type:varchar(128);not null" json:"-"`
}

func (UserCredential) TableName() string {
	return "user_credentials"
}
