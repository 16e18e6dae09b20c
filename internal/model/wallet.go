package model

import (
	"time"

	"gorm.io/gorm"
)

type ProfileStatus string

const (
	ProfileStatusPending   ProfileStatus = "pending"
	ProfileStatusActive    ProfileStatus = "active"
	ProfileStatusSuspended ProfileStatus = "suspended"
)

type ClientRegistration struct {
	ID          string        `gorm:"type:varchar(32);primaryKey" json:"id"`
	UserID      string        `gorm:"type:varchar(32);not null;index" json:"user_id"`
	Status      ProfileStatus `gorm:"type:varchar(16);not null;default:pending" json:"status"`
	SubmittedAt time.Time     `gorm:"not null" json:"submitted_at"`
}

func (ClientRegistration) TableName() string {
	return "client_registrations"
}

func (r *ClientRegistration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = NewID("REG")
	}
	return nil
}

// ClientProfile carries the stored-value wallet. Balance is kept at two
// decimal places and never drops below zero.
type ClientProfile struct {
	UserID         string        `gorm:"type:varchar(32);primaryKey" json:"user_id"`
	RegistrationID string        `gorm:"type:varchar(32);not null" json:"registration_id"`
	Status         ProfileStatus `gorm:"type:varchar(16);not null;default:pending" json:"status"`
	GuestPIN       string        `gorm:"type:varchar(8)" json:"guest_pin"`
	WalletBalance  float64       `gorm:"not null;default:0" json:"wallet_balance"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ClientProfile) TableName() string {
	return "client_profiles"
}

type WalletTransactionType string

const (
	WalletTxnTopUp        WalletTransactionType = "top_up"
	WalletTxnPassPayment  WalletTransactionType = "pass_payment"
	WalletTxnGuestPayment WalletTransactionType = "guest_payment"
)

// WalletTransaction is an append-only ledger entry with a signed amount.
type WalletTransaction struct {
	ID          string                `gorm:"type:varchar(32);primaryKey" json:"id"`
	UserID      string                `gorm:"type:varchar(32);not null;index" json:"user_id"`
	Amount      float64               `gorm:"not null" json:"amount"`
	Type        WalletTransactionType `gorm:"type:varchar(32);not null" json:"type"`
	Description string                `gorm:"type:text" json:"description"`
	Source      string                `gorm:"type:varchar(32)" json:"source"`
	Timestamp   time.Time             `gorm:"not null;index" json:"timestamp"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}

func (t *WalletTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = NewID("TXN")
	}
	return nil
}

type ClientWallet struct {
	UserID    string     `json:"user_id"`
	Balance   float64    `json:"balance"`
	LastTopUp *time.Time `json:"last_top_up"`
	Currency  string     `json:"currency"`
}

type ClientWalletActivity struct {
	Wallet       ClientWallet        `json:"wallet"`
	Transactions []WalletTransaction `json:"transactions"`
}
