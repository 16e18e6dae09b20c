package model

import (
	"time"

	"gorm.io/gorm"
)

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

func (s ReviewStatus) ValidDecision() bool {
	return s == ReviewStatusApproved || s == ReviewStatusRejected
}

// PassApplication is submitted during client registration and reviewed by an
// admin. Pending is the only mutable state.
type PassApplication struct {
	ID          string       `gorm:"type:varchar(32);primaryKey" json:"id"`
	UserID      string       `gorm:"type:varchar(32);not null;index" json:"user_id"`
	Role        Role         `gorm:"type:varchar(16);not null" json:"role"`
	PlanType    string       `gorm:"type:varchar(32);not null" json:"plan_type"`
	Vehicles    []string     `gorm:"serializer:json" json:"vehicles"`
	Status      ReviewStatus `gorm:"type:varchar(16);not null;default:pending" json:"status"`
	SubmittedAt time.Time    `gorm:"not null" json:"submitted_at"`
	ReviewedAt  *time.Time   `json:"reviewed_at"`
	ReviewerID  string       `gorm:"type:varchar(32)" json:"reviewer_id"`
	ReviewNote  string       `gorm:"type:text" json:"review_note"`
}

func (PassApplication) TableName() string {
	return "pass_applications"
}

func (a *PassApplication) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = NewID("APP")
	}
	return nil
}

// RoleUpgradeRequest asks to move a user up the role ladder. Shares the
// pending -> approved/rejected state machine with PassApplication.
type RoleUpgradeRequest struct {
	ID          string       `gorm:"type:varchar(32);primaryKey" json:"id"`
	UserID      string       `gorm:"type:varchar(32);not null;index" json:"user_id"`
	TargetRole  Role         `gorm:"type:varchar(16);not null" json:"target_role"`
	Reason      string       `gorm:"type:text" json:"reason"`
	Attachments []string     `gorm:"serializer:json" json:"attachments"`
	Status      ReviewStatus `gorm:"type:varchar(16);not null;default:pending" json:"status"`
	SubmittedAt time.Time    `gorm:"not null" json:"submitted_at"`
	ReviewedAt  *time.Time   `json:"reviewed_at"`
	ReviewerID  string       `gorm:"type:varchar(32)" json:"reviewer_id"`
}

func (RoleUpgradeRequest) TableName() string {
	return "role_upgrade_requests"
}

func (r *RoleUpgradeRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = NewID("URQ")
	}
	return nil
}
