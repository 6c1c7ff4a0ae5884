package model

import "time"

type Channel struct {
	ID       int64  `json:"id"`
	OwnerID  int64  `json:"owner_id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`

	IsSuspended         bool       `json:"is_suspended"`
	SuspensionReason    string     `json:"suspension_reason"`
	SuspendedBy         *int64     `json:"suspended_by"`
	SuspendedAt         *time.Time `json:"suspended_at"`
	SuspensionExpiresAt *time.Time `json:"suspension_expires_at"`

	CanUpload   bool `json:"can_upload"`
	CanMonetize bool `json:"can_monetize"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
