package model

import (
	"time"

	"github.com/DevAniketIT/Playbharat/internal/domain/enums"
)

// User carries only the moderation-relevant slice of the platform's user
// record. Profile, playback and subscription data live in the main CRUD
// service and never reach this backend.
type User struct {
	ID       int64      `json:"id"`
	Handle   string     `json:"handle"`
	Role     enums.Role `json:"role"`
	IsActive bool       `json:"is_active"`

	IsBanned  bool       `json:"is_banned"`
	BanReason string     `json:"ban_reason"`
	BannedAt  *time.Time `json:"banned_at"`
	BannedBy  *int64     `json:"banned_by"`

	IsSuspended         bool       `json:"is_suspended"`
	SuspensionReason    string     `json:"suspension_reason"`
	SuspensionExpiresAt *time.Time `json:"suspension_expires_at"`

	IsShadowBanned bool `json:"is_shadow_banned"`

	IsWarned         bool       `json:"is_warned"`
	WarningExpiresAt *time.Time `json:"warning_expires_at"`
	WarningCount     int        `json:"warning_count"`

	CanUpload  bool `json:"can_upload"`
	CanComment bool `json:"can_comment"`
	CanLike    bool `json:"can_like"`

	// Denormalized from the strike ledger, recomputed transactionally on
	// every ledger write. Informational only.
	StrikeCount    int        `json:"strike_count"`
	LastStrikeDate *time.Time `json:"last_strike_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
