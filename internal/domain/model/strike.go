package model

import (
	"time"

	"github.com/DevAniketIT/Playbharat/internal/domain/enums"
)

type Strike struct {
	ID       int64 `json:"id"`
	UserID   int64 `json:"user_id"`
	IssuedBy int64 `json:"issued_by"`

	Type     enums.StrikeType     `json:"strike_type"`
	Severity enums.StrikeSeverity `json:"severity"`
	Reason   string               `json:"reason"`
	Details  string               `json:"details"`

	IsActive   bool       `json:"is_active"`
	ExpiresAt  *time.Time `json:"expires_at"`
	ResolvedAt *time.Time `json:"resolved_at"`
	ResolvedBy *int64     `json:"resolved_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
