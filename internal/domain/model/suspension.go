package model

import (
	"time"

	"github.com/DevAniketIT/Playbharat/internal/domain/enums"
)

// SuspensionTarget is the tagged user-or-channel reference a suspension
// applies to. Exactly one target per suspension, enforced by the type
// rather than by a pair of nullable foreign keys.
type SuspensionTarget struct {
	Kind enums.SuspensionTargetKind `json:"kind"`
	ID   int64                      `json:"id"`
}

func UserTarget(id int64) SuspensionTarget {
	return SuspensionTarget{Kind: enums.SuspensionTargetUser, ID: id}
}

func ChannelTarget(id int64) SuspensionTarget {
	return SuspensionTarget{Kind: enums.SuspensionTargetChannel, ID: id}
}

type Suspension struct {
	ID     int64            `json:"id"`
	Target SuspensionTarget `json:"target"`

	Type        enums.SuspensionType  `json:"suspension_type"`
	Cause       enums.SuspensionCause `json:"cause"`
	SuspendedBy int64                 `json:"suspended_by"`
	Reason      string                `json:"reason"`
	Details     string                `json:"details"`

	StartsAt  time.Time  `json:"starts_at"`
	ExpiresAt *time.Time `json:"expires_at"`

	IsActive   bool       `json:"is_active"`
	LiftedBy   *int64     `json:"lifted_by"`
	LiftedAt   *time.Time `json:"lifted_at"`
	LiftReason string     `json:"lift_reason"`

	CreatedAt time.Time `json:"created_at"`
}
