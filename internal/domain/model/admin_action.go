package model

import (
	"time"

	"github.com/DevAniketIT/Playbharat/internal/domain/enums"
)

// AdminAction is the append-only audit record of a single administrative
// operation. Rows are never updated or deleted after creation.
type AdminAction struct {
	ID      int64            `json:"id"`
	AdminID int64            `json:"admin_id"`
	Type    enums.ActionType `json:"action_type"`

	TargetUserID    *int64 `json:"target_user_id"`
	TargetChannelID *int64 `json:"target_channel_id"`
	TargetVideoID   *int64 `json:"target_video_id"`

	Reason    string         `json:"reason"`
	Details   map[string]any `json:"details"`
	IPAddress string         `json:"ip_address"`

	CreatedAt time.Time `json:"created_at"`
}
