package dto

type IssueStrikeRequest struct {
	StrikeType string `json:"strike_type"`
	Severity   string `json:"severity"`
	Reason     string `json:"reason"`
	Details    string `json:"details,omitempty"`
}

type ResolveStrikeRequest struct {
	Reason string `json:"reason"`
}

type BanUserRequest struct {
	Reason string `json:"reason"`
}

type UnbanUserRequest struct {
	Reason string `json:"reason"`
}

type SuspendRequest struct {
	SuspensionType string `json:"suspension_type"`
	Reason         string `json:"reason"`
	Details        string `json:"details,omitempty"`
	DurationHours  int64  `json:"duration_hours,omitempty"`
}

type LiftSuspensionRequest struct {
	Reason string `json:"reason"`
}

type StrikeCountResponse struct {
	UserID        int64 `json:"user_id"`
	ActiveStrikes int   `json:"active_strikes"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
