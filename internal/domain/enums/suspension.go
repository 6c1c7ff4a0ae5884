package enums

// SuspensionTargetKind distinguishes the two entity kinds a suspension can
// apply to. A suspension has exactly one target.
type SuspensionTargetKind string

const (
	SuspensionTargetUser    SuspensionTargetKind = "user"
	SuspensionTargetChannel SuspensionTargetKind = "channel"
)

func (k SuspensionTargetKind) Valid() bool {
	return k == SuspensionTargetUser || k == SuspensionTargetChannel
}

type SuspensionType string

const (
	SuspensionTypeTemporary            SuspensionType = "temporary"
	SuspensionTypePermanent            SuspensionType = "permanent"
	SuspensionTypeShadowBan            SuspensionType = "shadow_ban"
	SuspensionTypeUploadBan            SuspensionType = "upload_ban"
	SuspensionTypeCommentBan           SuspensionType = "comment_ban"
	SuspensionTypeMonetizationDisabled SuspensionType = "monetization_disabled"
	SuspensionTypeUploadDisabled       SuspensionType = "upload_disabled"
)

var userSuspensionTypes = map[SuspensionType]struct{}{
	SuspensionTypeTemporary:  {},
	SuspensionTypePermanent:  {},
	SuspensionTypeShadowBan:  {},
	SuspensionTypeUploadBan:  {},
	SuspensionTypeCommentBan: {},
}

var channelSuspensionTypes = map[SuspensionType]struct{}{
	SuspensionTypeTemporary:            {},
	SuspensionTypePermanent:            {},
	SuspensionTypeMonetizationDisabled: {},
	SuspensionTypeUploadDisabled:       {},
}

// ValidFor reports whether the suspension type is allowed for the given
// target kind. The user and channel catalogs overlap on temporary/permanent
// but are otherwise distinct.
func (t SuspensionType) ValidFor(kind SuspensionTargetKind) bool {
	switch kind {
	case SuspensionTargetUser:
		_, ok := userSuspensionTypes[t]
		return ok
	case SuspensionTargetChannel:
		_, ok := channelSuspensionTypes[t]
		return ok
	}
	return false
}

// SuspensionCause records what produced a suspension, so that lifting a ban
// can undo only the channel suspensions the ban itself created.
type SuspensionCause string

const (
	SuspensionCauseManual     SuspensionCause = "manual"
	SuspensionCauseEscalation SuspensionCause = "escalation"
	SuspensionCauseBanCascade SuspensionCause = "ban_cascade"
)
