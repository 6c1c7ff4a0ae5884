package enums

type ActionType string

const (
	ActionUserBan             ActionType = "user_ban"
	ActionUserUnban           ActionType = "user_unban"
	ActionUserStrike          ActionType = "user_strike"
	ActionUserWarning         ActionType = "user_warning"
	ActionStrikeResolve       ActionType = "strike_resolve"
	ActionUserSuspend         ActionType = "user_suspend"
	ActionChannelSuspend      ActionType = "channel_suspend"
	ActionChannelRestore      ActionType = "channel_restore"
	ActionSuspensionLift      ActionType = "suspension_lift"
	ActionRoleChange          ActionType = "role_change"
	ActionVerificationGrant   ActionType = "verification_grant"
	ActionVerificationRevoke  ActionType = "verification_revoke"
	ActionMonetizationEnable  ActionType = "monetization_enable"
	ActionMonetizationDisable ActionType = "monetization_disable"
)

func (t ActionType) Valid() bool {
	switch t {
	case ActionUserBan, ActionUserUnban, ActionUserStrike, ActionUserWarning,
		ActionStrikeResolve, ActionUserSuspend, ActionChannelSuspend,
		ActionChannelRestore, ActionSuspensionLift, ActionRoleChange,
		ActionVerificationGrant, ActionVerificationRevoke,
		ActionMonetizationEnable, ActionMonetizationDisable:
		return true
	}
	return false
}
