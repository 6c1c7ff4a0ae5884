package suspensions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/DevAniketIT/Playbharat/internal/domain/enums"
	"github.com/DevAniketIT/Playbharat/internal/domain/model"
	"github.com/DevAniketIT/Playbharat/internal/domain/rules"
	pgrepo "github.com/DevAniketIT/Playbharat/internal/repo/postgres"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidState     = errors.New("invalid state")
	ErrConflict         = errors.New("concurrent moderation conflict")
)

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type UserStore interface {
	GetByID(ctx context.Context, userID int64) (model.User, error)
	LockModeration(ctx context.Context, tx pgx.Tx, userID int64) (model.User, error)
	SaveModeration(ctx context.Context, tx pgx.Tx, user model.User) error
}

type ChannelStore interface {
	LockModeration(ctx context.Context, tx pgx.Tx, channelID int64) (model.Channel, error)
	SaveModeration(ctx context.Context, tx pgx.Tx, channel model.Channel) error
	SuspendOwned(ctx context.Context, tx pgx.Tx, ownerID int64, reason string, suspendedBy int64, at time.Time, deactivate bool) ([]int64, error)
	ClearSuspension(ctx context.Context, tx pgx.Tx, channelID int64) error
}

type SuspensionStore interface {
	Insert(ctx context.Context, tx pgx.Tx, s model.Suspension) (model.Suspension, error)
	GetByID(ctx context.Context, suspensionID int64) (model.Suspension, error)
	LockByID(ctx context.Context, tx pgx.Tx, suspensionID int64) (model.Suspension, error)
	HasActive(ctx context.Context, tx pgx.Tx, target model.SuspensionTarget, typ enums.SuspensionType) (bool, error)
	FindActive(ctx context.Context, tx pgx.Tx, target model.SuspensionTarget, typ enums.SuspensionType) (model.Suspension, error)
	MarkLifted(ctx context.Context, tx pgx.Tx, suspensionID, liftedBy int64, at time.Time, reason string) error
	ListByTarget(ctx context.Context, target model.SuspensionTarget, limit int) ([]model.Suspension, error)
	ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]model.Suspension, error)
	ActiveBanCascadeForOwner(ctx context.Context, tx pgx.Tx, ownerID int64) ([]model.Suspension, error)
}

type AuditStore interface {
	Append(ctx context.Context, tx pgx.Tx, action model.AdminAction) (model.AdminAction, error)
}

type StrikeStore interface {
	CountActive(ctx context.Context, tx pgx.Tx, userID int64, now time.Time) (int, error)
}

type Dependencies struct {
	Runner      TxRunner
	Users       UserStore
	Channels    ChannelStore
	Suspensions SuspensionStore
	Strikes     StrikeStore
	Audit       AuditStore
}

// Service manages the suspension lifecycle for users and channels: placing
// restrictions, mirroring them onto the target's flags, and lifting them
// with exact restoration of whatever the suspension type took away.
type Service struct {
	runner      TxRunner
	users       UserStore
	channels    ChannelStore
	suspensions SuspensionStore
	strikes     StrikeStore
	audit       AuditStore
	policy      rules.Policy
	now         func() time.Time
}

func NewService(deps Dependencies, policy rules.Policy) *Service {
	return &Service{
		runner:      deps.Runner,
		users:       deps.Users,
		channels:    deps.Channels,
		suspensions: deps.Suspensions,
		strikes:     deps.Strikes,
		audit:       deps.Audit,
		policy:      policy,
		now:         time.Now,
	}
}

// SetNow overrides the service clock. Tests only.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

// IsExpired reports whether a suspension has run out without having been
// lifted. Expiry is lazy: nothing flips is_active in storage until the
// sweep or an explicit lift comes through.
func IsExpired(susp model.Suspension, now time.Time) bool {
	return susp.IsActive && susp.ExpiresAt != nil && !susp.ExpiresAt.After(now)
}

type SuspendUserInput struct {
	UserID   int64
	IssuerID int64
	Type     enums.SuspensionType
	Reason   string
	Details  string
	Duration time.Duration
	IP       string
}

// SuspendUser places a restriction on a user. At most one active suspension
// per (target, type); a second attempt of the same type is rejected.
// Type permanent is a ban and cascades to the user's channels.
func (s *Service) SuspendUser(ctx context.Context, in SuspendUserInput) (model.Suspension, error) {
	if in.UserID <= 0 || in.IssuerID <= 0 {
		return model.Suspension{}, fmt.Errorf("%w: user and issuer ids are required", ErrValidation)
	}
	if !in.Type.ValidFor(enums.SuspensionTargetUser) {
		return model.Suspension{}, fmt.Errorf("%w: %q is not a user suspension type", ErrValidation, in.Type)
	}
	if in.Reason == "" {
		return model.Suspension{}, fmt.Errorf("%w: reason is required", ErrValidation)
	}
	if in.Duration < 0 {
		return model.Suspension{}, fmt.Errorf("%w: duration cannot be negative", ErrValidation)
	}
	if err := s.checkModerator(ctx, in.IssuerID); err != nil {
		return model.Suspension{}, err
	}

	var placed model.Suspension
	err := s.runSerialized(ctx, func(ctx context.Context, tx pgx.Tx) error {
		user, err := s.users.LockModeration(ctx, tx, in.UserID)
		if err != nil {
			return translateStoreErr(err)
		}
		now := s.now().UTC()

		target := model.UserTarget(in.UserID)
		exists, err := s.suspensions.HasActive(ctx, tx, target, in.Type)
		if err != nil {
			return fmt.Errorf("check active suspension: %w", err)
		}
		if exists {
			return fmt.Errorf("%w: user %d already has an active %s suspension", ErrInvalidState, in.UserID, in.Type)
		}

		placed, err = s.suspensions.Insert(ctx, tx, model.Suspension{
			Target:      target,
			Type:        in.Type,
			Cause:       enums.SuspensionCauseManual,
			SuspendedBy: in.IssuerID,
			Reason:      in.Reason,
			Details:     in.Details,
			StartsAt:    now,
			ExpiresAt:   s.userExpiry(in.Type, in.Duration, now),
			IsActive:    true,
			CreatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("insert suspension: %w", err)
		}

		actionType := enums.ActionUserSuspend
		switch in.Type {
		case enums.SuspensionTypeTemporary:
			user.IsSuspended = true
			user.SuspensionReason = in.Reason
			user.SuspensionExpiresAt = placed.ExpiresAt
			user.CanUpload = false
		case enums.SuspensionTypePermanent:
			actionType = enums.ActionUserBan
			if err := s.applyBanLocked(ctx, tx, &user, in.IssuerID, in.Reason, now); err != nil {
				return err
			}
		case enums.SuspensionTypeShadowBan:
			user.IsShadowBanned = true
		case enums.SuspensionTypeUploadBan:
			user.CanUpload = false
		case enums.SuspensionTypeCommentBan:
			user.CanComment = false
		}
		if err := s.users.SaveModeration(ctx, tx, user); err != nil {
			return fmt.Errorf("save user moderation: %w", err)
		}

		_, err = s.audit.Append(ctx, tx, model.AdminAction{
			AdminID:      in.IssuerID,
			Type:         actionType,
			TargetUserID: &in.UserID,
			Reason:       in.Reason,
			Details: map[string]any{
				"suspension_id":   placed.ID,
				"suspension_type": string(in.Type),
			},
			IPAddress: in.IP,
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("append audit record: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Suspension{}, err
	}
	return placed, nil
}

type SuspendChannelInput struct {
	ChannelID int64
	IssuerID  int64
	Type      enums.SuspensionType
	Reason    string
	Details   string
	Duration  time.Duration
	IP        string
}

func (s *Service) SuspendChannel(ctx context.Context, in SuspendChannelInput) (model.Suspension, error) {
	if in.ChannelID <= 0 || in.IssuerID <= 0 {
		return model.Suspension{}, fmt.Errorf("%w: channel and issuer ids are required", ErrValidation)
	}
	if !in.Type.ValidFor(enums.SuspensionTargetChannel) {
		return model.Suspension{}, fmt.Errorf("%w: %q is not a channel suspension type", ErrValidation, in.Type)
	}
	if in.Reason == "" {
		return model.Suspension{}, fmt.Errorf("%w: reason is required", ErrValidation)
	}
	if in.Duration < 0 {
		return model.Suspension{}, fmt.Errorf("%w: duration cannot be negative", ErrValidation)
	}
	if err := s.checkModerator(ctx, in.IssuerID); err != nil {
		return model.Suspension{}, err
	}

	var placed model.Suspension
	err := s.runSerialized(ctx, func(ctx context.Context, tx pgx.Tx) error {
		channel, err := s.channels.LockModeration(ctx, tx, in.ChannelID)
		if err != nil {
			return translateStoreErr(err)
		}
		now := s.now().UTC()

		target := model.ChannelTarget(in.ChannelID)
		exists, err := s.suspensions.HasActive(ctx, tx, target, in.Type)
		if err != nil {
			return fmt.Errorf("check active suspension: %w", err)
		}
		if exists {
			return fmt.Errorf("%w: channel %d already has an active %s suspension", ErrInvalidState, in.ChannelID, in.Type)
		}

		placed, err = s.suspensions.Insert(ctx, tx, model.Suspension{
			Target:      target,
			Type:        in.Type,
			Cause:       enums.SuspensionCauseManual,
			SuspendedBy: in.IssuerID,
			Reason:      in.Reason,
			Details:     in.Details,
			StartsAt:    now,
			ExpiresAt:   s.channelExpiry(in.Type, in.Duration, now),
			IsActive:    true,
			CreatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("insert suspension: %w", err)
		}

		switch in.Type {
		case enums.SuspensionTypeTemporary, enums.SuspensionTypePermanent:
			channel.IsSuspended = true
			channel.SuspensionReason = in.Reason
			channel.SuspendedBy = &in.IssuerID
			suspendedAt := now
			channel.SuspendedAt = &suspendedAt
			channel.SuspensionExpiresAt = placed.ExpiresAt
			channel.CanUpload = false
			if in.Type == enums.SuspensionTypePermanent {
				channel.IsActive = false
			}
		case enums.SuspensionTypeUploadDisabled:
			channel.CanUpload = false
		case enums.SuspensionTypeMonetizationDisabled:
			channel.CanMonetize = false
		}
		if err := s.channels.SaveModeration(ctx, tx, channel); err != nil {
			return fmt.Errorf("save channel moderation: %w", err)
		}

		_, err = s.audit.Append(ctx, tx, model.AdminAction{
			AdminID:         in.IssuerID,
			Type:            enums.ActionChannelSuspend,
			TargetChannelID: &in.ChannelID,
			Reason:          in.Reason,
			Details: map[string]any{
				"suspension_id":   placed.ID,
				"suspension_type": string(in.Type),
			},
			IPAddress: in.IP,
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("append audit record: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Suspension{}, err
	}
	return placed, nil
}

// Lift deactivates a suspension and restores exactly what its type revoked.
// Lifting an already-lifted suspension is rejected, which makes retries
// after a timeout safe.
func (s *Service) Lift(ctx context.Context, suspensionID, liftedBy int64, reason, ip string) error {
	if suspensionID <= 0 || liftedBy <= 0 {
		return fmt.Errorf("%w: suspension and lifter ids are required", ErrValidation)
	}
	if reason == "" {
		return fmt.Errorf("%w: reason is required", ErrValidation)
	}
	if err := s.checkModerator(ctx, liftedBy); err != nil {
		return err
	}

	return s.runSerialized(ctx, func(ctx context.Context, tx pgx.Tx) error {
		susp, err := s.suspensions.LockByID(ctx, tx, suspensionID)
		if err != nil {
			return translateStoreErr(err)
		}
		if !susp.IsActive {
			return fmt.Errorf("%w: suspension %d is not active", ErrInvalidState, suspensionID)
		}
		now := s.now().UTC()

		if err := s.suspensions.MarkLifted(ctx, tx, suspensionID, liftedBy, now, reason); err != nil {
			return translateStoreErr(err)
		}

		switch susp.Target.Kind {
		case enums.SuspensionTargetUser:
			err = s.restoreUser(ctx, tx, susp, liftedBy, now)
		case enums.SuspensionTargetChannel:
			err = s.restoreChannel(ctx, tx, susp)
		default:
			err = fmt.Errorf("%w: unknown target kind %q", ErrInvalidState, susp.Target.Kind)
		}
		if err != nil {
			return err
		}

		_, err = s.audit.Append(ctx, tx, s.liftAction(susp, liftedBy, reason, ip, now))
		if err != nil {
			return fmt.Errorf("append audit record: %w", err)
		}
		return nil
	})
}

// BanUser permanently bans a user outside the strike flow. It is the same
// operation as SuspendUser with type permanent, audited as user_ban.
func (s *Service) BanUser(ctx context.Context, userID, issuerID int64, reason, ip string) (model.Suspension, error) {
	return s.SuspendUser(ctx, SuspendUserInput{
		UserID:   userID,
		IssuerID: issuerID,
		Type:     enums.SuspensionTypePermanent,
		Reason:   reason,
		IP:       ip,
	})
}

// UnbanUser lifts the user's active permanent suspension, restoring the
// account and every channel the ban cascade touched. Channels suspended
// for independent reasons stay suspended.
func (s *Service) UnbanUser(ctx context.Context, userID, issuerID int64, reason, ip string) error {
	if userID <= 0 || issuerID <= 0 {
		return fmt.Errorf("%w: user and issuer ids are required", ErrValidation)
	}
	if reason == "" {
		return fmt.Errorf("%w: reason is required", ErrValidation)
	}
	if err := s.checkModerator(ctx, issuerID); err != nil {
		return err
	}

	return s.runSerialized(ctx, func(ctx context.Context, tx pgx.Tx) error {
		user, err := s.users.LockModeration(ctx, tx, userID)
		if err != nil {
			return translateStoreErr(err)
		}
		if !user.IsBanned {
			return fmt.Errorf("%w: user %d is not banned", ErrInvalidState, userID)
		}
		now := s.now().UTC()

		ban, err := s.suspensions.FindActive(ctx, tx, model.UserTarget(userID), enums.SuspensionTypePermanent)
		switch {
		case err == nil:
			if err := s.suspensions.MarkLifted(ctx, tx, ban.ID, issuerID, now, reason); err != nil {
				return translateStoreErr(err)
			}
		case errors.Is(err, pgrepo.ErrSuspensionNotFound):
			// Flag set without a ledger row; still restore the account.
		default:
			return fmt.Errorf("find ban suspension: %w", err)
		}

		if err := s.liftBanLocked(ctx, tx, &user, issuerID, now, reason); err != nil {
			return err
		}

		_, err = s.audit.Append(ctx, tx, model.AdminAction{
			AdminID:      issuerID,
			Type:         enums.ActionUserUnban,
			TargetUserID: &userID,
			Reason:       reason,
			Details:      map[string]any{"suspension_id": ban.ID},
			IPAddress:    ip,
			CreatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("append audit record: %w", err)
		}
		return nil
	})
}

func (s *Service) GetSuspension(ctx context.Context, suspensionID int64) (model.Suspension, error) {
	susp, err := s.suspensions.GetByID(ctx, suspensionID)
	if err != nil {
		return model.Suspension{}, translateStoreErr(err)
	}
	return susp, nil
}

func (s *Service) ListForUser(ctx context.Context, userID int64, limit int) ([]model.Suspension, error) {
	return s.listForTarget(ctx, model.UserTarget(userID), limit)
}

func (s *Service) ListForChannel(ctx context.Context, channelID int64, limit int) ([]model.Suspension, error) {
	return s.listForTarget(ctx, model.ChannelTarget(channelID), limit)
}

func (s *Service) listForTarget(ctx context.Context, target model.SuspensionTarget, limit int) ([]model.Suspension, error) {
	if target.ID <= 0 {
		return nil, fmt.Errorf("%w: target id is required", ErrValidation)
	}
	out, err := s.suspensions.ListByTarget(ctx, target, limit)
	if err != nil {
		return nil, fmt.Errorf("list suspensions: %w", err)
	}
	return out, nil
}

// ListExpired returns active suspensions whose expiry has passed. The sweep
// feeds these into Lift one by one.
func (s *Service) ListExpired(ctx context.Context, limit int) ([]model.Suspension, error) {
	out, err := s.suspensions.ListExpiredActive(ctx, s.now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list expired suspensions: %w", err)
	}
	return out, nil
}

func (s *Service) userExpiry(typ enums.SuspensionType, duration time.Duration, now time.Time) *time.Time {
	if typ == enums.SuspensionTypePermanent {
		return nil
	}
	if duration == 0 {
		if typ == enums.SuspensionTypeTemporary {
			exp := s.policy.SuspensionExpiry(now)
			return &exp
		}
		// Shadow, upload and comment bans default to indefinite.
		return nil
	}
	exp := now.Add(duration)
	return &exp
}

func (s *Service) channelExpiry(typ enums.SuspensionType, duration time.Duration, now time.Time) *time.Time {
	if typ == enums.SuspensionTypePermanent {
		return nil
	}
	if duration == 0 {
		if typ == enums.SuspensionTypeTemporary {
			exp := s.policy.SuspensionExpiry(now)
			return &exp
		}
		return nil
	}
	exp := now.Add(duration)
	return &exp
}

func (s *Service) applyBanLocked(ctx context.Context, tx pgx.Tx, user *model.User, issuerID int64, reason string, now time.Time) error {
	if user.IsBanned {
		return fmt.Errorf("%w: user %d is already banned", ErrInvalidState, user.ID)
	}
	user.IsBanned = true
	user.BanReason = reason
	bannedAt := now
	user.BannedAt = &bannedAt
	by := issuerID
	user.BannedBy = &by
	user.IsActive = false
	user.CanUpload = false

	channelIDs, err := s.channels.SuspendOwned(ctx, tx, user.ID, "User permanently banned", issuerID, now, true)
	if err != nil {
		return fmt.Errorf("suspend owned channels: %w", err)
	}
	for _, channelID := range channelIDs {
		_, err = s.suspensions.Insert(ctx, tx, model.Suspension{
			Target:      model.ChannelTarget(channelID),
			Type:        enums.SuspensionTypePermanent,
			Cause:       enums.SuspensionCauseBanCascade,
			SuspendedBy: issuerID,
			Reason:      "User permanently banned",
			StartsAt:    now,
			IsActive:    true,
			CreatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("insert cascade suspension for channel %d: %w", channelID, err)
		}
	}
	return nil
}

func (s *Service) restoreUser(ctx context.Context, tx pgx.Tx, susp model.Suspension, liftedBy int64, now time.Time) error {
	user, err := s.users.LockModeration(ctx, tx, susp.Target.ID)
	if err != nil {
		return translateStoreErr(err)
	}

	switch susp.Type {
	case enums.SuspensionTypePermanent:
		if err := s.liftBanLocked(ctx, tx, &user, liftedBy, now, susp.LiftReason); err != nil {
			return err
		}
	case enums.SuspensionTypeTemporary:
		user.IsSuspended = false
		user.SuspensionReason = ""
		user.SuspensionExpiresAt = nil
		if err := s.restoreUpload(ctx, tx, &user, now); err != nil {
			return err
		}
	case enums.SuspensionTypeShadowBan:
		user.IsShadowBanned = false
	case enums.SuspensionTypeUploadBan:
		if err := s.restoreUpload(ctx, tx, &user, now); err != nil {
			return err
		}
	case enums.SuspensionTypeCommentBan:
		user.CanComment = true
	}
	if err := s.users.SaveModeration(ctx, tx, user); err != nil {
		return fmt.Errorf("save user moderation: %w", err)
	}
	return nil
}

// restoreUpload hands uploads back only when nothing else still revokes
// them: another active suspension of a type that takes uploads away, or an
// active-strike tier at suspended or above. The row being lifted was
// already deactivated, so it never counts against its own restoration.
func (s *Service) restoreUpload(ctx context.Context, tx pgx.Tx, user *model.User, now time.Time) error {
	target := model.UserTarget(user.ID)
	for _, typ := range []enums.SuspensionType{enums.SuspensionTypeUploadBan, enums.SuspensionTypeTemporary, enums.SuspensionTypePermanent} {
		active, err := s.suspensions.HasActive(ctx, tx, target, typ)
		if err != nil {
			return fmt.Errorf("check %s suspension: %w", typ, err)
		}
		if active {
			return nil
		}
	}
	count, err := s.strikes.CountActive(ctx, tx, user.ID, now)
	if err != nil {
		return fmt.Errorf("count active strikes: %w", err)
	}
	if rules.TierForActiveStrikes(count) >= rules.TierSuspended {
		return nil
	}
	user.CanUpload = true
	return nil
}

// liftBanLocked clears the ban fields and undoes only the channel
// suspensions the ban cascade created. The caller saves the user row.
func (s *Service) liftBanLocked(ctx context.Context, tx pgx.Tx, user *model.User, liftedBy int64, now time.Time, reason string) error {
	user.IsBanned = false
	user.BanReason = ""
	user.BannedAt = nil
	user.BannedBy = nil
	user.IsActive = true
	if err := s.restoreUpload(ctx, tx, user, now); err != nil {
		return err
	}

	cascades, err := s.suspensions.ActiveBanCascadeForOwner(ctx, tx, user.ID)
	if err != nil {
		return fmt.Errorf("list cascade suspensions: %w", err)
	}
	for _, cascade := range cascades {
		if err := s.suspensions.MarkLifted(ctx, tx, cascade.ID, liftedBy, now, reason); err != nil {
			return translateStoreErr(err)
		}
		if err := s.channels.ClearSuspension(ctx, tx, cascade.Target.ID); err != nil {
			return fmt.Errorf("clear channel %d suspension: %w", cascade.Target.ID, err)
		}
	}

	if err := s.users.SaveModeration(ctx, tx, *user); err != nil {
		return fmt.Errorf("save user moderation: %w", err)
	}
	return nil
}

func (s *Service) restoreChannel(ctx context.Context, tx pgx.Tx, susp model.Suspension) error {
	channel, err := s.channels.LockModeration(ctx, tx, susp.Target.ID)
	if err != nil {
		return translateStoreErr(err)
	}

	switch susp.Type {
	case enums.SuspensionTypeTemporary, enums.SuspensionTypePermanent:
		channel.IsSuspended = false
		channel.SuspensionReason = ""
		channel.SuspendedBy = nil
		channel.SuspendedAt = nil
		channel.SuspensionExpiresAt = nil
		channel.IsActive = true
		channel.CanUpload = true
	case enums.SuspensionTypeUploadDisabled:
		channel.CanUpload = true
	case enums.SuspensionTypeMonetizationDisabled:
		channel.CanMonetize = true
	}
	if err := s.channels.SaveModeration(ctx, tx, channel); err != nil {
		return fmt.Errorf("save channel moderation: %w", err)
	}
	return nil
}

func (s *Service) liftAction(susp model.Suspension, liftedBy int64, reason, ip string, now time.Time) model.AdminAction {
	action := model.AdminAction{
		AdminID: liftedBy,
		Type:    enums.ActionSuspensionLift,
		Reason:  reason,
		Details: map[string]any{
			"suspension_id":   susp.ID,
			"suspension_type": string(susp.Type),
		},
		IPAddress: ip,
		CreatedAt: now,
	}
	switch susp.Target.Kind {
	case enums.SuspensionTargetUser:
		id := susp.Target.ID
		action.TargetUserID = &id
		if susp.Type == enums.SuspensionTypePermanent {
			action.Type = enums.ActionUserUnban
		}
	case enums.SuspensionTargetChannel:
		id := susp.Target.ID
		action.TargetChannelID = &id
	}
	return action
}

func (s *Service) checkModerator(ctx context.Context, adminID int64) error {
	admin, err := s.users.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return fmt.Errorf("%w: admin %d", ErrNotFound, adminID)
		}
		return fmt.Errorf("load admin: %w", err)
	}
	if !admin.Role.CanModerate() {
		return fmt.Errorf("%w: %s cannot moderate", ErrPermissionDenied, admin.Handle)
	}
	return nil
}

func (s *Service) runSerialized(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	err := s.runner.WithTx(ctx, fn)
	if errors.Is(err, pgrepo.ErrSerialization) {
		err = s.runner.WithTx(ctx, fn)
	}
	if errors.Is(err, pgrepo.ErrSerialization) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, pgrepo.ErrUserNotFound),
		errors.Is(err, pgrepo.ErrChannelNotFound),
		errors.Is(err, pgrepo.ErrSuspensionNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, pgrepo.ErrSuspensionInactive):
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return err
}
