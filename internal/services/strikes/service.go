package strikes

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

type StrikeStore interface {
	Insert(ctx context.Context, tx pgx.Tx, strike model.Strike) (model.Strike, error)
	CountActive(ctx context.Context, tx pgx.Tx, userID int64, now time.Time) (int, error)
	CountActiveNow(ctx context.Context, userID int64, now time.Time) (int, error)
	Stats(ctx context.Context, tx pgx.Tx, userID int64) (pgrepo.LedgerStats, error)
	GetByID(ctx context.Context, strikeID int64) (model.Strike, error)
	Resolve(ctx context.Context, tx pgx.Tx, strikeID, resolvedBy int64, at time.Time) (model.Strike, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]model.Strike, error)
	DeactivateExpired(ctx context.Context, tx pgx.Tx, now time.Time) ([]int64, error)
}

type ChannelStore interface {
	SuspendOwned(ctx context.Context, tx pgx.Tx, ownerID int64, reason string, suspendedBy int64, at time.Time, deactivate bool) ([]int64, error)
}

type SuspensionStore interface {
	Insert(ctx context.Context, tx pgx.Tx, s model.Suspension) (model.Suspension, error)
	HasActive(ctx context.Context, tx pgx.Tx, target model.SuspensionTarget, typ enums.SuspensionType) (bool, error)
}

type AuditStore interface {
	Append(ctx context.Context, tx pgx.Tx, action model.AdminAction) (model.AdminAction, error)
}

// CountCache is the optional read-side cache for active-strike counts. The
// ledger in Postgres stays authoritative; the cache is invalidated after
// every committed ledger write.
type CountCache interface {
	Get(ctx context.Context, userID int64) (int, bool, error)
	Set(ctx context.Context, userID int64, count int) error
	Invalidate(ctx context.Context, userID int64) error
}

type Dependencies struct {
	Runner      TxRunner
	Users       UserStore
	Strikes     StrikeStore
	Channels    ChannelStore
	Suspensions SuspensionStore
	Audit       AuditStore
	Cache       CountCache
}

// Service owns the strike ledger and the escalation that follows from it.
// Every ledger write recounts the user's active strikes under a row lock
// and re-applies the consequence tier from scratch.
type Service struct {
	runner      TxRunner
	users       UserStore
	strikes     StrikeStore
	channels    ChannelStore
	suspensions SuspensionStore
	audit       AuditStore
	cache       CountCache
	policy      rules.Policy
	now         func() time.Time
}

func NewService(deps Dependencies, policy rules.Policy) *Service {
	return &Service{
		runner:      deps.Runner,
		users:       deps.Users,
		strikes:     deps.Strikes,
		channels:    deps.Channels,
		suspensions: deps.Suspensions,
		audit:       deps.Audit,
		cache:       deps.Cache,
		policy:      policy,
		now:         time.Now,
	}
}

// SetNow overrides the service clock. Tests only.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

type IssueStrikeInput struct {
	UserID   int64
	IssuerID int64
	Type     enums.StrikeType
	Severity enums.StrikeSeverity
	Reason   string
	Details  string
	IP       string
}

// IssueStrike appends a strike to the user's ledger and applies whatever
// consequence tier the new active count lands on, all in one transaction.
// The user row is locked first so concurrent strikes serialize.
func (s *Service) IssueStrike(ctx context.Context, in IssueStrikeInput) (model.Strike, error) {
	if in.UserID <= 0 || in.IssuerID <= 0 {
		return model.Strike{}, fmt.Errorf("%w: user and issuer ids are required", ErrValidation)
	}
	if !in.Type.Valid() {
		return model.Strike{}, fmt.Errorf("%w: unknown strike type %q", ErrValidation, in.Type)
	}
	if !in.Severity.Valid() {
		return model.Strike{}, fmt.Errorf("%w: unknown severity %q", ErrValidation, in.Severity)
	}
	if in.Reason == "" {
		return model.Strike{}, fmt.Errorf("%w: reason is required", ErrValidation)
	}
	if err := s.checkModerator(ctx, in.IssuerID); err != nil {
		return model.Strike{}, err
	}

	var issued model.Strike
	err := s.runSerialized(ctx, func(ctx context.Context, tx pgx.Tx) error {
		user, err := s.users.LockModeration(ctx, tx, in.UserID)
		if err != nil {
			return translateUserErr(err)
		}

		now := s.now().UTC()
		strike := model.Strike{
			UserID:    in.UserID,
			IssuedBy:  in.IssuerID,
			Type:      in.Type,
			Severity:  in.Severity,
			Reason:    in.Reason,
			Details:   in.Details,
			IsActive:  true,
			ExpiresAt: s.policy.StrikeExpiry(in.Severity, now),
			CreatedAt: now,
		}
		issued, err = s.strikes.Insert(ctx, tx, strike)
		if err != nil {
			return fmt.Errorf("insert strike: %w", err)
		}

		count, err := s.strikes.CountActive(ctx, tx, in.UserID, now)
		if err != nil {
			return fmt.Errorf("count active strikes: %w", err)
		}
		tier := rules.TierForActiveStrikes(count)

		if err := s.applyTier(ctx, tx, &user, tier, &issued, now); err != nil {
			return err
		}
		if err := s.refreshLedgerFields(ctx, tx, &user); err != nil {
			return err
		}
		if err := s.users.SaveModeration(ctx, tx, user); err != nil {
			return fmt.Errorf("save user moderation: %w", err)
		}

		actionType := enums.ActionUserStrike
		if in.Severity == enums.StrikeSeverityWarning {
			actionType = enums.ActionUserWarning
		}
		_, err = s.audit.Append(ctx, tx, model.AdminAction{
			AdminID:      in.IssuerID,
			Type:         actionType,
			TargetUserID: &in.UserID,
			Reason:       in.Reason,
			Details: map[string]any{
				"strike_id":    issued.ID,
				"strike_type":  string(in.Type),
				"severity":     string(in.Severity),
				"active_count": count,
				"applied_tier": tier.String(),
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
		return model.Strike{}, err
	}

	s.invalidateCount(ctx, in.UserID)
	return issued, nil
}

// ResolveStrike marks a strike resolved and re-derives the user's tier from
// the remaining active strikes. Already-applied consequences are not rolled
// back; only future escalation sees the lower count.
func (s *Service) ResolveStrike(ctx context.Context, strikeID, resolvedBy int64, reason, ip string) (model.Strike, error) {
	if strikeID <= 0 || resolvedBy <= 0 {
		return model.Strike{}, fmt.Errorf("%w: strike and resolver ids are required", ErrValidation)
	}
	if err := s.checkModerator(ctx, resolvedBy); err != nil {
		return model.Strike{}, err
	}

	existing, err := s.strikes.GetByID(ctx, strikeID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrStrikeNotFound) {
			return model.Strike{}, fmt.Errorf("%w: strike %d", ErrNotFound, strikeID)
		}
		return model.Strike{}, fmt.Errorf("load strike: %w", err)
	}

	var resolved model.Strike
	err = s.runSerialized(ctx, func(ctx context.Context, tx pgx.Tx) error {
		user, err := s.users.LockModeration(ctx, tx, existing.UserID)
		if err != nil {
			return translateUserErr(err)
		}

		now := s.now().UTC()
		resolved, err = s.strikes.Resolve(ctx, tx, strikeID, resolvedBy, now)
		if err != nil {
			switch {
			case errors.Is(err, pgrepo.ErrStrikeResolved):
				return fmt.Errorf("%w: strike %d is already resolved", ErrInvalidState, strikeID)
			case errors.Is(err, pgrepo.ErrStrikeNotFound):
				return fmt.Errorf("%w: strike %d", ErrNotFound, strikeID)
			}
			return fmt.Errorf("resolve strike: %w", err)
		}

		count, err := s.strikes.CountActive(ctx, tx, existing.UserID, now)
		if err != nil {
			return fmt.Errorf("count active strikes: %w", err)
		}
		if err := s.applyTier(ctx, tx, &user, rules.TierForActiveStrikes(count), nil, now); err != nil {
			return err
		}
		if err := s.refreshLedgerFields(ctx, tx, &user); err != nil {
			return err
		}
		if err := s.users.SaveModeration(ctx, tx, user); err != nil {
			return fmt.Errorf("save user moderation: %w", err)
		}

		_, err = s.audit.Append(ctx, tx, model.AdminAction{
			AdminID:      resolvedBy,
			Type:         enums.ActionStrikeResolve,
			TargetUserID: &existing.UserID,
			Reason:       reason,
			Details: map[string]any{
				"strike_id":    strikeID,
				"active_count": count,
			},
			IPAddress: ip,
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("append audit record: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Strike{}, err
	}

	s.invalidateCount(ctx, existing.UserID)
	return resolved, nil
}

// ActiveStrikeCount answers from the cache when it can and falls back to
// the ledger, repopulating the cache on a miss.
func (s *Service) ActiveStrikeCount(ctx context.Context, userID int64) (int, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if s.cache != nil {
		if count, ok, err := s.cache.Get(ctx, userID); err == nil && ok {
			return count, nil
		}
	}

	count, err := s.strikes.CountActiveNow(ctx, userID, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("count active strikes: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, userID, count)
	}
	return count, nil
}

func (s *Service) ListUserStrikes(ctx context.Context, userID int64, limit int) ([]model.Strike, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	strikes, err := s.strikes.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list strikes: %w", err)
	}
	return strikes, nil
}

// Reevaluate recomputes a user's tier from the current active count, without
// adding to the ledger. The sweep calls this after deactivating expired
// strikes.
func (s *Service) Reevaluate(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	err := s.runSerialized(ctx, func(ctx context.Context, tx pgx.Tx) error {
		user, err := s.users.LockModeration(ctx, tx, userID)
		if err != nil {
			return translateUserErr(err)
		}
		now := s.now().UTC()
		count, err := s.strikes.CountActive(ctx, tx, userID, now)
		if err != nil {
			return fmt.Errorf("count active strikes: %w", err)
		}
		if err := s.applyTier(ctx, tx, &user, rules.TierForActiveStrikes(count), nil, now); err != nil {
			return err
		}
		if err := s.refreshLedgerFields(ctx, tx, &user); err != nil {
			return err
		}
		if err := s.users.SaveModeration(ctx, tx, user); err != nil {
			return fmt.Errorf("save user moderation: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidateCount(ctx, userID)
	return nil
}

// DeactivateExpired flips is_active off for strikes past their expiry and
// returns the affected user ids so the caller can re-evaluate each one.
func (s *Service) DeactivateExpired(ctx context.Context) ([]int64, error) {
	var userIDs []int64
	err := s.runner.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		userIDs, err = s.strikes.DeactivateExpired(ctx, tx, s.now().UTC())
		if err != nil {
			return fmt.Errorf("deactivate expired strikes: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, id := range userIDs {
		s.invalidateCount(ctx, id)
	}
	return userIDs, nil
}

// applyTier mirrors the tier onto the user row. Lower-tier flags from past
// escalations stay set: escalation only ever ratchets flags on, strikes
// falling off leave existing consequences to run their course.
func (s *Service) applyTier(ctx context.Context, tx pgx.Tx, user *model.User, tier rules.Tier, trigger *model.Strike, now time.Time) error {
	switch tier {
	case rules.TierWarned:
		user.IsWarned = true
		exp := s.policy.WarningExpiry(now)
		user.WarningExpiresAt = &exp
	case rules.TierSuspended:
		user.IsSuspended = true
		exp := s.policy.SuspensionExpiry(now)
		user.SuspensionExpiresAt = &exp
		user.SuspensionReason = "Repeated community guideline strikes"
		user.CanUpload = false
	case rules.TierBanned:
		return s.applyBan(ctx, tx, user, trigger, now)
	}
	return nil
}

func (s *Service) applyBan(ctx context.Context, tx pgx.Tx, user *model.User, trigger *model.Strike, now time.Time) error {
	reason := "Multiple active strikes"
	issuedBy := int64(0)
	if trigger != nil {
		reason = fmt.Sprintf("Multiple strikes: %s", trigger.Type)
		issuedBy = trigger.IssuedBy
	}

	alreadyBanned := user.IsBanned
	user.IsBanned = true
	if user.BanReason == "" {
		user.BanReason = reason
	}
	if user.BannedAt == nil {
		at := now
		user.BannedAt = &at
	}
	if user.BannedBy == nil && issuedBy > 0 {
		by := issuedBy
		user.BannedBy = &by
	}
	user.IsActive = false
	user.CanUpload = false

	if alreadyBanned {
		// Tier re-application on an already banned user is a no-op for
		// the suspension rows; the flags above are idempotent.
		return nil
	}

	target := model.UserTarget(user.ID)
	exists, err := s.suspensions.HasActive(ctx, tx, target, enums.SuspensionTypePermanent)
	if err != nil {
		return fmt.Errorf("check active ban suspension: %w", err)
	}
	if !exists {
		_, err = s.suspensions.Insert(ctx, tx, model.Suspension{
			Target:      target,
			Type:        enums.SuspensionTypePermanent,
			Cause:       enums.SuspensionCauseEscalation,
			SuspendedBy: issuedBy,
			Reason:      user.BanReason,
			StartsAt:    now,
			IsActive:    true,
			CreatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("insert ban suspension: %w", err)
		}
	}

	channelIDs, err := s.channels.SuspendOwned(ctx, tx, user.ID, "User permanently banned", issuedBy, now, true)
	if err != nil {
		return fmt.Errorf("suspend owned channels: %w", err)
	}
	for _, channelID := range channelIDs {
		_, err = s.suspensions.Insert(ctx, tx, model.Suspension{
			Target:      model.ChannelTarget(channelID),
			Type:        enums.SuspensionTypePermanent,
			Cause:       enums.SuspensionCauseBanCascade,
			SuspendedBy: issuedBy,
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

// refreshLedgerFields recomputes the denormalized strike counters from the
// ledger inside the same transaction that modified it.
func (s *Service) refreshLedgerFields(ctx context.Context, tx pgx.Tx, user *model.User) error {
	stats, err := s.strikes.Stats(ctx, tx, user.ID)
	if err != nil {
		return fmt.Errorf("ledger stats: %w", err)
	}
	user.StrikeCount = stats.Total
	user.WarningCount = stats.Warnings
	user.LastStrikeDate = stats.LastStrikeAt
	return nil
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

// runSerialized retries the transaction once after a serialization loss.
// A second loss surfaces as ErrConflict.
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

func (s *Service) invalidateCount(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, userID)
}

func translateUserErr(err error) error {
	if errors.Is(err, pgrepo.ErrUserNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
