package integration_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DevAniketIT/Playbharat/internal/app/apiapp"
	"github.com/DevAniketIT/Playbharat/internal/config"
	"github.com/DevAniketIT/Playbharat/internal/domain/enums"
	"github.com/DevAniketIT/Playbharat/internal/domain/model"
	"github.com/DevAniketIT/Playbharat/internal/domain/rules"
	pgrepo "github.com/DevAniketIT/Playbharat/internal/repo/postgres"
	strikesvc "github.com/DevAniketIT/Playbharat/internal/services/strikes"
	suspsvc "github.com/DevAniketIT/Playbharat/internal/services/suspensions"
)

func TestHealthz(t *testing.T) {
	cfg := config.Default()
	cfg.HTTP.Addr = ":0"
	cfg.Moderation.SweepSchedule = ""

	app, err := apiapp.New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = app.Shutdown(ctx)
	}()

	ts := httptest.NewServer(app.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, "ok", payload.Status)
}

// world is a transaction-free in-memory stand-in for the Postgres layer,
// shared by the strike and suspension services so cross-service effects
// (escalation bans, cascades, unbans) are visible to both.
type world struct {
	users       map[int64]*model.User
	channels    map[int64]*model.Channel
	strikes     []*model.Strike
	suspensions []*model.Suspension
	actions     []model.AdminAction

	nextStrikeID     int64
	nextSuspensionID int64
}

func newWorld() *world {
	return &world{
		users: map[int64]*model.User{
			10: {ID: 10, Handle: "creator_one", Role: enums.RoleUser, IsActive: true, CanUpload: true, CanComment: true, CanLike: true},
			99: {ID: 99, Handle: "mod_desk", Role: enums.RoleModerator, IsActive: true},
		},
		channels: map[int64]*model.Channel{
			201: {ID: 201, OwnerID: 10, Name: "main", IsActive: true, CanUpload: true},
			202: {ID: 202, OwnerID: 10, Name: "clips", IsActive: true, CanUpload: true},
		},
	}
}

func (w *world) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	return fn(ctx, nil)
}

type worldUsers struct{ w *world }

func (s worldUsers) GetByID(_ context.Context, userID int64) (model.User, error) {
	u, ok := s.w.users[userID]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	return *u, nil
}

func (s worldUsers) LockModeration(ctx context.Context, _ pgx.Tx, userID int64) (model.User, error) {
	return s.GetByID(ctx, userID)
}

func (s worldUsers) SaveModeration(_ context.Context, _ pgx.Tx, user model.User) error {
	stored, ok := s.w.users[user.ID]
	if !ok {
		return pgrepo.ErrUserNotFound
	}
	*stored = user
	return nil
}

type worldChannels struct{ w *world }

func (s worldChannels) LockModeration(_ context.Context, _ pgx.Tx, channelID int64) (model.Channel, error) {
	ch, ok := s.w.channels[channelID]
	if !ok {
		return model.Channel{}, pgrepo.ErrChannelNotFound
	}
	return *ch, nil
}

func (s worldChannels) SaveModeration(_ context.Context, _ pgx.Tx, channel model.Channel) error {
	stored, ok := s.w.channels[channel.ID]
	if !ok {
		return pgrepo.ErrChannelNotFound
	}
	*stored = channel
	return nil
}

func (s worldChannels) SuspendOwned(_ context.Context, _ pgx.Tx, ownerID int64, reason string, suspendedBy int64, at time.Time, deactivate bool) ([]int64, error) {
	var ids []int64
	for _, ch := range s.w.channels {
		if ch.OwnerID != ownerID || ch.IsSuspended {
			continue
		}
		ch.IsSuspended = true
		ch.SuspensionReason = reason
		by := suspendedBy
		ch.SuspendedBy = &by
		suspendedAt := at
		ch.SuspendedAt = &suspendedAt
		if deactivate {
			ch.IsActive = false
		}
		ids = append(ids, ch.ID)
	}
	return ids, nil
}

func (s worldChannels) ClearSuspension(_ context.Context, _ pgx.Tx, channelID int64) error {
	ch, ok := s.w.channels[channelID]
	if !ok {
		return pgrepo.ErrChannelNotFound
	}
	ch.IsSuspended = false
	ch.SuspensionReason = ""
	ch.SuspendedBy = nil
	ch.SuspendedAt = nil
	ch.SuspensionExpiresAt = nil
	ch.IsActive = true
	ch.CanUpload = true
	return nil
}

type worldStrikes struct{ w *world }

func (s worldStrikes) Insert(_ context.Context, _ pgx.Tx, strike model.Strike) (model.Strike, error) {
	s.w.nextStrikeID++
	strike.ID = s.w.nextStrikeID
	copied := strike
	s.w.strikes = append(s.w.strikes, &copied)
	return strike, nil
}

func (s worldStrikes) CountActive(_ context.Context, _ pgx.Tx, userID int64, now time.Time) (int, error) {
	count := 0
	for _, strike := range s.w.strikes {
		if strike.UserID == userID && rules.StrikeActiveAt(*strike, now) {
			count++
		}
	}
	return count, nil
}

func (s worldStrikes) CountActiveNow(ctx context.Context, userID int64, now time.Time) (int, error) {
	return s.CountActive(ctx, nil, userID, now)
}

func (s worldStrikes) Stats(_ context.Context, _ pgx.Tx, userID int64) (pgrepo.LedgerStats, error) {
	var stats pgrepo.LedgerStats
	for _, strike := range s.w.strikes {
		if strike.UserID != userID {
			continue
		}
		stats.Total++
		if strike.Severity == enums.StrikeSeverityWarning {
			stats.Warnings++
		}
		created := strike.CreatedAt
		if stats.LastStrikeAt == nil || created.After(*stats.LastStrikeAt) {
			stats.LastStrikeAt = &created
		}
	}
	return stats, nil
}

func (s worldStrikes) GetByID(_ context.Context, strikeID int64) (model.Strike, error) {
	for _, strike := range s.w.strikes {
		if strike.ID == strikeID {
			return *strike, nil
		}
	}
	return model.Strike{}, pgrepo.ErrStrikeNotFound
}

func (s worldStrikes) Resolve(_ context.Context, _ pgx.Tx, strikeID, resolvedBy int64, at time.Time) (model.Strike, error) {
	for _, strike := range s.w.strikes {
		if strike.ID != strikeID {
			continue
		}
		if !strike.IsActive {
			return model.Strike{}, pgrepo.ErrStrikeResolved
		}
		strike.IsActive = false
		strike.ResolvedAt = &at
		strike.ResolvedBy = &resolvedBy
		return *strike, nil
	}
	return model.Strike{}, pgrepo.ErrStrikeNotFound
}

func (s worldStrikes) ListByUser(_ context.Context, userID int64, _ int) ([]model.Strike, error) {
	var out []model.Strike
	for _, strike := range s.w.strikes {
		if strike.UserID == userID {
			out = append(out, *strike)
		}
	}
	return out, nil
}

func (s worldStrikes) DeactivateExpired(_ context.Context, _ pgx.Tx, now time.Time) ([]int64, error) {
	seen := map[int64]struct{}{}
	var userIDs []int64
	for _, strike := range s.w.strikes {
		if !strike.IsActive || strike.ExpiresAt == nil || strike.ExpiresAt.After(now) {
			continue
		}
		strike.IsActive = false
		resolvedAt := now
		strike.ResolvedAt = &resolvedAt
		if _, ok := seen[strike.UserID]; !ok {
			seen[strike.UserID] = struct{}{}
			userIDs = append(userIDs, strike.UserID)
		}
	}
	return userIDs, nil
}

type worldSuspensions struct{ w *world }

func (s worldSuspensions) Insert(_ context.Context, _ pgx.Tx, susp model.Suspension) (model.Suspension, error) {
	s.w.nextSuspensionID++
	susp.ID = s.w.nextSuspensionID
	copied := susp
	s.w.suspensions = append(s.w.suspensions, &copied)
	return susp, nil
}

func (s worldSuspensions) GetByID(_ context.Context, suspensionID int64) (model.Suspension, error) {
	for _, susp := range s.w.suspensions {
		if susp.ID == suspensionID {
			return *susp, nil
		}
	}
	return model.Suspension{}, pgrepo.ErrSuspensionNotFound
}

func (s worldSuspensions) LockByID(ctx context.Context, _ pgx.Tx, suspensionID int64) (model.Suspension, error) {
	return s.GetByID(ctx, suspensionID)
}

func (s worldSuspensions) HasActive(_ context.Context, _ pgx.Tx, target model.SuspensionTarget, typ enums.SuspensionType) (bool, error) {
	for _, susp := range s.w.suspensions {
		if susp.Target == target && susp.Type == typ && susp.IsActive {
			return true, nil
		}
	}
	return false, nil
}

func (s worldSuspensions) FindActive(_ context.Context, _ pgx.Tx, target model.SuspensionTarget, typ enums.SuspensionType) (model.Suspension, error) {
	for _, susp := range s.w.suspensions {
		if susp.Target == target && susp.Type == typ && susp.IsActive {
			return *susp, nil
		}
	}
	return model.Suspension{}, pgrepo.ErrSuspensionNotFound
}

func (s worldSuspensions) MarkLifted(_ context.Context, _ pgx.Tx, suspensionID, liftedBy int64, at time.Time, reason string) error {
	for _, susp := range s.w.suspensions {
		if susp.ID != suspensionID {
			continue
		}
		if !susp.IsActive {
			return pgrepo.ErrSuspensionInactive
		}
		susp.IsActive = false
		by := liftedBy
		susp.LiftedBy = &by
		liftedAt := at
		susp.LiftedAt = &liftedAt
		susp.LiftReason = reason
		return nil
	}
	return pgrepo.ErrSuspensionNotFound
}

func (s worldSuspensions) ListByTarget(_ context.Context, target model.SuspensionTarget, _ int) ([]model.Suspension, error) {
	var out []model.Suspension
	for _, susp := range s.w.suspensions {
		if susp.Target == target {
			out = append(out, *susp)
		}
	}
	return out, nil
}

func (s worldSuspensions) ListExpiredActive(_ context.Context, now time.Time, _ int) ([]model.Suspension, error) {
	var out []model.Suspension
	for _, susp := range s.w.suspensions {
		if susp.IsActive && susp.ExpiresAt != nil && !susp.ExpiresAt.After(now) {
			out = append(out, *susp)
		}
	}
	return out, nil
}

func (s worldSuspensions) ActiveBanCascadeForOwner(_ context.Context, _ pgx.Tx, ownerID int64) ([]model.Suspension, error) {
	var out []model.Suspension
	for _, susp := range s.w.suspensions {
		if !susp.IsActive || susp.Cause != enums.SuspensionCauseBanCascade {
			continue
		}
		if susp.Target.Kind != enums.SuspensionTargetChannel {
			continue
		}
		ch, ok := s.w.channels[susp.Target.ID]
		if !ok || ch.OwnerID != ownerID {
			continue
		}
		out = append(out, *susp)
	}
	return out, nil
}

type worldAudit struct{ w *world }

func (s worldAudit) Append(_ context.Context, _ pgx.Tx, action model.AdminAction) (model.AdminAction, error) {
	action.ID = int64(len(s.w.actions) + 1)
	s.w.actions = append(s.w.actions, action)
	return action, nil
}

// TestEscalationLifecycle walks a user through the full moderation arc:
// three strikes to a ban with channel cascade, then an unban that restores
// exactly what the ban took away. The strike ledger survives the unban.
func TestEscalationLifecycle(t *testing.T) {
	w := newWorld()
	policy := rules.DefaultPolicy()

	strikes := strikesvc.NewService(strikesvc.Dependencies{
		Runner:      w,
		Users:       worldUsers{w},
		Strikes:     worldStrikes{w},
		Channels:    worldChannels{w},
		Suspensions: worldSuspensions{w},
		Audit:       worldAudit{w},
	}, policy)
	suspensions := suspsvc.NewService(suspsvc.Dependencies{
		Runner:      w,
		Users:       worldUsers{w},
		Channels:    worldChannels{w},
		Suspensions: worldSuspensions{w},
		Strikes:     worldStrikes{w},
		Audit:       worldAudit{w},
	}, policy)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	strikes.SetNow(func() time.Time { return now })
	suspensions.SetNow(func() time.Time { return now })

	ctx := context.Background()

	issue := func(typ enums.StrikeType, severity enums.StrikeSeverity) model.Strike {
		t.Helper()
		strike, err := strikes.IssueStrike(ctx, strikesvc.IssueStrikeInput{
			UserID:   10,
			IssuerID: 99,
			Type:     typ,
			Severity: severity,
			Reason:   "guideline violation",
		})
		require.NoError(t, err)
		return strike
	}

	// Strike one: warning tier.
	issue(enums.StrikeTypeSpam, enums.StrikeSeverityFirst)
	require.True(t, w.users[10].IsWarned)
	require.False(t, w.users[10].IsSuspended)
	require.True(t, w.users[10].CanUpload)
	require.Equal(t, 1, w.users[10].StrikeCount)

	// Strike two: suspension tier, uploads off.
	now = now.Add(time.Hour)
	issue(enums.StrikeTypeHarassment, enums.StrikeSeveritySecond)
	require.True(t, w.users[10].IsSuspended)
	require.False(t, w.users[10].CanUpload)
	require.False(t, w.users[10].IsBanned)

	// Strike three: ban tier with channel cascade.
	now = now.Add(time.Hour)
	issue(enums.StrikeTypeHateSpeech, enums.StrikeSeverityThird)
	banned := w.users[10]
	require.True(t, banned.IsBanned)
	require.False(t, banned.IsActive)
	require.Contains(t, banned.BanReason, "hate_speech")
	for _, id := range []int64{201, 202} {
		require.True(t, w.channels[id].IsSuspended, "channel %d", id)
		require.False(t, w.channels[id].IsActive, "channel %d", id)
	}

	var banRow *model.Suspension
	cascades := 0
	for _, susp := range w.suspensions {
		switch {
		case susp.Target == model.UserTarget(10) && susp.Type == enums.SuspensionTypePermanent:
			banRow = susp
		case susp.Cause == enums.SuspensionCauseBanCascade:
			cascades++
		}
	}
	require.NotNil(t, banRow)
	require.True(t, banRow.IsActive)
	require.Equal(t, enums.SuspensionCauseEscalation, banRow.Cause)
	require.Equal(t, 2, cascades)

	// Unban: ban row lifted, channels restored, strike ledger untouched.
	now = now.Add(24 * time.Hour)
	require.NoError(t, suspensions.UnbanUser(ctx, 10, 99, "appeal accepted", ""))

	restored := w.users[10]
	require.False(t, restored.IsBanned)
	require.True(t, restored.IsActive)
	// Three strikes are still on the ledger, so uploads stay off.
	require.False(t, restored.CanUpload)
	require.False(t, banRow.IsActive)
	require.Equal(t, "appeal accepted", banRow.LiftReason)
	for _, id := range []int64{201, 202} {
		require.False(t, w.channels[id].IsSuspended, "channel %d", id)
		require.True(t, w.channels[id].IsActive, "channel %d", id)
	}

	count, err := strikes.ActiveStrikeCount(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 3, count)

	// A second unban has nothing to undo.
	require.ErrorIs(t, suspensions.UnbanUser(ctx, 10, 99, "again", ""), suspsvc.ErrInvalidState)

	// Every step above must have left an audit entry: three strikes (the
	// escalation ban rides on the third strike's entry) and the unban.
	require.Len(t, w.actions, 4)
}
