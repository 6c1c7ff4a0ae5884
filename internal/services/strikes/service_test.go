package strikes

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/DevAniketIT/Playbharat/internal/domain/enums"
	"github.com/DevAniketIT/Playbharat/internal/domain/model"
	"github.com/DevAniketIT/Playbharat/internal/domain/rules"
	pgrepo "github.com/DevAniketIT/Playbharat/internal/repo/postgres"
)

type fakeRunner struct {
	// failures counts down: each positive value makes the next WithTx
	// report a serialization loss without running fn.
	failures int
	calls    int
}

func (r *fakeRunner) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	r.calls++
	if r.failures > 0 {
		r.failures--
		return pgrepo.ErrSerialization
	}
	return fn(ctx, nil)
}

type fakeUsers struct {
	byID map[int64]*model.User
}

func (f *fakeUsers) GetByID(_ context.Context, userID int64) (model.User, error) {
	u, ok := f.byID[userID]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	return *u, nil
}

func (f *fakeUsers) LockModeration(_ context.Context, _ pgx.Tx, userID int64) (model.User, error) {
	u, ok := f.byID[userID]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	return *u, nil
}

func (f *fakeUsers) SaveModeration(_ context.Context, _ pgx.Tx, user model.User) error {
	stored, ok := f.byID[user.ID]
	if !ok {
		return pgrepo.ErrUserNotFound
	}
	*stored = user
	return nil
}

type fakeStrikes struct {
	nextID int64
	rows   []*model.Strike
}

func (f *fakeStrikes) Insert(_ context.Context, _ pgx.Tx, strike model.Strike) (model.Strike, error) {
	f.nextID++
	strike.ID = f.nextID
	copied := strike
	f.rows = append(f.rows, &copied)
	return strike, nil
}

func (f *fakeStrikes) CountActive(_ context.Context, _ pgx.Tx, userID int64, now time.Time) (int, error) {
	count := 0
	for _, s := range f.rows {
		if s.UserID == userID && rules.StrikeActiveAt(*s, now) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStrikes) CountActiveNow(ctx context.Context, userID int64, now time.Time) (int, error) {
	return f.CountActive(ctx, nil, userID, now)
}

func (f *fakeStrikes) Stats(_ context.Context, _ pgx.Tx, userID int64) (pgrepo.LedgerStats, error) {
	var stats pgrepo.LedgerStats
	for _, s := range f.rows {
		if s.UserID != userID {
			continue
		}
		stats.Total++
		if s.Severity == enums.StrikeSeverityWarning {
			stats.Warnings++
		}
		if stats.LastStrikeAt == nil || s.CreatedAt.After(*stats.LastStrikeAt) {
			at := s.CreatedAt
			stats.LastStrikeAt = &at
		}
	}
	return stats, nil
}

func (f *fakeStrikes) GetByID(_ context.Context, strikeID int64) (model.Strike, error) {
	for _, s := range f.rows {
		if s.ID == strikeID {
			return *s, nil
		}
	}
	return model.Strike{}, pgrepo.ErrStrikeNotFound
}

func (f *fakeStrikes) Resolve(_ context.Context, _ pgx.Tx, strikeID, resolvedBy int64, at time.Time) (model.Strike, error) {
	for _, s := range f.rows {
		if s.ID != strikeID {
			continue
		}
		if !s.IsActive {
			return model.Strike{}, pgrepo.ErrStrikeResolved
		}
		s.IsActive = false
		s.ResolvedAt = &at
		s.ResolvedBy = &resolvedBy
		return *s, nil
	}
	return model.Strike{}, pgrepo.ErrStrikeNotFound
}

func (f *fakeStrikes) ListByUser(_ context.Context, userID int64, _ int) ([]model.Strike, error) {
	var out []model.Strike
	for _, s := range f.rows {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStrikes) DeactivateExpired(_ context.Context, _ pgx.Tx, now time.Time) ([]int64, error) {
	seen := map[int64]bool{}
	var userIDs []int64
	for _, s := range f.rows {
		if !s.IsActive || s.ExpiresAt == nil || s.ExpiresAt.After(now) {
			continue
		}
		s.IsActive = false
		if !seen[s.UserID] {
			seen[s.UserID] = true
			userIDs = append(userIDs, s.UserID)
		}
	}
	return userIDs, nil
}

type fakeChannels struct {
	byOwner map[int64][]*model.Channel
}

func (f *fakeChannels) SuspendOwned(_ context.Context, _ pgx.Tx, ownerID int64, reason string, suspendedBy int64, at time.Time, deactivate bool) ([]int64, error) {
	var ids []int64
	for _, ch := range f.byOwner[ownerID] {
		if ch.IsSuspended {
			continue
		}
		ch.IsSuspended = true
		ch.SuspensionReason = reason
		ch.SuspendedBy = &suspendedBy
		suspendedAt := at
		ch.SuspendedAt = &suspendedAt
		if deactivate {
			ch.IsActive = false
		}
		ids = append(ids, ch.ID)
	}
	return ids, nil
}

type fakeSuspensions struct {
	nextID int64
	rows   []model.Suspension
}

func (f *fakeSuspensions) Insert(_ context.Context, _ pgx.Tx, s model.Suspension) (model.Suspension, error) {
	f.nextID++
	s.ID = f.nextID
	f.rows = append(f.rows, s)
	return s, nil
}

func (f *fakeSuspensions) HasActive(_ context.Context, _ pgx.Tx, target model.SuspensionTarget, typ enums.SuspensionType) (bool, error) {
	for _, s := range f.rows {
		if s.Target == target && s.Type == typ && s.IsActive {
			return true, nil
		}
	}
	return false, nil
}

type fakeAudit struct {
	rows []model.AdminAction
}

func (f *fakeAudit) Append(_ context.Context, _ pgx.Tx, action model.AdminAction) (model.AdminAction, error) {
	if action.Reason == "" {
		return model.AdminAction{}, errors.New("audit reason is required")
	}
	action.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, action)
	return action, nil
}

type fakeCache struct {
	values       map[int64]int
	invalidation []int64
}

func (f *fakeCache) Get(_ context.Context, userID int64) (int, bool, error) {
	v, ok := f.values[userID]
	return v, ok, nil
}

func (f *fakeCache) Set(_ context.Context, userID int64, count int) error {
	f.values[userID] = count
	return nil
}

func (f *fakeCache) Invalidate(_ context.Context, userID int64) error {
	delete(f.values, userID)
	f.invalidation = append(f.invalidation, userID)
	return nil
}

type fixture struct {
	svc         *Service
	runner      *fakeRunner
	users       *fakeUsers
	strikes     *fakeStrikes
	channels    *fakeChannels
	suspensions *fakeSuspensions
	audit       *fakeAudit
	cache       *fakeCache
	now         time.Time
}

const (
	memberID    = int64(10)
	moderatorID = int64(99)
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		runner: &fakeRunner{},
		users: &fakeUsers{byID: map[int64]*model.User{
			memberID: {
				ID:         memberID,
				Handle:     "creator_one",
				Role:       enums.RoleUser,
				IsActive:   true,
				CanUpload:  true,
				CanComment: true,
				CanLike:    true,
			},
			moderatorID: {
				ID:       moderatorID,
				Handle:   "mod_desk",
				Role:     enums.RoleModerator,
				IsActive: true,
			},
		}},
		strikes: &fakeStrikes{},
		channels: &fakeChannels{byOwner: map[int64][]*model.Channel{
			memberID: {
				{ID: 201, OwnerID: memberID, Name: "main", IsActive: true, CanUpload: true},
				{ID: 202, OwnerID: memberID, Name: "clips", IsActive: true, CanUpload: true},
			},
		}},
		suspensions: &fakeSuspensions{},
		audit:       &fakeAudit{},
		cache:       &fakeCache{values: map[int64]int{}},
		now:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	f.svc = NewService(Dependencies{
		Runner:      f.runner,
		Users:       f.users,
		Strikes:     f.strikes,
		Channels:    f.channels,
		Suspensions: f.suspensions,
		Audit:       f.audit,
		Cache:       f.cache,
	}, rules.DefaultPolicy())
	f.svc.SetNow(func() time.Time { return f.now })
	return f
}

func (f *fixture) issue(t *testing.T, typ enums.StrikeType, severity enums.StrikeSeverity, reason string) model.Strike {
	t.Helper()
	strike, err := f.svc.IssueStrike(context.Background(), IssueStrikeInput{
		UserID:   memberID,
		IssuerID: moderatorID,
		Type:     typ,
		Severity: severity,
		Reason:   reason,
	})
	if err != nil {
		t.Fatalf("IssueStrike: %v", err)
	}
	return strike
}

func (f *fixture) user(t *testing.T) model.User {
	t.Helper()
	u, err := f.users.GetByID(context.Background(), memberID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	return u
}

func TestFirstStrikeWarnsUser(t *testing.T) {
	f := newFixture(t)

	strike := f.issue(t, enums.StrikeTypeSpam, enums.StrikeSeverityFirst, "spam wave")

	if strike.ExpiresAt == nil {
		t.Fatal("strike-severity entries must carry an expiry")
	}
	if got, want := *strike.ExpiresAt, f.now.Add(90*24*time.Hour); !got.Equal(want) {
		t.Fatalf("strike expiry = %v, want %v", got, want)
	}

	u := f.user(t)
	if !u.IsWarned {
		t.Fatal("user should be warned after first active strike")
	}
	if u.WarningExpiresAt == nil || !u.WarningExpiresAt.Equal(f.now.Add(30*24*time.Hour)) {
		t.Fatalf("warning expiry = %v, want now+30d", u.WarningExpiresAt)
	}
	if u.IsSuspended || u.IsBanned {
		t.Fatal("first strike must not suspend or ban")
	}
	if u.StrikeCount != 1 || u.LastStrikeDate == nil {
		t.Fatalf("ledger counters not refreshed: count=%d last=%v", u.StrikeCount, u.LastStrikeDate)
	}

	if len(f.audit.rows) != 1 || f.audit.rows[0].Type != enums.ActionUserStrike {
		t.Fatalf("audit rows = %+v", f.audit.rows)
	}
	if *f.audit.rows[0].TargetUserID != memberID {
		t.Fatal("audit record must reference the struck user")
	}
}

func TestWarningCountTracksLedger(t *testing.T) {
	f := newFixture(t)

	// A strike-severity entry warns the user (tier one) but is not a
	// warning-severity row, so the counter stays at the ledger's truth.
	f.issue(t, enums.StrikeTypeSpam, enums.StrikeSeverityFirst, "spam wave")
	u := f.user(t)
	if !u.IsWarned {
		t.Fatal("first strike must warn the user")
	}
	if u.WarningCount != 0 {
		t.Fatalf("warning count = %d, want 0 without warning-severity rows", u.WarningCount)
	}

	f.issue(t, enums.StrikeTypeCommunityGuidelines, enums.StrikeSeverityWarning, "first notice")
	f.issue(t, enums.StrikeTypeCommunityGuidelines, enums.StrikeSeverityWarning, "second notice")

	u = f.user(t)
	if u.WarningCount != 2 {
		t.Fatalf("warning count = %d, want 2 from the ledger", u.WarningCount)
	}
	if u.StrikeCount != 3 {
		t.Fatalf("strike count = %d, want 3", u.StrikeCount)
	}
}

func TestSecondStrikeSuspendsUploads(t *testing.T) {
	f := newFixture(t)

	f.issue(t, enums.StrikeTypeSpam, enums.StrikeSeverityFirst, "spam wave")
	f.now = f.now.Add(24 * time.Hour)
	f.issue(t, enums.StrikeTypeHarassment, enums.StrikeSeveritySecond, "targeted harassment")

	u := f.user(t)
	if !u.IsSuspended {
		t.Fatal("two active strikes must suspend the user")
	}
	if u.SuspensionExpiresAt == nil || !u.SuspensionExpiresAt.Equal(f.now.Add(7*24*time.Hour)) {
		t.Fatalf("suspension expiry = %v, want now+7d", u.SuspensionExpiresAt)
	}
	if u.CanUpload {
		t.Fatal("suspension must revoke uploads")
	}
	if !u.IsWarned {
		t.Fatal("warning flag from the first strike must persist")
	}
	if u.IsBanned {
		t.Fatal("two strikes must not ban")
	}
}

func TestThirdStrikeBansAndCascades(t *testing.T) {
	f := newFixture(t)

	f.issue(t, enums.StrikeTypeSpam, enums.StrikeSeverityFirst, "spam wave")
	f.issue(t, enums.StrikeTypeHarassment, enums.StrikeSeveritySecond, "targeted harassment")
	f.issue(t, enums.StrikeTypeHateSpeech, enums.StrikeSeverityThird, "slur-laden upload")

	u := f.user(t)
	if !u.IsBanned {
		t.Fatal("three active strikes must ban the user")
	}
	if !strings.Contains(u.BanReason, "hate_speech") {
		t.Fatalf("ban reason %q must name the triggering strike type", u.BanReason)
	}
	if u.IsActive {
		t.Fatal("banned account must be deactivated")
	}
	if u.BannedAt == nil || u.BannedBy == nil || *u.BannedBy != moderatorID {
		t.Fatalf("ban attribution missing: at=%v by=%v", u.BannedAt, u.BannedBy)
	}

	for _, ch := range f.channels.byOwner[memberID] {
		if !ch.IsSuspended || ch.IsActive {
			t.Fatalf("channel %d not cascaded: %+v", ch.ID, ch)
		}
		if ch.SuspensionReason != "User permanently banned" {
			t.Fatalf("cascade reason = %q", ch.SuspensionReason)
		}
	}

	var userRows, cascadeRows int
	for _, s := range f.suspensions.rows {
		switch {
		case s.Target == model.UserTarget(memberID) && s.Type == enums.SuspensionTypePermanent:
			userRows++
			if s.Cause != enums.SuspensionCauseEscalation {
				t.Fatalf("user ban cause = %q", s.Cause)
			}
			if s.ExpiresAt != nil {
				t.Fatal("permanent suspension must not expire")
			}
		case s.Target.Kind == enums.SuspensionTargetChannel:
			cascadeRows++
			if s.Cause != enums.SuspensionCauseBanCascade {
				t.Fatalf("channel cascade cause = %q", s.Cause)
			}
		}
	}
	if userRows != 1 || cascadeRows != 2 {
		t.Fatalf("suspension rows: user=%d cascade=%d", userRows, cascadeRows)
	}
}

func TestBanIsIdempotentAcrossFurtherStrikes(t *testing.T) {
	f := newFixture(t)

	f.issue(t, enums.StrikeTypeSpam, enums.StrikeSeverityFirst, "one")
	f.issue(t, enums.StrikeTypeSpam, enums.StrikeSeveritySecond, "two")
	f.issue(t, enums.StrikeTypeHateSpeech, enums.StrikeSeverityThird, "three")
	before := len(f.suspensions.rows)
	banReason := f.user(t).BanReason

	f.issue(t, enums.StrikeTypeSpam, enums.StrikeSeverityFirst, "four")

	if got := len(f.suspensions.rows); got != before {
		t.Fatalf("re-applying the ban tier added suspension rows: %d -> %d", before, got)
	}
	if got := f.user(t).BanReason; got != banReason {
		t.Fatalf("ban reason rewritten: %q -> %q", banReason, got)
	}
}

func TestExpiredStrikesDoNotCount(t *testing.T) {
	f := newFixture(t)

	f.issue(t, enums.StrikeTypeSpam, enums.StrikeSeverityFirst, "one")
	f.issue(t, enums.StrikeTypeSpam, enums.StrikeSeveritySecond, "two")

	// Jump past the 90-day strike TTL; both entries stop counting even
	// though nothing flipped is_active in storage.
	f.now = f.now.Add(91 * 24 * time.Hour)
	f.issue(t, enums.StrikeTypeCopyright, enums.StrikeSeverityFirst, "new offense")

	u := f.user(t)
	if u.IsBanned {
		t.Fatal("expired strikes must not count toward a ban")
	}
	count, err := f.svc.ActiveStrikeCount(context.Background(), memberID)
	if err != nil {
		t.Fatalf("ActiveStrikeCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("active count = %d, want 1", count)
	}
}

func TestWarningSeverityNeverExpires(t *testing.T) {
	f := newFixture(t)

	strike := f.issue(t, enums.StrikeTypeMisinformation, enums.StrikeSeverityWarning, "first notice")
	if strike.ExpiresAt != nil {
		t.Fatalf("warning-severity strike got expiry %v", strike.ExpiresAt)
	}
	if f.audit.rows[0].Type != enums.ActionUserWarning {
		t.Fatalf("audit type = %q, want user_warning", f.audit.rows[0].Type)
	}

	f.now = f.now.Add(365 * 24 * time.Hour)
	count, err := f.svc.ActiveStrikeCount(context.Background(), memberID)
	if err != nil {
		t.Fatalf("ActiveStrikeCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("warning stopped counting after a year: count=%d", count)
	}
}

func TestResolveStrikeLowersCountButKeepsFlags(t *testing.T) {
	f := newFixture(t)

	first := f.issue(t, enums.StrikeTypeSpam, enums.StrikeSeverityFirst, "one")
	f.issue(t, enums.StrikeTypeSpam, enums.StrikeSeveritySecond, "two")

	resolved, err := f.svc.ResolveStrike(context.Background(), first.ID, moderatorID, "appeal accepted", "")
	if err != nil {
		t.Fatalf("ResolveStrike: %v", err)
	}
	if resolved.IsActive || resolved.ResolvedAt == nil || *resolved.ResolvedBy != moderatorID {
		t.Fatalf("resolution not recorded: %+v", resolved)
	}

	count, err := f.svc.ActiveStrikeCount(context.Background(), memberID)
	if err != nil {
		t.Fatalf("ActiveStrikeCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("active count = %d, want 1", count)
	}

	// The suspension applied at count 2 stays in force until it expires
	// or is lifted; resolution only changes future escalation.
	if u := f.user(t); !u.IsSuspended {
		t.Fatal("resolving a strike must not clear an applied suspension")
	}

	_, err = f.svc.ResolveStrike(context.Background(), first.ID, moderatorID, "again", "")
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second resolve: err = %v, want ErrInvalidState", err)
	}
}

func TestResolveUnknownStrike(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ResolveStrike(context.Background(), 777, moderatorID, "typo", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestIssueStrikeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   IssueStrikeInput
		want error
	}{
		{
			name: "missing reason",
			in:   IssueStrikeInput{UserID: memberID, IssuerID: moderatorID, Type: enums.StrikeTypeSpam, Severity: enums.StrikeSeverityFirst},
			want: ErrValidation,
		},
		{
			name: "unknown strike type",
			in:   IssueStrikeInput{UserID: memberID, IssuerID: moderatorID, Type: "vibes", Severity: enums.StrikeSeverityFirst, Reason: "x"},
			want: ErrValidation,
		},
		{
			name: "unknown severity",
			in:   IssueStrikeInput{UserID: memberID, IssuerID: moderatorID, Type: enums.StrikeTypeSpam, Severity: "strike_9", Reason: "x"},
			want: ErrValidation,
		},
		{
			name: "issuer cannot moderate",
			in:   IssueStrikeInput{UserID: moderatorID, IssuerID: memberID, Type: enums.StrikeTypeSpam, Severity: enums.StrikeSeverityFirst, Reason: "x"},
			want: ErrPermissionDenied,
		},
		{
			name: "target missing",
			in:   IssueStrikeInput{UserID: 404, IssuerID: moderatorID, Type: enums.StrikeTypeSpam, Severity: enums.StrikeSeverityFirst, Reason: "x"},
			want: ErrNotFound,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.IssueStrike(ctx, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	if len(f.strikes.rows) != 0 {
		t.Fatalf("rejected inputs must not write to the ledger: %d rows", len(f.strikes.rows))
	}
}

func TestSerializationLossRetriesOnce(t *testing.T) {
	f := newFixture(t)
	f.runner.failures = 1

	f.issue(t, enums.StrikeTypeSpam, enums.StrikeSeverityFirst, "contested")

	if f.runner.calls != 2 {
		t.Fatalf("WithTx calls = %d, want 2", f.runner.calls)
	}
	if len(f.strikes.rows) != 1 {
		t.Fatalf("ledger rows = %d, want 1", len(f.strikes.rows))
	}
}

func TestSerializationLossTwiceIsConflict(t *testing.T) {
	f := newFixture(t)
	f.runner.failures = 2

	_, err := f.svc.IssueStrike(context.Background(), IssueStrikeInput{
		UserID: memberID, IssuerID: moderatorID,
		Type: enums.StrikeTypeSpam, Severity: enums.StrikeSeverityFirst, Reason: "contested",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestActiveStrikeCountUsesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.issue(t, enums.StrikeTypeSpam, enums.StrikeSeverityFirst, "one")
	if len(f.cache.invalidation) == 0 {
		t.Fatal("issuing a strike must invalidate the cached count")
	}

	count, err := f.svc.ActiveStrikeCount(ctx, memberID)
	if err != nil {
		t.Fatalf("ActiveStrikeCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	if got, ok := f.cache.values[memberID]; !ok || got != 1 {
		t.Fatalf("cache not repopulated on miss: %v %v", got, ok)
	}

	// A poisoned cache value proves the next read is served from cache.
	f.cache.values[memberID] = 42
	count, err = f.svc.ActiveStrikeCount(ctx, memberID)
	if err != nil {
		t.Fatalf("ActiveStrikeCount: %v", err)
	}
	if count != 42 {
		t.Fatalf("count = %d, want cached 42", count)
	}
}

func TestDeactivateExpiredReturnsAffectedUsers(t *testing.T) {
	f := newFixture(t)

	f.issue(t, enums.StrikeTypeSpam, enums.StrikeSeverityFirst, "one")
	f.issue(t, enums.StrikeTypeMisinformation, enums.StrikeSeverityWarning, "notice")

	f.now = f.now.Add(91 * 24 * time.Hour)
	userIDs, err := f.svc.DeactivateExpired(context.Background())
	if err != nil {
		t.Fatalf("DeactivateExpired: %v", err)
	}
	if len(userIDs) != 1 || userIDs[0] != memberID {
		t.Fatalf("userIDs = %v", userIDs)
	}

	var active int
	for _, s := range f.strikes.rows {
		if s.IsActive {
			active++
		}
	}
	// Only the warning survives: it has no expiry.
	if active != 1 {
		t.Fatalf("active rows after sweep = %d, want 1", active)
	}
}

func TestReevaluateDoesNotResurrectFlags(t *testing.T) {
	f := newFixture(t)

	f.issue(t, enums.StrikeTypeSpam, enums.StrikeSeverityFirst, "one")
	f.issue(t, enums.StrikeTypeSpam, enums.StrikeSeveritySecond, "two")
	f.now = f.now.Add(91 * 24 * time.Hour)

	if _, err := f.svc.DeactivateExpired(context.Background()); err != nil {
		t.Fatalf("DeactivateExpired: %v", err)
	}
	if err := f.svc.Reevaluate(context.Background(), memberID); err != nil {
		t.Fatalf("Reevaluate: %v", err)
	}

	u := f.user(t)
	if u.IsBanned {
		t.Fatal("re-evaluation must not ban at count zero")
	}
	// Flags already applied stay applied; only escalation input changes.
	if !u.IsWarned || !u.IsSuspended {
		t.Fatalf("re-evaluation cleared applied flags: %+v", u)
	}
	if u.StrikeCount != 2 {
		t.Fatalf("ledger total = %d, want 2 (resolution does not delete rows)", u.StrikeCount)
	}
}
