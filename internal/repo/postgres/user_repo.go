package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DevAniketIT/Playbharat/internal/domain/model"
)

var ErrUserNotFound = errors.New("user not found")

const userModerationColumns = `
id, handle, role, is_active,
is_banned, COALESCE(ban_reason, ''), banned_at, banned_by,
is_suspended, COALESCE(suspension_reason, ''), suspension_expires_at,
is_shadow_banned,
is_warned, warning_expires_at, warning_count,
can_upload, can_comment, can_like,
strike_count, last_strike_date,
created_at, updated_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

type userRow interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *UserRepo) GetByID(ctx context.Context, userID int64) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return model.User{}, fmt.Errorf("invalid user id")
	}
	return scanUser(ctx, r.pool, `
SELECT `+userModerationColumns+`
FROM users
WHERE id = $1
`, userID)
}

func (r *UserRepo) GetByHandle(ctx context.Context, handle string) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	clean := strings.TrimSpace(strings.TrimPrefix(handle, "@"))
	if clean == "" {
		return model.User{}, fmt.Errorf("handle is required")
	}
	return scanUser(ctx, r.pool, `
SELECT `+userModerationColumns+`
FROM users
WHERE LOWER(handle) = LOWER($1)
`, clean)
}

// LockModeration reads the user's moderation record under a row lock. The
// target user row is the serialization point for escalation: concurrent
// strike issuances against the same user queue on this lock, so the second
// always counts the first one's committed strike.
func (r *UserRepo) LockModeration(ctx context.Context, tx pgx.Tx, userID int64) (model.User, error) {
	if tx == nil {
		return model.User{}, fmt.Errorf("transaction is required")
	}
	if userID <= 0 {
		return model.User{}, fmt.Errorf("invalid user id")
	}
	return scanUser(ctx, tx, `
SELECT `+userModerationColumns+`
FROM users
WHERE id = $1
FOR UPDATE
`, userID)
}

// SaveModeration writes every moderation-owned field back in one statement.
// Identity fields (handle, role) are not touched.
func (r *UserRepo) SaveModeration(ctx context.Context, tx pgx.Tx, user model.User) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if user.ID <= 0 {
		return fmt.Errorf("invalid user id")
	}

	tag, err := tx.Exec(ctx, `
UPDATE users
SET is_active = $2,
	is_banned = $3,
	ban_reason = $4,
	banned_at = $5,
	banned_by = $6,
	is_suspended = $7,
	suspension_reason = $8,
	suspension_expires_at = $9,
	is_shadow_banned = $10,
	is_warned = $11,
	warning_expires_at = $12,
	warning_count = $13,
	can_upload = $14,
	can_comment = $15,
	can_like = $16,
	strike_count = $17,
	last_strike_date = $18,
	updated_at = NOW()
WHERE id = $1
`,
		user.ID,
		user.IsActive,
		user.IsBanned,
		user.BanReason,
		user.BannedAt,
		user.BannedBy,
		user.IsSuspended,
		user.SuspensionReason,
		user.SuspensionExpiresAt,
		user.IsShadowBanned,
		user.IsWarned,
		user.WarningExpiresAt,
		user.WarningCount,
		user.CanUpload,
		user.CanComment,
		user.CanLike,
		user.StrikeCount,
		user.LastStrikeDate,
	)
	if err != nil {
		return fmt.Errorf("save user moderation state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

type UserFilter struct {
	Banned        bool
	Suspended     bool
	Warned        bool
	ActiveStrikes bool
	Limit         int
}

func (r *UserRepo) List(ctx context.Context, filter UserFilter) ([]model.User, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	conditions := make([]string, 0, 4)
	if filter.Banned {
		conditions = append(conditions, "is_banned")
	}
	if filter.Suspended {
		conditions = append(conditions, "is_suspended")
	}
	if filter.Warned {
		conditions = append(conditions, "is_warned")
	}
	if filter.ActiveStrikes {
		conditions = append(conditions, `EXISTS (
SELECT 1 FROM strikes s
WHERE s.user_id = users.id
  AND s.is_active
  AND (s.expires_at IS NULL OR s.expires_at > NOW())
)`)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
SELECT %s
FROM users
%s
ORDER BY id
LIMIT %d
`, userModerationColumns, where, limit))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func scanUser(ctx context.Context, q userRow, sql string, args ...any) (model.User, error) {
	user, err := scanUserRow(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserRow(row rowScanner) (model.User, error) {
	var (
		user                model.User
		bannedAt            *time.Time
		lastStrike          *time.Time
		warningExpiresAt    *time.Time
		suspensionExpiresAt *time.Time
	)
	err := row.Scan(
		&user.ID,
		&user.Handle,
		&user.Role,
		&user.IsActive,
		&user.IsBanned,
		&user.BanReason,
		&bannedAt,
		&user.BannedBy,
		&user.IsSuspended,
		&user.SuspensionReason,
		&suspensionExpiresAt,
		&user.IsShadowBanned,
		&user.IsWarned,
		&warningExpiresAt,
		&user.WarningCount,
		&user.CanUpload,
		&user.CanComment,
		&user.CanLike,
		&user.StrikeCount,
		&lastStrike,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, err
		}
		return model.User{}, fmt.Errorf("scan user: %w", err)
	}
	user.BannedAt = bannedAt
	user.LastStrikeDate = lastStrike
	user.WarningExpiresAt = warningExpiresAt
	user.SuspensionExpiresAt = suspensionExpiresAt
	return user, nil
}
