package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DevAniketIT/Playbharat/internal/domain/model"
)

var ErrChannelNotFound = errors.New("channel not found")

const channelColumns = `
id, owner_id, name, is_active,
is_suspended, COALESCE(suspension_reason, ''), suspended_by, suspended_at, suspension_expires_at,
can_upload, can_monetize,
created_at, updated_at`

type ChannelRepo struct {
	pool *pgxpool.Pool
}

func NewChannelRepo(pool *pgxpool.Pool) *ChannelRepo {
	return &ChannelRepo{pool: pool}
}

func (r *ChannelRepo) GetByID(ctx context.Context, channelID int64) (model.Channel, error) {
	if r.pool == nil {
		return model.Channel{}, fmt.Errorf("postgres pool is nil")
	}
	if channelID <= 0 {
		return model.Channel{}, fmt.Errorf("invalid channel id")
	}
	return scanChannel(ctx, r.pool, `
SELECT `+channelColumns+`
FROM channels
WHERE id = $1
`, channelID)
}

func (r *ChannelRepo) LockModeration(ctx context.Context, tx pgx.Tx, channelID int64) (model.Channel, error) {
	if tx == nil {
		return model.Channel{}, fmt.Errorf("transaction is required")
	}
	if channelID <= 0 {
		return model.Channel{}, fmt.Errorf("invalid channel id")
	}
	return scanChannel(ctx, tx, `
SELECT `+channelColumns+`
FROM channels
WHERE id = $1
FOR UPDATE
`, channelID)
}

func (r *ChannelRepo) SaveModeration(ctx context.Context, tx pgx.Tx, channel model.Channel) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if channel.ID <= 0 {
		return fmt.Errorf("invalid channel id")
	}

	tag, err := tx.Exec(ctx, `
UPDATE channels
SET is_active = $2,
	is_suspended = $3,
	suspension_reason = $4,
	suspended_by = $5,
	suspended_at = $6,
	suspension_expires_at = $7,
	can_upload = $8,
	can_monetize = $9,
	updated_at = NOW()
WHERE id = $1
`,
		channel.ID,
		channel.IsActive,
		channel.IsSuspended,
		channel.SuspensionReason,
		channel.SuspendedBy,
		channel.SuspendedAt,
		channel.SuspensionExpiresAt,
		channel.CanUpload,
		channel.CanMonetize,
	)
	if err != nil {
		return fmt.Errorf("save channel moderation state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrChannelNotFound
	}
	return nil
}

func (r *ChannelRepo) ListByOwner(ctx context.Context, ownerID int64) ([]model.Channel, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if ownerID <= 0 {
		return nil, fmt.Errorf("invalid owner id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+channelColumns+`
FROM channels
WHERE owner_id = $1
ORDER BY id
`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list channels by owner: %w", err)
	}
	defer rows.Close()

	var channels []model.Channel
	for rows.Next() {
		channel, err := scanChannelRow(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list channels by owner: %w", err)
	}
	return channels, nil
}

// SuspendOwned flags every not-yet-suspended channel owned by the user as
// suspended in one statement and returns the affected channel ids. Channels
// already suspended on their own are left alone so a later unban does not
// disturb them. With deactivate set the channels are additionally taken
// offline (permanent-ban cascade).
func (r *ChannelRepo) SuspendOwned(ctx context.Context, tx pgx.Tx, ownerID int64, reason string, suspendedBy int64, at time.Time, deactivate bool) ([]int64, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is required")
	}
	if ownerID <= 0 {
		return nil, fmt.Errorf("invalid owner id")
	}

	rows, err := tx.Query(ctx, `
UPDATE channels
SET is_suspended = TRUE,
	suspension_reason = $2,
	suspended_by = $3,
	suspended_at = $4,
	is_active = CASE WHEN $5 THEN FALSE ELSE is_active END,
	updated_at = NOW()
WHERE owner_id = $1
  AND NOT is_suspended
RETURNING id
`, ownerID, reason, suspendedBy, at, deactivate)
	if err != nil {
		return nil, fmt.Errorf("suspend owned channels: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan suspended channel id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("suspend owned channels: %w", err)
	}
	return ids, nil
}

// ClearSuspension restores a single channel after its suspension is lifted.
func (r *ChannelRepo) ClearSuspension(ctx context.Context, tx pgx.Tx, channelID int64) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if channelID <= 0 {
		return fmt.Errorf("invalid channel id")
	}

	tag, err := tx.Exec(ctx, `
UPDATE channels
SET is_suspended = FALSE,
	suspension_reason = '',
	suspended_by = NULL,
	suspended_at = NULL,
	suspension_expires_at = NULL,
	is_active = TRUE,
	updated_at = NOW()
WHERE id = $1
`, channelID)
	if err != nil {
		return fmt.Errorf("clear channel suspension: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrChannelNotFound
	}
	return nil
}

func scanChannel(ctx context.Context, q userRow, sql string, args ...any) (model.Channel, error) {
	channel, err := scanChannelRow(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Channel{}, ErrChannelNotFound
		}
		return model.Channel{}, err
	}
	return channel, nil
}

func scanChannelRow(row rowScanner) (model.Channel, error) {
	var channel model.Channel
	err := row.Scan(
		&channel.ID,
		&channel.OwnerID,
		&channel.Name,
		&channel.IsActive,
		&channel.IsSuspended,
		&channel.SuspensionReason,
		&channel.SuspendedBy,
		&channel.SuspendedAt,
		&channel.SuspensionExpiresAt,
		&channel.CanUpload,
		&channel.CanMonetize,
		&channel.CreatedAt,
		&channel.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Channel{}, err
		}
		return model.Channel{}, fmt.Errorf("scan channel: %w", err)
	}
	return channel, nil
}
