package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ModerationCounts struct {
	TotalUsers     int `json:"total_users"`
	BannedUsers    int `json:"banned_users"`
	SuspendedUsers int `json:"suspended_users"`
	WarnedUsers    int `json:"warned_users"`
	ShadowBanned   int `json:"shadow_banned_users"`

	TotalStrikes  int `json:"total_strikes"`
	ActiveStrikes int `json:"active_strikes"`

	ActiveSuspensions int `json:"active_suspensions"`
	SuspendedChannels int `json:"suspended_channels"`
}

type StatsRepo struct {
	pool *pgxpool.Pool
}

func NewStatsRepo(pool *pgxpool.Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

// Counts reads the dashboard aggregates in one round trip per table.
// Active strikes are counted the same lazy way escalation counts them.
func (r *StatsRepo) Counts(ctx context.Context, now time.Time) (ModerationCounts, error) {
	if r.pool == nil {
		return ModerationCounts{}, fmt.Errorf("postgres pool is nil")
	}

	var counts ModerationCounts

	const usersSQL = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_banned),
			COUNT(*) FILTER (WHERE is_suspended),
			COUNT(*) FILTER (WHERE is_warned),
			COUNT(*) FILTER (WHERE is_shadow_banned)
		FROM users
	`
	err := r.pool.QueryRow(ctx, usersSQL).Scan(
		&counts.TotalUsers,
		&counts.BannedUsers,
		&counts.SuspendedUsers,
		&counts.WarnedUsers,
		&counts.ShadowBanned,
	)
	if err != nil {
		return ModerationCounts{}, fmt.Errorf("count users: %w", err)
	}

	const strikesSQL = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_active AND (expires_at IS NULL OR expires_at > $1))
		FROM strikes
	`
	err = r.pool.QueryRow(ctx, strikesSQL, now).Scan(&counts.TotalStrikes, &counts.ActiveStrikes)
	if err != nil {
		return ModerationCounts{}, fmt.Errorf("count strikes: %w", err)
	}

	const suspensionsSQL = `SELECT COUNT(*) FROM suspensions WHERE is_active`
	if err := r.pool.QueryRow(ctx, suspensionsSQL).Scan(&counts.ActiveSuspensions); err != nil {
		return ModerationCounts{}, fmt.Errorf("count suspensions: %w", err)
	}

	const channelsSQL = `SELECT COUNT(*) FROM channels WHERE is_suspended`
	if err := r.pool.QueryRow(ctx, channelsSQL).Scan(&counts.SuspendedChannels); err != nil {
		return ModerationCounts{}, fmt.Errorf("count channels: %w", err)
	}

	return counts, nil
}
