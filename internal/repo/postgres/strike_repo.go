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

var (
	ErrStrikeNotFound = errors.New("strike not found")
	ErrStrikeResolved = errors.New("strike already resolved")
)

const strikeColumns = `
id, user_id, issued_by, strike_type, severity,
COALESCE(reason, ''), COALESCE(details, ''),
is_active, expires_at, resolved_at, resolved_by,
created_at, updated_at`

type StrikeRepo struct {
	pool *pgxpool.Pool
}

func NewStrikeRepo(pool *pgxpool.Pool) *StrikeRepo {
	return &StrikeRepo{pool: pool}
}

func (r *StrikeRepo) Insert(ctx context.Context, tx pgx.Tx, strike model.Strike) (model.Strike, error) {
	if tx == nil {
		return model.Strike{}, fmt.Errorf("transaction is required")
	}
	if strike.UserID <= 0 || strike.IssuedBy <= 0 {
		return model.Strike{}, fmt.Errorf("invalid strike payload")
	}

	err := tx.QueryRow(ctx, `
INSERT INTO strikes (
	user_id, issued_by, strike_type, severity, reason, details,
	is_active, expires_at, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $8, $8)
RETURNING id, created_at, updated_at
`,
		strike.UserID,
		strike.IssuedBy,
		strike.Type,
		strike.Severity,
		strike.Reason,
		strike.Details,
		strike.ExpiresAt,
		strike.CreatedAt,
	).Scan(&strike.ID, &strike.CreatedAt, &strike.UpdatedAt)
	if err != nil {
		return model.Strike{}, fmt.Errorf("insert strike: %w", err)
	}

	strike.IsActive = true
	return strike, nil
}

// CountActive counts the strikes that contribute to escalation at the given
// instant. Expiry is evaluated here, lazily; nothing is written.
func (r *StrikeRepo) CountActive(ctx context.Context, tx pgx.Tx, userID int64, now time.Time) (int, error) {
	if tx == nil {
		return 0, fmt.Errorf("transaction is required")
	}
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user id")
	}

	var count int
	err := tx.QueryRow(ctx, `
SELECT COUNT(*)
FROM strikes
WHERE user_id = $1
  AND is_active
  AND (expires_at IS NULL OR expires_at > $2)
`, userID, now).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active strikes: %w", err)
	}
	return count, nil
}

// CountActiveNow is the pool-backed variant serving the read path outside
// any escalation transaction.
func (r *StrikeRepo) CountActiveNow(ctx context.Context, userID int64, now time.Time) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user id")
	}

	var count int
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM strikes
WHERE user_id = $1
  AND is_active
  AND (expires_at IS NULL OR expires_at > $2)
`, userID, now).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active strikes: %w", err)
	}
	return count, nil
}

// LedgerStats recomputes the denormalized user counters from the ledger
// inside the caller's transaction.
type LedgerStats struct {
	Total        int
	Warnings     int
	LastStrikeAt *time.Time
}

func (r *StrikeRepo) Stats(ctx context.Context, tx pgx.Tx, userID int64) (LedgerStats, error) {
	if tx == nil {
		return LedgerStats{}, fmt.Errorf("transaction is required")
	}
	if userID <= 0 {
		return LedgerStats{}, fmt.Errorf("invalid user id")
	}

	var stats LedgerStats
	err := tx.QueryRow(ctx, `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE severity = 'warning'),
       MAX(created_at)
FROM strikes
WHERE user_id = $1
`, userID).Scan(&stats.Total, &stats.Warnings, &stats.LastStrikeAt)
	if err != nil {
		return LedgerStats{}, fmt.Errorf("strike ledger stats: %w", err)
	}
	return stats, nil
}

func (r *StrikeRepo) GetByID(ctx context.Context, strikeID int64) (model.Strike, error) {
	if r.pool == nil {
		return model.Strike{}, fmt.Errorf("postgres pool is nil")
	}
	if strikeID <= 0 {
		return model.Strike{}, fmt.Errorf("invalid strike id")
	}

	strike, err := scanStrikeRow(r.pool.QueryRow(ctx, `
SELECT `+strikeColumns+`
FROM strikes
WHERE id = $1
`, strikeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Strike{}, ErrStrikeNotFound
		}
		return model.Strike{}, err
	}
	return strike, nil
}

// Resolve deactivates a strike. Resolving an already-inactive strike is an
// error so that the caller can surface it as an invalid state.
func (r *StrikeRepo) Resolve(ctx context.Context, tx pgx.Tx, strikeID, resolvedBy int64, at time.Time) (model.Strike, error) {
	if tx == nil {
		return model.Strike{}, fmt.Errorf("transaction is required")
	}
	if strikeID <= 0 || resolvedBy <= 0 {
		return model.Strike{}, fmt.Errorf("invalid resolve payload")
	}

	strike, err := scanStrikeRow(tx.QueryRow(ctx, `
UPDATE strikes
SET is_active = FALSE,
	resolved_at = $3,
	resolved_by = $2,
	updated_at = NOW()
WHERE id = $1
  AND is_active
RETURNING `+strikeColumns+`
`, strikeID, resolvedBy, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish missing from already-resolved.
			var exists bool
			if checkErr := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM strikes WHERE id = $1)`, strikeID).Scan(&exists); checkErr != nil {
				return model.Strike{}, fmt.Errorf("resolve strike: %w", checkErr)
			}
			if exists {
				return model.Strike{}, ErrStrikeResolved
			}
			return model.Strike{}, ErrStrikeNotFound
		}
		return model.Strike{}, err
	}
	return strike, nil
}

func (r *StrikeRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]model.Strike, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+strikeColumns+`
FROM strikes
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list strikes: %w", err)
	}
	defer rows.Close()

	var strikes []model.Strike
	for rows.Next() {
		strike, err := scanStrikeRow(rows)
		if err != nil {
			return nil, err
		}
		strikes = append(strikes, strike)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list strikes: %w", err)
	}
	return strikes, nil
}

// DeactivateExpired marks strikes past their expiry as resolved and returns
// the distinct owners so the sweep can re-evaluate their consequence tier.
func (r *StrikeRepo) DeactivateExpired(ctx context.Context, tx pgx.Tx, now time.Time) ([]int64, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is required")
	}

	rows, err := tx.Query(ctx, `
UPDATE strikes
SET is_active = FALSE,
	resolved_at = $1,
	updated_at = NOW()
WHERE is_active
  AND expires_at IS NOT NULL
  AND expires_at <= $1
RETURNING user_id
`, now)
	if err != nil {
		return nil, fmt.Errorf("deactivate expired strikes: %w", err)
	}
	defer rows.Close()

	seen := make(map[int64]struct{})
	var userIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired strike owner: %w", err)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("deactivate expired strikes: %w", err)
	}
	return userIDs, nil
}

type StrikeTypeCount struct {
	Type  string `json:"strike_type"`
	Count int    `json:"count"`
}

func (r *StrikeRepo) DistributionByType(ctx context.Context) ([]StrikeTypeCount, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT strike_type, COUNT(*)
FROM strikes
GROUP BY strike_type
ORDER BY COUNT(*) DESC, strike_type
`)
	if err != nil {
		return nil, fmt.Errorf("strike distribution: %w", err)
	}
	defer rows.Close()

	var distribution []StrikeTypeCount
	for rows.Next() {
		var entry StrikeTypeCount
		if err := rows.Scan(&entry.Type, &entry.Count); err != nil {
			return nil, fmt.Errorf("scan strike distribution: %w", err)
		}
		distribution = append(distribution, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("strike distribution: %w", err)
	}
	return distribution, nil
}

func scanStrikeRow(row rowScanner) (model.Strike, error) {
	var strike model.Strike
	err := row.Scan(
		&strike.ID,
		&strike.UserID,
		&strike.IssuedBy,
		&strike.Type,
		&strike.Severity,
		&strike.Reason,
		&strike.Details,
		&strike.IsActive,
		&strike.ExpiresAt,
		&strike.ResolvedAt,
		&strike.ResolvedBy,
		&strike.CreatedAt,
		&strike.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Strike{}, err
		}
		return model.Strike{}, fmt.Errorf("scan strike: %w", err)
	}
	return strike, nil
}
