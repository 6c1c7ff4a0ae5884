package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DevAniketIT/Playbharat/internal/domain/enums"
	"github.com/DevAniketIT/Playbharat/internal/domain/model"
)

var (
	ErrSuspensionNotFound = errors.New("suspension not found")
	ErrSuspensionInactive = errors.New("suspension already lifted")
)

const suspensionColumns = `
id, target_kind, target_id, suspension_type, cause, suspended_by,
COALESCE(reason, ''), COALESCE(details, ''),
starts_at, expires_at, is_active,
lifted_by, lifted_at, COALESCE(lift_reason, ''),
created_at`

type SuspensionRepo struct {
	pool *pgxpool.Pool
}

func NewSuspensionRepo(pool *pgxpool.Pool) *SuspensionRepo {
	return &SuspensionRepo{pool: pool}
}

func (r *SuspensionRepo) Insert(ctx context.Context, tx pgx.Tx, s model.Suspension) (model.Suspension, error) {
	if tx == nil {
		return model.Suspension{}, fmt.Errorf("transaction is required")
	}
	if !s.Target.Kind.Valid() || s.Target.ID <= 0 {
		return model.Suspension{}, fmt.Errorf("invalid suspension target")
	}
	if s.SuspendedBy <= 0 {
		return model.Suspension{}, fmt.Errorf("invalid suspension issuer")
	}

	err := tx.QueryRow(ctx, `
INSERT INTO suspensions (
	target_kind, target_id, suspension_type, cause, suspended_by,
	reason, details, starts_at, expires_at, is_active, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, $8)
RETURNING id, created_at
`,
		s.Target.Kind,
		s.Target.ID,
		s.Type,
		s.Cause,
		s.SuspendedBy,
		s.Reason,
		s.Details,
		s.StartsAt,
		s.ExpiresAt,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return model.Suspension{}, fmt.Errorf("insert suspension: %w", err)
	}

	s.IsActive = true
	return s, nil
}

func (r *SuspensionRepo) GetByID(ctx context.Context, suspensionID int64) (model.Suspension, error) {
	if r.pool == nil {
		return model.Suspension{}, fmt.Errorf("postgres pool is nil")
	}
	if suspensionID <= 0 {
		return model.Suspension{}, fmt.Errorf("invalid suspension id")
	}

	s, err := scanSuspensionRow(r.pool.QueryRow(ctx, `
SELECT `+suspensionColumns+`
FROM suspensions
WHERE id = $1
`, suspensionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Suspension{}, ErrSuspensionNotFound
		}
		return model.Suspension{}, err
	}
	return s, nil
}

// LockByID reads a suspension under a row lock so lift decisions see a
// stable is_active value.
func (r *SuspensionRepo) LockByID(ctx context.Context, tx pgx.Tx, suspensionID int64) (model.Suspension, error) {
	if tx == nil {
		return model.Suspension{}, fmt.Errorf("transaction is required")
	}
	if suspensionID <= 0 {
		return model.Suspension{}, fmt.Errorf("invalid suspension id")
	}

	s, err := scanSuspensionRow(tx.QueryRow(ctx, `
SELECT `+suspensionColumns+`
FROM suspensions
WHERE id = $1
FOR UPDATE
`, suspensionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Suspension{}, ErrSuspensionNotFound
		}
		return model.Suspension{}, err
	}
	return s, nil
}

// HasActive reports whether the target already carries an active suspension
// of the given type. One active suspension per (target, type) is enforced at
// the service layer through this check under the target's row lock.
func (r *SuspensionRepo) HasActive(ctx context.Context, tx pgx.Tx, target model.SuspensionTarget, typ enums.SuspensionType) (bool, error) {
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	var exists bool
	err := tx.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM suspensions
	WHERE target_kind = $1
	  AND target_id = $2
	  AND suspension_type = $3
	  AND is_active
)
`, target.Kind, target.ID, typ).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active suspension: %w", err)
	}
	return exists, nil
}

// FindActive returns the single active suspension of the given type for a
// target, if any.
func (r *SuspensionRepo) FindActive(ctx context.Context, tx pgx.Tx, target model.SuspensionTarget, typ enums.SuspensionType) (model.Suspension, error) {
	if tx == nil {
		return model.Suspension{}, fmt.Errorf("transaction is required")
	}

	s, err := scanSuspensionRow(tx.QueryRow(ctx, `
SELECT `+suspensionColumns+`
FROM suspensions
WHERE target_kind = $1
  AND target_id = $2
  AND suspension_type = $3
  AND is_active
ORDER BY created_at DESC, id DESC
LIMIT 1
`, target.Kind, target.ID, typ))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Suspension{}, ErrSuspensionNotFound
		}
		return model.Suspension{}, err
	}
	return s, nil
}

// MarkLifted closes an active suspension. Lifting an already-inactive row
// reports ErrSuspensionInactive rather than silently succeeding.
func (r *SuspensionRepo) MarkLifted(ctx context.Context, tx pgx.Tx, suspensionID, liftedBy int64, at time.Time, reason string) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if suspensionID <= 0 || liftedBy <= 0 {
		return fmt.Errorf("invalid lift payload")
	}

	tag, err := tx.Exec(ctx, `
UPDATE suspensions
SET is_active = FALSE,
	lifted_by = $2,
	lifted_at = $3,
	lift_reason = $4
WHERE id = $1
  AND is_active
`, suspensionID, liftedBy, at, reason)
	if err != nil {
		return fmt.Errorf("mark suspension lifted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if checkErr := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM suspensions WHERE id = $1)`, suspensionID).Scan(&exists); checkErr != nil {
			return fmt.Errorf("mark suspension lifted: %w", checkErr)
		}
		if exists {
			return ErrSuspensionInactive
		}
		return ErrSuspensionNotFound
	}
	return nil
}

func (r *SuspensionRepo) ListByTarget(ctx context.Context, target model.SuspensionTarget, limit int) ([]model.Suspension, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if !target.Kind.Valid() || target.ID <= 0 {
		return nil, fmt.Errorf("invalid suspension target")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+suspensionColumns+`
FROM suspensions
WHERE target_kind = $1
  AND target_id = $2
ORDER BY created_at DESC, id DESC
LIMIT $3
`, target.Kind, target.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list suspensions: %w", err)
	}
	defer rows.Close()

	return collectSuspensions(rows)
}

// ListExpiredActive returns active suspensions whose expiry has passed, for
// the sweep to lift. Indefinite suspensions (expires_at IS NULL) never
// qualify.
func (r *SuspensionRepo) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]model.Suspension, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 || limit > 1000 {
		limit = 200
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+suspensionColumns+`
FROM suspensions
WHERE is_active
  AND expires_at IS NOT NULL
  AND expires_at <= $1
ORDER BY expires_at
LIMIT $2
`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired suspensions: %w", err)
	}
	defer rows.Close()

	return collectSuspensions(rows)
}

// ActiveBanCascadeForOwner returns the active channel suspensions a user
// ban cascaded onto the user's channels. Used by unban to undo exactly what
// the ban did and nothing else.
func (r *SuspensionRepo) ActiveBanCascadeForOwner(ctx context.Context, tx pgx.Tx, ownerID int64) ([]model.Suspension, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is required")
	}
	if ownerID <= 0 {
		return nil, fmt.Errorf("invalid owner id")
	}

	rows, err := tx.Query(ctx, `
SELECT `+suspensionPrefixedColumns("s")+`
FROM suspensions s
JOIN channels c ON c.id = s.target_id
WHERE s.target_kind = 'channel'
  AND s.cause = 'ban_cascade'
  AND s.is_active
  AND c.owner_id = $1
ORDER BY s.id
`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list ban-cascade suspensions: %w", err)
	}
	defer rows.Close()

	return collectSuspensions(rows)
}

func suspensionPrefixedColumns(alias string) string {
	return alias + `.id, ` + alias + `.target_kind, ` + alias + `.target_id, ` + alias + `.suspension_type, ` + alias + `.cause, ` + alias + `.suspended_by,
COALESCE(` + alias + `.reason, ''), COALESCE(` + alias + `.details, ''),
` + alias + `.starts_at, ` + alias + `.expires_at, ` + alias + `.is_active,
` + alias + `.lifted_by, ` + alias + `.lifted_at, COALESCE(` + alias + `.lift_reason, ''),
` + alias + `.created_at`
}

func collectSuspensions(rows pgx.Rows) ([]model.Suspension, error) {
	var suspensions []model.Suspension
	for rows.Next() {
		s, err := scanSuspensionRow(rows)
		if err != nil {
			return nil, err
		}
		suspensions = append(suspensions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("collect suspensions: %w", err)
	}
	return suspensions, nil
}

func scanSuspensionRow(row rowScanner) (model.Suspension, error) {
	var s model.Suspension
	err := row.Scan(
		&s.ID,
		&s.Target.Kind,
		&s.Target.ID,
		&s.Type,
		&s.Cause,
		&s.SuspendedBy,
		&s.Reason,
		&s.Details,
		&s.StartsAt,
		&s.ExpiresAt,
		&s.IsActive,
		&s.LiftedBy,
		&s.LiftedAt,
		&s.LiftReason,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Suspension{}, err
		}
		return model.Suspension{}, fmt.Errorf("scan suspension: %w", err)
	}
	return s, nil
}
