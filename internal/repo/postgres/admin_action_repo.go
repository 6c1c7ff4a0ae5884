package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DevAniketIT/Playbharat/internal/domain/model"
)

// AdminActionRepo is append-only by construction: it exposes no update or
// delete operation, and the audit table carries no updated_at column.
type AdminActionRepo struct {
	pool *pgxpool.Pool
}

func NewAdminActionRepo(pool *pgxpool.Pool) *AdminActionRepo {
	return &AdminActionRepo{pool: pool}
}

func (r *AdminActionRepo) Append(ctx context.Context, tx pgx.Tx, action model.AdminAction) (model.AdminAction, error) {
	if tx == nil {
		return model.AdminAction{}, fmt.Errorf("transaction is required")
	}
	if action.AdminID <= 0 {
		return model.AdminAction{}, fmt.Errorf("invalid acting admin")
	}
	if !action.Type.Valid() {
		return model.AdminAction{}, fmt.Errorf("invalid action type %q", action.Type)
	}
	if strings.TrimSpace(action.Reason) == "" {
		return model.AdminAction{}, fmt.Errorf("action reason is required")
	}

	details := action.Details
	if details == nil {
		details = map[string]any{}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return model.AdminAction{}, fmt.Errorf("marshal action details: %w", err)
	}

	err = tx.QueryRow(ctx, `
INSERT INTO admin_actions (
	admin_id, action_type, target_user_id, target_channel_id, target_video_id,
	reason, details, ip_address, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)
RETURNING id, created_at
`,
		action.AdminID,
		action.Type,
		action.TargetUserID,
		action.TargetChannelID,
		action.TargetVideoID,
		action.Reason,
		payload,
		strings.TrimSpace(action.IPAddress),
		action.CreatedAt,
	).Scan(&action.ID, &action.CreatedAt)
	if err != nil {
		return model.AdminAction{}, fmt.Errorf("append admin action: %w", err)
	}

	return action, nil
}

type ActionFilter struct {
	ActionType   string
	AdminID      int64
	TargetUserID int64
	Since        *time.Time
	Limit        int
}

// List returns audit entries newest first.
func (r *AdminActionRepo) List(ctx context.Context, filter ActionFilter) ([]model.AdminAction, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	conditions := make([]string, 0, 4)
	args := make([]any, 0, 4)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if t := strings.TrimSpace(filter.ActionType); t != "" {
		conditions = append(conditions, "action_type = "+arg(t))
	}
	if filter.AdminID > 0 {
		conditions = append(conditions, "admin_id = "+arg(filter.AdminID))
	}
	if filter.TargetUserID > 0 {
		conditions = append(conditions, "target_user_id = "+arg(filter.TargetUserID))
	}
	if filter.Since != nil {
		conditions = append(conditions, "created_at >= "+arg(*filter.Since))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
SELECT id, admin_id, action_type, target_user_id, target_channel_id, target_video_id,
       COALESCE(reason, ''), details, COALESCE(ip_address, ''), created_at
FROM admin_actions
%s
ORDER BY created_at DESC, id DESC
LIMIT %d
`, where, limit), args...)
	if err != nil {
		return nil, fmt.Errorf("list admin actions: %w", err)
	}
	defer rows.Close()

	var actions []model.AdminAction
	for rows.Next() {
		var (
			action  model.AdminAction
			payload []byte
		)
		err := rows.Scan(
			&action.ID,
			&action.AdminID,
			&action.Type,
			&action.TargetUserID,
			&action.TargetChannelID,
			&action.TargetVideoID,
			&action.Reason,
			&payload,
			&action.IPAddress,
			&action.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan admin action: %w", err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &action.Details); err != nil {
				return nil, fmt.Errorf("unmarshal action details: %w", err)
			}
		}
		actions = append(actions, action)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list admin actions: %w", err)
	}
	return actions, nil
}

// CountSince supports the stats surface.
func (r *AdminActionRepo) CountSince(ctx context.Context, since time.Time) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM admin_actions
WHERE created_at >= $1
`, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count admin actions: %w", err)
	}
	return count, nil
}
