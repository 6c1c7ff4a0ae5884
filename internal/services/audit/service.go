package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/DevAniketIT/Playbharat/internal/domain/model"
	pgrepo "github.com/DevAniketIT/Playbharat/internal/repo/postgres"
)

var ErrArchiveDisabled = errors.New("audit archive is not configured")

type ActionStore interface {
	List(ctx context.Context, filter pgrepo.ActionFilter) ([]model.AdminAction, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// Uploader is the slice of the archive storage client Archive needs.
// *s3.Client satisfies it.
type Uploader interface {
	Upload(ctx context.Context, key string, payload []byte, contentType string) error
}

type ArchiveConfig struct {
	Prefix string
}

// Service is the read side of the audit trail: queries, exports, and the
// optional object-storage archive. Writes go through the repo from inside
// the moderation transactions, never through here.
type Service struct {
	actions  ActionStore
	uploader Uploader
	archive  ArchiveConfig
	now      func() time.Time
}

func NewService(actions ActionStore, uploader Uploader, archive ArchiveConfig) *Service {
	return &Service{
		actions:  actions,
		uploader: uploader,
		archive:  archive,
		now:      time.Now,
	}
}

// SetNow overrides the service clock. Tests only.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

func (s *Service) List(ctx context.Context, filter pgrepo.ActionFilter) ([]model.AdminAction, error) {
	actions, err := s.actions.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list admin actions: %w", err)
	}
	return actions, nil
}

func (s *Service) CountSince(ctx context.Context, since time.Time) (int, error) {
	return s.actions.CountSince(ctx, since)
}

var csvHeader = []string{
	"id", "created_at", "admin_id", "action_type",
	"target_user_id", "target_channel_id", "target_video_id",
	"reason", "details", "ip_address",
}

func (s *Service) ExportCSV(ctx context.Context, filter pgrepo.ActionFilter) ([]byte, error) {
	actions, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, a := range actions {
		details := ""
		if len(a.Details) > 0 {
			raw, err := json.Marshal(a.Details)
			if err != nil {
				return nil, fmt.Errorf("marshal details for action %d: %w", a.ID, err)
			}
			details = string(raw)
		}
		record := []string{
			strconv.FormatInt(a.ID, 10),
			a.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatInt(a.AdminID, 10),
			string(a.Type),
			formatOptionalID(a.TargetUserID),
			formatOptionalID(a.TargetChannelID),
			formatOptionalID(a.TargetVideoID),
			a.Reason,
			details,
			a.IPAddress,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) ExportJSON(ctx context.Context, filter pgrepo.ActionFilter) ([]byte, error) {
	actions, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if actions == nil {
		actions = []model.AdminAction{}
	}
	raw, err := json.MarshalIndent(actions, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal actions: %w", err)
	}
	return raw, nil
}

// Archive exports the filtered trail and uploads it to object storage,
// returning the object key. The trail itself stays in Postgres; the
// archive is a copy for retention, not a move.
func (s *Service) Archive(ctx context.Context, filter pgrepo.ActionFilter, format string) (string, error) {
	if s.uploader == nil {
		return "", ErrArchiveDisabled
	}

	var (
		payload     []byte
		contentType string
		err         error
	)
	switch format {
	case "csv":
		payload, err = s.ExportCSV(ctx, filter)
		contentType = "text/csv"
	case "json":
		payload, err = s.ExportJSON(ctx, filter)
		contentType = "application/json"
	default:
		return "", fmt.Errorf("unknown archive format %q", format)
	}
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	key := fmt.Sprintf("%s%s/audit-%s.%s",
		s.archive.Prefix, now.Format("2006/01/02"), uuid.NewString(), format)

	if err := s.uploader.Upload(ctx, key, payload, contentType); err != nil {
		return "", fmt.Errorf("upload audit archive: %w", err)
	}
	return key, nil
}

func formatOptionalID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}
