package stats

import (
	"context"
	"fmt"
	"time"

	pgrepo "github.com/DevAniketIT/Playbharat/internal/repo/postgres"
)

type CountsStore interface {
	Counts(ctx context.Context, now time.Time) (pgrepo.ModerationCounts, error)
}

type DistributionStore interface {
	DistributionByType(ctx context.Context) ([]pgrepo.StrikeTypeCount, error)
}

type ActionCounter interface {
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// Overview is the moderation dashboard payload.
type Overview struct {
	Counts             pgrepo.ModerationCounts  `json:"counts"`
	StrikeDistribution []pgrepo.StrikeTypeCount `json:"strike_distribution"`
	ActionsLast24h     int                      `json:"actions_last_24h"`
	GeneratedAt        time.Time                `json:"generated_at"`
}

type Service struct {
	counts       CountsStore
	distribution DistributionStore
	actions      ActionCounter
	now          func() time.Time
}

func NewService(counts CountsStore, distribution DistributionStore, actions ActionCounter) *Service {
	return &Service{
		counts:       counts,
		distribution: distribution,
		actions:      actions,
		now:          time.Now,
	}
}

// SetNow overrides the service clock. Tests only.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

func (s *Service) Overview(ctx context.Context) (Overview, error) {
	now := s.now().UTC()

	counts, err := s.counts.Counts(ctx, now)
	if err != nil {
		return Overview{}, fmt.Errorf("moderation counts: %w", err)
	}
	distribution, err := s.distribution.DistributionByType(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("strike distribution: %w", err)
	}
	actions, err := s.actions.CountSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return Overview{}, fmt.Errorf("recent action count: %w", err)
	}

	return Overview{
		Counts:             counts,
		StrikeDistribution: distribution,
		ActionsLast24h:     actions,
		GeneratedAt:        now,
	}, nil
}
