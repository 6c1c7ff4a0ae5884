package sweep

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/DevAniketIT/Playbharat/internal/domain/model"
	suspsvc "github.com/DevAniketIT/Playbharat/internal/services/suspensions"
)

const defaultBatchSize = 500

type StrikeSweeper interface {
	DeactivateExpired(ctx context.Context) ([]int64, error)
	Reevaluate(ctx context.Context, userID int64) error
}

type SuspensionSweeper interface {
	ListExpired(ctx context.Context, limit int) ([]model.Suspension, error)
	Lift(ctx context.Context, suspensionID, liftedBy int64, reason, ip string) error
}

// Job is the periodic sweep that materializes lazy expiry: it deactivates
// run-out strikes, re-derives the affected users' tiers, and lifts
// suspensions past their expiry. Correctness never depends on it running;
// reads compute expiry on the fly.
type Job struct {
	strikes     StrikeSweeper
	suspensions SuspensionSweeper
	actorID     int64
	batchSize   int
	logger      *zap.Logger
}

// NewJob builds the sweep. Lifts are attributed to actorID, which must be
// a staff user; a zero actorID skips the suspension half of the sweep.
func NewJob(strikes StrikeSweeper, suspensions SuspensionSweeper, actorID int64, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{
		strikes:     strikes,
		suspensions: suspensions,
		actorID:     actorID,
		batchSize:   defaultBatchSize,
		logger:      logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if err := j.sweepStrikes(ctx); err != nil {
		return err
	}
	return j.sweepSuspensions(ctx)
}

func (j *Job) sweepStrikes(ctx context.Context) error {
	userIDs, err := j.strikes.DeactivateExpired(ctx)
	if err != nil {
		return fmt.Errorf("deactivate expired strikes: %w", err)
	}
	if len(userIDs) == 0 {
		return nil
	}

	failed := 0
	for _, userID := range userIDs {
		if err := j.strikes.Reevaluate(ctx, userID); err != nil {
			failed++
			j.logger.Warn("sweep: re-evaluate user failed",
				zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	j.logger.Info("sweep: expired strikes deactivated",
		zap.Int("users", len(userIDs)), zap.Int("failed", failed))
	return nil
}

func (j *Job) sweepSuspensions(ctx context.Context) error {
	if j.actorID <= 0 {
		return nil
	}

	expired, err := j.suspensions.ListExpired(ctx, j.batchSize)
	if err != nil {
		return fmt.Errorf("list expired suspensions: %w", err)
	}
	if len(expired) == 0 {
		return nil
	}

	lifted, failed := 0, 0
	for _, susp := range expired {
		err := j.suspensions.Lift(ctx, susp.ID, j.actorID, "Suspension expired", "")
		switch {
		case err == nil:
			lifted++
		case errors.Is(err, suspsvc.ErrInvalidState):
			// Lifted concurrently between the list and the lift.
		default:
			failed++
			j.logger.Warn("sweep: lift expired suspension failed",
				zap.Int64("suspension_id", susp.ID), zap.Error(err))
		}
	}
	j.logger.Info("sweep: expired suspensions lifted",
		zap.Int("lifted", lifted), zap.Int("failed", failed))
	return nil
}
