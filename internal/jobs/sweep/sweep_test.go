package sweep

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DevAniketIT/Playbharat/internal/domain/model"
	suspsvc "github.com/DevAniketIT/Playbharat/internal/services/suspensions"
)

type fakeStrikeSweeper struct {
	expiredUsers []int64
	reevaluated  []int64
	failFor      int64
}

func (f *fakeStrikeSweeper) DeactivateExpired(context.Context) ([]int64, error) {
	return f.expiredUsers, nil
}

func (f *fakeStrikeSweeper) Reevaluate(_ context.Context, userID int64) error {
	if userID == f.failFor {
		return fmt.Errorf("user %d locked", userID)
	}
	f.reevaluated = append(f.reevaluated, userID)
	return nil
}

type fakeSuspensionSweeper struct {
	expired    []model.Suspension
	lifted     []int64
	actorSeen  int64
	raceFor    int64
	listCalled bool
}

func (f *fakeSuspensionSweeper) ListExpired(context.Context, int) ([]model.Suspension, error) {
	f.listCalled = true
	return f.expired, nil
}

func (f *fakeSuspensionSweeper) Lift(_ context.Context, suspensionID, liftedBy int64, _, _ string) error {
	if suspensionID == f.raceFor {
		return fmt.Errorf("%w: already lifted", suspsvc.ErrInvalidState)
	}
	f.actorSeen = liftedBy
	f.lifted = append(f.lifted, suspensionID)
	return nil
}

func TestRunSweepsStrikesAndSuspensions(t *testing.T) {
	strikes := &fakeStrikeSweeper{expiredUsers: []int64{10, 11}}
	suspensions := &fakeSuspensionSweeper{expired: []model.Suspension{
		{ID: 1}, {ID: 2},
	}}
	job := NewJob(strikes, suspensions, 99, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(strikes.reevaluated) != 2 {
		t.Fatalf("reevaluated = %v", strikes.reevaluated)
	}
	if len(suspensions.lifted) != 2 || suspensions.actorSeen != 99 {
		t.Fatalf("lifted = %v by %d", suspensions.lifted, suspensions.actorSeen)
	}
}

func TestRunContinuesPastPerUserFailures(t *testing.T) {
	strikes := &fakeStrikeSweeper{expiredUsers: []int64{10, 11, 12}, failFor: 11}
	suspensions := &fakeSuspensionSweeper{}
	job := NewJob(strikes, suspensions, 99, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(strikes.reevaluated) != 2 {
		t.Fatalf("reevaluated = %v, want the two healthy users", strikes.reevaluated)
	}
}

func TestRunToleratesConcurrentLifts(t *testing.T) {
	suspensions := &fakeSuspensionSweeper{
		expired: []model.Suspension{{ID: 1}, {ID: 2}},
		raceFor: 1,
	}
	job := NewJob(&fakeStrikeSweeper{}, suspensions, 99, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(suspensions.lifted) != 1 || suspensions.lifted[0] != 2 {
		t.Fatalf("lifted = %v", suspensions.lifted)
	}
}

func TestRunSkipsSuspensionsWithoutActor(t *testing.T) {
	suspensions := &fakeSuspensionSweeper{expired: []model.Suspension{{ID: 1}}}
	job := NewJob(&fakeStrikeSweeper{}, suspensions, 0, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if suspensions.listCalled {
		t.Fatal("suspension sweep must be skipped without a sweep actor")
	}
}

func TestRunPropagatesListErrors(t *testing.T) {
	job := NewJob(&failingStrikeSweeper{}, &fakeSuspensionSweeper{}, 99, nil)
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("deactivation errors must surface")
	}
}

type failingStrikeSweeper struct{}

func (failingStrikeSweeper) DeactivateExpired(context.Context) ([]int64, error) {
	return nil, errors.New("db down")
}

func (failingStrikeSweeper) Reevaluate(context.Context, int64) error { return nil }
