package expiry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"mealbridge/internal/models"
	"mealbridge/internal/repository"

	"github.com/stretchr/testify/assert"
)

// sweepRepoStub implements only the repository surface the sweeper touches.
type sweepRepoStub struct {
	repository.PostRepository
	expireDueFn func(context.Context, time.Time) (int64, error)
}

func (s *sweepRepoStub) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	return s.expireDueFn(ctx, now)
}

func TestSweeper_SweepOnce(t *testing.T) {
	var calls int32
	repo := &sweepRepoStub{
		expireDueFn: func(_ context.Context, _ time.Time) (int64, error) {
			atomic.AddInt32(&calls, 1)
			return 2, nil
		},
	}

	s := NewSweeper(repo, time.Minute)
	s.SweepOnce(context.Background())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSweeper_SweepOnce_ErrorsDoNotPanic(t *testing.T) {
	repo := &sweepRepoStub{
		expireDueFn: func(_ context.Context, _ time.Time) (int64, error) {
			return 0, models.NewInternalError(errors.New("db down"))
		},
	}

	s := NewSweeper(repo, time.Minute)
	s.SweepOnce(context.Background())
}

func TestSweeper_StartStopsOnCancel(t *testing.T) {
	var calls int32
	repo := &sweepRepoStub{
		expireDueFn: func(_ context.Context, _ time.Time) (int64, error) {
			atomic.AddInt32(&calls, 1)
			return 0, nil
		},
	}

	s := NewSweeper(repo, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	time.Sleep(30 * time.Millisecond)
	after := atomic.LoadInt32(&calls)
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), after+1)
}
