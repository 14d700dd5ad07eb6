// Package expiry retires posts whose pickup deadline has passed.
package expiry

import (
	"context"
	"time"

	"mealbridge/internal/middleware"
	"mealbridge/internal/observability"
	"mealbridge/internal/repository"
)

// Sweeper periodically moves available posts past their deadline to the
// expired state. It runs independently of in-flight claim requests: the
// sweep's status guard means it never clobbers a post claimed in the same
// window, and a claim that lands after the sweep sees a terminal post.
type Sweeper struct {
	postRepo repository.PostRepository
	interval time.Duration
	now      func() time.Time
}

// NewSweeper returns a sweeper ticking at the given interval.
func NewSweeper(postRepo repository.PostRepository, interval time.Duration) *Sweeper {
	return &Sweeper{
		postRepo: postRepo,
		interval: interval,
		now:      time.Now,
	}
}

// Start launches the sweep loop in a goroutine. It stops when ctx is done.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SweepOnce(ctx)
			}
		}
	}()
}

// SweepOnce runs a single sweep pass. No realtime broadcast accompanies the
// transition; clients notice expired posts on their next feed load.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	swept, err := s.postRepo.ExpireDue(ctx, s.now())
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "Expiry sweep failed", "error", err.Error())
		return
	}
	if swept > 0 {
		observability.ExpiredPostsSwept.Add(float64(swept))
		middleware.Logger.InfoContext(ctx, "Expiry sweep retired posts", "count", swept)
	}
}
