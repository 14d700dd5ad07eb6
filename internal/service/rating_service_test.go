package service

import (
	"context"
	"testing"

	"mealbridge/internal/events"
	"mealbridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ratingRepoStub is a stub for repository.RatingRepository.
type ratingRepoStub struct {
	createFn     func(context.Context, *models.Rating) error
	hasRatedFn   func(context.Context, uint, uint) (bool, error)
	getByRateeFn func(context.Context, uint, int, int) ([]*models.Rating, error)
}

func (s *ratingRepoStub) Create(ctx context.Context, rating *models.Rating) error {
	return s.createFn(ctx, rating)
}
func (s *ratingRepoStub) HasRated(ctx context.Context, postID, raterID uint) (bool, error) {
	return s.hasRatedFn(ctx, postID, raterID)
}
func (s *ratingRepoStub) GetByRatee(ctx context.Context, rateeID uint, limit, offset int) ([]*models.Rating, error) {
	return s.getByRateeFn(ctx, rateeID, limit, offset)
}

func noopRatingRepo() *ratingRepoStub {
	return &ratingRepoStub{
		createFn:     func(_ context.Context, _ *models.Rating) error { return nil },
		hasRatedFn:   func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		getByRateeFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Rating, error) { return nil, nil },
	}
}

func completedPost(id, ownerID, claimerID uint) *models.Post {
	p := availablePost(id, ownerID)
	p.Status = models.PostStatusCompleted
	p.ClaimedByID = &claimerID
	return p
}

func TestRatingService_SubmitRating_Guards(t *testing.T) {
	ctx := context.Background()

	t.Run("Post Not Completed", func(t *testing.T) {
		postRepo := noopPostRepo()
		postRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) {
			return availablePost(1, 10), nil
		}
		svc := NewRatingService(noopRatingRepo(), postRepo, noopUserRepo(), nil)

		_, err := svc.SubmitRating(ctx, SubmitRatingInput{PostID: 1, RaterID: 20, Stars: 5})
		require.Error(t, err)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "STATE_CONFLICT", appErr.Code)
	})

	t.Run("Wrong Actor", func(t *testing.T) {
		postRepo := noopPostRepo()
		postRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) {
			return completedPost(1, 10, 20), nil
		}
		svc := NewRatingService(noopRatingRepo(), postRepo, noopUserRepo(), nil)

		_, err := svc.SubmitRating(ctx, SubmitRatingInput{PostID: 1, RaterID: 99, Stars: 5})
		require.Error(t, err)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "FORBIDDEN", appErr.Code)
	})

	t.Run("Duplicate Rejected Without Touching Donor", func(t *testing.T) {
		postRepo := noopPostRepo()
		postRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) {
			return completedPost(1, 10, 20), nil
		}
		ratingRepo := noopRatingRepo()
		ratingRepo.hasRatedFn = func(_ context.Context, _, _ uint) (bool, error) { return true, nil }

		applied := false
		userRepo := noopUserRepo()
		userRepo.applyRatingFn = func(_ context.Context, _ uint, _ float64, _ int) error {
			applied = true
			return nil
		}
		svc := NewRatingService(ratingRepo, postRepo, userRepo, nil)

		_, err := svc.SubmitRating(ctx, SubmitRatingInput{PostID: 1, RaterID: 20, Stars: 5})
		require.Error(t, err)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "STATE_CONFLICT", appErr.Code)
		assert.False(t, applied)
	})
}

func TestRatingService_SubmitRating_UpdatesRunningAverage(t *testing.T) {
	ctx := context.Background()

	postRepo := noopPostRepo()
	postRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) {
		return completedPost(1, 10, 20), nil
	}
	userRepo := noopUserRepo()
	userRepo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return &models.User{ID: id, Rating: 4.5, RatingCount: 2}, nil
	}

	var appliedRating float64
	var appliedCount int
	userRepo.applyRatingFn = func(_ context.Context, id uint, rating float64, count int) error {
		assert.Equal(t, uint(10), id)
		appliedRating = rating
		appliedCount = count
		return nil
	}

	pub := &capturingPublisher{}
	svc := NewRatingService(noopRatingRepo(), postRepo, userRepo, pub)

	rating, err := svc.SubmitRating(ctx, SubmitRatingInput{PostID: 1, RaterID: 20, Stars: 3, Comment: "fine"})
	require.NoError(t, err)
	assert.Equal(t, 3, rating.Stars)
	assert.Equal(t, uint(10), rating.RateeID)

	// (4.5*2 + 3) / 3 = 4.0
	assert.InDelta(t, 4.0, appliedRating, 0.001)
	assert.Equal(t, 3, appliedCount)

	// Only the donor's private channel hears about it.
	require.Len(t, pub.user, 1)
	assert.Equal(t, uint(10), pub.user[0].userID)
	assert.Equal(t, events.TypeRatingUpdated, pub.user[0].eventType)
	assert.Empty(t, pub.feed)
}

func TestRatingService_StarsClamped(t *testing.T) {
	ctx := context.Background()

	postRepo := noopPostRepo()
	postRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) {
		return completedPost(1, 10, 20), nil
	}

	var createdStars int
	ratingRepo := noopRatingRepo()
	ratingRepo.createFn = func(_ context.Context, r *models.Rating) error {
		createdStars = r.Stars
		return nil
	}
	svc := NewRatingService(ratingRepo, postRepo, noopUserRepo(), nil)

	_, err := svc.SubmitRating(ctx, SubmitRatingInput{PostID: 1, RaterID: 20, Stars: 11})
	require.NoError(t, err)
	assert.Equal(t, 5, createdStars)
}

func TestRunningAverage(t *testing.T) {
	tests := []struct {
		name       string
		oldAverage float64
		oldCount   int
		stars      int
		want       float64
	}{
		{name: "First Rating", oldAverage: 0, oldCount: 0, stars: 4, want: 4.0},
		{name: "Second Rating", oldAverage: 4.0, oldCount: 1, stars: 5, want: 4.5},
		{name: "Rounded To Two Places", oldAverage: 4.5, oldCount: 2, stars: 4, want: 4.33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RunningAverage(tt.oldAverage, tt.oldCount, tt.stars), 0.0001)
		})
	}
}
