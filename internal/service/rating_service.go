package service

import (
	"context"
	"math"

	"mealbridge/internal/events"
	"mealbridge/internal/models"
	"mealbridge/internal/repository"
)

// RatingService enforces the one-rating-per-(post, rater) rule and keeps the
// donor's running average consistent with the ratings that produced it.
type RatingService struct {
	ratingRepo repository.RatingRepository
	postRepo   repository.PostRepository
	userRepo   repository.UserRepository
	publisher  events.Publisher
}

type SubmitRatingInput struct {
	PostID  uint
	RaterID uint
	Stars   int
	Comment string
}

func NewRatingService(
	ratingRepo repository.RatingRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	publisher events.Publisher,
) *RatingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &RatingService{
		ratingRepo: ratingRepo,
		postRepo:   postRepo,
		userRepo:   userRepo,
		publisher:  publisher,
	}
}

// SubmitRating runs the guards in order so every rejection carries its own
// reason: missing post, wrong state, wrong actor, duplicate.
func (s *RatingService) SubmitRating(ctx context.Context, in SubmitRatingInput) (*models.Rating, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostStatusCompleted {
		return nil, models.NewStateConflictError("Post must be completed before rating")
	}
	if post.ClaimedByID == nil || *post.ClaimedByID != in.RaterID {
		return nil, models.NewForbiddenError("Only the claimer can rate this post")
	}

	rated, err := s.ratingRepo.HasRated(ctx, in.PostID, in.RaterID)
	if err != nil {
		return nil, err
	}
	if rated {
		return nil, models.NewStateConflictError("You have already rated this post")
	}

	stars := models.ClampStars(in.Stars)

	rating := &models.Rating{
		PostID:  in.PostID,
		RaterID: in.RaterID,
		RateeID: post.OwnerID,
		Stars:   stars,
		Comment: in.Comment,
	}
	if err := s.ratingRepo.Create(ctx, rating); err != nil {
		return nil, err
	}

	donor, err := s.userRepo.GetByID(ctx, post.OwnerID)
	if err != nil {
		return nil, err
	}

	newCount := donor.RatingCount + 1
	newRating := RunningAverage(donor.Rating, donor.RatingCount, stars)
	if err := s.userRepo.ApplyRating(ctx, donor.ID, newRating, newCount); err != nil {
		return nil, err
	}

	s.publisher.PublishUser(ctx, donor.ID, events.TypeRatingUpdated, map[string]interface{}{
		"user_id":      donor.ID,
		"rating":       newRating,
		"rating_count": newCount,
	})
	return rating, nil
}

// HasRated reports whether the user already rated the post.
func (s *RatingService) HasRated(ctx context.Context, postID, raterID uint) (bool, error) {
	return s.ratingRepo.HasRated(ctx, postID, raterID)
}

// RatingsForUser lists the reviews a donor has received, newest first.
func (s *RatingService) RatingsForUser(ctx context.Context, rateeID uint, limit, offset int) ([]*models.Rating, error) {
	return s.ratingRepo.GetByRatee(ctx, rateeID, normalizeLimit(limit), offset)
}

// RunningAverage folds one more star value into an existing mean, rounded
// to two decimal places.
func RunningAverage(oldAverage float64, oldCount, stars int) float64 {
	avg := (oldAverage*float64(oldCount) + float64(stars)) / float64(oldCount+1)
	return math.Round(avg*100) / 100
}
