package repository

import (
	"context"

	"mealbridge/internal/cache"
	"mealbridge/internal/models"

	"gorm.io/gorm"
)

// RatingRepository defines persistence operations for donor ratings.
type RatingRepository interface {
	Create(ctx context.Context, rating *models.Rating) error
	HasRated(ctx context.Context, postID, raterID uint) (bool, error)
	GetByRatee(ctx context.Context, rateeID uint, limit, offset int) ([]*models.Rating, error)
}

type ratingRepository struct {
	db *gorm.DB
}

// NewRatingRepository returns a new RatingRepository implementation.
func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) Create(ctx context.Context, rating *models.Rating) error {
	if err := r.db.WithContext(ctx).Create(rating).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Post already rated")
		}
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.HasRatedKey(rating.PostID, rating.RaterID))
	return nil
}

func (r *ratingRepository) HasRated(ctx context.Context, postID, raterID uint) (bool, error) {
	var rated bool
	key := cache.HasRatedKey(postID, raterID)

	err := cache.Aside(ctx, key, &rated, cache.HasRatedTTL, func() error {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Rating{}).
			Where("post_id = ? AND rater_id = ?", postID, raterID).
			Count(&count).Error; err != nil {
			return models.NewInternalError(err)
		}
		rated = count > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return rated, nil
}

func (r *ratingRepository) GetByRatee(ctx context.Context, rateeID uint, limit, offset int) ([]*models.Rating, error) {
	var ratings []*models.Rating
	err := r.db.WithContext(ctx).
		Preload("Rater").
		Where("ratee_id = ?", rateeID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&ratings).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ratings, nil
}
