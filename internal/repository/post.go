package repository

import (
	"context"
	"errors"
	"time"

	"mealbridge/internal/cache"
	"mealbridge/internal/models"

	"gorm.io/gorm"
)

// haversineSQL computes great-circle distance in kilometers between the
// post's coordinates and a bound (lat, lng) pair.
const haversineSQL = `(6371 * acos(least(1.0, cos(radians(?)) * cos(radians(posts.latitude)) * cos(radians(posts.longitude) - radians(?)) + sin(radians(?)) * sin(radians(posts.latitude)))))`

// PostFilter narrows a feed listing.
type PostFilter struct {
	Category string
	// Lat/Lng/RadiusKm enable geo filtering when RadiusKm > 0.
	Lat      float64
	Lng      float64
	RadiusKm float64
	// Status restricts to one lifecycle state; empty means available+claimed.
	Status models.PostStatus
}

// AdminPostFilter is the looser filter used by the admin listing.
type AdminPostFilter struct {
	Status  models.PostStatus
	OwnerID uint
}

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ListActive(ctx context.Context, f PostFilter, limit, offset int) ([]*models.Post, error)
	GetByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]*models.Post, error)
	GetClaimedBy(ctx context.Context, claimerID uint, limit, offset int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	Claim(ctx context.Context, postID, claimerID uint) (bool, error)
	Complete(ctx context.Context, postID uint) (bool, error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	ListAdmin(ctx context.Context, f AdminPostFilter, limit, offset int) ([]*models.Post, int64, error)
	CountByStatus(ctx context.Context) (map[models.PostStatus]int64, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePostsList(ctx)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("ClaimedBy").
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

// ListActive returns the public feed: non-terminal posts, newest first, or
// nearest first when a geo filter is set.
func (r *postRepository) ListActive(ctx context.Context, f PostFilter, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post

	q := r.db.WithContext(ctx).Model(&models.Post{}).Preload("Owner").Preload("ClaimedBy")

	if f.Status != "" {
		q = q.Where("posts.status = ?", f.Status)
	} else {
		q = q.Where("posts.status IN ?", []models.PostStatus{models.PostStatusAvailable, models.PostStatusClaimed}).
			Where("posts.expires_at > NOW()")
	}
	if f.Category != "" {
		q = q.Where("posts.category = ?", f.Category)
	}

	if f.RadiusKm > 0 {
		q = q.Select("posts.*, "+haversineSQL+" AS distance_km", f.Lat, f.Lng, f.Lat).
			Where(haversineSQL+" <= ?", f.Lat, f.Lng, f.Lat, f.RadiusKm).
			Order("distance_km ASC")
	} else {
		q = q.Order("posts.created_at DESC")
	}

	if err := q.Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) GetByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Preload("ClaimedBy").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) GetClaimedBy(ctx context.Context, claimerID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("claimed_by_id = ?", claimerID).
		Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, post.ID)
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, id)
	return nil
}

// Claim assigns the post to claimerID iff it is still available. The
// conditional UPDATE is atomic, so exactly one of any concurrent claimers
// sees claimed=true; the rest get false without an error.
func (r *postRepository) Claim(ctx context.Context, postID, claimerID uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND status = ?", postID, models.PostStatusAvailable).
		Updates(map[string]interface{}{
			"status":        models.PostStatusClaimed,
			"claimed_by_id": claimerID,
		})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected > 0 {
		cache.InvalidatePost(ctx, postID)
	}
	return result.RowsAffected > 0, nil
}

// Complete moves the post from claimed to completed. Same atomic shape as
// Claim so a double-complete affects zero rows.
func (r *postRepository) Complete(ctx context.Context, postID uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND status = ?", postID, models.PostStatusClaimed).
		Update("status", models.PostStatusCompleted)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected > 0 {
		cache.InvalidatePost(ctx, postID)
	}
	return result.RowsAffected > 0, nil
}

// ExpireDue retires every available post whose expiry has passed. Claimed
// posts are deliberately left alone; the handover may still be in flight.
func (r *postRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("status = ? AND expires_at <= ?", models.PostStatusAvailable, now).
		Update("status", models.PostStatusExpired)
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	if result.RowsAffected > 0 {
		cache.InvalidatePostsList(ctx)
	}
	return result.RowsAffected, nil
}

func (r *postRepository) ListAdmin(ctx context.Context, f AdminPostFilter, limit, offset int) ([]*models.Post, int64, error) {
	var posts []*models.Post
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Post{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.OwnerID != 0 {
		q = q.Where("owner_id = ?", f.OwnerID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	if err := q.Preload("Owner").Preload("ClaimedBy").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

func (r *postRepository) CountByStatus(ctx context.Context) (map[models.PostStatus]int64, error) {
	type row struct {
		Status models.PostStatus
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	counts := make(map[models.PostStatus]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}
