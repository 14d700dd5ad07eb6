// Package service implements the application's business logic.
package service

import (
	"context"
	"strings"
	"time"

	"mealbridge/internal/cache"
	"mealbridge/internal/events"
	"mealbridge/internal/models"
	"mealbridge/internal/observability"
	"mealbridge/internal/repository"
)

// PostService is the lifecycle engine for food posts. Every status
// transition funnels through it so the guards stay in one place.
type PostService struct {
	postRepo  repository.PostRepository
	userRepo  repository.UserRepository
	publisher events.Publisher

	// claimHandlers receive the PostClaimed event after a successful claim.
	claimHandlers []func(ctx context.Context, ev events.PostClaimed)
}

type CreatePostInput struct {
	OwnerID     uint
	Kind        models.PostKind
	Title       string
	Description string
	Quantity    string
	Category    string
	Address     string
	ImageURL    string
	Latitude    float64
	Longitude   float64
	ExpiresAt   time.Time
}

type UpdatePostInput struct {
	UserID      uint
	PostID      uint
	Title       *string
	Description *string
	Quantity    *string
	Category    *string
	Address     *string
	ImageURL    *string
	Latitude    *float64
	Longitude   *float64
	ExpiresAt   *time.Time
}

type ListPostsInput struct {
	Limit    int
	Offset   int
	Category string
	// Lat/Lng/RadiusKm enable nearest-first geo filtering when RadiusKm > 0.
	Lat      float64
	Lng      float64
	RadiusKm float64
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	publisher events.Publisher,
) *PostService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &PostService{
		postRepo:  postRepo,
		userRepo:  userRepo,
		publisher: publisher,
	}
}

// OnPostClaimed registers a handler invoked after every successful claim.
// Handlers run synchronously in claim order; they must not block.
func (s *PostService) OnPostClaimed(fn func(ctx context.Context, ev events.PostClaimed)) {
	s.claimHandlers = append(s.claimHandlers, fn)
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	kind := in.Kind
	if kind == "" {
		kind = models.PostKindFoodPost
	}
	if !models.ValidPostKind(kind) {
		return nil, models.NewValidationError("Invalid post kind")
	}

	const maxTitleLen = 200
	const maxDescriptionLen = 5000

	if strings.TrimSpace(in.Title) == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(in.Title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 200 characters)")
	}
	if len(in.Description) > maxDescriptionLen {
		return nil, models.NewValidationError("Description too long (max 5000 characters)")
	}
	if strings.TrimSpace(in.Quantity) == "" {
		return nil, models.NewValidationError("Quantity is required")
	}
	if strings.TrimSpace(in.Address) == "" {
		return nil, models.NewValidationError("Pickup address is required")
	}
	if in.ExpiresAt.IsZero() || !in.ExpiresAt.After(time.Now()) {
		return nil, models.NewValidationError("expires_at must be in the future")
	}

	post := &models.Post{
		Kind:        kind,
		Title:       in.Title,
		Description: in.Description,
		Quantity:    in.Quantity,
		Category:    in.Category,
		Address:     in.Address,
		ImageURL:    in.ImageURL,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		ExpiresAt:   in.ExpiresAt,
		Status:      models.PostStatusAvailable,
		OwnerID:     in.OwnerID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	created, err := s.postRepo.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	s.publisher.PublishFeed(ctx, events.TypeNewPost, created)
	return created, nil
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	limit := normalizeLimit(in.Limit)

	filter := repository.PostFilter{
		Category: in.Category,
		Lat:      in.Lat,
		Lng:      in.Lng,
		RadiusKm: in.RadiusKm,
	}

	// Only the unfiltered first page is hot enough to cache.
	if in.Offset == 0 && in.Category == "" && in.RadiusKm == 0 {
		var posts []*models.Post
		err := cache.Aside(ctx, cache.PostsListKey, &posts, cache.PostTTL, func() error {
			var fetchErr error
			posts, fetchErr = s.postRepo.ListActive(ctx, filter, limit, 0)
			return fetchErr
		})
		if err != nil {
			return nil, err
		}
		return posts, nil
	}

	return s.postRepo.ListActive(ctx, filter, limit, in.Offset)
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

func (s *PostService) MyPosts(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.postRepo.GetByOwner(ctx, userID, normalizeLimit(limit), offset)
}

func (s *PostService) ClaimedPosts(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.postRepo.GetClaimedBy(ctx, userID, normalizeLimit(limit), offset)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.OwnerID != in.UserID {
		return nil, models.NewForbiddenError("Only the owner can edit this post")
	}
	if post.Status.Terminal() {
		return nil, models.NewStateConflictError("Post can no longer be edited")
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, models.NewValidationError("Title cannot be empty")
		}
		post.Title = *in.Title
	}
	if in.Description != nil {
		post.Description = *in.Description
	}
	if in.Quantity != nil {
		post.Quantity = *in.Quantity
	}
	if in.Category != nil {
		post.Category = *in.Category
	}
	if in.Address != nil {
		post.Address = *in.Address
	}
	if in.ImageURL != nil {
		post.ImageURL = *in.ImageURL
	}
	if in.Latitude != nil {
		post.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		post.Longitude = *in.Longitude
	}
	if in.ExpiresAt != nil {
		// Owners may shorten the window, even into the past; the next sweep
		// then retires the post.
		post.ExpiresAt = *in.ExpiresAt
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	s.publisher.PublishFeed(ctx, events.TypePostUpdate, post)
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, postID, userID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.OwnerID != userID {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if !user.IsAdmin() {
			return models.NewForbiddenError("Only the owner can delete this post")
		}
	}
	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}
	s.publisher.PublishFeed(ctx, events.TypePostDelete, map[string]interface{}{"id": postID})
	return nil
}

// ClaimPost transitions available -> claimed. The winner of concurrent
// claims is decided by the storage layer's conditional update; everyone
// else gets a state-conflict error.
func (s *PostService) ClaimPost(ctx context.Context, postID, userID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.OwnerID == userID {
		return nil, models.NewValidationError("You cannot claim your own post")
	}
	if post.Status.Terminal() {
		observability.PostTransitions.WithLabelValues("claim", "conflict").Inc()
		return nil, models.NewStateConflictError("Post is no longer available")
	}
	if !post.ExpiresAt.After(time.Now()) {
		observability.PostTransitions.WithLabelValues("claim", "conflict").Inc()
		return nil, models.NewStateConflictError("Post has expired")
	}

	claimed, err := s.postRepo.Claim(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		observability.PostTransitions.WithLabelValues("claim", "conflict").Inc()
		return nil, models.NewStateConflictError("Post is no longer available")
	}
	observability.PostTransitions.WithLabelValues("claim", "ok").Inc()

	updated, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	ev := events.PostClaimed{
		PostID:    updated.ID,
		PostKind:  string(updated.Kind),
		OwnerID:   updated.OwnerID,
		ClaimerID: userID,
	}
	for _, fn := range s.claimHandlers {
		fn(ctx, ev)
	}
	s.publisher.PublishFeed(ctx, events.TypePostUpdate, updated)
	return updated, nil
}

// CompletePost transitions claimed -> completed. Only the claimer can
// confirm the handover; the donor's completed counter moves exactly once.
func (s *PostService) CompletePost(ctx context.Context, postID, userID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.ClaimedByID == nil || *post.ClaimedByID != userID {
		return nil, models.NewForbiddenError("Only the claimer can complete this post")
	}
	if post.Status != models.PostStatusClaimed {
		observability.PostTransitions.WithLabelValues("complete", "conflict").Inc()
		return nil, models.NewStateConflictError("Post is not in a claimable-to-complete state")
	}

	completed, err := s.postRepo.Complete(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !completed {
		observability.PostTransitions.WithLabelValues("complete", "conflict").Inc()
		return nil, models.NewStateConflictError("Post was already completed")
	}
	observability.PostTransitions.WithLabelValues("complete", "ok").Inc()

	if err := s.userRepo.IncrementPostsCompleted(ctx, post.OwnerID); err != nil {
		return nil, err
	}

	updated, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	s.publisher.PublishFeed(ctx, events.TypePostUpdate, updated)
	return updated, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
