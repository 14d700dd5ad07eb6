package server

import (
	"time"

	"mealbridge/internal/models"
	"mealbridge/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createPostRequest struct {
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Quantity    string    `json:"quantity"`
	Category    string    `json:"category"`
	Address     string    `json:"address"`
	ImageURL    string    `json:"image_url"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.Context(), service.CreatePostInput{
		OwnerID:     userID,
		Kind:        models.PostKind(req.Kind),
		Title:       req.Title,
		Description: req.Description,
		Quantity:    req.Quantity,
		Category:    req.Category,
		Address:     req.Address,
		ImageURL:    req.ImageURL,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPosts handles GET /api/posts
//
// Optional query parameters: limit, offset, category, lat, lng, radius.
// When lat/lng are provided without a radius the configured default applies.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	in := service.ListPostsInput{
		Limit:    page.Limit,
		Offset:   page.Offset,
		Category: c.Query("category"),
	}

	lat := c.QueryFloat("lat")
	lng := c.QueryFloat("lng")
	if lat != 0 || lng != 0 {
		radius := c.QueryFloat("radius")
		if radius <= 0 {
			radius = s.config.DefaultRadiusKm
		}
		in.Lat = lat
		in.Lng = lng
		in.RadiusKm = radius
	}

	posts, err := s.postService.ListPosts(c.Context(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{
		"posts":  posts,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, svcErr := s.postService.GetPost(c.Context(), postID)
	if svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.JSON(post)
}

// GetMyPosts handles GET /api/posts/my-posts
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	userID := currentUserID(c)
	page := parsePagination(c, 20)

	posts, err := s.postService.MyPosts(c.Context(), userID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// GetClaimedPosts handles GET /api/posts/claimed
func (s *Server) GetClaimedPosts(c *fiber.Ctx) error {
	userID := currentUserID(c)
	page := parsePagination(c, 20)

	posts, err := s.postService.ClaimedPosts(c.Context(), userID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	userID := currentUserID(c)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		Quantity    *string    `json:"quantity"`
		Category    *string    `json:"category"`
		Address     *string    `json:"address"`
		ImageURL    *string    `json:"image_url"`
		Latitude    *float64   `json:"latitude"`
		Longitude   *float64   `json:"longitude"`
		ExpiresAt   *time.Time `json:"expires_at"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, svcErr := s.postService.UpdatePost(c.Context(), service.UpdatePostInput{
		UserID:      userID,
		PostID:      postID,
		Title:       req.Title,
		Description: req.Description,
		Quantity:    req.Quantity,
		Category:    req.Category,
		Address:     req.Address,
		ImageURL:    req.ImageURL,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		ExpiresAt:   req.ExpiresAt,
	})
	if svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id (owners) and DELETE /api/admin/posts/:id.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID := currentUserID(c)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if svcErr := s.postService.DeletePost(c.Context(), postID, userID); svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// ClaimPost handles POST /api/posts/:id/claim
func (s *Server) ClaimPost(c *fiber.Ctx) error {
	userID := currentUserID(c)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, svcErr := s.postService.ClaimPost(c.Context(), postID, userID)
	if svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.JSON(post)
}

// CompletePost handles POST /api/posts/:id/complete
func (s *Server) CompletePost(c *fiber.Ctx) error {
	userID := currentUserID(c)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, svcErr := s.postService.CompletePost(c.Context(), postID, userID)
	if svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.JSON(post)
}

// RatePost handles POST /api/posts/:id/rate
func (s *Server) RatePost(c *fiber.Ctx) error {
	userID := currentUserID(c)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Stars   int    `json:"stars"`
		Comment string `json:"comment"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	rating, svcErr := s.ratingService.SubmitRating(c.Context(), service.SubmitRatingInput{
		PostID:  postID,
		RaterID: userID,
		Stars:   req.Stars,
		Comment: req.Comment,
	})
	if svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.Status(fiber.StatusCreated).JSON(rating)
}
