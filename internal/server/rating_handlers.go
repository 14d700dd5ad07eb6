package server

import (
	"mealbridge/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CheckRating handles GET /api/ratings/check/:postId
func (s *Server) CheckRating(c *fiber.Ctx) error {
	userID := currentUserID(c)
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	hasRated, svcErr := s.ratingService.HasRated(c.Context(), postID, userID)
	if svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.JSON(fiber.Map{"has_rated": hasRated})
}

// GetUserRatings handles GET /api/users/:id/ratings
func (s *Server) GetUserRatings(c *fiber.Ctx) error {
	rateeID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)

	ratings, svcErr := s.ratingService.RatingsForUser(c.Context(), rateeID, page.Limit, page.Offset)
	if svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.JSON(fiber.Map{"ratings": ratings})
}
