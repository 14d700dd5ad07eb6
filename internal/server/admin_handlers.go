package server

import (
	"mealbridge/internal/models"
	"mealbridge/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// AdminStats handles GET /api/admin/stats
func (s *Server) AdminStats(c *fiber.Ctx) error {
	var userCount int64
	if err := s.db.WithContext(c.Context()).Model(&models.User{}).Count(&userCount).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	byStatus, err := s.postRepo.CountByStatus(c.Context())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	var totalPosts int64
	for _, n := range byStatus {
		totalPosts += n
	}

	return c.JSON(fiber.Map{
		"users":           userCount,
		"posts":           totalPosts,
		"posts_by_status": byStatus,
	})
}

// AdminListUsers handles GET /api/admin/users
func (s *Server) AdminListUsers(c *fiber.Ctx) error {
	page := parsePagination(c, 50)

	users, total, err := s.userService.ListUsers(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{
		"users":  users,
		"total":  total,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

// AdminDeleteUser handles DELETE /api/admin/users/:id
func (s *Server) AdminDeleteUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if targetID == currentUserID(c) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Cannot delete your own account"))
	}

	if svcErr := s.userService.DeleteUser(c.Context(), targetID); svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.JSON(fiber.Map{"message": "User deleted"})
}

// AdminSetRole handles POST /api/admin/users/:id/role
func (s *Server) AdminSetRole(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Role string `json:"role"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, svcErr := s.userService.SetRole(c.Context(), targetID, req.Role)
	if svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.JSON(user)
}

// AdminListPosts handles GET /api/admin/posts
//
// Unlike the public feed this includes expired and completed posts and can
// filter by owner.
func (s *Server) AdminListPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 50)

	filter := repository.AdminPostFilter{
		Status:  models.PostStatus(c.Query("status")),
		OwnerID: uint(c.QueryInt("ownerId", 0)),
	}

	posts, total, err := s.postRepo.ListAdmin(c.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{
		"posts":  posts,
		"total":  total,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}
