package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mealbridge/internal/config"
	"mealbridge/internal/models"
	"mealbridge/internal/repository"
	"mealbridge/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newAdminTestServer(postRepo *MockPostRepository, userRepo *MockUserRepository) (*fiber.App, *Server) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", uint(1))
		return c.Next()
	})

	s := &Server{
		config:      &config.Config{JWTSecret: "test_secret"},
		postRepo:    postRepo,
		userRepo:    userRepo,
		userService: service.NewUserService(userRepo),
	}
	return app, s
}

func TestAdminListPostsHandler(t *testing.T) {
	postRepo := new(MockPostRepository)
	postRepo.On("ListAdmin", mock.Anything,
		repository.AdminPostFilter{Status: models.PostStatusExpired}, 50, 0).
		Return([]*models.Post{testPost(5, 2, models.PostStatusExpired)}, int64(1), nil)

	app, s := newAdminTestServer(postRepo, new(MockUserRepository))
	app.Get("/admin/posts", s.AdminListPosts)

	req := httptest.NewRequest(http.MethodGet, "/admin/posts?status=expired", nil)
	resp, err := app.Test(req)
	assert.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Posts []*models.Post `json:"posts"`
		Total int64          `json:"total"`
	}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, int64(1), payload.Total)
	assert.Len(t, payload.Posts, 1)
}

func TestAdminSetRoleHandler(t *testing.T) {
	t.Run("Promote", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		userRepo.On("GetByID", mock.Anything, uint(2)).
			Return(&models.User{ID: 2, Role: models.RoleUser}, nil)
		userRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

		app, s := newAdminTestServer(new(MockPostRepository), userRepo)
		app.Post("/admin/users/:id/role", s.AdminSetRole)

		body, _ := json.Marshal(map[string]string{"role": "admin"})
		req := httptest.NewRequest(http.MethodPost, "/admin/users/2/role", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		assert.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var user models.User
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
		assert.Equal(t, models.RoleAdmin, user.Role)
	})

	t.Run("Invalid Role", func(t *testing.T) {
		app, s := newAdminTestServer(new(MockPostRepository), new(MockUserRepository))
		app.Post("/admin/users/:id/role", s.AdminSetRole)

		body, _ := json.Marshal(map[string]string{"role": "superuser"})
		req := httptest.NewRequest(http.MethodPost, "/admin/users/2/role", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		assert.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAdminDeleteUserHandler_SelfDeletionBlocked(t *testing.T) {
	app, s := newAdminTestServer(new(MockPostRepository), new(MockUserRepository))
	app.Delete("/admin/users/:id", s.AdminDeleteUser)

	// Authenticated as user 1 via the test middleware
	req := httptest.NewRequest(http.MethodDelete, "/admin/users/1", nil)
	resp, err := app.Test(req)
	assert.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminListUsersHandler(t *testing.T) {
	userRepo := new(MockUserRepository)
	userRepo.On("List", mock.Anything, 50, 0).
		Return([]models.User{{ID: 1}, {ID: 2}}, int64(2), nil)

	app, s := newAdminTestServer(new(MockPostRepository), userRepo)
	app.Get("/admin/users", s.AdminListUsers)

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	resp, err := app.Test(req)
	assert.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Users []models.User `json:"users"`
		Total int64         `json:"total"`
	}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Len(t, payload.Users, 2)
	assert.Equal(t, int64(2), payload.Total)
}
