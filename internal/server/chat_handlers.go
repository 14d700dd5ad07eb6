package server

import (
	"mealbridge/internal/models"
	"mealbridge/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetConversations handles GET /api/chat
func (s *Server) GetConversations(c *fiber.Ctx) error {
	userID := currentUserID(c)

	conversations, err := s.chatService.ListConversations(c.Context(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"conversations": conversations})
}

// GetPostConversation handles GET /api/chat/:postKind/:postId
//
// Returns the conversation and its recent messages. Until the post is
// claimed there is no conversation; the response carries nulls so clients
// can render an empty thread.
func (s *Server) GetPostConversation(c *fiber.Ctx) error {
	userID := currentUserID(c)
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	kind := models.PostKind(c.Params("postKind"))
	if kind != "" && !models.ValidPostKind(kind) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid post kind"))
	}

	conv, messages, svcErr := s.chatService.GetConversationForPost(c.Context(), postID, kind, userID)
	if svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	if conv == nil {
		return c.JSON(fiber.Map{
			"conversation": nil,
			"messages":     []*models.Message{},
		})
	}

	return c.JSON(fiber.Map{
		"conversation": conv,
		"messages":     messages,
	})
}

// SendChatMessage handles POST /api/chat/send
func (s *Server) SendChatMessage(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		ConversationID uint   `json:"conversation_id"`
		PostID         uint   `json:"post_id"`
		PostKind       string `json:"post_kind"`
		Text           string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	msg, err := s.chatService.SendMessage(c.Context(), service.SendMessageInput{
		ConversationID: req.ConversationID,
		PostID:         req.PostID,
		PostKind:       models.PostKind(req.PostKind),
		SenderID:       userID,
		Text:           req.Text,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if msg == nil {
		// Post has no claimer yet; nothing was persisted or delivered.
		return c.JSON(fiber.Map{"delivered": false})
	}

	return c.Status(fiber.StatusCreated).JSON(msg)
}
