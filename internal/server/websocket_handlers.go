package server

import (
	"context"
	"encoding/json"
	"log"

	"mealbridge/internal/models"
	"mealbridge/internal/notifications"
	"mealbridge/internal/observability"
	"mealbridge/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler handles WebSocket connections for the live post feed
// and per-user notifications (claims, completions, rating updates).
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		observability.ActiveWebSockets.Inc()
		defer observability.ActiveWebSockets.Dec()

		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			if cerr := conn.Close(); cerr != nil {
				log.Printf("websocket close error: %v", cerr)
			}
			return
		}
		uid, ok := userIDVal.(uint)
		if !ok {
			if cerr := conn.Close(); cerr != nil {
				log.Printf("websocket close error: %v", cerr)
			}
			return
		}

		if s.feedHub == nil {
			_ = conn.Close()
			return
		}

		// Register connection with scaling guardrails
		client, err := s.feedHub.Register(uid, conn)
		if err != nil {
			log.Printf("WebSocket Feed: Failed to register user %d: %v", uid, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

// WebSocketChatHandler handles WebSocket connections for real-time chat.
//
// Clients join the room of a conversation they participate in, then receive
// new_message events for it. Messages can also be sent over the socket as an
// alternative to the HTTP endpoint.
func (s *Server) WebSocketChatHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		observability.ActiveWebSockets.Inc()
		defer observability.ActiveWebSockets.Dec()

		ctx := context.Background()

		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		uid, ok := userIDVal.(uint)
		if !ok {
			_ = conn.Close()
			return
		}

		if s.chatHub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.chatHub.Register(uid, conn)
		if err != nil {
			log.Printf("WebSocket Chat: Failed to register user %d: %v", uid, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			s.handleChatSocketMessage(ctx, uid, c, message)
		}

		s.sendChatEvent(client, "connected", fiber.Map{"user_id": uid})

		go client.WritePump()
		client.ReadPump()
	})
}

// chatSocketMessage is the client→server frame for the chat socket.
// sendMessage addresses either an existing conversation (conversation_id)
// or a post directly (room_id is the post ID, post_kind its kind), in which
// case the conversation is resolved or created server-side.
type chatSocketMessage struct {
	Type           string          `json:"type"`
	ConversationID uint            `json:"conversation_id"`
	RoomID         uint            `json:"room_id"`
	PostKind       models.PostKind `json:"post_kind"`
	Text           string          `json:"text"`
}

func (s *Server) handleChatSocketMessage(ctx context.Context, uid uint, c *notifications.Client, message []byte) {
	var incoming chatSocketMessage
	if err := json.Unmarshal(message, &incoming); err != nil {
		log.Printf("WebSocket Chat: Invalid message format from user %d", uid)
		return
	}

	switch incoming.Type {
	case "joinChatRoom":
		if incoming.ConversationID == 0 {
			return
		}
		// Verify participation before joining the room
		isParticipant, perr := s.chatRepo.IsParticipant(ctx, incoming.ConversationID, uid)
		if perr != nil || !isParticipant {
			s.sendChatError(c, "Not a participant of this conversation")
			return
		}
		s.chatHub.JoinRoom(incoming.ConversationID, c)
		s.sendChatEvent(c, "joined", fiber.Map{"conversation_id": incoming.ConversationID})

	case "leaveChatRoom":
		if incoming.ConversationID == 0 {
			return
		}
		s.chatHub.LeaveRoom(incoming.ConversationID, uid)

	case "sendMessage":
		msg, serr := s.chatService.SendMessage(ctx, service.SendMessageInput{
			ConversationID: incoming.ConversationID,
			PostID:         incoming.RoomID,
			PostKind:       incoming.PostKind,
			SenderID:       uid,
			Text:           incoming.Text,
		})
		if serr != nil {
			// Report failures to the originating socket only
			s.sendChatError(c, serr.Error())
			return
		}
		if msg == nil {
			s.sendChatEvent(c, "dropped", fiber.Map{"room_id": incoming.RoomID})
		}
	}
}

func (s *Server) sendChatEvent(c *notifications.Client, eventType string, payload any) {
	env := notifications.Envelope{Type: eventType, Payload: payload}
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	c.TrySend(data)
}

func (s *Server) sendChatError(c *notifications.Client, message string) {
	s.sendChatEvent(c, "error", fiber.Map{"message": message})
}
