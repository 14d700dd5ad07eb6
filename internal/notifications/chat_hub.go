package notifications

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/gofiber/websocket/v2"
)

// ChatHub manages WebSocket connections for per-post chat rooms.
// Unlike FeedHub (which is user-centric), ChatHub is conversation-centric.
type ChatHub struct {
	mu sync.RWMutex

	// Map: conversationID -> userID -> Client
	conversations map[uint]map[uint]*Client

	// Map: userID -> set of conversationIDs they're actively viewing
	userActiveConvs map[uint]map[uint]struct{}

	// Map: userID -> set of active Clients (multi-device support)
	userConns map[uint]map[*Client]bool
}

// Name returns a human-readable identifier for this hub.
func (h *ChatHub) Name() string { return "chat hub" }

// NewChatHub creates a new ChatHub instance
func NewChatHub() *ChatHub {
	return &ChatHub{
		conversations:   make(map[uint]map[uint]*Client),
		userActiveConvs: make(map[uint]map[uint]struct{}),
		userConns:       make(map[uint]map[*Client]bool),
	}
}

// Register registers a user's websocket connection. Returns Client or error if limits exceeded.
func (h *ChatHub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()

	if h.userConns[userID] == nil {
		h.userConns[userID] = make(map[*Client]bool)
	}

	if len(h.userConns[userID]) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, fmt.Errorf("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	h.userConns[userID][client] = true
	h.mu.Unlock()

	return client, nil
}

// UnregisterClient removes a user's websocket connection and cleans up all
// their room subscriptions.
func (h *ChatHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.userConns[client.UserID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.userConns, client.UserID)

			// Drop all room memberships held by this user.
			if convs, ok := h.userActiveConvs[client.UserID]; ok {
				for convID := range convs {
					if room, ok := h.conversations[convID]; ok {
						delete(room, client.UserID)
						if len(room) == 0 {
							delete(h.conversations, convID)
						}
					}
				}
				delete(h.userActiveConvs, client.UserID)
			}
		}
	}
}

// JoinRoom subscribes a user's client to a conversation's room. Idempotent.
func (h *ChatHub) JoinRoom(conversationID uint, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conversations[conversationID] == nil {
		h.conversations[conversationID] = make(map[uint]*Client)
	}
	h.conversations[conversationID][client.UserID] = client

	if h.userActiveConvs[client.UserID] == nil {
		h.userActiveConvs[client.UserID] = make(map[uint]struct{})
	}
	h.userActiveConvs[client.UserID][conversationID] = struct{}{}
}

// LeaveRoom unsubscribes a user from a conversation's room. Idempotent.
func (h *ChatHub) LeaveRoom(conversationID uint, userID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.conversations[conversationID]; ok {
		delete(room, userID)
		if len(room) == 0 {
			delete(h.conversations, conversationID)
		}
	}
	if convs, ok := h.userActiveConvs[userID]; ok {
		delete(convs, conversationID)
		if len(convs) == 0 {
			delete(h.userActiveConvs, userID)
		}
	}
}

// BroadcastToRoom sends a payload to every participant currently subscribed
// to the conversation's room. Participants who never joined the room simply
// miss the live update and catch up from history.
func (h *ChatHub) BroadcastToRoom(conversationID uint, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if room, ok := h.conversations[conversationID]; ok {
		for _, c := range room {
			c.TrySend(message)
		}
	}
}

// RoomSize returns the number of users subscribed to a conversation's room.
func (h *ChatHub) RoomSize(conversationID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conversations[conversationID])
}

// StartWiring connects the Notifier to this hub: chat payloads published on
// Redis are fanned out to the local room's subscribers.
func (h *ChatHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartChatSubscriber(ctx, func(channel, payload string) {
		if !strings.HasPrefix(channel, "chat:conv:") {
			log.Printf("invalid chat channel: %s", channel)
			return
		}
		var convID uint
		if _, err := fmt.Sscanf(channel, "chat:conv:%d", &convID); err != nil {
			log.Printf("invalid chat channel: %s", channel)
			return
		}
		h.BroadcastToRoom(convID, []byte(payload))
	})
}

// Shutdown closes every chat connection.
func (h *ChatHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.userConns {
		for client := range clients {
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.Close(); err != nil {
				log.Printf("failed to close chat websocket for user %d: %v", userID, err)
			}
		}
	}
	h.conversations = make(map[uint]map[uint]*Client)
	h.userActiveConvs = make(map[uint]map[uint]struct{})
	h.userConns = make(map[uint]map[*Client]bool)
	return nil
}
