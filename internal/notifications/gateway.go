package notifications

import (
	"context"
	"encoding/json"
	"log"

	"mealbridge/internal/events"
	"mealbridge/internal/observability"
)

// Envelope is the wire format for every outbound realtime event.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Gateway implements events.Publisher over the hubs and the Redis notifier.
// With Redis wired in, events travel through pub/sub so every instance's
// hubs deliver them; without it, delivery is local-only.
type Gateway struct {
	feedHub  *FeedHub
	chatHub  *ChatHub
	notifier *Notifier
}

// NewGateway wires the publisher surface over the given hubs and notifier.
func NewGateway(feedHub *FeedHub, chatHub *ChatHub, notifier *Notifier) *Gateway {
	return &Gateway{feedHub: feedHub, chatHub: chatHub, notifier: notifier}
}

var _ events.Publisher = (*Gateway)(nil)

// Start wires the Redis subscribers into the hubs. Safe to call without
// Redis; the subscribers are then no-ops.
func (g *Gateway) Start(ctx context.Context) error {
	if err := g.feedHub.StartWiring(ctx, g.notifier); err != nil {
		return err
	}
	return g.chatHub.StartWiring(ctx, g.notifier)
}

func (g *Gateway) PublishFeed(ctx context.Context, eventType string, payload any) {
	data, ok := g.envelope(eventType, payload)
	if !ok {
		return
	}
	observability.WebSocketEventsTotal.WithLabelValues(eventType).Inc()
	if g.notifier.HasRedis() {
		if err := g.notifier.PublishFeed(ctx, string(data)); err == nil {
			return
		}
	}
	g.feedHub.BroadcastAll(string(data))
}

func (g *Gateway) PublishUser(ctx context.Context, userID uint, eventType string, payload any) {
	data, ok := g.envelope(eventType, payload)
	if !ok {
		return
	}
	observability.WebSocketEventsTotal.WithLabelValues(eventType).Inc()
	if g.notifier.HasRedis() {
		if err := g.notifier.PublishUser(ctx, userID, string(data)); err == nil {
			return
		}
	}
	g.feedHub.Broadcast(userID, string(data))
}

func (g *Gateway) PublishChat(ctx context.Context, conversationID uint, eventType string, payload any) {
	data, ok := g.envelope(eventType, payload)
	if !ok {
		return
	}
	observability.WebSocketEventsTotal.WithLabelValues(eventType).Inc()
	if g.notifier.HasRedis() {
		if err := g.notifier.PublishChatMessage(ctx, conversationID, string(data)); err == nil {
			return
		}
	}
	g.chatHub.BroadcastToRoom(conversationID, data)
}

func (g *Gateway) envelope(eventType string, payload any) ([]byte, bool) {
	data, err := json.Marshal(Envelope{Type: eventType, Payload: payload})
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return nil, false
	}
	return data, true
}
