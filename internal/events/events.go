// Package events defines the realtime event surface the lifecycle components
// publish to, decoupled from the websocket/pub-sub machinery behind it.
package events

import "context"

// Event type constants prevent typos in event names.
const (
	TypeNewPost       = "new_post"
	TypePostUpdate    = "post_update"
	TypePostDelete    = "post_delete"
	TypeNewMessage    = "new_message"
	TypeRatingUpdated = "rating_updated"
)

// Publisher is the capability handed to services and handlers for emitting
// realtime events. Implementations fan out to local websocket hubs and to
// Redis pub/sub for other instances; all methods are best-effort and must
// never fail a request.
type Publisher interface {
	// PublishFeed broadcasts an event to every subscriber of the global post feed.
	PublishFeed(ctx context.Context, eventType string, payload any)
	// PublishUser delivers an event to a single user's private channel.
	PublishUser(ctx context.Context, userID uint, eventType string, payload any)
	// PublishChat delivers an event to the chat room of one post.
	PublishChat(ctx context.Context, conversationID uint, eventType string, payload any)
}

// PostClaimed is the domain event raised when a claim transition commits.
// The chat coordinator consumes it to bootstrap the conversation without
// reaching into Post fields.
type PostClaimed struct {
	PostID    uint
	PostKind  string
	OwnerID   uint
	ClaimerID uint
}

// NopPublisher discards all events. Useful in tests and in tools that run
// lifecycle code without a realtime layer.
type NopPublisher struct{}

func (NopPublisher) PublishFeed(context.Context, string, any)       {}
func (NopPublisher) PublishUser(context.Context, uint, string, any) {}
func (NopPublisher) PublishChat(context.Context, uint, string, any) {}
