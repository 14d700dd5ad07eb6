package notifications

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const feedChannel = "feed:broadcast"

// Notifier provides helpers to publish realtime payloads into Redis channels
// so every instance's hubs see them.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// HasRedis reports whether a Redis backend is wired in. Without one,
// publishes are no-ops and callers should fall back to local hub delivery.
func (n *Notifier) HasRedis() bool {
	return n != nil && n.rdb != nil
}

// PublishFeed sends a payload to the global post-feed channel.
func (n *Notifier) PublishFeed(ctx context.Context, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, feedChannel, payload).Err()
}

// PublishUser sends a payload to a user's private channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishChatMessage publishes a chat payload to a conversation channel.
func (n *Notifier) PublishChatMessage(ctx context.Context, conversationID uint, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, ConversationChannel(conversationID), payload).Err()
}

// StartFeedSubscriber subscribes to the feed channel and the per-user
// pattern, calling onMessage for each incoming message.
func (n *Notifier) StartFeedSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	return n.startSubscriber(ctx, "feed subscriber", onMessage, "notifications:user:*", feedChannel)
}

// StartChatSubscriber subscribes to the conversation pattern.
func (n *Notifier) StartChatSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	return n.startSubscriber(ctx, "chat subscriber", onMessage, "chat:conv:*")
}

func (n *Notifier) startSubscriber(
	ctx context.Context, name string, onMessage func(channel, payload string), patterns ...string,
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, patterns...)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return "notifications:user:" + strconv.FormatUint(uint64(userID), 10)
}

// ConversationChannel derives the Redis channel name for a conversation.
func ConversationChannel(conversationID uint) string {
	return fmt.Sprintf("chat:conv:%d", conversationID)
}
