package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedHub_RegisterAndUnregister(t *testing.T) {
	hub := NewFeedHub()

	client, err := hub.Register(10, nil)
	require.NoError(t, err)
	assert.True(t, hub.IsOnline(10))

	hub.UnregisterClient(client)
	assert.False(t, hub.IsOnline(10))

	_ = hub.Shutdown(context.Background())
}

func TestFeedHub_PerUserConnectionLimit(t *testing.T) {
	hub := NewFeedHub()

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(10, nil)
		require.NoError(t, err)
	}

	_, err := hub.Register(10, nil)
	assert.Error(t, err)

	_ = hub.Shutdown(context.Background())
}

func TestFeedHub_BroadcastReachesOnlyTarget(t *testing.T) {
	hub := NewFeedHub()

	alice, err := hub.Register(10, nil)
	require.NoError(t, err)
	bob, err := hub.Register(20, nil)
	require.NoError(t, err)

	hub.Broadcast(10, "hello alice")

	select {
	case msg := <-alice.Send:
		assert.Equal(t, "hello alice", string(msg))
	default:
		t.Fatal("expected a message for alice")
	}
	select {
	case <-bob.Send:
		t.Fatal("bob should not receive alice's message")
	default:
	}

	_ = hub.Shutdown(context.Background())
}

func TestFeedHub_BroadcastAll(t *testing.T) {
	hub := NewFeedHub()

	alice, err := hub.Register(10, nil)
	require.NoError(t, err)
	bob, err := hub.Register(20, nil)
	require.NoError(t, err)

	hub.BroadcastAll(`{"type":"new_post"}`)

	for _, c := range []*Client{alice, bob} {
		select {
		case msg := <-c.Send:
			assert.JSONEq(t, `{"type":"new_post"}`, string(msg))
		default:
			t.Fatalf("user %d missed the feed broadcast", c.UserID)
		}
	}

	_ = hub.Shutdown(context.Background())
}

func TestChatHub_RoomMembership(t *testing.T) {
	hub := NewChatHub()

	owner, err := hub.Register(10, nil)
	require.NoError(t, err)
	claimer, err := hub.Register(20, nil)
	require.NoError(t, err)
	stranger, err := hub.Register(30, nil)
	require.NoError(t, err)

	hub.JoinRoom(7, owner)
	hub.JoinRoom(7, claimer)
	// Joining twice is idempotent.
	hub.JoinRoom(7, claimer)
	assert.Equal(t, 2, hub.RoomSize(7))

	hub.BroadcastToRoom(7, []byte("pickup at 6?"))

	for _, c := range []*Client{owner, claimer} {
		select {
		case msg := <-c.Send:
			assert.Equal(t, "pickup at 6?", string(msg))
		default:
			t.Fatalf("user %d missed the room message", c.UserID)
		}
	}
	select {
	case <-stranger.Send:
		t.Fatal("non-member should not receive room messages")
	default:
	}

	hub.LeaveRoom(7, claimer.UserID)
	assert.Equal(t, 1, hub.RoomSize(7))

	_ = hub.Shutdown(context.Background())
}

func TestChatHub_UnregisterCleansUpRooms(t *testing.T) {
	hub := NewChatHub()

	client, err := hub.Register(10, nil)
	require.NoError(t, err)
	hub.JoinRoom(7, client)
	require.Equal(t, 1, hub.RoomSize(7))

	hub.UnregisterClient(client)
	assert.Equal(t, 0, hub.RoomSize(7))
}
