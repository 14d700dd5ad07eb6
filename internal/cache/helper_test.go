package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedPost struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func withTestRedis(t *testing.T) {
	t.Helper()
	mr := miniredis.RunT(t)
	prev := client
	client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client = prev })
}

func TestAside_MissFetchesAndStores(t *testing.T) {
	withTestRedis(t)
	ctx := context.Background()

	fetched := 0
	var got cachedPost
	err := Aside(ctx, PostKey(1), &got, time.Minute, func() error {
		fetched++
		got = cachedPost{ID: 1, Title: "Sourdough loaf"}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, fetched)

	// Second read served from cache; fetch must not run again.
	var again cachedPost
	err = Aside(ctx, PostKey(1), &again, time.Minute, func() error {
		fetched++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, fetched)
	assert.Equal(t, got, again)
}

func TestAside_NoClientAlwaysFetches(t *testing.T) {
	prev := client
	client = nil
	t.Cleanup(func() { client = prev })

	fetched := 0
	var got cachedPost
	for i := 0; i < 2; i++ {
		err := Aside(context.Background(), PostKey(2), &got, time.Minute, func() error {
			fetched++
			return nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, fetched)
}

func TestInvalidatePost_RemovesKey(t *testing.T) {
	withTestRedis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, PostKey(3), cachedPost{ID: 3}, time.Minute))
	Invalidate(ctx, PostKey(3))

	var got cachedPost
	found, err := GetJSON(ctx, PostKey(3), &got)
	require.NoError(t, err)
	assert.False(t, found)
}
