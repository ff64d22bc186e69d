package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "journey:j1", []byte("snapshot"), time.Minute))
	got, ok, err := c.Get(ctx, "journey:j1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "snapshot", string(got))

	got[0] = 'X'
	again, _, _ := c.Get(ctx, "journey:j1")
	assert.Equal(t, "snapshot", string(again))

	now = now.Add(2 * time.Minute)
	_, ok, err = c.Get(ctx, "journey:j1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Hour))
	require.NoError(t, c.Delete(ctx, "k"))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Close())
}

func TestRedisCacheRequiresAddress(t *testing.T) {
	_, err := NewRedisCache(context.Background(), RedisOptions{})
	assert.Error(t, err)
}
