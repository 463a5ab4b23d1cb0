package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	c := &Client{prefix: "dormbot"}
	assert.Equal(t, "dormbot:prompts", c.Key("prompts"))
	assert.Equal(t, "dormbot:a:b", c.Key("a", "b"))

	var nilClient *Client
	assert.Equal(t, "prompts", nilClient.Key("prompts"))
}

func TestNilClientErrors(t *testing.T) {
	var c *Client
	ctx := context.Background()
	assert.Error(t, c.Set(ctx, "k", "v", time.Second))
	_, err := c.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, c.Del(ctx, "k"))
	assert.NoError(t, c.Close())
	assert.Nil(t, c.Raw())
}

func TestSetGetDel(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis-backed tests")
	}
	c, err := Dial(&redis.Options{Addr: addr}, "dormbot-test:")
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	key := c.Key("roundtrip")
	assert.Equal(t, "dormbot-test:roundtrip", key)

	require.NoError(t, c.Set(ctx, key, "value", time.Minute))
	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	ttl, err := c.TTL(ctx, key)
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.Del(ctx, key))
	_, err = c.Get(ctx, key)
	assert.True(t, errors.Is(err, ErrCacheMiss))
}
