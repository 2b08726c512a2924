package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/optionpricing/pkg/config"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := New(context.Background(), config.RedisConfig{
		Host:        mr.Host(),
		Port:        atoi(t, mr.Port()),
		MaxPoolSize: 2,
		ConnTimeout: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

func atoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}

func TestJSONRoundTrip(t *testing.T) {
	rc, mr := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Price float64 `json:"price"`
	}
	var got payload
	assert.ErrorIs(t, rc.GetJSON(ctx, "k", &got), ErrCacheMiss)

	require.NoError(t, rc.SetJSON(ctx, "k", payload{Price: 6.08}, time.Minute))
	require.NoError(t, rc.GetJSON(ctx, "k", &got))
	assert.Equal(t, 6.08, got.Price)
	assert.Equal(t, time.Minute, mr.TTL("k"))

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, rc.GetJSON(ctx, "k", &got), ErrCacheMiss)
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := mr.Host(), atoi(t, mr.Port())
	mr.Close()

	_, err := New(context.Background(), config.RedisConfig{Host: host, Port: port, ConnTimeout: 1})
	assert.Error(t, err)
}
