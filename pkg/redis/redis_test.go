package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamintsai23/second-high-auto-strategy/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{Redis: config.RedisConfig{Enabled: false}}

	client, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}

func TestCache_DisabledMiss(t *testing.T) {
	cache := NewCache(Disabled(), "test")

	var result string
	found, err := cache.Get(context.Background(), "key", &result)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Set(context.Background(), "key", "v", time.Minute))
	assert.NoError(t, cache.Delete(context.Background(), "key"))
}

func TestCache_GetOrSetDisabledCallsLoader(t *testing.T) {
	cache := NewCache(Disabled(), "test")

	type payload struct {
		Symbols []string `json:"symbols"`
	}

	calls := 0
	var got payload
	err := cache.GetOrSet(context.Background(), "k", &got, TTLDaily, func() (interface{}, error) {
		calls++
		return payload{Symbols: []string{"2330", "2317"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"2330", "2317"}, got.Symbols)
}

func TestCache_GetOrSetPropagatesLoaderError(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	boom := errors.New("boom")

	var got string
	err := cache.GetOrSet(context.Background(), "k", &got, TTLDaily, func() (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRateLimiter_LocalFallback(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")
	cfg := RateLimitConfig{Key: "burst", Limit: 2, Window: time.Hour}

	allowed, _, err := limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, remaining, err := limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
}

func TestRateLimiter_WaitHonoursContext(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")
	cfg := RateLimitConfig{Key: "slow", Limit: 1, Window: time.Hour}

	require.NoError(t, limiter.Wait(context.Background(), cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, limiter.Wait(ctx, cfg))
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "panels:2024-06-14", PanelSnapshotKey("2024-06-14"))
}

func TestPredefinedLimits(t *testing.T) {
	for _, cfg := range []RateLimitConfig{TWSERateLimit, MOPSRateLimit, TelegramRateLimit} {
		assert.NotEmpty(t, cfg.Key)
		assert.Positive(t, cfg.Limit)
		assert.Positive(t, cfg.Window)
	}
}
