package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"house-price-api/config"
)

func newMiniredisCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheServiceFromClient(client), mr
}

func TestCacheRoundTrip(t *testing.T) {
	cache, mr := newMiniredisCache(t)
	ctx := context.Background()

	type payload struct {
		Name  string  `json:"name"`
		Score float64 `json:"score"`
	}

	var got payload
	found, err := cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, "k", payload{"grade", 0.15}, time.Minute))
	found, err = cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{"grade", 0.15}, got)

	mr.FastForward(2 * time.Minute)
	found, err = cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, "d", 1, 0))
	require.NoError(t, cache.Delete(ctx, "d"))
	assert.False(t, mr.Exists("d"))
}

func TestCachePublishSubscribe(t *testing.T) {
	cache, _ := newMiniredisCache(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := cache.Subscribe(ctx, PredictionChannel(7))
	require.NotNil(t, sub)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, cache.Publish(ctx, PredictionChannel(7), map[string]any{"prediction_id": 1}))

	select {
	case msg := <-sub.Channel():
		assert.JSONEq(t, `{"prediction_id":1}`, msg.Payload)
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}

func TestCacheDisabled(t *testing.T) {
	cache, err := NewCacheService(context.Background(), config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, cache.Available())

	ctx := context.Background()
	var v int
	found, err := cache.Get(ctx, "x", &v)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Set(ctx, "x", 1, time.Second))
	assert.NoError(t, cache.Publish(ctx, "c", 1))
	assert.Nil(t, cache.Subscribe(ctx, "c"))
	assert.NoError(t, cache.Ping(ctx))
	assert.NoError(t, cache.Close())

	var nilCache *CacheService
	assert.False(t, nilCache.Available())
}

func TestPredictionChannel(t *testing.T) {
	assert.Equal(t, "houseprice:predictions:12", PredictionChannel(12))
}
