package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_billing/internal/cart"
	"github.com/fjod/go_billing/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCache(client), mr
}

func testSnapshot(id string) cart.Snapshot {
	s := cart.New(id)
	s.SetCustomer("Asha", "9845000000")
	snap, _ := s.AddLine(domain.Product{
		ID:       3,
		Name:     "Designer T-Shirt",
		Price:    decimal.NewFromInt(599),
		Discount: decimal.NewFromInt(5),
		Stock:    30,
	}, 2)
	return snap
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testSnapshot("s1")))
	assert.True(t, mr.Exists(cacheKey("s1")))

	ttl := mr.TTL(cacheKey("s1"))
	assert.GreaterOrEqual(t, ttl, 10*time.Minute)
	assert.Less(t, ttl, 15*time.Minute)

	got, err := c.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.CustomerName)
	require.Len(t, got.Lines, 1)
	assert.True(t, got.Lines[0].UnitPrice.Equal(decimal.NewFromInt(599)))
	assert.Equal(t, 2, got.Lines[0].Quantity)
}

func TestRedisCache_Miss(t *testing.T) {
	c, _ := setupTestRedis(t)

	_, err := c.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_InvalidJSON(t *testing.T) {
	c, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(cacheKey("bad"), "{not json"))

	_, err := c.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_Delete(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testSnapshot("s1")))
	require.NoError(t, c.Delete(ctx, "s1"))
	assert.False(t, mr.Exists(cacheKey("s1")))
}

func TestRedisCache_ExpiresAfterTTL(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testSnapshot("s1")))
	mr.FastForward(20 * time.Minute)

	_, err := c.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_ServerDown(t *testing.T) {
	c, mr := setupTestRedis(t)
	mr.Close()

	_, err := c.Get(context.Background(), "s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
