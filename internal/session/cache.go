package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_billing/internal/cart"
	"github.com/redis/go-redis/v9"
)

type Cache interface {
	Get(ctx context.Context, id string) (cart.Snapshot, error)
	Set(ctx context.Context, snap cart.Snapshot) error
	Delete(ctx context.Context, id string) error
}

var ErrCacheMiss = errors.New("cache miss")

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 10 * time.Minute,
	}
}

func (r *RedisCache) Get(ctx context.Context, id string) (cart.Snapshot, error) {
	data, err := r.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.Snapshot{}, ErrCacheMiss
	}
	if err != nil {
		return cart.Snapshot{}, fmt.Errorf("redis get failed: %w", err)
	}

	var snap cart.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return cart.Snapshot{}, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return snap, nil
}

// Set stores the snapshot with a jittered TTL so entries written together do
// not expire together.
func (r *RedisCache) Set(ctx context.Context, snap cart.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	if err := r.client.Set(ctx, cacheKey(snap.ID), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(id string) string {
	return fmt.Sprintf("billing-session:%s", id)
}

// noopCache is used when redis is not configured.
type noopCache struct{}

func (noopCache) Get(context.Context, string) (cart.Snapshot, error) {
	return cart.Snapshot{}, ErrCacheMiss
}
func (noopCache) Set(context.Context, cart.Snapshot) error { return nil }
func (noopCache) Delete(context.Context, string) error     { return nil }
