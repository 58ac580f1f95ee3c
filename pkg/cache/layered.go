package cache

import (
	"context"
	"time"
)

// LayeredCache is a two-level Service: an in-process L1 in front of Redis.
// L1 hits avoid the network; L1 misses are promoted from Redis on read.
type LayeredCache struct {
	mem   *MemoryCache
	redis *RedisCache
	// promoted entries live at most this long in L1 so TTLs set by other
	// instances are not overshot by much
	promoteTTL time.Duration
}

// NewLayeredCache creates a layered cache backed by the given Redis cache.
func NewLayeredCache(redisCache *RedisCache, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{
		MemoryMaxEntries: 1000,
		PromoteTTL:       10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &LayeredCache{
		mem:        NewMemoryCache(WithMemoryMaxEntries(cfg.MemoryMaxEntries)),
		redis:      redisCache,
		promoteTTL: cfg.PromoteTTL,
	}
}

// Set writes through: Redis first, then memory.
func (lc *LayeredCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := lc.redis.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	memTTL := ttl
	if memTTL > lc.promoteTTL {
		memTTL = lc.promoteTTL
	}
	_ = lc.mem.Set(ctx, key, value, memTTL)
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string) (string, error) {
	if val, err := lc.mem.Get(ctx, key); err == nil {
		return val, nil
	}
	val, err := lc.redis.Get(ctx, key)
	if err != nil {
		return "", err
	}
	_ = lc.mem.Set(ctx, key, val, lc.promoteTTL)
	return val, nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.mem.Delete(ctx, keys...)
	return lc.redis.Delete(ctx, keys...)
}

// Close closes both layers.
func (lc *LayeredCache) Close() error {
	_ = lc.mem.Close()
	return lc.redis.Close()
}
