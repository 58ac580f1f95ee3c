package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value      string
	expireAt   time.Time
	lastAccess time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return now.After(e.expireAt)
}

// MemoryCache is an in-process Service with TTL expiry and LRU eviction
// once maxEntries is reached. A background sweeper reclaims expired keys.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]*memoryEntry
	maxEntries int
	sweeper    *time.Ticker
	done       chan struct{}
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxEntries:    1000,
		SweepInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		entries:    make(map[string]*memoryEntry),
		maxEntries: cfg.MaxEntries,
		sweeper:    time.NewTicker(cfg.SweepInterval),
		done:       make(chan struct{}),
	}
	go mc.sweep()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	now := time.Now()

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, ok := mc.entries[key]; !ok && len(mc.entries) >= mc.maxEntries {
		mc.evictOldest()
	}
	mc.entries[key] = &memoryEntry{value: value, expireAt: now.Add(ttl), lastAccess: now}
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string) (string, error) {
	now := time.Now()

	mc.mu.Lock()
	defer mc.mu.Unlock()

	e, ok := mc.entries[key]
	if !ok {
		return "", ErrCacheMiss
	}
	if e.expired(now) {
		delete(mc.entries, key)
		return "", ErrCacheMiss
	}
	e.lastAccess = now
	return e.value, nil
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, key := range keys {
		delete(mc.entries, key)
	}
	return nil
}

// evictOldest drops the least recently accessed entry. Caller holds mu.
func (mc *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	for key, e := range mc.entries {
		if oldestKey == "" || e.lastAccess.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.lastAccess
		}
	}
	if oldestKey != "" {
		delete(mc.entries, oldestKey)
	}
}

func (mc *MemoryCache) sweep() {
	for {
		select {
		case <-mc.done:
			return
		case <-mc.sweeper.C:
			now := time.Now()
			mc.mu.Lock()
			for key, e := range mc.entries {
				if e.expired(now) {
					delete(mc.entries, key)
				}
			}
			mc.mu.Unlock()
		}
	}
}

// Close stops the background sweeper.
func (mc *MemoryCache) Close() error {
	mc.sweeper.Stop()
	close(mc.done)
	return nil
}
