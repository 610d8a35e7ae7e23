package dedup

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is an in-process Cache implementation with per-key TTLs.
// It serves single-node deployments and tests; distributed deployments
// need the redis-backed cache so all pipeline instances share one keyspace.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     bool
	expiresAt time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// AddIfAbsent sets key only if it is absent or its entry has expired.
func (c *MemoryCache) AddIfAbsent(_ context.Context, key string, value bool, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.entries[key]; ok && e.expiresAt.After(now) {
		return false, nil
	}

	c.entries[key] = memoryEntry{value: value, expiresAt: now.Add(ttl)}
	return true, nil
}

// Set unconditionally writes key with the given TTL.
func (c *MemoryCache) Set(_ context.Context, key string, value bool, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{value: value, expiresAt: c.now().Add(ttl)}
	return nil
}

var _ Cache = (*MemoryCache)(nil)
