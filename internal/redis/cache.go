package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/beacon-telemetry/beacon/internal/dedup"
)

// MarkerCache implements the dedup cache contract on Redis. SETNX provides
// the atomic add-if-absent primitive; because the keyspace lives in Redis,
// every pipeline instance and process sharing this server observes the same
// dedup decisions.
type MarkerCache struct {
	client *Client
}

// NewMarkerCache creates a marker cache over an established client.
func NewMarkerCache(client *Client) *MarkerCache {
	return &MarkerCache{client: client}
}

// AddIfAbsent atomically sets key with the given expiration only if it does
// not already exist, returning whether the set occurred.
func (c *MarkerCache) AddIfAbsent(ctx context.Context, key string, value bool, ttl time.Duration) (bool, error) {
	added, err := c.client.rdb.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", key, err)
	}
	return added, nil
}

// Set unconditionally writes key with the given expiration.
func (c *MarkerCache) Set(ctx context.Context, key string, value bool, ttl time.Duration) error {
	if err := c.client.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

var _ dedup.Cache = (*MarkerCache)(nil)
