// Package dedup provides server-side duplicate suppression for the ingestion
// pipeline. A cache-backed pipeline plugin prevents the same client-supplied
// reference identifier from being accepted more than once per project within
// a bounded time window, correct under concurrent submission across all
// processes sharing the backing cache. A bloom-filter based seen-filter is
// additionally available for consumer-side batch filtering.
package dedup

import (
	"context"
	"time"
)

// Cache is the async key/value store the duplicate checker runs against.
// The keyspace is shared across all pipeline instances and processes using
// the same backing store; implementations must be safe for concurrent use.
type Cache interface {
	// AddIfAbsent atomically sets key to value with the given expiration,
	// succeeding only if no entry currently exists for that key. It
	// returns true if the value was newly set, false if the key was
	// already present.
	AddIfAbsent(ctx context.Context, key string, value bool, ttl time.Duration) (bool, error)

	// Set unconditionally writes key to value with the given expiration.
	Set(ctx context.Context, key string, value bool, ttl time.Duration) error
}
