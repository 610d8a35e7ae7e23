// Package service implements the duplicate check and marker refresh logic
// on top of the shared cache.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/beacon-telemetry/beacon/internal/observability"
)

// Cache mirrors the top-level dedup.Cache interface to avoid import cycles.
type Cache interface {
	AddIfAbsent(ctx context.Context, key string, value bool, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key string, value bool, ttl time.Duration) error
}

// DedupService implements the two-TTL duplicate suppression scheme.
//
// The pre-processing check claims the key with a short TTL via an atomic
// add-if-absent, which closes the check-then-set race between concurrent
// submissions. The post-processing refresh rewrites the key with a long TTL
// and is what actually enforces the long-lived dedup window; the short TTL
// only needs to survive the interval between first sighting and the refresh.
//
// Known limitation: if two submissions with the same reference identifier
// race exactly between one pass's short-TTL expiry and its refresh, both may
// observe "absent" and both proceed. This narrow window is accepted; closing
// it would require a per-key lock held across the whole pass.
type DedupService struct {
	cache     Cache
	namespace string
	shortTTL  time.Duration
	longTTL   time.Duration
	metrics   *observability.Metrics
	logger    *slog.Logger

	// retryBackoff is the wait before the single refresh retry.
	retryBackoff time.Duration
}

// NewDedupService creates a dedup service over the given cache. The metrics
// parameter is optional (pass nil to disable instrumentation).
func NewDedupService(
	cache Cache,
	namespace string,
	shortTTL, longTTL time.Duration,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *DedupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DedupService{
		cache:        cache,
		namespace:    namespace,
		shortTTL:     shortTTL,
		longTTL:      longTTL,
		metrics:      metrics,
		logger:       logger.With("component", "dedup-service"),
		retryBackoff: 100 * time.Millisecond,
	}
}

// Key composes the cache key for a (project, reference identifier) pair.
// The project identifier scopes the keyspace so two projects may reuse the
// same reference identifier without collision.
func (s *DedupService) Key(projectID, referenceID string) string {
	return fmt.Sprintf("%s:%s:%s", s.namespace, projectID, referenceID)
}

// CheckDuplicate reports whether the (project, reference identifier) pair
// was already seen within the dedup window, claiming the key with the short
// TTL if it was not. An empty reference identifier never counts as a
// duplicate and causes no cache call. A cache failure is returned to the
// caller; the check deliberately fails neither open nor closed on its own.
func (s *DedupService) CheckDuplicate(ctx context.Context, projectID, referenceID string) (bool, error) {
	if referenceID == "" {
		return false, nil
	}

	key := s.Key(projectID, referenceID)
	added, err := s.cache.AddIfAbsent(ctx, key, true, s.shortTTL)
	if err != nil {
		if s.metrics != nil {
			s.metrics.DedupCacheErrors.Add(ctx, 1)
		}
		return false, fmt.Errorf("duplicate check failed for key %s: %w", key, err)
	}

	if !added {
		s.logger.Debug("duplicate event detected",
			"project_id", projectID,
			"reference_id", referenceID,
		)
		return true, nil
	}

	return false, nil
}

// RefreshMarker unconditionally rewrites the dedup marker with the long TTL,
// extending the window so a client resending the same event hours later is
// still recognized as a repeat. Failures are retried once after a short
// backoff, then logged and swallowed: a missed refresh only shortens the
// dedup window, it does not corrupt state.
func (s *DedupService) RefreshMarker(ctx context.Context, projectID, referenceID string) {
	if referenceID == "" {
		return
	}

	key := s.Key(projectID, referenceID)
	err := s.cache.Set(ctx, key, true, s.longTTL)
	if err != nil {
		select {
		case <-time.After(s.retryBackoff):
			err = s.cache.Set(ctx, key, true, s.longTTL)
		case <-ctx.Done():
			err = ctx.Err()
		}
	}

	if err != nil {
		if s.metrics != nil {
			s.metrics.DedupCacheErrors.Add(ctx, 1)
		}
		s.logger.Warn("failed to refresh dedup marker, window shortened",
			"project_id", projectID,
			"reference_id", referenceID,
			"error", err,
		)
	}
}

// ShortTTL returns the race-prevention expiration used by CheckDuplicate.
func (s *DedupService) ShortTTL() time.Duration {
	return s.shortTTL
}

// LongTTL returns the dedup-window expiration used by RefreshMarker.
func (s *DedupService) LongTTL() time.Duration {
	return s.longTTL
}
