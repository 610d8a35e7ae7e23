// Package service tests the duplicate check and marker refresh logic.
package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/beacon-telemetry/beacon/internal/observability"
)

// mockCache records calls and can fail on demand.
type mockCache struct {
	addCalls   int
	setCalls   int
	addErr     error
	setErr     error
	setErrOnce bool
	present    map[string]bool
	lastTTL    time.Duration
}

func newMockCache() *mockCache {
	return &mockCache{present: make(map[string]bool)}
}

func (c *mockCache) AddIfAbsent(_ context.Context, key string, value bool, ttl time.Duration) (bool, error) {
	c.addCalls++
	c.lastTTL = ttl
	if c.addErr != nil {
		return false, c.addErr
	}
	if c.present[key] {
		return false, nil
	}
	c.present[key] = value
	return true, nil
}

func (c *mockCache) Set(_ context.Context, key string, value bool, ttl time.Duration) error {
	c.setCalls++
	c.lastTTL = ttl
	if c.setErr != nil {
		err := c.setErr
		if c.setErrOnce {
			c.setErr = nil
		}
		return err
	}
	c.present[key] = value
	return nil
}

func newTestService(cache Cache) *DedupService {
	svc := NewDedupService(cache, "beacon:dedup", time.Minute, 24*time.Hour, nil, nil)
	svc.retryBackoff = time.Millisecond
	return svc
}

func TestDedupService_Key(t *testing.T) {
	svc := newTestService(newMockCache())

	got := svc.Key("p1", "r1")
	want := "beacon:dedup:p1:r1"
	if got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}

	// Different projects must not collide on the same reference ID.
	if svc.Key("p1", "r1") == svc.Key("p2", "r1") {
		t.Error("keys for different projects should differ")
	}
}

func TestDedupService_EmptyReferenceNeverCallsCache(t *testing.T) {
	cache := newMockCache()
	svc := newTestService(cache)

	dup, err := svc.CheckDuplicate(context.Background(), "p1", "")
	if err != nil {
		t.Fatalf("CheckDuplicate() error = %v", err)
	}
	if dup {
		t.Error("empty reference ID must never be a duplicate")
	}

	svc.RefreshMarker(context.Background(), "p1", "")

	if cache.addCalls != 0 || cache.setCalls != 0 {
		t.Errorf("cache calls = %d adds, %d sets; want none", cache.addCalls, cache.setCalls)
	}
}

func TestDedupService_FirstSightingThenDuplicate(t *testing.T) {
	cache := newMockCache()
	svc := newTestService(cache)

	dup, err := svc.CheckDuplicate(context.Background(), "p1", "r1")
	if err != nil {
		t.Fatalf("first CheckDuplicate() error = %v", err)
	}
	if dup {
		t.Error("first sighting should not be a duplicate")
	}
	if cache.lastTTL != time.Minute {
		t.Errorf("first sighting TTL = %v, want short TTL %v", cache.lastTTL, time.Minute)
	}

	dup, err = svc.CheckDuplicate(context.Background(), "p1", "r1")
	if err != nil {
		t.Fatalf("second CheckDuplicate() error = %v", err)
	}
	if !dup {
		t.Error("second sighting should be a duplicate")
	}
}

func TestDedupService_CacheFailureSurfaces(t *testing.T) {
	cache := newMockCache()
	cache.addErr = errors.New("connection refused")
	svc := newTestService(cache)

	_, err := svc.CheckDuplicate(context.Background(), "p1", "r1")
	if err == nil {
		t.Fatal("CheckDuplicate() error = nil, want cache failure")
	}
	if !errors.Is(err, cache.addErr) {
		t.Errorf("error %v should wrap %v", err, cache.addErr)
	}
}

func TestDedupService_RefreshUsesLongTTL(t *testing.T) {
	cache := newMockCache()
	svc := newTestService(cache)

	svc.RefreshMarker(context.Background(), "p1", "r1")

	if cache.setCalls != 1 {
		t.Fatalf("set calls = %d, want 1", cache.setCalls)
	}
	if cache.lastTTL != 24*time.Hour {
		t.Errorf("refresh TTL = %v, want long TTL %v", cache.lastTTL, 24*time.Hour)
	}
}

func TestDedupService_RefreshRetriesOnceThenSwallows(t *testing.T) {
	cache := newMockCache()
	cache.setErr = errors.New("connection refused")
	cache.setErrOnce = true
	svc := newTestService(cache)

	// First attempt fails, the single retry succeeds.
	svc.RefreshMarker(context.Background(), "p1", "r1")
	if cache.setCalls != 2 {
		t.Errorf("set calls = %d, want 2 (original + retry)", cache.setCalls)
	}

	// Persistent failure: retried once, then swallowed without panic.
	cache2 := newMockCache()
	cache2.setErr = errors.New("connection refused")
	svc2 := newTestService(cache2)
	svc2.RefreshMarker(context.Background(), "p1", "r1")
	if cache2.setCalls != 2 {
		t.Errorf("set calls = %d, want 2 for persistent failure", cache2.setCalls)
	}
}

// mockMetricCounter implements a simple counter for testing.
type mockMetricCounter struct {
	metric.Int64Counter
	count atomic.Int64
}

func (m *mockMetricCounter) Add(_ context.Context, incr int64, _ ...metric.AddOption) {
	m.count.Add(incr)
}

func TestDedupService_CacheErrorsCounted(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	metrics, err := observability.NewMetrics(meter)
	if err != nil {
		t.Fatalf("failed to create test metrics: %v", err)
	}
	counter := &mockMetricCounter{}
	metrics.DedupCacheErrors = counter

	cache := newMockCache()
	cache.addErr = errors.New("connection refused")
	svc := NewDedupService(cache, "beacon:dedup", time.Minute, 24*time.Hour, metrics, nil)
	svc.retryBackoff = time.Millisecond

	_, _ = svc.CheckDuplicate(context.Background(), "p1", "r1")
	if counter.count.Load() != 1 {
		t.Errorf("cache error counter = %d, want 1", counter.count.Load())
	}
}
