package dedup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/beacon-telemetry/beacon/internal/events"
	"github.com/beacon-telemetry/beacon/internal/pipeline"
)

// countingCache wraps a Cache and counts operations.
type countingCache struct {
	inner    Cache
	addCalls int
	setCalls int
}

func (c *countingCache) AddIfAbsent(ctx context.Context, key string, value bool, ttl time.Duration) (bool, error) {
	c.addCalls++
	return c.inner.AddIfAbsent(ctx, key, value, ttl)
}

func (c *countingCache) Set(ctx context.Context, key string, value bool, ttl time.Duration) error {
	c.setCalls++
	return c.inner.Set(ctx, key, value, ttl)
}

// failingCache fails every operation.
type failingCache struct{}

func (failingCache) AddIfAbsent(context.Context, string, bool, time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}

func (failingCache) Set(context.Context, string, bool, time.Duration) error {
	return errors.New("connection refused")
}

func newContext(projectID, referenceID string) *pipeline.EventContext {
	return pipeline.NewEventContext(
		&events.Event{Type: events.TypeError, ReferenceID: referenceID},
		&events.Project{ID: projectID},
	)
}

func newTestModule(cache Cache, shortTTL, longTTL time.Duration) *Module {
	cfg := DefaultConfig()
	cfg.ShortTTL = shortTTL
	cfg.LongTTL = longTTL
	return New(cfg, cache, nil, nil)
}

func TestPlugin_EmptyReferenceNeverCancelsOrCallsCache(t *testing.T) {
	cache := &countingCache{inner: NewMemoryCache()}
	p := newTestModule(cache, time.Minute, 24*time.Hour).Plugin()

	ec := newContext("p1", "")
	if err := p.PreProcess(context.Background(), ec); err != nil {
		t.Fatalf("PreProcess() error = %v", err)
	}
	if ec.Cancelled() {
		t.Error("event without reference ID must never be cancelled")
	}
	if err := p.PostProcess(context.Background(), ec); err != nil {
		t.Fatalf("PostProcess() error = %v", err)
	}

	if cache.addCalls != 0 || cache.setCalls != 0 {
		t.Errorf("cache calls = %d adds, %d sets; want none", cache.addCalls, cache.setCalls)
	}
}

func TestPlugin_ConcurrentSubmissionsExactlyOneWins(t *testing.T) {
	p := newTestModule(NewMemoryCache(), time.Minute, 24*time.Hour).Plugin()

	const submitters = 16
	contexts := make([]*pipeline.EventContext, submitters)

	var wg sync.WaitGroup
	for i := 0; i < submitters; i++ {
		contexts[i] = newContext("p1", "r1")
		wg.Add(1)
		go func(ec *pipeline.EventContext) {
			defer wg.Done()
			if err := p.PreProcess(context.Background(), ec); err != nil {
				t.Errorf("PreProcess() error = %v", err)
			}
		}(contexts[i])
	}
	wg.Wait()

	accepted := 0
	for _, ec := range contexts {
		if !ec.Cancelled() {
			accepted++
		}
	}
	if accepted != 1 {
		t.Errorf("accepted = %d, want exactly 1 of %d concurrent submissions", accepted, submitters)
	}
}

func TestPlugin_RefreshExtendsWindowPastShortTTL(t *testing.T) {
	cache := NewMemoryCache()
	now := time.Now()
	cache.now = func() time.Time { return now }

	p := newTestModule(cache, time.Minute, 24*time.Hour).Plugin()

	// Full pass at time T: pre-processing claims the key, post-processing
	// re-arms it with the long TTL.
	ec := newContext("p1", "r1")
	if err := p.PreProcess(context.Background(), ec); err != nil {
		t.Fatalf("PreProcess() error = %v", err)
	}
	if ec.Cancelled() {
		t.Fatal("first sighting should not be cancelled")
	}
	if err := p.PostProcess(context.Background(), ec); err != nil {
		t.Fatalf("PostProcess() error = %v", err)
	}

	// T + 2 minutes: the short TTL has expired, but the refresh keeps the
	// pair remembered.
	now = now.Add(2 * time.Minute)
	ec2 := newContext("p1", "r1")
	if err := p.PreProcess(context.Background(), ec2); err != nil {
		t.Fatalf("PreProcess() at T+2m error = %v", err)
	}
	if !ec2.Cancelled() {
		t.Error("resubmission within the long TTL should be cancelled")
	}

	// Past the long TTL with no intervening refresh: first sighting again.
	now = now.Add(25 * time.Hour)
	ec3 := newContext("p1", "r1")
	if err := p.PreProcess(context.Background(), ec3); err != nil {
		t.Fatalf("PreProcess() after long TTL error = %v", err)
	}
	if ec3.Cancelled() {
		t.Error("resubmission after the long TTL expired should be a first sighting")
	}
}

func TestPlugin_ShortTTLOnlyWithoutRefresh(t *testing.T) {
	cache := NewMemoryCache()
	now := time.Now()
	cache.now = func() time.Time { return now }

	p := newTestModule(cache, time.Minute, 24*time.Hour).Plugin()

	// Pre-processing only, no post-processing refresh.
	ec := newContext("p1", "r1")
	if err := p.PreProcess(context.Background(), ec); err != nil {
		t.Fatalf("PreProcess() error = %v", err)
	}

	// Within the short window the duplicate is caught.
	now = now.Add(30 * time.Second)
	ec2 := newContext("p1", "r1")
	_ = p.PreProcess(context.Background(), ec2)
	if !ec2.Cancelled() {
		t.Error("resubmission within the short TTL should be cancelled")
	}

	// After short TTL expiry with no refresh, the key is forgotten.
	now = now.Add(2 * time.Minute)
	ec3 := newContext("p1", "r1")
	_ = p.PreProcess(context.Background(), ec3)
	if ec3.Cancelled() {
		t.Error("without a refresh, the pair should be forgotten after the short TTL")
	}
}

func TestPlugin_ProjectsScopeTheKeyspace(t *testing.T) {
	p := newTestModule(NewMemoryCache(), time.Minute, 24*time.Hour).Plugin()

	ec1 := newContext("p1", "r1")
	ec2 := newContext("p2", "r1")

	if err := p.PreProcess(context.Background(), ec1); err != nil {
		t.Fatalf("PreProcess(p1) error = %v", err)
	}
	if err := p.PreProcess(context.Background(), ec2); err != nil {
		t.Fatalf("PreProcess(p2) error = %v", err)
	}

	if ec1.Cancelled() || ec2.Cancelled() {
		t.Error("the same reference ID under different projects must not collide")
	}
}

func TestPlugin_CacheFailureIsFatal(t *testing.T) {
	p := newTestModule(failingCache{}, time.Minute, 24*time.Hour).Plugin()

	ec := newContext("p1", "r1")
	err := p.PreProcess(context.Background(), ec)
	if err == nil {
		t.Fatal("PreProcess() error = nil, want fatal cache failure")
	}
	if !pipeline.IsFatal(err) {
		t.Errorf("error %v should be classified fatal", err)
	}
	if ec.Cancelled() {
		t.Error("a failed check must not silently cancel the event")
	}
}

func TestPlugin_PostProcessRefreshesCancelledContexts(t *testing.T) {
	cache := &countingCache{inner: NewMemoryCache()}
	p := newTestModule(cache, time.Minute, 24*time.Hour).Plugin()

	winner := newContext("p1", "r1")
	loser := newContext("p1", "r1")
	_ = p.PreProcess(context.Background(), winner)
	_ = p.PreProcess(context.Background(), loser)

	if !loser.Cancelled() {
		t.Fatal("second submission should be cancelled")
	}

	// The cancelled pass still refreshes the marker.
	if err := p.PostProcess(context.Background(), loser); err != nil {
		t.Fatalf("PostProcess() error = %v", err)
	}
	if cache.setCalls != 1 {
		t.Errorf("set calls = %d, want 1 refresh from the cancelled pass", cache.setCalls)
	}
}
