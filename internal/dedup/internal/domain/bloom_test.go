package domain

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestSlidingFilter_SeenAddsOnMiss(t *testing.T) {
	f := NewSlidingFilter(10*time.Minute, 10000, 0.0001)

	if f.Seen("k1") {
		t.Error("first lookup should miss")
	}
	if !f.Seen("k1") {
		t.Error("second lookup should hit")
	}
}

func TestSlidingFilter_RotationExpiresKeys(t *testing.T) {
	f := NewSlidingFilter(time.Minute, 10000, 0.0001)

	f.Seen("k1")

	// One rotation: key survives in the previous filter.
	f.Rotate()
	if !f.Seen("k1") {
		t.Error("key should survive a single rotation")
	}

	// Seen above re-added nothing (it hit), so two more rotations age the
	// key out of both filters.
	f.Rotate()
	f.Rotate()
	if f.Seen("k1") {
		t.Error("key should expire after two rotations without re-add")
	}
}

func TestSlidingFilter_ConcurrentAccess(t *testing.T) {
	f := NewSlidingFilter(time.Minute, 10000, 0.0001)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				f.Seen(fmt.Sprintf("worker-%d-key-%d", n, j))
			}
		}(i)
	}
	wg.Wait()

	if !f.Seen("worker-0-key-0") {
		t.Error("key added during concurrent phase should be present")
	}
}
