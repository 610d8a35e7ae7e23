// Package domain contains the sliding-window bloom filter backing the
// consumer-side seen-filter. Two filters (current and previous) rotate
// periodically to bound the time window without unbounded memory growth.
package domain

import (
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
)

// SlidingFilter is a sliding-window membership filter built from two bloom
// filters. Keys are always added to the "current" filter while lookups check
// both; rotating current into previous every window/2 keeps a key visible
// for at least one full window.
type SlidingFilter struct {
	current  *bloom.BloomFilter
	previous *bloom.BloomFilter
	mu       sync.RWMutex
	window   time.Duration
	capacity uint
	fpRate   float64
}

// NewSlidingFilter creates a SlidingFilter with the given window duration,
// expected key capacity per window, and false positive rate.
func NewSlidingFilter(window time.Duration, capacity uint, fpRate float64) *SlidingFilter {
	return &SlidingFilter{
		current:  bloom.NewWithEstimates(capacity, fpRate),
		previous: bloom.NewWithEstimates(capacity, fpRate),
		window:   window,
		capacity: capacity,
		fpRate:   fpRate,
	}
}

// Seen tests whether the key is present in either filter, adding it to the
// current filter when absent. Returns true for keys already seen within the
// window. Safe for concurrent use.
func (f *SlidingFilter) Seen(key string) bool {
	data := []byte(key)

	f.mu.RLock()
	if f.current.Test(data) || f.previous.Test(data) {
		f.mu.RUnlock()
		return true
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	// Re-test under the write lock: another goroutine may have added the
	// same key between RUnlock and Lock.
	if f.current.Test(data) || f.previous.Test(data) {
		return true
	}
	f.current.Add(data)
	return false
}

// Rotate moves the current filter to previous and starts a fresh current
// filter. Call every window/2 to maintain the sliding overlap.
func (f *SlidingFilter) Rotate() {
	f.mu.Lock()
	f.previous = f.current
	f.current = bloom.NewWithEstimates(f.capacity, f.fpRate)
	f.mu.Unlock()
}

// Window returns the configured window duration.
func (f *SlidingFilter) Window() time.Duration {
	return f.window
}
