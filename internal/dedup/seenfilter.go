package dedup

import (
	"context"
	"log/slog"
	"time"

	"github.com/beacon-telemetry/beacon/internal/dedup/internal/domain"
	"github.com/beacon-telemetry/beacon/internal/events"
	"github.com/beacon-telemetry/beacon/internal/observability"
)

// SeenFilter is a process-local, probabilistic second line of defense used
// by batch consumers: it drops events whose IDs were already seen within a
// sliding window. It complements, and cannot replace, the cache-backed
// plugin — it is not shared across processes and admits false positives.
type SeenFilter struct {
	filter  *domain.SlidingFilter
	metrics *observability.Metrics
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSeenFilter creates a seen-filter with the module configuration.
// The metrics parameter may be nil.
func NewSeenFilter(cfg Config, metrics *observability.Metrics, logger *slog.Logger) *SeenFilter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SeenFilter{
		filter:  domain.NewSlidingFilter(cfg.FilterWindow, cfg.FilterCapacity, cfg.FilterFPRate),
		metrics: metrics,
		logger:  logger.With("component", "seen-filter"),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Seen reports whether the key was already observed within the window,
// recording it otherwise. Empty keys always return false.
func (f *SeenFilter) Seen(key string) bool {
	if key == "" {
		return false
	}

	if f.filter.Seen(key) {
		if f.metrics != nil {
			f.metrics.ArchiveDuplicatesDropped.Add(context.Background(), 1)
		}
		return true
	}
	return false
}

// FilterEvents returns only the events whose IDs have not been observed
// before, preserving order. Events without an ID always pass through.
func (f *SeenFilter) FilterEvents(evs []*events.Event) []*events.Event {
	if len(evs) == 0 {
		return evs
	}

	filtered := make([]*events.Event, 0, len(evs))
	for _, ev := range evs {
		if !f.Seen(ev.ID) {
			filtered = append(filtered, ev)
		}
	}
	return filtered
}

// Start launches the background goroutine that rotates the filter every
// window/2 to maintain the sliding window. The goroutine stops when ctx is
// cancelled or Stop is called.
func (f *SeenFilter) Start(ctx context.Context) {
	rotateInterval := f.filter.Window() / 2
	f.logger.Info("seen-filter started",
		"window", f.filter.Window(),
		"rotate_interval", rotateInterval,
	)

	go func() {
		defer close(f.doneCh)
		ticker := time.NewTicker(rotateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				f.filter.Rotate()
				f.logger.Debug("seen-filter rotated")
			case <-ctx.Done():
				f.logger.Info("seen-filter stopping (context cancelled)")
				return
			case <-f.stopCh:
				f.logger.Info("seen-filter stopping (stop requested)")
				return
			}
		}
	}()
}

// Stop signals the rotation goroutine to stop and waits for it to finish.
func (f *SeenFilter) Stop() {
	close(f.stopCh)
	<-f.doneCh
}
