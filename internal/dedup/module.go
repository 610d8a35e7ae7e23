package dedup

import (
	"log/slog"
	"time"

	"github.com/beacon-telemetry/beacon/internal/dedup/internal/service"
	"github.com/beacon-telemetry/beacon/internal/observability"
)

// Config holds the dedup module configuration.
//
// Environment variable overrides:
//   - DEDUP_NAMESPACE:       cache key namespace (default: beacon:dedup)
//   - DEDUP_SHORT_TTL:       race-prevention expiration (default: 1m)
//   - DEDUP_LONG_TTL:        dedup window expiration (default: 24h)
//   - DEDUP_FILTER_WINDOW:   seen-filter sliding window (default: 10m)
//   - DEDUP_FILTER_CAPACITY: seen-filter expected events per window
//   - DEDUP_FILTER_FP_RATE:  seen-filter false positive rate
type Config struct {
	Namespace string        `env:"DEDUP_NAMESPACE" envDefault:"beacon:dedup"`
	ShortTTL  time.Duration `env:"DEDUP_SHORT_TTL" envDefault:"1m"`
	LongTTL   time.Duration `env:"DEDUP_LONG_TTL"  envDefault:"24h"`

	FilterWindow   time.Duration `env:"DEDUP_FILTER_WINDOW"   envDefault:"10m"`
	FilterCapacity uint          `env:"DEDUP_FILTER_CAPACITY" envDefault:"1000000"`
	FilterFPRate   float64       `env:"DEDUP_FILTER_FP_RATE"  envDefault:"0.0001"`
}

// DefaultConfig returns the default dedup configuration: a one minute
// race-prevention TTL and a one day dedup window.
func DefaultConfig() Config {
	return Config{
		Namespace:      "beacon:dedup",
		ShortTTL:       time.Minute,
		LongTTL:        24 * time.Hour,
		FilterWindow:   10 * time.Minute,
		FilterCapacity: 1_000_000,
		FilterFPRate:   0.0001,
	}
}

// Module is the dedup module facade. It wires the duplicate-suppression
// service to the given cache and exposes the pipeline plugin.
type Module struct {
	svc    *service.DedupService
	plugin *Plugin
}

// New creates a new dedup Module over the given cache. The metrics
// parameter is optional (pass nil to disable metric instrumentation).
func New(cfg Config, cache Cache, metrics *observability.Metrics, logger *slog.Logger) *Module {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("module", "dedup")

	svc := service.NewDedupService(cache, cfg.Namespace, cfg.ShortTTL, cfg.LongTTL, metrics, logger)

	return &Module{
		svc:    svc,
		plugin: &Plugin{svc: svc, metrics: metrics},
	}
}

// Plugin returns the duplicate-suppression pipeline plugin.
func (m *Module) Plugin() *Plugin {
	return m.plugin
}
