package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/beacon-telemetry/beacon/internal/observability"
)

// Runner orchestrates plugin execution for pipeline passes. Plugins are
// sorted once at construction; the Runner itself is immutable afterwards and
// safe to share across concurrent passes.
type Runner struct {
	plugins []Plugin
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewRunner creates a Runner over the given plugins. The slice is copied and
// stably sorted by ascending priority, so equal-priority plugins keep their
// registration order. The metrics parameter may be nil.
func NewRunner(plugins []Plugin, metrics *observability.Metrics, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	sorted := make([]Plugin, len(plugins))
	copy(sorted, plugins)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})

	return &Runner{
		plugins: sorted,
		metrics: metrics,
		logger:  logger.With("component", "pipeline-runner"),
	}
}

// Plugins returns the plugins in execution order.
func (r *Runner) Plugins() []Plugin {
	return r.plugins
}

// RunPreProcessing invokes each plugin's pre-processing hook in priority
// order. It stops as soon as the context is cancelled. Non-fatal hook errors
// are logged and the pass continues; a fatal error aborts the pass and is
// returned to the caller.
func (r *Runner) RunPreProcessing(ctx context.Context, ec *EventContext) error {
	for _, p := range r.plugins {
		if ec.Cancelled() {
			return nil
		}
		if err := r.runHook(ctx, ec, p, hookPre); err != nil {
			return err
		}
	}
	return nil
}

// RunPostProcessing invokes every plugin's post-processing hook in the same
// order, regardless of the cancellation flag. Plugins whose earlier hook
// errored this pass are skipped. Non-fatal errors are logged and the
// remaining plugins still run; a fatal error aborts and is returned.
func (r *Runner) RunPostProcessing(ctx context.Context, ec *EventContext) error {
	for _, p := range r.plugins {
		if ec.hasFailed(p.Name()) {
			continue
		}
		if err := r.runHook(ctx, ec, p, hookPost); err != nil {
			return err
		}
	}
	return nil
}

const (
	hookPre  = "pre"
	hookPost = "post"
)

// runHook executes one hook with metrics and error classification. The
// returned error is non-nil only when the failure is fatal for the pass.
func (r *Runner) runHook(ctx context.Context, ec *EventContext, p Plugin, hook string) error {
	start := time.Now()

	var err error
	if hook == hookPre {
		err = p.PreProcess(ctx, ec)
	} else {
		err = p.PostProcess(ctx, ec)
	}

	if r.metrics != nil {
		attrs := otelmetric.WithAttributes(
			attribute.String("plugin", p.Name()),
			attribute.String("hook", hook),
		)
		r.metrics.PluginDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000.0, attrs)
		if err != nil {
			r.metrics.PluginFailures.Add(ctx, 1, attrs)
		}
	}

	if err == nil {
		return nil
	}

	ec.markFailed(p.Name())

	if IsFatal(err) {
		r.logger.Error("fatal plugin failure, aborting pass",
			"plugin", p.Name(),
			"hook", hook,
			"error", err,
		)
		return fmt.Errorf("plugin %s %s-processing: %w", p.Name(), hook, err)
	}

	r.logger.Warn("plugin failure, continuing pass",
		"plugin", p.Name(),
		"hook", hook,
		"error", err,
	)
	return nil
}
