package dedup

import (
	"context"

	"github.com/beacon-telemetry/beacon/internal/dedup/internal/service"
	"github.com/beacon-telemetry/beacon/internal/observability"
	"github.com/beacon-telemetry/beacon/internal/pipeline"
)

// PluginPriority places the duplicate checker near the front of the chain,
// so duplicates are rejected before more expensive plugins run.
const PluginPriority = 10

// Plugin is the duplicate-suppression pipeline plugin. Its pre-processing
// hook cancels duplicates; its post-processing hook refreshes the dedup
// marker with the long TTL for every pass, cancelled or not, so that a
// legitimately retried event hours later is still recognized as a repeat.
type Plugin struct {
	svc     *service.DedupService
	metrics *observability.Metrics
}

// Name identifies the plugin in logs and metrics.
func (p *Plugin) Name() string { return "duplicate-checker" }

// Priority returns the plugin's fixed execution priority.
func (p *Plugin) Priority() int { return PluginPriority }

// PreProcess performs the atomic duplicate check. Events without a reference
// identifier pass through untouched. A duplicate within the window cancels
// the context; a cache failure is fatal for the pass, so the caller decides
// instead of the check silently failing open or closed.
func (p *Plugin) PreProcess(ctx context.Context, ec *pipeline.EventContext) error {
	dup, err := p.svc.CheckDuplicate(ctx, ec.Project().ID, ec.Event().ReferenceID)
	if err != nil {
		return pipeline.Fatal(err)
	}

	if dup {
		ec.Cancel()
		if p.metrics != nil {
			p.metrics.EventsSuppressed.Add(ctx, 1)
		}
	}

	return nil
}

// PostProcess refreshes the dedup marker with the long TTL. Refresh failures
// are non-fatal and handled inside the service.
func (p *Plugin) PostProcess(ctx context.Context, ec *pipeline.EventContext) error {
	p.svc.RefreshMarker(ctx, ec.Project().ID, ec.Event().ReferenceID)
	return nil
}
