package gateway

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/beacon-telemetry/beacon/internal/events"
	"github.com/beacon-telemetry/beacon/internal/pipeline"
)

// Priorities for the gateway's built-in plugins. Validation runs before
// everything else so later plugins see normalized events; enrichment runs
// last so it only spends work on events that survived the earlier stages.
const (
	ValidationPluginPriority = 0
	EnrichmentPluginPriority = 100
)

// ValidationPlugin normalizes incoming events and cancels ones that carry
// no usable payload.
type ValidationPlugin struct{}

// NewValidationPlugin creates a new validation plugin.
func NewValidationPlugin() *ValidationPlugin {
	return &ValidationPlugin{}
}

// Name returns the plugin name.
func (p *ValidationPlugin) Name() string {
	return "validation"
}

// Priority returns the plugin priority.
func (p *ValidationPlugin) Priority() int {
	return ValidationPluginPriority
}

// PreProcess normalizes the event type and cancels events that have no
// type, no message, and no data.
func (p *ValidationPlugin) PreProcess(_ context.Context, ec *pipeline.EventContext) error {
	event := ec.Event()

	event.Type = events.NormalizeType(event.Type)

	if event.TimestampMS < 0 {
		ec.Cancel()
		return nil
	}

	if event.Type == events.TypeUnknown && event.Message == "" && len(event.Data) == 0 {
		ec.Cancel()
	}

	return nil
}

// PostProcess is a no-op for the validation plugin.
func (p *ValidationPlugin) PostProcess(_ context.Context, _ *pipeline.EventContext) error {
	return nil
}

// EnrichmentPlugin assigns server-generated values to events that survived
// the earlier pipeline stages.
type EnrichmentPlugin struct {
	now func() time.Time
}

// NewEnrichmentPlugin creates a new enrichment plugin.
func NewEnrichmentPlugin() *EnrichmentPlugin {
	return &EnrichmentPlugin{now: time.Now}
}

// Name returns the plugin name.
func (p *EnrichmentPlugin) Name() string {
	return "enrichment"
}

// Priority returns the plugin priority.
func (p *EnrichmentPlugin) Priority() int {
	return EnrichmentPluginPriority
}

// PreProcess assigns a UUID v7 event ID (time-sortable) and a server-side
// timestamp when the submitter left them blank.
func (p *EnrichmentPlugin) PreProcess(_ context.Context, ec *pipeline.EventContext) error {
	event := ec.Event()

	if event.ID == "" {
		event.ID = uuid.Must(uuid.NewV7()).String()
	}

	if event.TimestampMS == 0 {
		event.TimestampMS = p.now().UnixMilli()
	}

	return nil
}

// PostProcess is a no-op for the enrichment plugin.
func (p *EnrichmentPlugin) PostProcess(_ context.Context, _ *pipeline.EventContext) error {
	return nil
}
