package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/beacon-telemetry/beacon/internal/events"
	"github.com/beacon-telemetry/beacon/internal/pipeline"
)

func TestValidationPlugin_NormalizesType(t *testing.T) {
	plugin := NewValidationPlugin()

	event := &events.Event{Type: "  Error ", Message: "boom"}
	ec := pipeline.NewEventContext(event, testProject())

	if err := plugin.PreProcess(context.Background(), ec); err != nil {
		t.Fatalf("PreProcess() returned unexpected error: %v", err)
	}

	if event.Type != events.TypeError {
		t.Errorf("event.Type = %q, want %q", event.Type, events.TypeError)
	}
	if ec.Cancelled() {
		t.Error("valid event should not be cancelled")
	}
}

func TestValidationPlugin_CancelsEmptyEvent(t *testing.T) {
	plugin := NewValidationPlugin()

	ec := pipeline.NewEventContext(&events.Event{}, testProject())
	if err := plugin.PreProcess(context.Background(), ec); err != nil {
		t.Fatalf("PreProcess() returned unexpected error: %v", err)
	}

	if !ec.Cancelled() {
		t.Error("event with no type, message, or data should be cancelled")
	}
}

func TestValidationPlugin_KeepsUntypedEventWithPayload(t *testing.T) {
	plugin := NewValidationPlugin()

	event := &events.Event{Data: map[string]any{"key": "value"}}
	ec := pipeline.NewEventContext(event, testProject())
	if err := plugin.PreProcess(context.Background(), ec); err != nil {
		t.Fatalf("PreProcess() returned unexpected error: %v", err)
	}

	if ec.Cancelled() {
		t.Error("event with data should survive validation")
	}
	if event.Type != events.TypeUnknown {
		t.Errorf("event.Type = %q, want %q", event.Type, events.TypeUnknown)
	}
}

func TestValidationPlugin_CancelsNegativeTimestamp(t *testing.T) {
	plugin := NewValidationPlugin()

	ec := pipeline.NewEventContext(&events.Event{Type: "error", TimestampMS: -1}, testProject())
	if err := plugin.PreProcess(context.Background(), ec); err != nil {
		t.Fatalf("PreProcess() returned unexpected error: %v", err)
	}

	if !ec.Cancelled() {
		t.Error("event with negative timestamp should be cancelled")
	}
}

func TestEnrichmentPlugin_AssignsIDAndTimestamp(t *testing.T) {
	plugin := NewEnrichmentPlugin()
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	plugin.now = func() time.Time { return now }

	event := &events.Event{Type: "error"}
	ec := pipeline.NewEventContext(event, testProject())

	if err := plugin.PreProcess(context.Background(), ec); err != nil {
		t.Fatalf("PreProcess() returned unexpected error: %v", err)
	}

	if event.ID == "" {
		t.Error("event.ID should be assigned")
	}
	if event.TimestampMS != now.UnixMilli() {
		t.Errorf("event.TimestampMS = %d, want %d", event.TimestampMS, now.UnixMilli())
	}
}

func TestEnrichmentPlugin_PreservesClientValues(t *testing.T) {
	plugin := NewEnrichmentPlugin()

	event := &events.Event{ID: "client-id", Type: "error", TimestampMS: 1724500000000}
	ec := pipeline.NewEventContext(event, testProject())

	if err := plugin.PreProcess(context.Background(), ec); err != nil {
		t.Fatalf("PreProcess() returned unexpected error: %v", err)
	}

	if event.ID != "client-id" {
		t.Errorf("event.ID = %q, want %q", event.ID, "client-id")
	}
	if event.TimestampMS != 1724500000000 {
		t.Errorf("event.TimestampMS = %d, want unchanged", event.TimestampMS)
	}
}

func TestBuiltinPluginOrdering(t *testing.T) {
	runner := pipeline.NewRunner([]pipeline.Plugin{
		NewEnrichmentPlugin(),
		NewValidationPlugin(),
	}, nil, nil)

	plugins := runner.Plugins()
	if plugins[0].Name() != "validation" {
		t.Errorf("first plugin = %q, want validation", plugins[0].Name())
	}
	if plugins[1].Name() != "enrichment" {
		t.Errorf("second plugin = %q, want enrichment", plugins[1].Name())
	}
}
