// Package gateway tests the event ingestion service logic.
package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/beacon-telemetry/beacon/internal/events"
	"github.com/beacon-telemetry/beacon/internal/pipeline"
)

// mockPublisher is a test double for EventPublisher.
type mockPublisher struct {
	published []*events.Event
	err       error
}

func (m *mockPublisher) PublishEvent(_ context.Context, _ *events.Project, event *events.Event) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, event)
	return nil
}

// hookPlugin is a configurable test plugin.
type hookPlugin struct {
	name     string
	priority int
	preErr   error
	cancel   bool

	preCalls  int
	postCalls int
}

func (p *hookPlugin) Name() string  { return p.name }
func (p *hookPlugin) Priority() int { return p.priority }

func (p *hookPlugin) PreProcess(_ context.Context, ec *pipeline.EventContext) error {
	p.preCalls++
	if p.cancel {
		ec.Cancel()
	}
	return p.preErr
}

func (p *hookPlugin) PostProcess(_ context.Context, _ *pipeline.EventContext) error {
	p.postCalls++
	return nil
}

func newService(publisher EventPublisher, plugins ...pipeline.Plugin) *EventService {
	runner := pipeline.NewRunner(plugins, nil, nil)
	return NewEventService(runner, publisher, nil, nil)
}

func testProject() *events.Project {
	return &events.Project{ID: "acme", Name: "Acme"}
}

func TestIngestEvent_PublishesAccepted(t *testing.T) {
	pub := &mockPublisher{}
	svc := newService(pub, NewValidationPlugin(), NewEnrichmentPlugin())

	event := &events.Event{Type: "error", Message: "boom"}
	result, err := svc.IngestEvent(context.Background(), testProject(), event)
	if err != nil {
		t.Fatalf("IngestEvent() returned unexpected error: %v", err)
	}

	if result.Status != "accepted" {
		t.Errorf("result.Status = %q, want %q", result.Status, "accepted")
	}
	if result.EventID == "" {
		t.Error("result.EventID should be assigned by enrichment")
	}
	if len(pub.published) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.published))
	}
	if pub.published[0].TimestampMS == 0 {
		t.Error("published event should have a server-assigned timestamp")
	}
}

func TestIngestEvent_SuppressedEventNotPublished(t *testing.T) {
	pub := &mockPublisher{}
	suppressor := &hookPlugin{name: "suppressor", priority: 10, cancel: true}
	svc := newService(pub, suppressor)

	result, err := svc.IngestEvent(context.Background(), testProject(), &events.Event{Type: "error"})
	if err != nil {
		t.Fatalf("IngestEvent() returned unexpected error: %v", err)
	}

	if len(pub.published) != 0 {
		t.Errorf("published %d events, want 0", len(pub.published))
	}

	// Suppression is invisible to the submitter.
	if result.Status != "accepted" {
		t.Errorf("result.Status = %q, want %q", result.Status, "accepted")
	}
}

func TestIngestEvent_PostProcessingRunsForSuppressed(t *testing.T) {
	pub := &mockPublisher{}
	suppressor := &hookPlugin{name: "suppressor", priority: 10, cancel: true}
	observer := &hookPlugin{name: "observer", priority: 5}
	svc := newService(pub, suppressor, observer)

	if _, err := svc.IngestEvent(context.Background(), testProject(), &events.Event{Type: "error"}); err != nil {
		t.Fatalf("IngestEvent() returned unexpected error: %v", err)
	}

	if suppressor.postCalls != 1 {
		t.Errorf("suppressor post hook ran %d times, want 1", suppressor.postCalls)
	}
	if observer.postCalls != 1 {
		t.Errorf("observer post hook ran %d times, want 1", observer.postCalls)
	}
}

func TestIngestEvent_FatalPreProcessingAborts(t *testing.T) {
	pub := &mockPublisher{}
	cause := errors.New("cache unreachable")
	failing := &hookPlugin{name: "failing", priority: 10, preErr: pipeline.Fatal(cause)}
	svc := newService(pub, failing)

	_, err := svc.IngestEvent(context.Background(), testProject(), &events.Event{Type: "error"})
	if err == nil {
		t.Fatal("IngestEvent() should fail when a plugin fails fatally")
	}
	if !errors.Is(err, cause) {
		t.Errorf("error should wrap the cause, got: %v", err)
	}
	if len(pub.published) != 0 {
		t.Errorf("published %d events, want 0", len(pub.published))
	}
}

func TestIngestEvent_PublishFailure(t *testing.T) {
	pub := &mockPublisher{err: errors.New("nats down")}
	svc := newService(pub, NewEnrichmentPlugin())

	_, err := svc.IngestEvent(context.Background(), testProject(), &events.Event{Type: "error"})
	if err == nil {
		t.Fatal("IngestEvent() should fail when publish fails")
	}
}

func TestIngestEvent_NilInputs(t *testing.T) {
	svc := newService(&mockPublisher{})

	if _, err := svc.IngestEvent(context.Background(), nil, &events.Event{}); !errors.Is(err, ErrProjectRequired) {
		t.Errorf("error = %v, want ErrProjectRequired", err)
	}
	if _, err := svc.IngestEvent(context.Background(), testProject(), nil); !errors.Is(err, ErrEventRequired) {
		t.Errorf("error = %v, want ErrEventRequired", err)
	}
}

func TestIngestEventBatch_MixedResults(t *testing.T) {
	pub := &mockPublisher{}
	svc := newService(pub, NewValidationPlugin(), NewEnrichmentPlugin())

	evs := []*events.Event{
		{Type: "error", Message: "first"},
		nil,
		{Type: "log", Message: "third"},
	}

	batch, err := svc.IngestEventBatch(context.Background(), testProject(), evs)
	if err != nil {
		t.Fatalf("IngestEventBatch() returned unexpected error: %v", err)
	}

	if batch.AcceptedCount != 2 {
		t.Errorf("AcceptedCount = %d, want 2", batch.AcceptedCount)
	}
	if batch.RejectedCount != 1 {
		t.Errorf("RejectedCount = %d, want 1", batch.RejectedCount)
	}
	if batch.Results[1].Status != "rejected" {
		t.Errorf("Results[1].Status = %q, want %q", batch.Results[1].Status, "rejected")
	}
	if batch.Results[1].Error == "" {
		t.Error("Results[1].Error should explain the rejection")
	}
	if len(pub.published) != 2 {
		t.Errorf("published %d events, want 2", len(pub.published))
	}
}

func TestIngestEventBatch_IndependentPasses(t *testing.T) {
	pub := &mockPublisher{}
	counter := &hookPlugin{name: "counter", priority: 1}
	svc := newService(pub, counter)

	evs := []*events.Event{
		{Type: "error", Message: "a"},
		{Type: "error", Message: "b"},
		{Type: "error", Message: "c"},
	}

	if _, err := svc.IngestEventBatch(context.Background(), testProject(), evs); err != nil {
		t.Fatalf("IngestEventBatch() returned unexpected error: %v", err)
	}

	// Each event gets its own full pipeline pass.
	if counter.preCalls != 3 {
		t.Errorf("pre hook ran %d times, want 3", counter.preCalls)
	}
	if counter.postCalls != 3 {
		t.Errorf("post hook ran %d times, want 3", counter.postCalls)
	}
}

func TestIngestEventBatch_Empty(t *testing.T) {
	svc := newService(&mockPublisher{})

	_, err := svc.IngestEventBatch(context.Background(), testProject(), nil)
	if !errors.Is(err, ErrAtLeastOneEvent) {
		t.Errorf("error = %v, want ErrAtLeastOneEvent", err)
	}
}
