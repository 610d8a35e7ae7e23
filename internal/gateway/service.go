package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/beacon-telemetry/beacon/internal/events"
	"github.com/beacon-telemetry/beacon/internal/observability"
	"github.com/beacon-telemetry/beacon/internal/pipeline"
)

// EventPublisher is the port for handing accepted events to the transport.
type EventPublisher interface {
	PublishEvent(ctx context.Context, project *events.Project, event *events.Event) error
}

// IngestResult is the outcome of a single ingestion pass.
type IngestResult struct {
	// EventID is the (possibly server-assigned) event identifier. Empty
	// when the event was cancelled before enrichment ran.
	EventID string `json:"id,omitempty"`

	// Status is always "accepted" unless the pass failed outright.
	// Suppressed duplicates still report "accepted"; suppression is
	// deliberately invisible to the submitter.
	Status string `json:"status"`
}

// BatchEventResult is the per-event outcome of a batch ingestion request.
type BatchEventResult struct {
	Index   int    `json:"index"`
	EventID string `json:"id,omitempty"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// BatchResult is the outcome of a batch ingestion request.
type BatchResult struct {
	AcceptedCount int                `json:"accepted_count"`
	RejectedCount int                `json:"rejected_count"`
	Results       []BatchEventResult `json:"results"`
}

// EventService implements the event ingestion business logic: it runs the
// plugin pipeline over each submitted event and publishes the survivors.
type EventService struct {
	runner    *pipeline.Runner
	publisher EventPublisher
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewEventService creates a new event service.
func NewEventService(runner *pipeline.Runner, publisher EventPublisher, metrics *observability.Metrics, logger *slog.Logger) *EventService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventService{
		runner:    runner,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.With("component", "event-service"),
	}
}

// IngestEvent handles single event ingestion.
//
// The event goes through one full pipeline pass: pre-processing hooks in
// priority order, publication if no plugin cancelled the event, then every
// plugin's post-processing hook. Cancelled events are dropped without
// signalling the submitter.
func (s *EventService) IngestEvent(ctx context.Context, project *events.Project, event *events.Event) (*IngestResult, error) {
	if project == nil {
		return nil, ErrProjectRequired
	}
	if event == nil {
		return nil, ErrEventRequired
	}

	ec := pipeline.NewEventContext(event, project)

	if err := s.runner.RunPreProcessing(ctx, ec); err != nil {
		return nil, fmt.Errorf("pre-processing: %w", err)
	}

	if !ec.Cancelled() {
		if err := s.publisher.PublishEvent(ctx, project, event); err != nil {
			s.logger.Error("failed to publish event",
				"event_id", event.ID,
				"project_id", project.ID,
				"error", err,
			)
			return nil, fmt.Errorf("failed to publish event: %w", err)
		}

		if s.metrics != nil {
			s.metrics.EventsIngested.Add(ctx, 1, otelmetric.WithAttributes(
				attribute.String("project_id", project.ID),
				attribute.String("type", event.Type),
			))
		}
	}

	// Post-processing always runs, including for cancelled events; a
	// failure here never unwinds an acceptance already made above.
	if err := s.runner.RunPostProcessing(ctx, ec); err != nil {
		s.logger.Error("post-processing failed",
			"event_id", event.ID,
			"project_id", project.ID,
			"error", err,
		)
	}

	s.logger.Debug("event ingested",
		"event_id", event.ID,
		"project_id", project.ID,
		"cancelled", ec.Cancelled(),
	)

	return &IngestResult{
		EventID: event.ID,
		Status:  "accepted",
	}, nil
}

// IngestEventBatch handles batch ingestion. Each event gets its own
// independent pipeline pass; one event's failure never rejects its
// neighbours.
func (s *EventService) IngestEventBatch(ctx context.Context, project *events.Project, evs []*events.Event) (*BatchResult, error) {
	if project == nil {
		return nil, ErrProjectRequired
	}
	if len(evs) == 0 {
		return nil, ErrAtLeastOneEvent
	}

	batch := &BatchResult{
		Results: make([]BatchEventResult, len(evs)),
	}

	for i, event := range evs {
		result := BatchEventResult{Index: i}

		if event == nil {
			result.Status = "rejected"
			result.Error = ErrEventRequired.Error()
			batch.RejectedCount++
			batch.Results[i] = result
			continue
		}

		res, err := s.IngestEvent(ctx, project, event)
		if err != nil {
			result.Status = "rejected"
			result.Error = err.Error()
			batch.RejectedCount++
			s.logger.Warn("failed to ingest event in batch",
				"index", i,
				"event_id", event.ID,
				"error", err,
			)
		} else {
			result.EventID = res.EventID
			result.Status = res.Status
			batch.AcceptedCount++
		}

		batch.Results[i] = result
	}

	s.logger.Info("batch ingestion complete",
		"project_id", project.ID,
		"total", len(evs),
		"accepted", batch.AcceptedCount,
		"rejected", batch.RejectedCount,
	)

	return batch, nil
}
