package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/beacon-telemetry/beacon/internal/events"
)

// Publisher publishes accepted events to NATS JetStream as JSON.
type Publisher struct {
	js         jetstream.JetStream
	streamName string
	logger     *slog.Logger
}

// NewPublisher creates a new event publisher.
func NewPublisher(js jetstream.JetStream, streamName string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		js:         js,
		streamName: streamName,
		logger:     logger.With("component", "publisher"),
	}
}

// PublishEvent publishes a single accepted event to its derived subject.
func (p *Publisher) PublishEvent(ctx context.Context, project *events.Project, event *events.Event) error {
	subject := events.DeriveSubject(project.ID, event.Type)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := p.js.Publish(ctx, subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("event published",
		"event_id", event.ID,
		"subject", subject,
		"stream", ack.Stream,
		"sequence", ack.Sequence,
	)

	return nil
}

// PublishEventBatch publishes multiple events, continuing past individual
// failures. It returns the number of successfully published events; if any
// event failed, the returned error wraps ErrPartialPublish.
func (p *Publisher) PublishEventBatch(ctx context.Context, project *events.Project, evs []*events.Event) (int, error) {
	published := 0

	for _, ev := range evs {
		if err := p.PublishEvent(ctx, project, ev); err != nil {
			p.logger.Error("failed to publish event in batch",
				"event_id", ev.ID,
				"error", err,
			)
			continue
		}
		published++
	}

	if published < len(evs) {
		return published, fmt.Errorf("%w: %d of %d failed", ErrPartialPublish, len(evs)-published, len(evs))
	}

	return published, nil
}
