package nats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
)

// StreamManager handles JetStream stream and consumer provisioning.
type StreamManager struct {
	js     jetstream.JetStream
	config StreamConfig
	logger *slog.Logger
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(js jetstream.JetStream, cfg StreamConfig, logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamManager{
		js:     js,
		config: cfg,
		logger: logger.With("component", "stream-manager"),
	}
}

// EnsureStream creates or updates the event stream with the configured
// settings.
func (m *StreamManager) EnsureStream(ctx context.Context) (jetstream.Stream, error) {
	storage := jetstream.FileStorage
	if strings.ToLower(m.config.Storage) == "memory" {
		storage = jetstream.MemoryStorage
	}

	streamCfg := jetstream.StreamConfig{
		Name:        m.config.Name,
		Subjects:    m.config.Subjects,
		Storage:     storage,
		MaxAge:      m.config.MaxAge,
		MaxBytes:    m.config.MaxBytes,
		Replicas:    m.config.Replicas,
		Retention:   jetstream.LimitsPolicy,
		Discard:     jetstream.DiscardOld,
		AllowDirect: true,
	}

	if _, err := m.js.Stream(ctx, m.config.Name); err == nil {
		m.logger.Info("updating existing stream", "name", m.config.Name)
		stream, err := m.js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to update stream: %w", err)
		}
		return stream, nil
	}

	m.logger.Info("creating new stream", "name", m.config.Name, "subjects", m.config.Subjects)
	stream, err := m.js.CreateStream(ctx, streamCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	m.logger.Info("stream created",
		"name", m.config.Name,
		"storage", m.config.Storage,
		"max_age", m.config.MaxAge,
	)

	return stream, nil
}

// EnsureConsumers creates or updates the given consumers on the stream.
func (m *StreamManager) EnsureConsumers(ctx context.Context, stream jetstream.Stream, configs []ConsumerConfig) error {
	for _, cfg := range configs {
		if err := m.ensureConsumer(ctx, stream, cfg); err != nil {
			return fmt.Errorf("failed to ensure consumer %s: %w", cfg.Name, err)
		}
	}
	return nil
}

func (m *StreamManager) ensureConsumer(ctx context.Context, stream jetstream.Stream, cfg ConsumerConfig) error {
	consumerCfg := jetstream.ConsumerConfig{
		Durable:       cfg.Name,
		FilterSubject: cfg.FilterSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       cfg.AckWait,
		MaxAckPending: cfg.MaxAckPending,
		MaxDeliver:    cfg.MaxDeliver,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	}

	if _, err := stream.Consumer(ctx, cfg.Name); err == nil {
		m.logger.Info("updating existing consumer", "name", cfg.Name)
		if _, err := stream.UpdateConsumer(ctx, consumerCfg); err != nil {
			return fmt.Errorf("failed to update consumer: %w", err)
		}
		return nil
	}

	m.logger.Info("creating new consumer",
		"name", cfg.Name,
		"filter", cfg.FilterSubject,
	)
	if _, err := stream.CreateConsumer(ctx, consumerCfg); err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	return nil
}
