package observability

import (
	otelmetric "go.opentelemetry.io/otel/metric"
)

// Metrics holds all metric instruments used across Beacon services.
// Instruments are created once at startup and shared with middleware,
// the pipeline runner, plugins, and the archive sink.
type Metrics struct {
	// HTTP metrics
	HTTPRequestDuration otelmetric.Float64Histogram
	HTTPRequestTotal    otelmetric.Int64Counter
	HTTPRequestErrors   otelmetric.Int64Counter

	// Ingestion pipeline metrics
	EventsIngested   otelmetric.Int64Counter
	EventsSuppressed otelmetric.Int64Counter
	PluginFailures   otelmetric.Int64Counter
	PluginDuration   otelmetric.Float64Histogram

	// Duplicate-suppression cache metrics
	DedupCacheErrors otelmetric.Int64Counter

	// NATS metrics
	NATSMessagesProcessed otelmetric.Int64Counter
	NATSBatchSize         otelmetric.Int64Histogram
	NATSFlushLatency      otelmetric.Float64Histogram

	// Archive sink metrics
	ArchiveDuplicatesDropped otelmetric.Int64Counter
	S3FilesWritten           otelmetric.Int64Counter
	S3FileSize               otelmetric.Int64Histogram
}

// NewMetrics creates all metric instruments from the given Meter.
// Each instrument is created with a descriptive name, unit, and description
// following OpenTelemetry semantic conventions.
func NewMetrics(meter otelmetric.Meter) (*Metrics, error) {
	var m Metrics
	var err error

	// HTTP metrics
	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http.request.duration",
		otelmetric.WithUnit("ms"),
		otelmetric.WithDescription("HTTP request duration in milliseconds"),
	)
	if err != nil {
		return nil, err
	}

	m.HTTPRequestTotal, err = meter.Int64Counter(
		"http.request.total",
		otelmetric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	m.HTTPRequestErrors, err = meter.Int64Counter(
		"http.request.errors",
		otelmetric.WithDescription("HTTP request errors (4xx and 5xx)"),
	)
	if err != nil {
		return nil, err
	}

	// Ingestion pipeline metrics
	m.EventsIngested, err = meter.Int64Counter(
		"events.ingested",
		otelmetric.WithDescription("Events accepted onto the event stream"),
	)
	if err != nil {
		return nil, err
	}

	m.EventsSuppressed, err = meter.Int64Counter(
		"events.suppressed",
		otelmetric.WithDescription("Events cancelled by a pipeline plugin"),
	)
	if err != nil {
		return nil, err
	}

	m.PluginFailures, err = meter.Int64Counter(
		"pipeline.plugin.failures",
		otelmetric.WithDescription("Plugin hook failures"),
	)
	if err != nil {
		return nil, err
	}

	m.PluginDuration, err = meter.Float64Histogram(
		"pipeline.plugin.duration",
		otelmetric.WithUnit("ms"),
		otelmetric.WithDescription("Plugin hook execution duration in milliseconds"),
	)
	if err != nil {
		return nil, err
	}

	// Duplicate-suppression cache metrics
	m.DedupCacheErrors, err = meter.Int64Counter(
		"dedup.cache.errors",
		otelmetric.WithDescription("Dedup cache operation failures"),
	)
	if err != nil {
		return nil, err
	}

	// NATS metrics
	m.NATSMessagesProcessed, err = meter.Int64Counter(
		"nats.messages.processed",
		otelmetric.WithDescription("NATS messages processed"),
	)
	if err != nil {
		return nil, err
	}

	m.NATSBatchSize, err = meter.Int64Histogram(
		"nats.batch.size",
		otelmetric.WithDescription("NATS batch sizes"),
	)
	if err != nil {
		return nil, err
	}

	m.NATSFlushLatency, err = meter.Float64Histogram(
		"nats.flush.latency",
		otelmetric.WithUnit("ms"),
		otelmetric.WithDescription("Batch flush latency in milliseconds"),
	)
	if err != nil {
		return nil, err
	}

	// Archive sink metrics
	m.ArchiveDuplicatesDropped, err = meter.Int64Counter(
		"archive.duplicates.dropped",
		otelmetric.WithDescription("Events dropped by the archive sink's seen-filter"),
	)
	if err != nil {
		return nil, err
	}

	m.S3FilesWritten, err = meter.Int64Counter(
		"s3.files.written",
		otelmetric.WithDescription("S3 files written"),
	)
	if err != nil {
		return nil, err
	}

	m.S3FileSize, err = meter.Int64Histogram(
		"s3.file.size",
		otelmetric.WithUnit("By"),
		otelmetric.WithDescription("S3 file sizes in bytes"),
	)
	if err != nil {
		return nil, err
	}

	return &m, nil
}
