package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"

	"github.com/beacon-telemetry/beacon/internal/events"
)

// EventRow is the flattened structure for Parquet storage.
// This schema is optimized for analytics queries via Hive/Athena.
type EventRow struct {
	// Event identity
	ID          string `parquet:"id,snappy"`
	ReferenceID string `parquet:"reference_id,snappy,optional"`
	ProjectID   string `parquet:"project_id,snappy,dict"`
	TimestampMS int64  `parquet:"timestamp_ms"`

	// Event classification
	EventType string `parquet:"event_type,snappy,dict"`
	Source    string `parquet:"source,snappy,optional"`

	// Message and labels
	Message string `parquet:"message,snappy,optional"`
	Tags    string `parquet:"tags,snappy,optional"`

	// Payload as JSON for ad-hoc querying
	DataJSON string `parquet:"data_json,snappy"`

	// Partition columns (for Hive partitioning)
	Year  int `parquet:"year,dict"`
	Month int `parquet:"month,dict"`
	Day   int `parquet:"day,dict"`
	Hour  int `parquet:"hour,dict"`
}

// EventRowFromEvent flattens an event into a Parquet row for the given
// partition.
func EventRowFromEvent(event *events.Event, projectID string, year, month, day, hour int) EventRow {
	row := EventRow{
		ID:          event.ID,
		ReferenceID: event.ReferenceID,
		ProjectID:   projectID,
		TimestampMS: event.TimestampMS,
		EventType:   event.Type,
		Source:      event.Source,
		Message:     event.Message,
		Tags:        strings.Join(event.Tags, ","),
		DataJSON:    serializeData(event.Data),
		Year:        year,
		Month:       month,
		Day:         day,
		Hour:        hour,
	}
	return row
}

// serializeData serializes the free-form data payload to JSON.
func serializeData(data map[string]any) string {
	if len(data) == 0 {
		return "{}"
	}

	out, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// ParquetWriter handles writing events to Parquet format.
type ParquetWriter struct {
	config ParquetConfig
}

// NewParquetWriter creates a new Parquet writer.
func NewParquetWriter(cfg ParquetConfig) *ParquetWriter {
	return &ParquetWriter{
		config: cfg,
	}
}

// Write writes a batch of event rows to Parquet format and returns the bytes.
func (w *ParquetWriter) Write(rows []EventRow) ([]byte, error) {
	if len(rows) == 0 {
		return nil, ErrNoRowsToWrite
	}

	var buf bytes.Buffer

	codec := w.getCompressionCodec()

	writer := parquet.NewGenericWriter[EventRow](&buf,
		parquet.Compression(codec),
		parquet.CreatedBy("beacon-archive-sink", "1.0.0", ""),
	)

	if _, err := writer.Write(rows); err != nil {
		return nil, fmt.Errorf("failed to write rows: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	return buf.Bytes(), nil
}

// getCompressionCodec returns the compression codec based on config.
func (w *ParquetWriter) getCompressionCodec() compress.Codec {
	switch w.config.Compression {
	case "snappy":
		return &parquet.Snappy
	case "gzip":
		return &parquet.Gzip
	case "zstd":
		return &parquet.Zstd
	case "none":
		return &parquet.Uncompressed
	default:
		return &parquet.Snappy
	}
}
