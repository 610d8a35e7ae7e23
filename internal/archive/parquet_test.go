package archive

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/beacon-telemetry/beacon/internal/events"
)

func TestEventRowFromEvent(t *testing.T) {
	ts := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC).UnixMilli()

	tests := []struct {
		name  string
		event *events.Event
		want  EventRow
	}{
		{
			name: "full event",
			event: &events.Event{
				ID:          "event-1",
				ReferenceID: "ref-1",
				Type:        "error",
				Source:      "sdk-go",
				Message:     "connection refused",
				TimestampMS: ts,
				Tags:        []string{"prod", "us-east"},
				Data:        map[string]any{"attempt": float64(3)},
			},
			want: EventRow{
				ID:          "event-1",
				ReferenceID: "ref-1",
				ProjectID:   "acme",
				TimestampMS: ts,
				EventType:   "error",
				Source:      "sdk-go",
				Message:     "connection refused",
				Tags:        "prod,us-east",
				DataJSON:    `{"attempt":3}`,
				Year:        2026,
				Month:       1,
				Day:         15,
				Hour:        10,
			},
		},
		{
			name: "minimal event",
			event: &events.Event{
				ID:          "event-2",
				Type:        "log",
				TimestampMS: ts,
			},
			want: EventRow{
				ID:          "event-2",
				ProjectID:   "acme",
				TimestampMS: ts,
				EventType:   "log",
				DataJSON:    "{}",
				Year:        2026,
				Month:       1,
				Day:         15,
				Hour:        10,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EventRowFromEvent(tt.event, "acme", 2026, 1, 15, 10)
			if got != tt.want {
				t.Errorf("EventRowFromEvent() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSerializeData(t *testing.T) {
	if got := serializeData(nil); got != "{}" {
		t.Errorf("serializeData(nil) = %q, want %q", got, "{}")
	}
	if got := serializeData(map[string]any{}); got != "{}" {
		t.Errorf("serializeData(empty) = %q, want %q", got, "{}")
	}
	if got := serializeData(map[string]any{"k": "v"}); got != `{"k":"v"}` {
		t.Errorf("serializeData = %q, want %q", got, `{"k":"v"}`)
	}
}

func TestParquetWriter_Write(t *testing.T) {
	w := NewParquetWriter(ParquetConfig{
		Compression:  "snappy",
		RowGroupSize: 1024,
	})

	rows := []EventRow{
		{
			ID:          "event-1",
			ProjectID:   "acme",
			TimestampMS: time.Now().UnixMilli(),
			EventType:   "error",
			DataJSON:    "{}",
			Year:        2026,
			Month:       1,
			Day:         15,
			Hour:        10,
		},
		{
			ID:          "event-2",
			ProjectID:   "acme",
			TimestampMS: time.Now().UnixMilli(),
			EventType:   "log",
			DataJSON:    `{"level":"info"}`,
			Year:        2026,
			Month:       1,
			Day:         15,
			Hour:        10,
		},
	}

	data, err := w.Write(rows)
	if err != nil {
		t.Fatalf("Write() returned error: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Write() returned empty data")
	}

	// Parquet files start and end with the magic bytes "PAR1"
	magic := []byte("PAR1")
	if !bytes.HasPrefix(data, magic) {
		t.Error("Output does not start with Parquet magic bytes")
	}
	if !bytes.HasSuffix(data, magic) {
		t.Error("Output does not end with Parquet magic bytes")
	}
}

func TestParquetWriter_WriteEmpty(t *testing.T) {
	w := NewParquetWriter(ParquetConfig{Compression: "snappy"})

	_, err := w.Write(nil)
	if !errors.Is(err, ErrNoRowsToWrite) {
		t.Errorf("Write(nil) error = %v, want ErrNoRowsToWrite", err)
	}
}

func TestParquetWriter_CompressionCodecs(t *testing.T) {
	row := EventRow{
		ID:          "event-1",
		ProjectID:   "acme",
		TimestampMS: time.Now().UnixMilli(),
		EventType:   "error",
		DataJSON:    "{}",
		Year:        2026,
		Month:       1,
		Day:         15,
		Hour:        10,
	}

	for _, compression := range []string{"snappy", "gzip", "zstd", "none", "bogus"} {
		t.Run(compression, func(t *testing.T) {
			w := NewParquetWriter(ParquetConfig{Compression: compression})
			data, err := w.Write([]EventRow{row})
			if err != nil {
				t.Fatalf("Write() with %s compression returned error: %v", compression, err)
			}
			if len(data) == 0 {
				t.Errorf("Write() with %s compression returned empty data", compression)
			}
		})
	}
}
