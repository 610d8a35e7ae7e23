package nats

import (
	"encoding/json"
	"testing"

	"github.com/beacon-telemetry/beacon/internal/events"
)

func TestEventWireFormat(t *testing.T) {
	ev := &events.Event{
		ID:          "0191b2c3-0000-7000-8000-000000000001",
		ReferenceID: "ref-42",
		Type:        events.TypeError,
		Message:     "nil pointer dereference",
		TimestampMS: 1724500000000,
		Tags:        []string{"prod"},
		Data:        map[string]any{"stack": "main.go:42"},
	}

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded events.Event
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.ID != ev.ID || decoded.ReferenceID != ev.ReferenceID || decoded.Type != ev.Type {
		t.Errorf("decoded event = %+v, want identity fields of %+v", decoded, ev)
	}
}

func TestPublishSubjects(t *testing.T) {
	tests := []struct {
		name      string
		projectID string
		eventType string
		want      string
	}{
		{"error event", "acme", "error", "events.acme.error"},
		{"session event", "acme", "session", "events.acme.session"},
		{"dotted project", "com.acme.shop", "log", "events.com_acme_shop.log"},
		{"unknown type", "acme", "", "events.acme.unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := events.DeriveSubject(tt.projectID, tt.eventType)
			if got != tt.want {
				t.Errorf("DeriveSubject(%q, %q) = %q, want %q", tt.projectID, tt.eventType, got, tt.want)
			}
		})
	}
}
