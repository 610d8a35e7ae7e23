// Package events defines the event and project data model shared across
// the ingestion pipeline, transport, and archival components.
package events

import (
	"fmt"
	"strings"
)

// Event type constants. Clients may submit arbitrary types; these are the
// well-known ones produced by the official reporting clients.
const (
	TypeError    = "error"
	TypeLog      = "log"
	TypeUsage    = "usage"
	TypeSession  = "session"
	TypeNotFound = "404"

	TypeUnknown = "unknown"
)

// Event is a single inbound telemetry or error-report event.
//
// ReferenceID is a client-supplied opaque identifier meant to identify a
// logically identical event across retransmissions. It is optional; events
// without one are never deduplicated.
type Event struct {
	// ID is the server-assigned unique identifier (UUIDv7). Empty until
	// the enrichment plugin runs.
	ID string `json:"id,omitempty"`

	// ReferenceID is the client-supplied duplicate-tracking identifier.
	ReferenceID string `json:"reference_id,omitempty"`

	// Type categorizes the event (error, log, usage, session, 404, ...).
	Type string `json:"type"`

	// Source identifies where the event originated (e.g., a logger name
	// or the URL of a failed request).
	Source string `json:"source,omitempty"`

	// Message is the human-readable event message.
	Message string `json:"message,omitempty"`

	// TimestampMS is the event time in Unix milliseconds. Zero until the
	// enrichment plugin runs, unless supplied by the client.
	TimestampMS int64 `json:"timestamp_ms,omitempty"`

	// Tags are free-form labels attached by the client.
	Tags []string `json:"tags,omitempty"`

	// Data holds arbitrary payload fields. Opaque to the pipeline.
	Data map[string]any `json:"data,omitempty"`
}

// Project is the owning scope for events. Two projects may reuse the same
// reference identifier without colliding in the dedup keyspace.
type Project struct {
	// ID is the stable project identifier.
	ID string `json:"id"`

	// Name is a human-readable label.
	Name string `json:"name,omitempty"`
}

// NormalizeType lowercases the event type and maps empty values to
// TypeUnknown so subject derivation always yields a valid token.
func NormalizeType(eventType string) string {
	t := strings.ToLower(strings.TrimSpace(eventType))
	if t == "" {
		return TypeUnknown
	}
	return t
}

// DeriveSubject derives the NATS subject for an accepted event.
// Format: events.{project_id}.{type}.
func DeriveSubject(projectID, eventType string) string {
	return fmt.Sprintf("events.%s.%s",
		SanitizeSubjectToken(projectID),
		SanitizeSubjectToken(NormalizeType(eventType)),
	)
}

// SanitizeSubjectToken sanitizes a value for use as a NATS subject token.
func SanitizeSubjectToken(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, ".", "_")
	name = strings.ReplaceAll(name, ">", "_")
	name = strings.ReplaceAll(name, "*", "_")
	return name
}
