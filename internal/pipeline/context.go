package pipeline

import (
	"github.com/beacon-telemetry/beacon/internal/events"
)

// EventContext is the mutable unit of work flowing through one pipeline
// pass. It is exclusively owned by that pass and must not be shared across
// concurrent submissions; hooks for one context execute strictly
// sequentially, so no locking is needed.
type EventContext struct {
	event   *events.Event
	project *events.Project

	// cancelled moves only forward: once set it is never reset within
	// the same pass.
	cancelled bool

	// failed tracks plugins whose hook errored this pass; their remaining
	// hooks are skipped.
	failed map[string]struct{}
}

// NewEventContext wraps one event and its owning project for a pipeline pass.
func NewEventContext(event *events.Event, project *events.Project) *EventContext {
	return &EventContext{
		event:   event,
		project: project,
	}
}

// Event returns the event under processing.
func (c *EventContext) Event() *events.Event {
	return c.event
}

// Project returns the project that owns the event.
func (c *EventContext) Project() *events.Project {
	return c.project
}

// Cancel marks the event as not-to-be-accepted. Remaining pre-processing
// hooks are skipped; post-processing hooks still run.
func (c *EventContext) Cancel() {
	c.cancelled = true
}

// Cancelled reports whether the event has been cancelled.
func (c *EventContext) Cancelled() bool {
	return c.cancelled
}

// markFailed records that the named plugin's hook errored this pass.
func (c *EventContext) markFailed(name string) {
	if c.failed == nil {
		c.failed = make(map[string]struct{})
	}
	c.failed[name] = struct{}{}
}

// hasFailed reports whether the named plugin errored earlier this pass.
func (c *EventContext) hasFailed(name string) bool {
	_, ok := c.failed[name]
	return ok
}
