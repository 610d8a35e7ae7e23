// Package pipeline implements the plugin chain every inbound event passes
// through before being accepted onto the event stream. Plugins run in
// ascending priority order; any pre-processing hook may cancel the event's
// context, which stops the remaining pre-processing hooks and prevents the
// event from being accepted. Post-processing hooks always run, cancelled or
// not, so plugins can finalize their own bookkeeping.
package pipeline

import "context"

// Plugin is a unit of pipeline logic. Implementations are registered once at
// startup and shared across all concurrent pipeline passes, so they must not
// hold per-call mutable state; all per-call state lives in the EventContext.
type Plugin interface {
	// Name identifies the plugin in logs and metrics.
	Name() string

	// Priority orders plugin execution; lower values run first. Ties are
	// broken by registration order. Evaluated once at registration time.
	Priority() int

	// PreProcess runs before the event is accepted. It may cancel the
	// event context. A returned error aborts this plugin's participation
	// for the current pass; wrap it with Fatal to abort the whole pass.
	PreProcess(ctx context.Context, ec *EventContext) error

	// PostProcess runs after the acceptance decision, regardless of
	// whether the context was cancelled.
	PostProcess(ctx context.Context, ec *EventContext) error
}
