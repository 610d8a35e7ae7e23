package gateway

import "errors"

// Sentinel errors for the gateway package.
var (
	ErrEventRequired   = errors.New("event is required")
	ErrAtLeastOneEvent = errors.New("at least one event is required")
	ErrBatchTooLarge   = errors.New("batch exceeds maximum event count")
	ErrProjectRequired = errors.New("project is required")
)
