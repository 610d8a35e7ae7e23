package redis

import "errors"

// Sentinel errors for the redis package.
var (
	ErrNotConnected = errors.New("redis is not connected")
)
