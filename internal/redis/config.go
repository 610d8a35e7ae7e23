// Package redis provides the shared Redis cache client backing the
// duplicate-suppression plugin in distributed deployments.
package redis

import (
	"time"
)

// Config holds Redis connection configuration.
type Config struct {
	// Addr is the Redis server address (host:port)
	Addr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	// Password is the Redis AUTH password (empty for no auth)
	Password string `env:"REDIS_PASSWORD" envDefault:""`

	// DB is the Redis logical database number
	DB int `env:"REDIS_DB" envDefault:"0"`

	// DialTimeout is the timeout for establishing a connection
	DialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`

	// ReadTimeout is the timeout for socket reads
	ReadTimeout time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`

	// WriteTimeout is the timeout for socket writes
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`

	// PoolSize is the maximum number of socket connections
	PoolSize int `env:"REDIS_POOL_SIZE" envDefault:"10"`
}
