package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// ErrDatabaseConnection indicates a database connection error.
var ErrDatabaseConnection = errors.New("database connection error")

// DBConfig holds PostgreSQL connection settings for the project registry.
type DBConfig struct {
	// Host is the PostgreSQL host
	Host string `env:"HOST" envDefault:"localhost"`

	// Port is the PostgreSQL port
	Port int `env:"PORT" envDefault:"5432"`

	// User is the database user
	User string `env:"USER" envDefault:"beacon"`

	// Password is the database password
	Password string `env:"PASSWORD" envDefault:"beacon"`

	// Name is the database name
	Name string `env:"NAME" envDefault:"beacon"`

	// SSLMode is the SSL mode (disable, require, verify-ca, verify-full)
	SSLMode string `env:"SSL_MODE" envDefault:"disable"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `env:"MAX_OPEN_CONNS" envDefault:"25"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `env:"MAX_IDLE_CONNS" envDefault:"5"`

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
}

// DBClient wraps the PostgreSQL connection backing the project registry.
type DBClient struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDBClient opens and verifies a PostgreSQL connection.
func NewDBClient(ctx context.Context, cfg DBConfig, logger *slog.Logger) (*DBClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "projects-db")

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrDatabaseConnection, err)
	}

	logger.Info("connected to database",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Name,
	)

	return &DBClient{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the database connection.
func (c *DBClient) Close() error {
	return c.db.Close()
}

// DB returns the underlying database handle for use by repository structs.
func (c *DBClient) DB() *sql.DB {
	return c.db
}

// HealthCheck checks if the database connection is still alive.
func (c *DBClient) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.db.PingContext(ctx)
}
