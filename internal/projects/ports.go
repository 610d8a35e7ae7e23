// Package projects provides the project registry and API key authentication
// for the Beacon platform. It follows the hexagonal architecture pattern with
// ports (interfaces) and adapters (HTTP middleware, PostgreSQL repository).
package projects

import (
	"context"

	"github.com/beacon-telemetry/beacon/internal/projects/internal/domain"
)

// Store defines the port for project and API key persistence operations.
type Store interface {
	// CreateProject persists a new project.
	CreateProject(ctx context.Context, p *domain.Project) error

	// FindProject retrieves a project by ID; nil, nil when absent.
	FindProject(ctx context.Context, id string) (*domain.Project, error)

	// ListProjects returns all projects, newest first.
	ListProjects(ctx context.Context) ([]domain.Project, error)

	// FindProjectByKeyHash resolves an active API key hash to its owning
	// project; nil, nil when the hash matches no active key.
	FindProjectByKeyHash(ctx context.Context, keyHash string) (*domain.Project, error)

	// CreateKey persists a new API key.
	CreateKey(ctx context.Context, key *domain.APIKey) error

	// RevokeKey marks an API key as revoked.
	RevokeKey(ctx context.Context, id string) error

	// ListKeysByProject returns all API keys for a given project, newest first.
	ListKeysByProject(ctx context.Context, projectID string) ([]domain.APIKey, error)
}

// contextKey is an unexported type for context keys to avoid collisions.
type contextKey string

// projectContextKey is the context key under which the authenticated
// project is injected into the request context.
const projectContextKey contextKey = "project"
