// Package service contains the business logic for project and API key
// operations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/beacon-telemetry/beacon/internal/projects/internal/domain"
)

// Store defines the port for project and key persistence. This mirrors the
// top-level projects.Store interface to avoid import cycles.
type Store interface {
	CreateProject(ctx context.Context, p *domain.Project) error
	FindProject(ctx context.Context, id string) (*domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	FindProjectByKeyHash(ctx context.Context, keyHash string) (*domain.Project, error)
	CreateKey(ctx context.Context, key *domain.APIKey) error
	RevokeKey(ctx context.Context, id string) error
	ListKeysByProject(ctx context.Context, projectID string) ([]domain.APIKey, error)
}

// Common errors returned by ProjectService methods.
var (
	ErrInvalidProjectID = errors.New("invalid project id")
	ErrProjectNotFound  = errors.New("project not found")
	ErrProjectExists    = errors.New("project already exists")
	ErrEmptyProjectID   = errors.New("project_id is required")
)

// ProjectService provides business logic for project registration and API
// key management.
type ProjectService struct {
	store  Store
	logger *slog.Logger
}

// NewProjectService creates a new ProjectService with the given store and
// logger.
func NewProjectService(store Store, logger *slog.Logger) *ProjectService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectService{
		store:  store,
		logger: logger.With("component", "project-service"),
	}
}

// CreateProject registers a new project with the given ID and name.
func (s *ProjectService) CreateProject(ctx context.Context, id, name string) (*domain.Project, error) {
	if !domain.ValidateProjectID(id) {
		return nil, ErrInvalidProjectID
	}

	existing, err := s.store.FindProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check project: %w", err)
	}
	if existing != nil {
		return nil, ErrProjectExists
	}

	p := &domain.Project{ID: id, Name: name}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to store project: %w", err)
	}

	s.logger.Info("project created", "project_id", id, "name", name)

	return p, nil
}

// GetProject returns a project by ID, or ErrProjectNotFound.
func (s *ProjectService) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	if id == "" {
		return nil, ErrEmptyProjectID
	}

	p, err := s.store.FindProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	if p == nil {
		return nil, ErrProjectNotFound
	}

	return p, nil
}

// ListProjects returns all registered projects.
func (s *ProjectService) ListProjects(ctx context.Context) ([]domain.Project, error) {
	out, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return out, nil
}

// Authenticate resolves an API key hash to its owning project. It returns
// nil, nil when the hash matches no active key; the caller treats that as
// an authentication failure.
func (s *ProjectService) Authenticate(ctx context.Context, keyHash string) (*domain.Project, error) {
	p, err := s.store.FindProjectByKeyHash(ctx, keyHash)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve key: %w", err)
	}
	return p, nil
}

// CreateKey generates a new API key for the given project. It returns the
// plaintext key (to be shown once to the user) and the persisted record.
func (s *ProjectService) CreateKey(ctx context.Context, projectID, name string) (plaintext string, key *domain.APIKey, err error) {
	if projectID == "" {
		return "", nil, ErrEmptyProjectID
	}

	if _, err := s.GetProject(ctx, projectID); err != nil {
		return "", nil, err
	}

	plaintext, hash, err := domain.GenerateKey()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate key: %w", err)
	}

	key = &domain.APIKey{
		ID:        uuid.Must(uuid.NewV7()).String(),
		ProjectID: projectID,
		KeyHash:   hash,
		Name:      name,
	}

	if err := s.store.CreateKey(ctx, key); err != nil {
		return "", nil, fmt.Errorf("failed to store key: %w", err)
	}

	s.logger.Info("api key created",
		"key_id", key.ID,
		"project_id", projectID,
		"name", name,
	)

	return plaintext, key, nil
}

// RevokeKey revokes an API key by its ID.
func (s *ProjectService) RevokeKey(ctx context.Context, id string) error {
	if err := s.store.RevokeKey(ctx, id); err != nil {
		return fmt.Errorf("failed to revoke key: %w", err)
	}

	s.logger.Info("api key revoked", "key_id", id)
	return nil
}

// ListKeys returns all API keys for the given project ID.
func (s *ProjectService) ListKeys(ctx context.Context, projectID string) ([]domain.APIKey, error) {
	if projectID == "" {
		return nil, ErrEmptyProjectID
	}

	keys, err := s.store.ListKeysByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	return keys, nil
}
