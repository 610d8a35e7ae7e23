package projects

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/beacon-telemetry/beacon/internal/projects/internal/domain"
	"github.com/beacon-telemetry/beacon/internal/projects/internal/handler"
	"github.com/beacon-telemetry/beacon/internal/projects/internal/repo"
	"github.com/beacon-telemetry/beacon/internal/projects/internal/service"
)

// Module is the projects module facade. It wires together the domain,
// service, repository, and handler layers, and exposes the public API for
// project registration, key management, and HTTP middleware.
type Module struct {
	service *service.ProjectService
	repo    *repo.ProjectRepository
	handler *handler.AdminHandler
	logger  *slog.Logger
}

// New creates a new projects Module. It initializes the PostgreSQL
// repository, project service, and admin handler.
func New(db *sql.DB, logger *slog.Logger) *Module {
	if logger == nil {
		logger = slog.Default()
	}

	projectRepo := repo.NewProjectRepository(db)
	projectSvc := service.NewProjectService(projectRepo, logger)
	adminHandler := handler.NewAdminHandler(projectSvc, logger)

	return &Module{
		service: projectSvc,
		repo:    projectRepo,
		handler: adminHandler,
		logger:  logger.With("component", "projects-module"),
	}
}

// CreateProject registers a new project.
func (m *Module) CreateProject(ctx context.Context, id, name string) (*domain.Project, error) {
	return m.service.CreateProject(ctx, id, name)
}

// GetProject returns a project by ID.
func (m *Module) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	return m.service.GetProject(ctx, id)
}

// ListProjects returns all registered projects.
func (m *Module) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return m.service.ListProjects(ctx)
}

// CreateKey generates a new API key for the given project. The returned
// plaintext key must be shown to the user once and cannot be retrieved again.
func (m *Module) CreateKey(ctx context.Context, projectID, name string) (string, error) {
	plaintext, _, err := m.service.CreateKey(ctx, projectID, name)
	if err != nil {
		return "", err
	}
	return plaintext, nil
}

// RevokeKey revokes an API key by its ID.
func (m *Module) RevokeKey(ctx context.Context, id string) error {
	return m.service.RevokeKey(ctx, id)
}

// ListKeys returns all API keys for the given project ID.
func (m *Module) ListKeys(ctx context.Context, projectID string) ([]domain.APIKey, error) {
	return m.service.ListKeys(ctx, projectID)
}

// AuthMiddleware returns HTTP middleware that validates API keys from the
// X-API-Key header and injects the authenticated project into the request
// context. Health, readiness, and metrics endpoints are excluded from auth.
func (m *Module) AuthMiddleware() func(http.Handler) http.Handler {
	return m.authMiddleware()
}

// RegisterAdminRoutes mounts the admin project and API key management
// endpoints onto the given ServeMux.
func (m *Module) RegisterAdminRoutes(mux *http.ServeMux) {
	m.handler.RegisterRoutes(mux)
}
