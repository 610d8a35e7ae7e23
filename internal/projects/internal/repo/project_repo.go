// Package repo provides the PostgreSQL implementation of the project and
// API key stores.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/beacon-telemetry/beacon/internal/projects/internal/domain"
)

// ProjectRepository implements the project and key store ports using
// PostgreSQL.
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new ProjectRepository backed by the given
// database.
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// CreateProject inserts a new project record.
func (r *ProjectRepository) CreateProject(ctx context.Context, p *domain.Project) error {
	query := `
		INSERT INTO projects (id, name)
		VALUES ($1, $2)
	`

	_, err := r.db.ExecContext(ctx, query, p.ID, p.Name)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}

	return nil
}

// FindProject retrieves a project by ID. Returns nil, nil if not found.
func (r *ProjectRepository) FindProject(ctx context.Context, id string) (*domain.Project, error) {
	query := `
		SELECT id, name, created_at
		FROM projects
		WHERE id = $1
	`

	var p domain.Project
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project: %w", err)
	}

	return &p, nil
}

// ListProjects returns all projects ordered by creation date descending.
func (r *ProjectRepository) ListProjects(ctx context.Context) ([]domain.Project, error) {
	query := `
		SELECT id, name, created_at
		FROM projects
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var out []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return out, nil
}

// FindProjectByKeyHash resolves an active (non-revoked) API key hash to its
// owning project in a single query. Returns nil, nil if the hash matches no
// active key.
func (r *ProjectRepository) FindProjectByKeyHash(ctx context.Context, keyHash string) (*domain.Project, error) {
	query := `
		SELECT p.id, p.name, p.created_at
		FROM api_keys k
		JOIN projects p ON p.id = k.project_id
		WHERE k.key_hash = $1 AND NOT k.revoked
	`

	var p domain.Project
	err := r.db.QueryRowContext(ctx, query, keyHash).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project by key hash: %w", err)
	}

	return &p, nil
}

// CreateKey inserts a new API key record.
func (r *ProjectRepository) CreateKey(ctx context.Context, key *domain.APIKey) error {
	query := `
		INSERT INTO api_keys (id, project_id, key_hash, name)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query, key.ID, key.ProjectID, key.KeyHash, key.Name)
	if err != nil {
		return fmt.Errorf("failed to insert api key: %w", err)
	}

	return nil
}

// RevokeKey marks an API key as revoked by setting revoked=true and
// revoked_at=now().
func (r *ProjectRepository) RevokeKey(ctx context.Context, id string) error {
	query := `
		UPDATE api_keys SET revoked = true, revoked_at = now()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("api key not found: %s", id)
	}

	return nil
}

// ListKeysByProject returns all API keys for the given project, ordered by
// creation date descending.
func (r *ProjectRepository) ListKeysByProject(ctx context.Context, projectID string) ([]domain.APIKey, error) {
	query := `
		SELECT id, project_id, key_hash, name, revoked, created_at, revoked_at
		FROM api_keys
		WHERE project_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query api keys by project: %w", err)
	}
	defer rows.Close()

	var keys []domain.APIKey
	for rows.Next() {
		var key domain.APIKey
		if err := rows.Scan(
			&key.ID,
			&key.ProjectID,
			&key.KeyHash,
			&key.Name,
			&key.Revoked,
			&key.CreatedAt,
			&key.RevokedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating api keys: %w", err)
	}

	return keys, nil
}
