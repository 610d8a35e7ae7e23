// Package handler provides HTTP handlers for admin project and API key
// management.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/beacon-telemetry/beacon/internal/projects/internal/service"
)

// AdminHandler handles HTTP requests for project registration and API key
// management.
type AdminHandler struct {
	service *service.ProjectService
	logger  *slog.Logger
}

// NewAdminHandler creates a new AdminHandler with the given service and
// logger.
func NewAdminHandler(svc *service.ProjectService, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{
		service: svc,
		logger:  logger.With("component", "admin-handler"),
	}
}

// RegisterRoutes mounts admin endpoints on the given ServeMux.
//
// Endpoints:
//   - POST   /api/admin/projects       - Register a new project
//   - GET    /api/admin/projects       - List projects
//   - GET    /api/admin/projects/{id}  - Get a project
//   - POST   /api/admin/keys           - Create a new API key
//   - DELETE /api/admin/keys/{id}      - Revoke an API key
//   - GET    /api/admin/keys           - List API keys for a project
//
// TODO(phase-3): Protect these endpoints with session auth + RBAC.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/admin/projects", h.handleCreateProject)
	mux.HandleFunc("GET /api/admin/projects", h.handleListProjects)
	mux.HandleFunc("GET /api/admin/projects/{id}", h.handleGetProject)
	mux.HandleFunc("POST /api/admin/keys", h.handleCreateKey)
	mux.HandleFunc("DELETE /api/admin/keys/{id}", h.handleRevokeKey)
	mux.HandleFunc("GET /api/admin/keys", h.handleListKeys)
}

type createProjectRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type projectResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

func (h *AdminHandler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
		return
	}

	p, err := h.service.CreateProject(r.Context(), req.ID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidProjectID):
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "project id must be a lowercase slug (1-64 chars)",
			})
		case errors.Is(err, service.ErrProjectExists):
			writeJSON(w, http.StatusConflict, map[string]string{
				"error": "project already exists",
			})
		default:
			h.logger.Error("failed to create project",
				"project_id", req.ID,
				"error", err,
			)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to create project",
			})
		}
		return
	}

	writeJSON(w, http.StatusCreated, projectResponse{ID: p.ID, Name: p.Name})
}

func (h *AdminHandler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	p, err := h.service.GetProject(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProjectNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "project not found",
			})
			return
		}
		h.logger.Error("failed to get project", "project_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get project",
		})
		return
	}

	writeJSON(w, http.StatusOK, projectResponse{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	})
}

func (h *AdminHandler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListProjects(r.Context())
	if err != nil {
		h.logger.Error("failed to list projects", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list projects",
		})
		return
	}

	items := make([]projectResponse, len(list))
	for i, p := range list {
		items[i] = projectResponse{
			ID:        p.ID,
			Name:      p.Name,
			CreatedAt: p.CreatedAt.Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"projects": items,
		"count":    len(items),
	})
}

// createKeyRequest is the JSON request body for creating a new API key.
type createKeyRequest struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
}

// createKeyResponse is the JSON response for a newly created API key.
// The plaintext key is only returned once at creation time.
type createKeyResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Key       string `json:"key"`
	Message   string `json:"message"`
}

func (h *AdminHandler) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
		return
	}

	if req.ProjectID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "project_id is required",
		})
		return
	}

	plaintext, key, err := h.service.CreateKey(r.Context(), req.ProjectID, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrProjectNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "project not found",
			})
			return
		}
		h.logger.Error("failed to create API key",
			"project_id", req.ProjectID,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to create API key",
		})
		return
	}

	writeJSON(w, http.StatusCreated, createKeyResponse{
		ID:        key.ID,
		ProjectID: key.ProjectID,
		Name:      key.Name,
		Key:       plaintext,
		Message:   "Store this key securely. It will not be shown again.",
	})
}

func (h *AdminHandler) handleRevokeKey(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "key id is required",
		})
		return
	}

	if err := h.service.RevokeKey(r.Context(), id); err != nil {
		h.logger.Error("failed to revoke API key",
			"key_id", id,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to revoke API key",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "revoked",
		"id":     id,
	})
}

func (h *AdminHandler) handleListKeys(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "project_id query parameter is required",
		})
		return
	}

	keys, err := h.service.ListKeys(r.Context(), projectID)
	if err != nil {
		h.logger.Error("failed to list API keys",
			"project_id", projectID,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list API keys",
		})
		return
	}

	// Build response that never exposes key hashes
	type keyItem struct {
		ID        string  `json:"id"`
		ProjectID string  `json:"project_id"`
		Name      string  `json:"name"`
		Revoked   bool    `json:"revoked"`
		CreatedAt string  `json:"created_at"`
		RevokedAt *string `json:"revoked_at,omitempty"`
	}

	items := make([]keyItem, len(keys))
	for i, k := range keys {
		item := keyItem{
			ID:        k.ID,
			ProjectID: k.ProjectID,
			Name:      k.Name,
			Revoked:   k.Revoked,
			CreatedAt: k.CreatedAt.Format(time.RFC3339),
		}
		if k.RevokedAt != nil {
			formatted := k.RevokedAt.Format(time.RFC3339)
			item.RevokedAt = &formatted
		}
		items[i] = item
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"keys":  items,
		"count": len(items),
	})
}

// writeJSON writes a JSON response with the given status code and body.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
