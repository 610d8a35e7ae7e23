package projects

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/beacon-telemetry/beacon/internal/events"
	"github.com/beacon-telemetry/beacon/internal/projects/internal/domain"
)

// skipAuthPaths lists URL path prefixes that bypass API key authentication.
// Infrastructure endpoints must stay reachable without a key, and the admin
// endpoints bootstrap the first key so they cannot require one yet.
var skipAuthPaths = []string{
	"/health",
	"/ready",
	"/metrics",
	"/api/admin",
}

// authMiddleware returns HTTP middleware that validates the X-API-Key header.
// On success it injects the authenticated project into the request context.
// On failure it returns 401 Unauthorized with a JSON error body.
func (m *Module) authMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range skipAuthPaths {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				writeAuthError(w, "missing API key")
				return
			}

			// Validate key format before hashing
			if !domain.ValidateKeyFormat(apiKey) {
				writeAuthError(w, "invalid API key")
				return
			}

			keyHash := domain.HashKey(apiKey)

			project, err := m.service.Authenticate(r.Context(), keyHash)
			if err != nil {
				m.logger.Error("failed to validate API key",
					"error", err,
					"path", r.URL.Path,
				)
				writeAuthError(w, "invalid API key")
				return
			}

			if project == nil {
				writeAuthError(w, "invalid API key")
				return
			}

			ctx := ContextWithProject(r.Context(), &events.Project{
				ID:   project.ID,
				Name: project.Name,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextWithProject returns a context carrying the given project. Exposed
// so handlers and tests can build authenticated contexts directly.
func ContextWithProject(ctx context.Context, p *events.Project) context.Context {
	return context.WithValue(ctx, projectContextKey, p)
}

// FromContext retrieves the authenticated project from the request context.
// Returns nil if no project is present (e.g., unauthenticated request).
func FromContext(ctx context.Context) *events.Project {
	if p, ok := ctx.Value(projectContextKey).(*events.Project); ok {
		return p
	}
	return nil
}

// writeAuthError writes a 401 Unauthorized JSON response.
func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
