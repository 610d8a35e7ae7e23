package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/beacon-telemetry/beacon/internal/events"
	"github.com/beacon-telemetry/beacon/internal/observability"
	"github.com/beacon-telemetry/beacon/internal/projects"
)

// HealthChecker reports the health of a backing dependency.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server is the ingestion HTTP server. It owns the route table and the
// middleware chain; the actual ingestion work happens in EventService.
type Server struct {
	config    Config
	service   *EventService
	projects  *projects.Module
	obs       *observability.Module
	metrics   *observability.Metrics
	readiness map[string]HealthChecker
	logger    *slog.Logger
	httpSrv   *http.Server
}

// NewServer creates the gateway server. The readiness map associates a
// dependency name with its health check; all checks must pass for /ready
// to report ready.
func NewServer(
	cfg Config,
	svc *EventService,
	projectsMod *projects.Module,
	obs *observability.Module,
	metrics *observability.Metrics,
	readiness map[string]HealthChecker,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:    cfg,
		service:   svc,
		projects:  projectsMod,
		obs:       obs,
		metrics:   metrics,
		readiness: readiness,
		logger:    logger.With("component", "gateway"),
	}

	s.httpSrv = &http.Server{
		Addr:           cfg.Addr,
		Handler:        s.buildHandler(),
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	return s
}

func (s *Server) buildHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/events", s.handleIngest)
	mux.HandleFunc("POST /api/v1/events/batch", s.handleIngestBatch)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)

	if s.obs != nil {
		mux.Handle("GET /metrics", s.obs.MetricsHandler())
	}

	if s.projects != nil {
		s.projects.RegisterAdminRoutes(mux)
	}

	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID,
		CORS(s.config.CORS),
		RateLimit(s.config.RateLimit),
	}
	if s.metrics != nil {
		middlewares = append(middlewares, observability.HTTPMetrics(s.metrics))
	}
	if s.projects != nil {
		middlewares = append(middlewares, s.projects.AuthMiddleware())
	}
	middlewares = append(middlewares,
		PerKeyRateLimit(s.config.RateLimit),
		BodySizeLimit(s.config.MaxBodyBytes),
	)

	return Chain(mux, middlewares...)
}

// Start begins serving. It blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("gateway listening", "addr", s.config.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}

// handleIngest handles POST /api/v1/events with a single event body.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	project := projects.FromContext(r.Context())
	if project == nil {
		writeError(w, http.StatusUnauthorized, "missing project")
		return
	}

	var event events.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event body")
		return
	}

	result, err := s.service.IngestEvent(r.Context(), project, &event)
	if err != nil {
		s.logger.Error("ingestion failed",
			"project_id", project.ID,
			"request_id", GetRequestID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusServiceUnavailable, "failed to ingest event")
		return
	}

	writeResponse(w, http.StatusAccepted, result)
}

// batchRequest is the JSON request body for batch ingestion.
type batchRequest struct {
	Events []*events.Event `json:"events"`
}

// handleIngestBatch handles POST /api/v1/events/batch.
func (s *Server) handleIngestBatch(w http.ResponseWriter, r *http.Request) {
	project := projects.FromContext(r.Context())
	if project == nil {
		writeError(w, http.StatusUnauthorized, "missing project")
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid batch body")
		return
	}

	if len(req.Events) == 0 {
		writeError(w, http.StatusBadRequest, ErrAtLeastOneEvent.Error())
		return
	}
	if s.config.MaxBatchSize > 0 && len(req.Events) > s.config.MaxBatchSize {
		writeError(w, http.StatusBadRequest, ErrBatchTooLarge.Error())
		return
	}

	result, err := s.service.IngestEventBatch(r.Context(), project, req.Events)
	if err != nil {
		s.logger.Error("batch ingestion failed",
			"project_id", project.ID,
			"request_id", GetRequestID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusServiceUnavailable, "failed to ingest batch")
		return
	}

	writeResponse(w, http.StatusAccepted, result)
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady is the readiness probe; it checks every registered dependency.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	failures := make(map[string]string)
	for name, check := range s.readiness {
		if err := check.HealthCheck(r.Context()); err != nil {
			failures[name] = err.Error()
		}
	}

	if len(failures) > 0 {
		writeResponse(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "not ready",
			"failures": failures,
		})
		return
	}

	writeResponse(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeResponse(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeResponse(w, status, map[string]string{"error": message})
}
