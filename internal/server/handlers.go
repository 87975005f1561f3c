package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashita-ai/runexport/internal/model"
)

// RunStore is the read side of the run table used by the handlers.
// *storage.DB satisfies it.
type RunStore interface {
	ExportRuns(ctx context.Context, p model.ExportParams) ([]model.ExportRow, error)
	Ping(ctx context.Context) error
}

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	store       RunStore
	logger      *slog.Logger
	startedAt   time.Time
	version     string
	openapiSpec []byte
}

// HandlersDeps holds all dependencies for constructing Handlers.
// Optional (nil-safe): OpenAPISpec.
type HandlersDeps struct {
	Store       RunStore
	Logger      *slog.Logger
	Version     string
	OpenAPISpec []byte
}

// NewHandlers creates a new Handlers with all dependencies.
func NewHandlers(d HandlersDeps) *Handlers {
	return &Handlers{
		store:       d.Store,
		logger:      d.Logger,
		startedAt:   time.Now(),
		version:     d.Version,
		openapiSpec: d.OpenAPISpec,
	}
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := model.HealthResponse{
		Status:   "healthy",
		Version:  h.version,
		Postgres: "connected",
		Uptime:   int64(time.Since(h.startedAt).Seconds()),
	}
	status := http.StatusOK

	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("health: postgres ping failed", "error", err)
		resp.Status = "unhealthy"
		resp.Postgres = "disconnected"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}

// HandleOpenAPISpec serves the embedded OpenAPI specification.
func (h *Handlers) HandleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	if len(h.openapiSpec) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.openapiSpec)
}

// writeInternalError logs err with the request ID and answers 500 without
// leaking the cause to the client.
func (h *Handlers) writeInternalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		"error", err,
		"request_id", RequestIDFromContext(r.Context()),
		"path", r.URL.Path,
	)
	writeError(w, http.StatusInternalServerError, model.ErrMsgInternal)
}
