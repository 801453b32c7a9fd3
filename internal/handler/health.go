package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/penshort/usermcp/internal/datastore"
)

// readyTimeout bounds the dependency checks of one readiness probe.
const readyTimeout = 5 * time.Second

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// DataSource is checked for readiness and reports the loaded snapshot.
type DataSource interface {
	HealthChecker
	Stats() datastore.Stats
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	data   DataSource
	cache  HealthChecker
	logger *slog.Logger
}

// NewHealthHandler creates a new HealthHandler.
// Pass nil for cache when Redis is not configured. Check failures are
// logged in full; the response only reports "error".
func NewHealthHandler(data DataSource, cache HealthChecker, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{data: data, cache: cache, logger: logger}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
	Dataset *DatasetInfo      `json:"dataset,omitempty"`
}

// DatasetInfo summarises the snapshot being served.
type DatasetInfo struct {
	SnapshotID string    `json:"snapshot_id"`
	Rows       int       `json:"rows"`
	ModifiedAt time.Time `json:"modified_at"`
	LoadedAt   time.Time `json:"loaded_at"`
	Reloads    uint64    `json:"reloads"`
}

// Health is a liveness probe endpoint.
// It returns 200 while the process is serving, without dependency checks.
//
// GET /health, GET /healthz
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// Ready is a readiness probe endpoint.
// It returns 200 only when the data source can be served and Redis,
// if configured, answers.
//
// GET /ready, GET /readyz
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	checks := make(map[string]string, 2)
	ready := true

	if h.data == nil {
		checks["data_source"] = "not configured"
		ready = false
	} else if err := h.data.Ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "readiness check failed", "check", "data_source", "error", err)
		checks["data_source"] = "error"
		ready = false
	} else {
		checks["data_source"] = "ok"
	}

	if h.cache == nil {
		checks["redis"] = "not configured"
	} else if err := h.cache.Ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "readiness check failed", "check", "redis", "error", err)
		checks["redis"] = "error"
		ready = false
	} else {
		checks["redis"] = "ok"
	}

	response := HealthResponse{Status: "ready", Checks: checks}
	status := http.StatusOK
	if !ready {
		response.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}

	if h.data != nil {
		if st := h.data.Stats(); st.SnapshotID != "" {
			response.Dataset = &DatasetInfo{
				SnapshotID: st.SnapshotID,
				Rows:       st.Rows,
				ModifiedAt: st.ModTime,
				LoadedAt:   st.LoadedAt,
				Reloads:    st.Reloads,
			}
		}
	}

	writeJSON(w, status, response)
}
