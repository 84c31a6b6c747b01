package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/filipkrasniqi/networkcovid/internal/infrastructure"
)

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	version string
	service ReportServiceInterface
	runtime *infrastructure.RuntimeMetrics
	logger  *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                       `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Version   string                       `json:"version"`
	Dataset   *DatasetHealth               `json:"dataset,omitempty"`
	Runtime   *infrastructure.RuntimeStats `json:"runtime,omitempty"`
}

// DatasetHealth reports whether the in-memory dataset is usable.
type DatasetHealth struct {
	Loaded bool `json:"loaded"`
	Rows   int  `json:"rows"`
	Cells  int  `json:"cells"`
}

// NewHealthHandler creates a new health handler. runtime may be nil.
func NewHealthHandler(version string, service ReportServiceInterface, runtime *infrastructure.RuntimeMetrics, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		version: version,
		service: service,
		runtime: runtime,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck handles GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
		Dataset:   &DatasetHealth{},
	}

	if ds := h.service.Dataset(); ds != nil {
		status.Dataset.Loaded = true
		status.Dataset.Rows = ds.Summary.DataPoints
		status.Dataset.Cells = ds.Summary.DistinctCells
	} else {
		status.Status = "degraded"
		h.logger.WarnContext(r.Context(), "Health check without dataset")
	}

	if h.runtime != nil {
		stats := h.runtime.Last(r.Context())
		status.Runtime = &stats
	}

	render.JSON(w, r, status)
}
