package http

import (
	"bytes"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "github.com/filipkrasniqi/networkcovid/internal/errors"
	"github.com/filipkrasniqi/networkcovid/internal/exporter"
	"github.com/filipkrasniqi/networkcovid/internal/kpi"
	"github.com/filipkrasniqi/networkcovid/internal/services"
)

// ReportHandler serves the dataset, cell and KPI resources.
type ReportHandler struct {
	service      ReportServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReportHandler creates a new report handler with RFC 7807 error handling
func NewReportHandler(service ReportServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "report_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the v1 routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/dataset", h.errorHandler.Wrap(h.GetDataset))
	r.Get("/cells", h.errorHandler.Wrap(h.GetCells))

	r.Route("/cells/{cellID}/kpis/{kpi}", func(r chi.Router) {
		r.Get("/daily", h.errorHandler.Wrap(h.GetDaily))
		r.Get("/charts/{variant}", h.errorHandler.Wrap(h.GetChart))
	})

	return r
}

func (h *ReportHandler) dataset() (*services.Dataset, error) {
	ds := h.service.Dataset()
	if ds == nil {
		return nil, apierrors.ErrServiceUnavailable
	}
	return ds, nil
}

// GetDataset handles GET /api/v1/dataset
func (h *ReportHandler) GetDataset(w http.ResponseWriter, r *http.Request) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}

	render.JSON(w, r, map[string]interface{}{
		"summary": ds.Summary,
		"window":  h.service.Window(),
	})
	return nil
}

// GetCells handles GET /api/v1/cells
func (h *ReportHandler) GetCells(w http.ResponseWriter, r *http.Request) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}

	cells := ds.Cells()
	render.JSON(w, r, map[string]interface{}{
		"data":  cells,
		"count": len(cells),
	})
	return nil
}

// DailyStatResponse is a DailyStat with NaN rendered as null.
type DailyStatResponse struct {
	Day    string   `json:"day"`
	Count  int      `json:"count"`
	Median *float64 `json:"median"`
	Mean   *float64 `json:"mean"`
	StdDev *float64 `json:"std"`
}

// DailyResponse is the body of the daily statistics endpoint.
type DailyResponse struct {
	CellID string              `json:"cell_id"`
	KPI    string              `json:"kpi"`
	Period services.Period     `json:"period"`
	Window kpi.Window          `json:"window"`
	Stats  []DailyStatResponse `json:"stats"`
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// GetDaily handles GET /api/v1/cells/{cellID}/kpis/{kpi}/daily
func (h *ReportHandler) GetDaily(w http.ResponseWriter, r *http.Request) error {
	period, err := services.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		return err
	}

	q := services.DailyQuery{
		CellID: chi.URLParam(r, "cellID"),
		KPI:    chi.URLParam(r, "kpi"),
		Period: period,
	}

	h.logger.DebugContext(r.Context(), "daily statistics requested",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("cell_id", q.CellID),
		slog.String("kpi", q.KPI),
		slog.String("period", string(q.Period)))

	result, err := h.service.Daily(r.Context(), q)
	if err != nil {
		return err
	}

	resp := DailyResponse{
		CellID: result.CellID,
		KPI:    result.KPI,
		Period: result.Period,
		Window: result.Window,
		Stats:  make([]DailyStatResponse, 0, len(result.Stats)),
	}
	for _, s := range result.Stats {
		resp.Stats = append(resp.Stats, DailyStatResponse{
			Day:    s.Day.Format(time.DateOnly),
			Count:  s.Count,
			Median: nullable(s.Median),
			Mean:   nullable(s.Mean),
			StdDev: nullable(s.StdDev),
		})
	}

	render.JSON(w, r, resp)
	return nil
}

// GetChart handles GET /api/v1/cells/{cellID}/kpis/{kpi}/charts/{variant}
func (h *ReportHandler) GetChart(w http.ResponseWriter, r *http.Request) error {
	variant, err := exporter.ParseVariant(chi.URLParam(r, "variant"))
	if err != nil {
		return err
	}

	q := services.ChartQuery{
		CellID:  chi.URLParam(r, "cellID"),
		KPI:     chi.URLParam(r, "kpi"),
		Variant: variant,
	}

	var buf bytes.Buffer
	if err := h.service.Chart(r.Context(), q, &buf); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Content-Disposition",
		`inline; filename="`+exporter.FileName(variant, q.KPI, q.CellID)+`"`)
	w.WriteHeader(http.StatusOK)
	_, err = buf.WriteTo(w)
	if err != nil {
		h.logger.WarnContext(r.Context(), "chart write aborted", slog.String("error", err.Error()))
	}
	return nil
}
