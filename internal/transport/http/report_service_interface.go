package http

import (
	"context"
	"io"

	"github.com/filipkrasniqi/networkcovid/internal/kpi"
	"github.com/filipkrasniqi/networkcovid/internal/services"
)

// ReportServiceInterface is what the handlers need from the report service.
type ReportServiceInterface interface {
	Dataset() *services.Dataset
	Window() kpi.Window
	Daily(ctx context.Context, q services.DailyQuery) (*services.DailyResult, error)
	Chart(ctx context.Context, q services.ChartQuery, w io.Writer) error
}
