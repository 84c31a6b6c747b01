package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"text/tabwriter"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/filipkrasniqi/networkcovid/internal/dataprocessing"
	"github.com/filipkrasniqi/networkcovid/internal/errors"
	"github.com/filipkrasniqi/networkcovid/internal/exporter"
	"github.com/filipkrasniqi/networkcovid/internal/infrastructure"
	"github.com/filipkrasniqi/networkcovid/internal/kpi"
)

// Period selects which partition of the window a query reads.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodNight Period = "night"
	PeriodAll   Period = "all"
)

// ParsePeriod validates a period name. Empty means day.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(s)); p {
	case "":
		return PeriodDay, nil
	case PeriodDay, PeriodNight, PeriodAll:
		return p, nil
	}
	return "", errors.NewAppValidationError(fmt.Sprintf("unknown period %q", s)).
		WithContext("allowed", []Period{PeriodDay, PeriodNight, PeriodAll})
}

// DailyQuery asks for the daily statistics of one cell and KPI.
type DailyQuery struct {
	CellID string
	KPI    string
	Period Period
}

// DailyResult answers a DailyQuery.
type DailyResult struct {
	CellID string          `json:"cell_id"`
	KPI    string          `json:"kpi"`
	Period Period          `json:"period"`
	Window kpi.Window      `json:"window"`
	Stats  []kpi.DailyStat `json:"stats"`
}

// ChartQuery asks for one chart of one cell and KPI.
type ChartQuery struct {
	CellID  string
	KPI     string
	Variant exporter.Variant
}

// UseDataset keeps ds in memory for Daily and Chart. Window and day/night
// ranges come from the configuration.
func (s *ReportService) UseDataset(ds *Dataset) error {
	if err := requireDataset(ds); err != nil {
		return err
	}
	req, err := RequestFromConfig(s.cfg)
	if err != nil {
		return err
	}
	req.Dataset = ds
	s.dataset = ds
	s.request = req
	return nil
}

// Dataset returns the in-memory dataset, or nil before UseDataset.
func (s *ReportService) Dataset() *Dataset {
	return s.dataset
}

// Window returns the configured analysis window.
func (s *ReportService) Window() kpi.Window {
	return s.request.Window
}

func (s *ReportService) periodRows(period Period) ([]dataprocessing.Record, error) {
	rows, err := kpi.FilterWindow(s.dataset.Table.Records, s.request.Window)
	if err != nil {
		return nil, err
	}
	if period == PeriodAll {
		return rows, nil
	}
	day, night := kpi.Partition(rows, s.request.DayNight)
	if period == PeriodNight {
		return night, nil
	}
	return day, nil
}

// Daily computes the daily statistics of one cell and KPI over the
// configured window.
func (s *ReportService) Daily(ctx context.Context, q DailyQuery) (*DailyResult, error) {
	if err := requireDataset(s.dataset); err != nil {
		return nil, err
	}
	if q.Period == "" {
		q.Period = PeriodDay
	}

	ctx, span := s.tracer.Start(ctx, "report.daily", trace.WithAttributes(
		attribute.String("report.cell_id", q.CellID),
		attribute.String("report.kpi", q.KPI),
		attribute.String("report.period", string(q.Period)),
	))
	defer span.End()

	var result *DailyResult
	err := s.stage(ctx, StageAggregate, func(ctx context.Context) (int, error) {
		rows, err := s.periodRows(q.Period)
		if err != nil {
			return 0, err
		}
		samples, err := kpi.SelectSeries(s.dataset.Table, rows, q.CellID, q.KPI)
		if err != nil {
			return 0, err
		}
		stats, err := kpi.DailyStats(samples)
		if err != nil {
			return 0, err
		}
		result = &DailyResult{
			CellID: q.CellID,
			KPI:    q.KPI,
			Period: q.Period,
			Window: s.request.Window,
			Stats:  stats,
		}
		return len(stats), nil
	})
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	return result, nil
}

// Chart renders one chart of one cell and KPI as PNG into w. The daily and
// box charts read the day partition, the hourly chart the whole window.
func (s *ReportService) Chart(ctx context.Context, q ChartQuery, w io.Writer) error {
	if err := requireDataset(s.dataset); err != nil {
		return err
	}
	if _, err := exporter.ParseVariant(string(q.Variant)); err != nil {
		return err
	}

	ctx, span := s.tracer.Start(ctx, "report.chart", trace.WithAttributes(
		attribute.String("report.cell_id", q.CellID),
		attribute.String("report.kpi", q.KPI),
		attribute.String("report.variant", string(q.Variant)),
	))
	defer span.End()

	err := s.stage(ctx, StageRender, func(ctx context.Context) (int, error) {
		period := PeriodDay
		if q.Variant == exporter.VariantHourly {
			period = PeriodAll
		}
		rows, err := s.periodRows(period)
		if err != nil {
			return 0, err
		}
		samples, err := kpi.SelectSeries(s.dataset.Table, rows, q.CellID, q.KPI)
		if err != nil {
			return 0, err
		}

		data := exporter.ChartData{KPI: q.KPI, CellID: q.CellID}
		switch q.Variant {
		case exporter.VariantHourly:
			data.Hourly = samples
		case exporter.VariantDaily:
			if data.Daily, err = kpi.DailyStats(samples); err != nil {
				return 0, err
			}
		case exporter.VariantBox:
			if data.Boxes, err = kpi.DailyBoxes(samples); err != nil {
				return 0, err
			}
		}

		if err := s.renderer.Write(w, q.Variant, data); err != nil {
			return 0, err
		}
		s.metrics.RecordChart(ctx, string(q.Variant))
		return len(samples), nil
	})
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return err
	}

	s.logger.DebugContext(ctx, "Chart streamed",
		slog.String("variant", string(q.Variant)),
		slog.String("cell_id", q.CellID))
	return nil
}

// PrintDaily writes the daily statistics as an aligned table.
func PrintDaily(w io.Writer, stats []kpi.DailyStat) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Date\tCount\tMedian\tMean\tStd")
	for _, d := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			d.Day.Format("2006-01-02"), d.Count,
			formatStat(d.Median), formatStat(d.Mean), formatStat(d.StdDev))
	}
	return tw.Flush()
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.2f", v)
}
