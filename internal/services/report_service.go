package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/filipkrasniqi/networkcovid/internal/config"
	"github.com/filipkrasniqi/networkcovid/internal/dataprocessing"
	"github.com/filipkrasniqi/networkcovid/internal/errors"
	"github.com/filipkrasniqi/networkcovid/internal/exporter"
	"github.com/filipkrasniqi/networkcovid/internal/infrastructure"
	"github.com/filipkrasniqi/networkcovid/internal/kpi"
)

// TracerName names the spans of the report pipeline.
const TracerName = "networkcovid.report"

// Pipeline stage names, used as span suffixes and metric attributes.
const (
	StageLoad      = "load"
	StageFilter    = "filter"
	StageSplit     = "split"
	StageSelect    = "select"
	StageAggregate = "aggregate"
	StageRender    = "render"
)

// Request selects what one report run analyses.
type Request struct {
	CellID   string
	KPI      string
	Window   kpi.Window
	DayNight kpi.DayNight

	// Dataset skips the load step when set.
	Dataset *Dataset
	// Diagnostics receives the dataset summary and the daily table when set.
	Diagnostics io.Writer
}

// RequestFromConfig builds a request from the analysis section.
func RequestFromConfig(cfg *config.Config) (Request, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Request{}, errors.NewConfigError("invalid timezone", err)
	}
	window, err := kpi.WindowFromConfig(cfg.Analysis, loc)
	if err != nil {
		return Request{}, err
	}
	dn, err := kpi.DayNightFromConfig(cfg.Analysis)
	if err != nil {
		return Request{}, err
	}
	return Request{
		CellID:   cfg.Analysis.CellID,
		KPI:      cfg.Analysis.KPI,
		Window:   window,
		DayNight: dn,
	}, nil
}

// ChartFile is one written chart.
type ChartFile struct {
	Variant exporter.Variant `json:"variant"`
	Path    string           `json:"path"`
}

// Report is the outcome of one run.
type Report struct {
	RunID      string                   `json:"run_id"`
	CellID     string                   `json:"cell_id"`
	KPI        string                   `json:"kpi"`
	Summary    dataprocessing.Summary   `json:"summary"`
	Window     kpi.Window               `json:"window"`
	WindowRows int                      `json:"window_rows"`
	DayRows    int                      `json:"day_rows"`
	NightRows  int                      `json:"night_rows"`
	Location   *dataprocessing.Location `json:"location,omitempty"`
	Daily      []kpi.DailyStat          `json:"daily"`
	Gaps       []kpi.Gap                `json:"gaps,omitempty"`
	Charts     []ChartFile              `json:"charts"`
	Duration   time.Duration            `json:"duration"`
}

// ReportService runs the weekly KPI report.
type ReportService struct {
	cfg      *config.Config
	paths    *config.Paths
	renderer *exporter.ChartRenderer
	tracer   trace.Tracer
	metrics  *infrastructure.PipelineMetrics
	logger   *slog.Logger

	dataset *Dataset
	request Request
}

// NewReportService creates the service. A nil tracer uses the global
// provider and nil metrics are skipped.
func NewReportService(cfg *config.Config, paths *config.Paths, tracer trace.Tracer, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *ReportService {
	logger = infrastructure.WithComponent(logger, "report")
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	return &ReportService{
		cfg:      cfg,
		paths:    paths,
		renderer: exporter.NewChartRenderer(paths, cfg.Charts, logger),
		tracer:   tracer,
		metrics:  metrics,
		logger:   logger,
	}
}

// stage runs fn inside a span and records its duration. fn returns the
// number of rows it produced, or -1 when rows do not apply.
func (s *ReportService) stage(ctx context.Context, name string, fn func(ctx context.Context) (int, error)) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("report cancelled before %s: %w", name, err)
	}

	ctx, span := s.tracer.Start(ctx, "report."+name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("report.stage", name)),
	)
	defer span.End()

	start := time.Now()
	rows, err := fn(ctx)
	duration := time.Since(start)
	s.metrics.RecordStage(ctx, name, duration, rows, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "Report stage failed",
			slog.String("stage", name),
			slog.String("error_type", string(errors.TypeOf(err))),
			slog.String("error", err.Error()),
			slog.Duration("duration", duration))
		return err
	}

	if rows >= 0 {
		span.SetAttributes(attribute.Int("report.rows", rows))
	}
	span.SetStatus(codes.Ok, "")
	s.logger.InfoContext(ctx, "Report stage completed",
		slog.String("stage", name),
		slog.Int("rows", rows),
		slog.Duration("duration", duration))
	return nil
}

// Run executes the report: load, diagnostics, filter, split, select,
// aggregate and render the daily, hourly and box charts in that order.
func (s *ReportService) Run(ctx context.Context, req Request) (*Report, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	runID := infrastructure.GetTraceID(ctx)
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "report.run",
		trace.WithAttributes(
			attribute.String("report.run_id", runID),
			attribute.String("report.cell_id", req.CellID),
			attribute.String("report.kpi", req.KPI),
		),
	)
	defer span.End()

	s.logger.InfoContext(ctx, "Report started",
		slog.String("run_id", runID),
		slog.String("cell_id", req.CellID),
		slog.String("kpi", req.KPI),
		slog.String("window", req.Window.String()),
		slog.String("day", req.DayNight.Day.String()),
		slog.String("night", req.DayNight.Night.String()))

	report, err := s.run(ctx, req)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	report.RunID = runID
	report.Duration = time.Since(start)
	s.logger.InfoContext(ctx, "Report completed",
		slog.String("run_id", runID),
		slog.Int("charts", len(report.Charts)),
		slog.Int("gaps", len(report.Gaps)),
		slog.Duration("duration", report.Duration))
	return report, nil
}

func (s *ReportService) run(ctx context.Context, req Request) (*Report, error) {
	report := &Report{CellID: req.CellID, KPI: req.KPI, Window: req.Window}

	ds := req.Dataset
	err := s.stage(ctx, StageLoad, func(ctx context.Context) (int, error) {
		if ds == nil {
			loaded, err := LoadDataset(ctx, s.cfg, s.paths, s.logger)
			if err != nil {
				return 0, err
			}
			ds = loaded
		}
		if err := requireDataset(ds); err != nil {
			return 0, err
		}
		report.Summary = ds.Summary
		if req.Diagnostics != nil {
			if err := ds.Summary.Print(req.Diagnostics); err != nil {
				return 0, fmt.Errorf("failed to print diagnostics: %w", err)
			}
		}
		return ds.Summary.DataPoints, nil
	})
	if err != nil {
		return nil, err
	}

	if loc, ok := ds.Location(req.CellID); ok {
		report.Location = loc
		s.logger.InfoContext(ctx, "Cell location",
			slog.String("cell_id", req.CellID),
			slog.Float64("latitude", loc.Latitude),
			slog.Float64("longitude", loc.Longitude))
	} else {
		s.logger.WarnContext(ctx, "Cell location unknown", slog.String("cell_id", req.CellID))
	}

	var window []dataprocessing.Record
	err = s.stage(ctx, StageFilter, func(ctx context.Context) (int, error) {
		rows, err := kpi.FilterWindow(ds.Table.Records, req.Window)
		window = rows
		return len(rows), err
	})
	if err != nil {
		return nil, err
	}
	report.WindowRows = len(window)

	var day, night []dataprocessing.Record
	err = s.stage(ctx, StageSplit, func(ctx context.Context) (int, error) {
		day, night = kpi.Partition(window, req.DayNight)
		s.logger.DebugContext(ctx, "Window split",
			slog.Int("day_rows", len(day)),
			slog.Int("night_rows", len(night)))
		return len(day) + len(night), nil
	})
	if err != nil {
		return nil, err
	}
	report.DayRows, report.NightRows = len(day), len(night)

	var daySamples, hourly []kpi.Sample
	err = s.stage(ctx, StageSelect, func(ctx context.Context) (int, error) {
		var err error
		if hourly, err = kpi.SelectSeries(ds.Table, window, req.CellID, req.KPI); err != nil {
			return 0, err
		}
		if daySamples, err = kpi.SelectSeries(ds.Table, day, req.CellID, req.KPI); err != nil {
			return 0, err
		}
		return len(daySamples), nil
	})
	if err != nil {
		return nil, err
	}

	var boxes []kpi.DayBox
	err = s.stage(ctx, StageAggregate, func(ctx context.Context) (int, error) {
		var err error
		if report.Daily, err = kpi.DailyStats(daySamples); err != nil {
			return 0, err
		}
		if boxes, err = kpi.DailyBoxes(daySamples); err != nil {
			return 0, err
		}
		report.Gaps = kpi.DetectGaps(hourly, kpi.ExpectedSamplesPerDay)
		for _, g := range report.Gaps {
			s.logger.WarnContext(ctx, "Incomplete hourly day",
				slog.String("day", g.Day.Format("2006-01-02")),
				slog.Int("samples", g.Count),
				slog.Int("expected", kpi.ExpectedSamplesPerDay))
		}
		return len(report.Daily), nil
	})
	if err != nil {
		return nil, err
	}

	if req.Diagnostics != nil {
		if err := PrintDaily(req.Diagnostics, report.Daily); err != nil {
			return nil, fmt.Errorf("failed to print daily statistics: %w", err)
		}
	}

	data := exporter.ChartData{
		KPI:    req.KPI,
		CellID: req.CellID,
		Daily:  report.Daily,
		Hourly: hourly,
		Boxes:  boxes,
	}
	err = s.stage(ctx, StageRender, func(ctx context.Context) (int, error) {
		if err := s.paths.EnsureDirectories(false); err != nil {
			return 0, errors.NewStorageError("failed to create output directory", err)
		}
		for _, v := range exporter.Variants {
			path, err := s.renderer.Save(v, data)
			if err != nil {
				return len(report.Charts), err
			}
			s.metrics.RecordChart(ctx, string(v))
			report.Charts = append(report.Charts, ChartFile{Variant: v, Path: path})
		}
		return len(report.Charts), nil
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}
