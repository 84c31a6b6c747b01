package services

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/filipkrasniqi/networkcovid/internal/config"
	"github.com/filipkrasniqi/networkcovid/internal/errors"
	"github.com/filipkrasniqi/networkcovid/internal/exporter"
	"github.com/filipkrasniqi/networkcovid/internal/infrastructure"
	"github.com/filipkrasniqi/networkcovid/internal/kpi"
	"github.com/filipkrasniqi/networkcovid/internal/shared/testutil"
)

const testCell = "abc123"

type harness struct {
	svc     *ReportService
	cfg     *config.Config
	paths   *config.Paths
	spans   *tracetest.SpanRecorder
	reader  *sdkmetric.ManualReader
	logs    *testutil.BufferedSlogHandler
	workDir string
}

func newHarness(t *testing.T, fixture testutil.HourlyFixture) *harness {
	t.Helper()

	dir := t.TempDir()
	kpiPath := testutil.WriteKPICSV(t, dir, fixture)
	locPath := testutil.WriteLocationsCSV(t, dir, map[string][2]float64{testCell: {45.4642, 9.19}})

	cfg := config.Default()
	cfg.Dataset.KPIFile = kpiPath
	cfg.Dataset.LocationsFile = locPath
	cfg.Analysis.CellID = testCell
	cfg.Charts.OutputDir = "charts"
	paths := config.ResolvePaths(cfg, dir)

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := infrastructure.CreatePipelineMetrics(mp.Meter("test"))
	require.NoError(t, err)

	logger, logs := testutil.NewTestLogger(t)
	svc := NewReportService(cfg, paths, tp.Tracer(TracerName), metrics, logger)

	return &harness{svc: svc, cfg: cfg, paths: paths, spans: spans, reader: reader, logs: logs, workDir: dir}
}

func (h *harness) request(t *testing.T) Request {
	t.Helper()
	req, err := RequestFromConfig(h.cfg)
	require.NoError(t, err)
	return req
}

func (h *harness) chartFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(h.paths.OutputDir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRequestFromConfig(t *testing.T) {
	cfg := config.Default()
	req, err := RequestFromConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultCellID, req.CellID)
	assert.Equal(t, config.DefaultKPI, req.KPI)
	assert.Equal(t, kpi.WeekWindow(time.Date(2020, 1, 13, 0, 0, 0, 0, time.UTC), 7), req.Window)
	assert.Equal(t, kpi.DefaultDayNight(), req.DayNight)

	cfg.Dataset.Timezone = "Nowhere/Special"
	_, err = RequestFromConfig(cfg)
	assert.Equal(t, errors.ErrTypeConfig, errors.TypeOf(err))
}

func TestReportService_Run(t *testing.T) {
	h := newHarness(t, testutil.NewWeekFixture(testCell, "other"))

	var out bytes.Buffer
	req := h.request(t)
	req.Diagnostics = &out

	report, err := h.svc.Run(context.Background(), req)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2*9*24, report.Summary.DataPoints)
	assert.Equal(t, 2*(7*24+1), report.WindowRows)
	assert.Equal(t, 2*7*18, report.DayRows)
	assert.Equal(t, 2*(7*6+1), report.NightRows)
	assert.Empty(t, report.Gaps)

	require.NotNil(t, report.Location)
	assert.Equal(t, 45.4642, report.Location.Latitude)

	require.Len(t, report.Daily, 7)
	for _, d := range report.Daily {
		assert.Equal(t, 18, d.Count)
		assert.InDelta(t, 14500.0, d.Mean, 1e-9)
		assert.InDelta(t, 14500.0, d.Median, 1e-9)
		assert.False(t, math.IsNaN(d.StdDev))
	}

	require.Len(t, report.Charts, 3)
	for i, v := range exporter.Variants {
		assert.Equal(t, v, report.Charts[i].Variant)
		assert.Equal(t, filepath.Join(h.workDir, "charts", exporter.FileName(v, "DL_VOL", testCell)), report.Charts[i].Path)
		assert.FileExists(t, report.Charts[i].Path)
	}

	text := out.String()
	assert.Contains(t, text, "Number of (distinct) cells:  2")
	assert.Contains(t, text, "2020-01-13  18")

	var names []string
	for _, s := range h.spans.Ended() {
		names = append(names, s.Name())
	}
	for _, stage := range []string{StageLoad, StageFilter, StageSplit, StageSelect, StageAggregate, StageRender} {
		assert.Contains(t, names, "report."+stage)
	}
	assert.Contains(t, names, "report.run")

	var rm metricdata.ResourceMetrics
	require.NoError(t, h.reader.Collect(context.Background(), &rm))
	assert.True(t, hasMetric(rm, "pipeline_stage_duration_seconds"))
	assert.True(t, hasMetric(rm, "charts_rendered_total"))

	assert.True(t, h.logs.ContainsMessage("Report completed"))
}

func hasMetric(rm metricdata.ResourceMetrics, name string) bool {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return true
			}
		}
	}
	return false
}

func TestReportService_Run_EmptyWindow(t *testing.T) {
	h := newHarness(t, testutil.NewWeekFixture(testCell))

	req := h.request(t)
	req.Window = kpi.WeekWindow(time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), 7)

	for i := 0; i < 2; i++ {
		_, err := h.svc.Run(context.Background(), req)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrEmptyResult)
	}
	assert.Empty(t, h.chartFiles(t), "no chart written")
}

func TestReportService_Run_Failures(t *testing.T) {
	t.Run("unknown cell", func(t *testing.T) {
		h := newHarness(t, testutil.NewWeekFixture(testCell))
		req := h.request(t)
		req.CellID = "missing"

		_, err := h.svc.Run(context.Background(), req)
		assert.ErrorIs(t, err, errors.ErrKeyNotFound)
		assert.Empty(t, h.chartFiles(t))
	})

	t.Run("unknown kpi", func(t *testing.T) {
		h := newHarness(t, testutil.NewWeekFixture(testCell))
		req := h.request(t)
		req.KPI = "UL_VOL"

		_, err := h.svc.Run(context.Background(), req)
		assert.ErrorIs(t, err, errors.ErrKeyNotFound)
	})

	t.Run("missing kpi file", func(t *testing.T) {
		h := newHarness(t, testutil.NewWeekFixture(testCell))
		h.paths.KPIFile = filepath.Join(h.workDir, "nope.csv")

		_, err := h.svc.Run(context.Background(), h.request(t))
		assert.ErrorIs(t, err, errors.ErrFileNotFound)
	})

	t.Run("cancelled", func(t *testing.T) {
		h := newHarness(t, testutil.NewWeekFixture(testCell))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := h.svc.Run(ctx, h.request(t))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestReportService_Run_MissingLocationAndGap(t *testing.T) {
	fixture := testutil.NewWeekFixture(testCell)
	missing := time.Date(2020, 1, 16, 3, 0, 0, 0, time.UTC)
	fixture.Skip = func(_ string, ts time.Time) bool { return ts.Equal(missing) }
	h := newHarness(t, fixture)
	h.paths.LocationsFile = filepath.Join(h.workDir, "absent.csv")

	report, err := h.svc.Run(context.Background(), h.request(t))
	require.NoError(t, err)

	assert.Nil(t, report.Location)
	assert.True(t, h.logs.ContainsMessage("Cell location unknown"))

	require.Len(t, report.Gaps, 1)
	assert.Equal(t, 23, report.Gaps[0].Count)
	assert.True(t, h.logs.ContainsMessage("Incomplete hourly day"))
}

func TestReportService_Run_PreloadedDataset(t *testing.T) {
	h := newHarness(t, testutil.NewWeekFixture(testCell))

	ds, err := LoadDataset(context.Background(), h.cfg, h.paths, nil)
	require.NoError(t, err)

	// the file is gone, the preloaded table is used
	require.NoError(t, os.Remove(h.paths.KPIFile))

	req := h.request(t)
	req.Dataset = ds
	report, err := h.svc.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, report.Charts, 3)
}
