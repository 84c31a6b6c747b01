package infrastructure

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filipkrasniqi/networkcovid/internal/config"
	"github.com/filipkrasniqi/networkcovid/internal/shared/testutil"
)

func TestOTelInitialization(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    "test",
		TraceExporter:  "stdout",
		MetricExporter: "prometheus",
		SampleRatio:    1.0,
	}, logger)
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestOTelInitialization_Disabled(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	providers, err := InitializeOTel(&OTelConfig{TraceExporter: "none", MetricExporter: "none"}, logger)
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.PrometheusHTTP)
	// no-op instruments still work
	assert.NotNil(t, providers.Tracer)
	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordChart(context.Background(), "daily")

	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestOTelInitialization_UnsupportedExporter(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	_, err := InitializeOTel(&OTelConfig{TraceExporter: "jaeger", MetricExporter: "none"}, logger)
	assert.Error(t, err)

	_, err = InitializeOTel(&OTelConfig{TraceExporter: "none", MetricExporter: "statsd"}, logger)
	assert.Error(t, err)
}

func TestOTelConfigFrom(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.Environment = "staging"

	otelCfg := OTelConfigFrom(cfg)
	assert.Equal(t, ServiceName, otelCfg.ServiceName)
	assert.Equal(t, "staging", otelCfg.Environment)
	assert.Equal(t, cfg.MetricExporter, otelCfg.MetricExporter)
}

func TestPipelineMetricsExposedOnPrometheus(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    ServiceName,
		TraceExporter:  "none",
		MetricExporter: "prometheus",
		SampleRatio:    1.0,
	}, logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordStage(ctx, "filter_window", 12*time.Millisecond, 168, nil)
	metrics.RecordStage(ctx, "select_series", time.Millisecond, -1, errors.New("cell missing"))
	metrics.RecordChart(ctx, "box")
	metrics.RecordHTTPRequest(ctx, http.MethodGet, "/api/v1/cells", http.StatusOK, 3*time.Millisecond)

	runtimeMetrics, err := NewRuntimeMetrics(providers.Meter, time.Second)
	require.NoError(t, err)
	stats := runtimeMetrics.Collect(ctx)
	assert.Positive(t, stats.GoRoutines)
	assert.Equal(t, stats.Timestamp, runtimeMetrics.Last(ctx).Timestamp)

	w := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "pipeline_stage_duration_seconds")
	assert.Contains(t, text, "pipeline_rows_processed_total")
	assert.Contains(t, text, "charts_rendered_total")
	assert.Contains(t, text, "pipeline_errors_total")
	assert.Contains(t, text, "http_requests_total")
	assert.Contains(t, text, "system_goroutines")
}

func TestPipelineMetrics_NilSafe(t *testing.T) {
	var metrics *PipelineMetrics
	assert.NotPanics(t, func() {
		metrics.RecordStage(context.Background(), "load", time.Second, 1, nil)
		metrics.RecordChart(context.Background(), "daily")
		metrics.RecordHTTPRequest(context.Background(), http.MethodGet, "/", 200, time.Second)
	})
}

func TestRuntimeMetrics_Run(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	providers, err := InitializeOTel(&OTelConfig{TraceExporter: "none", MetricExporter: "none"}, logger)
	require.NoError(t, err)

	rm, err := NewRuntimeMetrics(providers.Meter, 10*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, rm.Run(ctx))
	assert.False(t, rm.Last(context.Background()).Timestamp.IsZero())
}

func TestTraceIDFromContext(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	providers, err := InitializeOTel(&OTelConfig{TraceExporter: "stdout", MetricExporter: "none", SampleRatio: 1.0}, logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	assert.Empty(t, TraceIDFromContext(context.Background()))

	ctx, span := providers.Tracer.Start(context.Background(), "daily_stats")
	defer span.End()

	assert.Len(t, TraceIDFromContext(ctx), 32)
	RecordError(ctx, errors.New("empty"))
}
