// Package services implements the report pipeline on top of the dataset
// loaders, the kpi functions and the chart exporter.
//
// ReportService runs the five report steps (load, filter, split, aggregate,
// render) in order. Every step gets its own OpenTelemetry span and a stage
// duration sample; row counts are logged with slog. The same service answers
// the HTTP layer from a dataset loaded once at start-up:
//
//	svc := services.NewReportService(cfg, paths, providers.Tracer, metrics, logger)
//	report, err := svc.Run(ctx, req)
//
// Services return internal/errors AppError values so handlers can map them
// to problem responses.
package services
