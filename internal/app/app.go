package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"github.com/filipkrasniqi/networkcovid/internal/config"
	apierrors "github.com/filipkrasniqi/networkcovid/internal/errors"
	"github.com/filipkrasniqi/networkcovid/internal/infrastructure"
	customMiddleware "github.com/filipkrasniqi/networkcovid/internal/middleware"
	"github.com/filipkrasniqi/networkcovid/internal/services"
	handlers "github.com/filipkrasniqi/networkcovid/internal/transport/http"
	"github.com/filipkrasniqi/networkcovid/internal/validation"
)

// runtimeSampleInterval is how often runtime gauges are refreshed.
const runtimeSampleInterval = 15 * time.Second

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Service       *services.ReportService
	Runtime       *infrastructure.RuntimeMetrics
	Metrics       *infrastructure.PipelineMetrics
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	ErrorHandler  *apierrors.ErrorHandler
}

// NewApplication wires the report service, the router and the HTTP server.
// The dataset is not loaded; call LoadDataset before serving.
func NewApplication(cfg *config.Config, paths *config.Paths, logger *slog.Logger, providers *infrastructure.OTelProviders) (*Application, error) {
	if cfg == nil {
		return nil, apierrors.NewConfigError("configuration is required", nil)
	}
	if paths == nil {
		var err error
		if paths, err = config.GetPaths(cfg); err != nil {
			return nil, apierrors.NewConfigError("failed to resolve paths", err)
		}
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if providers == nil {
		var err error
		if providers, err = infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger); err != nil {
			return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
		}
	}

	a := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
		ErrorHandler:  apierrors.NewErrorHandler(logger, false),
	}

	if err := a.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	a.setupRouter()
	a.createServer()

	return a, nil
}

// initializeServices creates the instruments and the report service
func (a *Application) initializeServices() error {
	metrics, err := infrastructure.CreatePipelineMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	a.Metrics = metrics

	runtimeMetrics, err := infrastructure.NewRuntimeMetrics(a.OTelProviders.Meter, runtimeSampleInterval)
	if err != nil {
		return fmt.Errorf("failed to create runtime metrics: %w", err)
	}
	a.Runtime = runtimeMetrics

	a.Service = services.NewReportService(a.Config, a.Paths, a.OTelProviders.Tracer, metrics, a.Logger)
	return nil
}

// LoadDataset reads the configured tables and hands them to the report service.
func (a *Application) LoadDataset(ctx context.Context) error {
	start := time.Now()
	if err := validation.NewFileValidator(a.Logger).ValidateDataFile(a.Paths.KPIFile); err != nil {
		return err
	}

	ds, err := services.LoadDataset(ctx, a.Config, a.Paths, a.Logger)
	if err != nil {
		return err
	}
	if err := a.Service.UseDataset(ds); err != nil {
		return err
	}

	a.Logger.InfoContext(ctx, "Dataset ready",
		slog.Int("rows", ds.Summary.DataPoints),
		slog.Int("cells", ds.Summary.DistinctCells),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Server.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Server.RateLimit.RPS,
				a.Config.Server.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	// Prometheus scrapes outside the middleware group
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		healthHandler := handlers.NewHealthHandler(config.AppVersion, a.Service, a.Runtime, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)

		reportHandler := handlers.NewReportHandler(a.Service, a.Logger, a.ErrorHandler)
		r.Mount("/v1", reportHandler.Routes())
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run serves until ctx is cancelled or the listener fails, then shuts down.
func (a *Application) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(ctx, "Starting HTTP server",
			slog.String("name", config.AppName),
			slog.String("version", config.AppVersion),
			slog.String("address", a.Server.Addr))

		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.Runtime.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop drains the server and flushes telemetry
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}
