package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/filipkrasniqi/networkcovid/internal/config"
	"github.com/filipkrasniqi/networkcovid/internal/infrastructure"
	"github.com/filipkrasniqi/networkcovid/internal/services"
	"github.com/filipkrasniqi/networkcovid/internal/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		slog.Error("Report failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// options holds the command line overrides.
type options struct {
	configFile    string
	kpiFile       string
	locationsFile string
	cellID        string
	kpi           string
	after         string
	before        string
	outputDir     string
	asJSON        bool
}

func parseFlags(args []string) (*options, *flag.FlagSet, error) {
	opts := &options{}
	fs := flag.NewFlagSet("kpi-report", flag.ContinueOnError)
	fs.StringVar(&opts.configFile, "config", "", "YAML configuration file")
	fs.StringVar(&opts.kpiFile, "kpi-file", "", "KPI table (.csv, .xlsx, .db)")
	fs.StringVar(&opts.locationsFile, "locations-file", "", "cell location table")
	fs.StringVar(&opts.cellID, "cell", "", "cell identifier to analyse")
	fs.StringVar(&opts.kpi, "kpi", "", "KPI column to analyse, e.g. DL_VOL")
	fs.StringVar(&opts.after, "after", "", "exclusive window start, "+config.TimestampLayout)
	fs.StringVar(&opts.before, "before", "", "exclusive window end, "+config.TimestampLayout)
	fs.StringVar(&opts.outputDir, "out", "", "directory receiving the charts")
	fs.BoolVar(&opts.asJSON, "json", false, "print the report as JSON instead of the diagnostics tables")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return opts, fs, nil
}

// apply copies explicitly set flags over cfg.
func (o *options) apply(fs *flag.FlagSet, cfg *config.Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "kpi-file":
			cfg.Dataset.KPIFile = o.kpiFile
		case "locations-file":
			cfg.Dataset.LocationsFile = o.locationsFile
		case "cell":
			cfg.Analysis.CellID = o.cellID
		case "kpi":
			cfg.Analysis.KPI = o.kpi
		case "after":
			cfg.Analysis.WindowAfter = o.after
		case "before":
			cfg.Analysis.WindowBefore = o.before
		case "out":
			cfg.Charts.OutputDir = o.outputDir
		}
	})
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, fs, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	opts.apply(fs, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	paths, err := config.GetPaths(cfg)
	if err != nil {
		return err
	}
	paths.LogPathResolution(logger)

	if err := validation.NewFileValidator(logger).Preflight(paths); err != nil {
		return err
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("OpenTelemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	req, err := services.RequestFromConfig(cfg)
	if err != nil {
		return err
	}
	if !opts.asJSON {
		req.Diagnostics = stdout
	}

	svc := services.NewReportService(cfg, paths, providers.Tracer, metrics, logger)
	report, err := svc.Run(ctx, req)
	if err != nil {
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	for _, c := range report.Charts {
		fmt.Fprintf(stdout, "Saved %s chart: %s\n", c.Variant, c.Path)
	}
	return nil
}
