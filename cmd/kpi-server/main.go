package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/filipkrasniqi/networkcovid/internal/app"
	"github.com/filipkrasniqi/networkcovid/internal/config"
	"github.com/filipkrasniqi/networkcovid/internal/infrastructure"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		slog.Error("Server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("kpi-server", flag.ContinueOnError)
	configFile := fs.String("config", "", "YAML configuration file")
	kpiFile := fs.String("kpi-file", "", "KPI table (.csv, .xlsx, .db)")
	port := fs.Int("port", 0, "listen port, overrides the configured one")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if *kpiFile != "" {
		cfg.Dataset.KPIFile = *kpiFile
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
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

	application, err := app.NewApplication(cfg, paths, logger, nil)
	if err != nil {
		return err
	}

	if err := application.LoadDataset(ctx); err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	return application.Run(ctx)
}
