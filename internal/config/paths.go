package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains every file system path a run touches.
// Relative configuration values are resolved against the working directory,
// so charts land where the command is started.
type Paths struct {
	WorkDir       string
	KPIFile       string
	LocationsFile string
	OutputDir     string
	LogsDir       string
	LogFile       string
}

// GetPaths resolves the configured paths against the current working directory
func GetPaths(cfg *Config) (*Paths, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return ResolvePaths(cfg, wd), nil
}

// ResolvePaths resolves the configured paths against base
func ResolvePaths(cfg *Config, base string) *Paths {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	outputDir := cfg.Charts.OutputDir
	if outputDir == "" {
		outputDir = "."
	}

	logFile := resolve(cfg.Logging.FilePath)
	logsDir := ""
	if logFile != "" {
		logsDir = filepath.Dir(logFile)
	}

	return &Paths{
		WorkDir:       base,
		KPIFile:       resolve(cfg.Dataset.KPIFile),
		LocationsFile: resolve(cfg.Dataset.LocationsFile),
		OutputDir:     resolve(outputDir),
		LogsDir:       logsDir,
		LogFile:       logFile,
	}
}

// EnsureDirectories creates the output directory and, when file logging is
// enabled, the logs directory
func (p *Paths) EnsureDirectories(withLogs bool) error {
	directories := []string{p.OutputDir}
	if withLogs && p.LogsDir != "" {
		directories = append(directories, p.LogsDir)
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// GetOutputPath returns the path for a chart file
func (p *Paths) GetOutputPath(filename string) string {
	return filepath.Join(p.OutputDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.String("work_dir", p.WorkDir),
		slog.Group("inputs",
			slog.String("kpi_file", p.KPIFile),
			slog.Bool("kpi_file_exists", FileExists(p.KPIFile)),
			slog.String("locations_file", p.LocationsFile),
			slog.Bool("locations_file_exists", p.LocationsFile != "" && FileExists(p.LocationsFile)),
		),
		slog.Group("outputs",
			slog.String("charts", p.OutputDir),
			slog.String("log_file", p.LogFile),
		))
}
