package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Dataset   DatasetConfig   `yaml:"dataset" envconfig:"DATASET"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Charts    ChartsConfig    `yaml:"charts" envconfig:"CHARTS"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
}

// DatasetConfig locates the KPI and cell-location tables and names their key columns.
type DatasetConfig struct {
	KPIFile        string `yaml:"kpi_file" envconfig:"KPI_FILE" validate:"required"`
	LocationsFile  string `yaml:"locations_file" envconfig:"LOCATIONS_FILE"`
	CellColumn     string `yaml:"cell_column" envconfig:"CELL_COLUMN" validate:"required"`
	TimeColumn     string `yaml:"time_column" envconfig:"TIME_COLUMN" validate:"required"`
	TimeLayout     string `yaml:"time_layout" envconfig:"TIME_LAYOUT"`
	Timezone       string `yaml:"timezone" envconfig:"TIMEZONE" validate:"required,timezone"`
	Sheet          string `yaml:"sheet" envconfig:"SHEET"`
	KPITable       string `yaml:"kpi_table" envconfig:"KPI_TABLE" validate:"required,alphanumunderscore"`
	LocationsTable string `yaml:"locations_table" envconfig:"LOCATIONS_TABLE" validate:"required,alphanumunderscore"`
}

// AnalysisConfig selects the cell, the KPI and the time window to analyse.
type AnalysisConfig struct {
	CellID       string `yaml:"cell_id" envconfig:"CELL_ID" validate:"required"`
	KPI          string `yaml:"kpi" envconfig:"KPI" validate:"required"`
	WindowAfter  string `yaml:"window_after" envconfig:"WINDOW_AFTER" validate:"required,datetime=2006-01-02T15:04:05"`
	WindowBefore string `yaml:"window_before" envconfig:"WINDOW_BEFORE" validate:"required,datetime=2006-01-02T15:04:05"`
	DayStart     string `yaml:"day_start" envconfig:"DAY_START" validate:"required,datetime=15:04:05"`
	DayEnd       string `yaml:"day_end" envconfig:"DAY_END" validate:"required,datetime=15:04:05"`
	NightStart   string `yaml:"night_start" envconfig:"NIGHT_START" validate:"required,datetime=15:04:05"`
	NightEnd     string `yaml:"night_end" envconfig:"NIGHT_END" validate:"required,datetime=15:04:05"`
}

// ChartsConfig controls where and how charts are rendered.
type ChartsConfig struct {
	OutputDir    string  `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	Unit         string  `yaml:"unit" envconfig:"UNIT"`
	WidthInches  float64 `yaml:"width_inches" envconfig:"WIDTH_INCHES" validate:"gt=0"`
	HeightInches float64 `yaml:"height_inches" envconfig:"HEIGHT_INCHES" validate:"gt=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig selects the OpenTelemetry exporters.
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// Load builds the configuration from defaults, then the YAML file (when one
// is found or configFile is set), then NETCOVID_* environment variables.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// No default tags: envconfig only overrides variables that are actually set.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML file values onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("alphanumunderscore", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return false
		}
		for _, r := range s {
			if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
				return false
			}
		}
		return true
	})
	return v
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return err
	}

	after, _ := time.Parse(TimestampLayout, c.Analysis.WindowAfter)
	before, _ := time.Parse(TimestampLayout, c.Analysis.WindowBefore)
	if !after.Before(before) {
		return fmt.Errorf("window_after %s must be before window_before %s",
			c.Analysis.WindowAfter, c.Analysis.WindowBefore)
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging output %q requires file_path", c.Logging.Output)
	}

	return nil
}

// Location returns the time zone timestamps are interpreted in.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Dataset.Timezone)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	for _, location := range configFileLocations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Dataset: DatasetConfig{
			KPIFile:        DefaultKPIFile,
			LocationsFile:  DefaultLocationsFile,
			CellColumn:     DefaultCellColumn,
			TimeColumn:     DefaultTimeColumn,
			Timezone:       "UTC",
			KPITable:       DefaultKPITable,
			LocationsTable: DefaultLocationTable,
		},
		Analysis: AnalysisConfig{
			CellID:       DefaultCellID,
			KPI:          DefaultKPI,
			WindowAfter:  DefaultWindowAfter,
			WindowBefore: DefaultWindowBefore,
			DayStart:     DefaultDayStart,
			DayEnd:       DefaultDayEnd,
			NightStart:   DefaultNightStart,
			NightEnd:     DefaultNightEnd,
		},
		Charts: ChartsConfig{
			OutputDir:    ".",
			Unit:         DefaultChartUnit,
			WidthInches:  DefaultChartWidth,
			HeightInches: DefaultChartHeight,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/netcovid.log",
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimitRPS,
				Burst:   DefaultRateLimitBurst,
			},
		},
	}
}
