package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/filipkrasniqi/networkcovid/internal/config"
	"github.com/filipkrasniqi/networkcovid/internal/dataprocessing"
	"github.com/filipkrasniqi/networkcovid/internal/errors"
)

// FileValidator checks input tables and the chart directory before a run
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// Preflight validates the KPI table, the optional location table and the
// output directory resolved in paths.
func (v *FileValidator) Preflight(paths *config.Paths) error {
	if paths == nil {
		return errors.NewConfigError("paths are required", nil)
	}
	if err := v.ValidateDataFile(paths.KPIFile); err != nil {
		return err
	}
	if paths.LocationsFile != "" {
		if err := v.ValidateDataFile(paths.LocationsFile); err != nil {
			// the location table is optional for a run
			v.logger.Warn("Location table failed validation",
				slog.String("file", paths.LocationsFile),
				slog.String("error", err.Error()))
		}
	}
	return v.ValidateOutputDirectory(paths.OutputDir)
}

// ValidateDataFile checks that path is a readable, non-empty table in a
// supported format
func (v *FileValidator) ValidateDataFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	format, err := dataprocessing.DetectFormat(path)
	if err != nil {
		v.logger.Error("Unsupported table format",
			slog.String("file", path),
			slog.String("extension", filepath.Ext(path)))
		return err
	}

	if format == dataprocessing.FormatXLSX && strings.HasPrefix(filepath.Base(path), "~$") {
		return errors.NewAppValidationError(fmt.Sprintf("%s is a temporary Excel file", path))
	}

	v.logger.Debug("Table validated",
		slog.String("file", path),
		slog.String("format", string(format)))
	return nil
}

// ValidateFile checks if a specific file exists, is readable and is not empty
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return errors.NewFileNotFoundError(path, err)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return errors.NewStorageError("failed to stat file", err).WithContext("path", path)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return errors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}
	if info.Size() == 0 {
		return errors.NewEmptyResultError(fmt.Sprintf("file %s", path))
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return errors.NewStorageError("file is not readable", err).WithContext("path", path)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
// and accepts new files
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return errors.NewStorageError("failed to create output directory", err).WithContext("directory", dir)
	}

	probe, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return errors.NewStorageError("output directory is not writable", err).WithContext("directory", dir)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}
