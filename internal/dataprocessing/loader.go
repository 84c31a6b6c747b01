package dataprocessing

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/filipkrasniqi/networkcovid/internal/config"
	"github.com/filipkrasniqi/networkcovid/internal/errors"
)

// Format is an input file format.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatXLSX   Format = "xlsx"
	FormatSQLite Format = "sqlite"
)

// Options control how a table is read.
type Options struct {
	CellColumn string
	TimeColumn string
	// TimeLayout is tried before the built-in layouts when set.
	TimeLayout string
	Location   *time.Location
	// Sheet selects the XLSX sheet; empty means the first sheet holding CellColumn.
	Sheet string
	// Table is the SQLite table name.
	Table  string
	Logger *slog.Logger
}

// KPIOptions builds the options for the KPI table from the configuration.
func KPIOptions(cfg *config.Config, logger *slog.Logger) (Options, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Options{}, errors.NewConfigError("invalid timezone", err)
	}
	return Options{
		CellColumn: cfg.Dataset.CellColumn,
		TimeColumn: cfg.Dataset.TimeColumn,
		TimeLayout: cfg.Dataset.TimeLayout,
		Location:   loc,
		Sheet:      cfg.Dataset.Sheet,
		Table:      cfg.Dataset.KPITable,
		Logger:     logger,
	}, nil
}

// LocationOptions builds the options for the location table.
func LocationOptions(cfg *config.Config, logger *slog.Logger) Options {
	return Options{
		CellColumn: cfg.Dataset.CellColumn,
		Table:      cfg.Dataset.LocationsTable,
		Logger:     logger,
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// DetectFormat maps a file extension to a Format.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	default:
		return "", errors.NewAppValidationError(fmt.Sprintf("unsupported input format %q", filepath.Ext(path))).
			WithContext("path", path)
	}
}

// LoadKPITable reads the KPI table at path.
func LoadKPITable(path string, opts Options) (*Table, error) {
	df, err := readFrame(path, opts, opts.Table, []string{opts.CellColumn}, []string{opts.CellColumn, opts.TimeColumn})
	if err != nil {
		return nil, err
	}

	table, err := tableFromFrame(df, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	opts.logger().Info("KPI table loaded",
		slog.String("path", path),
		slog.Int("rows", len(table.Records)),
		slog.Int("kpis", len(table.KPIs)),
		slog.Int("dropped_rows", table.DroppedRows))

	return table, nil
}

// LoadLocations reads the cell-location table at path.
func LoadLocations(path string, opts Options) (LocationIndex, error) {
	cellCols := append([]string{opts.CellColumn}, cellColumnSynonyms...)
	df, err := readFrame(path, opts, opts.Table, cellCols, cellCols)
	if err != nil {
		return nil, err
	}

	idx, err := locationsFromFrame(df, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	opts.logger().Info("Location table loaded",
		slog.String("path", path),
		slog.Int("cells", len(idx)))

	return idx, nil
}

// readFrame loads any supported format into a DataFrame. keyCols name the
// accepted cell column headers, used to pick the workbook sheet. stringCols
// are kept as strings regardless of their content.
func readFrame(path string, opts Options, table string, keyCols, stringCols []string) (dataframe.DataFrame, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return dataframe.DataFrame{}, errors.NewFileNotFoundError(path, err)
		}
		return dataframe.DataFrame{}, errors.NewStorageError("cannot stat input", err).WithContext("path", path)
	}

	loadOpts := []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues([]string{"", "NA", "NaN", "nan", "<nil>"}),
		dataframe.WithTypes(stringTypes(stringCols)),
	}

	var df dataframe.DataFrame
	switch format {
	case FormatCSV:
		file, err := os.Open(path)
		if err != nil {
			return dataframe.DataFrame{}, errors.NewStorageError("cannot open input", err).WithContext("path", path)
		}
		defer file.Close()
		df = dataframe.ReadCSV(file, loadOpts...)
	case FormatXLSX:
		records, err := ParseWorkbook(path, opts.Sheet, opts.logger(), keyCols...)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		df = dataframe.LoadRecords(records, loadOpts...)
	case FormatSQLite:
		records, err := ReadSQLiteTable(path, table)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		df = dataframe.LoadRecords(records, loadOpts...)
	}

	if df.Err != nil {
		return dataframe.DataFrame{}, errors.NewParsingError("cannot read table", df.Err).WithContext("path", path)
	}
	return df, nil
}

// stringTypes forces the named columns, in their usual case variants, to strings.
func stringTypes(names []string) map[string]series.Type {
	types := make(map[string]series.Type, len(names)*3)
	for _, n := range names {
		if n == "" {
			continue
		}
		types[n] = series.String
		types[strings.ToUpper(n)] = series.String
		types[strings.ToLower(n)] = series.String
	}
	return types
}
