package services

import (
	"context"
	"log/slog"
	"sort"

	"github.com/filipkrasniqi/networkcovid/internal/config"
	"github.com/filipkrasniqi/networkcovid/internal/dataprocessing"
	"github.com/filipkrasniqi/networkcovid/internal/errors"
)

// Dataset is a loaded KPI table with its optional location index. It is
// read-only once built and safe to share between requests.
type Dataset struct {
	Table     *dataprocessing.Table
	Locations dataprocessing.LocationIndex
	Summary   dataprocessing.Summary
}

// CellInfo describes one distinct cell of the dataset.
type CellInfo struct {
	CellID    string   `json:"cell_id"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// LoadDataset reads the KPI table and, when configured, the location table.
// A location table that cannot be read is logged and skipped.
func LoadDataset(ctx context.Context, cfg *config.Config, paths *config.Paths, logger *slog.Logger) (*Dataset, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts, err := dataprocessing.KPIOptions(cfg, logger)
	if err != nil {
		return nil, err
	}

	table, err := dataprocessing.LoadKPITable(paths.KPIFile, opts)
	if err != nil {
		return nil, err
	}

	ds := NewDataset(table, nil)

	if paths.LocationsFile == "" {
		return ds, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	locations, err := dataprocessing.LoadLocations(paths.LocationsFile, dataprocessing.LocationOptions(cfg, logger))
	if err != nil {
		logger.WarnContext(ctx, "Location table not loaded",
			slog.String("path", paths.LocationsFile),
			slog.String("error", err.Error()))
		return ds, nil
	}
	ds.Locations = locations

	logger.InfoContext(ctx, "Location table loaded",
		slog.String("path", paths.LocationsFile),
		slog.Int("cells", len(locations)))
	return ds, nil
}

// NewDataset wraps an already loaded table.
func NewDataset(table *dataprocessing.Table, locations dataprocessing.LocationIndex) *Dataset {
	return &Dataset{
		Table:     table,
		Locations: locations,
		Summary:   dataprocessing.Summarize(table),
	}
}

// Location returns the coordinates of cellID when known.
func (d *Dataset) Location(cellID string) (*dataprocessing.Location, bool) {
	loc, ok := d.Locations.Lookup(cellID)
	if !ok {
		return nil, false
	}
	return &loc, true
}

// Cells lists the distinct cells in id order with coordinates when known.
func (d *Dataset) Cells() []CellInfo {
	ids := d.Table.Cells()
	out := make([]CellInfo, 0, len(ids))
	for _, id := range ids {
		info := CellInfo{CellID: id}
		if loc, ok := d.Locations.Lookup(id); ok {
			lat, lon := loc.Latitude, loc.Longitude
			info.Latitude, info.Longitude = &lat, &lon
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CellID < out[j].CellID })
	return out
}

func requireDataset(d *Dataset) error {
	if d == nil || d.Table == nil {
		return errors.NewAppError(errors.ErrTypeEmptyResult, "dataset not loaded", nil)
	}
	return nil
}
