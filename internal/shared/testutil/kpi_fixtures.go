package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// FixtureTimeLayout is the timestamp layout written by the fixture helpers.
const FixtureTimeLayout = "2006-01-02 15:04:05"

// HourlyFixture describes a synthetic hourly KPI table.
type HourlyFixture struct {
	Cells []string
	KPIs  []string
	Start time.Time
	Hours int

	// Value returns the sample for a cell/KPI at ts. Defaults to DefaultValue.
	Value func(cell, kpi string, ts time.Time) float64
	// Skip drops a sample when it returns true, simulating gaps.
	Skip func(cell string, ts time.Time) bool
}

// DefaultValue encodes the hour of day and the KPI position in the sample,
// which keeps expected statistics easy to derive by hand.
func DefaultValue(cell, kpi string, ts time.Time) float64 {
	base := float64(ts.Hour())
	if kpi == "USERNUM_AVG" {
		return base / 2
	}
	return base * 1000
}

// NewWeekFixture returns one week (13-19 January 2020 plus the surrounding
// hours) of hourly samples for the given cells.
func NewWeekFixture(cells ...string) HourlyFixture {
	return HourlyFixture{
		Cells: cells,
		KPIs:  []string{"DL_VOL", "USERNUM_AVG"},
		Start: time.Date(2020, 1, 12, 0, 0, 0, 0, time.UTC),
		Hours: 9 * 24,
	}
}

// Rows renders the fixture as CSV records including the header row.
func (f HourlyFixture) Rows() [][]string {
	value := f.Value
	if value == nil {
		value = DefaultValue
	}

	header := append([]string{"ECELL_ID", "Date"}, f.KPIs...)
	rows := [][]string{header}
	for h := 0; h < f.Hours; h++ {
		ts := f.Start.Add(time.Duration(h) * time.Hour)
		for _, cell := range f.Cells {
			if f.Skip != nil && f.Skip(cell, ts) {
				continue
			}
			row := []string{cell, ts.Format(FixtureTimeLayout)}
			for _, k := range f.KPIs {
				row = append(row, strconv.FormatFloat(value(cell, k, ts), 'f', -1, 64))
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// WriteKPICSV writes the fixture to dir/kpi.csv and returns the path.
func WriteKPICSV(t *testing.T, dir string, f HourlyFixture) string {
	t.Helper()
	return writeCSV(t, filepath.Join(dir, "kpi.csv"), f.Rows())
}

// WriteLocationsCSV writes a location table with the given coordinates.
func WriteLocationsCSV(t *testing.T, dir string, coords map[string][2]float64) string {
	t.Helper()

	cells := make([]string, 0, len(coords))
	for c := range coords {
		cells = append(cells, c)
	}
	sort.Strings(cells)

	rows := [][]string{{"ECELL_ID", "LATITUDE", "LONGITUDE"}}
	for _, c := range cells {
		rows = append(rows, []string{
			c,
			strconv.FormatFloat(coords[c][0], 'f', -1, 64),
			strconv.FormatFloat(coords[c][1], 'f', -1, 64),
		})
	}
	return writeCSV(t, filepath.Join(dir, "locations.csv"), rows)
}

func writeCSV(t *testing.T, path string, rows [][]string) string {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	w := csv.NewWriter(file)
	require.NoError(t, w.WriteAll(rows))
	return path
}
