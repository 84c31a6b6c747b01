package dataprocessing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	"github.com/filipkrasniqi/networkcovid/internal/errors"
)

var (
	cellColumnSynonyms      = []string{"ECELL_ID", "CELL_ID", "CELLID"}
	latitudeColumnSynonyms  = []string{"LAT", "LATITUDE"}
	longitudeColumnSynonyms = []string{"LON", "LNG", "LONG", "LONGITUDE"}
)

// timestampLayouts are tried in order after Options.TimeLayout.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05-07:00",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
}

// findColumn returns the index of the first column matching one of names,
// compared case-insensitively.
func findColumn(header []string, names ...string) int {
	for _, name := range names {
		if name == "" {
			continue
		}
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
	}
	return -1
}

func dtypeName(t series.Type) string {
	switch t {
	case series.Int:
		return TypeInt
	case series.Float:
		return TypeFloat
	case series.Bool:
		return TypeBool
	default:
		return TypeString
	}
}

// tableFromFrame converts a loaded frame into a Table.
func tableFromFrame(df dataframe.DataFrame, opts Options) (*Table, error) {
	names := df.Names()
	types := df.Types()

	cellIdx := findColumn(names, opts.CellColumn)
	if cellIdx < 0 {
		return nil, errors.NewKeyNotFoundError("column", opts.CellColumn)
	}
	timeIdx := findColumn(names, opts.TimeColumn)
	if timeIdx < 0 {
		return nil, errors.NewKeyNotFoundError("column", opts.TimeColumn)
	}

	table := &Table{Columns: make([]ColumnInfo, len(names))}
	var kpiCols [][]float64
	for i, name := range names {
		info := ColumnInfo{Name: name, Type: dtypeName(types[i])}
		switch {
		case i == timeIdx:
			info.Type = TypeDatetime
		case i == cellIdx:
		case types[i] == series.Int || types[i] == series.Float:
			table.KPIs = append(table.KPIs, name)
			kpiCols = append(kpiCols, df.Col(name).Float())
		}
		table.Columns[i] = info
	}

	cells := df.Col(names[cellIdx]).Records()
	stamps := df.Col(names[timeIdx]).Records()
	loc := opts.location()

	table.Records = make([]Record, 0, df.Nrow())
	for row := 0; row < df.Nrow(); row++ {
		raw := strings.TrimSpace(stamps[row])
		if raw == "" || raw == "NaN" {
			table.DroppedRows++
			continue
		}
		ts, err := ParseTimestamp(raw, opts.TimeLayout, loc)
		if err != nil {
			return nil, errors.NewParsingError(fmt.Sprintf("row %d: bad timestamp %q", row+2, raw), err).
				WithContext("column", names[timeIdx])
		}

		values := make([]float64, len(kpiCols))
		for k, col := range kpiCols {
			values[k] = col[row]
		}
		table.Records = append(table.Records, Record{
			CellID: cells[row],
			Time:   ts,
			Values: values,
		})
	}

	if table.DroppedRows > 0 {
		opts.logger().Warn("Rows without timestamp skipped",
			"column", names[timeIdx], "rows", table.DroppedRows)
	}

	return table, nil
}

// locationsFromFrame builds the location index; later rows win on duplicate ids.
func locationsFromFrame(df dataframe.DataFrame, opts Options) (LocationIndex, error) {
	names := df.Names()

	cellIdx := findColumn(names, append([]string{opts.CellColumn}, cellColumnSynonyms...)...)
	if cellIdx < 0 {
		return nil, errors.NewKeyNotFoundError("column", opts.CellColumn)
	}
	latIdx := findColumn(names, latitudeColumnSynonyms...)
	if latIdx < 0 {
		return nil, errors.NewKeyNotFoundError("column", "latitude")
	}
	lonIdx := findColumn(names, longitudeColumnSynonyms...)
	if lonIdx < 0 {
		return nil, errors.NewKeyNotFoundError("column", "longitude")
	}

	cells := df.Col(names[cellIdx]).Records()
	lats := df.Col(names[latIdx]).Float()
	lons := df.Col(names[lonIdx]).Float()

	idx := make(LocationIndex, len(cells))
	for i, cell := range cells {
		if cell == "" || cell == "NaN" {
			continue
		}
		idx[cell] = Location{CellID: cell, Latitude: lats[i], Longitude: lons[i]}
	}
	return idx, nil
}

// ParseTimestamp parses raw in loc using layout first, then the built-in
// layouts, then as an Excel serial date number.
func ParseTimestamp(raw, layout string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	layouts := timestampLayouts
	if layout != "" {
		layouts = append([]string{layout}, timestampLayouts...)
	}
	for _, l := range layouts {
		if ts, err := time.ParseInLocation(l, raw, loc); err == nil {
			return ts, nil
		}
	}

	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(serial) || serial <= 0 {
		return time.Time{}, fmt.Errorf("no layout matches %q", raw)
	}
	ts, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, err
	}
	ts = ts.Round(time.Second)
	return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(), 0, loc), nil
}
