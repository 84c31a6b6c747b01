package dataprocessing

import (
	"sort"
	"time"
)

// Column data types reported by the diagnostics summary.
const (
	TypeString   = "string"
	TypeInt      = "int"
	TypeFloat    = "float"
	TypeBool     = "bool"
	TypeDatetime = "datetime"
)

// ColumnInfo describes one source column.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Record is one hourly KPI row of one cell. Values[i] belongs to Table.KPIs[i].
type Record struct {
	CellID string
	Time   time.Time
	Values []float64
}

// Table is a loaded KPI dataset. Records keep the source order.
type Table struct {
	Columns []ColumnInfo
	KPIs    []string
	Records []Record

	// DroppedRows counts rows skipped for an empty timestamp.
	DroppedRows int
}

// KPIIndex returns the position of kpi in Values, or -1.
func (t *Table) KPIIndex(kpi string) int {
	for i, name := range t.KPIs {
		if name == kpi {
			return i
		}
	}
	return -1
}

// Cells returns the distinct cell identifiers in ascending order.
func (t *Table) Cells() []string {
	seen := make(map[string]struct{})
	for _, r := range t.Records {
		seen[r.CellID] = struct{}{}
	}
	cells := make([]string, 0, len(seen))
	for c := range seen {
		cells = append(cells, c)
	}
	sort.Strings(cells)
	return cells
}

// Location is the geographic position of a cell.
type Location struct {
	CellID    string  `json:"cell_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationIndex maps cell identifiers to their location.
type LocationIndex map[string]Location

// Lookup returns the location of cellID.
func (idx LocationIndex) Lookup(cellID string) (Location, bool) {
	loc, ok := idx[cellID]
	return loc, ok
}
