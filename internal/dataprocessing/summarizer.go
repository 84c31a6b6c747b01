package dataprocessing

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

// Summary holds the dataset diagnostics printed before a run.
type Summary struct {
	Columns       []ColumnInfo `json:"columns"`
	DataPoints    int          `json:"data_points"`
	ColumnCount   int          `json:"column_count"`
	DistinctCells int          `json:"distinct_cells"`
	KPIs          []string     `json:"kpis"`
	First         time.Time    `json:"first_timestamp"`
	Last          time.Time    `json:"last_timestamp"`
	DroppedRows   int          `json:"dropped_rows"`
}

// Summarize computes the diagnostics of t.
func Summarize(t *Table) Summary {
	s := Summary{
		Columns:       t.Columns,
		DataPoints:    len(t.Records),
		ColumnCount:   len(t.Columns),
		DistinctCells: len(t.Cells()),
		KPIs:          t.KPIs,
		DroppedRows:   t.DroppedRows,
	}
	for i, r := range t.Records {
		if i == 0 || r.Time.Before(s.First) {
			s.First = r.Time
		}
		if i == 0 || r.Time.After(s.Last) {
			s.Last = r.Time
		}
	}
	return s
}

// Print writes the human-readable diagnostics block.
func (s Summary) Print(w io.Writer) error {
	rule := strings.Repeat("*", 20)

	var b strings.Builder
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "Data types:")
	fmt.Fprintln(&b)
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	for _, c := range s.Columns {
		fmt.Fprintf(tw, "%s\t%s\n", c.Name, c.Type)
	}
	tw.Flush()
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "Number of data points: ", s.DataPoints)
	fmt.Fprintln(&b, "Number of columns in the dataset: ", s.ColumnCount)
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "Number of (distinct) cells: ", s.DistinctCells)
	if s.DataPoints > 0 {
		fmt.Fprintf(&b, "Time span: %s - %s\n",
			s.First.Format("2006-01-02 15:04"), s.Last.Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(&b, rule)

	_, err := io.WriteString(w, b.String())
	return err
}
