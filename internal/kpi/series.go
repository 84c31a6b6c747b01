package kpi

import (
	"sort"
	"time"

	"github.com/filipkrasniqi/networkcovid/internal/dataprocessing"
	"github.com/filipkrasniqi/networkcovid/internal/errors"
)

// Sample is one hourly value of one KPI for one cell.
type Sample struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// SelectSeries extracts the time-sorted samples of cellID for kpiName from
// records, which must share the column layout of table.
func SelectSeries(table *dataprocessing.Table, records []dataprocessing.Record, cellID, kpiName string) ([]Sample, error) {
	idx := table.KPIIndex(kpiName)
	if idx < 0 {
		return nil, errors.NewKeyNotFoundError("kpi", kpiName).WithContext("available", table.KPIs)
	}

	var samples []Sample
	for _, r := range records {
		if r.CellID != cellID || idx >= len(r.Values) {
			continue
		}
		samples = append(samples, Sample{Time: r.Time, Value: r.Values[idx]})
	}
	if len(samples) == 0 {
		return nil, errors.NewKeyNotFoundError("cell", cellID).WithContext("records", len(records))
	}

	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Time.Before(samples[j].Time)
	})
	return samples, nil
}

// Values returns the sample values in order.
func Values(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Value
	}
	return out
}
