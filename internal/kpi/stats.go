package kpi

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/filipkrasniqi/networkcovid/internal/errors"
)

// DailyStat summarises one calendar day of a series. Count is the number of
// non-NaN samples; StdDev is NaN when Count < 2.
type DailyStat struct {
	Day    time.Time `json:"day"`
	Count  int       `json:"count"`
	Median float64   `json:"median"`
	Mean   float64   `json:"mean"`
	StdDev float64   `json:"std"`
}

// MarshalJSON renders NaN and infinite statistics as null.
func (d DailyStat) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Day    time.Time `json:"day"`
		Count  int       `json:"count"`
		Median *float64  `json:"median"`
		Mean   *float64  `json:"mean"`
		StdDev *float64  `json:"std"`
	}{
		Day:    d.Day,
		Count:  d.Count,
		Median: finite(d.Median),
		Mean:   finite(d.Mean),
		StdDev: finite(d.StdDev),
	})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// DayBox holds the non-NaN values of one calendar day for a box plot.
type DayBox struct {
	Day    time.Time `json:"day"`
	Values []float64 `json:"values"`
}

// DayOf truncates t to midnight in its own location.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// groupByDay buckets non-NaN values per calendar day, ordered by day. Days
// whose samples are all NaN keep an empty bucket.
func groupByDay(samples []Sample) []DayBox {
	index := make(map[time.Time]int)
	var days []DayBox
	for _, s := range samples {
		day := DayOf(s.Time)
		i, ok := index[day]
		if !ok {
			i = len(days)
			index[day] = i
			days = append(days, DayBox{Day: day})
		}
		if !math.IsNaN(s.Value) {
			days[i].Values = append(days[i].Values, s.Value)
		}
	}
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Day.Before(days[j].Day)
	})
	return days
}

// DailyStats computes median, mean and sample standard deviation per
// calendar day.
func DailyStats(samples []Sample) ([]DailyStat, error) {
	if len(samples) == 0 {
		return nil, errors.NewEmptyResultError("daily statistics")
	}

	days := groupByDay(samples)
	out := make([]DailyStat, 0, len(days))
	for _, d := range days {
		out = append(out, Describe(d.Day, d.Values))
	}
	return out, nil
}

// Describe computes the statistics of one day's values.
func Describe(day time.Time, values []float64) DailyStat {
	ds := DailyStat{Day: day, Count: len(values), Median: math.NaN(), Mean: math.NaN(), StdDev: math.NaN()}
	if len(values) == 0 {
		return ds
	}
	ds.Median = Median(values)
	ds.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		ds.StdDev = stat.StdDev(values, nil)
	}
	return ds
}

// Median returns the middle value, or the mean of the two middle values for
// an even count. It does not modify values.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// DailyBoxes groups values per calendar day for box plots. Days without any
// non-NaN value are left out.
func DailyBoxes(samples []Sample) ([]DayBox, error) {
	var out []DayBox
	for _, d := range groupByDay(samples) {
		if len(d.Values) > 0 {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil, errors.NewEmptyResultError("daily box values")
	}
	return out, nil
}
