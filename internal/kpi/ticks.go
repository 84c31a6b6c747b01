package kpi

import (
	"time"
)

// TickLayout formats hourly chart tick labels.
const TickLayout = "2006-01-02 15:04"

// ExpectedSamplesPerDay is the sample count of a gap-free hourly day.
const ExpectedSamplesPerDay = 24

// Tick places a label at a sample index of an hourly series.
type Tick struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// Gap is a calendar day whose sample count differs from the expected one.
type Gap struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

// HourlyTicks returns a tick at every sample taken exactly at midnight or
// noon. Positions come from the timestamps, so labels stay aligned when
// hours are missing.
func HourlyTicks(samples []Sample) []Tick {
	var ticks []Tick
	for i, s := range samples {
		h, m, sec := s.Time.Clock()
		if m == 0 && sec == 0 && (h == 0 || h == 12) {
			ticks = append(ticks, Tick{Index: i, Label: s.Time.Format(TickLayout)})
		}
	}
	return ticks
}

// DetectGaps lists the days whose sample count is not perDay, over samples
// sorted by time. A trailing day holding only the closing midnight sample is
// not a gap.
func DetectGaps(samples []Sample, perDay int) []Gap {
	if len(samples) == 0 {
		return nil
	}

	var gaps []Gap
	days := groupCounts(samples)
	for i, d := range days {
		if d.Count == perDay {
			continue
		}
		last := samples[len(samples)-1].Time
		if i == len(days)-1 && d.Count == 1 && i > 0 && SecondOfDay(last) == 0 {
			continue
		}
		gaps = append(gaps, d)
	}
	return gaps
}

func groupCounts(samples []Sample) []Gap {
	var out []Gap
	for _, s := range samples {
		day := DayOf(s.Time)
		if n := len(out); n > 0 && out[n-1].Day.Equal(day) {
			out[n-1].Count++
			continue
		}
		out = append(out, Gap{Day: day, Count: 1})
	}
	return out
}
