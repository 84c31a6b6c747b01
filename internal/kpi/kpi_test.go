package kpi

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filipkrasniqi/networkcovid/internal/config"
	"github.com/filipkrasniqi/networkcovid/internal/dataprocessing"
	"github.com/filipkrasniqi/networkcovid/internal/errors"
	"github.com/filipkrasniqi/networkcovid/internal/shared/testutil"
)

const testCell = "abc123"

var jan13 = time.Date(2020, 1, 13, 0, 0, 0, 0, time.UTC)

// fixtureTable converts a testutil fixture into an in-memory table.
func fixtureTable(f testutil.HourlyFixture) *dataprocessing.Table {
	value := f.Value
	if value == nil {
		value = testutil.DefaultValue
	}
	t := &dataprocessing.Table{KPIs: f.KPIs}
	for h := 0; h < f.Hours; h++ {
		ts := f.Start.Add(time.Duration(h) * time.Hour)
		for _, cell := range f.Cells {
			if f.Skip != nil && f.Skip(cell, ts) {
				continue
			}
			values := make([]float64, len(f.KPIs))
			for i, k := range f.KPIs {
				values[i] = value(cell, k, ts)
			}
			t.Records = append(t.Records, dataprocessing.Record{CellID: cell, Time: ts, Values: values})
		}
	}
	return t
}

func record(ts time.Time, v float64) dataprocessing.Record {
	return dataprocessing.Record{CellID: testCell, Time: ts, Values: []float64{v}}
}

func TestWeekWindow(t *testing.T) {
	w := WeekWindow(jan13.Add(15*time.Hour), 7)

	assert.Equal(t, time.Date(2020, 1, 12, 23, 59, 0, 0, time.UTC), w.After)
	assert.Equal(t, time.Date(2020, 1, 20, 0, 1, 0, 0, time.UTC), w.Before)
	assert.Equal(t, "(2020-01-12 23:59, 2020-01-20 00:01)", w.String())
}

func TestWindowFromConfig(t *testing.T) {
	cfg := config.Default().Analysis

	w, err := WindowFromConfig(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, WeekWindow(jan13, 7), w)

	cfg.WindowBefore = cfg.WindowAfter
	_, err = WindowFromConfig(cfg, time.UTC)
	assert.Equal(t, errors.ErrTypeValidation, errors.TypeOf(err))

	cfg.WindowAfter = "13/01/2020"
	_, err = WindowFromConfig(cfg, time.UTC)
	assert.Equal(t, errors.ErrTypeConfig, errors.TypeOf(err))
}

func TestFilterWindow(t *testing.T) {
	w := WeekWindow(jan13, 7)

	tests := []struct {
		name string
		ts   time.Time
		want bool
	}{
		{"tie at after", w.After, false},
		{"tie at before", w.Before, false},
		{"just inside after", w.After.Add(time.Nanosecond), true},
		{"just inside before", w.Before.Add(-time.Nanosecond), true},
		{"previous midnight", time.Date(2020, 1, 12, 23, 0, 0, 0, time.UTC), false},
		{"first midnight", jan13, true},
		{"closing midnight", time.Date(2020, 1, 20, 0, 0, 0, 0, time.UTC), true},
		{"after closing midnight", time.Date(2020, 1, 20, 1, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Contains(tt.ts))

			rows := []dataprocessing.Record{record(jan13.Add(12*time.Hour), 1), record(tt.ts, 2)}
			got, err := FilterWindow(rows, w)
			require.NoError(t, err)
			if tt.want {
				assert.Len(t, got, 2)
			} else {
				assert.Len(t, got, 1)
			}
		})
	}
}

func TestFilterWindow_Week(t *testing.T) {
	table := fixtureTable(testutil.NewWeekFixture(testCell, "other"))

	got, err := FilterWindow(table.Records, WeekWindow(jan13, 7))
	require.NoError(t, err)

	assert.Len(t, got, 2*(7*24+1))
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Time.Before(got[i-1].Time), "input order preserved")
	}
}

func TestFilterWindow_Empty(t *testing.T) {
	table := fixtureTable(testutil.NewWeekFixture(testCell))
	w := WeekWindow(time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), 7)

	for i := 0; i < 3; i++ {
		_, err := FilterWindow(table.Records, w)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrEmptyResult)
	}

	_, err := FilterWindow(table.Records, Window{After: jan13, Before: jan13})
	assert.Equal(t, errors.ErrTypeValidation, errors.TypeOf(err))
}

func TestClockRange(t *testing.T) {
	r, err := ParseClockRange("22:00:00", "05:59:59")
	require.NoError(t, err)
	assert.Equal(t, "22:00:00-05:59:59", r.String())

	assert.True(t, r.Contains(time.Date(2020, 1, 13, 23, 0, 0, 0, time.UTC)))
	assert.True(t, r.Contains(time.Date(2020, 1, 13, 3, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2020, 1, 13, 12, 0, 0, 0, time.UTC)))

	_, err = ParseClockRange("6am", "12:00:00")
	assert.Equal(t, errors.ErrTypeValidation, errors.TypeOf(err))
}

func TestDayNightFromConfig(t *testing.T) {
	dn, err := DayNightFromConfig(config.Default().Analysis)
	require.NoError(t, err)
	assert.Equal(t, DefaultDayNight(), dn)
}

func TestPartition_TotalAndDisjoint(t *testing.T) {
	dn := DefaultDayNight()

	// every second of a day, ignoring the sub-second part
	start := jan13.Add(250 * time.Millisecond)
	for s := 0; s < secondsPerDay; s++ {
		ts := start.Add(time.Duration(s) * time.Second)
		inDay, inNight := dn.Day.Contains(ts), dn.Night.Contains(ts)
		if inDay == inNight {
			t.Fatalf("%s: day=%v night=%v", ts.Format(time.TimeOnly), inDay, inNight)
		}
	}
}

func TestPartition_RoundTrip(t *testing.T) {
	table := fixtureTable(testutil.NewWeekFixture(testCell, "other"))
	window, err := FilterWindow(table.Records, WeekWindow(jan13, 7))
	require.NoError(t, err)

	day, night := Partition(window, DefaultDayNight())
	assert.Len(t, day, 2*7*18)
	assert.Len(t, night, 2*(7*6+1))

	type key struct {
		cell string
		ts   time.Time
	}
	seen := make(map[key]int)
	for _, r := range append(append([]dataprocessing.Record{}, day...), night...) {
		seen[key{r.CellID, r.Time}]++
	}
	require.Len(t, seen, len(window))
	for _, r := range window {
		assert.Equal(t, 1, seen[key{r.CellID, r.Time}])
	}
}

// scenario: hours 00, 06, 12, 18 on two consecutive days
func scenario() (*dataprocessing.Table, []dataprocessing.Record) {
	jan14 := jan13.AddDate(0, 0, 1)
	rows := []dataprocessing.Record{
		record(jan13, 1),
		record(jan13.Add(6*time.Hour), 2),
		record(jan13.Add(12*time.Hour), 4),
		record(jan13.Add(18*time.Hour), 9),
		record(jan14, 10),
		record(jan14.Add(6*time.Hour), 10),
		record(jan14.Add(12*time.Hour), 20),
		record(jan14.Add(18*time.Hour), 30),
	}
	return &dataprocessing.Table{KPIs: []string{"DL_VOL"}, Records: rows}, rows
}

func TestScenario_DayNightStats(t *testing.T) {
	table, rows := scenario()

	day, night := Partition(rows, DefaultDayNight())
	require.Len(t, day, 6)
	require.Len(t, night, 2)
	for _, r := range day {
		assert.Contains(t, []int{6, 12, 18}, r.Time.Hour())
	}
	for _, r := range night {
		assert.Equal(t, 0, r.Time.Hour())
	}

	samples, err := SelectSeries(table, day, testCell, "DL_VOL")
	require.NoError(t, err)

	stats, err := DailyStats(samples)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, jan13, stats[0].Day)
	assert.Equal(t, 3, stats[0].Count)
	assert.InDelta(t, 5.0, stats[0].Mean, 1e-9)
	assert.InDelta(t, 4.0, stats[0].Median, 1e-9)
	assert.InDelta(t, math.Sqrt(13), stats[0].StdDev, 1e-9)

	assert.Equal(t, jan13.AddDate(0, 0, 1), stats[1].Day)
	assert.InDelta(t, 20.0, stats[1].Mean, 1e-9)
	assert.InDelta(t, 20.0, stats[1].Median, 1e-9)
	assert.InDelta(t, 10.0, stats[1].StdDev, 1e-9)

	nightSamples, err := SelectSeries(table, night, testCell, "DL_VOL")
	require.NoError(t, err)
	nightStats, err := DailyStats(nightSamples)
	require.NoError(t, err)
	require.Len(t, nightStats, 2)
	assert.Equal(t, 1, nightStats[0].Count)
	assert.Equal(t, 1.0, nightStats[0].Mean)
	assert.True(t, math.IsNaN(nightStats[0].StdDev), "single sample std is NaN")
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"odd", []float64{9, 1, 4}, 4},
		{"even", []float64{4, 1, 9, 2}, 3},
		{"single", []float64{7}, 7},
		{"ties", []float64{2, 2, 2, 5}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := append([]float64(nil), tt.values...)
			assert.Equal(t, tt.want, Median(tt.values))
			assert.Equal(t, input, tt.values, "input is not reordered")
		})
	}

	assert.True(t, math.IsNaN(Median(nil)))
}

func TestDailyStats_NaN(t *testing.T) {
	nan := math.NaN()
	samples := []Sample{
		{Time: jan13.Add(7 * time.Hour), Value: 3},
		{Time: jan13.Add(8 * time.Hour), Value: nan},
		{Time: jan13.Add(9 * time.Hour), Value: 5},
		{Time: jan13.Add(31 * time.Hour), Value: nan},
	}

	stats, err := DailyStats(samples)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, 2, stats[0].Count)
	assert.Equal(t, 4.0, stats[0].Mean)
	assert.InDelta(t, math.Sqrt2, stats[0].StdDev, 1e-9)

	assert.Equal(t, 0, stats[1].Count)
	assert.True(t, math.IsNaN(stats[1].Mean))
	assert.True(t, math.IsNaN(stats[1].Median))

	boxes, err := DailyBoxes(samples)
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	assert.Equal(t, []float64{3, 5}, boxes[0].Values)

	_, err = DailyBoxes(samples[3:])
	assert.ErrorIs(t, err, errors.ErrEmptyResult)
}

func TestDailyStat_MarshalJSON(t *testing.T) {
	day := time.Date(2020, 1, 14, 0, 0, 0, 0, time.UTC)
	stats := []DailyStat{
		Describe(day, []float64{7}),
		{Day: day, Count: 2, Median: 1.5, Mean: 1.5, StdDev: math.Inf(1)},
	}

	out, err := json.Marshal(stats)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"day":"2020-01-14T00:00:00Z","count":1,"median":7,"mean":7,"std":null},
		{"day":"2020-01-14T00:00:00Z","count":2,"median":1.5,"mean":1.5,"std":null}
	]`, string(out))
}

func TestDailyStats_Empty(t *testing.T) {
	_, err := DailyStats(nil)
	assert.ErrorIs(t, err, errors.ErrEmptyResult)
}

func TestDailyBoxes_CalendarDays(t *testing.T) {
	// same day of month in consecutive months stays separate
	feb13 := time.Date(2020, 2, 13, 10, 0, 0, 0, time.UTC)
	samples := []Sample{
		{Time: feb13, Value: 2},
		{Time: jan13.Add(10 * time.Hour), Value: 1},
	}

	boxes, err := DailyBoxes(samples)
	require.NoError(t, err)
	require.Len(t, boxes, 2)
	assert.Equal(t, jan13, boxes[0].Day)
	assert.Equal(t, DayOf(feb13), boxes[1].Day)
}

func TestSelectSeries(t *testing.T) {
	table, rows := scenario()

	// reversed input comes back sorted
	reversed := make([]dataprocessing.Record, len(rows))
	for i, r := range rows {
		reversed[len(rows)-1-i] = r
	}
	samples, err := SelectSeries(table, reversed, testCell, "DL_VOL")
	require.NoError(t, err)
	require.Len(t, samples, len(rows))
	assert.Equal(t, jan13, samples[0].Time)
	assert.Equal(t, []float64{1, 2, 4, 9, 10, 10, 20, 30}, Values(samples))

	_, err = SelectSeries(table, rows, testCell, "UL_VOL")
	assert.ErrorIs(t, err, errors.ErrKeyNotFound)

	_, err = SelectSeries(table, rows, "missing", "DL_VOL")
	assert.ErrorIs(t, err, errors.ErrKeyNotFound)
}

func TestHourlyTicks(t *testing.T) {
	table := fixtureTable(testutil.NewWeekFixture(testCell))
	window, err := FilterWindow(table.Records, WeekWindow(jan13, 7))
	require.NoError(t, err)
	samples, err := SelectSeries(table, window, testCell, "DL_VOL")
	require.NoError(t, err)

	ticks := HourlyTicks(samples)
	require.Len(t, ticks, 15)
	assert.Equal(t, Tick{Index: 0, Label: "2020-01-13 00:00"}, ticks[0])
	assert.Equal(t, Tick{Index: 12, Label: "2020-01-13 12:00"}, ticks[1])
	assert.Equal(t, Tick{Index: 168, Label: "2020-01-20 00:00"}, ticks[14])

	assert.Empty(t, DetectGaps(samples, ExpectedSamplesPerDay))
}

func TestHourlyTicks_MissingSample(t *testing.T) {
	fixture := testutil.NewWeekFixture(testCell)
	missing := time.Date(2020, 1, 15, 10, 0, 0, 0, time.UTC)
	fixture.Skip = func(_ string, ts time.Time) bool { return ts.Equal(missing) }

	table := fixtureTable(fixture)
	window, err := FilterWindow(table.Records, WeekWindow(jan13, 7))
	require.NoError(t, err)
	samples, err := SelectSeries(table, window, testCell, "DL_VOL")
	require.NoError(t, err)

	ticks := HourlyTicks(samples)
	require.Len(t, ticks, 15)
	// noon of the 15th shifts one position left and keeps its label
	assert.Equal(t, Tick{Index: 2*24 + 12 - 1, Label: "2020-01-15 12:00"}, ticks[5])
	assert.Equal(t, 12.0, samples[ticks[5].Index].Value/1000)

	gaps := DetectGaps(samples, ExpectedSamplesPerDay)
	require.Len(t, gaps, 1)
	assert.Equal(t, Gap{Day: time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC), Count: 23}, gaps[0])
}
