package kpi

import (
	"fmt"
	"time"

	"github.com/filipkrasniqi/networkcovid/internal/config"
	"github.com/filipkrasniqi/networkcovid/internal/dataprocessing"
	"github.com/filipkrasniqi/networkcovid/internal/errors"
)

const secondsPerDay = 24 * 60 * 60

// ClockRange is an inclusive range of seconds since midnight. A range with
// From > To wraps past midnight.
type ClockRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// ParseClockRange parses two HH:MM:SS bounds.
func ParseClockRange(from, to string) (ClockRange, error) {
	f, err := parseClock(from)
	if err != nil {
		return ClockRange{}, err
	}
	t, err := parseClock(to)
	if err != nil {
		return ClockRange{}, err
	}
	return ClockRange{From: f, To: t}, nil
}

func parseClock(s string) (int, error) {
	t, err := time.Parse(config.ClockLayout, s)
	if err != nil {
		return 0, errors.NewAppValidationError(fmt.Sprintf("invalid time of day %q, want HH:MM:SS", s))
	}
	return t.Hour()*3600 + t.Minute()*60 + t.Second(), nil
}

// SecondOfDay is the wall-clock second of t, ignoring date and sub-second parts.
func SecondOfDay(t time.Time) int {
	h, m, s := t.Clock()
	return h*3600 + m*60 + s
}

// Contains reports whether the time of day of t falls in the range.
func (c ClockRange) Contains(t time.Time) bool {
	s := SecondOfDay(t)
	if c.From <= c.To {
		return s >= c.From && s <= c.To
	}
	return s >= c.From || s <= c.To
}

func (c ClockRange) String() string {
	return fmt.Sprintf("%s-%s", clockString(c.From), clockString(c.To))
}

func clockString(sec int) string {
	sec = ((sec % secondsPerDay) + secondsPerDay) % secondsPerDay
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, sec/60%60, sec%60)
}

// DayNight holds the two clock ranges used to split a window.
type DayNight struct {
	Day   ClockRange `json:"day"`
	Night ClockRange `json:"night"`
}

// DefaultDayNight is day 06:00:00-23:59:59 and night 00:00:00-05:59:59.
func DefaultDayNight() DayNight {
	return DayNight{
		Day:   ClockRange{From: 6 * 3600, To: secondsPerDay - 1},
		Night: ClockRange{From: 0, To: 6*3600 - 1},
	}
}

// DayNightFromConfig parses the configured day and night ranges.
func DayNightFromConfig(cfg config.AnalysisConfig) (DayNight, error) {
	day, err := ParseClockRange(cfg.DayStart, cfg.DayEnd)
	if err != nil {
		return DayNight{}, err
	}
	night, err := ParseClockRange(cfg.NightStart, cfg.NightEnd)
	if err != nil {
		return DayNight{}, err
	}
	return DayNight{Day: day, Night: night}, nil
}

// Partition splits records into day and night subsets, each in input order.
// Records matching neither range are dropped; with overlapping ranges a
// record lands in both.
func Partition(records []dataprocessing.Record, dn DayNight) (day, night []dataprocessing.Record) {
	for _, r := range records {
		if dn.Day.Contains(r.Time) {
			day = append(day, r)
		}
		if dn.Night.Contains(r.Time) {
			night = append(night, r)
		}
	}
	return day, night
}
