package kpi

import (
	"fmt"
	"time"

	"github.com/filipkrasniqi/networkcovid/internal/config"
	"github.com/filipkrasniqi/networkcovid/internal/dataprocessing"
	"github.com/filipkrasniqi/networkcovid/internal/errors"
)

// Window selects records strictly between two marker instants. Records at
// exactly After or Before are excluded.
type Window struct {
	After  time.Time `json:"after"`
	Before time.Time `json:"before"`
}

// NewWindow validates that after precedes before.
func NewWindow(after, before time.Time) (Window, error) {
	w := Window{After: after, Before: before}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// WeekWindow covers days calendar days starting at midnight of firstDay, plus
// the midnight sample that closes the last day. After is one minute before
// the first midnight and Before one minute after the closing one.
func WeekWindow(firstDay time.Time, days int) Window {
	start := time.Date(firstDay.Year(), firstDay.Month(), firstDay.Day(), 0, 0, 0, 0, firstDay.Location())
	return Window{
		After:  start.Add(-time.Minute),
		Before: start.AddDate(0, 0, days).Add(time.Minute),
	}
}

// WindowFromConfig parses the configured markers in loc.
func WindowFromConfig(cfg config.AnalysisConfig, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	after, err := time.ParseInLocation(config.TimestampLayout, cfg.WindowAfter, loc)
	if err != nil {
		return Window{}, errors.NewConfigError("invalid window_after", err)
	}
	before, err := time.ParseInLocation(config.TimestampLayout, cfg.WindowBefore, loc)
	if err != nil {
		return Window{}, errors.NewConfigError("invalid window_before", err)
	}
	return NewWindow(after, before)
}

// Validate reports a validation error when After is not before Before.
func (w Window) Validate() error {
	if !w.After.Before(w.Before) {
		return errors.NewAppValidationError(fmt.Sprintf("window after %s is not before %s",
			w.After.Format(time.RFC3339), w.Before.Format(time.RFC3339)))
	}
	return nil
}

// Contains reports whether t lies strictly inside the window.
func (w Window) Contains(t time.Time) bool {
	return t.After(w.After) && t.Before(w.Before)
}

func (w Window) String() string {
	return fmt.Sprintf("(%s, %s)", w.After.Format("2006-01-02 15:04"), w.Before.Format("2006-01-02 15:04"))
}

// FilterWindow returns the records inside w in input order. A window that
// matches nothing is an empty-result error.
func FilterWindow(records []dataprocessing.Record, w Window) ([]dataprocessing.Record, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	out := make([]dataprocessing.Record, 0, len(records))
	for _, r := range records {
		if w.Contains(r.Time) {
			out = append(out, r)
		}
	}

	if len(out) == 0 {
		return nil, errors.NewEmptyResultError("time window filter").
			WithContext("window", w.String()).
			WithContext("records", len(records))
	}
	return out, nil
}
