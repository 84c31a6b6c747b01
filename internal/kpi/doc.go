// Package kpi turns a loaded KPI table into the series and statistics the
// weekly report draws.
//
// The steps are plain functions over dataprocessing records and run in
// this order:
//
//   - window.go: strict time-window filter between two marker instants
//   - partition.go: day/night split by wall-clock time of day
//   - series.go: one cell, one KPI, sorted by time
//   - stats.go: per-day median, mean, sample standard deviation and box values
//   - ticks.go: midnight/noon tick positions and missing-hour detection
//
// Every function is pure and safe for concurrent use on shared inputs.
package kpi
