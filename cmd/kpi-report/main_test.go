package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filipkrasniqi/networkcovid/internal/config"
	"github.com/filipkrasniqi/networkcovid/internal/errors"
	"github.com/filipkrasniqi/networkcovid/internal/shared/testutil"
)

func writeDataset(t *testing.T) (dir, kpiFile, locFile string) {
	t.Helper()
	dir = t.TempDir()
	kpiFile = testutil.WriteKPICSV(t, dir, testutil.NewWeekFixture("abc123"))
	locFile = testutil.WriteLocationsCSV(t, dir, map[string][2]float64{"abc123": {45.4642, 9.19}})
	return dir, kpiFile, locFile
}

func TestParseFlags_Overrides(t *testing.T) {
	opts, fs, err := parseFlags([]string{"-cell", "xyz", "-kpi", "USERNUM_AVG", "-out", "charts"})
	require.NoError(t, err)

	cfg := config.Default()
	opts.apply(fs, cfg)

	assert.Equal(t, "xyz", cfg.Analysis.CellID)
	assert.Equal(t, "USERNUM_AVG", cfg.Analysis.KPI)
	assert.Equal(t, "charts", cfg.Charts.OutputDir)
	// unset flags keep the configured value
	assert.Equal(t, config.DefaultKPIFile, cfg.Dataset.KPIFile)
	assert.Equal(t, config.DefaultWindowAfter, cfg.Analysis.WindowAfter)
}

func TestRun_Diagnostics(t *testing.T) {
	dir, kpiFile, locFile := writeDataset(t)
	out := filepath.Join(dir, "charts")

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-kpi-file", kpiFile,
		"-locations-file", locFile,
		"-cell", "abc123",
		"-out", out,
	}, &stdout)
	require.NoError(t, err)

	text := stdout.String()
	assert.Contains(t, text, "Number of (distinct) cells:  1")
	assert.Regexp(t, `Date\s+Count\s+Median\s+Mean\s+Std`, text)
	assert.Contains(t, text, "Saved box chart:")

	for _, name := range []string{
		"Median Daily Traces of DL_VOL - Cell Id: abc123.png",
		"Median Hourly Traces of DL_VOL - Cell Id: abc123.png",
		"Box Plot of Median DailyDL_VOL - Cell Id: abc123.png",
	} {
		assert.FileExists(t, filepath.Join(out, name))
	}
}

func TestRun_JSON(t *testing.T) {
	dir, kpiFile, _ := writeDataset(t)

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-kpi-file", kpiFile,
		"-locations-file", "",
		"-cell", "abc123",
		"-kpi", "USERNUM_AVG",
		"-out", dir,
		"-json",
	}, &stdout)
	require.NoError(t, err)

	var report struct {
		CellID string `json:"cell_id"`
		KPI    string `json:"kpi"`
		Daily  []struct {
			Count int `json:"count"`
		} `json:"daily"`
		Charts []struct {
			Path string `json:"path"`
		} `json:"charts"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	assert.Equal(t, "abc123", report.CellID)
	assert.Equal(t, "USERNUM_AVG", report.KPI)
	assert.Len(t, report.Daily, 7)
	require.Len(t, report.Charts, 3)
	for _, c := range report.Charts {
		_, err := os.Stat(c.Path)
		assert.NoError(t, err)
	}
}

func TestRun_JSONSingleSampleDay(t *testing.T) {
	dir := t.TempDir()
	kpiFile := filepath.Join(dir, "kpi.csv")
	require.NoError(t, os.WriteFile(kpiFile, []byte("ECELL_ID,Date,DL_VOL\n"+
		"abc123,2020-01-13 08:00:00,2\n"+
		"abc123,2020-01-13 10:00:00,4\n"+
		"abc123,2020-01-13 12:00:00,9\n"+
		"abc123,2020-01-14 09:00:00,7\n"), 0644))

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-kpi-file", kpiFile,
		"-locations-file", "",
		"-cell", "abc123",
		"-out", dir,
		"-json",
	}, &stdout)
	require.NoError(t, err)

	var report struct {
		Daily []map[string]interface{} `json:"daily"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	require.Len(t, report.Daily, 2)

	assert.Equal(t, 5.0, report.Daily[0]["mean"])
	assert.NotNil(t, report.Daily[0]["std"])

	single := report.Daily[1]
	assert.Equal(t, 1.0, single["count"])
	assert.Equal(t, 7.0, single["median"])
	assert.Contains(t, single, "std")
	assert.Nil(t, single["std"])
}

func TestRun_Errors(t *testing.T) {
	dir, kpiFile, _ := writeDataset(t)

	t.Run("unknown cell", func(t *testing.T) {
		err := run(context.Background(), []string{"-kpi-file", kpiFile, "-cell", "nope", "-out", dir}, &bytes.Buffer{})
		assert.ErrorIs(t, err, errors.ErrKeyNotFound)
	})

	t.Run("empty window", func(t *testing.T) {
		err := run(context.Background(), []string{
			"-kpi-file", kpiFile, "-cell", "abc123", "-out", dir,
			"-after", "2021-01-01T00:00:00", "-before", "2021-01-08T00:00:00",
		}, &bytes.Buffer{})
		assert.ErrorIs(t, err, errors.ErrEmptyResult)
	})

	t.Run("inverted window", func(t *testing.T) {
		err := run(context.Background(), []string{
			"-kpi-file", kpiFile, "-after", "2020-01-20T00:00:00", "-before", "2020-01-13T00:00:00",
		}, &bytes.Buffer{})
		assert.ErrorContains(t, err, "must be before")
	})

	t.Run("unknown flag", func(t *testing.T) {
		err := run(context.Background(), []string{"-week", "3"}, &bytes.Buffer{})
		assert.Error(t, err)
	})
}
