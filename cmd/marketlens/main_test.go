package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestAnalyze_JSONWithStaticProvider(t *testing.T) {
	out, err := runCLI(t, "analyze",
		"--provider", "static",
		"--symbols", "aapl, msft,AAPL",
		"--start", "2024-01-02", "--end", "2024-03-28",
		"--format", "json")
	require.NoError(t, err)

	var got symbolsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "1d", got.Plan.BarInterval)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "AAPL", got.Results[0].Symbol)
	assert.Equal(t, "MSFT", got.Results[1].Symbol)
	assert.Empty(t, got.Errors)
	assert.NotNil(t, got.Results[0].Performance)

	assert.Equal(t, "calendar-date", got.Plan.Axis)
	assert.Equal(t, "2006-01-02", got.Plan.AxisFormat)
	assert.Equal(t, "Date", got.Plan.AxisTitle)
	assert.True(t, got.Plan.Breaks.HideWeekends)
	assert.Equal(t, 20.0, got.Plan.Breaks.OvernightFrom, "extended hours by default")

	assert.Equal(t, "light", got.Theme.Name)
	assert.Equal(t, "#1f77b4", got.Results[0].Style.Color)
	assert.Equal(t, "#ff7f0e", got.Results[1].Style.Color)
	assert.Contains(t, []string{"#27ae60", "#e74c3c", "#2c3e50"}, got.Results[0].DailyColor)
	assert.Equal(t, "dash", got.Overlays["ma_20"].Dash)
	assert.Equal(t, "dot", got.Overlays["ma_50"].Dash)
	assert.Contains(t, got.Overlays, "price")
}

func TestAnalyze_JSONRegularHoursDarkTheme(t *testing.T) {
	out, err := runCLI(t, "analyze",
		"--provider", "static", "--symbols", "SPY",
		"--start", "2024-03-04", "--end", "2024-03-06",
		"--regular-hours", "--theme", "dark", "--format", "json")
	require.NoError(t, err)

	var got symbolsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "time-of-day", got.Plan.Axis)
	assert.Equal(t, "15:04", got.Plan.AxisFormat)
	assert.Equal(t, 16.0, got.Plan.Breaks.OvernightFrom)
	assert.Equal(t, 9.5, got.Plan.Breaks.OvernightTo)
	assert.Equal(t, "dark", got.Theme.Name)
	assert.Equal(t, "#FAFAFA", got.Theme.Text)
}

func TestSectors_JSONDailyBars(t *testing.T) {
	out, err := runCLI(t, "sectors", "--provider", "static", "--format", "json")
	require.NoError(t, err)

	var got sectorsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotNil(t, got.SectorBundle)
	require.Len(t, got.DailyBars, len(got.Summary))
	for i, b := range got.DailyBars {
		if b.DailyPct >= 0 {
			assert.Equal(t, "#1f77b4", b.Color)
		} else {
			assert.Equal(t, "#e74c3c", b.Color)
		}
		if i > 0 {
			assert.GreaterOrEqual(t, got.DailyBars[i-1].DailyPct, b.DailyPct, "best first")
		}
	}
}

func TestAnalyze_ExportWithoutExtensionDefaultsToCSV(t *testing.T) {
	base := filepath.Join(t.TempDir(), "symbols")
	_, err := runCLI(t, "analyze", "--provider", "static", "--symbols", "SPY",
		"--start", "2024-01-02", "--end", "2024-03-28", "--out", base)
	require.NoError(t, err)
	_, err = os.Stat(base + ".csv")
	assert.NoError(t, err)
}

func TestUnknownTheme(t *testing.T) {
	_, err := runCLI(t, "analyze", "--provider", "static", "--theme", "neon")
	assert.ErrorContains(t, err, "unknown theme")
}

func TestAnalyze_TextExportAndRunLog(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MARKETLENS_DB_SQLITE_PATH", filepath.Join(dir, "runs.db"))
	exportPath := filepath.Join(dir, "symbols.csv")

	out, err := runCLI(t, "analyze",
		"--provider", "static",
		"--symbols", "SPY",
		"--start", "2024-03-04", "--end", "2024-03-06",
		"--out", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "SPY")
	assert.Contains(t, out, "1m")

	_, err = os.Stat(exportPath)
	require.NoError(t, err)

	history, err := runCLI(t, "history")
	require.NoError(t, err)
	assert.Contains(t, history, "symbols")
}

func TestSectors_Text(t *testing.T) {
	out, err := runCLI(t, "sectors", "--provider", "static")
	require.NoError(t, err)
	assert.Contains(t, out, "Sector Correlation (1 Month)")
	assert.Contains(t, out, "XLK")
}

func TestUnsupportedExport(t *testing.T) {
	_, err := runCLI(t, "analyze", "--provider", "static", "--symbols", "SPY",
		"--out", filepath.Join(t.TempDir(), "out.pdf"))
	assert.ErrorContains(t, err, "unsupported export format")
}

func TestBadFlags(t *testing.T) {
	_, err := runCLI(t, "analyze", "--format", "yaml")
	assert.Error(t, err)

	_, err = runCLI(t, "analyze", "--provider", "bloomberg")
	assert.Error(t, err)

	_, err = runCLI(t, "history")
	assert.ErrorContains(t, err, "no run log configured")
}
