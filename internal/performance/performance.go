// Package performance computes point-in-time percentage deltas over lookback windows.
package performance

import (
	"math"
	"sort"
	"time"

	"MarketLens/internal/calculator"
	"MarketLens/internal/model"
)

// Lookback horizons measured back from the as-of observation.
const (
	WeekDays  = 7
	MonthDays = 30
)

// PctChange returns (to - from) / from * 100, or 0 when from is zero or either value is not finite.
func PctChange(from, to float64) float64 {
	if from == 0 || !finite(from) || !finite(to) {
		return 0
	}
	return (to - from) / from * 100
}

// Lookback returns the most recent bar at or before target. When every bar is
// after target it falls back to the earliest bar of the slice.
func Lookback(bars []model.Bar, target time.Time) (model.Bar, error) {
	if len(bars) == 0 {
		return model.Bar{}, model.ErrInsufficientHistory
	}
	// first bar strictly after target
	i := sort.Search(len(bars), func(i int) bool { return bars[i].Time.After(target) })
	if i == 0 {
		return bars[0], nil
	}
	return bars[i-1], nil
}

// Slices holds the history windows a snapshot is computed over.
type Slices struct {
	Week, Month, Quarter, Year []model.Bar
}

// SlicesOf cuts series into week, month, quarter and year windows ending at its last bar.
func SlicesOf(series *model.Series) Slices {
	last, ok := series.Last()
	if !ok {
		return Slices{}
	}
	asOf := last.Time
	return Slices{
		Week:    series.Since(asOf.AddDate(0, 0, -WeekDays)),
		Month:   series.Since(asOf.AddDate(0, -1, 0)),
		Quarter: series.Since(asOf.AddDate(0, -3, 0)),
		Year:    series.Since(asOf.AddDate(-1, 0, 0)),
	}
}

// Snapshot computes every delta and range for series. Horizons without
// enough history report 0.
func Snapshot(series *model.Series) model.PerformanceSnapshot {
	var snap model.PerformanceSnapshot
	if series == nil || series.IsEmpty() {
		return snap
	}
	last, _ := series.Last()
	sl := SlicesOf(series)

	snap.DailyPct = DailyOf(series)
	snap.WeeklyPct = Since(sl.Month, last, last.Time.AddDate(0, 0, -WeekDays))
	snap.MonthlyPct = Since(sl.Month, last, last.Time.AddDate(0, 0, -MonthDays))
	snap.QuarterlyPct = Span(sl.Quarter)
	snap.YearlyPct = Span(sl.Year)
	snap.WeekRangePct = calculator.RangePct(sl.Week)
	snap.MonthRangePct = calculator.RangePct(sl.Month)
	snap.YearRangePct = calculator.RangePct(sl.Year)
	return snap
}

// Daily compares the last open with the previous close.
func Daily(bars []model.Bar) float64 {
	if len(bars) < 2 {
		return 0
	}
	return PctChange(bars[len(bars)-2].Close, bars[len(bars)-1].Open)
}

// DailyOf picks the daily delta for the series granularity. Intraday bars
// compare the open of the last session with the close of the session before.
func DailyOf(series *model.Series) float64 {
	if series.Granularity != model.Intraday {
		return Daily(series.Bars)
	}
	loc := series.Location
	if loc == nil {
		loc = time.UTC
	}
	return SessionDaily(series.Bars, loc)
}

// SessionDaily groups bars by calendar date in loc and compares the first
// open of the last date with the last close of the previous date.
func SessionDaily(bars []model.Bar, loc *time.Location) float64 {
	if len(bars) < 2 {
		return 0
	}
	lastDay := sessionDate(bars[len(bars)-1].Time, loc)
	i := len(bars) - 1
	for i > 0 && sessionDate(bars[i-1].Time, loc).Equal(lastDay) {
		i--
	}
	if i == 0 {
		return 0
	}
	return PctChange(bars[i-1].Close, bars[i].Open)
}

func sessionDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Since compares the as-of close with the close resolved at target within bars.
func Since(bars []model.Bar, asOf model.Bar, target time.Time) float64 {
	ref, err := Lookback(bars, target)
	if err != nil {
		return 0
	}
	return PctChange(ref.Close, asOf.Close)
}

// Span compares the first and last close of bars.
func Span(bars []model.Bar) float64 {
	if len(bars) == 0 {
		return 0
	}
	return PctChange(bars[0].Close, bars[len(bars)-1].Close)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
