// Package interval decides the sampling granularity for a requested date range.
package interval

import (
	"fmt"
	"time"

	"MarketLens/internal/model"
)

const (
	// IntradayThresholdDays is the window below which 1-minute bars are requested.
	IntradayThresholdDays = 5
	// DefaultIntradayLimitDays bounds how far back 15-minute bars are available upstream.
	DefaultIntradayLimitDays = 60
)

// Axis describes how a chart axis should label the window.
type Axis struct {
	Kind   string // "time-of-day" or "calendar-date"
	Format string // Go reference layout
	Title  string
}

var (
	TimeOfDay    = Axis{Kind: "time-of-day", Format: "15:04", Title: "Time"}
	CalendarDate = Axis{Kind: "calendar-date", Format: "2006-01-02", Title: "Date"}
)

// SessionBreaks lists the periods a chart should hide.
type SessionBreaks struct {
	HideWeekends bool `json:"hide_weekends"`
	// Overnight bounds in fractional hours, from close to open.
	OvernightFrom float64 `json:"overnight_from"`
	OvernightTo   float64 `json:"overnight_to"`
}

// Plan is the resolved sampling policy for one request.
type Plan struct {
	Start       time.Time
	End         time.Time
	DaysDiff    int
	Granularity model.Granularity
	BarInterval string
	Axis        Axis
	Breaks      SessionBreaks
}

// Selector holds the interval policy. The zero value uses the defaults.
type Selector struct {
	IntradayLimitDays int
}

// RollBack moves a weekend date back to the preceding Friday.
func RollBack(date time.Time) time.Time {
	switch date.Weekday() {
	case time.Saturday:
		return date.AddDate(0, 0, -1)
	case time.Sunday:
		return date.AddDate(0, 0, -2)
	default:
		return date
	}
}

// Select rolls both dates back to trading days and derives the sampling policy.
func (s Selector) Select(start, end time.Time) Plan {
	start, end = dateOnly(RollBack(start)), dateOnly(RollBack(end))
	days := int(end.Sub(start).Hours() / 24)

	limit := s.IntradayLimitDays
	if limit <= 0 {
		limit = DefaultIntradayLimitDays
	}

	p := Plan{Start: start, End: end, DaysDiff: days}
	switch {
	case days < IntradayThresholdDays:
		p.Granularity, p.BarInterval, p.Axis = model.Intraday, "1m", TimeOfDay
	case days < limit:
		p.Granularity, p.BarInterval, p.Axis = model.Intraday, "15m", CalendarDate
	default:
		p.Granularity, p.BarInterval, p.Axis = model.Daily, "1d", CalendarDate
	}
	return p
}

// Breaks returns the chart gaps for a session mode.
func Breaks(extended bool) SessionBreaks {
	if extended {
		return SessionBreaks{HideWeekends: true, OvernightFrom: 20, OvernightTo: 4}
	}
	return SessionBreaks{HideWeekends: true, OvernightFrom: 16, OvernightTo: 9.5}
}

// Resolve builds the request window for symbols over [start, end].
func (s Selector) Resolve(symbols []string, start, end time.Time, extended bool) (model.RequestWindow, Plan, error) {
	p := s.Select(start, end)
	if p.Start.After(p.End) {
		return model.RequestWindow{}, p, fmt.Errorf("start %s is after end %s",
			p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly))
	}
	p.Breaks = Breaks(extended)
	return model.RequestWindow{
		Symbols:       symbols,
		Start:         p.Start,
		End:           p.End,
		Granularity:   p.Granularity,
		BarInterval:   p.BarInterval,
		ExtendedHours: extended,
	}, p, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
