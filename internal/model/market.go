package model

import (
	"time"
)

// Granularity is the sampling resolution of a series.
type Granularity string

const (
	Daily    Granularity = "daily"
	Intraday Granularity = "intraday"
)

// Bar represents a single OHLCV observation.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is a canonical, strictly time-ordered sequence of bars for one symbol.
// Bars is never modified after the normalizer builds it.
type Series struct {
	Symbol      string         `json:"symbol"`
	Granularity Granularity    `json:"granularity"`
	Location    *time.Location `json:"-"`
	Bars        []Bar          `json:"bars"`
}

// Len returns the number of bars.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// IsEmpty reports whether the series carries no observations.
func (s *Series) IsEmpty() bool { return s.Len() == 0 }

// Last returns the most recent bar. ok is false for an empty series.
func (s *Series) Last() (bar Bar, ok bool) {
	if s.IsEmpty() {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Closes extracts the close prices in order.
func (s *Series) Closes() []float64 {
	closes := make([]float64, s.Len())
	for i := range closes {
		closes[i] = s.Bars[i].Close
	}
	return closes
}

// Since returns the bars at or after t. The returned slice aliases the series
// storage and must be treated as read-only.
func (s *Series) Since(t time.Time) []Bar {
	if s.IsEmpty() {
		return nil
	}
	for i, b := range s.Bars {
		if !b.Time.Before(t) {
			return s.Bars[i:]
		}
	}
	return nil
}

// RequestWindow describes one analysis request after interval resolution.
type RequestWindow struct {
	Symbols       []string    `json:"symbols"`
	Start         time.Time   `json:"start"`
	End           time.Time   `json:"end"`
	Granularity   Granularity `json:"granularity"`
	BarInterval   string      `json:"bar_interval"`
	ExtendedHours bool        `json:"extended_hours"`
}

// FetchRequest is what the facade hands to a fetch collaborator for one symbol.
// Start and End are inclusive calendar dates.
type FetchRequest struct {
	Symbol        string
	Start         time.Time
	End           time.Time
	Granularity   Granularity
	Interval      string
	ExtendedHours bool
}

// RawTable is an untyped provider response before normalization.
// Columns holds possibly multi-level labels; Rows holds row-major cells.
type RawTable struct {
	Columns [][]string
	Rows    [][]any
}

// Empty reports whether the table carries no rows.
func (t *RawTable) Empty() bool {
	return t == nil || len(t.Rows) == 0
}
