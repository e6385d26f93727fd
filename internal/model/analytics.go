package model

import (
	"github.com/guregu/null/v6"
)

// Stage is the position of a symbol in the analysis pipeline.
type Stage string

const (
	StageRequested  Stage = "requested"
	StageFetched    Stage = "fetched"
	StageNormalized Stage = "normalized"
	StageAnalyzed   Stage = "analyzed"
	StageFailed     Stage = "failed"
)

// MovingAverageSeries maps a window size to values aligned 1:1 with the source series.
type MovingAverageSeries map[int][]null.Float

// PerformanceSnapshot holds point-in-time percentage deltas and ranges.
// Every field falls back to 0.0 when history is insufficient.
type PerformanceSnapshot struct {
	DailyPct      float64 `json:"daily_pct"`
	WeeklyPct     float64 `json:"weekly_pct"`
	MonthlyPct    float64 `json:"monthly_pct"`
	QuarterlyPct  float64 `json:"quarterly_pct"`
	YearlyPct     float64 `json:"yearly_pct"`
	WeekRangePct  float64 `json:"week_range_pct"`
	MonthRangePct float64 `json:"month_range_pct"`
	YearRangePct  float64 `json:"year_range_pct"`
}

// CorrelationMatrix is a symmetric Pearson matrix indexed by Labels.
type CorrelationMatrix struct {
	Labels       []string    `json:"labels"`
	Values       [][]float64 `json:"values"`
	Observations int         `json:"observations"`
}

// Empty reports whether the matrix has no rows.
func (m CorrelationMatrix) Empty() bool { return len(m.Labels) == 0 }

// At returns the coefficient for the pair (a, b).
func (m CorrelationMatrix) At(a, b string) (float64, bool) {
	i, j := -1, -1
	for k, l := range m.Labels {
		if l == a {
			i = k
		}
		if l == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

// SymbolProfile decorates the info panel. It is not used by any computation.
type SymbolProfile struct {
	Symbol        string     `json:"symbol"`
	Name          string     `json:"name,omitempty"`
	Currency      string     `json:"currency,omitempty"`
	Price         null.Float `json:"price"`
	PreviousClose null.Float `json:"previous_close"`
	Open          null.Float `json:"open"`
	DayLow        null.Float `json:"day_low"`
	DayHigh       null.Float `json:"day_high"`
	Low52w        null.Float `json:"fifty_two_week_low"`
	High52w       null.Float `json:"fifty_two_week_high"`
	Volume        null.Float `json:"volume"`
	MarketCap     null.Float `json:"market_cap"`
	TrailingPE    null.Float `json:"trailing_pe"`
	DividendYield null.Float `json:"dividend_yield"`
}

// AnalyticsResult is the per-symbol outcome of a request.
// When Err is set the derived fields are left empty.
type AnalyticsResult struct {
	Symbol         string               `json:"symbol"`
	Stage          Stage                `json:"stage"`
	Series         *Series              `json:"series,omitempty"`
	MovingAverages MovingAverageSeries  `json:"moving_averages,omitempty"`
	Performance    *PerformanceSnapshot `json:"performance,omitempty"`
	LastClose      float64              `json:"last_close,omitempty"`
	Profile        *SymbolProfile       `json:"profile,omitempty"`
	Err            *SymbolError         `json:"-"`
}

// OK reports whether the symbol was analyzed without error.
func (r AnalyticsResult) OK() bool { return r.Err == nil }

// Failed builds a result that carries only the error.
func Failed(symbol string, stage Stage, err error) AnalyticsResult {
	return AnalyticsResult{
		Symbol: symbol,
		Stage:  StageFailed,
		Err:    NewSymbolError(symbol, stage, err),
	}
}

// SectorProxy maps a market sector to a representative tradeable ticker.
type SectorProxy struct {
	Sector string `yaml:"sector" json:"sector" validate:"required"`
	Ticker string `yaml:"ticker" json:"ticker" validate:"required"`
}

// DefaultSectors lists the SPDR sector ETFs.
var DefaultSectors = []SectorProxy{
	{Sector: "Technology", Ticker: "XLK"},
	{Sector: "Healthcare", Ticker: "XLV"},
	{Sector: "Financials", Ticker: "XLF"},
	{Sector: "Consumer Discretionary", Ticker: "XLY"},
	{Sector: "Industrials", Ticker: "XLI"},
	{Sector: "Energy", Ticker: "XLE"},
	{Sector: "Utilities", Ticker: "XLU"},
	{Sector: "Real Estate", Ticker: "XLRE"},
	{Sector: "Consumer Staples", Ticker: "XLP"},
	{Sector: "Materials", Ticker: "XLB"},
}

// SectorResult is one sector's snapshot. A failed sector keeps a zero snapshot.
type SectorResult struct {
	SectorProxy
	Performance  PerformanceSnapshot `json:"performance"`
	Observations int                 `json:"observations"`
	Err          *SymbolError        `json:"-"`
}

// SectorBundle aggregates a sector analysis run.
type SectorBundle struct {
	Sectors          []SectorResult    `json:"sectors"`
	MonthCorrelation CorrelationMatrix `json:"month_correlation"`
	YearCorrelation  CorrelationMatrix `json:"year_correlation"`
	Summary          []SummaryRow      `json:"summary"`
}
