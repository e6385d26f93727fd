package model

import (
	"math"

	"github.com/shopspring/decimal"
)

// SummaryRow is one line of the sector summary table.
type SummaryRow struct {
	Sector        string  `json:"sector" parquet:"sector"`
	Ticker        string  `json:"ticker" parquet:"ticker"`
	DailyPct      float64 `json:"daily_pct" parquet:"daily_pct"`
	WeeklyPct     float64 `json:"weekly_pct" parquet:"weekly_pct"`
	MonthlyPct    float64 `json:"monthly_pct" parquet:"monthly_pct"`
	QuarterlyPct  float64 `json:"quarterly_pct" parquet:"quarterly_pct"`
	YearlyPct     float64 `json:"yearly_pct" parquet:"yearly_pct"`
	WeekRangePct  float64 `json:"week_range_pct" parquet:"week_range_pct"`
	MonthRangePct float64 `json:"month_range_pct" parquet:"month_range_pct"`
	YearRangePct  float64 `json:"year_range_pct" parquet:"year_range_pct"`
}

// SummaryHeader names the SummaryRow cells in order.
var SummaryHeader = []string{
	"Sector", "Ticker",
	"Daily (%)", "Weekly (%)", "Monthly (%)",
	"1Q Return (%)", "Yearly Return (%)",
	"Week Range (%)", "Month Range (%)", "Year Range (%)",
}

// NewSummaryRow flattens a sector result into a table row.
func NewSummaryRow(r SectorResult) SummaryRow {
	p := r.Performance
	return SummaryRow{
		Sector:        r.Sector,
		Ticker:        r.Ticker,
		DailyPct:      p.DailyPct,
		WeeklyPct:     p.WeeklyPct,
		MonthlyPct:    p.MonthlyPct,
		QuarterlyPct:  p.QuarterlyPct,
		YearlyPct:     p.YearlyPct,
		WeekRangePct:  p.WeekRangePct,
		MonthRangePct: p.MonthRangePct,
		YearRangePct:  p.YearRangePct,
	}
}

// Percentages returns the numeric columns in header order.
func (r SummaryRow) Percentages() []float64 {
	return []float64{
		r.DailyPct, r.WeeklyPct, r.MonthlyPct,
		r.QuarterlyPct, r.YearlyPct,
		r.WeekRangePct, r.MonthRangePct, r.YearRangePct,
	}
}

// Cells renders the row as strings, percentages fixed to two decimals.
func (r SummaryRow) Cells() []string {
	cells := []string{r.Sector, r.Ticker}
	for _, v := range r.Percentages() {
		cells = append(cells, FormatPct(v))
	}
	return cells
}

// FormatPct renders v as "12.34%" using half-away-from-zero rounding.
func FormatPct(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}
