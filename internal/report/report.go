package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guregu/null/v6"

	"MarketLens/internal/calculator"
	"MarketLens/internal/interval"
	"MarketLens/internal/model"
	"MarketLens/internal/palette"
)

// Options control rendering.
type Options struct {
	// Color wraps signed percentages in ANSI colours.
	Color bool
	// Theme picks the colour variants; the zero value renders like light.
	Theme palette.Theme
	// MAWindows selects which moving averages appear in the results table.
	MAWindows []int
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func (o Options) pct(v float64) string {
	s := model.FormatPct(v)
	if !o.Color {
		return s
	}
	return o.Theme.ANSI(palette.Performance(v), s)
}

// Plan writes a one-line description of the sampling policy.
func Plan(w io.Writer, p interval.Plan) {
	fmt.Fprintf(w, "Window %s → %s (%d days) | %s bars %s\n",
		p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly),
		p.DaysDiff, p.Granularity, p.BarInterval)
}

// Results writes one row per symbol. Failed symbols show their error instead of figures.
func Results(w io.Writer, results []model.AnalyticsResult, o Options) error {
	tw := newTable(w)
	header := []string{"Symbol", "Last", "Daily", "Weekly", "Monthly", "1Q", "1Y", "Wk Range", "Mo Range", "Yr Range"}
	for _, n := range o.MAWindows {
		header = append(header, fmt.Sprintf("MA%d", n))
	}
	header = append(header, "Status")
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, r := range results {
		row := []string{r.Symbol}
		if !r.OK() || r.Performance == nil {
			for i := 1; i < len(header)-1; i++ {
				row = append(row, "-")
			}
			status := "failed"
			if r.Err != nil {
				status = fmt.Sprintf("%s at %s: %v", r.Err.Kind, r.Err.Stage, r.Err.Err)
			}
			row = append(row, status)
			fmt.Fprintln(tw, strings.Join(row, "\t"))
			continue
		}
		p := r.Performance
		row = append(row,
			FormatPlain(null.FloatFrom(r.LastClose)),
			o.pct(p.DailyPct), o.pct(p.WeeklyPct), o.pct(p.MonthlyPct),
			o.pct(p.QuarterlyPct), o.pct(p.YearlyPct),
			model.FormatPct(p.WeekRangePct), model.FormatPct(p.MonthRangePct), model.FormatPct(p.YearRangePct),
		)
		for _, n := range o.MAWindows {
			row = append(row, FormatPlain(lastMA(r.MovingAverages[n])))
		}
		row = append(row, string(r.Stage))
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func lastMA(values []null.Float) null.Float {
	if len(values) == 0 {
		return null.Float{}
	}
	return values[len(values)-1]
}

// Profile writes the info panel for one symbol. The 52-week position is
// where the current price sits between the 52-week low and high.
func Profile(w io.Writer, p *model.SymbolProfile, lastClose float64) error {
	if p == nil {
		return nil
	}
	price := p.Price
	if !price.Valid && lastClose > 0 {
		price = null.FloatFrom(lastClose)
	}

	title := p.Symbol
	if p.Name != "" {
		title = fmt.Sprintf("%s (%s)", p.Symbol, p.Name)
	}
	fmt.Fprintln(w, title)

	tw := newTable(w)
	items := [][2]string{
		{"Current Price", FormatNumber(price)},
		{"Previous Close", FormatNumber(p.PreviousClose)},
		{"Open", FormatNumber(p.Open)},
		{"Day Range", FormatRange(p.DayLow, p.DayHigh)},
		{"52 Week Range", FormatRange(p.Low52w, p.High52w)},
		{"52 Week Position", weekPosition(price, p.Low52w, p.High52w)},
		{"Volume", FormatCount(p.Volume)},
		{"Market Cap", FormatNumber(p.MarketCap)},
		{"PE Ratio", FormatPlain(p.TrailingPE)},
		{"Dividend Yield", FormatYield(p.DividendYield)},
	}
	for _, it := range items {
		fmt.Fprintf(tw, "  %s\t%s\n", it[0], it[1])
	}
	return tw.Flush()
}

func weekPosition(price, low, high null.Float) string {
	if !price.Valid || !low.Valid || !high.Valid {
		return NA
	}
	pos, err := calculator.RangePosition(price.Float64, high.Float64, low.Float64)
	if err != nil {
		return NA
	}
	return model.FormatPct(pos * 100)
}

// Summary writes the sector summary table.
func Summary(w io.Writer, rows []model.SummaryRow, o Options) error {
	tw := newTable(w)
	fmt.Fprintln(tw, strings.Join(model.SummaryHeader, "\t"))
	for _, r := range rows {
		cells := []string{r.Sector, r.Ticker}
		for i, v := range r.Percentages() {
			// the first five columns are signed returns, the rest are ranges
			if i < 5 {
				cells = append(cells, o.pct(v))
			} else {
				cells = append(cells, model.FormatPct(v))
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// Matrix writes a correlation matrix with two-decimal cells.
func Matrix(w io.Writer, title string, m model.CorrelationMatrix) error {
	fmt.Fprintf(w, "%s (%d observations)\n", title, m.Observations)
	if m.Empty() {
		fmt.Fprintln(w, "  not enough overlapping history")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "\t"+strings.Join(m.Labels, "\t"))
	for i, label := range m.Labels {
		cells := []string{label}
		for _, v := range m.Values[i] {
			cells = append(cells, fmt.Sprintf("%.2f", v))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// Ranked returns the summary rows ordered by a column, best first.
func Ranked(rows []model.SummaryRow, column func(model.SummaryRow) float64) []model.SummaryRow {
	out := append([]model.SummaryRow(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool { return column(out[i]) > column(out[j]) })
	return out
}

// Sectors writes the full sector report: daily ranking, summary and both matrices.
func Sectors(w io.Writer, b *model.SectorBundle, o Options) error {
	if b == nil {
		return nil
	}
	for _, s := range b.Sectors {
		if s.Err != nil {
			fmt.Fprintf(w, "! %s (%s): %v\n", s.Sector, s.Ticker, s.Err.Err)
		}
	}
	fmt.Fprintln(w, "Sector Daily Performance")
	tw := newTable(w)
	for _, r := range Ranked(b.Summary, func(r model.SummaryRow) float64 { return r.DailyPct }) {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", r.Sector, r.Ticker, o.pct(r.DailyPct))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	if err := Summary(w, b.Summary, o); err != nil {
		return err
	}
	fmt.Fprintln(w)
	if err := Matrix(w, "Sector Correlation (1 Month)", b.MonthCorrelation); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return Matrix(w, "Sector Correlation (1 Year)", b.YearCorrelation)
}
