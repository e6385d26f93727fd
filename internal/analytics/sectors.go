package analytics

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"MarketLens/internal/correlation"
	"MarketLens/internal/model"
	"MarketLens/internal/performance"
)

// sectorHistoryDays pads the one-year sector fetch. The extra week
// lets the yearly slice start on a trading day.
const sectorHistoryDays = 7

// AnalyzeSectors computes a performance snapshot per proxy, the one-month and
// one-year correlation matrices across proxies, and the summary table.
// A failing proxy keeps a zero snapshot, carries its error and is left out of
// both matrices.
func (f *Facade) AnalyzeSectors(ctx context.Context, proxies []model.SectorProxy) (*model.SectorBundle, error) {
	ctx, span := f.tracer.Start(ctx, "analytics.sectors", trace.WithAttributes(attribute.Int("sectors", len(proxies))))
	defer span.End()
	start := time.Now()
	defer func() { f.metrics.ObserveRun("sectors", time.Since(start)) }()

	asOf := dateOnly(f.now())
	from := asOf.AddDate(-1, 0, -sectorHistoryDays)

	bundle := &model.SectorBundle{Sectors: make([]model.SectorResult, len(proxies))}
	series := make([]*model.Series, len(proxies))

	done := f.forEach(ctx, len(proxies), func(ctx context.Context, i int) {
		p := proxies[i]
		res := model.SectorResult{SectorProxy: p}
		s, stage, err := f.load(ctx, model.FetchRequest{
			Symbol:      p.Ticker,
			Start:       from,
			End:         asOf,
			Granularity: model.Daily,
			Interval:    "1d",
		})
		if err != nil {
			res.Err = model.NewSymbolError(p.Ticker, stage, err)
			log.Warn().Str("sector", p.Sector).Str("symbol", p.Ticker).Err(err).Msg("sector proxy failed, using zero snapshot")
			f.metrics.ObserveSymbol(string(model.StageFailed), string(res.Err.Kind))
		} else {
			res.Performance = performance.Snapshot(s)
			res.Observations = s.Len()
			series[i] = s
			f.metrics.ObserveSymbol(string(model.StageAnalyzed), "")
		}
		bundle.Sectors[i] = res
	})

	ctxErr := ctx.Err()
	for i, ok := range done {
		if !ok {
			bundle.Sectors[i] = model.SectorResult{
				SectorProxy: proxies[i],
				Err:         model.NewSymbolError(proxies[i].Ticker, model.StageRequested, ctxErr),
			}
		}
	}

	monthCols := make([]correlation.Column, len(proxies))
	yearCols := make([]correlation.Column, len(proxies))
	for i, p := range proxies {
		monthCols[i] = correlation.Window(p.Sector, series[i], asOf.AddDate(0, -1, 0))
		yearCols[i] = correlation.Window(p.Sector, series[i], asOf.AddDate(-1, 0, 0))
	}
	bundle.MonthCorrelation = correlation.Matrix(monthCols)
	bundle.YearCorrelation = correlation.Matrix(yearCols)

	bundle.Summary = make([]model.SummaryRow, len(bundle.Sectors))
	for i, r := range bundle.Sectors {
		bundle.Summary[i] = model.NewSummaryRow(r)
	}

	if ctxErr != nil {
		span.SetStatus(codes.Error, ctxErr.Error())
		return bundle, ctxErr
	}
	return bundle, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
