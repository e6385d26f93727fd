// Package analytics orchestrates fetch, normalization and analysis per symbol and per sector.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"MarketLens/internal/calculator"
	"MarketLens/internal/collector"
	"MarketLens/internal/interval"
	"MarketLens/internal/metrics"
	"MarketLens/internal/model"
	"MarketLens/internal/normalizer"
	"MarketLens/internal/performance"
)

// Facade runs the analytics pipeline against a fetch collaborator.
type Facade struct {
	fetcher  collector.Fetcher
	profiles collector.ProfileFetcher
	workers  int
	metrics  *metrics.Registry
	now      func() time.Time
	selector interval.Selector
	tracer   trace.Tracer
}

// Option configures a Facade.
type Option func(*Facade)

// WithProfiles decorates successful symbols with metadata from p.
func WithProfiles(p collector.ProfileFetcher) Option {
	return func(f *Facade) { f.profiles = p }
}

// WithWorkers bounds how many symbols are fetched at once. 1 runs sequentially.
func WithWorkers(n int) Option {
	return func(f *Facade) {
		if n > 0 {
			f.workers = n
		}
	}
}

// WithMetrics records outcomes in m.
func WithMetrics(m *metrics.Registry) Option {
	return func(f *Facade) { f.metrics = m }
}

// WithClock overrides time.Now for sector lookbacks.
func WithClock(now func() time.Time) Option {
	return func(f *Facade) { f.now = now }
}

// WithSelector overrides the interval policy.
func WithSelector(s interval.Selector) Option {
	return func(f *Facade) { f.selector = s }
}

// New creates a Facade over fetcher.
func New(fetcher collector.Fetcher, opts ...Option) *Facade {
	f := &Facade{
		fetcher: fetcher,
		workers: 1,
		now:     time.Now,
		tracer:  otel.Tracer("MarketLens/internal/analytics"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// AnalyzeRange resolves the interval policy for [start, end] once and analyzes symbols.
func (f *Facade) AnalyzeRange(ctx context.Context, symbols []string, start, end time.Time, extended bool, maWindows []int) ([]model.AnalyticsResult, interval.Plan, error) {
	w, plan, err := f.selector.Resolve(symbols, start, end, extended)
	if err != nil {
		return nil, plan, err
	}
	log.Debug().Str("interval", plan.BarInterval).Int("days", plan.DaysDiff).Msg("interval resolved")
	results, err := f.AnalyzeSymbols(ctx, w, maWindows)
	return results, plan, err
}

// AnalyzeSymbols runs every symbol of w through fetch, normalize and analyze.
// Results follow the order of w.Symbols. A failing symbol carries its error
// and never stops its siblings. When ctx is cancelled the unfinished symbols
// carry a cancelled error and ctx.Err() is returned with the partial results.
func (f *Facade) AnalyzeSymbols(ctx context.Context, w model.RequestWindow, maWindows []int) ([]model.AnalyticsResult, error) {
	for _, n := range maWindows {
		if n <= 0 {
			return nil, fmt.Errorf("moving average window %d: %w", n, calculator.ErrInvalidWindow)
		}
	}

	ctx, span := f.tracer.Start(ctx, "analytics.symbols",
		trace.WithAttributes(attribute.Int("symbols", len(w.Symbols)), attribute.String("interval", w.BarInterval)))
	defer span.End()
	start := time.Now()
	defer func() { f.metrics.ObserveRun("symbols", time.Since(start)) }()

	results := make([]model.AnalyticsResult, len(w.Symbols))
	done := f.forEach(ctx, len(w.Symbols), func(ctx context.Context, i int) {
		results[i] = f.analyzeOne(ctx, w, w.Symbols[i], maWindows)
	})
	if err := ctx.Err(); err != nil {
		for i, ok := range done {
			if !ok {
				results[i] = model.Failed(w.Symbols[i], model.StageRequested, err)
			}
		}
		span.SetStatus(codes.Error, err.Error())
		return results, err
	}
	return results, nil
}

func (f *Facade) analyzeOne(ctx context.Context, w model.RequestWindow, symbol string, maWindows []int) (res model.AnalyticsResult) {
	ctx, span := f.tracer.Start(ctx, "analytics.symbol", trace.WithAttributes(attribute.String("symbol", symbol)))
	defer func() {
		kind := ""
		if res.Err != nil {
			kind = string(res.Err.Kind)
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.Err.Error())
			log.Warn().Str("symbol", symbol).Str("stage", string(res.Err.Stage)).Err(res.Err.Err).Msg("symbol analysis failed")
		}
		f.metrics.ObserveSymbol(string(res.Stage), kind)
		span.End()
	}()

	series, stage, err := f.load(ctx, model.FetchRequest{
		Symbol:        symbol,
		Start:         w.Start,
		End:           w.End,
		Granularity:   w.Granularity,
		Interval:      w.BarInterval,
		ExtendedHours: w.ExtendedHours,
	})
	if err != nil {
		return model.Failed(symbol, stage, err)
	}

	mas, err := calculator.MovingAverages(series, maWindows...)
	if err != nil {
		return model.Failed(symbol, model.StageNormalized, err)
	}
	snap := performance.Snapshot(series)
	last, _ := series.Last()

	res = model.AnalyticsResult{
		Symbol:         symbol,
		Stage:          model.StageAnalyzed,
		Series:         series,
		MovingAverages: mas,
		Performance:    &snap,
		LastClose:      last.Close,
	}
	if f.profiles != nil {
		if p, err := f.profiles.FetchProfile(ctx, symbol); err != nil {
			log.Warn().Str("symbol", symbol).Err(err).Msg("profile unavailable")
		} else {
			res.Profile = p
		}
	}
	return res
}

// load fetches and normalizes one request. The returned stage is where a failure happened.
func (f *Facade) load(ctx context.Context, req model.FetchRequest) (*model.Series, model.Stage, error) {
	table, err := f.fetcher.FetchOHLCV(ctx, req)
	if err != nil {
		return nil, model.StageRequested, fmt.Errorf("fetch from %s: %w", f.fetcher.Name(), err)
	}
	series, err := normalizer.Normalize(table, req.Symbol, req.Granularity)
	if err != nil {
		return nil, model.StageFetched, err
	}
	if series.IsEmpty() {
		return nil, model.StageNormalized, model.ErrEmptySeries
	}
	return series, model.StageNormalized, nil
}
