package analytics

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketLens/internal/calculator"
	"MarketLens/internal/collector"
	"MarketLens/internal/metrics"
	"MarketLens/internal/model"
)

var asOf = time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC) // Friday

// weekdayBars builds a daily random walk of weekday bars ending at end.
func weekdayBars(seed int64, start, end time.Time) []model.Bar {
	r := rand.New(rand.NewSource(seed))
	p := 100.0
	var bars []model.Bar
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		open := p
		p += r.NormFloat64()
		bars = append(bars, model.Bar{Time: d, Open: open, High: max(open, p) + 0.5, Low: min(open, p) - 0.5, Close: p, Volume: 1000})
	}
	return bars
}

func window(symbols ...string) model.RequestWindow {
	return model.RequestWindow{
		Symbols:     symbols,
		Start:       asOf.AddDate(0, -3, 0),
		End:         asOf,
		Granularity: model.Daily,
		BarInterval: "1d",
	}
}

func batchFetcher() *collector.StaticFetcher {
	f := collector.NewStaticFetcher()
	for i, s := range []string{"SPY", "AAPL", "MSFT", "TSLA", "NVDA"} {
		f.SetBars(s, weekdayBars(int64(i), asOf.AddDate(0, -3, 0), asOf))
	}
	return f.SetError("TSLA", errors.New("provider unavailable"))
}

func TestAnalyzeSymbols_IsolatesFailures(t *testing.T) {
	for _, workers := range []int{1, 3} {
		m := metrics.NewRegistry()
		a := New(batchFetcher(), WithWorkers(workers), WithMetrics(m))

		results, err := a.AnalyzeSymbols(context.Background(), window("SPY", "AAPL", "TSLA", "MSFT", "NVDA"), []int{20, 50})
		require.NoError(t, err)
		require.Len(t, results, 5)

		var order []string
		for _, r := range results {
			order = append(order, r.Symbol)
		}
		assert.Equal(t, []string{"SPY", "AAPL", "TSLA", "MSFT", "NVDA"}, order)

		failed := results[2]
		assert.False(t, failed.OK())
		assert.Equal(t, model.StageFailed, failed.Stage)
		assert.Equal(t, model.StageRequested, failed.Err.Stage)
		assert.Equal(t, model.KindFetch, failed.Err.Kind)
		assert.Nil(t, failed.Series)
		assert.Nil(t, failed.Performance)
		assert.Nil(t, failed.MovingAverages)

		for _, i := range []int{0, 1, 3, 4} {
			r := results[i]
			require.True(t, r.OK(), r.Symbol)
			assert.Equal(t, model.StageAnalyzed, r.Stage)
			assert.Len(t, r.MovingAverages[20], r.Series.Len())
			assert.Len(t, r.MovingAverages[50], r.Series.Len())
			assert.NotNil(t, r.Performance)
			last, _ := r.Series.Last()
			assert.Equal(t, last.Close, r.LastClose)
		}

		assert.Equal(t, 4.0, testutil.ToFloat64(m.SymbolOutcomes.WithLabelValues("analyzed", "none")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.SymbolOutcomes.WithLabelValues("failed", "fetch")))
	}
}

func TestAnalyzeSymbols_EmptyAndMalformed(t *testing.T) {
	f := collector.NewStaticFetcher().
		SetTable("BAD", &model.RawTable{Columns: [][]string{{"Date"}, {"Close"}}, Rows: [][]any{{"2024-06-14", 1.0}}})
	a := New(f)

	results, err := a.AnalyzeSymbols(context.Background(), window("NONE", "BAD"), []int{20})
	require.NoError(t, err)

	assert.Equal(t, model.KindEmptySeries, results[0].Err.Kind)
	assert.Equal(t, model.StageNormalized, results[0].Err.Stage)
	assert.ErrorIs(t, results[0].Err, model.ErrEmptySeries)

	var shape *model.DataShapeError
	assert.ErrorAs(t, results[1].Err, &shape)
	assert.Equal(t, model.StageFetched, results[1].Err.Stage)
}

func TestAnalyzeSymbols_InvalidWindow(t *testing.T) {
	_, err := New(batchFetcher()).AnalyzeSymbols(context.Background(), window("SPY"), []int{20, 0})
	assert.ErrorIs(t, err, calculator.ErrInvalidWindow)
}

func TestAnalyzeSymbols_Profiles(t *testing.T) {
	f := batchFetcher().SetProfile(&model.SymbolProfile{Symbol: "SPY", Name: "SPDR S&P 500"})
	a := New(f, WithProfiles(f))

	results, err := a.AnalyzeSymbols(context.Background(), window("SPY", "AAPL"), nil)
	require.NoError(t, err)
	require.NotNil(t, results[0].Profile)
	assert.Equal(t, "SPDR S&P 500", results[0].Profile.Name)
	assert.True(t, results[1].OK(), "missing profile does not fail the symbol")
	assert.Nil(t, results[1].Profile)
}

// cancellingFetcher cancels the batch when it reaches a given symbol.
type cancellingFetcher struct {
	*collector.StaticFetcher
	at     string
	cancel context.CancelFunc
}

func (c *cancellingFetcher) FetchOHLCV(ctx context.Context, r model.FetchRequest) (*model.RawTable, error) {
	if r.Symbol == c.at {
		c.cancel()
		return nil, ctx.Err()
	}
	return c.StaticFetcher.FetchOHLCV(ctx, r)
}

func TestAnalyzeSymbols_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := &cancellingFetcher{StaticFetcher: batchFetcher(), at: "MSFT", cancel: cancel}
	a := New(f)

	results, err := a.AnalyzeSymbols(ctx, window("SPY", "AAPL", "MSFT", "NVDA"), []int{20})
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 4)

	assert.True(t, results[0].OK())
	assert.True(t, results[1].OK())
	assert.Equal(t, model.KindCancelled, results[2].Err.Kind)
	assert.Equal(t, model.KindCancelled, results[3].Err.Kind)
	assert.Equal(t, "NVDA", results[3].Symbol)
}

// recordingFetcher remembers the last request.
type recordingFetcher struct {
	*collector.StaticFetcher
	last model.FetchRequest
}

func (r *recordingFetcher) FetchOHLCV(ctx context.Context, req model.FetchRequest) (*model.RawTable, error) {
	r.last = req
	return r.StaticFetcher.FetchOHLCV(ctx, req)
}

func TestAnalyzeRange_ResolvesIntervalOnce(t *testing.T) {
	f := &recordingFetcher{StaticFetcher: collector.NewStaticFetcher()}
	a := New(f)
	saturday := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	_, plan, err := a.AnalyzeRange(context.Background(), []string{"SPY"}, saturday, saturday, true, []int{20})
	require.NoError(t, err)
	assert.Equal(t, 0, plan.DaysDiff)
	assert.Equal(t, "1m", f.last.Interval)
	assert.Equal(t, model.Intraday, f.last.Granularity)
	assert.Equal(t, asOf, f.last.Start)
	assert.True(t, f.last.ExtendedHours)
}

func TestAnalyzeRange_StartAfterEnd(t *testing.T) {
	_, _, err := New(collector.NewStaticFetcher()).AnalyzeRange(context.Background(), []string{"SPY"}, asOf, asOf.AddDate(0, 0, -7), false, nil)
	assert.Error(t, err)
}
