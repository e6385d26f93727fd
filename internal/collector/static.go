package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MarketLens/internal/model"
)

// StaticFetcher serves in-memory tables for development and testing.
// Symbols without a table or error get a generated daily random walk
// when Generate is set, and an empty table otherwise.
type StaticFetcher struct {
	mu       sync.Mutex
	tables   map[string]*model.RawTable
	errs     map[string]error
	profiles map[string]*model.SymbolProfile
	calls    map[string]int

	Generate  bool
	BasePrice float64
}

// NewStaticFetcher creates an empty static fetcher.
func NewStaticFetcher() *StaticFetcher {
	return &StaticFetcher{
		tables:    make(map[string]*model.RawTable),
		errs:      make(map[string]error),
		profiles:  make(map[string]*model.SymbolProfile),
		calls:     make(map[string]int),
		BasePrice: 100,
	}
}

func (m *StaticFetcher) Name() string { return "static" }

// SetTable registers the table returned for symbol.
func (m *StaticFetcher) SetTable(symbol string, t *model.RawTable) *StaticFetcher {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[symbol] = t
	return m
}

// SetBars registers bars for symbol as a daily table.
func (m *StaticFetcher) SetBars(symbol string, bars []model.Bar) *StaticFetcher {
	return m.SetTable(symbol, BarsTable(bars, model.Daily))
}

// SetError makes every fetch of symbol fail with err.
func (m *StaticFetcher) SetError(symbol string, err error) *StaticFetcher {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[symbol] = err
	return m
}

// SetProfile registers the profile returned for symbol.
func (m *StaticFetcher) SetProfile(p *model.SymbolProfile) *StaticFetcher {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.Symbol] = p
	return m
}

// Calls returns how many times symbol was fetched.
func (m *StaticFetcher) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

func (m *StaticFetcher) FetchOHLCV(ctx context.Context, r model.FetchRequest) (*model.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[r.Symbol]++
	if err, ok := m.errs[r.Symbol]; ok {
		return nil, err
	}
	if t, ok := m.tables[r.Symbol]; ok {
		return t, nil
	}
	if m.Generate {
		return BarsTable(generateBars(m.BasePrice, r.Start, r.End), r.Granularity), nil
	}
	return &model.RawTable{Columns: ohlcvColumns(dateLabel(r.Granularity))}, nil
}

func (m *StaticFetcher) FetchProfile(_ context.Context, symbol string) (*model.SymbolProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[symbol]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("static: %w", ErrNoProfiles)
}

// BarsTable renders bars as a raw provider table.
func BarsTable(bars []model.Bar, g model.Granularity) *model.RawTable {
	t := &model.RawTable{Columns: ohlcvColumns(dateLabel(g)), Rows: make([][]any, len(bars))}
	for i, b := range bars {
		t.Rows[i] = []any{b.Time, b.Open, b.High, b.Low, b.Close, b.Volume}
	}
	return t
}

// generateBars builds one weekday bar per day in [start, end] around basePrice.
func generateBars(basePrice float64, start, end time.Time) []model.Bar {
	var bars []model.Bar
	i := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		p := basePrice * (1 + float64(i%20-10)*0.001 + float64(i)*0.0005)
		bars = append(bars, model.Bar{
			Time:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}
