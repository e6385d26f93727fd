package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"

	"MarketLens/internal/model"
	"MarketLens/internal/normalizer"
)

const polygonBaseURL = "https://api.polygon.io"

// PolygonFetcher implements Fetcher and ProfileFetcher using the Polygon REST API.
type PolygonFetcher struct {
	BaseURL  string
	APIKey   string
	Client   *http.Client
	MaxPages int
}

// NewPolygonFetcher creates a new fetcher with optional proxy support.
func NewPolygonFetcher(baseURL, apiKey, proxyURL string) *PolygonFetcher {
	if baseURL == "" {
		baseURL = polygonBaseURL
	}
	return &PolygonFetcher{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		Client:   NewHTTPClient(proxyURL),
		MaxPages: 20,
	}
}

func (f *PolygonFetcher) Name() string { return "polygon" }

// polygonBar is one aggregate from the v2 aggs endpoint.
type polygonBar struct {
	Timestamp int64    `json:"t"`
	Open      *float64 `json:"o"`
	High      *float64 `json:"h"`
	Low       *float64 `json:"l"`
	Close     *float64 `json:"c"`
	Volume    *float64 `json:"v"`
}

type polygonAggs struct {
	Status  string       `json:"status"`
	Results []polygonBar `json:"results"`
	NextURL string       `json:"next_url,omitempty"`
}

// timespan maps a bar interval onto the aggs multiplier and timespan.
func timespan(interval string) (int, string, error) {
	switch interval {
	case "1m":
		return 1, "minute", nil
	case "15m":
		return 15, "minute", nil
	case "1d", "":
		return 1, "day", nil
	case "1wk":
		return 1, "week", nil
	default:
		return 0, "", fmt.Errorf("polygon: unsupported interval %q", interval)
	}
}

func (f *PolygonFetcher) get(ctx context.Context, endpoint string, out any) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return err
	}
	q := u.Query()
	if q.Get("apiKey") == "" && f.APIKey != "" {
		q.Set("apiKey", f.APIKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("polygon fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &StatusError{Provider: f.Name(), Code: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("polygon decode: %w", err)
	}
	return nil
}

// FetchOHLCV requests aggregates for [Start, End], following next_url pages.
// Without extended hours, intraday bars outside 09:30-16:00 ET are dropped.
func (f *PolygonFetcher) FetchOHLCV(ctx context.Context, r model.FetchRequest) (*model.RawTable, error) {
	mult, span, err := timespan(r.Interval)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/%d/%s/%s/%s?adjusted=true&sort=asc&limit=50000",
		f.BaseURL, url.PathEscape(r.Symbol), mult, span,
		r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly))

	table := &model.RawTable{Columns: ohlcvColumns(dateLabel(r.Granularity))}
	for page := 0; endpoint != "" && page < f.maxPages(); page++ {
		var aggs polygonAggs
		if err := f.get(ctx, endpoint, &aggs); err != nil {
			return nil, err
		}
		for _, b := range aggs.Results {
			ts := time.UnixMilli(b.Timestamp).UTC()
			if r.Granularity == model.Intraday && !r.ExtendedHours && !regularSession(ts) {
				continue
			}
			table.Rows = append(table.Rows, []any{ts, ptrCell(b.Open), ptrCell(b.High), ptrCell(b.Low), ptrCell(b.Close), ptrCell(b.Volume)})
		}
		endpoint = aggs.NextURL
	}
	return table, nil
}

func (f *PolygonFetcher) maxPages() int {
	if f.MaxPages <= 0 {
		return 1
	}
	return f.MaxPages
}

func ptrCell(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// regularSession reports whether ts falls in the 09:30-16:00 exchange session.
func regularSession(ts time.Time) bool {
	et := ts.In(normalizer.Exchange)
	minutes := et.Hour()*60 + et.Minute()
	return minutes >= 9*60+30 && minutes < 16*60
}

type polygonTicker struct {
	Results struct {
		Name         string   `json:"name"`
		CurrencyName string   `json:"currency_name"`
		MarketCap    *float64 `json:"market_cap"`
	} `json:"results"`
}

// FetchProfile combines the previous session aggregate with the ticker reference data.
func (f *PolygonFetcher) FetchProfile(ctx context.Context, symbol string) (*model.SymbolProfile, error) {
	var prev polygonAggs
	if err := f.get(ctx, fmt.Sprintf("%s/v2/aggs/ticker/%s/prev?adjusted=true", f.BaseURL, url.PathEscape(symbol)), &prev); err != nil {
		return nil, err
	}
	p := &model.SymbolProfile{Symbol: symbol}
	if len(prev.Results) > 0 {
		b := prev.Results[0]
		p.PreviousClose = null.FloatFromPtr(b.Close)
		p.DayHigh = null.FloatFromPtr(b.High)
		p.DayLow = null.FloatFromPtr(b.Low)
		p.Volume = null.FloatFromPtr(b.Volume)
	}

	var ref polygonTicker
	if err := f.get(ctx, fmt.Sprintf("%s/v3/reference/tickers/%s", f.BaseURL, url.PathEscape(symbol)), &ref); err == nil {
		p.Name = ref.Results.Name
		p.Currency = ref.Results.CurrencyName
		p.MarketCap = null.FloatFromPtr(ref.Results.MarketCap)
	} else {
		log.Debug().Err(err).Str("symbol", symbol).Msg("polygon reference lookup failed")
	}
	return p, nil
}
