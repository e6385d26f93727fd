package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/guregu/null/v6"

	"MarketLens/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher and ProfileFetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Client:  NewHTTPClient(proxyURL),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta       yahooMeta `json:"meta"`
			Timestamp  []int64   `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooMeta struct {
	Currency           string   `json:"currency"`
	LongName           string   `json:"longName"`
	ShortName          string   `json:"shortName"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	ChartPreviousClose *float64 `json:"chartPreviousClose"`
	PreviousClose      *float64 `json:"previousClose"`
	DayHigh            *float64 `json:"regularMarketDayHigh"`
	DayLow             *float64 `json:"regularMarketDayLow"`
	Volume             *float64 `json:"regularMarketVolume"`
	High52w            *float64 `json:"fiftyTwoWeekHigh"`
	Low52w             *float64 `json:"fiftyTwoWeekLow"`
}

func cellOf(vals []*float64, i int) any {
	if i >= len(vals) || vals[i] == nil {
		return nil
	}
	return *vals[i]
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol string, query url.Values) (*yahooChart, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Provider: f.Name(), Code: resp.StatusCode, Body: string(body)}
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	return &chart, nil
}

// FetchOHLCV requests [Start, End] with End treated as inclusive.
func (f *YahooFetcher) FetchOHLCV(ctx context.Context, r model.FetchRequest) (*model.RawTable, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(r.Start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(r.End.AddDate(0, 0, 1).Unix(), 10))
	q.Set("interval", r.Interval)
	q.Set("includePrePost", strconv.FormatBool(r.ExtendedHours))

	chart, err := f.fetchChart(ctx, r.Symbol, q)
	if err != nil {
		return nil, err
	}

	table := &model.RawTable{Columns: ohlcvColumns(dateLabel(r.Granularity))}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return table, nil
	}
	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	table.Rows = make([][]any, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		table.Rows = append(table.Rows, []any{
			ts,
			cellOf(quote.Open, i),
			cellOf(quote.High, i),
			cellOf(quote.Low, i),
			cellOf(quote.Close, i),
			cellOf(quote.Volume, i),
		})
	}
	return table, nil
}

// FetchProfile reads the chart metadata of the latest sessions.
func (f *YahooFetcher) FetchProfile(ctx context.Context, symbol string) (*model.SymbolProfile, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("range", "5d")
	chart, err := f.fetchChart(ctx, symbol, q)
	if err != nil {
		return nil, err
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no profile for %s", symbol)
	}
	result := chart.Chart.Result[0]
	m := result.Meta

	p := &model.SymbolProfile{
		Symbol:        symbol,
		Name:          m.LongName,
		Currency:      m.Currency,
		Price:         null.FloatFromPtr(m.RegularMarketPrice),
		PreviousClose: null.FloatFromPtr(m.PreviousClose),
		DayHigh:       null.FloatFromPtr(m.DayHigh),
		DayLow:        null.FloatFromPtr(m.DayLow),
		Volume:        null.FloatFromPtr(m.Volume),
		High52w:       null.FloatFromPtr(m.High52w),
		Low52w:        null.FloatFromPtr(m.Low52w),
	}
	if p.Name == "" {
		p.Name = m.ShortName
	}
	if !p.PreviousClose.Valid {
		p.PreviousClose = null.FloatFromPtr(m.ChartPreviousClose)
	}
	if len(result.Indicators.Quote) > 0 {
		opens := result.Indicators.Quote[0].Open
		if n := len(opens); n > 0 {
			p.Open = null.FloatFromPtr(opens[n-1])
		}
	}
	return p, nil
}
