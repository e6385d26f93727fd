// Package collector provides the market data fetch collaborators.
package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"MarketLens/internal/model"
)

// Fetcher retrieves raw OHLCV tables from a market data provider.
// An empty table with a nil error means the provider had no data.
type Fetcher interface {
	FetchOHLCV(ctx context.Context, req model.FetchRequest) (*model.RawTable, error)
	Name() string
}

// ProfileFetcher retrieves the metadata shown next to a symbol's chart.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, symbol string) (*model.SymbolProfile, error)
}

// ErrNoProfiles is returned by fetchers that cannot provide symbol metadata.
var ErrNoProfiles = errors.New("provider has no profile data")

// StatusError reports a non-200 provider response.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d, body: %s", e.Provider, e.Code, e.Body)
}

// Temporary reports whether retrying the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// NewHTTPClient returns a client with a 30 second timeout and an optional proxy.
func NewHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

func ohlcvColumns(dateLabel string) [][]string {
	return [][]string{{dateLabel}, {"Open"}, {"High"}, {"Low"}, {"Close"}, {"Volume"}}
}

func dateLabel(g model.Granularity) string {
	if g == model.Intraday {
		return "Datetime"
	}
	return "Date"
}
