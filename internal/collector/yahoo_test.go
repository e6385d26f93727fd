package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketLens/internal/model"
	"MarketLens/internal/normalizer"
)

const yahooFixture = `{"chart":{"result":[{
  "meta":{"currency":"USD","shortName":"Apple Inc.","regularMarketPrice":190.5,
          "chartPreviousClose":188.0,"regularMarketDayHigh":191.0,"regularMarketDayLow":187.5,
          "regularMarketVolume":51000000,"fiftyTwoWeekHigh":199.6,"fiftyTwoWeekLow":164.1},
  "timestamp":[1709303400,1709562600,1709649000],
  "indicators":{"quote":[{
    "open":[179.5,null,176.1],
    "high":[180.5,null,176.9],
    "low":[177.4,null,173.8],
    "close":[179.6,null,175.1],
    "volume":[73488000,null,81510100]
  }]}
}],"error":null}}`

func yahooServer(t *testing.T, status int, body string, seen *http.Request) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = *r
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestYahooFetcher_FetchOHLCV(t *testing.T) {
	var seen http.Request
	srv := yahooServer(t, http.StatusOK, yahooFixture, &seen)
	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	table, err := f.FetchOHLCV(context.Background(), model.FetchRequest{
		Symbol: "SPX", Start: start, End: end, Granularity: model.Daily, Interval: "1d",
	})
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/%5EGSPC", seen.URL.EscapedPath())
	q := seen.URL.Query()
	assert.Equal(t, "1709251200", q.Get("period1"))
	assert.Equal(t, "1709683200", q.Get("period2"), "end date is sent exclusive")
	assert.Equal(t, "false", q.Get("includePrePost"))

	require.Len(t, table.Rows, 3)
	assert.Nil(t, table.Rows[1][1])

	series, err := normalizer.Normalize(table, "SPX", model.Daily)
	require.NoError(t, err)
	require.Equal(t, 2, series.Len(), "null bar dropped")
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), series.Bars[0].Time)
	assert.Equal(t, 175.1, series.Bars[1].Close)
}

func TestYahooFetcher_NoResultIsEmpty(t *testing.T) {
	srv := yahooServer(t, http.StatusOK, `{"chart":{"result":[],"error":null}}`, nil)
	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	table, err := f.FetchOHLCV(context.Background(), model.FetchRequest{Symbol: "ZZZ", Interval: "1d"})
	require.NoError(t, err)
	assert.True(t, table.Empty())
}

func TestYahooFetcher_Errors(t *testing.T) {
	srv := yahooServer(t, http.StatusNotFound, "not found", nil)
	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	_, err := f.FetchOHLCV(context.Background(), model.FetchRequest{Symbol: "BAD", Interval: "1d"})
	var status *StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, http.StatusNotFound, status.Code)
	assert.False(t, status.Temporary())

	srv = yahooServer(t, http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, nil)
	f.BaseURL = srv.URL
	_, err = f.FetchOHLCV(context.Background(), model.FetchRequest{Symbol: "BAD", Interval: "1d"})
	assert.ErrorContains(t, err, "No data found")
}

func TestYahooFetcher_FetchProfile(t *testing.T) {
	srv := yahooServer(t, http.StatusOK, yahooFixture, nil)
	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	p, err := f.FetchProfile(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", p.Name)
	assert.Equal(t, 188.0, p.PreviousClose.Float64, "falls back to chart previous close")
	assert.Equal(t, 176.1, p.Open.Float64)
	assert.Equal(t, 199.6, p.High52w.Float64)
	assert.False(t, p.MarketCap.Valid)
}
