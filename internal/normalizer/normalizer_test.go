package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketLens/internal/model"
)

func ohlcvColumns(dateLabel string) [][]string {
	return [][]string{{dateLabel}, {"Open"}, {"High"}, {"Low"}, {"Close"}, {"Volume"}}
}

func TestNormalize_EmptyTableIsNotAnError(t *testing.T) {
	for _, table := range []*model.RawTable{nil, {Columns: ohlcvColumns("Date")}} {
		s, err := Normalize(table, "AAA", model.Daily)
		require.NoError(t, err)
		assert.True(t, s.IsEmpty())
		assert.Equal(t, "AAA", s.Symbol)
	}
}

func TestNormalize_FlattensMultiLevelColumns(t *testing.T) {
	table := &model.RawTable{
		Columns: [][]string{
			{"Date", ""},
			{"Close", "AAPL"},
			{"High", "AAPL"},
			{"Low", "AAPL"},
			{"Open", "AAPL"},
			{"Volume", "AAPL"},
		},
		Rows: [][]any{
			{"2024-03-01", 180.0, 182.0, 179.0, 179.5, 1000.0},
		},
	}
	s, err := Normalize(table, "AAPL", model.Daily)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
	bar := s.Bars[0]
	assert.Equal(t, 179.5, bar.Open)
	assert.Equal(t, 182.0, bar.High)
	assert.Equal(t, 179.0, bar.Low)
	assert.Equal(t, 180.0, bar.Close)
	assert.Equal(t, 1000.0, bar.Volume)
}

func TestNormalize_DuplicateLabelsKeepFirst(t *testing.T) {
	table := &model.RawTable{
		Columns: [][]string{{"Date"}, {"Open"}, {"High"}, {"Low"}, {"Close"}, {"Close"}, {"Volume"}},
		Rows:    [][]any{{"2024-03-01", 1.0, 2.0, 0.5, 1.5, 99.0, 10.0}},
	}
	s, err := Normalize(table, "X", model.Daily)
	require.NoError(t, err)
	assert.Equal(t, 1.5, s.Bars[0].Close)
}

func TestNormalize_DatetimeUnifiedAndConvertedToEastern(t *testing.T) {
	table := &model.RawTable{
		Columns: ohlcvColumns("Datetime"),
		Rows: [][]any{
			// naive, treated as UTC
			{"2024-03-01 14:31:00", 1.0, 1.0, 1.0, 1.0, 5.0},
			{"2024-03-01 14:30:00", 1.0, 1.0, 1.0, 1.0, 5.0},
		},
	}
	s, err := Normalize(table, "X", model.Intraday)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())

	first := s.Bars[0].Time
	assert.Equal(t, Exchange, first.Location())
	assert.Equal(t, 9, first.Hour())
	assert.Equal(t, 30, first.Minute())
	assert.True(t, s.Bars[0].Time.Before(s.Bars[1].Time))
}

func TestNormalize_ZonedIntradayKeepsInstant(t *testing.T) {
	utc := time.Date(2024, 7, 1, 13, 30, 0, 0, time.UTC)
	table := &model.RawTable{
		Columns: ohlcvColumns("Datetime"),
		Rows:    [][]any{{utc, 1.0, 1.0, 1.0, 1.0, 1.0}, {utc.Unix() + 60, 1.0, 1.0, 1.0, 1.0, 1.0}},
	}
	s, err := Normalize(table, "X", model.Intraday)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	assert.True(t, s.Bars[0].Time.Equal(utc))
	assert.Equal(t, 9, s.Bars[0].Time.Hour()) // EDT
	assert.Equal(t, Exchange, s.Bars[1].Time.Location())
}

func TestNormalize_DailyKeepsDateOnly(t *testing.T) {
	table := &model.RawTable{
		Columns: ohlcvColumns("Date"),
		Rows:    [][]any{{time.Date(2024, 3, 1, 13, 30, 0, 0, time.UTC), 1.0, 1.0, 1.0, 1.0, 1.0}},
	}
	s, err := Normalize(table, "X", model.Daily)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), s.Bars[0].Time)
}

func TestNormalize_MissingColumns(t *testing.T) {
	table := &model.RawTable{
		Columns: [][]string{{"Date"}, {"Open"}, {"Close"}},
		Rows:    [][]any{{"2024-03-01", 1.0, 1.0}},
	}
	_, err := Normalize(table, "X", model.Daily)
	var shape *model.DataShapeError
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, []string{"High", "Low", "Volume"}, shape.Missing)
	assert.Equal(t, model.KindDataShape, model.Classify(err))
}

func TestNormalize_MissingTimestampColumn(t *testing.T) {
	table := &model.RawTable{
		Columns: [][]string{{"When"}, {"Open"}, {"High"}, {"Low"}, {"Close"}, {"Volume"}},
		Rows:    [][]any{{"2024-03-01", 1.0, 1.0, 1.0, 1.0, 1.0}},
	}
	_, err := Normalize(table, "X", model.Daily)
	var shape *model.DataShapeError
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, []string{"Date"}, shape.Missing)
}

func TestNormalize_UnparseableTimestamp(t *testing.T) {
	table := &model.RawTable{
		Columns: ohlcvColumns("Date"),
		Rows:    [][]any{{"yesterday", 1.0, 1.0, 1.0, 1.0, 1.0}},
	}
	_, err := Normalize(table, "X", model.Daily)
	var shape *model.DataShapeError
	assert.ErrorAs(t, err, &shape)
}

func TestNormalize_DedupesSortsAndDropsNullBars(t *testing.T) {
	table := &model.RawTable{
		Columns: ohlcvColumns("Date"),
		Rows: [][]any{
			{"2024-03-04", 3.0, 3.0, 3.0, 3.0, 30.0},
			{"2024-03-01", 1.0, 1.0, 1.0, 1.0, 10.0},
			{"2024-03-04", 4.0, 4.0, 4.0, 4.0, 40.0},
			{"2024-03-05", nil, nil, nil, nil, nil},
			{"2024-03-06", "5", "5", "5", "5", -7.0},
		},
	}
	s, err := Normalize(table, "X", model.Daily)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	assert.Equal(t, 1.0, s.Bars[0].Close)
	assert.Equal(t, 4.0, s.Bars[1].Close, "duplicate timestamp keeps the last row")
	assert.Equal(t, 5.0, s.Bars[2].Close)
	assert.Equal(t, 0.0, s.Bars[2].Volume, "negative volume is clamped")
	for i := 1; i < s.Len(); i++ {
		assert.True(t, s.Bars[i-1].Time.Before(s.Bars[i].Time))
	}
}

func TestNormalize_AllNullRowsYieldEmptySeries(t *testing.T) {
	table := &model.RawTable{
		Columns: ohlcvColumns("Date"),
		Rows:    [][]any{{"2024-03-05", nil, nil, nil, nil, nil}},
	}
	s, err := Normalize(table, "X", model.Daily)
	require.NoError(t, err)
	assert.True(t, s.IsEmpty())
}
