// Package normalizer turns raw provider tables into canonical series.
package normalizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"MarketLens/internal/model"
)

// DateColumn is the unified name of the primary timestamp column.
const DateColumn = "Date"

// Exchange is the timezone intraday series are expressed in.
var Exchange = mustLoad("America/New_York")

var priceColumns = []string{"Open", "High", "Low", "Close", "Volume"}

// timestampAliases are unified under DateColumn, in priority order.
var timestampAliases = []string{"Date", "Datetime", "Timestamp"}

var naiveLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// Normalize converts table into a canonical series for symbol.
// A nil or row-less table yields an empty series and no error.
func Normalize(table *model.RawTable, symbol string, g model.Granularity) (*model.Series, error) {
	loc := time.UTC
	if g == model.Intraday {
		loc = Exchange
	}
	series := &model.Series{Symbol: symbol, Granularity: g, Location: loc}
	if table.Empty() {
		return series, nil
	}

	idx, err := columnIndex(table.Columns)
	if err != nil {
		return nil, err
	}

	bars := make([]model.Bar, 0, len(table.Rows))
	for i, row := range table.Rows {
		ts, naive, err := parseTime(cell(row, idx[DateColumn]))
		if err != nil {
			return nil, &model.DataShapeError{Reason: fmt.Sprintf("row %d: %v", i, err)}
		}
		bar := model.Bar{
			Time:   canonicalTime(ts, naive, g),
			Open:   number(cell(row, idx["Open"])),
			High:   number(cell(row, idx["High"])),
			Low:    number(cell(row, idx["Low"])),
			Close:  number(cell(row, idx["Close"])),
			Volume: number(cell(row, idx["Volume"])),
		}
		if !finite(bar.Open, bar.High, bar.Low, bar.Close) {
			continue // provider null bar
		}
		if !finite(bar.Volume) || bar.Volume < 0 {
			bar.Volume = 0
		}
		bars = append(bars, bar)
	}

	series.Bars = dedupe(bars)
	return series, nil
}

// columnIndex flattens multi-level labels to their first level and maps the
// canonical column names onto positions. Duplicate labels keep the first one.
func columnIndex(columns [][]string) (map[string]int, error) {
	flat := make(map[string]int, len(columns))
	for i, label := range columns {
		if len(label) == 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(label[0]))
		if _, dup := flat[name]; !dup {
			flat[name] = i
		}
	}

	idx := make(map[string]int, len(priceColumns)+1)
	for _, alias := range timestampAliases {
		if i, ok := flat[strings.ToLower(alias)]; ok {
			idx[DateColumn] = i
			break
		}
	}
	var missing []string
	if _, ok := idx[DateColumn]; !ok {
		missing = append(missing, DateColumn)
	}
	for _, name := range priceColumns {
		i, ok := flat[strings.ToLower(name)]
		if !ok {
			missing = append(missing, name)
			continue
		}
		idx[name] = i
	}
	if len(missing) > 0 {
		return nil, &model.DataShapeError{Missing: missing}
	}
	return idx, nil
}

func cell(row []any, i int) any {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

// parseTime reads a timestamp cell. naive is true when the cell carried no zone.
func parseTime(v any) (t time.Time, naive bool, err error) {
	switch x := v.(type) {
	case time.Time:
		return x, false, nil
	case int64:
		return epoch(x), false, nil
	case int:
		return epoch(int64(x)), false, nil
	case float64:
		return epoch(int64(x)), false, nil
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return time.Time{}, false, err
		}
		return epoch(n), false, nil
	case string:
		s := strings.TrimSpace(x)
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t, false, nil
		}
		for _, layout := range naiveLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true, nil
			}
		}
		return time.Time{}, false, fmt.Errorf("unrecognised timestamp %q", s)
	case nil:
		return time.Time{}, false, errMissingTimestamp
	default:
		return time.Time{}, false, fmt.Errorf("unsupported timestamp cell %T", v)
	}
}

var errMissingTimestamp = errors.New("missing timestamp")

// epoch accepts seconds or milliseconds since the Unix epoch.
func epoch(n int64) time.Time {
	if n > 1e11 || n < -1e11 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

func canonicalTime(t time.Time, naive bool, g model.Granularity) time.Time {
	if g == model.Daily {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	if naive {
		t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	}
	return t.In(Exchange)
}

func number(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// dedupe sorts bars by time and keeps the last row for each timestamp.
func dedupe(bars []model.Bar) []model.Bar {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
