// Package correlation builds aligned close-price tables and Pearson matrices.
package correlation

import (
	"math"
	"sort"
	"time"

	"MarketLens/internal/model"
)

// Column is one labelled close-price series.
type Column struct {
	Label string
	Bars  []model.Bar
}

// Table is an inner join of columns on timestamp.
type Table struct {
	Labels []string
	Times  []time.Time
	Values [][]float64 // one row per column, aligned with Times
}

// Align inner-joins columns on timestamp. Columns without observations are dropped.
func Align(columns []Column) Table {
	var kept []Column
	for _, c := range columns {
		if len(c.Bars) > 0 {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return Table{}
	}

	counts := make(map[int64]int)
	closes := make([]map[int64]float64, len(kept))
	for i, c := range kept {
		closes[i] = make(map[int64]float64, len(c.Bars))
		for _, b := range c.Bars {
			k := b.Time.UnixNano()
			if _, dup := closes[i][k]; !dup {
				counts[k]++
			}
			closes[i][k] = b.Close
		}
	}

	var keys []int64
	for k, n := range counts {
		if n == len(kept) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	t := Table{
		Labels: make([]string, len(kept)),
		Times:  make([]time.Time, len(keys)),
		Values: make([][]float64, len(kept)),
	}
	for j, k := range keys {
		t.Times[j] = time.Unix(0, k).UTC()
	}
	for i, c := range kept {
		t.Labels[i] = c.Label
		row := make([]float64, len(keys))
		for j, k := range keys {
			row[j] = closes[i][k]
		}
		t.Values[i] = row
	}
	return t
}

// Pearson returns the correlation coefficient of x and y, or 0 when either
// has zero variance or the lengths differ.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if n < 2 || n != len(y) {
		return 0
	}
	var mx, my float64
	for i := 0; i < n; i++ {
		mx += x[i]
		my += y[i]
	}
	mx /= float64(n)
	my /= float64(n)

	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	r := sxy / math.Sqrt(sxx*syy)
	// Collinear inputs can land a few ulps outside [-1, 1]; this only
	// corrects float rounding.
	return math.Max(-1, math.Min(1, r))
}

// Matrix computes pairwise Pearson coefficients over the aligned columns.
// Fewer than two aligned observations yields an empty matrix.
func Matrix(columns []Column) model.CorrelationMatrix {
	t := Align(columns)
	if len(t.Times) < 2 {
		return model.CorrelationMatrix{}
	}
	n := len(t.Labels)
	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
		values[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := Pearson(t.Values[i], t.Values[j])
			values[i][j], values[j][i] = r, r
		}
	}
	return model.CorrelationMatrix{Labels: t.Labels, Values: values, Observations: len(t.Times)}
}

// Window restricts series to bars at or after since, labelled by label.
func Window(label string, series *model.Series, since time.Time) Column {
	if series == nil {
		return Column{Label: label}
	}
	return Column{Label: label, Bars: series.Since(since)}
}
