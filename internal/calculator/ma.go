package calculator

import (
	"errors"
	"fmt"

	"github.com/guregu/null/v6"

	"MarketLens/internal/model"
)

// ErrInvalidWindow is returned for a non-positive moving-average window.
var ErrInvalidWindow = errors.New("window must be positive")

// MovingAverage returns the rolling mean of closes over window observations,
// averaging whatever is available before the window fills. The output is
// aligned with series.Bars.
func MovingAverage(series *model.Series, window int) ([]null.Float, error) {
	if window <= 0 {
		return nil, fmt.Errorf("moving average %d: %w", window, ErrInvalidWindow)
	}
	if series == nil {
		return nil, nil
	}
	out := make([]null.Float, len(series.Bars))
	sum := 0.0
	for i, b := range series.Bars {
		sum += b.Close
		n := i + 1
		if n > window {
			sum -= series.Bars[i-window].Close
			n = window
		}
		out[i] = null.FloatFrom(sum / float64(n))
	}
	return out, nil
}

// MovingAverages computes each window independently, keyed by window size.
func MovingAverages(series *model.Series, windows ...int) (model.MovingAverageSeries, error) {
	out := make(model.MovingAverageSeries, len(windows))
	for _, w := range windows {
		if _, done := out[w]; done {
			continue
		}
		ma, err := MovingAverage(series, w)
		if err != nil {
			return nil, err
		}
		out[w] = ma
	}
	return out, nil
}
