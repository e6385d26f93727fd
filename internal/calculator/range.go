package calculator

import (
	"errors"
	"math"

	"MarketLens/internal/model"
)

// HighLow scans bars and returns the highest high and the lowest low.
func HighLow(bars []model.Bar) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, model.ErrInsufficientHistory
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}

// RangePct returns (max high - min low) / min low * 100 over bars.
// It is 0 for an empty slice or a non-positive low.
func RangePct(bars []model.Bar) float64 {
	high, low, err := HighLow(bars)
	if err != nil || low <= 0 {
		return 0
	}
	return (high - low) / low * 100
}

// RangePosition returns where current sits within [low, high], from 0.0 to 1.0.
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
