package calculator

import (
	"errors"
	"math"
	"testing"
	"time"

	"MarketLens/internal/model"
)

func closes(vals ...float64) *model.Series {
	s := &model.Series{Symbol: "T", Granularity: model.Daily, Location: time.UTC}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range vals {
		s.Bars = append(s.Bars, model.Bar{Time: start.AddDate(0, 0, i), Open: v, High: v, Low: v, Close: v})
	}
	return s
}

func TestMovingAverage_MinPeriods(t *testing.T) {
	s := closes(10, 20, 30, 40, 50)
	ma, err := MovingAverage(s, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{10, 15, 20, 30, 40}
	if len(ma) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(ma))
	}
	for i, w := range want {
		if !ma[i].Valid || math.Abs(ma[i].Float64-w) > 1e-9 {
			t.Errorf("ma[%d] = %v, want %.2f", i, ma[i], w)
		}
	}
}

func TestMovingAverage_LengthAndFirstValue(t *testing.T) {
	s := closes(3, 1, 4, 1, 5, 9, 2, 6)
	for _, w := range []int{1, 2, 5, 20, 50} {
		ma, err := MovingAverage(s, w)
		if err != nil {
			t.Fatalf("window %d: %v", w, err)
		}
		if len(ma) != s.Len() {
			t.Errorf("window %d: length %d, want %d", w, len(ma), s.Len())
		}
		if ma[0].Float64 != 3 {
			t.Errorf("window %d: first value %.2f, want 3", w, ma[0].Float64)
		}
	}
}

func TestMovingAverage_InvalidWindow(t *testing.T) {
	if _, err := MovingAverage(closes(1, 2), 0); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestMovingAverage_EmptySeries(t *testing.T) {
	ma, err := MovingAverage(closes(), 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ma) != 0 {
		t.Errorf("expected no values, got %d", len(ma))
	}
}

func TestMovingAverages_KeyedByWindow(t *testing.T) {
	s := closes(1, 2, 3, 4)
	out, err := MovingAverages(s, 20, 50, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(out))
	}
	if got := out[2][3].Float64; got != 3.5 {
		t.Errorf("ma2 last = %.2f, want 3.5", got)
	}
	if got := out[20][3].Float64; got != 2.5 {
		t.Errorf("ma20 last = %.2f, want 2.5", got)
	}
}
