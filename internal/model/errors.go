package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptySeries marks a symbol whose provider returned no observations.
	ErrEmptySeries = errors.New("empty series")
	// ErrInsufficientHistory marks a computation that lacks the observations it needs.
	ErrInsufficientHistory = errors.New("insufficient history")
)

// DataShapeError reports a raw table that cannot be mapped onto the canonical schema.
type DataShapeError struct {
	Missing []string
	Reason  string
}

func (e *DataShapeError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("data shape: missing columns %s", strings.Join(e.Missing, ", "))
	}
	return "data shape: " + e.Reason
}

// ErrorKind classifies a per-symbol failure.
type ErrorKind string

const (
	KindDataShape           ErrorKind = "data_shape"
	KindEmptySeries         ErrorKind = "empty_series"
	KindInsufficientHistory ErrorKind = "insufficient_history"
	KindFetch               ErrorKind = "fetch"
	KindCancelled           ErrorKind = "cancelled"
)

// Classify maps an error onto its kind. Anything unrecognised is a fetch failure,
// since the provider is the only collaborator allowed to fail arbitrarily.
func Classify(err error) ErrorKind {
	var shape *DataShapeError
	var symErr *SymbolError
	switch {
	case errors.As(err, &symErr):
		return symErr.Kind
	case errors.As(err, &shape):
		return KindDataShape
	case errors.Is(err, ErrEmptySeries):
		return KindEmptySeries
	case errors.Is(err, ErrInsufficientHistory):
		return KindInsufficientHistory
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	default:
		return KindFetch
	}
}

// SymbolError tags a failure with the symbol and pipeline stage it belongs to.
type SymbolError struct {
	Symbol string
	Stage  Stage
	Kind   ErrorKind
	Err    error
}

// NewSymbolError wraps err for symbol, classifying it.
func NewSymbolError(symbol string, stage Stage, err error) *SymbolError {
	return &SymbolError{Symbol: symbol, Stage: stage, Kind: Classify(err), Err: err}
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("%s: %s at %s: %v", e.Symbol, e.Kind, e.Stage, e.Err)
}

func (e *SymbolError) Unwrap() error { return e.Err }
