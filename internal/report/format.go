// Package report renders analysis results as plain text for the terminal.
package report

import (
	"math"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// NA marks an absent value.
const NA = "N/A"

// FormatNumber renders a money amount as $1.23T, $4.56B, $7.89M or $1,234.56.
func FormatNumber(v null.Float) string {
	if !v.Valid || math.IsNaN(v.Float64) || math.IsInf(v.Float64, 0) {
		return NA
	}
	x := v.Float64
	switch {
	case x >= 1e12:
		return "$" + fixed(x/1e12) + "T"
	case x >= 1e9:
		return "$" + fixed(x/1e9) + "B"
	case x >= 1e6:
		return "$" + fixed(x/1e6) + "M"
	default:
		return "$" + Commas(fixed(x))
	}
}

// FormatCount renders an integer count with thousands separators.
func FormatCount(v null.Float) string {
	if !v.Valid || math.IsNaN(v.Float64) {
		return NA
	}
	return Commas(decimal.NewFromFloat(v.Float64).Round(0).String())
}

// FormatPlain renders a bare two-decimal value or N/A.
func FormatPlain(v null.Float) string {
	if !v.Valid || math.IsNaN(v.Float64) || math.IsInf(v.Float64, 0) {
		return NA
	}
	return fixed(v.Float64)
}

// FormatRange renders "low - high", either side N/A when absent.
func FormatRange(low, high null.Float) string {
	return FormatPlain(low) + " - " + FormatPlain(high)
}

// FormatYield renders a dividend yield fraction as a percentage.
func FormatYield(v null.Float) string {
	if !v.Valid || v.Float64 == 0 {
		return NA
	}
	return fixed(v.Float64*100) + "%"
}

func fixed(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Commas inserts thousands separators into the integer part of a decimal string.
func Commas(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}
