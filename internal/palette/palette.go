// Package palette maps series positions and values to display styles.
// Every function is pure; there is no shared palette state.
package palette

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Style describes how one plotted series is drawn.
type Style struct {
	Color string  `json:"color"`
	Dash  string  `json:"dash"`
	Width float64 `json:"width"`
}

var cycle = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// For returns the style of the series at index. Colors repeat after ten series
// and the dash pattern advances on each repeat.
func For(index int) Style {
	if index < 0 {
		index = -index
	}
	dashes := []string{"solid", "dash", "dot"}
	return Style{
		Color: cycle[index%len(cycle)],
		Dash:  dashes[(index/len(cycle))%len(dashes)],
		Width: 1.5,
	}
}

// Overlay styles for the price line and its two moving averages.
var (
	Price   = Style{Color: "#1f77b4", Dash: "solid", Width: 1.5}
	ShortMA = Style{Color: "#ff7f0e", Dash: "dash", Width: 1}
	LongMA  = Style{Color: "#2ca02c", Dash: "dot", Width: 1}
	Volume  = Style{Color: "#a1a1a1", Dash: "solid", Width: 1}
)

// Theme is a named colour table.
type Theme struct {
	Name           string `json:"name"`
	Background     string `json:"background"`
	Header         string `json:"header"`
	CardBackground string `json:"card_background"`
	Text           string `json:"text"`
	Positive       string `json:"positive"`
	Negative       string `json:"negative"`
}

var themes = map[string]Theme{
	"light": {
		Name:           "light",
		Background:     "#f4f6fa",
		Header:         "#1f77b4",
		CardBackground: "#ffffff",
		Text:           "#2c3e50",
		Positive:       "#27ae60",
		Negative:       "#e74c3c",
	},
	"dark": {
		Name:           "dark",
		Background:     "#2B2B2B",
		Header:         "#3D3D3D",
		CardBackground: "#444444",
		Text:           "#FAFAFA",
		Positive:       "#27ae60",
		Negative:       "#e74c3c",
	},
}

// DefaultTheme is used when no theme is named.
const DefaultTheme = "light"

// Lookup returns the named theme, case-insensitively.
func Lookup(name string) (Theme, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultTheme
	}
	t, ok := themes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Theme{}, fmt.Errorf("unknown theme %q", name)
	}
	return t, nil
}

// Tone classifies a performance value.
type Tone int

const (
	Neutral Tone = iota
	Positive
	Negative
)

// Performance returns the tone of a percentage change. Zero is neutral.
func Performance(v float64) Tone {
	switch {
	case v > 0:
		return Positive
	case v < 0:
		return Negative
	default:
		return Neutral
	}
}

// Color returns the theme colour for tone.
func (t Theme) Color(tone Tone) string {
	switch tone {
	case Positive:
		return t.Positive
	case Negative:
		return t.Negative
	default:
		return t.Text
	}
}

// Bar returns the bar colour used by the performance charts: header blue
// for gains and flat values, negative red for losses.
func (t Theme) Bar(v float64) string {
	if v >= 0 {
		return "#1f77b4"
	}
	return t.Negative
}

// ANSI wraps s in the terminal colour for tone. Neutral text is unchanged.
// Dark themes use the high-intensity variants. Colour is forced on; callers
// decide whether the output wants it.
func (t Theme) ANSI(tone Tone, s string) string {
	var attr color.Attribute
	switch tone {
	case Positive:
		attr = color.FgGreen
	case Negative:
		attr = color.FgRed
	default:
		return s
	}
	if t.Name == "dark" {
		attr += color.FgHiBlack - color.FgBlack
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}
