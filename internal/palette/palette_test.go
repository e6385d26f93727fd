package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	assert.Equal(t, "#1f77b4", For(0).Color)
	assert.Equal(t, "solid", For(0).Dash)
	assert.Equal(t, For(3), For(3), "same index, same style")
	assert.Equal(t, For(0).Color, For(10).Color)
	assert.Equal(t, "dash", For(10).Dash)
	assert.Equal(t, For(2), For(-2))
}

func TestLookup(t *testing.T) {
	light, err := Lookup("")
	require.NoError(t, err)
	assert.Equal(t, "#f4f6fa", light.Background)

	dark, err := Lookup(" Dark ")
	require.NoError(t, err)
	assert.Equal(t, "#FAFAFA", dark.Text)

	_, err = Lookup("solarized")
	assert.Error(t, err)
}

func TestPerformance(t *testing.T) {
	theme, _ := Lookup("light")
	assert.Equal(t, "#27ae60", theme.Color(Performance(0.1)))
	assert.Equal(t, "#e74c3c", theme.Color(Performance(-0.1)))
	assert.Equal(t, theme.Text, theme.Color(Performance(0)))

	assert.Equal(t, "#1f77b4", theme.Bar(0))
	assert.Equal(t, "#e74c3c", theme.Bar(-2))
}

func TestANSI(t *testing.T) {
	light, _ := Lookup("light")
	dark, _ := Lookup("dark")
	assert.Equal(t, "x", light.ANSI(Neutral, "x"))
	assert.Equal(t, "\x1b[32mx\x1b[0m", light.ANSI(Positive, "x"))
	assert.Equal(t, "\x1b[31mx\x1b[0m", light.ANSI(Negative, "x"))
	assert.Equal(t, "\x1b[92mx\x1b[0m", dark.ANSI(Positive, "x"))
	assert.Equal(t, "\x1b[91mx\x1b[0m", dark.ANSI(Negative, "x"))
}
