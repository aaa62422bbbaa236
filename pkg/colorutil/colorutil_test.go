package colorutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, Orange, c)

	c, err = ParseHex("00ffff")
	require.NoError(t, err)
	assert.Equal(t, Cyan, c)
}

func TestParseHexInvalid(t *testing.T) {
	for _, s := range []string{"", "#fff", "zzzzzz", "#1234567"} {
		_, err := ParseHex(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestHexRoundTrip(t *testing.T) {
	c := color.RGBA{R: 18, G: 52, B: 86, A: 255}
	got, err := ParseHex(Hex(c))
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestWithAlpha(t *testing.T) {
	c := WithAlpha(Cyan, 128)
	assert.Equal(t, uint8(128), c.A)
	assert.Equal(t, Cyan.R, c.R)
}

func TestLightenClamps(t *testing.T) {
	assert.Equal(t, White, Lighten(Black, 1))
	assert.Equal(t, Black, Lighten(Black, 0))
	assert.Equal(t, Black, Lighten(Black, -2))
}

func TestBlend(t *testing.T) {
	mixed := Blend(White, Black, 0.5)
	assert.InDelta(t, 127, float64(mixed.R), 1)
	assert.Equal(t, uint8(255), mixed.A)
}
