package model

import (
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRectangleNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Rectangle
		want Rectangle
	}{
		{"already normal", Rectangle{X: 1, Y: 2, W: 3, H: 4}, Rectangle{X: 1, Y: 2, W: 3, H: 4}},
		{"negative width", Rectangle{X: 10, Y: 10, W: -5, H: 5}, Rectangle{X: 5, Y: 10, W: 5, H: 5}},
		{"negative height", Rectangle{X: 10, Y: 10, W: 5, H: -5}, Rectangle{X: 10, Y: 5, W: 5, H: 5}},
		{"both negative", Rectangle{X: 10, Y: 10, W: -5, H: -5}, Rectangle{X: 5, Y: 5, W: 5, H: 5}},
		{"zero size", Rectangle{X: 3, Y: 3}, Rectangle{X: 3, Y: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestRectangleNormalizeCoversSameRegion(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		r := Rectangle{
			X: float64(rng.Intn(2000) - 1000),
			Y: float64(rng.Intn(2000) - 1000),
			W: float64(rng.Intn(2000) - 1000),
			H: float64(rng.Intn(2000) - 1000),
		}
		n := r.Normalize()

		require.GreaterOrEqual(t, n.W, 0.0)
		require.GreaterOrEqual(t, n.H, 0.0)

		minX, maxX := r.X, r.X+r.W
		if minX > maxX {
			minX, maxX = maxX, minX
		}
		minY, maxY := r.Y, r.Y+r.H
		if minY > maxY {
			minY, maxY = maxY, minY
		}
		assert.Equal(t, minX, n.X)
		assert.Equal(t, maxX, n.X+n.W)
		assert.Equal(t, minY, n.Y)
		assert.Equal(t, maxY, n.Y+n.H)
	}
}

func TestRectangleFromPoints(t *testing.T) {
	r := RectangleFromPoints(Point{X: 10, Y: 10}, Point{X: 5, Y: 5})
	assert.Equal(t, Rectangle{X: 5, Y: 5, W: 5, H: 5}, r)
	assert.Equal(t, Point{X: 7.5, Y: 7.5}, r.Center())
	assert.False(t, r.Empty())
	assert.True(t, RectangleFromPoints(Point{X: 1, Y: 1}, Point{X: 1, Y: 9}).Empty())
}

func TestRectangleImage(t *testing.T) {
	assert.Equal(t, image.Rect(5, 5, 15, 25), Rectangle{X: 5.7, Y: 5.2, W: 10.9, H: 20.1}.Image())
	assert.Equal(t, image.Rect(0, 0, 10, 10), Rectangle{X: 10, Y: 10, W: -10, H: -10}.Image())
}

func TestParseColour(t *testing.T) {
	tests := []struct {
		in      string
		want    Colour
		wantErr bool
	}{
		{in: "#000000", want: Black},
		{in: "ff0000", want: Colour{Red: 255, Alpha: 255}},
		{in: "#12345678", want: Colour{Red: 0x12, Green: 0x34, Blue: 0x56, Alpha: 0x78}},
		{in: "#fff", want: White},
		{in: "#ff00", wantErr: true},
		{in: "#gggggg", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColour(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColourHexRoundTrip(t *testing.T) {
	c := Colour{Red: 1, Green: 2, Blue: 3, Alpha: 4}
	assert.Equal(t, "#01020304", c.Hex())

	parsed, err := ParseColour(c.Hex())
	require.NoError(t, err)
	assert.Equal(t, c, parsed)
}

func TestColourLuminance(t *testing.T) {
	assert.InDelta(t, 0.0, Black.Luminance(), 1e-9)
	assert.InDelta(t, 1.0, White.Luminance(), 1e-9)
}
