package model

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
)

// Point represents a screen coordinate
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Rectangle represents an axis-aligned box. W and H may be negative until
// the rectangle is normalized.
type Rectangle struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	W float64 `json:"w" yaml:"w"`
	H float64 `json:"h" yaml:"h"`
}

// RectangleFromPoints returns the normalized box spanned by two corners
func RectangleFromPoints(a, b Point) Rectangle {
	return Rectangle{X: a.X, Y: a.Y, W: b.X - a.X, H: b.Y - a.Y}.Normalize()
}

// Normalize returns an equivalent rectangle with non-negative width and height.
// A negative extent moves the origin instead of being clamped.
func (r Rectangle) Normalize() Rectangle {
	if r.W < 0 {
		r.X += r.W
		r.W = -r.W
	}
	if r.H < 0 {
		r.Y += r.H
		r.H = -r.H
	}
	return r
}

// Empty reports whether the rectangle covers no area
func (r Rectangle) Empty() bool {
	return r.W == 0 || r.H == 0
}

// Center returns the midpoint of the rectangle
func (r Rectangle) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Image converts the rectangle to integer pixel bounds. Origin and size are
// truncated toward zero.
func (r Rectangle) Image() image.Rectangle {
	r = r.Normalize()
	x, y := int(r.X), int(r.Y)
	return image.Rect(x, y, x+int(r.W), y+int(r.H))
}

func (r Rectangle) String() string {
	return fmt.Sprintf("%gx%g+%g+%g", r.W, r.H, r.X, r.Y)
}

// Colour is an 8-bit per channel, non-premultiplied colour
type Colour struct {
	Red   uint8 `json:"red" yaml:"red"`
	Green uint8 `json:"green" yaml:"green"`
	Blue  uint8 `json:"blue" yaml:"blue"`
	Alpha uint8 `json:"alpha" yaml:"alpha"`
}

var (
	// Black is the default drawing colour
	Black = Colour{Red: 0, Green: 0, Blue: 0, Alpha: 255}
	// White is used for text drawn on dark markers
	White = Colour{Red: 255, Green: 255, Blue: 255, Alpha: 255}
	// Transparent paints nothing
	Transparent = Colour{}
)

// NRGBA converts the colour to the standard library representation
func (c Colour) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.Red, G: c.Green, B: c.Blue, A: c.Alpha}
}

// Luminance returns the relative luminance in the range [0, 1]
func (c Colour) Luminance() float64 {
	return (0.2126*float64(c.Red) + 0.7152*float64(c.Green) + 0.0722*float64(c.Blue)) / 255
}

// Hex formats the colour as #rrggbbaa
func (c Colour) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.Red, c.Green, c.Blue, c.Alpha)
}

func (c Colour) String() string {
	return c.Hex()
}

// ParseColour parses #rgb, #rrggbb or #rrggbbaa (leading # optional)
func ParseColour(s string) (Colour, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return Colour{}, fmt.Errorf("invalid colour %q: expected #rgb, #rrggbb or #rrggbbaa", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Colour{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}

	return Colour{
		Red:   uint8(v >> 24),
		Green: uint8(v >> 16),
		Blue:  uint8(v >> 8),
		Alpha: uint8(v),
	}, nil
}
