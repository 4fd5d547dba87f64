package ontology

import (
	"fmt"
	"math"
)

// Color is an RGBA colour with channels in [0, 1].
type Color struct {
	R, G, B, A float64
}

// Hex renders the colour as #rrggbbaa.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B), channel(c.A))
}

// RGB renders the colour as #rrggbb, dropping alpha.
func (c Color) RGB() string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// Palette maps t in [0, 1] onto a colour.
type Palette interface {
	At(t float64) Color
}

// Gradient is a piecewise-linear palette through evenly spaced stops.
type Gradient []Color

// At interpolates between the two stops surrounding t.
func (g Gradient) At(t float64) Color {
	if len(g) == 0 {
		return Color{A: 1}
	}
	if len(g) == 1 || t <= 0 {
		return g[0]
	}
	if t >= 1 {
		return g[len(g)-1]
	}
	pos := t * float64(len(g)-1)
	i := int(pos)
	f := pos - float64(i)
	lo, hi := g[i], g[i+1]
	return Color{
		R: lo.R + (hi.R-lo.R)*f,
		G: lo.G + (hi.G-lo.G)*f,
		B: lo.B + (hi.B-lo.B)*f,
		A: lo.A + (hi.A-lo.A)*f,
	}
}

func rgb(r, g, b uint8) Color {
	return Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255, A: 1}
}

// Spectral is the eleven-class diverging ColorBrewer "Spectral" scheme.
var Spectral = Gradient{
	rgb(0x9e, 0x01, 0x42),
	rgb(0xd5, 0x3e, 0x4f),
	rgb(0xf4, 0x6d, 0x43),
	rgb(0xfd, 0xae, 0x61),
	rgb(0xfe, 0xe0, 0x8b),
	rgb(0xff, 0xff, 0xbf),
	rgb(0xe6, 0xf5, 0x98),
	rgb(0xab, 0xdd, 0xa4),
	rgb(0x66, 0xc2, 0xa5),
	rgb(0x32, 0x88, 0xbd),
	rgb(0x5e, 0x4f, 0xa2),
}
