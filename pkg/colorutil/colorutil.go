// Package colorutil provides shared color utilities for the wall map.
package colorutil

import (
	"image/color"
	"math"
)

// Overlay colors used throughout the application.
var (
	Black      = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Amber      = color.RGBA{R: 0xff, G: 0xb7, B: 0x4d, A: 255}
	Chalk      = color.RGBA{R: 0xe6, G: 0x51, B: 0x00, A: 255}
	Background = color.RGBA{R: 0x1e, G: 0x1e, B: 0x1e, A: 255}
)

// WithAlpha returns c with its alpha replaced, as non-premultiplied color.
func WithAlpha(c color.RGBA, a uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: a}
}

// RGBToHSV converts RGB (0-255) to HSV with H in 0-360 and S, V in 0-1.
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	r /= 255.0
	g /= 255.0
	b /= 255.0

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	diff := maxC - minC

	v = maxC
	if maxC > 0 {
		s = diff / maxC
	}

	switch {
	case diff == 0:
		h = 0
	case maxC == r:
		h = 60 * math.Mod((g-b)/diff, 6)
	case maxC == g:
		h = 60 * ((b-r)/diff + 2)
	default:
		h = 60 * ((r-g)/diff + 4)
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}

// Outline returns the ring color that stands out against fill: black for
// pale fills such as white or yellow holds, white otherwise.
func Outline(fill color.NRGBA) color.RGBA {
	h, s, v := RGBToHSV(float64(fill.R), float64(fill.G), float64(fill.B))
	if v > 0.85 && (s < 0.3 || (h >= 40 && h <= 80)) {
		return Black
	}
	return White
}
