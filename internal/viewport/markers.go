package viewport

import (
	"math"

	"wallmap/pkg/geometry"
)

// Marker size defaults, in screen pixels.
const (
	DefaultMarkerSize = 32.0
	DefaultMarkerFont = 12.0

	minMarkerSize = 24.0
	minMarkerFont = 8.0
	maxMarkerFont = 16.0
)

// MarkerStyle is the on-screen size of a marker and its label.
type MarkerStyle struct {
	Size float64
	Font float64
}

// Radius returns half the marker size.
func (m MarkerStyle) Radius() float64 {
	return m.Size / 2
}

// DefaultMarkerStyle returns the unzoomed marker style.
func DefaultMarkerStyle() MarkerStyle {
	return MarkerStyle{Size: DefaultMarkerSize, Font: DefaultMarkerFont}
}

// attenuation divides by the square root of the scale so markers shrink more
// gently than the zoom grows.
func attenuation(scale float64) float64 {
	return math.Sqrt(divisorScale(scale))
}

// MarkerSize returns the marker diameter for the given zoom scale.
func MarkerSize(scale, base float64) float64 {
	base = geometry.Positive(base, DefaultMarkerSize)
	return math.Max(minMarkerSize, base/attenuation(scale))
}

// MarkerFont returns the label font size for the given zoom scale.
func MarkerFont(scale, base float64) float64 {
	base = geometry.Positive(base, DefaultMarkerFont)
	return geometry.Clamp(base/attenuation(scale), minMarkerFont, maxMarkerFont)
}

// Compensate returns base adjusted for the given zoom scale.
func Compensate(scale float64, base MarkerStyle) MarkerStyle {
	return MarkerStyle{
		Size: MarkerSize(scale, base.Size),
		Font: MarkerFont(scale, base.Font),
	}
}
