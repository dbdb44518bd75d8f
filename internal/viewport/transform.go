// Package viewport maps a pannable, zoomable wall image onto a screen.
//
// Three coordinate spaces are involved:
//
//   - screen space: pixels of the visible container, origin top-left
//   - image space: pixels of the fitted content, independent of zoom and pan
//   - normalized space: [0,1]x[0,1], the only form stored for markers
//
// A Transform maps image space to screen space as
// screen = translate + image*scale.
package viewport

import (
	"fmt"
	"math"

	"wallmap/pkg/geometry"
)

// Transform is the affine image-to-screen map of the viewport.
type Transform struct {
	Scale      float64 `json:"scale" yaml:"scale"`
	TranslateX float64 `json:"translateX" yaml:"translateX"`
	TranslateY float64 `json:"translateY" yaml:"translateY"`
}

// Identity returns the initial transform: scale 1, no translation.
func Identity() Transform {
	return Transform{Scale: 1}
}

// Translate returns the translation as a point.
func (t Transform) Translate() geometry.Point2D {
	return geometry.Point2D{X: t.TranslateX, Y: t.TranslateY}
}

// IsFinite reports whether every component is finite.
func (t Transform) IsFinite() bool {
	return geometry.IsFinite(t.Scale) && geometry.IsFinite(t.TranslateX) && geometry.IsFinite(t.TranslateY)
}

// Differs reports whether any component moved by more than eps.
func (t Transform) Differs(other Transform, eps float64) bool {
	return math.Abs(t.Scale-other.Scale) > eps ||
		math.Abs(t.TranslateX-other.TranslateX) > eps ||
		math.Abs(t.TranslateY-other.TranslateY) > eps
}

// Lerp interpolates component-wise between from and to. f=0 yields from,
// f=1 yields to.
func Lerp(from, to Transform, f float64) Transform {
	return Transform{
		Scale:      from.Scale + (to.Scale-from.Scale)*f,
		TranslateX: from.TranslateX + (to.TranslateX-from.TranslateX)*f,
		TranslateY: from.TranslateY + (to.TranslateY-from.TranslateY)*f,
	}
}

func (t Transform) String() string {
	return fmt.Sprintf("scale=%.3f translate=(%.1f, %.1f)", t.Scale, t.TranslateX, t.TranslateY)
}

// NormalizedPoint is a resolution independent marker position.
type NormalizedPoint struct {
	XNorm float64 `json:"xNorm" yaml:"x"`
	YNorm float64 `json:"yNorm" yaml:"y"`
}

// Valid reports whether both coordinates are finite and within [0,1].
func (n NormalizedPoint) Valid() bool {
	return geometry.IsFinite(n.XNorm) && geometry.IsFinite(n.YNorm) &&
		n.XNorm >= 0 && n.XNorm <= 1 && n.YNorm >= 0 && n.YNorm <= 1
}

// Bounds is the visible rectangle expressed in image space.
type Bounds struct {
	XMinImg, YMinImg float64
	XMaxImg, YMaxImg float64
}

// Rect returns the bounds as a geometry.Rect.
func (b Bounds) Rect() geometry.Rect {
	return geometry.NewRect(b.XMinImg, b.YMinImg, b.XMaxImg, b.YMaxImg)
}

// Center returns the center of the visible region in image space.
func (b Bounds) Center() geometry.Point2D {
	return b.Rect().Center()
}

// Contains reports whether p lies within the bounds, edges included.
func (b Bounds) Contains(p geometry.Point2D) bool {
	return b.Rect().Contains(p)
}

// Pad grows the bounds by margin image units on every side.
func (b Bounds) Pad(margin float64) Bounds {
	margin = geometry.Finite(margin, 0)
	return Bounds{
		XMinImg: b.XMinImg - margin,
		YMinImg: b.YMinImg - margin,
		XMaxImg: b.XMaxImg + margin,
		YMaxImg: b.YMaxImg + margin,
	}
}
