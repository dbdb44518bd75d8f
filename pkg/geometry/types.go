// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Add returns the sum of two points.
func (p Point2D) Add(other Point2D) Point2D {
	return Point2D{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale returns the point scaled by a factor.
func (p Point2D) Scale(factor float64) Point2D {
	return Point2D{X: p.X * factor, Y: p.Y * factor}
}

// Midpoint returns the point halfway between p and other.
func (p Point2D) Midpoint(other Point2D) Point2D {
	return Point2D{X: (p.X + other.X) / 2, Y: (p.Y + other.Y) / 2}
}

// IsFinite reports whether both coordinates are finite.
func (p Point2D) IsFinite() bool {
	return IsFinite(p.X) && IsFinite(p.Y)
}

// Size represents a 2D size.
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// NewSize creates a new Size.
func NewSize(width, height float64) Size {
	return Size{Width: width, Height: height}
}

// Valid reports whether both dimensions are finite and strictly positive.
// A zero size is how layout passes report "not measured yet".
func (s Size) Valid() bool {
	return IsFinite(s.Width) && IsFinite(s.Height) && s.Width > 0 && s.Height > 0
}

// Center returns the center point of a rectangle of this size anchored at the origin.
func (s Size) Center() Point2D {
	return Point2D{X: s.Width / 2, Y: s.Height / 2}
}

// Rect represents an axis-aligned rectangle by its min and max corners.
type Rect struct {
	Min Point2D `json:"min"`
	Max Point2D `json:"max"`
}

// NewRect creates a Rect from its corner coordinates.
func NewRect(minX, minY, maxX, maxY float64) Rect {
	return Rect{Min: Point2D{X: minX, Y: minY}, Max: Point2D{X: maxX, Y: maxY}}
}

// Contains returns true if the point is inside the rectangle (edges included).
func (r Rect) Contains(p Point2D) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X &&
		p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Point2D {
	return r.Min.Midpoint(r.Max)
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 {
	return r.Max.X - r.Min.X
}

// Height returns the vertical extent.
func (r Rect) Height() float64 {
	return r.Max.Y - r.Min.Y
}

// Centroid computes the centroid (average position) of a set of points.
func Centroid(points []Point2D) Point2D {
	if len(points) == 0 {
		return Point2D{}
	}
	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(points))
	return Point2D{X: sumX / n, Y: sumY / n}
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Finite returns v, or fallback when v is NaN or infinite.
func Finite(v, fallback float64) float64 {
	if IsFinite(v) {
		return v
	}
	return fallback
}

// Positive returns v when it is finite and > 0, otherwise fallback.
func Positive(v, fallback float64) float64 {
	if IsFinite(v) && v > 0 {
		return v
	}
	return fallback
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
