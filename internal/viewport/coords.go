package viewport

import (
	"wallmap/pkg/geometry"
)

// Hard scale limits. Engine options and every division by the scale stay
// inside [ScaleFloor, ScaleCeiling].
const (
	ScaleFloor   = 0.1
	ScaleCeiling = 10.0
)

// divisorScale returns a scale that is safe to divide by.
func divisorScale(s float64) float64 {
	return geometry.Clamp(geometry.Positive(s, 1), ScaleFloor, ScaleCeiling)
}

func finitePoint(p geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{X: geometry.Finite(p.X, 0), Y: geometry.Finite(p.Y, 0)}
}

// ToScreen maps an image-space point to screen space.
func ToScreen(p geometry.Point2D, t Transform) geometry.Point2D {
	p = finitePoint(p)
	s := geometry.Positive(t.Scale, 1)
	return geometry.Point2D{
		X: geometry.Finite(t.TranslateX, 0) + p.X*s,
		Y: geometry.Finite(t.TranslateY, 0) + p.Y*s,
	}
}

// ToImage maps a screen-space point to image space. The scale is limited
// to [0.1, 10] before the division.
func ToImage(p geometry.Point2D, t Transform) geometry.Point2D {
	p = finitePoint(p)
	s := divisorScale(t.Scale)
	return geometry.Point2D{
		X: (p.X - geometry.Finite(t.TranslateX, 0)) / s,
		Y: (p.Y - geometry.Finite(t.TranslateY, 0)) / s,
	}
}

// ToNormalized maps an image-space point to normalized space, clamping each
// axis to [0,1].
func ToNormalized(p geometry.Point2D, content geometry.Size) NormalizedPoint {
	p = finitePoint(p)
	w := geometry.Positive(content.Width, 1)
	h := geometry.Positive(content.Height, 1)
	return NormalizedPoint{
		XNorm: geometry.Clamp(p.X/w, 0, 1),
		YNorm: geometry.Clamp(p.Y/h, 0, 1),
	}
}

// FromNormalized maps a normalized point to image space. Out of range input
// is clamped to [0,1]; non-finite input maps to the origin.
func FromNormalized(n NormalizedPoint, content geometry.Size) geometry.Point2D {
	w := geometry.Positive(content.Width, 1)
	h := geometry.Positive(content.Height, 1)
	return geometry.Point2D{
		X: geometry.Clamp(geometry.Finite(n.XNorm, 0), 0, 1) * w,
		Y: geometry.Clamp(geometry.Finite(n.YNorm, 0), 0, 1) * h,
	}
}

// ViewportBounds returns the image-space rectangle visible through a
// container of the given size.
func ViewportBounds(t Transform, container geometry.Size) Bounds {
	s := divisorScale(t.Scale)
	tx := geometry.Finite(t.TranslateX, 0)
	ty := geometry.Finite(t.TranslateY, 0)
	w := geometry.Positive(container.Width, 1)
	h := geometry.Positive(container.Height, 1)
	return Bounds{
		XMinImg: -tx / s,
		YMinImg: -ty / s,
		XMaxImg: (-tx + w) / s,
		YMaxImg: (-ty + h) / s,
	}
}
