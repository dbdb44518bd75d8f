package viewport

import (
	"math"

	"wallmap/pkg/geometry"
)

// Clamp returns the legal transform closest to t.
//
// The scale is limited to [minScale, maxScale]. On each axis where the
// scaled content fits inside the container it is centered; otherwise the
// translation is limited so no space beyond the content edges shows.
// Translations are rounded to the nearest 0.5.
func Clamp(t Transform, container, content geometry.Size, minScale, maxScale float64) Transform {
	minScale = geometry.Positive(minScale, 1)
	maxScale = geometry.Positive(maxScale, minScale)
	if maxScale < minScale {
		maxScale = minScale
	}

	s := geometry.Clamp(geometry.Positive(t.Scale, 1), minScale, maxScale)

	cw := geometry.Positive(container.Width, 1)
	ch := geometry.Positive(container.Height, 1)
	iw := geometry.Positive(content.Width, 1)
	ih := geometry.Positive(content.Height, 1)

	return Transform{
		Scale:      s,
		TranslateX: clampAxis(geometry.Finite(t.TranslateX, 0), cw, iw*s),
		TranslateY: clampAxis(geometry.Finite(t.TranslateY, 0), ch, ih*s),
	}
}

func clampAxis(translate, container, scaled float64) float64 {
	if scaled <= container {
		return roundHalf((container - scaled) / 2)
	}
	return roundHalf(geometry.Clamp(translate, container-scaled, 0))
}

func roundHalf(v float64) float64 {
	return math.Round(v*2) / 2
}
