package viewport

import (
	"wallmap/pkg/geometry"
)

// DefaultContentAspect is the height/width ratio of the standard wall photo
// (2560x1600).
const DefaultContentAspect = 1600.0 / 2560.0

// FitContent returns the image-space size of content with the given
// height/width aspect ratio scaled to fit inside container without
// stretching. It fits by width when the resulting height fits, otherwise by
// height. ok is false while the container is unmeasured.
func FitContent(container geometry.Size, aspect float64) (size geometry.Size, ok bool) {
	if !container.Valid() {
		return geometry.Size{}, false
	}
	aspect = geometry.Positive(aspect, DefaultContentAspect)

	w := container.Width
	h := w * aspect
	if h > container.Height {
		h = container.Height
		w = h / aspect
	}
	return geometry.Size{Width: w, Height: h}, true
}
