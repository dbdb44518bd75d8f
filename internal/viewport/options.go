package viewport

import (
	"wallmap/pkg/geometry"
)

// Options tunes the transform engine.
type Options struct {
	MinScale       float64 // Lower scale limit (default 1)
	MaxScale       float64 // Upper scale limit (default 4)
	DoubleTapScale float64 // Scale a double-tap zooms to (default 2)
	ZoomStep       float64 // Factor applied by ZoomIn/ZoomOut (default 1.5)

	// ContentAspect is the content height divided by its width.
	ContentAspect float64
}

// DefaultOptions returns the standard engine tuning.
func DefaultOptions() Options {
	return Options{
		MinScale:       1,
		MaxScale:       4,
		DoubleTapScale: 2,
		ZoomStep:       1.5,
		ContentAspect:  DefaultContentAspect,
	}
}

// normalized replaces invalid fields with defaults.
func (o Options) normalized() Options {
	d := DefaultOptions()
	o.MinScale = geometry.Clamp(geometry.Positive(o.MinScale, d.MinScale), ScaleFloor, ScaleCeiling)
	o.MaxScale = geometry.Clamp(geometry.Positive(o.MaxScale, d.MaxScale), ScaleFloor, ScaleCeiling)
	if o.MaxScale < o.MinScale {
		o.MaxScale = o.MinScale
	}
	o.DoubleTapScale = geometry.Clamp(geometry.Positive(o.DoubleTapScale, d.DoubleTapScale), o.MinScale, o.MaxScale)
	o.ZoomStep = geometry.Positive(o.ZoomStep, d.ZoomStep)
	if o.ZoomStep <= 1 {
		o.ZoomStep = d.ZoomStep
	}
	o.ContentAspect = geometry.Positive(o.ContentAspect, d.ContentAspect)
	return o
}
