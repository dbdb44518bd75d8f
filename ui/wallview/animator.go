package wallview

import (
	"time"

	"wallmap/internal/viewport"

	"fyne.io/fyne/v2"
)

// fyneAnimator eases transforms with fyne's animation runner. frame is
// called after every step so the view can redraw.
type fyneAnimator struct {
	duration time.Duration
	frame    func()
}

func (a fyneAnimator) Animate(from, to viewport.Transform, step func(viewport.Transform)) func() {
	if a.duration <= 0 {
		step(to)
		a.frame()
		return func() {}
	}
	anim := fyne.NewAnimation(a.duration, func(f float32) {
		step(viewport.Lerp(from, to, float64(f)))
		a.frame()
	})
	anim.Curve = fyne.AnimationEaseInOut
	anim.Start()
	return anim.Stop
}
