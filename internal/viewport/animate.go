package viewport

// Animator eases the transform from one value to another.
//
// Animate must call step with intermediate values and finally with to. It
// must not block: the returned stop function cancels the animation, after
// which step is no longer called. step may be called synchronously from
// within Animate.
type Animator interface {
	Animate(from, to Transform, step func(Transform)) (stop func())
}

// AnimatorFunc adapts a function to the Animator interface.
type AnimatorFunc func(from, to Transform, step func(Transform)) (stop func())

// Animate calls f.
func (f AnimatorFunc) Animate(from, to Transform, step func(Transform)) (stop func()) {
	return f(from, to, step)
}

// InstantAnimator jumps straight to the target value.
var InstantAnimator Animator = AnimatorFunc(func(_, to Transform, step func(Transform)) func() {
	step(to)
	return func() {}
})
