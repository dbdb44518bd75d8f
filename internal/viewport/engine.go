package viewport

import (
	"sync"
	"sync/atomic"

	"wallmap/internal/telemetry"
	"wallmap/pkg/geometry"
)

// Handle is the imperative control surface handed to the view's owner.
type Handle interface {
	Scale() float64
	TranslateX() float64
	TranslateY() float64
	ZoomIn()
	ZoomOut()
	ResetView()
}

// zoomedTolerance separates "at the minimum scale" from "zoomed in" when a
// double-tap decides which way to toggle.
const zoomedTolerance = 0.01

type panState struct {
	active bool
	base   geometry.Point2D // translate when the pan started
	delta  geometry.Point2D // last accepted cumulative drag
}

type pinchState struct {
	active    bool
	baseScale float64
	focal     geometry.Point2D // screen space, captured at start
	factor    float64          // last accepted cumulative factor
}

// Engine owns the live viewport transform.
//
// Gesture and imperative methods are the only writers. They are serialized
// by an internal mutex and publish each result atomically, so renderers may
// call Transform from any goroutine without locking. Every write is offered
// to the Reporter, if one is set.
//
// Gestures are ignored until SetContainerSize reports a measured container.
type Engine struct {
	live atomic.Pointer[Transform]

	mu        sync.Mutex
	opts      Options
	container geometry.Size
	content   geometry.Size
	ready     bool
	lastGood  Transform
	arbiter   Arbiter
	pan       panState
	pinch     pinchState

	animator Animator
	animGen  uint64
	stopAnim func()

	reporter    *Reporter
	onTap       func(geometry.Point2D)
	onLongPress func(geometry.Point2D)
}

// NewEngine creates an engine at the identity transform.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		opts:     opts.normalized(),
		lastGood: Identity(),
		animator: InstantAnimator,
	}
	t := Identity()
	e.live.Store(&t)
	return e
}

// Handle returns the imperative control surface.
func (e *Engine) Handle() Handle {
	return e
}

// SetAnimator sets how settle, zoom and reset transitions are eased.
// nil selects InstantAnimator.
func (e *Engine) SetAnimator(a Animator) {
	if a == nil {
		a = InstantAnimator
	}
	e.mu.Lock()
	e.animator = a
	e.mu.Unlock()
}

// SetReporter sets the reporter that receives every transform write.
func (e *Engine) SetReporter(r *Reporter) {
	e.mu.Lock()
	e.reporter = r
	e.mu.Unlock()
	if r != nil {
		r.Offer(e.Transform())
	}
}

// OnTap sets a callback for taps. Coordinates are in screen space.
func (e *Engine) OnTap(callback func(screen geometry.Point2D)) {
	e.mu.Lock()
	e.onTap = callback
	e.mu.Unlock()
}

// OnLongPress sets a callback for long presses. Coordinates are in screen space.
func (e *Engine) OnLongPress(callback func(screen geometry.Point2D)) {
	e.mu.Lock()
	e.onLongPress = callback
	e.mu.Unlock()
}

// SetOptions replaces the tuning and re-clamps the live transform.
func (e *Engine) SetOptions(opts Options) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts = opts.normalized()
	if content, ok := FitContent(e.container, e.opts.ContentAspect); ok {
		e.content = content
		e.write(e.clamp(e.current()), "options")
	}
}

// Options returns the current tuning.
func (e *Engine) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

// SetContainerSize records the measured container. The content size is
// derived from it. Unchanged sizes are ignored; it reports whether the size
// changed.
func (e *Engine) SetContainerSize(size geometry.Size) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if size == e.container {
		return false
	}
	e.container = size
	content, ok := FitContent(size, e.opts.ContentAspect)
	e.content = content
	e.ready = ok
	if !ok {
		Logger().Debug("viewport container not measured", "width", size.Width, "height", size.Height)
		return true
	}
	e.write(e.clamp(e.current()), "layout")
	return true
}

// Layout returns the container and content sizes. ready is false until the
// container has been measured.
func (e *Engine) Layout() (container, content geometry.Size, ready bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.container, e.content, e.ready
}

// Ready reports whether the container has been measured.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// Transform returns the latest transform without locking.
func (e *Engine) Transform() Transform {
	return *e.live.Load()
}

// Scale returns the current scale.
func (e *Engine) Scale() float64 { return e.Transform().Scale }

// TranslateX returns the current horizontal translation.
func (e *Engine) TranslateX() float64 { return e.Transform().TranslateX }

// TranslateY returns the current vertical translation.
func (e *Engine) TranslateY() float64 { return e.Transform().TranslateY }

// PanStart begins a pan from the current transform. It returns false when
// the viewport is not ready or a double-tap holds it.
func (e *Engine) PanStart() bool {
	e.mu.Lock()
	if !e.claimLocked(GesturePan) {
		e.mu.Unlock()
		return false
	}
	stop := e.cancelAnimationLocked()
	e.pan = panState{active: true, base: e.current().Translate()}
	e.mu.Unlock()

	if stop != nil {
		stop()
	}
	return true
}

// PanUpdate moves the content by delta, the cumulative drag since PanStart.
// The result is clamped and applied without animation.
func (e *Engine) PanUpdate(delta geometry.Point2D) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.pan.active || !e.ready {
		return
	}
	if !delta.IsFinite() {
		e.nonFinite("pan-delta")
		delta = e.pan.delta
	}
	e.pan.delta = delta

	base := e.pan.base.Add(delta)
	candidate := Transform{Scale: e.current().Scale, TranslateX: base.X, TranslateY: base.Y}
	e.write(e.clamp(candidate), "pan")
}

// PanEnd finishes the pan and eases to the clamped transform unless a pinch
// is still running.
func (e *Engine) PanEnd() {
	e.mu.Lock()
	if !e.pan.active {
		e.mu.Unlock()
		return
	}
	e.pan.active = false
	e.arbiter.End(GesturePan)
	settle := e.ready && !e.pinch.active
	target := e.clamp(e.current())
	e.mu.Unlock()

	if settle {
		e.animateTo(target)
	}
}

// PinchStart begins a pinch anchored at focal, in screen space.
func (e *Engine) PinchStart(focal geometry.Point2D) bool {
	e.mu.Lock()
	if !e.claimLocked(GesturePinch) {
		e.mu.Unlock()
		return false
	}
	if !focal.IsFinite() {
		e.nonFinite("pinch-focal")
		focal = e.container.Center()
	}
	stop := e.cancelAnimationLocked()
	e.pinch = pinchState{
		active:    true,
		baseScale: e.current().Scale,
		focal:     focal,
		factor:    1,
	}
	e.mu.Unlock()

	if stop != nil {
		stop()
	}
	return true
}

// PinchUpdate applies factor, the cumulative gesture scale since
// PinchStart. The image point under the focal point stays under it.
func (e *Engine) PinchUpdate(factor float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.pinch.active || !e.ready {
		return
	}
	if !geometry.IsFinite(factor) || factor <= 0 {
		e.nonFinite("pinch-factor")
		factor = e.pinch.factor
	}
	e.pinch.factor = factor

	s := geometry.Clamp(e.pinch.baseScale*factor, e.opts.MinScale, e.opts.MaxScale)
	t := e.clamp(zoomAbout(e.current(), e.pinch.focal, s))
	e.write(t, "pinch")

	// Keep a concurrent pan continuing from where the pinch left the content.
	if e.pan.active {
		e.pan.base = t.Translate().Sub(e.pan.delta)
	}
}

// PinchEnd finishes the pinch and eases to the clamped transform unless a
// pan is still running.
func (e *Engine) PinchEnd() {
	e.mu.Lock()
	if !e.pinch.active {
		e.mu.Unlock()
		return
	}
	e.pinch.active = false
	e.arbiter.End(GesturePinch)
	settle := e.ready && !e.pan.active
	target := e.clamp(e.current())
	e.mu.Unlock()

	if settle {
		e.animateTo(target)
	}
}

// DoubleTap toggles between the unzoomed view and DoubleTapScale anchored
// at the tap point. It returns false if a pan or pinch holds the viewport.
func (e *Engine) DoubleTap(at geometry.Point2D) bool {
	e.mu.Lock()
	if !e.claimLocked(GestureDoubleTap) {
		e.mu.Unlock()
		return false
	}
	stop := e.cancelAnimationLocked()
	if !at.IsFinite() {
		e.nonFinite("doubletap-point")
		at = e.container.Center()
	}
	cur := e.current()
	var target Transform
	if cur.Scale > e.opts.MinScale+zoomedTolerance {
		target = e.clamp(Transform{Scale: 1})
	} else {
		target = e.clamp(zoomAbout(cur, at, e.opts.DoubleTapScale))
	}
	e.arbiter.End(GestureDoubleTap)
	e.mu.Unlock()

	if stop != nil {
		stop()
	}
	e.animateTo(target)
	return true
}

// Tap forwards a tap at a screen point to the OnTap callback.
func (e *Engine) Tap(at geometry.Point2D) {
	e.mu.Lock()
	cb, ready := e.onTap, e.ready
	e.mu.Unlock()
	if cb != nil && ready && at.IsFinite() {
		telemetry.Gestures.WithLabelValues("tap").Inc()
		cb(at)
	}
}

// LongPress forwards a long press at a screen point to the OnLongPress callback.
func (e *Engine) LongPress(at geometry.Point2D) {
	e.mu.Lock()
	cb, ready := e.onLongPress, e.ready
	e.mu.Unlock()
	if cb != nil && ready && at.IsFinite() {
		telemetry.Gestures.WithLabelValues("longpress").Inc()
		cb(at)
	}
}

// ZoomIn multiplies the scale by the zoom step about the container center.
func (e *Engine) ZoomIn() {
	e.zoomStep(true)
}

// ZoomOut divides the scale by the zoom step about the container center.
func (e *Engine) ZoomOut() {
	e.zoomStep(false)
}

func (e *Engine) zoomStep(in bool) {
	e.mu.Lock()
	if !e.ready {
		e.mu.Unlock()
		return
	}
	cur := e.current()
	s := cur.Scale * e.opts.ZoomStep
	if !in {
		s = cur.Scale / e.opts.ZoomStep
	}
	s = geometry.Clamp(s, e.opts.MinScale, e.opts.MaxScale)
	target := e.clamp(zoomAbout(cur, e.container.Center(), s))
	e.mu.Unlock()

	e.animateTo(target)
}

// ResetView eases back to scale 1 with the content in its initial place.
func (e *Engine) ResetView() {
	e.mu.Lock()
	if !e.ready {
		e.mu.Unlock()
		return
	}
	target := e.clamp(Identity())
	e.mu.Unlock()

	e.animateTo(target)
}

// zoomAbout returns cur rescaled to s such that the image point under focal
// stays under focal.
func zoomAbout(cur Transform, focal geometry.Point2D, s float64) Transform {
	fi := ToImage(focal, cur)
	return Transform{
		Scale:      s,
		TranslateX: focal.X - fi.X*s,
		TranslateY: focal.Y - fi.Y*s,
	}
}

// claimLocked asks the arbiter for g. Caller holds mu.
func (e *Engine) claimLocked(g Gesture) bool {
	if !e.ready {
		Logger().Debug("gesture ignored, viewport not ready", "gesture", g.String())
		return false
	}
	if !e.arbiter.Begin(g) {
		telemetry.GesturesDenied.WithLabelValues(g.String()).Inc()
		Logger().Debug("gesture denied", "gesture", g.String())
		return false
	}
	telemetry.Gestures.WithLabelValues(g.String()).Inc()
	Logger().Debug("gesture started", "gesture", g.String())
	return true
}

func (e *Engine) current() Transform {
	return *e.live.Load()
}

func (e *Engine) clamp(t Transform) Transform {
	return Clamp(t, e.container, e.content, e.opts.MinScale, e.opts.MaxScale)
}

func (e *Engine) nonFinite(site string) {
	telemetry.NonFinite.WithLabelValues(site).Inc()
	Logger().Warn("non-finite gesture input replaced", "site", site)
}

// write publishes t. Non-finite transforms are replaced by the last good
// one. Caller holds mu.
func (e *Engine) write(t Transform, site string) {
	if !t.IsFinite() {
		e.nonFinite(site)
		t = e.lastGood
	}
	e.lastGood = t
	e.live.Store(&t)
	if e.reporter != nil {
		e.reporter.Offer(t)
	}
}

// cancelAnimationLocked invalidates the running animation and returns its
// stop function, to be called after mu is released.
func (e *Engine) cancelAnimationLocked() func() {
	e.animGen++
	stop := e.stopAnim
	e.stopAnim = nil
	return stop
}

// animateTo eases from the current transform to target. Must be called
// without mu held; the animator may step synchronously.
func (e *Engine) animateTo(target Transform) {
	e.mu.Lock()
	stop := e.cancelAnimationLocked()
	gen := e.animGen
	from := e.current()
	anim := e.animator
	e.mu.Unlock()

	if stop != nil {
		stop()
	}

	halt := anim.Animate(from, target, func(t Transform) {
		e.animStep(gen, t)
	})

	e.mu.Lock()
	if e.animGen == gen {
		e.stopAnim = halt
		halt = nil
	}
	e.mu.Unlock()

	if halt != nil {
		halt()
	}
}

func (e *Engine) animStep(gen uint64, t Transform) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.animGen || !e.ready {
		return
	}
	e.write(e.clamp(t), "animation")
}
