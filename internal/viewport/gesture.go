package viewport

import (
	"fmt"
	"strings"
	"time"

	"wallmap/pkg/geometry"
)

// TouchKind is the phase of a raw touch event.
type TouchKind int

const (
	TouchDown TouchKind = iota
	TouchMove
	TouchUp
	TouchCancel
)

var touchKindNames = [...]string{"down", "move", "up", "cancel"}

func (k TouchKind) String() string {
	if k < 0 || int(k) >= len(touchKindNames) {
		return fmt.Sprintf("TouchKind(%d)", int(k))
	}
	return touchKindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k TouchKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *TouchKind) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for i, name := range touchKindNames {
		if name == s {
			*k = TouchKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown touch kind %q", s)
}

// TouchEvent is one raw pointer event in screen space. At is a monotonic
// offset, typically from the start of the session or trace.
type TouchEvent struct {
	ID   int              `yaml:"id"`
	Kind TouchKind        `yaml:"kind"`
	Pos  geometry.Point2D `yaml:"pos"`
	At   time.Duration    `yaml:"at"`
}

// GestureConfig holds recognizer thresholds.
type GestureConfig struct {
	TapSlop           float64       // Max movement, in pixels, for a tap
	DoubleTapSlop     float64       // Max distance between the taps of a double-tap
	DoubleTapInterval time.Duration // Max time from first release to second press
	LongPress         time.Duration // Hold time before a long press fires
}

// DefaultGestureConfig returns the standard recognizer thresholds.
func DefaultGestureConfig() GestureConfig {
	return GestureConfig{
		TapSlop:           10,
		DoubleTapSlop:     40,
		DoubleTapInterval: 300 * time.Millisecond,
		LongPress:         500 * time.Millisecond,
	}
}

func (c GestureConfig) normalized() GestureConfig {
	d := DefaultGestureConfig()
	c.TapSlop = geometry.Positive(c.TapSlop, d.TapSlop)
	c.DoubleTapSlop = geometry.Positive(c.DoubleTapSlop, d.DoubleTapSlop)
	if c.DoubleTapInterval <= 0 {
		c.DoubleTapInterval = d.DoubleTapInterval
	}
	if c.LongPress <= 0 {
		c.LongPress = d.LongPress
	}
	return c
}

// GestureTarget receives recognized gestures. *Engine implements it.
type GestureTarget interface {
	PanStart() bool
	PanUpdate(delta geometry.Point2D)
	PanEnd()
	PinchStart(focal geometry.Point2D) bool
	PinchUpdate(factor float64)
	PinchEnd()
	DoubleTap(at geometry.Point2D) bool
	Tap(at geometry.Point2D)
	LongPress(at geometry.Point2D)
}

// Recognizer turns raw touch events into gestures.
//
// One or more pointers moving beyond the tap slop pan by their centroid;
// the pan is rebased when pointers come and go so the content does not jump.
// A second pointer starts a pinch whose factor is the current distance
// between the first two pointers over their starting distance. A release
// within the tap slop is held back for the double-tap interval: a second
// nearby press upgrades it to a double-tap, otherwise it is reported as a
// tap. Holding still past the long-press time reports a long press, which
// Tick detects.
//
// A Recognizer is not safe for concurrent use.
type Recognizer struct {
	cfg    GestureConfig
	target GestureTarget

	pointers map[int]geometry.Point2D
	order    []int

	tapCandidate bool
	secondTap    bool
	longFired    bool
	downPos      geometry.Point2D
	downAt       time.Duration

	pending    bool
	pendingPos geometry.Point2D
	pendingAt  time.Duration

	panning   bool
	panAccum  geometry.Point2D
	panAnchor geometry.Point2D

	pinching  bool
	pinchIDs  [2]int
	pinchDist float64
}

// NewRecognizer creates a recognizer that drives target.
func NewRecognizer(cfg GestureConfig, target GestureTarget) *Recognizer {
	return &Recognizer{
		cfg:      cfg.normalized(),
		target:   target,
		pointers: make(map[int]geometry.Point2D),
	}
}

// Handle consumes one touch event.
func (r *Recognizer) Handle(ev TouchEvent) {
	r.flushPending(ev.At)
	switch ev.Kind {
	case TouchDown:
		r.down(ev)
	case TouchMove:
		r.move(ev)
	case TouchUp:
		r.up(ev, false)
	case TouchCancel:
		r.up(ev, true)
	}
}

// Tick advances the recognizer clock. It reports held-back taps whose
// double-tap window has passed and long presses.
func (r *Recognizer) Tick(now time.Duration) {
	r.flushPending(now)
	if len(r.order) == 1 && r.tapCandidate && !r.secondTap && !r.longFired &&
		now-r.downAt >= r.cfg.LongPress {
		r.longFired = true
		r.target.LongPress(r.downPos)
	}
}

// Flush reports a held-back tap immediately.
func (r *Recognizer) Flush() {
	if r.pending {
		r.pending = false
		r.target.Tap(r.pendingPos)
	}
}

// Pointers returns the number of pointers currently down.
func (r *Recognizer) Pointers() int {
	return len(r.order)
}

func (r *Recognizer) flushPending(now time.Duration) {
	if r.pending && now-r.pendingAt > r.cfg.DoubleTapInterval {
		r.Flush()
	}
}

func (r *Recognizer) down(ev TouchEvent) {
	if !ev.Pos.IsFinite() {
		return
	}
	if _, ok := r.pointers[ev.ID]; ok {
		r.move(ev)
		return
	}
	before := r.centroid()
	r.pointers[ev.ID] = ev.Pos
	r.order = append(r.order, ev.ID)

	switch len(r.order) {
	case 1:
		r.tapCandidate = true
		r.longFired = false
		r.downPos, r.downAt = ev.Pos, ev.At
		r.secondTap = r.pending && ev.Pos.Distance(r.pendingPos) <= r.cfg.DoubleTapSlop
		if r.secondTap {
			r.pending = false
		} else {
			r.Flush()
		}
	case 2:
		r.tapCandidate, r.secondTap = false, false
		if r.panning {
			r.rebase(before)
		} else {
			r.startPan(r.centroid())
		}
		r.startPinch()
	default:
		r.rebase(before)
	}
}

func (r *Recognizer) move(ev TouchEvent) {
	if _, ok := r.pointers[ev.ID]; !ok || !ev.Pos.IsFinite() {
		return
	}
	r.pointers[ev.ID] = ev.Pos

	if r.tapCandidate && ev.Pos.Distance(r.downPos) > r.cfg.TapSlop {
		r.tapCandidate, r.secondTap = false, false
		if !r.longFired && !r.panning {
			r.startPan(r.downPos)
		}
	}
	if r.panning {
		r.target.PanUpdate(r.panAccum.Add(r.centroid().Sub(r.panAnchor)))
	}
	if r.pinching {
		a, b := r.pointers[r.pinchIDs[0]], r.pointers[r.pinchIDs[1]]
		r.target.PinchUpdate(a.Distance(b) / r.pinchDist)
	}
}

func (r *Recognizer) up(ev TouchEvent, cancel bool) {
	pos, ok := r.pointers[ev.ID]
	if !ok {
		return
	}
	if !cancel && ev.Pos.IsFinite() {
		pos = ev.Pos
	}
	before := r.centroid()
	delete(r.pointers, ev.ID)
	for i, id := range r.order {
		if id == ev.ID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if r.pinching && (ev.ID == r.pinchIDs[0] || ev.ID == r.pinchIDs[1]) {
		r.pinching = false
		r.target.PinchEnd()
	}

	if len(r.order) > 0 {
		r.rebase(before)
		// Continue zooming with the first two remaining pointers.
		if !r.pinching && len(r.order) >= 2 {
			r.startPinch()
		}
		return
	}

	if r.panning {
		r.panning = false
		r.target.PanEnd()
	}
	isTap := !cancel && r.tapCandidate && !r.longFired && pos.Distance(r.downPos) <= r.cfg.TapSlop
	switch {
	case isTap && r.secondTap:
		r.target.DoubleTap(pos)
	case isTap:
		r.pending = true
		r.pendingPos = r.downPos
		r.pendingAt = ev.At
	}
	r.tapCandidate, r.secondTap = false, false
}

func (r *Recognizer) startPan(anchor geometry.Point2D) {
	r.panning = r.target.PanStart()
	r.panAccum = geometry.Point2D{}
	r.panAnchor = anchor
}

// rebase folds the centroid movement up to a pointer change into the
// accumulated pan so the new centroid continues from the same delta.
func (r *Recognizer) rebase(before geometry.Point2D) {
	if !r.panning {
		return
	}
	r.panAccum = r.panAccum.Add(before.Sub(r.panAnchor))
	r.panAnchor = r.centroid()
}

func (r *Recognizer) startPinch() {
	a, b := r.order[0], r.order[1]
	pa, pb := r.pointers[a], r.pointers[b]
	d := pa.Distance(pb)
	if d <= 0 {
		return
	}
	r.pinching = r.target.PinchStart(pa.Midpoint(pb))
	r.pinchIDs = [2]int{a, b}
	r.pinchDist = d
}

func (r *Recognizer) centroid() geometry.Point2D {
	pts := make([]geometry.Point2D, 0, len(r.order))
	for _, id := range r.order {
		pts = append(pts, r.pointers[id])
	}
	return geometry.Centroid(pts)
}
