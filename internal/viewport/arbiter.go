package viewport

// Gesture identifies a recognizer competing for the viewport.
type Gesture int

const (
	GesturePan Gesture = iota + 1
	GesturePinch
	GestureDoubleTap
)

func (g Gesture) String() string {
	switch g {
	case GesturePan:
		return "pan"
	case GesturePinch:
		return "pinch"
	case GestureDoubleTap:
		return "doubletap"
	default:
		return "unknown"
	}
}

// Arbiter decides which recognizers may drive the transform.
//
// Pan and pinch form one group and may be active together. Double-tap is
// exclusive with that group. Whichever side claims first wins until it ends;
// callers try double-tap before the pan/pinch group.
type Arbiter struct {
	pan, pinch, doubleTap bool
}

// Begin claims g. It returns false if a competing gesture holds the viewport
// or g is already active.
func (a *Arbiter) Begin(g Gesture) bool {
	switch g {
	case GesturePan:
		if a.doubleTap || a.pan {
			return false
		}
		a.pan = true
	case GesturePinch:
		if a.doubleTap || a.pinch {
			return false
		}
		a.pinch = true
	case GestureDoubleTap:
		if a.pan || a.pinch || a.doubleTap {
			return false
		}
		a.doubleTap = true
	default:
		return false
	}
	return true
}

// End releases g. Ending an inactive gesture is a no-op.
func (a *Arbiter) End(g Gesture) {
	switch g {
	case GesturePan:
		a.pan = false
	case GesturePinch:
		a.pinch = false
	case GestureDoubleTap:
		a.doubleTap = false
	}
}

// active reports whether g currently holds the viewport.
func (a *Arbiter) active(g Gesture) bool {
	switch g {
	case GesturePan:
		return a.pan
	case GesturePinch:
		return a.pinch
	case GestureDoubleTap:
		return a.doubleTap
	}
	return false
}

// idle reports whether no gesture is active.
func (a *Arbiter) idle() bool {
	return !a.pan && !a.pinch && !a.doubleTap
}
