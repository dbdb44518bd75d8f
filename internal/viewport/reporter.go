package viewport

import (
	"context"
	"sync"

	"wallmap/internal/telemetry"
	"wallmap/pkg/geometry"
)

// DefaultEpsilon is the smallest transform change reported to the
// application.
const DefaultEpsilon = 0.05

// JitterGuard filters out transforms that have not meaningfully changed
// since the last accepted one. The zero value accepts every transform until
// Epsilon is set.
type JitterGuard struct {
	Epsilon float64

	last Transform
	have bool
}

// Accept reports whether t differs from the last accepted transform by more
// than Epsilon on any component, and records it if so. The first transform
// is always accepted.
func (g *JitterGuard) Accept(t Transform) bool {
	if g.have && !t.Differs(g.last, g.Epsilon) {
		return false
	}
	g.last = t
	g.have = true
	return true
}

// Reset forgets the last accepted transform.
func (g *JitterGuard) Reset() {
	g.have = false
}

// Reporter carries transform updates from the gesture loop to the
// application. Offer never blocks: the channel holds a single value and a
// newer transform replaces an undelivered one. Run delivers the surviving
// values through a JitterGuard to the callback.
type Reporter struct {
	ch chan Transform

	mu       sync.Mutex
	guard    JitterGuard
	callback func(Transform)
}

// NewReporter creates a reporter. epsilon <= 0 selects DefaultEpsilon.
func NewReporter(epsilon float64, callback func(Transform)) *Reporter {
	return &Reporter{
		ch:       make(chan Transform, 1),
		guard:    JitterGuard{Epsilon: geometry.Positive(epsilon, DefaultEpsilon)},
		callback: callback,
	}
}

// SetEpsilon changes the jitter threshold. The next transform is always
// delivered.
func (r *Reporter) SetEpsilon(epsilon float64) {
	r.mu.Lock()
	r.guard.Epsilon = geometry.Positive(epsilon, DefaultEpsilon)
	r.guard.Reset()
	r.mu.Unlock()
}

// Offer queues t for delivery, replacing any value not yet delivered.
func (r *Reporter) Offer(t Transform) {
	for {
		select {
		case r.ch <- t:
			return
		default:
		}
		select {
		case <-r.ch:
		default:
		}
	}
}

// Run delivers offered transforms until ctx is done.
func (r *Reporter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-r.ch:
			r.deliver(t)
		}
	}
}

func (r *Reporter) deliver(t Transform) {
	r.mu.Lock()
	ok := r.guard.Accept(t)
	cb := r.callback
	r.mu.Unlock()

	if !ok {
		telemetry.ReportsSuppressed.Inc()
		return
	}
	telemetry.ReportsDelivered.Inc()
	if cb != nil {
		cb(t)
	}
}
