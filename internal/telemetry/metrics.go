// Package telemetry holds the Prometheus counters for the viewport engine.
//
// Counters live on a private registry so embedding the engine never touches
// the process-wide default registry.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry collects every wallmap metric.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// Gestures counts recognized gestures by kind (pan, pinch, doubletap, tap, longpress).
	Gestures = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallmap",
		Subsystem: "viewport",
		Name:      "gestures_total",
		Help:      "Gestures that started on the viewport",
	}, []string{"kind"})

	// GesturesDenied counts gestures refused by the arbiter.
	GesturesDenied = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallmap",
		Subsystem: "viewport",
		Name:      "gestures_denied_total",
		Help:      "Gestures refused because a competing gesture was active",
	}, []string{"kind"})

	// NonFinite counts non-finite values replaced before reaching shared state.
	NonFinite = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallmap",
		Subsystem: "viewport",
		Name:      "non_finite_total",
		Help:      "Non-finite values replaced with last known good values",
	}, []string{"site"})

	// ReportsDelivered counts transforms passed to the application callback.
	ReportsDelivered = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "wallmap",
		Subsystem: "reporter",
		Name:      "delivered_total",
		Help:      "Transform changes delivered to the application",
	})

	// ReportsSuppressed counts transforms dropped by the jitter guard.
	ReportsSuppressed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "wallmap",
		Subsystem: "reporter",
		Name:      "suppressed_total",
		Help:      "Transform changes below the jitter epsilon",
	})

	// VisibilityRecomputes counts full visible-marker recomputations.
	VisibilityRecomputes = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "wallmap",
		Subsystem: "visibility",
		Name:      "recomputes_total",
		Help:      "Visible marker list recomputations",
	})

	// VisibilityCached counts requests answered from the cached list,
	// labelled "memo" for identical inputs and "throttled" for stale answers.
	VisibilityCached = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallmap",
		Subsystem: "visibility",
		Name:      "cached_total",
		Help:      "Visible marker requests answered from cache",
	}, []string{"reason"})
)
