// Package replay drives the viewport engine from a recorded touch trace.
//
// A trace is a YAML document:
//
//	container: {width: 400, height: 250}
//	end: 2s
//	events:
//	  - {id: 1, kind: down, pos: {x: 200, y: 125}, at: 0s}
//	  - {id: 1, kind: up, pos: {x: 200, y: 125}, at: 40ms}
package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"wallmap/internal/routes"
	"wallmap/internal/viewport"
	"wallmap/pkg/geometry"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// settleTimeout bounds the wait for the reporter to deliver the final
// transform.
const settleTimeout = time.Second

// Trace is a recorded touch sequence.
type Trace struct {
	Container geometry.Size         `yaml:"container"`
	End       time.Duration         `yaml:"end,omitempty"` // Clock value of the final tick
	Events    []viewport.TouchEvent `yaml:"events"`
}

// LoadTrace reads a trace file.
func LoadTrace(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTrace(data)
}

// ParseTrace decodes a trace and checks that its clock never runs backwards.
func ParseTrace(data []byte) (*Trace, error) {
	var tr Trace
	if err := yaml.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("parse trace: %w", err)
	}
	if !tr.Container.Valid() {
		return nil, fmt.Errorf("trace container %vx%v is not a valid size", tr.Container.Width, tr.Container.Height)
	}
	var last time.Duration
	for i, ev := range tr.Events {
		if ev.At < last {
			return nil, fmt.Errorf("event %d at %v is earlier than the previous event at %v", i, ev.At, last)
		}
		last = ev.At
	}
	if tr.End < last {
		tr.End = last + time.Second
	}
	return &tr, nil
}

// Options configures a replay.
type Options struct {
	Engine  viewport.Options
	Gesture viewport.GestureConfig
	Epsilon float64

	// Visible list settings
	Routes  []routes.Route
	Filter  routes.Filter
	Sort    viewport.SortKey
	Padding float64
}

// Result is the outcome of a replay. Every field except Reported is
// determined by the trace alone.
type Result struct {
	Final viewport.Transform `yaml:"final"`
	// Reported holds the transforms the reporter delivered. How many
	// intermediate values survive coalescing depends on goroutine timing,
	// so it is left out of the encoded result; the last entry is always
	// within epsilon of Final.
	Reported    []viewport.Transform `yaml:"-"`
	Taps        []geometry.Point2D   `yaml:"taps,omitempty"`
	LongPresses []geometry.Point2D   `yaml:"long_presses,omitempty"`
	Visible     []string             `yaml:"visible"`
}

// Run feeds the trace through a recognizer into a fresh engine. Reported
// transforms are collected from a reporter running alongside the driver.
func Run(ctx context.Context, tr *Trace, opts Options) (*Result, error) {
	pred, err := opts.Filter.Compile()
	if err != nil {
		return nil, err
	}

	engine := viewport.NewEngine(opts.Engine)
	if !engine.SetContainerSize(tr.Container) || !engine.Ready() {
		return nil, fmt.Errorf("container %vx%v cannot be laid out", tr.Container.Width, tr.Container.Height)
	}

	res := &Result{}
	var mu sync.Mutex
	delivered := make(chan struct{}, 1)
	var last viewport.Transform
	var haveLast bool

	engine.OnTap(func(p geometry.Point2D) { res.Taps = append(res.Taps, p) })
	engine.OnLongPress(func(p geometry.Point2D) { res.LongPresses = append(res.LongPresses, p) })

	reporter := viewport.NewReporter(opts.Epsilon, func(t viewport.Transform) {
		mu.Lock()
		res.Reported = append(res.Reported, t)
		last, haveLast = t, true
		mu.Unlock()
		select {
		case delivered <- struct{}{}:
		default:
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	runCtx, stop := context.WithCancel(gctx)
	defer stop()

	g.Go(func() error {
		if err := reporter.Run(runCtx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		defer stop()
		// Attach after Run starts so the initial offer is not lost to a
		// cancelled context.
		engine.SetReporter(reporter)

		rec := viewport.NewRecognizer(opts.Gesture, engine)
		for _, ev := range tr.Events {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec.Tick(ev.At)
			rec.Handle(ev)
		}
		rec.Tick(tr.End)
		rec.Flush()

		final := engine.Transform()
		eps := geometry.Positive(opts.Epsilon, viewport.DefaultEpsilon)
		timeout := time.NewTimer(settleTimeout)
		defer timeout.Stop()
		for {
			mu.Lock()
			settled := haveLast && !last.Differs(final, eps)
			mu.Unlock()
			if settled {
				return nil
			}
			select {
			case <-delivered:
			case <-timeout.C:
				slog.Warn("reporter did not settle", "final", final)
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.Final = engine.Transform()
	container, content, _ := engine.Layout()
	visible := viewport.Visible(viewport.Query{
		Markers:   routes.Markers(opts.Routes),
		Transform: res.Final,
		Container: container,
		Content:   content,
		Filter:    pred,
		FilterKey: opts.Filter.Key(),
		Sort:      opts.Sort,
		Padding:   opts.Padding,
	})
	for _, m := range visible {
		res.Visible = append(res.Visible, m.MarkerID())
	}
	return res, nil
}
