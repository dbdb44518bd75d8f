package wallview

import (
	"math"
	"testing"

	"wallmap/internal/viewport"
	"wallmap/pkg/geometry"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/google/go-cmp/cmp"
)

func newTestView(t *testing.T) *WallView {
	t.Helper()
	test.NewApp()
	t.Cleanup(func() { test.NewApp() })

	wv := New(viewport.NewEngine(viewport.DefaultOptions()))
	wv.Resize(fyne.NewSize(400, 250))
	if !wv.Engine().Ready() {
		t.Fatal("engine not ready after resize")
	}
	return wv
}

func TestWallViewGestures(t *testing.T) {
	wv := newTestView(t)
	e := wv.Engine()

	wv.DoubleTapped(&fyne.PointEvent{Position: fyne.NewPos(200, 125)})
	want := viewport.Transform{Scale: 2, TranslateX: -200, TranslateY: -125}
	if diff := cmp.Diff(want, e.Transform()); diff != "" {
		t.Fatalf("after double-tap (-want +got):\n%s", diff)
	}

	wv.Dragged(&fyne.DragEvent{Dragged: fyne.NewDelta(30, -10)})
	wv.Dragged(&fyne.DragEvent{Dragged: fyne.NewDelta(20, -10)})
	wv.DragEnd()
	want = viewport.Transform{Scale: 2, TranslateX: -150, TranslateY: -145}
	if diff := cmp.Diff(want, e.Transform()); diff != "" {
		t.Errorf("after drag (-want +got):\n%s", diff)
	}

	wv.Scrolled(&fyne.ScrollEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(100, 100)},
		Scrolled:   fyne.NewDelta(0, 100),
	})
	want2 := 2 * math.Pow(wheelBase, 100)
	if got := e.Scale(); math.Abs(got-want2) > 1e-6 {
		t.Errorf("scale after wheel = %v, want %v", got, want2)
	}

	wv.DoubleTapped(&fyne.PointEvent{Position: fyne.NewPos(10, 10)})
	if diff := cmp.Diff(viewport.Transform{Scale: 1}, e.Transform()); diff != "" {
		t.Errorf("after second double-tap (-want +got):\n%s", diff)
	}
}

func TestWallViewTaps(t *testing.T) {
	wv := newTestView(t)

	var taps, presses []geometry.Point2D
	wv.Engine().OnTap(func(p geometry.Point2D) { taps = append(taps, p) })
	wv.Engine().OnLongPress(func(p geometry.Point2D) { presses = append(presses, p) })

	wv.Tapped(&fyne.PointEvent{Position: fyne.NewPos(40, 60)})
	wv.Tapped(&fyne.PointEvent{Position: fyne.NewPos(-5, 60)})
	wv.TappedSecondary(&fyne.PointEvent{Position: fyne.NewPos(300, 200)})

	if diff := cmp.Diff([]geometry.Point2D{{X: 40, Y: 60}}, taps); diff != "" {
		t.Errorf("taps (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]geometry.Point2D{{X: 300, Y: 200}}, presses); diff != "" {
		t.Errorf("long presses (-want +got):\n%s", diff)
	}
}

func TestWallViewResizeCallback(t *testing.T) {
	wv := newTestView(t)

	var got []geometry.Size
	wv.OnResize(func(container, content geometry.Size) {
		got = append(got, container, content)
	})
	wv.Resize(fyne.NewSize(500, 250))

	want := []geometry.Size{{Width: 500, Height: 250}, {Width: 400, Height: 250}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resize callback (-want +got):\n%s", diff)
	}
}
