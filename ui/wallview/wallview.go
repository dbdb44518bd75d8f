// Package wallview provides the pannable, zoomable wall photo widget.
package wallview

import (
	"image"
	"math"
	"sync"
	"time"

	"wallmap/internal/viewport"
	"wallmap/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// wheelBase is the zoom factor per scroll unit.
const wheelBase = 1.0015

// WallView displays a wall photo with route markers and feeds pointer input
// into a viewport engine.
//
// Drag pans, the wheel zooms about the pointer, double-tap toggles zoom,
// tap reports a tap and secondary tap stands in for a long press.
type WallView struct {
	widget.BaseWidget

	engine *viewport.Engine
	raster *fynecanvas.Raster

	mu         sync.Mutex
	photo      image.Image
	markers    []MarkerView
	selected   string
	style      viewport.MarkerStyle
	showLabels bool

	// Drag state
	panning bool
	dragged fyne.Delta

	onResize func(container, content geometry.Size)
}

var (
	_ fyne.Draggable         = (*WallView)(nil)
	_ fyne.Scrollable        = (*WallView)(nil)
	_ fyne.Tappable          = (*WallView)(nil)
	_ fyne.DoubleTappable    = (*WallView)(nil)
	_ fyne.SecondaryTappable = (*WallView)(nil)
)

// New creates a wall view driving engine.
func New(engine *viewport.Engine) *WallView {
	wv := &WallView{
		engine:     engine,
		style:      viewport.DefaultMarkerStyle(),
		showLabels: true,
	}
	wv.raster = fynecanvas.NewRaster(wv.draw)
	wv.raster.ScaleMode = fynecanvas.ImageScalePixels
	wv.ExtendBaseWidget(wv)
	return wv
}

// Engine returns the engine the view drives.
func (wv *WallView) Engine() *viewport.Engine {
	return wv.engine
}

// SetAnimation makes double-tap, zoom buttons and settling ease over d.
// d <= 0 jumps immediately.
func (wv *WallView) SetAnimation(d time.Duration) {
	wv.engine.SetAnimator(fyneAnimator{duration: d, frame: wv.raster.Refresh})
}

// SetPhoto replaces the wall photo. The engine's content aspect follows the
// photo.
func (wv *WallView) SetPhoto(img image.Image) {
	wv.mu.Lock()
	wv.photo = img
	wv.mu.Unlock()

	if img != nil && !img.Bounds().Empty() {
		b := img.Bounds()
		opts := wv.engine.Options()
		opts.ContentAspect = float64(b.Dy()) / float64(b.Dx())
		wv.engine.SetOptions(opts)
		wv.layout(wv.Size())
	}
	wv.Refresh()
}

// SetMarkers replaces the drawn markers.
func (wv *WallView) SetMarkers(markers []MarkerView) {
	wv.mu.Lock()
	wv.markers = markers
	wv.mu.Unlock()
	wv.Refresh()
}

// SetSelected highlights the marker with the given ID.
func (wv *WallView) SetSelected(id string) {
	wv.mu.Lock()
	wv.selected = id
	wv.mu.Unlock()
	wv.Refresh()
}

// SetMarkerStyle sets the unzoomed marker style and label visibility.
func (wv *WallView) SetMarkerStyle(style viewport.MarkerStyle, labels bool) {
	wv.mu.Lock()
	wv.style = style
	wv.showLabels = labels
	wv.mu.Unlock()
	wv.Refresh()
}

// OnResize sets a callback for container and content size changes.
func (wv *WallView) OnResize(callback func(container, content geometry.Size)) {
	wv.onResize = callback
}

// Refresh redraws the view.
func (wv *WallView) Refresh() {
	wv.raster.Refresh()
}

// Dragged pans by the distance dragged since the drag began.
func (wv *WallView) Dragged(ev *fyne.DragEvent) {
	if !wv.panning {
		if !wv.engine.PanStart() {
			return
		}
		wv.panning = true
		wv.dragged = fyne.Delta{}
	}
	wv.dragged.DX += ev.Dragged.DX
	wv.dragged.DY += ev.Dragged.DY
	wv.engine.PanUpdate(geometry.Point2D{X: float64(wv.dragged.DX), Y: float64(wv.dragged.DY)})
	wv.raster.Refresh()
}

// DragEnd finishes the pan.
func (wv *WallView) DragEnd() {
	if !wv.panning {
		return
	}
	wv.panning = false
	wv.engine.PanEnd()
	wv.raster.Refresh()
}

// Scrolled zooms about the pointer as a one-step pinch.
func (wv *WallView) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY == 0 {
		return
	}
	if !wv.engine.PinchStart(toPoint(ev.Position)) {
		return
	}
	wv.engine.PinchUpdate(math.Pow(wheelBase, float64(ev.Scrolled.DY)))
	wv.engine.PinchEnd()
	wv.raster.Refresh()
}

// DoubleTapped toggles between the base view and a zoom about the point.
func (wv *WallView) DoubleTapped(ev *fyne.PointEvent) {
	wv.engine.DoubleTap(toPoint(ev.Position))
	wv.raster.Refresh()
}

// Tapped reports a tap to the engine's tap callback.
func (wv *WallView) Tapped(ev *fyne.PointEvent) {
	if !wv.inside(ev.Position) {
		return
	}
	wv.engine.Tap(toPoint(ev.Position))
}

// TappedSecondary reports a long press at the point.
func (wv *WallView) TappedSecondary(ev *fyne.PointEvent) {
	if !wv.inside(ev.Position) {
		return
	}
	wv.engine.LongPress(toPoint(ev.Position))
}

// inside rejects events fyne sometimes delivers outside the widget bounds.
func (wv *WallView) inside(pos fyne.Position) bool {
	size := wv.Size()
	return pos.X >= 0 && pos.Y >= 0 && pos.X <= size.Width && pos.Y <= size.Height
}

func toPoint(p fyne.Position) geometry.Point2D {
	return geometry.Point2D{X: float64(p.X), Y: float64(p.Y)}
}

func (wv *WallView) layout(size fyne.Size) {
	container := geometry.Size{Width: float64(size.Width), Height: float64(size.Height)}
	wv.engine.SetContainerSize(container)
	if wv.onResize != nil {
		c, content, ready := wv.engine.Layout()
		if ready {
			wv.onResize(c, content)
		}
	}
}

// draw is the raster drawing function.
func (wv *WallView) draw(w, h int) image.Image {
	ps := 1.0
	if size := wv.Size(); size.Width > 0 {
		ps = float64(w) / float64(size.Width)
	}
	_, content, _ := wv.engine.Layout()

	wv.mu.Lock()
	markers := make([]MarkerView, len(wv.markers))
	for i, m := range wv.markers {
		m.Selected = m.ID != "" && m.ID == wv.selected
		markers[i] = m
	}
	sc := Scene{
		Photo:      wv.photo,
		Transform:  wv.engine.Transform(),
		Content:    content,
		Markers:    markers,
		Style:      wv.style,
		ShowLabels: wv.showLabels,
	}
	wv.mu.Unlock()

	return Render(w, h, ps, sc)
}

// CreateRenderer implements fyne.Widget.
func (wv *WallView) CreateRenderer() fyne.WidgetRenderer {
	return &wallViewRenderer{view: wv}
}

type wallViewRenderer struct {
	view *WallView
}

func (r *wallViewRenderer) Layout(size fyne.Size) {
	r.view.raster.Resize(size)
	r.view.layout(size)
}

func (r *wallViewRenderer) MinSize() fyne.Size {
	return fyne.NewSize(160, 100)
}

func (r *wallViewRenderer) Refresh() {
	r.view.raster.Refresh()
}

func (r *wallViewRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.view.raster}
}

func (r *wallViewRenderer) Destroy() {}
