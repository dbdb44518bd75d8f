package wallview

import (
	"image"
	"image/color"
	"math"

	"wallmap/internal/viewport"
	"wallmap/pkg/colorutil"
	"wallmap/pkg/geometry"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

var (
	background  = colorutil.Background
	labelColor  = colorutil.White
	selectColor = colorutil.Amber
)

// MarkerView is a route marker as drawn on the wall.
type MarkerView struct {
	ID       string
	Label    string
	Pos      viewport.NormalizedPoint
	Color    color.NRGBA
	Selected bool
}

// Scene is everything needed to draw one frame.
type Scene struct {
	Photo      image.Image
	Transform  viewport.Transform
	Content    geometry.Size // Fitted content size in screen units at scale 1
	Markers    []MarkerView
	Style      viewport.MarkerStyle // Unzoomed marker style
	ShowLabels bool
}

// Render draws the scene into a w x h image. pixelScale is the number of
// output pixels per screen unit.
func Render(w, h int, pixelScale float64, sc Scene) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	if w <= 0 || h <= 0 || !sc.Content.Valid() {
		return dst
	}
	pixelScale = geometry.Positive(pixelScale, 1)

	if sc.Photo != nil {
		drawPhoto(dst, sc.Photo, sc.Transform, sc.Content, pixelScale)
	}

	style := viewport.Compensate(sc.Transform.Scale, sc.Style)
	for _, m := range sc.Markers {
		if !m.Pos.Valid() {
			continue
		}
		p := viewport.ToScreen(viewport.FromNormalized(m.Pos, sc.Content), sc.Transform).Scale(pixelScale)
		drawMarker(dst, m, p, style, pixelScale, sc.ShowLabels)
	}
	return dst
}

// drawPhoto maps the photo's pixels onto the fitted content rectangle and
// through the viewport transform.
func drawPhoto(dst *image.RGBA, photo image.Image, t viewport.Transform, content geometry.Size, ps float64) {
	b := photo.Bounds()
	if b.Empty() {
		return
	}
	kx := t.Scale * content.Width / float64(b.Dx()) * ps
	ky := t.Scale * content.Height / float64(b.Dy()) * ps
	aff := f64.Aff3{
		kx, 0, t.TranslateX*ps - float64(b.Min.X)*kx,
		0, ky, t.TranslateY*ps - float64(b.Min.Y)*ky,
	}
	draw.ApproxBiLinear.Transform(dst, aff, photo, b, draw.Over, nil)
}

func drawMarker(dst *image.RGBA, m MarkerView, center geometry.Point2D, style viewport.MarkerStyle, ps float64, labels bool) {
	r := style.Radius() * ps
	fill := color.RGBA{R: m.Color.R, G: m.Color.G, B: m.Color.B, A: 0xff}

	ring := math.Max(1, 2*ps)
	if m.Selected {
		fillCircle(dst, center, r+2*ring, selectColor)
	}
	fillCircle(dst, center, r, colorutil.Outline(m.Color))
	fillCircle(dst, center, r-ring, fill)

	if labels && m.Label != "" {
		scale := int(math.Max(1, math.Round(style.Font*ps/6)))
		top := int(math.Round(center.Y + r + ring))
		drawText(dst, m.Label, int(math.Round(center.X)), top, labelColor, scale)
	}
}

func fillCircle(dst *image.RGBA, c geometry.Point2D, r float64, col color.RGBA) {
	if r <= 0 {
		return
	}
	area := image.Rect(
		int(math.Floor(c.X-r)), int(math.Floor(c.Y-r)),
		int(math.Ceil(c.X+r))+1, int(math.Ceil(c.Y+r))+1,
	).Intersect(dst.Bounds())
	r2 := r * r
	for y := area.Min.Y; y < area.Max.Y; y++ {
		dy := float64(y) + 0.5 - c.Y
		for x := area.Min.X; x < area.Max.X; x++ {
			dx := float64(x) + 0.5 - c.X
			if dx*dx+dy*dy <= r2 {
				dst.SetRGBA(x, y, col)
			}
		}
	}
}
