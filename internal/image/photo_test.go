package image

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"wallmap/pkg/geometry"

	"github.com/google/go-cmp/cmp"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestDownsample(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		maxDim int
		want   image.Point
	}{
		{"small unchanged", 100, 50, 200, image.Pt(100, 50)},
		{"disabled", 4000, 3000, 0, image.Pt(4000, 3000)},
		{"landscape", 400, 200, 100, image.Pt(100, 50)},
		{"portrait", 160, 256, 128, image.Pt(80, 128)},
		{"sliver", 1000, 1, 10, image.Pt(10, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Downsample(image.NewRGBA(image.Rect(0, 0, tt.w, tt.h)), tt.maxDim).Bounds().Size()
			if got != tt.want {
				t.Errorf("Downsample() size = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wall.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, solid(320, 512, color.RGBA{R: 200, A: 255})); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path, 256)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(geometry.Size{Width: 320, Height: 512}, p.Full); diff != "" {
		t.Errorf("full size (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(geometry.Size{Width: 160, Height: 256}, p.Size()); diff != "" {
		t.Errorf("display size (-want +got):\n%s", diff)
	}
	if got := p.Aspect(); got != 0.625 {
		t.Errorf("Aspect() = %v, want 0.625", got)
	}
	r, _, _, _ := p.Image.At(80, 128).RGBA()
	if d := int(r>>8) - 200; d < -2 || d > 2 {
		t.Errorf("downsampled pixel red = %d, want 200", r>>8)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.png"), 0); err == nil {
		t.Error("Load accepted a missing file")
	}
}

func TestSupportedFormat(t *testing.T) {
	for path, want := range map[string]bool{
		"wall.JPG":  true,
		"wall.webp": true,
		"wall.tif":  true,
		"wall.gif":  false,
		"wall":      false,
	} {
		if got := IsSupportedFormat(path); got != want {
			t.Errorf("IsSupportedFormat(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestNilPhoto(t *testing.T) {
	var p *Photo
	if p.Aspect() != 0 || p.Size().Valid() {
		t.Error("nil photo reports a size")
	}
}
