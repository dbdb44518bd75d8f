package viewport

import (
	"math"
	"math/rand"
	"testing"

	"wallmap/pkg/geometry"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestScreenImageRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		tr := Transform{
			Scale:      0.1 + rng.Float64()*9.9,
			TranslateX: (rng.Float64() - 0.5) * 4000,
			TranslateY: (rng.Float64() - 0.5) * 4000,
		}
		p := geometry.Point2D{X: rng.Float64() * 2000, Y: rng.Float64() * 2000}

		got := ToImage(ToScreen(p, tr), tr)
		if diff := cmp.Diff(p, got, cmpopts.EquateApprox(1e-9, 1e-6)); diff != "" {
			t.Fatalf("round trip through %v (-want +got):\n%s", tr, diff)
		}
	}
}

func TestToScreen(t *testing.T) {
	tests := []struct {
		name string
		p    geometry.Point2D
		tr   Transform
		want geometry.Point2D
	}{
		{"identity", geometry.Point2D{X: 10, Y: 20}, Identity(), geometry.Point2D{X: 10, Y: 20}},
		{"scaled and shifted", geometry.Point2D{X: 10, Y: 20}, Transform{Scale: 2, TranslateX: -5, TranslateY: 7}, geometry.Point2D{X: 15, Y: 47}},
		{"nan point", geometry.Point2D{X: math.NaN(), Y: 4}, Transform{Scale: 2}, geometry.Point2D{X: 0, Y: 8}},
		{"zero scale", geometry.Point2D{X: 3, Y: 4}, Transform{}, geometry.Point2D{X: 3, Y: 4}},
		{"infinite translate", geometry.Point2D{X: 3, Y: 4}, Transform{Scale: 1, TranslateX: math.Inf(1)}, geometry.Point2D{X: 3, Y: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToScreen(tt.p, tt.tr)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("ToScreen() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToImageLimitsScale(t *testing.T) {
	p := geometry.Point2D{X: 100, Y: 100}

	got := ToImage(p, Transform{Scale: 0.001})
	if diff := cmp.Diff(geometry.Point2D{X: 1000, Y: 1000}, got, approx); diff != "" {
		t.Errorf("tiny scale (-want +got):\n%s", diff)
	}
	got = ToImage(p, Transform{Scale: 1000})
	if diff := cmp.Diff(geometry.Point2D{X: 10, Y: 10}, got, approx); diff != "" {
		t.Errorf("huge scale (-want +got):\n%s", diff)
	}
	got = ToImage(p, Transform{Scale: math.NaN()})
	if !got.IsFinite() {
		t.Errorf("NaN scale produced %v", got)
	}
}

func TestNormalized(t *testing.T) {
	content := geometry.Size{Width: 400, Height: 250}

	tests := []struct {
		name string
		img  geometry.Point2D
		want NormalizedPoint
	}{
		{"center", geometry.Point2D{X: 200, Y: 125}, NormalizedPoint{XNorm: 0.5, YNorm: 0.5}},
		{"origin", geometry.Point2D{}, NormalizedPoint{}},
		{"far corner", geometry.Point2D{X: 400, Y: 250}, NormalizedPoint{XNorm: 1, YNorm: 1}},
		{"clamped low", geometry.Point2D{X: -50, Y: 125}, NormalizedPoint{XNorm: 0, YNorm: 0.5}},
		{"clamped high", geometry.Point2D{X: 200, Y: 900}, NormalizedPoint{XNorm: 0.5, YNorm: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToNormalized(tt.img, content)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("ToNormalized() mismatch (-want +got):\n%s", diff)
			}
			if !got.Valid() {
				t.Errorf("ToNormalized() = %v, not valid", got)
			}
		})
	}
}

func TestFromNormalized(t *testing.T) {
	content := geometry.Size{Width: 400, Height: 250}

	got := FromNormalized(NormalizedPoint{XNorm: 0.25, YNorm: 0.8}, content)
	if diff := cmp.Diff(geometry.Point2D{X: 100, Y: 200}, got, approx); diff != "" {
		t.Errorf("in range (-want +got):\n%s", diff)
	}
	got = FromNormalized(NormalizedPoint{XNorm: 1.5, YNorm: math.NaN()}, content)
	if diff := cmp.Diff(geometry.Point2D{X: 400, Y: 0}, got, approx); diff != "" {
		t.Errorf("out of range (-want +got):\n%s", diff)
	}
}

func TestNormalizedRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	content := geometry.Size{Width: 360, Height: 225}
	for i := 0; i < 200; i++ {
		n := NormalizedPoint{XNorm: rng.Float64(), YNorm: rng.Float64()}
		got := ToNormalized(FromNormalized(n, content), content)
		if diff := cmp.Diff(n, got, approx); diff != "" {
			t.Fatalf("normalized round trip (-want +got):\n%s", diff)
		}
	}
}

func TestViewportBounds(t *testing.T) {
	container := geometry.Size{Width: 400, Height: 250}
	tests := []struct {
		name string
		tr   Transform
		want Bounds
	}{
		{"identity", Identity(), Bounds{XMinImg: 0, YMinImg: 0, XMaxImg: 400, YMaxImg: 250}},
		{
			"zoomed",
			Transform{Scale: 2, TranslateX: -100, TranslateY: -50},
			Bounds{XMinImg: 50, YMinImg: 25, XMaxImg: 250, YMaxImg: 150},
		},
		{
			"centered letterbox",
			Transform{Scale: 1, TranslateX: 0, TranslateY: 287.5},
			Bounds{XMinImg: 0, YMinImg: -287.5, XMaxImg: 400, YMaxImg: -37.5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ViewportBounds(tt.tr, container)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("ViewportBounds() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBoundsPad(t *testing.T) {
	b := Bounds{XMinImg: 10, YMinImg: 20, XMaxImg: 30, YMaxImg: 40}
	want := Bounds{XMinImg: 5, YMinImg: 15, XMaxImg: 35, YMaxImg: 45}
	if diff := cmp.Diff(want, b.Pad(5)); diff != "" {
		t.Errorf("Pad(5) (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(b, b.Pad(math.NaN())); diff != "" {
		t.Errorf("Pad(NaN) (-want +got):\n%s", diff)
	}
}
