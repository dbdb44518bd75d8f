package viewport

import (
	"math"
	"math/rand"
	"testing"

	"wallmap/pkg/geometry"

	"github.com/google/go-cmp/cmp"
)

func TestClamp(t *testing.T) {
	tall := geometry.Size{Width: 360, Height: 800}
	tallContent := geometry.Size{Width: 360, Height: 225}
	exact := geometry.Size{Width: 400, Height: 250}

	tests := []struct {
		name      string
		tr        Transform
		container geometry.Size
		content   geometry.Size
		want      Transform
	}{
		{
			name:      "identity centers vertically",
			tr:        Identity(),
			container: tall, content: tallContent,
			want: Transform{Scale: 1, TranslateX: 0, TranslateY: 287.5},
		},
		{
			name:      "scale below minimum",
			tr:        Transform{Scale: 0.2, TranslateX: 50, TranslateY: 50},
			container: exact, content: exact,
			want: Transform{Scale: 1},
		},
		{
			name:      "scale above maximum",
			tr:        Transform{Scale: 9, TranslateX: -100, TranslateY: -100},
			container: exact, content: exact,
			want: Transform{Scale: 4, TranslateX: -100, TranslateY: -100},
		},
		{
			name:      "gap at left edge",
			tr:        Transform{Scale: 2, TranslateX: 40, TranslateY: -10},
			container: exact, content: exact,
			want: Transform{Scale: 2, TranslateX: 0, TranslateY: -10},
		},
		{
			name:      "gap at right edge",
			tr:        Transform{Scale: 2, TranslateX: -900, TranslateY: -10},
			container: exact, content: exact,
			want: Transform{Scale: 2, TranslateX: -400, TranslateY: -10},
		},
		{
			name:      "rounds to half pixel",
			tr:        Transform{Scale: 2, TranslateX: -100.3, TranslateY: -10.7},
			container: exact, content: exact,
			want: Transform{Scale: 2, TranslateX: -100.5, TranslateY: -10.5},
		},
		{
			name:      "wide axis clamps while short axis centers",
			tr:        Transform{Scale: 2, TranslateX: 30, TranslateY: 30},
			container: tall, content: tallContent,
			want: Transform{Scale: 2, TranslateX: 0, TranslateY: 175},
		},
		{
			name:      "non-finite input",
			tr:        Transform{Scale: math.NaN(), TranslateX: math.Inf(1), TranslateY: math.NaN()},
			container: exact, content: exact,
			want: Transform{Scale: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.tr, tt.container, tt.content, 1, 4)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Clamp() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func randomLayout(rng *rand.Rand) (container, content geometry.Size) {
	container = geometry.Size{Width: 100 + rng.Float64()*1900, Height: 100 + rng.Float64()*1900}
	content, _ = FitContent(container, 0.2+rng.Float64()*2)
	return container, content
}

func randomTransform(rng *rand.Rand) Transform {
	return Transform{
		Scale:      rng.Float64() * 8,
		TranslateX: (rng.Float64() - 0.5) * 10000,
		TranslateY: (rng.Float64() - 0.5) * 10000,
	}
}

func TestClampProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const minScale, maxScale = 1.0, 4.0

	for i := 0; i < 1000; i++ {
		container, content := randomLayout(rng)
		tr := randomTransform(rng)

		once := Clamp(tr, container, content, minScale, maxScale)
		twice := Clamp(once, container, content, minScale, maxScale)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Fatalf("Clamp not idempotent for %v (-once +twice):\n%s", tr, diff)
		}

		if once.Scale < minScale || once.Scale > maxScale {
			t.Fatalf("scale %v outside [%v, %v]", once.Scale, minScale, maxScale)
		}

		axes := []struct {
			name               string
			translate, c, size float64
		}{
			{"x", once.TranslateX, container.Width, content.Width * once.Scale},
			{"y", once.TranslateY, container.Height, content.Height * once.Scale},
		}
		for _, a := range axes {
			if a.translate*2 != math.Round(a.translate*2) {
				t.Fatalf("%s translate %v not a multiple of 0.5", a.name, a.translate)
			}
			if a.size <= a.c {
				want := math.Round((a.c-a.size)/2*2) / 2
				if a.translate != want {
					t.Fatalf("%s: fitting content not centered: got %v want %v", a.name, a.translate, want)
				}
				continue
			}
			// Rounding may step at most a quarter pixel past the edge.
			if a.translate > 0 || a.translate < a.c-a.size-0.25 {
				t.Fatalf("%s translate %v outside [%v, 0]", a.name, a.translate, a.c-a.size)
			}
		}
	}
}

func TestFitContent(t *testing.T) {
	tests := []struct {
		name      string
		container geometry.Size
		aspect    float64
		want      geometry.Size
		wantOK    bool
	}{
		{"portrait phone fits by width", geometry.Size{Width: 360, Height: 800}, DefaultContentAspect, geometry.Size{Width: 360, Height: 225}, true},
		{"wide window fits by height", geometry.Size{Width: 1000, Height: 300}, DefaultContentAspect, geometry.Size{Width: 480, Height: 300}, true},
		{"exact", geometry.Size{Width: 400, Height: 250}, DefaultContentAspect, geometry.Size{Width: 400, Height: 250}, true},
		{"invalid aspect uses default", geometry.Size{Width: 400, Height: 800}, -1, geometry.Size{Width: 400, Height: 250}, true},
		{"unmeasured", geometry.Size{}, DefaultContentAspect, geometry.Size{}, false},
		{"zero height", geometry.Size{Width: 400}, DefaultContentAspect, geometry.Size{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FitContent(tt.container, tt.aspect)
			if ok != tt.wantOK {
				t.Fatalf("FitContent() ok = %v, want %v", ok, tt.wantOK)
			}
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("FitContent() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
