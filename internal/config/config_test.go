package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"wallmap/internal/viewport"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(viewport.DefaultOptions(), cfg.Viewport.Options()); diff != "" {
		t.Errorf("viewport options (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(viewport.DefaultGestureConfig(), cfg.Gesture.Recognizer()); diff != "" {
		t.Errorf("gesture config (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(viewport.DefaultMarkerStyle(), cfg.Markers.Style()); diff != "" {
		t.Errorf("marker style (-want +got):\n%s", diff)
	}
	if cfg.Viewport.Throttle() != viewport.DefaultThrottle {
		t.Errorf("Throttle = %v", cfg.Viewport.Throttle())
	}
	if cfg.Viewport.Animation() != 250*time.Millisecond {
		t.Errorf("Animation = %v", cfg.Viewport.Animation())
	}
	if cfg.Viewport.Epsilon != viewport.DefaultEpsilon {
		t.Errorf("Epsilon = %v", cfg.Viewport.Epsilon)
	}
}

func TestFileAndEnv(t *testing.T) {
	path := writeFile(t, "wallmap.yaml", `
viewport:
  max_scale: 6
  throttle_ms: 50
gesture:
  long_press_ms: 800
wall:
  routes: cave.yaml
log:
  level: debug
  format: json
`)
	t.Setenv("WALLMAP_VIEWPORT_DOUBLE_TAP_SCALE", "3")

	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if src.File() != path {
		t.Errorf("File() = %q, want %q", src.File(), path)
	}
	cfg, err := src.Config()
	if err != nil {
		t.Fatalf("Config: %v", err)
	}

	if cfg.Viewport.MaxScale != 6 || cfg.Viewport.DoubleTapScale != 3 || cfg.Viewport.MinScale != 1 {
		t.Errorf("viewport = %+v", cfg.Viewport)
	}
	if cfg.Viewport.Throttle() != 50*time.Millisecond {
		t.Errorf("Throttle = %v", cfg.Viewport.Throttle())
	}
	if got := cfg.Gesture.Recognizer().LongPress; got != 800*time.Millisecond {
		t.Errorf("LongPress = %v", got)
	}
	if cfg.Wall.Routes != "cave.yaml" || cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("wall/log = %+v %+v", cfg.Wall, cfg.Log)
	}
}

func TestExplicitFileMustExist(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Open accepted a missing explicit file")
	}
}

func TestValidate(t *testing.T) {
	path := writeFile(t, "bad.yaml", `
viewport:
  min_scale: 2
  max_scale: 1
  zoom_step: 1
log:
  format: xml
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load accepted invalid config")
	}
	for _, want := range []string{"max_scale", "double_tap_scale", "zoom_step", "log.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestValidateScaleLimits(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"max above ceiling", "viewport:\n  max_scale: 20\n", "viewport.max_scale must be at most"},
		{"min below floor", "viewport:\n  min_scale: 0.05\n", "viewport.min_scale must be at least"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "limits.yaml", tt.yaml))
			if err == nil {
				t.Fatal("Load accepted out of range scale")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}

	if _, err := Load(writeFile(t, "edge.yaml", "viewport:\n  min_scale: 0.1\n  max_scale: 10\n")); err != nil {
		t.Errorf("limits at the edges rejected: %v", err)
	}
}

func TestWatchWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())
	src, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	if src.Watch(func(*Config, error) {}) {
		t.Error("Watch reported success without a config file")
	}
}

func TestWatchReloads(t *testing.T) {
	path := writeFile(t, "wallmap.yaml", "viewport:\n  max_scale: 4\n")
	src, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	changes := make(chan *Config, 16)
	if !src.Watch(func(cfg *Config, err error) {
		if err == nil {
			select {
			case changes <- cfg:
			default:
			}
		}
	}) {
		t.Fatal("Watch failed")
	}

	if err := os.WriteFile(path, []byte("viewport:\n  max_scale: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changes:
			if cfg.Viewport.MaxScale == 5 {
				return
			}
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
