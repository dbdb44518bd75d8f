package app

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"wallmap/internal/routes"
	"wallmap/internal/viewport"
	"wallmap/pkg/geometry"

	"github.com/google/go-cmp/cmp"
)

var wallSize = geometry.Size{Width: 400, Height: 250}

func route(id, grade string, status routes.Status, x, y float64) routes.Route {
	return routes.Route{
		ID:     id,
		Name:   "Route " + id,
		Grade:  grade,
		Status: status,
		Pos:    viewport.NormalizedPoint{XNorm: x, YNorm: y},
	}
}

func sampleRoutes() []routes.Route {
	return []routes.Route{
		route("a", "V5", routes.StatusActive, 0.5, 0.5),
		route("b", "V2", routes.StatusActive, 0.2, 0.2),
		route("c", "V1", routes.StatusArchived, 0.5, 0.5),
		route("d", "V3", routes.StatusProject, 0.9, 0.9),
	}
}

func routeIDs(rs []routes.Route) []string {
	var ids []string
	for _, r := range rs {
		ids = append(ids, r.ID)
	}
	return ids
}

// waitVisible polls until the visible list settles on want. Updates inside
// the throttle window arrive through the trailing refresh.
func waitVisible(t *testing.T, s *State, want []string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		got := routeIDs(s.VisibleRoutes())
		if cmp.Equal(want, got) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("visible routes mismatch (-want +got):\n%s", cmp.Diff(want, got))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func newTestState(t *testing.T) *State {
	t.Helper()
	s := NewState(20 * time.Millisecond)
	t.Cleanup(s.Close)
	s.SetLayout(wallSize, wallSize)
	s.SetRoutes(sampleRoutes())
	return s
}

func TestStateVisibleRoutes(t *testing.T) {
	s := newTestState(t)
	waitVisible(t, s, []string{"a", "b"})
	if diff := cmp.Diff([]string{"a", "b"}, routeIDs(s.FilteredRoutes())); diff != "" {
		t.Errorf("filtered routes (-want +got):\n%s", diff)
	}

	if err := s.SetFilter(routes.Filter{Statuses: []routes.Status{routes.StatusActive, routes.StatusProject}}); err != nil {
		t.Fatal(err)
	}
	waitVisible(t, s, []string{"a", "b", "d"})

	s.SetSort(viewport.SortGradeAsc)
	waitVisible(t, s, []string{"b", "d", "a"})

	if diff := cmp.Diff([]string{"a", "b", "d"}, routeIDs(s.FilteredRoutes())); diff != "" {
		t.Errorf("filtered routes (-want +got):\n%s", diff)
	}

	// Zoomed on the wall center only route a stays in view.
	s.OnTransform(viewport.Transform{Scale: 2, TranslateX: -200, TranslateY: -125})
	waitVisible(t, s, []string{"a"})

	// Padding pulls route b back in.
	s.SetPadding(40)
	waitVisible(t, s, []string{"b", "a"})
}

func TestStateNotLaidOut(t *testing.T) {
	s := NewState(20 * time.Millisecond)
	t.Cleanup(s.Close)
	s.SetRoutes(sampleRoutes())
	if got := s.VisibleRoutes(); len(got) != 0 {
		t.Errorf("VisibleRoutes() before layout = %v, want none", routeIDs(got))
	}
}

func TestStateEvents(t *testing.T) {
	s := newTestState(t)

	var mu sync.Mutex
	var got []string
	record := func(name string) EventListener {
		return func(interface{}) {
			mu.Lock()
			got = append(got, name)
			mu.Unlock()
		}
	}
	s.On(EventSortChanged, record("sort"))
	s.On(EventFilterChanged, record("filter"))
	s.On(EventSelectionChanged, record("select"))
	s.On(EventTransformChanged, record("transform"))

	s.SetSort(viewport.SortRating)
	s.SetSort(viewport.SortRating)
	if err := s.SetFilter(routes.Filter{Search: "route"}); err != nil {
		t.Fatal(err)
	}
	s.Select("a")
	s.Select("a")
	s.OnTransform(viewport.Identity())

	mu.Lock()
	defer mu.Unlock()
	want := []string{"sort", "filter", "select", "transform"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestStateSetFilterInvalid(t *testing.T) {
	s := newTestState(t)
	if err := s.SetFilter(routes.Filter{MinGrade: "hard"}); err == nil {
		t.Fatal("SetFilter accepted an invalid grade")
	}
	if diff := cmp.Diff(routes.Filter{}, s.Filter()); diff != "" {
		t.Errorf("filter changed (-want +got):\n%s", diff)
	}
}

func TestStatePlaceRoute(t *testing.T) {
	s := newTestState(t)

	var placed []routes.Route
	s.On(EventRoutePlaced, func(data interface{}) {
		placed = append(placed, data.(routes.Route))
	})

	zoomed := viewport.Transform{Scale: 2, TranslateX: -200, TranslateY: -125}
	tests := []struct {
		name    string
		screen  geometry.Point2D
		t       viewport.Transform
		grade   string
		wantPos viewport.NormalizedPoint
		wantErr bool
	}{
		{"identity", geometry.Point2D{X: 100, Y: 50}, viewport.Identity(), "V4", viewport.NormalizedPoint{XNorm: 0.25, YNorm: 0.2}, false},
		{"zoomed center", geometry.Point2D{X: 200, Y: 125}, zoomed, "6B+", viewport.NormalizedPoint{XNorm: 0.5, YNorm: 0.5}, false},
		{"off the wall", geometry.Point2D{X: 500, Y: 10}, viewport.Identity(), "V4", viewport.NormalizedPoint{}, true},
		{"bad grade", geometry.Point2D{X: 10, Y: 10}, viewport.Identity(), "hard", viewport.NormalizedPoint{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := s.PlaceRoute(tt.screen, tt.t, "new", tt.grade)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("PlaceRoute() = %v, want error", r)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.wantPos, r.Pos); diff != "" {
				t.Errorf("position (-want +got):\n%s", diff)
			}
			if r.ID == "" || r.Status != routes.StatusProject {
				t.Errorf("placed route = %+v", r)
			}
			if _, ok := s.Route(r.ID); !ok {
				t.Errorf("route %s not stored", r.ID)
			}
		})
	}

	if len(placed) != 2 {
		t.Errorf("placed events = %d, want 2", len(placed))
	}
	if !s.Modified {
		t.Error("state not marked modified")
	}
	if n := len(s.Routes()); n != 6 {
		t.Errorf("route count = %d, want 6", n)
	}
}

func TestStatePlaceRouteOutside(t *testing.T) {
	s := newTestState(t)
	_, err := s.PlaceRoute(geometry.Point2D{X: -1, Y: 10}, viewport.Identity(), "x", "V0")
	if !errors.Is(err, ErrOutsideWall) {
		t.Errorf("PlaceRoute() error = %v, want ErrOutsideWall", err)
	}
}

func TestStateRouteAt(t *testing.T) {
	s := newTestState(t)
	waitVisible(t, s, []string{"a", "b"})

	tests := []struct {
		name   string
		screen geometry.Point2D
		want   string
		ok     bool
	}{
		{"on a", geometry.Point2D{X: 203, Y: 126}, "a", true},
		{"near b", geometry.Point2D{X: 90, Y: 50}, "b", true},
		{"archived c hidden", geometry.Point2D{X: 200, Y: 140}, "a", true},
		{"empty wall", geometry.Point2D{X: 300, Y: 30}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := s.RouteAt(tt.screen, viewport.Identity(), 16)
			if ok != tt.ok || r.ID != tt.want {
				t.Errorf("RouteAt(%v) = %q, %v; want %q, %v", tt.screen, r.ID, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestStateLoadRoutesSkipsThrottle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	if err := (&routes.File{Routes: sampleRoutes()}).Save(path); err != nil {
		t.Fatal(err)
	}

	s := NewState(time.Hour)
	t.Cleanup(s.Close)
	s.SetLayout(wallSize, wallSize)
	s.SetRoutes(sampleRoutes()[:1])
	if got := routeIDs(s.VisibleRoutes()); len(got) != 0 {
		t.Fatalf("visible inside throttle window = %v, want none", got)
	}

	if err := s.LoadRoutes(path); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, routeIDs(s.VisibleRoutes())); diff != "" {
		t.Errorf("visible after load (-want +got):\n%s", diff)
	}
}

func TestStateRouteAtEdgeMarker(t *testing.T) {
	s := newTestState(t)
	// Centre 2.5 image pixels right of the zoomed viewport: culled from the
	// visible list but half drawn on screen.
	rs := append(sampleRoutes(), route("e", "V4", routes.StatusActive, 302.5/400, 0.5))
	s.SetRoutes(rs)

	zoomed := viewport.Transform{Scale: 2, TranslateX: -200, TranslateY: -125}
	s.OnTransform(zoomed)
	waitVisible(t, s, []string{"a"})

	r, ok := s.RouteAt(geometry.Point2D{X: 396, Y: 125}, zoomed, 16)
	if !ok || r.ID != "e" {
		t.Errorf("RouteAt on edge marker = %q, %v; want e, true", r.ID, ok)
	}
}

func TestStateRouteAtBeforeRefresh(t *testing.T) {
	s := NewState(time.Hour)
	t.Cleanup(s.Close)
	s.SetLayout(wallSize, wallSize)
	s.SetRoutes(sampleRoutes()[:1])
	// Inside the throttle window the visible list still lacks b.
	s.SetRoutes(sampleRoutes())

	r, ok := s.RouteAt(geometry.Point2D{X: 80, Y: 50}, viewport.Identity(), 16)
	if !ok || r.ID != "b" {
		t.Errorf("RouteAt = %q, %v; want b, true", r.ID, ok)
	}
}

func TestStateRemoveRoute(t *testing.T) {
	s := newTestState(t)
	s.Select("b")
	if !s.RemoveRoute("b") {
		t.Fatal("RemoveRoute(b) = false")
	}
	if s.RemoveRoute("b") {
		t.Error("second RemoveRoute(b) = true")
	}
	if s.Selected() != "" {
		t.Errorf("selection = %q after removing it", s.Selected())
	}
	waitVisible(t, s, []string{"a"})
}

func TestStateLoadSave(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "routes.yaml")
	f := routes.File{
		Wall:   routes.Wall{Name: "Cave", Image: "cave.jpg", Width: 1600, Height: 2560},
		Routes: sampleRoutes(),
	}
	if err := f.Save(src); err != nil {
		t.Fatal(err)
	}

	s := NewState(20 * time.Millisecond)
	t.Cleanup(s.Close)

	var loaded string
	s.On(EventRoutesLoaded, func(data interface{}) { loaded = data.(string) })

	if err := s.LoadRoutes(src); err != nil {
		t.Fatal(err)
	}
	if loaded != src {
		t.Errorf("loaded event path = %q, want %q", loaded, src)
	}
	if diff := cmp.Diff(f.Wall, s.Wall); diff != "" {
		t.Errorf("wall (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, routeIDs(s.Routes())); diff != "" {
		t.Errorf("routes (-want +got):\n%s", diff)
	}

	s.SetModified(true)
	dst := filepath.Join(dir, "copy.yaml")
	if err := s.SaveRoutes(dst); err != nil {
		t.Fatal(err)
	}
	if s.Modified || s.RoutesPath != dst {
		t.Errorf("after save: modified=%v path=%q", s.Modified, s.RoutesPath)
	}
	back, err := routes.LoadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(routeIDs(f.Routes), routeIDs(back.Routes)); diff != "" {
		t.Errorf("saved routes (-want +got):\n%s", diff)
	}

	if err := s.LoadRoutes(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadRoutes accepted a missing file")
	}
}

func TestFileWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	if err := os.WriteFile(path, []byte("routes: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatal(err)
	}

	changed := make(chan struct{}, 4)
	w, err := NewFileWatcher(path, 10*time.Millisecond, func() { changed <- struct{}{} })
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)

	if err := os.WriteFile(path, []byte("routes: []\n# edited\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestStateUpdateRoute(t *testing.T) {
	s := newTestState(t)

	r, _ := s.Route("d")
	r.Status = routes.StatusActive
	if err := s.UpdateRoute(r); err != nil {
		t.Fatal(err)
	}
	waitVisible(t, s, []string{"a", "b", "d"})

	r.Grade = "impossible"
	if err := s.UpdateRoute(r); err == nil {
		t.Error("UpdateRoute accepted an invalid grade")
	}
	if err := s.UpdateRoute(route("zz", "V1", routes.StatusActive, 0.1, 0.1)); err == nil {
		t.Error("UpdateRoute accepted an unknown route")
	}
}
