// Package app holds the application state shared by the wall view, the
// route list and the headless tools.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"wallmap/internal/routes"
	"wallmap/internal/viewport"
	"wallmap/pkg/geometry"
)

// State holds the loaded routes, the list settings and the latest reported
// viewport, and keeps the visible route list current.
type State struct {
	mu sync.RWMutex

	// Route file
	RoutesPath string
	Wall       routes.Wall
	Modified   bool

	routes   []routes.Route
	markers  []viewport.Marker
	revision uint64
	selected string

	// List settings
	sort      viewport.SortKey
	filter    routes.Filter
	predicate viewport.Filter
	padding   float64

	// Viewport as last reported
	transform viewport.Transform
	container geometry.Size
	content   geometry.Size

	culler  *viewport.Culler
	window  time.Duration
	visible []viewport.Marker
	refresh *time.Timer
	closed  bool

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventRoutesLoaded     EventType = iota // data: path
	EventRoutesSaved                       // data: path
	EventRoutesChanged                     // data: []routes.Route
	EventRoutePlaced                       // data: routes.Route
	EventSelectionChanged                  // data: route ID, "" for none
	EventTransformChanged                  // data: viewport.Transform
	EventVisibleChanged                    // data: []routes.Route
	EventSortChanged                       // data: viewport.SortKey
	EventFilterChanged                     // data: routes.Filter
	EventModified                          // data: bool
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates an empty state. window limits how often the visible list
// is recomputed while the viewport moves.
func NewState(window time.Duration) *State {
	if window <= 0 {
		window = viewport.DefaultThrottle
	}
	pred, _ := routes.Filter{}.Compile()
	return &State{
		transform: viewport.Identity(),
		predicate: pred,
		culler:    viewport.NewCuller(window),
		window:    window,
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the route file as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// SetThrottle changes the visible list recompute window.
func (s *State) SetThrottle(window time.Duration) {
	if window <= 0 {
		window = viewport.DefaultThrottle
	}
	s.mu.Lock()
	s.window = window
	s.mu.Unlock()
	s.culler.SetWindow(window)
}

// Close stops any pending refresh. Later updates are still applied but no
// refresh is scheduled.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.refresh != nil {
		s.refresh.Stop()
		s.refresh = nil
	}
}

// LoadRoutes loads a route file and replaces the current routes.
func (s *State) LoadRoutes(path string) error {
	f, err := routes.LoadFile(path)
	if err != nil {
		return fmt.Errorf("load routes %s: %w", path, err)
	}

	s.mu.Lock()
	s.RoutesPath = path
	s.Wall = f.Wall
	s.Modified = false
	s.mu.Unlock()

	// A new file is shown at once, even inside the throttle window.
	s.culler.Reset()
	s.SetRoutes(f.Routes)
	s.Emit(EventRoutesLoaded, path)
	return nil
}

// SaveRoutes writes the current routes to path.
func (s *State) SaveRoutes(path string) error {
	s.mu.RLock()
	f := routes.File{Wall: s.Wall, Routes: slices.Clone(s.routes)}
	s.mu.RUnlock()

	if err := f.Save(path); err != nil {
		return fmt.Errorf("save routes %s: %w", path, err)
	}

	s.mu.Lock()
	s.RoutesPath = path
	s.Modified = false
	s.mu.Unlock()

	s.Emit(EventRoutesSaved, path)
	s.Emit(EventModified, false)
	return nil
}

// SetRoutes replaces the route list.
func (s *State) SetRoutes(rs []routes.Route) {
	rs = slices.Clone(rs)
	s.mu.Lock()
	s.routes = rs
	s.markers = routes.Markers(rs)
	s.revision++
	s.mu.Unlock()

	s.Emit(EventRoutesChanged, slices.Clone(rs))
	s.updateVisible()
}

// Routes returns a copy of all routes.
func (s *State) Routes() []routes.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.routes)
}

// Route looks up a route by ID.
func (s *State) Route(id string) (routes.Route, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.routes {
		if r.ID == id {
			return r, true
		}
	}
	return routes.Route{}, false
}

// Select marks a route as selected. An empty ID clears the selection.
func (s *State) Select(id string) {
	s.mu.Lock()
	if s.selected == id {
		s.mu.Unlock()
		return
	}
	s.selected = id
	s.mu.Unlock()
	s.Emit(EventSelectionChanged, id)
}

// Selected returns the selected route ID.
func (s *State) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// SetSort changes the visible list ordering.
func (s *State) SetSort(k viewport.SortKey) {
	s.mu.Lock()
	if s.sort == k {
		s.mu.Unlock()
		return
	}
	s.sort = k
	s.mu.Unlock()

	s.Emit(EventSortChanged, k)
	s.updateVisible()
}

// Sort returns the current ordering.
func (s *State) Sort() viewport.SortKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sort
}

// SetFilter changes which routes are listed. Invalid filters are rejected
// and leave the current one in place.
func (s *State) SetFilter(f routes.Filter) error {
	pred, err := f.Compile()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.filter = f
	s.predicate = pred
	s.mu.Unlock()

	s.Emit(EventFilterChanged, f)
	s.updateVisible()
	return nil
}

// Filter returns the current filter.
func (s *State) Filter() routes.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// SetPadding widens the visible region by margin image units.
func (s *State) SetPadding(margin float64) {
	s.mu.Lock()
	s.padding = geometry.Finite(math.Max(margin, 0), 0)
	s.mu.Unlock()
	s.updateVisible()
}

// SetLayout records the measured container and content sizes.
func (s *State) SetLayout(container, content geometry.Size) {
	s.mu.Lock()
	if s.container == container && s.content == content {
		s.mu.Unlock()
		return
	}
	s.container, s.content = container, content
	s.mu.Unlock()
	s.updateVisible()
}

// Layout returns the last recorded container and content sizes.
func (s *State) Layout() (container, content geometry.Size) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.container, s.content
}

// OnTransform records a reported viewport change. It is safe to call from
// the reporter goroutine.
func (s *State) OnTransform(t viewport.Transform) {
	s.mu.Lock()
	s.transform = t
	s.mu.Unlock()

	s.Emit(EventTransformChanged, t)
	s.updateVisible()
}

// Transform returns the last reported viewport transform.
func (s *State) Transform() viewport.Transform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transform
}

// VisibleRoutes returns the routes in the current viewport, filtered and
// ordered.
func (s *State) VisibleRoutes() []routes.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return toRoutes(s.visible)
}

func toRoutes(ms []viewport.Marker) []routes.Route {
	out := make([]routes.Route, 0, len(ms))
	for _, m := range ms {
		if r, ok := m.(routes.Route); ok {
			out = append(out, r)
		}
	}
	return out
}

func (s *State) query() viewport.Query {
	return viewport.Query{
		Markers:   s.markers,
		Revision:  s.revision,
		Transform: s.transform,
		Container: s.container,
		Content:   s.content,
		Filter:    s.predicate,
		FilterKey: s.filter.Key(),
		Sort:      s.sort,
		Padding:   s.padding,
	}
}

// updateVisible recomputes the visible list through the throttled culler.
// A throttled answer schedules one trailing recompute so the list settles
// on the final viewport.
func (s *State) updateVisible() {
	s.mu.Lock()
	visible, stale := s.culler.Visible(s.query())
	if stale && s.refresh == nil && !s.closed {
		s.refresh = time.AfterFunc(s.window, s.trailingRefresh)
	}
	changed := !sameMarkers(s.visible, visible)
	s.visible = visible
	s.mu.Unlock()

	if changed {
		slog.Debug("visible routes changed", "count", len(visible), "stale", stale)
		s.Emit(EventVisibleChanged, toRoutes(visible))
	}
}

func (s *State) trailingRefresh() {
	s.mu.Lock()
	s.refresh = nil
	s.mu.Unlock()
	s.updateVisible()
}

func sameMarkers(a, b []viewport.Marker) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].MarkerID() != b[i].MarkerID() {
			return false
		}
	}
	return true
}

// ErrOutsideWall is returned when a route is placed off the wall image.
var ErrOutsideWall = errors.New("point is outside the wall image")

// PlaceRoute creates a route at a screen point under transform t and adds
// it to the route list.
func (s *State) PlaceRoute(screen geometry.Point2D, t viewport.Transform, name, grade string) (routes.Route, error) {
	s.mu.RLock()
	content := s.content
	s.mu.RUnlock()

	if !content.Valid() {
		return routes.Route{}, fmt.Errorf("place route: wall not laid out")
	}
	img := viewport.ToImage(screen, t)
	if !img.IsFinite() || img.X < 0 || img.Y < 0 || img.X > content.Width || img.Y > content.Height {
		return routes.Route{}, ErrOutsideWall
	}
	if _, err := routes.ParseGrade(grade); err != nil {
		return routes.Route{}, err
	}

	r := routes.New(name, grade, viewport.ToNormalized(img, content), time.Now())

	s.mu.Lock()
	rs := append(slices.Clone(s.routes), r)
	s.mu.Unlock()

	s.SetRoutes(rs)
	s.SetModified(true)
	s.Emit(EventRoutePlaced, r)
	return r, nil
}

// RemoveRoute deletes a route by ID.
func (s *State) RemoveRoute(id string) bool {
	s.mu.Lock()
	i := slices.IndexFunc(s.routes, func(r routes.Route) bool { return r.ID == id })
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	rs := slices.Delete(slices.Clone(s.routes), i, i+1)
	if s.selected == id {
		s.selected = ""
	}
	s.mu.Unlock()

	s.SetRoutes(rs)
	s.SetModified(true)
	return true
}

// RouteAt returns the drawn route whose marker is nearest to a screen
// point, within radius screen pixels. Every route passing the filter is a
// candidate, including markers only partly inside the viewport.
func (s *State) RouteAt(screen geometry.Point2D, t viewport.Transform, radius float64) (routes.Route, bool) {
	s.mu.RLock()
	content := s.content
	s.mu.RUnlock()

	if !content.Valid() {
		return routes.Route{}, false
	}
	best, bestDist := routes.Route{}, math.Inf(1)
	for _, r := range s.FilteredRoutes() {
		if !r.Pos.Valid() {
			continue
		}
		p := viewport.ToScreen(viewport.FromNormalized(r.Pos, content), t)
		if d := p.Distance(screen); d <= radius && d < bestDist {
			best, bestDist = r, d
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

// UpdateRoute replaces the route with the same ID after validating it.
func (s *State) UpdateRoute(r routes.Route) error {
	if err := routes.Validate([]routes.Route{r}); err != nil {
		return err
	}
	s.mu.Lock()
	i := slices.IndexFunc(s.routes, func(old routes.Route) bool { return old.ID == r.ID })
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("route %s not found", r.ID)
	}
	rs := slices.Clone(s.routes)
	rs[i] = r
	s.mu.Unlock()

	s.SetRoutes(rs)
	s.SetModified(true)
	return nil
}

// FilteredRoutes returns every route passing the current filter, wherever
// it is on the wall.
func (s *State) FilteredRoutes() []routes.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []routes.Route
	for i, m := range s.markers {
		if s.predicate == nil || s.predicate(m) {
			out = append(out, s.routes[i])
		}
	}
	return out
}

// SetWall replaces the wall description and marks the file modified.
func (s *State) SetWall(w routes.Wall) {
	s.mu.Lock()
	s.Wall = w
	s.mu.Unlock()
	s.SetModified(true)
}
