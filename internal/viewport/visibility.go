package viewport

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"wallmap/internal/telemetry"
	"wallmap/pkg/geometry"

	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/floats"
)

// Marker is a point plotted on the wall. Implementations are owned by the
// data layer and treated as read-only here.
type Marker interface {
	// MarkerID returns a stable identifier.
	MarkerID() string

	// Position returns the normalized position on the wall.
	Position() NormalizedPoint
}

// Graded is implemented by markers that carry a numeric difficulty.
type Graded interface {
	GradeValue() float64
}

// Rated is implemented by markers that carry a numeric rating.
type Rated interface {
	RatingValue() float64
}

// Dated is implemented by markers that know when they were created.
type Dated interface {
	CreatedAt() time.Time
}

// Filter reports whether a marker should be kept.
type Filter func(Marker) bool

// SortKey selects the ordering of visible markers.
type SortKey int

const (
	SortDistance  SortKey = iota // Distance from the viewport center
	SortGradeAsc                 // Easiest first
	SortGradeDesc                // Hardest first
	SortRating                   // Best rated first
	SortRecency                  // Newest first
)

var sortKeyNames = [...]string{"distance", "grade-asc", "grade-desc", "rating", "recency"}

func (k SortKey) String() string {
	if k < 0 || int(k) >= len(sortKeyNames) {
		return fmt.Sprintf("SortKey(%d)", int(k))
	}
	return sortKeyNames[k]
}

// SortKeys lists every sort key in display order.
func SortKeys() []SortKey {
	return []SortKey{SortDistance, SortGradeAsc, SortGradeDesc, SortRating, SortRecency}
}

// ParseSortKey parses the String form of a sort key.
func ParseSortKey(s string) (SortKey, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range sortKeyNames {
		if name == s {
			return SortKey(i), nil
		}
	}
	return SortDistance, fmt.Errorf("unknown sort key %q", s)
}

// Query describes one visibility computation.
type Query struct {
	Markers []Marker

	// Revision identifies the marker list. Callers bump it whenever the
	// list or any marker in it changes.
	Revision uint64

	Transform Transform
	Container geometry.Size
	Content   geometry.Size

	// Filter is optional. FilterKey identifies it for memoization since
	// functions cannot be compared.
	Filter    Filter
	FilterKey string

	Sort SortKey

	// Padding widens the visible region by this many image units.
	Padding float64
}

type queryKey struct {
	revision  uint64
	count     int
	transform Transform
	container geometry.Size
	content   geometry.Size
	filterKey string
	sort      SortKey
	padding   float64
}

func (q Query) key() queryKey {
	return queryKey{
		revision:  q.Revision,
		count:     len(q.Markers),
		transform: q.Transform,
		container: q.Container,
		content:   q.Content,
		filterKey: q.FilterKey,
		sort:      q.Sort,
		padding:   q.Padding,
	}
}

type placed struct {
	marker Marker
	img    geometry.Point2D
	dist   float64
}

// cullMarkers returns the markers whose image-space position lies within the
// padded viewport bounds, in input order. Markers with invalid positions
// are skipped. Nothing is returned while either size is unmeasured.
func cullMarkers(markers []Marker, t Transform, container, content geometry.Size, padding float64) []Marker {
	in := cull(markers, t, container, content, padding)
	out := make([]Marker, len(in))
	for i, p := range in {
		out[i] = p.marker
	}
	return out
}

func cull(markers []Marker, t Transform, container, content geometry.Size, padding float64) []placed {
	if !container.Valid() || !content.Valid() {
		return nil
	}
	bounds := ViewportBounds(t, container).Pad(padding)
	var in []placed
	for _, m := range markers {
		if m == nil {
			continue
		}
		pos := m.Position()
		if !pos.Valid() {
			continue
		}
		img := FromNormalized(pos, content)
		if bounds.Contains(img) {
			in = append(in, placed{marker: m, img: img})
		}
	}
	return in
}

// Visible computes the filtered, ordered list of markers inside the
// viewport described by q.
func Visible(q Query) []Marker {
	in := cull(q.Markers, q.Transform, q.Container, q.Content, q.Padding)
	if q.Filter != nil {
		kept := in[:0]
		for _, p := range in {
			if q.Filter(p.marker) {
				kept = append(kept, p)
			}
		}
		in = kept
	}

	switch q.Sort {
	case SortDistance:
		c := ViewportBounds(q.Transform, q.Container).Center()
		center := []float64{c.X, c.Y}
		for i := range in {
			in[i].dist = floats.Distance([]float64{in[i].img.X, in[i].img.Y}, center, 2)
		}
		sort.SliceStable(in, func(i, j int) bool {
			return in[i].dist < in[j].dist
		})
	case SortGradeAsc:
		sortByValue(in, gradeOf, false)
	case SortGradeDesc:
		sortByValue(in, gradeOf, true)
	case SortRating:
		sortByValue(in, ratingOf, true)
	case SortRecency:
		sort.SliceStable(in, func(i, j int) bool {
			return createdOf(in[i].marker).After(createdOf(in[j].marker))
		})
	}

	out := make([]Marker, len(in))
	for i, p := range in {
		out[i] = p.marker
	}
	return out
}

// sortByValue orders markers by value, pushing markers without a value
// (NaN) to the end regardless of direction.
func sortByValue(in []placed, value func(Marker) float64, desc bool) {
	sort.SliceStable(in, func(i, j int) bool {
		a, b := value(in[i].marker), value(in[j].marker)
		switch {
		case math.IsNaN(a):
			return false
		case math.IsNaN(b):
			return true
		case desc:
			return a > b
		default:
			return a < b
		}
	})
}

func gradeOf(m Marker) float64 {
	if g, ok := m.(Graded); ok {
		return g.GradeValue()
	}
	return math.NaN()
}

func ratingOf(m Marker) float64 {
	if r, ok := m.(Rated); ok {
		return r.RatingValue()
	}
	return math.NaN()
}

func createdOf(m Marker) time.Time {
	if d, ok := m.(Dated); ok {
		return d.CreatedAt()
	}
	return time.Time{}
}

// DefaultThrottle is the minimum interval between visibility recomputations.
const DefaultThrottle = 100 * time.Millisecond

// Culler memoizes Visible and limits how often it is recomputed.
//
// Identical queries are answered from the cache. A changed query is
// recomputed at most once per throttle window; inside the window the
// previous result is returned and reported as stale.
type Culler struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	now     func() time.Time

	have bool
	key  queryKey
	last []Marker
}

// NewCuller creates a culler that recomputes at most once per window.
func NewCuller(window time.Duration) *Culler {
	if window <= 0 {
		window = DefaultThrottle
	}
	return &Culler{
		limiter: rate.NewLimiter(rate.Every(window), 1),
		now:     time.Now,
	}
}

// SetClock replaces the time source.
func (c *Culler) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// SetWindow changes the throttle window.
func (c *Culler) SetWindow(window time.Duration) {
	if window <= 0 {
		window = DefaultThrottle
	}
	c.mu.Lock()
	c.limiter.SetLimitAt(c.now(), rate.Every(window))
	c.mu.Unlock()
}

// Visible returns the visible markers for q. stale is true when the
// returned list was computed for an earlier query.
func (c *Culler) Visible(q Query) (markers []Marker, stale bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := q.key()
	if c.have && k == c.key {
		telemetry.VisibilityCached.WithLabelValues("memo").Inc()
		return c.last, false
	}
	if !c.limiter.AllowN(c.now(), 1) && c.have {
		telemetry.VisibilityCached.WithLabelValues("throttled").Inc()
		return c.last, true
	}

	c.last = Visible(q)
	c.key = k
	c.have = true
	telemetry.VisibilityRecomputes.Inc()
	return c.last, false
}

// Reset drops the cached result.
func (c *Culler) Reset() {
	c.mu.Lock()
	c.have = false
	c.last = nil
	c.mu.Unlock()
}
