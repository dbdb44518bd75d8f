package routes

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"wallmap/internal/viewport"
)

// Filter selects which routes are listed. The zero value keeps active
// routes of any grade.
type Filter struct {
	Statuses []Status `json:"statuses,omitempty"`  // Allowed statuses; empty means active only
	MinGrade string   `json:"min_grade,omitempty"` // Lowest grade, inclusive
	MaxGrade string   `json:"max_grade,omitempty"` // Highest grade, inclusive
	Setter   string   `json:"setter,omitempty"`    // Exact setter, case insensitive
	Search   string   `json:"search,omitempty"`    // Substring of the route name
}

// Key returns a canonical string identifying the filter. Equal filters have
// equal keys.
func (f Filter) Key() string {
	st := f.statuses()
	names := make([]string, len(st))
	for i, s := range st {
		names[i] = s.String()
	}
	sort.Strings(names)
	return fmt.Sprintf("status=%s;grade=%s..%s;setter=%s;search=%s",
		strings.Join(names, ","),
		strings.ToUpper(strings.TrimSpace(f.MinGrade)),
		strings.ToUpper(strings.TrimSpace(f.MaxGrade)),
		strings.ToLower(strings.TrimSpace(f.Setter)),
		strings.ToLower(strings.TrimSpace(f.Search)))
}

func (f Filter) statuses() []Status {
	if len(f.Statuses) == 0 {
		return []Status{StatusActive}
	}
	return f.Statuses
}

// Compile validates the filter and returns a marker predicate. Markers that
// are not routes never match.
func (f Filter) Compile() (viewport.Filter, error) {
	lo, hi := math.Inf(-1), math.Inf(1)
	var err error
	if strings.TrimSpace(f.MinGrade) != "" {
		if lo, err = ParseGrade(f.MinGrade); err != nil {
			return nil, fmt.Errorf("min grade: %w", err)
		}
	}
	if strings.TrimSpace(f.MaxGrade) != "" {
		if hi, err = ParseGrade(f.MaxGrade); err != nil {
			return nil, fmt.Errorf("max grade: %w", err)
		}
	}
	if lo > hi {
		return nil, fmt.Errorf("min grade %s above max grade %s", f.MinGrade, f.MaxGrade)
	}

	allowed := make(map[Status]bool)
	for _, s := range f.statuses() {
		allowed[s] = true
	}
	setter := strings.ToLower(strings.TrimSpace(f.Setter))
	search := strings.ToLower(strings.TrimSpace(f.Search))
	bounded := !math.IsInf(lo, -1) || !math.IsInf(hi, 1)

	return func(m viewport.Marker) bool {
		r, ok := m.(Route)
		if !ok {
			return false
		}
		if !allowed[r.Status] {
			return false
		}
		if bounded {
			g := r.GradeValue()
			if math.IsNaN(g) || g < lo || g > hi {
				return false
			}
		}
		if setter != "" && strings.ToLower(r.Setter) != setter {
			return false
		}
		if search != "" && !strings.Contains(strings.ToLower(r.Name), search) {
			return false
		}
		return true
	}, nil
}

// Matches reports whether r passes the filter. Invalid filters match
// nothing.
func (f Filter) Matches(r Route) bool {
	pred, err := f.Compile()
	if err != nil {
		return false
	}
	return pred(r)
}
