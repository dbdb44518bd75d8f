// Package routes provides the climbing route model plotted on the wall map.
package routes

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
	"time"

	"wallmap/internal/viewport"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a route.
type Status int

const (
	StatusActive   Status = iota // Set and climbable
	StatusProject                // Placed on the map, not yet set
	StatusArchived               // Stripped from the wall
)

var statusNames = [...]string{"active", "project", "archived"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// ParseStatus parses the String form of a status.
func ParseStatus(s string) (Status, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range statusNames {
		if name == s {
			return Status(i), nil
		}
	}
	return StatusActive, fmt.Errorf("unknown route status %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Route is a single problem on the wall.
type Route struct {
	ID      string                   `yaml:"id" json:"id"`                               // Stable identifier
	Name    string                   `yaml:"name" json:"name"`                           // Display name
	Grade   string                   `yaml:"grade" json:"grade"`                         // Grade label, e.g. "V4" or "6B+"
	Color   string                   `yaml:"color,omitempty" json:"color,omitempty"`     // Hold color as #rrggbb
	Setter  string                   `yaml:"setter,omitempty" json:"setter,omitempty"`   // Who set it
	Status  Status                   `yaml:"status" json:"status"`                       // Lifecycle state
	Rating  float64                  `yaml:"rating,omitempty" json:"rating,omitempty"`   // Average rating 1-5, 0 when unrated
	Created time.Time                `yaml:"created,omitempty" json:"created,omitempty"` // When the route was set
	Pos     viewport.NormalizedPoint `yaml:"pos" json:"pos"`                             // Position on the wall photo
}

// New creates a project route at pos with a fresh ID.
func New(name, grade string, pos viewport.NormalizedPoint, now time.Time) Route {
	return Route{
		ID:      uuid.NewString(),
		Name:    name,
		Grade:   grade,
		Status:  StatusProject,
		Created: now,
		Pos:     pos,
	}
}

// MarkerID implements viewport.Marker.
func (r Route) MarkerID() string { return r.ID }

// Position implements viewport.Marker.
func (r Route) Position() viewport.NormalizedPoint { return r.Pos }

// GradeValue returns the V-scale value of the grade, NaN if it cannot be
// parsed.
func (r Route) GradeValue() float64 {
	v, err := ParseGrade(r.Grade)
	if err != nil {
		return math.NaN()
	}
	return v
}

// RatingValue returns the rating, NaN when unrated.
func (r Route) RatingValue() float64 {
	if r.Rating <= 0 {
		return math.NaN()
	}
	return r.Rating
}

// CreatedAt returns when the route was set.
func (r Route) CreatedAt() time.Time { return r.Created }

// Label returns the short text drawn inside the route marker.
func (r Route) Label() string {
	if r.Grade != "" {
		return r.Grade
	}
	return "?"
}

// DefaultColor is used for routes without a valid hold color.
var DefaultColor = color.NRGBA{R: 0x60, G: 0x7d, B: 0x8b, A: 0xff}

// HoldColor parses Color, falling back to DefaultColor.
func (r Route) HoldColor() color.NRGBA {
	c, err := ParseColor(r.Color)
	if err != nil {
		return DefaultColor
	}
	return c
}

// ParseColor parses a #rrggbb or #rgb color.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Markers converts routes to viewport markers.
func Markers(rs []Route) []viewport.Marker {
	out := make([]viewport.Marker, len(rs))
	for i, r := range rs {
		out[i] = r
	}
	return out
}
