package routes

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Wall describes the photo the routes are plotted on.
type Wall struct {
	Name   string `yaml:"name"`
	Image  string `yaml:"image,omitempty"`  // Path to the wall photo
	Width  int    `yaml:"width,omitempty"`  // Photo width in pixels
	Height int    `yaml:"height,omitempty"` // Photo height in pixels
}

// Aspect returns the photo height divided by its width, or 0 when unknown.
func (w Wall) Aspect() float64 {
	if w.Width <= 0 || w.Height <= 0 {
		return 0
	}
	return float64(w.Height) / float64(w.Width)
}

// SetImage stores imagePath relative to the route file when possible.
func (w *Wall) SetImage(routesPath, imagePath string) {
	rel, err := filepath.Rel(filepath.Dir(routesPath), imagePath)
	if err != nil {
		w.Image = imagePath
		return
	}
	w.Image = rel
}

// ImagePath returns the photo path resolved against the route file's
// directory, or "" when no photo is set.
func (w Wall) ImagePath(routesPath string) string {
	if w.Image == "" {
		return ""
	}
	if filepath.IsAbs(w.Image) {
		return w.Image
	}
	return filepath.Join(filepath.Dir(routesPath), w.Image)
}

// File is a YAML route list for one wall.
type File struct {
	Wall   Wall    `yaml:"wall"`
	Routes []Route `yaml:"routes"`
}

// LoadFile reads and validates a route file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a route file.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse routes: %w", err)
	}
	if err := Validate(f.Routes); err != nil {
		return nil, fmt.Errorf("invalid routes: %w", err)
	}
	return &f, nil
}

// Save writes the file as YAML.
func (f *File) Save(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks IDs, positions and grades. Every problem is reported.
func Validate(rs []Route) error {
	var errs []error
	seen := make(map[string]bool, len(rs))
	for i, r := range rs {
		switch {
		case r.ID == "":
			errs = append(errs, fmt.Errorf("route %d: missing id", i))
		case seen[r.ID]:
			errs = append(errs, fmt.Errorf("route %s: duplicate id", r.ID))
		}
		seen[r.ID] = true

		if !r.Pos.Valid() {
			errs = append(errs, fmt.Errorf("route %s: position (%v, %v) outside the wall", r.ID, r.Pos.XNorm, r.Pos.YNorm))
		}
		if r.Grade != "" {
			if _, err := ParseGrade(r.Grade); err != nil {
				errs = append(errs, fmt.Errorf("route %s: %w", r.ID, err))
			}
		}
	}
	return errors.Join(errs...)
}
