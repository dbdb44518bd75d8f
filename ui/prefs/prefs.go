// Package prefs provides JSON-based application preferences.
package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	appDir    = "wallmap"
	prefsFile = "preferences.json"
)

// Keys used by the main window.
const (
	KeySort      = "routes.sort"
	KeyFilter    = "routes.filter"
	KeyLastFile  = "routes.last_file"
	KeyWinWidth  = "window.width"
	KeyWinHeight = "window.height"
	KeyShowNames = "markers.show_names"
)

// Prefs stores application preferences as a key-value map.
type Prefs struct {
	mu     sync.RWMutex
	values map[string]any
	path   string
}

// Load reads preferences from the user config directory, e.g.
// ~/.config/wallmap/preferences.json. Missing or unreadable files yield
// empty preferences.
func Load() *Prefs {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return LoadFrom(filepath.Join(configDir, appDir))
}

// LoadFrom reads preferences stored in dir.
func LoadFrom(dir string) *Prefs {
	p := &Prefs{
		values: make(map[string]any),
		path:   filepath.Join(dir, prefsFile),
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return p
	}
	if err := json.Unmarshal(data, &p.values); err != nil {
		p.values = make(map[string]any)
	}
	return p
}

// Path returns the preferences file location.
func (p *Prefs) Path() string {
	return p.path
}

// Save writes preferences to disk.
func (p *Prefs) Save() error {
	p.mu.RLock()
	data, err := json.MarshalIndent(p.values, "", "  ")
	p.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}

// FloatWithFallback returns a float64 preference, or fallback if not set.
func (p *Prefs) FloatWithFallback(key string, fallback float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key].(float64); ok {
		return v
	}
	return fallback
}

// SetFloat stores a float64 preference.
func (p *Prefs) SetFloat(key string, val float64) {
	p.set(key, val)
}

// String returns a string preference, or "" if not set.
func (p *Prefs) String(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, _ := p.values[key].(string)
	return s
}

// SetString stores a string preference.
func (p *Prefs) SetString(key string, val string) {
	p.set(key, val)
}

// Bool returns a bool preference, or fallback if not set.
func (p *Prefs) Bool(key string, fallback bool) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if b, ok := p.values[key].(bool); ok {
		return b
	}
	return fallback
}

// SetBool stores a bool preference.
func (p *Prefs) SetBool(key string, val bool) {
	p.set(key, val)
}

// Decode unmarshals a structured preference into v. It reports false when
// the key is not set.
func (p *Prefs) Decode(key string, v any) (bool, error) {
	p.mu.RLock()
	raw, ok := p.values[key]
	p.mu.RUnlock()
	if !ok {
		return false, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return true, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("preference %s: %w", key, err)
	}
	return true, nil
}

// Encode stores v as a structured preference.
func (p *Prefs) Encode(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.set(key, raw)
	return nil
}

func (p *Prefs) set(key string, val any) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}
