// Package config loads wallmap tuning from defaults, an optional YAML file
// and WALLMAP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"wallmap/internal/viewport"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Viewport ViewportConfig `mapstructure:"viewport"`
	Gesture  GestureConfig  `mapstructure:"gesture"`
	Markers  MarkerConfig   `mapstructure:"markers"`
	Wall     WallConfig     `mapstructure:"wall"`
	Log      LogConfig      `mapstructure:"log"`
}

type ViewportConfig struct {
	MinScale       float64 `mapstructure:"min_scale"`
	MaxScale       float64 `mapstructure:"max_scale"`
	DoubleTapScale float64 `mapstructure:"double_tap_scale"`
	ZoomStep       float64 `mapstructure:"zoom_step"`
	Epsilon        float64 `mapstructure:"epsilon"`
	ThrottleMS     int     `mapstructure:"throttle_ms"`
	AnimationMS    int     `mapstructure:"animation_ms"`
	Padding        float64 `mapstructure:"padding"`
	ContentAspect  float64 `mapstructure:"content_aspect"`
}

// Options converts the section to engine options.
func (c ViewportConfig) Options() viewport.Options {
	return viewport.Options{
		MinScale:       c.MinScale,
		MaxScale:       c.MaxScale,
		DoubleTapScale: c.DoubleTapScale,
		ZoomStep:       c.ZoomStep,
		ContentAspect:  c.ContentAspect,
	}
}

// Throttle returns the visibility recompute window.
func (c ViewportConfig) Throttle() time.Duration {
	return time.Duration(c.ThrottleMS) * time.Millisecond
}

// Animation returns the duration of settle and zoom animations.
func (c ViewportConfig) Animation() time.Duration {
	return time.Duration(c.AnimationMS) * time.Millisecond
}

type GestureConfig struct {
	TapSlop       float64 `mapstructure:"tap_slop"`
	DoubleTapSlop float64 `mapstructure:"double_tap_slop"`
	DoubleTapMS   int     `mapstructure:"double_tap_ms"`
	LongPressMS   int     `mapstructure:"long_press_ms"`
}

// Recognizer converts the section to recognizer thresholds.
func (c GestureConfig) Recognizer() viewport.GestureConfig {
	return viewport.GestureConfig{
		TapSlop:           c.TapSlop,
		DoubleTapSlop:     c.DoubleTapSlop,
		DoubleTapInterval: time.Duration(c.DoubleTapMS) * time.Millisecond,
		LongPress:         time.Duration(c.LongPressMS) * time.Millisecond,
	}
}

type MarkerConfig struct {
	BaseSize float64 `mapstructure:"base_size"`
	BaseFont float64 `mapstructure:"base_font"`
}

// Style returns the unzoomed marker style.
func (c MarkerConfig) Style() viewport.MarkerStyle {
	return viewport.MarkerStyle{Size: c.BaseSize, Font: c.BaseFont}
}

type WallConfig struct {
	Routes string `mapstructure:"routes"` // Route YAML file
	Image  string `mapstructure:"image"`  // Wall photo, overrides the route file's image
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	opts := viewport.DefaultOptions()
	v.SetDefault("viewport.min_scale", opts.MinScale)
	v.SetDefault("viewport.max_scale", opts.MaxScale)
	v.SetDefault("viewport.double_tap_scale", opts.DoubleTapScale)
	v.SetDefault("viewport.zoom_step", opts.ZoomStep)
	v.SetDefault("viewport.epsilon", viewport.DefaultEpsilon)
	v.SetDefault("viewport.throttle_ms", int(viewport.DefaultThrottle/time.Millisecond))
	v.SetDefault("viewport.animation_ms", 250)
	v.SetDefault("viewport.padding", 0)
	v.SetDefault("viewport.content_aspect", opts.ContentAspect)

	g := viewport.DefaultGestureConfig()
	v.SetDefault("gesture.tap_slop", g.TapSlop)
	v.SetDefault("gesture.double_tap_slop", g.DoubleTapSlop)
	v.SetDefault("gesture.double_tap_ms", int(g.DoubleTapInterval/time.Millisecond))
	v.SetDefault("gesture.long_press_ms", int(g.LongPress/time.Millisecond))

	v.SetDefault("markers.base_size", viewport.DefaultMarkerSize)
	v.SetDefault("markers.base_font", viewport.DefaultMarkerFont)

	v.SetDefault("wall.routes", "")
	v.SetDefault("wall.image", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Source is an opened configuration that can be re-read and watched.
type Source struct {
	mu sync.Mutex
	v  *viper.Viper
}

// Open prepares a configuration source. An empty path searches for
// wallmap.yaml in . and ./configs; a missing file is not an error then. An
// explicit path must exist.
func Open(path string) (*Source, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("wallmap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// Environment variables: WALLMAP_VIEWPORT_MAX_SCALE → viewport.max_scale
	v.SetEnvPrefix("WALLMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Source{v: v}, nil
}

// Load reads and validates configuration in one step.
func Load(path string) (*Config, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	return src.Config()
}

// File returns the config file in use, or "" when running on defaults.
func (s *Source) File() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.ConfigFileUsed()
}

// Config decodes and validates the current configuration.
func (s *Source) Config() (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cfg Config
	if err := s.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch calls onChange with the re-read configuration whenever the config
// file changes. It reports false when there is no file to watch.
func (s *Source) Watch(onChange func(*Config, error)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.v.ConfigFileUsed() == "" {
		return false
	}
	s.v.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("config changed", "file", e.Name, "op", e.Op.String())
		onChange(s.Config())
	})
	s.v.WatchConfig()
	return true
}

// Validate checks that every tunable is usable.
func (c *Config) Validate() error {
	var errs []string

	vp := c.Viewport
	if vp.MinScale < viewport.ScaleFloor {
		errs = append(errs, fmt.Sprintf("viewport.min_scale must be at least %v, got %v", viewport.ScaleFloor, vp.MinScale))
	}
	if vp.MaxScale > viewport.ScaleCeiling {
		errs = append(errs, fmt.Sprintf("viewport.max_scale must be at most %v, got %v", viewport.ScaleCeiling, vp.MaxScale))
	}
	if vp.MaxScale < vp.MinScale {
		errs = append(errs, fmt.Sprintf("viewport.max_scale (%v) must be >= min_scale (%v)", vp.MaxScale, vp.MinScale))
	}
	if vp.DoubleTapScale < vp.MinScale || vp.DoubleTapScale > vp.MaxScale {
		errs = append(errs, fmt.Sprintf("viewport.double_tap_scale must be within [%v, %v], got %v", vp.MinScale, vp.MaxScale, vp.DoubleTapScale))
	}
	if vp.ZoomStep <= 1 {
		errs = append(errs, fmt.Sprintf("viewport.zoom_step must be > 1, got %v", vp.ZoomStep))
	}
	if vp.Epsilon < 0 {
		errs = append(errs, "viewport.epsilon must not be negative")
	}
	if vp.ThrottleMS <= 0 {
		errs = append(errs, "viewport.throttle_ms must be positive")
	}
	if vp.AnimationMS < 0 {
		errs = append(errs, "viewport.animation_ms must not be negative")
	}
	if vp.Padding < 0 {
		errs = append(errs, "viewport.padding must not be negative")
	}
	if vp.ContentAspect <= 0 {
		errs = append(errs, "viewport.content_aspect must be positive")
	}

	g := c.Gesture
	if g.TapSlop <= 0 || g.DoubleTapSlop <= 0 {
		errs = append(errs, "gesture slops must be positive")
	}
	if g.DoubleTapMS <= 0 || g.LongPressMS <= 0 {
		errs = append(errs, "gesture.double_tap_ms and gesture.long_press_ms must be positive")
	}

	if c.Markers.BaseSize <= 0 || c.Markers.BaseFont <= 0 {
		errs = append(errs, "markers.base_size and markers.base_font must be positive")
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
