// Package config handles loading and saving sensemap configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/sensemap/config.yaml
//   - State:  ~/.local/state/sensemap/ (debug logs, last export)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vanderheijden86/sensemap/pkg/model"

	"gopkg.in/yaml.v3"
)

// SeedEnv overrides map.seed when set.
const SeedEnv = "SENSEMAP_SEED"

// MapConfig controls point generation.
type MapConfig struct {
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	PointCount    int     `yaml:"point_count"`
	ClusterSpread float64 `yaml:"cluster_spread"`
	BlendJitter   float64 `yaml:"blend_jitter"`
	Seed          int64   `yaml:"seed,omitempty"` // 0 = time-seeded
}

// RepulsionConfig controls the pointer repulsion field.
type RepulsionConfig struct {
	Radius        float64       `yaml:"radius"`
	MaxForce      float64       `yaml:"max_force"`
	FrameInterval time.Duration `yaml:"frame_interval"`
}

// SelectionConfig controls auto-dismiss and the click ripple.
type SelectionConfig struct {
	DismissDistance float64       `yaml:"dismiss_distance"` // screen pixels
	DismissInterval time.Duration `yaml:"dismiss_interval"`
	RippleDuration  time.Duration `yaml:"ripple_duration"`
}

// ViewConfig controls zoom bounds and programmatic transitions.
type ViewConfig struct {
	MinScale      float64       `yaml:"min_scale"`
	MaxScale      float64       `yaml:"max_scale"`
	InitialScale  float64       `yaml:"initial_scale"`
	FitToWindow   bool          `yaml:"fit_to_window,omitempty"`
	ZoomInFactor  float64       `yaml:"zoom_in_factor"`
	ZoomOutFactor float64       `yaml:"zoom_out_factor"`
	ZoomDuration  time.Duration `yaml:"zoom_duration"`
	ResetDuration time.Duration `yaml:"reset_duration"`
}

// UIConfig holds terminal UI preferences.
type UIConfig struct {
	Locale   string `yaml:"locale,omitempty"`    // en, ko
	ShowHelp bool   `yaml:"show_help,omitempty"` // open the help overlay at start
	DebugLog string `yaml:"debug_log,omitempty"` // debug output file while the TUI runs
}

// Config is the top-level configuration.
type Config struct {
	Map        MapConfig       `yaml:"map"`
	Repulsion  RepulsionConfig `yaml:"repulsion"`
	Selection  SelectionConfig `yaml:"selection"`
	View       ViewConfig      `yaml:"view"`
	Categories model.Palette   `yaml:"categories,omitempty"`
	UI         UIConfig        `yaml:"ui,omitempty"`
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		Map: MapConfig{
			Width:         4000,
			Height:        3000,
			PointCount:    2500,
			ClusterSpread: 300,
			BlendJitter:   200,
		},
		Repulsion: RepulsionConfig{
			Radius:        150,
			MaxForce:      40,
			FrameInterval: 16 * time.Millisecond,
		},
		Selection: SelectionConfig{
			DismissDistance: 350,
			DismissInterval: 200 * time.Millisecond,
			RippleDuration:  600 * time.Millisecond,
		},
		View: ViewConfig{
			MinScale:      0.1,
			MaxScale:      5,
			InitialScale:  0.4,
			ZoomInFactor:  1.5,
			ZoomOutFactor: 0.6,
			ZoomDuration:  500 * time.Millisecond,
			ResetDuration: 750 * time.Millisecond,
		},
		Categories: model.DefaultPalette(),
		UI: UIConfig{
			Locale: model.LocaleEN,
		},
	}
}

// ConfigDir returns the XDG config directory for sensemap.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "sensemap")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "sensemap")
}

// StateDir returns the XDG state directory for sensemap.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "sensemap")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "sensemap")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return applyEnv(DefaultConfig())
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path. Missing files yield
// DefaultConfig; missing keys keep their defaults.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return applyEnv(cfg)
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = model.DefaultPalette()
	}
	cfg.UI.DebugLog = expandHome(cfg.UI.DebugLog)

	cfg, err = applyEnv(cfg)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func applyEnv(cfg Config) (Config, error) {
	v := strings.TrimSpace(os.Getenv(SeedEnv))
	if v == "" {
		return cfg, nil
	}
	seed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", SeedEnv, err)
	}
	cfg.Map.Seed = seed
	return cfg, nil
}

// Validate checks value ranges and the category palette.
func (c Config) Validate() error {
	var errs []error
	if c.Map.Width <= 0 || c.Map.Height <= 0 {
		errs = append(errs, fmt.Errorf("map size must be positive, got %gx%g", c.Map.Width, c.Map.Height))
	}
	if c.Map.PointCount < 0 {
		errs = append(errs, fmt.Errorf("map.point_count must be non-negative, got %d", c.Map.PointCount))
	}
	if c.Map.ClusterSpread < 0 {
		errs = append(errs, fmt.Errorf("map.cluster_spread must be non-negative, got %g", c.Map.ClusterSpread))
	}
	if c.Repulsion.Radius <= 0 {
		errs = append(errs, fmt.Errorf("repulsion.radius must be positive, got %g", c.Repulsion.Radius))
	}
	if c.Repulsion.MaxForce < 0 {
		errs = append(errs, fmt.Errorf("repulsion.max_force must be non-negative, got %g", c.Repulsion.MaxForce))
	}
	if c.Selection.DismissDistance <= 0 {
		errs = append(errs, fmt.Errorf("selection.dismiss_distance must be positive, got %g", c.Selection.DismissDistance))
	}
	if c.View.MinScale <= 0 || c.View.MaxScale < c.View.MinScale {
		errs = append(errs, fmt.Errorf("view scale bounds invalid: [%g, %g]", c.View.MinScale, c.View.MaxScale))
	}
	switch c.UI.Locale {
	case "", model.LocaleEN, model.LocaleKO:
	default:
		errs = append(errs, fmt.Errorf("ui.locale %q not supported", c.UI.Locale))
	}
	if err := c.Categories.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("categories: %w", err))
	}
	return errors.Join(errs...)
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SameMap reports whether two configs generate the same field, so a reload
// can keep the current points.
func (c Config) SameMap(other Config) bool {
	if c.Map != other.Map || len(c.Categories) != len(other.Categories) {
		return false
	}
	for i := range c.Categories {
		a, b := c.Categories[i], other.Categories[i]
		if a.Name != b.Name || !strings.EqualFold(a.Color, b.Color) {
			return false
		}
	}
	return true
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
