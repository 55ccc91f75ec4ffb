package pointfield

import (
	"github.com/vanderheijden86/sensemap/pkg/config"
)

// FromConfig maps the map and category sections of a file configuration
// onto a generator configuration. Cluster centers use the default layout
// for the configured map size.
func FromConfig(cfg config.Config) Config {
	return Config{
		Count:       cfg.Map.PointCount,
		Spread:      cfg.Map.ClusterSpread,
		BlendJitter: cfg.Map.BlendJitter,
		Centers:     DefaultCenters(cfg.Map.Width, cfg.Map.Height, cfg.Categories),
		Palette:     cfg.Categories,
		Seed:        cfg.Map.Seed,
	}
}
