package model

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Mixed is the dominant-category sentinel carried by blend points.
const Mixed = "mixed"

// Locales supported by category display names.
const (
	LocaleEN = "en"
	LocaleKO = "ko"
)

// Category is one of the fixed senses a point can be made of.
type Category struct {
	Name  string `yaml:"name" json:"name"`
	Color string `yaml:"color" json:"color"` // #rrggbb

	// Names maps a locale to the display name.
	Names map[string]string `yaml:"names,omitempty" json:"names,omitempty"`
	// Keywords is the thumbnail keyword set, e.g. "seoul,city".
	Keywords string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
}

// DisplayName returns the localized name, falling back to English and then
// to the raw category name.
func (c Category) DisplayName(locale string) string {
	if n, ok := c.Names[locale]; ok && n != "" {
		return n
	}
	if n, ok := c.Names[LocaleEN]; ok && n != "" {
		return n
	}
	return c.Name
}

// RGB parses the category color.
func (c Category) RGB() (colorful.Color, error) {
	col, err := colorful.Hex(strings.ToLower(c.Color))
	if err != nil {
		return colorful.Color{}, fmt.Errorf("category %q: %w", c.Name, err)
	}
	return col, nil
}

// Palette is the ordered set of categories. Its order is the single source of
// truth for every iteration over categories (tie-breaking included).
type Palette []Category

// DefaultPalette returns the five senses.
func DefaultPalette() Palette {
	return Palette{
		{Name: "sight", Color: "#B58CB5", Names: map[string]string{LocaleEN: "Sight", LocaleKO: "시각"}, Keywords: "seoul,city"},
		{Name: "sound", Color: "#5A7EBF", Names: map[string]string{LocaleEN: "Sound", LocaleKO: "청각"}, Keywords: "market,street"},
		{Name: "touch", Color: "#D86C5B", Names: map[string]string{LocaleEN: "Touch", LocaleKO: "촉각"}, Keywords: "fabric,texture"},
		{Name: "smell", Color: "#7BA77B", Names: map[string]string{LocaleEN: "Smell", LocaleKO: "후각"}, Keywords: "coffee,nature"},
		{Name: "taste", Color: "#E8C547", Names: map[string]string{LocaleEN: "Taste", LocaleKO: "미각"}, Keywords: "food,dining"},
	}
}

// Names returns the category names in palette order.
func (p Palette) Names() []string {
	names := make([]string, len(p))
	for i, c := range p {
		names[i] = c.Name
	}
	return names
}

// Index returns the palette position of name, or -1.
func (p Palette) Index(name string) int {
	for i, c := range p {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Lookup returns the category with the given name.
func (p Palette) Lookup(name string) (Category, bool) {
	if i := p.Index(name); i >= 0 {
		return p[i], true
	}
	return Category{}, false
}

// Validate checks names are unique, non-empty, not the mixed sentinel, and
// that every color parses.
func (p Palette) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("palette is empty")
	}
	seen := make(map[string]bool, len(p))
	for i, c := range p {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("category %d has no name", i)
		}
		if name == Mixed {
			return fmt.Errorf("category name %q is reserved", Mixed)
		}
		if seen[name] {
			return fmt.Errorf("duplicate category %q", name)
		}
		seen[name] = true
		if _, err := c.RGB(); err != nil {
			return err
		}
	}
	return nil
}
