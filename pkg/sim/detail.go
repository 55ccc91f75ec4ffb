package sim

import (
	"fmt"
	"math"
	"strings"

	"github.com/vanderheijden86/sensemap/pkg/model"
	"github.com/vanderheijden86/sensemap/pkg/thumbnail"
)

func percent(w float64) int {
	return int(math.Round(w * 100))
}

func (c *Controller) detailLocked(p model.Point) Detail {
	dom, w := p.TrueDominant(c.palette)
	name := dom
	if cat, ok := c.palette.Lookup(dom); ok {
		name = cat.DisplayName(c.opts.Locale)
	}
	return Detail{
		ID:                p.ID,
		Weights:           p.Mixture.Table(c.palette.Names()),
		Dominant:          dom,
		DominantWeight:    w,
		DominantName:      name,
		GeneratedDominant: p.Dominant,
		Color:             p.Color,
		Base:              p.Base,
		Description:       Describe(p, c.palette, c.opts.Locale),
		Thumbnail:         thumbnail.Resolve(p, c.palette),
	}
}

// Describe returns a short markdown description of the point's dominant
// sense in the given locale.
func Describe(p model.Point, palette model.Palette, locale string) string {
	dom, w := p.TrueDominant(palette)
	cat, ok := palette.Lookup(dom)
	if !ok || len(p.Mixture) == 0 {
		if locale == model.LocaleKO {
			return "복합적인 감각이 어우러진 장면입니다."
		}
		return "This is a scene where multiple senses are blended together."
	}

	name := cat.DisplayName(locale)
	var b strings.Builder
	switch locale {
	case model.LocaleKO:
		fmt.Fprintf(&b, "이 장면은 **%s**이(가) 강하게 느껴지는 순간입니다.", name)
	default:
		fmt.Fprintf(&b, "This scene is dominated by **%s**.", name)
	}
	fmt.Fprintf(&b, " _(%s %d%%)_", name, percent(w))
	return b.String()
}

// Summary is the plain-text line copied to the clipboard for a selection.
func (d Detail) Summary() string {
	parts := make([]string, 0, len(d.Weights))
	for _, w := range d.Weights {
		if w.Value <= 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %d%%", w.Category, percent(w.Value)))
	}
	return fmt.Sprintf("Scene #%d: %s (%s)", d.ID, d.DominantName, strings.Join(parts, ", "))
}
