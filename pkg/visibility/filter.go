// Package visibility decides which points are active under the current set
// of enabled categories.
package visibility

import (
	"github.com/vanderheijden86/sensemap/pkg/model"
)

const (
	// MixedThreshold is the weight a blend component must exceed to keep the
	// point visible on its own.
	MixedThreshold = 0.3
	// DimmedOpacity keeps filtered-out points faintly on screen for context.
	DimmedOpacity = 0.05
)

// Set is the ordered set of enabled categories. The order is fixed at
// construction; membership changes through Toggle/Enable/Disable/Update.
type Set struct {
	order []string
	on    map[string]bool
}

// NewSet creates a set over names with every category enabled.
func NewSet(names ...string) *Set {
	s := &Set{
		order: make([]string, 0, len(names)),
		on:    make(map[string]bool, len(names)),
	}
	for _, n := range names {
		if _, dup := s.on[n]; dup {
			continue
		}
		s.order = append(s.order, n)
		s.on[n] = true
	}
	return s
}

// Known reports whether name is one of the set's categories.
func (s *Set) Known(name string) bool {
	_, ok := s.on[name]
	return ok
}

// Has reports whether name is enabled.
func (s *Set) Has(name string) bool {
	return s.on[name]
}

// Toggle flips name and returns its new state. Unknown names are ignored.
func (s *Set) Toggle(name string) bool {
	if !s.Known(name) {
		return false
	}
	s.on[name] = !s.on[name]
	return s.on[name]
}

// Enable turns name on.
func (s *Set) Enable(name string) {
	if s.Known(name) {
		s.on[name] = true
	}
}

// Disable turns name off.
func (s *Set) Disable(name string) {
	if s.Known(name) {
		s.on[name] = false
	}
}

// Update replaces the enabled set: a known category is on iff it is listed.
func (s *Set) Update(names []string) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	for _, n := range s.order {
		s.on[n] = want[n]
	}
}

// EnableAll turns every category on.
func (s *Set) EnableAll() {
	for _, n := range s.order {
		s.on[n] = true
	}
}

// Active returns the enabled categories in order.
func (s *Set) Active() []string {
	out := make([]string, 0, len(s.order))
	for _, n := range s.order {
		if s.on[n] {
			out = append(out, n)
		}
	}
	return out
}

// Order returns every category in order.
func (s *Set) Order() []string {
	return append([]string(nil), s.order...)
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	c := NewSet(s.order...)
	for _, n := range s.order {
		c.on[n] = s.on[n]
	}
	return c
}

// IsVisible reports whether p is active under s. Concrete points follow
// their dominant category; mixed points stay visible while any component
// heavier than MixedThreshold is enabled.
func IsVisible(p model.Point, s *Set) bool {
	if !p.IsMixed() {
		return s.Has(p.Dominant)
	}
	for _, c := range p.Mixture.Above(MixedThreshold) {
		if s.Has(c) {
			return true
		}
	}
	return false
}

// Style returns the opacity and pointer-events flag a point is rendered
// with. Hidden points are dimmed rather than removed and stop reacting to
// the pointer.
func Style(p model.Point, visible bool) (opacity float64, pointerEvents bool) {
	if !visible {
		return DimmedOpacity, false
	}
	return p.Opacity, true
}
