// Package testutil provides point fixtures and assertions shared by package
// tests. All fixtures are deterministic.
package testutil

import (
	"math"

	"github.com/vanderheijden86/sensemap/pkg/model"

	"gonum.org/v1/gonum/spatial/r2"
)

// Fixture holds a hand-built field and the palette it was built against.
type Fixture struct {
	Description string
	Palette     model.Palette
	Points      []model.Point
}

// Builder creates points with sequential IDs against a palette.
type Builder struct {
	palette model.Palette
	nextID  int
}

// NewBuilder creates a builder for palette.
func NewBuilder(palette model.Palette) *Builder {
	return &Builder{palette: palette}
}

// NewDefault creates a builder for the default palette.
func NewDefault() *Builder {
	return NewBuilder(model.DefaultPalette())
}

func (b *Builder) color(name string) string {
	if c, ok := b.palette.Lookup(name); ok {
		return c.Color
	}
	return "#888888"
}

// Core creates a concrete point of category at pos with weight 0.8 on the
// category and the rest spread evenly over the other categories.
func (b *Builder) Core(category string, pos r2.Vec) model.Point {
	mix := model.Mixture{}
	others := len(b.palette) - 1
	for _, c := range b.palette {
		if c.Name == category {
			mix[c.Name] = 0.8
		} else if others > 0 {
			mix[c.Name] = 0.2 / float64(others)
		}
	}
	if others <= 0 {
		mix[category] = 1
	}
	p := model.Point{
		ID:       b.nextID,
		Base:     pos,
		Mixture:  mix,
		Dominant: category,
		Color:    b.color(category),
		Radius:   8.5,
		Opacity:  0.9,
		Sources:  [2]string{category, category},
	}
	b.nextID++
	return p
}

// Blend creates a mixed point with the given weights.
func (b *Builder) Blend(pos r2.Vec, weights map[string]float64) model.Point {
	mix := model.Mixture{}
	var names []string
	for _, c := range b.palette {
		if w, ok := weights[c.Name]; ok {
			mix[c.Name] = w
			names = append(names, c.Name)
		}
	}
	var src [2]string
	copy(src[:], names)
	p := model.Point{
		ID:       b.nextID,
		Base:     pos,
		Mixture:  mix,
		Dominant: model.Mixed,
		Blended:  true,
		Color:    "#888888",
		Radius:   7,
		Opacity:  0.8,
		Sources:  src,
	}
	if len(names) == 2 {
		p.T = weights[names[1]]
	}
	b.nextID++
	return p
}

// Ring places n core points of category evenly on a circle.
func (b *Builder) Ring(category string, center r2.Vec, radius float64, n int) []model.Point {
	out := make([]model.Point, 0, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		out = append(out, b.Core(category, r2.Add(center, r2.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a)})))
	}
	return out
}

// Grid places core points on a rows x cols lattice, cycling categories.
func (b *Builder) Grid(origin r2.Vec, spacing float64, rows, cols int) []model.Point {
	out := make([]model.Point, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cat := b.palette[(r*cols+c)%len(b.palette)].Name
			pos := r2.Vec{X: origin.X + float64(c)*spacing, Y: origin.Y + float64(r)*spacing}
			out = append(out, b.Core(cat, pos))
		}
	}
	return out
}

// Sparse is a small fixture: one core point per category, spaced far apart
// on a row, plus one sight/sound blend in between.
func Sparse() Fixture {
	b := NewDefault()
	var pts []model.Point
	for i, c := range b.palette {
		pts = append(pts, b.Core(c.Name, r2.Vec{X: 1000 * float64(i+1), Y: 1000}))
	}
	pts = append(pts, b.Blend(r2.Vec{X: 1500, Y: 2000}, map[string]float64{"sight": 0.4, "sound": 0.6}))
	return Fixture{
		Description: "one point per category plus a sight/sound blend",
		Palette:     b.palette,
		Points:      pts,
	}
}
