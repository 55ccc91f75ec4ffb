package model

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// MixtureTolerance bounds how far a mixture may drift from summing to 1.
const MixtureTolerance = 1e-6

// Mixture maps a category name to its non-negative weight. Weights of a
// generated point sum to 1.
type Mixture map[string]float64

// Weight returns the weight for name. Missing categories weigh 0.
func (m Mixture) Weight(name string) float64 {
	return m[name]
}

// Sum returns the total of all weights.
func (m Mixture) Sum() float64 {
	var total float64
	for _, v := range m {
		total += v
	}
	return total
}

// Normalize rescales the weights in place so they sum to 1. A zero mixture
// is left untouched.
func (m Mixture) Normalize() {
	total := m.Sum()
	if total <= 0 {
		return
	}
	for k, v := range m {
		m[k] = v / total
	}
}

// Valid reports whether all weights are non-negative and sum to 1 within
// MixtureTolerance.
func (m Mixture) Valid() bool {
	for _, v := range m {
		if v < 0 || math.IsNaN(v) {
			return false
		}
	}
	return math.Abs(m.Sum()-1) <= MixtureTolerance
}

// Above returns the categories whose weight is strictly greater than
// threshold, in sorted order.
func (m Mixture) Above(threshold float64) []string {
	var out []string
	for k, v := range m {
		if v > threshold {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Dominant returns the highest-weight category. Iteration follows order; a
// later category only wins when strictly greater, so ties go to the first
// one encountered. Categories absent from order are visited afterwards in
// sorted name order. ok is false for an empty mixture.
func (m Mixture) Dominant(order []string) (name string, weight float64, ok bool) {
	weight = -1
	visit := func(k string) {
		v, present := m[k]
		if !present {
			return
		}
		if v > weight {
			name, weight, ok = k, v, true
		}
	}

	known := make(map[string]bool, len(order))
	for _, k := range order {
		known[k] = true
		visit(k)
	}
	if len(known) < len(m) {
		extra := make([]string, 0, len(m))
		for k := range m {
			if !known[k] {
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		for _, k := range extra {
			visit(k)
		}
	}
	if !ok {
		return Mixed, 0, false
	}
	return name, weight, true
}

// Weight is one row of a mixture table.
type Weight struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

// Table lists every category of order with its weight (0 when absent).
func (m Mixture) Table(order []string) []Weight {
	rows := make([]Weight, len(order))
	for i, k := range order {
		rows[i] = Weight{Category: k, Value: m.Weight(k)}
	}
	return rows
}

// Point is one generated scene. Points are immutable once generated; the
// repulsion effect is a rendering offset and never touches Base.
type Point struct {
	ID       int
	Base     r2.Vec
	Mixture  Mixture
	Dominant string // concrete category or Mixed
	Blended  bool
	Color    string // #rrggbb
	Radius   float64
	Opacity  float64

	// T is the blend fraction toward Sources[1]; zero for core points.
	T       float64
	Sources [2]string
}

// IsMixed reports whether the point carries the mixed sentinel.
func (p Point) IsMixed() bool {
	return p.Dominant == Mixed
}

// TrueDominant recomputes the highest-weight category from the mixture using
// the palette order for ties.
func (p Point) TrueDominant(palette Palette) (string, float64) {
	name, w, _ := p.Mixture.Dominant(palette.Names())
	return name, w
}
