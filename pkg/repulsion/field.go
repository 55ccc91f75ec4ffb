// Package repulsion computes the per-frame "donut" displacement that pushes
// points away from the pointer.
//
// The force is zero at the pointer, peaks at half the radius and falls back
// to zero at the edge, so a point can still be approached and caught while
// its neighbours visibly scatter. Displacements are always derived from the
// base positions; nothing accumulates between frames.
package repulsion

import (
	"math"

	"github.com/vanderheijden86/sensemap/pkg/model"

	"gonum.org/v1/gonum/spatial/r2"
)

// Reference field parameters, in world units.
const (
	DefaultRadius   = 150.0
	DefaultMaxForce = 40.0
)

// Field holds the donut parameters.
type Field struct {
	Radius   float64
	MaxForce float64
}

// Default returns the reference field.
func Default() Field {
	return Field{Radius: DefaultRadius, MaxForce: DefaultMaxForce}
}

// Force returns the displacement magnitude at distance d from the pointer.
func (f Field) Force(d float64) float64 {
	if f.Radius <= 0 || d < 0 || d >= f.Radius {
		return 0
	}
	return math.Sin((d/f.Radius)*math.Pi) * f.MaxForce
}

// Offset returns the displacement of a point at base for a pointer at
// pointer, directed from the pointer through the point.
func (f Field) Offset(base, pointer r2.Vec) r2.Vec {
	delta := r2.Sub(base, pointer)
	d := r2.Norm(delta)
	if d >= f.Radius {
		return r2.Vec{}
	}
	force := f.Force(d)
	if force == 0 {
		return r2.Vec{}
	}
	angle := math.Atan2(delta.Y, delta.X)
	return r2.Vec{X: math.Cos(angle) * force, Y: math.Sin(angle) * force}
}

// Displace returns base moved by its offset.
func (f Field) Displace(base, pointer r2.Vec) r2.Vec {
	return r2.Add(base, f.Offset(base, pointer))
}

// Frame writes the displaced world position of every point into out, reusing
// its storage when large enough, and returns it. Points for which exempt
// returns true stay at their base position. exempt may be nil.
func (f Field) Frame(points []model.Point, pointer r2.Vec, exempt func(i int) bool, out []r2.Vec) []r2.Vec {
	if cap(out) < len(points) {
		out = make([]r2.Vec, len(points))
	}
	out = out[:len(points)]
	for i := range points {
		base := points[i].Base
		if exempt != nil && exempt(i) {
			out[i] = base
			continue
		}
		out[i] = f.Displace(base, pointer)
	}
	return out
}
