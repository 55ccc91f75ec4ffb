// Package view holds the pan/zoom affine mapping between screen space and
// world space:
//
//	screen = scale*world + translate
//
// Gesture capture lives elsewhere; this package only stores transforms,
// clamps them and animates programmatic changes.
package view

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// Default scale bounds and programmatic zoom steps.
const (
	DefaultMinScale      = 0.1
	DefaultMaxScale      = 5.0
	DefaultInitialScale  = 0.4
	DefaultZoomInFactor  = 1.5
	DefaultZoomOutFactor = 0.6
	DefaultZoomDuration  = 500 * time.Millisecond
	DefaultResetDuration = 750 * time.Millisecond
)

// Transform is a uniform scale followed by a translation.
type Transform struct {
	Scale     float64
	Translate r2.Vec
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{Scale: 1}
}

// Apply maps a world point to screen space.
func (t Transform) Apply(world r2.Vec) r2.Vec {
	return r2.Add(r2.Scale(t.Scale, world), t.Translate)
}

// Invert maps a screen point to world space.
func (t Transform) Invert(screen r2.Vec) r2.Vec {
	return r2.Scale(1/t.Scale, r2.Sub(screen, t.Translate))
}

// ScaleBy multiplies the scale by k while keeping the world point under
// anchor (screen space) fixed.
func (t Transform) ScaleBy(k float64, anchor r2.Vec) Transform {
	return t.ScaleTo(t.Scale*k, anchor)
}

// ScaleTo sets the scale while keeping the world point under anchor fixed.
func (t Transform) ScaleTo(scale float64, anchor r2.Vec) Transform {
	world := t.Invert(anchor)
	return Transform{
		Scale:     scale,
		Translate: r2.Sub(anchor, r2.Scale(scale, world)),
	}
}

// Translated shifts the transform by a screen-space delta.
func (t Transform) Translated(delta r2.Vec) Transform {
	return Transform{Scale: t.Scale, Translate: r2.Add(t.Translate, delta)}
}

// Centered returns the transform that shows a map of mapSize world units in
// the middle of a viewport at the given scale.
func Centered(viewport, mapSize r2.Vec, scale float64) Transform {
	return Transform{
		Scale: scale,
		Translate: r2.Vec{
			X: (viewport.X - mapSize.X*scale) / 2,
			Y: (viewport.Y - mapSize.Y*scale) / 2,
		},
	}
}

// FitScale returns the largest scale at which mapSize fits inside viewport,
// shrunk by margin (0.9 leaves a 10% border).
func FitScale(viewport, mapSize r2.Vec, margin float64) float64 {
	if mapSize.X <= 0 || mapSize.Y <= 0 {
		return 1
	}
	return math.Min(viewport.X/mapSize.X, viewport.Y/mapSize.Y) * margin
}

// Lerp interpolates scale and translation linearly.
func Lerp(a, b Transform, u float64) Transform {
	return Transform{
		Scale: a.Scale + (b.Scale-a.Scale)*u,
		Translate: r2.Vec{
			X: a.Translate.X + (b.Translate.X-a.Translate.X)*u,
			Y: a.Translate.Y + (b.Translate.Y-a.Translate.Y)*u,
		},
	}
}
