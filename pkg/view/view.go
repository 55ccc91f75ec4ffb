package view

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// Transition is a fixed-duration eased move between two transforms.
type Transition struct {
	From     Transform
	To       Transform
	Start    time.Time
	Duration time.Duration
}

// At returns the transform shown at now, and whether the transition is done.
func (tr Transition) At(now time.Time) (Transform, bool) {
	if tr.Duration <= 0 {
		return tr.To, true
	}
	u := float64(now.Sub(tr.Start)) / float64(tr.Duration)
	if u >= 1 {
		return tr.To, true
	}
	if u < 0 {
		u = 0
	}
	return Lerp(tr.From, tr.To, EaseCubicInOut(u)), false
}

// EaseCubicInOut is the symmetric cubic easing curve on [0,1].
func EaseCubicInOut(u float64) float64 {
	u *= 2
	if u <= 1 {
		return u * u * u / 2
	}
	u -= 2
	return (u*u*u + 2) / 2
}

// View is the live, clamped transform plus at most one running transition.
// Starting a transition replaces the running one (last write wins).
type View struct {
	current    Transform
	minScale   float64
	maxScale   float64
	transition *Transition
}

// New creates a View at the identity transform with the given scale bounds.
// Non-positive bounds fall back to the defaults.
func New(minScale, maxScale float64) *View {
	if minScale <= 0 {
		minScale = DefaultMinScale
	}
	if maxScale <= 0 {
		maxScale = DefaultMaxScale
	}
	if maxScale < minScale {
		minScale, maxScale = maxScale, minScale
	}
	return &View{current: Identity(), minScale: minScale, maxScale: maxScale}
}

// Transform returns the transform currently in effect.
func (v *View) Transform() Transform {
	return v.current
}

// Bounds returns the scale bounds.
func (v *View) Bounds() (minScale, maxScale float64) {
	return v.minScale, v.maxScale
}

// ClampScale limits s to the scale bounds.
func (v *View) ClampScale(s float64) float64 {
	return math.Max(v.minScale, math.Min(v.maxScale, s))
}

// SetTransform applies a gesture result atomically. The scale is clamped and
// any running transition is dropped.
func (v *View) SetTransform(scale float64, translate r2.Vec) {
	v.transition = nil
	v.current = Transform{Scale: v.ClampScale(scale), Translate: translate}
}

// Pan shifts the view by a screen-space delta.
func (v *View) Pan(delta r2.Vec) {
	t := v.current.Translated(delta)
	v.SetTransform(t.Scale, t.Translate)
}

// ZoomAt scales by k around a screen anchor, clamped.
func (v *View) ZoomAt(k float64, anchor r2.Vec) {
	t := v.target(k, anchor)
	v.SetTransform(t.Scale, t.Translate)
}

// target computes the clamped result of scaling by k around anchor.
func (v *View) target(k float64, anchor r2.Vec) Transform {
	return v.current.ScaleTo(v.ClampScale(v.current.Scale*k), anchor)
}

// AnimateTo starts a transition from the current transform to 'to'.
func (v *View) AnimateTo(to Transform, now time.Time, d time.Duration) {
	to.Scale = v.ClampScale(to.Scale)
	v.transition = &Transition{From: v.current, To: to, Start: now, Duration: d}
}

// AnimateZoom starts an eased zoom by k around anchor.
func (v *View) AnimateZoom(k float64, anchor r2.Vec, now time.Time, d time.Duration) {
	v.AnimateTo(v.target(k, anchor), now, d)
}

// Advance applies the running transition at now. It reports whether a
// transition is still in flight afterwards.
func (v *View) Advance(now time.Time) bool {
	if v.transition == nil {
		return false
	}
	t, done := v.transition.At(now)
	v.current = t
	if done {
		v.transition = nil
	}
	return !done
}

// Animating reports whether a transition is running.
func (v *View) Animating() bool {
	return v.transition != nil
}

// ScreenToWorld maps a screen point through the current transform's inverse.
func (v *View) ScreenToWorld(p r2.Vec) r2.Vec {
	return v.current.Invert(p)
}

// WorldToScreen maps a world point through the current transform.
func (v *View) WorldToScreen(p r2.Vec) r2.Vec {
	return v.current.Apply(p)
}
