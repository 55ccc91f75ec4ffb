package selection

import (
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// Ripple is a one-shot click acknowledgment at a screen position.
type Ripple struct {
	At       r2.Vec
	Start    time.Time
	Duration time.Duration
}

// Expired reports whether the ripple has finished at now.
func (r Ripple) Expired(now time.Time) bool {
	return now.Sub(r.Start) >= r.Duration
}

// Progress returns how far the ripple has run, in [0,1].
func (r Ripple) Progress(now time.Time) float64 {
	if r.Duration <= 0 {
		return 1
	}
	p := float64(now.Sub(r.Start)) / float64(r.Duration)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Ripples is a self-expiring list of ripples sharing one duration.
type Ripples struct {
	Duration time.Duration
	items    []Ripple
}

// Add starts a ripple at at.
func (rs *Ripples) Add(at r2.Vec, now time.Time) {
	rs.items = append(rs.items, Ripple{At: at, Start: now, Duration: rs.Duration})
}

// Active drops expired ripples and returns a copy of the rest.
func (rs *Ripples) Active(now time.Time) []Ripple {
	kept := rs.items[:0]
	for _, r := range rs.items {
		if !r.Expired(now) {
			kept = append(kept, r)
		}
	}
	rs.items = kept
	if len(kept) == 0 {
		return nil
	}
	return append([]Ripple(nil), kept...)
}

// Len returns the number of ripples held, expired or not.
func (rs *Ripples) Len() int {
	return len(rs.items)
}
