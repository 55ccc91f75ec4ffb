// Package selection implements the single-selection state machine with
// distance-based auto-dismiss.
//
//	Idle ──click(p)──▶ Selected(p)
//	Selected(p) ──close | background click | pointer drifted away──▶ Idle
//
// Auto-dismiss is suppressed while the detail panel holds focus.
package selection

import (
	"time"

	"github.com/vanderheijden86/sensemap/pkg/debug"

	"gonum.org/v1/gonum/spatial/r2"
)

// Defaults for the dismiss check and click acknowledgment.
const (
	DefaultDismissDistance = 350.0
	DefaultDismissInterval = 200 * time.Millisecond
	DefaultRippleDuration  = 600 * time.Millisecond
)

// State is the machine state.
type State int

const (
	Idle State = iota
	Selected
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selected:
		return "selected"
	default:
		return "unknown"
	}
}

// Reason records why a selection ended.
type Reason string

const (
	ReasonClosed     Reason = "closed"
	ReasonBackground Reason = "background"
	ReasonDismissed  Reason = "dismissed"
	ReasonReplaced   Reason = "replaced"
)

// Machine holds at most one selected point ID.
type Machine struct {
	// DismissDistance is the screen distance, in pixels, the pointer must
	// exceed before the selection is auto-dismissed.
	DismissDistance float64

	state      State
	selected   int
	panelFocus bool
	ripples    Ripples
}

// New creates an idle machine. A non-positive distance uses the default.
func New(dismissDistance float64, rippleDuration time.Duration) *Machine {
	if dismissDistance <= 0 {
		dismissDistance = DefaultDismissDistance
	}
	if rippleDuration <= 0 {
		rippleDuration = DefaultRippleDuration
	}
	return &Machine{
		DismissDistance: dismissDistance,
		ripples:         Ripples{Duration: rippleDuration},
	}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Selected returns the selected ID, if any.
func (m *Machine) Selected() (int, bool) {
	if m.state != Selected {
		return 0, false
	}
	return m.selected, true
}

// IsSelected reports whether id is the current selection.
func (m *Machine) IsSelected(id int) bool {
	return m.state == Selected && m.selected == id
}

// Click selects id and emits a ripple at the click's screen position. It
// returns true when the selection changed. Clicking the current selection
// again is a no-op.
func (m *Machine) Click(id int, at r2.Vec, now time.Time) bool {
	if m.IsSelected(id) {
		return false
	}
	if m.state == Selected {
		debug.Log("selection: %d -> %d (%s)", m.selected, id, ReasonReplaced)
	} else {
		debug.Log("selection: select %d", id)
	}
	m.state = Selected
	m.selected = id
	m.ripples.Add(at, now)
	return true
}

// Close clears the selection. It returns false when already idle.
func (m *Machine) Close() bool {
	return m.clear(ReasonClosed)
}

// BackgroundClick clears the selection after a click that hit no point.
func (m *Machine) BackgroundClick() bool {
	return m.clear(ReasonBackground)
}

func (m *Machine) clear(r Reason) bool {
	if m.state != Selected {
		return false
	}
	debug.Log("selection: clear %d (%s)", m.selected, r)
	m.state = Idle
	m.selected = 0
	m.panelFocus = false
	return true
}

// SetPanelFocus records whether the detail panel holds interaction focus.
func (m *Machine) SetPanelFocus(focused bool) {
	m.panelFocus = focused
}

// PanelFocused reports the panel focus flag.
func (m *Machine) PanelFocused() bool {
	return m.panelFocus
}

// ShouldDismiss reports whether the selection would be auto-dismissed with
// the pointer at pointer and the selected point drawn at point (both in
// screen space).
func (m *Machine) ShouldDismiss(pointer, point r2.Vec) bool {
	if m.state != Selected || m.panelFocus {
		return false
	}
	return r2.Norm(r2.Sub(pointer, point)) > m.DismissDistance
}

// CheckDismiss runs the periodic auto-dismiss check and reports whether it
// cleared the selection.
func (m *Machine) CheckDismiss(pointer, point r2.Vec) bool {
	if !m.ShouldDismiss(pointer, point) {
		return false
	}
	return m.clear(ReasonDismissed)
}

// Ripples returns the ripples still running at now, pruning expired ones.
func (m *Machine) Ripples(now time.Time) []Ripple {
	return m.ripples.Active(now)
}
