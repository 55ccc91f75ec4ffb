package export

import (
	"sync"

	"github.com/vanderheijden86/sensemap/pkg/sim"
)

// FrameRecorder is a render and panel sink that keeps the latest frame and
// detail, so a headless run can export whatever the controller last emitted.
type FrameRecorder struct {
	mu     sync.Mutex
	frame  sim.Frame
	frames int
	detail *sim.Detail
}

// Render stores f.
func (r *FrameRecorder) Render(f sim.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frame = f
	r.frames++
}

// Show stores the selection detail.
func (r *FrameRecorder) Show(d sim.Detail) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detail = &d
}

// Hide forgets the selection detail.
func (r *FrameRecorder) Hide() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detail = nil
}

// Last returns the most recent frame.
func (r *FrameRecorder) Last() (sim.Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame, r.frames > 0
}

// Frames returns how many frames were recorded.
func (r *FrameRecorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Detail returns the shown detail, if any.
func (r *FrameRecorder) Detail() (sim.Detail, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.detail == nil {
		return sim.Detail{}, false
	}
	return *r.detail, true
}
