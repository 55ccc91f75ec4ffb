// Package sim owns the simulation state of a point map and drives it.
//
// A Controller holds the points, the view transform, the active category
// set, the selection machine and the pointer. Every mutation goes through
// its methods under a single mutex, so the frame driver and the dismiss
// driver may run on separate goroutines. Sinks are always called after the
// state lock is released. Panel calls are serialized by a second lock taken
// before the state lock, so Show and Hide arrive in the order the selection
// changed.
package sim

import (
	"math"
	"sync"
	"time"

	"github.com/vanderheijden86/sensemap/pkg/debug"
	"github.com/vanderheijden86/sensemap/pkg/metrics"
	"github.com/vanderheijden86/sensemap/pkg/model"
	"github.com/vanderheijden86/sensemap/pkg/selection"
	"github.com/vanderheijden86/sensemap/pkg/thumbnail"
	"github.com/vanderheijden86/sensemap/pkg/view"
	"github.com/vanderheijden86/sensemap/pkg/visibility"

	"gonum.org/v1/gonum/spatial/r2"
)

// PointerSentinel is the pointer position before the first move. It lies far
// off-screen so no point reacts.
var PointerSentinel = r2.Vec{X: -1000, Y: -1000}

// Controller is the single owner of the simulation state.
type Controller struct {
	// panelMu orders panel sink calls. Lock order: panelMu, then mu.
	panelMu sync.Mutex
	mu      sync.Mutex

	palette model.Palette
	points  []model.Point
	index   map[int]int // point ID -> slice position
	visible []bool

	opts      Options
	view      *view.View
	filter    *visibility.Set
	sel       *selection.Machine
	pointer   r2.Vec
	displaced []r2.Vec // world positions of the last computed frame
	active    bool
	seq       uint64

	render RenderSink
	panel  PanelSink
}

// NewController creates a controller over points. The view starts at the
// centered initial transform, every category is enabled, nothing is
// selected and repulsion is running.
func NewController(points []model.Point, palette model.Palette, opts Options) *Controller {
	opts = opts.withDefaults()
	c := &Controller{
		palette: palette,
		opts:    opts,
		view:    view.New(opts.MinScale, opts.MaxScale),
		filter:  visibility.NewSet(palette.Names()...),
		sel:     selection.New(opts.DismissDistance, opts.RippleDuration),
		pointer: PointerSentinel,
		active:  true,
		render:  nopRender{},
		panel:   nopPanel{},
	}
	t := opts.initialTransform()
	c.view.SetTransform(t.Scale, t.Translate)
	c.setPointsLocked(points)
	return c
}

// SetRenderSink installs the frame consumer. Nil disables rendering.
func (c *Controller) SetRenderSink(s RenderSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s == nil {
		s = nopRender{}
	}
	c.render = s
}

// SetPanelSink installs the detail panel. Nil disables it.
func (c *Controller) SetPanelSink(s PanelSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s == nil {
		s = nopPanel{}
	}
	c.panel = s
}

func (c *Controller) setPointsLocked(points []model.Point) {
	c.points = points
	c.index = make(map[int]int, len(points))
	for i, p := range points {
		c.index[p.ID] = i
	}
	c.displaced = nil
	c.refreshVisibilityLocked()
}

func (c *Controller) refreshVisibilityLocked() {
	if cap(c.visible) < len(c.points) {
		c.visible = make([]bool, len(c.points))
	}
	c.visible = c.visible[:len(c.points)]
	for i, p := range c.points {
		c.visible[i] = visibility.IsVisible(p, c.filter)
	}
}

// Palette returns the category palette.
func (c *Controller) Palette() model.Palette {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.palette
}

// Options returns the effective options.
func (c *Controller) Options() Options {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts
}

// Points returns a copy of the point slice.
func (c *Controller) Points() []model.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Point(nil), c.points...)
}

// Point looks up a point by ID.
func (c *Controller) Point(id int) (model.Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[id]
	if !ok {
		return model.Point{}, false
	}
	return c.points[i], true
}

// ReplacePoints swaps in a regenerated field. Any selection is cleared.
func (c *Controller) ReplacePoints(points []model.Point) {
	c.ReplaceField(points, nil)
}

// ReplaceField swaps in a regenerated field and, when palette is non-nil, a
// new palette. Categories known to both palettes keep their toggle state;
// new ones start enabled. Any selection is cleared.
func (c *Controller) ReplaceField(points []model.Point, palette model.Palette) {
	c.panelMu.Lock()
	defer c.panelMu.Unlock()

	c.mu.Lock()
	cleared := c.sel.Close()
	if palette != nil {
		c.swapPaletteLocked(palette)
	}
	c.setPointsLocked(points)
	panel := c.panel
	c.mu.Unlock()

	debug.Log("sim: replaced field with %d points", len(points))
	if cleared {
		panel.Hide()
	}
}

// SetPalette swaps the category palette over the current points, keeping
// toggle state the way ReplaceField does. An open panel is refreshed with
// the new names.
func (c *Controller) SetPalette(palette model.Palette) {
	if palette == nil {
		return
	}
	c.panelMu.Lock()
	defer c.panelMu.Unlock()

	c.mu.Lock()
	c.swapPaletteLocked(palette)
	c.refreshVisibilityLocked()
	var d Detail
	show, hide := false, false
	if id, ok := c.sel.Selected(); ok {
		if i := c.index[id]; c.visible[i] {
			d, show = c.detailLocked(c.points[i]), true
		} else {
			hide = c.sel.Close()
		}
	}
	panel := c.panel
	c.mu.Unlock()

	switch {
	case show:
		panel.Show(d)
	case hide:
		panel.Hide()
	}
}

func (c *Controller) swapPaletteLocked(palette model.Palette) {
	prev := c.filter
	c.palette = palette
	c.filter = visibility.NewSet(palette.Names()...)
	for _, name := range palette.Names() {
		if prev.Known(name) && !prev.Has(name) {
			c.filter.Disable(name)
		}
	}
}

// UpdateTuning applies new repulsion, dismiss and zoom tuning without
// touching points, selection or the current transform.
func (c *Controller) UpdateTuning(opts Options) {
	c.mu.Lock()
	defer c.mu.Unlock()
	opts = opts.withDefaults()
	opts.Viewport = c.opts.Viewport
	opts.Now = c.opts.Now
	c.opts = opts
	c.sel.DismissDistance = opts.DismissDistance
	cur := c.view.Transform()
	c.view = view.New(opts.MinScale, opts.MaxScale)
	c.view.SetTransform(cur.Scale, cur.Translate)
}

// ============================================================================
// Pointer
// ============================================================================

// MovePointer records the live screen-space pointer position.
func (c *Controller) MovePointer(screen r2.Vec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pointer = screen
}

// Pointer returns the last screen-space pointer position.
func (c *Controller) Pointer() r2.Vec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pointer
}

// PointerWorld returns the pointer mapped through the inverse transform.
func (c *Controller) PointerWorld() r2.Vec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.ScreenToWorld(c.pointer)
}

// ============================================================================
// View
// ============================================================================

// SetViewport records the screen size used for centering and zoom anchors.
func (c *Controller) SetViewport(size r2.Vec) {
	if size.X <= 0 || size.Y <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts.Viewport = size
}

// Viewport returns the screen size.
func (c *Controller) Viewport() r2.Vec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts.Viewport
}

// Transform returns the transform currently in effect.
func (c *Controller) Transform() view.Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Transform()
}

// SetTransform applies a gesture result. The scale is clamped and any
// running transition is cancelled.
func (c *Controller) SetTransform(scale float64, translate r2.Vec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.SetTransform(scale, translate)
}

// Pan shifts the view by a screen-space delta.
func (c *Controller) Pan(delta r2.Vec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Pan(delta)
}

// ZoomAt zooms by k around a screen anchor immediately.
func (c *Controller) ZoomAt(k float64, anchor r2.Vec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.ZoomAt(k, anchor)
}

// ZoomIn starts an eased zoom-in about the viewport center.
func (c *Controller) ZoomIn() {
	c.animateZoom(func(o Options) float64 { return o.ZoomInFactor })
}

// ZoomOut starts an eased zoom-out about the viewport center.
func (c *Controller) ZoomOut() {
	c.animateZoom(func(o Options) float64 { return o.ZoomOutFactor })
}

func (c *Controller) animateZoom(factor func(Options) float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := factor(c.opts)
	center := r2.Scale(0.5, c.opts.Viewport)
	c.view.AnimateZoom(k, center, c.opts.Now(), c.opts.ZoomDuration)
}

// ResetView eases back to the centered initial transform.
func (c *Controller) ResetView() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.AnimateTo(c.opts.initialTransform(), c.opts.Now(), c.opts.ResetDuration)
}

// Animating reports whether a view transition is running.
func (c *Controller) Animating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Animating()
}

// ============================================================================
// Filters
// ============================================================================

// ToggleCategory flips one category and returns its new state.
func (c *Controller) ToggleCategory(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	on := c.filter.Toggle(name)
	c.refreshVisibilityLocked()
	debug.Log("sim: category %s active=%v", name, on)
	return on
}

// UpdateActiveCategories replaces the active set.
func (c *Controller) UpdateActiveCategories(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter.Update(names)
	c.refreshVisibilityLocked()
}

// ActiveCategories returns the enabled categories in palette order.
func (c *Controller) ActiveCategories() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter.Active()
}

// IsVisible reports whether the point with the given ID passes the filter.
// Unknown IDs are not visible.
func (c *Controller) IsVisible(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[id]
	return ok && c.visible[i]
}

// Legend returns one entry per category with its toggle state.
func (c *Controller) Legend() []LegendEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.legendLocked()
}

func (c *Controller) legendLocked() []LegendEntry {
	out := make([]LegendEntry, len(c.palette))
	for i, cat := range c.palette {
		out[i] = LegendEntry{
			Category: cat.Name,
			Label:    cat.DisplayName(c.opts.Locale),
			Color:    cat.Color,
			Active:   c.filter.Has(cat.Name),
		}
	}
	return out
}

// ============================================================================
// Selection
// ============================================================================

// Click selects the point with the given ID, acknowledging it with a ripple
// at the screen position at. Unknown or non-interactive points and
// re-clicks on the current selection are no-ops. A click on an interactive
// point also records at as the pointer position. It reports whether the
// selection changed.
func (c *Controller) Click(id int, at r2.Vec) bool {
	c.panelMu.Lock()
	defer c.panelMu.Unlock()

	c.mu.Lock()
	i, ok := c.index[id]
	if !ok || !c.visible[i] {
		c.mu.Unlock()
		return false
	}
	c.pointer = at
	if !c.sel.Click(id, at, c.opts.Now()) {
		c.mu.Unlock()
		return false
	}
	d := c.detailLocked(c.points[i])
	panel := c.panel
	c.mu.Unlock()

	panel.Show(d)
	return true
}

// ClickAt routes a click at a screen position: a hit selects the point, a
// miss is a background click. It returns the hit point's ID.
func (c *Controller) ClickAt(screen r2.Vec) (int, bool) {
	id, hit := c.HitTest(screen)
	if hit {
		c.Click(id, screen)
		return id, true
	}
	c.BackgroundClick()
	return 0, false
}

// Close clears the selection from the panel's close action.
func (c *Controller) Close() bool {
	return c.clear((*selection.Machine).Close)
}

// BackgroundClick clears the selection after a click on empty map.
func (c *Controller) BackgroundClick() bool {
	return c.clear((*selection.Machine).BackgroundClick)
}

func (c *Controller) clear(fn func(*selection.Machine) bool) bool {
	c.panelMu.Lock()
	defer c.panelMu.Unlock()

	c.mu.Lock()
	cleared := fn(c.sel)
	panel := c.panel
	c.mu.Unlock()
	if cleared {
		panel.Hide()
	}
	return cleared
}

// SetPanelFocus records whether the detail panel holds interaction focus.
// While it does, auto-dismiss is suppressed.
func (c *Controller) SetPanelFocus(focused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel.SetPanelFocus(focused)
}

// PanelFocused reports the panel focus flag.
func (c *Controller) PanelFocused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.PanelFocused()
}

// Selected returns the selected point ID.
func (c *Controller) Selected() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.Selected()
}

// Detail returns the panel detail of the current selection.
func (c *Controller) Detail() (Detail, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.sel.Selected()
	if !ok {
		return Detail{}, false
	}
	return c.detailLocked(c.points[c.index[id]]), true
}

// CheckDismiss runs the periodic auto-dismiss check: with the panel
// unfocused, a pointer farther than the dismiss distance (screen pixels)
// from the selected point's screen position clears the selection.
func (c *Controller) CheckDismiss() bool {
	defer metrics.Timer(metrics.DismissCheck)()

	c.panelMu.Lock()
	defer c.panelMu.Unlock()

	c.mu.Lock()
	id, ok := c.sel.Selected()
	if !ok {
		c.mu.Unlock()
		return false
	}
	at := c.view.WorldToScreen(c.points[c.index[id]].Base)
	dismissed := c.sel.CheckDismiss(c.pointer, at)
	panel := c.panel
	c.mu.Unlock()

	if dismissed {
		panel.Hide()
	}
	return dismissed
}

// ============================================================================
// Hit testing
// ============================================================================

// HitTest returns the interactive point drawn nearest to screen, within its
// on-screen radius or the hit slop, whichever is larger. Positions are the
// ones of the last computed frame.
func (c *Controller) HitTest(screen r2.Vec) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hitTestLocked(screen)
}

func (c *Controller) hitTestLocked(screen r2.Vec) (int, bool) {
	defer metrics.Timer(metrics.HitTest)()

	t := c.view.Transform()
	world := t.Invert(screen)
	best, bestD := -1, math.Inf(1)
	for i, p := range c.points {
		if !c.visible[i] {
			continue
		}
		pick := math.Max(p.Radius*t.Scale, c.opts.HitSlop) / t.Scale
		d := r2.Norm(r2.Sub(c.positionLocked(i), world))
		if d <= pick && d < bestD {
			best, bestD = i, d
		}
	}
	if best < 0 {
		return 0, false
	}
	return c.points[best].ID, true
}

// Hovered returns the preview card of the point under the pointer.
func (c *Controller) Hovered() (Preview, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.hitTestLocked(c.pointer)
	if !ok {
		return Preview{}, false
	}
	p := c.points[c.index[id]]
	var rows []model.Weight
	for _, w := range p.Mixture.Table(c.palette.Names()) {
		if w.Value >= c.opts.PreviewThreshold {
			rows = append(rows, w)
		}
	}
	return Preview{ID: id, Weights: rows, Thumbnail: thumbnail.Resolve(p, c.palette)}, true
}

// ============================================================================
// Frames
// ============================================================================

// SetRepulsionActive starts or stops frame emission.
func (c *Controller) SetRepulsionActive(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = on
}

// RepulsionActive reports whether frames are being emitted.
func (c *Controller) RepulsionActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Tick advances any view transition, recomputes every displaced position
// from the base positions and hands the frame to the render sink. It does
// nothing and returns false while repulsion is stopped.
func (c *Controller) Tick() (Frame, bool) {
	defer metrics.Timer(metrics.FrameCompute)()

	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return Frame{}, false
	}
	now := c.opts.Now()
	c.view.Advance(now)
	c.computeLocked()
	f := c.frameLocked(now)
	sink := c.render
	c.mu.Unlock()

	sink.Render(f)
	return f, true
}

// Current advances any view transition and returns a frame built from the
// last computed positions, without recomputing repulsion or calling the
// render sink.
func (c *Controller) Current() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.opts.Now()
	c.view.Advance(now)
	return c.frameLocked(now)
}

// computeLocked rebuilds c.displaced. Hidden points and the selected point
// stay at their base position.
func (c *Controller) computeLocked() {
	pointer := c.view.ScreenToWorld(c.pointer)
	selIdx := -1
	if id, ok := c.sel.Selected(); ok {
		selIdx = c.index[id]
	}
	exempt := func(i int) bool {
		return !c.visible[i] || i == selIdx
	}
	c.displaced = c.opts.Repulsion.Frame(c.points, pointer, exempt, c.displaced)
}

func (c *Controller) positionLocked(i int) r2.Vec {
	if len(c.displaced) == len(c.points) {
		return c.displaced[i]
	}
	return c.points[i].Base
}

func (c *Controller) frameLocked(now time.Time) Frame {
	c.seq++
	t := c.view.Transform()
	selID, hasSel := c.sel.Selected()

	dots := make([]Dot, len(c.points))
	for i, p := range c.points {
		s := t.Apply(c.positionLocked(i))
		opacity, events := visibility.Style(p, c.visible[i])
		dots[i] = Dot{
			ID:            p.ID,
			X:             s.X,
			Y:             s.Y,
			Radius:        p.Radius * t.Scale,
			Color:         p.Color,
			Opacity:       opacity,
			PointerEvents: events,
			Category:      p.Dominant,
			Selected:      hasSel && p.ID == selID,
		}
	}
	return Frame{
		Seq:       c.seq,
		At:        now,
		Viewport:  c.opts.Viewport,
		Transform: t,
		Pointer:   c.pointer,
		Dots:      dots,
		Ripples:   c.sel.Ripples(now),
		Selected:  selID,
		HasSel:    hasSel,
		Legend:    c.legendLocked(),
	}
}
