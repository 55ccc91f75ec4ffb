package sim

import (
	"context"
	"math"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vanderheijden86/sensemap/pkg/model"
	"github.com/vanderheijden86/sensemap/pkg/pointfield"
	"github.com/vanderheijden86/sensemap/pkg/testutil"
	"github.com/vanderheijden86/sensemap/pkg/visibility"

	"gonum.org/v1/gonum/spatial/r2"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPanel struct {
	shown  []Detail
	hidden int
}

func (p *recordingPanel) Show(d Detail) { p.shown = append(p.shown, d) }
func (p *recordingPanel) Hide()         { p.hidden++ }

// newTestController builds a controller over the sparse fixture with an
// identity view, so screen and world coordinates coincide.
func newTestController(t *testing.T) (*Controller, *recordingPanel, *fakeClock) {
	t.Helper()
	fx := testutil.Sparse()
	clk := newClock()
	opts := DefaultOptions()
	opts.Now = clk.Now
	c := NewController(fx.Points, fx.Palette, opts)
	c.SetTransform(1, r2.Vec{})
	panel := &recordingPanel{}
	c.SetPanelSink(panel)
	return c, panel, clk
}

func dotByID(t *testing.T, f Frame, id int) Dot {
	t.Helper()
	for _, d := range f.Dots {
		if d.ID == id {
			return d
		}
	}
	t.Fatalf("dot %d not in frame", id)
	return Dot{}
}

func TestNewController_InitialState(t *testing.T) {
	fx := testutil.Sparse()
	c := NewController(fx.Points, fx.Palette, DefaultOptions())

	if c.Pointer() != PointerSentinel {
		t.Errorf("pointer should start at the sentinel, got %v", c.Pointer())
	}
	if _, ok := c.Selected(); ok {
		t.Error("nothing should be selected initially")
	}
	if got := c.ActiveCategories(); !reflect.DeepEqual(got, fx.Palette.Names()) {
		t.Errorf("all categories should be active, got %v", got)
	}
	tr := c.Transform()
	testutil.AssertNear(t, "initial scale", tr.Scale, 0.4, 1e-12)
	testutil.AssertVecNear(t, "initial translate", tr.Translate, r2.Vec{X: -400, Y: -300}, 1e-9)
	if !c.RepulsionActive() {
		t.Error("repulsion should start active")
	}
}

func TestTick_SentinelPointerLeavesPointsAtBase(t *testing.T) {
	c, _, _ := newTestController(t)
	var got Frame
	c.SetRenderSink(RenderFunc(func(f Frame) { got = f }))

	f, ok := c.Tick()
	if !ok {
		t.Fatal("tick should render while repulsion is active")
	}
	if got.Seq != f.Seq {
		t.Error("sink should receive the returned frame")
	}
	for i, p := range c.Points() {
		d := f.Dots[i]
		testutil.AssertVecNear(t, "dot", r2.Vec{X: d.X, Y: d.Y}, p.Base, 1e-9)
	}
}

func TestTick_RepulsionDisplacesNearbyPoint(t *testing.T) {
	c, _, _ := newTestController(t)
	c.MovePointer(r2.Vec{X: 925, Y: 1000}) // 75 left of point 0

	f, _ := c.Tick()
	d := dotByID(t, f, 0)
	testutil.AssertVecNear(t, "displaced", r2.Vec{X: d.X, Y: d.Y}, r2.Vec{X: 1040, Y: 1000}, 1e-9)

	// Far points do not move.
	d = dotByID(t, f, 4)
	testutil.AssertVecNear(t, "far", r2.Vec{X: d.X, Y: d.Y}, r2.Vec{X: 5000, Y: 1000}, 1e-9)
}

func TestTick_Idempotent(t *testing.T) {
	c, _, _ := newTestController(t)
	c.MovePointer(r2.Vec{X: 940, Y: 980})

	a, _ := c.Tick()
	b, _ := c.Tick()
	if !reflect.DeepEqual(a.Dots, b.Dots) {
		t.Error("repeated ticks with unchanged state must give identical positions")
	}
}

func TestTick_UsesViewTransform(t *testing.T) {
	c, _, _ := newTestController(t)
	c.SetTransform(2, r2.Vec{X: 10, Y: 20})
	// Screen position of world (925, 1000) under the new transform.
	c.MovePointer(r2.Vec{X: 1860, Y: 2020})

	f, _ := c.Tick()
	d := dotByID(t, f, 0)
	// World displacement of 40 becomes 80 on screen.
	testutil.AssertVecNear(t, "screen", r2.Vec{X: d.X, Y: d.Y}, r2.Vec{X: 2090, Y: 2020}, 1e-9)
	testutil.AssertNear(t, "radius", d.Radius, 17, 1e-12)
}

func TestTick_SelectedPointExempt(t *testing.T) {
	c, _, _ := newTestController(t)
	if !c.Click(0, r2.Vec{X: 1000, Y: 1000}) {
		t.Fatal("click should select point 0")
	}
	c.MovePointer(r2.Vec{X: 925, Y: 1000})

	f, _ := c.Tick()
	d := dotByID(t, f, 0)
	if d.X != 1000 || d.Y != 1000 {
		t.Errorf("selected point moved to (%v, %v)", d.X, d.Y)
	}
	if !d.Selected || !f.HasSel || f.Selected != 0 {
		t.Error("frame should flag the selection")
	}
	if len(f.Ripples) != 1 {
		t.Errorf("expected one ripple, got %d", len(f.Ripples))
	}
}

func TestTick_HiddenPointsDimmedAndStill(t *testing.T) {
	c, _, _ := newTestController(t)
	if c.ToggleCategory("sight") {
		t.Fatal("toggle should disable sight")
	}
	c.MovePointer(r2.Vec{X: 925, Y: 1000})

	f, _ := c.Tick()
	d := dotByID(t, f, 0)
	if d.X != 1000 {
		t.Errorf("hidden point should not be displaced, at %v", d.X)
	}
	if d.Opacity != visibility.DimmedOpacity || d.PointerEvents {
		t.Errorf("hidden point style %v/%v", d.Opacity, d.PointerEvents)
	}
	if c.IsVisible(0) {
		t.Error("IsVisible should follow the filter")
	}
	if c.Click(0, r2.Vec{}) {
		t.Error("hidden points cannot be clicked")
	}

	// The sight/sound blend (id 5) stays visible through sound.
	if !c.IsVisible(5) {
		t.Error("blend with active sound component should stay visible")
	}
	c.UpdateActiveCategories([]string{"touch"})
	if c.IsVisible(5) {
		t.Error("blend should be hidden when none of its components is active")
	}
}

func TestRepulsionActive_StopsFrames(t *testing.T) {
	c, _, _ := newTestController(t)
	var calls atomic.Int32
	c.SetRenderSink(RenderFunc(func(Frame) { calls.Add(1) }))

	c.SetRepulsionActive(false)
	if _, ok := c.Tick(); ok {
		t.Error("tick should not render while stopped")
	}
	if calls.Load() != 0 {
		t.Error("sink should not be called while stopped")
	}

	c.SetRepulsionActive(true)
	c.Tick()
	if calls.Load() != 1 {
		t.Errorf("expected one render after restart, got %d", calls.Load())
	}
}

func TestClick_ShowsDetail(t *testing.T) {
	c, panel, _ := newTestController(t)

	if !c.Click(5, r2.Vec{X: 1500, Y: 2000}) {
		t.Fatal("click should select the blend")
	}
	if len(panel.shown) != 1 {
		t.Fatalf("expected one Show, got %d", len(panel.shown))
	}
	d := panel.shown[0]
	if d.ID != 5 || d.Dominant != "sound" || d.GeneratedDominant != model.Mixed {
		t.Errorf("unexpected detail %+v", d)
	}
	if d.Percent() != 60 || d.DominantName != "Sound" {
		t.Errorf("unexpected dominant %s %d%%", d.DominantName, d.Percent())
	}
	if len(d.Weights) != 5 || d.Weights[0].Category != "sight" || d.Weights[2].Value != 0 {
		t.Errorf("weights should list every category in palette order: %+v", d.Weights)
	}
	if d.Thumbnail.Keywords != "market,street" || d.Thumbnail.Bucket != 5 {
		t.Errorf("unexpected thumbnail %+v", d.Thumbnail)
	}

	// Re-click: no new Show.
	if c.Click(5, r2.Vec{}) || len(panel.shown) != 1 {
		t.Error("re-click must be a no-op")
	}
	// Unknown IDs are ignored.
	if c.Click(999, r2.Vec{}) {
		t.Error("unknown point must be a no-op")
	}
}

// gatedPanel blocks in Show until release is closed.
type gatedPanel struct {
	entered chan struct{}
	release chan struct{}

	mu   sync.Mutex
	open bool
}

func (p *gatedPanel) Show(Detail) {
	p.entered <- struct{}{}
	<-p.release
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = true
}

func (p *gatedPanel) Hide() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = false
}

func (p *gatedPanel) isOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

func TestPanelSink_DismissWaitsForShow(t *testing.T) {
	c, _, _ := newTestController(t)
	panel := &gatedPanel{entered: make(chan struct{}, 1), release: make(chan struct{})}
	c.SetPanelSink(panel)

	clicked := make(chan bool, 1)
	go func() { clicked <- c.Click(0, r2.Vec{X: 1000, Y: 1000}) }()
	<-panel.entered

	// Show is in flight. Move far away and race a dismiss check against it.
	c.MovePointer(r2.Vec{X: -5000, Y: -5000})
	dismissed := make(chan bool, 1)
	go func() { dismissed <- c.CheckDismiss() }()
	time.Sleep(20 * time.Millisecond)
	close(panel.release)

	if !<-clicked {
		t.Fatal("click should select point 0")
	}
	if !<-dismissed {
		t.Fatal("far pointer should dismiss")
	}
	if _, ok := c.Selected(); ok {
		t.Error("selection should be cleared")
	}
	if panel.isOpen() {
		t.Error("panel left open after the selection was dismissed")
	}
}

func TestClick_RecordsPointer(t *testing.T) {
	c, _, _ := newTestController(t)
	at := r2.Vec{X: 1002, Y: 999}
	if !c.Click(0, at) {
		t.Fatal("click should select point 0")
	}
	if got := c.Pointer(); got != at {
		t.Errorf("pointer = %v, want %v", got, at)
	}
	if c.CheckDismiss() {
		t.Error("a click without a prior move must not be dismissed")
	}
	if _, ok := c.Selected(); !ok {
		t.Error("selection should survive the check")
	}
}

func TestClickAt_HitAndBackground(t *testing.T) {
	c, panel, _ := newTestController(t)
	c.Tick()

	id, hit := c.ClickAt(r2.Vec{X: 2003, Y: 998})
	if !hit || id != 1 {
		t.Fatalf("expected hit on point 1, got %d/%v", id, hit)
	}
	if sel, _ := c.Selected(); sel != 1 {
		t.Errorf("expected point 1 selected, got %d", sel)
	}

	if _, hit := c.ClickAt(r2.Vec{X: 2500, Y: 2500}); hit {
		t.Fatal("empty map should not hit")
	}
	if _, ok := c.Selected(); ok {
		t.Error("background click should clear the selection")
	}
	if panel.hidden != 1 {
		t.Errorf("expected one Hide, got %d", panel.hidden)
	}
}

func TestHitTest_UsesDisplacedPositions(t *testing.T) {
	c, _, _ := newTestController(t)
	c.MovePointer(r2.Vec{X: 925, Y: 1000})
	c.Tick()

	if _, hit := c.HitTest(r2.Vec{X: 1040, Y: 1000}); !hit {
		t.Error("expected hit at the displaced position")
	}
	if _, hit := c.HitTest(r2.Vec{X: 1000, Y: 1000}); hit {
		t.Error("expected miss at the vacated base position")
	}
}

func TestCheckDismiss(t *testing.T) {
	tests := []struct {
		name    string
		pointer r2.Vec
		focus   bool
		want    bool
	}{
		{"349px", r2.Vec{X: 1349, Y: 1000}, false, false},
		{"351px", r2.Vec{X: 1351, Y: 1000}, false, true},
		{"351px with panel focus", r2.Vec{X: 1351, Y: 1000}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, panel, _ := newTestController(t)
			c.Click(0, r2.Vec{X: 1000, Y: 1000})
			c.SetPanelFocus(tt.focus)
			c.MovePointer(tt.pointer)

			if got := c.CheckDismiss(); got != tt.want {
				t.Errorf("CheckDismiss() = %v, want %v", got, tt.want)
			}
			_, selected := c.Selected()
			if selected == tt.want {
				t.Errorf("selected=%v after check", selected)
			}
			if tt.want && panel.hidden != 1 {
				t.Error("dismiss should hide the panel")
			}
		})
	}
}

func TestCheckDismiss_ScreenSpace(t *testing.T) {
	c, _, _ := newTestController(t)
	c.SetTransform(0.5, r2.Vec{})
	c.Click(0, r2.Vec{X: 500, Y: 500})

	// 300 screen px away but 600 world units.
	c.MovePointer(r2.Vec{X: 800, Y: 500})
	if c.CheckDismiss() {
		t.Error("distance is measured in screen pixels")
	}
	c.MovePointer(r2.Vec{X: 851, Y: 500})
	if !c.CheckDismiss() {
		t.Error("expected dismiss beyond 350 screen pixels")
	}
}

func TestCheckDismiss_NoSelection(t *testing.T) {
	c, panel, _ := newTestController(t)
	c.MovePointer(r2.Vec{X: 1e6, Y: 1e6})
	if c.CheckDismiss() || panel.hidden != 0 {
		t.Error("no selection means nothing to dismiss")
	}
}

func TestZoomIn_Animates(t *testing.T) {
	c, _, clk := newTestController(t)
	c.SetViewport(r2.Vec{X: 800, Y: 600})
	c.ZoomIn()
	if !c.Animating() {
		t.Fatal("zoom-in should start a transition")
	}

	clk.Advance(250 * time.Millisecond)
	f, _ := c.Tick()
	testutil.AssertNear(t, "mid scale", f.Transform.Scale, 1.25, 1e-12)

	clk.Advance(300 * time.Millisecond)
	f, _ = c.Tick()
	testutil.AssertNear(t, "final scale", f.Transform.Scale, 1.5, 1e-12)
	// Zoom is about the viewport center.
	center := r2.Vec{X: 400, Y: 300}
	testutil.AssertVecNear(t, "center fixed", f.Transform.Invert(center), center, 1e-9)
	if c.Animating() {
		t.Error("transition should be finished")
	}
}

func TestResetView(t *testing.T) {
	c, _, clk := newTestController(t)
	c.ResetView()
	clk.Advance(time.Second)
	c.Current()

	tr := c.Transform()
	testutil.AssertNear(t, "scale", tr.Scale, 0.4, 1e-12)
	testutil.AssertVecNear(t, "translate", tr.Translate, r2.Vec{X: -400, Y: -300}, 1e-9)
}

func TestCurrent_DoesNotRecompute(t *testing.T) {
	c, _, _ := newTestController(t)
	var calls int
	c.SetRenderSink(RenderFunc(func(Frame) { calls++ }))
	c.MovePointer(r2.Vec{X: 925, Y: 1000})

	f := c.Current()
	if calls != 0 {
		t.Error("Current must not call the render sink")
	}
	if d := dotByID(t, f, 0); d.X != 1000 {
		t.Error("Current must not apply repulsion")
	}
}

func TestHovered_Preview(t *testing.T) {
	c, _, _ := newTestController(t)
	c.MovePointer(r2.Vec{X: 1500, Y: 2000})
	c.Tick()

	p, ok := c.Hovered()
	if !ok || p.ID != 5 {
		t.Fatalf("expected preview of point 5, got %+v/%v", p, ok)
	}
	if len(p.Weights) != 2 || p.Weights[0].Category != "sight" || p.Weights[1].Category != "sound" {
		t.Errorf("unexpected preview rows %+v", p.Weights)
	}

	c.MovePointer(r2.Vec{X: 3000, Y: 2500})
	if _, ok := c.Hovered(); ok {
		t.Error("nothing is under the pointer")
	}
}

func TestReplacePoints_ClearsSelection(t *testing.T) {
	c, panel, _ := newTestController(t)
	c.Click(0, r2.Vec{})

	b := testutil.NewDefault()
	c.ReplacePoints([]model.Point{b.Core("taste", r2.Vec{X: 10, Y: 10})})

	if _, ok := c.Selected(); ok {
		t.Error("replacing points should clear the selection")
	}
	if panel.hidden != 1 {
		t.Error("replacing points should hide the panel")
	}
	f, _ := c.Tick()
	if len(f.Dots) != 1 {
		t.Errorf("expected 1 dot, got %d", len(f.Dots))
	}
}

func TestReplaceField_KeepsDisabledCategories(t *testing.T) {
	c, _, _ := newTestController(t)
	c.ToggleCategory("sight")

	palette := model.DefaultPalette()[1:] // drop sight
	palette = append(palette, model.Category{Name: "memory", Color: "#aaaaaa"})
	b := testutil.NewBuilder(palette)
	c.ReplaceField([]model.Point{b.Core("memory", r2.Vec{X: 10, Y: 10})}, palette)

	if got := len(c.Palette()); got != len(palette) {
		t.Fatalf("palette has %d entries, want %d", got, len(palette))
	}
	active := map[string]bool{}
	for _, name := range c.ActiveCategories() {
		active[name] = true
	}
	if !active["memory"] || !active["sound"] {
		t.Errorf("new and kept categories should be enabled, got %v", c.ActiveCategories())
	}
	if active["sight"] {
		t.Error("sight is no longer in the palette")
	}

	c.ToggleCategory("sound")
	c.ReplaceField(nil, model.DefaultPalette())
	for _, name := range c.ActiveCategories() {
		if name == "sound" {
			t.Error("sound was disabled before the swap and should stay disabled")
		}
	}
}

func TestSetPalette_RefreshesTextInPlace(t *testing.T) {
	c, panel, _ := newTestController(t)
	c.ToggleCategory("taste")
	c.Click(1, r2.Vec{X: 2000, Y: 1000})

	palette := model.DefaultPalette()
	palette[1].Names = map[string]string{model.LocaleEN: "Hearing"}
	palette[1].Keywords = "rain,window"
	c.SetPalette(palette)

	if got := len(c.Points()); got != 6 {
		t.Errorf("points should be kept, got %d", got)
	}
	if id, ok := c.Selected(); !ok || id != 1 {
		t.Errorf("selection should be kept, got %d/%v", id, ok)
	}
	if len(panel.shown) != 2 {
		t.Fatalf("expected the panel to be refreshed, got %d shows", len(panel.shown))
	}
	d := panel.shown[1]
	if d.DominantName != "Hearing" || d.Thumbnail.Keywords != "rain,window" {
		t.Errorf("stale detail %s/%s", d.DominantName, d.Thumbnail.Keywords)
	}
	legend := c.Legend()
	if legend[1].Label != "Hearing" {
		t.Errorf("legend label = %q", legend[1].Label)
	}
	if legend[4].Active {
		t.Error("taste was disabled and should stay disabled")
	}
}

func TestUpdateTuning_KeepsTransform(t *testing.T) {
	c, _, _ := newTestController(t)
	c.SetTransform(2, r2.Vec{X: 3, Y: 4})

	opts := DefaultOptions()
	opts.Repulsion.Radius = 10
	opts.DismissDistance = 50
	c.UpdateTuning(opts)

	if tr := c.Transform(); tr.Scale != 2 || tr.Translate != (r2.Vec{X: 3, Y: 4}) {
		t.Errorf("transform changed to %+v", tr)
	}
	c.Click(0, r2.Vec{})
	c.SetTransform(1, r2.Vec{})
	c.MovePointer(r2.Vec{X: 1060, Y: 1000})
	if !c.CheckDismiss() {
		t.Error("new dismiss distance should apply")
	}
}

func TestLegend(t *testing.T) {
	c, _, _ := newTestController(t)
	c.ToggleCategory("taste")
	legend := c.Legend()
	if len(legend) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(legend))
	}
	if legend[4].Category != "taste" || legend[4].Active {
		t.Errorf("taste should be inactive: %+v", legend[4])
	}
	if legend[0].Label != "Sight" {
		t.Errorf("expected English label, got %q", legend[0].Label)
	}
}

func TestDescribe(t *testing.T) {
	palette := model.DefaultPalette()
	p := testutil.NewDefault().Core("taste", r2.Vec{})

	en := Describe(p, palette, model.LocaleEN)
	if !strings.Contains(en, "**Taste**") || !strings.Contains(en, "80%") {
		t.Errorf("unexpected description %q", en)
	}
	ko := Describe(p, palette, model.LocaleKO)
	if !strings.Contains(ko, "미각") {
		t.Errorf("unexpected Korean description %q", ko)
	}
	empty := model.Point{Mixture: model.Mixture{}}
	if got := Describe(empty, palette, model.LocaleEN); !strings.Contains(got, "blended") {
		t.Errorf("unexpected fallback %q", got)
	}
}

func TestDetail_Summary(t *testing.T) {
	d := Detail{
		ID:           12,
		DominantName: "Sound",
		Weights: []model.Weight{
			{Category: "sight", Value: 0.4},
			{Category: "sound", Value: 0.6},
			{Category: "touch", Value: 0},
		},
	}
	want := "Scene #12: Sound (sight 40%, sound 60%)"
	if got := d.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestController_GeneratedFieldEndToEnd(t *testing.T) {
	cfg := pointfield.DefaultConfig()
	cfg.Seed = 99
	points, err := pointfield.Generate(cfg)
	if err != nil {
		t.Fatal(err)
	}
	c := NewController(points, cfg.Palette, DefaultOptions())

	f, _ := c.Tick()
	if len(f.Dots) != 2500+833 {
		t.Fatalf("expected %d dots, got %d", 2500+833, len(f.Dots))
	}
	for _, d := range f.Dots {
		if math.IsNaN(d.X) || math.IsNaN(d.Y) {
			t.Fatalf("dot %d has NaN position", d.ID)
		}
	}
}

func TestLoop_RunsBothDrivers(t *testing.T) {
	fx := testutil.Sparse()
	opts := DefaultOptions()
	opts.FrameInterval = 5 * time.Millisecond
	opts.DismissInterval = 5 * time.Millisecond
	c := NewController(fx.Points, fx.Palette, opts)
	c.SetTransform(1, r2.Vec{})

	var frames atomic.Int32
	c.SetRenderSink(RenderFunc(func(Frame) { frames.Add(1) }))
	c.Click(0, r2.Vec{})
	c.MovePointer(r2.Vec{X: 9000, Y: 9000})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := NewLoop(c).Run(ctx); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if frames.Load() == 0 {
		t.Error("frame driver never ran")
	}
	if _, ok := c.Selected(); ok {
		t.Error("dismiss driver should have cleared the far selection")
	}
}

func TestLoop_RejectsBadIntervals(t *testing.T) {
	fx := testutil.Sparse()
	l := &Loop{Controller: NewController(fx.Points, fx.Palette, DefaultOptions())}
	if err := l.Run(context.Background()); err == nil {
		t.Error("expected error for zero intervals")
	}
}
