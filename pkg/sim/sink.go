package sim

import (
	"time"

	"github.com/vanderheijden86/sensemap/pkg/model"
	"github.com/vanderheijden86/sensemap/pkg/selection"
	"github.com/vanderheijden86/sensemap/pkg/thumbnail"
	"github.com/vanderheijden86/sensemap/pkg/view"

	"gonum.org/v1/gonum/spatial/r2"
)

// Dot is one point as handed to a renderer, in screen space.
type Dot struct {
	ID            int     `json:"id"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Radius        float64 `json:"r"`
	Color         string  `json:"color"`
	Opacity       float64 `json:"opacity"`
	PointerEvents bool    `json:"pointer_events"`
	Category      string  `json:"category"`
	Selected      bool    `json:"selected,omitempty"`
}

// Frame is everything a renderer needs for one tick.
type Frame struct {
	Seq       uint64             `json:"seq"`
	At        time.Time          `json:"at"`
	Viewport  r2.Vec             `json:"viewport"`
	Transform view.Transform     `json:"transform"`
	Pointer   r2.Vec             `json:"pointer"`
	Dots      []Dot              `json:"dots"`
	Ripples   []selection.Ripple `json:"ripples,omitempty"`
	Selected  int                `json:"selected"`
	HasSel    bool               `json:"has_selection"`
	Legend    []LegendEntry      `json:"legend"`
}

// LegendEntry describes one category toggle.
type LegendEntry struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Color    string `json:"color"`
	Active   bool   `json:"active"`
}

// Detail is the attribute vector handed to the panel on selection.
type Detail struct {
	ID int `json:"id"`
	// Weights lists every palette category in order, 0 when absent.
	Weights []model.Weight `json:"weights"`
	// Dominant is recomputed from the weights and may differ from the
	// generation-time category of blend points.
	Dominant          string        `json:"dominant"`
	DominantWeight    float64       `json:"dominant_weight"`
	DominantName      string        `json:"dominant_name"`
	GeneratedDominant string        `json:"generated_dominant"`
	Color             string        `json:"color"`
	Base              r2.Vec        `json:"base"`
	Description       string        `json:"description"`
	Thumbnail         thumbnail.Ref `json:"thumbnail"`
}

// Percent returns the dominant weight rounded to a whole percentage.
func (d Detail) Percent() int {
	return percent(d.DominantWeight)
}

// Preview is the compact hover card: weights at or above the preview
// threshold, in palette order.
type Preview struct {
	ID        int            `json:"id"`
	Weights   []model.Weight `json:"weights"`
	Thumbnail thumbnail.Ref  `json:"thumbnail"`
}

// RenderSink receives one frame per tick.
type RenderSink interface {
	Render(f Frame)
}

// RenderFunc adapts a function to RenderSink.
type RenderFunc func(Frame)

// Render calls f.
func (f RenderFunc) Render(fr Frame) { f(fr) }

// PanelSink receives selection changes.
type PanelSink interface {
	Show(d Detail)
	Hide()
}

// PanelFuncs adapts a pair of functions to PanelSink. Nil fields are skipped.
type PanelFuncs struct {
	OnShow func(Detail)
	OnHide func()
}

// Show calls OnShow.
func (p PanelFuncs) Show(d Detail) {
	if p.OnShow != nil {
		p.OnShow(d)
	}
}

// Hide calls OnHide.
func (p PanelFuncs) Hide() {
	if p.OnHide != nil {
		p.OnHide()
	}
}

type nopRender struct{}

func (nopRender) Render(Frame) {}

type nopPanel struct{}

func (nopPanel) Show(Detail) {}
func (nopPanel) Hide()       {}
