package sim

import (
	"time"

	"github.com/vanderheijden86/sensemap/pkg/config"
	"github.com/vanderheijden86/sensemap/pkg/model"
	"github.com/vanderheijden86/sensemap/pkg/pointfield"
	"github.com/vanderheijden86/sensemap/pkg/repulsion"
	"github.com/vanderheijden86/sensemap/pkg/selection"
	"github.com/vanderheijden86/sensemap/pkg/view"

	"gonum.org/v1/gonum/spatial/r2"
)

// Options tunes a Controller. Zero fields fall back to the defaults.
type Options struct {
	MapSize  r2.Vec // world size of the generated map
	Viewport r2.Vec // screen size in pixels

	Repulsion     repulsion.Field
	FrameInterval time.Duration

	MinScale      float64
	MaxScale      float64
	InitialScale  float64
	FitToWindow   bool // derive the initial scale from the viewport
	ZoomInFactor  float64
	ZoomOutFactor float64
	ZoomDuration  time.Duration
	ResetDuration time.Duration

	DismissDistance float64
	DismissInterval time.Duration
	RippleDuration  time.Duration

	// HitSlop is the minimum screen-space pick radius, in pixels.
	HitSlop float64
	// PreviewThreshold hides preview rows with a smaller weight.
	PreviewThreshold float64
	Locale           string

	// Now is the clock used for transitions and ripples.
	Now func() time.Time
}

// DefaultOptions returns the reference tuning on an 800x600 viewport.
func DefaultOptions() Options {
	return Options{
		MapSize:          r2.Vec{X: pointfield.DefaultMapWidth, Y: pointfield.DefaultMapHeight},
		Viewport:         r2.Vec{X: 800, Y: 600},
		Repulsion:        repulsion.Default(),
		FrameInterval:    16 * time.Millisecond,
		MinScale:         view.DefaultMinScale,
		MaxScale:         view.DefaultMaxScale,
		InitialScale:     view.DefaultInitialScale,
		ZoomInFactor:     view.DefaultZoomInFactor,
		ZoomOutFactor:    view.DefaultZoomOutFactor,
		ZoomDuration:     view.DefaultZoomDuration,
		ResetDuration:    view.DefaultResetDuration,
		DismissDistance:  selection.DefaultDismissDistance,
		DismissInterval:  selection.DefaultDismissInterval,
		RippleDuration:   selection.DefaultRippleDuration,
		HitSlop:          4,
		PreviewThreshold: 0.1,
		Locale:           model.LocaleEN,
		Now:              time.Now,
	}
}

// OptionsFromConfig maps the file configuration onto controller options.
func OptionsFromConfig(cfg config.Config) Options {
	o := DefaultOptions()
	o.MapSize = r2.Vec{X: cfg.Map.Width, Y: cfg.Map.Height}
	o.Repulsion = repulsion.Field{Radius: cfg.Repulsion.Radius, MaxForce: cfg.Repulsion.MaxForce}
	o.FrameInterval = cfg.Repulsion.FrameInterval
	o.MinScale = cfg.View.MinScale
	o.MaxScale = cfg.View.MaxScale
	o.InitialScale = cfg.View.InitialScale
	o.FitToWindow = cfg.View.FitToWindow
	o.ZoomInFactor = cfg.View.ZoomInFactor
	o.ZoomOutFactor = cfg.View.ZoomOutFactor
	o.ZoomDuration = cfg.View.ZoomDuration
	o.ResetDuration = cfg.View.ResetDuration
	o.DismissDistance = cfg.Selection.DismissDistance
	o.DismissInterval = cfg.Selection.DismissInterval
	o.RippleDuration = cfg.Selection.RippleDuration
	o.Locale = cfg.UI.Locale
	return o.withDefaults()
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MapSize.X <= 0 || o.MapSize.Y <= 0 {
		o.MapSize = d.MapSize
	}
	if o.Viewport.X <= 0 || o.Viewport.Y <= 0 {
		o.Viewport = d.Viewport
	}
	if o.Repulsion.Radius <= 0 {
		o.Repulsion.Radius = d.Repulsion.Radius
	}
	if o.Repulsion.MaxForce < 0 {
		o.Repulsion.MaxForce = d.Repulsion.MaxForce
	}
	if o.FrameInterval <= 0 {
		o.FrameInterval = d.FrameInterval
	}
	if o.MinScale <= 0 {
		o.MinScale = d.MinScale
	}
	if o.MaxScale <= 0 {
		o.MaxScale = d.MaxScale
	}
	if o.InitialScale <= 0 {
		o.InitialScale = d.InitialScale
	}
	if o.ZoomInFactor <= 0 {
		o.ZoomInFactor = d.ZoomInFactor
	}
	if o.ZoomOutFactor <= 0 {
		o.ZoomOutFactor = d.ZoomOutFactor
	}
	if o.ZoomDuration < 0 {
		o.ZoomDuration = d.ZoomDuration
	}
	if o.ResetDuration < 0 {
		o.ResetDuration = d.ResetDuration
	}
	if o.DismissDistance <= 0 {
		o.DismissDistance = d.DismissDistance
	}
	if o.DismissInterval <= 0 {
		o.DismissInterval = d.DismissInterval
	}
	if o.RippleDuration <= 0 {
		o.RippleDuration = d.RippleDuration
	}
	if o.HitSlop <= 0 {
		o.HitSlop = d.HitSlop
	}
	if o.PreviewThreshold <= 0 {
		o.PreviewThreshold = d.PreviewThreshold
	}
	if o.Locale == "" {
		o.Locale = d.Locale
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// initialTransform is the transform a reset animates to.
func (o Options) initialTransform() view.Transform {
	scale := o.InitialScale
	if o.FitToWindow {
		scale = view.FitScale(o.Viewport, o.MapSize, 0.9)
	}
	return view.Centered(o.Viewport, o.MapSize, scale)
}
