package export

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vanderheijden86/sensemap/pkg/debug"
	"github.com/vanderheijden86/sensemap/pkg/metrics"
	"github.com/vanderheijden86/sensemap/pkg/sim"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
	"golang.org/x/image/font/basicfont"
)

// Snapshot formats.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

// SnapshotOptions controls frame snapshot export.
type SnapshotOptions struct {
	Path   string    // Output path; format inferred from extension when Format empty
	Format string    // "svg" or "png" (case-insensitive)
	Title  string    // Rendered in the header band
	Notes  []string  // Extra header lines, e.g. a field summary
	Frame  sim.Frame // Frame to draw
}

// ResolveFormat returns the snapshot format for opts, inferring it from the
// path extension when Format is empty.
func ResolveFormat(opts SnapshotOptions) (string, error) {
	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".png":
			format = FormatPNG
		case ".svg", "":
			format = FormatSVG
		default:
			return "", fmt.Errorf("cannot infer snapshot format from %q", opts.Path)
		}
	}
	if format != FormatSVG && format != FormatPNG {
		return "", fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	return format, nil
}

// SaveSnapshot renders a frame to a PNG or SVG file with a header band
// carrying the title, frame statistics and the category legend.
func SaveSnapshot(opts SnapshotOptions) error {
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}
	format, err := ResolveFormat(opts)
	if err != nil {
		return err
	}
	if filepath.Ext(opts.Path) == "" {
		opts.Path += "." + format
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, format, opts); err != nil {
		return err
	}
	if err := os.WriteFile(opts.Path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	debug.Log("export: wrote %s snapshot %s (%d bytes)", format, opts.Path, buf.Len())
	return nil
}

// WriteSnapshot renders a frame in the given format to w.
func WriteSnapshot(w io.Writer, format string, opts SnapshotOptions) error {
	defer metrics.Timer(metrics.SnapshotRender)()

	layout := buildLayout(opts)
	switch strings.ToLower(format) {
	case FormatPNG:
		return renderPNG(w, layout)
	case FormatSVG:
		return renderSVG(w, layout)
	default:
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
}

// ============================================================================
// Layout
// ============================================================================

const (
	headerHeight = 96.0
	legendRowW   = 92.0
	minWidth     = 640
	minMapHeight = 360
)

type layoutDot struct {
	X, Y, R  float64
	Fill     color.NRGBA
	Selected bool
}

type layoutRipple struct {
	X, Y, R float64
	Alpha   float64
}

type layoutLegend struct {
	Label  string
	Fill   color.NRGBA
	Active bool
}

type layoutResult struct {
	Width   int
	Height  int
	MapW    float64
	MapH    float64
	Dots    []layoutDot
	Ripples []layoutRipple
	Pointer *[2]float64
	Legend  []layoutLegend
	Lines   []string
	Title   string
}

func buildLayout(opts SnapshotOptions) layoutResult {
	f := opts.Frame
	mapW := math.Max(f.Viewport.X, minWidth)
	mapH := math.Max(f.Viewport.Y, minMapHeight)

	lr := layoutResult{
		Width: int(math.Ceil(mapW)),
		MapW:  mapW,
		MapH:  mapH,
		Title: strings.TrimSpace(opts.Title),
	}
	lr.Height = int(math.Ceil(headerHeight + mapH))
	if lr.Title == "" {
		lr.Title = "Sense Map"
	}

	visible := 0
	for _, d := range f.Dots {
		if d.PointerEvents {
			visible++
		}
		if d.X+d.Radius < 0 || d.Y+d.Radius < 0 || d.X-d.Radius > mapW || d.Y-d.Radius > mapH {
			continue
		}
		lr.Dots = append(lr.Dots, layoutDot{
			X:        d.X,
			Y:        d.Y + headerHeight,
			R:        math.Max(d.Radius, 0.5),
			Fill:     parseColor(d.Color, d.Opacity),
			Selected: d.Selected,
		})
	}
	// Dimmed points first, selection last, so highlighted dots stay on top.
	sort.SliceStable(lr.Dots, func(i, j int) bool {
		a, b := lr.Dots[i], lr.Dots[j]
		if a.Selected != b.Selected {
			return b.Selected
		}
		return a.Fill.A < b.Fill.A
	})

	for _, r := range f.Ripples {
		p := r.Progress(f.At)
		lr.Ripples = append(lr.Ripples, layoutRipple{
			X:     r.At.X,
			Y:     r.At.Y + headerHeight,
			R:     8 + 32*p,
			Alpha: 1 - p,
		})
	}

	if f.Pointer.X >= 0 && f.Pointer.Y >= 0 && f.Pointer.X <= mapW && f.Pointer.Y <= mapH {
		lr.Pointer = &[2]float64{f.Pointer.X, f.Pointer.Y + headerHeight}
	}

	for _, e := range f.Legend {
		lr.Legend = append(lr.Legend, layoutLegend{
			Label:  truncate(e.Label, 11),
			Fill:   parseColor(e.Color, 1),
			Active: e.Active,
		})
	}

	sel := "none"
	if f.HasSel {
		sel = fmt.Sprintf("#%d", f.Selected)
	}
	lr.Lines = append(lr.Lines,
		fmt.Sprintf("points: %d  visible: %d  selected: %s", len(f.Dots), visible, sel),
		fmt.Sprintf("scale: %.2f  translate: (%.0f, %.0f)", f.Transform.Scale, f.Transform.Translate.X, f.Transform.Translate.Y),
	)
	for _, n := range opts.Notes {
		lr.Lines = append(lr.Lines, truncate(n, 72))
	}
	if len(lr.Lines) > 3 {
		lr.Lines = lr.Lines[:3]
	}
	return lr
}

// legendOrigin is the top-left corner of the legend block in the header.
func (lr layoutResult) legendOrigin() (float64, float64) {
	cols := math.Min(float64(len(lr.Legend)), 3)
	return float64(lr.Width) - cols*legendRowW - 16, 20
}

// ============================================================================
// Rendering
// ============================================================================

var (
	colorBackdrop = color.NRGBA{0x14, 0x16, 0x1c, 0xff}
	colorHeaderBG = color.NRGBA{0x22, 0x25, 0x2e, 0xff}
	colorText     = color.NRGBA{0xee, 0xee, 0xee, 0xff}
	colorSubtle   = color.NRGBA{0x9a, 0xa0, 0xa8, 0xff}
	colorRing     = color.NRGBA{0xff, 0xff, 0xff, 0xff}
	colorPointer  = color.NRGBA{0xff, 0xff, 0xff, 0x99}
)

func renderPNG(w io.Writer, lr layoutResult) error {
	dc := gg.NewContext(lr.Width, lr.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRectangle(0, 0, float64(lr.Width), headerHeight)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(colorText)
	dc.DrawStringAnchored(lr.Title, 16, 22, 0, 0.5)
	dc.SetColor(colorSubtle)
	for i, line := range lr.Lines {
		dc.DrawStringAnchored(line, 16, 44+float64(i)*18, 0, 0.5)
	}
	drawLegend(dc, lr)

	for _, d := range lr.Dots {
		dc.SetColor(d.Fill)
		dc.DrawCircle(d.X, d.Y, d.R)
		dc.Fill()
		if d.Selected {
			dc.SetColor(colorRing)
			dc.SetLineWidth(2)
			dc.DrawCircle(d.X, d.Y, d.R+3)
			dc.Stroke()
		}
	}
	for _, r := range lr.Ripples {
		dc.SetColor(withAlpha(colorRing, r.Alpha))
		dc.SetLineWidth(1.5)
		dc.DrawCircle(r.X, r.Y, r.R)
		dc.Stroke()
	}
	if lr.Pointer != nil {
		dc.SetColor(colorPointer)
		dc.SetLineWidth(1)
		dc.DrawLine(lr.Pointer[0]-6, lr.Pointer[1], lr.Pointer[0]+6, lr.Pointer[1])
		dc.DrawLine(lr.Pointer[0], lr.Pointer[1]-6, lr.Pointer[0], lr.Pointer[1]+6)
		dc.Stroke()
	}

	return dc.EncodePNG(w)
}

func drawLegend(dc *gg.Context, lr layoutResult) {
	x0, y0 := lr.legendOrigin()
	for i, e := range lr.Legend {
		x := x0 + float64(i%3)*legendRowW
		y := y0 + float64(i/3)*20
		dc.SetColor(e.Fill)
		dc.DrawRoundedRectangle(x, y-6, 12, 12, 3)
		if e.Active {
			dc.Fill()
		} else {
			dc.SetLineWidth(1)
			dc.Stroke()
		}
		dc.SetColor(legendTextColor(e.Active))
		dc.DrawStringAnchored(e.Label, x+18, y, 0, 0.5)
	}
}

func renderSVG(w io.Writer, lr layoutResult) error {
	canvas := svg.New(w)
	canvas.Start(lr.Width, lr.Height)
	canvas.Rect(0, 0, lr.Width, lr.Height, "fill:"+css(colorBackdrop))
	canvas.Rect(0, 0, lr.Width, int(headerHeight), "fill:"+css(colorHeaderBG))

	canvas.Text(16, 26, lr.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	for i, line := range lr.Lines {
		canvas.Text(16, 48+i*18, line, fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
	}
	drawLegendSVG(canvas, lr)

	canvas.Gid("points")
	for _, d := range lr.Dots {
		style := fmt.Sprintf("fill:%s;fill-opacity:%.2f", css(d.Fill), float64(d.Fill.A)/255)
		if d.Selected {
			style += fmt.Sprintf(";stroke:%s;stroke-width:2", css(colorRing))
		}
		canvas.Circle(int(math.Round(d.X)), int(math.Round(d.Y)), int(math.Max(1, math.Round(d.R))), style)
	}
	canvas.Gend()

	for _, r := range lr.Ripples {
		canvas.Circle(int(r.X), int(r.Y), int(r.R),
			fmt.Sprintf("fill:none;stroke:%s;stroke-opacity:%.2f;stroke-width:1.5", css(colorRing), r.Alpha))
	}
	if lr.Pointer != nil {
		x, y := int(lr.Pointer[0]), int(lr.Pointer[1])
		style := fmt.Sprintf("stroke:%s;stroke-opacity:0.6;stroke-width:1", css(colorPointer))
		canvas.Line(x-6, y, x+6, y, style)
		canvas.Line(x, y-6, x, y+6, style)
	}

	canvas.End()
	return nil
}

func drawLegendSVG(canvas *svg.SVG, lr layoutResult) {
	x0, y0 := lr.legendOrigin()
	for i, e := range lr.Legend {
		x := int(x0 + float64(i%3)*legendRowW)
		y := int(y0 + float64(i/3)*20)
		style := "fill:" + css(e.Fill)
		if !e.Active {
			style = fmt.Sprintf("fill:none;stroke:%s;stroke-width:1", css(e.Fill))
		}
		canvas.Roundrect(x, y-6, 12, 12, 3, 3, style)
		canvas.Text(x+18, y+4, e.Label, fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(legendTextColor(e.Active))))
	}
}

// ============================================================================
// Helpers
// ============================================================================

func legendTextColor(active bool) color.NRGBA {
	if active {
		return colorText
	}
	return colorSubtle
}

// parseColor converts a hex color and an opacity to NRGBA. Unparseable
// colors render grey.
func parseColor(hex string, opacity float64) color.NRGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		c = colorful.Color{R: 0.53, G: 0.53, B: 0.53}
	}
	r, g, b := c.RGB255()
	return withAlpha(color.NRGBA{R: r, G: g, B: b, A: 0xff}, opacity)
}

func withAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(math.Round(math.Max(0, math.Min(1, a)) * 255))
	return c
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	return runewidth.Truncate(s, max, "...")
}

func css(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
