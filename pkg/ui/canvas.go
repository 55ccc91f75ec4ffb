package ui

import (
	"math"
	"strings"

	"github.com/vanderheijden86/sensemap/pkg/sim"
)

// Screen geometry. One terminal cell stands for CellWidthPx x CellHeightPx
// screen pixels and holds a 2x4 braille dot matrix, so one braille dot
// covers 4x4 pixels.
const (
	CellWidthPx  = 8
	CellHeightPx = 16
	dotPx        = 4
)

// dimmedWeight separates filtered-out dots from visible ones in a cell.
const dimmedWeight = 0.5

// brailleBits[row][col] is the bit for a dot in a braille cell.
var brailleBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// CellToScreen returns the screen pixel at the center of a terminal cell.
func CellToScreen(col, row int) (float64, float64) {
	return float64(col*CellWidthPx + CellWidthPx/2), float64(row*CellHeightPx + CellHeightPx/2)
}

type cell struct {
	bits   uint8
	color  string
	weight float64
	glyph  rune // overrides the braille pattern when set
	style  int  // glyphNone, glyphSelected, glyphRipple
}

const (
	glyphNone = iota
	glyphSelected
	glyphRipple
)

// canvas rasterizes a frame onto a grid of braille cells.
type canvas struct {
	cols, rows int
	cells      []cell
}

func newCanvas(cols, rows int) *canvas {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	return &canvas{cols: cols, rows: rows, cells: make([]cell, cols*rows)}
}

func (c *canvas) at(col, row int) *cell {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return nil
	}
	return &c.cells[row*c.cols+col]
}

// plot sets the braille dot under screen pixel (x, y). The cell keeps the
// color of its heaviest dot.
func (c *canvas) plot(x, y float64, color string, weight float64) {
	if x < 0 || y < 0 {
		return
	}
	px, py := int(x)/dotPx, int(y)/dotPx
	ce := c.at(px/2, py/4)
	if ce == nil {
		return
	}
	ce.bits |= brailleBits[py%4][px%2]
	if weight > ce.weight {
		ce.weight = weight
		ce.color = color
	}
}

// disc plots every braille dot covered by a circle, or the center dot for
// circles smaller than one dot.
func (c *canvas) disc(x, y, r float64, color string, weight float64) {
	if r < dotPx {
		c.plot(x, y, color, weight)
		return
	}
	for dy := -r; dy <= r; dy += dotPx {
		for dx := -r; dx <= r; dx += dotPx {
			if dx*dx+dy*dy <= r*r {
				c.plot(x+dx, y+dy, color, weight)
			}
		}
	}
}

// ring plots a circle outline.
func (c *canvas) ring(x, y, r float64) {
	steps := int(math.Max(12, 2*math.Pi*r/dotPx))
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		px, py := x+r*math.Cos(a), y+r*math.Sin(a)
		if ce := c.at(int(px)/CellWidthPx, int(py)/CellHeightPx); ce != nil && ce.style == glyphNone && px >= 0 && py >= 0 {
			ce.style = glyphRipple
		}
	}
}

// mark replaces the cell under (x, y) with a glyph.
func (c *canvas) mark(x, y float64, glyph rune, color string) {
	if x < 0 || y < 0 {
		return
	}
	if ce := c.at(int(x)/CellWidthPx, int(y)/CellHeightPx); ce != nil {
		ce.glyph = glyph
		ce.color = color
		ce.weight = math.Inf(1)
		ce.style = glyphSelected
	}
}

// drawFrame rasterizes dots, the selection marker and ripples.
func (c *canvas) drawFrame(f sim.Frame) {
	var sel *sim.Dot
	for i := range f.Dots {
		d := &f.Dots[i]
		if d.Selected {
			sel = d
			continue
		}
		c.disc(d.X, d.Y, d.Radius, d.Color, d.Opacity)
	}
	for _, r := range f.Ripples {
		p := r.Progress(f.At)
		c.ring(r.At.X, r.At.Y, 8+32*p)
	}
	if sel != nil {
		c.mark(sel.X, sel.Y, '◉', sel.Color)
	}
}

// render returns the canvas as rows of styled text. Runs of cells sharing a
// style are rendered together.
func (c *canvas) render(t Theme) string {
	var b strings.Builder
	var run strings.Builder
	for row := 0; row < c.rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		var cur string
		flush := func() {
			if run.Len() == 0 {
				return
			}
			b.WriteString(c.styleFor(t, cur).Render(run.String()))
			run.Reset()
		}
		for col := 0; col < c.cols; col++ {
			ce := c.cells[row*c.cols+col]
			r, key := c.glyph(ce)
			if key != cur {
				flush()
				cur = key
			}
			run.WriteRune(r)
		}
		flush()
	}
	return b.String()
}

// glyph returns the rune of a cell and a style key.
func (c *canvas) glyph(ce cell) (rune, string) {
	switch {
	case ce.style == glyphSelected:
		return ce.glyph, "sel:" + ce.color
	case ce.style == glyphRipple && ce.bits == 0:
		return '·', "ripple"
	case ce.bits == 0:
		return ' ', ""
	case ce.weight < dimmedWeight:
		return rune(0x2800 + int(ce.bits)), "muted"
	default:
		return rune(0x2800 + int(ce.bits)), "fg:" + ce.color
	}
}

func (c *canvas) styleFor(t Theme, key string) styler {
	switch {
	case key == "":
		return plain{}
	case key == "muted":
		return t.MutedText
	case key == "ripple":
		return t.Ripple
	case strings.HasPrefix(key, "sel:"):
		return t.CategoryStyle(strings.TrimPrefix(key, "sel:")).Bold(true)
	default:
		return t.CategoryStyle(strings.TrimPrefix(key, "fg:"))
	}
}

type styler interface {
	Render(strs ...string) string
}

type plain struct{}

func (plain) Render(strs ...string) string { return strings.Join(strs, " ") }
