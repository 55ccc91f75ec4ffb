package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/vanderheijden86/sensemap/pkg/selection"
	"github.com/vanderheijden86/sensemap/pkg/sim"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestCellToScreen(t *testing.T) {
	tests := []struct {
		col, row int
		x, y     float64
	}{
		{0, 0, 4, 8},
		{13, 6, 108, 104},
		{1, 1, 12, 24},
	}
	for _, tt := range tests {
		x, y := CellToScreen(tt.col, tt.row)
		if x != tt.x || y != tt.y {
			t.Errorf("CellToScreen(%d, %d) = (%v, %v), want (%v, %v)", tt.col, tt.row, x, y, tt.x, tt.y)
		}
	}
}

func TestCanvas_PlotBrailleBits(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
		bits uint8
	}{
		{"top left", 0, 0, 0x01},
		{"top right", 5, 0, 0x08},
		{"third row left", 0, 9, 0x04},
		{"bottom right", 7, 15, 0x80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCanvas(2, 2)
			c.plot(tt.x, tt.y, "#ffffff", 1)
			if got := c.at(0, 0).bits; got != tt.bits {
				t.Errorf("bits = %#x, want %#x", got, tt.bits)
			}
		})
	}
}

func TestCanvas_PlotOutOfBounds(t *testing.T) {
	c := newCanvas(2, 2)
	c.plot(-1, 4, "#ffffff", 1)
	c.plot(4, -1, "#ffffff", 1)
	c.plot(100, 4, "#ffffff", 1)
	for i, ce := range c.cells {
		if ce.bits != 0 {
			t.Errorf("cell %d should be empty", i)
		}
	}
}

func TestCanvas_HeaviestDotWinsColor(t *testing.T) {
	c := newCanvas(1, 1)
	c.plot(0, 0, "#111111", 0.3)
	c.plot(4, 4, "#222222", 1)
	c.plot(0, 8, "#333333", 0.3)
	if got := c.at(0, 0).color; got != "#222222" {
		t.Errorf("color = %s", got)
	}
}

func TestCanvas_Glyphs(t *testing.T) {
	c := newCanvas(4, 1)
	c.plot(4, 8, "#ff0000", 1)
	c.plot(12, 8, "#00ff00", 0.3)
	c.mark(20, 8, '◉', "#0000ff")

	tests := []struct {
		col  int
		r    rune
		want string
	}{
		{0, rune(0x2800 + int(c.at(0, 0).bits)), "fg:#ff0000"},
		{1, rune(0x2800 + int(c.at(1, 0).bits)), "muted"},
		{2, '◉', "sel:#0000ff"},
		{3, ' ', ""},
	}
	for _, tt := range tests {
		r, key := c.glyph(*c.at(tt.col, 0))
		if r != tt.r || key != tt.want {
			t.Errorf("col %d: glyph = %q/%q, want %q/%q", tt.col, r, key, tt.r, tt.want)
		}
	}
}

func TestCanvas_DrawFrame(t *testing.T) {
	now := time.Now()
	f := sim.Frame{
		At: now,
		Dots: []sim.Dot{
			{ID: 0, X: 4, Y: 8, Radius: 1, Color: "#ff0000", Opacity: 1},
			{ID: 1, X: 20, Y: 8, Radius: 1, Color: "#00ff00", Opacity: 1, Selected: true},
		},
		Ripples: []selection.Ripple{{At: r2.Vec{X: 60, Y: 40}, Start: now, Duration: time.Second}},
	}
	c := newCanvas(16, 6)
	c.drawFrame(f)

	if c.at(0, 0).bits == 0 {
		t.Error("dot 0 should be plotted")
	}
	if c.at(2, 0).style != glyphSelected {
		t.Error("selected dot should be marked")
	}
	ripple := 0
	for _, ce := range c.cells {
		if ce.style == glyphRipple {
			ripple++
		}
	}
	if ripple == 0 {
		t.Error("ripple ring should be drawn")
	}

	out := c.render(TestTheme())
	if lines := strings.Count(out, "\n") + 1; lines != 6 {
		t.Errorf("rendered %d rows, want 6", lines)
	}
	if !strings.Contains(out, "◉") || !strings.Contains(out, "·") {
		t.Error("render should include the selection and ripple glyphs")
	}
}

func TestCanvas_DiscCoversRadius(t *testing.T) {
	c := newCanvas(8, 4)
	c.disc(32, 32, 12, "#ffffff", 1)
	filled := 0
	for _, ce := range c.cells {
		if ce.bits != 0 {
			filled++
		}
	}
	if filled < 4 {
		t.Errorf("a 12px disc should span several cells, got %d", filled)
	}
}

func TestPadRightAndTruncate(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Errorf("padRight = %q", got)
	}
	if got := truncateRunesHelper("abcdef", 4, "…"); got != "abc…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncateRunesHelper("시각시각", 5, "…"); got != "시각…" {
		t.Errorf("wide truncate = %q", got)
	}
	if got := miniBar(0.6); got != "▮▮▮▯▯" {
		t.Errorf("miniBar = %q", got)
	}
}
