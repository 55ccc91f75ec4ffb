package ui

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/sensemap/pkg/model"
	"github.com/vanderheijden86/sensemap/pkg/sim"

	"github.com/mattn/go-runewidth"
)

// truncateRunesHelper truncates a string to max visual width (cells), adding suffix if needed.
// Uses go-runewidth to handle wide characters correctly.
func truncateRunesHelper(s string, maxWidth int, suffix string) string {
	if maxWidth <= 0 {
		return ""
	}

	width := runewidth.StringWidth(s)
	if width <= maxWidth {
		return s
	}

	suffixWidth := runewidth.StringWidth(suffix)
	if suffixWidth > maxWidth {
		return runewidth.Truncate(suffix, maxWidth, "")
	}

	targetWidth := maxWidth - suffixWidth
	return runewidth.Truncate(s, targetWidth, "") + suffix
}

// padRight pads s with spaces to the given visual width.
func padRight(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// miniBar is a five-cell bar for the hover preview.
func miniBar(w float64) string {
	const cells = 5
	n := int(w*cells + 0.5)
	if n > cells {
		n = cells
	}
	return strings.Repeat("▮", n) + strings.Repeat("▯", cells-n)
}

// previewLine renders the hover card as one footer line.
func previewLine(t Theme, p sim.Preview, palette model.Palette, locale string, width int) string {
	parts := []string{t.PanelTitle.Render(fmt.Sprintf("#%d", p.ID))}
	for _, w := range p.Weights {
		label, color := w.Category, "#888888"
		if c, ok := palette.Lookup(w.Category); ok {
			label, color = c.DisplayName(locale), c.Color
		}
		parts = append(parts, fmt.Sprintf("%s %s %d%%", label, t.CategoryStyle(color).Render(miniBar(w.Value)), int(w.Value*100+0.5)))
	}
	parts = append(parts, t.MutedText.Render(p.Thumbnail.Keywords))
	line := strings.Join(parts, "  ")
	return t.Renderer.NewStyle().MaxWidth(width).Render(line)
}
