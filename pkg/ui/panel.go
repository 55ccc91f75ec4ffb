package ui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vanderheijden86/sensemap/pkg/model"
	"github.com/vanderheijden86/sensemap/pkg/sim"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// PanelWidth is the width of the detail panel including its border.
const PanelWidth = 38

// ThumbnailURLTemplate receives the keywords and the cache bucket.
const ThumbnailURLTemplate = "https://loremflickr.com/320/240/%s?lock=%d"

// panelState is the controller's panel sink. The controller calls it after
// releasing its lock; the model reads it while rendering.
type panelState struct {
	mu     sync.Mutex
	detail *sim.Detail
	shown  int // bumped on every Show so cached renders can be invalidated
}

func (p *panelState) Show(d sim.Detail) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detail = &d
	p.shown++
}

func (p *panelState) Hide() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detail = nil
}

func (p *panelState) current() (sim.Detail, int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.detail == nil {
		return sim.Detail{}, p.shown, false
	}
	return *p.detail, p.shown, true
}

// markdownCache renders descriptions with glamour, keyed by panel
// generation and width.
type markdownCache struct {
	width    int
	renderer *glamour.TermRenderer
	key      int
	out      string
}

func (mc *markdownCache) render(md string, width, key int) string {
	if mc.renderer == nil || mc.width != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mc.renderer, mc.width, mc.key = r, width, -1
	}
	if mc.key == key && mc.out != "" {
		return mc.out
	}
	out, err := mc.renderer.Render(md)
	if err != nil {
		return md
	}
	mc.key = key
	mc.out = strings.Trim(out, "\n")
	return mc.out
}

// renderPanel draws the detail card for d.
func renderPanel(t Theme, d sim.Detail, palette model.Palette, locale string, height int, focused bool, description string) string {
	inner := PanelWidth - 4 // border + padding
	var b strings.Builder

	title := fmt.Sprintf("Scene #%d", d.ID)
	b.WriteString(t.PanelTitle.Render(truncateRunesHelper(title, inner, "…")))
	b.WriteString("\n")
	b.WriteString(t.CategoryStyle(d.Color).Render("● ") + t.Base.Render(fmt.Sprintf("%s %d%%", d.DominantName, d.Percent())))
	b.WriteString("\n\n")

	for _, w := range d.Weights {
		label := w.Category
		color := "#888888"
		if c, ok := palette.Lookup(w.Category); ok {
			label = c.DisplayName(locale)
			color = c.Color
		}
		b.WriteString(weightRow(t, label, color, w.Value, inner))
		b.WriteString("\n")
	}

	if description != "" {
		b.WriteString("\n")
		b.WriteString(description)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(t.MutedText.Render(truncateRunesHelper(d.Thumbnail.URL(ThumbnailURLTemplate), inner, "…")))
	b.WriteString("\n")
	b.WriteString(t.MutedText.Render("esc close · y copy"))

	style := t.Panel
	if focused {
		style = t.PanelFocused
	}
	return style.Width(PanelWidth - 2).MaxHeight(height).Render(b.String())
}

// renderPlaceholder is shown in the panel column while nothing is selected.
func renderPlaceholder(t Theme, legend []sim.LegendEntry, height int) string {
	var b strings.Builder
	b.WriteString(t.PanelTitle.Render("Senses"))
	b.WriteString("\n\n")
	for i, e := range legend {
		mark := "○"
		if e.Active {
			mark = "●"
		}
		b.WriteString(t.CategoryStyle(e.Color).Render(mark))
		b.WriteString(t.Base.Render(fmt.Sprintf(" %d %s", i+1, e.Label)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(t.MutedText.Render("Click a point to see its scene."))
	return t.Panel.Width(PanelWidth - 2).MaxHeight(height).Render(b.String())
}

// weightRow renders "label ███░░ 40%" fitted to width.
func weightRow(t Theme, label, color string, w float64, width int) string {
	const labelW, pctW = 8, 5
	barW := width - labelW - pctW - 2
	if barW < 1 {
		barW = 1
	}
	filled := int(w*float64(barW) + 0.5)
	if filled > barW {
		filled = barW
	}
	bar := t.CategoryStyle(color).Render(strings.Repeat("█", filled)) +
		t.MutedText.Render(strings.Repeat("░", barW-filled))
	return lipgloss.JoinHorizontal(lipgloss.Top,
		padRight(truncateRunesHelper(label, labelW, "…"), labelW), " ",
		bar, " ",
		fmt.Sprintf("%*d%%", pctW-1, int(w*100+0.5)),
	)
}
