package ui

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/sensemap/pkg/model"

	"github.com/charmbracelet/glamour"
)

// helpMarkdown builds the help overlay text for a palette.
func helpMarkdown(palette model.Palette, locale string) string {
	var b strings.Builder
	b.WriteString("# Sense Map\n\n")
	b.WriteString("Each point is a scene. Its color is the sense that dominates it; ")
	b.WriteString("points between clusters blend two senses.\n\n")
	b.WriteString("## Mouse\n\n")
	b.WriteString("| Action | Effect |\n|---|---|\n")
	b.WriteString("| Move | Points drift away from the pointer |\n")
	b.WriteString("| Click a point | Open its scene panel |\n")
	b.WriteString("| Click empty map | Close the panel |\n")
	b.WriteString("| Drag | Pan |\n")
	b.WriteString("| Wheel | Zoom around the pointer |\n\n")
	b.WriteString("Moving the pointer far from the selected point closes the panel, ")
	b.WriteString("unless the pointer rests on the panel.\n\n")
	b.WriteString("## Keys\n\n")
	b.WriteString("| Key | Action |\n|---|---|\n")
	for i, c := range palette {
		if i >= maxFilterKeys {
			break
		}
		fmt.Fprintf(&b, "| **%d** | Toggle %s |\n", i+1, c.DisplayName(locale))
	}
	b.WriteString("| **+** / **-** | Zoom in / out |\n")
	b.WriteString("| **0** | Reset view |\n")
	b.WriteString("| **arrows** | Pan |\n")
	b.WriteString("| **space** | Pause / resume the field |\n")
	b.WriteString("| **y** | Copy the selected scene |\n")
	b.WriteString("| **esc** | Close panel or help |\n")
	b.WriteString("| **q** | Quit |\n")
	return b.String()
}

// renderHelp renders the help overlay with glamour, falling back to raw
// markdown when rendering fails.
func renderHelp(palette model.Palette, locale string, width int) string {
	md := helpMarkdown(palette, locale)
	if width < 20 {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}
