package ui

import (
	"os"
	"sync"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals keep their own
// background.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// Theme holds the styles of the map view.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary lipgloss.AdaptiveColor
	Subtext lipgloss.AdaptiveColor
	Muted   lipgloss.AdaptiveColor
	Border  lipgloss.AdaptiveColor

	Base         lipgloss.Style
	Header       lipgloss.Style
	Footer       lipgloss.Style
	MutedText    lipgloss.Style
	Status       lipgloss.Style
	Panel        lipgloss.Style
	PanelFocused lipgloss.Style
	PanelTitle   lipgloss.Style
	Selected     lipgloss.Style
	Ripple       lipgloss.Style

	// Per-category foreground styles, keyed by hex color.
	mu     *sync.Mutex
	colors map[string]lipgloss.Style
}

// DefaultTheme returns the Dracula-inspired theme (adaptive).
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,
		Primary:  lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Subtext:  lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},
		Muted:    lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Border:   lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		mu:       &sync.Mutex{},
		colors:   make(map[string]lipgloss.Style),
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})
	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)
	t.Footer = r.NewStyle().Foreground(t.Subtext)
	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.Status = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}).Bold(true)
	t.Panel = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)
	t.PanelFocused = t.Panel.BorderForeground(t.Primary)
	t.PanelTitle = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.Selected = r.NewStyle().Foreground(ThemeFg("#FFFFFF")).Bold(true)
	t.Ripple = r.NewStyle().Foreground(ThemeFg("#F8F8F2"))
	return t
}

// CategoryStyle returns a cached foreground style for a category color.
func (t Theme) CategoryStyle(hex string) lipgloss.Style {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.colors[hex]; ok {
		return s
	}
	s := t.Renderer.NewStyle().Foreground(ThemeFg(hex))
	t.colors[hex] = s
	return s
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
