package ui

import (
	"fmt"

	"github.com/vanderheijden86/sensemap/pkg/model"

	"github.com/charmbracelet/bubbles/key"
)

// maxFilterKeys is the number of categories reachable by digit keys.
const maxFilterKeys = 9

type keyMap struct {
	Filters   []key.Binding // one per category, in palette order
	ZoomIn    key.Binding
	ZoomOut   key.Binding
	Reset     key.Binding
	Close     key.Binding
	Repulsion key.Binding
	Copy      key.Binding
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func newKeyMap(palette model.Palette) keyMap {
	km := keyMap{
		ZoomIn:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut:   key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		Reset:     key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset view")),
		Close:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close panel")),
		Repulsion: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/resume")),
		Copy:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy scene")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "pan up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "pan down")),
		Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "pan left")),
		Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "pan right")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
	for i, c := range palette {
		if i >= maxFilterKeys {
			break
		}
		k := fmt.Sprintf("%d", i+1)
		km.Filters = append(km.Filters, key.NewBinding(key.WithKeys(k), key.WithHelp(k, "toggle "+c.Name)))
	}
	return km
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ZoomIn, k.ZoomOut, k.Reset, k.Repulsion, k.Close, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		k.Filters,
		{k.ZoomIn, k.ZoomOut, k.Reset, k.Up, k.Down, k.Left, k.Right},
		{k.Close, k.Copy, k.Repulsion, k.Help, k.Quit},
	}
}
