// Package ui is the terminal front end of the sense map. The model is the
// pointer source, render sink and panel sink of a sim.Controller: mouse
// events become pointer moves, clicks and gestures, and bubbletea ticks
// drive the frame and auto-dismiss loops.
package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vanderheijden86/sensemap/pkg/config"
	"github.com/vanderheijden86/sensemap/pkg/debug"
	"github.com/vanderheijden86/sensemap/pkg/metrics"
	"github.com/vanderheijden86/sensemap/pkg/model"
	"github.com/vanderheijden86/sensemap/pkg/pointfield"
	"github.com/vanderheijden86/sensemap/pkg/sim"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r2"
)

// Layout thresholds.
const (
	SplitViewThreshold = 80 // below this width the panel column is hidden
	headerRows         = 1
	footerRows         = 2
	wheelZoom          = 1.2
	panCells           = 4
)

// ============================================================================
// Messages
// ============================================================================

type frameTickMsg time.Time

type dismissTickMsg time.Time

// ConfigReloadedMsg carries a configuration re-read from disk.
type ConfigReloadedMsg struct {
	Config config.Config
}

// ConfigErrorMsg reports a configuration file that failed to reload.
type ConfigErrorMsg struct {
	Err error
}

func frameTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return frameTickMsg(t)
	})
}

func dismissTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return dismissTickMsg(t)
	})
}

// ReloadBridge forwards watcher callbacks into the program. Only the newest
// pending event is kept.
type ReloadBridge struct {
	ch chan tea.Msg
}

// NewReloadBridge creates an empty bridge.
func NewReloadBridge() *ReloadBridge {
	return &ReloadBridge{ch: make(chan tea.Msg, 1)}
}

// OnReload is the reloader's success callback.
func (b *ReloadBridge) OnReload(cfg config.Config) {
	b.send(ConfigReloadedMsg{Config: cfg})
}

// OnError is the reloader's failure callback.
func (b *ReloadBridge) OnError(err error) {
	b.send(ConfigErrorMsg{Err: err})
}

func (b *ReloadBridge) send(msg tea.Msg) {
	for {
		select {
		case b.ch <- msg:
			return
		default:
		}
		select {
		case <-b.ch:
		default:
		}
	}
}

// waitCmd blocks until the next reload event.
func (b *ReloadBridge) waitCmd() tea.Cmd {
	return func() tea.Msg {
		return <-b.ch
	}
}

// frameStore is the controller's render sink.
type frameStore struct {
	mu    sync.Mutex
	frame sim.Frame
}

func (s *frameStore) Render(f sim.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = f
}

func (s *frameStore) last() sim.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// ============================================================================
// Model
// ============================================================================

// Model is the bubbletea model of the map view.
type Model struct {
	ctrl   *sim.Controller
	cfg    config.Config
	theme  Theme
	keys   keyMap
	help   help.Model
	panel  *panelState
	frames *frameStore
	md     *markdownCache
	reload *ReloadBridge

	width, height int
	showHelp      bool
	status        string

	// Mouse gesture state, in terminal cells.
	pressed bool
	dragged bool
	lastX   int
	lastY   int
}

// NewModel creates the model for ctrl and installs its sinks.
func NewModel(ctrl *sim.Controller, cfg config.Config) Model {
	m := Model{
		ctrl:     ctrl,
		cfg:      cfg,
		theme:    DefaultTheme(lipgloss.DefaultRenderer()),
		keys:     newKeyMap(ctrl.Palette()),
		help:     help.New(),
		panel:    &panelState{},
		frames:   &frameStore{},
		md:       &markdownCache{},
		width:    120,
		height:   40,
		showHelp: cfg.UI.ShowHelp,
	}
	ctrl.SetRenderSink(m.frames)
	ctrl.SetPanelSink(m.panel)
	m.resize(m.width, m.height)
	return m
}

// WithReload attaches a reload bridge whose events the model applies.
func (m Model) WithReload(b *ReloadBridge) Model {
	m.reload = b
	return m
}

// Init starts the frame and dismiss drivers.
func (m Model) Init() tea.Cmd {
	o := m.ctrl.Options()
	cmds := []tea.Cmd{
		frameTickCmd(o.FrameInterval),
		dismissTickCmd(o.DismissInterval),
	}
	if m.reload != nil {
		cmds = append(cmds, m.reload.waitCmd())
	}
	return tea.Batch(cmds...)
}

func (m Model) waitReload() tea.Cmd {
	if m.reload == nil {
		return nil
	}
	return m.reload.waitCmd()
}

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case frameTickMsg:
		if _, ok := m.ctrl.Tick(); !ok {
			m.frames.Render(m.ctrl.Current())
		}
		return m, frameTickCmd(m.ctrl.Options().FrameInterval)

	case dismissTickMsg:
		if m.ctrl.CheckDismiss() {
			m.status = "Panel closed"
		}
		return m, dismissTickCmd(m.ctrl.Options().DismissInterval)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ConfigReloadedMsg:
		m.applyConfig(msg.Config)
		return m, m.waitReload()

	case ConfigErrorMsg:
		m.status = fmt.Sprintf("Config error: %v", msg.Err)
		debug.Log("ui: %v", msg.Err)
		return m, m.waitReload()
	}
	return m, nil
}

// resize recomputes the map viewport for a terminal size.
func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.help.Width = width
	cols, rows := m.mapSize()
	m.ctrl.SetViewport(r2.Vec{X: float64(cols * CellWidthPx), Y: float64(rows * CellHeightPx)})
}

// mapSize returns the map area in cells.
func (m Model) mapSize() (int, int) {
	cols := m.width
	if m.splitView() {
		cols -= PanelWidth
	}
	rows := m.height - headerRows - footerRows
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return cols, rows
}

func (m Model) splitView() bool {
	return m.width >= SplitViewThreshold
}

// ============================================================================
// Input
// ============================================================================

func (m *Model) handleMouse(msg tea.MouseMsg) {
	cols, rows := m.mapSize()
	col, row := msg.X, msg.Y-headerRows
	inMap := col >= 0 && col < cols && row >= 0 && row < rows
	inPanel := m.splitView() && msg.X >= cols && row >= 0 && row < rows

	if inPanel != m.ctrl.PanelFocused() {
		m.ctrl.SetPanelFocus(inPanel)
	}

	switch msg.Action {
	case tea.MouseActionMotion:
		if m.pressed && msg.Button == tea.MouseButtonLeft {
			dx, dy := msg.X-m.lastX, msg.Y-m.lastY
			if dx != 0 || dy != 0 {
				m.ctrl.Pan(r2.Vec{X: float64(dx * CellWidthPx), Y: float64(dy * CellHeightPx)})
				m.dragged = true
			}
			m.lastX, m.lastY = msg.X, msg.Y
		}
		if inMap {
			x, y := CellToScreen(col, row)
			m.ctrl.MovePointer(r2.Vec{X: x, Y: y})
		}

	case tea.MouseActionPress:
		if !inMap {
			return
		}
		x, y := CellToScreen(col, row)
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.ctrl.ZoomAt(wheelZoom, r2.Vec{X: x, Y: y})
		case tea.MouseButtonWheelDown:
			m.ctrl.ZoomAt(1/wheelZoom, r2.Vec{X: x, Y: y})
		case tea.MouseButtonLeft:
			m.pressed, m.dragged = true, false
			m.lastX, m.lastY = msg.X, msg.Y
			m.ctrl.MovePointer(r2.Vec{X: x, Y: y})
		}

	case tea.MouseActionRelease:
		wasClick := m.pressed && !m.dragged
		m.pressed, m.dragged = false, false
		if !wasClick || !inMap {
			return
		}
		x, y := CellToScreen(col, row)
		if id, hit := m.ctrl.ClickAt(r2.Vec{X: x, Y: y}); hit {
			m.status = fmt.Sprintf("Scene #%d", id)
		} else {
			m.status = ""
		}
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	for i, b := range m.keys.Filters {
		if key.Matches(msg, b) {
			palette := m.ctrl.Palette()
			if i < len(palette) {
				c := palette[i]
				on := m.ctrl.ToggleCategory(c.Name)
				state := "off"
				if on {
					state = "on"
				}
				m.status = fmt.Sprintf("%s %s", c.DisplayName(m.locale()), state)
			}
			return m, nil
		}
	}

	pan := float64(panCells * CellWidthPx)
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, m.keys.Close):
		if m.showHelp {
			m.showHelp = false
		} else {
			m.ctrl.Close()
		}
	case key.Matches(msg, m.keys.ZoomIn):
		m.ctrl.ZoomIn()
	case key.Matches(msg, m.keys.ZoomOut):
		m.ctrl.ZoomOut()
	case key.Matches(msg, m.keys.Reset):
		m.ctrl.ResetView()
	case key.Matches(msg, m.keys.Repulsion):
		on := !m.ctrl.RepulsionActive()
		m.ctrl.SetRepulsionActive(on)
		if on {
			m.status = "Field running"
		} else {
			m.status = "Field paused"
		}
	case key.Matches(msg, m.keys.Copy):
		m.copySelection()
	case key.Matches(msg, m.keys.Up):
		m.ctrl.Pan(r2.Vec{Y: pan})
	case key.Matches(msg, m.keys.Down):
		m.ctrl.Pan(r2.Vec{Y: -pan})
	case key.Matches(msg, m.keys.Left):
		m.ctrl.Pan(r2.Vec{X: pan})
	case key.Matches(msg, m.keys.Right):
		m.ctrl.Pan(r2.Vec{X: -pan})
	}
	return m, nil
}

func (m *Model) copySelection() {
	d, ok := m.ctrl.Detail()
	if !ok {
		m.status = "Nothing selected"
		return
	}
	if err := clipboard.WriteAll(d.Summary()); err != nil {
		m.status = fmt.Sprintf("Clipboard error: %v", err)
		return
	}
	m.status = fmt.Sprintf("📋 Copied scene #%d", d.ID)
}

// applyConfig applies a reloaded configuration. Tuning and category text
// apply in place; map or category color changes regenerate the field.
func (m *Model) applyConfig(cfg config.Config) {
	if m.cfg.SameMap(cfg) {
		m.ctrl.SetPalette(cfg.Categories)
	} else {
		points, err := pointfield.Generate(pointfield.FromConfig(cfg))
		if err != nil {
			m.status = fmt.Sprintf("Config error: %v", err)
			return
		}
		m.ctrl.ReplaceField(points, cfg.Categories)
	}
	m.keys = newKeyMap(cfg.Categories)
	m.ctrl.UpdateTuning(sim.OptionsFromConfig(cfg))
	m.cfg = cfg
	m.status = "Config reloaded"
	debug.Log("ui: config reloaded")
}

func (m Model) locale() string {
	return m.ctrl.Options().Locale
}

// ============================================================================
// View
// ============================================================================

// View renders the screen.
func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()

	cols, rows := m.mapSize()
	frame := m.frames.last()
	palette := m.ctrl.Palette()
	locale := m.locale()

	var body string
	if m.showHelp {
		body = lipgloss.NewStyle().Width(cols).Height(rows).MaxHeight(rows).
			Render(renderHelp(palette, locale, cols-2))
	} else {
		cv := newCanvas(cols, rows)
		cv.drawFrame(frame)
		body = cv.render(m.theme)
	}

	if m.splitView() {
		var side string
		if d, gen, ok := m.panel.current(); ok {
			desc := m.md.render(d.Description, PanelWidth-4, gen)
			side = renderPanel(m.theme, d, palette, locale, rows, m.ctrl.PanelFocused(), desc)
		} else {
			side = renderPlaceholder(m.theme, frame.Legend, rows)
		}
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, side)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(frame),
		body,
		m.renderPreview(palette, locale),
		m.help.View(m.keys),
	)
}

func (m Model) renderHeader(f sim.Frame) string {
	var b strings.Builder
	b.WriteString(m.theme.Header.Render("SENSE MAP"))
	for i, e := range f.Legend {
		mark := "○"
		if e.Active {
			mark = "●"
		}
		fmt.Fprintf(&b, " %s", m.theme.CategoryStyle(e.Color).Render(fmt.Sprintf("%d%s %s", i+1, mark, e.Label)))
	}
	fmt.Fprintf(&b, "  %s", m.theme.MutedText.Render(fmt.Sprintf("×%.2f", f.Transform.Scale)))
	if !m.ctrl.RepulsionActive() {
		b.WriteString(" " + m.theme.MutedText.Render("[paused]"))
	}
	if m.status != "" {
		b.WriteString("  " + m.theme.Status.Render(m.status))
	}
	return m.theme.Renderer.NewStyle().MaxWidth(m.width).Render(b.String())
}

func (m Model) renderPreview(palette model.Palette, locale string) string {
	if p, ok := m.ctrl.Hovered(); ok {
		return previewLine(m.theme, p, palette, locale, m.width)
	}
	if !m.splitView() {
		if d, _, ok := m.panel.current(); ok {
			return m.theme.Footer.Render(truncateRunesHelper(d.Summary(), m.width, "…"))
		}
	}
	return ""
}
