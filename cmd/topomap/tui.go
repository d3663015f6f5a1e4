package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/topomap/pkg/interaction"
	"github.com/dd0wney/topomap/pkg/render"
	"github.com/dd0wney/topomap/pkg/topology"
	"github.com/dd0wney/topomap/pkg/visualization"
)

// Braille dots per terminal cell.
const (
	cellDotsX = 2
	cellDotsY = 4
)

const (
	headerRows = 1
	footerRows = 2
	panelWidth = 34
	// minPanelTerm is the narrowest terminal that still gets a detail panel.
	minPanelTerm = 90
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(render.ColorSelected))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(topology.ColorStopped))

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(render.ColorEdge)).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(render.ColorLabel))

	fieldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(topology.ColorStopped)).
			Width(9)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(render.ColorLabel))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Reset   key.Binding
	Next    key.Binding
	Clear   key.Binding
	Reheat  key.Binding
	Help    key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "pan up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "pan down"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "pan left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "pan right"),
	),
	ZoomIn: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "zoom in"),
	),
	ZoomOut: key.NewBinding(
		key.WithKeys("-", "_"),
		key.WithHelp("-", "zoom out"),
	),
	Reset: key.NewBinding(
		key.WithKeys("0", "r"),
		key.WithHelp("0", "fit"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab", "n"),
		key.WithHelp("tab", "next node"),
	),
	Clear: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "deselect"),
	),
	Reheat: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "reheat"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.ZoomIn, k.ZoomOut, k.Reset, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.ZoomIn, k.ZoomOut, k.Reset},
		{k.Next, k.Clear, k.Reheat},
		{k.Help, k.Quit},
	}
}

// session collects callback output for the status line. Feed goroutines
// write to it, so it is locked.
type session struct {
	mu      sync.Mutex
	message string
	loads   int
}

func (s *session) note(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = msg
}

func (s *session) status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

func (s *session) loaded(r topology.LoadReport) {
	s.mu.Lock()
	s.loads++
	s.mu.Unlock()
	msg := fmt.Sprintf("loaded %d nodes, %d edges (+%d -%d)", r.Nodes, r.Edges, r.Added, r.Removed)
	if r.DroppedEdges > 0 || r.Duplicates > 0 {
		msg += fmt.Sprintf(", %d edges dropped, %d duplicate ids", r.DroppedEdges, r.Duplicates)
	}
	s.note(msg)
}

func (s *session) selected(n topology.Node) {
	s.note(fmt.Sprintf("selected %s", n.Label()))
}

func (s *session) cleared() {
	s.note("selection cleared")
}

type frameMsg time.Time

type tuiModel struct {
	view     *visualization.View
	session  *session
	interval time.Duration
	zoomStep float64
	panStep  float64

	keys keyMap
	help help.Model

	canvas        *render.TerminalCanvas
	width, height int
	panel         int
	inside        bool
	redraw        bool
	stats         visualization.FrameStats
}

func newTUIModel(v *visualization.View, sess *session, interval time.Duration, cfg interaction.Config) tuiModel {
	if interval <= 0 {
		interval = time.Second / 30
	}
	return tuiModel{
		view:     v,
		session:  sess,
		interval: interval,
		zoomStep: cfg.ZoomStep,
		panStep:  cfg.PanStep / cellDotsX,
		keys:     keys,
		help:     help.New(),
	}
}

func (m tuiModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return m.tick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case frameMsg:
		m.frame()
		return m, m.tick()

	case tea.MouseMsg:
		if ev, ok := m.mouseEvent(msg); ok {
			m.view.Dispatch(ev)
			m.redraw = true
		}

	case tea.KeyMsg:
		c := m.view.Controller()
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.view.Unmount()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			c.PanBy(0, m.panStep)
		case key.Matches(msg, m.keys.Down):
			c.PanBy(0, -m.panStep)
		case key.Matches(msg, m.keys.Left):
			c.PanBy(m.panStep, 0)
		case key.Matches(msg, m.keys.Right):
			c.PanBy(-m.panStep, 0)
		case key.Matches(msg, m.keys.ZoomIn):
			c.ZoomBy(m.zoomStep)
		case key.Matches(msg, m.keys.ZoomOut):
			c.ZoomBy(1 / m.zoomStep)
		case key.Matches(msg, m.keys.Reset):
			c.Reset()
		case key.Matches(msg, m.keys.Next):
			c.SelectNext()
		case key.Matches(msg, m.keys.Clear):
			c.ClearSelection()
		case key.Matches(msg, m.keys.Reheat):
			m.view.Simulation().Restart()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.resize(m.width, m.height)
		default:
			return m, nil
		}
		m.redraw = true
	}
	return m, nil
}

func (m *tuiModel) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	m.width, m.height = width, height
	m.help.Width = width
	m.panel = 0
	if width >= minPanelTerm {
		m.panel = panelWidth
	}
	footer := footerRows
	if m.help.ShowAll {
		footer += len(m.keys.FullHelp()[0]) - 1
	}
	cols := max(width-m.panel, 1)
	rows := max(height-headerRows-footer, 1)
	if m.canvas != nil {
		if c, r := m.canvas.Cells(); c == cols && r == rows {
			return
		}
	}
	m.canvas = render.NewTerminalCanvas(cols, rows)
	m.redraw = true
}

// frame runs one View frame when anything may have changed.
func (m *tuiModel) frame() {
	if m.canvas == nil {
		return
	}
	if !m.redraw && !m.view.Pending() && !m.view.Simulation().Hot() {
		return
	}
	m.stats = m.view.Frame(m.canvas)
	m.redraw = false
}

// mouseEvent maps a terminal mouse report onto canvas dots, aiming at the
// middle of the cell. Leaving the canvas ends any gesture.
func (m *tuiModel) mouseEvent(msg tea.MouseMsg) (interaction.Event, bool) {
	if m.canvas == nil {
		return interaction.Event{}, false
	}
	cols, rows := m.canvas.Cells()
	col, row := msg.X, msg.Y-headerRows
	if col < 0 || row < 0 || col >= cols || row >= rows {
		if m.inside {
			m.inside = false
			return interaction.Event{Type: interaction.PointerLeave}, true
		}
		return interaction.Event{}, false
	}
	m.inside = true

	x := float64(col*cellDotsX) + cellDotsX/2
	y := float64(row*cellDotsY) + cellDotsY/2
	ev := interaction.Event{X: x, Y: y}
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		ev.Type, ev.Delta = interaction.Wheel, -1
	case msg.Button == tea.MouseButtonWheelDown:
		ev.Type, ev.Delta = interaction.Wheel, 1
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		ev.Type = interaction.PointerDown
	case msg.Action == tea.MouseActionRelease:
		ev.Type = interaction.PointerUp
	case msg.Action == tea.MouseActionMotion:
		ev.Type = interaction.PointerMove
	default:
		return interaction.Event{}, false
	}
	return ev, true
}

func (m tuiModel) View() string {
	if m.canvas == nil {
		return "Initializing..."
	}
	var s strings.Builder
	s.WriteString(m.headerView())
	s.WriteString("\n")

	body := m.canvas.String()
	if m.panel > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.panelView())
	}
	s.WriteString(body)
	s.WriteString("\n")

	line := m.session.status()
	if tip, ok := m.view.Controller().Tooltip(); ok {
		line = tip.Text()
	}
	s.WriteString(statusStyle.Render(line))
	s.WriteString("\n")
	s.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return s.String()
}

func (m tuiModel) headerView() string {
	model := m.view.Model()
	rev := model.Revision()
	if len(rev) > 8 {
		rev = rev[:8]
	}
	info := fmt.Sprintf("  %d nodes  rev %s  %s  α %.3f  zoom %.2f",
		model.Len(), rev, m.stats.State, m.stats.Alpha, m.view.Controller().Transform().K)
	return titleStyle.Render("topomap") + infoStyle.Render(info)
}

func (m tuiModel) panelView() string {
	var s strings.Builder
	field := func(name, value string) {
		if value == "" {
			return
		}
		s.WriteString(fieldStyle.Render(name))
		s.WriteString(value)
		s.WriteString("\n")
	}

	id := m.view.Controller().Selected()
	n, ok := m.view.Model().Node(id)
	if id == "" || !ok {
		s.WriteString(panelTitleStyle.Render("No selection"))
		s.WriteString("\n")
		s.WriteString(infoStyle.Render("click a node or press tab"))
		s.WriteString("\n")
	} else {
		s.WriteString(panelTitleStyle.Render(render.Truncate(n.Label(), panelWidth-6, panelWidth-9)))
		s.WriteString("\n")
		field("id", n.ID)
		field("kind", string(n.Kind))
		status := lipgloss.NewStyle().Foreground(lipgloss.Color(topology.StatusColor(n.Status)))
		field("status", status.Render(string(n.Status)))
		field("parent", n.ParentGroup)
		field("location", n.Location)
		field("cost", n.Cost)
		field("weight", fmt.Sprintf("%g", n.Weight))
		field("position", fmt.Sprintf("%.0f, %.0f", n.X, n.Y))
		if n.Pinned() {
			field("pinned", "yes")
		}
	}

	s.WriteString("\n")
	for _, e := range render.LegendEntries {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(topology.StatusColor(e.Status))).Render("●")
		s.WriteString(dot + " " + e.Label + "\n")
	}
	return panelStyle.Width(m.panel - 2).Render(strings.TrimRight(s.String(), "\n"))
}
