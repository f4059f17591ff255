package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	enginedto "vscan/internal/modules/engine/dto"
	mediadto "vscan/internal/modules/media/dto"
	"vscan/internal/ui/components"
	"vscan/internal/ui/theme"
	historyview "vscan/internal/ui/views/history"
	liveview "vscan/internal/ui/views/live"
)

const statusInterval = 250 * time.Millisecond

// ─── ports ───────────────────────────────────────────────────────────────────

type enginePort interface {
	Start(ctx context.Context, decoder string, formats []string) (enginedto.StartOutput, error)
	Stop(ctx context.Context) error
	Inspect(ctx context.Context) (mediadto.InspectOutput, error)
	SetScanning(on bool)
	Status(ctx context.Context) enginedto.Status
	Events(ctx context.Context, buffer int) <-chan enginedto.Event
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabLive tabID = iota
	tabHistory
	tabCount
)

var tabLabels = [tabCount]string{"Live", "History"}

// ─── async messages ───────────────────────────────────────────────────────────

type statusTickMsg struct{}

type startedMsg struct {
	out enginedto.StartOutput
	err error
}

type stoppedMsg struct{ err error }

type inspectedMsg struct {
	out mediadto.InspectOutput
	err error
}

type eventsClosedMsg struct{}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Start   key.Binding
	Pause   key.Binding
	Inspect key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Start:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start/stop")),
		Pause:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause scanning")),
		Inspect: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "inspect stream")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Start, k.Pause, k.Inspect},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It routes tabs, drives the engine from
// key presses and the palette, and feeds engine events to the live view.
type Model struct {
	ctx     context.Context
	engine  enginePort
	decoder string
	events  <-chan enginedto.Event

	liveView    liveview.Model
	historyView historyview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

// ─── constructor ─────────────────────────────────────────────────────────────

func NewModel(ctx context.Context, engine enginePort, history historyview.HistoryPort, decoder string) Model {
	return Model{
		ctx:         ctx,
		engine:      engine,
		decoder:     decoder,
		events:      engine.Events(ctx, 64),
		liveView:    liveview.New(),
		historyView: historyview.New(history),
		activeTab:   tabLive,
		keys:        defaultKeys(),
		help:        help.New(),
		palette:     components.NewPalette(),
		status:      "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.historyView.Init(),
		m.startCmd(m.decoder, nil),
		m.waitEventCmd(),
		m.statusCmd(),
	)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()

	case statusTickMsg:
		m.liveView, _ = m.liveView.Update(liveview.StatusMsg{Status: m.engine.Status(m.ctx)})
		return m, tea.Tick(statusInterval, func(time.Time) tea.Msg { return statusTickMsg{} })

	case liveview.EventMsg:
		var cmd tea.Cmd
		m.liveView, cmd = m.liveView.Update(msg)
		cmds = append(cmds, cmd, m.waitEventCmd())
		if msg.Event.Kind == enginedto.EventDetect {
			cmds = append(cmds, m.historyView.Reload())
		}
		return m, tea.Batch(cmds...)

	case eventsClosedMsg:
		return m, nil

	case startedMsg:
		if msg.err != nil {
			m.status = "start failed: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("scanning with %s (%s)", msg.out.Decoder, msg.out.Stream.Phase)
		}

	case stoppedMsg:
		if msg.err != nil {
			m.status = "stop failed: " + msg.err.Error()
		} else {
			m.status = "stopped"
		}

	case inspectedMsg:
		m.status = describeInspection(msg.out, msg.err)

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.activeTab == tabHistory && m.historyView.Filtering() {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
		case "?":
			m.showHelp = !m.showHelp
		case ":":
			return m, m.palette.Open()
		case "s":
			if m.liveView.Running() {
				return m, m.stopCmd()
			}
			return m, m.startCmd(m.decoder, nil)
		case " ":
			m.engine.SetScanning(!m.liveView.Scanning())
			return m, m.statusCmd()
		case "i":
			return m, m.inspectCmd()
		}
	}

	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabLive:
		m.liveView, tabCmd = m.liveView.Update(msg)
	case tabHistory:
		m.historyView, tabCmd = m.historyView.Update(msg)
	}
	cmds = append(cmds, tabCmd)

	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar), 1)

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabHistory:
		content = m.historyView.View()
	default:
		content = m.liveView.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	sep := theme.Muted.Render(" │ ")
	bar := "vscan  " + strings.Join(parts, sep)
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.liveView.Running() && m.liveView.Scanning() {
		left = theme.Hot.Render("● scanning") + "  " + left
	}
	right := theme.Muted.Render("?:help  s:start/stop  space:pause  :::palette  q:quit")
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	switch parts[0] {
	case "scan:start":
		decoder := m.decoder
		if len(parts) >= 2 {
			decoder = parts[1]
		}
		var formats []string
		if len(parts) >= 3 {
			formats = strings.Split(parts[2], ",")
		}
		m.activeTab = tabLive
		return m, m.startCmd(decoder, formats)
	case "scan:stop":
		return m, m.stopCmd()
	case "scan:pause":
		m.engine.SetScanning(false)
		return m, m.statusCmd()
	case "scan:resume":
		m.engine.SetScanning(true)
		return m, m.statusCmd()
	case "stream:inspect":
		return m, m.inspectCmd()
	case "history:reload":
		m.activeTab = tabHistory
		return m, m.historyView.Reload()
	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.liveView, _ = m.liveView.Update(sz)
	m.historyView, _ = m.historyView.Update(sz)
}

func describeInspection(out mediadto.InspectOutput, err error) string {
	switch {
	case err != nil:
		return "inspect failed: " + err.Error()
	case out.Stopped:
		return "inspect: stream stopped"
	}
	var parts []string
	for _, t := range append(out.Inspection.Video, out.Inspection.Audio...) {
		parts = append(parts, fmt.Sprintf("%s %q %gx%g", t.Kind, t.Label, t.Capabilities.Width.Max, t.Capabilities.Height.Max))
	}
	if len(parts) == 0 {
		return "inspect: no tracks"
	}
	return "inspect: " + strings.Join(parts, ", ")
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) statusCmd() tea.Cmd {
	return func() tea.Msg { return statusTickMsg{} }
}

func (m Model) waitEventCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-m.events:
			return liveview.EventMsg{Event: ev, At: time.Now()}
		case <-m.ctx.Done():
			return eventsClosedMsg{}
		}
	}
}

func (m Model) startCmd(decoder string, formats []string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.engine.Start(m.ctx, decoder, formats)
		return startedMsg{out: out, err: err}
	}
}

func (m Model) stopCmd() tea.Cmd {
	return func() tea.Msg {
		return stoppedMsg{err: m.engine.Stop(m.ctx)}
	}
}

func (m Model) inspectCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.engine.Inspect(m.ctx)
		return inspectedMsg{out: out, err: err}
	}
}
