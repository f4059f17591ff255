package live

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	enginedto "vscan/internal/modules/engine/dto"
	"vscan/internal/ui/theme"
)

const maxLog = 200

// ─── messages ────────────────────────────────────────────────────────────────

type StatusMsg struct {
	Status enginedto.Status
}

type EventMsg struct {
	Event enginedto.Event
	At    time.Time
}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	status enginedto.Status
	log    []string
	events viewport.Model
	width  int
	height int
}

func New() Model {
	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(0, 1)
	return Model{events: vp}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case StatusMsg:
		m.status = msg.Status

	case EventMsg:
		if line := describe(msg.Event); line != "" {
			m.log = append(m.log, theme.Muted.Render(msg.At.Format("15:04:05.000"))+" "+line)
			if len(m.log) > maxLog {
				m.log = m.log[len(m.log)-maxLog:]
			}
			m.events.SetContent(strings.Join(m.log, "\n"))
			m.events.GotoBottom()
		}
		if msg.Event.Kind == enginedto.EventUpdate {
			m.status.Results = msg.Event.Items
		}
	}

	var cmd tea.Cmd
	m.events, cmd = m.events.Update(msg)
	return m, cmd
}

func (m *Model) resize() {
	leftW := m.width * 5 / 10
	m.events.Width = m.width - leftW - 2
	m.events.Height = max(m.height-2, 1)
}

func (m Model) View() string {
	leftW := m.width * 5 / 10
	left := lipgloss.NewStyle().
		Width(leftW).
		Height(m.height).
		Render(m.renderStatus() + "\n\n" + m.renderResults())

	right := theme.Pane.
		Padding(0).
		Width(m.width - leftW - 2).
		Height(m.height - 2).
		Render(m.events.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// Scanning reports whether scanning is enabled in the last status seen.
func (m Model) Scanning() bool { return m.status.Scanning }

// Running reports whether a scan session is attached.
func (m Model) Running() bool { return m.status.SessionID != "" }

func (m Model) renderStatus() string {
	st := m.status
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Stream") + "\n")
	fmt.Fprintf(&sb, "phase    %s\n", orDash(st.Media.Phase))
	fmt.Fprintf(&sb, "stream   %s\n", orDash(st.Media.StreamID))
	fmt.Fprintf(&sb, "attach   %s\n", orDash(st.Media.Attach))
	sb.WriteString("\n" + theme.Title.Render("Scan") + "\n")
	scanning := theme.Muted.Render("paused")
	if st.Scanning {
		scanning = theme.Hot.Render("on")
	}
	fmt.Fprintf(&sb, "scanning %s\n", scanning)
	fmt.Fprintf(&sb, "state    %s\n", orDash(st.ScanState))
	fmt.Fprintf(&sb, "session  %s\n", orDash(st.SessionID))
	fmt.Fprintf(&sb, "decoder  %s", orDash(st.Decoder))
	if st.Err != "" {
		sb.WriteString("\n" + theme.Fault.Render("error    "+st.Err))
	}
	return sb.String()
}

func (m Model) renderResults() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(fmt.Sprintf("Symbols (%d)", len(m.status.Results))) + "\n")
	if len(m.status.Results) == 0 {
		sb.WriteString(theme.Muted.Render("nothing in view"))
		return sb.String()
	}
	for _, item := range m.status.Results {
		mark := "  "
		switch {
		case item.New:
			mark = theme.Fresh.Render("+ ")
		case item.Debounced:
			mark = theme.Carried.Render("~ ")
		}
		line := fmt.Sprintf("%-12s %s", item.Format, item.Text)
		if item.Debounced {
			line = theme.Carried.Render(line)
		}
		sb.WriteString(mark + line + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func describe(ev enginedto.Event) string {
	switch ev.Kind {
	case enginedto.EventDetect:
		texts := []string{}
		for _, item := range ev.Items {
			if item.New {
				texts = append(texts, item.Format+" "+item.Text)
			}
		}
		return theme.Fresh.Render("detect") + " " + strings.Join(texts, ", ")
	case enginedto.EventUpdate:
		return ""
	case enginedto.EventStreamStart:
		return "stream started " + ev.StreamID
	case enginedto.EventScanError, enginedto.EventStreamError:
		return theme.Fault.Render(string(ev.Kind)) + " " + ev.Err
	default:
		return string(ev.Kind)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
