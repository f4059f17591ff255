package history

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	scandto "vscan/internal/modules/scan/dto"
	"vscan/internal/ui/theme"
)

const pageSize = 200

// ─── port ────────────────────────────────────────────────────────────────────

type HistoryPort interface {
	History(ctx context.Context, limit int) ([]scandto.HistoryItem, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Items []scandto.HistoryItem
	Err   error
}

// ─── list item ───────────────────────────────────────────────────────────────

type entry struct {
	item scandto.HistoryItem
}

func (e entry) Title() string { return e.item.Text }
func (e entry) Description() string {
	return fmt.Sprintf("%s  %s  %s", e.item.Format, e.item.SeenAt.Format("2006-01-02 15:04:05"), e.item.SessionID)
}
func (e entry) FilterValue() string { return e.item.Text }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port HistoryPort
	list list.Model
}

func New(port HistoryPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "History"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	return Model{port: port, list: l}
}

func (m Model) Init() tea.Cmd {
	return m.Reload()
}

// Reload fetches the most recent detections.
func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return LoadedMsg{}
		}
		items, err := m.port.History(context.Background(), pageSize)
		return LoadedMsg{Items: items, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
	case LoadedMsg:
		if msg.Err != nil {
			m.list.Title = "History: " + msg.Err.Error()
			return m, nil
		}
		m.list.Title = "History"
		items := make([]list.Item, len(msg.Items))
		for i, it := range msg.Items {
			items[i] = entry{item: it}
		}
		return m, m.list.SetItems(items)
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.list.View()
}

// Filtering reports whether the list's search filter is active.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}
