package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"vscan/internal/ui/theme"
)

const maxHints = 6

// PaletteSubmitMsg is emitted when the user confirms a command.
type PaletteSubmitMsg struct{ Input string }

// PaletteCancelMsg is emitted when the user presses esc.
type PaletteCancelMsg struct{}

var (
	paletteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().Foreground(theme.Subtext0)
)

type Command struct {
	Name  string
	Args  string
	Usage string
}

// Commands must stay in sync with app/model.go executePalette.
var Commands = []Command{
	{Name: "scan:start", Args: "[decoder] [format,...]", Usage: "open the stream and start a scan session"},
	{Name: "scan:stop", Usage: "close the session and release the device"},
	{Name: "scan:pause", Usage: "keep the stream, stop decoding"},
	{Name: "scan:resume", Usage: "resume decoding"},
	{Name: "stream:inspect", Usage: "report track capabilities"},
	{Name: "history:reload", Usage: "reload stored detections"},
}

// Palette is a command-palette overlay backed by bubbles/textinput. Tab
// completes the first matching command name.
type Palette struct {
	input   textinput.Model
	visible bool
	width   int
}

func NewPalette() Palette {
	ti := textinput.New()
	ti.Placeholder = "scan:start"
	ti.CharLimit = 256
	return Palette{input: ti}
}

func (p Palette) Visible() bool { return p.visible }

// Open shows the palette with an empty input and returns the focus command.
func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.input.SetValue("")
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			p.close()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case "enter":
			val := strings.TrimSpace(p.input.Value())
			p.close()
			return p, func() tea.Msg { return PaletteSubmitMsg{Input: val} }
		case "tab":
			if matches := Match(p.input.Value()); len(matches) > 0 {
				p.input.SetValue(matches[0].Name + " ")
				p.input.CursorEnd()
			}
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *Palette) close() {
	p.visible = false
	p.input.Blur()
}

// Match returns the commands whose name starts with the first word of input.
func Match(input string) []Command {
	word, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(input)), " ")
	var out []Command
	for _, c := range Commands {
		if strings.HasPrefix(c.Name, word) {
			out = append(out, c)
		}
	}
	return out
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Command Palette") + "\n")
	sb.WriteString(": " + p.input.View() + "\n")
	if matches := Match(p.input.Value()); len(matches) > 0 {
		sb.WriteString("\n")
		for i, c := range matches {
			if i == maxHints {
				break
			}
			usage := c.Name
			if c.Args != "" {
				usage += " " + c.Args
			}
			sb.WriteString("  " + usage + hintStyle.Render("  "+c.Usage) + "\n")
		}
	}

	w := p.width
	if w < 20 {
		w = 64
	}
	return paletteStyle.Width(w - 2).Render(sb.String())
}
