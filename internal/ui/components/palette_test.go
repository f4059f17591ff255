package components_test

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"vscan/internal/ui/components"
)

func TestMatchUsesFirstWord(t *testing.T) {
	t.Parallel()
	got := components.Match("scan:s builtin")
	if len(got) != 2 || got[0].Name != "scan:start" || got[1].Name != "scan:stop" {
		t.Fatalf("matches = %+v", got)
	}
	if len(components.Match("")) != len(components.Commands) {
		t.Fatalf("empty input should list every command")
	}
}

func TestPaletteSubmit(t *testing.T) {
	t.Parallel()
	p := components.NewPalette()
	p.Open()
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("stream:")})
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyTab})
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if p.Visible() {
		t.Fatalf("palette should close on enter")
	}
	msg, ok := cmd().(components.PaletteSubmitMsg)
	if !ok || msg.Input != "stream:inspect" {
		t.Fatalf("submit = %#v", msg)
	}
}
