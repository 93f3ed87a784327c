package termkey

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gdamore/tcell/v2"
)

func TestFromTcell(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want string
	}{
		{"rune", tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone), "P"},
		{"ctrl rune", tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModCtrl), "Ctrl+P"},
		{"alt shift rune", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModAlt|tcell.ModShift), "Alt+Shift+X"},
		{"space", tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), "Space"},
		{"function key", tcell.NewEventKey(tcell.KeyF5, 0, tcell.ModNone), "F5"},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), "Enter"},
		{"page down", tcell.NewEventKey(tcell.KeyPgDn, 0, tcell.ModNone), "PageDown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromTcell(tt.ev).Shortcut(); got != tt.want {
				t.Errorf("FromTcell() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromTea(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want string
	}{
		{"rune", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}, "Q"},
		{"alt rune", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}, Alt: true}, "Alt+Q"},
		{"space", tea.KeyMsg{Type: tea.KeySpace}, "Space"},
		{"shift tab", tea.KeyMsg{Type: tea.KeyShiftTab}, "Shift+Tab"},
		{"ctrl letter", tea.KeyMsg{Type: tea.KeyCtrlS}, "Ctrl+S"},
		{"ctrl arrow", tea.KeyMsg{Type: tea.KeyCtrlLeft}, "Ctrl+Left"},
		{"escape", tea.KeyMsg{Type: tea.KeyEscape}, "Escape"},
		{"function key", tea.KeyMsg{Type: tea.KeyF12}, "F12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromTea(tt.msg).Shortcut(); got != tt.want {
				t.Errorf("FromTea() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromTeaIgnoresPaste(t *testing.T) {
	ev := FromTea(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hello"), Paste: true})
	if !ev.IsZero() {
		t.Errorf("paste produced %#v", ev)
	}
}
