// Package termkey converts terminal toolkit key events into key.Event so
// terminal front ends can dispatch shortcuts.
package termkey

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/cmdmgr/internal/input/key"
)

var tcellKeys = map[tcell.Key]key.Key{
	tcell.KeyEscape:    key.KeyEscape,
	tcell.KeyEnter:     key.KeyEnter,
	tcell.KeyTab:       key.KeyTab,
	tcell.KeyBackspace: key.KeyBackspace,
	tcell.KeyDelete:    key.KeyDelete,
	tcell.KeyInsert:    key.KeyInsert,
	tcell.KeyHome:      key.KeyHome,
	tcell.KeyEnd:       key.KeyEnd,
	tcell.KeyPgUp:      key.KeyPageUp,
	tcell.KeyPgDn:      key.KeyPageDown,
	tcell.KeyUp:        key.KeyUp,
	tcell.KeyDown:      key.KeyDown,
	tcell.KeyLeft:      key.KeyLeft,
	tcell.KeyRight:     key.KeyRight,
	tcell.KeyF1:        key.KeyF1,
	tcell.KeyF2:        key.KeyF2,
	tcell.KeyF3:        key.KeyF3,
	tcell.KeyF4:        key.KeyF4,
	tcell.KeyF5:        key.KeyF5,
	tcell.KeyF6:        key.KeyF6,
	tcell.KeyF7:        key.KeyF7,
	tcell.KeyF8:        key.KeyF8,
	tcell.KeyF9:        key.KeyF9,
	tcell.KeyF10:       key.KeyF10,
	tcell.KeyF11:       key.KeyF11,
	tcell.KeyF12:       key.KeyF12,
	tcell.KeyPause:     key.KeyPause,
	tcell.KeyPrint:     key.KeyPrintScreen,
}

// FromTcell converts a tcell key event. Keys with no equivalent yield the
// zero Event. Terminals report key presses only.
func FromTcell(ev *tcell.EventKey) key.Event {
	mods := tcellMods(ev.Modifiers())
	k := ev.Key()

	if k == tcell.KeyRune {
		if ev.Rune() == ' ' {
			return key.NewSpecialEvent(key.KeySpace, mods)
		}
		return key.NewRuneEvent(ev.Rune(), mods)
	}
	if k == tcell.KeyBackspace2 {
		return key.NewSpecialEvent(key.KeyBackspace, mods)
	}
	if named, ok := tcellKeys[k]; ok {
		return key.NewSpecialEvent(named, mods)
	}
	if k == tcell.KeyCtrlSpace {
		return key.NewSpecialEvent(key.KeySpace, mods.With(key.ModCtrl))
	}
	if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		return key.NewRuneEvent(rune('A'+int(k-tcell.KeyCtrlA)), mods.With(key.ModCtrl))
	}
	return key.Event{}
}

func tcellMods(m tcell.ModMask) key.Modifier {
	var result key.Modifier
	if m&tcell.ModShift != 0 {
		result = result.With(key.ModShift)
	}
	if m&tcell.ModCtrl != 0 {
		result = result.With(key.ModCtrl)
	}
	if m&tcell.ModAlt != 0 {
		result = result.With(key.ModAlt)
	}
	if m&tcell.ModMeta != 0 {
		result = result.With(key.ModMeta)
	}
	return result
}

type teaKey struct {
	key  key.Key
	mods key.Modifier
}

var teaKeys = map[tea.KeyType]teaKey{
	tea.KeyEscape:    {key.KeyEscape, key.ModNone},
	tea.KeyEnter:     {key.KeyEnter, key.ModNone},
	tea.KeyTab:       {key.KeyTab, key.ModNone},
	tea.KeyShiftTab:  {key.KeyTab, key.ModShift},
	tea.KeyBackspace: {key.KeyBackspace, key.ModNone},
	tea.KeyDelete:    {key.KeyDelete, key.ModNone},
	tea.KeyInsert:    {key.KeyInsert, key.ModNone},
	tea.KeySpace:     {key.KeySpace, key.ModNone},
	tea.KeyHome:      {key.KeyHome, key.ModNone},
	tea.KeyEnd:       {key.KeyEnd, key.ModNone},
	tea.KeyPgUp:      {key.KeyPageUp, key.ModNone},
	tea.KeyPgDown:    {key.KeyPageDown, key.ModNone},
	tea.KeyUp:        {key.KeyUp, key.ModNone},
	tea.KeyDown:      {key.KeyDown, key.ModNone},
	tea.KeyLeft:      {key.KeyLeft, key.ModNone},
	tea.KeyRight:     {key.KeyRight, key.ModNone},
	tea.KeyShiftUp:   {key.KeyUp, key.ModShift},
	tea.KeyShiftDown: {key.KeyDown, key.ModShift},
	tea.KeyCtrlUp:    {key.KeyUp, key.ModCtrl},
	tea.KeyCtrlDown:  {key.KeyDown, key.ModCtrl},
	tea.KeyCtrlLeft:  {key.KeyLeft, key.ModCtrl},
	tea.KeyCtrlRight: {key.KeyRight, key.ModCtrl},
	tea.KeyF1:        {key.KeyF1, key.ModNone},
	tea.KeyF2:        {key.KeyF2, key.ModNone},
	tea.KeyF3:        {key.KeyF3, key.ModNone},
	tea.KeyF4:        {key.KeyF4, key.ModNone},
	tea.KeyF5:        {key.KeyF5, key.ModNone},
	tea.KeyF6:        {key.KeyF6, key.ModNone},
	tea.KeyF7:        {key.KeyF7, key.ModNone},
	tea.KeyF8:        {key.KeyF8, key.ModNone},
	tea.KeyF9:        {key.KeyF9, key.ModNone},
	tea.KeyF10:       {key.KeyF10, key.ModNone},
	tea.KeyF11:       {key.KeyF11, key.ModNone},
	tea.KeyF12:       {key.KeyF12, key.ModNone},
}

// FromTea converts a Bubble Tea key message. Pastes and multi-rune input
// yield the zero Event.
func FromTea(msg tea.KeyMsg) key.Event {
	var mods key.Modifier
	if msg.Alt {
		mods = mods.With(key.ModAlt)
	}

	if msg.Type == tea.KeyRunes {
		if msg.Paste || len(msg.Runes) != 1 {
			return key.Event{}
		}
		if msg.Runes[0] == ' ' {
			return key.NewSpecialEvent(key.KeySpace, mods)
		}
		return key.NewRuneEvent(msg.Runes[0], mods)
	}
	if tk, ok := teaKeys[msg.Type]; ok {
		return key.NewSpecialEvent(tk.key, mods.With(tk.mods))
	}
	if msg.Type >= tea.KeyCtrlA && msg.Type <= tea.KeyCtrlZ {
		return key.NewRuneEvent(rune('A'+int(msg.Type-tea.KeyCtrlA)), mods.With(key.ModCtrl))
	}
	return key.Event{}
}
