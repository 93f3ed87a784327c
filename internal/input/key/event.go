package key

import (
	"fmt"
	"time"
	"unicode"
)

// Phase identifies which half of a key stroke an event was captured in.
type Phase uint8

const (
	// PhasePress is the initial key-down event (including auto-repeat).
	PhasePress Phase = iota
	// PhaseRelease is the key-up event.
	PhaseRelease
)

// String returns "press" or "release".
func (p Phase) String() string {
	if p == PhaseRelease {
		return "release"
	}
	return "press"
}

// Event represents a single captured key combination.
type Event struct {
	// Key identifies the key pressed.
	Key Key

	// Rune is the character for KeyRune events.
	Rune rune

	// Modifiers contains the active modifier keys.
	Modifiers Modifier

	// Phase is the stroke phase the event was captured in.
	Phase Phase

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// NewRuneEvent creates a press event for a character.
func NewRuneEvent(r rune, mods Modifier) Event {
	return Event{
		Key:       KeyRune,
		Rune:      r,
		Modifiers: mods,
		Timestamp: time.Now(),
	}
}

// NewSpecialEvent creates a press event for a special key.
func NewSpecialEvent(key Key, mods Modifier) Event {
	return Event{
		Key:       key,
		Modifiers: mods,
		Timestamp: time.Now(),
	}
}

// Released returns a copy of the event in the release phase.
func (e Event) Released() Event {
	e.Phase = PhaseRelease
	return e
}

// IsRune returns true if this is a character key event.
func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// IsZero returns true if the event carries no key.
func (e Event) IsZero() bool {
	return e.Key == KeyNone || (e.Key == KeyRune && e.Rune == 0)
}

// Shortcut returns the canonical shortcut text for the combination,
// for example "Ctrl+Shift+S", "Space" or "F5". The phase is not part
// of the text. A zero event yields "".
func (e Event) Shortcut() string {
	if e.IsZero() {
		return ""
	}

	name := e.keyName()
	if mods := e.Modifiers.String(); mods != "" {
		return mods + "+" + name
	}
	return name
}

func (e Event) keyName() string {
	if e.Key != KeyRune {
		return e.Key.String()
	}
	if e.Rune == ' ' {
		return KeySpace.String()
	}
	return string(unicode.ToUpper(e.Rune))
}

// Equals returns true if two events represent the same key combination.
// Timestamps and phases are not compared.
func (e Event) Equals(other Event) bool {
	return e.Shortcut() == other.Shortcut()
}

// GoString implements fmt.GoStringer for debugging.
func (e Event) GoString() string {
	return fmt.Sprintf("Event{Key: %s, Rune: %q, Modifiers: %s, Phase: %s}",
		e.Key.String(), e.Rune, e.Modifiers.String(), e.Phase)
}
