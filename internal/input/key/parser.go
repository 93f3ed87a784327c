package key

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Parse errors
var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

// Parse parses a key specification string into a press Event.
//
// Supported formats:
//   - Single character: "a", "A", "1", "@"
//   - Special keys: "Enter", "Escape", "Tab", "Backspace", "Space"
//   - With modifiers: "Ctrl+S", "Alt+F4", "Ctrl+Shift+P", "Ctrl++"
//   - Vim-style: "<C-s>", "<A-f>", "<C-S-p>", "<CR>", "<Esc>"
func Parse(spec string) (Event, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Event{}, ErrEmptySpec
	}

	// Vim-style <...> notation; "<" and ">" on their own are plain keys.
	if len(spec) > 2 && strings.HasPrefix(spec, "<") && strings.HasSuffix(spec, ">") {
		return parseVimStyle(spec[1 : len(spec)-1])
	}

	if len(spec) > 1 && strings.Contains(spec, "+") {
		return parseModifierStyle(spec)
	}

	return parseKeyWithModifiers(spec, ModNone)
}

// parseVimStyle parses Vim-style notation like "C-s", "A-F4", "CR", "Esc".
func parseVimStyle(inner string) (Event, error) {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return Event{}, ErrInvalidSpec
	}

	// "C--" binds the minus key.
	keyPart := inner
	var modPart string
	if strings.HasSuffix(inner, "--") {
		keyPart = "-"
		modPart = inner[:len(inner)-2]
	} else if i := strings.LastIndex(inner, "-"); i > 0 {
		keyPart = inner[i+1:]
		modPart = inner[:i]
	}

	var mods Modifier
	if modPart != "" {
		for _, p := range strings.Split(modPart, "-") {
			mod := ModifierFromName(p)
			if mod == ModNone {
				return Event{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
			}
			mods = mods.With(mod)
		}
	}

	return parseKeyWithModifiers(keyPart, mods)
}

// parseModifierStyle parses "Ctrl+S" style notation.
func parseModifierStyle(spec string) (Event, error) {
	keyPart := ""
	modPart := spec
	if strings.HasSuffix(spec, "++") {
		keyPart = "+"
		modPart = spec[:len(spec)-2]
	} else {
		i := strings.LastIndex(spec, "+")
		keyPart = spec[i+1:]
		modPart = spec[:i]
	}

	var mods Modifier
	for _, p := range strings.Split(modPart, "+") {
		mod := ModifierFromName(p)
		if mod == ModNone {
			return Event{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
		mods = mods.With(mod)
	}

	return parseKeyWithModifiers(keyPart, mods)
}

// parseKeyWithModifiers parses a key part with already-known modifiers.
func parseKeyWithModifiers(keyPart string, mods Modifier) (Event, error) {
	if keyPart != " " {
		keyPart = strings.TrimSpace(keyPart)
	}
	if keyPart == "" {
		return Event{}, ErrInvalidSpec
	}

	switch strings.ToLower(keyPart) {
	case " ":
		return NewSpecialEvent(KeySpace, mods), nil
	case "lt":
		return NewRuneEvent('<', mods), nil
	case "gt":
		return NewRuneEvent('>', mods), nil
	case "bar":
		return NewRuneEvent('|', mods), nil
	case "bslash":
		return NewRuneEvent('\\', mods), nil
	case "plus":
		return NewRuneEvent('+', mods), nil
	case "minus":
		return NewRuneEvent('-', mods), nil
	}

	if k := KeyFromName(keyPart); k != KeyNone {
		return NewSpecialEvent(k, mods), nil
	}

	runes := []rune(keyPart)
	if len(runes) == 1 {
		return NewRuneEvent(unicode.ToUpper(runes[0]), mods), nil
	}

	return Event{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, keyPart)
}

// MustParse parses a key specification and panics on error.
// Use only for known-valid specs in initialization code.
func MustParse(spec string) Event {
	event, err := Parse(spec)
	if err != nil {
		panic("invalid key specification: " + spec + ": " + err.Error())
	}
	return event
}

// Canonical parses a key specification and returns its canonical shortcut
// text. The empty specification is the "unbound" key and canonicalizes to "".
func Canonical(spec string) (string, error) {
	if strings.TrimSpace(spec) == "" {
		return "", nil
	}
	event, err := Parse(spec)
	if err != nil {
		return "", err
	}
	return event.Shortcut(), nil
}
