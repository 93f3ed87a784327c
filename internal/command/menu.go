package command

import (
	"fmt"

	"github.com/dshills/cmdmgr/internal/command/ident"
)

// MenuKind identifies an element of the menu structure.
type MenuKind uint8

const (
	// MenuItem is a command's entry.
	MenuItem MenuKind = iota
	// MenuSeparator divides groups of items.
	MenuSeparator
	// MenuBegin opens a top-level menu.
	MenuBegin
	// MenuEnd closes the current top-level menu.
	MenuEnd
	// SubMenuBegin opens a submenu inside the current menu.
	SubMenuBegin
	// SubMenuEnd closes the current submenu.
	SubMenuEnd
)

// String returns a string representation of the kind.
func (k MenuKind) String() string {
	switch k {
	case MenuItem:
		return "item"
	case MenuSeparator:
		return "separator"
	case MenuBegin:
		return "menu"
	case MenuEnd:
		return "end menu"
	case SubMenuBegin:
		return "submenu"
	case SubMenuEnd:
		return "end submenu"
	default:
		return "unknown"
	}
}

// MenuEntry is one element of the menu structure as a menu builder sees it.
// Item fields reflect the record at the time Menu was called.
type MenuEntry struct {
	Kind  MenuKind
	Label string

	// Item fields.
	ID        ident.ID
	Name      string
	Key       string
	Enabled   bool
	Checkable bool
	Checked   bool
}

type menuSlot struct {
	kind  MenuKind
	label string
	at    slot
}

type menuState struct {
	slots []menuSlot
	top   string
	open  bool
	subs  []string
	sepOK bool
}

// stamp records the enclosing menu and submenu labels on rec.
func (m *menuState) stamp(rec *Record) {
	if !m.open {
		return
	}
	rec.LabelTop = m.top
	if n := len(m.subs); n > 0 {
		rec.LabelPrefix = m.subs[n-1]
	}
}

func (m *menuState) addItem(at slot) {
	if !m.open {
		return
	}
	m.slots = append(m.slots, menuSlot{kind: MenuItem, at: at})
	m.sepOK = true
}

// trimSeparator drops a separator left dangling at the end of a menu.
func (m *menuState) trimSeparator() {
	if n := len(m.slots); n > 0 && m.slots[n-1].kind == MenuSeparator {
		m.slots = m.slots[:n-1]
	}
}

// BeginMenu opens a top-level menu. Top-level menus do not nest.
func (r *Registry) BeginMenu(label string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.menu.open {
		return fmt.Errorf("%w: menu %q opened inside %q", ErrMenuState, label, r.menu.top)
	}
	r.menu.open = true
	r.menu.top = label
	r.menu.sepOK = false
	r.menu.slots = append(r.menu.slots, menuSlot{kind: MenuBegin, label: label})
	return nil
}

// EndMenu closes the open top-level menu.
func (r *Registry) EndMenu() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.menu.open {
		return fmt.Errorf("%w: no menu open", ErrMenuState)
	}
	if len(r.menu.subs) > 0 {
		return fmt.Errorf("%w: submenu %q still open", ErrMenuState, r.menu.subs[len(r.menu.subs)-1])
	}
	r.menu.trimSeparator()
	r.menu.slots = append(r.menu.slots, menuSlot{kind: MenuEnd, label: r.menu.top})
	r.menu.open = false
	r.menu.top = ""
	r.menu.sepOK = true
	return nil
}

// BeginSubMenu opens a submenu inside the open menu or submenu.
func (r *Registry) BeginSubMenu(label string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.menu.open {
		return fmt.Errorf("%w: submenu %q outside a menu", ErrMenuState, label)
	}
	r.menu.subs = append(r.menu.subs, label)
	r.menu.sepOK = false
	r.menu.slots = append(r.menu.slots, menuSlot{kind: SubMenuBegin, label: label})
	return nil
}

// EndSubMenu closes the innermost submenu.
func (r *Registry) EndSubMenu() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.menu.subs)
	if n == 0 {
		return fmt.Errorf("%w: no submenu open", ErrMenuState)
	}
	r.menu.trimSeparator()
	r.menu.slots = append(r.menu.slots, menuSlot{kind: SubMenuEnd, label: r.menu.subs[n-1]})
	r.menu.subs = r.menu.subs[:n-1]
	r.menu.sepOK = true
	return nil
}

// AddSeparator adds a separator to the open menu. Separators at the start
// of a menu or directly after another separator are dropped.
func (r *Registry) AddSeparator() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.menu.open || !r.menu.sepOK {
		return
	}
	r.menu.slots = append(r.menu.slots, menuSlot{kind: MenuSeparator})
	r.menu.sepOK = false
}

// InMenu reports whether a top-level menu is open.
func (r *Registry) InMenu() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.menu.open
}

// Menu returns the menu structure built so far.
func (r *Registry) Menu() []MenuEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]MenuEntry, 0, len(r.menu.slots))
	for _, s := range r.menu.slots {
		if s.kind != MenuItem {
			out = append(out, MenuEntry{Kind: s.kind, Label: s.label})
			continue
		}
		rec := r.records[s.at]
		out = append(out, MenuEntry{
			Kind:      MenuItem,
			Label:     rec.Label,
			ID:        rec.ID,
			Name:      rec.Name,
			Key:       rec.Key,
			Enabled:   rec.Enabled,
			Checkable: rec.Checkable,
			Checked:   rec.Checked,
		})
	}
	return out
}
