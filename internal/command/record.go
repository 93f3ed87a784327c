package command

import (
	"fmt"

	"github.com/dshills/cmdmgr/internal/command/flags"
	"github.com/dshills/cmdmgr/internal/command/handler"
	"github.com/dshills/cmdmgr/internal/command/ident"
)

// Record is one registered command.
type Record struct {
	// ID is unique across the registry and never reused.
	ID ident.ID

	// Name is the stable internal name used for persistence and textual dispatch.
	// Members of a multi-item group share it.
	Name string

	// Key is the current shortcut in canonical form, or "" when unbound.
	Key string

	// DefaultKey is the shortcut given at registration.
	DefaultKey string

	// Label is the user-visible text.
	Label string

	// LabelPrefix is the enclosing submenu label, if any.
	LabelPrefix string

	// LabelTop is the enclosing top-level menu label. It doubles as the category.
	LabelTop string

	Handler   handler.Handler
	Parameter any
	Policy    flags.Policy

	// Multi marks a member of a multi-item group; Index is its position
	// and Count the group size.
	Multi bool
	Index int
	Count int

	Enabled   bool
	Checkable bool
	Checked   bool

	// SkipKeyDown means key-press events are swallowed without firing.
	SkipKeyDown bool

	// WantKeyUp means the command fires on key release instead of press.
	WantKeyUp bool

	// Global marks a command reachable while focus is outside the main window.
	Global bool

	// Hidden records exist for key binding only and are left out of menus
	// and listings.
	Hidden bool

	// NoMenu records are registered without a menu item.
	NoMenu bool
}

// PrefixedLabel returns the label qualified by its submenu, if any.
func (r Record) PrefixedLabel() string {
	if r.LabelPrefix == "" {
		return r.Label
	}
	return r.LabelPrefix + " " + r.Label
}

// Category returns the top-level menu the record was registered under.
func (r Record) Category() string {
	return r.LabelTop
}

// String returns a short description for logs.
func (r Record) String() string {
	if r.Multi {
		return fmt.Sprintf("%s[%d] (%d)", r.Name, r.Index, r.ID)
	}
	return fmt.Sprintf("%s (%d)", r.Name, r.ID)
}

// Spec describes a single command to register.
type Spec struct {
	Name    string
	Label   string
	Key     string
	Handler handler.Handler

	// Parameter is passed through to the handler unchanged.
	Parameter any

	// Policy is the enablement policy. Nil selects the registry default.
	Policy *flags.Policy

	Checkable bool
	Checked   bool

	SkipKeyDown bool
	WantKeyUp   bool

	// NoMenu registers the command without a menu item.
	NoMenu bool
}

// LabelFunc labels the member at index of a multi-item group.
type LabelFunc func(index int) string

// Labels returns a LabelFunc over a fixed list. Indexes past the end get "".
func Labels(labels ...string) LabelFunc {
	return func(index int) string {
		if index < 0 || index >= len(labels) {
			return ""
		}
		return labels[index]
	}
}

// Numbered returns a LabelFunc that formats the 1-based position with format.
func Numbered(format string) LabelFunc {
	return func(index int) string {
		return fmt.Sprintf(format, index+1)
	}
}

// MultiSpec describes a multi-item group: Count records sharing one name
// and handler, with contiguous identifiers.
type MultiSpec struct {
	Name    string
	Count   int
	Label   LabelFunc
	Handler handler.Handler

	// Parameter supplies the per-member payload. Nil passes the index.
	Parameter func(index int) any

	// Policy applies to every member. Nil selects the registry default.
	Policy *flags.Policy
}
