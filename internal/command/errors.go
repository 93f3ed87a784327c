package command

import (
	"errors"
	"fmt"
)

// Registry errors.
var (
	// ErrDuplicateName indicates a name is already registered.
	ErrDuplicateName = errors.New("command: duplicate name")

	// ErrUnknownName indicates no record has the given name.
	ErrUnknownName = errors.New("command: unknown name")

	// ErrUnknownID indicates no record has the given identifier.
	ErrUnknownID = errors.New("command: unknown identifier")

	// ErrInvalidName indicates an empty command name.
	ErrInvalidName = errors.New("command: invalid name")

	// ErrInvalidKey indicates a key string that is not a valid shortcut.
	ErrInvalidKey = errors.New("command: invalid key")

	// ErrInvalidCount indicates a multi-item group with no members.
	ErrInvalidCount = errors.New("command: invalid instance count")

	// ErrInvalidIndex indicates a member index outside a multi-item group.
	ErrInvalidIndex = errors.New("command: invalid member index")

	// ErrNoHandler indicates a registration without a handler.
	ErrNoHandler = errors.New("command: no handler")

	// ErrMenuState indicates unbalanced menu begin/end calls.
	ErrMenuState = errors.New("command: menu structure mismatch")
)

// NameError records a failed operation on a named command.
type NameError struct {
	Op   string
	Name string
	Err  error
}

func (e *NameError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Name, e.Err)
}

func (e *NameError) Unwrap() error {
	return e.Err
}
