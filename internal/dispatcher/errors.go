package dispatcher

import (
	"errors"
	"fmt"

	"github.com/dshills/cmdmgr/internal/command/flags"
)

// Dispatcher errors.
var (
	// ErrUnknownCommand indicates no record matched the identifier or name.
	ErrUnknownCommand = errors.New("dispatcher: unknown command")

	// ErrDisallowed indicates the record is not enabled in the current context.
	ErrDisallowed = errors.New("dispatcher: command not allowed")

	// ErrCancelled indicates a pre-dispatch hook cancelled the call.
	ErrCancelled = errors.New("dispatcher: cancelled by hook")

	// ErrPanic indicates the handler panicked.
	ErrPanic = errors.New("dispatcher: handler panic")
)

// DisallowedError describes a dispatch refused by the enablement check.
type DisallowedError struct {
	Name     string
	Required flags.Flags
	Mask     flags.Mask
	Ambient  flags.Flags

	// Disabled is set when the record was switched off explicitly rather
	// than by its policy.
	Disabled bool
}

func (e *DisallowedError) Error() string {
	return fmt.Sprintf("dispatcher: %q not allowed", e.Name)
}

func (e *DisallowedError) Is(target error) bool {
	return target == ErrDisallowed
}

// Missing returns the relevant bits on which the ambient flags disagree
// with the requirement.
func (e *DisallowedError) Missing() flags.Flags {
	return flags.Missing(e.Ambient, e.Required, e.Mask)
}

// Explain returns a sentence suitable for showing to the user.
func (e *DisallowedError) Explain(names *flags.Names) string {
	why := names.Explain(flags.Policy{Required: e.Required, Mask: e.Mask}, e.Ambient)
	if why == "" {
		if e.Disabled {
			return fmt.Sprintf("%q is currently disabled", e.Name)
		}
		return fmt.Sprintf("%q is not available right now", e.Name)
	}
	return fmt.Sprintf("%q %s", e.Name, why)
}
