package binding

import (
	"errors"
	"fmt"
)

// Binding errors.
var (
	// ErrMalformedBinding indicates input that is not a binding document,
	// or an entry that cannot be interpreted.
	ErrMalformedBinding = errors.New("binding: malformed binding")

	// ErrUnknownFormat indicates an unsupported document format.
	ErrUnknownFormat = errors.New("binding: unknown format")

	// ErrUnknownPolicy indicates an unsupported export policy.
	ErrUnknownPolicy = errors.New("binding: unknown policy")
)

// MalformedError describes one entry that could not be interpreted.
type MalformedError struct {
	// Index is the entry's position in the document, counting from 0.
	Index  int
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("binding: entry %d: %s", e.Index, e.Reason)
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformedBinding
}

func malformed(index int, format string, args ...any) *MalformedError {
	return &MalformedError{Index: index, Reason: fmt.Sprintf(format, args...)}
}
