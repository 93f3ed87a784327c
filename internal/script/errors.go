package script

import "errors"

// Script errors.
var (
	// ErrClosed is returned by a State after Close.
	ErrClosed = errors.New("script: state is closed")

	// ErrPanic wraps a Go panic raised while a script ran.
	ErrPanic = errors.New("script: panic")
)
