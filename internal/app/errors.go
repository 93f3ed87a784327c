package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrClosed is returned by operations on a closed App.
	ErrClosed = errors.New("app: closed")

	// ErrNoBindingsFile indicates persistence was requested but no
	// bindings file is configured.
	ErrNoBindingsFile = errors.New("app: no bindings file configured")
)

// InitError represents a failure while building an App.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initializing %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// OperationError represents an error that occurred during a specific operation.
type OperationError struct {
	Op     string // Operation name (e.g., "load bindings", "run script")
	Target string // Target of the operation (e.g., file path, command name)
	Err    error
}

func (e *OperationError) Error() string {
	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
