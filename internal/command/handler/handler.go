// Package handler provides the indirection through which commands reach
// application logic.
//
// A registry never calls application code directly. Each record holds a
// Handler; the usual implementation is a Ref, pairing a Finder that locates
// the receiving object at invocation time with an EntryPoint that acts on it.
package handler

import (
	"errors"
	"fmt"

	"github.com/dshills/cmdmgr/internal/command/flags"
	"github.com/dshills/cmdmgr/internal/command/ident"
	"github.com/dshills/cmdmgr/internal/input/key"
)

// Handler errors.
var (
	// ErrNoEntryPoint indicates a Ref without an entry point.
	ErrNoEntryPoint = errors.New("handler: no entry point")

	// ErrNoReceiver indicates the finder could not locate a receiver.
	ErrNoReceiver = errors.New("handler: receiver not found")
)

// Source identifies how a dispatch was addressed.
type Source uint8

const (
	// SourceID is a dispatch by numeric identifier (menu selection).
	SourceID Source = iota
	// SourceName is a dispatch by textual name.
	SourceName
	// SourceKey is a dispatch by captured key combination.
	SourceKey
)

// String returns a string representation of the source.
func (s Source) String() string {
	switch s {
	case SourceID:
		return "id"
	case SourceName:
		return "name"
	case SourceKey:
		return "key"
	default:
		return "unknown"
	}
}

// Invocation describes one call into a handler.
type Invocation struct {
	// ID is the identifier of the invoked record.
	ID ident.ID

	// Name is the record's command name.
	Name string

	// Index is the position within a multi-item group (0 for plain commands).
	Index int

	// Count is the size of the multi-item group (1 for plain commands).
	Count int

	// Parameter is the record's opaque payload, passed through unchanged.
	Parameter any

	// Flags are the ambient flags the dispatch was evaluated under.
	Flags flags.Flags

	// Source is how the record was addressed.
	Source Source

	// Key is the canonical shortcut for key dispatches.
	Key string

	// Phase is the key phase for key dispatches.
	Phase key.Phase
}

// Handler is the capability a command record invokes.
type Handler interface {
	HandleCommand(inv *Invocation) error
}

// Func adapts a plain function to Handler.
type Func func(inv *Invocation) error

// HandleCommand implements Handler.
func (f Func) HandleCommand(inv *Invocation) error {
	return f(inv)
}

// Receiver is the object an entry point acts upon.
type Receiver any

// Finder locates the receiver when a command fires.
type Finder interface {
	Find() (Receiver, error)
}

// FinderFunc adapts a function to Finder.
type FinderFunc func() (Receiver, error)

// Find implements Finder.
func (f FinderFunc) Find() (Receiver, error) {
	return f()
}

// Fixed returns a Finder that always yields recv.
func Fixed(recv Receiver) Finder {
	return FinderFunc(func() (Receiver, error) { return recv, nil })
}

// EntryPoint acts on a located receiver.
type EntryPoint func(recv Receiver, inv *Invocation) error

// Ref pairs a Finder with an EntryPoint.
type Ref struct {
	Finder Finder
	Entry  EntryPoint
}

// Bind returns a Ref for finder and entry.
func Bind(finder Finder, entry EntryPoint) Ref {
	return Ref{Finder: finder, Entry: entry}
}

// HandleCommand locates the receiver and calls the entry point.
// A nil Finder passes a nil receiver. Errors from the entry point are
// returned unchanged.
func (r Ref) HandleCommand(inv *Invocation) error {
	if r.Entry == nil {
		return ErrNoEntryPoint
	}

	var recv Receiver
	if r.Finder != nil {
		var err error
		recv, err = r.Finder.Find()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNoReceiver, err)
		}
	}
	return r.Entry(recv, inv)
}

// Method builds an EntryPoint for receivers of type T.
// The call fails with ErrNoReceiver if the located receiver is not a T.
func Method[T any](fn func(recv T, inv *Invocation) error) EntryPoint {
	return func(recv Receiver, inv *Invocation) error {
		t, ok := recv.(T)
		if !ok {
			return fmt.Errorf("%w: got %T", ErrNoReceiver, recv)
		}
		return fn(t, inv)
	}
}
