package handler

import (
	"errors"
	"testing"
)

type transport struct {
	played []any
}

func (t *transport) play(inv *Invocation) error {
	t.played = append(t.played, inv.Parameter)
	return nil
}

func TestRefLocatesReceiver(t *testing.T) {
	tr := &transport{}
	ref := Bind(Fixed(tr), Method(func(recv *transport, inv *Invocation) error {
		return recv.play(inv)
	}))

	if err := ref.HandleCommand(&Invocation{Name: "Play", Parameter: 3}); err != nil {
		t.Fatalf("HandleCommand() error = %v", err)
	}
	if len(tr.played) != 1 || tr.played[0] != 3 {
		t.Errorf("played = %v", tr.played)
	}
}

func TestRefPropagatesEntryError(t *testing.T) {
	boom := errors.New("boom")
	ref := Ref{Entry: func(Receiver, *Invocation) error { return boom }}

	if err := ref.HandleCommand(&Invocation{}); err != boom {
		t.Errorf("HandleCommand() error = %v, want identical error", err)
	}
}

func TestRefFinderFailure(t *testing.T) {
	ref := Bind(FinderFunc(func() (Receiver, error) {
		return nil, errors.New("no project")
	}), func(Receiver, *Invocation) error { return nil })

	err := ref.HandleCommand(&Invocation{})
	if !errors.Is(err, ErrNoReceiver) {
		t.Errorf("error = %v, want ErrNoReceiver", err)
	}
}

func TestRefWithoutEntry(t *testing.T) {
	if err := (Ref{}).HandleCommand(&Invocation{}); !errors.Is(err, ErrNoEntryPoint) {
		t.Errorf("error = %v, want ErrNoEntryPoint", err)
	}
}

func TestMethodTypeMismatch(t *testing.T) {
	ref := Bind(Fixed("not a transport"), Method(func(recv *transport, inv *Invocation) error {
		return nil
	}))
	if err := ref.HandleCommand(&Invocation{}); !errors.Is(err, ErrNoReceiver) {
		t.Errorf("error = %v, want ErrNoReceiver", err)
	}
}

func TestFunc(t *testing.T) {
	var got string
	h := Func(func(inv *Invocation) error {
		got = inv.Name
		return nil
	})
	_ = h.HandleCommand(&Invocation{Name: "Stop"})
	if got != "Stop" {
		t.Errorf("got %q", got)
	}
}

func TestSourceString(t *testing.T) {
	if SourceKey.String() != "key" || SourceName.String() != "name" || SourceID.String() != "id" {
		t.Error("unexpected source strings")
	}
	if Source(9).String() != "unknown" {
		t.Error("unknown source should stringify as unknown")
	}
}
