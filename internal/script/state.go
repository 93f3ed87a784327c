package script

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultTimeout bounds a single run.
const DefaultTimeout = 5 * time.Second

// State is a sandboxed Lua interpreter.
type State struct {
	mu      sync.Mutex
	L       *lua.LState
	timeout time.Duration
	out     io.Writer
	closed  bool
}

// Option configures a State.
type Option func(*State)

// WithTimeout sets the per-run timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *State) {
		s.timeout = d
	}
}

// WithOutput redirects print. The default is stdout.
func WithOutput(w io.Writer) Option {
	return func(s *State) {
		s.out = w
	}
}

// NewState creates a sandboxed state.
func NewState(opts ...Option) *State {
	s := &State{
		timeout: DefaultTimeout,
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(s.L)
	lua.OpenTable(s.L)
	lua.OpenString(s.L)
	lua.OpenMath(s.L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		s.L.SetGlobal(name, lua.LNil)
	}
	s.L.SetGlobal("print", s.L.NewFunction(s.print))
	return s
}

// print writes its arguments tab-separated, like the stock print.
func (s *State) print(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, n)
	for i := 1; i <= n; i++ {
		parts[i-1] = L.ToStringMeta(L.Get(i)).String()
	}
	fmt.Fprintln(s.out, strings.Join(parts, "\t"))
	return 0
}

// DoString runs code.
func (s *State) DoString(ctx context.Context, code string) error {
	return s.run(ctx, func() error { return s.L.DoString(code) })
}

// DoFile runs the script at path.
func (s *State) DoFile(ctx context.Context, path string) error {
	return s.run(ctx, func() error { return s.L.DoFile(path) })
}

func (s *State) run(ctx context.Context, fn func() error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}

// Global returns a global converted to a Go value: nil, bool, float64,
// string, or the raw lua.LValue for anything else.
func (s *State) Global(name string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	switch v := s.L.GetGlobal(name).(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LNilType:
		return nil
	default:
		return v
	}
}

// SetModule installs funcs as the global table name.
func (s *State) SetModule(name string, funcs map[string]lua.LGFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.L.SetGlobal(name, s.L.SetFuncs(s.L.NewTable(), funcs))
}

// Close releases the interpreter. It is safe to call more than once.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.L.Close()
		s.closed = true
	}
}
