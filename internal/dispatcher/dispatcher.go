package dispatcher

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/dshills/cmdmgr/internal/command"
	"github.com/dshills/cmdmgr/internal/command/flags"
	"github.com/dshills/cmdmgr/internal/command/handler"
	"github.com/dshills/cmdmgr/internal/command/ident"
	"github.com/dshills/cmdmgr/internal/input/key"
)

// Outcome is the terminal state of one dispatch attempt.
type Outcome uint8

const (
	// NotFound means no record matched, or the global-only filter hid it.
	NotFound Outcome = iota
	// Disallowed means the record matched but is not enabled.
	Disallowed
	// Invoked means the handler ran. Its error, if any, is returned alongside.
	Invoked
	// PhaseIgnored means a key event matched a record that fires on the other phase.
	PhaseIgnored
	// Cancelled means a pre-dispatch hook stopped the call.
	Cancelled
)

// String returns a string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case NotFound:
		return "not found"
	case Disallowed:
		return "disallowed"
	case Invoked:
		return "invoked"
	case PhaseIgnored:
		return "phase ignored"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result describes a dispatch attempt.
type Result struct {
	Outcome Outcome

	// Record is the resolved record. It is the zero Record for NotFound.
	Record command.Record

	// Consumed reports whether a key event belongs to a command and should
	// not be passed on.
	Consumed bool

	// Duration is the time spent in the handler.
	Duration time.Duration
}

// Dispatcher resolves commands in a registry and invokes them.
type Dispatcher struct {
	mu sync.RWMutex

	registry *command.Registry
	config   Config
	metrics  *Metrics
	names    *flags.Names

	preHooks  []PreDispatchHook
	postHooks []PostDispatchHook
}

// New creates a dispatcher over registry.
func New(registry *command.Registry, config Config) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		config:   config,
	}
	if config.EnableMetrics {
		d.metrics = NewMetrics()
	}
	return d
}

// NewWithDefaults creates a dispatcher with default configuration.
func NewWithDefaults(registry *command.Registry) *Dispatcher {
	return New(registry, DefaultConfig())
}

// Registry returns the registry the dispatcher resolves against.
func (d *Dispatcher) Registry() *command.Registry {
	return d.registry
}

// Metrics returns the metrics collector, or nil if metrics are disabled.
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// SetFlagNames sets the table used by Explain.
func (d *Dispatcher) SetFlagNames(names *flags.Names) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names = names
}

// Explain turns a dispatch error into user-facing text. Errors other than
// a *DisallowedError are returned as their message.
func (d *Dispatcher) Explain(err error) string {
	if err == nil {
		return ""
	}
	d.mu.RLock()
	names := d.names
	d.mu.RUnlock()

	var de *DisallowedError
	if errors.As(err, &de) {
		return de.Explain(names)
	}
	return err.Error()
}

// DispatchID invokes the record with identifier id.
// An unknown id returns ErrUnknownCommand.
func (d *Dispatcher) DispatchID(id ident.ID, ambient flags.Flags) (Result, error) {
	rec, ok := d.registry.FindByID(id)
	if !ok {
		d.record(fmt.Sprintf("#%d", id), NotFound, 0, nil)
		return Result{Outcome: NotFound}, fmt.Errorf("%w: %d", ErrUnknownCommand, id)
	}
	inv := newInvocation(rec, ambient, handler.SourceID)
	return d.invoke(rec, inv)
}

// DispatchName invokes the record called name. For a multi-item group this
// is the first member.
func (d *Dispatcher) DispatchName(name string, ambient flags.Flags) (Result, error) {
	rec, ok := d.registry.FindByName(name)
	if !ok {
		d.record(name, NotFound, 0, nil)
		return Result{Outcome: NotFound}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	inv := newInvocation(rec, ambient, handler.SourceName)
	return d.invoke(rec, inv)
}

// DispatchKey invokes the record bound to the event's key combination.
// With globalOnly set, records not registered as global are treated as
// not found. An unbound key is NotFound with a nil error: most keystrokes
// are not shortcuts.
func (d *Dispatcher) DispatchKey(ev key.Event, ambient flags.Flags, globalOnly bool) (Result, error) {
	if ev.IsZero() {
		return Result{Outcome: NotFound}, nil
	}
	shortcut := ev.Shortcut()
	rec, ok := d.registry.FindByKey(shortcut)
	if !ok || (globalOnly && !rec.Global) {
		return Result{Outcome: NotFound}, nil
	}

	if fires, ok := FiringPhase(rec); !ok || fires != ev.Phase {
		// A press is held back so its release can fire; a stray release
		// passes through.
		return Result{Outcome: PhaseIgnored, Record: rec, Consumed: ev.Phase == key.PhasePress}, nil
	}

	inv := newInvocation(rec, ambient, handler.SourceKey)
	inv.Key = shortcut
	inv.Phase = ev.Phase
	res, err := d.invoke(rec, inv)
	res.Consumed = true
	return res, err
}

// FiringPhase returns the key phase on which rec fires. The second result
// is false when no phase fires it.
func FiringPhase(rec command.Record) (key.Phase, bool) {
	if rec.WantKeyUp {
		return key.PhaseRelease, true
	}
	if rec.SkipKeyDown {
		return key.PhasePress, false
	}
	return key.PhasePress, true
}

// Allowed reports whether rec may run under the ambient flags. The cached
// enabled state and the policy must both agree.
func Allowed(rec command.Record, ambient flags.Flags) bool {
	return rec.Enabled && rec.Policy.Matches(ambient)
}

func newInvocation(rec command.Record, ambient flags.Flags, src handler.Source) *handler.Invocation {
	return &handler.Invocation{
		ID:        rec.ID,
		Name:      rec.Name,
		Index:     rec.Index,
		Count:     rec.Count,
		Parameter: rec.Parameter,
		Flags:     ambient,
		Source:    src,
	}
}

// invoke is the shared core: gate, hooks, handler, metrics.
func (d *Dispatcher) invoke(rec command.Record, inv *handler.Invocation) (Result, error) {
	res := Result{Record: rec}

	if !Allowed(rec, inv.Flags) {
		res.Outcome = Disallowed
		d.record(rec.Name, Disallowed, 0, nil)
		return res, &DisallowedError{
			Name:     rec.Name,
			Required: rec.Policy.Required,
			Mask:     rec.Policy.Mask,
			Ambient:  inv.Flags,
			Disabled: !rec.Enabled,
		}
	}

	if !d.runPreHooks(inv) {
		res.Outcome = Cancelled
		return res, ErrCancelled
	}

	start := time.Now()
	var err error
	if d.config.RecoverFromPanic {
		err = d.executeWithRecovery(rec.Handler, inv)
	} else {
		err = rec.Handler.HandleCommand(inv)
	}
	res.Outcome = Invoked
	res.Duration = time.Since(start)

	d.runPostHooks(inv, &res, err)
	d.record(rec.Name, Invoked, res.Duration, err)
	return res, err
}

// executeWithRecovery executes a handler with panic recovery.
func (d *Dispatcher) executeWithRecovery(h handler.Handler, inv *handler.Invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			size := d.config.StackSize
			if size <= 0 {
				size = 4096
			}
			stack := make([]byte, size)
			n := runtime.Stack(stack, false)

			err = fmt.Errorf("%w for %s: %v\n%s", ErrPanic, inv.Name, r, string(stack[:n]))

			if d.metrics != nil {
				d.metrics.RecordPanic(inv.Name)
			}
		}
	}()

	return h.HandleCommand(inv)
}

func (d *Dispatcher) record(name string, outcome Outcome, elapsed time.Duration, err error) {
	if d.metrics != nil {
		d.metrics.RecordDispatch(name, outcome, elapsed, err)
	}
}

// RegisterPreHook registers a pre-dispatch hook.
func (d *Dispatcher) RegisterPreHook(hook PreDispatchHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.preHooks = append(d.preHooks, hook)
}

// RegisterPostHook registers a post-dispatch hook.
func (d *Dispatcher) RegisterPostHook(hook PostDispatchHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.postHooks = append(d.postHooks, hook)
}

// runPreHooks runs all pre-dispatch hooks.
// Returns false if any hook cancels the call.
func (d *Dispatcher) runPreHooks(inv *handler.Invocation) bool {
	d.mu.RLock()
	hooks := make([]PreDispatchHook, len(d.preHooks))
	copy(hooks, d.preHooks)
	d.mu.RUnlock()

	for _, h := range hooks {
		if !h.PreDispatch(inv) {
			return false
		}
	}
	return true
}

func (d *Dispatcher) runPostHooks(inv *handler.Invocation, res *Result, err error) {
	d.mu.RLock()
	hooks := make([]PostDispatchHook, len(d.postHooks))
	copy(hooks, d.postHooks)
	d.mu.RUnlock()

	for _, h := range hooks {
		h.PostDispatch(inv, res, err)
	}
}
