package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/cmdmgr/internal/binding"
	"github.com/dshills/cmdmgr/internal/binding/watch"
	"github.com/dshills/cmdmgr/internal/command"
	"github.com/dshills/cmdmgr/internal/command/flags"
	"github.com/dshills/cmdmgr/internal/command/handler"
	"github.com/dshills/cmdmgr/internal/command/ident"
	"github.com/dshills/cmdmgr/internal/config"
	"github.com/dshills/cmdmgr/internal/dispatcher"
	"github.com/dshills/cmdmgr/internal/input/key"
	"github.com/dshills/cmdmgr/internal/input/palette"
	"github.com/dshills/cmdmgr/internal/script"
)

// Options configures an App.
type Options struct {
	// Config supplies settings. Nil uses config.Default().
	Config *config.Config

	// Logger overrides the logger built from Config.Log.
	Logger *Logger

	// Builder registers the command set. Nil leaves the registry empty.
	Builder Builder

	// FlagSource, when set, is consulted for the ambient flags before
	// every dispatch and after every successful one.
	FlagSource func() flags.Flags

	// FlagNames describes flag bits in refusal messages.
	FlagNames *flags.Names

	// ScriptOutput receives script print output. Defaults to stdout.
	ScriptOutput io.Writer
}

// App owns a registry and the components built on it.
type App struct {
	mu sync.RWMutex

	id      string
	cfg     *config.Config
	log     *Logger
	closers []io.Closer

	registry *command.Registry
	disp     *dispatcher.Dispatcher
	palette  *palette.Palette
	script   *script.State

	builder    Builder
	flagSource func() flags.Flags
	ambient    flags.Flags

	store   *binding.FileStore
	watcher *watch.Watcher
	wg      sync.WaitGroup

	closed bool
}

// New creates an App, runs the builder and applies persisted bindings.
func New(opts Options) (*App, error) {
	a := &App{
		id:         uuid.NewString(),
		cfg:        opts.Config,
		builder:    opts.Builder,
		flagSource: opts.FlagSource,
	}
	if a.cfg == nil {
		a.cfg = config.Default()
	}

	if err := a.bootstrap(opts); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// bootstrap initializes all components in dependency order.
func (a *App) bootstrap(opts Options) error {
	// 1. Logging
	logger := opts.Logger
	if logger == nil {
		l, closer, err := NewLoggerFromConfig(a.cfg.Log)
		if err != nil {
			return &InitError{Component: "logging", Err: err}
		}
		logger = l
		a.closers = append(a.closers, closer)
	}
	a.log = logger.WithField("instance", a.id)

	// 2. Registry
	regLog := a.log.WithComponent("registry")
	a.registry = command.NewRegistry(
		command.WithReserved(ident.ID(a.cfg.Registry.ReservedIDs)),
		command.WithDisplaceHook(func(d command.Displacement) {
			regLog.Debug("key %s moved from %s to %s", d.Key, d.From, d.To)
		}),
	)
	if err := a.registry.Suppress(a.cfg.Registry.SuppressedKeys...); err != nil {
		return &InitError{Component: "registry", Err: err}
	}

	// 3. Dispatcher
	a.disp = dispatcher.New(a.registry, dispatcher.Config{
		EnableMetrics:    a.cfg.Dispatch.Metrics,
		RecoverFromPanic: a.cfg.Dispatch.RecoverPanics,
		StackSize:        dispatcher.DefaultConfig().StackSize,
	})
	a.disp.SetFlagNames(opts.FlagNames)
	hook := dispatcher.NewLoggingHook(a.log.WithComponent("dispatcher").Debug)
	a.disp.RegisterPreHook(hook)
	a.disp.RegisterPostHook(hook)
	if a.flagSource != nil {
		a.disp.RegisterPostHook(dispatcher.PostDispatchFunc(func(*handler.Invocation, *dispatcher.Result, error) {
			a.refreshFlags()
		}))
	}

	// 4. Command set
	if a.builder != nil {
		if err := a.builder(a.registry); err != nil {
			return &InitError{Component: "commands", Err: err}
		}
	}
	for _, d := range a.registry.CheckDuplicates() {
		regLog.Warn("default key %s claimed by %v", d.Key, d.Names)
	}

	// 5. Bindings
	if path := a.cfg.BindingsPath(); path != "" {
		format, err := a.cfg.BindingsFormat()
		if err != nil {
			return &InitError{Component: "bindings", Err: err}
		}
		a.store, err = binding.NewFileStore(path, format)
		if err != nil {
			return &InitError{Component: "bindings", Err: err}
		}
		if _, err := a.LoadBindings(context.Background()); err != nil {
			return &InitError{Component: "bindings", Err: err}
		}
		if a.cfg.Bindings.Watch {
			if err := a.startWatcher(); err != nil {
				return &InitError{Component: "bindings watcher", Err: err}
			}
		}
	}
	a.refreshFlags()

	// 6. Palette and scripting
	a.palette = palette.New(a.disp)
	out := opts.ScriptOutput
	if out == nil {
		out = os.Stdout
	}
	a.script = script.NewState(script.WithOutput(out))
	script.NewModule(a.disp, a.Flags).Install(a.script)

	a.log.Info("ready with %d commands", a.registry.Len())
	return nil
}

func (a *App) startWatcher() error {
	w, err := watch.New(a.store, a.registry)
	if err != nil {
		return err
	}
	a.watcher = w

	wlog := a.log.WithComponent("watch")
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for res := range w.Results() {
			if res.Err != nil {
				wlog.Error("reloading %s: %v", a.store.Path(), res.Err)
				continue
			}
			a.logReport(wlog, res.Report)
			a.refreshFlags()
		}
	}()
	return nil
}

// ID returns the instance identifier carried in log lines.
func (a *App) ID() string { return a.id }

// Config returns the settings the App was built with.
func (a *App) Config() *config.Config { return a.cfg }

// Logger returns the App's logger.
func (a *App) Logger() *Logger { return a.log }

// Registry returns the command registry.
func (a *App) Registry() *command.Registry { return a.registry }

// Dispatcher returns the dispatcher.
func (a *App) Dispatcher() *dispatcher.Dispatcher { return a.disp }

// Palette returns the command palette.
func (a *App) Palette() *palette.Palette { return a.palette }

// BindingsStore returns the bindings file store, or nil when persistence
// is off.
func (a *App) BindingsStore() *binding.FileStore { return a.store }

// Flags returns the current ambient flags.
func (a *App) Flags() flags.Flags {
	if a.flagSource != nil {
		return a.flagSource()
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ambient
}

// SetFlags sets the ambient flags and recomputes enablement. It has no
// lasting effect when a FlagSource is configured.
func (a *App) SetFlags(f flags.Flags) {
	a.mu.Lock()
	a.ambient = f
	a.mu.Unlock()
	a.refreshFlags()
}

func (a *App) refreshFlags() {
	a.registry.ReapplyFlags(a.Flags())
}

// Invoke dispatches the command called name under the current flags.
func (a *App) Invoke(name string) (dispatcher.Result, error) {
	res, err := a.disp.DispatchName(name, a.Flags())
	a.logDispatch(name, res, err)
	return res, err
}

// InvokeID dispatches by identifier, as a menu selection would.
func (a *App) InvokeID(id ident.ID) (dispatcher.Result, error) {
	res, err := a.disp.DispatchID(id, a.Flags())
	a.logDispatch(fmt.Sprintf("#%d", id), res, err)
	return res, err
}

// HandleKey dispatches a key event. globalOnly restricts matching to
// global commands, for events arriving while focus is elsewhere.
func (a *App) HandleKey(ev key.Event, globalOnly bool) (dispatcher.Result, error) {
	res, err := a.disp.DispatchKey(ev, a.Flags(), globalOnly)
	if res.Outcome != dispatcher.NotFound {
		a.logDispatch(res.Record.Name, res, err)
	}
	return res, err
}

// Explain renders a dispatch error for the user.
func (a *App) Explain(err error) string {
	return a.disp.Explain(err)
}

func (a *App) logDispatch(target string, res dispatcher.Result, err error) {
	dlog := a.log.WithComponent("dispatcher")
	switch {
	case err == nil:
	case errors.Is(err, dispatcher.ErrDisallowed):
		dlog.Debug("%s refused: %s", target, a.disp.Explain(err))
	case errors.Is(err, dispatcher.ErrUnknownCommand):
		dlog.Debug("%s: %v", target, err)
	case res.Outcome == dispatcher.Invoked:
		dlog.Error("%s failed: %v", target, err)
	default:
		dlog.Warn("%s: %v", target, err)
	}
}

// RunScript runs the Lua file at path.
func (a *App) RunScript(ctx context.Context, path string) error {
	if err := a.script.DoFile(ctx, path); err != nil {
		return &OperationError{Op: "run script", Target: path, Err: err}
	}
	return nil
}

// RunScriptString runs Lua code.
func (a *App) RunScriptString(ctx context.Context, code string) error {
	if err := a.script.DoString(ctx, code); err != nil {
		return &OperationError{Op: "run script", Err: err}
	}
	return nil
}

// LoadBindings applies the bindings file.
func (a *App) LoadBindings(ctx context.Context) (binding.Report, error) {
	if a.store == nil {
		return binding.Report{}, ErrNoBindingsFile
	}
	rep, err := a.store.Load(ctx, a.registry)
	if err != nil {
		return rep, &OperationError{Op: "load bindings", Target: a.store.Path(), Err: err}
	}
	a.logReport(a.log.WithComponent("bindings"), rep)
	return rep, nil
}

// SaveBindings writes the bindings file under the configured policy and
// returns the number of entries written.
func (a *App) SaveBindings(ctx context.Context) (int, error) {
	if a.store == nil {
		return 0, ErrNoBindingsFile
	}
	n, err := a.store.Save(ctx, a.registry, a.cfg.BindingsPolicy())
	if err != nil {
		return 0, &OperationError{Op: "save bindings", Target: a.store.Path(), Err: err}
	}
	a.log.WithComponent("bindings").Info("saved %d bindings to %s", n, a.store.Path())
	return n, nil
}

func (a *App) logReport(l *Logger, rep binding.Report) {
	l.Debug("applied %d bindings", rep.Applied)
	for _, name := range rep.Unknown {
		l.Warn("skipped binding for unknown command %s", name)
	}
	for _, p := range rep.Problems {
		l.Warn("malformed binding: %v", p)
	}
}

// SwitchContext replaces the command set. The registry is purged, builder
// runs, persisted bindings are applied again and enablement is recomputed.
// A nil builder reruns the current one.
func (a *App) SwitchContext(builder Builder) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if builder != nil {
		a.builder = builder
	}
	b := a.builder
	a.mu.Unlock()

	a.registry.Purge()
	if b != nil {
		if err := b(a.registry); err != nil {
			return &OperationError{Op: "switch context", Err: err}
		}
	}
	if a.store != nil {
		if _, err := a.LoadBindings(context.Background()); err != nil {
			return err
		}
	}
	a.refreshFlags()
	a.log.Info("context switched, %d commands", a.registry.Len())
	return nil
}

// Close stops the watcher and releases the script state and log file.
// It is safe to call more than once.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	var errs []error
	if a.watcher != nil {
		errs = append(errs, a.watcher.Close())
		a.wg.Wait()
	}
	if a.script != nil {
		a.script.Close()
	}
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
