// Package watch reloads a bindings file when it changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/cmdmgr/internal/binding"
	"github.com/dshills/cmdmgr/internal/command"
)

// ErrWatcherClosed indicates the watcher has been closed.
var ErrWatcherClosed = errors.New("watch: watcher closed")

// Config holds watcher settings.
type Config struct {
	// Debounce coalesces bursts of writes into one reload.
	Debounce time.Duration

	// BufferSize is the capacity of the results channel.
	BufferSize int
}

// DefaultConfig returns the default watcher settings.
func DefaultConfig() Config {
	return Config{
		Debounce:   100 * time.Millisecond,
		BufferSize: 16,
	}
}

// Option configures a Watcher.
type Option func(*Config)

// WithDebounce sets the debounce delay.
func WithDebounce(d time.Duration) Option {
	return func(c *Config) {
		c.Debounce = d
	}
}

// WithBufferSize sets the results channel capacity.
func WithBufferSize(n int) Option {
	return func(c *Config) {
		c.BufferSize = n
	}
}

// Result is the outcome of one reload.
type Result struct {
	Report binding.Report
	Err    error
	Time   time.Time
}

// Watcher reapplies a bindings file to a registry whenever the file is
// written, replaced or removed. Each successful reload restores default keys
// before applying the file, so entries deleted from the file revert. A file
// that fails to decode is reported and leaves the current keys in place.
type Watcher struct {
	mu sync.Mutex

	fsw    *fsnotify.Watcher
	store  *binding.FileStore
	reg    *command.Registry
	config Config
	target string

	results chan Result
	timer   *time.Timer
	reloads int64

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// New starts watching the store's file. The containing directory must
// exist; editors that save by rename are handled by watching it.
func New(store *binding.FileStore, reg *command.Registry, opts ...Option) (*Watcher, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 16
	}

	target, err := filepath.Abs(store.Path())
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(target)
	if info, err := os.Stat(dir); err != nil {
		return nil, err
	} else if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		store:   store,
		reg:     reg,
		config:  config,
		target:  target,
		results: make(chan Result, config.BufferSize),
		closeCh: make(chan struct{}),
	}

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

// Results returns the reload results channel. Results are dropped when
// the channel is full.
func (w *Watcher) Results() <-chan Result {
	return w.results
}

// Reloads returns the number of reloads performed.
func (w *Watcher) Reloads() int64 {
	return atomic.LoadInt64(&w.reloads)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	w.closedWg.Wait()
	err := w.fsw.Close()
	close(w.results)
	return err
}

func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.relevant(ev) {
				w.schedule()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.send(Result{Err: err, Time: time.Now()})
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	name, err := filepath.Abs(ev.Name)
	if err != nil || name != w.target {
		return false
	}
	return ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) ||
		ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename)
}

// schedule arms or re-arms the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Reset(w.config.Debounce)
		return
	}
	w.timer = time.AfterFunc(w.config.Debounce, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	rep, err := w.apply()
	atomic.AddInt64(&w.reloads, 1)
	w.send(Result{Report: rep, Err: err, Time: time.Now()})
}

// apply decodes the file and only then replaces the current bindings, so
// a file that cannot be read leaves the registry untouched. A removed file
// restores the defaults.
func (w *Watcher) apply() (binding.Report, error) {
	dec, err := w.store.Read(context.Background())
	if errors.Is(err, os.ErrNotExist) {
		w.reg.ResetAllKeys()
		return binding.Report{}, nil
	}
	if err != nil {
		return binding.Report{}, err
	}
	w.reg.ResetAllKeys()
	return binding.Apply(w.reg, dec.Bindings).WithProblems(dec.Problems), nil
}

func (w *Watcher) send(r Result) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.results <- r:
	default:
	}
}
