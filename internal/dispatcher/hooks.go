package dispatcher

import (
	"github.com/dshills/cmdmgr/internal/command/handler"
)

// PreDispatchHook is called after the enablement check and before the
// handler runs. Returning false cancels the dispatch.
type PreDispatchHook interface {
	PreDispatch(inv *handler.Invocation) bool
}

// PostDispatchHook is called after the handler returns, with the handler's
// error.
type PostDispatchHook interface {
	PostDispatch(inv *handler.Invocation, res *Result, err error)
}

// PreDispatchFunc is a function adapter for PreDispatchHook.
type PreDispatchFunc func(inv *handler.Invocation) bool

// PreDispatch implements PreDispatchHook.
func (f PreDispatchFunc) PreDispatch(inv *handler.Invocation) bool {
	return f(inv)
}

// PostDispatchFunc is a function adapter for PostDispatchHook.
type PostDispatchFunc func(inv *handler.Invocation, res *Result, err error)

// PostDispatch implements PostDispatchHook.
func (f PostDispatchFunc) PostDispatch(inv *handler.Invocation, res *Result, err error) {
	f(inv, res, err)
}

// LoggingHook reports dispatches through a printf-style function.
type LoggingHook struct {
	// LogFunc is called with log messages.
	LogFunc func(format string, args ...interface{})
}

// NewLoggingHook creates a new logging hook.
func NewLoggingHook(logFunc func(format string, args ...interface{})) *LoggingHook {
	return &LoggingHook{LogFunc: logFunc}
}

// PreDispatch logs the command being dispatched.
func (h *LoggingHook) PreDispatch(inv *handler.Invocation) bool {
	if h.LogFunc != nil {
		h.LogFunc("dispatching %s (id=%d, via %s)", inv.Name, inv.ID, inv.Source)
	}
	return true
}

// PostDispatch logs the dispatch result.
func (h *LoggingHook) PostDispatch(inv *handler.Invocation, res *Result, err error) {
	if h.LogFunc == nil {
		return
	}
	if err != nil {
		h.LogFunc("dispatch %s failed after %s: %v", inv.Name, res.Duration, err)
		return
	}
	h.LogFunc("dispatch complete: %s -> %s", inv.Name, res.Outcome)
}

// HistoryHook calls Record for every invocation that succeeded.
// The palette uses it to keep its recent list.
type HistoryHook struct {
	Record func(inv *handler.Invocation)
}

// PostDispatch implements PostDispatchHook.
func (h HistoryHook) PostDispatch(inv *handler.Invocation, res *Result, err error) {
	if h.Record != nil && err == nil {
		h.Record(inv)
	}
}
