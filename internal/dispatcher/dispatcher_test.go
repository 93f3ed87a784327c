package dispatcher

import (
	"errors"
	"strings"
	"testing"

	"github.com/dshills/cmdmgr/internal/command"
	"github.com/dshills/cmdmgr/internal/command/flags"
	"github.com/dshills/cmdmgr/internal/command/handler"
	"github.com/dshills/cmdmgr/internal/command/ident"
	"github.com/dshills/cmdmgr/internal/input/key"
)

const audioLoaded flags.Flags = 1

type recorder struct {
	calls []*handler.Invocation
	err   error
}

func (r *recorder) HandleCommand(inv *handler.Invocation) error {
	r.calls = append(r.calls, inv)
	return r.err
}

func setup(t *testing.T) (*command.Registry, *Dispatcher, *recorder) {
	t.Helper()
	reg := command.NewRegistry()
	rec := &recorder{}
	play := flags.Require(audioLoaded)
	if _, err := reg.Register(command.Spec{
		Name:      "Play",
		Label:     "Play",
		Key:       "Space",
		Handler:   rec,
		Parameter: "param",
		Policy:    &play,
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return reg, New(reg, DefaultConfig()), rec
}

func TestPlayScenario(t *testing.T) {
	reg, d, rec := setup(t)

	reg.ReapplyFlags(0)
	if reg.Enabled("Play") {
		t.Fatal("Play enabled without audio")
	}
	reg.ReapplyFlags(audioLoaded)
	if !reg.Enabled("Play") {
		t.Fatal("Play disabled with audio")
	}

	space := key.NewSpecialEvent(key.KeySpace, key.ModNone)

	res, err := d.DispatchKey(space, audioLoaded, false)
	if err != nil {
		t.Fatalf("DispatchKey: %v", err)
	}
	if res.Outcome != Invoked || !res.Consumed {
		t.Errorf("got %v consumed=%v, want invoked and consumed", res.Outcome, res.Consumed)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("handler called %d times, want 1", len(rec.calls))
	}
	inv := rec.calls[0]
	if inv.Parameter != "param" || inv.Source != handler.SourceKey || inv.Key != "Space" {
		t.Errorf("unexpected invocation %+v", inv)
	}

	res, err = d.DispatchKey(space, 0, false)
	if res.Outcome != Disallowed {
		t.Errorf("got %v, want disallowed", res.Outcome)
	}
	if !errors.Is(err, ErrDisallowed) {
		t.Errorf("err = %v, want ErrDisallowed", err)
	}
	if len(rec.calls) != 1 {
		t.Error("disallowed dispatch invoked the handler")
	}
}

func TestDispatchIDAndName(t *testing.T) {
	reg, d, rec := setup(t)
	reg.ReapplyFlags(audioLoaded)

	play, _ := reg.FindByName("Play")

	res, err := d.DispatchID(play.ID, audioLoaded)
	if err != nil || res.Outcome != Invoked {
		t.Fatalf("DispatchID: %v %v", res.Outcome, err)
	}
	if rec.calls[0].Source != handler.SourceID {
		t.Errorf("source = %v, want id", rec.calls[0].Source)
	}

	res, err = d.DispatchName("Play", audioLoaded)
	if err != nil || res.Outcome != Invoked {
		t.Fatalf("DispatchName: %v %v", res.Outcome, err)
	}

	res, err = d.DispatchID(ident.ID(1), audioLoaded)
	if res.Outcome != NotFound || !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("unknown id: %v %v", res.Outcome, err)
	}

	res, err = d.DispatchName("Nope", audioLoaded)
	if res.Outcome != NotFound || !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("unknown name: %v %v", res.Outcome, err)
	}
}

func TestUnboundKeyIsNotFound(t *testing.T) {
	_, d, _ := setup(t)
	res, err := d.DispatchKey(key.NewRuneEvent('q', key.ModCtrl), audioLoaded, false)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if res.Outcome != NotFound || res.Consumed {
		t.Errorf("got %v consumed=%v", res.Outcome, res.Consumed)
	}
}

func TestHandlerErrorPropagatesUnchanged(t *testing.T) {
	reg, d, rec := setup(t)
	reg.ReapplyFlags(audioLoaded)
	boom := errors.New("boom")
	rec.err = boom

	res, err := d.DispatchName("Play", audioLoaded)
	if err != boom {
		t.Errorf("err = %v, want the handler's error", err)
	}
	if res.Outcome != Invoked {
		t.Errorf("outcome = %v, want invoked", res.Outcome)
	}
}

func TestExplicitDisableIsDisallowed(t *testing.T) {
	reg, d, _ := setup(t)
	reg.ReapplyFlags(audioLoaded)
	if err := reg.SetEnabled("Play", false); err != nil {
		t.Fatal(err)
	}

	_, err := d.DispatchName("Play", audioLoaded)
	var de *DisallowedError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want *DisallowedError", err)
	}
	if !de.Disabled {
		t.Error("Disabled not set")
	}
	if got := d.Explain(err); !strings.Contains(got, "disabled") {
		t.Errorf("Explain = %q", got)
	}
}

func TestExplainUsesFlagNames(t *testing.T) {
	reg, d, _ := setup(t)
	reg.ReapplyFlags(audioLoaded)

	names := flags.NewNames()
	if err := names.Define(audioLoaded, "audio loaded"); err != nil {
		t.Fatal(err)
	}
	d.SetFlagNames(names)

	_, err := d.DispatchName("Play", 0)
	want := `"Play" requires audio loaded`
	if got := d.Explain(err); got != want {
		t.Errorf("Explain = %q, want %q", got, want)
	}

	var de *DisallowedError
	if errors.As(err, &de) && de.Missing() != audioLoaded {
		t.Errorf("Missing = %v", de.Missing())
	}
}

func TestGlobalOnlyFilter(t *testing.T) {
	reg, d, _ := setup(t)
	rec := &recorder{}
	if _, err := reg.RegisterGlobal(command.Spec{Name: "Stop", Key: "Ctrl+Alt+S", Handler: rec}); err != nil {
		t.Fatal(err)
	}
	reg.ReapplyFlags(audioLoaded)

	res, _ := d.DispatchKey(key.NewSpecialEvent(key.KeySpace, key.ModNone), audioLoaded, true)
	if res.Outcome != NotFound {
		t.Errorf("non-global under global-only: %v", res.Outcome)
	}

	res, err := d.DispatchKey(key.NewRuneEvent('s', key.ModCtrl|key.ModAlt), audioLoaded, true)
	if err != nil || res.Outcome != Invoked {
		t.Errorf("global under global-only: %v %v", res.Outcome, err)
	}
	if len(rec.calls) != 1 {
		t.Errorf("global handler called %d times", len(rec.calls))
	}
}

func TestKeyPhases(t *testing.T) {
	tests := []struct {
		name        string
		skipKeyDown bool
		wantKeyUp   bool
		phase       key.Phase
		want        Outcome
		consumed    bool
	}{
		{"press fires by default", false, false, key.PhasePress, Invoked, true},
		{"release passes through by default", false, false, key.PhaseRelease, PhaseIgnored, false},
		{"key up fires on release", false, true, key.PhaseRelease, Invoked, true},
		{"key up holds press", false, true, key.PhasePress, PhaseIgnored, true},
		{"skip key down swallows press", true, false, key.PhasePress, PhaseIgnored, true},
		{"skip key down never fires", true, false, key.PhaseRelease, PhaseIgnored, false},
		{"skip down and key up", true, true, key.PhaseRelease, Invoked, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := command.NewRegistry()
			rec := &recorder{}
			if _, err := reg.Register(command.Spec{
				Name:        "Step",
				Key:         "F5",
				Handler:     rec,
				SkipKeyDown: tt.skipKeyDown,
				WantKeyUp:   tt.wantKeyUp,
			}); err != nil {
				t.Fatal(err)
			}
			d := NewWithDefaults(reg)

			ev := key.NewSpecialEvent(key.KeyF5, key.ModNone)
			if tt.phase == key.PhaseRelease {
				ev = ev.Released()
			}
			res, err := d.DispatchKey(ev, 0, false)
			if err != nil {
				t.Fatalf("DispatchKey: %v", err)
			}
			if res.Outcome != tt.want {
				t.Errorf("outcome = %v, want %v", res.Outcome, tt.want)
			}
			if res.Consumed != tt.consumed {
				t.Errorf("consumed = %v, want %v", res.Consumed, tt.consumed)
			}
			wantCalls := 0
			if tt.want == Invoked {
				wantCalls = 1
				if rec.calls[0].Phase != tt.phase {
					t.Errorf("invocation phase = %v", rec.calls[0].Phase)
				}
			}
			if len(rec.calls) != wantCalls {
				t.Errorf("calls = %d, want %d", len(rec.calls), wantCalls)
			}
		})
	}
}

func TestMultiMemberReceivesIndex(t *testing.T) {
	reg := command.NewRegistry()
	rec := &recorder{}
	base, err := reg.RegisterMulti(command.MultiSpec{
		Name:    "Recent",
		Count:   3,
		Label:   command.Numbered("File %d"),
		Handler: rec,
	})
	if err != nil {
		t.Fatal(err)
	}
	d := NewWithDefaults(reg)

	if _, err := d.DispatchID(base+2, 0); err != nil {
		t.Fatal(err)
	}
	inv := rec.calls[0]
	if inv.Index != 2 || inv.Count != 3 || inv.Parameter != 2 {
		t.Errorf("invocation = %+v", inv)
	}
}

func TestPanicRecovery(t *testing.T) {
	reg := command.NewRegistry()
	if _, err := reg.Register(command.Spec{
		Name: "Crash",
		Handler: handler.Func(func(*handler.Invocation) error {
			panic("bad")
		}),
	}); err != nil {
		t.Fatal(err)
	}
	d := New(reg, DefaultConfig().WithMetrics())

	res, err := d.DispatchName("Crash", 0)
	if !errors.Is(err, ErrPanic) {
		t.Fatalf("err = %v, want ErrPanic", err)
	}
	if res.Outcome != Invoked {
		t.Errorf("outcome = %v", res.Outcome)
	}
	if d.Metrics().TotalPanics() != 1 {
		t.Errorf("panics = %d", d.Metrics().TotalPanics())
	}
}

func TestHooks(t *testing.T) {
	reg, d, rec := setup(t)
	reg.ReapplyFlags(audioLoaded)

	var seen []string
	d.RegisterPostHook(PostDispatchFunc(func(inv *handler.Invocation, res *Result, err error) {
		seen = append(seen, inv.Name+":"+res.Outcome.String())
	}))
	d.RegisterPostHook(HistoryHook{Record: func(inv *handler.Invocation) { seen = append(seen, "history:"+inv.Name) }})

	if _, err := d.DispatchName("Play", audioLoaded); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || seen[0] != "Play:invoked" || seen[1] != "history:Play" {
		t.Errorf("post hooks saw %v", seen)
	}

	d.RegisterPreHook(PreDispatchFunc(func(*handler.Invocation) bool { return false }))
	res, err := d.DispatchName("Play", audioLoaded)
	if res.Outcome != Cancelled || !errors.Is(err, ErrCancelled) {
		t.Errorf("cancel: %v %v", res.Outcome, err)
	}
	if len(rec.calls) != 1 {
		t.Errorf("cancelled dispatch reached the handler")
	}
}

func TestLoggingHook(t *testing.T) {
	reg, d, _ := setup(t)
	reg.ReapplyFlags(audioLoaded)

	var lines []string
	h := NewLoggingHook(func(format string, args ...interface{}) {
		lines = append(lines, format)
	})
	d.RegisterPreHook(h)
	d.RegisterPostHook(h)

	if _, err := d.DispatchName("Play", audioLoaded); err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Errorf("logged %d lines, want 2", len(lines))
	}
}

func TestMetrics(t *testing.T) {
	reg := command.NewRegistry()
	rec := &recorder{}
	p := flags.Require(audioLoaded)
	if _, err := reg.Register(command.Spec{Name: "Play", Handler: rec, Policy: &p}); err != nil {
		t.Fatal(err)
	}
	reg.ReapplyFlags(audioLoaded)
	d := New(reg, DefaultConfig().WithMetrics())

	d.DispatchName("Play", audioLoaded)
	d.DispatchName("Play", audioLoaded)
	d.DispatchName("Play", 0)
	d.DispatchName("Missing", 0)

	m := d.Metrics()
	snap := m.Snapshot()
	if snap.TotalDispatches != 4 || snap.TotalInvoked != 2 || snap.TotalDisallowed != 1 || snap.TotalNotFound != 1 {
		t.Errorf("snapshot = %+v", snap)
	}

	stats := m.CommandStats("Play")
	if stats == nil {
		t.Fatal("no stats for Play")
	}
	if stats.DispatchCount != 3 || stats.InvokeCount != 2 || stats.DisallowedCount != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.LastOutcome != Disallowed {
		t.Errorf("last outcome = %v", stats.LastOutcome)
	}

	top := m.TopCommands(5)
	if len(top) != 1 || top[0].Name != "Play" {
		t.Errorf("top = %v", top)
	}

	m.Reset()
	if m.TotalDispatches() != 0 {
		t.Error("Reset did not clear counters")
	}
}

func TestFiringPhase(t *testing.T) {
	if p, ok := FiringPhase(command.Record{}); !ok || p != key.PhasePress {
		t.Errorf("default: %v %v", p, ok)
	}
	if _, ok := FiringPhase(command.Record{SkipKeyDown: true}); ok {
		t.Error("SkipKeyDown alone should never fire")
	}
	if p, ok := FiringPhase(command.Record{WantKeyUp: true}); !ok || p != key.PhaseRelease {
		t.Errorf("WantKeyUp: %v %v", p, ok)
	}
}
