package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/cmdmgr/internal/command"
	"github.com/dshills/cmdmgr/internal/command/flags"
	"github.com/dshills/cmdmgr/internal/command/handler"
	"github.com/dshills/cmdmgr/internal/config"
	"github.com/dshills/cmdmgr/internal/dispatcher"
	"github.com/dshills/cmdmgr/internal/input/key"
)

type testApp struct {
	*App
	project *Project
	logs    *bytes.Buffer
	out     *bytes.Buffer
}

func newTestApp(t *testing.T, cfg *config.Config) *testApp {
	t.Helper()
	logs := &bytes.Buffer{}
	out := &bytes.Buffer{}
	p := NewProject()

	a, err := New(Options{
		Config:       cfg,
		Logger:       NewLogger(LoggerConfig{Level: LogLevelDebug, Output: logs}),
		Builder:      DefaultCommands(p),
		FlagSource:   p.Flags,
		FlagNames:    DefaultFlagNames(),
		ScriptOutput: out,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return &testApp{App: a, project: p, logs: logs, out: out}
}

func mustParse(t *testing.T, spec string) key.Event {
	t.Helper()
	ev, err := key.Parse(spec)
	require.NoError(t, err)
	return ev
}

func TestNewRegistersDefaults(t *testing.T) {
	a := newTestApp(t, nil)

	assert.NotEmpty(t, a.ID())
	assert.Greater(t, a.Registry().Len(), 20)
	assert.Equal(t, []string{"File", "Edit", "Transport"}, a.Registry().Categories())
	assert.Empty(t, a.Registry().CheckDuplicates())
	assert.Nil(t, a.BindingsStore())
	assert.Contains(t, a.logs.String(), "instance="+a.ID())
}

func TestInvokeFollowsProjectState(t *testing.T) {
	a := newTestApp(t, nil)

	_, err := a.Invoke("Play")
	require.ErrorIs(t, err, dispatcher.ErrDisallowed)
	assert.Equal(t, `"Play" requires a project open`, a.Explain(err))

	_, err = a.Invoke("Open")
	require.NoError(t, err)
	assert.True(t, a.Flags().Has(FlagAudioLoaded))
	assert.True(t, a.Registry().Enabled("Play"))

	res, err := a.Invoke("Play")
	require.NoError(t, err)
	assert.Equal(t, dispatcher.Invoked, res.Outcome)
	assert.True(t, a.project.State().Playing)

	_, err = a.Invoke("Play")
	require.ErrorIs(t, err, dispatcher.ErrDisallowed)
	assert.Equal(t, `"Play" not allowed while playback`, a.Explain(err))

	_, err = a.Invoke("Stop")
	require.NoError(t, err)
	assert.False(t, a.project.State().Playing)

	_, err = a.Invoke("NoSuchCommand")
	assert.ErrorIs(t, err, dispatcher.ErrUnknownCommand)
}

func TestEditUndoRedo(t *testing.T) {
	a := newTestApp(t, nil)
	for _, name := range []string{"Open", "SelectAll", "Cut"} {
		_, err := a.Invoke(name)
		require.NoError(t, err, name)
	}

	st := a.project.State()
	assert.Equal(t, 1, st.Undo)
	assert.Equal(t, 1, st.Clipboard)
	assert.True(t, a.Flags().Has(FlagClipboard))

	_, err := a.Invoke("Cut")
	assert.ErrorIs(t, err, dispatcher.ErrDisallowed, "selection was consumed")

	_, err = a.Invoke("Undo")
	require.NoError(t, err)
	_, err = a.Invoke("Redo")
	require.NoError(t, err)
	assert.Equal(t, 1, a.project.State().Undo)
}

func TestHandleKey(t *testing.T) {
	a := newTestApp(t, nil)
	_, err := a.Invoke("Open")
	require.NoError(t, err)

	res, err := a.HandleKey(mustParse(t, "Space"), false)
	require.NoError(t, err)
	assert.Equal(t, dispatcher.Invoked, res.Outcome)
	assert.Equal(t, "Play", res.Record.Name)
	assert.True(t, res.Consumed)

	res, err = a.HandleKey(mustParse(t, "F12"), false)
	require.NoError(t, err)
	assert.Equal(t, dispatcher.NotFound, res.Outcome)
	assert.False(t, res.Consumed)
}

func TestHandleKeyRelease(t *testing.T) {
	a := newTestApp(t, nil)
	_, err := a.Invoke("Open")
	require.NoError(t, err)

	press := mustParse(t, "Ctrl+Alt+S")
	res, err := a.HandleKey(press, false)
	require.NoError(t, err)
	assert.Equal(t, dispatcher.PhaseIgnored, res.Outcome)
	assert.True(t, res.Consumed)
	assert.False(t, a.project.State().Playing)

	res, err = a.HandleKey(press.Released(), false)
	require.NoError(t, err)
	assert.Equal(t, dispatcher.Invoked, res.Outcome)
	assert.True(t, a.project.State().Playing)

	res, err = a.HandleKey(mustParse(t, "Space").Released(), false)
	require.NoError(t, err)
	assert.Equal(t, dispatcher.PhaseIgnored, res.Outcome)
	assert.False(t, res.Consumed, "release of a press command passes through")
}

func TestHandleKeyGlobalOnly(t *testing.T) {
	a := newTestApp(t, nil)
	_, err := a.Invoke("Open")
	require.NoError(t, err)

	res, err := a.HandleKey(mustParse(t, "Space"), true)
	require.NoError(t, err)
	assert.Equal(t, dispatcher.NotFound, res.Outcome)

	res, err = a.HandleKey(mustParse(t, "Ctrl+Alt+P"), true)
	require.NoError(t, err)
	assert.Equal(t, dispatcher.Invoked, res.Outcome)
	assert.True(t, a.project.State().Playing)
}

func TestHiddenCommandsAreKeyOnly(t *testing.T) {
	a := newTestApp(t, nil)

	names := a.Registry().Names(command.ListOptions{})
	assert.NotContains(t, names, "ZoomIn")
	assert.Contains(t, a.Registry().Names(command.ListOptions{IncludeHidden: true}), "ZoomIn")

	rec, ok := a.Registry().FindByKey("Ctrl+1")
	require.True(t, ok)
	assert.Equal(t, "ZoomIn", rec.Name)
}

func TestMenuStructure(t *testing.T) {
	a := newTestApp(t, nil)
	menu := a.Registry().Menu()
	require.NotEmpty(t, menu)

	assert.Equal(t, command.MenuBegin, menu[0].Kind)
	assert.Equal(t, "File", menu[0].Label)
	for i := 1; i < len(menu); i++ {
		if menu[i].Kind == command.MenuSeparator {
			assert.NotEqual(t, command.MenuSeparator, menu[i-1].Kind, "adjacent separators at %d", i)
		}
	}
}

func TestSuppressedKeysFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Registry.SuppressedKeys = []string{"space"}
	a := newTestApp(t, cfg)

	assert.Equal(t, "", a.Registry().Key("Play"))
	assert.Equal(t, "Space", a.Registry().DefaultKey("Play"))
}

func TestBindingsPersistence(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Bindings.File = filepath.Join(dir, "keys.yaml")

	a := newTestApp(t, cfg)
	require.NotNil(t, a.BindingsStore())
	require.NoError(t, a.Registry().SetKey("Stop", "F5"))
	n, err := a.SaveBindings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, a.Close())

	b := newTestApp(t, cfg)
	assert.Equal(t, "F5", b.Registry().Key("Stop"))
}

func TestNoBindingsFile(t *testing.T) {
	a := newTestApp(t, nil)
	_, err := a.SaveBindings(context.Background())
	assert.ErrorIs(t, err, ErrNoBindingsFile)
	_, err = a.LoadBindings(context.Background())
	assert.ErrorIs(t, err, ErrNoBindingsFile)
}

func TestLoadBindingsLogsProblems(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keys.toml")
	doc := "version = 1\n\n[[binding]]\nname = \"Gone\"\nkey = \"F9\"\n\n[[binding]]\nname = \"Stop\"\nkey = \"Ctrl+\"\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg := config.Default()
	cfg.Bindings.File = path
	a := newTestApp(t, cfg)

	logs := a.logs.String()
	assert.Contains(t, logs, "unknown command Gone")
	assert.Contains(t, logs, "malformed binding")
	assert.Equal(t, "S", a.Registry().Key("Stop"))
}

func TestWatchReloadsBindings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keys.toml")
	cfg := config.Default()
	cfg.Bindings.File = path
	cfg.Bindings.Watch = true
	a := newTestApp(t, cfg)

	doc := "version = 1\n\n[[binding]]\nname = \"Stop\"\nkey = \"F6\"\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	require.Eventually(t, func() bool {
		return a.Registry().Key("Stop") == "F6"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestSwitchContext(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Bindings.File = filepath.Join(dir, "keys.xml")
	a := newTestApp(t, cfg)

	require.NoError(t, a.Registry().SetKey("Stop", "F7"))
	_, err := a.SaveBindings(context.Background())
	require.NoError(t, err)

	var ran bool
	minimal := func(reg *command.Registry) error {
		_, err := reg.Register(command.Spec{
			Name: "Stop", Label: "Stop", Key: "S",
			Handler: handler.Func(func(*handler.Invocation) error { ran = true; return nil }),
		})
		return err
	}
	require.NoError(t, a.SwitchContext(minimal))

	assert.Equal(t, 1, a.Registry().Len())
	assert.Equal(t, "F7", a.Registry().Key("Stop"), "persisted binding reapplied")
	_, err = a.Invoke("Stop")
	require.NoError(t, err)
	assert.True(t, ran)

	require.NoError(t, a.SwitchContext(DefaultCommands(a.project)))
	assert.Greater(t, a.Registry().Len(), 20)
}

func TestSwitchContextBuilderError(t *testing.T) {
	a := newTestApp(t, nil)
	boom := errors.New("boom")
	err := a.SwitchContext(func(*command.Registry) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestScripting(t *testing.T) {
	a := newTestApp(t, nil)
	err := a.RunScriptString(context.Background(), `
		print(cmd.enabled("Play"))
		assert(cmd.invoke("Open"))
		print(cmd.enabled("Play"))
		local ok, msg = cmd.invoke("Stop")
		print(msg)
	`)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(a.out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "false", lines[0])
	assert.Equal(t, "true", lines[1])
	assert.Equal(t, `"Stop" requires playback`, lines[2])
}

func TestRunScriptFileError(t *testing.T) {
	a := newTestApp(t, nil)
	err := a.RunScript(context.Background(), filepath.Join(t.TempDir(), "missing.lua"))
	var oe *OperationError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "run script", oe.Op)
}

func TestPaletteHistory(t *testing.T) {
	a := newTestApp(t, nil)
	_, err := a.Invoke("Open")
	require.NoError(t, err)

	results := a.Palette().Search("", a.Flags(), 1)
	require.Len(t, results, 1)
	assert.Equal(t, "Open", results[0].Entry.Name)
}

func TestSetFlagsWithoutSource(t *testing.T) {
	reg := func(r *command.Registry) error {
		p := flags.Require(FlagAudioLoaded)
		_, err := r.Register(command.Spec{
			Name: "Play", Label: "Play", Policy: &p,
			Handler: handler.Func(func(*handler.Invocation) error { return nil }),
		})
		return err
	}
	a, err := New(Options{Logger: NullLogger, Builder: reg})
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.Registry().Enabled("Play"))
	a.SetFlags(FlagAudioLoaded)
	assert.True(t, a.Registry().Enabled("Play"))
	_, err = a.Invoke("Play")
	assert.NoError(t, err)
}

func TestCloseIdempotent(t *testing.T) {
	a := newTestApp(t, nil)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	assert.ErrorIs(t, a.SwitchContext(nil), ErrClosed)
}
