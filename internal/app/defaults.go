package app

import (
	"errors"
	"fmt"

	"github.com/dshills/cmdmgr/internal/command"
	"github.com/dshills/cmdmgr/internal/command/flags"
	"github.com/dshills/cmdmgr/internal/command/handler"
)

// Builder populates a registry with a command set.
type Builder func(reg *command.Registry) error

// Policies used by the default command set.
var (
	needProject   = flags.Require(FlagAudioLoaded)
	needSelection = flags.Require(FlagAudioLoaded | FlagTracksSelected)
	needPlaying   = flags.Require(FlagPlaying)
	needUndo      = flags.Require(FlagUndoAvailable)
	needRedo      = flags.Require(FlagRedoAvailable)
	needClipboard = flags.Require(FlagAudioLoaded | FlagClipboard)

	// Starting playback is refused while already playing.
	idleProject = flags.Policy{
		Required: FlagAudioLoaded,
		Mask:     (FlagAudioLoaded | FlagPlaying).AsMask(),
	}
)

// projectCommands builds handlers that act on the project p.
type projectCommands struct {
	finder handler.Finder
}

func (c projectCommands) do(fn func(p *Project, inv *handler.Invocation) error) handler.Handler {
	return handler.Bind(c.finder, handler.Method(fn))
}

// DefaultCommands returns the builder for the stock command set operating
// on p.
func DefaultCommands(p *Project) Builder {
	c := projectCommands{finder: handler.Fixed(p)}
	return func(reg *command.Registry) error {
		steps := []func(*command.Registry, projectCommands) error{
			fileMenu,
			editMenu,
			transportMenu,
			viewCommands,
			globalCommands,
		}
		for _, step := range steps {
			if err := step(reg, c); err != nil {
				return err
			}
		}
		return nil
	}
}

// registerAll registers specs in order, stopping at the first failure.
func registerAll(reg *command.Registry, specs ...command.Spec) error {
	for _, s := range specs {
		if _, err := reg.Register(s); err != nil {
			return err
		}
	}
	return nil
}

func fileMenu(reg *command.Registry, c projectCommands) error {
	if err := reg.BeginMenu("File"); err != nil {
		return err
	}
	err := registerAll(reg,
		command.Spec{Name: "New", Label: "New", Key: "Ctrl+N",
			Handler: c.do(func(p *Project, inv *handler.Invocation) error {
				return p.Open("untitled")
			})},
		command.Spec{Name: "Open", Label: "Open...", Key: "Ctrl+O",
			Handler: c.do(func(p *Project, inv *handler.Invocation) error {
				name, _ := inv.Parameter.(string)
				if name == "" {
					name = "project"
				}
				return p.Open(name)
			})},
		command.Spec{Name: "Close", Label: "Close", Key: "Ctrl+W", Policy: &needProject,
			Handler: c.do(func(p *Project, inv *handler.Invocation) error {
				p.Close()
				return nil
			})},
	)
	if err != nil {
		return err
	}

	reg.AddSeparator()
	if err := reg.BeginSubMenu("Export"); err != nil {
		return err
	}
	for _, f := range []struct{ name, label, key, ext string }{
		{"ExportMp3", "as MP3", "Ctrl+Shift+E", "mp3"},
		{"ExportWav", "as WAV", "", "wav"},
		{"ExportOgg", "as Ogg", "", "ogg"},
	} {
		ext := f.ext
		err := registerAll(reg, command.Spec{Name: f.name, Label: f.label, Key: f.key, Policy: &needProject,
			Handler: c.do(func(p *Project, inv *handler.Invocation) error {
				return p.Export(ext)
			})})
		if err != nil {
			return err
		}
	}
	if err := reg.EndSubMenu(); err != nil {
		return err
	}

	reg.AddSeparator()
	if _, err := reg.RegisterMulti(command.MultiSpec{
		Name:  "OpenRecent",
		Count: MaxRecent,
		Label: command.Numbered("Recent Project %d"),
		Handler: c.do(func(p *Project, inv *handler.Invocation) error {
			return p.OpenRecent(inv.Index)
		}),
	}); err != nil {
		return err
	}
	return reg.EndMenu()
}

func editMenu(reg *command.Registry, c projectCommands) error {
	if err := reg.BeginMenu("Edit"); err != nil {
		return err
	}
	edit := func(op string) handler.Handler {
		return c.do(func(p *Project, inv *handler.Invocation) error {
			return p.Edit(op)
		})
	}
	err := registerAll(reg,
		command.Spec{Name: "Undo", Label: "Undo", Key: "Ctrl+Z", Policy: &needUndo,
			Handler: c.do(func(p *Project, inv *handler.Invocation) error {
				_, err := p.Undo()
				return err
			})},
		command.Spec{Name: "Redo", Label: "Redo", Key: "Ctrl+Y", Policy: &needRedo,
			Handler: c.do(func(p *Project, inv *handler.Invocation) error {
				_, err := p.Redo()
				return err
			})},
	)
	if err != nil {
		return err
	}
	reg.AddSeparator()
	err = registerAll(reg,
		command.Spec{Name: "Cut", Label: "Cut", Key: "Ctrl+X", Policy: &needSelection, Handler: edit("cut")},
		command.Spec{Name: "Copy", Label: "Copy", Key: "Ctrl+C", Policy: &needSelection, Handler: edit("copy")},
		command.Spec{Name: "Paste", Label: "Paste", Key: "Ctrl+V", Policy: &needClipboard, Handler: edit("paste")},
		command.Spec{Name: "Delete", Label: "Delete", Key: "Delete", Policy: &needSelection, Handler: edit("delete")},
	)
	if err != nil {
		return err
	}
	reg.AddSeparator()
	err = registerAll(reg,
		command.Spec{Name: "SelectAll", Label: "Select All", Key: "Ctrl+A", Policy: &needProject,
			Handler: c.do(func(p *Project, inv *handler.Invocation) error {
				return p.Select(true)
			})},
		command.Spec{Name: "SelectNone", Label: "Select None", Key: "Ctrl+Shift+A", Policy: &needProject,
			Handler: c.do(func(p *Project, inv *handler.Invocation) error {
				return p.Select(false)
			})},
		command.Spec{Name: "NewTrack", Label: "New Track", Key: "Ctrl+Shift+N", Policy: &needProject,
			Handler: edit("new track")},
	)
	if err != nil {
		return err
	}
	return reg.EndMenu()
}

func transportMenu(reg *command.Registry, c projectCommands) error {
	if err := reg.BeginMenu("Transport"); err != nil {
		return err
	}
	play := func(loop bool) handler.Handler {
		return c.do(func(p *Project, inv *handler.Invocation) error {
			return p.Play(loop)
		})
	}
	err := registerAll(reg,
		command.Spec{Name: "Play", Label: "Play", Key: "Space", Policy: &idleProject, Handler: play(false)},
		command.Spec{Name: "Stop", Label: "Stop", Key: "S", Policy: &needPlaying,
			Handler: c.do(func(p *Project, inv *handler.Invocation) error {
				p.Stop()
				return nil
			})},
		command.Spec{Name: "Pause", Label: "Pause", Key: "P", Policy: &needPlaying, Checkable: true,
			Handler: c.do(func(p *Project, inv *handler.Invocation) error {
				p.TogglePause()
				return nil
			})},
		command.Spec{Name: "PlayLooped", Label: "Loop Play", Key: "Shift+Space", Policy: &idleProject, Handler: play(true)},
	)
	if err != nil {
		return err
	}
	reg.AddSeparator()
	// Scrubbing previews while the key is held and plays on release.
	err = registerAll(reg,
		command.Spec{Name: "Scrub", Label: "Scrub", Key: "Ctrl+Alt+S", Policy: &idleProject, WantKeyUp: true, Handler: play(false)},
	)
	if err != nil {
		return err
	}
	return reg.EndMenu()
}

// viewCommands are key-only zoom commands, registered hidden.
func viewCommands(reg *command.Registry, c projectCommands) error {
	reg.SetHiddenMode(true)
	defer reg.SetHiddenMode(false)

	zoom := c.do(func(p *Project, inv *handler.Invocation) error { return nil })
	return registerAll(reg,
		command.Spec{Name: "ZoomIn", Label: "Zoom In", Key: "Ctrl+1", Policy: &needProject, Handler: zoom, Parameter: 1},
		command.Spec{Name: "ZoomNormal", Label: "Zoom Normal", Key: "Ctrl+2", Policy: &needProject, Handler: zoom, Parameter: 0},
		command.Spec{Name: "ZoomOut", Label: "Zoom Out", Key: "Ctrl+3", Policy: &needProject, Handler: zoom, Parameter: -1},
	)
}

// globalCommands stay reachable from auxiliary windows.
func globalCommands(reg *command.Registry, c projectCommands) error {
	_, err := reg.RegisterGlobal(command.Spec{
		Name:   "PlayStop",
		Label:  "Play/Stop",
		Key:    "Ctrl+Alt+P",
		Policy: &needProject,
		Handler: c.do(func(p *Project, inv *handler.Invocation) error {
			if p.State().Playing {
				p.Stop()
				return nil
			}
			return p.Play(false)
		}),
	})
	if err != nil {
		return fmt.Errorf("registering global commands: %w", err)
	}
	return nil
}

// Chain runs builders in order.
func Chain(builders ...Builder) Builder {
	return func(reg *command.Registry) error {
		var errs []error
		for _, b := range builders {
			if err := b(reg); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
