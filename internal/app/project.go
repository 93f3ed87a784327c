package app

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dshills/cmdmgr/internal/command/flags"
)

// Flag bits the default command set is gated on.
const (
	FlagAudioLoaded flags.Flags = 1 << iota
	FlagTracksSelected
	FlagPlaying
	FlagUndoAvailable
	FlagRedoAvailable
	FlagClipboard
)

// DefaultFlagNames describes the default flag bits for error messages.
func DefaultFlagNames() *flags.Names {
	n := flags.NewNames()
	_ = n.Define(FlagAudioLoaded, "a project open")
	_ = n.Define(FlagTracksSelected, "a selection")
	_ = n.Define(FlagPlaying, "playback")
	_ = n.Define(FlagUndoAvailable, "something to undo")
	_ = n.Define(FlagRedoAvailable, "something to redo")
	_ = n.Define(FlagClipboard, "clipboard contents")
	return n
}

// ErrNoProject is returned by project operations that need an open project.
var ErrNoProject = errors.New("no project open")

// MaxRecent is the length of the recent-projects list.
const MaxRecent = 4

// Project is the document the default command set operates on. It stands
// in for a real editor document and keeps just enough state to drive the
// flag bits.
type Project struct {
	mu sync.Mutex

	name      string
	tracks    int
	selected  bool
	playing   bool
	looping   bool
	paused    bool
	clipboard int
	undo      []string
	redo      []string
	recent    []string
	exports   []string
}

// ProjectState is a snapshot of a Project.
type ProjectState struct {
	Name      string
	Tracks    int
	Selected  bool
	Playing   bool
	Looping   bool
	Paused    bool
	Clipboard int
	Undo      int
	Redo      int
	Recent    []string
	Exports   []string
}

// NewProject returns an empty project with nothing open.
func NewProject() *Project {
	return &Project{}
}

// Flags derives the ambient flags from the project state.
func (p *Project) Flags() flags.Flags {
	p.mu.Lock()
	defer p.mu.Unlock()
	var f flags.Flags
	if p.name != "" {
		f = f.With(FlagAudioLoaded)
	}
	if p.selected {
		f = f.With(FlagTracksSelected)
	}
	if p.playing {
		f = f.With(FlagPlaying)
	}
	if len(p.undo) > 0 {
		f = f.With(FlagUndoAvailable)
	}
	if len(p.redo) > 0 {
		f = f.With(FlagRedoAvailable)
	}
	if p.clipboard > 0 {
		f = f.With(FlagClipboard)
	}
	return f
}

// State returns a snapshot.
func (p *Project) State() ProjectState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ProjectState{
		Name:      p.name,
		Tracks:    p.tracks,
		Selected:  p.selected,
		Playing:   p.playing,
		Looping:   p.looping,
		Paused:    p.paused,
		Clipboard: p.clipboard,
		Undo:      len(p.undo),
		Redo:      len(p.redo),
		Recent:    slices.Clone(p.recent),
		Exports:   slices.Clone(p.exports),
	}
}

// Open replaces the current project with a new one called name.
func (p *Project) Open(name string) error {
	if name == "" {
		return errors.New("project name is empty")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	p.name = name
	p.tracks = 1
	p.recent = slices.DeleteFunc(p.recent, func(r string) bool { return r == name })
	p.recent = slices.Insert(p.recent, 0, name)
	if len(p.recent) > MaxRecent {
		p.recent = p.recent[:MaxRecent]
	}
	return nil
}

// OpenRecent reopens entry index of the recent list.
func (p *Project) OpenRecent(index int) error {
	p.mu.Lock()
	if index < 0 || index >= len(p.recent) {
		p.mu.Unlock()
		return fmt.Errorf("no recent project %d", index+1)
	}
	name := p.recent[index]
	p.mu.Unlock()
	return p.Open(name)
}

// Recent returns the recent-projects list, most recent first.
func (p *Project) Recent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.recent)
}

// Close closes the project.
func (p *Project) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}

func (p *Project) reset() {
	p.name = ""
	p.tracks = 0
	p.selected = false
	p.playing = false
	p.looping = false
	p.paused = false
	p.undo = nil
	p.redo = nil
}

func (p *Project) requireOpen() error {
	if p.name == "" {
		return ErrNoProject
	}
	return nil
}

// Play starts playback, looping if loop is set.
func (p *Project) Play(loop bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireOpen(); err != nil {
		return err
	}
	p.playing = true
	p.looping = loop
	p.paused = false
	return nil
}

// Stop stops playback.
func (p *Project) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.looping = false
	p.paused = false
}

// TogglePause flips the pause state and returns it.
func (p *Project) TogglePause() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = !p.paused
	return p.paused
}

// Select sets the selection.
func (p *Project) Select(on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireOpen(); err != nil {
		return err
	}
	p.selected = on
	return nil
}

// Edit applies a named edit that can be undone.
func (p *Project) Edit(op string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireOpen(); err != nil {
		return err
	}
	switch op {
	case "cut":
		p.clipboard++
		p.selected = false
	case "copy":
		p.clipboard++
		return nil // copying changes nothing to undo
	case "delete":
		p.selected = false
	case "new track":
		p.tracks++
	}
	p.undo = append(p.undo, op)
	p.redo = nil
	return nil
}

// Undo reverts the last edit and returns its name.
func (p *Project) Undo() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.undo) == 0 {
		return "", errors.New("nothing to undo")
	}
	op := p.undo[len(p.undo)-1]
	p.undo = p.undo[:len(p.undo)-1]
	p.redo = append(p.redo, op)
	return op, nil
}

// Redo reapplies the last undone edit and returns its name.
func (p *Project) Redo() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.redo) == 0 {
		return "", errors.New("nothing to redo")
	}
	op := p.redo[len(p.redo)-1]
	p.redo = p.redo[:len(p.redo)-1]
	p.undo = append(p.undo, op)
	return op, nil
}

// Export records an export in format.
func (p *Project) Export(format string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireOpen(); err != nil {
		return err
	}
	p.exports = append(p.exports, p.name+"."+format)
	return nil
}
