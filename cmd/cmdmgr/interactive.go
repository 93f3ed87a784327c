package main

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dshills/cmdmgr/internal/dispatcher"
	"github.com/dshills/cmdmgr/internal/input/palette"
	"github.com/dshills/cmdmgr/internal/input/termkey"
)

const paletteRows = 8

func newInteractiveCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"i"},
		Short:   "Drive the commands with shortcuts and a command palette",
		Long: `Every keystroke is dispatched as a shortcut. Press ':' to open the
command palette, Esc to close it and Ctrl+C to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, true)
			if err != nil {
				return err
			}
			defer s.Close()

			// Keep log output off the terminal the program draws on.
			if s.Config().Log.File == "" {
				s.Logger().Disable()
			}
			_, err = tea.NewProgram(newModel(s), tea.WithAltScreen()).Run()
			return err
		},
	}
}

type model struct {
	s *session

	open    bool
	query   string
	results []palette.SearchResult
	cursor  int
	status  string
	failed  bool
}

func newModel(s *session) *model {
	return &model{s: s, status: "ready"}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if km.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.open {
		m.updatePalette(km)
		return m, nil
	}
	if km.Type == tea.KeyRunes && string(km.Runes) == ":" {
		m.open = true
		m.query = ""
		m.search()
		return m, nil
	}
	m.dispatchKey(km)
	return m, nil
}

// dispatchKey sends the press and, since terminals report no key release,
// a synthetic release so release-phase commands fire too.
func (m *model) dispatchKey(km tea.KeyMsg) {
	ev := termkey.FromTea(km)
	if ev.IsZero() {
		return
	}
	res, err := m.s.HandleKey(ev, false)
	if res.Outcome == dispatcher.PhaseIgnored {
		res, err = m.s.HandleKey(ev.Released(), false)
	}
	if res.Outcome == dispatcher.NotFound && err == nil {
		m.setStatus(fmt.Sprintf("%s is not bound", ev.Shortcut()), false)
		return
	}
	m.report(res, err)
}

func (m *model) updatePalette(km tea.KeyMsg) {
	switch km.Type {
	case tea.KeyEsc:
		m.open = false
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown:
		if m.cursor < len(m.results)-1 {
			m.cursor++
		}
	case tea.KeyEnter:
		if m.cursor < len(m.results) {
			e := m.results[m.cursor].Entry
			res, err := m.s.Palette().Execute(e.ID, m.s.Flags())
			m.report(res, err)
		}
		m.open = false
	case tea.KeyBackspace:
		if m.query != "" {
			r := []rune(m.query)
			m.query = string(r[:len(r)-1])
			m.search()
		}
	case tea.KeySpace:
		m.query += " "
		m.search()
	case tea.KeyRunes:
		m.query += string(km.Runes)
		m.search()
	}
}

func (m *model) search() {
	m.results = m.s.Palette().Search(m.query, m.s.Flags(), paletteRows)
	m.cursor = 0
}

func (m *model) report(res dispatcher.Result, err error) {
	switch {
	case err == nil && res.Outcome == dispatcher.Invoked:
		m.setStatus(res.Record.PrefixedLabel(), false)
	case errors.Is(err, dispatcher.ErrDisallowed):
		m.setStatus(m.s.Explain(err), true)
	case err != nil:
		m.setStatus(err.Error(), true)
	default:
		m.setStatus(res.Outcome.String(), false)
	}
}

func (m *model) setStatus(text string, failed bool) {
	m.status = text
	m.failed = failed
}

func (m *model) View() string {
	var b strings.Builder

	st := m.s.project.State()
	name := st.Name
	if name == "" {
		name = "(no project)"
	}
	b.WriteString(headColor.Sprint(name))
	fmt.Fprintf(&b, "  tracks:%d  playing:%v  undo:%d  redo:%d  clipboard:%d\n\n",
		st.Tracks, st.Playing, st.Undo, st.Redo, st.Clipboard)

	if m.open {
		fmt.Fprintf(&b, ": %s\n", m.query)
		for i, r := range m.results {
			line := fmt.Sprintf("%-32s %s", r.Entry.Label, r.Entry.Shortcut)
			switch {
			case i == m.cursor:
				b.WriteString(okColor.Sprint("> " + line))
			case !r.Entry.Enabled:
				b.WriteString(dimColor.Sprint("  " + line))
			default:
				b.WriteString("  " + line)
			}
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	if m.failed {
		b.WriteString(warnColor.Sprint(m.status))
	} else {
		b.WriteString(m.status)
	}
	b.WriteString(dimColor.Sprint("\n\n: palette  ctrl+c quit\n"))
	return b.String()
}
