package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/cmdmgr/internal/command"
	"github.com/dshills/cmdmgr/internal/dispatcher"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
	dimColor  = color.New(color.Faint)
	headColor = color.New(color.Bold)
)

func newListCmd(g *globals) *cobra.Command {
	var opts command.ListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered commands with their shortcuts",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			headColor.Fprintln(w, "NAME\tKEY\tLABEL\tCATEGORY\tSTATE")
			for _, rec := range s.Registry().Entries(opts) {
				name := rec.Name
				if rec.Multi {
					name = fmt.Sprintf("%s[%d]", rec.Name, rec.Index)
				}
				keyText := rec.Key
				if keyText != rec.DefaultKey {
					keyText = warnColor.Sprint(keyText + "*")
				}
				state := okColor.Sprint("enabled")
				if !dispatcher.Allowed(rec, s.Flags()) {
					state = dimColor.Sprint("disabled")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", name, keyText, rec.PrefixedLabel(), rec.Category(), state)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&opts.IncludeMultis, "all", false, "include every member of multi-item groups")
	cmd.Flags().BoolVar(&opts.IncludeHidden, "hidden", false, "include hidden key-only commands")
	return cmd
}

func newMenuCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Print the menu structure",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			depth := 0
			for _, e := range s.Registry().Menu() {
				indent := strings.Repeat("  ", depth)
				switch e.Kind {
				case command.MenuBegin, command.SubMenuBegin:
					headColor.Fprintf(out, "%s%s\n", indent, e.Label)
					depth++
				case command.MenuEnd, command.SubMenuEnd:
					depth--
				case command.MenuSeparator:
					dimColor.Fprintf(out, "%s----\n", indent)
				case command.MenuItem:
					mark := "  "
					if e.Checkable && e.Checked {
						mark = "✓ "
					}
					line := fmt.Sprintf("%s%s%s", indent, mark, e.Label)
					if e.Key != "" {
						line += "\t" + e.Key
					}
					if e.Enabled {
						fmt.Fprintln(out, line)
					} else {
						dimColor.Fprintln(out, line)
					}
				}
			}
			return nil
		},
	}
}

func newRunCmd(g *globals) *cobra.Command {
	var keepGoing bool
	cmd := &cobra.Command{
		Use:   "run NAME...",
		Short: "Invoke commands in order against a fresh project",
		Example: `  cmdmgr run Open SelectAll Copy Play
  cmdmgr run --keep-going Play Open Play`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			var failed int
			for _, name := range args {
				res, err := s.Invoke(name)
				switch {
				case err == nil:
					okColor.Fprintf(out, "✓ %s (%s)\n", name, res.Duration)
				case errors.Is(err, dispatcher.ErrDisallowed):
					warnColor.Fprintf(out, "✗ %s\n", s.Explain(err))
					failed++
				default:
					errColor.Fprintf(out, "✗ %s: %v\n", name, err)
					failed++
				}
				if err != nil && !keepGoing {
					break
				}
			}

			st := s.project.State()
			dimColor.Fprintf(out, "project=%q tracks=%d playing=%v undo=%d\n", st.Name, st.Tracks, st.Playing, st.Undo)
			if m := s.Dispatcher().Metrics(); m != nil {
				printMetrics(out, m)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d commands failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&keepGoing, "keep-going", "k", false, "continue after a refused or failed command")
	cmd.Flags().BoolVar(&g.metrics, "stats", false, "print dispatch statistics")
	return cmd
}

func printMetrics(out io.Writer, m *dispatcher.Metrics) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	headColor.Fprintln(w, "COMMAND\tINVOKED\tREFUSED\tERRORS\tAVG")
	for _, cm := range m.TopCommands(10) {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", cm.Name, cm.InvokeCount, cm.DisallowedCount, cm.ErrorCount, cm.AverageDuration())
	}
	w.Flush()
}

func newScriptCmd(g *globals) *cobra.Command {
	var expr string
	cmd := &cobra.Command{
		Use:   "script [FILE]",
		Short: "Run a Lua script with the cmd module",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if expr == "" && len(args) == 0 {
				return errors.New("a script file or --eval is required")
			}
			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if expr != "" {
				if err := s.RunScriptString(ctx, expr); err != nil {
					return err
				}
			}
			if len(args) == 1 {
				return s.RunScript(ctx, args[0])
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&expr, "eval", "e", "", "Lua code to run before FILE")
	return cmd
}

func newCheckCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report default-key collisions and bindings file problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			problems := 0
			for _, d := range s.Registry().CheckDuplicates() {
				warnColor.Fprintf(out, "duplicate default key %s: %s\n", d.Key, strings.Join(d.Names, ", "))
				problems++
			}

			if store := s.BindingsStore(); store != nil {
				doc, err := store.Read(cmd.Context())
				switch {
				case errors.Is(err, os.ErrNotExist):
					dimColor.Fprintf(out, "%s does not exist yet\n", store.Path())
				case err != nil:
					errColor.Fprintf(out, "%s: %v\n", store.Path(), err)
					problems++
				default:
					for _, p := range doc.Problems {
						errColor.Fprintf(out, "%s: %v\n", store.Path(), p)
						problems++
					}
					for _, b := range doc.Bindings {
						if _, ok := s.Registry().FindMember(b.Name, b.Index); !ok {
							warnColor.Fprintf(out, "%s: unknown command %s\n", store.Path(), b.Name)
							problems++
						}
					}
				}
			}

			if problems > 0 {
				return fmt.Errorf("%d problems found", problems)
			}
			okColor.Fprintf(out, "no problems in %d commands\n", s.Registry().Len())
			return nil
		},
	}
}

func newConfigCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			dimColor.Fprintf(cmd.OutOrStdout(), "# %s\n", cfg.Path())
			return cfg.Write(cmd.OutOrStdout())
		},
	}
}
