package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/cmdmgr/internal/binding"
)

func newKeysCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Export, import and edit key bindings",
	}
	cmd.AddCommand(
		newKeysExportCmd(g),
		newKeysImportCmd(g),
		newKeysSetCmd(g),
		newKeysResetCmd(g),
	)
	return cmd
}

func newKeysExportCmd(g *globals) *cobra.Command {
	var format, policy, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the current bindings as a document",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			f, err := exportFormat(s, format, output)
			if err != nil {
				return err
			}
			codec, err := binding.NewCodec(f)
			if err != nil {
				return err
			}
			p := s.Config().BindingsPolicy()
			if policy != "" {
				if p, err = binding.ParsePolicy(policy); err != nil {
					return err
				}
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}
			n, err := binding.Save(w, codec, s.Registry(), p)
			if err != nil {
				return err
			}
			if output != "" {
				okColor.Fprintf(cmd.ErrOrStderr(), "wrote %d bindings to %s\n", n, output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "document format (xml, yaml, toml)")
	cmd.Flags().StringVar(&policy, "policy", "", "which bindings to write (customized, all)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

// exportFormat picks the explicit format, then the output extension, then
// the configured format, then YAML.
func exportFormat(s *session, format, output string) (binding.Format, error) {
	if format != "" {
		return binding.ParseFormat(format)
	}
	if output != "" {
		if f, err := binding.FormatFromPath(output); err == nil {
			return f, nil
		}
	}
	if f, err := s.Config().BindingsFormat(); err == nil {
		return f, nil
	}
	return binding.FormatYAML, nil
}

func newKeysImportCmd(g *globals) *cobra.Command {
	var format string
	var save bool
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Apply a bindings document on top of the current bindings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			path := args[0]
			var f binding.Format
			if format != "" {
				f, err = binding.ParseFormat(format)
			} else {
				f, err = binding.FormatFromPath(path)
			}
			if err != nil {
				return err
			}
			codec, err := binding.NewCodec(f)
			if err != nil {
				return err
			}

			file, err := os.Open(path)
			if err != nil {
				return err
			}
			rep, err := binding.Load(file, codec, s.Registry())
			file.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			printReport(cmd.OutOrStdout(), rep)

			if save {
				n, err := s.SaveBindings(cmd.Context())
				if err != nil {
					return err
				}
				okColor.Fprintf(cmd.OutOrStdout(), "saved %d bindings to %s\n", n, s.BindingsStore().Path())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "document format; defaults to the file extension")
	cmd.Flags().BoolVar(&save, "save", false, "persist the result to the configured bindings file")
	return cmd
}

func newKeysSetCmd(g *globals) *cobra.Command {
	var index int
	cmd := &cobra.Command{
		Use:   "set NAME [KEY]",
		Short: "Bind KEY to a command, or unbind it when KEY is omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			var k string
			if len(args) == 2 {
				k = args[1]
			}
			if err := s.Registry().SetMemberKey(args[0], index, k); err != nil {
				return err
			}
			if _, err := s.SaveBindings(cmd.Context()); err != nil {
				return err
			}
			rec, _ := s.Registry().FindMember(args[0], index)
			if rec.Key == "" {
				okColor.Fprintf(cmd.OutOrStdout(), "%s unbound\n", rec.Name)
			} else {
				okColor.Fprintf(cmd.OutOrStdout(), "%s bound to %s\n", rec.Name, rec.Key)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&index, "index", "i", 0, "member of a multi-item group")
	return cmd
}

func newKeysResetCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore every default key and save",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			s.Registry().ResetAllKeys()
			n, err := s.SaveBindings(cmd.Context())
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "defaults restored; %d customized bindings saved\n", n)
			return nil
		},
	}
}

func printReport(w io.Writer, rep binding.Report) {
	okColor.Fprintf(w, "applied %d\n", rep.Applied)
	if rep.Skipped > 0 {
		warnColor.Fprintf(w, "skipped %d unknown: %v\n", rep.Skipped, rep.Unknown)
	}
	for _, p := range rep.Problems {
		errColor.Fprintf(w, "malformed: %v\n", p)
	}
}
