// Command cmdmgr inspects and drives a command registry from the shell.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/cmdmgr/internal/app"
	"github.com/dshills/cmdmgr/internal/config"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

// globals holds the persistent flags.
type globals struct {
	configPath string
	logLevel   string
	noColor    bool

	// metrics forces dispatch statistics on.
	metrics bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "cmdmgr",
		Short:         "Inspect, bind and invoke registered commands",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.noColor {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "path to configuration file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newListCmd(g),
		newMenuCmd(g),
		newRunCmd(g),
		newScriptCmd(g),
		newCheckCmd(g),
		newKeysCmd(g),
		newConfigCmd(g),
		newInteractiveCmd(g),
	)
	return root
}

// session is an App over the stock command set and its project.
type session struct {
	*app.App
	project *app.Project
}

// loadConfig reads the configuration and applies flag overrides.
func (g *globals) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// open builds a session. Watching is left to the interactive command.
func (g *globals) open(cmd *cobra.Command, watch bool) (*session, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	cfg.Bindings.Watch = cfg.Bindings.Watch && watch
	cfg.Dispatch.Metrics = cfg.Dispatch.Metrics || g.metrics

	p := app.NewProject()
	a, err := app.New(app.Options{
		Config:       cfg,
		Builder:      app.DefaultCommands(p),
		FlagSource:   p.Flags,
		FlagNames:    app.DefaultFlagNames(),
		ScriptOutput: cmd.OutOrStdout(),
	})
	if err != nil {
		return nil, err
	}
	return &session{App: a, project: p}, nil
}
