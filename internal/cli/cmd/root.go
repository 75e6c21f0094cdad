// Package cmd provides Cobra CLI commands for arbor.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arbor-browser/arbor/internal/cli"
	"github.com/arbor-browser/arbor/internal/domain/build"
)

var (
	app       *cli.App
	buildInfo build.Info
	demoMode  bool

	rootCmd = &cobra.Command{
		Use:   "arbor",
		Short: "Tree-style tab engine for browsers",
		Long: `Arbor - a tree-style tab engine.

Arbor tracks browser tabs as a forest: tabs opened from another tab become
its children, and the tree supports cycle-safe reparenting, recursive close
with a time-boxed undo, ranked search, and reconciliation against the host
browser.

Use 'arbor inspect' for the interactive forest inspector, or explore the
subcommands for one-shot operations like printing the tree and searching it.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip initialization for commands that don't need app context
			switch cmd.Name() {
			case "help", "completion", "version", "schema", "path":
				return nil
			}

			var err error
			app, err = cli.NewApp(demoMode)
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}
			app.BuildInfo = buildInfo
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if app != nil {
				_ = app.Close()
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&demoMode, "demo", false, "seed a sample browsing session instead of an empty host")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GetApp returns the initialized app (for use by subcommands).
func GetApp() *cli.App {
	return app
}

// SetBuildInfo sets the build information (called from main before Execute).
func SetBuildInfo(info build.Info) {
	buildInfo = info
}
