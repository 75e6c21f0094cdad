package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Rebuild the forest from the host",
	Long: `Discard the local forest and rebuild it from the host's tab list.

This is the destructive correction path: any drift accumulated by optimistic
local edits is resolved in the host's favor. Collapse state is re-applied to
surviving tabs.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	if err := app.Engine.SyncAllTabs(app.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "synced %d tabs across %d windows\n",
		len(app.Engine.Flatten()), len(app.Engine.WindowIDs()))
	return nil
}
