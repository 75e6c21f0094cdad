package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect persisted engine state",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the persisted collapsed set and stored settings",
	RunE:  runStateShow,
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateShowCmd)
}

func runStateShow(cmd *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	out := cmd.OutOrStdout()
	collapsed, err := app.Store.LoadCollapsed(app.Context())
	if err != nil {
		return fmt.Errorf("load collapsed set: %w", err)
	}
	if len(collapsed.IDs) == 0 {
		fmt.Fprintln(out, app.Theme.Subtle.Render("no collapsed branches persisted"))
	} else {
		fmt.Fprintf(out, "%d collapsed branches (saved %s)\n",
			len(collapsed.IDs), collapsed.SavedAt.Format("2006-01-02 15:04:05"))
		for _, id := range collapsed.IDs {
			fmt.Fprintf(out, "  %s\n", id)
		}
	}

	raw, ok, err := app.Store.LoadEngineConfig(app.Context())
	if err != nil {
		return fmt.Errorf("load stored config: %w", err)
	}
	if !ok {
		fmt.Fprintln(out, app.Theme.Subtle.Render("no last-good configuration stored"))
		return nil
	}
	fmt.Fprintln(out, "last-good configuration:")
	fmt.Fprintln(out, string(raw))
	return nil
}
