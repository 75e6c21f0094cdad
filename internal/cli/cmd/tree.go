package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the tab forest",
	Long:  `Print the tracked forest once, window by window, and exit.`,
	RunE:  runTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	out := cmd.OutOrStdout()
	for _, windowID := range app.Engine.WindowIDs() {
		header := fmt.Sprintf("window %d", windowID)
		if windowID == app.Engine.FocusedWindow() {
			header += " (focused)"
		}
		fmt.Fprintln(out, app.Theme.Title.Render(header))

		tabs := app.Engine.TabsInWindow(windowID)
		for i, node := range tabs {
			hasChildren := i+1 < len(tabs) && tabs[i+1].Depth > node.Depth
			fmt.Fprintln(out, app.Theme.RenderNodeLine(node, hasChildren, false, nil))
		}
	}
	return nil
}
