package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/arbor-browser/arbor/internal/cli/model"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Open the interactive forest inspector",
	Long: `Open a terminal UI over the tab forest.

Fold and unfold branches, move subtrees, close a tab with its children
(with undo), and search across titles and urls.`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(_ *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	m := model.NewInspectorModel(app.Context(), app.Engine, app.Theme)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("inspector: %w", err)
	}
	return nil
}
