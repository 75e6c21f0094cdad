package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arbor-browser/arbor/internal/app/tabtree"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the forest by title and url",
	Long: `Rank tracked tabs against a case-insensitive substring query.

Title matches weigh more than url matches; a tab matching on both fields
accumulates both weights.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	results := app.Engine.Search(args[0])
	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, app.Theme.Subtle.Render("no matches"))
		return nil
	}

	for _, result := range results {
		node, ok := app.Engine.FindByID(result.NodeID)
		if !ok {
			continue
		}
		fmt.Fprintf(out, "%s %s\n",
			app.Theme.Badge.Render(fmt.Sprintf("%2d", result.Score)),
			app.Theme.RenderNodeLine(node, false, false, result.Matches))
		for _, match := range result.Matches {
			if match.Field == tabtree.MatchURL {
				fmt.Fprintf(out, "     %s\n", app.Theme.Subtle.Render(node.URL))
			}
		}
	}
	return nil
}
