package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arbor-browser/arbor/internal/domain/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "arbor %s\n", buildInfo.Version)
		fmt.Fprintf(out, "  commit:     %s\n", buildInfo.Commit)
		fmt.Fprintf(out, "  built:      %s\n", buildInfo.BuildDate)
		fmt.Fprintf(out, "  go version: %s\n", buildInfo.GoVersion)
		fmt.Fprintf(out, "  repository: %s\n", build.RepoURL())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
