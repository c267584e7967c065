// Package main provides the entry point for the ghtraf CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DazzleML/ghtraf/cmd/ghtraf/commands"
	"github.com/DazzleML/ghtraf/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ghtraf",
		Short: "ghtraf - permanent GitHub traffic accumulation",
		Long: `ghtraf turns GitHub's 14-day rolling traffic window into permanent
totals: every run merges the current snapshot into an accumulation
document stored in a gist, alongside badge endpoints and charts.

Commands:
  collect   Run one collection pass against the tracked repository
  status    Show accumulated totals and recent activity
  render    Render the daily ledger as HTML charts
  repair    Recompute totals from the ledger, forward-only
  init      Provision gists and write the initial config
  serve     Run periodic collection with a metrics endpoint`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default: ./ghtraf.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(commands.NewCollectCommand())
	rootCmd.AddCommand(commands.NewStatusCommand())
	rootCmd.AddCommand(commands.NewRenderCommand())
	rootCmd.AddCommand(commands.NewRepairCommand())
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "ghtraf %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
