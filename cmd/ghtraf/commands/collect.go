package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/DazzleML/ghtraf/internal/tracker"
	"github.com/DazzleML/ghtraf/pkg/stats"
)

// NewCollectCommand creates the collect subcommand.
func NewCollectCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run one collection pass against the tracked repository",
		Long: `Fetch the current traffic snapshot and CI activity, merge them into
the accumulation document, regenerate badges, and persist everything
back to the gist. With --dry-run the full pass executes but nothing is
written; the state diff is printed instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, tr, _, err := setup(cmd)
			if err != nil {
				return err
			}

			result, err := tr.Run(cmd.Context(), tracker.RunOptions{DryRun: dryRun})
			if err != nil {
				return err
			}

			printRunReport(result, dryRun)

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "reconcile without writing state")

	return cmd
}

func printRunReport(result *tracker.RunResult, dryRun bool) {
	if dryRun {
		color.Yellow("dry run: nothing was written")

		if result.Diff != "" {
			fmt.Fprintln(os.Stdout)
			fmt.Fprint(os.Stdout, result.Diff)
		}
	}

	if len(result.Report.Deltas) == 0 {
		color.Green("no new activity (run %s)", result.Report.RunID)
	} else {
		color.Green("applied %d metric deltas (run %s)", len(result.Report.Deltas), result.Report.RunID)
	}

	if len(result.Report.Repairs) > 0 {
		color.Red("integrity repairs applied: %v", result.Report.Repairs)
	}

	if result.Report.MigratedFrom > 0 {
		color.Yellow("document migrated from schema v%d", result.Report.MigratedFrom)
	}

	for _, month := range result.ArchivedMonths {
		color.Cyan("archived month %s", month)
	}

	fmt.Fprintln(os.Stdout)
	printDeltaTable(result)
}

func printDeltaTable(result *tracker.RunResult) {
	metrics := make([]stats.Metric, 0, len(result.Document.Totals))
	for m := range result.Document.Totals {
		metrics = append(metrics, m)
	}

	sort.Slice(metrics, func(i, j int) bool { return metrics[i] < metrics[j] })

	tbl := table.NewWriter()
	tbl.SetOutputMirror(os.Stdout)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Metric", "Total", "This Run"})

	for _, m := range metrics {
		tbl.AppendRow(table.Row{string(m), result.Document.Totals[m], result.Report.Deltas[m]})
	}

	tbl.Render()
}
