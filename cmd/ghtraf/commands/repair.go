package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewRepairCommand creates the repair subcommand.
func NewRepairCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Recompute totals from the ledger, forward-only",
		Long: `Compare every permanent total against the sum of its own retained
ledger and raise any total that fell below it. Totals are never
reduced. With --dry-run the corrections are printed but not written.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, tr, _, err := setup(cmd)
			if err != nil {
				return err
			}

			repairs, _, err := tr.RepairTotals(cmd.Context(), dryRun)
			if err != nil {
				return err
			}

			if len(repairs) == 0 {
				color.Green("totals are consistent with the ledger")

				return nil
			}

			for metric, amount := range repairs {
				color.Yellow("%s raised by %d", metric, amount)
			}

			if dryRun {
				color.Yellow("dry run: corrections were not written")
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report corrections without writing")

	cmd.AddCommand(newScrubCommand())

	return cmd
}

// newScrubCommand creates the repair scrub subcommand. Dry-run is the
// default; --write applies the corrections.
func newScrubCommand() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "scrub",
		Short: "Clear false-zero ledger values",
		Long: `Find ledger days whose unique-actor count is a recorded zero despite
raw activity, and organic estimates with no unique count behind them.
Both are artifacts of data expiring out of the source window; the
values revert to unknown so charts and badges stop rendering false
zeros. Prints the affected dates; pass --write to apply.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, tr, _, err := setup(cmd)
			if err != nil {
				return err
			}

			report, err := tr.ScrubLedger(cmd.Context(), !write)
			if err != nil {
				return err
			}

			if report.Empty() {
				color.Green("ledger is clean")

				return nil
			}

			for _, date := range report.ExpiredUniques {
				color.Yellow("%s: expired unique count cleared", date)
			}

			for _, date := range report.FalseOrganicZeros {
				color.Yellow("%s: unfounded organic estimate cleared", date)
			}

			if !write {
				color.Yellow("dry run: pass --write to apply")
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "apply the corrections")

	return cmd
}
