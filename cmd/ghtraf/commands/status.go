package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/DazzleML/ghtraf/pkg/stats"
)

// statusMetrics are the rows of the status table, in display order.
var statusMetrics = []struct {
	label  string
	metric stats.Metric
}{
	{"Clones", stats.MetricClones},
	{"Unique clones", stats.MetricUniqueClones},
	{"Organic clones", stats.MetricOrganicClones},
	{"Views", stats.MetricViews},
	{"Unique views", stats.MetricUniqueViews},
	{"CI checkouts", stats.MetricCICheckouts},
	{"Downloads", stats.MetricDownloads},
}

// NewStatusCommand creates the status subcommand.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show accumulated totals and recent activity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, tr, _, err := setup(cmd)
			if err != nil {
				return err
			}

			doc, err := tr.Load(cmd.Context())
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			summary := stats.Summarize(doc, now)
			projection := stats.ProjectIncompleteDays(doc.DailyHistory, now)

			color.Cyan("%s — tracking since %s", cfg.Repo.FullName(), doc.TrackingStart)
			fmt.Fprintf(os.Stdout, "stars %s · forks %s · open issues %s\n\n",
				humanize.Comma(int64(doc.Stars)),
				humanize.Comma(int64(doc.Forks)),
				humanize.Comma(int64(doc.OpenIssues)),
			)

			printSummaryTable(summary)

			if len(projection.Provisional) > 0 {
				color.Yellow("\nprovisional: %v (still revisable by the source)", projection.Provisional)
			}

			printReferrers(doc)

			return nil
		},
	}
}

func printSummaryTable(summary stats.Summary) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(os.Stdout)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Metric", "All Time", "24h", "7d", "30d"})

	for _, row := range statusMetrics {
		tbl.AppendRow(table.Row{
			row.label,
			humanize.Comma(int64(summary.Totals[row.metric])),
			summary.Last24h[row.metric],
			summary.Last7d[row.metric],
			summary.Last30d[row.metric],
		})
	}

	tbl.Render()
}

func printReferrers(doc *stats.Document) {
	if len(doc.Referrers) == 0 {
		return
	}

	fmt.Fprintln(os.Stdout)
	color.Cyan("top referrers")

	tbl := table.NewWriter()
	tbl.SetOutputMirror(os.Stdout)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Referrer", "Views", "Unique"})

	for _, ref := range doc.Referrers {
		tbl.AppendRow(table.Row{ref.Referrer, ref.Count, ref.Uniques})
	}

	tbl.Render()
}
