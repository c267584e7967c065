package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/DazzleML/ghtraf/internal/plot"
	"github.com/DazzleML/ghtraf/pkg/stats"
)

const renderDirPerm = 0o750

// NewRenderCommand creates the render subcommand.
func NewRenderCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the daily ledger as HTML charts",
		Long: `Load the persisted document and render its retained daily ledger as
interactive HTML charts. Days the source can still revise draw dashed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, tr, _, err := setup(cmd)
			if err != nil {
				return err
			}

			doc, err := tr.Load(cmd.Context())
			if err != nil {
				return err
			}

			projection := stats.ProjectIncompleteDays(doc.DailyHistory, time.Now().UTC())

			if err := os.MkdirAll(output, renderDirPerm); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			path := filepath.Join(output, "traffic.html")

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			defer f.Close()

			if err := plot.RenderPage(f, doc, projection); err != nil {
				return err
			}

			color.Green("wrote %s", path)

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", ".", "output directory for HTML files")

	return cmd
}
