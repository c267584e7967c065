package tracker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DazzleML/ghtraf/internal/gh"
	"github.com/DazzleML/ghtraf/internal/schema"
	"github.com/DazzleML/ghtraf/pkg/stats"
)

// Load fetches and validates the persisted document without touching
// it. Read-only commands (status, render) start here.
func (t *Tracker) Load(ctx context.Context) (*stats.Document, error) {
	raw, err := t.client.FetchGistFile(ctx, t.cfg.Gists.State, gh.StateFileName)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	if err := schema.ValidateState(raw); err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	var doc stats.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	return &doc, nil
}

// RepairTotals runs only the migration and integrity-repair passes and
// persists the result. It exists for operator intervention after a
// known incident; a normal collection run already repairs as its final
// step.
func (t *Tracker) RepairTotals(ctx context.Context, dryRun bool) (map[stats.Metric]int, *stats.Document, error) {
	doc, err := t.Load(ctx)
	if err != nil {
		return nil, nil, err
	}

	next := doc.Clone()

	if err := stats.Migrate(next); err != nil {
		return nil, nil, err
	}

	repairs := stats.Repair(next)

	if dryRun || len(repairs) == 0 {
		return repairs, next, nil
	}

	files, err := renderFiles(next)
	if err != nil {
		return nil, nil, err
	}

	if err := t.client.UpdateGist(ctx, t.cfg.Gists.State, files); err != nil {
		return nil, nil, fmt.Errorf("persist state: %w", err)
	}

	t.logger.Info("repaired totals", "repairs", repairs)

	return repairs, next, nil
}

// ScrubLedger clears false-zero ledger values (expired unique counts,
// organic estimates without a unique basis) and persists the result.
// A dry run reports what would change without writing.
func (t *Tracker) ScrubLedger(ctx context.Context, dryRun bool) (*stats.ScrubReport, error) {
	doc, err := t.Load(ctx)
	if err != nil {
		return nil, err
	}

	next := doc.Clone()

	if err := stats.Migrate(next); err != nil {
		return nil, err
	}

	report := stats.Scrub(next)

	if dryRun || report.Empty() {
		return report, nil
	}

	files, err := renderFiles(next)
	if err != nil {
		return nil, err
	}

	if err := t.client.UpdateGist(ctx, t.cfg.Gists.State, files); err != nil {
		return nil, fmt.Errorf("persist state: %w", err)
	}

	t.logger.Info("scrubbed ledger",
		"expiredUniques", len(report.ExpiredUniques),
		"falseOrganicZeros", len(report.FalseOrganicZeros))

	return report, nil
}
