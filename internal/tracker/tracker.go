// Package tracker orchestrates one collection run: fetch the upstream
// snapshot and CI activity, reconcile them into the persisted
// document, regenerate badge endpoints, archive completed months, and
// write everything back to the gist in a single revision.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DazzleML/ghtraf/internal/archive"
	"github.com/DazzleML/ghtraf/internal/config"
	"github.com/DazzleML/ghtraf/internal/diffview"
	"github.com/DazzleML/ghtraf/internal/gh"
	"github.com/DazzleML/ghtraf/internal/schema"
	"github.com/DazzleML/ghtraf/pkg/badge"
	"github.com/DazzleML/ghtraf/pkg/persist"
	"github.com/DazzleML/ghtraf/pkg/stats"
)

// Client is the slice of the GitHub API the tracker consumes.
// Satisfied by *gh.Client; tests substitute a fake.
type Client interface {
	FetchGistFile(ctx context.Context, gistID, name string) ([]byte, error)
	UpdateGist(ctx context.Context, gistID string, files map[string][]byte) error
	CreateGist(ctx context.Context, description string, files map[string][]byte) (string, error)
	FetchSnapshot(ctx context.Context, owner, repo string) (stats.Snapshot, error)
	FetchAutomatedActivity(ctx context.Context, owner, repo string, since stats.Date) (stats.AutomatedActivity, error)
	FetchRepoInfo(ctx context.Context, owner, repo string) (*gh.RepoInfo, error)
	FetchDownloadTotal(ctx context.Context, owner, repo string) (int, error)
	FetchReferrers(ctx context.Context, owner, repo string) ([]stats.Referrer, error)
	FetchPopularPaths(ctx context.Context, owner, repo string) ([]stats.PopularPath, error)
}

// badgeFiles maps accumulated totals to the endpoint files the gist
// serves for shields.io.
var badgeFiles = []struct {
	file   string
	label  string
	metric stats.Metric
}{
	{"clones.json", "clones", stats.MetricClones},
	{"unique-clones.json", "unique clones", stats.MetricUniqueClones},
	{"views.json", "views", stats.MetricViews},
	{"unique-views.json", "unique views", stats.MetricUniqueViews},
	{"organic-clones.json", "organic clones", stats.MetricOrganicClones},
	{"downloads.json", "downloads", stats.MetricDownloads},
}

// Tracker runs collection passes for one configured repository.
type Tracker struct {
	cfg    *config.Config
	client Client
	logger *slog.Logger
}

// New creates a tracker.
func New(cfg *config.Config, client Client, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Tracker{cfg: cfg, client: client, logger: logger}
}

// RunOptions tunes a single collection pass.
type RunOptions struct {
	// Now is the evaluation instant; zero means time.Now. Dates are
	// derived in UTC to match the source's day bucketing.
	Now time.Time

	// DryRun reconciles and reports but writes nothing back.
	DryRun bool
}

// RunResult is what one collection pass produced.
type RunResult struct {
	Document *stats.Document
	Report   *stats.Report
	Summary  stats.Summary

	// Diff is the state change a dry run would have written.
	Diff string

	// ArchivedMonths lists rollups uploaded this run.
	ArchivedMonths []archive.Month
}

// Run executes one collection pass.
func (t *Tracker) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	now = now.UTC()
	today := stats.DateOf(now)

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

	owner, repo := t.cfg.Repo.Owner, t.cfg.Repo.Name

	info, err := t.client.FetchRepoInfo(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	snapshot, err := t.client.FetchSnapshot(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	windowStart := today.AddDays(1 - t.cfg.Engine.WindowDays)

	automated, err := t.client.FetchAutomatedActivity(ctx, owner, repo, windowStart)
	if err != nil {
		return nil, err
	}

	engineOpts := stats.Options{
		Today:      today,
		WindowDays: t.cfg.Engine.WindowDays,
		RetainDays: t.cfg.Engine.RetainDays,
		Logger:     t.logger,
	}

	next, report, err := stats.Reconcile(&doc, snapshot, automated, engineOpts)
	if err != nil {
		return nil, err
	}

	if err := t.refreshExtras(ctx, next, info, report, today, now); err != nil {
		return nil, err
	}

	files, err := renderFiles(next)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		Document: next,
		Report:   report,
		Summary:  stats.Summarize(next, now),
	}

	if opts.DryRun {
		result.Diff = diffview.StateDiff(string(raw), string(files[gh.StateFileName]))

		t.logger.Info("dry run complete, no state written", "runId", report.RunID)

		return result, nil
	}

	archived, err := t.archiveCompletedMonths(ctx, next, report.Pruned, today)
	if err != nil {
		return nil, err
	}

	result.ArchivedMonths = archived

	if err := t.client.UpdateGist(ctx, t.cfg.Gists.State, files); err != nil {
		return nil, fmt.Errorf("persist state: %w", err)
	}

	t.backupState(next)

	t.logger.Info("collection run complete",
		"runId", report.RunID,
		"deltas", report.Deltas,
		"repairs", report.Repairs,
	)

	return result, nil
}

// backupState keeps a compressed local copy of the document just
// written. The gist keeps its own revision history, so a failed backup
// only warns.
func (t *Tracker) backupState(doc *stats.Document) {
	if t.cfg.Backup.Dir == "" {
		return
	}

	p := persist.NewPersister[stats.Document]("state-backup", persist.NewLZ4Codec())

	if err := p.Save(t.cfg.Backup.Dir, doc); err != nil {
		t.logger.Warn("state backup failed", "dir", t.cfg.Backup.Dir, "error", err)
	}
}

// refreshExtras folds in everything outside the core counter engine:
// repository gauges, display caches, and release downloads.
func (t *Tracker) refreshExtras(ctx context.Context, doc *stats.Document, info *gh.RepoInfo, report *stats.Report, today stats.Date, now time.Time) error {
	owner, repo := t.cfg.Repo.Owner, t.cfg.Repo.Name

	doc.Stars = info.Stars
	doc.Forks = info.Forks
	doc.OpenIssues = info.OpenIssues

	if doc.SubjectCreated == "" {
		doc.SubjectCreated = info.Created
	}

	// Stamp today's ledger entry with the gauges as captured today, so
	// the archive preserves their history even though the document
	// top-level only keeps the latest values.
	if rec := doc.Record(today); rec != nil {
		stars, forks, issues := info.Stars, info.Forks, info.OpenIssues
		rec.Stars = &stars
		rec.Forks = &forks
		rec.OpenIssues = &issues
		rec.CapturedAt = now.Format(time.RFC3339)
	}

	referrers, err := t.client.FetchReferrers(ctx, owner, repo)
	if err != nil {
		return err
	}

	paths, err := t.client.FetchPopularPaths(ctx, owner, repo)
	if err != nil {
		return err
	}

	doc.Referrers = referrers
	doc.PopularPaths = paths

	downloads, err := t.client.FetchDownloadTotal(ctx, owner, repo)
	if err != nil {
		return err
	}

	if delta := doc.ApplyDownloadTotal(downloads); delta > 0 {
		report.Deltas[stats.MetricDownloads] += delta
	}

	return nil
}

// archiveCompletedMonths uploads a rollup for every fully covered past
// month that the archive gist does not already hold. Rollups include
// the entries this run's retention prune dropped, so a month is still
// whole on the run that trims its first days. Rollups are write-once:
// an existing file is never overwritten, because later runs may have
// pruned part of the month. Only a confirmed-absent file is uploaded;
// a transient lookup failure aborts the run rather than risk clobbering
// a complete rollup with a truncated one.
func (t *Tracker) archiveCompletedMonths(ctx context.Context, doc *stats.Document, pruned []stats.DailyRecord, today stats.Date) ([]archive.Month, error) {
	if t.cfg.Gists.Archive == "" {
		return nil, nil
	}

	var archived []archive.Month

	for _, rollup := range archive.CompletedMonths(doc, pruned, today) {
		name := archive.FileName(rollup.Month)

		_, err := t.client.FetchGistFile(ctx, t.cfg.Gists.Archive, name)
		switch {
		case err == nil:
			continue
		case !errors.Is(err, gh.ErrNotFound):
			return nil, fmt.Errorf("check archive %s: %w", rollup.Month, err)
		}

		armored, err := archive.Encode(rollup)
		if err != nil {
			return nil, err
		}

		err = t.client.UpdateGist(ctx, t.cfg.Gists.Archive, map[string][]byte{
			name: []byte(armored),
		})
		if err != nil {
			return nil, fmt.Errorf("archive %s: %w", rollup.Month, err)
		}

		t.logger.Info("archived month", "month", rollup.Month, "records", len(rollup.Records))

		archived = append(archived, rollup.Month)
	}

	return archived, nil
}

// renderFiles builds the gist file set for one revision: the state
// document plus a badge endpoint per accumulated metric.
func renderFiles(doc *stats.Document) (map[string][]byte, error) {
	files := make(map[string][]byte, len(badgeFiles)+1)

	var buf bytes.Buffer
	if err := persist.NewJSONCodec().Encode(&buf, doc); err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}

	files[gh.StateFileName] = buf.Bytes()

	for _, bf := range badgeFiles {
		endpoint := badge.New(bf.label, doc.Totals[bf.metric])

		payload, err := json.Marshal(endpoint)
		if err != nil {
			return nil, fmt.Errorf("encode badge %s: %w", bf.file, err)
		}

		files[bf.file] = payload
	}

	return files, nil
}
