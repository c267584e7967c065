package gh

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DazzleML/ghtraf/pkg/stats"
)

// workflowRunsPageSize caps a single runs listing. One page of recent
// runs comfortably covers a day of CI activity on the repos this tool
// tracks; pagination walks further back when a run from the requested
// window falls off the first page.
const workflowRunsPageSize = 100

// FetchAutomatedActivity buckets completed workflow runs by their UTC
// creation date and reports, per date, how many runs finished and how
// many jobs (each of which checks the repository out) they spawned.
// Only dates on or after since are collected; the listing stops as soon
// as it pages past that horizon.
func (c *Client) FetchAutomatedActivity(ctx context.Context, owner, repo string, since stats.Date) (stats.AutomatedActivity, error) {
	activity := make(stats.AutomatedActivity)

	for page := 1; ; page++ {
		runs, older, err := c.fetchWorkflowRunPage(ctx, owner, repo, since, page)
		if err != nil {
			return nil, err
		}

		for _, run := range runs {
			day := activity[run.date]
			day.Runs++
			day.Checkouts += run.jobs
			activity[run.date] = day
		}

		if older || len(runs) < workflowRunsPageSize {
			return activity, nil
		}
	}
}

type workflowRun struct {
	date stats.Date
	jobs int
}

// fetchWorkflowRunPage returns the completed runs on one listing page
// that fall inside the window, and whether the page reached dates older
// than the window.
func (c *Client) fetchWorkflowRunPage(ctx context.Context, owner, repo string, since stats.Date, page int) ([]workflowRun, bool, error) {
	path := fmt.Sprintf("/repos/%s/%s/actions/runs?status=completed&per_page=%d&page=%d",
		owner, repo, workflowRunsPageSize, page)

	payload, err := c.get(ctx, path)
	if err != nil {
		return nil, false, fmt.Errorf("fetch workflow runs: %w", err)
	}

	var resp struct {
		WorkflowRuns []struct {
			ID        int64  `json:"id"`
			CreatedAt string `json:"created_at"`
			JobsURL   string `json:"jobs_url"`
		} `json:"workflow_runs"`
	}

	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, false, fmt.Errorf("decode workflow runs: %w", err)
	}

	runs := make([]workflowRun, 0, len(resp.WorkflowRuns))
	older := false

	for _, run := range resp.WorkflowRuns {
		date, err := timestampDate(run.CreatedAt)
		if err != nil {
			return nil, false, fmt.Errorf("workflow run %d: %w", run.ID, err)
		}

		if date.Before(since) {
			older = true
			continue
		}

		jobs, err := c.fetchRunJobCount(ctx, owner, repo, run.ID)
		if err != nil {
			return nil, false, err
		}

		runs = append(runs, workflowRun{date: date, jobs: jobs})
	}

	return runs, older, nil
}

func (c *Client) fetchRunJobCount(ctx context.Context, owner, repo string, runID int64) (int, error) {
	path := fmt.Sprintf("/repos/%s/%s/actions/runs/%d/jobs?per_page=1", owner, repo, runID)

	payload, err := c.get(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("fetch jobs for run %d: %w", runID, err)
	}

	var resp struct {
		TotalCount int `json:"total_count"`
	}

	if err := json.Unmarshal(payload, &resp); err != nil {
		return 0, fmt.Errorf("decode jobs for run %d: %w", runID, err)
	}

	return resp.TotalCount, nil
}
