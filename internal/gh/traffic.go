package gh

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DazzleML/ghtraf/internal/schema"
	"github.com/DazzleML/ghtraf/pkg/stats"
)

// trafficDay is one day of the traffic API response.
type trafficDay struct {
	Timestamp string `json:"timestamp"`
	Count     int    `json:"count"`
	Uniques   int    `json:"uniques"`
}

// trafficResponse is the shape of /traffic/clones and /traffic/views.
type trafficResponse struct {
	Count   int          `json:"count"`
	Uniques int          `json:"uniques"`
	Clones  []trafficDay `json:"clones"`
	Views   []trafficDay `json:"views"`
}

// FetchSnapshot reads the clone and view traffic for owner/repo and
// assembles the rolling-window snapshot the engine merges. Each payload
// is schema-validated before use; a malformed payload is fatal for the
// run. The API reports per-day uniques for every listed day, so every
// observation carries a non-nil unique count (including explicit
// zeros).
func (c *Client) FetchSnapshot(ctx context.Context, owner, repo string) (stats.Snapshot, error) {
	snapshot := make(stats.Snapshot, 2)

	clones, err := c.fetchTrafficMetric(ctx, owner, repo, "clones")
	if err != nil {
		return nil, err
	}

	views, err := c.fetchTrafficMetric(ctx, owner, repo, "views")
	if err != nil {
		return nil, err
	}

	snapshot[stats.MetricClones] = clones
	snapshot[stats.MetricViews] = views

	return snapshot, nil
}

func (c *Client) fetchTrafficMetric(ctx context.Context, owner, repo, metric string) (map[stats.Date]stats.Observation, error) {
	path := fmt.Sprintf("/repos/%s/%s/traffic/%s?per=day", owner, repo, metric)

	payload, err := c.get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fetch %s traffic: %w", metric, err)
	}

	if err := schema.ValidateTraffic(payload); err != nil {
		return nil, fmt.Errorf("fetch %s traffic: %w", metric, err)
	}

	var resp trafficResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("decode %s traffic: %w", metric, err)
	}

	days := resp.Clones
	if metric == "views" {
		days = resp.Views
	}

	observations := make(map[stats.Date]stats.Observation, len(days))

	for _, day := range days {
		date, err := timestampDate(day.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("decode %s traffic: %w", metric, err)
		}

		uniques := day.Uniques
		observations[date] = stats.Observation{Count: day.Count, Uniques: &uniques}
	}

	return observations, nil
}

// timestampDate extracts the calendar date from an RFC 3339 timestamp.
func timestampDate(timestamp string) (stats.Date, error) {
	if len(timestamp) < 10 {
		return "", fmt.Errorf("timestamp %q too short: %w", timestamp, ErrAPIStatus)
	}

	return stats.ParseDate(timestamp[:10])
}

// Referrer mirrors one entry of /traffic/popular/referrers.
type referrerEntry struct {
	Referrer string `json:"referrer"`
	Count    int    `json:"count"`
	Uniques  int    `json:"uniques"`
}

// pathEntry mirrors one entry of /traffic/popular/paths.
type pathEntry struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Count   int    `json:"count"`
	Uniques int    `json:"uniques"`
}

// FetchReferrers reads the current top-referrers list.
func (c *Client) FetchReferrers(ctx context.Context, owner, repo string) ([]stats.Referrer, error) {
	payload, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/traffic/popular/referrers", owner, repo))
	if err != nil {
		return nil, fmt.Errorf("fetch referrers: %w", err)
	}

	var entries []referrerEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, fmt.Errorf("decode referrers: %w", err)
	}

	referrers := make([]stats.Referrer, len(entries))
	for i, e := range entries {
		referrers[i] = stats.Referrer{Referrer: e.Referrer, Count: e.Count, Uniques: e.Uniques}
	}

	return referrers, nil
}

// FetchPopularPaths reads the current popular-paths list.
func (c *Client) FetchPopularPaths(ctx context.Context, owner, repo string) ([]stats.PopularPath, error) {
	payload, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/traffic/popular/paths", owner, repo))
	if err != nil {
		return nil, fmt.Errorf("fetch popular paths: %w", err)
	}

	var entries []pathEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, fmt.Errorf("decode popular paths: %w", err)
	}

	paths := make([]stats.PopularPath, len(entries))
	for i, e := range entries {
		paths[i] = stats.PopularPath{Path: e.Path, Title: e.Title, Count: e.Count, Uniques: e.Uniques}
	}

	return paths, nil
}
