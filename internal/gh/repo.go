package gh

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DazzleML/ghtraf/pkg/stats"
)

// RepoInfo is the subset of repository metadata the tracker captures.
type RepoInfo struct {
	FullName   string
	Created    stats.Date
	Stars      int
	Forks      int
	OpenIssues int
}

// FetchRepoInfo reads repository metadata. The creation date gates
// pre-origin snapshot noise; it must be available before the first run
// can create a document.
func (c *Client) FetchRepoInfo(ctx context.Context, owner, repo string) (*RepoInfo, error) {
	payload, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s", owner, repo))
	if err != nil {
		return nil, fmt.Errorf("fetch repo metadata: %w", err)
	}

	var resp struct {
		FullName   string `json:"full_name"`
		CreatedAt  string `json:"created_at"`
		Stars      int    `json:"stargazers_count"`
		Forks      int    `json:"forks_count"`
		OpenIssues int    `json:"open_issues_count"`
	}

	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("decode repo metadata: %w", err)
	}

	created, err := timestampDate(resp.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("repo metadata: %w", err)
	}

	return &RepoInfo{
		FullName:   resp.FullName,
		Created:    created,
		Stars:      resp.Stars,
		Forks:      resp.Forks,
		OpenIssues: resp.OpenIssues,
	}, nil
}

// FetchDownloadTotal sums the lifetime download counts across every
// release asset. The releases API reports lifetime totals, so the
// caller diffs against the previously persisted total.
func (c *Client) FetchDownloadTotal(ctx context.Context, owner, repo string) (int, error) {
	payload, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/releases?per_page=100", owner, repo))
	if err != nil {
		return 0, fmt.Errorf("fetch releases: %w", err)
	}

	var releases []struct {
		Assets []struct {
			DownloadCount int `json:"download_count"`
		} `json:"assets"`
	}

	if err := json.Unmarshal(payload, &releases); err != nil {
		return 0, fmt.Errorf("decode releases: %w", err)
	}

	total := 0
	for _, release := range releases {
		for _, asset := range release.Assets {
			total += asset.DownloadCount
		}
	}

	return total, nil
}
