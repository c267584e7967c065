package gh

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StateFileName is the gist file holding the reconciled document.
const StateFileName = "state.json"

// ErrStateMissing reports a gist that exists but carries no state file.
var ErrStateMissing = fmt.Errorf("gist has no %s file", StateFileName)

type gistResponse struct {
	ID    string `json:"id"`
	Files map[string]struct {
		Content   string `json:"content"`
		Truncated bool   `json:"truncated"`
		RawURL    string `json:"raw_url"`
	} `json:"files"`
}

type gistFilePayload struct {
	Content string `json:"content"`
}

type gistPayload struct {
	Description string                     `json:"description,omitempty"`
	Public      bool                       `json:"public"`
	Files       map[string]gistFilePayload `json:"files"`
}

// FetchGistFile returns the content of one file in a gist. Gist
// responses inline file content up to a size cap; past it the content
// is truncated and must be fetched from the raw URL instead.
func (c *Client) FetchGistFile(ctx context.Context, gistID, name string) ([]byte, error) {
	payload, err := c.get(ctx, "/gists/"+gistID)
	if err != nil {
		return nil, fmt.Errorf("fetch gist %s: %w", gistID, err)
	}

	var resp gistResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("decode gist %s: %w", gistID, err)
	}

	file, ok := resp.Files[name]
	if !ok {
		if name == StateFileName {
			return nil, ErrStateMissing
		}

		return nil, fmt.Errorf("gist %s: file %q: %w", gistID, name, ErrNotFound)
	}

	if file.Truncated {
		return c.fetchRaw(ctx, file.RawURL)
	}

	return []byte(file.Content), nil
}

// UpdateGist overwrites the named files in a gist with a single PATCH,
// so the state document and every badge file land atomically in one
// gist revision.
func (c *Client) UpdateGist(ctx context.Context, gistID string, files map[string][]byte) error {
	payload := gistPayload{Files: make(map[string]gistFilePayload, len(files))}
	for name, content := range files {
		payload.Files[name] = gistFilePayload{Content: string(content)}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode gist update: %w", err)
	}

	if _, err := c.patch(ctx, "/gists/"+gistID, body); err != nil {
		return fmt.Errorf("update gist %s: %w", gistID, err)
	}

	return nil
}

// CreateGist creates a new secret gist with the given files and returns
// its id. Used by onboarding to provision the state and archive gists.
func (c *Client) CreateGist(ctx context.Context, description string, files map[string][]byte) (string, error) {
	payload := gistPayload{
		Description: description,
		Files:       make(map[string]gistFilePayload, len(files)),
	}
	for name, content := range files {
		payload.Files[name] = gistFilePayload{Content: string(content)}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode gist create: %w", err)
	}

	resp, err := c.post(ctx, "/gists", body)
	if err != nil {
		return "", fmt.Errorf("create gist: %w", err)
	}

	var created gistResponse
	if err := json.Unmarshal(resp, &created); err != nil {
		return "", fmt.Errorf("decode created gist: %w", err)
	}

	return created.ID, nil
}

// fetchRaw follows a gist raw_url, which lives outside the API base.
func (c *Client) fetchRaw(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	if c.observer != nil {
		c.observer(ctx)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build raw gist request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch raw gist content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch raw gist content: status %d: %w", resp.StatusCode, ErrAPIStatus)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read raw gist content: %w", err)
	}

	return payload, nil
}
