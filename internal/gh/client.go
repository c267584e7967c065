// Package gh is the GitHub REST v3 collaborator: it fetches the
// rolling-window traffic snapshot, CI run metadata, repository metadata
// and release downloads, and reads/writes the badge gist. Everything
// ghtraf knows about GitHub goes through this package.
package gh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public GitHub API endpoint.
const DefaultBaseURL = "https://api.github.com"

// requestTimeout bounds a single API call; the engine itself never
// blocks, so all deadlines live here.
const requestTimeout = 30 * time.Second

// Client-side rate limiting: authenticated REST calls are limited to
// 5000/hour; we stay far below to leave headroom for other workflows on
// the same token.
const (
	requestsPerSecond = 2
	requestBurst      = 5
)

// Sentinel errors for API failures callers branch on.
var (
	ErrNotFound     = errors.New("github resource not found")
	ErrUnauthorized = errors.New("github token rejected")
	ErrAPIStatus    = errors.New("github api returned an unexpected status")
)

// Client is an authenticated, rate-limited GitHub REST client.
type Client struct {
	baseURL  string
	token    string
	httpc    *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
	observer func(ctx context.Context)
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (tests, GitHub Enterprise).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRequestObserver registers a callback invoked once per issued API
// request, before the response is read. Used to feed request counters.
func WithRequestObserver(fn func(ctx context.Context)) Option {
	return func(c *Client) { c.observer = fn }
}

// NewClient creates a client authenticated with token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		httpc:   &http.Client{Timeout: requestTimeout},
		limiter: rate.NewLimiter(requestsPerSecond, requestBurst),
		logger:  slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a GET against path (e.g. "/repos/o/r/traffic/clones")
// and returns the raw response body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// patch performs a PATCH with a JSON body.
func (c *Client) patch(ctx context.Context, path string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPatch, path, body)
}

// post performs a POST with a JSON body.
func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	err := c.limiter.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("github api request", "method", method, "path", path)

	if c.observer != nil {
		c.observer(ctx)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s %s: %w", method, path, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return payload, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, ErrUnauthorized)
	default:
		return nil, fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, ErrAPIStatus)
	}
}
