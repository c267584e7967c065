package observability

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_ServesScrapeEndpoint(t *testing.T) {
	t.Parallel()

	provider, err := NewProvider()
	require.NoError(t, err)

	rm, err := NewRunMetrics(provider.MeterProvider)
	require.NoError(t, err)

	ctx := context.Background()
	rm.RecordRun(ctx, StatusOK, 2*time.Second)
	rm.RecordDeltas(ctx, map[string]int{"clones": 5, "views": 0})
	rm.RecordRepairs(ctx, map[string]int{"clones": 2})
	rm.RecordAPICall(ctx)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/metrics", nil)
	provider.Handler.ServeHTTP(recorder, request)

	require.Equal(t, 200, recorder.Code)

	body, err := io.ReadAll(recorder.Body)
	require.NoError(t, err)

	scrape := string(body)
	assert.Contains(t, scrape, "ghtraf_runs_total")
	assert.Contains(t, scrape, "ghtraf_deltas_total")
	assert.Contains(t, scrape, "ghtraf_repairs_total")
	assert.Contains(t, scrape, "ghtraf_github_requests_total")

	// Zero-valued deltas are never emitted as series.
	assert.NotContains(t, scrape, `metric="views"`)
}

func TestNewProvider_IndependentRegistries(t *testing.T) {
	t.Parallel()

	first, err := NewProvider()
	require.NoError(t, err)

	second, err := NewProvider()
	require.NoError(t, err)

	rm, err := NewRunMetrics(first.MeterProvider)
	require.NoError(t, err)
	rm.RecordRun(context.Background(), StatusError, time.Second)

	recorder := httptest.NewRecorder()
	second.Handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(recorder.Body)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(body), "ghtraf_runs_total"),
		"runs recorded on one provider must not leak into another's scrape")
}
