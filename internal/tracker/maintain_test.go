package tracker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DazzleML/ghtraf/pkg/stats"
)

func corruptedClient(t *testing.T) *fakeClient {
	t.Helper()

	doc := stats.NewDocument("2026-01-01", "2025-06-01")
	doc.Totals[stats.MetricClones] = 3
	doc.DailyHistory = []stats.DailyRecord{
		{
			Date:    "2026-01-03",
			Counts:  map[stats.Metric]int{stats.MetricClones: 4},
			Uniques: map[stats.Metric]int{stats.MetricClones: 0},
		},
	}

	state, err := json.Marshal(doc)
	require.NoError(t, err)

	client := newFakeClient(t)
	client.state = state

	return client
}

func TestRepairTotals_RaisesAndPersists(t *testing.T) {
	t.Parallel()

	client := corruptedClient(t)
	tr := New(testConfig(), client, nil)

	repairs, doc, err := tr.RepairTotals(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, repairs[stats.MetricClones])
	assert.Equal(t, 4, doc.Totals[stats.MetricClones])
	require.Len(t, client.updates, 1)
}

func TestRepairTotals_DryRunWritesNothing(t *testing.T) {
	t.Parallel()

	client := corruptedClient(t)
	tr := New(testConfig(), client, nil)

	repairs, _, err := tr.RepairTotals(context.Background(), true)
	require.NoError(t, err)

	assert.NotEmpty(t, repairs)
	assert.Empty(t, client.updates)
}

func TestScrubLedger_ClearsAndPersists(t *testing.T) {
	t.Parallel()

	client := corruptedClient(t)
	tr := New(testConfig(), client, nil)

	report, err := tr.ScrubLedger(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, []stats.Date{"2026-01-03"}, report.ExpiredUniques)
	require.Len(t, client.updates, 1)

	var persisted stats.Document
	require.NoError(t, json.Unmarshal(client.updates[0].files["state.json"], &persisted))

	rec := persisted.Record("2026-01-03")
	require.NotNil(t, rec)
	_, ok := rec.Uniques[stats.MetricClones]
	assert.False(t, ok)
}

func TestScrubLedger_DryRunWritesNothing(t *testing.T) {
	t.Parallel()

	client := corruptedClient(t)
	tr := New(testConfig(), client, nil)

	report, err := tr.ScrubLedger(context.Background(), true)
	require.NoError(t, err)

	assert.False(t, report.Empty())
	assert.Empty(t, client.updates)
}

func TestScrubLedger_CleanLedgerWritesNothing(t *testing.T) {
	t.Parallel()

	client := newFakeClient(t)
	tr := New(testConfig(), client, nil)

	report, err := tr.ScrubLedger(context.Background(), true)
	require.NoError(t, err)

	assert.True(t, report.Empty())
	assert.Empty(t, client.updates)
}
