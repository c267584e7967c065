package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func testOptions(today Date) Options {
	return Options{Today: today}
}

func TestMerge_AccumulatesAndRecordsLedger(t *testing.T) {
	t.Parallel()

	doc := NewDocument("2026-01-05", "2026-01-01")

	snapshot := Snapshot{
		MetricClones: {
			"2026-01-10": {Count: 3, Uniques: intPtr(1)},
			"2026-01-11": {Count: 0, Uniques: intPtr(0)},
		},
	}

	Merge(doc, snapshot, testOptions("2026-01-11"))

	assert.Equal(t, 3, doc.Totals[MetricClones])
	require.Len(t, doc.DailyHistory, 2)

	first := doc.Record("2026-01-10")
	require.NotNil(t, first)
	assert.Equal(t, 3, first.Counts[MetricClones])

	gotUniques, ok := first.Uniques[MetricClones]
	require.True(t, ok)
	assert.Equal(t, 1, gotUniques)

	second := doc.Record("2026-01-11")
	require.NotNil(t, second)
	assert.Equal(t, 0, second.Counts[MetricClones])

	gotUniques, ok = second.Uniques[MetricClones]
	require.True(t, ok, "an explicit zero must be stored, not treated as missing")
	assert.Equal(t, 0, gotUniques)
}

func TestMerge_IdempotentUnderRedelivery(t *testing.T) {
	t.Parallel()

	doc := NewDocument("2026-01-05", "2026-01-01")

	snapshot := Snapshot{
		MetricClones: {"2026-01-10": {Count: 7, Uniques: intPtr(4)}},
		MetricViews:  {"2026-01-10": {Count: 20, Uniques: intPtr(9)}},
	}

	first, _ := Merge(doc, snapshot, testOptions("2026-01-11"))
	second, _ := Merge(doc, snapshot, testOptions("2026-01-11"))

	assert.Equal(t, 7, first[MetricClones])
	assert.Empty(t, second, "re-delivering identical observations must add nothing")
	assert.Equal(t, 7, doc.Totals[MetricClones])
	assert.Equal(t, 20, doc.Totals[MetricViews])
	assert.Equal(t, 4, doc.Totals[MetricUniqueClones])
	assert.Equal(t, 9, doc.Totals[MetricUniqueViews])
}

func TestMerge_NoPreOriginLeakage(t *testing.T) {
	t.Parallel()

	doc := NewDocument("2026-01-05", "2026-01-10")

	snapshot := Snapshot{
		MetricClones: {
			"2026-01-08": {Count: 5},
			"2026-01-09": {Count: 2},
			"2026-01-10": {Count: 1},
		},
	}

	Merge(doc, snapshot, testOptions("2026-01-12"))

	assert.Equal(t, 1, doc.Totals[MetricClones])
	assert.Len(t, doc.DailyHistory, 1)
	assert.Nil(t, doc.Record("2026-01-08"))
	assert.Nil(t, doc.Record("2026-01-09"))
}

func TestMerge_NegativeCorrectionClampedNeverSubtracted(t *testing.T) {
	t.Parallel()

	doc := NewDocument("2026-01-05", "2026-01-01")

	Merge(doc, Snapshot{MetricClones: {"2026-01-10": {Count: 10}}}, testOptions("2026-01-11"))
	Merge(doc, Snapshot{MetricClones: {"2026-01-10": {Count: 6}}}, testOptions("2026-01-11"))

	assert.Equal(t, 10, doc.Totals[MetricClones])
	assert.Equal(t, 10, doc.Record("2026-01-10").Counts[MetricClones],
		"display value must never regress on a source-side downward correction")
	assert.Equal(t, 10, doc.lastSeen(MetricClones, "2026-01-10"))
}

func TestMerge_LowerUniqueNeverOverwritesHigher(t *testing.T) {
	t.Parallel()

	doc := NewDocument("2026-01-05", "2026-01-01")

	Merge(doc, Snapshot{MetricClones: {"2026-01-10": {Count: 24, Uniques: intPtr(18)}}}, testOptions("2026-01-11"))
	Merge(doc, Snapshot{MetricClones: {"2026-01-10": {Count: 24, Uniques: intPtr(0)}}}, testOptions("2026-01-12"))

	rec := doc.Record("2026-01-10")
	require.NotNil(t, rec)
	assert.Equal(t, 18, rec.Uniques[MetricClones])
}

func TestMerge_AbsentUniqueStaysUnknownWhenMetricNotCovered(t *testing.T) {
	t.Parallel()

	doc := NewDocument("2026-01-05", "2026-01-01")

	// Views create the ledger entry; the clones endpoint was not part of
	// this run, so the clone unique count must stay unknown.
	Merge(doc, Snapshot{MetricViews: {"2026-01-10": {Count: 12}}}, testOptions("2026-01-11"))

	rec := doc.Record("2026-01-10")
	require.NotNil(t, rec)

	_, ok := rec.Uniques[MetricClones]
	assert.False(t, ok)
}

func TestMerge_BackfillConfirmsZeroInsideWindow(t *testing.T) {
	t.Parallel()

	doc := NewDocument("2026-01-05", "2026-01-01")

	// The date enters the ledger without a unique count.
	Merge(doc, Snapshot{MetricClones: {"2026-01-10": {Count: 5}}}, testOptions("2026-01-11"))

	rec := doc.Record("2026-01-10")
	require.NotNil(t, rec)

	gotUniques, ok := rec.Uniques[MetricClones]
	require.True(t, ok, "silence inside the live window for a covered metric confirms zero")
	assert.Equal(t, 0, gotUniques)

	// Views were never part of any snapshot; their unique count stays
	// unknown.
	_, ok = rec.Uniques[MetricViews]
	assert.False(t, ok)
}

func TestMerge_DateOutsideWindowIgnored(t *testing.T) {
	t.Parallel()

	doc := NewDocument("2026-01-05", "2025-01-01")

	snapshot := Snapshot{
		MetricClones: {
			"2025-11-01": {Count: 50}, // long expired
			"2026-01-10": {Count: 2},
		},
	}

	Merge(doc, snapshot, testOptions("2026-01-11"))

	assert.Equal(t, 2, doc.Totals[MetricClones])
	assert.Nil(t, doc.Record("2025-11-01"))
}

func TestMerge_PrunesLedgerBeyondRetention(t *testing.T) {
	t.Parallel()

	doc := NewDocument("2025-12-01", "2025-01-01")

	opts := Options{Today: "2026-01-10", RetainDays: 5}

	Merge(doc, Snapshot{MetricClones: {"2026-01-01": {Count: 4}}}, Options{Today: "2026-01-02", RetainDays: 5})
	_, pruned := Merge(doc, Snapshot{MetricClones: {"2026-01-10": {Count: 1}}}, opts)

	assert.Nil(t, doc.Record("2026-01-01"), "entries older than the retained window are pruned")
	assert.NotNil(t, doc.Record("2026-01-10"))
	assert.Equal(t, 5, doc.Totals[MetricClones], "totals keep the pruned day's contribution")

	require.Len(t, pruned, 1, "dropped entries are returned for archiving")
	assert.Equal(t, Date("2026-01-01"), pruned[0].Date)
	assert.Equal(t, 4, pruned[0].Counts[MetricClones])
}

func TestMerge_TotalsMonotonicAcrossRuns(t *testing.T) {
	t.Parallel()

	doc := NewDocument("2026-01-01", "2025-01-01")

	snapshots := []Snapshot{
		{MetricClones: {"2026-01-03": {Count: 2}}},
		{MetricClones: {"2026-01-03": {Count: 5}, "2026-01-04": {Count: 1}}},
		{MetricClones: {"2026-01-03": {Count: 4}}}, // downward correction
		{MetricClones: {"2026-01-04": {Count: 3}, "2026-01-05": {Count: 0}}},
	}

	prev := 0
	for i, snapshot := range snapshots {
		Merge(doc, snapshot, testOptions("2026-01-05"))
		assert.GreaterOrEqual(t, doc.Totals[MetricClones], prev, "run %d decreased totals", i)
		prev = doc.Totals[MetricClones]
	}

	assert.Equal(t, 8, doc.Totals[MetricClones])
}
