package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func legacyV1Document() *Document {
	return &Document{
		SchemaVersion:  1,
		TrackingStart:  "2025-12-01",
		SubjectCreated: "2025-01-01",
		Totals:         map[Metric]int{MetricClones: 40, MetricViews: 100},
		DailyHistory: []DailyRecord{
			{Date: "2026-01-08", Counts: map[Metric]int{MetricClones: 15, MetricViews: 60}},
			{Date: "2026-01-09", Counts: map[Metric]int{MetricClones: 25, MetricViews: 40}},
		},
		LegacySeenCloneDates: []Date{"2026-01-08", "2026-01-09", "2026-01-10"},
		LegacySeenViewDates:  []Date{"2026-01-08", "2026-01-09"},
	}
}

func TestMigrate_V1SeedsLastSeenFromLedger(t *testing.T) {
	t.Parallel()

	doc := legacyV1Document()

	require.NoError(t, Migrate(doc))

	assert.Equal(t, CurrentSchemaVersion, doc.SchemaVersion)
	assert.Nil(t, doc.LegacySeenCloneDates)
	assert.Nil(t, doc.LegacySeenViewDates)

	assert.Equal(t, 15, doc.LastSeen[MetricClones]["2026-01-08"])
	assert.Equal(t, 25, doc.LastSeen[MetricClones]["2026-01-09"])

	// Seen but absent from the ledger: seeded at zero, and the presence
	// of the zero matters for later delta computation.
	seeded, ok := doc.LastSeen[MetricClones]["2026-01-10"]
	require.True(t, ok)
	assert.Equal(t, 0, seeded)

	assert.Equal(t, 60, doc.LastSeen[MetricViews]["2026-01-08"])
}

func TestMigrate_V1SeedingMakesRedeliveryFree(t *testing.T) {
	t.Parallel()

	doc := legacyV1Document()

	require.NoError(t, Migrate(doc))

	// A post-migration snapshot re-reporting already-seen days must not
	// re-add their counts.
	snapshot := Snapshot{
		MetricClones: {
			"2026-01-08": {Count: 15},
			"2026-01-09": {Count: 25},
		},
	}

	deltas, _ := Merge(doc, snapshot, testOptions("2026-01-10"))

	assert.Empty(t, deltas)
	assert.Equal(t, 40, doc.Totals[MetricClones])
}

func TestMigrate_V2SeedsOrganicFromLedgerWhenLegacyUnderCounts(t *testing.T) {
	t.Parallel()

	// One day had CI activity exceeding clones: the legacy global
	// subtraction would let that day's negative contribution suppress
	// the other day's real organic activity.
	doc := &Document{
		SchemaVersion:  2,
		TrackingStart:  "2025-12-01",
		SubjectCreated: "2025-01-01",
		Totals:         map[Metric]int{MetricClones: 10, MetricCICheckouts: 9},
		LastSeen:       map[Metric]map[Date]int{},
		DailyHistory: []DailyRecord{
			{Date: "2026-01-08", Counts: map[Metric]int{MetricClones: 10, MetricCICheckouts: 2}},
			{Date: "2026-01-09", Counts: map[Metric]int{MetricClones: 0, MetricCICheckouts: 7}},
		},
	}

	require.NoError(t, Migrate(doc))

	// Ledger: max(0, 10-2) + max(0, 0-7) = 8; legacy: 10-9 = 1.
	assert.Equal(t, 8, doc.Totals[MetricOrganicClones])
}

func TestMigrate_V2PrefersLegacyWhenLedgerIsShort(t *testing.T) {
	t.Parallel()

	// Totals cover months of pruned history; the ledger holds one day.
	doc := &Document{
		SchemaVersion:  2,
		TrackingStart:  "2025-01-01",
		SubjectCreated: "2024-01-01",
		Totals:         map[Metric]int{MetricClones: 500, MetricCICheckouts: 120},
		LastSeen:       map[Metric]map[Date]int{},
		DailyHistory: []DailyRecord{
			{Date: "2026-01-09", Counts: map[Metric]int{MetricClones: 4}},
		},
	}

	require.NoError(t, Migrate(doc))

	assert.Equal(t, 380, doc.Totals[MetricOrganicClones])
}

func TestMigrate_V2NilTotalsWithOnlyOrganicUniques(t *testing.T) {
	t.Parallel()

	// A hand-edited or truncated document can arrive with no totals
	// map at all; seeding the organic unique total must not panic.
	doc := &Document{
		SchemaVersion:  2,
		TrackingStart:  "2025-12-01",
		SubjectCreated: "2025-01-01",
		DailyHistory: []DailyRecord{
			{Date: "2026-01-08", OrganicUnique: intPtr(3)},
			{Date: "2026-01-09", OrganicUnique: intPtr(2)},
		},
	}

	require.NoError(t, Migrate(doc))

	assert.Equal(t, 5, doc.Totals[MetricOrganicUnique])
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()

	doc := legacyV1Document()

	require.NoError(t, Migrate(doc))

	organicAfterFirst := doc.Totals[MetricOrganicClones]
	lastSeenAfterFirst := doc.LastSeen[MetricClones]["2026-01-09"]

	require.NoError(t, Migrate(doc))

	assert.Equal(t, CurrentSchemaVersion, doc.SchemaVersion)
	assert.Equal(t, organicAfterFirst, doc.Totals[MetricOrganicClones])
	assert.Equal(t, lastSeenAfterFirst, doc.LastSeen[MetricClones]["2026-01-09"])
}

func TestMigrate_MissingVersionTreatedAsV1(t *testing.T) {
	t.Parallel()

	doc := &Document{
		TrackingStart: "2025-12-01",
		Totals:        map[Metric]int{},
	}

	require.NoError(t, Migrate(doc))
	assert.Equal(t, CurrentSchemaVersion, doc.SchemaVersion)
}

func TestMigrate_FutureVersionIsFatal(t *testing.T) {
	t.Parallel()

	doc := &Document{SchemaVersion: CurrentSchemaVersion + 1}

	err := Migrate(doc)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFutureSchema)
}
