package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrub_ClearsExpiredUniqueZeros(t *testing.T) {
	t.Parallel()

	doc := &Document{
		SchemaVersion: CurrentSchemaVersion,
		DailyHistory: []DailyRecord{
			{
				Date:    "2026-01-05",
				Counts:  map[Metric]int{MetricClones: 7, MetricViews: 12},
				Uniques: map[Metric]int{MetricClones: 0, MetricViews: 0},
			},
		},
	}

	report := Scrub(doc)

	assert.Equal(t, []Date{"2026-01-05"}, report.ExpiredUniques)

	rec := doc.Record("2026-01-05")
	_, ok := rec.Uniques[MetricClones]
	assert.False(t, ok)
	_, ok = rec.Uniques[MetricViews]
	assert.False(t, ok)
}

func TestScrub_KeepsGenuineZeroDays(t *testing.T) {
	t.Parallel()

	doc := &Document{
		SchemaVersion: CurrentSchemaVersion,
		DailyHistory: []DailyRecord{
			// No raw activity: an explicit 0 uniques is a real
			// observation, not expiry.
			{
				Date:    "2026-01-06",
				Counts:  map[Metric]int{MetricClones: 0},
				Uniques: map[Metric]int{MetricClones: 0},
			},
		},
	}

	report := Scrub(doc)

	assert.True(t, report.Empty())
	assert.Equal(t, 0, doc.Record("2026-01-06").Uniques[MetricClones])
}

func TestScrub_ClearsOrganicWithoutUniqueBasis(t *testing.T) {
	t.Parallel()

	doc := &Document{
		SchemaVersion: CurrentSchemaVersion,
		DailyHistory: []DailyRecord{
			{
				Date:          "2026-01-07",
				Counts:        map[Metric]int{MetricClones: 3},
				Organic:       intPtr(2),
				OrganicUnique: intPtr(0),
			},
		},
	}

	report := Scrub(doc)

	assert.Equal(t, []Date{"2026-01-07"}, report.FalseOrganicZeros)

	rec := doc.Record("2026-01-07")
	assert.Nil(t, rec.Organic)
	assert.Nil(t, rec.OrganicUnique)
}

func TestScrub_KeepsOrganicBackedByUniques(t *testing.T) {
	t.Parallel()

	doc := &Document{
		SchemaVersion: CurrentSchemaVersion,
		DailyHistory: []DailyRecord{
			{
				Date:          "2026-01-08",
				Counts:        map[Metric]int{MetricClones: 5},
				Uniques:       map[Metric]int{MetricClones: 2},
				Organic:       intPtr(4),
				OrganicUnique: intPtr(1),
			},
		},
	}

	report := Scrub(doc)

	assert.True(t, report.Empty())
	assert.Equal(t, 4, *doc.Record("2026-01-08").Organic)
}

func TestScrub_TotalsUntouched(t *testing.T) {
	t.Parallel()

	doc := &Document{
		SchemaVersion: CurrentSchemaVersion,
		Totals:        map[Metric]int{MetricClones: 50, MetricUniqueClones: 20},
		DailyHistory: []DailyRecord{
			{
				Date:    "2026-01-09",
				Counts:  map[Metric]int{MetricClones: 9},
				Uniques: map[Metric]int{MetricClones: 0},
			},
		},
	}

	Scrub(doc)

	assert.Equal(t, 50, doc.Totals[MetricClones])
	assert.Equal(t, 20, doc.Totals[MetricUniqueClones])
}
