package stats

import (
	"errors"
	"fmt"
)

// ErrFutureSchema is returned when a document carries a schema version
// newer than this engine knows. Guessing a downgrade path risks silent
// data loss, so the run aborts and the stored document stays untouched.
var ErrFutureSchema = errors.New("document schema version is newer than this engine supports")

// migration upgrades a document in place from exactly one version to the
// next. Each step is idempotent: re-applying it to an already-migrated
// field is a no-op.
type migration struct {
	from, to int
	apply    func(*Document)
}

var migrations = []migration{
	{from: 1, to: 2, apply: migrateSeenDatesToCounts},
	{from: 2, to: 3, apply: migrateSeedOrganicTotals},
}

// Migrate upgrades doc to the current schema version, applying every
// intermediate step in order. Documents with no version are treated as
// v1. The document is mutated in place.
func Migrate(doc *Document) error {
	if doc.SchemaVersion == 0 {
		doc.SchemaVersion = 1
	}

	if doc.SchemaVersion > CurrentSchemaVersion {
		return fmt.Errorf("version %d (current %d): %w", doc.SchemaVersion, CurrentSchemaVersion, ErrFutureSchema)
	}

	for _, step := range migrations {
		if doc.SchemaVersion != step.from {
			continue
		}

		step.apply(doc)
		doc.SchemaVersion = step.to
	}

	return nil
}

// migrateSeenDatesToCounts converts the v1 boolean seen-date sets into
// the last-seen count maps used for delta computation. Each converted
// date is seeded with the count already recorded in the ledger, so the
// next merge computes a zero delta for it instead of re-adding the whole
// day.
func migrateSeenDatesToCounts(doc *Document) {
	seed := func(m Metric, dates []Date) {
		for _, date := range dates {
			if _, ok := doc.LastSeen[m][date]; ok {
				continue
			}

			count := 0
			if rec := doc.Record(date); rec != nil {
				count = rec.count(m)
			}

			doc.setLastSeen(m, date, count)
		}
	}

	seed(MetricClones, doc.LegacySeenCloneDates)
	seed(MetricViews, doc.LegacySeenViewDates)

	doc.LegacySeenCloneDates = nil
	doc.LegacySeenViewDates = nil
}

// migrateSeedOrganicTotals introduces the organic clone totals.
//
// The seed is the larger of two candidates: the sum of per-day organic
// values derivable from the ledger, and the legacy global formula
// (total clones minus total CI checkouts). The max matters: the global
// subtraction under-counts whenever CI activity exceeded organic
// activity on some day, because that day's negative contribution
// suppressed real activity from other days.
func migrateSeedOrganicTotals(doc *Document) {
	ledgerSum := 0
	ledgerUniqueSum := 0

	for i := range doc.DailyHistory {
		rec := &doc.DailyHistory[i]

		switch {
		case rec.Organic != nil:
			ledgerSum += *rec.Organic
		default:
			if clones, ok := rec.Counts[MetricClones]; ok {
				ledgerSum += max(0, clones-rec.count(MetricCICheckouts))
			}
		}

		if rec.OrganicUnique != nil {
			ledgerUniqueSum += *rec.OrganicUnique
		}
	}

	legacy := doc.Totals[MetricClones] - doc.Totals[MetricCICheckouts]
	seed := max(ledgerSum, legacy)

	if doc.Totals == nil {
		doc.Totals = make(map[Metric]int)
	}

	if seed > doc.Totals[MetricOrganicClones] {
		doc.Totals[MetricOrganicClones] = seed
	}

	if ledgerUniqueSum > doc.Totals[MetricOrganicUnique] {
		doc.Totals[MetricOrganicUnique] = ledgerUniqueSum
	}

	// The seed already includes the newest ledger day. Mark that day as
	// counted, so the first post-migration run on the same date adds
	// only the revision since, not the whole day again.
	if doc.PreviousOrganic == nil && len(doc.DailyHistory) > 0 {
		last := &doc.DailyHistory[len(doc.DailyHistory)-1]

		contribution := &OrganicContribution{Date: last.Date}

		switch {
		case last.Organic != nil:
			contribution.Clones = *last.Organic
		default:
			if clones, ok := last.Counts[MetricClones]; ok {
				contribution.Clones = max(0, clones-last.count(MetricCICheckouts))
			}
		}

		if last.OrganicUnique != nil {
			contribution.UniqueClones = *last.OrganicUnique
		}

		doc.PreviousOrganic = contribution
	}
}
