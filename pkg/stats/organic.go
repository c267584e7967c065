package stats

import (
	"math"
	"slices"
)

// EstimateOrganic separates today's clone activity into CI-attributable
// and organic portions and accumulates the organic share into totals.
//
// CI checkout counts for every date in the automated map are first
// delta-merged like any other metric, so re-reads of the same day add
// nothing. Then today's organic contribution is computed as
//
//	organicToday = max(0, clonesToday - ciCheckoutsToday)
//
// and folded into totals under a same-day guard: the document remembers
// how much of today it has already counted, and consecutive runs on the
// same day add only the increment since the previous run. The guard also
// covers the v2 -> v3 migration boundary, where the seeded total already
// includes today's ledger contribution and a naive accumulator would add
// it a second time. The guard resets itself on rollover to a new date.
//
// When today's unique cloner count is known, the CI-attributable share
// of it is estimated as the unique count scaled by the CI checkout rate,
// capped by the number of workflow runs (CI cannot account for more
// unique cloners than runs that executed). When the unique count is
// still unknown, the estimate is skipped entirely rather than recorded
// as a false zero.
//
// Returns the per-metric deltas added to totals.
func EstimateOrganic(doc *Document, automated AutomatedActivity, opts Options) map[Metric]int {
	opts = opts.withDefaults()
	deltas := make(map[Metric]int)

	mergeAutomated(doc, automated, opts, deltas)

	rec := doc.Record(opts.Today)
	if rec == nil && len(automated) == 0 {
		return deltas
	}

	if rec == nil {
		rec = doc.ensureRecord(opts.Today)
	}

	clonesToday := rec.count(MetricClones)
	automatedToday := rec.count(MetricCICheckouts)
	organicToday := max(0, clonesToday-automatedToday)

	organicValue := organicToday
	rec.Organic = &organicValue

	guard := doc.PreviousOrganic
	if guard == nil || guard.Date != opts.Today {
		guard = &OrganicContribution{Date: opts.Today}
		doc.PreviousOrganic = guard
	}

	// A guard fresh for today carries zero, so the first run of the day
	// accumulates the full contribution and later runs only the revision.
	if delta := max(0, organicToday-guard.Clones); delta > 0 {
		doc.addTotal(MetricOrganicClones, delta)
		deltas[MetricOrganicClones] = delta
	}

	guard.Clones = max(guard.Clones, organicToday)

	estimateOrganicUniques(doc, rec, guard, deltas)

	return deltas
}

// mergeAutomated delta-merges CI checkout counts into totals and the
// ledger, and records the per-day workflow run ceiling.
func mergeAutomated(doc *Document, automated AutomatedActivity, opts Options, deltas map[Metric]int) {
	windowStart := opts.windowStart()

	for _, date := range sortedAutomatedDates(automated) {
		day := automated[date]

		if doc.SubjectCreated != "" && date.Before(doc.SubjectCreated) {
			continue
		}

		if date.Before(windowStart) || date.After(opts.Today) {
			opts.log().Warn("automated activity outside retention window",
				"date", string(date), "window_start", string(windowStart))

			continue
		}

		mergeObservation(doc, MetricCICheckouts, date, Observation{Count: day.Checkouts}, deltas)

		rec := doc.Record(date)
		if day.Runs > rec.CIRuns {
			rec.CIRuns = day.Runs
		}
	}
}

// estimateOrganicUniques computes today's organic unique cloner count
// and accumulates it under the same-day guard. Requires an observed
// unique count; absence means unknown, and deriving organic data from
// unknown data would manufacture misleading zeros.
func estimateOrganicUniques(doc *Document, rec *DailyRecord, guard *OrganicContribution, deltas map[Metric]int) {
	uniques, ok := rec.Uniques[MetricClones]
	if !ok {
		return
	}

	clones := rec.count(MetricClones)
	ciCheckouts := rec.count(MetricCICheckouts)

	ciRate := 0.0
	if clones > 0 {
		ciRate = float64(ciCheckouts) / float64(clones)
	}

	ciUniques := min(int(math.Round(float64(uniques)*ciRate)), rec.CIRuns)
	organicUniques := max(0, uniques-ciUniques)

	rec.OrganicUnique = &organicUniques

	if delta := max(0, organicUniques-guard.UniqueClones); delta > 0 {
		doc.addTotal(MetricOrganicUnique, delta)
		deltas[MetricOrganicUnique] = delta
	}

	guard.UniqueClones = max(guard.UniqueClones, organicUniques)
}

func sortedAutomatedDates(automated AutomatedActivity) []Date {
	dates := make([]Date, 0, len(automated))
	for d := range automated {
		dates = append(dates, d)
	}

	slices.Sort(dates)

	return dates
}
