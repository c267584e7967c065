package stats

import (
	"maps"
	"slices"
)

// Merge folds a rolling-window snapshot into the document: totals grow
// by the per-date increase over the last-seen baseline, and the daily
// ledger max-merges the observed display values.
//
// The rules, in order, per metric per date:
//   - dates before the repository existed are source-side zero padding
//     and are skipped entirely;
//   - dates outside the nominal window are unexpected but harmless,
//     logged and skipped;
//   - the totals delta is clamped at zero, so a source-side downward
//     correction never subtracts activity that was already counted;
//   - ledger counts only ever go up, so activity never visibly
//     disappears;
//   - unique-actor values are written whenever the snapshot reports one,
//     including an explicit 0.
//
// After the per-date loop a backfill pass runs: any ledger entry inside
// the nominal window whose unique-actor value is still unknown for a
// snapshot-covered metric is confirmed as 0, because the source omits
// only days it has nothing to report for. Finally the ledger and the
// last-seen baseline are pruned to their retention horizons; totals have
// already absorbed everything pruned.
//
// The document is mutated in place. Returns the per-metric deltas that
// were added to totals, and the ledger entries the retention prune
// dropped this run — the caller's last chance to archive them.
func Merge(doc *Document, snapshot Snapshot, opts Options) (map[Metric]int, []DailyRecord) {
	opts = opts.withDefaults()
	deltas := make(map[Metric]int)
	windowStart := opts.windowStart()

	for _, m := range sortedMetrics(snapshot) {
		days := snapshot[m]

		for _, date := range sortedDates(days) {
			obs := days[date]

			if doc.SubjectCreated != "" && date.Before(doc.SubjectCreated) {
				opts.log().Debug("skipping pre-origin snapshot date",
					"metric", string(m), "date", string(date), "created", string(doc.SubjectCreated))

				continue
			}

			if date.Before(windowStart) || date.After(opts.Today) {
				opts.log().Warn("snapshot date outside retention window",
					"metric", string(m), "date", string(date), "window_start", string(windowStart))

				continue
			}

			mergeObservation(doc, m, date, obs, deltas)
		}
	}

	backfillExpiredUniques(doc, snapshot, windowStart, opts.Today)
	pruned := pruneLedger(doc, opts)
	pruneLastSeen(doc, opts)

	return deltas, pruned
}

// mergeObservation applies a single (metric, date) observation.
func mergeObservation(doc *Document, m Metric, date Date, obs Observation, deltas map[Metric]int) {
	prior := doc.lastSeen(m, date)

	if delta := max(0, obs.Count-prior); delta > 0 {
		doc.addTotal(m, delta)
		deltas[m] += delta
	}

	doc.setLastSeen(m, date, obs.Count)

	rec := doc.ensureRecord(date)
	rec.setCount(m, obs.Count)

	if obs.Uniques == nil {
		return
	}

	rec.setUnique(m, *obs.Uniques)

	uniqueTotal, ok := uniqueCounterpart[m]
	if !ok {
		return
	}

	uniquePrior := doc.lastSeen(uniqueTotal, date)
	if delta := max(0, *obs.Uniques-uniquePrior); delta > 0 {
		doc.addTotal(uniqueTotal, delta)
		deltas[uniqueTotal] += delta
	}

	doc.setLastSeen(uniqueTotal, date, *obs.Uniques)
}

// backfillExpiredUniques promotes "unknown" to "confirmed zero" for
// unique-actor values of window dates the snapshot stayed silent about.
// The source reports only days with activity, so inside the live window
// silence is evidence, not absence of evidence. Only metrics actually
// present in this run's snapshot are eligible: a metric the fetch
// skipped proves nothing.
func backfillExpiredUniques(doc *Document, snapshot Snapshot, windowStart, today Date) {
	for m := range snapshot {
		if _, tracked := uniqueCounterpart[m]; !tracked {
			continue
		}

		for i := range doc.DailyHistory {
			rec := &doc.DailyHistory[i]

			if rec.Date.Before(windowStart) || rec.Date.After(today) {
				continue
			}

			if _, ok := rec.Uniques[m]; !ok {
				rec.setUnique(m, 0)
			}
		}
	}
}

// pruneLedger drops ledger entries older than the retained display
// window and returns them in date order. The ledger is a display cache;
// totals are the source of truth and already include every pruned day.
// The dropped entries flow back to the caller so a month can still be
// archived on the very run that prunes its first days.
func pruneLedger(doc *Document, opts Options) []DailyRecord {
	cutoff := opts.Today.AddDays(-(opts.RetainDays - 1))

	var pruned []DailyRecord

	doc.DailyHistory = slices.DeleteFunc(doc.DailyHistory, func(rec DailyRecord) bool {
		if rec.Date.Before(cutoff) {
			pruned = append(pruned, rec)

			return true
		}

		return false
	})

	return pruned
}

// pruneLastSeen forgets dedup baselines for dates that have left the
// source's retention window for good and can never be reported again.
func pruneLastSeen(doc *Document, opts Options) {
	cutoff := opts.windowStart().AddDays(-lastSeenGraceDays)

	for _, dates := range doc.LastSeen {
		maps.DeleteFunc(dates, func(date Date, _ int) bool {
			return date.Before(cutoff)
		})
	}
}

func sortedMetrics(s Snapshot) []Metric {
	metrics := make([]Metric, 0, len(s))
	for m := range s {
		metrics = append(metrics, m)
	}

	slices.Sort(metrics)

	return metrics
}

func sortedDates(days map[Date]Observation) []Date {
	dates := make([]Date, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}

	slices.Sort(dates)

	return dates
}
