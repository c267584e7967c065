package stats

// ScrubReport summarizes a ledger scrub: the dates whose records were
// corrected, per correction kind.
type ScrubReport struct {
	ExpiredUniques    []Date `json:"expiredUniques,omitempty"`
	FalseOrganicZeros []Date `json:"falseOrganicZeros,omitempty"`
}

// Empty reports whether the scrub changed nothing.
func (r *ScrubReport) Empty() bool {
	return len(r.ExpiredUniques) == 0 && len(r.FalseOrganicZeros) == 0
}

// Scrub removes ledger values that record absence of knowledge as a
// hard zero. Two corruption patterns are healed, both artifacts of
// earlier merge logic that wrote zeros for data expired out of the
// source's rolling window:
//
//   - a day with raw activity but a unique-actor count of exactly 0,
//     which the source never reports for a day it still retains; the
//     unique value reverts to unknown (key removed).
//   - an organic estimate on a day whose unique clone count is absent,
//     meaning the estimate was derived from expired data; both organic
//     fields revert to nil.
//
// Totals are untouched; they were accumulated from the values at the
// time they were genuine. The scrub only stops the ledger from
// rendering false zeros.
func Scrub(doc *Document) *ScrubReport {
	report := &ScrubReport{}

	for i := range doc.DailyHistory {
		rec := &doc.DailyHistory[i]

		if scrubExpiredUniques(rec) {
			report.ExpiredUniques = append(report.ExpiredUniques, rec.Date)
		}

		if scrubFalseOrganic(rec) {
			report.FalseOrganicZeros = append(report.FalseOrganicZeros, rec.Date)
		}
	}

	return report
}

// scrubExpiredUniques clears unique-actor zeros on days with nonzero
// raw counts, for every metric that carries a unique counterpart.
func scrubExpiredUniques(rec *DailyRecord) bool {
	scrubbed := false

	for base := range uniqueCounterpart {
		u, ok := rec.Uniques[base]
		if !ok || u != 0 {
			continue
		}

		if rec.count(base) > 0 {
			delete(rec.Uniques, base)

			scrubbed = true
		}
	}

	return scrubbed
}

// scrubFalseOrganic clears organic estimates on days whose unique clone
// count is unknown.
func scrubFalseOrganic(rec *DailyRecord) bool {
	if rec.Organic == nil && rec.OrganicUnique == nil {
		return false
	}

	if _, ok := rec.Uniques[MetricClones]; ok {
		return false
	}

	rec.Organic = nil
	rec.OrganicUnique = nil

	return true
}
