package stats

// Repair heals totals that drifted below the sum of their own ledger,
// which is evidence of a prior merge bug or an interrupted write. The
// repair is forward-only: a total is raised to the ledger sum, never
// reduced. It runs unconditionally on every reconciliation, so a
// one-time fix in merge logic self-applies to every previously affected
// document without a dedicated migration.
//
// Returns the per-metric corrections applied, keyed by metric.
func Repair(doc *Document) map[Metric]int {
	repairs := make(map[Metric]int)

	for _, m := range accumulableMetrics {
		sum := 0

		for i := range doc.DailyHistory {
			if v, ok := ledgerValue(&doc.DailyHistory[i], m); ok {
				sum += v
			}
		}

		if sum > doc.Totals[m] {
			repairs[m] = sum - doc.Totals[m]

			if doc.Totals == nil {
				doc.Totals = make(map[Metric]int)
			}

			doc.Totals[m] = sum
		}
	}

	return repairs
}
