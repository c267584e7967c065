package stats

import "time"

// Summary is a read-only projection of the document for badges and
// dashboards: lifetime totals plus recent activity windows recomputed
// fresh from the ledger every run. It is never fed back into
// reconciliation.
type Summary struct {
	Totals map[Metric]int `json:"totals"`

	// Last24h, Last7d and Last30d sum the ledger's observed counts for
	// the trailing 1, 7 and 30 calendar days per metric. Unobserved
	// days contribute nothing.
	Last24h map[Metric]int `json:"last24h"`
	Last7d  map[Metric]int `json:"last7d"`
	Last30d map[Metric]int `json:"last30d"`
}

// Summarize builds a Summary of doc evaluated at now.
func Summarize(doc *Document, now time.Time) Summary {
	today := DateOf(now)

	summary := Summary{
		Totals:  make(map[Metric]int, len(doc.Totals)),
		Last24h: windowSums(doc, today, 1),
		Last7d:  windowSums(doc, today, 7),
		Last30d: windowSums(doc, today, 30),
	}

	for m, v := range doc.Totals {
		summary.Totals[m] = v
	}

	return summary
}

func windowSums(doc *Document, today Date, days int) map[Metric]int {
	start := today.AddDays(-(days - 1))
	sums := make(map[Metric]int)

	for i := range doc.DailyHistory {
		rec := &doc.DailyHistory[i]

		if rec.Date.Before(start) || rec.Date.After(today) {
			continue
		}

		for _, m := range accumulableMetrics {
			if v, ok := ledgerValue(rec, m); ok {
				sums[m] += v
			}
		}
	}

	return sums
}
