package stats

import "time"

// Projection decides which trailing ledger points are provisional and
// should be rendered as a dashed projection instead of a finalized data
// point.
//
// Today's counters are still accumulating, and because collection runs
// at a fixed UTC instant, "yesterday" is effectively still in progress
// for viewers in timezones behind it. A trailing point dated today or
// yesterday therefore shows an in-progress partial count, not a
// confirmed low day.
//
// The function is read-only: it never mutates the ledger.
type Projection struct {
	// Provisional lists the trailing ledger dates, oldest first, that
	// should carry a projection marker. Empty when the ledger's last
	// entry is already final.
	Provisional []Date
}

// ProjectIncompleteDays evaluates the ledger against now (converted to
// its UTC calendar date) and reports which trailing points are still in
// progress.
func ProjectIncompleteDays(history []DailyRecord, now time.Time) Projection {
	var proj Projection

	if len(history) == 0 {
		return proj
	}

	today := DateOf(now)
	yesterday := today.AddDays(-1)

	for i := len(history) - 1; i >= 0; i-- {
		date := history[i].Date
		if date != today && date != yesterday {
			break
		}

		proj.Provisional = append([]Date{date}, proj.Provisional...)
	}

	return proj
}

// IsProvisional reports whether date is marked provisional.
func (p Projection) IsProvisional(date Date) bool {
	for _, d := range p.Provisional {
		if d == date {
			return true
		}
	}

	return false
}
