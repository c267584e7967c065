// Package stats implements the traffic accumulation engine: the pure
// reconciliation of a persisted accumulation document against a freshly
// fetched rolling-window traffic snapshot.
//
// The GitHub traffic API retains raw counts for only a trailing window
// (14 days). This package folds each day's observations into permanent,
// monotonically growing totals and a bounded daily ledger, surviving
// repeated same-day runs, gaps between runs, and retroactive source-side
// corrections without double-counting and without inventing false zeros.
package stats

import "slices"

// CurrentSchemaVersion is the schema version written by this engine.
// Older documents are upgraded by Migrate before any merge.
const CurrentSchemaVersion = 3

// Metric identifies a tracked counter inside the accumulation document.
type Metric string

// Metrics tracked by the engine. Clones and Views arrive through the
// rolling-window snapshot; CICheckouts arrives through the automated
// activity map; the organic metrics are derived.
const (
	MetricClones        Metric = "clones"
	MetricViews         Metric = "views"
	MetricUniqueClones  Metric = "uniqueClones"
	MetricUniqueViews   Metric = "uniqueViews"
	MetricCICheckouts   Metric = "ciCheckouts"
	MetricOrganicClones Metric = "organicClones"
	MetricOrganicUnique Metric = "organicUniqueClones"
	MetricDownloads     Metric = "downloads"
)

// accumulableMetrics are the metrics whose ledger values roll up into
// totals. The integrity repair pass considers exactly these; per-day
// gauges (stars, forks) are excluded so they are never summed.
var accumulableMetrics = []Metric{
	MetricClones,
	MetricUniqueClones,
	MetricViews,
	MetricUniqueViews,
	MetricCICheckouts,
	MetricOrganicClones,
	MetricOrganicUnique,
}

// uniqueCounterpart maps a snapshot metric to the totals key under which
// its unique-actor counts accumulate.
var uniqueCounterpart = map[Metric]Metric{
	MetricClones: MetricUniqueClones,
	MetricViews:  MetricUniqueViews,
}

// DailyRecord is one day of the display ledger.
//
// Counts and Uniques distinguish "not yet observed" (key absent) from
// "observed, zero activity" (key present with value 0). The distinction
// matters: the traffic API omits days with no activity, and unique-actor
// data expires out of the API window, so a missing value must never be
// rendered as a hard zero.
type DailyRecord struct {
	Date Date `json:"date"`

	// Counts holds raw per-metric counts for the day. Uniques holds the
	// per-metric unique-actor counts, keyed by the base metric (the
	// unique cloner count lives under "clones").
	Counts  map[Metric]int `json:"counts,omitempty"`
	Uniques map[Metric]int `json:"uniques,omitempty"`

	// Organic and OrganicUnique are derived: the day's clone activity
	// minus what is attributable to CI. Nil until computable.
	Organic       *int `json:"organicClones,omitempty"`
	OrganicUnique *int `json:"organicUniqueClones,omitempty"`

	// CIRuns is the number of completed workflow runs attributed to the
	// day, used as a ceiling when estimating CI-attributable uniques.
	CIRuns int `json:"ciRuns,omitempty"`

	// Point-in-time repository gauges captured on the day itself.
	// Nil means the run that would have captured them never happened.
	Stars      *int `json:"stars,omitempty"`
	Forks      *int `json:"forks,omitempty"`
	OpenIssues *int `json:"openIssues,omitempty"`

	// CapturedAt is the RFC 3339 instant of the run that last touched
	// this record.
	CapturedAt string `json:"capturedAt,omitempty"`
}

// count returns the record's raw count for m, or 0 when unobserved.
func (r *DailyRecord) count(m Metric) int {
	return r.Counts[m]
}

// setCount max-merges an observed count into the record. Display values
// never regress, even when a later snapshot revises a day downward.
func (r *DailyRecord) setCount(m Metric, observed int) {
	if r.Counts == nil {
		r.Counts = make(map[Metric]int)
	}

	if existing, ok := r.Counts[m]; !ok || observed > existing {
		r.Counts[m] = observed
	}
}

// setUnique max-merges an observed unique-actor count. Presence, not
// magnitude, is the gate: a reported 0 is stored as 0.
func (r *DailyRecord) setUnique(m Metric, observed int) {
	if r.Uniques == nil {
		r.Uniques = make(map[Metric]int)
	}

	if existing, ok := r.Uniques[m]; !ok || observed > existing {
		r.Uniques[m] = observed
	}
}

// OrganicContribution remembers the organic amounts already folded into
// totals for the in-progress day, so a second run on the same day adds
// only the increment since the previous run.
type OrganicContribution struct {
	Date         Date `json:"date"`
	Clones       int  `json:"clones"`
	UniqueClones int  `json:"uniqueClones"`
}

// Referrer is one entry of the top-referrers display cache.
type Referrer struct {
	Referrer string `json:"referrer"`
	Count    int    `json:"count"`
	Uniques  int    `json:"uniques"`
}

// PopularPath is one entry of the popular-paths display cache.
type PopularPath struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Count   int    `json:"count"`
	Uniques int    `json:"uniques"`
}

// Document is the persisted accumulation state for one tracked
// repository. It is the single source of truth the reconciliation runs
// against; the daily ledger is a bounded display cache, the totals are
// permanent.
type Document struct {
	SchemaVersion int `json:"schemaVersion"`

	// TrackingStart is the date accumulation began. SubjectCreated is
	// the repository's true origin; snapshot dates before it are
	// source-side zero padding and are rejected.
	TrackingStart  Date `json:"trackingStartDate"`
	SubjectCreated Date `json:"subjectCreatedDate,omitempty"`

	// Totals never decrease across reconciliations, except upward via
	// the integrity repair pass.
	Totals map[Metric]int `json:"totals"`

	// LastSeen is the dedup baseline: the highest count ever observed
	// per metric per date. It exists purely to turn repeated reads of
	// the same rolling window into zero additional delta.
	LastSeen map[Metric]map[Date]int `json:"lastSeenCounts"`

	// DailyHistory is ordered by date and bounded to the retained
	// trailing window. Logically append-only per date key.
	DailyHistory []DailyRecord `json:"dailyHistory"`

	// PreviousOrganic guards against double-accumulating the
	// in-progress day's organic contribution across consecutive runs
	// and across the v2 -> v3 migration boundary.
	PreviousOrganic *OrganicContribution `json:"previousOrganicContributionToday,omitempty"`

	// PreviousTotalDownloads is the release-download baseline from the
	// prior run; the releases API reports lifetime totals, not deltas.
	PreviousTotalDownloads int `json:"previousTotalDownloads,omitempty"`

	// Latest repository gauges and display caches, replaced every run.
	Stars        int           `json:"stars"`
	Forks        int           `json:"forks"`
	OpenIssues   int           `json:"openIssues"`
	Referrers    []Referrer    `json:"referrers,omitempty"`
	PopularPaths []PopularPath `json:"popularPaths,omitempty"`

	// Legacy v1 fields: boolean seen-date sets per metric. Consumed by
	// the v1 -> v2 migration and cleared afterwards.
	LegacySeenCloneDates []Date `json:"lastSeenDates,omitempty"`
	LegacySeenViewDates  []Date `json:"lastSeenViewDates,omitempty"`
}

// NewDocument creates an empty accumulation document at the current
// schema version. trackingStart is the date of the first run; created is
// the repository creation date used to reject pre-origin noise.
func NewDocument(trackingStart, created Date) *Document {
	return &Document{
		SchemaVersion:  CurrentSchemaVersion,
		TrackingStart:  trackingStart,
		SubjectCreated: created,
		Totals:         make(map[Metric]int),
		LastSeen:       make(map[Metric]map[Date]int),
		DailyHistory:   []DailyRecord{},
	}
}

// Clone returns a deep copy of the document. Reconciliation operates on
// a copy so a failed run can never leave the caller's document half
// mutated.
func (d *Document) Clone() *Document {
	out := *d

	out.Totals = make(map[Metric]int, len(d.Totals))
	for m, v := range d.Totals {
		out.Totals[m] = v
	}

	out.LastSeen = make(map[Metric]map[Date]int, len(d.LastSeen))
	for m, dates := range d.LastSeen {
		inner := make(map[Date]int, len(dates))
		for dt, v := range dates {
			inner[dt] = v
		}

		out.LastSeen[m] = inner
	}

	out.DailyHistory = make([]DailyRecord, len(d.DailyHistory))
	for i, rec := range d.DailyHistory {
		out.DailyHistory[i] = cloneRecord(rec)
	}

	if d.PreviousOrganic != nil {
		prev := *d.PreviousOrganic
		out.PreviousOrganic = &prev
	}

	out.Referrers = slices.Clone(d.Referrers)
	out.PopularPaths = slices.Clone(d.PopularPaths)
	out.LegacySeenCloneDates = slices.Clone(d.LegacySeenCloneDates)
	out.LegacySeenViewDates = slices.Clone(d.LegacySeenViewDates)

	return &out
}

func cloneRecord(rec DailyRecord) DailyRecord {
	out := rec

	if rec.Counts != nil {
		out.Counts = make(map[Metric]int, len(rec.Counts))
		for m, v := range rec.Counts {
			out.Counts[m] = v
		}
	}

	if rec.Uniques != nil {
		out.Uniques = make(map[Metric]int, len(rec.Uniques))
		for m, v := range rec.Uniques {
			out.Uniques[m] = v
		}
	}

	out.Organic = cloneIntPtr(rec.Organic)
	out.OrganicUnique = cloneIntPtr(rec.OrganicUnique)
	out.Stars = cloneIntPtr(rec.Stars)
	out.Forks = cloneIntPtr(rec.Forks)
	out.OpenIssues = cloneIntPtr(rec.OpenIssues)

	return out
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}

	v := *p

	return &v
}

// Record returns the ledger entry for date, or nil if absent.
func (d *Document) Record(date Date) *DailyRecord {
	for i := range d.DailyHistory {
		if d.DailyHistory[i].Date == date {
			return &d.DailyHistory[i]
		}
	}

	return nil
}

// ensureRecord returns the ledger entry for date, inserting an empty one
// in date order if none exists.
func (d *Document) ensureRecord(date Date) *DailyRecord {
	idx, found := slices.BinarySearchFunc(d.DailyHistory, date, func(r DailyRecord, target Date) int {
		switch {
		case r.Date < target:
			return -1
		case r.Date > target:
			return 1
		default:
			return 0
		}
	})
	if found {
		return &d.DailyHistory[idx]
	}

	d.DailyHistory = slices.Insert(d.DailyHistory, idx, DailyRecord{Date: date})

	return &d.DailyHistory[idx]
}

// lastSeen returns the dedup baseline for (m, date), or 0 if never seen.
func (d *Document) lastSeen(m Metric, date Date) int {
	return d.LastSeen[m][date]
}

// setLastSeen raises the dedup baseline for (m, date). The baseline is
// monotonically non-decreasing for a fixed (metric, date) pair.
func (d *Document) setLastSeen(m Metric, date Date, observed int) {
	if d.LastSeen == nil {
		d.LastSeen = make(map[Metric]map[Date]int)
	}

	dates := d.LastSeen[m]
	if dates == nil {
		dates = make(map[Date]int)
		d.LastSeen[m] = dates
	}

	if existing, ok := dates[date]; !ok || observed > existing {
		dates[date] = observed
	}
}

// addTotal adds a non-negative delta to a running total.
func (d *Document) addTotal(m Metric, delta int) {
	if delta <= 0 {
		return
	}

	if d.Totals == nil {
		d.Totals = make(map[Metric]int)
	}

	d.Totals[m] += delta
}

// ledgerValue returns the record's contribution to metric m, reporting
// whether the value has been observed at all.
func ledgerValue(rec *DailyRecord, m Metric) (int, bool) {
	switch m {
	case MetricUniqueClones:
		v, ok := rec.Uniques[MetricClones]

		return v, ok
	case MetricUniqueViews:
		v, ok := rec.Uniques[MetricViews]

		return v, ok
	case MetricOrganicClones:
		if rec.Organic == nil {
			return 0, false
		}

		return *rec.Organic, true
	case MetricOrganicUnique:
		if rec.OrganicUnique == nil {
			return 0, false
		}

		return *rec.OrganicUnique, true
	default:
		v, ok := rec.Counts[m]

		return v, ok
	}
}
