package stats

import (
	"errors"
	"fmt"
	"log/slog"
)

// Snapshot validation errors. A malformed snapshot aborts the run before
// any state is touched.
var (
	ErrNegativeCount = errors.New("snapshot count is negative")
	ErrInvalidDate   = errors.New("snapshot date is not a calendar date")
)

// Observation is one day of one metric as reported by the source API.
type Observation struct {
	// Count is the raw operation count for the day.
	Count int `json:"count"`

	// Uniques is the unique-actor count, nil when the source did not
	// report one. A reported 0 is meaningful (observed, zero actors)
	// and is carried as a non-nil pointer to 0.
	Uniques *int `json:"uniques,omitempty"`
}

// Snapshot is a rolling-window read of the source API: per metric, a
// sparse date -> observation map covering the trailing retention window.
// A date absent from the map was not reported this run; that means
// "unknown", never "zero", until the backfill pass proves otherwise.
type Snapshot map[Metric]map[Date]Observation

// Validate checks the snapshot's shape. Negative counts and malformed
// dates are fatal: they indicate a broken fetch, not a quiet day.
func (s Snapshot) Validate() error {
	for m, days := range s {
		for date, obs := range days {
			if !date.Valid() {
				return fmt.Errorf("metric %s date %q: %w", m, date, ErrInvalidDate)
			}

			if obs.Count < 0 {
				return fmt.Errorf("metric %s date %s count %d: %w", m, date, obs.Count, ErrNegativeCount)
			}

			if obs.Uniques != nil && *obs.Uniques < 0 {
				return fmt.Errorf("metric %s date %s uniques %d: %w", m, date, *obs.Uniques, ErrNegativeCount)
			}
		}
	}

	return nil
}

// AutomatedDay is one day of CI-attributable activity, derived from
// workflow execution metadata by a collaborator.
type AutomatedDay struct {
	// Checkouts counts CI-side repository clone operations.
	Checkouts int `json:"checkouts"`

	// Runs counts completed workflow runs; it bounds how many unique
	// cloners CI can plausibly account for.
	Runs int `json:"runs"`
}

// AutomatedActivity maps UTC calendar dates to that day's CI activity.
type AutomatedActivity map[Date]AutomatedDay

// Default engine parameters. The source retention window and ledger
// length are environment constants, overridable through Options.
const (
	DefaultWindowDays = 14
	DefaultRetainDays = 31

	// lastSeenGraceDays pads the dedup-baseline pruning horizon so a
	// date is only forgotten once it can no longer reappear in any
	// snapshot.
	lastSeenGraceDays = 2
)

// Options carries the engine parameters for one reconciliation.
type Options struct {
	// Today is the evaluation date (UTC). Required.
	Today Date

	// WindowDays is the source API's retention window length.
	WindowDays int

	// RetainDays bounds the daily ledger kept for display.
	RetainDays int

	// Logger receives non-fatal anomaly reports (dates outside the
	// window, pre-origin padding). Nil disables them.
	Logger *slog.Logger
}

// withDefaults fills unset options with the production defaults.
func (o Options) withDefaults() Options {
	if o.WindowDays <= 0 {
		o.WindowDays = DefaultWindowDays
	}

	if o.RetainDays <= 0 {
		o.RetainDays = DefaultRetainDays
	}

	return o
}

// windowStart returns the earliest date inside the nominal live window.
func (o Options) windowStart() Date {
	return o.Today.AddDays(-(o.WindowDays - 1))
}

func (o Options) log() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return o.Logger
}
