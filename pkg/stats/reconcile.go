package stats

import (
	"fmt"

	"github.com/google/uuid"
)

// Report describes what one reconciliation run changed.
type Report struct {
	// RunID tags the run in logs and archives.
	RunID string `json:"runId"`

	// Deltas are the amounts added to totals this run, per metric.
	// Metrics with a zero delta are omitted.
	Deltas map[Metric]int `json:"deltas"`

	// Repairs are the forward-only corrections the integrity pass
	// applied, per metric. Normally empty.
	Repairs map[Metric]int `json:"repairs,omitempty"`

	// Migrated reports the schema version the document was read at,
	// when it was below the current version.
	MigratedFrom int `json:"migratedFrom,omitempty"`

	// Pruned holds the ledger entries the retention prune dropped this
	// run. They are no longer in the document; an archiver must roll
	// them up now or lose them. Not part of the serialized report.
	Pruned []DailyRecord `json:"-"`
}

// Reconcile runs one full reconciliation pass: schema migration, delta
// merge, organic estimation, integrity repair. It returns a new document
// and never mutates its input, so a failed run leaves the caller's copy
// exactly as persisted.
//
// The snapshot is validated first; a malformed snapshot aborts before
// any state is touched (the stored document stays authoritative).
func Reconcile(doc *Document, snapshot Snapshot, automated AutomatedActivity, opts Options) (*Document, *Report, error) {
	opts = opts.withDefaults()

	if opts.Today == "" || !opts.Today.Valid() {
		return nil, nil, fmt.Errorf("reconcile: invalid evaluation date %q: %w", opts.Today, ErrInvalidDate)
	}

	if err := snapshot.Validate(); err != nil {
		return nil, nil, fmt.Errorf("reconcile: %w", err)
	}

	report := &Report{
		RunID:  uuid.NewString(),
		Deltas: make(map[Metric]int),
	}

	next := doc.Clone()

	if next.SchemaVersion != 0 && next.SchemaVersion < CurrentSchemaVersion {
		report.MigratedFrom = next.SchemaVersion
	}

	if err := Migrate(next); err != nil {
		return nil, nil, fmt.Errorf("reconcile: %w", err)
	}

	deltas, pruned := Merge(next, snapshot, opts)
	for m, delta := range deltas {
		report.Deltas[m] += delta
	}

	report.Pruned = pruned

	for m, delta := range EstimateOrganic(next, automated, opts) {
		report.Deltas[m] += delta
	}

	report.Repairs = Repair(next)

	return next, report, nil
}
