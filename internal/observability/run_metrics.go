package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRunsTotal     = "ghtraf.runs.total"
	metricRunDuration   = "ghtraf.run.duration.seconds"
	metricDeltasTotal   = "ghtraf.deltas.total"
	metricRepairsTotal  = "ghtraf.repairs.total"
	metricAPICallsTotal = "ghtraf.github.requests.total"

	attrMetric = "metric"
	attrStatus = "status"

	// StatusOK and StatusError label run outcomes.
	StatusOK    = "ok"
	StatusError = "error"
)

// runDurationBoundaries covers runs from a cached no-op to a full
// collection that pages through weeks of workflow runs.
var runDurationBoundaries = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

// RunMetrics holds the OTel instruments for reconciliation runs.
type RunMetrics struct {
	runsTotal    metric.Int64Counter
	runDuration  metric.Float64Histogram
	deltasTotal  metric.Int64Counter
	repairsTotal metric.Int64Counter
	apiCalls     metric.Int64Counter
}

// NewRunMetrics creates the run instruments from the given provider.
func NewRunMetrics(mp metric.MeterProvider) (*RunMetrics, error) {
	b := newMetricBuilder(mp.Meter(meterName))

	rm := &RunMetrics{
		runsTotal:    b.counter(metricRunsTotal, "Completed reconciliation runs", "{run}"),
		runDuration:  b.histogram(metricRunDuration, "Reconciliation run duration in seconds", "s", runDurationBoundaries...),
		deltasTotal:  b.counter(metricDeltasTotal, "Counter increments applied to permanent totals", "{event}"),
		repairsTotal: b.counter(metricRepairsTotal, "Forward corrections applied to drifted totals", "{event}"),
		apiCalls:     b.counter(metricAPICallsTotal, "GitHub API requests issued", "{request}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return rm, nil
}

// RecordRun records one completed reconciliation run.
func (rm *RunMetrics) RecordRun(ctx context.Context, status string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String(attrStatus, status))

	rm.runsTotal.Add(ctx, 1, attrs)
	rm.runDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordDeltas records the per-metric increments a run applied.
func (rm *RunMetrics) RecordDeltas(ctx context.Context, deltas map[string]int) {
	for name, delta := range deltas {
		if delta == 0 {
			continue
		}

		rm.deltasTotal.Add(ctx, int64(delta), metric.WithAttributes(
			attribute.String(attrMetric, name),
		))
	}
}

// RecordRepairs records the per-metric corrections a run applied.
func (rm *RunMetrics) RecordRepairs(ctx context.Context, repairs map[string]int) {
	for name, amount := range repairs {
		if amount == 0 {
			continue
		}

		rm.repairsTotal.Add(ctx, int64(amount), metric.WithAttributes(
			attribute.String(attrMetric, name),
		))
	}
}

// RecordAPICall counts one GitHub API request.
func (rm *RunMetrics) RecordAPICall(ctx context.Context) {
	rm.apiCalls.Add(ctx, 1)
}
