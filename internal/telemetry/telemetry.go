// Package telemetry wires up the end-of-run metrics summary: a
// stdoutmetric exporter writing to stderr (stdout is reserved for the
// single-line answer spec.md §6 requires), following the otel Handler
// pattern the rest of the corpus uses to wrap counters/histograms/gauges.
package telemetry

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Recorder exposes the handful of counters cyclefind reports at the end of
// a run.
type Recorder struct {
	meter otelmetric.Meter

	groupsProcessed otelmetric.Int64Counter
	cyclesFound     otelmetric.Int64Counter
	ceilingHits     otelmetric.Int64Counter
}

// Setup installs a process-wide MeterProvider that exports one summary
// record to stderr on Shutdown, and returns a Recorder plus the shutdown
// func the caller must run before exiting.
func Setup(ctx context.Context) (*Recorder, func(context.Context) error, error) {
	exp, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr))
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
	)
	otel.SetMeterProvider(provider)

	meter := provider.Meter("cyclefind/detector")

	groupsProcessed, err := meter.Int64Counter("cyclefind.groups_processed",
		otelmetric.WithDescription("groups (claim_id, status_code) analyzed"))
	if err != nil {
		return nil, nil, err
	}
	cyclesFound, err := meter.Int64Counter("cyclefind.cycles_found",
		otelmetric.WithDescription("groups whose graph contained at least one cycle"))
	if err != nil {
		return nil, nil, err
	}
	ceilingHits, err := meter.Int64Counter("cyclefind.ceiling_hits",
		otelmetric.WithDescription("groups where the DFS node-expansion ceiling was hit"))
	if err != nil {
		return nil, nil, err
	}

	return &Recorder{
		meter:           meter,
		groupsProcessed: groupsProcessed,
		cyclesFound:     cyclesFound,
		ceilingHits:     ceilingHits,
	}, provider.Shutdown, nil
}

// RecordSummary records one run's final tallies.
func (r *Recorder) RecordSummary(ctx context.Context, groups, cyclesFound, ceilingHits int64) {
	r.groupsProcessed.Add(ctx, groups)
	r.cyclesFound.Add(ctx, cyclesFound)
	r.ceilingHits.Add(ctx, ceilingHits)
}
