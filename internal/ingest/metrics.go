package ingest

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/gyeh/refload/internal/model"
)

// Instruments stay no-op until the host process installs a MeterProvider.
type instruments struct {
	fetched  metric.Int64Counter
	written  metric.Int64Counter
	duration metric.Float64Histogram
}

var meters = newInstruments()

func newInstruments() instruments {
	m := otel.Meter("github.com/gyeh/refload/internal/ingest")
	var in instruments
	in.fetched, _ = m.Int64Counter("refload.records.fetched",
		metric.WithDescription("Records fetched from sources or files, before dedup"))
	in.written, _ = m.Int64Counter("refload.records.written",
		metric.WithDescription("Records persisted, by outcome"))
	in.duration, _ = m.Float64Histogram("refload.run.duration",
		metric.WithDescription("Ingestion run duration"),
		metric.WithUnit("s"))
	return in
}

func (in instruments) record(ctx context.Context, r *model.RunReport) {
	entity := attribute.String("entity", r.Entity)
	in.fetched.Add(ctx, int64(r.FetchedTotal), metric.WithAttributes(entity))
	for outcome, n := range map[string]int{
		"inserted": r.InsertedCount,
		"updated":  r.UpdatedCount,
		"errored":  r.ErroredCount,
	} {
		in.written.Add(ctx, int64(n), metric.WithAttributes(entity, attribute.String("outcome", outcome)))
	}
	in.duration.Record(ctx, r.Elapsed.Seconds(), metric.WithAttributes(entity))
}
