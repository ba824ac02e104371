// Package aggregate runs the source adapters of one entity type in
// priority order and merges their output.
package aggregate

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gyeh/refload/internal/model"
	"github.com/gyeh/refload/internal/source"
)

var tracer = otel.Tracer("github.com/gyeh/refload/internal/aggregate")

// Aggregator fetches from Adapters in order. Primary adapters stop once
// Sufficient records have accumulated (0 means never stop early). Fallback
// adapters run only while fewer than max(Sufficient, Minimum) records have
// accumulated.
type Aggregator struct {
	Adapters   []source.Adapter
	Sufficient int
	Minimum    int
	Log        zerolog.Logger
}

// Result is the merged output of one aggregation.
type Result struct {
	Records   []model.Record // unique by natural key, first-seen order
	Fetched   int            // raw count across sources, before dedup
	PerSource []model.SourceCount
}

// Run fetches and deduplicates. It never fails: sources that error
// contribute nothing.
func (a *Aggregator) Run(ctx context.Context) Result {
	var all []model.Record
	var res Result

	for _, ad := range a.Adapters {
		if ad.Fallback() {
			continue
		}
		if a.Sufficient > 0 && len(all) >= a.Sufficient {
			a.Log.Info().Str("source", ad.Name()).Int("accumulated", len(all)).Msg("sufficient records, skipping source")
			continue
		}
		if ctx.Err() != nil {
			break
		}
		all = a.fetch(ctx, ad, all, &res)
	}

	floor := max(a.Sufficient, a.Minimum)
	for _, ad := range a.Adapters {
		if !ad.Fallback() {
			continue
		}
		if len(all) >= floor {
			break
		}
		if ctx.Err() != nil {
			break
		}
		a.Log.Info().Str("source", ad.Name()).Int("accumulated", len(all)).Int("threshold", floor).Msg("below threshold, using fallback")
		all = a.fetch(ctx, ad, all, &res)
	}

	res.Fetched = len(all)
	res.Records = Dedup(all)
	return res
}

func (a *Aggregator) fetch(ctx context.Context, ad source.Adapter, all []model.Record, res *Result) []model.Record {
	ctx, span := tracer.Start(ctx, "source.Fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("source.name", ad.Name()),
			attribute.Bool("source.fallback", ad.Fallback()),
		),
	)
	defer span.End()

	recs := ad.Fetch(ctx)
	span.SetAttributes(attribute.Int("source.records", len(recs)))
	res.PerSource = append(res.PerSource, model.SourceCount{Source: ad.Name(), Count: len(recs)})
	return append(all, recs...)
}

// Dedup keeps the first record seen for each natural key, preserving
// order. Records with an empty key are dropped.
func Dedup(recs []model.Record) []model.Record {
	seen := make(map[string]struct{}, len(recs))
	out := make([]model.Record, 0, len(recs))
	for _, r := range recs {
		k := r.NaturalKey()
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
