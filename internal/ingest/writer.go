package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/refload/internal/model"
)

// ErrStoreUnavailable marks store failures that make further batches
// pointless (connection refused, pool closed). Stores wrap it.
var ErrStoreUnavailable = errors.New("store unavailable")

// Store persists records by natural key.
type Store interface {
	// UpsertBatch inserts or updates recs and returns one result per
	// record, in order. A non-nil error means the whole batch failed.
	UpsertBatch(ctx context.Context, entity model.EntityType, recs []model.Record) ([]model.UpsertResult, error)
	// Truncate removes every row of entity.
	Truncate(ctx context.Context, entity model.EntityType) error
}

// WriteResult holds the counters of one Write call.
type WriteResult struct {
	Inserted int
	Updated  int
	Errored  int
}

// Writer upserts records in fixed-size batches, isolating failures per
// record and per batch.
type Writer struct {
	Store     Store
	BatchSize int
	Log       zerolog.Logger
}

// Write persists recs. Record and batch failures are counted and the
// write continues; it returns an error only when the store is unavailable
// or ctx is done, together with the counts so far.
func (w *Writer) Write(ctx context.Context, entity model.EntityType, recs []model.Record) (WriteResult, error) {
	var res WriteResult
	size := w.BatchSize
	if size <= 0 {
		size = 1000
	}

	start := time.Now()
	for from := 0; from < len(recs); from += size {
		to := min(from+size, len(recs))
		batch := make([]model.Record, 0, to-from)
		for _, r := range recs[from:to] {
			if r.NaturalKey() == "" {
				res.Errored++
				continue
			}
			batch = append(batch, r)
		}

		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("write %s: %w", entity, err)
		}
		if len(batch) > 0 {
			results, err := w.Store.UpsertBatch(ctx, entity, batch)
			switch {
			case err == nil:
				w.tally(&res, batch, results)
			case errors.Is(err, ErrStoreUnavailable) || ctx.Err() != nil:
				return res, fmt.Errorf("write %s batch at %d: %w", entity, from, err)
			default:
				w.Log.Warn().Err(err).Int("offset", from).Int("batch_size", len(batch)).Msg("batch rejected")
				res.Errored += len(batch)
			}
		}

		w.Log.Info().
			Str("entity", entity.Name).
			Int("processed", to).
			Int("total", len(recs)).
			Int("errored", res.Errored).
			Float64("rows_per_sec", float64(to)/max(time.Since(start).Seconds(), 1e-9)).
			Msg("batch written")
	}
	return res, nil
}

func (w *Writer) tally(res *WriteResult, batch []model.Record, results []model.UpsertResult) {
	for _, r := range results {
		switch {
		case r.Err != nil:
			res.Errored++
			w.Log.Debug().Err(r.Err).Str("key", r.Key).Msg("record rejected")
		case r.Inserted:
			res.Inserted++
		default:
			res.Updated++
		}
	}
	// Records the store did not report on are failures.
	if missing := len(batch) - len(results); missing > 0 {
		res.Errored += missing
	}
}
