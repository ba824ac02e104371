package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/refload/internal/aggregate"
	"github.com/gyeh/refload/internal/config"
	"github.com/gyeh/refload/internal/fileread"
	"github.com/gyeh/refload/internal/model"
	"github.com/gyeh/refload/internal/normalize"
	"github.com/gyeh/refload/internal/source"
)

// Pipeline phases, reported in PipelineError.
const (
	PhasePreflight = "preflight"
	PhaseFetch     = "fetch"
	PhaseRead      = "read"
	PhasePersist   = "persist"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// RunRecorder is implemented by stores that keep run history.
type RunRecorder interface {
	RecordRun(ctx context.Context, r *model.RunReport) error
}

// Fetch runs the configured adapters of entity and returns the merged,
// deduplicated records without writing anything.
func Fetch(ctx context.Context, log zerolog.Logger, cfg *config.Config, entity model.EntityType) (aggregate.Result, error) {
	if !entity.Scrapeable {
		return aggregate.Result{}, &PipelineError{Phase: PhasePreflight, Err: fmt.Errorf("%s has no external sources, use import", entity)}
	}
	ec := cfg.Entity(entity)
	agg := aggregate.Aggregator{
		Adapters:   source.Build(entity, ec.Adapters, cfg.Pipeline.Timeout, log),
		Sufficient: ec.Sufficient,
		Minimum:    ec.Minimum,
		Log:        log.With().Str("entity", entity.Name).Logger(),
	}
	if len(agg.Adapters) == 0 {
		return aggregate.Result{}, &PipelineError{Phase: PhasePreflight, Err: fmt.Errorf("no adapters configured for %s", entity)}
	}

	log.Info().Str("entity", entity.Name).Int("adapters", len(agg.Adapters)).Msg("fetching sources")
	res := agg.Run(ctx)
	if err := ctx.Err(); err != nil {
		return res, &PipelineError{Phase: PhaseFetch, Err: err}
	}
	return res, nil
}

// Run executes a scrape run: fetch → dedup → (truncate) → write → report.
func Run(ctx context.Context, store Store, log zerolog.Logger, cfg *config.Config, entity model.EntityType) (*model.RunReport, error) {
	report := newReport(entity, "scrape")

	res, err := Fetch(ctx, log, cfg, entity)
	if err != nil {
		return nil, err
	}
	report.FetchedTotal = res.Fetched
	report.UniqueTotal = len(res.Records)
	report.PerSource = res.PerSource

	log.Info().
		Str("entity", entity.Name).
		Int("fetched", res.Fetched).
		Int("unique", len(res.Records)).
		Msg("sources merged")

	if err := persist(ctx, store, log, cfg, entity, res.Records, report); err != nil {
		return report, err
	}
	return finish(ctx, store, log, report), nil
}

// Import loads entity from a CSV, XLSX or Parquet file.
func Import(ctx context.Context, store Store, log zerolog.Logger, cfg *config.Config, entity model.EntityType) (*model.RunReport, error) {
	report := newReport(entity, cfg.FilePath)

	// Phase 1: Preflight
	if err := cfg.Validate(); err != nil {
		return nil, &PipelineError{Phase: PhasePreflight, Err: err}
	}
	sha, err := normalize.FileHash(cfg.FilePath)
	if err != nil {
		return nil, &PipelineError{Phase: PhasePreflight, Err: err}
	}
	report.FileSHA256 = sha

	// Phase 2: Read
	log.Info().Str("file", cfg.FilePath).Str("entity", entity.Name).Msg("reading file")
	table, err := fileread.Read(cfg.FilePath)
	if err != nil {
		return nil, &PipelineError{Phase: PhaseRead, Err: err}
	}
	schema, keyField := source.Schema(entity)
	if err := fileread.RequireColumn(table.Headers, schema, keyField); err != nil {
		return nil, &PipelineError{Phase: PhaseRead, Err: err}
	}
	rows := table.Rows

	recs := make([]model.Record, 0, len(rows))
	for _, raw := range rows {
		r := source.RecordFrom(entity, raw)
		if !source.Complete(r) {
			report.ErroredCount++
			continue
		}
		recs = append(recs, r)
	}
	unique := aggregate.Dedup(recs)
	report.FetchedTotal = len(rows)
	report.UniqueTotal = len(unique)
	report.PerSource = []model.SourceCount{{Source: "file", Count: len(rows)}}

	log.Info().
		Int("rows", len(rows)).
		Int("incomplete", report.ErroredCount).
		Int("unique", len(unique)).
		Msg("file parsed")

	// Phase 3: Persist
	if err := persist(ctx, store, log, cfg, entity, unique, report); err != nil {
		return report, err
	}
	return finish(ctx, store, log, report), nil
}

func newReport(entity model.EntityType, src string) *model.RunReport {
	return &model.RunReport{
		RunID:     uuid.NewString(),
		Entity:    entity.Name,
		Source:    src,
		StartedAt: time.Now(),
	}
}

func persist(ctx context.Context, store Store, log zerolog.Logger, cfg *config.Config, entity model.EntityType, recs []model.Record, report *model.RunReport) error {
	if cfg.Truncate {
		log.Warn().Str("entity", entity.Name).Msg("truncating before load")
		if err := store.Truncate(ctx, entity); err != nil {
			return &PipelineError{Phase: PhasePersist, Err: err}
		}
	}

	w := Writer{Store: store, BatchSize: cfg.BatchSize(), Log: log}
	res, err := w.Write(ctx, entity, recs)
	report.InsertedCount = res.Inserted
	report.UpdatedCount = res.Updated
	report.ErroredCount += res.Errored
	report.Elapsed = time.Since(report.StartedAt)
	if err != nil {
		return &PipelineError{Phase: PhasePersist, Err: err}
	}
	return nil
}

func finish(ctx context.Context, store Store, log zerolog.Logger, report *model.RunReport) *model.RunReport {
	report.Elapsed = time.Since(report.StartedAt)
	meters.record(ctx, report)

	if rr, ok := store.(RunRecorder); ok {
		if err := rr.RecordRun(ctx, report); err != nil {
			log.Warn().Err(err).Msg("run history not recorded (non-fatal)")
		}
	}

	log.Info().
		Str("run_id", report.RunID).
		Str("entity", report.Entity).
		Int("fetched", report.FetchedTotal).
		Int("unique", report.UniqueTotal).
		Int("inserted", report.InsertedCount).
		Int("updated", report.UpdatedCount).
		Int("errored", report.ErroredCount).
		Float64("rows_per_sec", report.ThroughputPerSecond()).
		Str("total_duration", report.Elapsed.String()).
		Msg("ingest run complete")
	return report
}
