package ingest

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gyeh/refload/internal/model"
)

// Locker serializes runs of one entity type across processes.
type Locker interface {
	Lock(ctx context.Context, entity model.EntityType) (func(context.Context) error, error)
}

// ReportSink receives every finished run report.
type ReportSink interface {
	PutReport(ctx context.Context, r *model.RunReport) error
}

// Guarded runs fn under the entity lock and publishes its report. A nil
// locker or sink is skipped. Publishing failures are logged, not returned.
func Guarded(ctx context.Context, locker Locker, sink ReportSink, log zerolog.Logger, entity model.EntityType,
	fn func(context.Context) (*model.RunReport, error)) (*model.RunReport, error) {
	if locker != nil {
		unlock, err := locker.Lock(ctx, entity)
		if err != nil {
			return nil, &PipelineError{Phase: PhasePreflight, Err: err}
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				log.Warn().Err(err).Str("entity", entity.Name).Msg("run lock not released")
			}
		}()
	}

	report, err := fn(ctx)
	if report != nil && sink != nil {
		if perr := sink.PutReport(context.WithoutCancel(ctx), report); perr != nil {
			log.Warn().Err(perr).Str("entity", entity.Name).Msg("report not cached (non-fatal)")
		}
	}
	return report, err
}
