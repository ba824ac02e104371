package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gyeh/refload/internal/model"
	embedsql "github.com/gyeh/refload/internal/sql"
)

// RecordRun stores a finished run and its per-source counts in
// ingest.runs / ingest.run_sources. Recording the same run twice is a no-op.
func (s *Store) RecordRun(ctx context.Context, r *model.RunReport) error {
	id, err := uuid.Parse(r.RunID)
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}
	runID := pgtype.UUID{Bytes: id, Valid: true}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, embedsql.InsertRun,
		runID, r.Entity, r.Source, r.FileSHA256,
		r.FetchedTotal, r.UniqueTotal, r.InsertedCount, r.UpdatedCount, r.ErroredCount,
		r.StartedAt, r.Elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	if len(r.PerSource) > 0 {
		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"ingest", "run_sources"},
			runSourceColumns,
			newSourceRows(runID, r.PerSource),
		)
		if err != nil {
			return fmt.Errorf("copy run sources: %w", err)
		}
		s.log.Debug().Int64("rows", n).Str("run_id", r.RunID).Msg("run sources recorded")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LatestRun returns the most recent recorded run of entity, or nil.
func (s *Store) LatestRun(ctx context.Context, entity model.EntityType) (*model.RunReport, error) {
	var (
		r         model.RunReport
		elapsedMS int64
	)
	err := s.pool.QueryRow(ctx, embedsql.LatestRun, entity.Name).Scan(
		&r.RunID, &r.Entity, &r.Source, &r.FileSHA256,
		&r.FetchedTotal, &r.UniqueTotal, &r.InsertedCount, &r.UpdatedCount, &r.ErroredCount,
		&r.StartedAt, &elapsedMS,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	r.Elapsed = time.Duration(elapsedMS) * time.Millisecond

	id, err := uuid.Parse(r.RunID)
	if err != nil {
		return nil, fmt.Errorf("run id: %w", err)
	}
	rows, err := s.pool.Query(ctx, embedsql.RunSources, pgtype.UUID{Bytes: id, Valid: true})
	if err != nil {
		return nil, fmt.Errorf("run sources: %w", err)
	}
	r.PerSource, err = pgx.CollectRows(rows, pgx.RowToStructByPos[model.SourceCount])
	if err != nil {
		return nil, fmt.Errorf("run sources: %w", err)
	}
	return &r, nil
}
