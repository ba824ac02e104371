package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/refload/internal/ingest"
	"github.com/gyeh/refload/internal/model"
)

const refSchema = "ref"

var dialect = goqu.Dialect("postgres")

// Store persists reference records into the ref schema. It implements
// ingest.Store and ingest.RunRecorder.
type Store struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewStore wraps an open pool.
func NewStore(pool *pgxpool.Pool, log zerolog.Logger) *Store {
	return &Store{pool: pool, log: log}
}

func table(entity model.EntityType) exp.IdentifierExpression {
	return goqu.S(refSchema).Table(entity.Table)
}

// UpsertBatch writes recs in one transaction. Each record runs inside its
// own savepoint so a rejected row is rolled back without aborting the rest
// of the batch. Only the columns present in Record.Fields are written on
// conflict; curated columns such as embedding are left untouched.
func (s *Store) UpsertBatch(ctx context.Context, entity model.EntityType, recs []model.Record) ([]model.UpsertResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin batch: %v", ingest.ErrStoreUnavailable, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	results := make([]model.UpsertResult, len(recs))
	for i, rec := range recs {
		results[i].Key = rec.NaturalKey()
		inserted, err := s.upsertOne(ctx, tx, entity, rec)
		if err != nil {
			if tx.Conn().IsClosed() {
				return nil, fmt.Errorf("%w: %v", ingest.ErrStoreUnavailable, err)
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			results[i].Err = err
			continue
		}
		results[i].Inserted = inserted
	}

	if err := tx.Commit(ctx); err != nil {
		if tx.Conn().IsClosed() {
			return nil, fmt.Errorf("%w: commit batch: %v", ingest.ErrStoreUnavailable, err)
		}
		return nil, fmt.Errorf("commit batch: %w", err)
	}
	return results, nil
}

func (s *Store) upsertOne(ctx context.Context, tx pgx.Tx, entity model.EntityType, rec model.Record) (bool, error) {
	query, args, err := upsertSQL(entity, rec)
	if err != nil {
		return false, err
	}

	sp, err := tx.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("savepoint: %w", err)
	}
	var inserted bool
	if err := sp.QueryRow(ctx, query, args...).Scan(&inserted); err != nil {
		_ = sp.Rollback(ctx)
		return false, fmt.Errorf("upsert %s %q: %w", entity, rec.NaturalKey(), err)
	}
	if err := sp.Commit(ctx); err != nil {
		return false, fmt.Errorf("release savepoint: %w", err)
	}
	return inserted, nil
}

// upsertSQL builds INSERT ... ON CONFLICT (key) DO UPDATE ... RETURNING
// (xmax = 0). xmax is zero only for a freshly inserted tuple.
func upsertSQL(entity model.EntityType, rec model.Record) (string, []any, error) {
	row := goqu.Record{}
	set := goqu.Record{"updated_at": goqu.L("now()")}
	for col, v := range rec.Fields() {
		val, err := columnValue(v)
		if err != nil {
			return "", nil, fmt.Errorf("column %s: %w", col, err)
		}
		row[col] = val
		if col != entity.KeyColumn {
			set[col] = goqu.L("EXCLUDED." + col)
		}
	}

	query, args, err := dialect.Insert(table(entity)).
		Rows(row).
		OnConflict(goqu.DoUpdate(entity.KeyColumn, set)).
		Returning(goqu.L("(xmax = 0)")).
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build upsert: %w", err)
	}
	return query, args, nil
}

// columnValue unwraps optional fields into driver values. String lists are
// stored as JSONB arrays.
func columnValue(v any) (any, error) {
	switch t := v.(type) {
	case *string:
		if t == nil {
			return nil, nil
		}
		return *t, nil
	case *float64:
		if t == nil {
			return nil, nil
		}
		return *t, nil
	case *int:
		if t == nil {
			return nil, nil
		}
		return *t, nil
	case *bool:
		if t == nil {
			return nil, nil
		}
		return *t, nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		return *t, nil
	case []string:
		if t == nil {
			t = []string{}
		}
		b, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return goqu.Cast(goqu.V(string(b)), "JSONB"), nil
	}
	return v, nil
}

// Truncate removes every row of entity's table.
func (s *Store) Truncate(ctx context.Context, entity model.EntityType) error {
	query, _, err := dialect.Truncate(table(entity)).ToSQL()
	if err != nil {
		return fmt.Errorf("build truncate: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("truncate %s: %w", entity.Table, err)
	}
	s.log.Info().Str("table", refSchema+"."+entity.Table).Msg("table truncated")
	return nil
}

// Lookup returns the stored row for key as a column map.
func (s *Store) Lookup(ctx context.Context, entity model.EntityType, key string) (map[string]any, bool, error) {
	query, args, err := dialect.From(table(entity)).
		Where(goqu.Ex{entity.KeyColumn: key}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, false, fmt.Errorf("build lookup: %w", err)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("lookup %s %q: %w", entity, key, err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup %s %q: %w", entity, key, err)
	}
	return row, true, nil
}

var (
	_ ingest.Store       = (*Store)(nil)
	_ ingest.RunRecorder = (*Store)(nil)
)
