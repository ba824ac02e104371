// Package memstore is an in-memory record store used for dry runs and
// tests. Rows are column maps keyed by natural key, merged on upsert the
// way the Postgres store merges columns.
package memstore

import (
	"context"
	"maps"
	"sync"

	"github.com/gyeh/refload/internal/model"
)

// Store is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	tables map[string]map[string]map[string]any
	runs   []model.RunReport

	// FailRecord, when set, is consulted per record; a non-nil error marks
	// that record as failed.
	FailRecord func(rec model.Record) error
	// FailBatch, when set, is consulted per batch; a non-nil error fails
	// the whole batch.
	FailBatch func(entity model.EntityType, recs []model.Record) error
}

// New returns an empty store.
func New() *Store {
	return &Store{tables: make(map[string]map[string]map[string]any)}
}

func (s *Store) table(entity model.EntityType) map[string]map[string]any {
	t, ok := s.tables[entity.Name]
	if !ok {
		t = make(map[string]map[string]any)
		s.tables[entity.Name] = t
	}
	return t
}

// UpsertBatch implements ingest.Store.
func (s *Store) UpsertBatch(ctx context.Context, entity model.EntityType, recs []model.Record) ([]model.UpsertResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.FailBatch != nil {
		if err := s.FailBatch(entity, recs); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(entity)
	results := make([]model.UpsertResult, len(recs))
	for i, rec := range recs {
		key := rec.NaturalKey()
		results[i].Key = key
		if s.FailRecord != nil {
			if err := s.FailRecord(rec); err != nil {
				results[i].Err = err
				continue
			}
		}
		row, exists := t[key]
		if !exists {
			row = make(map[string]any)
			t[key] = row
		}
		maps.Copy(row, rec.Fields())
		results[i].Inserted = !exists
	}
	return results, nil
}

// Truncate implements ingest.Store.
func (s *Store) Truncate(ctx context.Context, entity model.EntityType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, entity.Name)
	return nil
}

// Lookup returns a copy of the row stored under key.
func (s *Store) Lookup(ctx context.Context, entity model.EntityType, key string) (map[string]any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.tables[entity.Name][key]
	if !ok {
		return nil, false, nil
	}
	return maps.Clone(row), true, nil
}

// Set writes column values outside ingestion, e.g. a curated embedding.
func (s *Store) Set(entity model.EntityType, key string, cols map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(entity)
	row, ok := t[key]
	if !ok {
		row = make(map[string]any)
		t[key] = row
	}
	maps.Copy(row, cols)
}

// Count returns the number of rows of entity.
func (s *Store) Count(entity model.EntityType) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[entity.Name])
}

// RecordRun implements ingest.RunRecorder.
func (s *Store) RecordRun(ctx context.Context, r *model.RunReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, *r)
	return nil
}

// Runs returns the recorded run reports, oldest first.
func (s *Store) Runs() []model.RunReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.RunReport(nil), s.runs...)
}

// LatestRun returns the most recently recorded run of entity, or nil.
func (s *Store) LatestRun(ctx context.Context, entity model.EntityType) (*model.RunReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.runs) - 1; i >= 0; i-- {
		if s.runs[i].Entity == entity.Name {
			r := s.runs[i]
			return &r, nil
		}
	}
	return nil, nil
}
