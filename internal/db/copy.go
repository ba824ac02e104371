package db

import (
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gyeh/refload/internal/model"
)

var runSourceColumns = []string{"run_id", "position", "source", "count"}

// sourceRows implements pgx.CopyFromSource over the per-source counts of
// one run, in adapter order.
type sourceRows struct {
	runID  pgtype.UUID
	counts []model.SourceCount
	pos    int
}

func newSourceRows(runID pgtype.UUID, counts []model.SourceCount) *sourceRows {
	return &sourceRows{runID: runID, counts: counts, pos: -1}
}

// Next advances to the next count. Returns false after the last one.
func (s *sourceRows) Next() bool {
	s.pos++
	return s.pos < len(s.counts)
}

// Values returns the current count in COPY column order.
func (s *sourceRows) Values() ([]any, error) {
	c := s.counts[s.pos]
	return []any{s.runID, int32(s.pos), c.Source, int32(c.Count)}, nil
}

func (s *sourceRows) Err() error {
	return nil
}

// Compile-time check that sourceRows satisfies the interface.
var _ pgx.CopyFromSource = (*sourceRows)(nil)
