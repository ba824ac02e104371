package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/refload/internal/model"
)

func TestUpsertMergesOwnedColumns(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Set(model.Diagnoses, "J00", map[string]any{"embedding": []float32{0.1, 0.2}})

	res, err := s.UpsertBatch(ctx, model.Diagnoses, []model.Record{
		&model.DiagnosisRecord{Code: "J00", Description: "Rinofaringitis aguda"},
		&model.DiagnosisRecord{Code: "J18.9", Description: "Neumonía"},
	})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.False(t, res[0].Inserted, "J00 existed")
	assert.True(t, res[1].Inserted)

	row, ok, err := s.Lookup(ctx, model.Diagnoses, "J00")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Rinofaringitis aguda", row["description"])
	assert.Equal(t, []float32{0.1, 0.2}, row["embedding"])
}

func TestFailureHooks(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.FailRecord = func(r model.Record) error {
		if r.NaturalKey() == "B" {
			return errors.New("duplicate")
		}
		return nil
	}

	res, err := s.UpsertBatch(ctx, model.Supplies, []model.Record{
		&model.SupplyRecord{Code: "A"},
		&model.SupplyRecord{Code: "B"},
	})
	require.NoError(t, err)
	assert.NoError(t, res[0].Err)
	assert.Error(t, res[1].Err)
	assert.Equal(t, 1, s.Count(model.Supplies))

	s.FailBatch = func(model.EntityType, []model.Record) error { return errors.New("malformed batch") }
	_, err = s.UpsertBatch(ctx, model.Supplies, []model.Record{&model.SupplyRecord{Code: "C"}})
	assert.Error(t, err)
	assert.Equal(t, 1, s.Count(model.Supplies))
}

func TestTruncate(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.UpsertBatch(ctx, model.Supplies, []model.Record{&model.SupplyRecord{Code: "A"}})
	require.NoError(t, err)
	require.NoError(t, s.Truncate(ctx, model.Supplies))
	assert.Zero(t, s.Count(model.Supplies))

	_, ok, err := s.Lookup(ctx, model.Supplies, "A")
	require.NoError(t, err)
	assert.False(t, ok)
}
