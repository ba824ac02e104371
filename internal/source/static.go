package source

import (
	"context"
	"embed"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/gyeh/refload/internal/model"
)

//go:embed static/*.json
var staticFS embed.FS

// Static serves the hand-curated table bundled with the binary. It is
// always a fallback.
type Static struct {
	entity model.EntityType
	log    zerolog.Logger
}

// NewStatic builds the fallback adapter of entity.
func NewStatic(entity model.EntityType, log zerolog.Logger) *Static {
	return &Static{entity: entity, log: log}
}

func (a *Static) Name() string   { return "static" }
func (a *Static) Fallback() bool { return true }

func (a *Static) Fetch(ctx context.Context) []model.Record {
	data, err := staticFS.ReadFile("static/" + a.entity.Label + ".json")
	if err != nil {
		a.log.Info().Msg("no static table for entity")
		return nil
	}
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		a.log.Error().Err(err).Msg("static table is malformed")
		return nil
	}
	out, rejected := keep(nil, recordsFrom(a.entity, rows)...)
	a.log.Info().Int("records", len(out)).Int("rejected", rejected).Msg("source fetched")
	return out
}

func recordsFrom(entity model.EntityType, rows []map[string]any) []model.Record {
	out := make([]model.Record, 0, len(rows))
	for _, raw := range rows {
		out = append(out, RecordFrom(entity, raw))
	}
	return out
}
