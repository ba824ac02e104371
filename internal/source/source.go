// Package source fetches raw reference data from external origins and
// emits canonical records. Adapters never fail: a broken origin logs and
// yields nothing, and the aggregator moves on to the next one.
package source

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/gyeh/refload/internal/config"
	"github.com/gyeh/refload/internal/model"
)

// Adapter fetches one entity type from one origin.
type Adapter interface {
	Name() string
	// Fallback adapters only run when the primary sources fell short.
	Fallback() bool
	Fetch(ctx context.Context) []model.Record
}

// Build creates the adapters of entity in the configured order. Unknown
// kinds are skipped with a warning; config validation rejects them first.
func Build(entity model.EntityType, cfgs []config.AdapterConfig, defaultTimeout time.Duration, log zerolog.Logger) []Adapter {
	out := make([]Adapter, 0, len(cfgs))
	for _, ac := range cfgs {
		if ac.Timeout == 0 {
			ac.Timeout = defaultTimeout
		}
		alog := log.With().Str("entity", entity.Name).Str("source", ac.Name).Logger()
		switch ac.Kind {
		case "rest":
			out = append(out, NewREST(entity, ac, alog))
		case "html":
			out = append(out, NewHTML(entity, ac, alog))
		case "static":
			out = append(out, NewStatic(entity, alog))
		default:
			alog.Warn().Str("kind", ac.Kind).Msg("unknown adapter kind, skipping")
		}
	}
	return out
}

func newClient(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	return resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", "refload/1.0")
}

// Complete reports whether r carries every required attribute of its
// entity: the natural key, and for drugs the active ingredient.
func Complete(r model.Record) bool {
	if r == nil || r.NaturalKey() == "" {
		return false
	}
	if d, ok := r.(*model.DrugRecord); ok && d.ActiveIngredient == "" {
		return false
	}
	return true
}

// keep appends complete records and counts the rest.
func keep(out []model.Record, recs ...model.Record) ([]model.Record, int) {
	rejected := 0
	for _, r := range recs {
		if !Complete(r) {
			rejected++
			continue
		}
		out = append(out, r)
	}
	return out, rejected
}
