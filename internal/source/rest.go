package source

import (
	"context"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/gyeh/refload/internal/config"
	"github.com/gyeh/refload/internal/model"
)

const (
	defaultPageSize   = 1000
	defaultMaxRecords = 10000
)

// REST pages through an open-data endpoint returning JSON arrays, using
// Socrata-style limit/offset parameters by default.
type REST struct {
	name        string
	entity      model.EntityType
	client      *resty.Client
	url         string
	query       map[string]string
	limitParam  string
	offsetParam string
	pageSize    int
	maxRecords  int
	log         zerolog.Logger
}

// NewREST builds a REST adapter from its configuration.
func NewREST(entity model.EntityType, ac config.AdapterConfig, log zerolog.Logger) *REST {
	a := &REST{
		name:        ac.Name,
		entity:      entity,
		client:      newClient(ac.Timeout),
		url:         ac.URL,
		query:       ac.Query,
		limitParam:  ac.LimitParam,
		offsetParam: ac.OffsetParam,
		pageSize:    ac.PageSize,
		maxRecords:  ac.MaxRecords,
		log:         log,
	}
	if a.limitParam == "" {
		a.limitParam = "$limit"
	}
	if a.offsetParam == "" {
		a.offsetParam = "$offset"
	}
	if a.pageSize <= 0 {
		a.pageSize = defaultPageSize
	}
	if a.maxRecords <= 0 {
		a.maxRecords = defaultMaxRecords
	}
	return a
}

func (a *REST) Name() string   { return a.name }
func (a *REST) Fallback() bool { return false }

// Fetch reads pages until a short page or the record cap. Any failing page
// discards the whole result.
func (a *REST) Fetch(ctx context.Context) []model.Record {
	if a.url == "" {
		a.log.Info().Msg("source not configured, skipping")
		return nil
	}

	var out []model.Record
	rejected := 0
	for offset := 0; offset < a.maxRecords; offset += a.pageSize {
		limit := min(a.pageSize, a.maxRecords-offset)

		var page []map[string]any
		resp, err := a.client.R().
			SetContext(ctx).
			SetQueryParams(a.query).
			SetQueryParam(a.limitParam, strconv.Itoa(limit)).
			SetQueryParam(a.offsetParam, strconv.Itoa(offset)).
			SetHeader("Accept", "application/json").
			ForceContentType("application/json").
			SetResult(&page).
			Get(a.url)
		if err != nil {
			a.log.Warn().Err(err).Int("offset", offset).Msg("fetch failed")
			return nil
		}
		if resp.IsError() {
			a.log.Warn().Int("status", resp.StatusCode()).Int("offset", offset).Msg("fetch rejected")
			return nil
		}

		got := len(page)
		if got > limit {
			a.log.Debug().Int("offset", offset).Int("page", got).Int("limit", limit).Msg("origin ignored limit, truncating page")
			page = page[:limit]
		}
		for _, raw := range page {
			var n int
			out, n = keep(out, RecordFrom(a.entity, raw))
			rejected += n
		}
		a.log.Debug().Int("offset", offset).Int("page", got).Msg("page fetched")
		if got < limit {
			break
		}
	}

	a.log.Info().Int("records", len(out)).Int("rejected", rejected).Msg("source fetched")
	return out
}
