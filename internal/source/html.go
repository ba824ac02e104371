package source

import (
	"bytes"
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/gyeh/refload/internal/config"
	"github.com/gyeh/refload/internal/model"
)

// HTML scrapes a published table. Columns maps cell position to canonical
// field; when it is empty the table header row supplies the keys.
type HTML struct {
	name         string
	entity       model.EntityType
	client       *resty.Client
	url          string
	rowSelector  string
	cellSelector string
	columns      []string
	log          zerolog.Logger
}

// NewHTML builds an HTML adapter from its configuration.
func NewHTML(entity model.EntityType, ac config.AdapterConfig, log zerolog.Logger) *HTML {
	a := &HTML{
		name:         ac.Name,
		entity:       entity,
		client:       newClient(ac.Timeout),
		url:          ac.URL,
		rowSelector:  ac.RowSelector,
		cellSelector: ac.CellSelector,
		columns:      ac.Columns,
		log:          log,
	}
	if a.rowSelector == "" {
		a.rowSelector = "table tbody tr"
	}
	if a.cellSelector == "" {
		a.cellSelector = "td"
	}
	return a
}

func (a *HTML) Name() string   { return a.name }
func (a *HTML) Fallback() bool { return false }

func (a *HTML) Fetch(ctx context.Context) []model.Record {
	if a.url == "" {
		a.log.Info().Msg("source not configured, skipping")
		return nil
	}

	resp, err := a.client.R().SetContext(ctx).Get(a.url)
	if err != nil {
		a.log.Warn().Err(err).Msg("fetch failed")
		return nil
	}
	if resp.IsError() {
		a.log.Warn().Int("status", resp.StatusCode()).Msg("fetch rejected")
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		a.log.Warn().Err(err).Msg("parse failed")
		return nil
	}
	recs, rejected := a.parse(doc)
	if len(recs) == 0 {
		a.log.Warn().Str("selector", a.rowSelector).Msg("no rows matched, page layout may have changed")
		return nil
	}
	a.log.Info().Int("records", len(recs)).Int("rejected", rejected).Msg("source fetched")
	return recs
}

func (a *HTML) parse(doc *goquery.Document) ([]model.Record, int) {
	columns := a.columns
	if len(columns) == 0 {
		doc.Find("table").First().Find("th").Each(func(_ int, th *goquery.Selection) {
			columns = append(columns, th.Text())
		})
	}
	if len(columns) == 0 {
		return nil, 0
	}

	var out []model.Record
	rejected := 0
	doc.Find(a.rowSelector).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find(a.cellSelector)
		if cells.Length() == 0 {
			return
		}
		raw := make(map[string]any, len(columns))
		cells.Each(func(i int, cell *goquery.Selection) {
			if i < len(columns) {
				raw[columns[i]] = cell.Text()
			}
		})
		var n int
		out, n = keep(out, RecordFrom(a.entity, raw))
		rejected += n
	})
	return out, rejected
}
