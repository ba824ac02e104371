// Package httpapi exposes ingestion runs and reference lookups over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gyeh/refload/internal/config"
	"github.com/gyeh/refload/internal/ingest"
	"github.com/gyeh/refload/internal/model"
	"github.com/gyeh/refload/internal/normalize"
	"github.com/gyeh/refload/internal/reportcache"
)

// Store is the persistence the handlers need.
type Store interface {
	ingest.Store
	Lookup(ctx context.Context, entity model.EntityType, key string) (map[string]any, bool, error)
}

// RunHistory is implemented by stores that can return the last recorded run.
type RunHistory interface {
	LatestRun(ctx context.Context, entity model.EntityType) (*model.RunReport, error)
}

// Reports caches run reports and serializes runs. *reportcache.Cache
// implements it.
type Reports interface {
	ingest.Locker
	ingest.ReportSink
	Report(ctx context.Context, entity model.EntityType) (*model.RunReport, error)
}

// Response is the envelope of every endpoint.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Handler serves the ingestion API.
type Handler struct {
	store   Store
	reports Reports
	cfg     config.Config
	log     zerolog.Logger
}

// NewHandler creates a handler. reports may be nil when Redis is not
// configured.
func NewHandler(store Store, reports Reports, cfg config.Config, log zerolog.Logger) *Handler {
	return &Handler{store: store, reports: reports, cfg: cfg, log: log}
}

// RegisterRoutes registers the API routes under /api.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.POST("/import/:entity", h.Import)
	api.POST("/ingest/:entity", h.Ingest)
	api.GET("/ingest/:entity/report", h.Report)
	api.GET("/reference/:entity/:code", h.Reference)
}

type importRequest struct {
	RutaArchivo string `json:"rutaArchivo"`
	Truncate    bool   `json:"truncate"`
	BatchSize   int    `json:"batchSize"`
}

type ingestRequest struct {
	Truncate bool `json:"truncate"`
}

// Import handles POST /api/import/:entity with {rutaArchivo, truncate?, batchSize?}.
func (h *Handler) Import(c echo.Context) error {
	entity, ok := model.EntityTypeByName(c.Param("entity"))
	if !ok {
		return fail(c, http.StatusBadRequest, "unknown entity: "+c.Param("entity"))
	}
	var req importRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.RutaArchivo == "" {
		return fail(c, http.StatusBadRequest, "rutaArchivo is required")
	}
	if req.BatchSize < 0 {
		return fail(c, http.StatusBadRequest, "batchSize must be positive")
	}

	cfg := h.cfg
	cfg.FilePath = req.RutaArchivo
	cfg.Truncate = req.Truncate
	if req.BatchSize > 0 {
		cfg.Pipeline.BatchSize = req.BatchSize
	}

	return h.run(c, entity, func(ctx context.Context) (*model.RunReport, error) {
		return ingest.Import(ctx, h.store, h.log, &cfg, entity)
	})
}

// Ingest handles POST /api/ingest/:entity with an optional {truncate} body.
func (h *Handler) Ingest(c echo.Context) error {
	entity, ok := model.EntityTypeByName(c.Param("entity"))
	if !ok {
		return fail(c, http.StatusBadRequest, "unknown entity: "+c.Param("entity"))
	}
	var req ingestRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return fail(c, http.StatusBadRequest, "invalid request body")
		}
	}

	cfg := h.cfg
	cfg.Truncate = req.Truncate

	return h.run(c, entity, func(ctx context.Context) (*model.RunReport, error) {
		return ingest.Run(ctx, h.store, h.log, &cfg, entity)
	})
}

func (h *Handler) run(c echo.Context, entity model.EntityType, fn func(context.Context) (*model.RunReport, error)) error {
	var (
		locker ingest.Locker
		sink   ingest.ReportSink
	)
	if h.reports != nil {
		locker, sink = h.reports, h.reports
	}

	report, err := ingest.Guarded(c.Request().Context(), locker, sink, h.log, entity, fn)
	if err != nil {
		h.log.Error().Err(err).Str("entity", entity.Name).Msg("run failed")
		return fail(c, statusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, Response{Success: true, Data: report})
}

// statusFor maps a run error to an HTTP status: bad input is a client
// error, everything else is fatal.
func statusFor(err error) int {
	if errors.Is(err, reportcache.ErrLocked) {
		return http.StatusConflict
	}
	var pe *ingest.PipelineError
	if errors.As(err, &pe) {
		switch pe.Phase {
		case ingest.PhasePreflight, ingest.PhaseRead:
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// Report handles GET /api/ingest/:entity/report.
func (h *Handler) Report(c echo.Context) error {
	entity, ok := model.EntityTypeByName(c.Param("entity"))
	if !ok {
		return fail(c, http.StatusBadRequest, "unknown entity: "+c.Param("entity"))
	}
	ctx := c.Request().Context()

	if h.reports != nil {
		r, err := h.reports.Report(ctx, entity)
		if err != nil {
			h.log.Warn().Err(err).Msg("report cache unavailable")
		} else if r != nil {
			return c.JSON(http.StatusOK, Response{Success: true, Data: r})
		}
	}
	if hist, ok := h.store.(RunHistory); ok {
		r, err := hist.LatestRun(ctx, entity)
		if err != nil {
			return fail(c, http.StatusInternalServerError, err.Error())
		}
		if r != nil {
			return c.JSON(http.StatusOK, Response{Success: true, Data: r})
		}
	}
	return fail(c, http.StatusNotFound, "no runs recorded for "+entity.Name)
}

// Reference handles GET /api/reference/:entity/:code.
func (h *Handler) Reference(c echo.Context) error {
	entity, ok := model.EntityTypeByName(c.Param("entity"))
	if !ok {
		return fail(c, http.StatusBadRequest, "unknown entity: "+c.Param("entity"))
	}
	code := lookupKey(entity, c.Param("code"))
	if code == "" {
		return fail(c, http.StatusBadRequest, "invalid code: "+c.Param("code"))
	}

	row, found, err := h.store.Lookup(c.Request().Context(), entity, code)
	if err != nil {
		h.log.Error().Err(err).Str("entity", entity.Name).Str("code", code).Msg("lookup failed")
		return fail(c, http.StatusInternalServerError, "lookup failed")
	}
	if !found {
		return fail(c, http.StatusNotFound, entity.Label+" "+code+" not found")
	}
	return c.JSON(http.StatusOK, Response{Success: true, Data: row})
}

// lookupKey normalizes a path code the way ingestion normalizes keys.
func lookupKey(entity model.EntityType, raw string) string {
	switch entity {
	case model.Diagnoses:
		return normalize.DiagnosisCode(raw)
	case model.Drugs:
		return normalize.CleanText(raw)
	default:
		return normalize.Code(raw)
	}
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, Response{Success: false, Error: msg})
}
