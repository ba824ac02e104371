package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/gyeh/refload/internal/db"
	"github.com/gyeh/refload/internal/exitcode"
	"github.com/gyeh/refload/internal/ingest"
	"github.com/gyeh/refload/internal/memstore"
	"github.com/gyeh/refload/internal/model"
	"github.com/gyeh/refload/internal/reportcache"
)

// failOnErrors makes a run that completed with record errors exit with
// exitcode.PartialSuccess.
var failOnErrors bool

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func entityArg(log zerolog.Logger, name string) model.EntityType {
	et, ok := model.EntityTypeByName(name)
	if !ok {
		log.Error().Str("entity", name).Strs("valid", model.EntityNames()).Msg("unknown entity")
		os.Exit(exitcode.UsageError)
	}
	return et
}

// openStore returns the Postgres store, or an in-memory one for --dry-run.
func openStore(ctx context.Context, log zerolog.Logger) (ingest.Store, func()) {
	if cfg.DryRun {
		log.Warn().Msg("dry run: records are not persisted")
		return memstore.New(), func() {}
	}
	if err := cfg.ValidateDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	return db.NewStore(pool, log), pool.Close
}

// openCache connects to Redis when configured. Without it runs proceed
// unlocked and reports are not cached.
func openCache(ctx context.Context, log zerolog.Logger) *reportcache.Cache {
	if cfg.RedisURL == "" || cfg.DryRun {
		return nil
	}
	c, err := reportcache.Connect(ctx, cfg.RedisURL, cfg.Pipeline.ReportTTL, cfg.Pipeline.LockTTL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, continuing without run lock")
		return nil
	}
	return c
}

// guardFor avoids handing a typed nil *Cache to the ingest interfaces.
func guardFor(c *reportcache.Cache) (ingest.Locker, ingest.ReportSink) {
	if c == nil {
		return nil, nil
	}
	return c, c
}

// exitCodeFor maps a fatal run error to the process exit code.
func exitCodeFor(err error) int {
	var pe *ingest.PipelineError
	if !errors.As(err, &pe) {
		return exitcode.PersistError
	}
	switch pe.Phase {
	case ingest.PhasePreflight:
		return exitcode.ValidationError
	case ingest.PhaseFetch:
		return exitcode.FetchError
	case ingest.PhaseRead:
		return exitcode.ReadError
	default:
		return exitcode.PersistError
	}
}

func printReport(r *model.RunReport) {
	fmt.Println(r.String())
	for _, sc := range r.PerSource {
		fmt.Printf("  %-16s %d\n", sc.Source, sc.Count)
	}
}
