package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gyeh/refload/internal/exitcode"
	"github.com/gyeh/refload/internal/ingest"
	"github.com/gyeh/refload/internal/logging"
	"github.com/gyeh/refload/internal/model"
)

var ingestAll bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [cups|diagnosticos|medicamentos]",
	Short: "Fetch an entity from its configured sources and upsert it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIngest,
}

func init() {
	f := ingestCmd.Flags()
	f.BoolVar(&cfg.Truncate, "truncate", false, "Clear the target table before loading")
	f.BoolVar(&cfg.DryRun, "dry-run", false, "Fetch and normalize without writing to Postgres")
	f.BoolVar(&ingestAll, "all", false, "Ingest every scrapeable entity concurrently")
	f.BoolVar(&failOnErrors, "fail-on-errors", false, "Exit non-zero when any record failed")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx, cancel := signalContext()
	defer cancel()

	var entities []model.EntityType
	switch {
	case ingestAll && len(args) > 0:
		log.Error().Msg("--all takes no entity argument")
		os.Exit(exitcode.UsageError)
	case ingestAll:
		for _, et := range model.AllEntityTypes {
			if et.Scrapeable {
				entities = append(entities, et)
			}
		}
	case len(args) == 1:
		entities = []model.EntityType{entityArg(log, args[0])}
	default:
		log.Error().Msg("an entity or --all is required")
		os.Exit(exitcode.UsageError)
	}

	store, closeStore := openStore(ctx, log)
	defer closeStore()
	cache := openCache(ctx, log)
	if cache != nil {
		defer cache.Close()
	}
	locker, sink := guardFor(cache)

	// Entity types have disjoint key spaces, so their runs are independent.
	reports := make([]*model.RunReport, len(entities))
	errs := make([]error, len(entities))
	var g errgroup.Group
	for i, et := range entities {
		g.Go(func() error {
			elog := log.With().Str("entity", et.Name).Logger()
			reports[i], errs[i] = ingest.Guarded(ctx, locker, sink, elog, et, func(ctx context.Context) (*model.RunReport, error) {
				return ingest.Run(ctx, store, elog, &cfg, et)
			})
			return nil
		})
	}
	_ = g.Wait()

	code := exitcode.Success
	for i, et := range entities {
		if r := reports[i]; r != nil {
			printReport(r)
			if failOnErrors && r.ErroredCount > 0 && code == exitcode.Success {
				code = exitcode.PartialSuccess
			}
		}
		if err := errs[i]; err != nil {
			log.Error().Err(err).Str("entity", et.Name).Msg("ingest failed")
			code = exitCodeFor(err)
		}
	}
	if code != exitcode.Success {
		closeStore()
		os.Exit(code)
	}
	return nil
}
