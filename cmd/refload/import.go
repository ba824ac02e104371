package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/refload/internal/exitcode"
	"github.com/gyeh/refload/internal/ingest"
	"github.com/gyeh/refload/internal/logging"
	"github.com/gyeh/refload/internal/model"
)

var importBatchSize int

var importCmd = &cobra.Command{
	Use:   "import <cups|diagnosticos|medicamentos|materiales>",
	Short: "Import an entity from a CSV, XLSX or Parquet file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Path to CSV, XLSX or Parquet file (required)")
	f.BoolVar(&cfg.Truncate, "truncate", false, "Clear the target table before loading")
	f.BoolVar(&cfg.DryRun, "dry-run", false, "Parse and normalize without writing to Postgres")
	f.IntVar(&importBatchSize, "batch-size", 0, "Records per upsert batch (default from config, 1000)")
	f.BoolVar(&failOnErrors, "fail-on-errors", false, "Exit non-zero when any record failed")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx, cancel := signalContext()
	defer cancel()

	entity := entityArg(log, args[0])
	if importBatchSize < 0 {
		log.Error().Int("batch_size", importBatchSize).Msg("--batch-size must be positive")
		os.Exit(exitcode.UsageError)
	}
	if importBatchSize > 0 {
		cfg.Pipeline.BatchSize = importBatchSize
	}
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	store, closeStore := openStore(ctx, log)
	defer closeStore()
	cache := openCache(ctx, log)
	if cache != nil {
		defer cache.Close()
	}
	locker, sink := guardFor(cache)

	report, err := ingest.Guarded(ctx, locker, sink, log, entity, func(ctx context.Context) (*model.RunReport, error) {
		return ingest.Import(ctx, store, log, &cfg, entity)
	})
	if report != nil {
		printReport(report)
	}
	if err != nil {
		var phase string
		if pe, ok := err.(*ingest.PipelineError); ok {
			phase = pe.Phase
		}
		log.Error().Err(err).Str("phase", phase).Msg("import failed")
		closeStore()
		os.Exit(exitCodeFor(err))
	}
	if failOnErrors && report.ErroredCount > 0 {
		closeStore()
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}
