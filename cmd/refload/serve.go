package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/refload/internal/db"
	"github.com/gyeh/refload/internal/exitcode"
	"github.com/gyeh/refload/internal/httpapi"
	"github.com/gyeh/refload/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the import/ingest HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&cfg.HTTPAddr, "addr", "", "Listen address (or set REFLOAD_HTTP_ADDR, default :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx, cancel := signalContext()
	defer cancel()

	if err := cfg.ValidateDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	var reports httpapi.Reports
	if cache := openCache(ctx, log); cache != nil {
		defer cache.Close()
		reports = cache
	}

	h := httpapi.NewHandler(db.NewStore(pool, log), reports, cfg, log)
	return httpapi.Serve(ctx, httpapi.NewServer(h, log), cfg.HTTPAddr, log)
}
