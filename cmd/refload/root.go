package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gyeh/refload/internal/config"
	"github.com/gyeh/refload/internal/logging"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "refload",
	Short: "Colombian health reference data → Postgres loader",
	Long: "Fetches CUPS procedures, CIE-10 diagnoses and INVIMA/CUM drugs from public sources " +
		"(or imports CSV/XLSX/Parquet files), normalizes them and upserts them into Postgres.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", "", "Postgres connection string (or set REFLOAD_DSN / DATABASE_URL)")
	pf.StringVar(&cfg.RedisURL, "redis-url", "", "Redis URL for the run lock and report cache (or set REDIS_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "", "Log format: text or json (default text)")
	pf.StringVar(&cfg.LogLevel, "log-level", "", "Minimum log level (or set REFLOAD_LOG_LEVEL, default info)")
	pf.StringVar(&cfg.ConfigPath, "config", "", "Pipeline YAML file (or set REFLOAD_CONFIG)")
}

// loadConfig layers environment and the optional pipeline file under the
// flags already parsed into cfg.
func loadConfig(cmd *cobra.Command, args []string) error {
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	env.Apply(&cfg)
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		return err
	}

	cfg.Pipeline = config.DefaultPipeline()
	if cfg.ConfigPath != "" {
		if err := cfg.LoadFromFile(cfg.ConfigPath); err != nil {
			return fmt.Errorf("load %s: %w", cfg.ConfigPath, err)
		}
	}
	return nil
}
