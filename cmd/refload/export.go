package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/refload/internal/exitcode"
	"github.com/gyeh/refload/internal/fileread"
	"github.com/gyeh/refload/internal/ingest"
	"github.com/gyeh/refload/internal/logging"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <cups|diagnosticos|medicamentos>",
	Short: "Fetch an entity and write it to a Parquet file that `import` accepts",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output Parquet path (required)")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx, cancel := signalContext()
	defer cancel()

	entity := entityArg(log, args[0])
	res, err := ingest.Fetch(ctx, log, &cfg, entity)
	if err != nil {
		log.Error().Err(err).Msg("fetch failed")
		os.Exit(exitCodeFor(err))
	}

	n, err := fileread.WriteParquet(exportOut, res.Records)
	if err != nil {
		log.Error().Err(err).Str("out", exportOut).Msg("export failed")
		os.Exit(exitcode.PersistError)
	}
	fmt.Printf("Exported %d %s to %s\n", n, entity.Label, exportOut)
	return nil
}
