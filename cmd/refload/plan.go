package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/refload/internal/aggregate"
	"github.com/gyeh/refload/internal/exitcode"
	"github.com/gyeh/refload/internal/fileread"
	"github.com/gyeh/refload/internal/ingest"
	"github.com/gyeh/refload/internal/logging"
	"github.com/gyeh/refload/internal/model"
	"github.com/gyeh/refload/internal/normalize"
	"github.com/gyeh/refload/internal/source"
)

var planCmd = &cobra.Command{
	Use:   "plan <entity>",
	Short: "Dry-run fetch or file parse with stats (no writes)",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&cfg.FilePath, "file", "", "Inspect a CSV, XLSX or Parquet file instead of fetching")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx, cancel := signalContext()
	defer cancel()

	entity := entityArg(log, args[0])

	fmt.Println("=== refload plan ===")
	fmt.Printf("Entity:     %s (%s)\n", entity.Name, entity.Label)

	var recs []model.Record
	if cfg.FilePath != "" {
		recs = planFile(log, entity)
	} else {
		res, err := ingest.Fetch(ctx, log, &cfg, entity)
		if err != nil {
			log.Error().Err(err).Msg("fetch failed")
			os.Exit(exitCodeFor(err))
		}
		fmt.Printf("Fetched:    %d\n", res.Fetched)
		for _, sc := range res.PerSource {
			fmt.Printf("  %-16s %d\n", sc.Source, sc.Count)
		}
		recs = res.Records
	}

	fmt.Printf("Unique:     %d\n", len(recs))
	fmt.Println()
	fmt.Println("Distribution:")
	counts := make(map[string]int)
	for _, r := range recs {
		counts[groupOf(r)]++
	}
	groups := make([]string, 0, len(counts))
	for g := range counts {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if counts[groups[i]] != counts[groups[j]] {
			return counts[groups[i]] > counts[groups[j]]
		}
		return groups[i] < groups[j]
	})
	for _, g := range groups {
		fmt.Printf("  %-40s %6d\n", g, counts[g])
	}
	return nil
}

func planFile(log zerolog.Logger, entity model.EntityType) []model.Record {
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	sha, err := normalize.FileHash(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash file")
		os.Exit(exitcode.ValidationError)
	}
	stat, err := os.Stat(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to stat file")
		os.Exit(exitcode.ValidationError)
	}
	table, err := fileread.Read(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to read file")
		os.Exit(exitcode.ReadError)
	}
	schema, keyField := source.Schema(entity)
	if err := fileread.RequireColumn(table.Headers, schema, keyField); err != nil {
		log.Error().Err(err).Msg("schema validation failed")
		os.Exit(exitcode.ReadError)
	}

	var recs []model.Record
	missing := 0
	for _, raw := range table.Rows {
		r := source.RecordFrom(entity, raw)
		if !source.Complete(r) {
			missing++
			continue
		}
		recs = append(recs, r)
	}

	fmt.Printf("File:       %s\n", cfg.FilePath)
	fmt.Printf("SHA-256:    %s\n", sha)
	fmt.Printf("Size:       %d bytes\n", stat.Size())
	fmt.Printf("Columns:    %d\n", len(table.Headers))
	fmt.Printf("Rows:       %d\n", len(table.Rows))
	fmt.Printf("Incomplete: %d\n", missing)
	fmt.Println("Schema validation: OK")
	return aggregate.Dedup(recs)
}

// groupOf is the category a record is tallied under in plan output.
func groupOf(r model.Record) string {
	switch t := r.(type) {
	case *model.ProcedureRecord:
		return t.Category
	case *model.DiagnosisRecord:
		return t.Category
	case *model.DrugRecord:
		return t.PharmaceuticalForm
	case *model.SupplyRecord:
		return t.Category
	}
	return "?"
}
