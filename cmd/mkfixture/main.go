// mkfixture writes a small Parquet import fixture for an entity from the
// built-in static tables, or summarizes an existing import file.
// Usage: go run ./cmd/mkfixture --entity diagnosticos --out testdata/diagnosticos.parquet --rows 10
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/gyeh/refload/internal/fileread"
	"github.com/gyeh/refload/internal/model"
	"github.com/gyeh/refload/internal/source"
)

func main() {
	entityName := flag.String("entity", "diagnosticos", "entity: "+fmt.Sprint(model.EntityNames()))
	out := flag.String("out", "testdata/fixture.parquet", "output parquet")
	maxRows := flag.Int("rows", 0, "max rows to output (0 = all)")
	check := flag.String("check", "", "only print stats of this import file, don't write")
	flag.Parse()

	entity, ok := model.EntityTypeByName(*entityName)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown entity %q\n", *entityName)
		os.Exit(1)
	}

	if *check != "" {
		if err := summarize(*check, entity); err != nil {
			fmt.Fprintf(os.Stderr, "check: %v\n", err)
			os.Exit(1)
		}
		return
	}

	recs := source.NewStatic(entity, zerolog.Nop()).Fetch(context.Background())
	if len(recs) == 0 {
		fmt.Fprintf(os.Stderr, "no static table for %s\n", entity)
		os.Exit(1)
	}
	if *maxRows > 0 && len(recs) > *maxRows {
		recs = recs[:*maxRows]
	}

	n, err := fileread.WriteParquet(*out, recs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d %s rows to %s\n", n, entity.Label, *out)
}

func summarize(path string, entity model.EntityType) error {
	table, err := fileread.Read(path)
	if err != nil {
		return err
	}
	keyed := 0
	for _, raw := range table.Rows {
		if r := source.RecordFrom(entity, raw); r != nil && r.NaturalKey() != "" {
			keyed++
		}
	}
	fmt.Printf("Columns: %v\n", table.Headers)
	fmt.Printf("Total: %d, With key: %d, Without key: %d\n", len(table.Rows), keyed, len(table.Rows)-keyed)
	return nil
}
