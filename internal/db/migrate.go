package db

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	embedsql "github.com/gyeh/refload/internal/sql"
)

// ApplyMigrations runs the embedded .sql migrations in filename order.
// Every statement is written with IF NOT EXISTS, so re-running is safe.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	names, err := fs.Glob(embedsql.Migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := fs.ReadFile(embedsql.Migrations, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		log.Info().Str("migration", path.Base(name)).Msg("applying migration")
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("execute migration %s: %w", path.Base(name), err)
		}
	}

	log.Info().Int("count", len(names)).Msg("all migrations applied")
	return nil
}
