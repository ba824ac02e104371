package db_test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/refload/internal/db"
	"github.com/gyeh/refload/internal/ingest"
	"github.com/gyeh/refload/internal/logging"
	"github.com/gyeh/refload/internal/model"
)

const (
	testPort     = 15433
	testDB       = "refloadtest"
	testUser     = "postgres"
	testPassword = "postgres"
)

var (
	testDSN string
	pg      *embeddedpostgres.EmbeddedPostgres
)

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	testDSN = fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		testUser, testPassword, testPort, testDB)

	pg = embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(testPort)).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			StartTimeout(30*time.Second),
	)

	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}

	os.Exit(code)
}

// setupDB creates a pool against a freshly migrated database.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pool, err := db.NewPool(ctx, testDSN)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	for _, schema := range []string{"ref", "ingest"} {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema)); err != nil {
			t.Fatalf("drop schema %s: %v", schema, err)
		}
	}

	log := logging.Setup("text")
	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}

	t.Cleanup(func() { pool.Close() })
	return pool
}

func TestMigrationsIdempotent(t *testing.T) {
	pool := setupDB(t)
	if err := db.ApplyMigrations(context.Background(), pool, logging.Setup("text")); err != nil {
		t.Fatalf("second migration run: %v", err)
	}
}

func TestUpsertInsertThenUpdate(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	store := db.NewStore(pool, logging.Setup("text"))

	recs := []model.Record{
		&model.DiagnosisRecord{Code: "J00", Description: "Rinofaringitis aguda", Category: "Diseases of the respiratory system", Severity: model.SeverityMild, Active: true},
		&model.DiagnosisRecord{Code: "J18.9", Description: "Neumonía, no especificada", Category: "Diseases of the respiratory system", Severity: model.SeverityModerate, Active: true},
	}
	res, err := store.UpsertBatch(ctx, model.Diagnoses, recs)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	for _, r := range res {
		if r.Err != nil || !r.Inserted {
			t.Errorf("%s: want inserted, got %+v", r.Key, r)
		}
	}

	// A curated embedding must survive re-ingestion.
	if _, err := pool.Exec(ctx, `UPDATE ref.diagnoses SET embedding = ARRAY[0.1, 0.2]::real[] WHERE code = 'J00'`); err != nil {
		t.Fatalf("set embedding: %v", err)
	}

	recs[0].(*model.DiagnosisRecord).Description = "Rinofaringitis aguda [resfriado común]"
	res, err = store.UpsertBatch(ctx, model.Diagnoses, recs)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	for _, r := range res {
		if r.Err != nil || r.Inserted {
			t.Errorf("%s: want updated, got %+v", r.Key, r)
		}
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM ref.diagnoses`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("rows = %d, want 2", count)
	}

	row, ok, err := store.Lookup(ctx, model.Diagnoses, "J00")
	if err != nil || !ok {
		t.Fatalf("lookup J00: ok=%v err=%v", ok, err)
	}
	if row["description"] != "Rinofaringitis aguda [resfriado común]" {
		t.Errorf("description = %v", row["description"])
	}
	if row["embedding"] == nil {
		t.Error("embedding was overwritten")
	}
}

func TestUpsertIsolatesFailingRecord(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	store := db.NewStore(pool, logging.Setup("text"))

	recs := []model.Record{
		&model.SupplyRecord{Code: "MAT-001", Description: "Guantes de nitrilo", Category: "General", Active: true},
		&model.SupplyRecord{Code: "MAT-002", Category: "General", Active: true},
		&model.SupplyRecord{Code: "MAT-003", Description: "Jeringa 5 ml", Category: "General", Active: true},
	}
	// Reject empty descriptions so the middle record fails on its own.
	if _, err := pool.Exec(ctx, `ALTER TABLE ref.supplies ADD CONSTRAINT supplies_desc_nonempty CHECK (description <> '')`); err != nil {
		t.Fatal(err)
	}

	res, err := store.UpsertBatch(ctx, model.Supplies, recs)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if res[1].Err == nil {
		t.Error("MAT-002 should fail the check constraint")
	}
	if res[0].Err != nil || res[2].Err != nil {
		t.Errorf("neighbours should succeed: %+v", res)
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM ref.supplies`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("rows = %d, want 2", count)
	}
}

func TestDrugRoutesStoredAsJSON(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	store := db.NewStore(pool, logging.Setup("text"))

	expires := time.Date(2028, 6, 30, 0, 0, 0, 0, time.UTC)
	rec := &model.DrugRecord{
		CumCode:                "19987654-2",
		ActiveIngredient:       "MORFINA",
		Concentration:          "10 mg/ml",
		PharmaceuticalForm:     "Injection",
		RoutesOfAdministration: []string{"Intravenous", "Subcutaneous"},
		RegistrationExpiresOn:  &expires,
		RequiresPrescription:   true,
		IsControlledSubstance:  true,
		Active:                 true,
	}
	if _, err := store.UpsertBatch(ctx, model.Drugs, []model.Record{rec}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var n int
	err := pool.QueryRow(ctx, `SELECT jsonb_array_length(routes_of_administration) FROM ref.drugs WHERE cum_code = $1`, rec.CumCode).Scan(&n)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("routes = %d, want 2", n)
	}
}

func TestTruncate(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	store := db.NewStore(pool, logging.Setup("text"))

	rec := &model.ProcedureRecord{Code: "890201", Description: "Consulta", Category: "Consultation", Active: true}
	if _, err := store.UpsertBatch(ctx, model.Procedures, []model.Record{rec}); err != nil {
		t.Fatal(err)
	}
	if err := store.Truncate(ctx, model.Procedures); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	_, ok, err := store.Lookup(ctx, model.Procedures, "890201")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("row survived truncate")
	}
}

func TestRecordRunAndLatest(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	store := db.NewStore(pool, logging.Setup("text"))

	report := &model.RunReport{
		RunID:         "6f1c2d7e-3b7a-4d1e-9a55-0c2f8e1b9d40",
		Entity:        "diagnosticos",
		Source:        "scrape",
		FetchedTotal:  3,
		UniqueTotal:   2,
		InsertedCount: 2,
		PerSource:     []model.SourceCount{{Source: "datos-abiertos", Count: 0}, {Source: "static", Count: 3}},
		StartedAt:     time.Now().UTC().Truncate(time.Millisecond),
		Elapsed:       1500 * time.Millisecond,
	}
	if err := store.RecordRun(ctx, report); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if err := store.RecordRun(ctx, report); err != nil {
		t.Fatalf("recording twice should be a no-op: %v", err)
	}

	got, err := store.LatestRun(ctx, model.Diagnoses)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got == nil || got.RunID != report.RunID {
		t.Fatalf("latest = %+v", got)
	}
	if got.Elapsed != report.Elapsed || len(got.PerSource) != 2 || got.PerSource[1].Source != "static" {
		t.Errorf("latest = %+v", got)
	}

	none, err := store.LatestRun(ctx, model.Drugs)
	if err != nil || none != nil {
		t.Errorf("no runs: got %+v, %v", none, err)
	}
}

func TestWriterAgainstPostgres(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	log := logging.Setup("text")
	store := db.NewStore(pool, log)

	var recs []model.Record
	for i := 0; i < 25; i++ {
		recs = append(recs, &model.ProcedureRecord{
			Code:        fmt.Sprintf("8902%02d", i),
			Description: "Consulta",
			Category:    "Consultation",
			Active:      true,
		})
	}
	w := ingest.Writer{Store: store, BatchSize: 10, Log: log}
	res, err := w.Write(ctx, model.Procedures, recs)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if res.Inserted != 25 || res.Errored != 0 {
		t.Errorf("first pass = %+v", res)
	}
	res, err = w.Write(ctx, model.Procedures, recs)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if res.Updated != 25 || res.Inserted != 0 {
		t.Errorf("second pass = %+v", res)
	}
}

func TestClosedPoolIsUnavailable(t *testing.T) {
	pool := setupDB(t)
	store := db.NewStore(pool, logging.Setup("text"))
	pool.Close()

	rec := &model.ProcedureRecord{Code: "890201", Description: "Consulta", Category: "Consultation", Active: true}
	_, err := store.UpsertBatch(context.Background(), model.Procedures, []model.Record{rec})
	if !errors.Is(err, ingest.ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
}
