package sql

import "embed"

// Migrations holds the schema DDL applied by `refload migrate`, in filename order.
//
//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/insert_run.sql
var InsertRun string

//go:embed queries/latest_run.sql
var LatestRun string

//go:embed queries/run_sources.sql
var RunSources string
