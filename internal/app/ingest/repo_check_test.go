package ingest_test

import (
	"github.com/heartmarshall/poetry-loader/internal/adapter/postgres"
	pgpoem "github.com/heartmarshall/poetry-loader/internal/adapter/postgres/poem"
	"github.com/heartmarshall/poetry-loader/internal/adapter/sqlite"
	litepoem "github.com/heartmarshall/poetry-loader/internal/adapter/sqlite/poem"
	"github.com/heartmarshall/poetry-loader/internal/app/ingest"
	"github.com/heartmarshall/poetry-loader/internal/app/ingest/poems"
)

// Compile-time checks: adapters must satisfy the pipeline contracts.
var (
	_ ingest.PoemStore     = (*pgpoem.Repo)(nil)
	_ ingest.StoreHealth   = (*pgpoem.Repo)(nil)
	_ ingest.TxManager     = (*postgres.TxManager)(nil)
	_ ingest.SchemaManager = (*postgres.Schema)(nil)

	_ ingest.PoemStore     = (*litepoem.Repo)(nil)
	_ ingest.StoreHealth   = (*litepoem.Repo)(nil)
	_ ingest.TxManager     = (*sqlite.TxManager)(nil)
	_ ingest.SchemaManager = (*sqlite.Schema)(nil)

	_ ingest.UnitLoader = (*poems.Loader)(nil)
)
