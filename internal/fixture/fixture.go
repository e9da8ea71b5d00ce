// Package fixture holds the member/team model shared by tests, conformance
// scenarios and the CLI: the CUE schema, the generated typed paths, result
// types, seed data and a catalog of named queries.
package fixture

//go:generate go run ../../cmd/qdsl gen ./schema --out . --package fixture

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Chasungsoo/querydsl/internal/dsl"
	"github.com/Chasungsoo/querydsl/internal/engine"
	"github.com/Chasungsoo/querydsl/internal/metamodel"
	"github.com/Chasungsoo/querydsl/internal/store"
)

//go:embed schema/schema.cue
var schemaSource string

var registry = sync.OnceValues(func() (*metamodel.Registry, error) {
	return metamodel.CompileString(schemaSource, "schema/schema.cue")
})

// Registry returns the compiled member/team schema.
func Registry() (*metamodel.Registry, error) {
	return registry()
}

// OpenStore opens a migrated store over the fixture schema.
// With an empty driver and dsn it is a fresh in-memory SQLite database.
func OpenStore(ctx context.Context, driver, dsn string) (*store.Store, error) {
	reg, err := Registry()
	if err != nil {
		return nil, err
	}
	if driver == "" {
		driver = "sqlite3"
	}
	if dsn == "" {
		dsn = store.MemoryDSN
	}
	st, err := store.Open(driver, dsn, reg)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return st, nil
}

// Open returns a factory over a fresh in-memory store seeded with Records.
// The caller closes the store.
func Open(ctx context.Context, logger *slog.Logger, opts ...engine.Option) (*dsl.Factory, *store.Store, error) {
	st, err := OpenStore(ctx, "", "")
	if err != nil {
		return nil, nil, err
	}
	if err := st.Seed(ctx, Records()...); err != nil {
		st.Close()
		return nil, nil, err
	}
	if logger != nil {
		opts = append([]engine.Option{engine.WithLogger(logger)}, opts...)
	}
	opts = append([]engine.Option{engine.WithDialect(st.Dialect())}, opts...)
	return dsl.NewFactory(engine.New(st.Registry(), st, opts...)), st, nil
}
