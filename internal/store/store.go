package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/Chasungsoo/querydsl/internal/metamodel"
	"github.com/Chasungsoo/querydsl/internal/querysql"
)

// MemoryDSN opens a private in-memory SQLite database.
const MemoryDSN = ":memory:"

// Store executes SQL for one database.
type Store struct {
	db       *sql.DB
	driver   string
	dialect  *querysql.Dialect
	registry *metamodel.Registry
}

// Open connects to a database and verifies the connection.
//
// The registry is used to map entity properties to tables and columns when
// migrating and inserting; it may be nil for a store that only executes
// statements.
func Open(driver, dsn string, reg *metamodel.Registry) (*Store, error) {
	d, err := DialectForDriver(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if d == querysql.SQLite {
		// SQLite only supports one writer; a single connection also keeps
		// an in-memory database alive for the life of the store.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	return &Store{db: db, driver: driver, dialect: d, registry: reg}, nil
}

// DialectForDriver maps a database/sql driver name to its SQL dialect.
func DialectForDriver(driver string) (*querysql.Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite3", "sqlite":
		return querysql.SQLite, nil
	case "postgres":
		return querysql.Postgres, nil
	case "mysql":
		return querysql.MySQL, nil
	}
	return nil, fmt.Errorf("unsupported driver %q (expected sqlite3, sqlite, postgres or mysql)", driver)
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the database/sql driver name.
func (s *Store) Driver() string {
	return s.driver
}

// Dialect returns the SQL dialect matching the driver.
func (s *Store) Dialect() *querysql.Dialect {
	return s.dialect
}

// Registry returns the metamodel the store was opened with.
func (s *Store) Registry() *metamodel.Registry {
	return s.registry
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Migrate creates a table for every entity of the registry.
// Existing tables are left untouched, so Migrate is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if s.registry == nil {
		return fmt.Errorf("migrate: store has no registry")
	}

	for _, e := range s.registry.Entities() {
		ddl, err := CreateTable(s.dialect, s.registry, e)
		if err != nil {
			return fmt.Errorf("migrate %s: %w", e.Name, err)
		}
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("migrate %s: %w", e.Name, err)
		}
	}
	return nil
}
