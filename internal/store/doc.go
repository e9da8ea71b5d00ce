// Package store is the execution surface over database/sql.
//
// A Store owns one connection pool and the dialect matching its driver. It
// creates tables from the metamodel, inserts seed rows, executes translated
// statements and inspects the load state of relation references.
//
// # Drivers
//
//   - sqlite3: github.com/mattn/go-sqlite3 (default)
//   - sqlite: modernc.org/sqlite (pure Go)
//   - postgres: github.com/lib/pq
//   - mysql: github.com/go-sql-driver/mysql
//
// # SQLite Configuration
//
//   - One open connection, so ":memory:" databases survive between calls
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON
//
// # Values
//
// Execute returns driver values as-is except for []byte, which is returned
// as string: MySQL and some SQLite declarations report text as bytes.
// Conversion to Go types happens during materialization.
package store
