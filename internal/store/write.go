package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/Chasungsoo/querydsl/internal/metamodel"
	"github.com/Chasungsoo/querydsl/internal/querysql"
)

// Record is one row to insert, keyed by property name.
// Relation properties take the identifier of the target row.
type Record struct {
	Entity string
	Values map[string]any
}

// Insert writes a single record.
func (s *Store) Insert(ctx context.Context, rec Record) error {
	return s.insert(ctx, s.db, rec)
}

// Seed writes records in order inside one transaction.
// Either every record is written or none is.
func (s *Store) Seed(ctx context.Context, records ...Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	defer tx.Rollback()

	for i, rec := range records {
		if err := s.insert(ctx, tx, rec); err != nil {
			return fmt.Errorf("seed record %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insert(ctx context.Context, db execer, rec Record) error {
	query, args, err := InsertSQL(s.dialect, s.registry, rec)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s: %w", rec.Entity, err)
	}
	return nil
}

// InsertSQL renders the INSERT for a record. Columns are emitted in
// alphabetical order.
func InsertSQL(d *querysql.Dialect, reg *metamodel.Registry, rec Record) (string, []any, error) {
	if reg == nil {
		return "", nil, fmt.Errorf("insert %s: store has no registry", rec.Entity)
	}
	e, ok := reg.Entity(rec.Entity)
	if !ok {
		return "", nil, fmt.Errorf("insert: unknown entity %q", rec.Entity)
	}
	if len(rec.Values) == 0 {
		return "", nil, fmt.Errorf("insert %s: no values", rec.Entity)
	}

	columns := columnsByProperty(reg, e)
	set := make(map[string]any, len(rec.Values))
	for prop, v := range rec.Values {
		col, ok := columns[prop]
		if !ok {
			return "", nil, fmt.Errorf("insert %s: unknown property %q", rec.Entity, prop)
		}
		set[d.Quote(col)] = v
	}

	format := sq.PlaceholderFormat(sq.Question)
	if d == querysql.Postgres {
		format = sq.Dollar
	}
	query, args, err := sq.Insert(d.Quote(e.Table)).SetMap(set).PlaceholderFormat(format).ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("insert %s: %w", rec.Entity, err)
	}
	return query, args, nil
}

func columnsByProperty(reg *metamodel.Registry, e *metamodel.Entity) map[string]string {
	attrs := reg.Attributes(e)
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		out[a.Name] = a.Column
	}
	return out
}
