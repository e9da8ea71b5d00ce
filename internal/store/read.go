package store

import (
	"context"
	"fmt"
)

// Execute runs a statement and returns every row, in select-list order.
// Returns an empty (non-nil) slice when no rows match.
func (s *Store) Execute(ctx context.Context, query string, params []any) ([][]any, error) {
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	out := [][]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(out), err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// IsLoaded reports whether a relation reference has been populated.
// References that cannot report their load state are not loaded.
func (s *Store) IsLoaded(ref any) bool {
	if l, ok := ref.(interface{ Loaded() bool }); ok {
		return l.Loaded()
	}
	return false
}
