package dsl

import (
	"context"
	"fmt"

	"github.com/Chasungsoo/querydsl/internal/engine"
	"github.com/Chasungsoo/querydsl/internal/queryir"
)

// Results is a page of rows along with the total row count.
type Results[T any] struct {
	Rows   []T
	Total  int64
	Offset *int64
	Limit  *int64
}

// Fetch executes the query and materializes every row.
// An empty result is an empty slice.
func (q *Query[T]) Fetch(ctx context.Context) ([]T, error) {
	ast, err := q.bound()
	if err != nil {
		return nil, err
	}
	res, err := q.factory.engine.Fetch(ctx, ast)
	if err != nil {
		return nil, err
	}
	return q.materialize(res)
}

// FetchOne returns the only row. It reports false when there is none and
// fails with NonUniqueResult when there are more.
func (q *Query[T]) FetchOne(ctx context.Context) (T, bool, error) {
	var zero T
	rows, err := q.capped(2).Fetch(ctx)
	if err != nil {
		return zero, false, err
	}
	switch len(rows) {
	case 0:
		return zero, false, nil
	case 1:
		return rows[0], true, nil
	}
	return zero, false, queryir.Errorf(queryir.CodeNonUniqueResult, "query returned more than one row")
}

// FetchFirst returns the first row, reporting false when there is none.
func (q *Query[T]) FetchFirst(ctx context.Context) (T, bool, error) {
	var zero T
	rows, err := q.capped(1).Fetch(ctx)
	if err != nil {
		return zero, false, err
	}
	if len(rows) == 0 {
		return zero, false, nil
	}
	return rows[0], true, nil
}

// FetchCount counts the rows the query returns, ignoring paging.
func (q *Query[T]) FetchCount(ctx context.Context) (int64, error) {
	ast, err := q.bound()
	if err != nil {
		return 0, err
	}
	return q.factory.engine.Count(ctx, ast)
}

// FetchResults returns the requested page and the total count. When the
// total is zero the page query is not executed.
func (q *Query[T]) FetchResults(ctx context.Context) (*Results[T], error) {
	total, err := q.FetchCount(ctx)
	if err != nil {
		return nil, err
	}

	out := &Results[T]{Total: total, Offset: copyInt64(q.ast.Offset), Limit: copyInt64(q.ast.Limit)}
	if total == 0 {
		out.Rows = []T{}
		return out, nil
	}
	out.Rows, err = q.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// capped lowers the limit to n unless it is already lower.
func (q *Query[T]) capped(n int64) *Query[T] {
	if q.err == nil && q.ast.Limit != nil && *q.ast.Limit <= n {
		return q
	}
	return q.Limit(n)
}

func (q *Query[T]) materialize(res *engine.Result) ([]T, error) {
	out := make([]T, 0, len(res.Rows))
	if len(res.Rows) == 0 {
		return out, nil
	}

	spans := res.Statement.Selections
	if want := len(q.proj.Selections()); len(spans) != want {
		return nil, queryir.Errorf(queryir.CodeExecution, "statement has %d selections, projection has %d", len(spans), want)
	}
	for i, cols := range res.Rows {
		v, err := q.proj.Materialize(NewRow(q.factory, cols, spans, res.Statement.Fetches))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func copyInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
