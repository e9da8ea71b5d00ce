package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chasungsoo/querydsl/internal/ir"
	"github.com/Chasungsoo/querydsl/internal/metamodel"
	"github.com/Chasungsoo/querydsl/internal/queryir"
	"github.com/Chasungsoo/querydsl/internal/querysql"
)

// fakeSurface records statements and replays canned rows.
type fakeSurface struct {
	rows    [][]any
	err     error
	queries []string
	params  [][]any
}

func (s *fakeSurface) Execute(_ context.Context, query string, params []any) ([][]any, error) {
	s.queries = append(s.queries, query)
	s.params = append(s.params, params)
	return s.rows, s.err
}

func (s *fakeSurface) IsLoaded(ref any) bool {
	l, ok := ref.(interface{ Loaded() bool })
	return ok && l.Loaded()
}

type loadedRef bool

func (r loadedRef) Loaded() bool { return bool(r) }

func testRegistry(t *testing.T) *metamodel.Registry {
	t.Helper()
	reg, err := metamodel.NewRegistry(metamodel.Entity{
		Name: "Member", Table: "member", ID: "id",
		Columns: []metamodel.Column{
			{Name: "id", Column: "id", Type: ir.TypeInt},
			{Name: "age", Column: "age", Type: ir.TypeInt},
		},
	})
	require.NoError(t, err)
	return reg
}

func ageQuery(t *testing.T) queryir.Query {
	t.Helper()
	age := queryir.Path{Entity: "Member", Alias: "member", Property: "age", T: ir.TypeInt}
	ten, err := queryir.NewConstant(10)
	require.NoError(t, err)
	gt, err := queryir.NewOperation(queryir.OpGt, age, ten)
	require.NoError(t, err)
	return queryir.Query{
		Projection: queryir.Projection{Shape: queryir.ShapeSingle, Items: []queryir.Expression{age}},
		From:       []queryir.Source{{Entity: "Member", Alias: "member"}},
		Where:      []queryir.Expression{gt},
	}
}

func int64p(v int64) *int64 { return &v }

func TestEngine_Fetch(t *testing.T) {
	surface := &fakeSurface{rows: [][]any{{int64(20)}, {int64(30)}}}
	e := New(testRegistry(t), surface, WithIDGenerator(NewFixedGenerator("exec-1")))

	res, err := e.Fetch(context.Background(), ageQuery(t))
	require.NoError(t, err)

	assert.Equal(t, "exec-1", res.ExecutionID)
	assert.Equal(t, [][]any{{int64(20)}, {int64(30)}}, res.Rows)
	assert.Equal(t, []string{"SELECT member.age FROM member WHERE member.age > ?"}, surface.queries)
	assert.Equal(t, [][]any{{int64(10)}}, surface.params)
	assert.Equal(t, StatsSnapshot{Dispatched: 1}, e.Stats())
}

func TestEngine_FetchLimitZeroSkipsSurface(t *testing.T) {
	surface := &fakeSurface{}
	e := New(testRegistry(t), surface)

	q := ageQuery(t)
	q.Limit = int64p(0)

	res, err := e.Fetch(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Empty(t, res.ExecutionID)
	assert.Empty(t, surface.queries, "limit 0 must not reach the surface")
	assert.Equal(t, StatsSnapshot{Skipped: 1}, e.Stats())
}

func TestEngine_FetchValidatesFirst(t *testing.T) {
	surface := &fakeSurface{}
	e := New(testRegistry(t), surface)

	q := ageQuery(t)
	q.Offset = int64p(-1)

	_, err := e.Fetch(context.Background(), q)
	assert.ErrorIs(t, err, queryir.ErrInvalidQuery)
	assert.Empty(t, surface.queries)
}

func TestEngine_SurfaceErrorIsExecutionFailure(t *testing.T) {
	cause := errors.New("no such table: member")
	var logs bytes.Buffer
	e := New(testRegistry(t), &fakeSurface{err: cause},
		WithIDGenerator(NewFixedGenerator("exec-1")),
		WithLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
	)

	_, err := e.Fetch(context.Background(), ageQuery(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, queryir.ErrExecution)
	assert.ErrorIs(t, err, cause)
	assert.Same(t, cause, errors.Unwrap(err))
	assert.Equal(t, queryir.CodeExecution, queryir.CodeOf(err))

	assert.Contains(t, logs.String(), "execution_id=exec-1")
	assert.Contains(t, logs.String(), "query_hash=")
	assert.Equal(t, int64(1), e.Stats().Failed)
}

func TestEngine_RowWidthMismatch(t *testing.T) {
	e := New(testRegistry(t), &fakeSurface{rows: [][]any{{int64(1), int64(2)}}})

	_, err := e.Fetch(context.Background(), ageQuery(t))
	assert.ErrorIs(t, err, queryir.ErrExecution)
	assert.Contains(t, err.Error(), "row 0 has 2 columns, expected 1")
}

func TestEngine_Count(t *testing.T) {
	surface := &fakeSurface{rows: [][]any{{int64(3)}}}
	e := New(testRegistry(t), surface)

	q := ageQuery(t)
	q.Limit = int64p(0)
	q.OrderBy = []queryir.OrderSpecifier{{Expr: q.Projection.Items[0], Direction: queryir.Asc}}

	n, err := e.Count(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, []string{"SELECT COUNT(*) FROM member WHERE member.age > ?"}, surface.queries)
}

func TestEngine_CountConvertsDriverValues(t *testing.T) {
	e := New(testRegistry(t), &fakeSurface{rows: [][]any{{"7"}}})

	n, err := e.Count(context.Background(), ageQuery(t))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestEngine_Dialect(t *testing.T) {
	e := New(testRegistry(t), &fakeSurface{}, WithDialect(querysql.Postgres))

	st, err := e.Translate(ageQuery(t))
	require.NoError(t, err)
	assert.Equal(t, "SELECT member.age FROM member WHERE member.age > $1", st.SQL)
	assert.Same(t, querysql.Postgres, e.Dialect())
}

func TestEngine_IsLoaded(t *testing.T) {
	e := New(testRegistry(t), &fakeSurface{})

	assert.True(t, e.IsLoaded(loadedRef(true)))
	assert.False(t, e.IsLoaded(loadedRef(false)))
	assert.False(t, e.IsLoaded(42))
}
