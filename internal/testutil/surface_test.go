package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSurface struct {
	rows [][]any
	err  error
}

func (s stubSurface) Execute(context.Context, string, []any) ([][]any, error) {
	return s.rows, s.err
}

func (s stubSurface) IsLoaded(ref any) bool { return ref != nil }

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	rec := NewRecorder(stubSurface{rows: [][]any{{int64(1)}}})

	params := []any{int64(10)}
	rows, err := rec.Execute(ctx, "SELECT 1 WHERE x = ?", params)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(1)}}, rows)
	params[0] = int64(99)

	_, err = rec.Execute(ctx, "SELECT 2", nil)
	require.NoError(t, err)

	assert.Equal(t, []Statement{
		{SQL: "SELECT 1 WHERE x = ?", Params: []any{int64(10)}},
		{SQL: "SELECT 2", Params: []any{}},
	}, rec.Statements())
	assert.True(t, rec.IsLoaded(1))

	rec.Reset()
	assert.Empty(t, rec.Statements())
}

func TestRecorder_RecordsFailures(t *testing.T) {
	boom := errors.New("boom")
	rec := NewRecorder(stubSurface{err: boom})

	_, err := rec.Execute(context.Background(), "SELECT broken", nil)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, rec.Statements(), 1)
}
