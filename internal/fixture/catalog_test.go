package fixture_test

import (
	"context"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chasungsoo/querydsl/internal/fixture"
	"github.com/Chasungsoo/querydsl/internal/queryir"
)

func TestCatalog_EveryEntryTranslates(t *testing.T) {
	f, st, err := fixture.Open(context.Background(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	entries := fixture.Catalog()
	require.NotEmpty(t, entries)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
		t.Run(e.Name, func(t *testing.T) {
			assert.NotEmpty(t, e.Description)
			sql, _, err := e.Build(f).ToSQL()
			require.NoError(t, err)
			assert.Contains(t, sql, "SELECT ")
		})
	}
	assert.True(t, sort.StringsAreSorted(names))
}

func TestLookup(t *testing.T) {
	e, ok := fixture.Lookup("member_count")
	require.True(t, ok)
	assert.Equal(t, "member_count", e.Name)

	_, ok = fixture.Lookup("no_such_query")
	assert.False(t, ok)
}

func TestCatalog_Rows(t *testing.T) {
	ctx := context.Background()
	f, st, err := fixture.Open(ctx, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	build := func(name string) fixture.Query {
		e, ok := fixture.Lookup(name)
		require.True(t, ok, name)
		return e.Build(f)
	}

	rows, err := build("members_paged").FetchRows(ctx)
	require.NoError(t, err)
	want := [][]any{
		{int64(3), "member3", int64(30)},
		{int64(2), "member2", int64(20)},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("members_paged rows (-want +got):\n%s", diff)
	}

	row, found, err := build("oldest_members").FetchOneRow(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []any{int64(4), "member4", int64(40)}, row)

	_, _, err = build("members_paged").FetchOneRow(ctx)
	assert.ErrorIs(t, err, queryir.ErrNonUniqueResult)

	n, err := build("members_paged").FetchCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
