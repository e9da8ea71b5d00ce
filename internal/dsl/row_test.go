package dsl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chasungsoo/querydsl/internal/queryir"
	"github.com/Chasungsoo/querydsl/internal/querysql"
)

func TestConvert(t *testing.T) {
	t.Run("null is the zero value", func(t *testing.T) {
		n, err := Convert[int64](nil)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		p, err := Convert[*string](nil)
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("coercion", func(t *testing.T) {
		i, err := Convert[int](int64(7))
		require.NoError(t, err)
		assert.Equal(t, 7, i)

		f, err := Convert[float64](int64(3))
		require.NoError(t, err)
		assert.Equal(t, 3.0, f)

		s, err := Convert[string](int64(12))
		require.NoError(t, err)
		assert.Equal(t, "12", s)

		b, err := Convert[bool](int64(1))
		require.NoError(t, err)
		assert.True(t, b)

		ts, err := Convert[time.Time]("2024-03-01T10:00:00Z")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), ts.UTC())
	})

	t.Run("pointers", func(t *testing.T) {
		p, err := Convert[*int64]("42")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, int64(42), *p)
	})

	t.Run("mismatch", func(t *testing.T) {
		_, err := Convert[int64]("forty")
		assert.ErrorIs(t, err, queryir.ErrTypeMismatch)

		_, err = Convert[[]int](int64(1))
		assert.ErrorIs(t, err, queryir.ErrTypeMismatch)
	})

	t.Run("fraction into integer", func(t *testing.T) {
		_, err := Convert[int64](12.5)
		assert.ErrorIs(t, err, queryir.ErrTypeMismatch)

		_, err = Convert[*int](float32(0.5))
		assert.ErrorIs(t, err, queryir.ErrTypeMismatch)

		n, err := Convert[int64](12.0)
		require.NoError(t, err)
		assert.Equal(t, int64(12), n)
	})
}

func TestRow_Views(t *testing.T) {
	cols := []any{int64(1), "a", int64(2), "team", int64(9)}
	spans := []querysql.Span{{Start: 0, Width: 3}, {Start: 3, Width: 1}, {Start: 4, Width: 1}}
	fetches := []querysql.FetchGroup{{Owner: "m", Relation: "team", Alias: "t", Entity: "Team", Span: querysql.Span{Start: 3, Width: 2}}}
	r := NewRow(nil, cols, spans, fetches)

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, int64(1), r.Value(0))
	assert.Equal(t, []any{int64(1), "a", int64(2)}, r.Columns(0))

	sub := r.Sub(1)
	assert.Equal(t, 1, sub.Len())
	assert.Equal(t, "team", sub.Value(0))

	rng := r.Range(1, 3)
	assert.Equal(t, 2, rng.Len())
	assert.Equal(t, int64(9), rng.Value(1))

	alias, fetched, ok := rng.Fetched("m", "team")
	require.True(t, ok)
	assert.Equal(t, "t", alias)
	assert.Equal(t, []any{"team", int64(9)}, fetched)

	parts := r.Split(2, 1)
	require.Len(t, parts, 2)
	assert.Equal(t, []any{int64(1), "a", int64(2)}, parts[0].Columns(0))
	assert.Equal(t, "team", parts[0].Value(1))
	assert.Equal(t, int64(9), parts[1].Value(0))

	assert.Panics(t, func() { r.Sub(0).Range(0, 2) })

	_, _, ok = r.Fetched("m", "members")
	assert.False(t, ok)
	assert.Nil(t, r.Factory())
}

func TestRef(t *testing.T) {
	ctx := context.Background()

	t.Run("nil", func(t *testing.T) {
		var r *Ref[int]
		assert.False(t, r.Loaded())
		assert.Nil(t, r.Value())
		v, err := r.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("loaded", func(t *testing.T) {
		n := 3
		r := LoadedRef(&n)
		assert.True(t, r.Loaded())
		v, err := r.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, *v)
	})

	t.Run("detached", func(t *testing.T) {
		r := &Ref[int]{fk: int64(5)}
		_, err := r.Get(ctx)
		assert.ErrorIs(t, err, queryir.ErrInvalidQuery)
		assert.Equal(t, int64(5), r.ForeignKey())
		assert.False(t, r.Loaded())
	})

	t.Run("failed load stays lazy", func(t *testing.T) {
		calls := 0
		r := &Ref[int]{fk: int64(5), load: func(context.Context) (*int, error) {
			calls++
			if calls == 1 {
				return nil, assert.AnError
			}
			n := 7
			return &n, nil
		}}
		_, err := r.Get(ctx)
		assert.ErrorIs(t, err, assert.AnError)
		assert.False(t, r.Loaded())

		v, err := r.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, 7, *v)
		assert.True(t, r.Loaded())
		assert.Equal(t, 2, calls)
	})
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "plain", EscapeLike("plain"))
	assert.Equal(t, "100!%", EscapeLike("100%"))
	assert.Equal(t, "a!_b", EscapeLike("a_b"))
	assert.Equal(t, "wow!!", EscapeLike("wow!"))
}

func TestExpr_TypeChecks(t *testing.T) {
	p := NewEntityPath("Member", "member")
	age := NumberPath[int64](p, "age")
	name := StringPath(p, "username")

	tests := []struct {
		name string
		e    Expr
		code queryir.ErrorCode
	}{
		{"number vs string", age.Eq("ten"), queryir.CodeTypeMismatch},
		{"like on number operand", name.Like(3), queryir.CodeTypeMismatch},
		{"error propagates", age.Eq("ten").And(name.Eq("a")), queryir.CodeTypeMismatch},
		{"bad alias", age.As("not valid"), queryir.CodeInvalidQuery},
		{"bad root", NumberPath[int64](NewEntityPath("Member", ""), "age").Gt(1), queryir.CodeInvalidQuery},
		{"case result wider than target", Cases[int64]().When(age.Gt(1)).Then(1.5).Otherwise(0), queryir.CodeTypeMismatch},
		{"case result of another kind", CaseOf[int64](age).When(10).Then("ten").End(), queryir.CodeTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.e.Node()
			require.Error(t, err)
			assert.Equal(t, tt.code, queryir.CodeOf(err))
		})
	}

	n, err := age.Add(1.5).Node()
	require.NoError(t, err)
	assert.Equal(t, "(member.age + 1.5)", queryir.Format(n))
}

func TestBool_Absent(t *testing.T) {
	var absent Bool
	assert.False(t, absent.present())
	assert.False(t, absent.Not().present())
	assert.False(t, And(absent, Bool{}).present())

	p := NumberPath[int64](NewEntityPath("Member", "member"), "age").Gt(1)
	got, err := And(absent, p).Node()
	require.NoError(t, err)
	want, err := p.Node()
	require.NoError(t, err)
	assert.True(t, queryir.Equal(want, got))
}
