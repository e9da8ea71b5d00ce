package queryir

import (
	"testing"

	"github.com/Chasungsoo/querydsl/internal/ir"
	"github.com/stretchr/testify/require"
)

func memberPath(alias, prop string, t ir.Type) Path {
	return Path{Entity: "Member", Alias: alias, Property: prop, T: t}
}

func teamPath(alias, prop string, t ir.Type) Path {
	return Path{Entity: "Team", Alias: alias, Property: prop, T: t}
}

func lit(t *testing.T, v any) Constant {
	t.Helper()
	c, err := NewConstant(v)
	require.NoError(t, err)
	return c
}

func op(t *testing.T, o Operator, args ...Expression) Operation {
	t.Helper()
	out, err := NewOperation(o, args...)
	require.NoError(t, err)
	return out
}

func selectMembers(items ...Expression) Query {
	return Query{
		Projection: Projection{Shape: ShapeTuple, Items: items},
		From:       []Source{{Entity: "Member", Alias: "member"}},
	}
}

func int64p(v int64) *int64 { return &v }
