package queryir

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Chasungsoo/querydsl/internal/ir"
	"github.com/stretchr/testify/assert"
)

func TestEqual_Structural(t *testing.T) {
	a := memberPath("member", "age", ir.TypeInt)
	b := memberPath("member", "age", ir.TypeInt)
	assert.True(t, Equal(a, b))

	assert.False(t, Equal(a, memberPath("memberSub", "age", ir.TypeInt)), "alias is part of identity")
	assert.False(t, Equal(a, memberPath("member", "username", ir.TypeString)))
}

func TestEqual_LiteralTypes(t *testing.T) {
	assert.False(t, Equal(Constant{Value: ir.Int(15)}, Constant{Value: ir.Float(15)}))
	assert.True(t, Equal(Constant{Value: ir.String("a")}, Constant{Value: ir.String("a")}))
}

func TestEqual_AliasWrapper(t *testing.T) {
	u := memberPath("member", "username", ir.TypeString)
	assert.False(t, Equal(u, Alias{Expr: u, Name: "name"}))
	assert.True(t, Equal(u, Unalias(Alias{Expr: u, Name: "name"})))
}

func TestQueryFingerprint(t *testing.T) {
	q := selectMembers(memberPath("member", "username", ir.TypeString))
	same := q.Clone()
	assert.Equal(t, q.Fingerprint(), same.Fingerprint())

	limited := q.Clone()
	limited.Limit = int64p(2)
	assert.NotEqual(t, q.Fingerprint(), limited.Fingerprint())
}

func TestClone_Independent(t *testing.T) {
	q := selectMembers(memberPath("member", "username", ir.TypeString))
	q.Joins = []Join{{Kind: JoinInner, Source: Source{Entity: "Team", Alias: "team"}}}

	c := q.Clone()
	c.Projection.Items = append(c.Projection.Items, memberPath("member", "age", ir.TypeInt))
	c.Joins[0].On = append(c.Joins[0].On, Constant{Value: ir.Bool(true)})
	c.From[0].Alias = "m"

	assert.Len(t, q.Projection.Items, 1)
	assert.Empty(t, q.Joins[0].On)
	assert.Equal(t, "member", q.From[0].Alias)
}

func TestFormat(t *testing.T) {
	age := memberPath("member", "age", ir.TypeInt)
	p := op(t, OpBetween, age, lit(t, 10), lit(t, 20))
	assert.Equal(t, "member.age between 10 and 20", Format(p))

	concat := op(t, OpConcat, memberPath("member", "username", ir.TypeString), lit(t, "_"))
	assert.Equal(t, `(member.username || "_")`, Format(concat))

	assert.Equal(t, "max(member.age)", Format(op(t, OpMax, age)))
}

func TestQueryError(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("fetch: %w", Wrap(CodeExecution, cause, "statement failed"))

	assert.True(t, errors.Is(err, ErrExecution))
	assert.False(t, errors.Is(err, ErrTranslation))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, CodeExecution, CodeOf(err))
	assert.Equal(t, ErrorCode(""), CodeOf(cause))
	assert.Contains(t, err.Error(), "EXECUTION_FAILURE: statement failed: disk full")
}
