package queryir

import (
	"errors"
	"testing"

	"github.com/Chasungsoo/querydsl/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teamRelation(alias string) *Path {
	return &Path{Entity: "Member", Alias: alias, Property: "team", Target: "Team"}
}

func TestValidate_Basic(t *testing.T) {
	q := selectMembers(memberPath("member", "username", ir.TypeString))
	q.Where = []Expression{op(t, OpEq, memberPath("member", "age", ir.TypeInt), lit(t, 10))}
	assert.NoError(t, Validate(q))
}

func TestValidate_Structure(t *testing.T) {
	empty := Query{From: []Source{{Entity: "Member", Alias: "member"}}}
	assert.Equal(t, CodeInvalidQuery, CodeOf(Validate(empty)))

	noFrom := Query{Projection: Projection{Items: []Expression{lit(t, "A")}}}
	assert.Equal(t, CodeInvalidQuery, CodeOf(Validate(noFrom)))

	badAlias := selectMembers(lit(t, 1))
	badAlias.From[0].Alias = "1member"
	assert.Equal(t, CodeInvalidQuery, CodeOf(Validate(badAlias)))
}

func TestValidate_AliasConflict(t *testing.T) {
	q := selectMembers(memberPath("member", "username", ir.TypeString))
	q.From = append(q.From, Source{Entity: "Team", Alias: "member"})

	err := Validate(q)
	assert.True(t, errors.Is(err, ErrAliasConflict), "got %v", err)
}

func TestValidate_JoinAliasConflict(t *testing.T) {
	q := selectMembers(memberPath("member", "username", ir.TypeString))
	q.Joins = []Join{{Kind: JoinInner, Relation: teamRelation("member"), Source: Source{Entity: "Team", Alias: "member"}}}

	assert.True(t, errors.Is(Validate(q), ErrAliasConflict))
}

func TestValidate_FetchJoinReachability(t *testing.T) {
	q := selectMembers(Path{Entity: "Member", Alias: "member"})
	q.Joins = []Join{{Kind: JoinInner, Relation: teamRelation("m2"), Source: Source{Entity: "Team", Alias: "team"}, Fetch: true}}
	assert.True(t, errors.Is(Validate(q), ErrUnboundFetchJoin))

	q.Joins[0].Fetch = false
	assert.True(t, errors.Is(Validate(q), ErrUnboundAlias))

	q.Joins[0].Relation = teamRelation("member")
	q.Joins[0].Fetch = true
	assert.NoError(t, Validate(q))
}

func TestValidate_FetchJoinNeedsRelation(t *testing.T) {
	q := selectMembers(Path{Entity: "Member", Alias: "member"})
	q.Joins = []Join{{Kind: JoinLeft, Source: Source{Entity: "Team", Alias: "team"}, Fetch: true}}
	assert.True(t, errors.Is(Validate(q), ErrUnboundFetchJoin))
}

func TestValidate_JoinTargetMismatch(t *testing.T) {
	q := selectMembers(memberPath("member", "username", ir.TypeString))
	q.Joins = []Join{{Kind: JoinInner, Relation: teamRelation("member"), Source: Source{Entity: "Member", Alias: "other"}}}
	assert.True(t, errors.Is(Validate(q), ErrTypeMismatch))
}

func TestValidate_JoinOrderMatters(t *testing.T) {
	// team.members joined before team is declared.
	q := selectMembers(memberPath("member", "username", ir.TypeString))
	q.Joins = []Join{
		{Kind: JoinInner, Relation: &Path{Entity: "Team", Alias: "team", Property: "members", Target: "Member"}, Source: Source{Entity: "Member", Alias: "m2"}},
		{Kind: JoinInner, Relation: teamRelation("member"), Source: Source{Entity: "Team", Alias: "team"}},
	}
	assert.True(t, errors.Is(Validate(q), ErrUnboundAlias))

	q.Joins[0], q.Joins[1] = q.Joins[1], q.Joins[0]
	assert.NoError(t, Validate(q))
}

func TestValidate_UnboundAlias(t *testing.T) {
	q := selectMembers(teamPath("team", "name", ir.TypeString))
	assert.True(t, errors.Is(Validate(q), ErrUnboundAlias))
}

func TestValidate_AliasEntityMismatch(t *testing.T) {
	q := selectMembers(teamPath("member", "name", ir.TypeString))
	assert.True(t, errors.Is(Validate(q), ErrTypeMismatch))
}

func TestValidate_CorrelatedSubquery(t *testing.T) {
	// select member.username from member
	// where member.age = (select max(sub.age) from member sub where sub.team = member.team)
	subAge := memberPath("memberSub", "age", ir.TypeInt)
	sub := SubQuery{Query: Query{
		Projection: Projection{Shape: ShapeSingle, Items: []Expression{op(t, OpMax, subAge)}},
		From:       []Source{{Entity: "Member", Alias: "memberSub"}},
		Where: []Expression{op(t, OpEq,
			Path{Entity: "Member", Alias: "memberSub", Property: "team", Target: "Team"},
			Path{Entity: "Member", Alias: "member", Property: "team", Target: "Team"})},
	}}

	q := selectMembers(memberPath("member", "username", ir.TypeString))
	q.Where = []Expression{op(t, OpEq, memberPath("member", "age", ir.TypeInt), sub)}
	assert.NoError(t, Validate(q), "inner query may reference outer aliases")

	// The outer query cannot see memberSub.
	q.OrderBy = []OrderSpecifier{{Expr: subAge, Direction: Asc}}
	assert.True(t, errors.Is(Validate(q), ErrUnboundAlias))
}

func TestValidate_SubqueryScopeIsFresh(t *testing.T) {
	// Reusing the outer alias inside a subquery shadows it rather than conflicting.
	sub := SubQuery{Query: selectMembers(op(t, OpMax, memberPath("member", "age", ir.TypeInt)))}
	q := selectMembers(memberPath("member", "username", ir.TypeString))
	q.Where = []Expression{op(t, OpEq, memberPath("member", "age", ir.TypeInt), sub)}
	assert.NoError(t, Validate(q))
}

func TestValidate_NonBooleanFilter(t *testing.T) {
	q := selectMembers(memberPath("member", "username", ir.TypeString))
	q.Where = []Expression{memberPath("member", "age", ir.TypeInt)}
	assert.True(t, errors.Is(Validate(q), ErrTypeMismatch))

	q.Where = nil
	q.Having = []Expression{op(t, OpAvg, memberPath("member", "age", ir.TypeInt))}
	assert.True(t, errors.Is(Validate(q), ErrTypeMismatch))
}

func TestValidate_Paging(t *testing.T) {
	q := selectMembers(memberPath("member", "username", ir.TypeString))
	q.Offset = int64p(-1)
	assert.Equal(t, CodeInvalidQuery, CodeOf(Validate(q)))

	q.Offset = int64p(1)
	q.Limit = int64p(-2)
	assert.Equal(t, CodeInvalidQuery, CodeOf(Validate(q)))

	q.Limit = int64p(0)
	assert.NoError(t, Validate(q))
}

func TestValidate_Grouping(t *testing.T) {
	teamName := teamPath("team", "name", ir.TypeString)
	avgAge := op(t, OpAvg, memberPath("member", "age", ir.TypeInt))

	q := selectMembers(teamName, avgAge)
	q.Joins = []Join{{Kind: JoinInner, Relation: teamRelation("member"), Source: Source{Entity: "Team", Alias: "team"}}}

	err := Validate(q)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidQuery, CodeOf(err), "team.name is neither grouped nor aggregated")

	q.GroupBy = []Expression{teamName}
	assert.NoError(t, Validate(q))

	// Aggregates alone need no grouping.
	assert.NoError(t, Validate(selectMembers(avgAge, op(t, OpCount, Path{Entity: "Member", Alias: "member"}))))
}
