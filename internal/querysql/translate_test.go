package querysql

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chasungsoo/querydsl/internal/ir"
	"github.com/Chasungsoo/querydsl/internal/metamodel"
	"github.com/Chasungsoo/querydsl/internal/queryir"
)

func testRegistry(t *testing.T) *metamodel.Registry {
	t.Helper()
	reg, err := metamodel.NewRegistry(
		metamodel.Entity{
			Name: "Member", Table: "member", ID: "id",
			Columns: []metamodel.Column{
				{Name: "id", Column: "id", Type: ir.TypeInt},
				{Name: "username", Column: "username", Type: ir.TypeString, Nullable: true},
				{Name: "age", Column: "age", Type: ir.TypeInt},
			},
			Relations: []metamodel.Relation{
				{Name: "team", Target: "Team", Cardinality: metamodel.ManyToOne, JoinColumn: "team_id"},
			},
		},
		metamodel.Entity{
			Name: "Team", Table: "team", ID: "id",
			Columns: []metamodel.Column{
				{Name: "id", Column: "id", Type: ir.TypeInt},
				{Name: "name", Column: "name", Type: ir.TypeString},
			},
			Relations: []metamodel.Relation{
				{Name: "members", Target: "Member", Cardinality: metamodel.OneToMany, MappedBy: "team"},
			},
		},
	)
	require.NoError(t, err)
	return reg
}

func member(alias string) queryir.Path {
	return queryir.Path{Entity: "Member", Alias: alias}
}

func team(alias string) queryir.Path {
	return queryir.Path{Entity: "Team", Alias: alias}
}

func prop(root queryir.Path, name string, typ ir.Type) queryir.Path {
	root.Property = name
	root.T = typ
	return root
}

func relation(root queryir.Path, name, target string) *queryir.Path {
	root.Property = name
	root.Target = target
	return &root
}

func lit(t *testing.T, v any) queryir.Constant {
	t.Helper()
	c, err := queryir.NewConstant(v)
	require.NoError(t, err)
	return c
}

func op(t *testing.T, o queryir.Operator, args ...queryir.Expression) queryir.Operation {
	t.Helper()
	out, err := queryir.NewOperation(o, args...)
	require.NoError(t, err)
	return out
}

func int64p(v int64) *int64 { return &v }

func from(items ...queryir.Expression) queryir.Query {
	return queryir.Query{
		Projection: queryir.Projection{Shape: queryir.ShapeTuple, Items: items},
		From:       []queryir.Source{{Entity: "Member", Alias: "member"}},
	}
}

func translate(t *testing.T, d *Dialect, q queryir.Query) *Statement {
	t.Helper()
	st, err := NewTranslator(testRegistry(t), d).Translate(q)
	require.NoError(t, err)
	return st
}

var dialects = []*Dialect{SQLite, Postgres, MySQL}

func TestTranslate_Golden(t *testing.T) {
	m := member("member")
	age := prop(m, "age", ir.TypeInt)
	username := prop(m, "username", ir.TypeString)
	tm := team("team")
	teamName := prop(tm, "name", ir.TypeString)
	m2 := member("m2")
	m2age := prop(m2, "age", ir.TypeInt)

	queries := map[string]func(t *testing.T) queryir.Query{
		"fetch_join": func(t *testing.T) queryir.Query {
			q := from(m)
			q.Projection.Shape = queryir.ShapeEntity
			q.Joins = []queryir.Join{{
				Kind:     queryir.JoinInner,
				Relation: relation(m, "team", "Team"),
				Source:   queryir.Source{Entity: "Team", Alias: "team"},
				Fetch:    true,
			}}
			q.Where = []queryir.Expression{op(t, queryir.OpEq, teamName, lit(t, "teamA"))}
			q.OrderBy = []queryir.OrderSpecifier{{Expr: age, Direction: queryir.Desc, Nulls: queryir.NullsLast}}
			q.Limit = int64p(10)
			q.Offset = int64p(5)
			return q
		},
		"subquery_params": func(t *testing.T) queryir.Query {
			sub := queryir.Query{
				Projection: queryir.Projection{Shape: queryir.ShapeSingle, Items: []queryir.Expression{m2age}},
				From:       []queryir.Source{{Entity: "Member", Alias: "m2"}},
				Where:      []queryir.Expression{op(t, queryir.OpGt, m2age, lit(t, 15))},
			}
			q := from(username)
			q.Where = []queryir.Expression{
				op(t, queryir.OpIn, age, queryir.SubQuery{Query: sub}),
				op(t, queryir.OpLike, username, lit(t, "member%")),
			}
			return q
		},
		"group_having": func(t *testing.T) queryir.Query {
			q := from(teamName, op(t, queryir.OpAvg, age))
			q.Joins = []queryir.Join{{
				Kind:     queryir.JoinInner,
				Relation: relation(m, "team", "Team"),
				Source:   queryir.Source{Entity: "Team", Alias: "team"},
			}}
			q.GroupBy = []queryir.Expression{teamName}
			q.Having = []queryir.Expression{op(t, queryir.OpGt, op(t, queryir.OpCount, m), lit(t, 1))}
			q.OrderBy = []queryir.OrderSpecifier{{Expr: teamName, Direction: queryir.Asc}}
			return q
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for name, build := range queries {
		for _, d := range dialects {
			t.Run(name+"_"+d.Name(), func(t *testing.T) {
				st := translate(t, d, build(t))
				g.Assert(t, name+"_"+d.Name(), []byte(st.SQL+"\n"))
			})
		}
	}
}

func TestTranslate_ParamsFollowTextualOrder(t *testing.T) {
	m := member("member")
	m2 := member("m2")

	sub := queryir.Query{
		Projection: queryir.Projection{Shape: queryir.ShapeSingle, Items: []queryir.Expression{op(t, queryir.OpCount, m2)}},
		From:       []queryir.Source{{Entity: "Member", Alias: "m2"}},
		Where:      []queryir.Expression{op(t, queryir.OpGt, prop(m2, "age", ir.TypeInt), lit(t, 10))},
	}
	q := from(prop(m, "username", ir.TypeString), queryir.SubQuery{Query: sub})
	q.Where = []queryir.Expression{op(t, queryir.OpLt, prop(m, "age", ir.TypeInt), lit(t, 40))}

	st := translate(t, Postgres, q)
	assert.Equal(t,
		"SELECT member.username, (SELECT COUNT(m2.id) FROM member m2 WHERE m2.age > $1) FROM member WHERE member.age < $2",
		st.SQL)
	assert.Equal(t, []any{int64(10), int64(40)}, st.Params)
}

func TestTranslate_Layout(t *testing.T) {
	m := member("member")
	q := from(m, prop(m, "age", ir.TypeInt))
	q.Joins = []queryir.Join{{
		Kind:     queryir.JoinLeft,
		Relation: relation(m, "team", "Team"),
		Source:   queryir.Source{Entity: "Team", Alias: "t"},
		Fetch:    true,
	}}

	st := translate(t, SQLite, q)
	assert.Equal(t, "SELECT member.id, member.username, member.age, member.team_id, member.age, t.id, t.name "+
		"FROM member LEFT JOIN team t ON member.team_id = t.id", st.SQL)
	assert.Equal(t, []Span{{Start: 0, Width: 4}, {Start: 4, Width: 1}}, st.Selections)
	assert.Equal(t, []FetchGroup{{
		Owner: "member", Relation: "team", Alias: "t", Entity: "Team",
		Span: Span{Start: 5, Width: 2},
	}}, st.Fetches)
	assert.Equal(t, 7, st.Width)
}

func TestTranslate_FetchJoinWithoutSelectedOwnerAddsNoColumns(t *testing.T) {
	m := member("member")
	q := from(prop(m, "age", ir.TypeInt))
	q.Joins = []queryir.Join{{
		Kind:     queryir.JoinInner,
		Relation: relation(m, "team", "Team"),
		Source:   queryir.Source{Entity: "Team", Alias: "team"},
		Fetch:    true,
	}}

	st := translate(t, SQLite, q)
	assert.Equal(t, "SELECT member.age FROM member INNER JOIN team ON member.team_id = team.id", st.SQL)
	assert.Empty(t, st.Fetches)
}

func TestTranslate_CollectionFetchJoinIsTranslationError(t *testing.T) {
	tm := team("team")
	q := queryir.Query{
		Projection: queryir.Projection{Shape: queryir.ShapeEntity, Items: []queryir.Expression{tm}},
		From:       []queryir.Source{{Entity: "Team", Alias: "team"}},
		Joins: []queryir.Join{{
			Kind:     queryir.JoinInner,
			Relation: relation(tm, "members", "Member"),
			Source:   queryir.Source{Entity: "Member", Alias: "m"},
			Fetch:    true,
		}},
	}

	_, err := NewTranslator(testRegistry(t), SQLite).Translate(q)
	require.Error(t, err)
	assert.ErrorIs(t, err, queryir.ErrTranslation)
}

func TestTranslate_Joins(t *testing.T) {
	m := member("member")
	tm := team("team")

	t.Run("collection join uses inverse column", func(t *testing.T) {
		q := queryir.Query{
			Projection: queryir.Projection{Shape: queryir.ShapeSingle, Items: []queryir.Expression{prop(tm, "name", ir.TypeString)}},
			From:       []queryir.Source{{Entity: "Team", Alias: "team"}},
			Joins: []queryir.Join{{
				Kind:     queryir.JoinInner,
				Relation: relation(tm, "members", "Member"),
				Source:   queryir.Source{Entity: "Member", Alias: "m"},
			}},
		}
		st := translate(t, SQLite, q)
		assert.Equal(t, "SELECT team.name FROM team INNER JOIN member m ON m.team_id = team.id", st.SQL)
	})

	t.Run("left join with on", func(t *testing.T) {
		q := from(prop(m, "username", ir.TypeString), prop(tm, "name", ir.TypeString))
		q.Joins = []queryir.Join{{
			Kind:     queryir.JoinLeft,
			Relation: relation(m, "team", "Team"),
			Source:   queryir.Source{Entity: "Team", Alias: "team"},
			On:       []queryir.Expression{op(t, queryir.OpEq, prop(tm, "name", ir.TypeString), lit(t, "teamA"))},
		}}
		st := translate(t, SQLite, q)
		assert.Equal(t, "SELECT member.username, team.name FROM member "+
			"LEFT JOIN team ON member.team_id = team.id AND team.name = ?", st.SQL)
		assert.Equal(t, []any{"teamA"}, st.Params)
	})

	t.Run("theta join", func(t *testing.T) {
		q := from(prop(m, "username", ir.TypeString))
		q.From = append(q.From, queryir.Source{Entity: "Team", Alias: "team"})
		q.Where = []queryir.Expression{op(t, queryir.OpEq, prop(m, "username", ir.TypeString), prop(tm, "name", ir.TypeString))}
		st := translate(t, SQLite, q)
		assert.Equal(t, "SELECT member.username FROM member, team WHERE member.username = team.name", st.SQL)
	})

	t.Run("entity join without condition", func(t *testing.T) {
		q := from(prop(m, "username", ir.TypeString))
		q.Joins = []queryir.Join{{Kind: queryir.JoinInner, Source: queryir.Source{Entity: "Team", Alias: "team"}}}
		st := translate(t, SQLite, q)
		assert.Equal(t, "SELECT member.username FROM member CROSS JOIN team", st.SQL)

		q.Joins[0].Kind = queryir.JoinLeft
		_, err := NewTranslator(testRegistry(t), SQLite).Translate(q)
		assert.ErrorIs(t, err, queryir.ErrTranslation)
	})
}

func TestTranslate_Expressions(t *testing.T) {
	m := member("member")
	age := prop(m, "age", ir.TypeInt)
	username := prop(m, "username", ir.TypeString)

	caseExpr, err := queryir.NewCase(nil, []queryir.When{
		{Cond: op(t, queryir.OpEq, age, lit(t, 10)), Result: lit(t, "ten")},
		{Cond: op(t, queryir.OpEq, age, lit(t, 20)), Result: lit(t, "twenty")},
	}, lit(t, "other"))
	require.NoError(t, err)

	simpleCase, err := queryir.NewCase(age, []queryir.When{
		{Cond: lit(t, 10), Result: lit(t, 1)},
	}, nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		d      *Dialect
		expr   queryir.Expression
		sql    string
		params []any
	}{
		{"concat sqlite", SQLite, op(t, queryir.OpConcat, username, op(t, queryir.OpStringValue, age)),
			"(member.username || CAST(member.age AS TEXT))", nil},
		{"concat mysql", MySQL, op(t, queryir.OpConcat, username, op(t, queryir.OpStringValue, age)),
			"CONCAT(`member`.username, CAST(`member`.age AS CHAR))", nil},
		{"concat params keep order", SQLite, op(t, queryir.OpConcat, lit(t, "a"), op(t, queryir.OpConcat, username, lit(t, "b"))),
			"(? || (member.username || ?))", []any{"a", "b"}},
		{"searched case", SQLite, caseExpr,
			"CASE WHEN member.age = ? THEN ? WHEN member.age = ? THEN ? ELSE ? END",
			[]any{int64(10), "ten", int64(20), "twenty", "other"}},
		{"simple case", SQLite, simpleCase, "CASE member.age WHEN ? THEN ? END", []any{int64(10), int64(1)}},
		{"arithmetic", SQLite, op(t, queryir.OpMul, op(t, queryir.OpAdd, age, lit(t, 1)), lit(t, 2)),
			"((member.age + ?) * ?)", []any{int64(1), int64(2)}},
		{"negate", SQLite, op(t, queryir.OpNeg, age), "(-member.age)", nil},
		{"length mysql", MySQL, op(t, queryir.OpLength, username), "CHAR_LENGTH(`member`.username)", nil},
		{"lower", SQLite, op(t, queryir.OpLower, username), "LOWER(member.username)", nil},
		{"count distinct", SQLite, op(t, queryir.OpCountDistinct, age), "COUNT(DISTINCT member.age)", nil},
		{"in list", SQLite, op(t, queryir.OpIn, age, lit(t, 10), lit(t, 20)), "member.age IN (?, ?)", []any{int64(10), int64(20)}},
		{"empty in", SQLite, op(t, queryir.OpIn, age), "1 = 0", nil},
		{"empty not in", SQLite, op(t, queryir.OpNotIn, age), "1 = 1", nil},
		{"between", Postgres, op(t, queryir.OpBetween, age, lit(t, 10), lit(t, 30)), "member.age BETWEEN $1 AND $2", []any{int64(10), int64(30)}},
		{"or and not", SQLite, op(t, queryir.OpOr,
			op(t, queryir.OpLt, age, lit(t, 20)),
			op(t, queryir.OpNot, op(t, queryir.OpIsNull, username))),
			"(member.age < ? OR NOT (member.username IS NULL))", []any{int64(20)}},
		{"comparison as comparison operand", SQLite, op(t, queryir.OpEq, op(t, queryir.OpGt, age, lit(t, 1)), lit(t, true)),
			"(member.age > ?) = ?", []any{int64(1), true}},
		{"is null of comparison", SQLite, op(t, queryir.OpIsNull, op(t, queryir.OpEq, age, lit(t, 1))),
			"(member.age = ?) IS NULL", []any{int64(1)}},
		{"negation as comparison operand", SQLite, op(t, queryir.OpEq, op(t, queryir.OpNot, op(t, queryir.OpIsNull, username)), lit(t, false)),
			"(NOT (member.username IS NULL)) = ?", []any{false}},
		{"relation value is join column", SQLite, prop(m, "team", ir.TypeEntity), "member.team_id", nil},
		{"null constant", SQLite, queryir.Constant{Value: ir.Null{}}, "?", []any{nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewTranslator(testRegistry(t), tt.d).newWriter()
			require.NoError(t, w.expr(tt.expr))
			assert.Equal(t, tt.sql, w.sb.String())
			assert.Equal(t, tt.params, w.params)
		})
	}
}

func TestTranslate_UnknownPropertyIsTranslationError(t *testing.T) {
	q := from(prop(member("member"), "email", ir.TypeString))
	_, err := NewTranslator(testRegistry(t), SQLite).Translate(q)
	assert.ErrorIs(t, err, queryir.ErrTranslation)
}

func TestTranslate_Paging(t *testing.T) {
	age := prop(member("member"), "age", ir.TypeInt)

	tests := []struct {
		d      *Dialect
		limit  *int64
		offset *int64
		want   string
	}{
		{SQLite, int64p(2), nil, "SELECT member.age FROM member LIMIT 2"},
		{SQLite, nil, int64p(2), "SELECT member.age FROM member LIMIT -1 OFFSET 2"},
		{Postgres, nil, int64p(2), "SELECT member.age FROM member OFFSET 2"},
		{MySQL, nil, int64p(2), "SELECT `member`.age FROM `member` LIMIT 18446744073709551615 OFFSET 2"},
		{MySQL, int64p(3), int64p(1), "SELECT `member`.age FROM `member` LIMIT 3 OFFSET 1"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			q := from(age)
			q.Limit, q.Offset = tt.limit, tt.offset
			assert.Equal(t, tt.want, translate(t, tt.d, q).SQL)
		})
	}
}

func TestTranslate_NullOrdering(t *testing.T) {
	username := prop(member("member"), "username", ir.TypeString)
	q := from(username)
	q.OrderBy = []queryir.OrderSpecifier{
		{Expr: username, Direction: queryir.Asc, Nulls: queryir.NullsFirst},
		{Expr: username, Direction: queryir.Desc},
	}

	assert.Equal(t,
		"SELECT member.username FROM member ORDER BY member.username ASC NULLS FIRST, member.username DESC",
		translate(t, SQLite, q).SQL)
	assert.Equal(t,
		"SELECT `member`.username FROM `member` ORDER BY `member`.username IS NULL DESC, `member`.username ASC, `member`.username DESC",
		translate(t, MySQL, q).SQL)
}

func TestTranslateCount(t *testing.T) {
	m := member("member")
	age := prop(m, "age", ir.TypeInt)
	tr := NewTranslator(testRegistry(t), SQLite)

	t.Run("plain", func(t *testing.T) {
		q := from(m)
		q.Where = []queryir.Expression{op(t, queryir.OpGt, age, lit(t, 10))}
		q.OrderBy = []queryir.OrderSpecifier{{Expr: age, Direction: queryir.Asc}}
		q.Limit = int64p(2)
		q.Offset = int64p(1)

		st, err := tr.TranslateCount(q)
		require.NoError(t, err)
		assert.Equal(t, "SELECT COUNT(*) FROM member WHERE member.age > ?", st.SQL)
		assert.Equal(t, []any{int64(10)}, st.Params)
		assert.Equal(t, 1, st.Width)
		assert.Equal(t, int64(2), *q.Limit, "count must not mutate the query")
	})

	t.Run("distinct uses derived table", func(t *testing.T) {
		q := from(age)
		q.Distinct = true
		q.Where = []queryir.Expression{op(t, queryir.OpGt, age, lit(t, 10))}

		st, err := tr.TranslateCount(q)
		require.NoError(t, err)
		assert.Equal(t, "SELECT COUNT(*) FROM (SELECT DISTINCT member.age AS c1 FROM member WHERE member.age > ?) counted", st.SQL)
	})

	t.Run("fetch join dropped", func(t *testing.T) {
		q := from(m)
		q.Joins = []queryir.Join{{
			Kind:     queryir.JoinInner,
			Relation: relation(m, "team", "Team"),
			Source:   queryir.Source{Entity: "Team", Alias: "team"},
			Fetch:    true,
		}}
		q.GroupBy = []queryir.Expression{m}

		st, err := tr.TranslateCount(q)
		require.NoError(t, err)
		assert.Equal(t, "SELECT COUNT(*) FROM (SELECT member.id AS c1, member.username AS c2, member.age AS c3, member.team_id AS c4 "+
			"FROM member INNER JOIN team ON member.team_id = team.id "+
			"GROUP BY member.id, member.username, member.age, member.team_id) counted", st.SQL)
	})
}
