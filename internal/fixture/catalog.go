package fixture

import (
	"context"
	"sort"

	"github.com/Chasungsoo/querydsl/internal/dsl"
)

// Query is a catalog query with its result type erased: rows come back as
// plain column values.
type Query interface {
	ToSQL() (string, []any, error)
	FetchRows(ctx context.Context) ([][]any, error)
	FetchOneRow(ctx context.Context) ([]any, bool, error)
	FetchCount(ctx context.Context) (int64, error)
}

// Entry is a named query of the catalog.
type Entry struct {
	Name        string
	Description string
	Build       func(f *dsl.Factory) Query
}

type erased[T any] struct {
	*dsl.Query[T]
	row func(T) []any
}

func (e erased[T]) FetchRows(ctx context.Context) ([][]any, error) {
	rows, err := e.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = e.row(r)
	}
	return out, nil
}

func (e erased[T]) FetchOneRow(ctx context.Context) ([]any, bool, error) {
	v, ok, err := e.FetchOne(ctx)
	if err != nil || !ok {
		return nil, ok, err
	}
	return e.row(v), true, nil
}

func erase[T any](q *dsl.Query[T], row func(T) []any) Query {
	return erased[T]{Query: q, row: row}
}

func tupleRow(t dsl.Tuple) []any {
	out := make([]any, t.Len())
	for i := range out {
		out[i] = t.At(i)
	}
	return out
}

func memberRow(m *Member) []any {
	var username any
	if m.Username != nil {
		username = *m.Username
	}
	return []any{m.ID, username, m.Age}
}

func valueRow[T any](v T) []any {
	return []any{v}
}

func nullableRow[T any](v *T) []any {
	if v == nil {
		return []any{nil}
	}
	return []any{*v}
}

var catalog = []Entry{
	{
		Name:        "team_average_age",
		Description: "average member age per team",
		Build: func(f *dsl.Factory) Query {
			m, t := NewQMember("member"), NewQTeam("team")
			return erase(dsl.SelectTuple(f, t.Name, m.Age.Avg()).
				From(m).
				Join(m.Team, t).
				GroupBy(t.Name).
				OrderBy(t.Name.Asc()), tupleRow)
		},
	},
	{
		Name:        "oldest_members",
		Description: "members whose age equals the maximum age",
		Build: func(f *dsl.Factory) Query {
			m, sub := NewQMember("member"), NewQMember("sub")
			return erase(dsl.SelectFrom(f, m).
				Where(m.Age.Eq(dsl.Sub[int64](sub.Age.Max()).From(sub))), memberRow)
		},
	},
	{
		Name:        "members_at_least_average",
		Description: "members at least as old as the average",
		Build: func(f *dsl.Factory) Query {
			m, sub := NewQMember("member"), NewQMember("sub")
			return erase(dsl.SelectFrom(f, m).
				Where(m.Age.Goe(dsl.Sub[float64](sub.Age.Avg()).From(sub))).
				OrderBy(m.Age.Asc()), memberRow)
		},
	},
	{
		Name:        "members_paged",
		Description: "second page of two members by descending username",
		Build: func(f *dsl.Factory) Query {
			m := NewQMember("member")
			return erase(dsl.SelectFrom(f, m).
				OrderBy(m.Username.Desc()).
				Offset(1).
				Limit(2), memberRow)
		},
	},
	{
		Name:        "members_of_team",
		Description: "members of teamA through a relation join",
		Build: func(f *dsl.Factory) Query {
			m, t := NewQMember("member"), NewQTeam("team")
			return erase(dsl.SelectFrom(f, m).
				Join(m.Team, t).
				Where(t.Name.Eq("teamA")).
				OrderBy(m.Age.Asc()), memberRow)
		},
	},
	{
		Name:        "age_groups",
		Description: "searched case over member age",
		Build: func(f *dsl.Factory) Query {
			m := NewQMember("member")
			group := dsl.Cases[string]().
				When(m.Age.Loe(20)).Then("junior").
				When(m.Age.Between(21, 30)).Then("middle").
				Otherwise("senior")
			return erase(dsl.SelectTuple(f, m.Username, group).
				From(m).
				OrderBy(m.Age.Asc()), tupleRow)
		},
	},
	{
		Name:        "username_and_age",
		Description: "username concatenated with the age as text",
		Build: func(f *dsl.Factory) Query {
			m := NewQMember("member")
			return erase(dsl.Select[string](f, m.Username.Concat("_").Concat(m.Age.StringValue())).
				From(m).
				OrderBy(m.Age.Asc()), valueRow[string])
		},
	},
	{
		Name:        "theta_join",
		Description: "members named after a team, joined without a relation",
		Build: func(f *dsl.Factory) Query {
			m, t := NewQMember("member"), NewQTeam("team")
			return erase(dsl.SelectTuple(f, m.Username, t.Name).
				From(m, t).
				Where(m.Username.Eq(t.Name)), tupleRow)
		},
	},
	{
		Name:        "left_join_on",
		Description: "every member with its team only when the team is teamA",
		Build: func(f *dsl.Factory) Query {
			m, t := NewQMember("member"), NewQTeam("team")
			return erase(dsl.Select(f, dsl.Constructor2(func(u string, team *string) []any {
				if team == nil {
					return []any{u, nil}
				}
				return []any{u, *team}
			}, dsl.Projection[string](m.Username), dsl.Nullable[string](t.Name))).
				From(m).
				LeftJoin(m.Team, t).
				On(t.Name.Eq("teamA")).
				OrderBy(m.Age.Asc()), func(r []any) []any { return r })
		},
	},
	{
		Name:        "member_count",
		Description: "number of members",
		Build: func(f *dsl.Factory) Query {
			m := NewQMember("member")
			return erase(dsl.Select[int64](f, m.Count()).From(m), valueRow[int64])
		},
	},
	{
		Name:        "age_vs_average",
		Description: "each member next to the overall average age",
		Build: func(f *dsl.Factory) Query {
			m, sub := NewQMember("member"), NewQMember("sub")
			return erase(dsl.SelectTuple(f, m.Username, dsl.Sub[float64](sub.Age.Avg()).From(sub)).
				From(m).
				OrderBy(m.Age.Asc()), tupleRow)
		},
	},
	{
		Name:        "usernames_nulls_last",
		Description: "usernames ascending with nulls last",
		Build: func(f *dsl.Factory) Query {
			m := NewQMember("member")
			return erase(dsl.Select(f, dsl.Nullable[string](m.Username)).
				From(m).
				OrderBy(m.Username.Asc().NullsLast()), nullableRow[string])
		},
	},
}

// Catalog returns the named queries sorted by name.
func Catalog() []Entry {
	out := make([]Entry, len(catalog))
	copy(out, catalog)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the named query.
func Lookup(name string) (Entry, bool) {
	for _, e := range catalog {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}
