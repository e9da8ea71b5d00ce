package dsl

import (
	"github.com/Chasungsoo/querydsl/internal/queryir"
)

// Query is a query under construction projecting rows into T.
//
// Every builder method returns a new Query; the receiver is never
// modified. The first error recorded poisons the query: later builder
// calls return it unchanged and every terminal reports that error.
type Query[T any] struct {
	factory *Factory
	proj    Projection[T]
	ast     queryir.Query
	err     error
}

// Select starts a query projecting p. f may be nil for queries that are
// only built or used as subqueries.
func Select[T any](f *Factory, p Projection[T]) *Query[T] {
	q := &Query[T]{factory: f, proj: p}
	if err := errOf(p); err != nil {
		q.err = err
		return q
	}

	items := p.Selections()
	nodes := make([]queryir.Expression, 0, len(items))
	for _, it := range items {
		n, err := it.Node()
		if err != nil {
			q.err = err
			return q
		}
		nodes = append(nodes, n)
	}
	if len(nodes) == 0 {
		q.err = queryir.Errorf(queryir.CodeInvalidQuery, "empty projection")
		return q
	}

	target := ""
	if t, ok := p.(interface{ Target() string }); ok {
		target = t.Target()
	}
	q.ast.Projection = queryir.Projection{Shape: p.Shape(), Target: target, Items: nodes}
	return q
}

// SelectFrom selects the entity e from its own alias.
func SelectFrom[T any](f *Factory, e Entity[T]) *Query[*T] {
	return Select[*T](f, e).From(e)
}

// SelectTuple selects several expressions as tuples.
func SelectTuple(f *Factory, items ...Selection) *Query[Tuple] {
	return Select[Tuple](f, TupleOf(items...))
}

// SelectDistinct is Select followed by Distinct.
func SelectDistinct[T any](f *Factory, p Projection[T]) *Query[T] {
	return Select(f, p).Distinct()
}

// Sub starts a subquery. Subqueries are expressions: they can be compared
// against, tested with In, Exists and NotExists, or selected.
func Sub[T any](p Projection[T]) *Query[T] {
	return Select(nil, p)
}

// next copies the query and applies fn to the copy's tree.
func (q *Query[T]) next(fn func(ast *queryir.Query) error) *Query[T] {
	if q.err != nil {
		return q
	}
	out := &Query[T]{factory: q.factory, proj: q.proj, ast: q.ast.Clone()}
	if err := fn(&out.ast); err != nil {
		out.err = err
	}
	return out
}

// From adds sources. Several sources form a cross product filtered by
// Where.
func (q *Query[T]) From(sources ...Source) *Query[T] {
	return q.next(func(ast *queryir.Query) error {
		for _, s := range sources {
			src, err := s.Root().source()
			if err != nil {
				return err
			}
			ast.From = append(ast.From, src)
		}
		return nil
	})
}

// Join inner-joins the target of rel under target's alias.
func (q *Query[T]) Join(rel Relation, target Source) *Query[T] {
	return q.relationJoin(queryir.JoinInner, rel, target)
}

// LeftJoin left-joins the target of rel under target's alias.
func (q *Query[T]) LeftJoin(rel Relation, target Source) *Query[T] {
	return q.relationJoin(queryir.JoinLeft, rel, target)
}

// RightJoin right-joins the target of rel under target's alias.
func (q *Query[T]) RightJoin(rel Relation, target Source) *Query[T] {
	return q.relationJoin(queryir.JoinRight, rel, target)
}

func (q *Query[T]) relationJoin(kind queryir.JoinKind, rel Relation, target Source) *Query[T] {
	return q.next(func(ast *queryir.Query) error {
		n, err := rel.Node()
		if err != nil {
			return err
		}
		path, ok := n.(queryir.Path)
		if !ok || !path.IsRelation() {
			return queryir.Errorf(queryir.CodeInvalidQuery, "%s is not a relation", queryir.Format(n))
		}
		src, err := target.Root().source()
		if err != nil {
			return err
		}
		ast.Joins = append(ast.Joins, queryir.Join{Kind: kind, Relation: &path, Source: src})
		return nil
	})
}

// JoinEntity joins an unrelated entity. The join condition comes from On;
// an inner join without one is a cross join.
func (q *Query[T]) JoinEntity(kind queryir.JoinKind, target Source) *Query[T] {
	return q.next(func(ast *queryir.Query) error {
		src, err := target.Root().source()
		if err != nil {
			return err
		}
		ast.Joins = append(ast.Joins, queryir.Join{Kind: kind, Source: src})
		return nil
	})
}

// On adds conditions to the most recent join.
func (q *Query[T]) On(preds ...Bool) *Query[T] {
	return q.next(func(ast *queryir.Query) error {
		if len(ast.Joins) == 0 {
			return queryir.Errorf(queryir.CodeInvalidQuery, "on without a join")
		}
		ps, err := predicates(preds)
		if err != nil {
			return err
		}
		last := &ast.Joins[len(ast.Joins)-1]
		last.On = append(last.On, ps...)
		return nil
	})
}

// FetchJoin marks the most recent join as a fetch join: the related entity
// is materialized with its owner.
func (q *Query[T]) FetchJoin() *Query[T] {
	return q.next(func(ast *queryir.Query) error {
		if len(ast.Joins) == 0 {
			return queryir.Errorf(queryir.CodeInvalidQuery, "fetch join without a join")
		}
		ast.Joins[len(ast.Joins)-1].Fetch = true
		return nil
	})
}

// Where adds filters. Where(a, b) and Where(And(a, b)) build the same
// query; absent predicates are ignored.
func (q *Query[T]) Where(preds ...Bool) *Query[T] {
	return q.next(func(ast *queryir.Query) error {
		ps, err := predicates(preds)
		if err != nil {
			return err
		}
		ast.Where = append(ast.Where, ps...)
		return nil
	})
}

// GroupBy adds grouping expressions.
func (q *Query[T]) GroupBy(exprs ...Expr) *Query[T] {
	return q.next(func(ast *queryir.Query) error {
		for _, e := range exprs {
			n, err := e.Node()
			if err != nil {
				return err
			}
			ast.GroupBy = append(ast.GroupBy, n)
		}
		return nil
	})
}

// Having adds group filters.
func (q *Query[T]) Having(preds ...Bool) *Query[T] {
	return q.next(func(ast *queryir.Query) error {
		ps, err := predicates(preds)
		if err != nil {
			return err
		}
		ast.Having = append(ast.Having, ps...)
		return nil
	})
}

// OrderBy adds ordering terms.
func (q *Query[T]) OrderBy(orders ...Order) *Query[T] {
	return q.next(func(ast *queryir.Query) error {
		for _, o := range orders {
			if o.err != nil {
				return o.err
			}
			ast.OrderBy = append(ast.OrderBy, o.spec)
		}
		return nil
	})
}

// Offset skips the first n rows.
func (q *Query[T]) Offset(n int64) *Query[T] {
	return q.next(func(ast *queryir.Query) error {
		ast.Offset = &n
		return nil
	})
}

// Limit returns at most n rows. A limit of 0 returns nothing without
// querying the backend.
func (q *Query[T]) Limit(n int64) *Query[T] {
	return q.next(func(ast *queryir.Query) error {
		ast.Limit = &n
		return nil
	})
}

// Distinct removes duplicate rows.
func (q *Query[T]) Distinct() *Query[T] {
	return q.next(func(ast *queryir.Query) error {
		ast.Distinct = true
		return nil
	})
}

// Err returns the error that poisoned the query, if any.
func (q *Query[T]) Err() error {
	return q.err
}

// Build returns a copy of the query tree.
func (q *Query[T]) Build() (queryir.Query, error) {
	if q.err != nil {
		return queryir.Query{}, q.err
	}
	return q.ast.Clone(), nil
}

// Node implements Expr: the query as a subquery.
func (q *Query[T]) Node() (queryir.Expression, error) {
	ast, err := q.Build()
	if err != nil {
		return nil, err
	}
	return queryir.SubQuery{Query: ast}, nil
}

// ToSQL validates and translates the query without executing it.
func (q *Query[T]) ToSQL() (string, []any, error) {
	ast, err := q.bound()
	if err != nil {
		return "", nil, err
	}
	st, err := q.factory.engine.Translate(ast)
	if err != nil {
		return "", nil, err
	}
	return st.SQL, st.Params, nil
}

// bound returns the tree of a healthy query attached to a factory.
func (q *Query[T]) bound() (queryir.Query, error) {
	ast, err := q.Build()
	if err != nil {
		return queryir.Query{}, err
	}
	if q.factory == nil {
		return queryir.Query{}, queryir.Errorf(queryir.CodeInvalidQuery, "query is not bound to a factory")
	}
	return ast, nil
}
