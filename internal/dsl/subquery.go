package dsl

import "github.com/Chasungsoo/querydsl/internal/queryir"

// As names the subquery for use in a projection.
func (q *Query[T]) As(name string) Value[T] {
	return Value[T]{q.expr()}.As(name)
}

// Read implements Selection, so a subquery can be a tuple item.
func (q *Query[T]) Read(r *Row) (any, error) {
	return q.proj.Materialize(r)
}

func (q *Query[T]) expr() expr {
	n, err := q.Node()
	if err != nil {
		return failed(err)
	}
	return node(n)
}

// Exists is true when the subquery returns at least one row.
func Exists(sub Expr) Bool {
	n, err := sub.Node()
	if err != nil {
		return boolOf(failed(err))
	}
	op, err := queryir.NewOperation(queryir.OpExists, n)
	if err != nil {
		return boolOf(failed(err))
	}
	return boolOf(node(op))
}

// NotExists is true when the subquery returns no rows.
func NotExists(sub Expr) Bool {
	return Exists(sub).Not()
}
