package dsl

import (
	"time"

	"github.com/Chasungsoo/querydsl/internal/ir"
	"github.com/Chasungsoo/querydsl/internal/queryir"
)

// Expr is any expression usable in a query.
//
// Node returns the expression tree, or the error recorded while building
// it. Implemented by the typed wrappers, entity paths and queries used as
// subqueries.
type Expr interface {
	Node() (queryir.Expression, error)
}

// expr is the shared state of every typed wrapper.
type expr struct {
	node queryir.Expression
	err  error
}

func (e expr) Node() (queryir.Expression, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.node == nil {
		return nil, queryir.Errorf(queryir.CodeInvalidQuery, "empty expression")
	}
	return e.node, nil
}

func failed(err error) expr {
	return expr{err: err}
}

func node(n queryir.Expression) expr {
	return expr{node: n}
}

// operand converts a builder argument into a tree node: expressions are
// used as-is, anything else is a literal.
func operand(v any) (queryir.Expression, error) {
	if e, ok := v.(Expr); ok {
		return e.Node()
	}
	c, err := queryir.NewConstant(v)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// apply builds an operation over the receiver's node and extra operands.
func (e expr) apply(op queryir.Operator, args ...any) expr {
	if e.err != nil {
		return e
	}
	self, err := e.Node()
	if err != nil {
		return failed(err)
	}

	nodes := make([]queryir.Expression, 0, len(args)+1)
	nodes = append(nodes, self)
	for _, a := range args {
		n, err := operand(a)
		if err != nil {
			return failed(err)
		}
		nodes = append(nodes, n)
	}

	o, err := queryir.NewOperation(op, nodes...)
	if err != nil {
		return failed(err)
	}
	return node(o)
}

// Value is an expression producing values of type T.
//
// Value[T] is also a single-column Projection[T].
type Value[T any] struct {
	expr
}

// Constant wraps a literal. Constants in the select list are bound as
// parameters and echoed back by the backend.
func Constant[T any](v T) Value[T] {
	c, err := queryir.NewConstant(v)
	if err != nil {
		return Value[T]{failed(err)}
	}
	return Value[T]{node(c)}
}

// Eq is the equality predicate: e = v.
func (e Value[T]) Eq(v any) Bool {
	return Bool{Value[bool]{e.apply(queryir.OpEq, v)}}
}

// Ne is the inequality predicate: e <> v.
func (e Value[T]) Ne(v any) Bool {
	return Bool{Value[bool]{e.apply(queryir.OpNe, v)}}
}

// In tests membership in a list of values, or in a subquery when the only
// argument is a query.
func (e Value[T]) In(vs ...any) Bool {
	return Bool{Value[bool]{e.apply(queryir.OpIn, vs...)}}
}

// NotIn is the negation of In.
func (e Value[T]) NotIn(vs ...any) Bool {
	return Bool{Value[bool]{e.apply(queryir.OpNotIn, vs...)}}
}

func (e Value[T]) IsNull() Bool {
	return Bool{Value[bool]{e.apply(queryir.OpIsNull)}}
}

func (e Value[T]) IsNotNull() Bool {
	return Bool{Value[bool]{e.apply(queryir.OpIsNotNull)}}
}

// As names the expression. Bean and field projections match target
// properties by this name.
func (e Value[T]) As(name string) Value[T] {
	if e.err != nil {
		return e
	}
	n, err := e.Node()
	if err != nil {
		return Value[T]{failed(err)}
	}
	if !queryir.ValidAlias(name) {
		return Value[T]{failed(queryir.Errorf(queryir.CodeInvalidQuery, "invalid alias %q", name))}
	}
	return Value[T]{node(queryir.Alias{Expr: n, Name: name})}
}

// Asc orders by the expression ascending.
func (e Value[T]) Asc() Order {
	return newOrder(e, queryir.Asc)
}

// Desc orders by the expression descending.
func (e Value[T]) Desc() Order {
	return newOrder(e, queryir.Desc)
}

// Count counts non-null values.
func (e Value[T]) Count() Number[int64] {
	return Number[int64]{Value[int64]{e.apply(queryir.OpCount)}}
}

// CountDistinct counts distinct non-null values.
func (e Value[T]) CountDistinct() Number[int64] {
	return Number[int64]{Value[int64]{e.apply(queryir.OpCountDistinct)}}
}

// StringValue casts the expression to text.
func (e Value[T]) StringValue() String {
	return String{Value[string]{e.apply(queryir.OpStringValue)}}
}

// Selections implements Projection.
func (e Value[T]) Selections() []Expr {
	return []Expr{e}
}

// Shape implements Projection.
func (e Value[T]) Shape() queryir.Shape {
	return queryir.ShapeSingle
}

// Materialize implements Projection. Null becomes the zero value of T.
func (e Value[T]) Materialize(r *Row) (T, error) {
	return Convert[T](r.Value(0))
}

// Read implements Selection.
func (e Value[T]) Read(r *Row) (any, error) {
	return e.Materialize(r)
}

// Order is one ordering term.
type Order struct {
	spec queryir.OrderSpecifier
	err  error
}

func newOrder(e Expr, dir queryir.Direction) Order {
	n, err := e.Node()
	if err != nil {
		return Order{err: err}
	}
	return Order{spec: queryir.OrderSpecifier{Expr: n, Direction: dir}}
}

// NullsFirst places nulls before all other values.
func (o Order) NullsFirst() Order {
	o.spec.Nulls = queryir.NullsFirst
	return o
}

// NullsLast places nulls after all other values.
func (o Order) NullsLast() Order {
	o.spec.Nulls = queryir.NullsLast
	return o
}

// typeOf maps the Go types of typed paths to semantic types.
func typeOf[T any]() ir.Type {
	var zero T
	switch any(zero).(type) {
	case int, int32, int64:
		return ir.TypeInt
	case float32, float64:
		return ir.TypeFloat
	case string:
		return ir.TypeString
	case bool:
		return ir.TypeBool
	case time.Time:
		return ir.TypeTime
	}
	return ir.TypeAny
}
