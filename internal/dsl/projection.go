package dsl

import (
	"fmt"
	"time"

	"github.com/Chasungsoo/querydsl/internal/queryir"
)

// Projection describes a select list and how a result row becomes a T.
type Projection[T any] interface {
	// Selections lists the selected expressions, in select-list order.
	Selections() []Expr
	// Shape identifies the projection kind in the query tree.
	Shape() queryir.Shape
	// Materialize converts one row; index i of r is Selections()[i].
	Materialize(r *Row) (T, error)
}

// Selection is a single expression that can also read its own value; the
// elements of a tuple.
type Selection interface {
	Expr
	Read(r *Row) (any, error)
}

// Entity is a generated entity path that materializes *T.
type Entity[T any] interface {
	Source
	Projection[*T]
	// ScanColumns builds a T from the entity's attribute columns, in
	// metamodel attribute order.
	ScanColumns(r *Row, cols []any) (*T, error)
}

// projection is the common implementation of the composite shapes.
type projection[T any] struct {
	shape       queryir.Shape
	target      string
	items       []Expr
	materialize func(r *Row) (T, error)
	err         error
}

func (p *projection[T]) Selections() []Expr   { return p.items }
func (p *projection[T]) Shape() queryir.Shape { return p.shape }
func (p *projection[T]) Target() string       { return p.target }
func (p *projection[T]) Err() error           { return p.err }

func (p *projection[T]) Materialize(r *Row) (T, error) {
	if p.err != nil {
		var zero T
		return zero, p.err
	}
	return p.materialize(r)
}

func invalid[T any](shape queryir.Shape, err error) Projection[T] {
	return &projection[T]{shape: shape, err: err}
}

// Generated is the projection emitted by the code generator for result
// types: items and fn agree on order and types at compile time.
func Generated[T any](target string, items []Expr, fn func(r *Row) (T, error)) Projection[T] {
	return &projection[T]{shape: queryir.ShapeGenerated, target: target, items: items, materialize: fn}
}

// Concat joins selection lists into a new slice.
func Concat(lists ...[]Expr) []Expr {
	var out []Expr
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// Mutator validates and stores one property of a bean.
type Mutator func(v any) error

// Set returns a Mutator storing converted values in p.
func Set[T any](p *T) Mutator {
	return func(v any) error {
		return setTo(p, v)
	}
}

// Mutators is implemented by bean targets. The map is keyed by property
// name; setters may reject values.
type Mutators interface {
	Mutators() map[string]Mutator
}

// Bean projects into a new T per row through its setters. Expressions
// are matched to properties by alias, or by property name for paths.
// A name without a setter fails at construction.
func Bean[T Mutators](newFn func() T, exprs ...Expr) Projection[T] {
	names, err := propertyNames(exprs)
	if err == nil {
		setters := newFn().Mutators()
		for _, n := range names {
			if _, ok := setters[n]; !ok {
				err = queryir.Errorf(queryir.CodeInvalidQuery, "bean %T has no property %q", newFn(), n)
				break
			}
		}
	}
	if err != nil {
		return invalid[T](queryir.ShapeBean, err)
	}

	return &projection[T]{
		shape:  queryir.ShapeBean,
		target: fmt.Sprintf("%T", newFn()),
		items:  exprs,
		materialize: func(r *Row) (T, error) {
			out := newFn()
			setters := out.Mutators()
			for i, n := range names {
				if err := setters[n](r.Value(i)); err != nil {
					return out, fmt.Errorf("set %s: %w", n, err)
				}
			}
			return out, nil
		},
	}
}

// FieldRefs is implemented by field targets: typed pointers to the
// fields, keyed by property name.
type FieldRefs interface {
	FieldRefs() map[string]any
}

// Fields projects into a new T per row by writing its fields directly.
// Matching follows Bean.
func Fields[T FieldRefs](newFn func() T, exprs ...Expr) Projection[T] {
	names, err := propertyNames(exprs)
	if err == nil {
		refs := newFn().FieldRefs()
		for _, n := range names {
			ref, ok := refs[n]
			if !ok {
				err = queryir.Errorf(queryir.CodeInvalidQuery, "%T has no field %q", newFn(), n)
				break
			}
			if err = assign(ref, nil); err != nil {
				break
			}
		}
	}
	if err != nil {
		return invalid[T](queryir.ShapeFields, err)
	}

	return &projection[T]{
		shape:  queryir.ShapeFields,
		target: fmt.Sprintf("%T", newFn()),
		items:  exprs,
		materialize: func(r *Row) (T, error) {
			out := newFn()
			refs := out.FieldRefs()
			for i, n := range names {
				if err := assign(refs[n], r.Value(i)); err != nil {
					return out, fmt.Errorf("field %s: %w", n, err)
				}
			}
			return out, nil
		},
	}
}

// assign stores v through a typed field pointer. Bean and field
// construction call it with nil on a throwaway target to check the type.
func assign(ref any, v any) error {
	switch p := ref.(type) {
	case *int64:
		return setTo(p, v)
	case *int:
		return setTo(p, v)
	case *int32:
		return setTo(p, v)
	case *float64:
		return setTo(p, v)
	case *float32:
		return setTo(p, v)
	case *string:
		return setTo(p, v)
	case *bool:
		return setTo(p, v)
	case *any:
		*p = v
		return nil
	case **int64:
		return setTo(p, v)
	case **int:
		return setTo(p, v)
	case **float64:
		return setTo(p, v)
	case **string:
		return setTo(p, v)
	case **bool:
		return setTo(p, v)
	case *time.Time:
		return setTo(p, v)
	case **time.Time:
		return setTo(p, v)
	}
	return queryir.Errorf(queryir.CodeInvalidQuery, "unsupported field type %T", ref)
}

func propertyNames(exprs []Expr) ([]string, error) {
	names := make([]string, len(exprs))
	seen := make(map[string]bool, len(exprs))
	for i, e := range exprs {
		n, err := e.Node()
		if err != nil {
			return nil, err
		}
		name, ok := queryir.Name(n)
		if !ok {
			return nil, queryir.Errorf(queryir.CodeInvalidQuery, "%s has no name; use As", queryir.Format(n))
		}
		if seen[name] {
			return nil, queryir.Errorf(queryir.CodeInvalidQuery, "property %q selected twice", name)
		}
		seen[name] = true
		names[i] = name
	}
	return names, nil
}

// Constructor1 projects through a function of one value.
func Constructor1[R, A any](fn func(A) R, a Projection[A]) Projection[R] {
	return constructor([]int{len(a.Selections())}, [][]Expr{a.Selections()}, func(r []*Row) (R, error) {
		va, err := a.Materialize(r[0])
		if err != nil {
			var zero R
			return zero, err
		}
		return fn(va), nil
	}, errOf(a))
}

// Constructor2 projects through a function of two values.
func Constructor2[R, A, B any](fn func(A, B) R, a Projection[A], b Projection[B]) Projection[R] {
	parts := [][]Expr{a.Selections(), b.Selections()}
	return constructor(widths(parts), parts, func(r []*Row) (R, error) {
		var zero R
		va, err := a.Materialize(r[0])
		if err != nil {
			return zero, err
		}
		vb, err := b.Materialize(r[1])
		if err != nil {
			return zero, err
		}
		return fn(va, vb), nil
	}, errOf(a), errOf(b))
}

// Constructor3 projects through a function of three values.
func Constructor3[R, A, B, C any](fn func(A, B, C) R, a Projection[A], b Projection[B], c Projection[C]) Projection[R] {
	parts := [][]Expr{a.Selections(), b.Selections(), c.Selections()}
	return constructor(widths(parts), parts, func(r []*Row) (R, error) {
		var zero R
		va, err := a.Materialize(r[0])
		if err != nil {
			return zero, err
		}
		vb, err := b.Materialize(r[1])
		if err != nil {
			return zero, err
		}
		vc, err := c.Materialize(r[2])
		if err != nil {
			return zero, err
		}
		return fn(va, vb, vc), nil
	}, errOf(a), errOf(b), errOf(c))
}

// Constructor4 projects through a function of four values.
func Constructor4[R, A, B, C, D any](fn func(A, B, C, D) R, a Projection[A], b Projection[B], c Projection[C], d Projection[D]) Projection[R] {
	parts := [][]Expr{a.Selections(), b.Selections(), c.Selections(), d.Selections()}
	return constructor(widths(parts), parts, func(r []*Row) (R, error) {
		var zero R
		va, err := a.Materialize(r[0])
		if err != nil {
			return zero, err
		}
		vb, err := b.Materialize(r[1])
		if err != nil {
			return zero, err
		}
		vc, err := c.Materialize(r[2])
		if err != nil {
			return zero, err
		}
		vd, err := d.Materialize(r[3])
		if err != nil {
			return zero, err
		}
		return fn(va, vb, vc, vd), nil
	}, errOf(a), errOf(b), errOf(c), errOf(d))
}

func widths(parts [][]Expr) []int {
	out := make([]int, len(parts))
	for i, p := range parts {
		out[i] = len(p)
	}
	return out
}

func constructor[R any](widths []int, parts [][]Expr, fn func([]*Row) (R, error), errs ...error) Projection[R] {
	for _, err := range errs {
		if err != nil {
			return invalid[R](queryir.ShapeConstructor, err)
		}
	}
	var items []Expr
	for _, p := range parts {
		items = append(items, p...)
	}
	var zero R
	return &projection[R]{
		shape:  queryir.ShapeConstructor,
		target: fmt.Sprintf("%T", zero),
		items:  items,
		materialize: func(r *Row) (R, error) {
			return fn(r.Split(widths...))
		},
	}
}

// errOf returns the construction error of a projection, if it records one.
func errOf(p any) error {
	if e, ok := p.(interface{ Err() error }); ok {
		return e.Err()
	}
	return nil
}

// Nullable wraps a single-value projection so that null reads as nil
// instead of the zero value.
func Nullable[T any](p Projection[T]) Projection[*T] {
	return &projection[*T]{
		shape: p.Shape(),
		items: p.Selections(),
		err:   errOf(p),
		materialize: func(r *Row) (*T, error) {
			for i := 0; i < r.Len(); i++ {
				if !allNull(r.Columns(i)) {
					v, err := p.Materialize(r)
					if err != nil {
						return nil, err
					}
					return &v, nil
				}
			}
			return nil, nil
		},
	}
}
