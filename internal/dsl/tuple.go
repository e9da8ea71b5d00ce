package dsl

import (
	"fmt"

	"github.com/Chasungsoo/querydsl/internal/queryir"
)

// TupleProjection selects several expressions and returns them as a Tuple.
type TupleProjection struct {
	items []Selection
	keys  map[string]int
	err   error
}

// TupleOf projects items into tuples keyed by expression.
func TupleOf(items ...Selection) TupleProjection {
	p := TupleProjection{items: items, keys: make(map[string]int, len(items))}
	for i, it := range items {
		n, err := it.Node()
		if err != nil {
			p.err = err
			return p
		}
		k := queryir.Key(n)
		if _, dup := p.keys[k]; !dup {
			p.keys[k] = i
		}
	}
	return p
}

// Selections implements Projection.
func (p TupleProjection) Selections() []Expr {
	out := make([]Expr, len(p.items))
	for i, it := range p.items {
		out[i] = it
	}
	return out
}

// Shape implements Projection.
func (p TupleProjection) Shape() queryir.Shape {
	return queryir.ShapeTuple
}

// Err returns the first error recorded while building the items.
func (p TupleProjection) Err() error {
	return p.err
}

// Materialize implements Projection.
func (p TupleProjection) Materialize(r *Row) (Tuple, error) {
	if p.err != nil {
		return Tuple{}, p.err
	}
	values := make([]any, len(p.items))
	for i, it := range p.items {
		v, err := it.Read(r.Sub(i))
		if err != nil {
			return Tuple{}, fmt.Errorf("tuple item %d: %w", i, err)
		}
		values[i] = v
	}
	return Tuple{keys: p.keys, values: values}, nil
}

// Tuple is one row of a tuple projection.
type Tuple struct {
	keys   map[string]int
	values []any
}

// Len is the number of items.
func (t Tuple) Len() int {
	return len(t.values)
}

// At returns item i.
func (t Tuple) At(i int) any {
	return t.values[i]
}

// Lookup returns the value selected for e.
func (t Tuple) Lookup(e Expr) (any, bool) {
	n, err := e.Node()
	if err != nil {
		return nil, false
	}
	i, ok := t.keys[queryir.Key(n)]
	if !ok {
		return nil, false
	}
	return t.values[i], true
}

// Get returns the value selected for e. It panics if e was not selected.
func (t Tuple) Get(e Expr) any {
	v, ok := t.Lookup(e)
	if !ok {
		desc := "<invalid>"
		if n, err := e.Node(); err == nil {
			desc = queryir.Format(n)
		}
		panic(fmt.Sprintf("dsl: %s was not selected", desc))
	}
	return v
}

// TupleValue returns the value selected for e as T.
func TupleValue[T any](t Tuple, e Expr) (T, error) {
	var zero T
	v, ok := t.Lookup(e)
	if !ok {
		return zero, queryir.Errorf(queryir.CodeInvalidQuery, "expression was not selected")
	}
	if x, ok := v.(T); ok || v == nil {
		return x, nil
	}
	return Convert[T](v)
}
