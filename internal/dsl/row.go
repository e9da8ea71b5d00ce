package dsl

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cast"

	"github.com/Chasungsoo/querydsl/internal/queryir"
	"github.com/Chasungsoo/querydsl/internal/querysql"
)

// Row is a view of one result row handed to Projection.Materialize.
//
// Index i addresses the i-th expression of the projection's Selections.
// An expression usually occupies one column; an entity occupies one
// column per attribute. Composite projections hand slices of the view to
// their parts with Sub, Range and Split.
type Row struct {
	cols    []any
	spans   []querysql.Span
	fetches []querysql.FetchGroup
	factory *Factory
}

// NewRow builds a view over cols with one span per selection. It is used
// by the query terminals and by tests materializing rows by hand.
func NewRow(f *Factory, cols []any, spans []querysql.Span, fetches []querysql.FetchGroup) *Row {
	return &Row{cols: cols, spans: spans, fetches: fetches, factory: f}
}

// Len is the number of selections in the view.
func (r *Row) Len() int {
	return len(r.spans)
}

// Value returns the first column of selection i.
func (r *Row) Value(i int) any {
	return r.cols[r.spans[i].Start]
}

// Columns returns every column of selection i.
func (r *Row) Columns(i int) []any {
	s := r.spans[i]
	return r.cols[s.Start : s.Start+s.Width]
}

// Sub narrows the view to selection i.
func (r *Row) Sub(i int) *Row {
	return r.Range(i, i+1)
}

// Range narrows the view to selections [from, to).
func (r *Row) Range(from, to int) *Row {
	return &Row{cols: r.cols, spans: r.spans[from:to:to], fetches: r.fetches, factory: r.factory}
}

// Split cuts the view into consecutive parts of the given widths, one per
// part of a composite projection.
func (r *Row) Split(widths ...int) []*Row {
	views := make([]*Row, len(widths))
	at := 0
	for i, w := range widths {
		views[i] = r.Range(at, at+w)
		at += w
	}
	return views
}

// Fetched returns the columns fetch-joined for relation of the entity
// aliased owner, and the alias they were selected under.
func (r *Row) Fetched(owner, relation string) (alias string, cols []any, ok bool) {
	for _, g := range r.fetches {
		if g.Owner == owner && g.Relation == relation {
			return g.Alias, r.cols[g.Span.Start : g.Span.Start+g.Span.Width], true
		}
	}
	return "", nil, false
}

// Factory is the factory that executed the query, nil for detached rows.
func (r *Row) Factory() *Factory {
	return r.factory
}

// Convert turns a raw column value into T.
//
// Null becomes the zero value of T (nil for pointer targets). Values are
// coerced with spf13/cast; a value that cannot be coerced is a type
// mismatch.
func Convert[T any](v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	if t, ok := v.(T); ok {
		return t, nil
	}

	var (
		out any
		err error
	)
	switch any(zero).(type) {
	case int64:
		if err = integral(v); err == nil {
			out, err = cast.ToInt64E(v)
		}
	case int:
		if err = integral(v); err == nil {
			out, err = cast.ToIntE(v)
		}
	case int32:
		if err = integral(v); err == nil {
			out, err = cast.ToInt32E(v)
		}
	case float64:
		out, err = cast.ToFloat64E(v)
	case float32:
		out, err = cast.ToFloat32E(v)
	case string:
		out, err = cast.ToStringE(v)
	case bool:
		out, err = cast.ToBoolE(v)
	case time.Time:
		out, err = cast.ToTimeE(v)
	case *int64:
		out, err = pointer[int64](v)
	case *int:
		out, err = pointer[int](v)
	case *float64:
		out, err = pointer[float64](v)
	case *string:
		out, err = pointer[string](v)
	case *bool:
		out, err = pointer[bool](v)
	case *time.Time:
		out, err = pointer[time.Time](v)
	default:
		return zero, queryir.Errorf(queryir.CodeTypeMismatch, "cannot convert %T to %T", v, zero)
	}
	if err != nil {
		return zero, queryir.Wrap(queryir.CodeTypeMismatch, err, "cannot convert %T to %T", v, zero)
	}
	return out.(T), nil
}

// integral rejects floats that an integer target would truncate.
func integral(v any) error {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	default:
		return nil
	}
	if f != math.Trunc(f) {
		return fmt.Errorf("%v has a fractional part", v)
	}
	return nil
}

func pointer[T any](v any) (*T, error) {
	x, err := Convert[T](v)
	if err != nil {
		return nil, err
	}
	return &x, nil
}

// setTo converts v and stores it in p.
func setTo[T any](p *T, v any) error {
	x, err := Convert[T](v)
	if err != nil {
		return err
	}
	*p = x
	return nil
}
