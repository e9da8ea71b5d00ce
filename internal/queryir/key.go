package queryir

import (
	"github.com/Chasungsoo/querydsl/internal/ir"
)

// Describe returns the canonical description of an expression: a tree of
// maps, slices and ir values suitable for ir.MarshalCanonical.
func Describe(e Expression) any {
	switch n := e.(type) {
	case nil:
		return nil
	case Path:
		return map[string]any{
			"kind":     "path",
			"entity":   n.Entity,
			"alias":    n.Alias,
			"property": n.Property,
			"target":   n.Target,
		}
	case Constant:
		var v ir.Value = ir.Null{}
		if n.Value != nil {
			v = n.Value
		}
		return map[string]any{
			"kind":  "constant",
			"type":  string(n.Type()),
			"value": v,
		}
	case Operation:
		return map[string]any{
			"kind": "operation",
			"op":   string(n.Op),
			"args": describeAll(n.Args),
		}
	case Case:
		whens := make([]any, len(n.Whens))
		for i, w := range n.Whens {
			whens[i] = []any{Describe(w.Cond), Describe(w.Result)}
		}
		return map[string]any{
			"kind":    "case",
			"operand": Describe(n.Operand),
			"whens":   whens,
			"else":    Describe(n.Else),
		}
	case SubQuery:
		return map[string]any{
			"kind":  "subquery",
			"query": DescribeQuery(n.Query),
		}
	case Alias:
		return map[string]any{
			"kind": "alias",
			"name": n.Name,
			"expr": Describe(n.Expr),
		}
	}
	return nil
}

func describeAll(es []Expression) []any {
	out := make([]any, len(es))
	for i, e := range es {
		out[i] = Describe(e)
	}
	return out
}

// DescribeQuery returns the canonical description of a query.
func DescribeQuery(q Query) any {
	from := make([]any, len(q.From))
	for i, s := range q.From {
		from[i] = []any{s.Entity, s.Alias}
	}

	joins := make([]any, len(q.Joins))
	for i, j := range q.Joins {
		var rel any
		if j.Relation != nil {
			rel = Describe(*j.Relation)
		}
		joins[i] = map[string]any{
			"kind":     string(j.Kind),
			"relation": rel,
			"source":   []any{j.Source.Entity, j.Source.Alias},
			"on":       describeAll(j.On),
			"fetch":    j.Fetch,
		}
	}

	order := make([]any, len(q.OrderBy))
	for i, o := range q.OrderBy {
		order[i] = []any{Describe(o.Expr), string(o.Direction), string(o.Nulls)}
	}

	return map[string]any{
		"shape":    string(q.Projection.Shape),
		"target":   q.Projection.Target,
		"select":   describeAll(q.Projection.Items),
		"distinct": q.Distinct,
		"from":     from,
		"joins":    joins,
		"where":    describeAll(q.Where),
		"group_by": describeAll(q.GroupBy),
		"having":   describeAll(q.Having),
		"order_by": order,
		"offset":   optionalInt(q.Offset),
		"limit":    optionalInt(q.Limit),
	}
}

func optionalInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

// Key returns the structural identity of an expression.
// Equal expressions (same shape, aliases, literals) share a key.
func Key(e Expression) string {
	return ir.MustFingerprint(ir.DomainExpression, Describe(e))
}

// Equal reports whether two expressions are structurally identical.
func Equal(a, b Expression) bool {
	return Key(a) == Key(b)
}

// Fingerprint returns the structural identity of a whole query.
func (q Query) Fingerprint() string {
	return ir.MustFingerprint(ir.DomainQuery, DescribeQuery(q))
}
