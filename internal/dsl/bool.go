package dsl

import "github.com/Chasungsoo/querydsl/internal/queryir"

// Bool is a predicate.
//
// The zero Bool is an absent predicate: Where, Having, On, And and Or drop
// it. Use it (or Optional) for filters that only apply under a condition.
type Bool struct {
	Value[bool]
}

// present reports whether the predicate carries a node or an error.
func (b Bool) present() bool {
	return b.node != nil || b.err != nil
}

// And is the conjunction of b and others.
func (b Bool) And(others ...Bool) Bool {
	return And(append([]Bool{b}, others...)...)
}

// Or is the disjunction of b and others.
func (b Bool) Or(others ...Bool) Bool {
	return Or(append([]Bool{b}, others...)...)
}

// Not negates b. An absent predicate stays absent.
func (b Bool) Not() Bool {
	if !b.present() {
		return b
	}
	return boolOf(b.apply(queryir.OpNot))
}

// As names the predicate for projections.
func (b Bool) As(name string) Bool {
	return Bool{b.Value.As(name)}
}

// And folds predicates into a conjunction. Absent predicates are dropped
// and nested conjunctions are flattened; with nothing left the result is
// absent.
func And(preds ...Bool) Bool {
	return connective(queryir.And, preds)
}

// Or folds predicates into a disjunction with the same rules as And.
func Or(preds ...Bool) Bool {
	return connective(queryir.Or, preds)
}

// Not negates p.
func Not(p Bool) Bool {
	return p.Not()
}

// Optional returns fn() when ok is true and an absent predicate otherwise.
//
//	q.Where(dsl.Optional(name != "", func() dsl.Bool { return m.Username.Eq(name) }))
func Optional(ok bool, fn func() Bool) Bool {
	if !ok {
		return Bool{}
	}
	return fn()
}

// Predicate uses a boolean expression as a filter. Other types are a
// type mismatch.
func Predicate(e Expr) Bool {
	if b, ok := e.(Bool); ok {
		return b
	}
	n, err := e.Node()
	if err != nil {
		return boolOf(failed(err))
	}
	p, err := queryir.Predicate(n)
	if err != nil {
		return boolOf(failed(err))
	}
	return boolOf(node(p))
}

func connective(fold func(...queryir.Expression) (queryir.Expression, error), preds []Bool) Bool {
	nodes := make([]queryir.Expression, 0, len(preds))
	for _, p := range preds {
		if !p.present() {
			continue
		}
		n, err := p.Node()
		if err != nil {
			return boolOf(failed(err))
		}
		nodes = append(nodes, n)
	}
	n, err := fold(nodes...)
	if err != nil {
		return boolOf(failed(err))
	}
	if n == nil {
		return Bool{}
	}
	return boolOf(node(n))
}

// predicates collects the conjuncts of the present predicates.
func predicates(preds []Bool) ([]queryir.Expression, error) {
	var out []queryir.Expression
	for _, p := range preds {
		if !p.present() {
			continue
		}
		n, err := p.Node()
		if err != nil {
			return nil, err
		}
		if _, err := queryir.Predicate(n); err != nil {
			return nil, err
		}
		out = append(out, queryir.Conjuncts(n)...)
	}
	return out, nil
}
