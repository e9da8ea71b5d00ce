package queryir

// Walk visits e and its children depth-first.
// If fn returns false the children of that node are skipped. Walk does not
// descend into subqueries; callers that care inspect SubQuery.Query.
func Walk(e Expression, fn func(Expression) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case Operation:
		for _, a := range n.Args {
			Walk(a, fn)
		}
	case Case:
		Walk(n.Operand, fn)
		for _, w := range n.Whens {
			Walk(w.Cond, fn)
			Walk(w.Result, fn)
		}
		Walk(n.Else, fn)
	case Alias:
		Walk(n.Expr, fn)
	}
}

// ContainsAggregate reports whether e applies an aggregate outside of
// nested subqueries.
func ContainsAggregate(e Expression) bool {
	found := false
	Walk(e, func(n Expression) bool {
		if o, ok := n.(Operation); ok && o.Op.Aggregate() {
			found = true
		}
		return !found
	})
	return found
}

// FreePaths returns the paths of e that are not inside an aggregate.
func FreePaths(e Expression) []Path {
	var out []Path
	Walk(e, func(n Expression) bool {
		switch x := n.(type) {
		case Operation:
			return !x.Op.Aggregate()
		case Path:
			out = append(out, x)
		}
		return true
	})
	return out
}
