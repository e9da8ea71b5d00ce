package queryir

import (
	"regexp"

	"github.com/Chasungsoo/querydsl/internal/ir"
)

// validAlias matches aliases that can be emitted into SQL unquoted.
var validAlias = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidAlias reports whether name can be used as a query alias.
func ValidAlias(name string) bool {
	return validAlias.MatchString(name)
}

// Validate checks whole-query invariants.
//
// Rules:
//  1. The query projects at least one expression from at least one source
//  2. Aliases are unique within a query scope (ALIAS_CONFLICT)
//  3. A relation join is rooted at an alias declared earlier in the same
//     query; a fetch join that is not is UNBOUND_FETCH_JOIN
//  4. Every path resolves through the scope chain: the query's own aliases,
//     then those of enclosing queries (UNBOUND_ALIAS)
//  5. Where, having and on conditions are boolean (TYPE_MISMATCH)
//  6. Offset and limit are non-negative (INVALID_QUERY)
//  7. In an aggregated query, paths outside aggregates appear in group by
//     (INVALID_QUERY, best effort)
//
// Validate is a pure function with no side effects. It returns the first
// violation found.
func Validate(q Query) error {
	return validateQuery(q, nil)
}

// scope is one level of alias visibility.
type scope struct {
	aliases map[string]string // alias -> entity
	parent  *scope
}

func (s *scope) resolve(alias string) (string, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if entity, ok := cur.aliases[alias]; ok {
			return entity, true
		}
	}
	return "", false
}

func validateQuery(q Query, parent *scope) error {
	if len(q.Projection.Items) == 0 {
		return Errorf(CodeInvalidQuery, "query projects nothing")
	}
	if len(q.From) == 0 {
		return Errorf(CodeInvalidQuery, "query has no from source")
	}

	s := &scope{aliases: map[string]string{}, parent: parent}
	declare := func(src Source) error {
		if !ValidAlias(src.Alias) {
			return Errorf(CodeInvalidQuery, "invalid alias %q for %s", src.Alias, src.Entity)
		}
		if prev, dup := s.aliases[src.Alias]; dup {
			return Errorf(CodeAliasConflict, "alias %q already declares %s", src.Alias, prev)
		}
		s.aliases[src.Alias] = src.Entity
		return nil
	}

	for _, src := range q.From {
		if err := declare(src); err != nil {
			return err
		}
	}

	for i, j := range q.Joins {
		if j.Relation == nil {
			if j.Fetch {
				return Errorf(CodeUnboundFetchJoin, "join %d (%s %s): fetch join needs a relation path", i, j.Source.Entity, j.Source.Alias)
			}
		} else {
			if _, ok := s.aliases[j.Relation.Alias]; !ok {
				code := CodeUnboundAlias
				if j.Fetch {
					code = CodeUnboundFetchJoin
				}
				return Errorf(code, "join %d: %s is not rooted at a source declared before it", i, j.Relation)
			}
			if !j.Relation.IsRelation() {
				return Errorf(CodeTypeMismatch, "join %d: %s is not a relation", i, j.Relation)
			}
			if j.Relation.Target != j.Source.Entity {
				return Errorf(CodeTypeMismatch, "join %d: %s targets %s, alias %q is %s",
					i, j.Relation, j.Relation.Target, j.Source.Alias, j.Source.Entity)
			}
		}
		if err := declare(j.Source); err != nil {
			return err
		}
		if err := validateFilters("on", j.On, s); err != nil {
			return err
		}
	}

	for _, item := range q.Projection.Items {
		if err := validateExpr(item, s); err != nil {
			return err
		}
	}
	if err := validateFilters("where", q.Where, s); err != nil {
		return err
	}
	for _, g := range q.GroupBy {
		if err := validateExpr(g, s); err != nil {
			return err
		}
	}
	if err := validateFilters("having", q.Having, s); err != nil {
		return err
	}
	for _, o := range q.OrderBy {
		if err := validateExpr(o.Expr, s); err != nil {
			return err
		}
	}

	if q.Offset != nil && *q.Offset < 0 {
		return Errorf(CodeInvalidQuery, "offset %d is negative", *q.Offset)
	}
	if q.Limit != nil && *q.Limit < 0 {
		return Errorf(CodeInvalidQuery, "limit %d is negative", *q.Limit)
	}

	return validateGrouping(q)
}

func validateFilters(clause string, preds []Expression, s *scope) error {
	for _, p := range preds {
		if p == nil {
			continue
		}
		if t := p.Type(); t != ir.TypeBool && t != ir.TypeAny {
			return Errorf(CodeTypeMismatch, "%s: %s is %s, not a predicate", clause, Format(p), t)
		}
		if err := validateExpr(p, s); err != nil {
			return err
		}
	}
	return nil
}

func validateExpr(e Expression, s *scope) error {
	var err error
	Walk(e, func(n Expression) bool {
		if err != nil {
			return false
		}
		switch x := n.(type) {
		case Path:
			entity, ok := s.resolve(x.Alias)
			if !ok {
				err = Errorf(CodeUnboundAlias, "%s references alias %q which is not in scope", x, x.Alias)
			} else if entity != x.Entity {
				err = Errorf(CodeTypeMismatch, "%s belongs to %s but alias %q declares %s", x, x.Entity, x.Alias, entity)
			}
		case SubQuery:
			err = validateQuery(x.Query, s)
		}
		return err == nil
	})
	return err
}

// validateGrouping is best-effort: it only rejects select items whose free
// paths are neither grouped nor part of a grouped expression.
func validateGrouping(q Query) error {
	if !q.Aggregated() {
		return nil
	}

	grouped := make(map[string]bool, len(q.GroupBy))
	for _, g := range q.GroupBy {
		grouped[Key(Unalias(g))] = true
	}

	for _, item := range q.Projection.Items {
		expr := Unalias(item)
		if grouped[Key(expr)] {
			continue
		}
		for _, p := range FreePaths(expr) {
			if !grouped[Key(p)] {
				return Errorf(CodeInvalidQuery, "%s must appear in group by or inside an aggregate", p)
			}
		}
	}
	return nil
}
