package queryir

import (
	"fmt"

	"github.com/Chasungsoo/querydsl/internal/ir"
)

// Expression is a typed node in a query tree.
//
// This is a sealed interface - only types in this package implement it.
// Every expression reports its semantic type; predicates are expressions of
// type ir.TypeBool.
type Expression interface {
	exprNode() // Marker method - seals interface to this package

	// Type returns the semantic type of the expression.
	Type() ir.Type
}

// Path references an entity root or one of its properties.
//
// Semantics:
//
//	<alias>             (Property == "")
//	<alias>.<property>
//
// A Path is bound to a query alias, not to a table: the translator resolves
// Entity and Property through the metamodel registry. When Target is set the
// property is a relation to another entity and the path may be used as a
// join target.
//
// Example:
//
//	Path{Entity: "Member", Alias: "member", Property: "age", T: ir.TypeInt}
//
// Translates to SQL:
//
//	member.age
//
// Entity roots used outside a select list translate to their identifier
// column, so count(member) becomes COUNT(member.id).
type Path struct {
	Entity   string  // Entity name in the metamodel (e.g., "Member")
	Alias    string  // Query alias (e.g., "member")
	Property string  // Property name; empty for the entity root
	Target   string  // Target entity for relation paths
	T        ir.Type // Property type; ignored for roots and relations
}

func (Path) exprNode() {}

// Type returns ir.TypeEntity for roots and relations.
func (p Path) Type() ir.Type {
	if p.IsRoot() || p.IsRelation() {
		return ir.TypeEntity
	}
	return p.T
}

// IsRoot reports whether the path denotes the entity itself.
func (p Path) IsRoot() bool {
	return p.Property == ""
}

// IsRelation reports whether the path denotes a relation property.
func (p Path) IsRelation() bool {
	return p.Target != ""
}

// String renders the path as alias.property.
func (p Path) String() string {
	if p.IsRoot() {
		return p.Alias
	}
	return p.Alias + "." + p.Property
}

// Constant is a literal value bound as a positional parameter.
type Constant struct {
	Value ir.Value
}

func (Constant) exprNode() {}

// Type returns the literal's type; null is ir.TypeAny.
func (c Constant) Type() ir.Type {
	if c.Value == nil {
		return ir.TypeAny
	}
	return c.Value.Type()
}

// NewConstant normalizes a Go literal.
// Unsupported Go types are a type mismatch.
func NewConstant(v any) (Constant, error) {
	val, err := ir.FromGo(v)
	if err != nil {
		return Constant{}, Wrap(CodeTypeMismatch, err, "invalid literal")
	}
	return Constant{Value: val}, nil
}

// Operation applies an operator to ordered arguments.
//
// Semantics depend on Op; see the operator table in ops.go. T is fixed at
// construction by NewOperation and never recomputed.
type Operation struct {
	Op   Operator
	Args []Expression
	T    ir.Type
}

func (Operation) exprNode() {}

func (o Operation) Type() ir.Type {
	return o.T
}

// When is one branch of a Case expression.
type When struct {
	Cond   Expression // Predicate (searched form) or value compared to Operand
	Result Expression
}

// Case is a conditional expression.
//
// Semantics:
//
//	CASE WHEN <cond> THEN <result> ... ELSE <else> END          (Operand == nil)
//	CASE <operand> WHEN <value> THEN <result> ... ELSE <else> END
//
// Else may be nil, in which case unmatched rows yield null.
type Case struct {
	Operand Expression
	Whens   []When
	Else    Expression
	T       ir.Type
}

func (Case) exprNode() {}

func (c Case) Type() ir.Type {
	return c.T
}

// NewCase validates branch types.
// Searched conditions must be boolean; simple-form values must be
// comparable to the operand; every result must be compatible with the
// first one.
func NewCase(operand Expression, whens []When, otherwise Expression) (Case, error) {
	if len(whens) == 0 {
		return Case{}, Errorf(CodeInvalidQuery, "case expression needs at least one when branch")
	}

	result := ir.TypeAny
	for i, w := range whens {
		if operand == nil {
			if w.Cond.Type() != ir.TypeBool && w.Cond.Type() != ir.TypeAny {
				return Case{}, Errorf(CodeTypeMismatch, "case branch %d: condition %s is %s, not bool", i, Format(w.Cond), w.Cond.Type())
			}
		} else if !ir.Compatible(operand.Type(), w.Cond.Type()) {
			return Case{}, Errorf(CodeTypeMismatch, "case branch %d: %s cannot be compared to %s", i, Format(w.Cond), Format(operand))
		}
		if !ir.Compatible(result, w.Result.Type()) {
			return Case{}, Errorf(CodeTypeMismatch, "case branch %d: result %s is %s, expected %s", i, Format(w.Result), w.Result.Type(), result)
		}
		result = ir.Promote(result, w.Result.Type())
	}
	if otherwise != nil {
		if !ir.Compatible(result, otherwise.Type()) {
			return Case{}, Errorf(CodeTypeMismatch, "case otherwise: %s is %s, expected %s", Format(otherwise), otherwise.Type(), result)
		}
		result = ir.Promote(result, otherwise.Type())
	}

	return Case{Operand: operand, Whens: whens, Else: otherwise, T: result}, nil
}

// SubQuery embeds a complete query as an expression.
//
// Used as a scalar (comparison operand, select item) the query must project
// exactly one expression; used as a row set (in, exists) any arity is
// accepted. The subquery's aliases live in their own scope.
type SubQuery struct {
	Query Query
}

func (SubQuery) exprNode() {}

// Type is the type of the single projected expression, or ir.TypeAny.
func (s SubQuery) Type() ir.Type {
	if len(s.Query.Projection.Items) == 1 {
		return s.Query.Projection.Items[0].Type()
	}
	return ir.TypeAny
}

// Scalar reports whether the subquery can stand for a single value.
func (s SubQuery) Scalar() bool {
	return len(s.Query.Projection.Items) == 1
}

// Alias names an expression for projection matching.
// The name is consulted by bean and field projections; translators ignore it.
type Alias struct {
	Expr Expression
	Name string
}

func (Alias) exprNode() {}

func (a Alias) Type() ir.Type {
	return a.Expr.Type()
}

// Unalias strips any Alias wrappers.
func Unalias(e Expression) Expression {
	for {
		a, ok := e.(Alias)
		if !ok {
			return e
		}
		e = a.Expr
	}
}

// Name returns the projection name of an expression: the alias if present,
// otherwise the property name of a path. Other expressions have no name.
func Name(e Expression) (string, bool) {
	switch n := e.(type) {
	case Alias:
		return n.Name, true
	case Path:
		if n.IsRoot() {
			return n.Alias, true
		}
		return n.Property, true
	}
	return "", false
}

// Predicate checks that e can be used as a filter.
func Predicate(e Expression) (Expression, error) {
	if e == nil {
		return nil, nil
	}
	if t := e.Type(); t != ir.TypeBool && t != ir.TypeAny {
		return nil, Errorf(CodeTypeMismatch, "%s is %s, not a predicate", Format(e), t)
	}
	return e, nil
}

func typeMismatch(op Operator, format string, args ...any) error {
	return Errorf(CodeTypeMismatch, "%s: %s", op, fmt.Sprintf(format, args...))
}
