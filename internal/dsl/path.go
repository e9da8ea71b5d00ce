package dsl

import (
	"github.com/Chasungsoo/querydsl/internal/ir"
	"github.com/Chasungsoo/querydsl/internal/queryir"
)

// Source is anything that declares an entity alias: entity paths and the
// generated Q-types embedding them.
type Source interface {
	Root() EntityPath
}

// EntityPath is an entity bound to a query alias.
//
// Used as an expression it denotes the entity itself: in a select list it
// expands to all columns, elsewhere it stands for the identifier.
type EntityPath struct {
	entity string
	alias  string
}

// NewEntityPath binds entity to alias.
func NewEntityPath(entity, alias string) EntityPath {
	return EntityPath{entity: entity, alias: alias}
}

func (p EntityPath) Entity() string { return p.entity }
func (p EntityPath) Alias() string  { return p.alias }

// Root implements Source.
func (p EntityPath) Root() EntityPath { return p }

// Node implements Expr.
func (p EntityPath) Node() (queryir.Expression, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	return queryir.Path{Entity: p.entity, Alias: p.alias}, nil
}

func (p EntityPath) check() error {
	if p.entity == "" {
		return queryir.Errorf(queryir.CodeInvalidQuery, "entity path without entity")
	}
	if !queryir.ValidAlias(p.alias) {
		return queryir.Errorf(queryir.CodeInvalidQuery, "invalid alias %q for %s", p.alias, p.entity)
	}
	return nil
}

func (p EntityPath) source() (queryir.Source, error) {
	if err := p.check(); err != nil {
		return queryir.Source{}, err
	}
	return queryir.Source{Entity: p.entity, Alias: p.alias}, nil
}

func (p EntityPath) property(name string, t ir.Type, target string) expr {
	if err := p.check(); err != nil {
		return failed(err)
	}
	return node(queryir.Path{Entity: p.entity, Alias: p.alias, Property: name, Target: target, T: t})
}

func (p EntityPath) self() expr {
	n, err := p.Node()
	if err != nil {
		return failed(err)
	}
	return node(n)
}

// Count counts the entity's rows.
func (p EntityPath) Count() Number[int64] {
	return numberOf[int64](p.self().apply(queryir.OpCount))
}

// Eq compares identities: p = v.
func (p EntityPath) Eq(v any) Bool {
	return boolOf(p.self().apply(queryir.OpEq, v))
}

// Ne is the negation of Eq.
func (p EntityPath) Ne(v any) Bool {
	return boolOf(p.self().apply(queryir.OpNe, v))
}

// ValuePath is a property of type T.
func ValuePath[T any](parent EntityPath, name string) Value[T] {
	return Value[T]{parent.property(name, typeOf[T](), "")}
}

// NumberPath is a numeric property.
func NumberPath[T Numeric](parent EntityPath, name string) Number[T] {
	return numberOf[T](parent.property(name, typeOf[T](), ""))
}

// StringPath is a text property.
func StringPath(parent EntityPath, name string) String {
	return stringOf(parent.property(name, ir.TypeString, ""))
}

// BoolPath is a boolean property.
func BoolPath(parent EntityPath, name string) Bool {
	return boolOf(parent.property(name, ir.TypeBool, ""))
}

// TimePath is a temporal property.
func TimePath(parent EntityPath, name string) Time {
	return timeOf(parent.property(name, ir.TypeTime, ""))
}

// Relation is a relation property; it is the first argument of the
// relation joins.
type Relation struct {
	expr
	owner  EntityPath
	name   string
	target string
}

// RelationPath is a relation of parent to the target entity.
func RelationPath(parent EntityPath, name, target string) Relation {
	return Relation{
		expr:   parent.property(name, ir.TypeEntity, target),
		owner:  parent,
		name:   name,
		target: target,
	}
}

func (r Relation) Owner() EntityPath { return r.owner }
func (r Relation) Name() string      { return r.name }
func (r Relation) Target() string    { return r.target }

// IsNull matches owners without a related entity.
func (r Relation) IsNull() Bool {
	return boolOf(r.apply(queryir.OpIsNull))
}

// IsNotNull matches owners with a related entity.
func (r Relation) IsNotNull() Bool {
	return boolOf(r.apply(queryir.OpIsNotNull))
}
