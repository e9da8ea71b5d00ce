package ir

import "fmt"

// Type is the semantic type of an expression.
//
// The lattice is deliberately small: the builder only needs enough
// information to reject obviously incompatible operands. Anything finer
// (precision, collation, time zones) is left to the backend.
type Type string

const (
	// TypeAny matches every other type. Used for null literals and for
	// expressions whose type is only known to the backend.
	TypeAny    Type = "any"
	TypeInt    Type = "int"
	TypeFloat  Type = "float"
	TypeString Type = "string"
	TypeBool   Type = "bool"
	TypeTime   Type = "time"

	// TypeEntity is the type of an entity root path.
	TypeEntity Type = "entity"
)

// columnTypes lists the types a schema column may declare.
var columnTypes = map[string]Type{
	"int":    TypeInt,
	"float":  TypeFloat,
	"string": TypeString,
	"bool":   TypeBool,
	"time":   TypeTime,
}

// ParseColumnType resolves a schema type name.
func ParseColumnType(name string) (Type, error) {
	t, ok := columnTypes[name]
	if !ok {
		return "", fmt.Errorf("unknown column type %q (expected int, float, string, bool or time)", name)
	}
	return t, nil
}

// Numeric reports whether arithmetic and numeric aggregates apply.
func (t Type) Numeric() bool {
	return t == TypeInt || t == TypeFloat || t == TypeAny
}

// Ordered reports whether <, <=, >, >=, between, min and max apply.
func (t Type) Ordered() bool {
	switch t {
	case TypeInt, TypeFloat, TypeString, TypeTime, TypeAny:
		return true
	}
	return false
}

// Compatible reports whether values of type a and b may be compared.
// Int and float are mutually compatible. Time and string are compatible
// too: backends store and compare timestamps as text.
func Compatible(a, b Type) bool {
	if a == b || a == TypeAny || b == TypeAny {
		return true
	}
	if (a == TypeTime && b == TypeString) || (a == TypeString && b == TypeTime) {
		return true
	}
	return a.Numeric() && b.Numeric()
}

// Promote returns the result type of an arithmetic operation over a and b.
func Promote(a, b Type) Type {
	switch {
	case a == TypeAny:
		return b
	case b == TypeAny:
		return a
	case a == TypeFloat || b == TypeFloat:
		return TypeFloat
	}
	return a
}
