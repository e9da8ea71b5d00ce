// Package dsl is the typed query-construction surface.
//
// Generated entity paths (see internal/codegen) expose typed properties
// built from the wrappers in this package:
//
//	Value[T]   any expression producing T
//	Number[T]  numeric expressions: ordering, arithmetic, aggregates
//	String     string expressions: like, concat, case folding
//	Bool       predicates: and, or, not
//	Time       temporal expressions: ordering, min, max
//
// Queries are assembled with the package-level constructors (Select,
// SelectFrom, SelectTuple, Sub) and refined with builder methods:
//
//	m := fixture.NewQMember("member")
//	t := fixture.NewQTeam("team")
//	q := dsl.Select(f, dsl.TupleOf(t.Name, m.Age.Avg())).
//		From(m).
//		Join(m.Team, t).
//		GroupBy(t.Name)
//
// Every builder method returns a new query; a base query can be refined in
// several directions without interference.
//
// ERRORS:
//
// Operator methods accept Go literals or other expressions and check
// operand types as the node is built. A failed check does not panic: the
// resulting expression carries the error, every expression built from it
// carries the same error, and a query that receives it is poisoned. Later
// builder calls on a poisoned query are no-ops and every terminal call
// returns the first error.
//
// MATERIALIZATION:
//
// A Projection[T] names the expressions it selects and turns one result Row
// into a T. Single expressions, tuples, generated entities, beans, field
// targets, constructors and generated projections are all projections. No
// reflection is involved: targets expose their setters or fields through
// the Mutators and FieldRefs interfaces, and values are converted with
// Convert.
package dsl
