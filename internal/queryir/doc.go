// Package queryir provides the abstract query representation produced by the
// typed DSL and consumed by SQL translators.
//
// ARCHITECTURE:
//
// The query IR sits between the fluent builder and backend translators:
//
//	[dsl builder] → [Query IR] → [querysql translator] → [execution surface]
//
// The IR is a tree of immutable values. Builders append to copies; once a
// Query leaves the builder it is never mutated, so it can be translated and
// executed any number of times, concurrently.
//
// SEALED INTERFACES:
//
// Expression is a sealed interface using the marker method pattern. Only
// types in this package implement it, which keeps type switches in
// translators exhaustive:
//
//	switch e := expr.(type) {
//	case Path:
//	case Constant:
//	case Operation:
//	case Case:
//	case SubQuery:
//	case Alias:
//	}
//
// Predicates are not a separate node kind: a predicate is any Expression
// whose Type is ir.TypeBool. And, Or and Not are Operations.
//
// STRUCTURAL IDENTITY:
//
// Expressions compare structurally. Key derives a domain-separated
// fingerprint from the canonical description of a node (see ir.Fingerprint);
// two expressions are Equal when their keys match. Tuple lookups and
// group-by coverage checks rely on this.
//
// TYPE CHECKING:
//
// Constructors (NewOperation, NewConstant, NewCase) enforce the operator
// signature table and return a *QueryError with CodeTypeMismatch when
// operand categories do not fit. Checks that depend on backend coercion
// rules are left to the backend.
//
// VALIDATION:
//
// Validate checks whole-query invariants: alias uniqueness per scope,
// fetch-join reachability, alias visibility through the subquery scope
// chain, boolean filters, paging bounds and best-effort group-by coverage.
package queryir
