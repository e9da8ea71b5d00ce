package queryir

// Source declares an entity under an alias.
//
// Semantics:
//
//	FROM <table of Entity> <Alias>
type Source struct {
	Entity string
	Alias  string
}

// JoinKind selects the join semantics.
type JoinKind string

const (
	JoinInner JoinKind = "inner"
	JoinLeft  JoinKind = "left"
	JoinRight JoinKind = "right"
)

// Join adds a source to a query.
//
// Semantics:
//
//	<kind> JOIN <table of Source.Entity> <Source.Alias> ON <relation condition> AND <On...>
//
// Relation joins (Relation != nil) derive their condition from the
// metamodel: a to-one relation joins the owner's join column to the
// target's identifier, a to-many relation joins the target's join column
// back to the owner's identifier. Entity joins (Relation == nil) rely on On
// alone and model theta-style joins.
//
// Fetch marks a relation join whose target is hydrated along with its owner
// and attached to the owner's relation reference. It does not change which
// rows are returned.
type Join struct {
	Kind     JoinKind
	Relation *Path // Relation path rooted at an alias declared earlier
	Source   Source
	On       []Expression // Extra conditions (implicit AND)
	Fetch    bool
}

// Direction of an ordering term.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// NullOrder places nulls in an ordering term.
// NullsDefault keeps whatever the backend does.
type NullOrder string

const (
	NullsDefault NullOrder = ""
	NullsFirst   NullOrder = "first"
	NullsLast    NullOrder = "last"
)

// OrderSpecifier is one ordering term.
type OrderSpecifier struct {
	Expr      Expression
	Direction Direction
	Nulls     NullOrder
}

// Shape identifies how result rows are materialized.
type Shape string

const (
	ShapeSingle      Shape = "single"
	ShapeTuple       Shape = "tuple"
	ShapeEntity      Shape = "entity"
	ShapeBean        Shape = "bean"
	ShapeFields      Shape = "fields"
	ShapeConstructor Shape = "constructor"
	ShapeGenerated   Shape = "generated"
)

// Projection describes the select list and its result shape.
//
// Items are ordered; materialization reads values in that order. Target
// names the result type for bean, field, constructor and generated shapes
// and is informational only.
type Projection struct {
	Shape  Shape
	Target string
	Items  []Expression
}

// Query is a complete query tree.
//
// Semantics:
//
//	SELECT [DISTINCT] <Projection.Items>
//	FROM <From...> <Joins...>
//	WHERE <Where[0]> AND <Where[1]> ...
//	GROUP BY <GroupBy...>
//	HAVING <Having[0]> AND ...
//	ORDER BY <OrderBy...>
//	LIMIT <Limit> OFFSET <Offset>
//
// Where and Having hold conjuncts; the translator folds them with AND.
// Offset and Limit are nil when unset.
type Query struct {
	Projection Projection
	Distinct   bool
	From       []Source
	Joins      []Join
	Where      []Expression
	GroupBy    []Expression
	Having     []Expression
	OrderBy    []OrderSpecifier
	Offset     *int64
	Limit      *int64
}

// Clone returns a copy whose slices can be appended to without affecting q.
// Expressions are immutable values and are shared.
func (q Query) Clone() Query {
	out := q
	out.Projection.Items = cloneSlice(q.Projection.Items)
	out.From = cloneSlice(q.From)
	out.Joins = make([]Join, len(q.Joins))
	for i, j := range q.Joins {
		j.On = cloneSlice(j.On)
		out.Joins[i] = j
	}
	if q.Joins == nil {
		out.Joins = nil
	}
	out.Where = cloneSlice(q.Where)
	out.GroupBy = cloneSlice(q.GroupBy)
	out.Having = cloneSlice(q.Having)
	out.OrderBy = cloneSlice(q.OrderBy)
	if q.Offset != nil {
		v := *q.Offset
		out.Offset = &v
	}
	if q.Limit != nil {
		v := *q.Limit
		out.Limit = &v
	}
	return out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// Aliases lists the aliases declared by the query itself, in declaration order.
func (q Query) Aliases() []string {
	out := make([]string, 0, len(q.From)+len(q.Joins))
	for _, s := range q.From {
		out = append(out, s.Alias)
	}
	for _, j := range q.Joins {
		out = append(out, j.Source.Alias)
	}
	return out
}

// Aggregated reports whether the select list or having clause contains an
// aggregate outside of subqueries, or the query groups rows.
func (q Query) Aggregated() bool {
	if len(q.GroupBy) > 0 {
		return true
	}
	for _, e := range q.Projection.Items {
		if ContainsAggregate(e) {
			return true
		}
	}
	return false
}
