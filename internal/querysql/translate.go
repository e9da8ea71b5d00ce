package querysql

import (
	"fmt"
	"strings"

	"github.com/Chasungsoo/querydsl/internal/metamodel"
	"github.com/Chasungsoo/querydsl/internal/queryir"
)

// Span locates one projection item in a result row.
type Span struct {
	Start int
	Width int
}

// FetchGroup locates the columns of a fetch-joined entity in a result row.
type FetchGroup struct {
	Owner    string // Alias of the owning entity
	Relation string // Relation property on the owner
	Alias    string // Alias of the fetched entity
	Entity   string
	Span     Span
}

// Statement is a translated query.
//
// Selections has one span per projection item, in projection order. Entity
// roots in the select list expand to all of their attributes, so a span may
// cover several columns. Fetch groups follow the projection.
type Statement struct {
	SQL        string
	Params     []any
	Selections []Span
	Fetches    []FetchGroup
	Width      int
}

// Translator renders query trees as parameterized SQL.
//
// Every literal is bound as a positional parameter; parameters appear in
// Params in the order their placeholders appear in SQL, including those of
// nested subqueries. LIMIT and OFFSET are rendered as integers.
//
// Without an explicit NullsFirst/NullsLast qualifier, null placement is
// whatever the backend does by default: sqlite and mysql sort nulls first in
// ascending order, postgres sorts them last.
type Translator struct {
	registry *metamodel.Registry
	dialect  *Dialect
}

// NewTranslator creates a translator. A nil dialect selects SQLite.
func NewTranslator(reg *metamodel.Registry, d *Dialect) *Translator {
	if d == nil {
		d = SQLite
	}
	return &Translator{registry: reg, dialect: d}
}

// Dialect returns the dialect the translator renders.
func (t *Translator) Dialect() *Dialect {
	return t.dialect
}

// Translate renders q. It does not validate q; run queryir.Validate first.
func (t *Translator) Translate(q queryir.Query) (*Statement, error) {
	w := t.newWriter()
	st := &Statement{}
	if err := w.selectStmt(q, st, false); err != nil {
		return nil, err
	}
	st.SQL = w.sb.String()
	st.Params = w.params
	return st, nil
}

// TranslateCount renders a query counting the rows q would return.
//
// Ordering, paging and fetch joins are dropped. Queries with DISTINCT,
// GROUP BY or HAVING are counted through a derived table:
//
//	SELECT COUNT(*) FROM (SELECT DISTINCT ... ) counted
//
// Others count over the same FROM and WHERE:
//
//	SELECT COUNT(*) FROM ... WHERE ...
func (t *Translator) TranslateCount(q queryir.Query) (*Statement, error) {
	q = q.Clone()
	q.OrderBy = nil
	q.Offset = nil
	q.Limit = nil
	for i := range q.Joins {
		q.Joins[i].Fetch = false
	}

	w := t.newWriter()
	if q.Distinct || len(q.GroupBy) > 0 || len(q.Having) > 0 {
		w.write("SELECT COUNT(*) FROM (")
		if err := w.selectStmt(q, &Statement{}, true); err != nil {
			return nil, err
		}
		w.write(") counted")
	} else {
		w.write("SELECT COUNT(*)")
		if err := w.body(q); err != nil {
			return nil, err
		}
	}

	return &Statement{
		SQL:        w.sb.String(),
		Params:     w.params,
		Selections: []Span{{Start: 0, Width: 1}},
		Width:      1,
	}, nil
}

func (t *Translator) newWriter() *writer {
	return &writer{registry: t.registry, dialect: t.dialect, sb: &strings.Builder{}}
}

// writer accumulates SQL text and parameters for one statement, including
// its subqueries.
type writer struct {
	registry *metamodel.Registry
	dialect  *Dialect
	sb       *strings.Builder
	params   []any
}

func (w *writer) write(s string) {
	w.sb.WriteString(s)
}

func (w *writer) param(v any) {
	w.params = append(w.params, v)
	w.write(w.dialect.Placeholder(len(w.params)))
}

func (w *writer) column(alias, column string) string {
	return w.dialect.Quote(alias) + "." + w.dialect.Quote(column)
}

func (w *writer) entity(name string) (*metamodel.Entity, error) {
	e, ok := w.registry.Entity(name)
	if !ok {
		return nil, queryir.Errorf(queryir.CodeTranslation, "unknown entity %q", name)
	}
	return e, nil
}

// selectStmt renders a full SELECT and records the row layout in st.
// labeled numbers the output columns (c1, c2, ...) so the statement can be
// used as a derived table.
func (w *writer) selectStmt(q queryir.Query, st *Statement, labeled bool) error {
	w.write("SELECT ")
	if q.Distinct {
		w.write("DISTINCT ")
	}

	col := 0
	sep := func() {
		if col > 0 {
			w.write(", ")
		}
	}
	label := func() {
		col++
		if labeled {
			fmt.Fprintf(w.sb, " AS c%d", col)
		}
	}

	for _, item := range q.Projection.Items {
		start := col
		if p, ok := queryir.Unalias(item).(queryir.Path); ok && p.IsRoot() {
			e, err := w.entity(p.Entity)
			if err != nil {
				return err
			}
			for _, attr := range w.registry.Attributes(e) {
				sep()
				w.write(w.column(p.Alias, attr.Column))
				label()
			}
		} else {
			sep()
			if err := w.expr(item); err != nil {
				return err
			}
			label()
		}
		st.Selections = append(st.Selections, Span{Start: start, Width: col - start})
	}

	for _, j := range q.Joins {
		if !j.Fetch {
			continue
		}
		if !selectsRoot(q, j.Relation.Alias) {
			continue
		}
		owner, err := w.entity(j.Relation.Entity)
		if err != nil {
			return err
		}
		rel, ok := owner.Relation(j.Relation.Property)
		if !ok {
			return queryir.Errorf(queryir.CodeTranslation, "%s has no relation %q", owner.Name, j.Relation.Property)
		}
		if !rel.Cardinality.ToOne() {
			return queryir.Errorf(queryir.CodeTranslation, "fetch join of collection %s is not supported", j.Relation)
		}
		target, err := w.entity(j.Source.Entity)
		if err != nil {
			return err
		}
		start := col
		for _, attr := range w.registry.Attributes(target) {
			sep()
			w.write(w.column(j.Source.Alias, attr.Column))
			label()
		}
		st.Fetches = append(st.Fetches, FetchGroup{
			Owner:    j.Relation.Alias,
			Relation: rel.Name,
			Alias:    j.Source.Alias,
			Entity:   target.Name,
			Span:     Span{Start: start, Width: col - start},
		})
	}
	st.Width = col

	if err := w.body(q); err != nil {
		return err
	}

	if len(q.OrderBy) > 0 {
		w.write(" ORDER BY ")
		for i, o := range q.OrderBy {
			if i > 0 {
				w.write(", ")
			}
			if err := w.dialect.orderTerms(w, o); err != nil {
				return err
			}
		}
	}
	w.write(w.dialect.limitOffset(q.Limit, q.Offset))
	return nil
}

func selectsRoot(q queryir.Query, alias string) bool {
	for _, item := range q.Projection.Items {
		if p, ok := queryir.Unalias(item).(queryir.Path); ok && p.IsRoot() && p.Alias == alias {
			return true
		}
	}
	return false
}

// body renders FROM through HAVING.
func (w *writer) body(q queryir.Query) error {
	w.write(" FROM ")
	for i, src := range q.From {
		if i > 0 {
			w.write(", ")
		}
		if err := w.source(src); err != nil {
			return err
		}
	}

	for _, j := range q.Joins {
		if err := w.join(j); err != nil {
			return err
		}
	}

	if len(q.Where) > 0 {
		w.write(" WHERE ")
		if err := w.conjunction(q.Where); err != nil {
			return err
		}
	}

	if len(q.GroupBy) > 0 {
		w.write(" GROUP BY ")
		for i, g := range q.GroupBy {
			if i > 0 {
				w.write(", ")
			}
			if err := w.grouping(g); err != nil {
				return err
			}
		}
	}

	if len(q.Having) > 0 {
		w.write(" HAVING ")
		if err := w.conjunction(q.Having); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) source(src queryir.Source) error {
	e, err := w.entity(src.Entity)
	if err != nil {
		return err
	}
	w.write(w.dialect.Quote(e.Table))
	if src.Alias != e.Table {
		w.write(" " + w.dialect.Quote(src.Alias))
	}
	return nil
}

var joinKeywords = map[queryir.JoinKind]string{
	queryir.JoinInner: " INNER JOIN ",
	queryir.JoinLeft:  " LEFT JOIN ",
	queryir.JoinRight: " RIGHT JOIN ",
}

// join renders one join. Relation joins derive their condition from the
// metamodel; entity joins without conditions are cross joins.
func (w *writer) join(j queryir.Join) error {
	kw, ok := joinKeywords[j.Kind]
	if !ok {
		return queryir.Errorf(queryir.CodeTranslation, "unknown join kind %q", j.Kind)
	}

	if j.Relation == nil && len(j.On) == 0 {
		if j.Kind != queryir.JoinInner {
			return queryir.Errorf(queryir.CodeTranslation, "%s join of %s %s needs an on condition", j.Kind, j.Source.Entity, j.Source.Alias)
		}
		w.write(" CROSS JOIN ")
		return w.source(j.Source)
	}

	w.write(kw)
	if err := w.source(j.Source); err != nil {
		return err
	}
	w.write(" ON ")

	n := 0
	if j.Relation != nil {
		cond, err := w.relationCondition(*j.Relation, j.Source)
		if err != nil {
			return err
		}
		w.write(cond)
		n++
	}
	for _, on := range j.On {
		if n > 0 {
			w.write(" AND ")
		}
		if err := w.expr(on); err != nil {
			return err
		}
		n++
	}
	return nil
}

func (w *writer) relationCondition(path queryir.Path, target queryir.Source) (string, error) {
	owner, err := w.entity(path.Entity)
	if err != nil {
		return "", err
	}
	rel, ok := owner.Relation(path.Property)
	if !ok {
		return "", queryir.Errorf(queryir.CodeTranslation, "%s has no relation %q", owner.Name, path.Property)
	}
	dest, err := w.entity(target.Entity)
	if err != nil {
		return "", err
	}

	if rel.Owning() {
		return w.column(path.Alias, rel.JoinColumn) + " = " + w.column(target.Alias, dest.IDColumn().Column), nil
	}
	fk, err := w.registry.InverseJoinColumn(rel)
	if err != nil {
		return "", queryir.Wrap(queryir.CodeTranslation, err, "relation %s", path)
	}
	return w.column(target.Alias, fk) + " = " + w.column(path.Alias, owner.IDColumn().Column), nil
}

func (w *writer) conjunction(preds []queryir.Expression) error {
	for i, p := range preds {
		if i > 0 {
			w.write(" AND ")
		}
		if err := w.expr(p); err != nil {
			return err
		}
	}
	return nil
}

// grouping renders a group by term. Entity roots group by every attribute
// so that the select list can project them.
func (w *writer) grouping(g queryir.Expression) error {
	p, ok := queryir.Unalias(g).(queryir.Path)
	if !ok || !p.IsRoot() {
		return w.expr(g)
	}
	e, err := w.entity(p.Entity)
	if err != nil {
		return err
	}
	for i, attr := range w.registry.Attributes(e) {
		if i > 0 {
			w.write(", ")
		}
		w.write(w.column(p.Alias, attr.Column))
	}
	return nil
}

// expr renders an expression in value position.
func (w *writer) expr(e queryir.Expression) error {
	switch n := e.(type) {
	case queryir.Path:
		return w.path(n)
	case queryir.Constant:
		if n.Value == nil {
			w.param(nil)
		} else {
			w.param(n.Value.Go())
		}
		return nil
	case queryir.Alias:
		return w.expr(n.Expr)
	case queryir.SubQuery:
		w.write("(")
		if err := w.selectStmt(n.Query, &Statement{}, false); err != nil {
			return err
		}
		w.write(")")
		return nil
	case queryir.Case:
		return w.caseExpr(n)
	case queryir.Operation:
		return w.operation(n)
	}
	return queryir.Errorf(queryir.CodeTranslation, "unsupported expression %T", e)
}

// path renders a property column. Roots render their identifier and to-one
// relations their join column.
func (w *writer) path(p queryir.Path) error {
	e, err := w.entity(p.Entity)
	if err != nil {
		return err
	}
	if p.IsRoot() {
		w.write(w.column(p.Alias, e.IDColumn().Column))
		return nil
	}
	if c, ok := e.Column(p.Property); ok {
		w.write(w.column(p.Alias, c.Column))
		return nil
	}
	if rel, ok := e.Relation(p.Property); ok {
		if !rel.Owning() {
			return queryir.Errorf(queryir.CodeTranslation, "%s is a collection and has no value; join it instead", p)
		}
		w.write(w.column(p.Alias, rel.JoinColumn))
		return nil
	}
	return queryir.Errorf(queryir.CodeTranslation, "%s has no property %q", e.Name, p.Property)
}

func (w *writer) caseExpr(c queryir.Case) error {
	w.write("CASE")
	if c.Operand != nil {
		w.write(" ")
		if err := w.expr(c.Operand); err != nil {
			return err
		}
	}
	for _, when := range c.Whens {
		w.write(" WHEN ")
		if err := w.expr(when.Cond); err != nil {
			return err
		}
		w.write(" THEN ")
		if err := w.expr(when.Result); err != nil {
			return err
		}
	}
	if c.Else != nil {
		w.write(" ELSE ")
		if err := w.expr(c.Else); err != nil {
			return err
		}
	}
	w.write(" END")
	return nil
}

var (
	comparisons = map[queryir.Operator]string{
		queryir.OpEq: " = ", queryir.OpNe: " <> ", queryir.OpLt: " < ",
		queryir.OpLoe: " <= ", queryir.OpGt: " > ", queryir.OpGoe: " >= ",
	}
	arithmetic = map[queryir.Operator]string{
		queryir.OpAdd: " + ", queryir.OpSub: " - ", queryir.OpMul: " * ",
		queryir.OpDiv: " / ", queryir.OpMod: " % ",
	}
	functions = map[queryir.Operator]string{
		queryir.OpLower: "LOWER", queryir.OpUpper: "UPPER", queryir.OpTrim: "TRIM",
		queryir.OpCount: "COUNT", queryir.OpSum: "SUM", queryir.OpAvg: "AVG",
		queryir.OpMin: "MIN", queryir.OpMax: "MAX",
	}
)

// operation renders an operator application.
//
// Connectives and arithmetic are parenthesized so that nesting never
// depends on SQL precedence.
func (w *writer) operation(o queryir.Operation) error {
	if sym, ok := comparisons[o.Op]; ok {
		return w.infix(o.Args, sym, false)
	}
	if sym, ok := arithmetic[o.Op]; ok {
		return w.infix(o.Args, sym, true)
	}
	if fn, ok := functions[o.Op]; ok {
		return w.call(fn, "", o.Args[0])
	}

	switch o.Op {
	case queryir.OpAnd:
		return w.connective(o.Args, " AND ")
	case queryir.OpOr:
		return w.connective(o.Args, " OR ")
	case queryir.OpNot:
		return w.call("NOT ", "", o.Args[0])
	case queryir.OpNeg:
		return w.call("", "-", o.Args[0])

	case queryir.OpIsNull, queryir.OpIsNotNull:
		if err := w.operand(o.Args[0]); err != nil {
			return err
		}
		if o.Op == queryir.OpIsNull {
			w.write(" IS NULL")
		} else {
			w.write(" IS NOT NULL")
		}
		return nil

	case queryir.OpBetween:
		if err := w.operand(o.Args[0]); err != nil {
			return err
		}
		w.write(" BETWEEN ")
		if err := w.operand(o.Args[1]); err != nil {
			return err
		}
		w.write(" AND ")
		return w.operand(o.Args[2])

	case queryir.OpIn, queryir.OpNotIn:
		return w.membership(o)

	case queryir.OpLike:
		if err := w.infix(o.Args, " LIKE ", false); err != nil {
			return err
		}
		w.write(" ESCAPE '" + string(LikeEscape) + "'")
		return nil

	case queryir.OpExists:
		w.write("EXISTS ")
		return w.expr(o.Args[0])

	case queryir.OpConcat:
		a, err := w.capture(o.Args[0])
		if err != nil {
			return err
		}
		b, err := w.capture(o.Args[1])
		if err != nil {
			return err
		}
		w.write(w.dialect.concat(a, b))
		return nil

	case queryir.OpLength:
		return w.call(w.dialect.lengthFunc, "", o.Args[0])

	case queryir.OpStringValue:
		x, err := w.capture(o.Args[0])
		if err != nil {
			return err
		}
		w.write(w.dialect.castText(x))
		return nil

	case queryir.OpCountDistinct:
		return w.call("COUNT", "DISTINCT ", o.Args[0])
	}

	return queryir.Errorf(queryir.CodeTranslation, "operator %q has no SQL rendering", o.Op)
}

// LikeEscape is the escape character declared on every LIKE.
const LikeEscape = '!'

func (w *writer) infix(args []queryir.Expression, sym string, paren bool) error {
	if paren {
		w.write("(")
	}
	for i, a := range args {
		if i > 0 {
			w.write(sym)
		}
		if err := w.operand(a); err != nil {
			return err
		}
	}
	if paren {
		w.write(")")
	}
	return nil
}

// connective joins predicates. AND and OR bind looser than every operator
// they combine, so their arguments are not wrapped.
func (w *writer) connective(args []queryir.Expression, sym string) error {
	w.write("(")
	for i, a := range args {
		if i > 0 {
			w.write(sym)
		}
		if err := w.expr(a); err != nil {
			return err
		}
	}
	w.write(")")
	return nil
}

// bare lists the operators rendered without enclosing parentheses.
var bare = map[queryir.Operator]bool{
	queryir.OpEq: true, queryir.OpNe: true, queryir.OpLt: true,
	queryir.OpLoe: true, queryir.OpGt: true, queryir.OpGoe: true,
	queryir.OpIsNull: true, queryir.OpIsNotNull: true, queryir.OpBetween: true,
	queryir.OpLike: true, queryir.OpIn: true, queryir.OpNotIn: true,
	queryir.OpNot: true, queryir.OpExists: true,
}

// operand renders an argument of an infix or postfix operator, wrapping
// operations that carry no parentheses of their own.
func (w *writer) operand(e queryir.Expression) error {
	if a, ok := e.(queryir.Alias); ok {
		e = a.Expr
	}
	if o, ok := e.(queryir.Operation); ok && bare[o.Op] {
		w.write("(")
		if err := w.operation(o); err != nil {
			return err
		}
		w.write(")")
		return nil
	}
	return w.expr(e)
}

func (w *writer) call(fn, prefix string, arg queryir.Expression) error {
	w.write(fn + "(" + prefix)
	if err := w.expr(arg); err != nil {
		return err
	}
	w.write(")")
	return nil
}

// capture renders e into a separate string while still binding its
// parameters in order. Used where the dialect wraps rendered operands.
func (w *writer) capture(e queryir.Expression) (string, error) {
	saved := w.sb
	w.sb = &strings.Builder{}
	err := w.expr(e)
	out := w.sb.String()
	w.sb = saved
	return out, err
}

func (w *writer) membership(o queryir.Operation) error {
	candidates := o.Args[1:]
	if len(candidates) == 0 {
		if o.Op == queryir.OpIn {
			w.write("1 = 0")
		} else {
			w.write("1 = 1")
		}
		return nil
	}

	if err := w.operand(o.Args[0]); err != nil {
		return err
	}
	if o.Op == queryir.OpIn {
		w.write(" IN ")
	} else {
		w.write(" NOT IN ")
	}

	if len(candidates) == 1 {
		if _, ok := candidates[0].(queryir.SubQuery); ok {
			return w.expr(candidates[0])
		}
	}
	w.write("(")
	for i, c := range candidates {
		if i > 0 {
			w.write(", ")
		}
		if err := w.expr(c); err != nil {
			return err
		}
	}
	w.write(")")
	return nil
}
