package harness

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/spf13/cast"

	"github.com/Chasungsoo/querydsl/internal/querysql"
	"github.com/Chasungsoo/querydsl/internal/store"
)

// validIdentifier matches valid SQL identifiers (table/column names).
// Identifiers are interpolated, so anything else is rejected.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", ev.Seq, ev.Query)
			for _, st := range ev.Statements {
				fmt.Fprintf(&buf, "      %s %v\n", st.SQL, st.Params)
			}
		}
	}
	return buf.String()
}

// AssertionContext carries what final_state assertions need.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertSQLContains:
			err = assertSQLContains(result.Trace, a)
		case AssertStatementCount:
			err = assertStatementCount(result.Trace, a)
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("final_state assertion requires a store")
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, a)
			}
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func findEvent(trace []TraceEvent, query string) (TraceEvent, bool) {
	r := Result{Trace: trace}
	return r.Event(query)
}

// assertSQLContains checks that a statement dispatched by the query
// contains the text.
func assertSQLContains(trace []TraceEvent, a Assertion) error {
	ev, ok := findEvent(trace, a.Query)
	if ok {
		for _, st := range ev.Statements {
			if strings.Contains(st.SQL, a.Text) {
				return nil
			}
		}
	}
	return &AssertionError{
		Type:     AssertSQLContains,
		Expected: fmt.Sprintf("statement of %s containing %q", a.Query, a.Text),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertStatementCount checks how many statements the query dispatched.
func assertStatementCount(trace []TraceEvent, a Assertion) error {
	ev, _ := findEvent(trace, a.Query)
	if len(ev.Statements) != a.Count {
		return &AssertionError{
			Type:     AssertStatementCount,
			Expected: fmt.Sprintf("%d statements for %s", a.Count, a.Query),
			Actual:   fmt.Sprintf("%d statements", len(ev.Statements)),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState looks up the first row of table matching where and
// compares the expected columns.
func assertFinalState(ctx context.Context, st *store.Store, a Assertion) error {
	if !validIdentifier.MatchString(a.Table) {
		return fmt.Errorf("invalid table name %q: must match pattern %s", a.Table, validIdentifier.String())
	}

	d := st.Dialect()
	columns := sortedKeys(a.Expect)
	selected := make([]string, len(columns))
	for i, c := range columns {
		if !validIdentifier.MatchString(c) {
			return fmt.Errorf("invalid column name %q", c)
		}
		selected[i] = d.Quote(c)
	}
	where := sq.Eq{}
	for c, v := range a.Where {
		if !validIdentifier.MatchString(c) {
			return fmt.Errorf("invalid column name %q", c)
		}
		where[d.Quote(c)] = v
	}

	format := sq.PlaceholderFormat(sq.Question)
	if d == querysql.Postgres {
		format = sq.Dollar
	}
	query, args, err := sq.Select(selected...).
		From(d.Quote(a.Table)).
		Where(where).
		Limit(1).
		PlaceholderFormat(format).
		ToSql()
	if err != nil {
		return err
	}

	rows, err := st.Execute(ctx, query, args)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", a.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	if len(rows) == 0 {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", a.Table, formatMap(a.Where)),
			Actual:   "row not found",
		}
	}

	for i, c := range columns {
		if !valuesEqual(a.Expect[c], rows[0][i]) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %v", a.Table, c, a.Expect[c]),
				Actual:   fmt.Sprintf("%s.%s = %v", a.Table, c, rows[0][i]),
			}
		}
	}
	return nil
}

// checkExpect compares an event with its expect clause. Without a clause
// the check only has to succeed.
func checkExpect(ev TraceEvent, e *ExpectClause) []string {
	if e == nil {
		if ev.Error != "" {
			return []string{fmt.Sprintf("unexpected error: %s", ev.Message)}
		}
		return nil
	}

	if e.Error != "" {
		if ev.Error != e.Error {
			return []string{fmt.Sprintf("expected error %s, got %s", e.Error, describeOutcome(ev))}
		}
		return nil
	}
	if ev.Error != "" {
		return []string{fmt.Sprintf("unexpected error: %s", ev.Message)}
	}

	var errs []string
	if e.Count != nil && (ev.Count == nil || *ev.Count != *e.Count) {
		errs = append(errs, fmt.Sprintf("expected count %d, got %s", *e.Count, describeOutcome(ev)))
	}
	if e.Found != nil && (ev.Found == nil || *ev.Found != *e.Found) {
		errs = append(errs, fmt.Sprintf("expected found=%t, got %s", *e.Found, describeOutcome(ev)))
	}
	if e.Rows != nil {
		if err := matchRows(e.Rows, ev.Rows, e.Unordered); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func describeOutcome(ev TraceEvent) string {
	switch {
	case ev.Error != "":
		return fmt.Sprintf("error %s (%s)", ev.Error, ev.Message)
	case ev.Count != nil:
		return fmt.Sprintf("count %d", *ev.Count)
	case ev.Found != nil && !*ev.Found:
		return "no row"
	}
	return fmt.Sprintf("%d rows", len(ev.Rows))
}

// matchRows compares rows positionally, or as a multiset when unordered.
func matchRows(want, got [][]any, unordered bool) error {
	if len(want) != len(got) {
		return fmt.Errorf("expected %d rows, got %d: %v", len(want), len(got), got)
	}
	if !unordered {
		for i := range want {
			if !rowEqual(want[i], got[i]) {
				return fmt.Errorf("row %d: expected %v, got %v", i, want[i], got[i])
			}
		}
		return nil
	}

	used := make([]bool, len(got))
outer:
	for i, w := range want {
		for j, g := range got {
			if !used[j] && rowEqual(w, g) {
				used[j] = true
				continue outer
			}
		}
		return fmt.Errorf("row %d: expected %v not found in %v", i, w, got)
	}
	return nil
}

func rowEqual(want, got []any) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if !valuesEqual(want[i], got[i]) {
			return false
		}
	}
	return true
}

// valuesEqual compares a value decoded from YAML with a fetched one.
// Numbers compare by value and times by instant.
func valuesEqual(want, got any) bool {
	if want == nil || got == nil {
		return want == nil && got == nil
	}
	if isNumber(want) && isNumber(got) {
		return cast.ToFloat64(want) == cast.ToFloat64(got)
	}
	if gt, ok := got.(time.Time); ok {
		wt, err := cast.ToTimeE(want)
		return err == nil && wt.Equal(gt)
	}
	switch w := want.(type) {
	case string:
		g, ok := got.(string)
		return ok && w == g
	case bool:
		g, err := cast.ToBoolE(got)
		return err == nil && w == g
	}
	return fmt.Sprint(want) == fmt.Sprint(got)
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatMap(m map[string]any) string {
	parts := make([]string, 0, len(m))
	for _, k := range sortedKeys(m) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return strings.Join(parts, ", ")
}
