package querysql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Chasungsoo/querydsl/internal/queryir"
)

// Dialect captures the SQL differences between supported backends.
//
// Differences covered:
//   - Placeholders: ? (sqlite, mysql) or $n (postgres)
//   - Identifier quoting: "x" (sqlite, postgres) or `x` (mysql), applied only
//     to reserved words and identifiers that are not plain lower snake case
//   - NULLS FIRST/LAST: native on sqlite and postgres, emulated on mysql with
//     an IS NULL sort key
//   - String concatenation: || or CONCAT()
//   - Text casts and character length
//   - OFFSET without LIMIT
type Dialect struct {
	name        string
	numbered    bool
	quote       byte
	reserved    map[string]bool
	nativeNulls bool
	concatFunc  bool
	textType    string
	lengthFunc  string
	noLimit     string // LIMIT value used when only OFFSET is set; "" if OFFSET stands alone
}

// Supported dialects.
var (
	SQLite = &Dialect{
		name:        "sqlite",
		quote:       '"',
		reserved:    reservedWords(),
		nativeNulls: true,
		textType:    "TEXT",
		lengthFunc:  "LENGTH",
		noLimit:     "-1",
	}

	Postgres = &Dialect{
		name:        "postgres",
		numbered:    true,
		quote:       '"',
		reserved:    reservedWords("analyse", "analyze", "array", "current_user", "only", "placing", "session_user"),
		nativeNulls: true,
		textType:    "VARCHAR",
		lengthFunc:  "LENGTH",
	}

	MySQL = &Dialect{
		name:       "mysql",
		quote:      '`',
		reserved:   reservedWords("member", "rank", "row", "rows", "groups", "window", "interval", "read", "range"),
		concatFunc: true,
		textType:   "CHAR",
		lengthFunc: "CHAR_LENGTH",
		noLimit:    "18446744073709551615",
	}
)

// DialectFor resolves a dialect by name.
func DialectFor(name string) (*Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	}
	return nil, fmt.Errorf("unknown SQL dialect %q (expected sqlite, postgres or mysql)", name)
}

// Name returns the canonical dialect name.
func (d *Dialect) Name() string {
	return d.name
}

// Placeholder renders the n-th (1-based) positional parameter.
func (d *Dialect) Placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

var plainIdent = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Quote renders an identifier, quoting it only when required.
func (d *Dialect) Quote(ident string) string {
	if plainIdent.MatchString(ident) && !d.reserved[ident] {
		return ident
	}
	q := string(d.quote)
	return q + strings.ReplaceAll(ident, q, q+q) + q
}

func (d *Dialect) concat(a, b string) string {
	if d.concatFunc {
		return "CONCAT(" + a + ", " + b + ")"
	}
	return "(" + a + " || " + b + ")"
}

func (d *Dialect) castText(x string) string {
	return "CAST(" + x + " AS " + d.textType + ")"
}

// limitOffset renders the paging clause, with a leading space, or "".
func (d *Dialect) limitOffset(limit, offset *int64) string {
	var sb strings.Builder
	switch {
	case limit != nil:
		fmt.Fprintf(&sb, " LIMIT %d", *limit)
	case offset != nil && d.noLimit != "":
		sb.WriteString(" LIMIT " + d.noLimit)
	}
	if offset != nil {
		fmt.Fprintf(&sb, " OFFSET %d", *offset)
	}
	return sb.String()
}

// orderTerms renders one ordering term. write emits the ordered expression
// and may be called more than once when null placement is emulated.
func (d *Dialect) orderTerms(w *writer, o queryir.OrderSpecifier) error {
	dir := " ASC"
	if o.Direction == queryir.Desc {
		dir = " DESC"
	}

	if o.Nulls == queryir.NullsDefault || d.nativeNulls {
		if err := w.expr(o.Expr); err != nil {
			return err
		}
		w.write(dir)
		switch o.Nulls {
		case queryir.NullsFirst:
			w.write(" NULLS FIRST")
		case queryir.NullsLast:
			w.write(" NULLS LAST")
		}
		return nil
	}

	// x IS NULL is 1 for nulls: ascending puts them last.
	if err := w.expr(o.Expr); err != nil {
		return err
	}
	if o.Nulls == queryir.NullsFirst {
		w.write(" IS NULL DESC, ")
	} else {
		w.write(" IS NULL ASC, ")
	}
	if err := w.expr(o.Expr); err != nil {
		return err
	}
	w.write(dir)
	return nil
}

func reservedWords(extra ...string) map[string]bool {
	words := map[string]bool{}
	for _, w := range strings.Fields(`
		all and as asc between by case check column constraint create cross
		default delete desc distinct else end exists false from full group
		having in index inner insert into is join key left like limit natural
		not null offset on or order outer primary references right select set
		table then to true union unique update user using values when where with`) {
		words[w] = true
	}
	for _, w := range extra {
		words[w] = true
	}
	return words
}
