package queryir

import (
	"fmt"
	"strings"
	"time"

	"github.com/Chasungsoo/querydsl/internal/ir"
)

var infix = map[Operator]string{
	OpEq: "=", OpNe: "<>", OpLt: "<", OpLoe: "<=", OpGt: ">", OpGoe: ">=",
	OpLike: "like", OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
	OpAnd: "and", OpOr: "or", OpConcat: "||",
}

// Format renders an expression for diagnostics. The output is stable but
// is not SQL; use a translator for that.
func Format(e Expression) string {
	var sb strings.Builder
	format(&sb, e)
	return sb.String()
}

func format(sb *strings.Builder, e Expression) {
	switch n := e.(type) {
	case nil:
		sb.WriteString("<nil>")
	case Path:
		sb.WriteString(n.String())
	case Constant:
		sb.WriteString(formatValue(n.Value))
	case Alias:
		format(sb, n.Expr)
		sb.WriteString(" as ")
		sb.WriteString(n.Name)
	case SubQuery:
		sb.WriteString("(select ")
		for i, item := range n.Query.Projection.Items {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, item)
		}
		sb.WriteString(" from ")
		for i, s := range n.Query.From {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "%s %s", s.Entity, s.Alias)
		}
		sb.WriteString(")")
	case Case:
		sb.WriteString("case")
		if n.Operand != nil {
			sb.WriteString(" ")
			format(sb, n.Operand)
		}
		for _, w := range n.Whens {
			sb.WriteString(" when ")
			format(sb, w.Cond)
			sb.WriteString(" then ")
			format(sb, w.Result)
		}
		if n.Else != nil {
			sb.WriteString(" else ")
			format(sb, n.Else)
		}
		sb.WriteString(" end")
	case Operation:
		formatOperation(sb, n)
	default:
		fmt.Fprintf(sb, "<%T>", e)
	}
}

func formatOperation(sb *strings.Builder, o Operation) {
	if sym, ok := infix[o.Op]; ok && len(o.Args) >= 2 {
		sb.WriteString("(")
		for i, a := range o.Args {
			if i > 0 {
				sb.WriteString(" " + sym + " ")
			}
			format(sb, a)
		}
		sb.WriteString(")")
		return
	}

	switch o.Op {
	case OpIsNull, OpIsNotNull:
		format(sb, o.Args[0])
		if o.Op == OpIsNull {
			sb.WriteString(" is null")
		} else {
			sb.WriteString(" is not null")
		}
		return
	case OpBetween:
		format(sb, o.Args[0])
		sb.WriteString(" between ")
		format(sb, o.Args[1])
		sb.WriteString(" and ")
		format(sb, o.Args[2])
		return
	case OpIn, OpNotIn:
		format(sb, o.Args[0])
		if o.Op == OpIn {
			sb.WriteString(" in (")
		} else {
			sb.WriteString(" not in (")
		}
		for i, a := range o.Args[1:] {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, a)
		}
		sb.WriteString(")")
		return
	}

	sb.WriteString(string(o.Op))
	sb.WriteString("(")
	for i, a := range o.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		format(sb, a)
	}
	sb.WriteString(")")
}

func formatValue(v ir.Value) string {
	switch val := v.(type) {
	case nil, ir.Null:
		return "null"
	case ir.String:
		return fmt.Sprintf("%q", string(val))
	case ir.Time:
		return val.T.Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v.Go())
}
