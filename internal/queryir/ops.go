package queryir

import "github.com/Chasungsoo/querydsl/internal/ir"

// Operator identifies an Operation.
type Operator string

// Comparison and membership. Result type: bool.
const (
	OpEq        Operator = "eq"
	OpNe        Operator = "ne"
	OpLt        Operator = "lt"
	OpLoe       Operator = "loe"
	OpGt        Operator = "gt"
	OpGoe       Operator = "goe"
	OpBetween   Operator = "between"
	OpIn        Operator = "in"
	OpNotIn     Operator = "not_in"
	OpIsNull    Operator = "is_null"
	OpIsNotNull Operator = "is_not_null"
	OpLike      Operator = "like"
	OpExists    Operator = "exists"
)

// Boolean connectives.
const (
	OpAnd Operator = "and"
	OpOr  Operator = "or"
	OpNot Operator = "not"
)

// Arithmetic. Result type: promoted operand type.
const (
	OpAdd Operator = "add"
	OpSub Operator = "sub"
	OpMul Operator = "mul"
	OpDiv Operator = "div"
	OpMod Operator = "mod"
	OpNeg Operator = "neg"
)

// String functions.
const (
	OpConcat      Operator = "concat"
	OpLower       Operator = "lower"
	OpUpper       Operator = "upper"
	OpTrim        Operator = "trim"
	OpLength      Operator = "length"
	OpStringValue Operator = "string_value"
)

// Aggregates.
const (
	OpCount         Operator = "count"
	OpCountDistinct Operator = "count_distinct"
	OpSum           Operator = "sum"
	OpAvg           Operator = "avg"
	OpMin           Operator = "min"
	OpMax           Operator = "max"
)

// Aggregate reports whether the operator folds rows.
func (op Operator) Aggregate() bool {
	switch op {
	case OpCount, OpCountDistinct, OpSum, OpAvg, OpMin, OpMax:
		return true
	}
	return false
}

// NewOperation builds an operation after checking arity and operand types.
//
// Signature table:
//
//	eq, ne                 (a, b compatible)             -> bool
//	lt, loe, gt, goe       (a, b ordered, compatible)    -> bool
//	between                (a, lo, hi ordered)           -> bool
//	in, not_in             (a, v1..vn | subquery)        -> bool
//	is_null, is_not_null   (a)                           -> bool
//	like                   (string, string)              -> bool
//	exists                 (subquery)                    -> bool
//	and, or                (bool, bool, ...)             -> bool
//	not                    (bool)                        -> bool
//	add, sub, mul, div, mod(numeric, numeric)            -> promoted
//	neg                    (numeric)                     -> operand
//	concat                 (string, string)              -> string
//	lower, upper, trim     (string)                      -> string
//	length                 (string)                      -> int
//	string_value           (any)                         -> string
//	count, count_distinct  (any)                         -> int
//	sum, min, max          (numeric | ordered)           -> operand
//	avg                    (numeric)                     -> float
//
// Scalar positions reject subqueries that project more than one expression.
func NewOperation(op Operator, args ...Expression) (Operation, error) {
	for i, a := range args {
		if a == nil {
			return Operation{}, typeMismatch(op, "argument %d is nil", i)
		}
	}

	result, err := checkSignature(op, args)
	if err != nil {
		return Operation{}, err
	}
	return Operation{Op: op, Args: args, T: result}, nil
}

func checkSignature(op Operator, args []Expression) (ir.Type, error) {
	switch op {
	case OpEq, OpNe:
		if err := arity(op, args, 2); err != nil {
			return "", err
		}
		if err := scalars(op, args...); err != nil {
			return "", err
		}
		if !ir.Compatible(args[0].Type(), args[1].Type()) {
			return "", typeMismatch(op, "%s (%s) cannot be compared to %s (%s)",
				Format(args[0]), args[0].Type(), Format(args[1]), args[1].Type())
		}
		return ir.TypeBool, nil

	case OpLt, OpLoe, OpGt, OpGoe, OpBetween:
		want := 2
		if op == OpBetween {
			want = 3
		}
		if err := arity(op, args, want); err != nil {
			return "", err
		}
		if err := scalars(op, args...); err != nil {
			return "", err
		}
		for _, a := range args {
			if !a.Type().Ordered() {
				return "", typeMismatch(op, "%s (%s) is not ordered", Format(a), a.Type())
			}
			if !ir.Compatible(args[0].Type(), a.Type()) {
				return "", typeMismatch(op, "%s (%s) cannot be compared to %s (%s)",
					Format(args[0]), args[0].Type(), Format(a), a.Type())
			}
		}
		return ir.TypeBool, nil

	case OpIn, OpNotIn:
		if len(args) < 1 {
			return "", typeMismatch(op, "missing operand")
		}
		if err := scalars(op, args[0]); err != nil {
			return "", err
		}
		for _, a := range args[1:] {
			if sq, ok := a.(SubQuery); ok {
				if len(args) != 2 {
					return "", typeMismatch(op, "a subquery must be the only candidate set")
				}
				if sq.Scalar() && !ir.Compatible(args[0].Type(), sq.Type()) {
					return "", typeMismatch(op, "%s (%s) cannot be matched against a %s subquery",
						Format(args[0]), args[0].Type(), sq.Type())
				}
				continue
			}
			if !ir.Compatible(args[0].Type(), a.Type()) {
				return "", typeMismatch(op, "%s (%s) cannot be matched against %s (%s)",
					Format(args[0]), args[0].Type(), Format(a), a.Type())
			}
		}
		return ir.TypeBool, nil

	case OpIsNull, OpIsNotNull:
		if err := arity(op, args, 1); err != nil {
			return "", err
		}
		return ir.TypeBool, scalars(op, args...)

	case OpLike:
		if err := arity(op, args, 2); err != nil {
			return "", err
		}
		if err := expect(op, ir.TypeString, args...); err != nil {
			return "", err
		}
		return ir.TypeBool, nil

	case OpExists:
		if err := arity(op, args, 1); err != nil {
			return "", err
		}
		if _, ok := args[0].(SubQuery); !ok {
			return "", typeMismatch(op, "%s is not a subquery", Format(args[0]))
		}
		return ir.TypeBool, nil

	case OpAnd, OpOr:
		if len(args) < 2 {
			return "", typeMismatch(op, "needs at least two operands, got %d", len(args))
		}
		if err := expect(op, ir.TypeBool, args...); err != nil {
			return "", err
		}
		return ir.TypeBool, nil

	case OpNot:
		if err := arity(op, args, 1); err != nil {
			return "", err
		}
		if err := expect(op, ir.TypeBool, args...); err != nil {
			return "", err
		}
		return ir.TypeBool, nil

	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		if err := arity(op, args, 2); err != nil {
			return "", err
		}
		if err := numeric(op, args...); err != nil {
			return "", err
		}
		return ir.Promote(args[0].Type(), args[1].Type()), nil

	case OpNeg:
		if err := arity(op, args, 1); err != nil {
			return "", err
		}
		if err := numeric(op, args...); err != nil {
			return "", err
		}
		return args[0].Type(), nil

	case OpConcat:
		if err := arity(op, args, 2); err != nil {
			return "", err
		}
		if err := expect(op, ir.TypeString, args...); err != nil {
			return "", err
		}
		return ir.TypeString, nil

	case OpLower, OpUpper, OpTrim:
		if err := arity(op, args, 1); err != nil {
			return "", err
		}
		if err := expect(op, ir.TypeString, args...); err != nil {
			return "", err
		}
		return ir.TypeString, nil

	case OpLength:
		if err := arity(op, args, 1); err != nil {
			return "", err
		}
		if err := expect(op, ir.TypeString, args...); err != nil {
			return "", err
		}
		return ir.TypeInt, nil

	case OpStringValue:
		if err := arity(op, args, 1); err != nil {
			return "", err
		}
		return ir.TypeString, scalars(op, args...)

	case OpCount, OpCountDistinct:
		if err := arity(op, args, 1); err != nil {
			return "", err
		}
		return ir.TypeInt, nil

	case OpSum:
		if err := arity(op, args, 1); err != nil {
			return "", err
		}
		if err := numeric(op, args...); err != nil {
			return "", err
		}
		return args[0].Type(), nil

	case OpAvg:
		if err := arity(op, args, 1); err != nil {
			return "", err
		}
		if err := numeric(op, args...); err != nil {
			return "", err
		}
		return ir.TypeFloat, nil

	case OpMin, OpMax:
		if err := arity(op, args, 1); err != nil {
			return "", err
		}
		if !args[0].Type().Ordered() {
			return "", typeMismatch(op, "%s (%s) is not ordered", Format(args[0]), args[0].Type())
		}
		return args[0].Type(), nil
	}

	return "", Errorf(CodeInvalidQuery, "unknown operator %q", op)
}

func arity(op Operator, args []Expression, want int) error {
	if len(args) != want {
		return typeMismatch(op, "expected %d operands, got %d", want, len(args))
	}
	return nil
}

func expect(op Operator, want ir.Type, args ...Expression) error {
	if err := scalars(op, args...); err != nil {
		return err
	}
	for _, a := range args {
		if t := a.Type(); t != want && t != ir.TypeAny {
			return typeMismatch(op, "%s is %s, expected %s", Format(a), t, want)
		}
	}
	return nil
}

func numeric(op Operator, args ...Expression) error {
	if err := scalars(op, args...); err != nil {
		return err
	}
	for _, a := range args {
		if !a.Type().Numeric() {
			return typeMismatch(op, "%s is %s, expected a number", Format(a), a.Type())
		}
	}
	return nil
}

// scalars rejects multi-column subqueries in scalar positions.
func scalars(op Operator, args ...Expression) error {
	for _, a := range args {
		if sq, ok := a.(SubQuery); ok && !sq.Scalar() {
			return Errorf(CodeInvalidQuery, "%s: subquery used as a value must project exactly one expression, got %d",
				op, len(sq.Query.Projection.Items))
		}
	}
	return nil
}

// And folds predicates into a conjunction.
// Nil operands are dropped and nested conjunctions are flattened, so
// And(a, And(b, c)) and And(a, b, c) build the same tree. It returns nil
// when no operand is present and the operand itself when only one is.
func And(preds ...Expression) (Expression, error) {
	return connective(OpAnd, preds)
}

// Or folds predicates into a disjunction with the same rules as And.
func Or(preds ...Expression) (Expression, error) {
	return connective(OpOr, preds)
}

func connective(op Operator, preds []Expression) (Expression, error) {
	var flat []Expression
	for _, p := range preds {
		if p == nil {
			continue
		}
		if o, ok := p.(Operation); ok && o.Op == op {
			flat = append(flat, o.Args...)
			continue
		}
		flat = append(flat, p)
	}

	switch len(flat) {
	case 0:
		return nil, nil
	case 1:
		return Predicate(flat[0])
	}
	return NewOperation(op, flat...)
}

// Conjuncts splits a predicate into its top-level AND operands.
func Conjuncts(p Expression) []Expression {
	if p == nil {
		return nil
	}
	if o, ok := p.(Operation); ok && o.Op == OpAnd {
		out := make([]Expression, len(o.Args))
		copy(out, o.Args)
		return out
	}
	return []Expression{p}
}
