package dsl

import (
	"github.com/Chasungsoo/querydsl/internal/ir"
	"github.com/Chasungsoo/querydsl/internal/queryir"
)

// CaseBuilder assembles a CASE expression producing R.
//
//	dsl.Cases[string]().
//		When(m.Age.Between(0, 20)).Then("young").
//		When(m.Age.Between(21, 30)).Then("adult").
//		Otherwise("other")
//
// Builders are values; each step returns a new one.
type CaseBuilder[R any] struct {
	operand queryir.Expression
	whens   []queryir.When
	err     error
}

// Cases starts a searched CASE: every When takes a predicate.
func Cases[R any]() CaseBuilder[R] {
	return CaseBuilder[R]{}
}

// CaseOf starts a simple CASE comparing operand to each When value.
func CaseOf[R any](operand Expr) CaseBuilder[R] {
	n, err := operand.Node()
	return CaseBuilder[R]{operand: n, err: err}
}

// CaseWhen is a branch waiting for its result.
type CaseWhen[R any] struct {
	b    CaseBuilder[R]
	cond queryir.Expression
}

// When adds a branch condition: a predicate for Cases, a value for CaseOf.
func (c CaseBuilder[R]) When(cond any) CaseWhen[R] {
	if c.err != nil {
		return CaseWhen[R]{b: c}
	}
	n, err := operand(cond)
	if err != nil {
		c.err = err
	}
	return CaseWhen[R]{b: c, cond: n}
}

// Then sets the branch result.
func (w CaseWhen[R]) Then(result any) CaseBuilder[R] {
	c := w.b
	if c.err != nil {
		return c
	}
	n, err := operand(result)
	if err != nil {
		c.err = err
		return c
	}
	whens := make([]queryir.When, len(c.whens), len(c.whens)+1)
	copy(whens, c.whens)
	c.whens = append(whens, queryir.When{Cond: w.cond, Result: n})
	return c
}

// Otherwise closes the expression with a default result.
func (c CaseBuilder[R]) Otherwise(result any) Value[R] {
	if c.err != nil {
		return Value[R]{failed(c.err)}
	}
	n, err := operand(result)
	if err != nil {
		return Value[R]{failed(err)}
	}
	return c.build(n)
}

// End closes the expression; unmatched rows yield null.
func (c CaseBuilder[R]) End() Value[R] {
	if c.err != nil {
		return Value[R]{failed(c.err)}
	}
	return c.build(nil)
}

func (c CaseBuilder[R]) build(otherwise queryir.Expression) Value[R] {
	n, err := queryir.NewCase(c.operand, c.whens, otherwise)
	if err != nil {
		return Value[R]{failed(err)}
	}
	if want := typeOf[R](); !fits(n.Type(), want) {
		return Value[R]{failed(queryir.Errorf(queryir.CodeTypeMismatch,
			"case result is %s, not %s", n.Type(), want))}
	}
	return Value[R]{node(n)}
}

// fits reports whether values of type got materialize as want without loss.
func fits(got, want ir.Type) bool {
	if want == ir.TypeInt && got == ir.TypeFloat {
		return false
	}
	return ir.Compatible(got, want)
}
