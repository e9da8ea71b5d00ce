package dsl

import "github.com/Chasungsoo/querydsl/internal/queryir"

// Numeric lists the Go types numeric paths may carry.
type Numeric interface {
	int | int32 | int64 | float32 | float64
}

// Number is a numeric expression.
type Number[T Numeric] struct {
	Value[T]
}

func numberOf[T Numeric](e expr) Number[T] {
	return Number[T]{Value[T]{e}}
}

func boolOf(e expr) Bool {
	return Bool{Value[bool]{e}}
}

func (n Number[T]) Gt(v any) Bool  { return boolOf(n.apply(queryir.OpGt, v)) }
func (n Number[T]) Goe(v any) Bool { return boolOf(n.apply(queryir.OpGoe, v)) }
func (n Number[T]) Lt(v any) Bool  { return boolOf(n.apply(queryir.OpLt, v)) }
func (n Number[T]) Loe(v any) Bool { return boolOf(n.apply(queryir.OpLoe, v)) }

// Between is inclusive on both ends.
func (n Number[T]) Between(lo, hi any) Bool {
	return boolOf(n.apply(queryir.OpBetween, lo, hi))
}

// NotBetween is the negation of Between.
func (n Number[T]) NotBetween(lo, hi any) Bool {
	return n.Between(lo, hi).Not()
}

func (n Number[T]) Add(v any) Number[T]      { return numberOf[T](n.apply(queryir.OpAdd, v)) }
func (n Number[T]) Subtract(v any) Number[T] { return numberOf[T](n.apply(queryir.OpSub, v)) }
func (n Number[T]) Multiply(v any) Number[T] { return numberOf[T](n.apply(queryir.OpMul, v)) }
func (n Number[T]) Divide(v any) Number[T]   { return numberOf[T](n.apply(queryir.OpDiv, v)) }
func (n Number[T]) Mod(v any) Number[T]      { return numberOf[T](n.apply(queryir.OpMod, v)) }
func (n Number[T]) Negate() Number[T]        { return numberOf[T](n.apply(queryir.OpNeg)) }

// Sum adds up values per group. The sum of no rows is null.
func (n Number[T]) Sum() Number[T] {
	return numberOf[T](n.apply(queryir.OpSum))
}

// Avg averages values per group; the result is always fractional.
func (n Number[T]) Avg() Number[float64] {
	return numberOf[float64](n.apply(queryir.OpAvg))
}

func (n Number[T]) Min() Number[T] { return numberOf[T](n.apply(queryir.OpMin)) }
func (n Number[T]) Max() Number[T] { return numberOf[T](n.apply(queryir.OpMax)) }

// As names the expression, keeping its numeric operators.
func (n Number[T]) As(name string) Number[T] {
	return Number[T]{n.Value.As(name)}
}
