package dsl

import (
	"time"

	"github.com/Chasungsoo/querydsl/internal/queryir"
)

// Time is a temporal expression.
//
// Comparing a time against a string literal is accepted and left to the
// backend's coercion rules.
type Time struct {
	Value[time.Time]
}

func timeOf(e expr) Time {
	return Time{Value[time.Time]{e}}
}

func (t Time) Gt(v any) Bool  { return boolOf(t.apply(queryir.OpGt, v)) }
func (t Time) Goe(v any) Bool { return boolOf(t.apply(queryir.OpGoe, v)) }
func (t Time) Lt(v any) Bool  { return boolOf(t.apply(queryir.OpLt, v)) }
func (t Time) Loe(v any) Bool { return boolOf(t.apply(queryir.OpLoe, v)) }

// Between is inclusive on both ends.
func (t Time) Between(from, to any) Bool {
	return boolOf(t.apply(queryir.OpBetween, from, to))
}

func (t Time) Min() Time { return timeOf(t.apply(queryir.OpMin)) }
func (t Time) Max() Time { return timeOf(t.apply(queryir.OpMax)) }
