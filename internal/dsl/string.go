package dsl

import (
	"strings"

	"github.com/Chasungsoo/querydsl/internal/queryir"
	"github.com/Chasungsoo/querydsl/internal/querysql"
)

// String is a text expression.
type String struct {
	Value[string]
}

func stringOf(e expr) String {
	return String{Value[string]{e}}
}

func (s String) Gt(v any) Bool  { return boolOf(s.apply(queryir.OpGt, v)) }
func (s String) Goe(v any) Bool { return boolOf(s.apply(queryir.OpGoe, v)) }
func (s String) Lt(v any) Bool  { return boolOf(s.apply(queryir.OpLt, v)) }
func (s String) Loe(v any) Bool { return boolOf(s.apply(queryir.OpLoe, v)) }

// Concat appends v.
func (s String) Concat(v any) String {
	return stringOf(s.apply(queryir.OpConcat, v))
}

// Like matches a pattern where % matches any run of characters and _ a
// single one. Escape literal wildcards with !.
func (s String) Like(pattern any) Bool {
	return boolOf(s.apply(queryir.OpLike, pattern))
}

// Contains matches values containing sub literally.
func (s String) Contains(sub string) Bool {
	return s.Like("%" + EscapeLike(sub) + "%")
}

// StartsWith matches values beginning with prefix literally.
func (s String) StartsWith(prefix string) Bool {
	return s.Like(EscapeLike(prefix) + "%")
}

// EndsWith matches values ending with suffix literally.
func (s String) EndsWith(suffix string) Bool {
	return s.Like("%" + EscapeLike(suffix))
}

func (s String) Lower() String { return stringOf(s.apply(queryir.OpLower)) }
func (s String) Upper() String { return stringOf(s.apply(queryir.OpUpper)) }
func (s String) Trim() String  { return stringOf(s.apply(queryir.OpTrim)) }

// Length counts characters.
func (s String) Length() Number[int64] {
	return numberOf[int64](s.apply(queryir.OpLength))
}

func (s String) Min() String { return stringOf(s.apply(queryir.OpMin)) }
func (s String) Max() String { return stringOf(s.apply(queryir.OpMax)) }

// As names the expression, keeping its string operators.
func (s String) As(name string) String {
	return String{s.Value.As(name)}
}

var likeEscaper = strings.NewReplacer(
	string(querysql.LikeEscape), string(querysql.LikeEscape)+string(querysql.LikeEscape),
	"%", string(querysql.LikeEscape)+"%",
	"_", string(querysql.LikeEscape)+"_",
)

// EscapeLike escapes LIKE wildcards so s matches literally.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
