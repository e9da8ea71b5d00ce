package codegen

import (
	"strings"
	"unicode"
)

// acronyms are fully uppercased in Go names.
var acronyms = map[string]string{
	"id":   "ID",
	"url":  "URL",
	"uuid": "UUID",
	"api":  "API",
	"http": "HTTP",
	"sql":  "SQL",
}

// splitWords splits snake_case, kebab-case and camelCase names into words.
func splitWords(name string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	for i, r := range name {
		switch {
		case r == '_' || r == '-':
			flush()
		case unicode.IsUpper(r) && i > 0:
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return words
}

// PascalCase converts a schema name into an exported Go identifier.
//
//	id        -> ID
//	teamId    -> TeamID
//	user_name -> UserName
func PascalCase(name string) string {
	var b strings.Builder
	for _, w := range splitWords(name) {
		lower := strings.ToLower(w)
		if a, ok := acronyms[lower]; ok {
			b.WriteString(a)
			continue
		}
		runes := []rune(lower)
		b.WriteRune(unicode.ToUpper(runes[0]))
		b.WriteString(string(runes[1:]))
	}
	return b.String()
}

// camelCase converts a schema name into an unexported Go identifier.
func camelCase(name string) string {
	p := PascalCase(name)
	if p == "" {
		return p
	}
	for a := range acronyms {
		if strings.HasPrefix(p, acronyms[a]) && (len(p) == len(a) || unicode.IsUpper(rune(p[len(a)]))) {
			return a + p[len(a):]
		}
	}
	runes := []rune(p)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}
