package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPascalCase(t *testing.T) {
	tests := map[string]string{
		"id":         "ID",
		"teamId":     "TeamID",
		"user_name":  "UserName",
		"home-team":  "HomeTeam",
		"sourceUrl":  "SourceURL",
		"api_key":    "APIKey",
		"Member":     "Member",
		"age":        "Age",
		"created_at": "CreatedAt",
	}
	for in, want := range tests {
		assert.Equal(t, want, PascalCase(in), in)
	}
}

func TestCamelCase(t *testing.T) {
	tests := map[string]string{
		"id":        "id",
		"user_name": "userName",
		"urlPath":   "urlPath",
		"Age":       "age",
		"":          "",
	}
	for in, want := range tests {
		assert.Equal(t, want, camelCase(in), in)
	}
}
