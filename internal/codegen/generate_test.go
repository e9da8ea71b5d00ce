package codegen

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"regexp"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chasungsoo/querydsl/internal/fixture"
	"github.com/Chasungsoo/querydsl/internal/metamodel"
)

const eventSchema = `
entity: Event: {
	columns: {
		id:        {type: "int"}
		title:     {type: "string"}
		score:     {type: "float", nullable: true}
		public:    {type: "bool"}
		startsAt:  {type: "time"}
		sourceUrl: {type: "string", nullable: true}
	}
}

result: EventRow: {
	title: {type: "string"}
	type:  {type: "string"}
	when:  {type: "time", nullable: true}
}
`

func compile(t *testing.T, src string) *metamodel.Registry {
	t.Helper()
	reg, err := metamodel.CompileString(src, "test.cue")
	require.NoError(t, err)
	return reg
}

func parse(t *testing.T, src []byte) *ast.File {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), DefaultFilename, src, parser.ParseComments)
	require.NoError(t, err, string(src))
	return f
}

var spaces = regexp.MustCompile(`[ \t]+`)

// The checked-in fixture must match what the generator produces for its
// schema.
func TestGenerate_FixtureUpToDate(t *testing.T) {
	reg, err := fixture.Registry()
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.PackageName = "fixture"
	got, err := Generate(reg, cfg)
	require.NoError(t, err)

	want, err := os.ReadFile("../fixture/" + DefaultFilename)
	require.NoError(t, err)
	assert.Equal(t, spaces.ReplaceAllString(string(want), " "), spaces.ReplaceAllString(string(got), " "))
}

func TestGenerate_TypeMapping(t *testing.T) {
	src, err := Generate(compile(t, eventSchema), Config{PackageName: "events"})
	require.NoError(t, err)
	f := parse(t, src)
	assert.Equal(t, "events", f.Name.Name)

	code := spaces.ReplaceAllString(string(src), " ")
	for _, want := range []string{
		`"time"`,
		"ID int64",
		"Title string",
		"Score *float64",
		"Public bool",
		"StartsAt time.Time",
		"SourceURL *string",
		"Score dsl.Number[float64]",
		"Public dsl.Bool",
		"StartsAt dsl.Time",
		`dsl.TimePath(p, "startsAt")`,
		`dsl.Convert[*float64](cols[2])`,
		"func NewQEventRow(title dsl.Projection[string], typeValue dsl.Projection[string], when dsl.Projection[*time.Time]) dsl.Projection[EventRow]",
		"When *time.Time",
	} {
		assert.Contains(t, code, want)
	}
}

func TestGenerate_ReservedName(t *testing.T) {
	_, err := Generate(compile(t, `
entity: Thing: {
	columns: {
		id:    {type: "int"}
		alias: {type: "string"}
	}
}`), DefaultConfig())
	assert.ErrorContains(t, err, "reserved name Alias")
}

func TestGenerate_DuplicateName(t *testing.T) {
	_, err := Generate(compile(t, `
entity: Thing: {
	columns: {
		id:        {type: "int"}
		user_name: {type: "string"}
		userName:  {type: "string", column: "login"}
	}
}`), DefaultConfig())
	assert.ErrorContains(t, err, "duplicate name UserName")
}

func TestWriteFile(t *testing.T) {
	fs := afero.NewMemMapFs()

	path, err := WriteFile(fs, "gen/model", compile(t, eventSchema), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "gen/model/"+DefaultFilename, path)

	src, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "model", parse(t, src).Name.Name)
}
