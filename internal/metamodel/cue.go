package metamodel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/Chasungsoo/querydsl/internal/ir"
)

// CompileError represents a schema error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadDir loads every .cue file in dir as one CUE instance and compiles the
// entities declared under the top-level "entity" field.
func LoadDir(dir string) (*Registry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("schema directory: %s is not a directory", dir)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	// Files are named explicitly so schemas without a package clause load.
	args := make([]string, len(files))
	for i, f := range files {
		args[i] = "./" + filepath.Base(f)
	}

	ctx := cuecontext.New()
	instances := load.Instances(args, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	if err := instances[0].Err; err != nil {
		return nil, formatCUEError(err)
	}

	value := ctx.BuildInstance(instances[0])
	return Compile(value)
}

// CompileString compiles schema source held in memory.
// filename is used in error positions only.
func CompileString(src, filename string) (*Registry, error) {
	ctx := cuecontext.New()
	value := ctx.CompileString(src, cue.Filename(filename))
	return Compile(value)
}

// Compile builds a registry from a CUE value holding an "entity" struct:
//
//	entity: Member: {
//		table: "member"            // default: snake_case of the name
//		id:    "id"                // default: "id"
//		columns: username: {type: "string", nullable: true, column: "username"}
//		relations: team: {target: "Team", cardinality: "many-to-one", join_column: "team_id"}
//	}
//
// An optional "result" struct declares projection targets with the same
// field syntax as columns:
//
//	result: MemberDto: {username: {type: "string"}, age: {type: "int"}}
//
// Field order in the schema is the column order of the registry.
func Compile(v cue.Value) (*Registry, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	entitiesVal := v.LookupPath(cue.ParsePath("entity"))
	if !entitiesVal.Exists() {
		return nil, &CompileError{Field: "entity", Message: "no entities declared", Pos: v.Pos()}
	}

	iter, err := entitiesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var entities []Entity
	for iter.Next() {
		e, err := compileEntity(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		entities = append(entities, *e)
	}

	reg, err := NewRegistry(entities...)
	if err != nil {
		return nil, &CompileError{Field: "entity", Message: err.Error(), Pos: entitiesVal.Pos()}
	}

	resultsVal := v.LookupPath(cue.ParsePath("result"))
	if !resultsVal.Exists() {
		return reg, nil
	}
	results, err := resultsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var types []ResultType
	for results.Next() {
		t := ResultType{Name: results.Selector().Unquoted()}
		fields, err := results.Value().Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for fields.Next() {
			c, err := compileColumn(fields.Selector().Unquoted(), fields.Value())
			if err != nil {
				return nil, err
			}
			t.Fields = append(t.Fields, c)
		}
		types = append(types, t)
	}
	if reg, err = reg.WithResultTypes(types...); err != nil {
		return nil, &CompileError{Field: "result", Message: err.Error(), Pos: resultsVal.Pos()}
	}
	return reg, nil
}

func compileEntity(name string, v cue.Value) (*Entity, error) {
	e := &Entity{
		Name:  name,
		Table: snakeCase(name),
		ID:    "id",
	}

	var err error
	if e.Table, err = optionalString(v, "table", e.Table); err != nil {
		return nil, err
	}
	if e.ID, err = optionalString(v, "id", e.ID); err != nil {
		return nil, err
	}

	colsVal := v.LookupPath(cue.ParsePath("columns"))
	if !colsVal.Exists() {
		return nil, &CompileError{Field: "columns", Message: fmt.Sprintf("entity %s declares no columns", name), Pos: v.Pos()}
	}
	cols, err := colsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for cols.Next() {
		c, err := compileColumn(cols.Selector().Unquoted(), cols.Value())
		if err != nil {
			return nil, err
		}
		e.Columns = append(e.Columns, c)
	}

	relsVal := v.LookupPath(cue.ParsePath("relations"))
	if relsVal.Exists() {
		rels, err := relsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for rels.Next() {
			r, err := compileRelation(rels.Selector().Unquoted(), rels.Value())
			if err != nil {
				return nil, err
			}
			e.Relations = append(e.Relations, r)
		}
	}

	return e, nil
}

func compileColumn(name string, v cue.Value) (Column, error) {
	c := Column{Name: name, Column: snakeCase(name)}

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return c, &CompileError{Field: "type", Message: fmt.Sprintf("column %s has no type", name), Pos: v.Pos()}
	}
	typeName, err := typeVal.String()
	if err != nil {
		return c, formatCUEError(err)
	}
	if c.Type, err = ir.ParseColumnType(typeName); err != nil {
		return c, &CompileError{Field: "type", Message: fmt.Sprintf("column %s: %v", name, err), Pos: typeVal.Pos()}
	}

	if c.Column, err = optionalString(v, "column", c.Column); err != nil {
		return c, err
	}
	if nv := v.LookupPath(cue.ParsePath("nullable")); nv.Exists() {
		if c.Nullable, err = nv.Bool(); err != nil {
			return c, formatCUEError(err)
		}
	}
	return c, nil
}

func compileRelation(name string, v cue.Value) (Relation, error) {
	r := Relation{Name: name, Cardinality: ManyToOne}

	targetVal := v.LookupPath(cue.ParsePath("target"))
	if !targetVal.Exists() {
		return r, &CompileError{Field: "target", Message: fmt.Sprintf("relation %s has no target", name), Pos: v.Pos()}
	}
	var err error
	if r.Target, err = targetVal.String(); err != nil {
		return r, formatCUEError(err)
	}

	card, err := optionalString(v, "cardinality", string(r.Cardinality))
	if err != nil {
		return r, err
	}
	r.Cardinality = Cardinality(card)

	defaultJoin := ""
	if r.Cardinality.ToOne() {
		defaultJoin = snakeCase(name) + "_id"
	}
	if r.JoinColumn, err = optionalString(v, "join_column", defaultJoin); err != nil {
		return r, err
	}
	if r.MappedBy, err = optionalString(v, "mapped_by", ""); err != nil {
		return r, err
	}
	return r, nil
}

func optionalString(v cue.Value, field, fallback string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return fallback, nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// snakeCase converts "TeamMember" or "teamMember" to "team_member".
func snakeCase(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
