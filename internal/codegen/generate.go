package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"path/filepath"
	"text/template"

	"github.com/spf13/afero"

	"github.com/Chasungsoo/querydsl/internal/ir"
	"github.com/Chasungsoo/querydsl/internal/metamodel"
)

// DefaultFilename is the name of the generated file.
const DefaultFilename = "querydsl_gen.go"

// Config controls code generation.
type Config struct {
	// PackageName is the package clause of the generated file.
	PackageName string
	// DSLImport is the import path of the dsl package.
	DSLImport string
	// QueryIRImport is the import path of the queryir package.
	QueryIRImport string
}

// DefaultConfig returns the configuration used by `qdsl gen`.
func DefaultConfig() Config {
	return Config{
		PackageName:   "model",
		DSLImport:     "github.com/Chasungsoo/querydsl/internal/dsl",
		QueryIRImport: "github.com/Chasungsoo/querydsl/internal/queryir",
	}
}

// reserved names clash with the methods generated entity paths carry.
var reserved = map[string]bool{
	"EntityPath": true, "Entity": true, "Alias": true, "Root": true, "Node": true,
	"Count": true, "Eq": true, "Ne": true, "Selections": true, "Shape": true,
	"Materialize": true, "ScanColumns": true, "Read": true,
}

// Generate renders the Go source for every entity and result type of reg.
func Generate(reg *metamodel.Registry, cfg Config) ([]byte, error) {
	if cfg.PackageName == "" {
		cfg.PackageName = DefaultConfig().PackageName
	}
	if cfg.DSLImport == "" {
		cfg.DSLImport = DefaultConfig().DSLImport
	}
	if cfg.QueryIRImport == "" {
		cfg.QueryIRImport = DefaultConfig().QueryIRImport
	}

	data, err := buildData(reg, cfg)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated source: %w", err)
	}
	return src, nil
}

// WriteFile generates into dir/DefaultFilename on fs and returns the path.
func WriteFile(fs afero.Fs, dir string, reg *metamodel.Registry, cfg Config) (string, error) {
	src, err := Generate(reg, cfg)
	if err != nil {
		return "", err
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, DefaultFilename)
	if err := afero.WriteFile(fs, path, src, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// --- Template context ---

type fileData struct {
	PackageName   string
	DSLImport     string
	QueryIRImport string
	NeedsTime     bool
	Entities      []entityData
	Results       []resultData
}

type entityData struct {
	Name       string // Go and metamodel name
	Table      string
	Width      int
	Properties []propertyData
	Scans      []scanData
}

type propertyData struct {
	GoName  string
	Name    string
	Path    string // Path field type, e.g. dsl.Number[int64]
	Ctor    string // Path constructor call
	IsField bool   // Also a field of the entity struct
	GoType  string // Entity struct field type
}

type scanData struct {
	Index    int
	GoName   string
	Name     string
	GoType   string
	Relation string // Set for owning relations
	Target   string
}

type resultData struct {
	Name   string
	Fields []resultField
}

type resultField struct {
	Index  int
	GoName string
	Param  string
	GoType string
}

func buildData(reg *metamodel.Registry, cfg Config) (*fileData, error) {
	data := &fileData{
		PackageName:   cfg.PackageName,
		DSLImport:     cfg.DSLImport,
		QueryIRImport: cfg.QueryIRImport,
	}

	for _, e := range reg.Entities() {
		ed := entityData{Name: e.Name, Table: e.Table}
		seen := map[string]bool{}
		claim := func(prop string) (string, error) {
			n := PascalCase(prop)
			if reserved[n] {
				return "", fmt.Errorf("entity %s: property %q maps to reserved name %s", e.Name, prop, n)
			}
			if seen[n] {
				return "", fmt.Errorf("entity %s: property %q maps to duplicate name %s", e.Name, prop, n)
			}
			seen[n] = true
			return n, nil
		}

		fieldTypes := map[string]string{}
		for _, c := range e.Columns {
			goName, err := claim(c.Name)
			if err != nil {
				return nil, err
			}
			goType, err := goTypeOf(c.Type, c.Nullable && c.Name != e.ID)
			if err != nil {
				return nil, fmt.Errorf("entity %s: %w", e.Name, err)
			}
			if c.Type == ir.TypeTime {
				data.NeedsTime = true
			}
			fieldTypes[c.Name] = goType
			ed.Properties = append(ed.Properties, propertyData{
				GoName:  goName,
				Name:    c.Name,
				Path:    pathType(c.Type),
				Ctor:    pathCtor(c.Type, c.Name),
				IsField: true,
				GoType:  goType,
			})
		}
		for _, rel := range e.Relations {
			goName, err := claim(rel.Name)
			if err != nil {
				return nil, err
			}
			p := propertyData{
				GoName: goName,
				Name:   rel.Name,
				Path:   "dsl.Relation",
				Ctor:   fmt.Sprintf("dsl.RelationPath(p, %q, %q)", rel.Name, rel.Target),
			}
			if rel.Owning() {
				p.IsField = true
				p.GoType = "*dsl.Ref[" + rel.Target + "]"
				fieldTypes[rel.Name] = p.GoType
			}
			ed.Properties = append(ed.Properties, p)
		}

		for i, attr := range reg.Attributes(e) {
			ed.Scans = append(ed.Scans, scanData{
				Index:    i,
				GoName:   PascalCase(attr.Name),
				Name:     attr.Name,
				GoType:   fieldTypes[attr.Name],
				Relation: attr.Relation,
				Target:   targetOf(e, attr.Relation),
			})
		}
		ed.Width = len(ed.Scans)
		data.Entities = append(data.Entities, ed)
	}

	for _, t := range reg.ResultTypes() {
		rd := resultData{Name: t.Name}
		for i, f := range t.Fields {
			goType, err := goTypeOf(f.Type, f.Nullable)
			if err != nil {
				return nil, fmt.Errorf("result %s: %w", t.Name, err)
			}
			if f.Type == ir.TypeTime {
				data.NeedsTime = true
			}
			param := camelCase(f.Name)
			if token.IsKeyword(param) {
				param += "Value"
			}
			rd.Fields = append(rd.Fields, resultField{
				Index:  i,
				GoName: PascalCase(f.Name),
				Param:  param,
				GoType: goType,
			})
		}
		data.Results = append(data.Results, rd)
	}
	return data, nil
}

func targetOf(e *metamodel.Entity, relation string) string {
	if relation == "" {
		return ""
	}
	rel, _ := e.Relation(relation)
	return rel.Target
}

func goTypeOf(t ir.Type, nullable bool) (string, error) {
	var base string
	switch t {
	case ir.TypeInt:
		base = "int64"
	case ir.TypeFloat:
		base = "float64"
	case ir.TypeString:
		base = "string"
	case ir.TypeBool:
		base = "bool"
	case ir.TypeTime:
		base = "time.Time"
	default:
		return "", fmt.Errorf("no Go type for %s", t)
	}
	if nullable {
		return "*" + base, nil
	}
	return base, nil
}

func pathType(t ir.Type) string {
	switch t {
	case ir.TypeInt:
		return "dsl.Number[int64]"
	case ir.TypeFloat:
		return "dsl.Number[float64]"
	case ir.TypeString:
		return "dsl.String"
	case ir.TypeBool:
		return "dsl.Bool"
	case ir.TypeTime:
		return "dsl.Time"
	}
	return "dsl.Value[any]"
}

func pathCtor(t ir.Type, name string) string {
	switch t {
	case ir.TypeInt:
		return fmt.Sprintf("dsl.NumberPath[int64](p, %q)", name)
	case ir.TypeFloat:
		return fmt.Sprintf("dsl.NumberPath[float64](p, %q)", name)
	case ir.TypeString:
		return fmt.Sprintf("dsl.StringPath(p, %q)", name)
	case ir.TypeBool:
		return fmt.Sprintf("dsl.BoolPath(p, %q)", name)
	case ir.TypeTime:
		return fmt.Sprintf("dsl.TimePath(p, %q)", name)
	}
	return fmt.Sprintf("dsl.ValuePath[any](p, %q)", name)
}

// --- Go template ---

var fileTemplate = template.Must(template.New("querydsl").Parse(`// Code generated by qdsl gen. DO NOT EDIT.

package {{.PackageName}}

import (
	"fmt"
{{- if .NeedsTime}}
	"time"
{{- end}}

	"{{.DSLImport}}"
	"{{.QueryIRImport}}"
)
{{range .Entities}}{{$e := .}}
// {{.Name}} is a row of {{.Table}}.
type {{.Name}} struct {
{{- range .Properties}}{{if .IsField}}
	{{.GoName}} {{.GoType}}
{{- end}}{{end}}
}

// Q{{.Name}} is the typed path of {{.Name}}.
type Q{{.Name}} struct {
	dsl.EntityPath
{{- range .Properties}}
	{{.GoName}} {{.Path}}
{{- end}}
}

// NewQ{{.Name}} binds {{.Name}} to alias.
func NewQ{{.Name}}(alias string) *Q{{.Name}} {
	p := dsl.NewEntityPath("{{.Name}}", alias)
	return &Q{{.Name}}{
		EntityPath: p,
{{- range .Properties}}
		{{.GoName}}: {{.Ctor}},
{{- end}}
	}
}

func (q *Q{{.Name}}) Selections() []dsl.Expr { return []dsl.Expr{q.EntityPath} }
func (q *Q{{.Name}}) Shape() queryir.Shape { return queryir.ShapeEntity }
func (q *Q{{.Name}}) Read(r *dsl.Row) (any, error) { return q.Materialize(r) }

// Materialize implements dsl.Projection.
func (q *Q{{.Name}}) Materialize(r *dsl.Row) (*{{.Name}}, error) {
	return q.ScanColumns(r, r.Columns(0))
}

// ScanColumns implements dsl.Entity.
func (q *Q{{.Name}}) ScanColumns(r *dsl.Row, cols []any) (*{{.Name}}, error) {
	if len(cols) != {{.Width}} {
		return nil, fmt.Errorf("{{.Name}}: expected {{.Width}} columns, got %d", len(cols))
	}
	var (
		v   {{.Name}}
		err error
	)
{{- range .Scans}}
{{- if .Relation}}
	if v.{{.GoName}}, err = dsl.ResolveRef(r, q.EntityPath, "{{.Relation}}", cols[{{.Index}}], func(alias string) dsl.Entity[{{.Target}}] { return NewQ{{.Target}}(alias) }); err != nil {
		return nil, fmt.Errorf("{{$e.Name}}.{{.Name}}: %w", err)
	}
{{- else}}
	if v.{{.GoName}}, err = dsl.Convert[{{.GoType}}](cols[{{.Index}}]); err != nil {
		return nil, fmt.Errorf("{{$e.Name}}.{{.Name}}: %w", err)
	}
{{- end}}
{{- end}}
	return &v, nil
}
{{end}}
{{- range .Results}}{{$r := .}}
// {{.Name}} is a result type.
type {{.Name}} struct {
{{- range .Fields}}
	{{.GoName}} {{.GoType}}
{{- end}}
}

// NewQ{{.Name}} projects rows into {{.Name}}.
func NewQ{{.Name}}({{range $i, $f := .Fields}}{{if $i}}, {{end}}{{.Param}} dsl.Projection[{{.GoType}}]{{end}}) dsl.Projection[{{.Name}}] {
	items := dsl.Concat({{range $i, $f := .Fields}}{{if $i}}, {{end}}{{.Param}}.Selections(){{end}})
	widths := []int{ {{- range $i, $f := .Fields}}{{if $i}}, {{end}}len({{.Param}}.Selections()){{end -}} }
	return dsl.Generated("{{.Name}}", items, func(r *dsl.Row) ({{.Name}}, error) {
		var (
			v   {{.Name}}
			err error
		)
		parts := r.Split(widths...)
{{- range .Fields}}
		if v.{{.GoName}}, err = {{.Param}}.Materialize(parts[{{.Index}}]); err != nil {
			return v, fmt.Errorf("{{$r.Name}}.{{.GoName}}: %w", err)
		}
{{- end}}
		return v, nil
	})
}
{{end}}`))
