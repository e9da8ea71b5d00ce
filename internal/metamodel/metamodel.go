// Package metamodel describes the entities a query can reference.
//
// A Registry maps entity names to their table, columns and relations. It is
// built once (from a CUE schema or in code), validated, and read-only
// afterwards. Translators resolve paths through it; the code generator
// derives typed descriptors from it.
package metamodel

import (
	"fmt"

	"github.com/Chasungsoo/querydsl/internal/ir"
)

// Cardinality of a relation, seen from its owner.
type Cardinality string

const (
	ManyToOne Cardinality = "many-to-one"
	OneToOne  Cardinality = "one-to-one"
	OneToMany Cardinality = "one-to-many"
)

// ToOne reports whether the relation resolves to at most one entity.
func (c Cardinality) ToOne() bool {
	return c == ManyToOne || c == OneToOne
}

// Column is a scalar property stored in the entity's table.
type Column struct {
	Name     string  // Property name (e.g., "username")
	Column   string  // SQL column (e.g., "username")
	Type     ir.Type // Semantic type
	Nullable bool
}

// Relation links an entity to another.
//
// To-one relations own a join column in the owner's table. To-many
// relations are the inverse side and name the target relation that owns
// the join column (MappedBy).
type Relation struct {
	Name        string
	Target      string
	Cardinality Cardinality
	JoinColumn  string // Owner-side foreign key for to-one relations
	MappedBy    string // Target relation for to-many relations
}

// Owning reports whether the relation's join column lives in the owner's table.
func (r Relation) Owning() bool {
	return r.Cardinality.ToOne() && r.JoinColumn != ""
}

// Entity is a mapped type.
type Entity struct {
	Name      string
	Table     string
	ID        string // Property name of the identifier column
	Columns   []Column
	Relations []Relation
}

// Column returns the scalar property with the given name.
func (e *Entity) Column(name string) (Column, bool) {
	for _, c := range e.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Relation returns the relation with the given name.
func (e *Entity) Relation(name string) (Relation, bool) {
	for _, r := range e.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return Relation{}, false
}

// IDColumn returns the identifier column.
func (e *Entity) IDColumn() Column {
	c, _ := e.Column(e.ID)
	return c
}

// Attribute is one column read when the entity is materialized.
type Attribute struct {
	Name     string  // Property or relation name
	Column   string  // SQL column
	Type     ir.Type // For relations, the type of the target identifier
	Nullable bool
	Relation string // Set for owning relations
}

// Attributes lists the columns of an entity in materialization order:
// scalar columns as declared, then the join columns of owning relations.
func (r *Registry) Attributes(e *Entity) []Attribute {
	out := make([]Attribute, 0, len(e.Columns)+len(e.Relations))
	for _, c := range e.Columns {
		out = append(out, Attribute{Name: c.Name, Column: c.Column, Type: c.Type, Nullable: c.Nullable})
	}
	for _, rel := range e.Relations {
		if !rel.Owning() {
			continue
		}
		idType := ir.TypeAny
		if target, ok := r.Entity(rel.Target); ok {
			idType = target.IDColumn().Type
		}
		out = append(out, Attribute{
			Name:     rel.Name,
			Column:   rel.JoinColumn,
			Type:     idType,
			Nullable: true,
			Relation: rel.Name,
		})
	}
	return out
}

// ResultType is a projection target declared in the schema. The code
// generator emits a struct and a typed projection for each.
type ResultType struct {
	Name   string
	Fields []Column // SQL column names are not used
}

// Registry is a validated, read-only set of entities.
type Registry struct {
	entities map[string]*Entity
	order    []string
	results  []ResultType
}

// NewRegistry validates entities and builds a registry.
//
// Rules:
//  1. Entity names are unique and every entity has a table
//  2. The identifier names a declared column
//  3. Column names and SQL columns are unique per entity
//  4. Relation targets exist
//  5. To-one relations declare a join column
//  6. To-many relations name a to-one relation of the target that points back
func NewRegistry(entities ...Entity) (*Registry, error) {
	r := &Registry{entities: make(map[string]*Entity, len(entities))}
	for i := range entities {
		e := entities[i]
		if e.Name == "" {
			return nil, fmt.Errorf("entity %d: name is required", i)
		}
		if _, dup := r.entities[e.Name]; dup {
			return nil, fmt.Errorf("entity %s: declared twice", e.Name)
		}
		if e.Table == "" {
			return nil, fmt.Errorf("entity %s: table is required", e.Name)
		}
		r.entities[e.Name] = &e
		r.order = append(r.order, e.Name)
	}

	for _, name := range r.order {
		if err := r.validateEntity(r.entities[name]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) validateEntity(e *Entity) error {
	if _, ok := e.Column(e.ID); !ok {
		return fmt.Errorf("entity %s: identifier %q is not a declared column", e.Name, e.ID)
	}

	props := map[string]bool{}
	cols := map[string]bool{}
	for _, c := range e.Columns {
		if props[c.Name] {
			return fmt.Errorf("entity %s: property %q declared twice", e.Name, c.Name)
		}
		if cols[c.Column] {
			return fmt.Errorf("entity %s: column %q mapped twice", e.Name, c.Column)
		}
		props[c.Name] = true
		cols[c.Column] = true
	}

	for _, rel := range e.Relations {
		if props[rel.Name] {
			return fmt.Errorf("entity %s: relation %q clashes with another property", e.Name, rel.Name)
		}
		props[rel.Name] = true

		target, ok := r.entities[rel.Target]
		if !ok {
			return fmt.Errorf("entity %s: relation %q targets unknown entity %q", e.Name, rel.Name, rel.Target)
		}

		switch rel.Cardinality {
		case ManyToOne, OneToOne:
			if rel.JoinColumn == "" {
				return fmt.Errorf("entity %s: relation %q needs a join column", e.Name, rel.Name)
			}
			if cols[rel.JoinColumn] {
				return fmt.Errorf("entity %s: join column %q of relation %q is already mapped", e.Name, rel.JoinColumn, rel.Name)
			}
			cols[rel.JoinColumn] = true
		case OneToMany:
			back, ok := target.Relation(rel.MappedBy)
			if !ok || !back.Owning() || back.Target != e.Name {
				return fmt.Errorf("entity %s: relation %q must be mapped by a to-one relation of %s pointing back, got %q",
					e.Name, rel.Name, target.Name, rel.MappedBy)
			}
		default:
			return fmt.Errorf("entity %s: relation %q has unknown cardinality %q", e.Name, rel.Name, rel.Cardinality)
		}
	}
	return nil
}

// Entity returns the entity with the given name.
func (r *Registry) Entity(name string) (*Entity, bool) {
	e, ok := r.entities[name]
	return e, ok
}

// MustEntity is like Entity but panics when the entity is unknown.
// Use only for names taken from generated code.
func (r *Registry) MustEntity(name string) *Entity {
	e, ok := r.entities[name]
	if !ok {
		panic(fmt.Sprintf("metamodel: unknown entity %q", name))
	}
	return e
}

// Entities returns all entities in declaration order.
func (r *Registry) Entities() []*Entity {
	out := make([]*Entity, len(r.order))
	for i, name := range r.order {
		out[i] = r.entities[name]
	}
	return out
}

// ResultTypes returns the declared projection targets in declaration order.
func (r *Registry) ResultTypes() []ResultType {
	return r.results
}

// WithResultTypes returns a registry sharing r's entities and declaring
// the given result types.
func (r *Registry) WithResultTypes(types ...ResultType) (*Registry, error) {
	seen := map[string]bool{}
	for _, t := range types {
		if t.Name == "" {
			return nil, fmt.Errorf("result type: name is required")
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("result type %s: declared twice", t.Name)
		}
		if _, clash := r.entities[t.Name]; clash {
			return nil, fmt.Errorf("result type %s: clashes with an entity", t.Name)
		}
		seen[t.Name] = true
		if len(t.Fields) == 0 {
			return nil, fmt.Errorf("result type %s: declares no fields", t.Name)
		}
		names := map[string]bool{}
		for _, f := range t.Fields {
			if names[f.Name] {
				return nil, fmt.Errorf("result type %s: field %q declared twice", t.Name, f.Name)
			}
			names[f.Name] = true
		}
	}
	out := *r
	out.results = types
	return &out, nil
}

// InverseJoinColumn returns the join column that backs a to-many relation.
func (r *Registry) InverseJoinColumn(rel Relation) (string, error) {
	target, ok := r.Entity(rel.Target)
	if !ok {
		return "", fmt.Errorf("unknown entity %q", rel.Target)
	}
	back, ok := target.Relation(rel.MappedBy)
	if !ok {
		return "", fmt.Errorf("entity %s has no relation %q", rel.Target, rel.MappedBy)
	}
	return back.JoinColumn, nil
}
