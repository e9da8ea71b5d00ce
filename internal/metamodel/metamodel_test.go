package metamodel

import (
	"testing"

	"github.com/Chasungsoo/querydsl/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idColumn() Column {
	return Column{Name: "id", Column: "id", Type: ir.TypeInt}
}

func TestNewRegistry_Validation(t *testing.T) {
	tests := []struct {
		name     string
		entities []Entity
		msg      string
	}{
		{"duplicate entity", []Entity{
			{Name: "A", Table: "a", ID: "id", Columns: []Column{idColumn()}},
			{Name: "A", Table: "a2", ID: "id", Columns: []Column{idColumn()}},
		}, "declared twice"},
		{"no table", []Entity{{Name: "A", ID: "id", Columns: []Column{idColumn()}}}, "table is required"},
		{"duplicate column", []Entity{{Name: "A", Table: "a", ID: "id", Columns: []Column{
			idColumn(), {Name: "code", Column: "id", Type: ir.TypeString},
		}}}, "mapped twice"},
		{"to-one without join column", []Entity{{Name: "A", Table: "a", ID: "id", Columns: []Column{idColumn()},
			Relations: []Relation{{Name: "self", Target: "A", Cardinality: ManyToOne}}}}, "needs a join column"},
		{"unknown cardinality", []Entity{{Name: "A", Table: "a", ID: "id", Columns: []Column{idColumn()},
			Relations: []Relation{{Name: "self", Target: "A", Cardinality: "many-to-many"}}}}, "unknown cardinality"},
		{"relation clashes with column", []Entity{{Name: "A", Table: "a", ID: "id", Columns: []Column{idColumn()},
			Relations: []Relation{{Name: "id", Target: "A", Cardinality: ManyToOne, JoinColumn: "parent_id"}}}}, "clashes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.entities...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestMustEntityPanics(t *testing.T) {
	reg, err := NewRegistry(Entity{Name: "A", Table: "a", ID: "id", Columns: []Column{idColumn()}})
	require.NoError(t, err)
	assert.Panics(t, func() { reg.MustEntity("B") })
	assert.Equal(t, "id", reg.MustEntity("A").IDColumn().Column)
}
