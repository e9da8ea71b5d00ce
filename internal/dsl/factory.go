package dsl

import (
	"github.com/Chasungsoo/querydsl/internal/engine"
	"github.com/Chasungsoo/querydsl/internal/queryir"
)

// Factory binds queries to an engine.
type Factory struct {
	engine *engine.Engine
}

// NewFactory creates a factory executing through e.
func NewFactory(e *engine.Engine) *Factory {
	return &Factory{engine: e}
}

// Engine returns the engine queries are executed by.
func (f *Factory) Engine() *engine.Engine {
	return f.engine
}

// IsLoaded reports whether a relation reference has been populated.
func (f *Factory) IsLoaded(ref any) bool {
	return f.engine.IsLoaded(ref)
}

// identifier returns the identifier property of the entity at p.
func (f *Factory) identifier(p EntityPath) (Value[any], error) {
	e, ok := f.engine.Registry().Entity(p.Entity())
	if !ok {
		return Value[any]{}, queryir.Errorf(queryir.CodeInvalidQuery, "unknown entity %q", p.Entity())
	}
	id := e.IDColumn()
	return Value[any]{p.property(id.Name, id.Type, "")}, nil
}
