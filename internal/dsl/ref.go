package dsl

import (
	"context"
	"sync"

	"github.com/Chasungsoo/querydsl/internal/queryir"
)

// Ref is a reference to a related entity.
//
// A loaded reference already holds its value (nil when there is no related
// entity). A lazy reference holds the foreign key and fetches the entity on
// the first Get through the factory that materialized its owner.
type Ref[T any] struct {
	mu     sync.Mutex
	value  *T
	fk     any
	loaded bool
	load   func(ctx context.Context) (*T, error)
}

// LoadedRef returns a reference already holding v.
func LoadedRef[T any](v *T) *Ref[T] {
	return &Ref[T]{value: v, loaded: true}
}

// Loaded reports whether the referenced entity is in memory. A nil
// reference is not loaded.
func (r *Ref[T]) Loaded() bool {
	if r == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

// Value returns the entity if loaded, without fetching.
func (r *Ref[T]) Value() *T {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

// ForeignKey returns the key a lazy reference resolves.
func (r *Ref[T]) ForeignKey() any {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fk
}

// Get returns the entity, fetching it first if the reference is lazy.
// A failed fetch leaves the reference lazy.
func (r *Ref[T]) Get(ctx context.Context) (*T, error) {
	if r == nil {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return r.value, nil
	}
	if r.load == nil {
		return nil, queryir.Errorf(queryir.CodeInvalidQuery, "reference to %v is detached", r.fk)
	}
	v, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	r.value = v
	r.loaded = true
	return v, nil
}

// ResolveRef builds the reference for relation of the entity at owner.
//
// If the query fetch-joined the relation, the target is materialized from
// the fetched columns and the reference is loaded. A null foreign key is a
// loaded reference to nothing. Otherwise the reference is lazy.
func ResolveRef[T any](r *Row, owner EntityPath, relation string, fk any, target func(alias string) Entity[T]) (*Ref[T], error) {
	if alias, cols, ok := r.Fetched(owner.Alias(), relation); ok {
		if allNull(cols) {
			return LoadedRef[T](nil), nil
		}
		v, err := target(alias).ScanColumns(r, cols)
		if err != nil {
			return nil, err
		}
		return LoadedRef(v), nil
	}

	if fk == nil {
		return LoadedRef[T](nil), nil
	}

	ref := &Ref[T]{fk: fk}
	f := r.Factory()
	if f == nil {
		return ref, nil
	}
	ref.load = func(ctx context.Context) (*T, error) {
		e := target(relation)
		id, err := f.identifier(e.Root())
		if err != nil {
			return nil, err
		}
		v, found, err := SelectFrom(f, e).Where(id.Eq(fk)).FetchOne(ctx)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		return v, nil
	}
	return ref, nil
}

func allNull(cols []any) bool {
	for _, c := range cols {
		if c != nil {
			return false
		}
	}
	return true
}
