package testutil

import (
	"context"
	"sync"

	"github.com/Chasungsoo/querydsl/internal/engine"
)

// Statement is one dispatched query as seen by a Recorder.
type Statement struct {
	SQL    string
	Params []any
}

// Recorder wraps an engine.Surface and remembers every statement sent to it.
// Params are copied, so later mutation by the caller is not observed.
type Recorder struct {
	inner engine.Surface

	mu         sync.Mutex
	statements []Statement
}

var _ engine.Surface = (*Recorder)(nil)

// NewRecorder wraps inner.
func NewRecorder(inner engine.Surface) *Recorder {
	return &Recorder{inner: inner}
}

// Execute records the statement and forwards it. Failed statements are
// recorded too.
func (r *Recorder) Execute(ctx context.Context, query string, params []any) ([][]any, error) {
	r.mu.Lock()
	r.statements = append(r.statements, Statement{SQL: query, Params: append([]any{}, params...)})
	r.mu.Unlock()
	return r.inner.Execute(ctx, query, params)
}

// IsLoaded forwards to the wrapped surface.
func (r *Recorder) IsLoaded(ref any) bool {
	return r.inner.IsLoaded(ref)
}

// Statements returns a copy of the recorded statements in dispatch order.
func (r *Recorder) Statements() []Statement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Statement(nil), r.statements...)
}

// Reset forgets all recorded statements.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statements = nil
}
