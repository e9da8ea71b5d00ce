package engine

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cast"

	"github.com/Chasungsoo/querydsl/internal/metamodel"
	"github.com/Chasungsoo/querydsl/internal/queryir"
	"github.com/Chasungsoo/querydsl/internal/querysql"
)

// Surface executes SQL and inspects relation references.
//
// Execute returns every row of the result as a slice of column values, in
// select-list order. IsLoaded reports whether a relation reference has been
// populated; references that do not expose their load state are reported
// as not loaded.
type Surface interface {
	Execute(ctx context.Context, query string, params []any) ([][]any, error)
	IsLoaded(ref any) bool
}

// IDGenerator generates execution ids for log correlation.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// Engine validates, translates and dispatches queries.
type Engine struct {
	registry   *metamodel.Registry
	surface    Surface
	dialect    *querysql.Dialect
	translator *querysql.Translator
	logger     *slog.Logger
	ids        IDGenerator
	stats      Stats
}

// Option configures an Engine.
type Option func(*Engine)

// WithDialect selects the SQL dialect.
//
// Default: querysql.SQLite
func WithDialect(d *querysql.Dialect) Option {
	return func(e *Engine) {
		e.dialect = d
	}
}

// WithLogger sets the logger used for dispatch records.
//
// Default: a logger that discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithIDGenerator sets the execution id generator.
//
// Default: UUIDv7Generator
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// New creates an Engine over a registry and an execution surface.
func New(reg *metamodel.Registry, surface Surface, opts ...Option) *Engine {
	e := &Engine{
		registry: reg,
		surface:  surface,
		dialect:  querysql.SQLite,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		ids:      UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.translator = querysql.NewTranslator(reg, e.dialect)
	return e
}

// Registry returns the metamodel the engine resolves paths through.
func (e *Engine) Registry() *metamodel.Registry {
	return e.registry
}

// Dialect returns the configured dialect.
func (e *Engine) Dialect() *querysql.Dialect {
	return e.dialect
}

// Stats returns a snapshot of the dispatch counters.
func (e *Engine) Stats() StatsSnapshot {
	return e.stats.Snapshot()
}

// Result is the raw outcome of a fetch.
type Result struct {
	ExecutionID string // Empty when nothing was dispatched
	Statement   *querysql.Statement
	Rows        [][]any
}

// Translate validates q and renders it.
func (e *Engine) Translate(q queryir.Query) (*querysql.Statement, error) {
	if err := queryir.Validate(q); err != nil {
		return nil, err
	}
	return e.translator.Translate(q)
}

// TranslateCount validates q and renders the query counting its rows.
func (e *Engine) TranslateCount(q queryir.Query) (*querysql.Statement, error) {
	if err := queryir.Validate(q); err != nil {
		return nil, err
	}
	return e.translator.TranslateCount(q)
}

// Fetch executes q and returns its rows.
//
// A query with limit 0 is translated but not dispatched.
func (e *Engine) Fetch(ctx context.Context, q queryir.Query) (*Result, error) {
	st, err := e.Translate(q)
	if err != nil {
		return nil, err
	}

	if q.Limit != nil && *q.Limit == 0 {
		e.stats.skipped.Add(1)
		e.logger.Debug("query skipped", "reason", "limit 0", "query_hash", q.Fingerprint())
		return &Result{Statement: st}, nil
	}

	id, rows, err := e.dispatch(ctx, q, st)
	if err != nil {
		return nil, err
	}
	return &Result{ExecutionID: id, Statement: st, Rows: rows}, nil
}

// Count executes the count rewrite of q.
// Paging does not apply to the count.
func (e *Engine) Count(ctx context.Context, q queryir.Query) (int64, error) {
	st, err := e.TranslateCount(q)
	if err != nil {
		return 0, err
	}

	_, rows, err := e.dispatch(ctx, q, st)
	if err != nil {
		return 0, err
	}
	if len(rows) != 1 {
		return 0, queryir.Errorf(queryir.CodeExecution, "count returned %d rows, expected 1", len(rows))
	}

	n, err := cast.ToInt64E(rows[0][0])
	if err != nil {
		return 0, queryir.Wrap(queryir.CodeExecution, err, "count returned %v", rows[0][0])
	}
	return n, nil
}

// IsLoaded reports whether a relation reference has been populated.
func (e *Engine) IsLoaded(ref any) bool {
	return e.surface.IsLoaded(ref)
}

func (e *Engine) dispatch(ctx context.Context, q queryir.Query, st *querysql.Statement) (string, [][]any, error) {
	id := e.ids.Generate()
	seq := e.stats.dispatched.Add(1)
	log := e.logger.With(
		"execution_id", id,
		"seq", seq,
		"query_hash", q.Fingerprint(),
	)

	start := time.Now()
	rows, err := e.surface.Execute(ctx, st.SQL, st.Params)
	elapsed := time.Since(start)

	if err != nil {
		e.stats.failed.Add(1)
		log.Warn("query failed", "sql", st.SQL, "params", st.Params, "elapsed", elapsed, "error", err)
		return id, nil, queryir.Wrap(queryir.CodeExecution, err, "execution %s", id)
	}

	for i, row := range rows {
		if len(row) != st.Width {
			e.stats.failed.Add(1)
			return id, nil, queryir.Errorf(queryir.CodeExecution,
				"execution %s: row %d has %d columns, expected %d", id, i, len(row), st.Width)
		}
	}

	log.Debug("query executed", "sql", st.SQL, "params", st.Params, "rows", len(rows), "elapsed", elapsed)
	return id, rows, nil
}
