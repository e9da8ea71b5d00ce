package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Chasungsoo/querydsl/internal/dsl"
	"github.com/Chasungsoo/querydsl/internal/engine"
	"github.com/Chasungsoo/querydsl/internal/fixture"
	"github.com/Chasungsoo/querydsl/internal/queryir"
	"github.com/Chasungsoo/querydsl/internal/store"
	"github.com/Chasungsoo/querydsl/internal/testutil"
)

// Harness is the test execution engine for one scenario.
type Harness struct {
	store    *store.Store
	recorder *testutil.Recorder
	factory  *dsl.Factory
	logger   *slog.Logger
}

// Option configures Run.
type Option func(*options)

type options struct {
	driver string
	dsn    string
	logger *slog.Logger
}

// WithStore runs the scenario against the given database instead of a
// fresh in-memory SQLite database. The schema is created if missing.
func WithStore(driver, dsn string) Option {
	return func(o *options) {
		o.driver = driver
		o.dsn = dsn
	}
}

// WithLogger sets the logger for the harness and its engine.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
//  1. Open a fresh store and write the fixture records plus the seed
//  2. Run every check through an engine that records dispatched statements
//  3. Evaluate the assertions
//
// The returned error reports a harness failure; failed expectations are in
// Result.Errors.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := fixture.OpenStore(ctx, o.driver, o.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	records := fixture.Records()
	for _, step := range scenario.Seed {
		records = append(records, store.Record{Entity: step.Entity, Values: step.Values})
	}
	if err := st.Seed(ctx, records...); err != nil {
		return nil, fmt.Errorf("failed to seed: %w", err)
	}

	rec := testutil.NewRecorder(st)
	eng := engine.New(st.Registry(), rec,
		engine.WithDialect(st.Dialect()),
		engine.WithLogger(o.logger),
		engine.WithIDGenerator(testutil.NewSequentialIDs(scenario.Name)),
	)
	h := &Harness{
		store:    st,
		recorder: rec,
		factory:  dsl.NewFactory(eng),
		logger:   o.logger,
	}

	result := NewResult()
	for i, check := range scenario.Checks {
		h.executeCheck(ctx, i, check, result)
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"checks", len(scenario.Checks),
		"pass", result.Pass,
	)
	return result, nil
}

// executeCheck runs one catalog query and validates its expect clause.
func (h *Harness) executeCheck(ctx context.Context, i int, check Check, result *Result) {
	entry, ok := fixture.Lookup(check.Query)
	if !ok {
		result.AddError(fmt.Sprintf("checks[%d]: unknown query %q", i, check.Query))
		return
	}

	mode := check.Fetch
	if mode == "" {
		mode = FetchRows
	}

	h.recorder.Reset()
	q := entry.Build(h.factory)
	ev := TraceEvent{Seq: int64(i + 1), Query: check.Query, Fetch: mode}

	var err error
	switch mode {
	case FetchCount:
		var n int64
		if n, err = q.FetchCount(ctx); err == nil {
			ev.Count = &n
		}
	case FetchOne:
		var row []any
		var found bool
		if row, found, err = q.FetchOneRow(ctx); err == nil {
			ev.Found = &found
			if found {
				ev.Rows = [][]any{row}
			}
		}
	default:
		ev.Rows, err = q.FetchRows(ctx)
	}
	if err != nil {
		code := queryir.CodeOf(err)
		if code == "" {
			code = queryir.CodeExecution
		}
		ev.Error = string(code)
		ev.Message = err.Error()
	}
	ev.Statements = h.recorder.Statements()
	result.AddTrace(ev)

	h.logger.Debug("check executed",
		"seq", ev.Seq,
		"query", ev.Query,
		"statements", len(ev.Statements),
		"error", ev.Error,
	)

	for _, msg := range checkExpect(ev, check.Expect) {
		result.AddError(fmt.Sprintf("checks[%d] %s: %s", i, check.Query, msg))
	}
}
