package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Chasungsoo/querydsl/internal/dsl"
	"github.com/Chasungsoo/querydsl/internal/engine"
	"github.com/Chasungsoo/querydsl/internal/fixture"
	"github.com/Chasungsoo/querydsl/internal/queryir"
	"github.com/Chasungsoo/querydsl/internal/store"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*RootOptions
	Run bool // execute against the configured store
}

// Explanation is the rendering of one catalog query.
type Explanation struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Dialect     string  `json:"dialect"`
	SQL         string  `json:"sql"`
	Params      []any   `json:"params"`
	Rows        [][]any `json:"rows,omitempty"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain [query...]",
		Short: "Print the SQL of catalog queries",
		Long: `Print the SQL and parameters of the named catalog queries in the
configured dialect. Without arguments every catalog query is explained.

With --run the queries are executed against the configured store; an
in-memory store is seeded with the fixture data first.

Examples:
  qdsl explain
  qdsl explain team_average_age --run
  QDSL_DIALECT=postgres qdsl explain members_paged`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Run, "run", false, "execute the queries and print their rows")
	return cmd
}

func runExplain(ctx context.Context, opts *ExplainOptions, names []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	entries, err := selectEntries(names)
	if err != nil {
		_ = formatter.Error(ErrCodeUnknownQuery, err.Error(), nil)
		return WrapExitError(ExitCommandError, "explain", err)
	}

	dialect, err := opts.Config.ResolveDialect()
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "explain", err)
	}
	logger, err := opts.logger(formatter.GetErrWriter())
	if err != nil {
		return WrapExitError(ExitCommandError, "explain", err)
	}
	reg, err := fixture.Registry()
	if err != nil {
		return WrapExitError(ExitCommandError, "explain", err)
	}

	var surface engine.Surface
	if opts.Run {
		st, err := openSeededStore(ctx, opts.Config.Driver, opts.Config.DSN)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "open store", err)
		}
		defer st.Close()
		surface = st
		dialect = st.Dialect()
	}

	f := dsl.NewFactory(engine.New(reg, surface, engine.WithDialect(dialect), engine.WithLogger(logger)))

	out := make([]Explanation, 0, len(entries))
	for _, e := range entries {
		q := e.Build(f)
		sql, params, err := q.ToSQL()
		if err != nil {
			_ = formatter.Error(ErrCodeQuery, fmt.Sprintf("%s: %v", e.Name, err), string(queryir.CodeOf(err)))
			return WrapExitError(ExitFailure, e.Name, err)
		}
		ex := Explanation{Name: e.Name, Description: e.Description, Dialect: dialect.Name(), SQL: sql, Params: params}
		if ex.Params == nil {
			ex.Params = []any{}
		}
		if opts.Run {
			if ex.Rows, err = q.FetchRows(ctx); err != nil {
				_ = formatter.Error(ErrCodeQuery, fmt.Sprintf("%s: %v", e.Name, err), string(queryir.CodeOf(err)))
				return WrapExitError(ExitFailure, e.Name, err)
			}
		}
		out = append(out, ex)
	}

	if opts.Format == "json" {
		return formatter.Success(out)
	}
	w := formatter.Writer
	for i, ex := range out {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s %s\n", okMark(ex.Name), dim("-- "+ex.Description))
		fmt.Fprintf(w, "  %s\n", ex.SQL)
		if len(ex.Params) > 0 {
			fmt.Fprintf(w, "  params: %v\n", ex.Params)
		}
		for _, row := range ex.Rows {
			fmt.Fprintf(w, "  %s\n", formatRow(row))
		}
	}
	return nil
}

func selectEntries(names []string) ([]fixture.Entry, error) {
	if len(names) == 0 {
		return fixture.Catalog(), nil
	}
	out := make([]fixture.Entry, 0, len(names))
	for _, n := range names {
		e, ok := fixture.Lookup(n)
		if !ok {
			return nil, fmt.Errorf("unknown query %q", n)
		}
		out = append(out, e)
	}
	return out, nil
}

// openSeededStore opens the configured store. An in-memory store starts
// empty, so it receives the fixture records.
func openSeededStore(ctx context.Context, driver, dsn string) (*store.Store, error) {
	st, err := fixture.OpenStore(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	if dsn == "" || dsn == store.MemoryDSN {
		if err := st.Seed(ctx, fixture.Records()...); err != nil {
			st.Close()
			return nil, err
		}
	}
	return st, nil
}

func formatRow(row []any) string {
	parts := make([]string, len(row))
	for i, v := range row {
		if v == nil {
			parts[i] = "NULL"
			continue
		}
		parts[i] = fmt.Sprint(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
