package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Chasungsoo/querydsl/internal/fixture"
	"github.com/Chasungsoo/querydsl/internal/queryir"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Seed lists rows written after the fixture records.
	Seed []SeedStep `yaml:"seed,omitempty"`

	// Checks run catalog queries in order.
	Checks []Check `yaml:"checks"`

	// Assertions validate the trace and the final table contents.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// SeedStep is one row to insert, keyed by property name.
type SeedStep struct {
	Entity string         `yaml:"entity"`
	Values map[string]any `yaml:"values"`
}

// Check runs one catalog query.
type Check struct {
	// Query is the catalog name of the query.
	Query string `yaml:"query"`

	// Fetch selects how the query runs: rows (default), count or one.
	Fetch string `yaml:"fetch,omitempty"`

	// Expect is validated against the outcome. If nil, the check only has
	// to succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// Fetch modes.
const (
	FetchRows  = "rows"
	FetchCount = "count"
	FetchOne   = "one"
)

// ExpectClause specifies the expected outcome of a check.
type ExpectClause struct {
	// Rows are the expected rows. Numbers compare by value, so 15 matches
	// an average of 15.0.
	Rows [][]any `yaml:"rows,omitempty"`

	// Unordered compares Rows as a multiset.
	Unordered bool `yaml:"unordered,omitempty"`

	// Count is the expected total of a count check.
	Count *int64 `yaml:"count,omitempty"`

	// Found is whether a one check returned a row.
	Found *bool `yaml:"found,omitempty"`

	// Error is the expected query error code.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type is one of sql_contains, statement_count or final_state.
	Type string `yaml:"type"`

	// Query is the catalog name (sql_contains, statement_count).
	Query string `yaml:"query,omitempty"`

	// Text must appear in one of the query's statements (sql_contains).
	Text string `yaml:"text,omitempty"`

	// Count is the expected number of statements (statement_count).
	Count int `yaml:"count,omitempty"`

	// Table, Where and Expect describe a row lookup (final_state).
	// Where matches exactly, Expect is a subset match.
	Table  string         `yaml:"table,omitempty"`
	Where  map[string]any `yaml:"where,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertSQLContains    = "sql_contains"
	AssertStatementCount = "statement_count"
	AssertFinalState     = "final_state"
)

var knownCodes = map[string]bool{
	string(queryir.CodeTypeMismatch):     true,
	string(queryir.CodeAliasConflict):    true,
	string(queryir.CodeUnboundFetchJoin): true,
	string(queryir.CodeUnboundAlias):     true,
	string(queryir.CodeInvalidQuery):     true,
	string(queryir.CodeNonUniqueResult):  true,
	string(queryir.CodeTranslation):      true,
	string(queryir.CodeExecution):        true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a scenario strictly and validates it.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file of dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, s)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Checks) == 0 {
		return fmt.Errorf("checks list is required and must be non-empty")
	}

	for i, step := range s.Seed {
		if step.Entity == "" {
			return fmt.Errorf("seed[%d]: entity is required", i)
		}
		if len(step.Values) == 0 {
			return fmt.Errorf("seed[%d]: values are required", i)
		}
	}

	queries := make(map[string]bool, len(s.Checks))
	for i, c := range s.Checks {
		if err := validateCheck(c); err != nil {
			return fmt.Errorf("checks[%d]: %w", i, err)
		}
		queries[c.Query] = true
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a, queries); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateCheck(c Check) error {
	if c.Query == "" {
		return fmt.Errorf("query is required")
	}
	if _, ok := fixture.Lookup(c.Query); !ok {
		return fmt.Errorf("unknown query %q", c.Query)
	}

	mode := c.Fetch
	switch mode {
	case "", FetchRows, FetchCount, FetchOne:
	default:
		return fmt.Errorf("unknown fetch mode %q", mode)
	}

	e := c.Expect
	if e == nil {
		return nil
	}
	if e.Error != "" && !knownCodes[e.Error] {
		return fmt.Errorf("unknown error code %q", e.Error)
	}
	if e.Count != nil && mode != FetchCount {
		return fmt.Errorf("count is only valid with fetch: count")
	}
	if e.Found != nil && mode != FetchOne {
		return fmt.Errorf("found is only valid with fetch: one")
	}
	if e.Rows != nil && mode == FetchCount {
		return fmt.Errorf("rows are not valid with fetch: count")
	}
	return nil
}

func validateAssertion(a Assertion, queries map[string]bool) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertSQLContains, AssertStatementCount:
		if a.Query == "" {
			return fmt.Errorf("query is required for %s", a.Type)
		}
		if !queries[a.Query] {
			return fmt.Errorf("query %q is not run by any check", a.Query)
		}
		if a.Type == AssertSQLContains && a.Text == "" {
			return fmt.Errorf("text is required for sql_contains")
		}
		if a.Count < 0 {
			return fmt.Errorf("count must be non-negative for statement_count")
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("table is required for final_state")
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("expect is required for final_state")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
