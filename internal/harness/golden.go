package harness

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/Chasungsoo/querydsl/internal/ir"
)

// TraceSnapshot captures the trace of a scenario for golden comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario"`
	Trace        []TraceEvent `json:"checks"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization. Error messages are left out; the code identifies the
// failure.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	checks := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		statements := make([]any, len(ev.Statements))
		for j, st := range ev.Statements {
			params := make([]any, len(st.Params))
			for k, p := range st.Params {
				params[k] = canonicalValue(p)
			}
			statements[j] = map[string]any{"sql": st.SQL, "params": params}
		}

		m := map[string]any{
			"seq":        ev.Seq,
			"query":      ev.Query,
			"statements": statements,
		}
		if ev.Fetch != FetchRows {
			m["fetch"] = ev.Fetch
		}
		if ev.Rows != nil {
			rows := make([]any, len(ev.Rows))
			for j, r := range ev.Rows {
				row := make([]any, len(r))
				for k, v := range r {
					row[k] = canonicalValue(v)
				}
				rows[j] = row
			}
			m["rows"] = rows
		}
		if ev.Count != nil {
			m["count"] = *ev.Count
		}
		if ev.Found != nil {
			m["found"] = *ev.Found
		}
		if ev.Error != "" {
			m["error"] = ev.Error
		}
		checks[i] = m
	}

	return map[string]any{
		"scenario": s.ScenarioName,
		"checks":   checks,
	}
}

// canonicalValue maps fetched values onto the types MarshalCanonical
// accepts.
func canonicalValue(v any) any {
	switch x := v.(type) {
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	case []byte:
		return string(x)
	case time.Time:
		return x
	case fmt.Stringer:
		return x.String()
	}
	return v
}

// Snapshot renders the result's trace as canonical JSON.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{ScenarioName: scenarioName, Trace: result.Trace}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
