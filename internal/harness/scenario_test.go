package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/paging_and_nulls.yaml")
	require.NoError(t, err)

	assert.Equal(t, "paging_and_nulls", s.Name)
	require.Len(t, s.Seed, 1)
	assert.Equal(t, "Member", s.Seed[0].Entity)
	assert.Equal(t, 5, s.Seed[0].Values["id"])

	require.Len(t, s.Checks, 6)
	assert.Equal(t, FetchCount, s.Checks[1].Fetch)
	require.NotNil(t, s.Checks[1].Expect.Count)
	assert.Equal(t, int64(5), *s.Checks[1].Expect.Count)
	assert.Equal(t, []any{nil}, s.Checks[2].Expect.Rows[4])
	assert.Equal(t, "NON_UNIQUE_RESULT", s.Checks[5].Expect.Error)

	require.Len(t, s.Assertions, 3)
	assert.Equal(t, AssertFinalState, s.Assertions[2].Type)
}

func TestLoadScenario_UnknownField(t *testing.T) {
	_, err := LoadScenario("testdata/invalid/unknown_field.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "asertions")
}

func TestLoadScenario_Missing(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/missing.yaml")
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestLoadScenarios(t *testing.T) {
	all, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"joins", "paging_and_nulls", "team_aggregates"}, names)
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no name", `
description: d
checks: [{query: member_count}]`, "name is required"},
		{"no description", `
name: n
checks: [{query: member_count}]`, "description is required"},
		{"no checks", `
name: n
description: d`, "checks list is required"},
		{"unknown query", `
name: n
description: d
checks: [{query: nope}]`, `unknown query "nope"`},
		{"unknown fetch", `
name: n
description: d
checks: [{query: member_count, fetch: all}]`, `unknown fetch mode "all"`},
		{"count without count fetch", `
name: n
description: d
checks: [{query: member_count, expect: {count: 1}}]`, "count is only valid with fetch: count"},
		{"found without one fetch", `
name: n
description: d
checks: [{query: member_count, expect: {found: true}}]`, "found is only valid with fetch: one"},
		{"rows with count fetch", `
name: n
description: d
checks: [{query: member_count, fetch: count, expect: {rows: [[1]]}}]`, "rows are not valid"},
		{"unknown error code", `
name: n
description: d
checks: [{query: member_count, expect: {error: BOOM}}]`, `unknown error code "BOOM"`},
		{"seed without entity", `
name: n
description: d
seed: [{values: {id: 1}}]
checks: [{query: member_count}]`, "seed[0]: entity is required"},
		{"seed without values", `
name: n
description: d
seed: [{entity: Team}]
checks: [{query: member_count}]`, "seed[0]: values are required"},
		{"assertion without type", `
name: n
description: d
checks: [{query: member_count}]
assertions: [{query: member_count}]`, "type is required"},
		{"assertion on query not run", `
name: n
description: d
checks: [{query: member_count}]
assertions: [{type: statement_count, query: theta_join, count: 1}]`, `query "theta_join" is not run by any check`},
		{"sql_contains without text", `
name: n
description: d
checks: [{query: member_count}]
assertions: [{type: sql_contains, query: member_count}]`, "text is required"},
		{"final_state without table", `
name: n
description: d
checks: [{query: member_count}]
assertions: [{type: final_state, expect: {id: 1}}]`, "table is required"},
		{"final_state without expect", `
name: n
description: d
checks: [{query: member_count}]
assertions: [{type: final_state, table: member}]`, "expect is required"},
		{"unknown assertion", `
name: n
description: d
checks: [{query: member_count}]
assertions: [{type: trace_order}]`, `unknown assertion type "trace_order"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
