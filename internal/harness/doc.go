// Package harness runs conformance scenarios against the query DSL.
//
// A scenario seeds a fresh store with the fixture data, runs named queries
// from the fixture catalog and checks their results, the statements they
// dispatched and the final table contents.
//
// # Scenario Format
//
//	name: team_aggregates
//	description: "Grouping, aggregates and scalar subqueries"
//	seed:
//	  - entity: Member
//	    values: { id: 5, username: member5, age: 50 }
//	checks:
//	  - query: team_average_age
//	    expect:
//	      rows: [[teamA, 15], [teamB, 35]]
//	  - query: member_count
//	    fetch: count
//	    expect:
//	      count: 5
//	assertions:
//	  - type: sql_contains
//	    query: team_average_age
//	    text: "GROUP BY team.name"
//	  - type: final_state
//	    table: member
//	    where: { id: 5 }
//	    expect: { age: 50 }
//
// Seed rows are written after the fixture records. A check fetches rows by
// default; "count" runs the count query and "one" expects at most one row.
// An expected error is a query error code such as NON_UNIQUE_RESULT.
//
// # Assertion Types
//
//   - sql_contains: a statement dispatched by the query contains the text
//   - statement_count: the query dispatched exactly count statements
//   - final_state: a table row matching where holds the expected values
//
// # Deterministic Testing
//
// Every scenario runs against its own in-memory SQLite database with
// sequential execution ids, so traces are identical across runs and can be
// compared against golden files with RunWithGolden.
package harness
