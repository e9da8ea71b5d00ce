// Package engine executes query trees against an execution surface.
//
// The engine is the bridge between the builder and the backend: it takes a
// complete queryir.Query, checks it, renders it as SQL for the configured
// dialect and dispatches the statement. It returns raw rows together with
// the statement layout; turning rows into values is the caller's job.
//
// EXECUTION FLOW:
//
// 1. queryir.Validate rejects malformed trees before any SQL is produced
// 2. A query with limit 0 returns no rows without a round trip
// 3. The translator renders SQL and positional parameters
// 4. The surface executes the statement
// 5. Every row is checked against the statement width
//
// Each dispatch is stamped with an execution id and logged with the query
// fingerprint, so a log line can be matched to the tree that produced it.
//
// ERRORS:
//
// Errors are *queryir.QueryError values. Surface failures are reported as
// EXECUTION_FAILURE wrapping the surface error; nothing is retried.
//
// CONCURRENCY:
//
// An Engine holds no per-query state. It is safe for concurrent use when the
// surface is.
package engine
