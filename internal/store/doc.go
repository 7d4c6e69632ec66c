// Package store provides the SQLite-backed query journal.
//
// The journal is append-only: one row per request the client issues, with
// the final query text (prefixes included), the HTTP status, the number of
// result rows and the error, if any. It answers "what did we send and what
// came back" after the fact; it is never read on the query path.
//
// # Ordering
//
// All reads order by seq (the logical clock), NEVER by timestamps, so
// history output is stable.
//
// # Idempotency
//
// request_id is UNIQUE and inserts use ON CONFLICT DO NOTHING, so
// recording the same exchange twice is a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - user_version: journal format; newer formats are refused
package store
