// Package harness runs YAML scenarios against a SPARQL endpoint through the
// client and checks what happened.
//
// # Scenario Format
//
//	name: set_then_read
//	description: "Replacing a value and reading it back"
//	prefixes:
//	  ex: "urn:ex:"
//	setup:
//	  - mset: { graph: "<urn:g>", subject: "ex:alice", attributes: { "ex:name": Alice } }
//	flow:
//	  - set: { graph: "<urn:g>", subject: "ex:alice", predicate: "ex:age", object: 30 }
//	  - query: { text: "select ?age where { ex:alice ex:age ?age }", shape: cell }
//	    expect: { value: "30" }
//	  - query: { text: "select broken" }
//	    expect: { error: HTTP_STATUS }
//	assertions:
//	  - type: request_count
//	    count: 4
//	  - type: request_order
//	    sequence: ["INSERT INTO", "MODIFY", "select ?age"]
//	  - type: final_state
//	    query: "select ?age where { ex:alice ex:age ?age }"
//	    expect: [{ age: "30" }]
//
// Steps are one of query, set or mset. A query step reshapes its result with
// shape: rows (default), cols, row, col, cell or ask. Expected values compare
// term values as strings and unbound cells as null.
//
// # Assertion Types
//
//   - request_contains: some request's query text contains a substring
//   - request_order: substrings match requests in this order
//   - request_count: number of requests, optionally only those containing a
//     substring or with a given outcome
//   - final_state: run a query after the flow and compare its rows
//
// # Deterministic Runs
//
// Every run uses sequential request IDs and records each exchange in a fresh
// in-memory journal, so traces are identical across runs and can be compared
// with golden files. Scenarios without an endpoint run against a fresh
// in-memory endpoint.
package harness
