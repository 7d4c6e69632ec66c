// Package ir provides the data model shared by every sparqlc package.
//
// This package contains type definitions and their codecs only. All other
// internal packages import ir; ir imports nothing internal. This keeps the
// model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Terms are immutable once parsed; the zero Term marks an unbound cell
//   - Absent is not null: a Binding holds a variable only when it was bound
//   - Ordered maps (prefixes, mset attributes) iterate in insertion order
//   - NO float scalars in mutation values - use Raw for decimal literals
//   - JSON written to golden traces goes through MarshalCanonical
package ir
