// Package querysparql builds SPARQL query text.
//
// All string interpolation for the client happens here: the prefix
// preamble, SET and MULTI-SET update generation, and literal escaping. Every
// function is pure (no I/O), so each clause shape is covered by golden
// tests under testdata/golden.
//
// Graph, subject and predicate arguments are SPARQL term syntax and are
// inserted verbatim ("<urn:g>", "ex:alice"). Only ir.Literal scalars and
// MULTI-SET attribute values are quoted and escaped.
package querysparql
