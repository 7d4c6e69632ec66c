// Package queryir provides the intermediate representation for SPARQL
// update mutations issued by the client.
//
// A Mutation describes what should change in a named graph, independent of
// the query text that performs the change. The querysparql package compiles
// mutations into SPARQL Update strings.
//
//	[caller / CLI plan / scenario] → [Mutation] → [querysparql] → query text
//
// SEALED INTERFACE:
//
// Mutation is sealed using the marker method pattern. Only types in this
// package implement it, so compilers can switch exhaustively:
//
//	switch m := mutation.(type) {
//	case Set:
//	    // single-predicate replace-or-clear
//	case MultiSet:
//	    // multi-attribute insert
//	}
//
// MUTATION SHAPES:
//
//	Mutation   SPARQL
//	--------   ------
//	Set        MODIFY <g> DELETE {..} INSERT {..} WHERE { OPTIONAL {..} }
//	Set (nil)  DELETE FROM <g> {..} WHERE {..}
//	MultiSet   INSERT INTO <g> { s p1 'v1' ; p2 'v2' . }
//
// Values use ir.Scalar types only (no floats), so generated text is
// deterministic.
package queryir
