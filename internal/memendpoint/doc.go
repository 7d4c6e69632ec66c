// Package memendpoint is an in-memory SPARQL endpoint for tests and offline
// scenario runs.
//
// It understands the query shapes the client emits plus simple reads:
//
//	PREFIX name: <iri> ...                       (preamble, any case)
//	MODIFY g DELETE { .. } INSERT { .. } WHERE { .. }
//	DELETE FROM g { .. } WHERE { .. }
//	INSERT INTO g { s p o ; p o , o . }
//	SELECT [DISTINCT] ?v.. | * [FROM g] [WHERE] { .. } [LIMIT n]
//	ASK [FROM g] [WHERE] { .. }
//
// Group patterns are basic graph patterns plus OPTIONAL groups. There are no
// FILTERs, property paths, unions or aggregates. A query without FROM reads
// the union of all graphs.
//
// Responses use the SPARQL 1.1 results JSON format. Updates answer with a
// one-row result whose callret-0 literal summarizes the change, the way
// Virtuoso does. Parse errors answer 400 with a text body.
package memendpoint
