package querysparql

import (
	"strings"
	"unicode/utf16"

	"github.com/roach88/sparqlc/internal/ir"
)

// ComposePrefixes builds the prefix preamble for m in insertion order:
//
//	prefix foaf: <http://xmlns.com/foaf/0.1/> prefix dc: <http://purl.org/dc/terms/>
//
// A nil or empty map yields "".
func ComposePrefixes(m *ir.OrderedMap) string {
	if m.Len() == 0 {
		return ""
	}
	parts := make([]string, 0, m.Len())
	for name, iri := range m.All() {
		parts = append(parts, "prefix "+name+": <"+iri+">")
	}
	return strings.Join(parts, " ")
}

// HasPrefixes reports whether query appears to declare prefixes already.
//
// This is a heuristic, not a parser: the first case-insensitive "prefix"
// must start at an index strictly between 0 and 10. A query that starts
// with PREFIX at offset 0 is NOT considered prefixed. The offset counts
// UTF-16 code units, so non-ASCII text before the keyword counts once per
// character.
func HasPrefixes(query string) bool {
	lower := strings.ToLower(query)
	idx := strings.Index(lower, "prefix")
	if idx < 0 {
		return false
	}
	units := utf16Len(lower[:idx])
	return 0 < units && units < 10
}

// utf16Len counts the UTF-16 code units needed to encode s.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// EnsurePrefixes prepends the composed preamble for m to query, unless the
// preamble is empty or the query already has prefixes.
func EnsurePrefixes(query string, m *ir.OrderedMap) string {
	composed := ComposePrefixes(m)
	if composed == "" || HasPrefixes(query) {
		return query
	}
	return composed + " " + query
}
