package ir

// Version constants for the client and the results format it speaks.
const (
	// ClientVersion is the sparqlc version, sent in the User-Agent header.
	ClientVersion = "0.1.0"

	// ResultsMediaType is the media type requested from SPARQL endpoints.
	ResultsMediaType = "application/sparql-results+json"
)
