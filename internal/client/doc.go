// Package client talks to a SPARQL endpoint over HTTP.
//
// A Client owns an endpoint URL and a prefix map. Every operation issues
// exactly one POST and yields exactly one outcome: a parsed result set or an
// error. There are no retries, no sessions and no transactions; timeouts
// and connection management belong to the injected *http.Client.
//
// Request shape:
//
//	POST <endpoint>
//	Content-Type: application/x-www-form-urlencoded
//	Accept: application/sparql-results+json
//	X-Request-Id: <uuidv7>
//
//	query=<url-encoded query text>
//
// Failures are *Error values carrying a Code (TRANSPORT, HTTP_STATUS,
// MALFORMED_RESPONSE, INVALID_MUTATION). Use IsTransportError,
// IsStatusError and IsMalformedResponse to classify them.
//
// The prefix map is read on every query and is not synchronized. Mutating
// it while queries are in flight is the caller's responsibility.
package client
