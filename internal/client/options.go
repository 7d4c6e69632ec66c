package client

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/roach88/sparqlc/internal/ir"
)

// Recorder receives one Exchange per request, successful or not.
// The store package's journal implements it.
type Recorder interface {
	Record(ctx context.Context, ex ir.Exchange) error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
// Timeouts and transport settings belong here. Default: http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger. Query text is logged at Debug and failures
// at Warn. Default: logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrefixes sets the initial prefix map. The map is used as is, not
// copied.
func WithPrefixes(m *ir.OrderedMap) Option {
	return func(c *Client) {
		if m != nil {
			c.prefixes = m
		}
	}
}

// WithRequestIDs sets the request ID generator. Default: UUIDv7Generator.
func WithRequestIDs(gen RequestIDGenerator) Option {
	return func(c *Client) {
		if gen != nil {
			c.ids = gen
		}
	}
}

// WithRecorder sets a recorder that receives every exchange.
// Recording failures are logged and never fail the query.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}
