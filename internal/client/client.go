package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/roach88/sparqlc/internal/ir"
	"github.com/roach88/sparqlc/internal/queryir"
	"github.com/roach88/sparqlc/internal/querysparql"
	"github.com/roach88/sparqlc/internal/reshape"
)

// ErrInvalidEndpoint is returned by New for an unusable endpoint URL.
var ErrInvalidEndpoint = errors.New("invalid endpoint")

// RequestIDHeader carries the request ID on every request.
const RequestIDHeader = "X-Request-Id"

// Client issues queries against one SPARQL endpoint.
//
// Client methods are safe for concurrent use as long as the prefix map is
// not mutated concurrently.
type Client struct {
	endpoint string
	prefixes *ir.OrderedMap
	http     *http.Client
	logger   *slog.Logger
	ids      RequestIDGenerator
	recorder Recorder
	compiler *querysparql.Compiler
}

// New creates a Client for endpoint, which must be an absolute http or
// https URL.
func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidEndpoint, endpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w %q: want an absolute http(s) URL", ErrInvalidEndpoint, endpoint)
	}

	c := &Client{
		endpoint: endpoint,
		prefixes: ir.NewOrderedMap(),
		http:     http.DefaultClient,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		ids:      UUIDv7Generator{},
		compiler: querysparql.NewCompiler(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Prefixes returns the live prefix map. Changes are visible to later
// queries.
func (c *Client) Prefixes() *ir.OrderedMap {
	return c.prefixes
}

// SetPrefixes replaces the prefix map. A nil map clears it.
func (c *Client) SetPrefixes(m *ir.OrderedMap) {
	if m == nil {
		m = ir.NewOrderedMap()
	}
	c.prefixes = m
}

// Query prepends the prefix preamble when needed, POSTs the query and
// parses the results document.
//
// Any non-200 response, transport failure or unparseable body is returned
// as *Error. An empty result set is not an error.
func (c *Client) Query(ctx context.Context, text string) (*ir.ResultSet, error) {
	query := querysparql.EnsurePrefixes(text, c.prefixes)
	requestID := c.ids.Generate()
	log := c.logger.With("request_id", requestID, "endpoint", c.endpoint)

	log.Debug("sparql query", "query", query)

	rs, statusCode, err := c.do(ctx, requestID, query)

	ex := ir.Exchange{
		RequestID:  requestID,
		Endpoint:   c.endpoint,
		Query:      query,
		StatusCode: statusCode,
		Bindings:   rs.Len(),
		Err:        err,
	}
	c.record(ctx, log, ex)

	if err != nil {
		log.Warn("sparql query failed", "status", statusCode, "error", err)
		return nil, err
	}
	log.Debug("sparql query done", "status", statusCode, "bindings", rs.Len())
	return rs, nil
}

func (c *Client) do(ctx context.Context, requestID, query string) (*ir.ResultSet, int, error) {
	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, newTransportError(requestID, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", ir.ResultsMediaType)
	req.Header.Set("User-Agent", "sparqlc/"+ir.ClientVersion)
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, newTransportError(requestID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		e := newTransportError(requestID, fmt.Errorf("read response body: %w", err))
		e.StatusCode = resp.StatusCode
		e.Status = resp.Status
		return nil, resp.StatusCode, e
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, newStatusError(requestID, resp.StatusCode, resp.Status, body)
	}

	rs, err := ir.ParseResults(body)
	if err != nil {
		return nil, resp.StatusCode, newMalformedError(requestID, resp.StatusCode, body, err)
	}
	return rs, resp.StatusCode, nil
}

func (c *Client) record(ctx context.Context, log *slog.Logger, ex ir.Exchange) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(ctx, ex); err != nil {
		log.Warn("recording exchange failed", "error", err)
	}
}

// Rows runs the query and returns its bindings.
func (c *Client) Rows(ctx context.Context, text string) ([]ir.Binding, error) {
	rs, err := c.Query(ctx, text)
	if err != nil {
		return nil, err
	}
	return reshape.Rows(rs), nil
}

// Cols runs the query and returns one column per declared variable.
func (c *Client) Cols(ctx context.Context, text string) (map[string][]ir.Term, error) {
	rs, err := c.Query(ctx, text)
	if err != nil {
		return nil, err
	}
	return reshape.Cols(rs), nil
}

// Row runs the query and returns the first binding, or nil.
func (c *Client) Row(ctx context.Context, text string) (ir.Binding, error) {
	rs, err := c.Query(ctx, text)
	if err != nil {
		return nil, err
	}
	return reshape.Row(rs), nil
}

// Col runs the query and returns the representative column.
func (c *Client) Col(ctx context.Context, text string) ([]ir.Term, error) {
	rs, err := c.Query(ctx, text)
	if err != nil {
		return nil, err
	}
	return reshape.Col(rs), nil
}

// Cell runs the query and returns the first value, or nil.
func (c *Client) Cell(ctx context.Context, text string) (*ir.Term, error) {
	rs, err := c.Query(ctx, text)
	if err != nil {
		return nil, err
	}
	return reshape.Cell(rs), nil
}

// Ask runs an ASK query and returns its boolean.
func (c *Client) Ask(ctx context.Context, text string) (bool, error) {
	rs, err := c.Query(ctx, text)
	if err != nil {
		return false, err
	}
	if !rs.IsBoolean() {
		return false, &Error{
			Code:       ErrCodeMalformedResponse,
			Message:    "response is not an ASK result",
			StatusCode: http.StatusOK,
		}
	}
	return *rs.Boolean, nil
}

// Set replaces the values of predicate p on one node and returns the
// endpoint's response. A nil or empty value side clears the predicate.
// When inverted, o is the node and s holds the values.
func (c *Client) Set(ctx context.Context, graph string, s ir.ValueSpec, p string, o ir.ValueSpec, inverted bool) (*ir.ResultSet, error) {
	return c.Apply(ctx, queryir.Set{
		Graph:     graph,
		Subject:   s,
		Predicate: p,
		Object:    o,
		Inverted:  inverted,
	})
}

// MSet inserts every predicate/literal pair of attrs on subject s.
func (c *Client) MSet(ctx context.Context, graph, s string, attrs *ir.OrderedMap) (*ir.ResultSet, error) {
	return c.Apply(ctx, queryir.MultiSet{
		Graph:      graph,
		Subject:    s,
		Attributes: attrs,
	})
}

// Apply compiles a mutation and executes it. A mutation that fails
// validation returns an INVALID_MUTATION *Error without any request.
func (c *Client) Apply(ctx context.Context, m queryir.Mutation) (*ir.ResultSet, error) {
	query, err := c.compiler.Compile(m)
	if err != nil {
		return nil, newInvalidMutationError(err)
	}
	return c.Query(ctx, query)
}
