package memendpoint

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"

	"github.com/roach88/sparqlc/internal/ir"
)

// maxBodyBytes bounds a request body.
const maxBodyBytes = 1 << 20

// updateVar is the variable of the summary row returned for updates.
const updateVar = "callret-0"

// Request is one request as received by the endpoint.
type Request struct {
	Method      string
	Query       string
	ContentType string
	Accept      string
	UserAgent   string
	RequestID   string
}

type failure struct {
	status int
	body   string
}

// Endpoint is an in-memory SPARQL endpoint. It implements http.Handler and
// is safe for concurrent use.
type Endpoint struct {
	mu       sync.Mutex
	graphs   map[string]*graph
	order    []string
	requests []Request
	failures []failure
	logger   *slog.Logger
}

// Option configures an Endpoint.
type Option func(*Endpoint)

// WithLogger sets the logger. Requests are logged at Debug.
// Default: logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Endpoint) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an empty endpoint.
func New(opts ...Option) *Endpoint {
	e := &Endpoint{
		graphs: make(map[string]*graph),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewServer starts an HTTP test server backed by e. The caller closes it.
func NewServer(e *Endpoint) *httptest.Server {
	return httptest.NewServer(e)
}

// Transport returns a RoundTripper that serves requests in process, so a
// client can talk to the endpoint without a listener.
func (e *Endpoint) Transport() http.RoundTripper {
	return roundTripper{e: e}
}

type roundTripper struct {
	e *Endpoint
}

func (rt roundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if err := r.Context().Err(); err != nil {
		return nil, err
	}
	if r.Body != nil {
		defer r.Body.Close()
	}
	rec := httptest.NewRecorder()
	rt.e.ServeHTTP(rec, r.Clone(r.Context()))
	resp := rec.Result()
	resp.Request = r
	return resp, nil
}

// Insert adds triples to a graph, creating it if needed.
func (e *Endpoint) Insert(graphIRI string, triples ...Triple) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g := e.graphLocked(graphIRI)
	for _, t := range triples {
		g.add(t)
	}
}

// Triples returns a copy of a graph's triples in insertion order.
func (e *Endpoint) Triples(graphIRI string) []Triple {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, ok := e.graphs[graphIRI]
	if !ok {
		return nil
	}
	return slices.Clone(g.triples)
}

// Graphs returns graph IRIs in creation order.
func (e *Endpoint) Graphs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.order)
}

// Requests returns the requests received so far.
func (e *Endpoint) Requests() []Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.requests)
}

// FailNext makes the next request answer status with body, without
// evaluating it. Calls queue up.
func (e *Endpoint) FailNext(status int, body string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures = append(e.failures, failure{status: status, body: body})
}

// Reset drops all graphs, recorded requests and queued failures.
func (e *Endpoint) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.graphs = make(map[string]*graph)
	e.order = nil
	e.requests = nil
	e.failures = nil
}

// ServeHTTP answers SPARQL protocol requests: GET with a query parameter,
// or a form POST with a query or update field.
func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var text string
	switch r.Method {
	case http.MethodGet:
		text = r.URL.Query().Get("query")
	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "malformed form body: "+err.Error(), http.StatusBadRequest)
			return
		}
		text = r.PostForm.Get("query")
		if text == "" {
			text = r.PostForm.Get("update")
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.requests = append(e.requests, Request{
		Method:      r.Method,
		Query:       text,
		ContentType: r.Header.Get("Content-Type"),
		Accept:      r.Header.Get("Accept"),
		UserAgent:   r.Header.Get("User-Agent"),
		RequestID:   r.Header.Get("X-Request-Id"),
	})
	e.logger.Debug("memendpoint request", "method", r.Method, "query", text)

	if len(e.failures) > 0 {
		f := e.failures[0]
		e.failures = e.failures[1:]
		http.Error(w, f.body, f.status)
		return
	}

	if text == "" {
		http.Error(w, "missing query", http.StatusBadRequest)
		return
	}

	op, err := parse(text)
	if err != nil {
		e.logger.Debug("memendpoint parse failed", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rs := e.execLocked(op)
	body, err := json.Marshal(rs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ir.ResultsMediaType)
	_, _ = w.Write(body)
}

func (e *Endpoint) graphLocked(iri string) *graph {
	g, ok := e.graphs[iri]
	if !ok {
		g = newGraph()
		e.graphs[iri] = g
		e.order = append(e.order, iri)
	}
	return g
}

// datasetLocked returns the triples a read sees: one graph, or the union
// of all graphs in creation order.
func (e *Endpoint) datasetLocked(from string) []Triple {
	if from != "" {
		if g, ok := e.graphs[from]; ok {
			return g.triples
		}
		return nil
	}
	var all []Triple
	seen := make(map[Triple]bool)
	for _, iri := range e.order {
		for _, t := range e.graphs[iri].triples {
			if !seen[t] {
				seen[t] = true
				all = append(all, t)
			}
		}
	}
	return all
}

func (e *Endpoint) execLocked(op operation) *ir.ResultSet {
	switch op := op.(type) {
	case selectQuery:
		return e.execSelect(op)
	case askQuery:
		sols := evalGroup(e.datasetLocked(op.From), op.Where, []solution{{}})
		b := len(sols) > 0
		return &ir.ResultSet{Boolean: &b}
	case modifyOp:
		return e.execModify(op)
	case insertOp:
		g := e.graphLocked(op.Graph)
		n := 0
		for _, t := range instantiate(op.Triples, solution{}) {
			if g.add(t) {
				n++
			}
		}
		return updateResult(fmt.Sprintf("Insert into <%s>, %d (or less) triples -- done", op.Graph, n))
	default:
		panic(fmt.Sprintf("memendpoint: unhandled operation %T", op))
	}
}

func (e *Endpoint) execSelect(q selectQuery) *ir.ResultSet {
	vars := q.Vars
	if vars == nil {
		vars = q.Where.vars()
	}

	rs := &ir.ResultSet{Vars: vars, Bindings: []ir.Binding{}}
	seen := make(map[string]bool)
	for _, sol := range evalGroup(e.datasetLocked(q.From), q.Where, []solution{{}}) {
		if q.Limit >= 0 && len(rs.Bindings) >= q.Limit {
			break
		}
		if q.Distinct {
			key := solutionKey(vars, sol)
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		row := make(ir.Binding, len(vars))
		for _, v := range vars {
			if t, ok := sol[v]; ok {
				row[v] = t
			}
		}
		rs.Bindings = append(rs.Bindings, row)
	}
	return rs
}

// execModify evaluates the WHERE group once, then deletes every
// instantiated delete triple before inserting the insert triples.
func (e *Endpoint) execModify(op modifyOp) *ir.ResultSet {
	g := e.graphLocked(op.Graph)

	sols := evalGroup(g.triples, op.Where, []solution{{}})
	var del, ins []Triple
	for _, sol := range sols {
		del = append(del, instantiate(op.Delete, sol)...)
		ins = append(ins, instantiate(op.Insert, sol)...)
	}

	deleted, inserted := 0, 0
	for _, t := range del {
		if g.remove(t) {
			deleted++
		}
	}
	for _, t := range ins {
		if g.add(t) {
			inserted++
		}
	}
	return updateResult(fmt.Sprintf("%s <%s>, delete %d and insert %d triples -- done",
		op.Keyword, op.Graph, deleted, inserted))
}

func updateResult(msg string) *ir.ResultSet {
	return &ir.ResultSet{
		Vars:     []string{updateVar},
		Bindings: []ir.Binding{{updateVar: ir.PlainLiteral(msg)}},
	}
}
