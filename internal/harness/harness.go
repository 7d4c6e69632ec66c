package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/roach88/sparqlc/internal/client"
	"github.com/roach88/sparqlc/internal/ir"
	"github.com/roach88/sparqlc/internal/memendpoint"
	"github.com/roach88/sparqlc/internal/store"
)

// memoryEndpointURL is the client endpoint used for in-memory runs. No
// request leaves the process.
const memoryEndpointURL = "http://memory.invalid/sparql"

// Option configures a run.
type Option func(*runConfig)

type runConfig struct {
	endpoint string
	inMemory bool
	http     *http.Client
	logger   *slog.Logger
}

// WithEndpoint sets the endpoint for scenarios that do not name one.
func WithEndpoint(endpoint string) Option {
	return func(c *runConfig) { c.endpoint = endpoint }
}

// WithInMemory forces every scenario onto a fresh in-memory endpoint.
func WithInMemory() Option {
	return func(c *runConfig) { c.inMemory = true }
}

// WithHTTPClient sets the HTTP client for live endpoints.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *runConfig) { c.http = hc }
}

// WithLogger sets the logger. Default: logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Harness executes one scenario.
type Harness struct {
	client  *client.Client
	journal *store.Store
	rec     *traceRecorder
	logger  *slog.Logger
}

// traceRecorder journals every exchange and remembers the last one, so a
// step can be matched to the request it caused.
type traceRecorder struct {
	journal *store.Store
	last    *ir.Exchange
}

func (r *traceRecorder) Record(ctx context.Context, ex ir.Exchange) error {
	r.last = &ex
	return r.journal.Record(ctx, ex)
}

// Run executes a scenario and returns the result.
//
// Each scenario runs with a fresh in-memory journal and sequential request
// IDs, and, unless it names an endpoint, a fresh in-memory endpoint.
//
// Execution flow:
// 1. Set up journal, endpoint and client
// 2. Execute setup steps (any failure aborts the run)
// 3. Execute flow steps, checking expectations
// 4. Evaluate assertions against the journal
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	journal, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer journal.Close()

	endpoint, hc := scenario.Endpoint, cfg.http
	if endpoint == "" {
		endpoint = cfg.endpoint
	}
	if cfg.inMemory || endpoint == "" {
		mem := memendpoint.New(memendpoint.WithLogger(cfg.logger))
		endpoint = memoryEndpointURL
		hc = &http.Client{Transport: mem.Transport()}
	}

	prefix := scenario.RequestIDPrefix
	if prefix == "" {
		prefix = "req"
	}

	rec := &traceRecorder{journal: journal}
	c, err := client.New(endpoint,
		client.WithHTTPClient(hc),
		client.WithLogger(cfg.logger),
		client.WithRequestIDs(client.NewSequenceGenerator(prefix)),
		client.WithRecorder(rec),
		client.WithPrefixes(scenario.Prefixes.Clone()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	h := &Harness{
		client:  c,
		journal: journal,
		rec:     rec,
		logger:  cfg.logger.With("scenario", scenario.Name),
	}

	result := NewResult()
	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	entries, err := journal.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	actx := &AssertionContext{Ctx: ctx, Client: c, Journal: entries}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// executeSetup runs setup steps. Any failure is fatal.
func (h *Harness) executeSetup(ctx context.Context, setup []Step, result *Result) error {
	for i, step := range setup {
		name := fmt.Sprintf("setup[%d]", i)
		ev, err := h.executeStep(ctx, name, step)
		result.AddTrace(ev)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		h.logger.Info("setup step completed", "step", i, "op", ev.Op, "request_id", ev.RequestID)
	}
	return nil
}

// executeFlow runs flow steps and checks each step's expectation. Step
// failures are recorded on the result, not returned.
func (h *Harness) executeFlow(ctx context.Context, flow []Step, result *Result) error {
	for i, step := range flow {
		name := fmt.Sprintf("flow[%d]", i)
		ev, stepErr := h.executeStep(ctx, name, step)
		result.AddTrace(ev)

		if err := checkExpect(step.Expect, ev, stepErr); err != nil {
			result.AddError(fmt.Sprintf("%s: %v", name, err))
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		h.logger.Info("flow step completed",
			"step", i,
			"op", ev.Op,
			"request_id", ev.RequestID,
			"outcome", ev.Outcome,
		)
	}
	return nil
}

// executeStep runs one step and builds its trace event.
func (h *Harness) executeStep(ctx context.Context, name string, step Step) (TraceEvent, error) {
	h.rec.last = nil

	value, err := h.runStep(ctx, step)

	ev := TraceEvent{Step: name, Op: step.Op(), Outcome: "ok", Value: value}
	if err != nil {
		ev.Value = nil
		ev.Outcome = errorCode(err)
	}
	if ex := h.rec.last; ex != nil {
		ev.RequestID = ex.RequestID
		ev.Query = ex.Query
		ev.Status = ex.StatusCode
		entry, found, jerr := h.journal.Get(ctx, ex.RequestID)
		if jerr != nil {
			return ev, fmt.Errorf("read journal: %w", jerr)
		}
		if found {
			ev.Seq = entry.Seq
		}
	}
	return ev, err
}

func (h *Harness) runStep(ctx context.Context, step Step) (any, error) {
	switch {
	case step.Query != nil:
		return h.runQuery(ctx, *step.Query)
	case step.Set != nil:
		s := step.Set
		subj, err := ir.ToValueSpec(s.Subject)
		if err != nil {
			return nil, fmt.Errorf("subject: %w", err)
		}
		obj, err := ir.ToValueSpec(s.Object)
		if err != nil {
			return nil, fmt.Errorf("object: %w", err)
		}
		rs, err := h.client.Set(ctx, s.Graph, subj, s.Predicate, obj, s.Inverted)
		if err != nil {
			return nil, err
		}
		return plainRows(rs.Bindings), nil
	case step.MSet != nil:
		rs, err := h.client.MSet(ctx, step.MSet.Graph, step.MSet.Subject, step.MSet.Attributes)
		if err != nil {
			return nil, err
		}
		return plainRows(rs.Bindings), nil
	default:
		return nil, fmt.Errorf("empty step")
	}
}

func (h *Harness) runQuery(ctx context.Context, q QueryStep) (any, error) {
	switch q.Shape {
	case "", ShapeRows:
		rows, err := h.client.Rows(ctx, q.Text)
		if err != nil {
			return nil, err
		}
		return plainRows(rows), nil
	case ShapeCols:
		cols, err := h.client.Cols(ctx, q.Text)
		if err != nil {
			return nil, err
		}
		return plainCols(cols), nil
	case ShapeRow:
		row, err := h.client.Row(ctx, q.Text)
		if err != nil {
			return nil, err
		}
		return plainBinding(row), nil
	case ShapeCol:
		col, err := h.client.Col(ctx, q.Text)
		if err != nil {
			return nil, err
		}
		if col == nil {
			return nil, nil
		}
		return plainTerms(col), nil
	case ShapeCell:
		cell, err := h.client.Cell(ctx, q.Text)
		if err != nil || cell == nil {
			return nil, err
		}
		return plainTerm(*cell), nil
	case ShapeAsk:
		ok, err := h.client.Ask(ctx, q.Text)
		if err != nil {
			return nil, err
		}
		return fmt.Sprint(ok), nil
	default:
		return nil, fmt.Errorf("unknown shape %q", q.Shape)
	}
}

// errorCode maps a step error to its client error code. Errors raised by
// the harness itself, such as an unconvertible value, are "HARNESS".
func errorCode(err error) string {
	var ce *client.Error
	if errors.As(err, &ce) {
		return string(ce.Code)
	}
	return "HARNESS"
}

// checkExpect compares a step outcome with its expectation. Without an
// expectation the step must succeed.
func checkExpect(exp *Expect, ev TraceEvent, stepErr error) error {
	if exp == nil || exp.Error == "" {
		if stepErr != nil {
			return fmt.Errorf("unexpected error: %v", stepErr)
		}
	}
	if exp == nil {
		return nil
	}

	if exp.Error != "" {
		if stepErr == nil {
			return fmt.Errorf("expected error %s, step succeeded", exp.Error)
		}
		if ev.Outcome != exp.Error {
			return fmt.Errorf("expected error %s, got %s: %v", exp.Error, ev.Outcome, stepErr)
		}
		return nil
	}

	if hasNode(exp.Value) {
		want, err := plainFromNode(exp.Value)
		if err != nil {
			return fmt.Errorf("expect.value: %w", err)
		}
		if !plainEqual(want, ev.Value) {
			return fmt.Errorf("expected value %s, got %s", describe(want), describe(ev.Value))
		}
	}
	if exp.Len != nil {
		if n := plainLen(ev.Value); n != *exp.Len {
			return fmt.Errorf("expected len %d, got %d", *exp.Len, n)
		}
	}
	return nil
}
