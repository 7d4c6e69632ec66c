package harness

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/sparqlc/internal/ir"
	"github.com/roach88/sparqlc/internal/memendpoint"
)

func valueNode(t *testing.T, src string) yaml.Node {
	t.Helper()
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	require.Len(t, doc.Content, 1)
	return *doc.Content[0]
}

func intPtr(n int) *int { return &n }

const cellQuery = "select ?x where { <urn:s> <urn:p> ?x }"

func TestRun_MinimalScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "minimal",
		Description: "Minimal test scenario",
		Flow: []Step{
			{Query: &QueryStep{Text: "select * where { ?s ?p ?o }"}},
		},
		Assertions: []Assertion{
			{Type: AssertRequestCount, Count: 1},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Trace, 1)
	ev := result.Trace[0]
	assert.Equal(t, "flow[0]", ev.Step)
	assert.Equal(t, "query", ev.Op)
	assert.Equal(t, "ok", ev.Outcome)
	assert.Equal(t, "req-1", ev.RequestID)
	assert.Equal(t, int64(1), ev.Seq)
	assert.Equal(t, http.StatusOK, ev.Status)
	assert.Equal(t, []any{}, ev.Value)
}

func TestRun_WithSetup(t *testing.T) {
	scenario := &Scenario{
		Name:            "with_setup",
		Description:     "Setup writes, flow reads",
		RequestIDPrefix: "s",
		Setup: []Step{
			{Set: &SetStep{Graph: "<urn:g>", Subject: "<urn:s>", Predicate: "<urn:p>", Object: []any{1, 2}}},
		},
		Flow: []Step{
			{
				Query:  &QueryStep{Text: cellQuery, Shape: ShapeCol},
				Expect: &Expect{Value: valueNode(t, `["1", 2]`), Len: intPtr(2)},
			},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 2)
	assert.Equal(t, "setup[0]", result.Trace[0].Step)
	assert.Equal(t, "s-1", result.Trace[0].RequestID)
	assert.Contains(t, result.Trace[0].Query, "MODIFY <urn:g>")
	assert.Equal(t, "flow[0]", result.Trace[1].Step)
	assert.Equal(t, "s-2", result.Trace[1].RequestID)
	assert.Equal(t, []any{"1", "2"}, result.Trace[1].Value)
}

func TestRun_SetupFailureAborts(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_setup",
		Description: "Setup query is rejected",
		Setup:       []Step{{Query: &QueryStep{Text: "not sparql"}}},
		Flow:        []Step{{Query: &QueryStep{Text: cellQuery}}},
	}

	_, err := Run(context.Background(), scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup[0]")
}

func TestRun_ExpectationFailures(t *testing.T) {
	tests := []struct {
		name    string
		step    Step
		wantErr string
	}{
		{
			name:    "unexpected error",
			step:    Step{Query: &QueryStep{Text: "not sparql"}},
			wantErr: "flow[0]: unexpected error",
		},
		{
			name:    "missing error",
			step:    Step{Query: &QueryStep{Text: cellQuery}, Expect: &Expect{Error: "HTTP_STATUS"}},
			wantErr: "expected error HTTP_STATUS, step succeeded",
		},
		{
			name:    "wrong error code",
			step:    Step{Query: &QueryStep{Text: "not sparql"}, Expect: &Expect{Error: "TRANSPORT"}},
			wantErr: "expected error TRANSPORT, got HTTP_STATUS",
		},
		{
			name:    "wrong value",
			step:    Step{Query: &QueryStep{Text: cellQuery, Shape: ShapeCell}, Expect: &Expect{Value: valueNode(t, `"7"`)}},
			wantErr: `expected value "7", got null`,
		},
		{
			name:    "wrong len",
			step:    Step{Query: &QueryStep{Text: cellQuery}, Expect: &Expect{Len: intPtr(1)}},
			wantErr: "expected len 1, got 0",
		},
		{
			name: "harness error",
			step: Step{
				Set:    &SetStep{Graph: "<urn:g>", Subject: "<urn:s>", Predicate: "<urn:p>", Object: 1.5},
				Expect: &Expect{Error: "INVALID_MUTATION"},
			},
			wantErr: "expected error INVALID_MUTATION, got HARNESS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario := &Scenario{Name: "x", Description: "d", Flow: []Step{tt.step}}
			result, err := Run(context.Background(), scenario)
			require.NoError(t, err)
			assert.False(t, result.Pass)
			require.Len(t, result.Errors, 1)
			assert.Contains(t, result.Errors[0], tt.wantErr)
		})
	}
}

func TestRun_ExpectedErrorPasses(t *testing.T) {
	scenario := &Scenario{
		Name:        "expected_errors",
		Description: "d",
		Flow: []Step{
			{Query: &QueryStep{Text: "not sparql"}, Expect: &Expect{Error: "HTTP_STATUS"}},
			{
				Set:    &SetStep{Graph: "<urn:g>", Subject: nil, Predicate: "<urn:p>", Object: 1},
				Expect: &Expect{Error: "INVALID_MUTATION"},
			},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 2)
	assert.Equal(t, "HTTP_STATUS", result.Trace[0].Outcome)
	assert.Equal(t, http.StatusBadRequest, result.Trace[0].Status)
	assert.Equal(t, "INVALID_MUTATION", result.Trace[1].Outcome)
	assert.Empty(t, result.Trace[1].RequestID, "invalid mutation sends no request")
	assert.Zero(t, result.Trace[1].Seq)
}

func TestRun_Shapes(t *testing.T) {
	setup := []Step{
		{MSet: &MSetStep{Graph: "<urn:g>", Subject: "<urn:s>", Attributes: ir.NewOrderedMap(ir.P("<urn:p>", "v"))}},
	}
	tests := []struct {
		shape string
		query string
		want  any
	}{
		{ShapeRows, cellQuery, []any{map[string]any{"x": "v"}}},
		{ShapeCols, cellQuery, map[string]any{"x": []any{"v"}}},
		{ShapeRow, cellQuery, map[string]any{"x": "v"}},
		{ShapeCol, cellQuery, []any{"v"}},
		{ShapeCell, cellQuery, "v"},
		{ShapeAsk, "ask { <urn:s> <urn:p> 'v' }", "true"},
		{ShapeRow, "select ?x where { <urn:none> <urn:p> ?x }", nil},
	}

	for _, tt := range tests {
		t.Run(tt.shape, func(t *testing.T) {
			scenario := &Scenario{
				Name:        "shapes",
				Description: "d",
				Setup:       setup,
				Flow:        []Step{{Query: &QueryStep{Text: tt.query, Shape: tt.shape}}},
			}
			result, err := Run(context.Background(), scenario)
			require.NoError(t, err)
			require.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Equal(t, tt.want, result.Trace[1].Value)
		})
	}
}

func TestRun_LiveEndpoint(t *testing.T) {
	mem := memendpoint.New()
	srv := memendpoint.NewServer(mem)
	defer srv.Close()

	scenario := &Scenario{
		Name:        "live",
		Description: "Runs against an HTTP endpoint",
		Flow: []Step{
			{Set: &SetStep{Graph: "<urn:g>", Subject: "<urn:s>", Predicate: "<urn:p>", Object: "<urn:o>"}},
		},
	}

	result, err := Run(context.Background(), scenario, WithEndpoint(srv.URL))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, mem.Requests(), 1)
	assert.Equal(t, []memendpoint.Triple{{S: ir.IRI("urn:s"), P: ir.IRI("urn:p"), O: ir.IRI("urn:o")}}, mem.Triples("urn:g"))

	mem.Reset()
	result, err = Run(context.Background(), scenario, WithEndpoint(srv.URL), WithInMemory())
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Empty(t, mem.Requests(), "in-memory run does not touch the live endpoint")
}

func TestRun_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	scenario := &Scenario{
		Name:        "logged",
		Description: "d",
		Flow:        []Step{{Query: &QueryStep{Text: cellQuery}}},
	}
	_, err := Run(context.Background(), scenario, WithLogger(logger))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "flow step completed")
	assert.Contains(t, out, "scenario=logged")
	assert.Contains(t, out, "sparql query")
}

func TestRun_Deterministic(t *testing.T) {
	scenario := &Scenario{
		Name:        "deterministic",
		Description: "d",
		Flow: []Step{
			{Set: &SetStep{Graph: "<urn:g>", Subject: "<urn:s>", Predicate: "<urn:p>", Object: 1}},
			{Query: &QueryStep{Text: cellQuery, Shape: ShapeCell}},
		},
	}

	first, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	second, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	a, err := Snapshot(scenario.Name, first)
	require.NoError(t, err)
	b, err := Snapshot(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
