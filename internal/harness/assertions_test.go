package harness

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlc/internal/client"
	"github.com/roach88/sparqlc/internal/ir"
	"github.com/roach88/sparqlc/internal/memendpoint"
)

func journalOf(queries ...string) []ir.JournalEntry {
	out := make([]ir.JournalEntry, len(queries))
	for i, q := range queries {
		out[i] = ir.JournalEntry{Seq: int64(i + 1), Query: q, Outcome: "ok"}
	}
	return out
}

func TestAssertRequestContains(t *testing.T) {
	journal := journalOf("select ?a", "MODIFY <urn:g> DELETE { }")

	assert.NoError(t, assertRequestContains(journal, Assertion{Contains: "MODIFY"}))

	err := assertRequestContains(journal, Assertion{Contains: "INSERT INTO"})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertRequestContains, ae.Type)
	assert.Equal(t, []string{"select ?a", "MODIFY <urn:g> DELETE { }"}, ae.Queries)
}

func TestAssertRequestOrder(t *testing.T) {
	journal := journalOf("INSERT INTO a", "select 1", "MODIFY b", "select 2")

	tests := []struct {
		name     string
		sequence []string
		wantErr  string
	}{
		{"in order", []string{"INSERT", "MODIFY"}, ""},
		{"with repeats", []string{"select", "select"}, ""},
		{"intervening allowed", []string{"INSERT", "select 2"}, ""},
		{"reversed", []string{"MODIFY", "INSERT"}, `no request containing "INSERT"`},
		{"too many repeats", []string{"select", "select", "select"}, `no request containing "select"`},
		{"missing", []string{"DELETE FROM"}, `no request containing "DELETE FROM"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertRequestOrder(journal, Assertion{Sequence: tt.sequence})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAssertRequestCount(t *testing.T) {
	journal := journalOf("select 1", "MODIFY a", "select 2")
	journal[2].Outcome = "error"

	tests := []struct {
		name    string
		a       Assertion
		wantErr string
	}{
		{"all", Assertion{Count: 3}, ""},
		{"contains", Assertion{Contains: "select", Count: 2}, ""},
		{"outcome", Assertion{Outcome: "error", Count: 1}, ""},
		{"both", Assertion{Contains: "select", Outcome: "ok", Count: 1}, ""},
		{"zero", Assertion{Contains: "INSERT", Count: 0}, ""},
		{"mismatch", Assertion{Contains: "MODIFY", Count: 2}, `Expected: 2 requests containing "MODIFY"`},
		{"mismatch outcome", Assertion{Outcome: "ok", Count: 3}, "Actual: 2 requests with outcome ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertRequestCount(journal, tt.a)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAssertFinalState(t *testing.T) {
	mem := memendpoint.New()
	mem.Insert("urn:g",
		memendpoint.Triple{S: ir.IRI("urn:s"), P: ir.IRI("urn:p"), O: ir.PlainLiteral("a")},
		memendpoint.Triple{S: ir.IRI("urn:s"), P: ir.IRI("urn:p"), O: ir.TypedLiteral("2", "http://www.w3.org/2001/XMLSchema#integer")},
	)
	c, err := client.New("http://memory.invalid/sparql", client.WithHTTPClient(&http.Client{Transport: mem.Transport()}))
	require.NoError(t, err)
	actx := &AssertionContext{Ctx: context.Background(), Client: c}

	tests := []struct {
		name    string
		query   string
		expect  string
		wantErr string
	}{
		{"match", cellQuery, `[{x: a}, {x: 2}]`, ""},
		{"empty", "select ?x where { <urn:none> <urn:p> ?x }", `[]`, ""},
		{"null means empty", "select ?x where { <urn:none> <urn:p> ?x }", `null`, ""},
		{"order matters", cellQuery, `[{x: 2}, {x: a}]`, "Assertion failed: final_state"},
		{"query error", "broken", `[]`, "query error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertFinalState(actx, Assertion{Type: AssertFinalState, Query: tt.query, Expect: valueNode(t, tt.expect)})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEvaluateAssertions(t *testing.T) {
	actx := &AssertionContext{Ctx: context.Background(), Journal: journalOf("select 1")}
	failures := EvaluateAssertions([]Assertion{
		{Type: AssertRequestCount, Count: 1},
		{Type: AssertRequestContains, Contains: "MODIFY"},
		{Type: "bogus"},
	}, actx)

	require.Len(t, failures, 2)
	assert.Contains(t, failures[0], "assertions[1]")
	assert.Contains(t, failures[1], `assertions[2]: unknown assertion type "bogus"`)
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertRequestCount,
		Expected: "1 requests",
		Actual:   "2 requests",
		Queries:  []string{"select 1", "select 2"},
	}
	assert.Equal(t,
		"Assertion failed: request_count\n  Expected: 1 requests\n  Actual: 2 requests\n\nRequests:\n  [1] select 1\n  [2] select 2\n",
		err.Error())
}

func TestNormalizePlain(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"int", 30, "30"},
		{"bool", true, "true"},
		{"float", 1.5, "1.5"},
		{"list", []any{1, "a", nil}, []any{"1", "a", nil}},
		{"map", map[string]any{"n": 2}, map[string]any{"n": "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizePlain(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := normalizePlain(struct{}{})
	assert.Error(t, err)
}

func TestPlainLen(t *testing.T) {
	assert.Equal(t, 0, plainLen(nil))
	assert.Equal(t, 2, plainLen([]any{"a", "b"}))
	assert.Equal(t, 1, plainLen(map[string]any{"x": "a"}))
	assert.Equal(t, 1, plainLen("a"))
}
