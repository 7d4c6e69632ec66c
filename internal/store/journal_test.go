package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlc/internal/ir"
)

func TestRecord_AndGet(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ex := createTestExchange("req-1", "select * where { ?s ?p ?o }")
	require.NoError(t, s.Record(ctx, ex))

	got, found, err := s.Get(ctx, "req-1")
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, ir.JournalEntry{
		Seq:        1,
		RequestID:  "req-1",
		Endpoint:   "http://localhost:8890/sparql",
		Query:      "select * where { ?s ?p ?o }",
		StatusCode: 200,
		Bindings:   1,
		Outcome:    "ok",
	}, got)
}

func TestRecord_Failure(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ex := ir.Exchange{
		RequestID:  "req-err",
		Endpoint:   "http://localhost:8890/sparql",
		Query:      "selec",
		StatusCode: 400,
		Err:        errors.New("HTTP_STATUS: endpoint returned 400 Bad Request"),
	}
	require.NoError(t, s.Record(ctx, ex))

	got, found, err := s.Get(ctx, "req-err")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "error", got.Outcome)
	assert.Equal(t, "HTTP_STATUS: endpoint returned 400 Bad Request", got.Error)
	assert.Equal(t, 400, got.StatusCode)
	assert.Equal(t, 0, got.Bindings)
}

func TestRecord_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ex := createTestExchange("req-1", "ask {}")
	require.NoError(t, s.Record(ctx, ex))
	ex.Query = "ask { ?s ?p ?o }"
	require.NoError(t, s.Record(ctx, ex))

	entries, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ask {}", entries[0].Query, "first write wins")
}

func TestRecord_RequiresRequestID(t *testing.T) {
	s := createTestStore(t)
	err := s.Record(context.Background(), ir.Exchange{Query: "ask {}"})
	assert.Error(t, err)
}

func TestGet_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, found, err := s.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestList(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.List(ctx, 10)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Record(ctx, createTestExchange(fmt.Sprintf("req-%d", i), fmt.Sprintf("q%d", i))))
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"all", 0, []string{"req-1", "req-2", "req-3", "req-4", "req-5"}},
		{"negative is all", -3, []string{"req-1", "req-2", "req-3", "req-4", "req-5"}},
		{"last two oldest first", 2, []string{"req-4", "req-5"}},
		{"limit above size", 50, []string{"req-1", "req-2", "req-3", "req-4", "req-5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := s.List(ctx, tt.limit)
			require.NoError(t, err)

			ids := make([]string, len(entries))
			for i, e := range entries {
				ids[i] = e.RequestID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestListByEndpoint(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a := createTestExchange("a-1", "q")
	b := createTestExchange("b-1", "q")
	b.Endpoint = "https://dbpedia.org/sparql"
	a2 := createTestExchange("a-2", "q")

	for _, ex := range []ir.Exchange{a, b, a2} {
		require.NoError(t, s.Record(ctx, ex))
	}

	entries, err := s.ListByEndpoint(ctx, a.Endpoint)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a-1", entries[0].RequestID)
	assert.Equal(t, "a-2", entries[1].RequestID)
	assert.Less(t, entries[0].Seq, entries[1].Seq)

	none, err := s.ListByEndpoint(ctx, "http://nowhere/sparql")
	require.NoError(t, err)
	assert.Empty(t, none)
}
