package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/sparqlc/internal/ir"
)

// createTestStore creates a new journal in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestExchange creates a successful exchange with minimal fields.
func createTestExchange(requestID, query string) ir.Exchange {
	return ir.Exchange{
		RequestID:  requestID,
		Endpoint:   "http://localhost:8890/sparql",
		Query:      query,
		StatusCode: 200,
		Bindings:   1,
	}
}
