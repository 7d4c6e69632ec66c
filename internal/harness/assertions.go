package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/sparqlc/internal/client"
	"github.com/roach88/sparqlc/internal/ir"
)

// AssertionContext carries what assertions evaluate against.
type AssertionContext struct {
	Ctx context.Context

	// Client runs final_state queries.
	Client *client.Client

	// Journal is the journal as it stood after the flow, oldest first.
	Journal []ir.JournalEntry
}

// AssertionError is returned when an assertion fails.
// It includes the journaled queries to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Queries  []string // Journaled queries for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Queries) > 0 {
		fmt.Fprintf(&buf, "\nRequests:\n")
		for i, q := range e.Queries {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, q)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns one message per
// failure.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluateAssertion(a, actx); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluateAssertion(a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertRequestContains:
		return assertRequestContains(actx.Journal, a)
	case AssertRequestOrder:
		return assertRequestOrder(actx.Journal, a)
	case AssertRequestCount:
		return assertRequestCount(actx.Journal, a)
	case AssertFinalState:
		return assertFinalState(actx, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func journalQueries(journal []ir.JournalEntry) []string {
	out := make([]string, len(journal))
	for i, e := range journal {
		out[i] = e.Query
	}
	return out
}

// assertRequestContains checks that some request's query contains the
// substring.
func assertRequestContains(journal []ir.JournalEntry, a Assertion) error {
	for _, e := range journal {
		if strings.Contains(e.Query, a.Contains) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertRequestContains,
		Expected: fmt.Sprintf("a request containing %q", a.Contains),
		Actual:   "not found in journal",
		Queries:  journalQueries(journal),
	}
}

// assertRequestOrder checks that each substring matches a request after
// the one matched by the previous substring. Intervening requests are
// allowed.
func assertRequestOrder(journal []ir.JournalEntry, a Assertion) error {
	pos := 0
	for _, want := range a.Sequence {
		found := false
		for pos < len(journal) {
			q := journal[pos].Query
			pos++
			if strings.Contains(q, want) {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertRequestOrder,
				Expected: fmt.Sprintf("requests in order: %q", a.Sequence),
				Actual:   fmt.Sprintf("no request containing %q after the previous match", want),
				Queries:  journalQueries(journal),
			}
		}
	}
	return nil
}

// assertRequestCount checks the number of matching requests.
func assertRequestCount(journal []ir.JournalEntry, a Assertion) error {
	count := 0
	for _, e := range journal {
		if a.Contains != "" && !strings.Contains(e.Query, a.Contains) {
			continue
		}
		if a.Outcome != "" && e.Outcome != a.Outcome {
			continue
		}
		count++
	}
	if count == a.Count {
		return nil
	}

	what := "requests"
	if a.Contains != "" {
		what += fmt.Sprintf(" containing %q", a.Contains)
	}
	if a.Outcome != "" {
		what += fmt.Sprintf(" with outcome %s", a.Outcome)
	}
	return &AssertionError{
		Type:     AssertRequestCount,
		Expected: fmt.Sprintf("%d %s", a.Count, what),
		Actual:   fmt.Sprintf("%d %s", count, what),
		Queries:  journalQueries(journal),
	}
}

// assertFinalState runs the assertion's query and compares its rows with
// the expected rows, in order.
func assertFinalState(actx *AssertionContext, a Assertion) error {
	want, err := plainFromNode(a.Expect)
	if err != nil {
		return fmt.Errorf("final_state expect: %w", err)
	}
	if want == nil {
		want = []any{}
	}

	rows, err := actx.Client.Rows(actx.Ctx, a.Query)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query %q to succeed", a.Query),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}

	got := any(plainRows(rows))
	if !plainEqual(want, got) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: describe(want),
			Actual:   describe(got),
		}
	}
	return nil
}
