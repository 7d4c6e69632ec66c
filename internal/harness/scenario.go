package harness

import (
	"bytes"
	"fmt"
	"net/url"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/roach88/sparqlc/internal/ir"
)

// Scenario is a scripted sequence of queries and mutations with
// expectations on their outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Endpoint is the SPARQL endpoint URL. Empty means a fresh in-memory
	// endpoint.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Prefixes are installed on the client before the first step.
	Prefixes *ir.OrderedMap `yaml:"prefixes,omitempty"`

	// Setup steps run before the flow and must succeed. Expectations are
	// not allowed on them.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow contains the steps under test.
	Flow []Step `yaml:"flow"`

	// Assertions are evaluated against the journal after the flow.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RequestIDPrefix prefixes the sequential request IDs. Default "req".
	RequestIDPrefix string `yaml:"request_id_prefix,omitempty"`
}

// Step is exactly one of Query, Set or MSet, with an optional expectation.
type Step struct {
	Query  *QueryStep `yaml:"query,omitempty"`
	Set    *SetStep   `yaml:"set,omitempty"`
	MSet   *MSetStep  `yaml:"mset,omitempty"`
	Expect *Expect    `yaml:"expect,omitempty"`
}

// Op returns the step's operation name.
func (s Step) Op() string {
	switch {
	case s.Query != nil:
		return "query"
	case s.Set != nil:
		return "set"
	case s.MSet != nil:
		return "mset"
	default:
		return ""
	}
}

// QueryStep runs a query and reshapes the result.
type QueryStep struct {
	Text  string `yaml:"text"`
	Shape string `yaml:"shape,omitempty"`
}

// Query result shapes.
const (
	ShapeRows = "rows"
	ShapeCols = "cols"
	ShapeRow  = "row"
	ShapeCol  = "col"
	ShapeCell = "cell"
	ShapeAsk  = "ask"
)

var validShapes = map[string]bool{
	ShapeRows: true, ShapeCols: true, ShapeRow: true,
	ShapeCol: true, ShapeCell: true, ShapeAsk: true,
}

// SetStep replaces the values of one predicate. Subject and Object accept
// a term string, an integer, a boolean, a list of those, or null.
type SetStep struct {
	Graph     string `yaml:"graph"`
	Subject   any    `yaml:"subject"`
	Predicate string `yaml:"predicate"`
	Object    any    `yaml:"object"`
	Inverted  bool   `yaml:"inverted,omitempty"`
}

// MSetStep inserts several literal attributes on one subject.
type MSetStep struct {
	Graph      string         `yaml:"graph"`
	Subject    string         `yaml:"subject"`
	Attributes *ir.OrderedMap `yaml:"attributes"`
}

// Expect describes the expected outcome of a flow step.
type Expect struct {
	// Error is the expected client error code, e.g. HTTP_STATUS.
	Error string `yaml:"error,omitempty"`

	// Value is the expected reshaped value. Absent means unchecked; an
	// explicit null expects an empty row or cell.
	Value yaml.Node `yaml:"value,omitempty"`

	// Len is the expected number of rows, column values or variables.
	Len *int `yaml:"len,omitempty"`
}

// Assertion validates the journal or the final endpoint state.
type Assertion struct {
	// Type is one of request_contains, request_order, request_count or
	// final_state.
	Type string `yaml:"type"`

	// Contains filters requests by query substring (request_contains,
	// request_count).
	Contains string `yaml:"contains,omitempty"`

	// Outcome filters requests by outcome, "ok" or "error" (request_count).
	Outcome string `yaml:"outcome,omitempty"`

	// Count is the expected number of matching requests (request_count).
	Count int `yaml:"count,omitempty"`

	// Sequence lists substrings that must match requests in order
	// (request_order). Other requests may come in between.
	Sequence []string `yaml:"sequence,omitempty"`

	// Query is run after the flow (final_state).
	Query string `yaml:"query,omitempty"`

	// Expect holds the expected rows of Query (final_state).
	Expect yaml.Node `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertRequestContains = "request_contains"
	AssertRequestOrder    = "request_order"
	AssertRequestCount    = "request_count"
	AssertFinalState      = "final_state"
)

// LoadScenario reads and parses a scenario YAML file from disk.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioFS(afero.NewOsFs(), path)
}

// LoadScenarioFS reads and parses a scenario YAML file from fs.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenarioFS(fs afero.Fs, path string) (*Scenario, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches typos like "assertion:" vs "assertions:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if s.Endpoint != "" {
		u, err := url.Parse(s.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("endpoint %q must be an absolute http(s) URL", s.Endpoint)
		}
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: expect is not allowed in setup", i)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(step Step) error {
	n := 0
	for _, set := range []bool{step.Query != nil, step.Set != nil, step.MSet != nil} {
		if set {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("exactly one of query, set or mset is required, got %d", n)
	}

	switch {
	case step.Query != nil:
		if step.Query.Text == "" {
			return fmt.Errorf("query: text is required")
		}
		if step.Query.Shape != "" && !validShapes[step.Query.Shape] {
			return fmt.Errorf("query: unknown shape %q", step.Query.Shape)
		}
	case step.Set != nil:
		if step.Set.Graph == "" || step.Set.Predicate == "" {
			return fmt.Errorf("set: graph and predicate are required")
		}
	case step.MSet != nil:
		if step.MSet.Graph == "" || step.MSet.Subject == "" {
			return fmt.Errorf("mset: graph and subject are required")
		}
		if step.MSet.Attributes.Len() == 0 {
			return fmt.Errorf("mset: attributes are required")
		}
	}

	if step.Expect != nil && step.Expect.Error != "" && (hasNode(step.Expect.Value) || step.Expect.Len != nil) {
		return fmt.Errorf("expect: error cannot be combined with value or len")
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRequestContains:
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for request_contains", index)
		}
	case AssertRequestOrder:
		if len(a.Sequence) == 0 {
			return fmt.Errorf("assertions[%d]: sequence is required for request_order", index)
		}
	case AssertRequestCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for request_count", index)
		}
		if a.Outcome != "" && a.Outcome != "ok" && a.Outcome != "error" {
			return fmt.Errorf("assertions[%d]: outcome must be ok or error", index)
		}
	case AssertFinalState:
		if a.Query == "" {
			return fmt.Errorf("assertions[%d]: query is required for final_state", index)
		}
		if !hasNode(a.Expect) {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// hasNode reports whether a YAML field was present. An explicit null is
// present.
func hasNode(n yaml.Node) bool {
	return n.Kind != 0
}
