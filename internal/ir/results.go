package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
)

// ResultSet is a parsed SPARQL results document.
//
// SELECT responses populate Vars and Bindings; ASK responses populate
// Boolean. A ResultSet is produced fresh for every query and never cached.
type ResultSet struct {
	Vars     []string
	Bindings []Binding
	Boolean  *bool
	Link     []string
}

// IsBoolean reports whether the document is an ASK result.
func (rs *ResultSet) IsBoolean() bool {
	return rs != nil && rs.Boolean != nil
}

// Len returns the number of result rows.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Bindings)
}

// wireResults mirrors the results JSON shape. Pointers distinguish a
// missing member from an empty one.
type wireResults struct {
	Head *struct {
		Vars *[]string `json:"vars"`
		Link []string  `json:"link"`
	} `json:"head"`
	Results *struct {
		Bindings *[]Binding `json:"bindings"`
	} `json:"results"`
	Boolean *bool `json:"boolean"`
}

// ParseResults parses a SPARQL 1.1 results JSON document.
//
// Parsing is strict: a missing head, a missing head.vars or
// results.bindings (unless the document carries a boolean), an unknown
// term type, a term without a value, or a binding for an undeclared
// variable all fail.
func ParseResults(data []byte) (*ResultSet, error) {
	return DecodeResults(bytes.NewReader(data))
}

// DecodeResults reads and parses a results document from r.
func DecodeResults(r io.Reader) (*ResultSet, error) {
	var w wireResults
	dec := json.NewDecoder(r)
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode results: trailing data after document")
	}

	if w.Head == nil {
		return nil, fmt.Errorf("results document has no head")
	}

	rs := &ResultSet{Link: w.Head.Link}

	if w.Boolean != nil {
		b := *w.Boolean
		rs.Boolean = &b
		if w.Head.Vars != nil {
			rs.Vars = *w.Head.Vars
		}
		return rs, nil
	}

	if w.Head.Vars == nil {
		return nil, fmt.Errorf("results document has no head.vars")
	}
	if w.Results == nil || w.Results.Bindings == nil {
		return nil, fmt.Errorf("results document has no results.bindings")
	}

	rs.Vars = *w.Head.Vars
	rs.Bindings = *w.Results.Bindings

	for i, b := range rs.Bindings {
		if b == nil {
			return nil, fmt.Errorf("bindings[%d]: null binding", i)
		}
		for name := range b {
			if !slices.Contains(rs.Vars, name) {
				return nil, fmt.Errorf("bindings[%d]: variable %q is not declared in head.vars", i, name)
			}
		}
	}

	return rs, nil
}

// MarshalJSON writes the result set back in the results JSON format.
func (rs *ResultSet) MarshalJSON() ([]byte, error) {
	type head struct {
		Vars []string `json:"vars"`
		Link []string `json:"link,omitempty"`
	}
	if rs.Boolean != nil {
		return json.Marshal(struct {
			Head    head `json:"head"`
			Boolean bool `json:"boolean"`
		}{Head: head{Vars: nonNil(rs.Vars), Link: rs.Link}, Boolean: *rs.Boolean})
	}
	bindings := rs.Bindings
	if bindings == nil {
		bindings = []Binding{}
	}
	return json.Marshal(struct {
		Head    head `json:"head"`
		Results struct {
			Bindings []Binding `json:"bindings"`
		} `json:"results"`
	}{
		Head: head{Vars: nonNil(rs.Vars), Link: rs.Link},
		Results: struct {
			Bindings []Binding `json:"bindings"`
		}{Bindings: bindings},
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
