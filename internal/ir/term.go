package ir

import (
	"encoding/json"
	"fmt"
)

// TermKind identifies RDF term types as reported by a SPARQL endpoint.
type TermKind uint8

const (
	// TermUnbound is the zero value. It marks a cell whose variable was not
	// bound in that row; it never appears inside a parsed Binding.
	TermUnbound TermKind = iota
	// TermIRI represents an IRI term ("uri").
	TermIRI
	// TermLiteral represents a literal term ("literal" or "typed-literal").
	TermLiteral
	// TermBlankNode represents a blank node term ("bnode").
	TermBlankNode
)

// Wire names used by the SPARQL 1.1 results JSON format.
const (
	wireURI          = "uri"
	wireLiteral      = "literal"
	wireTypedLiteral = "typed-literal"
	wireBNode        = "bnode"
)

// String returns the results-format name of the kind.
func (k TermKind) String() string {
	switch k {
	case TermIRI:
		return wireURI
	case TermLiteral:
		return wireLiteral
	case TermBlankNode:
		return wireBNode
	default:
		return "unbound"
	}
}

// ParseTermKind maps a results-format "type" value to a TermKind.
// The legacy "typed-literal" spelling maps to TermLiteral.
func ParseTermKind(s string) (TermKind, error) {
	switch s {
	case wireURI:
		return TermIRI, nil
	case wireLiteral, wireTypedLiteral:
		return TermLiteral, nil
	case wireBNode:
		return TermBlankNode, nil
	default:
		return TermUnbound, fmt.Errorf("unknown term type %q", s)
	}
}

// Term is one RDF value bound to a variable in a result row.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string // literals only
	Lang     string // literals only
}

// IRI creates an IRI term.
func IRI(value string) Term {
	return Term{Kind: TermIRI, Value: value}
}

// PlainLiteral creates a literal term without datatype or language.
func PlainLiteral(value string) Term {
	return Term{Kind: TermLiteral, Value: value}
}

// TypedLiteral creates a literal term with a datatype IRI.
func TypedLiteral(value, datatype string) Term {
	return Term{Kind: TermLiteral, Value: value, Datatype: datatype}
}

// LangLiteral creates a language-tagged literal term.
func LangLiteral(value, lang string) Term {
	return Term{Kind: TermLiteral, Value: value, Lang: lang}
}

// BlankNode creates a blank node term.
func BlankNode(id string) Term {
	return Term{Kind: TermBlankNode, Value: id}
}

// IsBound reports whether the term holds a value.
func (t Term) IsBound() bool {
	return t.Kind != TermUnbound
}

// String renders the term in SPARQL/N-Triples-like syntax for display.
func (t Term) String() string {
	switch t.Kind {
	case TermIRI:
		return "<" + t.Value + ">"
	case TermBlankNode:
		return "_:" + t.Value
	case TermLiteral:
		if t.Lang != "" {
			return fmt.Sprintf("%q@%s", t.Value, t.Lang)
		}
		if t.Datatype != "" {
			return fmt.Sprintf("%q^^<%s>", t.Value, t.Datatype)
		}
		return fmt.Sprintf("%q", t.Value)
	default:
		return ""
	}
}

// wireTerm is the JSON shape of a term in SPARQL results.
type wireTerm struct {
	Type     string  `json:"type"`
	Value    *string `json:"value"`
	Datatype string  `json:"datatype,omitempty"`
	Lang     string  `json:"xml:lang,omitempty"`
}

// MarshalJSON writes the standard results-format term object.
// An unbound term marshals as null.
func (t Term) MarshalJSON() ([]byte, error) {
	if !t.IsBound() {
		return []byte("null"), nil
	}
	v := t.Value
	return json.Marshal(wireTerm{
		Type:     t.Kind.String(),
		Value:    &v,
		Datatype: t.Datatype,
		Lang:     t.Lang,
	})
}

// UnmarshalJSON parses a results-format term object strictly: the type
// must be known and the value must be present.
func (t *Term) UnmarshalJSON(data []byte) error {
	var w wireTerm
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kind, err := ParseTermKind(w.Type)
	if err != nil {
		return err
	}
	if w.Value == nil {
		return fmt.Errorf("term of type %q has no value", w.Type)
	}
	*t = Term{Kind: kind, Value: *w.Value}
	if kind == TermLiteral {
		t.Datatype = w.Datatype
		t.Lang = w.Lang
	}
	return nil
}

// Binding is one result row: variable name to bound term.
// A variable is present only when it was bound in that row.
type Binding map[string]Term

// Get returns the term bound to name and whether it was bound.
func (b Binding) Get(name string) (Term, bool) {
	t, ok := b[name]
	return t, ok
}
