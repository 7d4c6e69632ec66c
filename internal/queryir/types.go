package queryir

import "github.com/roach88/sparqlc/internal/ir"

// Mutation is a SPARQL update operation against one named graph.
//
// This is a sealed interface - only types in this package implement it.
type Mutation interface {
	mutationNode() // Marker method - seals interface to this package
}

// Set replaces (or clears) the values of one predicate on one node.
//
// Semantics, with (entity, value) = (Subject, Object), or (Object, Subject)
// when Inverted:
//
//	delete every <entity> <Predicate> ?x
//	insert <entity> <Predicate> v for each v in value
//
// Inverted flips the triple orientation, so the entity is the object and
// the values are subjects: ?x <Predicate> <entity>.
//
// The entity side must hold exactly one scalar. A nil or empty value side
// clears the predicate without inserting anything.
//
// Example:
//
//	Set{
//	  Graph:     "<urn:g>",
//	  Subject:   ir.Raws("<urn:alice>"),
//	  Predicate: "<urn:age>",
//	  Object:    ir.One(ir.Int(42)),
//	}
type Set struct {
	Graph     string       // Named graph in SPARQL term syntax, e.g. "<urn:g>"
	Subject   ir.ValueSpec // Subject term(s)
	Predicate string       // Predicate in SPARQL term syntax
	Object    ir.ValueSpec // Object term(s); nil clears
	Inverted  bool         // Swap entity and value roles
}

func (Set) mutationNode() {}

// Entity returns the node whose predicate is being replaced.
func (s Set) Entity() ir.ValueSpec {
	if s.Inverted {
		return s.Object
	}
	return s.Subject
}

// MultiSet inserts several predicate/literal pairs that share one subject.
//
// Attributes maps predicates (SPARQL term syntax) to plain string values.
// Values are written as quoted literals. Iteration order of Attributes
// determines the order of the generated pairs.
//
// Example:
//
//	MultiSet{
//	  Graph:   "<urn:g>",
//	  Subject: "<urn:alice>",
//	  Attributes: ir.NewOrderedMap(
//	    ir.P("<urn:name>", "Alice"),
//	    ir.P("<urn:city>", "Paris"),
//	  ),
//	}
type MultiSet struct {
	Graph      string
	Subject    string
	Attributes *ir.OrderedMap
}

func (MultiSet) mutationNode() {}
