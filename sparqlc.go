// Package sparqlc is a client for SPARQL 1.1 HTTP endpoints.
//
// It sends queries with a configurable prefix preamble, parses the JSON
// results format into RDF terms, reshapes result sets into rows, columns
// and single cells, and generates the update statements that replace,
// clear or add property values on a resource.
//
//	c, err := sparqlc.New("http://localhost:8890/sparql",
//		sparqlc.WithPrefixes(sparqlc.NewOrderedMap(sparqlc.P("foaf", "http://xmlns.com/foaf/0.1/"))))
//	if err != nil {
//		return err
//	}
//	name, err := c.Cell(ctx, "select ?n where { <urn:alice> foaf:name ?n }")
package sparqlc

import (
	"github.com/roach88/sparqlc/internal/client"
	"github.com/roach88/sparqlc/internal/ir"
	"github.com/roach88/sparqlc/internal/queryir"
)

// Client and its options.
type (
	Client             = client.Client
	Option             = client.Option
	Recorder           = client.Recorder
	RequestIDGenerator = client.RequestIDGenerator
	Outcome[T any]     = client.Outcome[T]
)

// Errors.
type (
	Error     = client.Error
	ErrorCode = client.ErrorCode
)

// Error codes.
const (
	ErrCodeTransport         = client.ErrCodeTransport
	ErrCodeHTTPStatus        = client.ErrCodeHTTPStatus
	ErrCodeMalformedResponse = client.ErrCodeMalformedResponse
	ErrCodeInvalidMutation   = client.ErrCodeInvalidMutation
)

// RDF terms and result sets.
type (
	Term       = ir.Term
	TermKind   = ir.TermKind
	Binding    = ir.Binding
	ResultSet  = ir.ResultSet
	OrderedMap = ir.OrderedMap
	Pair       = ir.Pair
	Exchange   = ir.Exchange
)

// Values accepted by Set.
type (
	ValueSpec = ir.ValueSpec
	Scalar    = ir.Scalar
	Raw       = ir.Raw
	Int       = ir.Int
	Bool      = ir.Bool
	Literal   = ir.Literal
)

// Mutations accepted by Apply.
type (
	Mutation = queryir.Mutation
	Set      = queryir.Set
	MultiSet = queryir.MultiSet
)

var (
	New = client.New

	WithHTTPClient = client.WithHTTPClient
	WithLogger     = client.WithLogger
	WithPrefixes   = client.WithPrefixes
	WithRequestIDs = client.WithRequestIDs
	WithRecorder   = client.WithRecorder

	IsTransportError    = client.IsTransportError
	IsStatusError       = client.IsStatusError
	IsMalformedResponse = client.IsMalformedResponse
	IsInvalidMutation   = client.IsInvalidMutation

	ErrInvalidEndpoint = client.ErrInvalidEndpoint

	IRI          = ir.IRI
	PlainLiteral = ir.PlainLiteral
	TypedLiteral = ir.TypedLiteral
	LangLiteral  = ir.LangLiteral
	BlankNode    = ir.BlankNode

	NewOrderedMap = ir.NewOrderedMap
	P             = ir.P

	One  = ir.One
	Raws = ir.Raws

	ParseResults  = ir.ParseResults
	DecodeResults = ir.DecodeResults
)
