package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"
	"github.com/spf13/afero"

	"github.com/roach88/sparqlc/internal/ir"
	"github.com/roach88/sparqlc/internal/queryir"
)

// Plan is a batch of mutations read from a CUE file.
//
//	prefixes: {foaf: "http://xmlns.com/foaf/0.1/"}
//	mutations: [
//		{set: {graph: "<urn:g>", subject: "<urn:s>", predicate: "foaf:age", object: 42}},
//		{mset: {graph: "<urn:g>", subject: "<urn:s>", attributes: {"foaf:name": "Alice"}}},
//	]
//
// Value fields (subject and object of set) take a string (raw term syntax),
// an int, a bool, {literal: "text"} for a quoted literal, a list of those, or
// null to clear.
type Plan struct {
	Prefixes  *ir.OrderedMap
	Mutations []queryir.Mutation
}

// LoadError represents an error that occurred while loading a CUE file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error

	// Plan errors
	ErrCodePlanPrefixes  = "E101" // Bad prefixes block
	ErrCodePlanMutations = "E102" // Missing or malformed mutations list
	ErrCodePlanSet       = "E103" // Bad set entry
	ErrCodePlanMSet      = "E104" // Bad mset entry
	ErrCodePlanValue     = "E105" // Unsupported value (e.g. float)
)

// compileFile reads path from fsys and builds it as a concrete CUE value.
func compileFile(fsys afero.Fs, path string) (cue.Value, error) {
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return cue.Value{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("file not found: %s", path)}
	}
	if err != nil {
		return cue.Value{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}

	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return cue.Value{}, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return cue.Value{}, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("CUE value is not concrete: %v", err), Pos: value.Pos()}
	}
	return value, nil
}

// LoadPrefixFile reads a CUE file whose top-level "prefixes" struct maps
// short names to namespace IRIs. Declaration order is kept.
func LoadPrefixFile(fsys afero.Fs, path string) (*ir.OrderedMap, error) {
	value, err := compileFile(fsys, path)
	if err != nil {
		return nil, err
	}
	return decodePrefixes(value.LookupPath(cue.ParsePath("prefixes")))
}

// LoadPlan reads a mutation plan from a CUE file. Every mutation is
// checked with queryir.Validate before the plan is returned.
func LoadPlan(fsys afero.Fs, path string) (*Plan, error) {
	value, err := compileFile(fsys, path)
	if err != nil {
		return nil, err
	}

	prefixes, err := decodePrefixes(value.LookupPath(cue.ParsePath("prefixes")))
	if err != nil {
		return nil, err
	}

	mutsVal := value.LookupPath(cue.ParsePath("mutations"))
	if !mutsVal.Exists() {
		return nil, &LoadError{Code: ErrCodePlanMutations, Message: "plan has no mutations list"}
	}
	iter, err := mutsVal.List()
	if err != nil {
		return nil, &LoadError{Code: ErrCodePlanMutations, Message: "mutations must be a list", Pos: mutsVal.Pos()}
	}

	plan := &Plan{Prefixes: prefixes}
	for i := 0; iter.Next(); i++ {
		m, err := decodeMutation(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("mutations[%d]: %w", i, err)
		}
		if err := queryir.Validate(m); err != nil {
			return nil, &LoadError{Code: ErrCodePlanMutations, Message: fmt.Sprintf("mutations[%d]: %v", i, err), Pos: iter.Value().Pos()}
		}
		plan.Mutations = append(plan.Mutations, m)
	}
	if len(plan.Mutations) == 0 {
		return nil, &LoadError{Code: ErrCodePlanMutations, Message: "plan has no mutations", Pos: mutsVal.Pos()}
	}
	return plan, nil
}

func decodePrefixes(v cue.Value) (*ir.OrderedMap, error) {
	m := ir.NewOrderedMap()
	if !v.Exists() {
		return m, nil
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, &LoadError{Code: ErrCodePlanPrefixes, Message: "prefixes must be a struct", Pos: v.Pos()}
	}
	for iter.Next() {
		iri, err := iter.Value().String()
		if err != nil {
			return nil, &LoadError{Code: ErrCodePlanPrefixes, Message: fmt.Sprintf("prefix %s must be a string", iter.Label()), Pos: iter.Value().Pos()}
		}
		m.Set(iter.Label(), iri)
	}
	return m, nil
}

func decodeMutation(v cue.Value) (queryir.Mutation, error) {
	setVal := v.LookupPath(cue.ParsePath("set"))
	msetVal := v.LookupPath(cue.ParsePath("mset"))
	switch {
	case setVal.Exists() && msetVal.Exists():
		return nil, &LoadError{Code: ErrCodePlanMutations, Message: "entry has both set and mset", Pos: v.Pos()}
	case setVal.Exists():
		return decodeSet(setVal)
	case msetVal.Exists():
		return decodeMSet(msetVal)
	default:
		return nil, &LoadError{Code: ErrCodePlanMutations, Message: "entry needs a set or mset field", Pos: v.Pos()}
	}
}

func decodeSet(v cue.Value) (queryir.Set, error) {
	var s queryir.Set
	var err error

	if s.Graph, err = stringField(v, "graph", ErrCodePlanSet); err != nil {
		return s, err
	}
	if s.Predicate, err = stringField(v, "predicate", ErrCodePlanSet); err != nil {
		return s, err
	}
	if s.Subject, err = valueField(v, "subject"); err != nil {
		return s, err
	}
	if s.Object, err = valueField(v, "object"); err != nil {
		return s, err
	}
	if inv := v.LookupPath(cue.ParsePath("inverted")); inv.Exists() {
		if s.Inverted, err = inv.Bool(); err != nil {
			return s, &LoadError{Code: ErrCodePlanSet, Message: "inverted must be a bool", Pos: inv.Pos()}
		}
	}
	return s, nil
}

func decodeMSet(v cue.Value) (queryir.MultiSet, error) {
	var m queryir.MultiSet
	var err error

	if m.Graph, err = stringField(v, "graph", ErrCodePlanMSet); err != nil {
		return m, err
	}
	if m.Subject, err = stringField(v, "subject", ErrCodePlanMSet); err != nil {
		return m, err
	}

	attrs := v.LookupPath(cue.ParsePath("attributes"))
	if !attrs.Exists() {
		return m, &LoadError{Code: ErrCodePlanMSet, Message: "mset needs attributes", Pos: v.Pos()}
	}
	iter, err := attrs.Fields()
	if err != nil {
		return m, &LoadError{Code: ErrCodePlanMSet, Message: "attributes must be a struct", Pos: attrs.Pos()}
	}
	m.Attributes = ir.NewOrderedMap()
	for iter.Next() {
		val, err := iter.Value().String()
		if err != nil {
			return m, &LoadError{Code: ErrCodePlanMSet, Message: fmt.Sprintf("attribute %s must be a string", iter.Label()), Pos: iter.Value().Pos()}
		}
		m.Attributes.Set(iter.Label(), val)
	}
	return m, nil
}

func stringField(v cue.Value, name, code string) (string, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return "", &LoadError{Code: code, Message: fmt.Sprintf("missing %s", name), Pos: v.Pos()}
	}
	s, err := f.String()
	if err != nil {
		return "", &LoadError{Code: code, Message: fmt.Sprintf("%s must be a string", name), Pos: f.Pos()}
	}
	return s, nil
}

// valueField decodes a set value side. A missing field clears, like null.
func valueField(v cue.Value, name string) (ir.ValueSpec, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return nil, nil
	}
	raw, err := cueToAny(f)
	if err != nil {
		return nil, err
	}
	spec, err := ir.ToValueSpec(raw)
	if err != nil {
		return nil, &LoadError{Code: ErrCodePlanValue, Message: fmt.Sprintf("%s: %v", name, err), Pos: f.Pos()}
	}
	return spec, nil
}

// cueToAny converts a concrete CUE value into the untyped form accepted by
// ir.ToValueSpec. Floats are rejected.
func cueToAny(v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.NullKind:
		return nil, nil
	case cue.StringKind:
		return v.String()
	case cue.IntKind:
		return v.Int64()
	case cue.BoolKind:
		return v.Bool()
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, err
		}
		var out []any
		for iter.Next() {
			elem, err := cueToAny(iter.Value())
			if err != nil {
				return nil, err
			}
			if _, isList := elem.([]any); isList {
				return nil, &LoadError{Code: ErrCodePlanValue, Message: "nested lists are not supported", Pos: iter.Value().Pos()}
			}
			out = append(out, elem)
		}
		return out, nil
	case cue.StructKind:
		lit := v.LookupPath(cue.ParsePath("literal"))
		if !lit.Exists() {
			return nil, &LoadError{Code: ErrCodePlanValue, Message: "struct values must be {literal: string}", Pos: v.Pos()}
		}
		s, err := lit.String()
		if err != nil {
			return nil, &LoadError{Code: ErrCodePlanValue, Message: "literal must be a string", Pos: lit.Pos()}
		}
		return ir.Literal(s), nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &LoadError{Code: ErrCodePlanValue, Message: "floats are not supported: write a decimal as a raw string", Pos: v.Pos()}
	default:
		return nil, &LoadError{Code: ErrCodePlanValue, Message: fmt.Sprintf("unsupported value kind %s", v.Kind()), Pos: v.Pos()}
	}
}
