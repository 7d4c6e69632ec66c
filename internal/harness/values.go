package harness

import (
	"fmt"
	"reflect"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sparqlc/internal/ir"
)

// Values are compared in a plain form: a term becomes its value string, an
// unbound term becomes nil, a binding becomes map[string]any, lists become
// []any and booleans become "true" or "false".

func plainTerm(t ir.Term) any {
	if !t.IsBound() {
		return nil
	}
	return t.Value
}

func plainTerms(ts []ir.Term) []any {
	out := make([]any, len(ts))
	for i, t := range ts {
		out[i] = plainTerm(t)
	}
	return out
}

func plainBinding(b ir.Binding) any {
	if b == nil {
		return nil
	}
	out := make(map[string]any, len(b))
	for k, t := range b {
		out[k] = plainTerm(t)
	}
	return out
}

func plainRows(rows []ir.Binding) []any {
	out := make([]any, len(rows))
	for i, b := range rows {
		out[i] = plainBinding(b)
	}
	return out
}

func plainCols(cols map[string][]ir.Term) any {
	if cols == nil {
		return nil
	}
	out := make(map[string]any, len(cols))
	for k, col := range cols {
		out[k] = plainTerms(col)
	}
	return out
}

// plainFromNode decodes a YAML node into plain form.
func plainFromNode(n yaml.Node) (any, error) {
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, fmt.Errorf("line %d: %w", n.Line, err)
	}
	return normalizePlain(v)
}

// normalizePlain turns decoded YAML scalars into strings so that 30, "30"
// and a literal with value "30" compare equal.
func normalizePlain(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			n, err := normalizePlain(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			n, err := normalizePlain(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func plainEqual(want, got any) bool {
	return reflect.DeepEqual(want, got)
}

// plainLen is the length used by expect.len.
func plainLen(v any) int {
	switch val := v.(type) {
	case nil:
		return 0
	case []any:
		return len(val)
	case map[string]any:
		return len(val)
	default:
		return 1
	}
}

// describe renders a plain value as canonical JSON for messages.
func describe(v any) string {
	b, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
