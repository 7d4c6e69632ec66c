// Package reshape converts a parsed SPARQL result set into the shapes
// callers usually want: all rows, columns by variable, the first row, one
// column, or a single cell.
//
// None of the accessors fail on empty data. An absent result set yields nil
// and an empty one yields an empty shape, so callers can tell "no data"
// apart from a failed request.
package reshape

import (
	"slices"

	"github.com/roach88/sparqlc/internal/ir"
)

// Rows returns the bindings in order, or nil when rs is nil.
func Rows(rs *ir.ResultSet) []ir.Binding {
	if rs == nil {
		return nil
	}
	return rs.Bindings
}

// Cols returns, for each declared variable, its values across all bindings
// in binding order. This is a positional zip: a binding that leaves a
// variable unbound contributes the zero (unbound) Term at that position,
// so every column has one entry per binding.
func Cols(rs *ir.ResultSet) map[string][]ir.Term {
	if rs == nil {
		return nil
	}
	cols := make(map[string][]ir.Term, len(rs.Vars))
	for _, name := range rs.Vars {
		col := make([]ir.Term, len(rs.Bindings))
		for i, b := range rs.Bindings {
			col[i] = b[name]
		}
		cols[name] = col
	}
	return cols
}

// Row returns the first binding, or nil when there is none.
func Row(rs *ir.ResultSet) ir.Binding {
	if rs.Len() == 0 {
		return nil
	}
	return rs.Bindings[0]
}

// OneKey picks the representative variable of binding b: the first
// variable declared in rs that b binds. When b binds none of the declared
// variables, the lexically smallest key of b is used. ok is false only
// when b is empty.
func OneKey(rs *ir.ResultSet, b ir.Binding) (string, bool) {
	if len(b) == 0 {
		return "", false
	}
	if rs != nil {
		for _, name := range rs.Vars {
			if _, ok := b[name]; ok {
				return name, true
			}
		}
	}
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	return slices.Min(keys), true
}

// Col returns the values of the first binding's representative variable
// across all bindings. Bindings that leave it unbound contribute the zero
// Term. The result is empty (not nil) when there are no bindings.
func Col(rs *ir.ResultSet) []ir.Term {
	first := Row(rs)
	if first == nil {
		return []ir.Term{}
	}
	key, ok := OneKey(rs, first)
	if !ok {
		return make([]ir.Term, rs.Len())
	}
	col := make([]ir.Term, len(rs.Bindings))
	for i, b := range rs.Bindings {
		col[i] = b[key]
	}
	return col
}

// Cell returns the value at the first binding's representative variable,
// or nil when there are no bindings or the first binding is empty.
func Cell(rs *ir.ResultSet) *ir.Term {
	first := Row(rs)
	key, ok := OneKey(rs, first)
	if !ok {
		return nil
	}
	t := first[key]
	return &t
}
