package reshape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlc/internal/ir"
)

func spoResults(n int) *ir.ResultSet {
	rs := &ir.ResultSet{Vars: []string{"s", "p", "o"}, Bindings: []ir.Binding{}}
	for i := 0; i < n; i++ {
		rs.Bindings = append(rs.Bindings, ir.Binding{
			"s": ir.IRI("urn:s"),
			"p": ir.IRI("urn:p"),
			"o": ir.PlainLiteral(string(rune('a' + i))),
		})
	}
	return rs
}

func TestRows(t *testing.T) {
	assert.Nil(t, Rows(nil))

	rs := spoResults(2)
	assert.Equal(t, rs.Bindings, Rows(rs))

	empty := spoResults(0)
	rows := Rows(empty)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestCols(t *testing.T) {
	assert.Nil(t, Cols(nil))

	for _, n := range []int{0, 1, 5} {
		cols := Cols(spoResults(n))
		require.Len(t, cols, 3)
		for _, name := range []string{"s", "p", "o"} {
			assert.Len(t, cols[name], n, "column %s", name)
		}
	}
}

func TestCols_PositionalZip(t *testing.T) {
	rs := &ir.ResultSet{
		Vars: []string{"name", "email"},
		Bindings: []ir.Binding{
			{"name": ir.PlainLiteral("alice"), "email": ir.IRI("mailto:a@x")},
			{"name": ir.PlainLiteral("bob")},
			{"email": ir.IRI("mailto:c@x")},
		},
	}

	cols := Cols(rs)

	assert.Equal(t, []ir.Term{ir.PlainLiteral("alice"), ir.PlainLiteral("bob"), {}}, cols["name"])
	assert.Equal(t, []ir.Term{ir.IRI("mailto:a@x"), {}, ir.IRI("mailto:c@x")}, cols["email"])
	assert.False(t, cols["email"][1].IsBound())
}

func TestRow(t *testing.T) {
	assert.Nil(t, Row(nil))
	assert.Nil(t, Row(spoResults(0)))

	rs := spoResults(3)
	assert.Equal(t, rs.Bindings[0], Row(rs))
}

func TestOneKey(t *testing.T) {
	rs := &ir.ResultSet{Vars: []string{"a", "b", "c"}}

	tests := []struct {
		name    string
		rs      *ir.ResultSet
		binding ir.Binding
		want    string
		wantOK  bool
	}{
		{"first declared", rs, ir.Binding{"c": ir.IRI("urn:c"), "b": ir.IRI("urn:b")}, "b", true},
		{"sole variable", rs, ir.Binding{"c": ir.IRI("urn:c")}, "c", true},
		{"undeclared falls back to smallest", rs, ir.Binding{"z": ir.IRI("urn:z"), "y": ir.IRI("urn:y")}, "y", true},
		{"nil result set", nil, ir.Binding{"q": ir.IRI("urn:q"), "k": ir.IRI("urn:k")}, "k", true},
		{"empty binding", rs, ir.Binding{}, "", false},
		{"nil binding", rs, nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := OneKey(tt.rs, tt.binding)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOneKey_Deterministic(t *testing.T) {
	rs := &ir.ResultSet{Vars: []string{"s", "p", "o"}}
	b := ir.Binding{"o": ir.IRI("urn:o"), "p": ir.IRI("urn:p"), "s": ir.IRI("urn:s")}
	for i := 0; i < 50; i++ {
		got, _ := OneKey(rs, b)
		require.Equal(t, "s", got)
	}
}

func TestCol(t *testing.T) {
	t.Run("nil result set is empty", func(t *testing.T) {
		col := Col(nil)
		assert.NotNil(t, col)
		assert.Empty(t, col)
	})

	t.Run("no bindings is empty", func(t *testing.T) {
		col := Col(spoResults(0))
		assert.NotNil(t, col)
		assert.Empty(t, col)
	})

	t.Run("first declared key", func(t *testing.T) {
		rs := &ir.ResultSet{
			Vars: []string{"v"},
			Bindings: []ir.Binding{
				{"v": ir.TypedLiteral("1", "http://www.w3.org/2001/XMLSchema#integer")},
				{"v": ir.TypedLiteral("2", "http://www.w3.org/2001/XMLSchema#integer")},
				{"v": ir.TypedLiteral("3", "http://www.w3.org/2001/XMLSchema#integer")},
			},
		}
		col := Col(rs)
		require.Len(t, col, 3)
		assert.Equal(t, "2", col[1].Value)
	})

	t.Run("missing key is unbound", func(t *testing.T) {
		rs := &ir.ResultSet{
			Vars: []string{"s"},
			Bindings: []ir.Binding{
				{"s": ir.IRI("urn:a")},
				{},
			},
		}
		assert.Equal(t, []ir.Term{ir.IRI("urn:a"), {}}, Col(rs))
	})

	t.Run("empty first binding", func(t *testing.T) {
		rs := &ir.ResultSet{Vars: []string{"s"}, Bindings: []ir.Binding{{}, {"s": ir.IRI("urn:a")}}}
		col := Col(rs)
		assert.Len(t, col, 2)
		assert.False(t, col[1].IsBound())
	})
}

func TestCell(t *testing.T) {
	assert.Nil(t, Cell(nil))
	assert.Nil(t, Cell(spoResults(0)))
	assert.Nil(t, Cell(&ir.ResultSet{Vars: []string{"v"}, Bindings: []ir.Binding{{}}}))

	rs := &ir.ResultSet{
		Vars:     []string{"v"},
		Bindings: []ir.Binding{{"v": ir.IRI("urn:o1")}, {"v": ir.IRI("urn:o2")}},
	}
	cell := Cell(rs)
	require.NotNil(t, cell)
	assert.Equal(t, ir.TermIRI, cell.Kind)
	assert.Equal(t, "urn:o1", cell.Value)
}
