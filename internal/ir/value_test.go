package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeValue(t *testing.T) {
	assert.Nil(t, NormalizeValue(nil))
	assert.Nil(t, NormalizeValue(ValueSpec{}))
	assert.Equal(t, ValueSpec{Int(1)}, NormalizeValue(ValueSpec{Int(1)}))
}

func TestValueSpecIsClear(t *testing.T) {
	assert.True(t, ValueSpec(nil).IsClear())
	assert.True(t, ValueSpec{}.IsClear())
	assert.False(t, One(Bool(true)).IsClear())
}

func TestRaws(t *testing.T) {
	assert.Nil(t, Raws())
	assert.Equal(t, ValueSpec{Raw("<urn:a>"), Raw("<urn:b>")}, Raws("<urn:a>", "<urn:b>"))
}

func TestToValueSpec(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  ValueSpec
	}{
		{"nil clears", nil, nil},
		{"empty list clears", []any{}, nil},
		{"empty typed list clears", []int{}, nil},
		{"string is raw", "<urn:x>", ValueSpec{Raw("<urn:x>")}},
		{"int", 1, ValueSpec{Int(1)}},
		{"int64", int64(7), ValueSpec{Int(7)}},
		{"uint8", uint8(3), ValueSpec{Int(3)}},
		{"bool", true, ValueSpec{Bool(true)}},
		{"scalar", Literal("o'k"), ValueSpec{Literal("o'k")}},
		{"mixed list", []any{1, "x", false}, ValueSpec{Int(1), Raw("x"), Bool(false)}},
		{"typed int list", []int{1, 2, 3}, ValueSpec{Int(1), Int(2), Int(3)}},
		{"string list", []string{"a"}, ValueSpec{Raw("a")}},
		{"value spec", ValueSpec{Int(9)}, ValueSpec{Int(9)}},
		{"scalar list", []Scalar{Raw("z")}, ValueSpec{Raw("z")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToValueSpec(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToValueSpec_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		wantErr string
	}{
		{"float", 1.5, "floats are not supported"},
		{"float in list", []any{1, 2.5}, "value[1]"},
		{"null in list", []any{nil}, "null is not allowed"},
		{"nested list", []any{[]any{1}}, "unsupported value type"},
		{"map", map[string]any{"a": 1}, "unsupported value type"},
		{"uint64 overflow", uint64(1 << 63), "overflows int64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToValueSpec(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
