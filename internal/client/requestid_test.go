package client

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("req-1", "req-2")
	assert.Equal(t, "req-1", gen.Generate())
	assert.Equal(t, "req-2", gen.Generate())
	assert.PanicsWithValue(t, "FixedGenerator: all request IDs exhausted", func() { gen.Generate() })
}

func TestSequenceGenerator(t *testing.T) {
	gen := NewSequenceGenerator("scenario")
	assert.Equal(t, "scenario-1", gen.Generate())
	assert.Equal(t, "scenario-2", gen.Generate())
}
