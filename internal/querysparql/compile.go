package querysparql

import (
	"fmt"

	"github.com/roach88/sparqlc/internal/queryir"
)

// Compiler compiles mutations to SPARQL Update text.
type Compiler struct{}

// NewCompiler creates a new Compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile validates m and returns its update text.
// Validation failures are returned as *queryir.ValidationError.
func (c *Compiler) Compile(m queryir.Mutation) (string, error) {
	if err := queryir.Validate(m); err != nil {
		return "", err
	}

	switch mut := m.(type) {
	case queryir.Set:
		return c.compileSet(mut)
	case *queryir.Set:
		return c.compileSet(*mut)
	case queryir.MultiSet:
		return c.compileMultiSet(mut)
	case *queryir.MultiSet:
		return c.compileMultiSet(*mut)
	default:
		return "", fmt.Errorf("unsupported mutation type: %T", m)
	}
}

func (c *Compiler) compileSet(s queryir.Set) (string, error) {
	q, err := GenerateSet(s.Graph, s.Subject, s.Predicate, s.Object, s.Inverted)
	if err != nil {
		return "", fmt.Errorf("compile set: %w", err)
	}
	return q, nil
}

func (c *Compiler) compileMultiSet(m queryir.MultiSet) (string, error) {
	q, err := GenerateMSet(m.Graph, m.Subject, m.Attributes)
	if err != nil {
		return "", fmt.Errorf("compile mset: %w", err)
	}
	return q, nil
}
