package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/sparqlc/internal/ir"
)

// ValidationError lists every problem found in a mutation.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid mutation: " + strings.Join(e.Problems, "; ")
}

// Validate checks that a mutation can be compiled into a well-formed update.
//
// Rules:
//  1. Graph is required
//  2. Set: predicate is required, the entity side holds exactly one scalar,
//     and no scalar is nil or an empty Raw term
//  3. MultiSet: subject is required, at least one attribute, and no empty
//     predicate key
//
// Validate returns nil or a *ValidationError. It is a pure function.
func Validate(m Mutation) error {
	v := &validator{}
	v.validateMutation(m)
	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: v.problems}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateMutation(m Mutation) {
	if m == nil {
		v.addProblem("nil mutation")
		return
	}

	switch mut := m.(type) {
	case Set:
		v.validateSet(mut)
	case *Set:
		if mut == nil {
			v.addProblem("nil mutation")
			return
		}
		v.validateSet(*mut)
	case MultiSet:
		v.validateMultiSet(mut)
	case *MultiSet:
		if mut == nil {
			v.addProblem("nil mutation")
			return
		}
		v.validateMultiSet(*mut)
	default:
		v.addProblem("unknown mutation type: %T", m)
	}
}

func (v *validator) validateSet(s Set) {
	v.validateGraph(s.Graph)
	if strings.TrimSpace(s.Predicate) == "" {
		v.addProblem("set: predicate is required")
	}

	side := "subject"
	if s.Inverted {
		side = "object"
	}
	if n := len(s.Entity()); n != 1 {
		v.addProblem("set: %s must hold exactly one value, got %d", side, n)
	}

	v.validateScalars("subject", s.Subject)
	v.validateScalars("object", s.Object)
}

func (v *validator) validateScalars(field string, spec ir.ValueSpec) {
	for i, sc := range spec {
		switch val := sc.(type) {
		case nil:
			v.addProblem("set: %s[%d] is nil", field, i)
		case ir.Raw:
			if strings.TrimSpace(string(val)) == "" {
				v.addProblem("set: %s[%d] is an empty term", field, i)
			}
		}
	}
}

func (v *validator) validateMultiSet(m MultiSet) {
	v.validateGraph(m.Graph)
	if strings.TrimSpace(m.Subject) == "" {
		v.addProblem("mset: subject is required")
	}
	if m.Attributes.Len() == 0 {
		v.addProblem("mset: at least one attribute is required")
	}
	for pred := range m.Attributes.All() {
		if strings.TrimSpace(pred) == "" {
			v.addProblem("mset: attribute predicate is empty")
		}
	}
}

func (v *validator) validateGraph(graph string) {
	if strings.TrimSpace(graph) == "" {
		v.addProblem("graph is required")
	}
}
