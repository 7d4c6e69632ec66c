package querysparql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/sparqlc/internal/ir"
)

var (
	// ErrEntityArity is returned when the entity side of a set does not
	// hold exactly one term.
	ErrEntityArity = errors.New("set entity must hold exactly one value")

	// ErrNoAttributes is returned by GenerateMSet for an empty attribute map.
	ErrNoAttributes = errors.New("mset requires at least one attribute")
)

// setVar is the variable standing for the values being replaced.
const setVar = "?x"

// GenerateSet builds a replace-or-clear update for one predicate.
//
// With (entity, value) = (subject, object), or (object, subject) when
// inverted, the delete pattern is "<entity> <predicate> ?x" (inverted:
// "?x <predicate> <entity>"). A non-empty value produces
//
//	MODIFY g DELETE { del } INSERT { ins1 . ins2 } WHERE { OPTIONAL { del } }
//
// and a nil or empty value produces
//
//	DELETE FROM g { del } WHERE { del }
func GenerateSet(graph string, subject ir.ValueSpec, predicate string, object ir.ValueSpec, inverted bool) (string, error) {
	entity, value := subject, object
	if inverted {
		entity, value = object, subject
	}
	if len(entity) != 1 {
		return "", fmt.Errorf("%w: got %d", ErrEntityArity, len(entity))
	}

	e, err := RenderScalar(entity[0])
	if err != nil {
		return "", fmt.Errorf("entity: %w", err)
	}

	triple := func(v string) string {
		if inverted {
			return v + " " + predicate + " " + e
		}
		return e + " " + predicate + " " + v
	}
	del := triple(setVar)

	value = ir.NormalizeValue(value)
	if value == nil {
		return "DELETE FROM " + graph + " { " + del + " } WHERE { " + del + " }", nil
	}

	ins := make([]string, len(value))
	for i, sc := range value {
		v, err := RenderScalar(sc)
		if err != nil {
			return "", fmt.Errorf("value[%d]: %w", i, err)
		}
		ins[i] = triple(v)
	}

	return "MODIFY " + graph +
		" DELETE { " + del + " }" +
		" INSERT { " + strings.Join(ins, " . ") + " }" +
		" WHERE { OPTIONAL { " + del + " } }", nil
}

// GenerateMSet builds an insert of several predicate/literal pairs sharing
// one subject, in attribute order:
//
//	INSERT INTO g { s p1 'v1' ; p2 'v2' . }
//
// Values are quoted with QuoteLiteral.
func GenerateMSet(graph, subject string, attrs *ir.OrderedMap) (string, error) {
	if attrs.Len() == 0 {
		return "", ErrNoAttributes
	}

	pairs := make([]string, 0, attrs.Len())
	for pred, val := range attrs.All() {
		pairs = append(pairs, pred+" "+QuoteLiteral(val))
	}

	return "INSERT INTO " + graph + " { " + subject + " " + strings.Join(pairs, " ; ") + " . }", nil
}

// RenderScalar renders one scalar as SPARQL term syntax.
func RenderScalar(s ir.Scalar) (string, error) {
	switch v := s.(type) {
	case ir.Raw:
		return string(v), nil
	case ir.Int:
		return strconv.FormatInt(int64(v), 10), nil
	case ir.Bool:
		return strconv.FormatBool(bool(v)), nil
	case ir.Literal:
		return QuoteLiteral(string(v)), nil
	case nil:
		return "", fmt.Errorf("nil scalar")
	default:
		return "", fmt.Errorf("unsupported scalar type: %T", s)
	}
}
