package ir

import (
	"fmt"
	"reflect"
)

// Scalar is a sealed interface for one value in a set mutation.
// Only Raw, Int, Bool, and Literal implement this.
// NO float scalar - float formatting is ambiguous in query text; callers
// who need a decimal write it as Raw.
//
// Scalars carry data only. Rendering them into query text is done by the
// query generator so all interpolation lives in one place.
type Scalar interface {
	scalar() // Sealed - only these types implement it
}

// Raw is SPARQL term syntax inserted verbatim, e.g. "<urn:x>", "\"a\"@en",
// "ex:thing" or "42". Callers are responsible for its validity.
type Raw string

func (Raw) scalar() {}

// Int is an integer rendered in decimal.
type Int int64

func (Int) scalar() {}

// Bool is rendered as true or false.
type Bool bool

func (Bool) scalar() {}

// Literal is a plain string rendered as a quoted, escaped literal.
type Literal string

func (Literal) scalar() {}

// ValueSpec is the value side of a set mutation.
//
// nil means "delete existing value(s), set none". A non-empty list means
// "replace with these values". An empty list is normalized to nil.
type ValueSpec []Scalar

// One creates a single-valued ValueSpec.
func One(s Scalar) ValueSpec {
	return ValueSpec{s}
}

// Raws creates a ValueSpec of Raw term strings.
func Raws(terms ...string) ValueSpec {
	if len(terms) == 0 {
		return nil
	}
	v := make(ValueSpec, len(terms))
	for i, t := range terms {
		v[i] = Raw(t)
	}
	return v
}

// NormalizeValue collapses an empty ValueSpec to nil.
func NormalizeValue(v ValueSpec) ValueSpec {
	if len(v) == 0 {
		return nil
	}
	return v
}

// IsClear reports whether v clears the property.
func (v ValueSpec) IsClear() bool {
	return len(v) == 0
}

// ToValueSpec converts untyped input (YAML, CUE, CLI) into a ValueSpec.
//
//   - nil, empty slices: nil (clear)
//   - string: Raw
//   - integer kinds: Int
//   - bool: Bool
//   - Scalar, ValueSpec, []Scalar: as is
//   - slices of the above: one scalar per element
//
// Floats and nested slices are rejected.
func ToValueSpec(v any) (ValueSpec, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case ValueSpec:
		return NormalizeValue(val), nil
	case []Scalar:
		return NormalizeValue(ValueSpec(val)), nil
	case []string:
		return Raws(val...), nil
	case []any:
		out := make(ValueSpec, 0, len(val))
		for i, elem := range val {
			s, err := toScalar(elem)
			if err != nil {
				return nil, fmt.Errorf("value[%d]: %w", i, err)
			}
			out = append(out, s)
		}
		return NormalizeValue(out), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		out := make(ValueSpec, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			s, err := toScalar(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("value[%d]: %w", i, err)
			}
			out = append(out, s)
		}
		return NormalizeValue(out), nil
	}

	s, err := toScalar(v)
	if err != nil {
		return nil, err
	}
	return ValueSpec{s}, nil
}

// toScalar converts one untyped value to a Scalar.
func toScalar(v any) (Scalar, error) {
	switch val := v.(type) {
	case Scalar:
		return val, nil
	case string:
		return Raw(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint:
		if uint64(val) > 1<<63-1 {
			return nil, fmt.Errorf("integer %d overflows int64", val)
		}
		return Int(val), nil
	case uint64:
		if val > 1<<63-1 {
			return nil, fmt.Errorf("integer %d overflows int64", val)
		}
		return Int(val), nil
	case float32, float64:
		return nil, fmt.Errorf("floats are not supported as values (%v): use a Raw decimal literal", val)
	case nil:
		return nil, fmt.Errorf("null is not allowed inside a value list")
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}
