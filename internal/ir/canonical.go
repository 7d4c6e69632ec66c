package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 style canonical JSON.
// Golden traces and journal payloads use it so identical results produce
// identical bytes.
//
// Key differences from standard json.Marshal:
// 1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
// 2. No HTML escaping (< > & are NOT escaped)
// 3. Strings are NFC normalized
// 4. No floats (returns error)
// 5. null is allowed and encodes unbound terms
func MarshalCanonical(v any) ([]byte, error) {
	return marshalCanonical(v)
}

func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case string:
		return marshalCanonicalString(val)
	case int:
		return []byte(fmt.Sprintf("%d", val)), nil
	case int64:
		return []byte(fmt.Sprintf("%d", val)), nil
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case []string:
		arr := make([]any, len(val))
		for i, s := range val {
			arr[i] = s
		}
		return marshalCanonicalArray(arr)
	case []any:
		return marshalCanonicalArray(val)
	case map[string]any:
		return marshalCanonicalObject(val)
	case map[string]string:
		obj := make(map[string]any, len(val))
		for k, s := range val {
			obj[k] = s
		}
		return marshalCanonicalObject(obj)
	case Term:
		return marshalCanonical(termToCanonical(val))
	case *Term:
		if val == nil {
			return []byte("null"), nil
		}
		return marshalCanonical(termToCanonical(*val))
	case []Term:
		arr := make([]any, len(val))
		for i, t := range val {
			arr[i] = termToCanonical(t)
		}
		return marshalCanonicalArray(arr)
	case Binding:
		return marshalCanonicalObject(bindingToCanonical(val))
	case []Binding:
		if val == nil {
			return []byte("null"), nil
		}
		arr := make([]any, len(val))
		for i, b := range val {
			arr[i] = bindingToCanonical(b)
		}
		return marshalCanonicalArray(arr)
	case map[string][]Term:
		if val == nil {
			return []byte("null"), nil
		}
		obj := make(map[string]any, len(val))
		for k, col := range val {
			arr := make([]any, len(col))
			for i, t := range col {
				arr[i] = termToCanonical(t)
			}
			obj[k] = arr
		}
		return marshalCanonicalObject(obj)
	case *ResultSet:
		if val == nil {
			return []byte("null"), nil
		}
		return marshalCanonical(resultSetToCanonical(val))
	case *OrderedMap:
		return marshalCanonical(val.Map())
	case float64, float32:
		return nil, fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// termToCanonical converts a term to its results-format object, or nil
// when unbound.
func termToCanonical(t Term) any {
	if !t.IsBound() {
		return nil
	}
	obj := map[string]any{
		"type":  t.Kind.String(),
		"value": t.Value,
	}
	if t.Datatype != "" {
		obj["datatype"] = t.Datatype
	}
	if t.Lang != "" {
		obj["xml:lang"] = t.Lang
	}
	return obj
}

func bindingToCanonical(b Binding) map[string]any {
	obj := make(map[string]any, len(b))
	for k, t := range b {
		obj[k] = termToCanonical(t)
	}
	return obj
}

func resultSetToCanonical(rs *ResultSet) map[string]any {
	vars := make([]any, len(rs.Vars))
	for i, v := range rs.Vars {
		vars[i] = v
	}
	out := map[string]any{"head": map[string]any{"vars": vars}}
	if rs.Boolean != nil {
		out["boolean"] = *rs.Boolean
		return out
	}
	bindings := make([]any, len(rs.Bindings))
	for i, b := range rs.Bindings {
		bindings[i] = bindingToCanonical(b)
	}
	out["results"] = map[string]any{"bindings": bindings}
	return out
}

// marshalCanonicalString produces canonical JSON string with NFC normalization.
// CRITICAL: RFC 8785 compliance:
// - No HTML escaping (<, >, & are NOT escaped)
// - U+2028 (LINE SEPARATOR) and U+2029 (PARAGRAPH SEPARATOR) are NOT escaped
// - Only control characters (U+0000-U+001F), backslash, and quote are escaped
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds trailing newline, remove it
	result := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	return unescapeLineSeparators(result), nil
}

// unescapeLineSeparators turns \u2028 and \u2029 escapes back into literal
// characters, leaving \\u2028 (escaped backslash + text) untouched.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+5 < len(data) &&
			data[i+1] == 'u' && data[i+2] == '2' && data[i+3] == '0' && data[i+4] == '2' &&
			(data[i+5] == '8' || data[i+5] == '9') {
			// Even number of backslashes already emitted means this one starts an escape.
			backslashes := 0
			for j := len(out) - 1; j >= 0 && out[j] == '\\'; j-- {
				backslashes++
			}
			if backslashes%2 == 0 {
				if data[i+5] == '8' {
					out = append(out, "\u2028"...)
				} else {
					out = append(out, "\u2029"...)
				}
				i += 5
				continue
			}
		}
		out = append(out, data[i])
	}
	return out
}

// marshalCanonicalArray marshals an array to canonical JSON.
func marshalCanonicalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := marshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}

	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// marshalCanonicalObject marshals an object to canonical JSON with RFC 8785 key ordering.
func marshalCanonicalObject(obj map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range sortedKeys(obj) {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyBytes, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := marshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// sortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// CRITICAL: Go's sort.Strings uses UTF-8 which produces DIFFERENT order.
func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	for i := 0; i < min(len(a16), len(b16)); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	// If all compared units are equal, shorter string comes first
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}
