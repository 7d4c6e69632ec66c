package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"slices"

	"gopkg.in/yaml.v3"
)

// OrderedMap is a string-to-string map that iterates in insertion order.
//
// It backs both the client prefix map (short name to namespace IRI) and the
// mset attribute map (predicate to literal), so generated query text is
// deterministic. Re-setting an existing key keeps its original position.
//
// The zero value is ready to use. OrderedMap is not safe for concurrent
// mutation.
type OrderedMap struct {
	keys   []string
	values map[string]string
}

// Pair is a key/value entry used to build an OrderedMap.
type Pair struct {
	Key   string
	Value string
}

// P is a shorthand for Pair.
// Example: NewOrderedMap(P("foaf", "http://xmlns.com/foaf/0.1/"))
func P(key, value string) Pair {
	return Pair{Key: key, Value: value}
}

// NewOrderedMap creates an OrderedMap holding pairs in the given order.
func NewOrderedMap(pairs ...Pair) *OrderedMap {
	m := &OrderedMap{}
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}
	return m
}

// OrderedMapFromMap creates an OrderedMap from a plain map.
// Go maps have no order, so keys are inserted in sorted order.
func OrderedMapFromMap(src map[string]string) *OrderedMap {
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	m := &OrderedMap{}
	for _, k := range keys {
		m.Set(k, src[k])
	}
	return m
}

// Set stores value under key.
func (m *OrderedMap) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *OrderedMap) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.values[key]
	return v, ok
}

// Delete removes key. Deleting a missing key is a no-op.
func (m *OrderedMap) Delete(key string) {
	if m == nil {
		return
	}
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	m.keys = slices.DeleteFunc(m.keys, func(k string) bool { return k == key })
}

// Len returns the number of entries. A nil map has length zero.
func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *OrderedMap) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// All iterates over entries in insertion order.
func (m *OrderedMap) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// Clone returns an independent copy.
func (m *OrderedMap) Clone() *OrderedMap {
	c := &OrderedMap{}
	for k, v := range m.All() {
		c.Set(k, v)
	}
	return c
}

// Map returns the entries as a plain map.
func (m *OrderedMap) Map() map[string]string {
	out := make(map[string]string, m.Len())
	for k, v := range m.All() {
		out[k] = v
	}
	return out
}

// MarshalJSON writes entries as a JSON object in insertion order.
func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	for k, v := range m.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		i++
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of strings, keeping document order.
func (m *OrderedMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("ordered map: expected JSON object")
	}

	*m = OrderedMap{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("ordered map: expected string key")
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("ordered map key %q: %w", key, err)
		}
		m.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// UnmarshalYAML reads a YAML mapping of scalars, keeping document order.
func (m *OrderedMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: ordered map must be a mapping", node.Line)
	}

	*m = OrderedMap{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		if valNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: value for %q must be a scalar", valNode.Line, keyNode.Value)
		}
		m.Set(keyNode.Value, valNode.Value)
	}
	return nil
}
