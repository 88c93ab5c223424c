package jwt

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
)

// Map is an ordered JSON object.
// Members are serialized in insertion order.
type Map struct {
	keys []string
	vals map[string]Value
}

// NewMap returns an empty Map
func NewMap() *Map {
	return &Map{vals: map[string]Value{}}
}

// ParseMap parses a JSON object.
// Duplicate members keep the position of the first occurrence
// and the value of the last one.
func ParseMap(b []byte) (*Map, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, wrapError(KindInvalidJSON, err, "invalid JSON")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, newError(KindInvalidJSON, "invalid JSON: expected object")
	}
	m, err := decodeObject(dec)
	if err != nil {
		return nil, wrapError(KindInvalidJSON, err, "invalid JSON")
	}
	if _, err = dec.Token(); err != io.EOF {
		return nil, newError(KindInvalidJSON, "invalid JSON: unexpected data after object")
	}
	return m, nil
}

// MapFromInterface returns Map from a plain map.
// Go maps are not ordered, so the keys are added in sorted order.
func MapFromInterface(src map[string]any) (*Map, error) {
	// encoding/json sorts map keys, which gives a stable order
	raw, err := json.Marshal(src)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return ParseMap(raw)
}

// Len returns the number of members
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns member names in order
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Has returns true if the member exists
func (m *Map) Has(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.vals[key]
	return ok
}

// Get returns the member value
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Set adds or replaces the member.
// A replaced member keeps its position.
func (m *Map) Set(key string, val Value) *Map {
	if m.vals == nil {
		m.vals = map[string]Value{}
	}
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = val
	return m
}

// SetAny converts val with ValueOf and sets the member
func (m *Map) SetAny(key string, val any) error {
	v, err := ValueOf(val)
	if err != nil {
		return errors.WithMessagef(err, "unable to set %q", key)
	}
	m.Set(key, v)
	return nil
}

// Delete removes the member
func (m *Map) Delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Range calls fn for each member in order, until fn returns false
func (m *Map) Range(fn func(key string, val Value) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.vals[k]) {
			return
		}
	}
}

// Clone returns a deep copy
func (m *Map) Clone() *Map {
	c := NewMap()
	m.Range(func(k string, v Value) bool {
		c.Set(k, cloneValue(v))
		return true
	})
	return c
}

// Merge sets all members of o, in order
func (m *Map) Merge(o *Map) *Map {
	o.Range(func(k string, v Value) bool {
		m.Set(k, cloneValue(v))
		return true
	})
	return m
}

// Equal returns true if both maps have the same members in the same order
func (m *Map) Equal(o *Map) bool {
	if m.Len() != o.Len() {
		return false
	}
	for i, k := range m.keys {
		if o.keys[i] != k || !m.vals[k].Equal(o.vals[k]) {
			return false
		}
	}
	return true
}

// ToInterface returns plain map with values converted by Value.Interface
func (m *Map) ToInterface() map[string]any {
	res := make(map[string]any, m.Len())
	m.Range(func(k string, v Value) bool {
		res[k] = v.Interface()
		return true
	})
	return res
}

// Marshal returns JSON encoded object
func (m *Map) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler
func (m *Map) MarshalJSON() ([]byte, error) {
	return m.Marshal()
}

// UnmarshalJSON implements json.Unmarshaler
func (m *Map) UnmarshalJSON(b []byte) error {
	parsed, err := ParseMap(b)
	if err != nil {
		return err
	}
	*m = *parsed
	return nil
}

// String returns JSON encoded object
func (m *Map) String() string {
	b, err := m.Marshal()
	if err != nil {
		return ""
	}
	return string(b)
}

func (m *Map) encode(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	var err error
	first := true
	m.Range(func(k string, v Value) bool {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		var key []byte
		key, err = json.Marshal(k)
		if err != nil {
			return false
		}
		buf.Write(key)
		buf.WriteByte(':')
		err = v.encode(buf)
		return err == nil
	})
	if err != nil {
		return errors.WithStack(err)
	}
	buf.WriteByte('}')
	return nil
}

func cloneValue(v Value) Value {
	switch v.kind {
	case ArrayValue:
		items := make([]Value, len(v.arr))
		for i, item := range v.arr {
			items[i] = cloneValue(item)
		}
		return Array(items...)
	case ObjectValue:
		return Object(v.obj.Clone())
	}
	return v
}
