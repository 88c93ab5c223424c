package jwt

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
)

// ValueKind is the type of a JSON value
type ValueKind int

// JSON value kinds
const (
	NullValue ValueKind = iota
	BoolValue
	NumberValue
	StringValue
	ArrayValue
	ObjectValue
)

// String returns the name of the kind
func (k ValueKind) String() string {
	switch k {
	case NullValue:
		return "null"
	case BoolValue:
		return "bool"
	case NumberValue:
		return "number"
	case StringValue:
		return "string"
	case ArrayValue:
		return "array"
	case ObjectValue:
		return "object"
	}
	return "unknown"
}

// Value is a JSON value.
// The zero Value is null.
type Value struct {
	kind ValueKind
	b    bool
	s    string // string value, or number literal
	arr  []Value
	obj  *Map
}

// Null returns null Value
func Null() Value { return Value{} }

// Bool returns bool Value
func Bool(b bool) Value { return Value{kind: BoolValue, b: b} }

// String returns string Value
func String(s string) Value { return Value{kind: StringValue, s: s} }

// Number returns number Value from JSON number literal
func Number(n json.Number) Value { return Value{kind: NumberValue, s: n.String()} }

// Int returns number Value
func Int(i int64) Value { return Value{kind: NumberValue, s: strconv.FormatInt(i, 10)} }

// Float returns number Value formatted as encoding/json does,
// NaN and infinities are returned as null
func Float(f float64) Value {
	b, err := json.Marshal(f)
	if err != nil {
		return Null()
	}
	return Value{kind: NumberValue, s: string(b)}
}

// Array returns array Value
func Array(items ...Value) Value { return Value{kind: ArrayValue, arr: items} }

// Object returns object Value
func Object(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: ObjectValue, obj: m}
}

// Kind returns the kind of the value
func (v Value) Kind() ValueKind { return v.kind }

// IsNull returns true for null value
func (v Value) IsNull() bool { return v.kind == NullValue }

// AsBool returns the bool value
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == BoolValue
}

// AsString returns the string value
func (v Value) AsString() (string, bool) {
	if v.kind != StringValue {
		return "", false
	}
	return v.s, true
}

// AsNumber returns the number literal
func (v Value) AsNumber() (json.Number, bool) {
	if v.kind != NumberValue {
		return "", false
	}
	return json.Number(v.s), true
}

// AsInt64 returns the number as int64, if it is integral
func (v Value) AsInt64() (int64, bool) {
	if v.kind != NumberValue {
		return 0, false
	}
	if i, err := strconv.ParseInt(v.s, 10, 64); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(v.s, 64)
	if err != nil || f != math.Trunc(f) || f >= 1<<63 || f < -(1<<63) {
		return 0, false
	}
	return int64(f), true
}

// AsFloat64 returns the number as float64
func (v Value) AsFloat64() (float64, bool) {
	if v.kind != NumberValue {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// AsArray returns the array items
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != ArrayValue {
		return nil, false
	}
	return v.arr, true
}

// AsObject returns the object
func (v Value) AsObject() (*Map, bool) {
	if v.kind != ObjectValue {
		return nil, false
	}
	return v.obj, true
}

// Interface returns the plain Go representation:
// nil, bool, json.Number, string, []any or map[string]any
func (v Value) Interface() any {
	switch v.kind {
	case BoolValue:
		return v.b
	case NumberValue:
		return json.Number(v.s)
	case StringValue:
		return v.s
	case ArrayValue:
		list := make([]any, len(v.arr))
		for i, item := range v.arr {
			list[i] = item.Interface()
		}
		return list
	case ObjectValue:
		return v.obj.ToInterface()
	}
	return nil
}

// Equal returns true if both values are the same
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case BoolValue:
		return v.b == o.b
	case StringValue, NumberValue:
		return v.s == o.s
	case ArrayValue:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case ObjectValue:
		return v.obj.Equal(o.obj)
	}
	return true
}

// MarshalJSON implements json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (v *Value) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	val, err := decodeValue(dec)
	if err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after JSON value")
	}
	*v = val
	return nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case NullValue:
		buf.WriteString("null")
	case BoolValue:
		buf.WriteString(strconv.FormatBool(v.b))
	case NumberValue:
		buf.WriteString(v.s)
	case StringValue:
		b, err := json.Marshal(v.s)
		if err != nil {
			return errors.WithStack(err)
		}
		buf.Write(b)
	case ArrayValue:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case ObjectValue:
		return v.obj.encode(buf)
	default:
		return errors.Errorf("unsupported value kind: %d", v.kind)
	}
	return nil
}

// ValueOf converts a plain Go value to Value.
// Supported: nil, Value, *Map, bool, string, json.Number, integer and float types,
// time.Time (as NumericDate), []any, []string, map[string]any;
// anything else is converted through its JSON encoding.
func ValueOf(i any) (Value, error) {
	switch t := i.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case *Map:
		return Object(t.Clone()), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		if _, err := strconv.ParseFloat(t.String(), 64); err != nil {
			return Value{}, errors.Errorf("invalid number: %q", t.String())
		}
		return Number(t), nil
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return Value{kind: NumberValue, s: strconv.FormatUint(uint64(t), 10)}, nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		return Value{kind: NumberValue, s: strconv.FormatUint(t, 10)}, nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return Value{}, errors.Errorf("unsupported number: %v", t)
		}
		return Float(t), nil
	case time.Time:
		return NewNumericDate(t).Value(), nil
	case NumericDate:
		return t.Value(), nil
	case []string:
		items := make([]Value, len(t))
		for idx, s := range t {
			items[idx] = String(s)
		}
		return Array(items...), nil
	case []any:
		items := make([]Value, len(t))
		for idx, item := range t {
			v, err := ValueOf(item)
			if err != nil {
				return Value{}, err
			}
			items[idx] = v
		}
		return Array(items...), nil
	case map[string]any:
		m, err := MapFromInterface(t)
		if err != nil {
			return Value{}, err
		}
		return Object(m), nil
	default:
		raw, err := json.Marshal(i)
		if err != nil {
			return Value{}, errors.WithMessagef(err, "unsupported value: %T", i)
		}
		var v Value
		if err = v.UnmarshalJSON(raw); err != nil {
			return Value{}, err
		}
		return v, nil
	}
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, errors.WithStack(err)
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return Number(t), nil
	case json.Delim:
		switch t {
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, errors.WithStack(err)
			}
			return Array(items...), nil
		case '{':
			m, err := decodeObject(dec)
			if err != nil {
				return Value{}, err
			}
			return Object(m), nil
		}
	}
	return Value{}, errors.Errorf("unexpected JSON token: %v", tok)
}

// decodeObject reads the members of an object,
// after the opening delimiter has been consumed
func decodeObject(dec *json.Decoder) (*Map, error) {
	m := NewMap()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.Errorf("unexpected object key: %v", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		m.Set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, errors.WithStack(err)
	}
	return m, nil
}
