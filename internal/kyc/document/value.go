// Package document models the open, provider-shaped data attached to a verification
// record as a tagged JSON value, and defines how two such documents merge.
//
// Values are immutable: every operation that changes a document returns a new Value
// and leaves its inputs untouched, so a record read from a store can be merged into
// without aliasing the stored copy.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a JSON-like tagged value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	n    json.Number
	s    string
	arr  []Value
	obj  map[string]Value
}

func Null() Value           { return Value{} }
func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }
func String(s string) Value { return Value{kind: KindString, s: s} }

func Int(i int64) Value {
	return Value{kind: KindNumber, n: json.Number(strconv.FormatInt(i, 10))}
}

func Float(f float64) Value {
	return Value{kind: KindNumber, n: json.Number(strconv.FormatFloat(f, 'g', -1, 64))}
}

func Number(n json.Number) Value {
	return Value{kind: KindNumber, n: n}
}

// Array builds an array value. The slice is copied.
func Array(items ...Value) Value {
	return Value{kind: KindArray, arr: append([]Value(nil), items...)}
}

// Object builds an object value. The map is copied.
func Object(fields map[string]Value) Value {
	obj := make(map[string]Value, len(fields))
	for k, v := range fields {
		obj[k] = v
	}
	return Value{kind: KindObject, obj: obj}
}

// EmptyObject returns an object with no keys.
func EmptyObject() Value {
	return Value{kind: KindObject, obj: map[string]Value{}}
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) IsObject() bool { return v.kind == KindObject }

// AsString returns the string payload and whether v is a string.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsBool returns the bool payload and whether v is a bool.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsNumber returns the number payload and whether v is a number.
func (v Value) AsNumber() (json.Number, bool) {
	return v.n, v.kind == KindNumber
}

// Items returns a copy of an array's elements; nil for other kinds.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return append([]Value(nil), v.arr...)
}

// Len is the number of keys of an object or elements of an array.
func (v Value) Len() int {
	switch v.kind {
	case KindObject:
		return len(v.obj)
	case KindArray:
		return len(v.arr)
	default:
		return 0
	}
}

// Keys returns an object's keys in sorted order.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value under key of an object.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	child, ok := v.obj[key]
	return child, ok
}

// Lookup walks nested objects along path.
func (v Value) Lookup(path ...string) (Value, bool) {
	cur := v
	for _, key := range path {
		next, ok := cur.Get(key)
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// StringAt returns the string under path, or "" when absent or not a string.
func (v Value) StringAt(path ...string) string {
	found, ok := v.Lookup(path...)
	if !ok {
		return ""
	}
	s, _ := found.AsString()
	return s
}

// With returns a copy of the object v with key set to child. A non-object v is
// treated as an empty object.
func (v Value) With(key string, child Value) Value {
	obj := make(map[string]Value, len(v.obj)+1)
	if v.kind == KindObject {
		for k, existing := range v.obj {
			obj[k] = existing
		}
	}
	obj[key] = child
	return Value{kind: KindObject, obj: obj}
}

// Without returns a copy of the object v without key.
func (v Value) Without(key string) Value {
	if v.kind != KindObject {
		return v
	}
	obj := make(map[string]Value, len(v.obj))
	for k, existing := range v.obj {
		if k != key {
			obj[k] = existing
		}
	}
	return Value{kind: KindObject, obj: obj}
}

// Equal reports deep equality. Numbers compare by their decimal text.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.obj) != len(b.obj) {
			return false
		}
		for k, av := range a.obj {
			bv, ok := b.obj[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}

// FromAny converts decoded JSON-shaped Go values (maps, slices, strings, numbers,
// bools, nil) into a Value. Typed maps and slices of those shapes are accepted.
func FromAny(in any) (Value, error) {
	switch t := in.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return Number(t), nil
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return Number(json.Number(strconv.FormatUint(uint64(t), 10))), nil
	case uint64:
		return Number(json.Number(strconv.FormatUint(t, 10))), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case []any:
		items := make([]Value, 0, len(t))
		for i, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			items = append(items, v)
		}
		return Value{kind: KindArray, arr: items}, nil
	case []string:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			items = append(items, String(item))
		}
		return Value{kind: KindArray, arr: items}, nil
	case map[string]any:
		obj := make(map[string]Value, len(t))
		for k, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			obj[k] = v
		}
		return Value{kind: KindObject, obj: obj}, nil
	case map[string]string:
		obj := make(map[string]Value, len(t))
		for k, item := range t {
			obj[k] = String(item)
		}
		return Value{kind: KindObject, obj: obj}, nil
	default:
		// Fall back to a JSON round trip for structs and other encodable types.
		raw, err := json.Marshal(t)
		if err != nil {
			return Value{}, fmt.Errorf("unsupported document value %T: %w", in, err)
		}
		return Parse(raw)
	}
}

// MustFromAny is FromAny for literals in tests and fixtures.
func MustFromAny(in any) Value {
	v, err := FromAny(in)
	if err != nil {
		panic(err)
	}
	return v
}

// Any converts v back into plain Go values (map[string]any, []any, string,
// json.Number, bool, nil).
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Any()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, item := range v.obj {
			out[k] = item.Any()
		}
		return out
	default:
		return nil
	}
}

// Parse decodes JSON into a Value, keeping numbers as their literal text.
func Parse(raw []byte) (Value, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Null(), nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return Value{}, fmt.Errorf("decode document: %w", err)
	}
	return FromAny(decoded)
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		if v.n == "" {
			return []byte("0"), nil
		}
		return []byte(v.n), nil
	case KindString:
		return json.Marshal(v.s)
	case KindArray:
		if v.arr == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.arr)
	case KindObject:
		if v.obj == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.obj)
	}
	return nil, fmt.Errorf("marshal document: unknown kind %s", v.kind)
}

func (v *Value) UnmarshalJSON(raw []byte) error {
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
