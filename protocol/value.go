package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	ErrUnsupportedType = errors.New("Value cannot represent this Go type")
	ErrInvalidJSON     = errors.New("Data is not valid JSON")
)

// Kind identifies which of the RPC primitive types a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindDouble
	KindString
	KindArray
	KindStruct
)

var kindNames = [...]string{"null", "boolean", "int", "double", "string", "array", "struct"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}

	return kindNames[k]
}

// Member is a named field of a struct Value.
type Member struct {
	Name  string
	Value Value
}

// Value is a dynamically typed RPC value. The zero Value is null.
type Value struct {
	kind    Kind
	b       bool
	i       int64
	f       float64
	s       string
	items   []Value
	members []Member
}

func Null() Value                    { return Value{} }
func Bool(b bool) Value              { return Value{kind: KindBool, b: b} }
func Int(i int64) Value              { return Value{kind: KindInt, i: i} }
func Double(f float64) Value         { return Value{kind: KindDouble, f: f} }
func String(s string) Value          { return Value{kind: KindString, s: s} }
func Array(items ...Value) Value     { return Value{kind: KindArray, items: append([]Value{}, items...)} }
func Struct(ms ...Member) Value      { return Value{kind: KindStruct, members: append([]Member{}, ms...)} }
func Field(n string, v Value) Member { return Member{Name: n, Value: v} }

func (v Value) Kind() Kind        { return v.kind }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) AsBool() bool      { return v.b }
func (v Value) AsInt() int64      { return v.i }
func (v Value) AsDouble() float64 { return v.f }
func (v Value) AsString() string  { return v.s }

// Items returns the elements of an array Value.
func (v Value) Items() []Value {
	return v.items
}

// Members returns the fields of a struct Value, in insertion order.
func (v Value) Members() []Member {
	return v.members
}

// Len returns the number of elements of an array or fields of a struct.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindStruct:
		return len(v.members)
	default:
		return 0
	}
}

// Get returns the struct field with the given name.
func (v Value) Get(name string) (Value, bool) {
	for _, m := range v.members {
		if m.Name == name {
			return m.Value, true
		}
	}

	return Value{}, false
}

// Number returns the value of an int or double as a float64.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindDouble:
		return v.f, true
	default:
		return 0, false
	}
}

// Is reports whether the value satisfies a type hint, as used in method
// signatures. Unknown hints never match.
func (v Value) Is(hint string) bool {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "", "mixed", "any":
		return true
	case "int", "i4", "i8", "integer":
		return v.kind == KindInt
	case "double", "float":
		return v.kind == KindDouble
	case "number":
		return v.kind == KindInt || v.kind == KindDouble
	case "string":
		return v.kind == KindString
	case "bool", "boolean":
		return v.kind == KindBool
	case "array":
		return v.kind == KindArray
	case "struct", "object":
		return v.kind == KindStruct
	case "null", "nil":
		return v.kind == KindNull
	default:
		return false
	}
}

// Equal reports whether two values are deeply equal. Struct members are
// compared in order.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindDouble:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindArray:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindStruct:
		if len(v.members) != len(o.members) {
			return false
		}
		for i := range v.members {
			if v.members[i].Name != o.members[i].Name || !v.members[i].Value.Equal(o.members[i].Value) {
				return false
			}
		}
		return true
	}

	return false
}

// Interface converts the value into plain Go values: nil, bool, int64,
// float64, string, []interface{} and map[string]interface{}.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindDouble:
		return v.f
	case KindString:
		return v.s
	case KindArray:
		out := make([]interface{}, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case KindStruct:
		out := make(map[string]interface{}, len(v.members))
		for _, m := range v.members {
			out[m.Name] = m.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s>", v.kind)
	}

	return string(b)
}

// FromGo converts a Go value into a Value. Maps are converted with their keys
// sorted, structs use their exported fields named after the `json` tag when
// present.
func FromGo(x interface{}) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case *Value:
		if t == nil {
			return Null(), nil
		}
		return *t, nil
	case []byte:
		return String(string(t)), nil
	}

	return fromReflect(reflect.ValueOf(x))
}

// MustFromGo is like FromGo but panics on unsupported types. It is meant for
// literals in tests and static tables.
func MustFromGo(x interface{}) Value {
	v, err := FromGo(x)
	if err != nil {
		panic(err)
	}

	return v
}

var valueType = reflect.TypeOf(Value{})

func fromReflect(rv reflect.Value) (Value, error) {
	if !rv.IsValid() {
		return Null(), nil
	}

	if rv.Type() == valueType {
		return rv.Interface().(Value), nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Double(float64(u)), nil
		}
		return Int(int64(u)), nil

	case reflect.Float32, reflect.Float64:
		return Double(rv.Float()), nil

	case reflect.String:
		return String(rv.String()), nil

	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return fromReflect(rv.Elem())

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Array(), nil
		}
		items := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := fromReflect(rv.Index(i))
			if err != nil {
				return Value{}, err
			}
			items[i] = item
		}
		return Value{kind: KindArray, items: items}, nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, fmt.Errorf("%s: %w", rv.Type(), ErrUnsupportedType)
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		members := make([]Member, 0, len(keys))
		for _, k := range keys {
			item, err := fromReflect(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())))
			if err != nil {
				return Value{}, err
			}
			members = append(members, Member{Name: k, Value: item})
		}
		return Value{kind: KindStruct, members: members}, nil

	case reflect.Struct:
		t := rv.Type()
		members := make([]Member, 0, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.PkgPath != "" {
				continue
			}
			name := field.Name
			if tag := field.Tag.Get("json"); tag != "" {
				tagName := strings.Split(tag, ",")[0]
				if tagName == "-" {
					continue
				}
				if tagName != "" {
					name = tagName
				}
			}
			item, err := fromReflect(rv.Field(i))
			if err != nil {
				return Value{}, err
			}
			members = append(members, Member{Name: name, Value: item})
		}
		return Value{kind: KindStruct, members: members}, nil
	}

	return Value{}, fmt.Errorf("%s: %w", rv.Type(), ErrUnsupportedType)
}

// MarshalJSON renders the value as JSON. Struct members keep their order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")

	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))

	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))

	case KindDouble:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return fmt.Errorf("double %v: %w", v.f, ErrUnsupportedType)
		}
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			// keep doubles recognisable as doubles on the way back in
			s += ".0"
		}
		buf.WriteString(s)

	case KindString:
		quoted, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(quoted)

	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')

	case KindStruct:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			name, err := json.Marshal(m.Name)
			if err != nil {
				return err
			}
			buf.Write(name)
			buf.WriteByte(':')
			if err := m.Value.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}

	return nil
}

// UnmarshalJSON decodes JSON into the value. Numbers without a fraction or
// exponent become ints, all other numbers become doubles.
func (v *Value) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return ErrInvalidJSON
	}

	*v = FromJSON(gjson.ParseBytes(data))
	return nil
}

// FromJSON converts a parsed gjson result into a Value.
func FromJSON(r gjson.Result) Value {
	switch r.Type {
	case gjson.True:
		return Bool(true)

	case gjson.False:
		return Bool(false)

	case gjson.Number:
		if !strings.ContainsAny(r.Raw, ".eE") {
			if i, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
				return Int(i)
			}
		}
		return Double(r.Float())

	case gjson.String:
		return String(r.String())

	case gjson.JSON:
		if r.IsArray() {
			items := make([]Value, 0)
			r.ForEach(func(_, item gjson.Result) bool {
				items = append(items, FromJSON(item))
				return true
			})
			return Value{kind: KindArray, items: items}
		}

		members := make([]Member, 0)
		r.ForEach(func(key, item gjson.Result) bool {
			members = append(members, Member{Name: key.String(), Value: FromJSON(item)})
			return true
		})
		return Value{kind: KindStruct, members: members}

	default:
		return Null()
	}
}
