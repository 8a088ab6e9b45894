package gink

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
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

// Field is one member of a JSON object.
type Field struct {
	Name  string
	Value *Value
}

// Value is a decoded JSON value as returned by the service. Objects keep the
// field order of the wire representation and numbers keep their text.
// A nil *Value behaves like JSON null.
type Value struct {
	kind   Kind
	b      bool
	num    json.Number
	str    string
	items  []*Value
	fields []Field
}

// Null returns a JSON null.
func Null() *Value { return &Value{kind: KindNull} }

// Bool returns a JSON boolean.
func Bool(b bool) *Value { return &Value{kind: KindBool, b: b} }

// Number returns a JSON number with the given literal text.
func Number(n json.Number) *Value { return &Value{kind: KindNumber, num: n} }

// Int returns a JSON integer.
func Int(n int64) *Value { return Number(json.Number(strconv.FormatInt(n, 10))) }

// String returns a JSON string.
func String(s string) *Value { return &Value{kind: KindString, str: s} }

// Array returns a JSON array holding items.
func Array(items ...*Value) *Value { return &Value{kind: KindArray, items: items} }

// Object returns a JSON object holding fields, in order.
func Object(fields ...Field) *Value {
	v := &Value{kind: KindObject}
	for _, f := range fields {
		v.Set(f.Name, f.Value)
	}
	return v
}

// Kind reports the variant held by v.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// IsNull reports whether v is JSON null (or nil).
func (v *Value) IsNull() bool { return v.Kind() == KindNull }

// Text returns the string held by v, or "" when v is not a string.
func (v *Value) Text() string {
	if v.Kind() != KindString {
		return ""
	}
	return v.str
}

// Truth returns the boolean held by v, or false when v is not a boolean.
func (v *Value) Truth() bool {
	return v.Kind() == KindBool && v.b
}

// Int64 returns the integer held by v. Non-numbers and fractional numbers
// report ok=false.
func (v *Value) Int64() (int64, bool) {
	if v.Kind() != KindNumber {
		return 0, false
	}
	n, err := v.num.Int64()
	return n, err == nil
}

// Float64 returns the number held by v.
func (v *Value) Float64() (float64, bool) {
	if v.Kind() != KindNumber {
		return 0, false
	}
	f, err := v.num.Float64()
	return f, err == nil
}

// Len is the number of array items or object fields.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindArray:
		return len(v.items)
	case KindObject:
		return len(v.fields)
	}
	return 0
}

// Items returns the array items of v (nil for non-arrays).
func (v *Value) Items() []*Value {
	if v.Kind() != KindArray {
		return nil
	}
	return v.items
}

// Index returns the i-th array item, or nil.
func (v *Value) Index(i int) *Value {
	items := v.Items()
	if i < 0 || i >= len(items) {
		return nil
	}
	return items[i]
}

// Fields returns the object fields of v in order (nil for non-objects).
func (v *Value) Fields() []Field {
	if v.Kind() != KindObject {
		return nil
	}
	return v.fields
}

// Get returns the named object field, or nil.
func (v *Value) Get(name string) *Value {
	for _, f := range v.Fields() {
		if f.Name == name {
			return f.Value
		}
	}
	return nil
}

// Has reports whether the object v has the named field.
func (v *Value) Has(name string) bool {
	for _, f := range v.Fields() {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Set replaces the named field of object v or appends it. It is a no-op on
// non-objects.
func (v *Value) Set(name string, val *Value) {
	if v == nil || v.kind != KindObject {
		return
	}
	if val == nil {
		val = Null()
	}
	for i := range v.fields {
		if v.fields[i].Name == name {
			v.fields[i].Value = val
			return
		}
	}
	v.fields = append(v.fields, Field{Name: name, Value: val})
}

// Decode copies v into dst through its JSON encoding, for typed views.
func (v *Value) Decode(dst any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// Interface converts v into plain Go values: map[string]any, []any, string,
// json.Number, bool or nil.
func (v *Value) Interface() any {
	switch v.Kind() {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindArray:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.fields))
		for _, f := range v.fields {
			out[f.Name] = f.Value.Interface()
		}
		return out
	}
	return nil
}

// ParseValue decodes a single JSON document.
func ParseValue(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseValue(data)
	if err != nil {
		return err
	}
	*v = *parsed
	return nil
}

func decodeValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			arr := &Value{kind: KindArray}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr.items = append(arr.items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		case '{':
			obj := &Value{kind: KindObject}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		}
	}
	return nil, fmt.Errorf("unexpected JSON token %v", tok)
}

// MarshalJSON implements json.Marshaler.
func (v *Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v *Value) encode(buf *bytes.Buffer) error {
	switch v.Kind() {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		buf.WriteString(v.num.String())
	case KindString:
		raw, err := json.Marshal(v.str)
		if err != nil {
			return err
		}
		buf.Write(raw)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, f := range v.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			raw, err := json.Marshal(f.Name)
			if err != nil {
				return err
			}
			buf.Write(raw)
			buf.WriteByte(':')
			if err := f.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("cannot encode value of kind %s", v.kind)
	}
	return nil
}

// String renders v as compact JSON.
func (v *Value) String() string {
	raw, err := v.MarshalJSON()
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return string(raw)
}
