// Package jsonvalue models arbitrary JSON values with object key order preserved.
//
// Decoded values are one of: string, json.Number, bool, nil, []any or *Object.
package jsonvalue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type Object = orderedmap.OrderedMap[string, any]

func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// Decode parses a single JSON value. Trailing data is an error.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after json value")
	}
	return v, nil
}

func DecodeString(s string) (any, error) {
	return Decode([]byte(s))
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		obj := NewObject()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key is not a string: %v", keyTok)
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
	case '[':
		arr := make([]any, 0)
		for dec.More() {
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %q", delim)
}

func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func MarshalIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// IsStructured reports whether v is an object or an array.
func IsStructured(v any) bool {
	switch v.(type) {
	case *Object, []any, map[string]any:
		return true
	}
	return false
}

// LooksLikeJSON reports whether s starts like a JSON object or array.
func LooksLikeJSON(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}

// Text renders v as display text: strings verbatim, everything else as compact JSON.
func Text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// Pretty renders structured values as indented JSON and primitives like Text.
func Pretty(v any) string {
	if !IsStructured(v) {
		return Text(v)
	}
	data, err := MarshalIndent(v)
	if err != nil {
		return Text(v)
	}
	return string(data)
}

// Clone returns a deep copy of v.
func Clone(v any) any {
	switch t := v.(type) {
	case *Object:
		out := NewObject()
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			out.Set(pair.Key, Clone(pair.Value))
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Clone(item)
		}
		return out
	case map[string]any:
		out := NewObject()
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out.Set(k, Clone(t[k]))
		}
		return out
	}
	return v
}

// Equal compares two values by their JSON encoding, so key order matters.
func Equal(a, b any) bool {
	da, err := json.Marshal(a)
	if err != nil {
		return false
	}
	db, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(da, db)
}

// Lookup returns the first present key of obj among names.
func Lookup(obj *Object, names ...string) (any, bool) {
	if obj == nil {
		return nil, false
	}
	for _, name := range names {
		if v, ok := obj.Get(name); ok {
			return v, true
		}
	}
	return nil, false
}

// LookupString returns the first non-empty string among names.
func LookupString(obj *Object, names ...string) string {
	if obj == nil {
		return ""
	}
	for _, name := range names {
		v, ok := obj.Get(name)
		if !ok || v == nil {
			continue
		}
		s := strings.TrimSpace(Text(v))
		if s != "" {
			return s
		}
	}
	return ""
}

// Float converts a decoded number (or numeric string) into float64.
func Float(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := json.Number(strings.TrimSpace(t)).Float64()
		return f, err == nil
	}
	return 0, false
}
