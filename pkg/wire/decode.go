package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Object is a decoded JSON object. Numbers are kept as json.Number.
type Object map[string]any

// DecodeObject decodes raw as a JSON object. When strict decoding fails it
// retries with the substring from the first '{' to the last '}', then with
// the first complete object found in the text, and reports salvaged=true on
// success. A JSON string whose content is an object is
// unwrapped once.
func DecodeObject(raw []byte) (obj Object, salvaged bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false, ErrEmpty
	}

	obj, strictErr := decodeStrict(raw)
	if strictErr == nil {
		return obj, false, nil
	}

	start := bytes.IndexByte(raw, '{')
	end := bytes.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return nil, false, errors.Join(ErrNoObject, strictErr)
	}
	if obj, err = decodeStrict(raw[start : end+1]); err == nil {
		return obj, true, nil
	}
	if obj, ok := firstObject(raw, start); ok {
		return obj, true, nil
	}
	return nil, false, errors.Join(ErrNoObject, err)
}

// firstObject returns the first complete object that starts at a '{' at or
// after from, ignoring whatever follows it.
func firstObject(raw []byte, from int) (Object, bool) {
	for i := from; i < len(raw); i++ {
		if raw[i] != '{' {
			continue
		}
		var m map[string]any
		dec := json.NewDecoder(bytes.NewReader(raw[i:]))
		dec.UseNumber()
		if err := dec.Decode(&m); err == nil {
			return Object(m), true
		}
	}
	return nil, false
}

func decodeStrict(raw []byte) (Object, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if rest := bytes.TrimSpace(raw[dec.InputOffset():]); len(rest) > 0 {
		return nil, errors.New("trailing data after JSON value")
	}

	switch t := v.(type) {
	case map[string]any:
		return Object(t), nil
	case string:
		inner := strings.TrimSpace(t)
		if strings.HasPrefix(inner, "{") {
			return decodeStrict([]byte(inner))
		}
	}
	return nil, ErrNotObject
}

// AsObject converts v into an Object. It accepts a decoded object or a string
// holding JSON-encoded object text.
func AsObject(v any) (Object, bool) {
	switch t := v.(type) {
	case Object:
		return t, true
	case map[string]any:
		return Object(t), true
	case string:
		if !strings.HasPrefix(strings.TrimSpace(t), "{") {
			return nil, false
		}
		obj, err := decodeStrict([]byte(t))
		return obj, err == nil
	}
	return nil, false
}

// Get resolves a dot-separated path such as "carona.origem".
func (o Object) Get(path string) (any, bool) {
	var cur any = o
	for part := range strings.SplitSeq(path, ".") {
		m, ok := AsObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// Lookup returns the first path that resolves to a non-empty scalar,
// formatted as a string.
func Lookup(o Object, paths ...string) (string, bool) {
	if o == nil {
		return "", false
	}
	for _, p := range paths {
		v, ok := o.Get(p)
		if !ok {
			continue
		}
		if s, ok := Scalar(v); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// Scalar formats strings, numbers and booleans. Objects and arrays are rejected.
func Scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// Float returns the first path that resolves to a number or numeric string.
func Float(o Object, paths ...string) (float64, bool) {
	for _, p := range paths {
		v, ok := o.Get(p)
		if !ok {
			continue
		}
		switch t := v.(type) {
		case json.Number:
			if f, err := t.Float64(); err == nil {
				return f, true
			}
		case float64:
			return t, true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
