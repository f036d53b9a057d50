// Package ordered decodes JSON objects while keeping their key order.
//
// encoding/json decodes objects into maps, which forget the order the server
// wrote the keys in. Schema listings and result records are both displayed in
// wire order, so they are decoded through Object instead.
package ordered

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotObject is returned when the input is valid JSON but not an object.
var ErrNotObject = errors.New("ordered: not a JSON object")

// Field is one key/value pair of an object, with the value left undecoded.
type Field struct {
	Key   string
	Value json.RawMessage
}

// Object is a JSON object as an ordered list of fields.
// Duplicate keys keep their first position and their last value.
type Object []Field

// UnmarshalJSON implements json.Unmarshaler.
func (o *Object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrNotObject
	}

	var fields Object
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("ordered: unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("ordered: value for %q: %w", key, err)
		}
		if i, seen := index[key]; seen {
			fields[i].Value = raw
			continue
		}
		index[key] = len(fields)
		fields = append(fields, Field{Key: key, Value: raw})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*o = fields
	return nil
}

// Keys returns the keys in wire order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, f := range o {
		keys[i] = f.Key
	}
	return keys
}

// Get returns the raw value stored under key.
func (o Object) Get(key string) (json.RawMessage, bool) {
	for _, f := range o {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Decode parses data as an object. It is a shorthand for json.Unmarshal
// into an Object that also rejects null.
func Decode(data []byte) (Object, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrNotObject
	}
	var o Object
	if err := o.UnmarshalJSON(trimmed); err != nil {
		return nil, err
	}
	return o, nil
}
