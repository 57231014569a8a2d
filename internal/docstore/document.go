package docstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// Errors returned by Collection operations.
var (
	ErrNotFound        = errors.New("document not found")
	ErrAlreadyExists   = errors.New("document already exists")
	ErrVersionConflict = errors.New("document version conflict")
	ErrInvalidField    = errors.New("invalid field path")
)

// Document is one stored JSON document with its bookkeeping columns.
type Document struct {
	Seq       int64
	ID        string
	Data      json.RawMessage
	Version   int64
	CreatedAt int64
	UpdatedAt int64
}

// Decode unmarshals the document body into v.
func (d Document) Decode(v any) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", d.ID, err)
	}
	return nil
}

// Fields is a partial update keyed by top-level field name. Values are
// plain JSON-marshalable values or one of the transforms below.
type Fields map[string]any

type arrayUnion struct{ values []any }

type arrayRemove struct{ values []any }

type deleteField struct{}

// ArrayUnion appends each value not already present in the array field.
func ArrayUnion(values ...any) any { return arrayUnion{values: values} }

// ArrayRemove removes every element equal to one of values.
func ArrayRemove(values ...any) any { return arrayRemove{values: values} }

// DeleteField removes the field from the document.
func DeleteField() any { return deleteField{} }

// normalize maps v onto its generic JSON shape so values can be compared
// with reflect.DeepEqual regardless of their Go type.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return decodeGeneric(data)
}

func decodeGeneric(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func indexOf(arr []any, v any) int {
	for i, el := range arr {
		if reflect.DeepEqual(el, v) {
			return i
		}
	}
	return -1
}

// applyFields merges fields into the JSON object body and returns the new body.
func applyFields(body json.RawMessage, fields Fields) (json.RawMessage, error) {
	generic, err := decodeGeneric(body)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	doc, ok := generic.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document body is not an object")
	}

	for name, v := range fields {
		if !fieldName.MatchString(name) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidField, name)
		}
		switch t := v.(type) {
		case deleteField:
			delete(doc, name)
		case arrayUnion:
			arr, err := arrayField(doc, name)
			if err != nil {
				return nil, err
			}
			for _, raw := range t.values {
				n, err := normalize(raw)
				if err != nil {
					return nil, err
				}
				if indexOf(arr, n) < 0 {
					arr = append(arr, n)
				}
			}
			doc[name] = arr
		case arrayRemove:
			arr, err := arrayField(doc, name)
			if err != nil {
				return nil, err
			}
			for _, raw := range t.values {
				n, err := normalize(raw)
				if err != nil {
					return nil, err
				}
				kept := arr[:0]
				for _, el := range arr {
					if !reflect.DeepEqual(el, n) {
						kept = append(kept, el)
					}
				}
				arr = kept
			}
			doc[name] = arr
		default:
			n, err := normalize(v)
			if err != nil {
				return nil, err
			}
			doc[name] = n
		}
	}
	return json.Marshal(doc)
}

func arrayField(doc map[string]any, name string) ([]any, error) {
	switch cur := doc[name].(type) {
	case nil:
		return []any{}, nil
	case []any:
		return cur, nil
	default:
		return nil, fmt.Errorf("field %q is not an array", name)
	}
}

// marshalBody encodes a document body and checks it is a JSON object.
func marshalBody(data any) (json.RawMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	if len(raw) == 0 || raw[0] != '{' {
		return nil, fmt.Errorf("document body must be a JSON object")
	}
	return raw, nil
}
