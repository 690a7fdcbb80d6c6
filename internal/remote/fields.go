package remote

import (
	"encoding/json"
	"fmt"
)

// ApplyFields merges fields into a JSON encoded document. Keys are the json
// field names of the stored type.
func ApplyFields(doc []byte, fields map[string]any) ([]byte, error) {
	var raw map[string]any
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	for k, v := range fields {
		raw[k] = v
	}
	out, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return out, nil
}

// Encode stores item without its id; the id lives in the document key.
func Encode[T any](ident Identifier[T], item T) ([]byte, error) {
	buf, err := json.Marshal(ident.WithID(item, ""))
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf, nil
}

// Decode restores a stored document and stamps its id.
func Decode[T any](ident Identifier[T], id string, doc []byte) (T, error) {
	var item T
	if err := json.Unmarshal(doc, &item); err != nil {
		return item, fmt.Errorf("decode document %s: %w", id, err)
	}
	return ident.WithID(item, id), nil
}
