package types

import (
	"encoding/json"
	"fmt"
)

// Record is one table row: a mapping from field name to value. Every stored
// record carries a string "id" field that is unique within its table.
type Record map[string]any

// FieldID is the name of the identity field.
const FieldID = "id"

// ID returns the record's id, or "" when it is missing or not a string.
func (r Record) ID() string {
	id, _ := r[FieldID].(string)
	return id
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge returns a copy of r with every field of patch written over it.
func (r Record) Merge(patch Record) Record {
	out := r.Clone()
	if out == nil {
		out = make(Record, len(patch))
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// DecodeRow converts a record into the tagged struct T by way of its JSON
// encoding.
func DecodeRow[T any](r Record) (T, error) {
	var out T
	data, err := json.Marshal(r)
	if err != nil {
		return out, fmt.Errorf("encoding record: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decoding record: %w", err)
	}
	return out, nil
}

// DecodeRows converts every record into T.
func DecodeRows[T any](rows []Record) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		v, err := DecodeRow[T](r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// EncodeRow converts a tagged struct into a Record.
func EncodeRow(v any) (Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %T: %w", v, err)
	}
	var out Record
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding %T: %w", v, err)
	}
	return out, nil
}
