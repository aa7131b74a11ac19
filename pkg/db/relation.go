package db

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Relation holds an embedded related row decoded from JSON.
// Embedded selects may produce an object, a single-element array or null depending on how the
// join cardinality is inferred; Relation accepts all three.
type Relation[T any] struct {
	val   T
	isSet bool
}

// Get returns the related row and whether one was present
func (r Relation[T]) Get() (T, bool) {
	return r.val, r.isSet
}

// Ptr returns a pointer to the related row, or nil if absent
func (r Relation[T]) Ptr() *T {
	if !r.isSet {
		return nil
	}
	v := r.val
	return &v
}

// UnmarshalJSON implements json.Unmarshaler
func (r *Relation[T]) UnmarshalJSON(data []byte) error {
	var zero T
	r.val, r.isSet = zero, false

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return fmt.Errorf("failed to decode relation array: %w", err)
		}
		switch len(items) {
		case 0:
			return nil
		case 1:
			r.val, r.isSet = items[0], true
			return nil
		default:
			return fmt.Errorf("expected at most one related row, got %d", len(items))
		}
	}

	if err := json.Unmarshal(trimmed, &r.val); err != nil {
		return fmt.Errorf("failed to decode relation object: %w", err)
	}
	r.isSet = true
	return nil
}

// Scan implements sql.Scanner so a relation can be scanned straight from a json/jsonb column
func (r *Relation[T]) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		var zero T
		r.val, r.isSet = zero, false
		return nil
	case []byte:
		return r.UnmarshalJSON(v)
	case string:
		return r.UnmarshalJSON([]byte(v))
	default:
		// pgx decodes json columns into Go values when the target is not a byte slice
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("unsupported relation source %T: %w", src, err)
		}
		return r.UnmarshalJSON(data)
	}
}
