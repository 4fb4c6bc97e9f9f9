package sqlutil

import (
	"encoding/json"
	"fmt"

	"github.com/sqlc-dev/pqtype"
)

// Helper functions for converting between Go values and nullable JSON columns

// ToNullJSON encodes val for a JSON/JSONB column. A nil val is SQL NULL.
func ToNullJSON[T any](val *T) (pqtype.NullRawMessage, error) {
	if val == nil {
		return pqtype.NullRawMessage{Valid: false}, nil
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return pqtype.NullRawMessage{}, fmt.Errorf("encode json column: %w", err)
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}

// FromNullJSON decodes a JSON/JSONB column into a new T, or nil for NULL
// and empty values.
func FromNullJSON[T any](val pqtype.NullRawMessage) (*T, error) {
	if !val.Valid || len(val.RawMessage) == 0 {
		return nil, nil
	}
	var out T
	if err := json.Unmarshal(val.RawMessage, &out); err != nil {
		return nil, fmt.Errorf("decode json column: %w", err)
	}
	return &out, nil
}
