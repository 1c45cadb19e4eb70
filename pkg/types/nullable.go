package types

import (
	"bytes"
	"encoding/json"
	"strings"
)

// NullableString tracks whether a string field was explicitly present in JSON.
// An explicit null (or a blank string) clears the value; an absent field keeps it.
type NullableString struct {
	Valid bool
	Value *string
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	if bytes.Equal(trimmed, []byte("null")) {
		n.Valid = true
		n.Value = nil
		return nil
	}

	var parsed string
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return err
	}
	n.Valid = true
	parsed = strings.TrimSpace(parsed)
	if parsed == "" {
		n.Value = nil
		return nil
	}
	n.Value = &parsed
	return nil
}

// Set returns a present NullableString holding value.
func Set(value string) NullableString {
	return NullableString{Valid: true, Value: &value}
}

// Clear returns a present NullableString holding null.
func Clear() NullableString {
	return NullableString{Valid: true}
}

// Apply returns the value that should be stored given the current one.
func (n NullableString) Apply(current *string) *string {
	if !n.Valid {
		return current
	}
	return n.Value
}

// Clone returns a copy of the NullableString.
func (n NullableString) Clone() NullableString {
	if n.Value == nil {
		return NullableString{Valid: n.Valid}
	}
	copy := *n.Value
	return NullableString{Valid: n.Valid, Value: &copy}
}
