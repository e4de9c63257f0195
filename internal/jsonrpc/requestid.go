package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// RequestID represents a JSON-RPC ID that is either a string or a signed
// integer. It is carried opaquely from a request into its response.
type RequestID struct {
	value any // string | int64
}

// StringID returns a string-typed RequestID.
func StringID(s string) RequestID { return RequestID{value: s} }

// IntID returns an integer-typed RequestID.
func IntID(n int64) RequestID { return RequestID{value: n} }

// NewRequestID creates a RequestID from a string or any Go integer type. Other
// types yield the zero (invalid) RequestID.
func NewRequestID(value any) RequestID {
	switch v := value.(type) {
	case string:
		return StringID(v)
	case int:
		return IntID(int64(v))
	case int8:
		return IntID(int64(v))
	case int16:
		return IntID(int64(v))
	case int32:
		return IntID(int64(v))
	case int64:
		return IntID(v)
	case uint8:
		return IntID(int64(v))
	case uint16:
		return IntID(int64(v))
	case uint32:
		return IntID(int64(v))
	default:
		return RequestID{}
	}
}

// IsValid reports whether the ID holds a string or integer.
func (id RequestID) IsValid() bool { return id.value != nil }

// Value returns the underlying string or int64, or nil for an invalid ID.
func (id RequestID) Value() any { return id.value }

// Equal compares two IDs by kind and value. A string "1" is not equal to the
// integer 1.
func (id RequestID) Equal(other RequestID) bool {
	return id.value == other.value
}

// String returns the string representation of the ID, used for logging.
func (id RequestID) String() string {
	switch v := id.value.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// MarshalJSON implements json.Marshaler.
func (id RequestID) MarshalJSON() ([]byte, error) {
	if id.value == nil {
		return nil, fmt.Errorf("%w: request id is not set", ErrInvalidResponse)
	}
	return Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler. Only JSON strings and integral
// numbers that fit in an int64 are accepted.
func (id *RequestID) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("invalid JSON-RPC ID: %w", err)
	}

	switch v := raw.(type) {
	case string:
		id.value = v
		return nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return fmt.Errorf("JSON-RPC ID must be an integer, got: %s", v)
		}
		id.value = n
		return nil
	}

	return fmt.Errorf("JSON-RPC ID must be a string or integer, got: %s", string(data))
}
