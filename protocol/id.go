package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a JSON-RPC 2.0 request identifier: a JSON number, string, or null.
//
// The raw encoding is preserved so a response echoes exactly the identifier
// the caller sent; the number 1 and the string "1" are distinct values and
// stay distinct. A nil ID means the id member was absent, which is how
// notifications are told apart from requests. An explicit "id":null is a
// present identifier and is stored as the literal null.
type ID json.RawMessage

// IDFromInt returns a numeric identifier.
func IDFromInt(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}

// IDFromString returns a string identifier.
func IDFromString(s string) ID {
	raw, _ := json.Marshal(s)
	return ID(raw)
}

// IsNull reports whether the identifier is the literal null.
func (id ID) IsNull() bool {
	return string(id) == "null"
}

// Equal reports structural equality of two identifiers. Identifiers of
// different JSON types are never equal, matching the wire semantics.
func (id ID) Equal(other ID) bool {
	if len(id) == 0 || len(other) == 0 {
		return len(id) == 0 && len(other) == 0
	}
	return bytes.Equal(id, other)
}

// String returns the raw JSON text of the identifier, or "" when absent.
// Intended for logging.
func (id ID) String() string {
	return string(id)
}

// MarshalJSON encodes the identifier verbatim. An absent identifier
// encodes as null so error responses always carry an id member.
func (id ID) MarshalJSON() ([]byte, error) {
	if len(id) == 0 {
		return []byte("null"), nil
	}
	return id, nil
}

// UnmarshalJSON validates that the identifier is a number, string, or null
// and stores the raw text. Booleans, objects, and arrays are rejected.
func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty request id")
	}
	switch c := trimmed[0]; {
	case c == '"', c == 'n', c == '-', c >= '0' && c <= '9':
		*id = ID(append([]byte(nil), trimmed...))
		return nil
	default:
		return fmt.Errorf("request id must be a number, string, or null, got %s", trimmed)
	}
}
