package protocol

import (
	"bytes"
	"encoding/json"
)

// Envelope is one element of a parsed payload. Exactly one of Request and
// Invalid is set. For invalid elements, ID carries any identifier recovered
// from the raw value so the error response can echo it; it stays nil when
// nothing usable could be recovered.
type Envelope struct {
	Request *Request
	Invalid *Error
	ID      ID
}

// Payload is the outcome of parsing one JSON-RPC payload. Batch reports
// whether the text was an array; a batch holds one envelope per element in
// the original order.
type Payload struct {
	Envelopes []Envelope
	Batch     bool
}

// Parse splits raw JSON-RPC text into envelopes.
//
// Syntactically invalid input yields a parse error (-32700), even when the
// text looks like the start of a batch. Valid JSON that is neither an
// object nor a non-empty array yields an invalid request error (-32600).
// Both are reported with a null id because the id may itself be part of the
// broken text. Inside a batch, every element is classified independently: a
// malformed element becomes an Invalid envelope and never affects its
// siblings.
func Parse(data []byte) (*Payload, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, NewParseError(MessageParseError)
	}
	switch trimmed[0] {
	case '{':
		var raw json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, NewParseError(MessageParseError)
		}
		return &Payload{Envelopes: []Envelope{parseElement(raw)}}, nil
	case '[':
		var elements []json.RawMessage
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return nil, NewParseError(MessageParseError)
		}
		if len(elements) == 0 {
			return nil, NewInvalidRequest(MessageInvalidRequest)
		}
		envelopes := make([]Envelope, len(elements))
		for i, element := range elements {
			envelopes[i] = parseElement(element)
		}
		return &Payload{Envelopes: envelopes, Batch: true}, nil
	default:
		var value any
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return nil, NewParseError(MessageParseError)
		}
		// Scalars and null are valid JSON but not request objects.
		return nil, NewInvalidRequest(MessageInvalidRequest)
	}
}

// parseElement classifies one JSON value as a request, a notification, or
// an invalid entry.
func parseElement(raw json.RawMessage) Envelope {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		// Nested arrays and scalars inside a batch are not request objects.
		return Envelope{Invalid: NewInvalidRequest(MessageInvalidRequest)}
	}
	var req Request
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return Envelope{Invalid: NewInvalidRequest(MessageInvalidRequest), ID: recoverID(trimmed)}
	}
	if req.JSONRPC != JSONRPCVersion || req.Method == "" {
		return Envelope{Invalid: NewInvalidRequest(MessageInvalidRequest), ID: req.ID}
	}
	return Envelope{Request: &req}
}

// recoverID extracts a usable identifier from a value that failed request
// decoding, so the error entry can still echo it.
func recoverID(raw []byte) ID {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil
	}
	var id ID
	if err := id.UnmarshalJSON(probe.ID); err != nil {
		return nil
	}
	return id
}
