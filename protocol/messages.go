package protocol

import (
	"encoding/json"
	"fmt"
)

// JSONRPCVersion is the JSON-RPC protocol version literal.
const JSONRPCVersion = "2.0"

// Request represents a JSON-RPC 2.0 request or notification. A request
// without an id member is a notification and never produces a response.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      ID              `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NewRequest creates a request with the given identifier.
func NewRequest(id ID, method string, params json.RawMessage) *Request {
	return &Request{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Method:  method,
		Params:  params,
	}
}

// NewNotification creates a request without an identifier.
func NewNotification(method string, params json.RawMessage) *Request {
	return &Request{
		JSONRPC: JSONRPCVersion,
		Method:  method,
		Params:  params,
	}
}

// IsNotification reports whether the request carries no identifier.
// An explicit "id": null is an identifier, not a notification.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response represents a JSON-RPC 2.0 response. Exactly one of Result and
// Error is set. The id member is always serialized; an absent identifier
// encodes as null, which is what parse and invalid-request failures carry.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      ID              `json:"id"`
}

// NewResponse creates a successful response. A nil result is normalized to
// the JSON null so the result member is always present on success.
func NewResponse(id ID, result json.RawMessage) *Response {
	if result == nil {
		result = json.RawMessage("null")
	}
	return &Response{
		JSONRPC: JSONRPCVersion,
		Result:  result,
		ID:      id,
	}
}

// NewErrorResponse creates a response carrying err instead of a result.
func NewErrorResponse(id ID, err *Error) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		Error:   err,
		ID:      id,
	}
}

// Validate checks the response against the JSON-RPC 2.0 rules: the version
// literal must match and exactly one of result and error must be present.
func (r *Response) Validate() error {
	if r.JSONRPC != JSONRPCVersion {
		return fmt.Errorf("jsonrpc version must be %q, got %q", JSONRPCVersion, r.JSONRPC)
	}
	hasResult := len(r.Result) > 0
	hasError := r.Error != nil
	if hasResult == hasError {
		return fmt.Errorf("response must carry exactly one of result and error")
	}
	return nil
}
