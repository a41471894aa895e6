// Package protocol implements the JSON-RPC 2.0 wire layer.
package protocol

import (
	"errors"
	"fmt"
)

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Implementation-defined server error codes. JSON-RPC 2.0 reserves
// -32000 to -32099 for this range; handler authors are free to use it.
const (
	CodeServerError  = -32000
	CodeUnauthorized = -32001
	CodeRateLimited  = -32002
)

// Standard error messages for the reserved codes.
const (
	MessageParseError     = "Parse error"
	MessageInvalidRequest = "Invalid Request"
	MessageInvalidParams  = "Invalid params"
	MessageInternalError  = "Internal error"
)

// Error represents a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error renders the error for logs; the wire form comes from marshaling
// the struct itself.
func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc: %s (code: %d)", e.Message, e.Code)
}

// Is reports whether target is an Error with the same code, so errors.Is
// can match by taxonomy regardless of message text.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// WithData returns a copy of e carrying data, leaving e untouched.
func (e *Error) WithData(data any) *Error {
	c := *e
	c.Data = data
	return &c
}

// NewError builds an error with an arbitrary code. Application codes
// should stay in the -32000 to -32099 range.
func NewError(code int, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// NewParseError builds the -32700 error raised for unparseable payloads.
func NewParseError(msg string) *Error {
	return &Error{Code: CodeParseError, Message: msg}
}

// NewInvalidRequest builds the -32600 error for structurally bad requests.
func NewInvalidRequest(msg string) *Error {
	return &Error{Code: CodeInvalidRequest, Message: msg}
}

// NewMethodNotFound builds the -32601 error for unregistered methods.
func NewMethodNotFound(msg string) *Error {
	return &Error{Code: CodeMethodNotFound, Message: msg}
}

// NewInvalidParams builds the -32602 error for arguments a method rejects.
func NewInvalidParams(msg string) *Error {
	return &Error{Code: CodeInvalidParams, Message: msg}
}

// NewInternalError builds the -32603 error for faults inside the server.
func NewInternalError(msg string) *Error {
	return &Error{Code: CodeInternalError, Message: msg}
}

// NewServerError builds the -32000 implementation-defined error.
func NewServerError(msg string) *Error {
	return &Error{Code: CodeServerError, Message: msg}
}

// NewUnauthorized builds the -32001 error for missing or bad credentials.
func NewUnauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// NewRateLimited builds the -32002 error for throttled callers.
func NewRateLimited(msg string) *Error {
	return &Error{Code: CodeRateLimited, Message: msg}
}

// FromError maps any handler error onto a JSON-RPC error object.
//
// A *Error anywhere in the chain passes through unchanged, so handlers keep
// their application-defined codes. Every other error becomes an internal
// error (-32603) carrying the error text. FromError is total: it never
// fails, and a nil error yields a generic internal error.
func FromError(err error) *Error {
	if err == nil {
		return NewInternalError(MessageInternalError)
	}
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return NewInternalError(err.Error())
}
