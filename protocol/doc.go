// Package protocol defines the JSON-RPC 2.0 message types, payload parsing,
// and error codes.
//
// This is the wire layer of jsonrpc-go. Most programs work with the
// higher-level jsonrpc and server packages and only touch protocol for its
// Request, Response, ID, and Error types.
//
// # Messages
//
// Request and Response mirror the JSON-RPC 2.0 objects member for member,
// with params and result kept as json.RawMessage so payloads decode once,
// at the layer that knows their shape. Identifiers keep their raw JSON
// encoding, so responses echo exactly what the caller sent and the number
// 1 stays distinct from the string "1". A request without an id member is
// a notification and is never answered.
//
// # Parsing
//
// Parse turns one text payload into envelopes, classifying it as a single
// request, a notification, or a batch, and isolating malformed batch
// elements without failing their siblings:
//
//	payload, err := protocol.Parse(data)
//
// # Errors
//
// The five reserved codes (-32700 parse, -32600 invalid request, -32601
// method not found, -32602 invalid params, -32603 internal) each have a
// constant and a constructor. Codes -32000 to -32099 are open for
// applications; CodeServerError, CodeUnauthorized, and CodeRateLimited
// claim the first three. FromError maps arbitrary handler errors onto the
// taxonomy:
//
//	err := protocol.NewInvalidParams("missing required field: name")
//	rpcErr := protocol.FromError(err)
package protocol
