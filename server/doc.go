// Package server provides the core JSON-RPC 2.0 server implementation.
//
// This package implements the server side of the protocol: the method
// registry, the dispatcher, and the middleware hook. Most users should use
// the higher-level jsonrpc package instead of using this package directly.
//
// # Methods
//
// Methods are registered with Register, or with the fluent builder when a
// description or params validation is wanted:
//
//	type SearchParams struct {
//	    Query string `json:"query" jsonschema:"required"`
//	}
//
//	srv := server.New()
//	srv.Method("docs/search").
//	    Description("Search for documents").
//	    ValidateParams().
//	    Handler(func(ctx context.Context, p SearchParams) ([]string, error) {
//	        return []string{"result1", "result2"}, nil
//	    })
//
// Handlers take (params) or (ctx, params) and return (result, error).
// Params decode into the handler's parameter type and results marshal into
// the response. Returning a *protocol.Error controls the code on the wire;
// any other error becomes an internal error.
//
// # Processing
//
// Call accepts one raw payload, a single request or a batch, and returns
// the serialized reply. A nil reply means only notifications were involved:
//
//	reply := srv.Call(ctx, []byte(`{"jsonrpc":"2.0","method":"docs/search","params":{"query":"go"},"id":1}`))
//
// Batch elements execute concurrently and their replies keep the input
// order. Middleware registered with Use wraps every method execution,
// batch elements included.
package server
