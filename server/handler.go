package server

import (
	"context"

	"github.com/felixgeelhaar/jsonrpc-go/protocol"
)

// HandlerFunc is the signature the dispatcher uses for one request. The
// middleware registered with Use wraps functions of this shape; the
// innermost handler performs method lookup and execution. Returning an
// error maps it onto the JSON-RPC error taxonomy; for notifications both
// returns are discarded.
type HandlerFunc func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

// Middleware wraps a HandlerFunc with behavior that runs around it.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain folds middlewares into a single Middleware. The first argument
// becomes the outermost wrapper, so Chain(a, b)(h) runs a before b
// before h.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
