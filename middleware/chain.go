package middleware

import (
	"context"

	"github.com/felixgeelhaar/jsonrpc-go/protocol"
	"github.com/felixgeelhaar/jsonrpc-go/server"
)

// HandlerFunc aliases the server package's handler signature, so middleware
// written here plugs straight into Server.Use.
type HandlerFunc = server.HandlerFunc

// Middleware wraps a handler with additional behavior.
type Middleware = server.Middleware

// Chain composes middlewares into one. The first argument becomes the
// outermost wrapper: Chain(a, b, c) runs a, then b, then c, then the
// handler.
func Chain(middlewares ...Middleware) Middleware {
	return server.Chain(middlewares...)
}

// MiddlewareChain accumulates middleware for fluent assembly.
type MiddlewareChain struct {
	middlewares []Middleware
}

// Use starts a chain with the given middleware.
func Use(middlewares ...Middleware) *MiddlewareChain {
	return &MiddlewareChain{middlewares: middlewares}
}

// Append adds more middleware to the end of the chain.
func (c *MiddlewareChain) Append(middlewares ...Middleware) *MiddlewareChain {
	c.middlewares = append(c.middlewares, middlewares...)
	return c
}

// Middlewares returns the accumulated middleware in registration order,
// ready to hand to Server.Use.
func (c *MiddlewareChain) Middlewares() []Middleware {
	return c.middlewares
}

// Then wraps handler in the accumulated chain.
func (c *MiddlewareChain) Then(handler HandlerFunc) HandlerFunc {
	return Chain(c.middlewares...)(handler)
}

// ThenFunc is Then for a bare function.
func (c *MiddlewareChain) ThenFunc(fn func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)) HandlerFunc {
	return c.Then(HandlerFunc(fn))
}
