// Package jsonrpc provides a framework for building JSON-RPC 2.0 servers and clients.
//
// jsonrpc-go aims to be the "Gin framework" for JSON-RPC services, providing:
//   - Typed handlers with automatic params decoding and schema validation
//   - Gin-style middleware chains
//   - Pluggable transports (stdio, HTTP, WebSocket, in-memory)
//   - Production-ready defaults
//
// Basic usage:
//
//	srv := jsonrpc.New()
//
//	type AddParams struct {
//	    A int `json:"a"`
//	    B int `json:"b"`
//	}
//
//	srv.Register("math/add", func(ctx context.Context, p AddParams) (int, error) {
//	    return p.A + p.B, nil
//	})
//
//	jsonrpc.ServeStdio(ctx, srv)
package jsonrpc

import (
	"context"
	"time"

	"github.com/felixgeelhaar/jsonrpc-go/middleware"
	"github.com/felixgeelhaar/jsonrpc-go/protocol"
	"github.com/felixgeelhaar/jsonrpc-go/server"
	"github.com/felixgeelhaar/jsonrpc-go/transport"
)

// Re-export core types for convenience

// Server dispatches JSON-RPC 2.0 requests to registered methods.
type Server = server.Server

// Option configures a Server.
type Option = server.Option

// MethodInfo describes a registered method for discovery.
type MethodInfo = server.MethodInfo

// Request is a JSON-RPC 2.0 request or notification.
type Request = protocol.Request

// Response is a JSON-RPC 2.0 response.
type Response = protocol.Response

// Error is a JSON-RPC 2.0 error object. Handlers return *Error to
// control the code sent to the client.
type Error = protocol.Error

// ID is a JSON-RPC request id: a string, a number, or absent.
type ID = protocol.ID

// ID constructors.
var (
	IDFromInt    = protocol.IDFromInt
	IDFromString = protocol.IDFromString
)

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = protocol.CodeParseError
	CodeInvalidRequest = protocol.CodeInvalidRequest
	CodeMethodNotFound = protocol.CodeMethodNotFound
	CodeInvalidParams  = protocol.CodeInvalidParams
	CodeInternalError  = protocol.CodeInternalError
)

// Implementation-defined error codes in the -32000..-32099 range.
const (
	CodeServerError  = protocol.CodeServerError
	CodeUnauthorized = protocol.CodeUnauthorized
	CodeRateLimited  = protocol.CodeRateLimited
)

// Error constructors re-exported for handlers.
var (
	NewError          = protocol.NewError
	NewMethodNotFound = protocol.NewMethodNotFound
	NewInvalidParams  = protocol.NewInvalidParams
	NewInternalError  = protocol.NewInternalError
	NewServerError    = protocol.NewServerError
	NewUnauthorized   = protocol.NewUnauthorized
	NewRateLimited    = protocol.NewRateLimited
	ErrorFromError    = protocol.FromError
)

// New creates a new JSON-RPC server with the given options.
func New(opts ...Option) *Server {
	return server.New(opts...)
}

// WithReservedPrefixCheck makes Register and Method panic on method names
// in the reserved "rpc." namespace.
func WithReservedPrefixCheck() Option {
	return server.WithReservedPrefixCheck()
}

// WithDiscover registers the rpc.discover introspection method.
func WithDiscover() Option {
	return server.WithDiscover()
}

// Middleware types
type Middleware = middleware.Middleware
type MiddlewareHandlerFunc = middleware.HandlerFunc
type Logger = middleware.Logger
type LogField = middleware.Field
type PanicHandler = middleware.PanicHandler
type RateLimitOption = middleware.RateLimitOption

// RateLimit re-exports for convenience.
var (
	RateLimit            = middleware.RateLimit
	RateLimitByMethod    = middleware.RateLimitByMethod
	RateLimitByClient    = middleware.RateLimitByClient
	WithRateLimitKeyFunc = middleware.WithRateLimitKeyFunc
	WithRateLimitLogger  = middleware.WithRateLimitLogger
)

// SizeLimit re-exports for convenience.
type SizeLimitOption = middleware.SizeLimitOption

var (
	SizeLimit           = middleware.SizeLimit
	WithSizeLimitLogger = middleware.WithSizeLimitLogger
)

// Size limit presets.
const (
	KB = middleware.KB
	MB = middleware.MB
)

// Auth re-exports for convenience.
type Identity = middleware.Identity
type Authenticator = middleware.Authenticator
type AuthOption = middleware.AuthOption

var (
	Auth                     = middleware.Auth
	APIKeyAuthenticator      = middleware.APIKeyAuthenticator
	BearerTokenAuthenticator = middleware.BearerTokenAuthenticator
	IdentityFromContext      = middleware.IdentityFromContext
)

// OTel re-exports for convenience.
type OTelOption = middleware.OTelOption

var (
	OTel               = middleware.OTel
	WithTracerProvider = middleware.WithTracerProvider
	WithMeterProvider  = middleware.WithMeterProvider
)

// HTTPOption configures the HTTP transport.
type HTTPOption = transport.HTTPOption

// ServeOption configures how the server is run.
type ServeOption func(*serveOptions)

type serveOptions struct {
	middleware []Middleware
	logger     Logger
}

// WithMiddleware appends middleware to the server's chain before serving.
func WithMiddleware(m ...Middleware) ServeOption {
	return func(o *serveOptions) {
		o.middleware = append(o.middleware, m...)
	}
}

// WithLogger installs the default middleware stack with the given logger
// before serving.
func WithLogger(l Logger) ServeOption {
	return func(o *serveOptions) {
		o.logger = l
	}
}

func applyServeOptions(srv *Server, opts []ServeOption) {
	options := &serveOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.logger != nil {
		srv.Use(middleware.DefaultStack(options.logger)...)
	}
	if len(options.middleware) > 0 {
		srv.Use(options.middleware...)
	}
}

// ServeStdio runs the server over newline-delimited JSON on stdin/stdout.
// This blocks until the context is canceled or an error occurs.
func ServeStdio(ctx context.Context, srv *Server, opts ...ServeOption) error {
	applyServeOptions(srv, opts)
	t := transport.NewStdio()
	return t.Serve(ctx, srv)
}

// ServeHTTP runs the server over HTTP POST.
// This blocks until the context is canceled or an error occurs.
func ServeHTTP(ctx context.Context, srv *Server, addr string, opts ...HTTPOption) error {
	t := transport.NewHTTP(addr, opts...)
	return t.Serve(ctx, srv)
}

// ServeHTTPWithMiddleware runs the server over HTTP with middleware support.
func ServeHTTPWithMiddleware(ctx context.Context, srv *Server, addr string, httpOpts []HTTPOption, serveOpts ...ServeOption) error {
	applyServeOptions(srv, serveOpts)
	t := transport.NewHTTP(addr, httpOpts...)
	return t.Serve(ctx, srv)
}

// WithReadTimeout sets the read timeout for HTTP requests.
func WithReadTimeout(d time.Duration) HTTPOption {
	return transport.WithReadTimeout(d)
}

// WithWriteTimeout sets the write timeout for HTTP responses.
func WithWriteTimeout(d time.Duration) HTTPOption {
	return transport.WithWriteTimeout(d)
}

// WithShutdownTimeout bounds how long graceful shutdown waits for
// in-flight requests.
func WithShutdownTimeout(d time.Duration) HTTPOption {
	return transport.WithShutdownTimeout(d)
}

// WebSocketOption configures the WebSocket transport.
type WebSocketOption = transport.WebSocketOption

// ServeWebSocket runs the server over WebSocket.
// This blocks until the context is canceled or an error occurs.
func ServeWebSocket(ctx context.Context, srv *Server, addr string, opts ...WebSocketOption) error {
	t := transport.NewWebSocket(addr, opts...)
	return t.Serve(ctx, srv)
}

// ServeWebSocketWithMiddleware runs the server over WebSocket with middleware support.
func ServeWebSocketWithMiddleware(ctx context.Context, srv *Server, addr string, wsOpts []WebSocketOption, serveOpts ...ServeOption) error {
	applyServeOptions(srv, serveOpts)
	t := transport.NewWebSocket(addr, wsOpts...)
	return t.Serve(ctx, srv)
}

// WithWebSocketReadTimeout sets the read timeout for WebSocket messages.
func WithWebSocketReadTimeout(d time.Duration) WebSocketOption {
	return transport.WithWebSocketReadTimeout(d)
}

// WithWebSocketWriteTimeout sets the write timeout for WebSocket messages.
func WithWebSocketWriteTimeout(d time.Duration) WebSocketOption {
	return transport.WithWebSocketWriteTimeout(d)
}

// Middleware re-exports

// Chain composes multiple middleware into a single middleware.
func Chain(middlewares ...Middleware) Middleware {
	return middleware.Chain(middlewares...)
}

// Recover returns middleware that catches panics and converts them to internal errors.
func Recover() Middleware {
	return middleware.Recover()
}

// RecoverWithHandler returns middleware that catches panics and calls the provided handler.
func RecoverWithHandler(handler PanicHandler) Middleware {
	return middleware.RecoverWithHandler(handler)
}

// Timeout returns middleware that enforces a request deadline.
func Timeout(d time.Duration) Middleware {
	return middleware.Timeout(d)
}

// RequestID returns middleware that injects a unique request ID into the context.
func RequestID() Middleware {
	return middleware.RequestID()
}

// RequestIDFromContext returns the request ID from the context, or empty string if not set.
func RequestIDFromContext(ctx context.Context) string {
	return middleware.RequestIDFromContext(ctx)
}

// Logging returns middleware that logs request details.
func Logging(logger Logger) Middleware {
	return middleware.Logging(logger)
}

// DefaultMiddleware returns the recommended production middleware stack.
func DefaultMiddleware(logger Logger) []Middleware {
	return middleware.DefaultStack(logger)
}

// DefaultMiddlewareWithTimeout returns the default stack with a timeout middleware.
func DefaultMiddlewareWithTimeout(logger Logger, timeout time.Duration) []Middleware {
	return middleware.DefaultStackWithTimeout(logger, timeout)
}

// LogF creates a new log field with the given key and value.
func LogF(key string, value any) LogField {
	return middleware.F(key, value)
}
