// Package middleware wraps JSON-RPC handlers with cross-cutting behavior:
// panic recovery, correlation ids, deadlines, logging, authentication,
// rate and size limits, and OpenTelemetry instrumentation.
//
// # Composition
//
// A Middleware takes the next HandlerFunc and returns a new one. Chains
// read outermost first:
//
//	handler := middleware.Chain(
//	    middleware.Recover(),
//	    middleware.RequestID(),
//	    middleware.Logging(logger),
//	)(baseHandler)
//
// Servers usually skip manual chaining; Server.Use accepts the same
// middleware values:
//
//	srv.Use(middleware.DefaultStack(logger)...)
//
// DefaultStack is Recover, RequestID, Logging. DefaultStackWithTimeout
// adds a deadline inside Logging so overruns are logged the moment they
// are cut off.
//
// # Writing Middleware
//
// No machinery beyond a closure is needed:
//
//	func Metered(reg *Registry) middleware.Middleware {
//	    return func(next middleware.HandlerFunc) middleware.HandlerFunc {
//	        return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
//	            reg.inc(req.Method)
//	            return next(ctx, req)
//	        }
//	    }
//	}
package middleware
