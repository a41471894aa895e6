package middleware

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/jsonrpc-go/protocol"
)

// PanicHandler turns a recovered panic value into the request's outcome.
type PanicHandler func(ctx context.Context, req *protocol.Request, panicVal any) (*protocol.Response, error)

// Recover returns middleware that converts panics from later middleware
// into -32603 errors. The dispatcher already contains panics raised inside
// method handlers; this catches the rest of the chain, so a panicking
// middleware never tears down the transport loop.
func Recover() Middleware {
	return RecoverWithHandler(func(_ context.Context, _ *protocol.Request, panicVal any) (*protocol.Response, error) {
		return nil, protocol.NewInternalError(fmt.Sprintf("panic: %v", panicVal))
	})
}

// RecoverWithHandler returns Recover middleware that hands the recovered
// value to handler, for callers that want to alert or translate panics
// themselves.
func RecoverWithHandler(handler PanicHandler) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (resp *protocol.Response, err error) {
			defer func() {
				if r := recover(); r != nil {
					resp, err = handler(ctx, req, r)
				}
			}()
			return next(ctx, req)
		}
	}
}
