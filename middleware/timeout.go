package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/jsonrpc-go/protocol"
)

// Timeout returns middleware that bounds each request to d. The core never
// cancels handlers on its own; this is where callers impose a deadline.
//
// The deadline is enforced, not advisory: when it passes, the caller gets a
// -32603 error naming the timeout and the handler's eventual result is
// discarded. The handler keeps running on its own goroutine until it
// observes the cancelled context, so handlers should still honor ctx.
func Timeout(d time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			type outcome struct {
				resp *protocol.Response
				err  error
			}
			done := make(chan outcome, 1)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						done <- outcome{nil, protocol.NewInternalError(fmt.Sprintf("panic: %v", r))}
					}
				}()
				resp, err := next(ctx, req)
				done <- outcome{resp, err}
			}()

			select {
			case out := <-done:
				return out.resp, out.err
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return nil, protocol.NewInternalError("request timed out").
						WithData(map[string]string{"timeout": d.String()})
				}
				return nil, ctx.Err()
			}
		}
	}
}
