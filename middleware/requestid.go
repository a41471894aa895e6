package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/felixgeelhaar/jsonrpc-go/protocol"
)

type requestIDKey struct{}

// RequestID returns middleware that stamps each request context with a
// random correlation id. The id is unrelated to the JSON-RPC message id; it
// ties together log lines and spans from one request, including the batch
// case where many message ids share one wire payload. An id already present
// in the context is kept, so transports may assign their own upstream.
func RequestID() Middleware {
	return RequestIDWithGenerator(randomID)
}

// RequestIDWithGenerator returns RequestID middleware drawing ids from the
// given generator.
func RequestIDWithGenerator(generate func() string) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			if RequestIDFromContext(ctx) == "" {
				ctx = ContextWithRequestID(ctx, generate())
			}
			return next(ctx, req)
		}
	}
}

// ContextWithRequestID returns a context carrying the correlation id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the correlation id, or "" when none was
// assigned.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// randomID returns 16 random bytes hex-encoded. crypto/rand keeps ids
// collision-free across processes.
func randomID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
