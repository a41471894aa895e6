package middleware

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/jsonrpc-go/protocol"
)

// Size presets for limit arguments.
const (
	// KB is 1024 bytes.
	KB = 1024
	// MB is 1024 * 1024 bytes.
	MB = 1024 * KB
)

// SizeLimitOption configures the size limit middleware.
type SizeLimitOption func(*sizeLimitConfig)

type sizeLimitConfig struct {
	logger Logger
}

// WithSizeLimitLogger sets the logger for rejected requests.
func WithSizeLimitLogger(l Logger) SizeLimitOption {
	return func(c *sizeLimitConfig) { c.logger = l }
}

// SizeLimit returns middleware that rejects any request whose raw params
// exceed maxBytes, with code -32600. Transports cap the payload as a whole;
// this bounds each request after parsing, so one oversized batch element is
// rejected without costing its siblings.
func SizeLimit(maxBytes int64, opts ...SizeLimitOption) Middleware {
	cfg := sizeLimitConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			size := int64(len(req.Params))
			if size <= maxBytes {
				return next(ctx, req)
			}

			if cfg.logger != nil {
				cfg.logger.Warn("request size limit exceeded",
					F("method", req.Method),
					F("size", size),
					F("max", maxBytes),
				)
			}
			return nil, protocol.NewInvalidRequest(
				fmt.Sprintf("request size %d exceeds limit of %d bytes", size, maxBytes),
			)
		}
	}
}
