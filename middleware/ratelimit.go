package middleware

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"

	"github.com/felixgeelhaar/jsonrpc-go/protocol"
)

// RateLimitOption configures the rate limiting middleware.
type RateLimitOption func(*rateLimitConfig)

type rateLimitConfig struct {
	key    func(*protocol.Request) string
	logger Logger
}

// WithRateLimitKeyFunc derives the bucket key from the request. All
// requests mapping to the same key share one token bucket.
func WithRateLimitKeyFunc(fn func(*protocol.Request) string) RateLimitOption {
	return func(c *rateLimitConfig) { c.key = fn }
}

// WithRateLimitLogger sets the logger for rejected requests.
func WithRateLimitLogger(l Logger) RateLimitOption {
	return func(c *rateLimitConfig) { c.logger = l }
}

// RateLimit returns middleware enforcing a token bucket of rate tokens per
// second with the given burst capacity. Requests over the limit fail with
// code -32002 and the method is never invoked; an over-limit notification
// vanishes silently, as every notification failure does. Without a key
// function all requests share a single bucket.
func RateLimit(rate int, burst int, opts ...RateLimitOption) Middleware {
	cfg := rateLimitConfig{
		key: func(*protocol.Request) string { return "global" },
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	limiter := ratelimit.New(&ratelimit.Config{
		Rate:     rate,
		Burst:    burst,
		Interval: time.Second,
	})

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			key := cfg.key(req)
			if limiter.Allow(ctx, key) {
				return next(ctx, req)
			}

			if cfg.logger != nil {
				cfg.logger.Warn("rate limit exceeded",
					F("method", req.Method),
					F("key", key),
				)
			}
			return nil, protocol.NewRateLimited("rate limit exceeded")
		}
	}
}

// RateLimitByMethod gives every method its own bucket.
func RateLimitByMethod(rate int, burst int, opts ...RateLimitOption) Middleware {
	keyed := append([]RateLimitOption{
		WithRateLimitKeyFunc(func(req *protocol.Request) string { return req.Method }),
	}, opts...)
	return RateLimit(rate, burst, keyed...)
}

// RateLimitByClient buckets requests by the identifier clientID extracts,
// such as an API key or remote address from the request metadata.
func RateLimitByClient(rate int, burst int, clientID func(*protocol.Request) string, opts ...RateLimitOption) Middleware {
	keyed := append([]RateLimitOption{WithRateLimitKeyFunc(clientID)}, opts...)
	return RateLimit(rate, burst, keyed...)
}
