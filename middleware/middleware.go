package middleware

import "time"

// DefaultStack returns the middleware most servers want: panic recovery
// outermost, then correlation ids, then logging. Recovery comes first so a
// panic anywhere below it still becomes an error response, and ids are
// assigned before logging so every entry carries one.
func DefaultStack(logger Logger) []Middleware {
	return []Middleware{
		Recover(),
		RequestID(),
		Logging(logger),
	}
}

// DefaultStackWithTimeout is DefaultStack plus a per-request deadline.
// Timeout sits inside Logging so an overrun is logged the moment it is
// cut off, not whenever the abandoned handler gets around to returning.
func DefaultStackWithTimeout(logger Logger, timeout time.Duration) []Middleware {
	return []Middleware{
		Recover(),
		RequestID(),
		Logging(logger),
		Timeout(timeout),
	}
}
