package middleware

import (
	"context"
	"time"

	"github.com/felixgeelhaar/jsonrpc-go/protocol"
)

// Logger is the structured logging interface the middleware writes to.
// Adapters for slog, zap, or zerolog need only these four methods.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is one key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// F builds a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// NopLogger discards everything. It is the default wherever a Logger is
// optional.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}

// Logging returns middleware that writes one entry per request: info on
// success, error on failure. A failure is either a handler error or an
// error response the handler built itself. Notifications are logged too;
// their failures never reach the caller, so the log is the only place
// they surface.
func Logging(logger Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			fields := []Field{
				F("method", req.Method),
				F("duration", time.Since(start)),
			}
			if req.IsNotification() {
				fields = append(fields, F("notification", true))
			} else {
				fields = append(fields, F("rpc_id", req.ID.String()))
			}
			if id := RequestIDFromContext(ctx); id != "" {
				fields = append(fields, F("request_id", id))
			}

			switch {
			case err != nil:
				logger.Error("request failed", append(fields, F("error", err.Error()))...)
			case resp != nil && resp.Error != nil:
				logger.Error("request failed", append(fields,
					F("code", resp.Error.Code),
					F("error", resp.Error.Message))...)
			default:
				logger.Info("request completed", fields...)
			}

			return resp, err
		}
	}
}
