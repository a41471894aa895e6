// Package transport provides JSON-RPC transport implementations.
package transport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/felixgeelhaar/jsonrpc-go/protocol"
)

// Handler turns one raw payload into one raw reply. The payload may be a
// single request, a notification, or a batch; nil means no reply is owed,
// which is the case for notifications and notification-only batches.
type Handler interface {
	Call(ctx context.Context, data []byte) []byte
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, data []byte) []byte

// Call invokes f.
func (f HandlerFunc) Call(ctx context.Context, data []byte) []byte {
	return f(ctx, data)
}

// Transport accepts connections or frames and feeds payloads to a Handler.
type Transport interface {
	// Serve blocks until ctx ends or the transport fails.
	Serve(ctx context.Context, handler Handler) error

	// Addr describes where the transport listens.
	Addr() string
}

// NotificationSender pushes server-initiated notifications to the peer a
// request arrived from. Transports that support pushes put one in the
// request context.
type NotificationSender interface {
	SendNotification(method string, params any) error
}

type notificationSenderKey struct{}

// ContextWithNotificationSender attaches sender to ctx.
func ContextWithNotificationSender(ctx context.Context, sender NotificationSender) context.Context {
	return context.WithValue(ctx, notificationSenderKey{}, sender)
}

// NotificationSenderFromContext returns the sender for the current request,
// or nil when the transport cannot push.
func NotificationSenderFromContext(ctx context.Context) NotificationSender {
	sender, _ := ctx.Value(notificationSenderKey{}).(NotificationSender)
	return sender
}

// Notification is the wire form of a server-initiated notification.
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// withHeaderMeta records incoming headers as request metadata, which the
// auth middleware reads for API keys and bearer tokens. Only the first
// value of repeated headers is kept.
func withHeaderMeta(ctx context.Context, header http.Header) context.Context {
	if len(header) == 0 {
		return ctx
	}
	meta := make(protocol.RequestMeta, len(header))
	for name, values := range header {
		if len(values) > 0 {
			meta[name] = values[0]
		}
	}
	return protocol.ContextWithRequestMeta(ctx, meta)
}
