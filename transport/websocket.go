package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket serves JSON-RPC over WebSocket connections. Every text message
// carries one payload (single or batch) and every reply goes back as one
// message on the same connection. Handlers can push notifications to the
// peer through the NotificationSender in the request context.
type WebSocket struct {
	addr     string
	upgrader websocket.Upgrader

	readTimeout  time.Duration
	writeTimeout time.Duration

	server *http.Server

	mu    sync.RWMutex
	conns map[*wsConn]struct{}
}

// WebSocketOption configures a WebSocket transport.
type WebSocketOption func(*WebSocket)

// WithWebSocketReadTimeout bounds how long a connection may stay silent
// before it is dropped. Pongs count as traffic.
func WithWebSocketReadTimeout(d time.Duration) WebSocketOption {
	return func(ws *WebSocket) {
		ws.readTimeout = d
	}
}

// WithWebSocketWriteTimeout bounds each outgoing message write.
func WithWebSocketWriteTimeout(d time.Duration) WebSocketOption {
	return func(ws *WebSocket) {
		ws.writeTimeout = d
	}
}

// WithWebSocketCheckOrigin replaces the upgrade origin check. The default
// accepts every origin.
func WithWebSocketCheckOrigin(fn func(r *http.Request) bool) WebSocketOption {
	return func(ws *WebSocket) {
		ws.upgrader.CheckOrigin = fn
	}
}

// NewWebSocket returns a WebSocket transport that listens on addr once
// served.
func NewWebSocket(addr string, opts ...WebSocketOption) *WebSocket {
	ws := &WebSocket{
		addr:         addr,
		readTimeout:  60 * time.Second,
		writeTimeout: 10 * time.Second,
		conns:        make(map[*wsConn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(ws)
	}
	return ws
}

// Addr returns the listen address.
func (ws *WebSocket) Addr() string {
	return ws.addr
}

// Serve upgrades every request on addr and pumps messages until ctx is
// canceled or the listener fails.
func (ws *WebSocket) Serve(ctx context.Context, handler Handler) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		ws.accept(ctx, w, r, handler)
	})

	ws.server = &http.Server{
		Addr:         ws.addr,
		Handler:      mux,
		ReadTimeout:  ws.readTimeout,
		WriteTimeout: ws.writeTimeout,
	}

	failed := make(chan error, 1)
	go func() {
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	select {
	case err := <-failed:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ws.closeConns()
		return ws.server.Shutdown(shutdownCtx)
	}
}

// accept upgrades one connection and runs its read loop until the peer
// goes away or ctx ends.
func (ws *WebSocket) accept(ctx context.Context, w http.ResponseWriter, r *http.Request, handler Handler) {
	raw, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	conn := &wsConn{conn: raw, writeTimeout: ws.writeTimeout}
	ws.track(conn)
	defer func() {
		ws.untrack(conn)
		_ = raw.Close()
	}()

	// Pongs reset the idle deadline, so pinging clients survive quiet
	// spells longer than the read timeout.
	raw.SetPongHandler(func(string) error {
		return ws.resetReadDeadline(raw)
	})

	// Headers from the upgrade request stand in for per-message metadata
	// on everything this connection sends.
	connCtx := withHeaderMeta(ctx, r.Header)
	connCtx = ContextWithNotificationSender(connCtx, &wsNotifier{conn: conn})

	for ctx.Err() == nil {
		if err := ws.resetReadDeadline(raw); err != nil {
			return
		}

		_, payload, err := raw.ReadMessage()
		if err != nil {
			// Plain disconnects and idle timeouts both land here.
			return
		}

		if reply := handler.Call(connCtx, payload); reply != nil {
			_ = conn.send(reply)
		}
	}
}

func (ws *WebSocket) resetReadDeadline(raw *websocket.Conn) error {
	if ws.readTimeout <= 0 {
		return nil
	}
	return raw.SetReadDeadline(time.Now().Add(ws.readTimeout))
}

func (ws *WebSocket) track(c *wsConn) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.conns[c] = struct{}{}
}

func (ws *WebSocket) untrack(c *wsConn) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	delete(ws.conns, c)
}

func (ws *WebSocket) closeConns() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	for c := range ws.conns {
		c.close()
	}
}

// wsConn serializes writes to one connection; replies and pushed
// notifications would otherwise interleave mid-frame.
type wsConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
}

func (c *wsConn) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = c.conn.Close()
}

// wsNotifier pushes server-initiated notifications to one peer.
type wsNotifier struct {
	conn *wsConn
}

func (n *wsNotifier) SendNotification(method string, params any) error {
	data, err := json.Marshal(params)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(Notification{JSONRPC: "2.0", Method: method, Params: data})
	if err != nil {
		return err
	}
	return n.conn.send(payload)
}
