package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"sync"
	"time"
)

// DefaultHTTPPath is the endpoint path for JSON-RPC payloads.
const DefaultHTTPPath = "/jsonrpc"

// DefaultMaxBodyBytes bounds the size of a request body.
const DefaultMaxBodyBytes = 10 * 1024 * 1024

// HTTP implements JSON-RPC transport over HTTP POST. Each POST carries one
// payload (single request, notification, or batch); the reply is returned
// in the response body, or 204 No Content when none is owed.
type HTTP struct {
	addr         string
	path         string
	readTimeout  time.Duration
	writeTimeout time.Duration
	maxBodyBytes int64

	shutdownTimeout time.Duration
	drainDelay      time.Duration
	corsConfig      *CORSConfig

	mu         sync.RWMutex
	listenAddr string
	server     *http.Server

	shutdown *ShutdownManager
}

// HTTPOption configures the HTTP transport.
type HTTPOption func(*HTTP)

// WithReadTimeout bounds reading a request, header through body.
func WithReadTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.readTimeout = d
	}
}

// WithWriteTimeout bounds writing a response.
func WithWriteTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.writeTimeout = d
	}
}

// WithHTTPPath moves the RPC endpoint off the default /jsonrpc.
func WithHTTPPath(path string) HTTPOption {
	return func(h *HTTP) {
		h.path = path
	}
}

// WithMaxBodyBytes caps the accepted request body. Bigger bodies get 413.
func WithMaxBodyBytes(n int64) HTTPOption {
	return func(h *HTTP) {
		h.maxBodyBytes = n
	}
}

// NewHTTP returns an HTTP transport that listens on addr once served.
// Pass ":0" to let the kernel pick a port; ListenAddr reports the result.
func NewHTTP(addr string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		addr:            addr,
		path:            DefaultHTTPPath,
		readTimeout:     30 * time.Second,
		writeTimeout:    30 * time.Second,
		maxBodyBytes:    DefaultMaxBodyBytes,
		shutdownTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(h)
	}

	h.shutdown = NewShutdownManager(ShutdownConfig{
		Timeout:    h.shutdownTimeout,
		DrainDelay: h.drainDelay,
	})

	return h
}

// Addr returns the configured listen address.
func (h *HTTP) Addr() string {
	return h.addr
}

// ListenAddr returns the bound address, which differs from Addr when the
// configured port was 0. Empty until Serve has opened the listener.
func (h *HTTP) ListenAddr() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.listenAddr
}

// Serve listens on addr and handles requests until ctx ends, then drains
// in-flight requests before shutting the server down.
func (h *HTTP) Serve(ctx context.Context, handler Handler) error {
	listener, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	h.mu.Lock()
	h.listenAddr = listener.Addr().String()
	h.server = &http.Server{
		Handler:      h.routes(handler),
		ReadTimeout:  h.readTimeout,
		WriteTimeout: h.writeTimeout,
	}
	h.mu.Unlock()

	failed := make(chan error, 1)
	go func() {
		defer close(failed)
		if err := h.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	select {
	case err := <-failed:
		return err
	case <-ctx.Done():
		_ = h.shutdown.Shutdown(context.Background())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

// routes wires the RPC and health endpoints, with CORS outermost when
// configured.
func (h *HTTP) routes(handler Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc(h.path, func(w http.ResponseWriter, r *http.Request) {
		h.handleRPC(w, r, handler)
	})

	if h.corsConfig != nil {
		return CORSHandler(*h.corsConfig, mux)
	}
	return mux
}

// handleHealth reports draining state, so load balancers stop routing here
// during shutdown.
func (h *HTTP) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.shutdown.IsDraining() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "draining"})
		return
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleRPC handles JSON-RPC payloads over HTTP POST.
func (h *HTTP) handleRPC(w http.ResponseWriter, r *http.Request, handler Handler) {
	if !h.shutdown.TrackRequest() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	defer h.shutdown.CompleteRequest()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			w.WriteHeader(http.StatusUnsupportedMediaType)
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	reply := handler.Call(withHeaderMeta(r.Context(), r.Header), body)
	if reply == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(reply)
}
