package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/felixgeelhaar/jsonrpc-go/protocol"
)

// HTTPTransport connects to a JSON-RPC server over HTTP. Each payload is one
// POST; the reply is read from the response body. Servers answer 204 No
// Content when no reply is owed.
type HTTPTransport struct {
	url     string
	client  *http.Client
	headers http.Header
}

// HTTPTransportOption configures an HTTPTransport.
type HTTPTransportOption func(*HTTPTransport)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(c *http.Client) HTTPTransportOption {
	return func(t *HTTPTransport) {
		t.client = c
	}
}

// WithHeader adds a header to every request, for credentials such as
// Authorization or X-API-Key.
func WithHeader(key, value string) HTTPTransportOption {
	return func(t *HTTPTransport) {
		t.headers.Set(key, value)
	}
}

// NewHTTPTransport creates a transport that POSTs payloads to url.
func NewHTTPTransport(url string, opts ...HTTPTransportOption) *HTTPTransport {
	t := &HTTPTransport{
		url:     url,
		client:  http.DefaultClient,
		headers: make(http.Header),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Send delivers a request and decodes the reply from the response body.
func (t *HTTPTransport) Send(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	body, err := t.post(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("no reply for request %s", req.ID.String())
	}

	var resp protocol.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &resp, nil
}

// SendBatch delivers a batch and decodes the array reply. A 204 reply, for
// a notification-only batch, yields no responses.
func (t *HTTPTransport) SendBatch(ctx context.Context, reqs []*protocol.Request) ([]*protocol.Response, error) {
	body, err := t.post(ctx, reqs)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}

	var resps []*protocol.Response
	if err := json.Unmarshal(body, &resps); err != nil {
		return nil, fmt.Errorf("unmarshal batch response: %w", err)
	}
	return resps, nil
}

// Notify delivers a notification.
func (t *HTTPTransport) Notify(ctx context.Context, req *protocol.Request) error {
	_, err := t.post(ctx, req)
	return err
}

// Close releases pooled connections.
func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

func (t *HTTPTransport) post(ctx context.Context, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for key, values := range t.headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer httpResp.Body.Close()

	switch httpResp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return body, nil
	case http.StatusNoContent:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected status %d", httpResp.StatusCode)
	}
}
