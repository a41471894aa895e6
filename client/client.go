// Package client provides a JSON-RPC 2.0 client.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/jsonrpc-go/protocol"
)

// Transport defines the interface for client-side transports.
type Transport interface {
	// Send delivers a request and waits for the matching response.
	Send(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

	// SendBatch delivers a batch and waits for its responses. Notifications
	// in the batch produce no response.
	SendBatch(ctx context.Context, reqs []*protocol.Request) ([]*protocol.Response, error)

	// Notify delivers a notification. No response is expected.
	Notify(ctx context.Context, req *protocol.Request) error

	// Close releases the underlying connection or process.
	Close() error
}

// DefaultCallTimeout bounds each call when WithTimeout is not given.
const DefaultCallTimeout = 30 * time.Second

// Client is a JSON-RPC 2.0 client. It assigns request identifiers,
// correlates responses, and decodes results.
type Client struct {
	transport Transport
	timeout   time.Duration

	requestID atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout caps how long each call may take, on top of whatever
// deadline the caller's context carries. Zero disables the cap.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New wraps transport in a client.
func New(transport Transport, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		timeout:   DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call invokes a method on the server and decodes its result into result.
// A nil result discards the payload. Failures reported by the server are
// returned as *protocol.Error.
func (c *Client) Call(ctx context.Context, method string, params any, result any) error {
	req, err := c.newRequest(method, params)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}

	if resp.Error != nil {
		return resp.Error
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("call %s: unmarshal result: %w", method, err)
	}
	return nil
}

// Notify sends a notification. Notifications carry no identifier and are
// never answered, so Notify returns once the payload is handed off.
func (c *Client) Notify(ctx context.Context, method string, params any) error {
	paramsRaw, err := marshalParams(params)
	if err != nil {
		return fmt.Errorf("notify %s: %w", method, err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.transport.Notify(ctx, protocol.NewNotification(method, paramsRaw)); err != nil {
		return fmt.Errorf("notify %s: %w", method, err)
	}
	return nil
}

// CallBatch sends all entries of the batch as one payload. The returned
// slice holds one response per Call entry, in the order the entries were
// added; Notify entries produce none. Per-call failures are carried in the
// responses, not in the returned error.
func (c *Client) CallBatch(ctx context.Context, batch *Batch) ([]*protocol.Response, error) {
	if batch == nil || len(batch.calls) == 0 {
		return nil, nil
	}

	reqs := make([]*protocol.Request, 0, len(batch.calls))
	order := make([]protocol.ID, 0, len(batch.calls))
	for _, call := range batch.calls {
		paramsRaw, err := marshalParams(call.params)
		if err != nil {
			return nil, fmt.Errorf("batch %s: %w", call.method, err)
		}
		if call.notify {
			reqs = append(reqs, protocol.NewNotification(call.method, paramsRaw))
			continue
		}
		id := protocol.IDFromInt(c.requestID.Add(1))
		reqs = append(reqs, protocol.NewRequest(id, call.method, paramsRaw))
		order = append(order, id)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resps, err := c.transport.SendBatch(ctx, reqs)
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}

	// Servers may answer out of order; put responses back in call order
	byID := make(map[string]*protocol.Response, len(resps))
	for _, resp := range resps {
		byID[resp.ID.String()] = resp
	}

	ordered := make([]*protocol.Response, len(order))
	for i, id := range order {
		ordered[i] = byID[id.String()]
	}
	return ordered, nil
}

// Close shuts down the transport. The client is unusable afterwards.
func (c *Client) Close() error {
	return c.transport.Close()
}

func (c *Client) newRequest(method string, params any) (*protocol.Request, error) {
	paramsRaw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	id := protocol.IDFromInt(c.requestID.Add(1))
	return protocol.NewRequest(id, method, paramsRaw), nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return ctx, func() {}
}

func marshalParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}
	return data, nil
}
