// Package testutil supports testing JSON-RPC servers without standing up
// a real transport. TestClient drives a server's payload handler in
// memory, MockTransport fakes the stream pair a stdio transport reads and
// writes, and HandlerRecorder captures wire traffic for assertions.
//
// A typical test builds a server, wraps it in a TestClient, and calls
// methods as a remote peer would:
//
//	func TestUserService(t *testing.T) {
//	    srv := server.New()
//	    srv.Register("user/get", func(ctx context.Context, p GetParams) (User, error) {
//	        return lookup(p.ID)
//	    })
//
//	    tc := testutil.NewTestClient(t, srv)
//	    defer tc.Close()
//
//	    var user User
//	    if err := tc.CallResult("user/get", GetParams{ID: 7}, &user); err != nil {
//	        t.Fatal(err)
//	    }
//	}
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/felixgeelhaar/jsonrpc-go/protocol"
	"github.com/felixgeelhaar/jsonrpc-go/server"
	"github.com/felixgeelhaar/jsonrpc-go/transport"
)

// TestClient feeds payloads straight into a handler, skipping transports
// entirely. Identifiers are assigned sequentially starting at 1.
type TestClient struct {
	t       testing.TB
	srv     *server.Server
	handler transport.Handler
	lastID  atomic.Int64
}

// NewTestClient wraps srv in a client that calls it in memory.
func NewTestClient(t testing.TB, srv *server.Server) *TestClient {
	t.Helper()
	return &TestClient{t: t, srv: srv, handler: srv}
}

// NewTestClientWithHandler wraps a raw payload handler instead of a
// server, so wrapped handlers such as a HandlerRecorder can sit between
// the client and the server.
func NewTestClientWithHandler(t testing.TB, handler transport.Handler) *TestClient {
	t.Helper()
	return &TestClient{t: t, handler: handler}
}

// Close releases nothing; it exists so test bodies read like real client
// code and keep working if cleanup becomes necessary.
func (tc *TestClient) Close() {}

func (tc *TestClient) nextID() protocol.ID {
	return protocol.IDFromInt(tc.lastID.Add(1))
}

// encodeParams marshals params unless they are absent. A nil return with
// nil error means the request goes out without a params member.
func encodeParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}
	return data, nil
}

// Call sends method with params and returns the decoded response.
// Problems with the exchange itself come back as plain errors; failures
// the server reports travel inside the response.
func (tc *TestClient) Call(method string, params any) (*protocol.Response, error) {
	tc.t.Helper()

	paramsRaw, err := encodeParams(params)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(protocol.NewRequest(tc.nextID(), method, paramsRaw))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	reply := tc.handler.Call(context.Background(), payload)
	if reply == nil {
		return nil, fmt.Errorf("no reply for call to %s", method)
	}

	resp := new(protocol.Response)
	if err := json.Unmarshal(reply, resp); err != nil {
		return nil, fmt.Errorf("unmarshal reply: %w", err)
	}
	return resp, nil
}

// CallResult sends a request and decodes its result into result. Failures
// reported by the server are returned as *protocol.Error.
func (tc *TestClient) CallResult(method string, params any, result any) error {
	tc.t.Helper()

	resp, err := tc.Call(method, params)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(resp.Result, result)
}

// Notify sends a notification and returns the raw reply bytes. A correct
// server stays silent, so the return is nil unless something is wrong.
func (tc *TestClient) Notify(method string, params any) []byte {
	tc.t.Helper()

	paramsRaw, err := encodeParams(params)
	if err != nil {
		tc.t.Fatalf("notify %s: %v", method, err)
	}
	payload, err := json.Marshal(protocol.NewNotification(method, paramsRaw))
	if err != nil {
		tc.t.Fatalf("notify %s: marshal: %v", method, err)
	}
	return tc.handler.Call(context.Background(), payload)
}

// CallRaw sends raw payload text and returns the raw reply bytes, nil when
// no reply is owed. Use it for wire-level cases typed calls cannot express:
// malformed text, batches, or requests with unusual ids.
func (tc *TestClient) CallRaw(payload string) []byte {
	tc.t.Helper()
	return tc.handler.Call(context.Background(), []byte(payload))
}

// AssertMethodExists fails the test unless the server has a method
// registered under name.
func (tc *TestClient) AssertMethodExists(name string) {
	tc.t.Helper()

	if tc.srv == nil {
		tc.t.Fatal("AssertMethodExists requires a server-backed client")
	}

	for _, m := range tc.srv.Methods() {
		if m.Name == name {
			return
		}
	}
	tc.t.Errorf("method %q not registered", name)
}

// AssertErrorCode fails the test unless resp carries an error with code.
func (tc *TestClient) AssertErrorCode(resp *protocol.Response, code int) {
	tc.t.Helper()

	if resp.Error == nil {
		tc.t.Errorf("expected error with code %d, got success", code)
		return
	}
	if resp.Error.Code != code {
		tc.t.Errorf("error code = %d, want %d", resp.Error.Code, code)
	}
}

// AssertResult fails the test unless resp succeeded with exactly the raw
// JSON text want.
func (tc *TestClient) AssertResult(resp *protocol.Response, want string) {
	tc.t.Helper()

	if resp.Error != nil {
		tc.t.Errorf("expected result %s, got error: %v", want, resp.Error)
		return
	}
	if string(resp.Result) != want {
		tc.t.Errorf("result = %s, want %s", resp.Result, want)
	}
}

// AssertNoReply fails the test if the handler produced a reply. Pass it
// the return of Notify or CallRaw for payloads that owe none.
func (tc *TestClient) AssertNoReply(reply []byte) {
	tc.t.Helper()

	if reply != nil {
		tc.t.Errorf("expected no reply, got %s", reply)
	}
}

// MockTransport is an in-memory NDJSON stream pair. Its Input and Output
// ends plug into a stdio transport, so tests can exercise the full line
// loop without pipes or subprocesses.
type MockTransport struct {
	mu     sync.Mutex
	input  bytes.Buffer
	output bytes.Buffer
}

// NewMockTransport creates an empty stream pair.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// WriteRequest queues a request line on the input stream, under the given
// identifier.
func (m *MockTransport) WriteRequest(id int64, method string, params any) error {
	paramsRaw, err := encodeParams(params)
	if err != nil {
		return err
	}

	req := protocol.NewRequest(protocol.IDFromInt(id), method, paramsRaw)
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return m.WritePayload(string(data))
}

// WritePayload queues one raw payload line on the input stream.
func (m *MockTransport) WritePayload(payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.input.WriteString(payload)
	m.input.WriteByte('\n')
	return nil
}

// ReadReply decodes the next reply line from the output stream. Once the
// output is drained it returns io.EOF.
func (m *MockTransport) ReadReply() (*protocol.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	line, err := m.output.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if len(bytes.TrimSpace(line)) == 0 {
		return nil, io.EOF
	}

	resp := new(protocol.Response)
	if err := json.Unmarshal(line, resp); err != nil {
		return nil, fmt.Errorf("decode reply line: %w", err)
	}
	return resp, nil
}

// Input is the stream a transport should read requests from.
func (m *MockTransport) Input() io.Reader {
	return &m.input
}

// Output is the stream a transport should write replies to.
func (m *MockTransport) Output() io.Writer {
	return &m.output
}

// HandlerRecorder wraps a transport.Handler and records every payload and
// reply that passes through, for assertions on the wire traffic.
type HandlerRecorder struct {
	handler transport.Handler

	mu       sync.Mutex
	payloads [][]byte
	replies  [][]byte
}

// NewHandlerRecorder creates a recorder around the given handler.
func NewHandlerRecorder(handler transport.Handler) *HandlerRecorder {
	return &HandlerRecorder{handler: handler}
}

// Call delegates to the wrapped handler, recording payload and reply.
func (r *HandlerRecorder) Call(ctx context.Context, data []byte) []byte {
	reply := r.handler.Call(ctx, data)

	r.mu.Lock()
	r.payloads = append(r.payloads, bytes.Clone(data))
	if reply != nil {
		r.replies = append(r.replies, bytes.Clone(reply))
	}
	r.mu.Unlock()

	return reply
}

// Payloads returns a copy of every payload seen so far.
func (r *HandlerRecorder) Payloads() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyAll(r.payloads)
}

// Replies returns a copy of every reply produced so far. Payloads that
// owed no reply, notifications among them, contribute nothing here.
func (r *HandlerRecorder) Replies() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyAll(r.replies)
}

// Reset clears the recorded traffic.
func (r *HandlerRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = nil
	r.replies = nil
}

func copyAll(entries [][]byte) [][]byte {
	out := make([][]byte, len(entries))
	copy(out, entries)
	return out
}
