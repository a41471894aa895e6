package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/felixgeelhaar/jsonrpc-go/protocol"
)

// maxReplyBytes bounds a single reply line. Batch replies can get large.
const maxReplyBytes = 10 * 1024 * 1024

// StdioTransport connects to a JSON-RPC server via subprocess stdio.
// Payloads are written as newline-delimited JSON; replies are matched to
// waiting callers by id, so responses may arrive in any order.
type StdioTransport struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	mu      sync.Mutex
	pending map[string]chan *protocol.Response
	closed  bool

	readWG sync.WaitGroup
}

// NewStdioTransport spawns command and speaks newline-delimited JSON over
// its stdin and stdout. The subprocess lives until Close.
func NewStdioTransport(command string, args ...string) (*StdioTransport, error) {
	cmd := exec.Command(command, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start command: %w", err)
	}

	t := &StdioTransport{
		cmd:     cmd,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		pending: make(map[string]chan *protocol.Response),
	}

	t.readWG.Add(1)
	go t.readReplies()

	return t, nil
}

// Send sends a request and waits for the matching response.
func (t *StdioTransport) Send(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	ch, err := t.register(req.ID)
	if err != nil {
		return nil, err
	}
	defer t.unregister(req.ID)

	if err := t.writeLine(req); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp := <-ch:
		return resp, nil
	}
}

// SendBatch sends a batch as one line and waits for every response it owes.
func (t *StdioTransport) SendBatch(ctx context.Context, reqs []*protocol.Request) ([]*protocol.Response, error) {
	var ids []protocol.ID
	var channels []chan *protocol.Response
	for _, req := range reqs {
		if req.IsNotification() {
			continue
		}
		ch, err := t.register(req.ID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, req.ID)
		channels = append(channels, ch)
	}
	defer func() {
		for _, id := range ids {
			t.unregister(id)
		}
	}()

	if err := t.writeLine(reqs); err != nil {
		return nil, err
	}

	resps := make([]*protocol.Response, 0, len(channels))
	for _, ch := range channels {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case resp := <-ch:
			resps = append(resps, resp)
		}
	}
	return resps, nil
}

// Notify sends a notification. No reply is awaited.
func (t *StdioTransport) Notify(_ context.Context, req *protocol.Request) error {
	return t.writeLine(req)
}

// Close shuts the subprocess down and reaps it. Calling it again after
// the first time is a no-op.
func (t *StdioTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	// Closing stdin is the shutdown signal; the reader then drains until
	// the process closes its end.
	_ = t.stdin.Close()
	t.readWG.Wait()

	if t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
	}
	return t.cmd.Wait()
}

// Stderr exposes the subprocess's stderr, for surfacing its diagnostics
// in the caller's logs.
func (t *StdioTransport) Stderr() io.Reader {
	return t.stderr
}

func (t *StdioTransport) register(id protocol.ID) (chan *protocol.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, fmt.Errorf("transport closed")
	}
	ch := make(chan *protocol.Response, 1)
	t.pending[id.String()] = ch
	return ch, nil
}

func (t *StdioTransport) unregister(id protocol.ID) {
	t.mu.Lock()
	delete(t.pending, id.String())
	t.mu.Unlock()
}

func (t *StdioTransport) writeLine(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("transport closed")
	}
	if _, err := t.stdin.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write request: %w", err)
	}
	return nil
}

func (t *StdioTransport) readReplies() {
	defer t.readWG.Done()

	scanner := bufio.NewScanner(t.stdout)
	scanner.Buffer(make([]byte, 64*1024), maxReplyBytes)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		// A batch reply is one array line; dispatch each element
		if line[0] == '[' {
			var resps []*protocol.Response
			if err := json.Unmarshal(line, &resps); err != nil {
				continue
			}
			for _, resp := range resps {
				t.dispatch(resp)
			}
			continue
		}

		var resp protocol.Response
		if err := json.Unmarshal(line, &resp); err != nil {
			continue // Skip malformed replies
		}
		t.dispatch(&resp)
	}
}

// dispatch hands a response to the caller waiting on its id. Replies nobody
// waits for, server-pushed notifications included, are dropped.
func (t *StdioTransport) dispatch(resp *protocol.Response) {
	t.mu.Lock()
	ch, ok := t.pending[resp.ID.String()]
	t.mu.Unlock()
	if ok {
		ch <- resp
	}
}
