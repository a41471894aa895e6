package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// maxLineBytes bounds a single NDJSON line. Batches can get large, so this
// is well above bufio.Scanner's default.
const maxLineBytes = 10 * 1024 * 1024

// Stdio serves JSON-RPC over stdin/stdout as newline-delimited JSON: one
// payload per line in, one reply per line out. Server-initiated
// notifications share stdout under the same write lock.
type Stdio struct {
	in   io.Reader
	out  io.Writer
	diag io.Writer

	mu sync.Mutex
}

// StdioOption configures a Stdio transport.
type StdioOption func(*Stdio)

// WithStdin replaces os.Stdin as the payload source.
func WithStdin(r io.Reader) StdioOption {
	return func(s *Stdio) {
		s.in = r
	}
}

// WithStdout replaces os.Stdout as the reply sink.
func WithStdout(w io.Writer) StdioOption {
	return func(s *Stdio) {
		s.out = w
	}
}

// WithStderr redirects diagnostics away from os.Stderr. Reply-write
// failures land here, since they cannot be reported to the peer.
func WithStderr(w io.Writer) StdioOption {
	return func(s *Stdio) {
		s.diag = w
	}
}

// NewStdio returns a transport reading from stdin and writing to stdout
// unless the options say otherwise.
func NewStdio(opts ...StdioOption) *Stdio {
	s := &Stdio{
		in:   os.Stdin,
		out:  os.Stdout,
		diag: os.Stderr,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the transport address.
func (s *Stdio) Addr() string {
	return "stdio"
}

// Serve reads lines until EOF or cancellation. It returns nil on EOF,
// ctx.Err() when the context ends, and the scanner error otherwise.
func (s *Stdio) Serve(ctx context.Context, handler Handler) error {
	type scan struct {
		line []byte
		err  error
	}
	feed := make(chan scan)

	go func() {
		defer close(feed)
		scanner := bufio.NewScanner(s.in)
		scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case feed <- scan{line: line}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case feed <- scan{err: err}:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item, ok := <-feed:
			if !ok {
				return nil // EOF
			}
			if item.err != nil {
				return item.err
			}
			s.dispatch(ctx, handler, item.line)
		}
	}
}

// SendNotification pushes a server-initiated notification line to stdout.
func (s *Stdio) SendNotification(method string, params any) error {
	data, err := json.Marshal(params)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(Notification{JSONRPC: "2.0", Method: method, Params: data})
	if err != nil {
		return err
	}
	return s.writeLine(payload)
}

// dispatch runs one line through the handler and writes the reply, if any.
// Blank lines between payloads are tolerated.
func (s *Stdio) dispatch(ctx context.Context, handler Handler, line []byte) {
	if len(bytes.TrimSpace(line)) == 0 {
		return
	}

	ctx = ContextWithNotificationSender(ctx, s)

	if reply := handler.Call(ctx, line); reply != nil {
		if err := s.writeLine(reply); err != nil {
			fmt.Fprintf(s.diag, "jsonrpc: dropped reply, write failed: %v\n", err)
		}
	}
}

// writeLine writes one NDJSON line under the write lock, so replies and
// pushed notifications never interleave.
func (s *Stdio) writeLine(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.out.Write(data); err != nil {
		return err
	}
	_, err := s.out.Write([]byte{'\n'})
	return err
}
