package transport

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewInMemoryPair(t *testing.T) {
	t.Run("creates connected transports", func(t *testing.T) {
		a, b := NewInMemoryPair()

		if a == nil || b == nil {
			t.Fatal("expected both sides to be created")
		}

		if a.Addr() != "inmemory" {
			t.Errorf("Addr() = %q, want %q", a.Addr(), "inmemory")
		}
	})

	t.Run("delivers payloads across the pair", func(t *testing.T) {
		a, b := NewInMemoryPair()
		ctx := context.Background()

		if err := a.Send(ctx, []byte(`{"jsonrpc":"2.0","method":"ping","id":1}`)); err != nil {
			t.Fatalf("Send failed: %v", err)
		}

		data, err := b.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive failed: %v", err)
		}
		if string(data) != `{"jsonrpc":"2.0","method":"ping","id":1}` {
			t.Errorf("received %q", data)
		}
	})
}

func TestInMemory_Serve(t *testing.T) {
	t.Run("answers requests from the peer", func(t *testing.T) {
		serverSide, clientSide := NewInMemoryPair()
		defer serverSide.Close()

		handler := HandlerFunc(func(ctx context.Context, data []byte) []byte {
			return []byte(`{"jsonrpc":"2.0","result":"pong","id":1}`)
		})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go func() { _ = serverSide.Serve(ctx, handler) }()

		reply, err := clientSide.SendAndReceive(ctx, []byte(`{"jsonrpc":"2.0","method":"ping","id":1}`))
		if err != nil {
			t.Fatalf("SendAndReceive failed: %v", err)
		}
		if string(reply) != `{"jsonrpc":"2.0","result":"pong","id":1}` {
			t.Errorf("reply = %q", reply)
		}
	})

	t.Run("produces no reply for notifications", func(t *testing.T) {
		serverSide, clientSide := NewInMemoryPair()
		defer serverSide.Close()

		handled := make(chan struct{})
		handler := HandlerFunc(func(ctx context.Context, data []byte) []byte {
			close(handled)
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go func() { _ = serverSide.Serve(ctx, handler) }()

		if err := clientSide.Send(ctx, []byte(`{"jsonrpc":"2.0","method":"notify"}`)); err != nil {
			t.Fatalf("Send failed: %v", err)
		}

		select {
		case <-handled:
		case <-time.After(100 * time.Millisecond):
			t.Fatal("handler was not invoked")
		}

		recvCtx, recvCancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer recvCancel()
		if _, err := clientSide.Receive(recvCtx); err == nil {
			t.Error("expected no reply for notification")
		}
	})

	t.Run("stops when either side closes", func(t *testing.T) {
		serverSide, clientSide := NewInMemoryPair()

		handler := HandlerFunc(func(ctx context.Context, data []byte) []byte {
			return nil
		})

		done := make(chan error, 1)
		go func() {
			done <- serverSide.Serve(context.Background(), handler)
		}()

		clientSide.Close()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("expected nil on close, got %v", err)
			}
		case <-time.After(100 * time.Millisecond):
			t.Error("Serve did not stop after Close")
		}
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		serverSide, _ := NewInMemoryPair()
		defer serverSide.Close()

		handler := HandlerFunc(func(ctx context.Context, data []byte) []byte {
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			done <- serverSide.Serve(ctx, handler)
		}()

		cancel()

		select {
		case err := <-done:
			if err != context.Canceled {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(100 * time.Millisecond):
			t.Error("Serve did not stop after context cancellation")
		}
	})
}

func TestInMemory_Close(t *testing.T) {
	t.Run("fails sends and receives after close", func(t *testing.T) {
		a, b := NewInMemoryPair()
		a.Close()

		ctx := context.Background()
		if err := a.Send(ctx, []byte(`{}`)); !errors.Is(err, ErrClosed) {
			t.Errorf("Send after close = %v, want ErrClosed", err)
		}
		if _, err := b.Receive(ctx); !errors.Is(err, ErrClosed) {
			t.Errorf("Receive after close = %v, want ErrClosed", err)
		}
	})

	t.Run("is safe to call from both sides", func(t *testing.T) {
		a, b := NewInMemoryPair()
		a.Close()
		b.Close()
		a.Close()
	})
}
