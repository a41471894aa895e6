package transport_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/felixgeelhaar/jsonrpc-go/protocol"
	"github.com/felixgeelhaar/jsonrpc-go/transport"
)

// byMethod answers single requests the way a dispatcher would: ping returns
// an empty object, echo returns its params, anything else -32601.
func byMethod() transport.Handler {
	return transport.HandlerFunc(func(ctx context.Context, data []byte) []byte {
		var req protocol.Request
		if err := json.Unmarshal(data, &req); err != nil {
			return nil
		}

		var resp *protocol.Response
		switch req.Method {
		case "ping":
			resp = protocol.NewResponse(req.ID, json.RawMessage(`{}`))
		case "echo":
			resp = protocol.NewResponse(req.ID, req.Params)
		default:
			resp = protocol.NewErrorResponse(req.ID, protocol.NewMethodNotFound("unknown method: "+req.Method))
		}
		out, _ := json.Marshal(resp)
		return out
	})
}

// serveWS starts a WebSocket transport on addr and tears it down with the
// test. The brief sleep lets the listener come up before callers dial.
func serveWS(t *testing.T, addr string, handler transport.Handler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = transport.NewWebSocket(addr).Serve(ctx, handler)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
}

func dialWS(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestWebSocket_ServeStopsOnCancel(t *testing.T) {
	ws := transport.NewWebSocket(":0")

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- ws.Serve(ctx, byMethod()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-served:
		if err != nil {
			t.Errorf("Serve() = %v after cancel, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestWebSocket_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	t.Run("round trip over one connection", func(t *testing.T) {
		serveWS(t, ":18931", byMethod())
		conn := dialWS(t, "ws://localhost:18931/")

		if err := conn.WriteJSON(protocol.Request{JSONRPC: "2.0", ID: protocol.IDFromInt(1), Method: "ping"}); err != nil {
			t.Fatalf("write ping: %v", err)
		}
		var pong protocol.Response
		if err := conn.ReadJSON(&pong); err != nil {
			t.Fatalf("read pong: %v", err)
		}
		if pong.Error != nil {
			t.Fatalf("ping answered with %v", pong.Error)
		}

		echo := protocol.Request{
			JSONRPC: "2.0",
			ID:      protocol.IDFromInt(2),
			Method:  "echo",
			Params:  json.RawMessage(`{"message":"hello"}`),
		}
		if err := conn.WriteJSON(echo); err != nil {
			t.Fatalf("write echo: %v", err)
		}
		var reply protocol.Response
		if err := conn.ReadJSON(&reply); err != nil {
			t.Fatalf("read echo reply: %v", err)
		}

		var result map[string]string
		if err := json.Unmarshal(reply.Result, &result); err != nil {
			t.Fatalf("decode result: %v", err)
		}
		if result["message"] != "hello" {
			t.Errorf(`result["message"] = %q, want "hello"`, result["message"])
		}
	})

	t.Run("serves connections concurrently", func(t *testing.T) {
		var calls sync.WaitGroup
		var mu sync.Mutex
		served := 0
		counting := transport.HandlerFunc(func(ctx context.Context, data []byte) []byte {
			mu.Lock()
			served++
			mu.Unlock()

			var req protocol.Request
			_ = json.Unmarshal(data, &req)
			out, _ := json.Marshal(protocol.NewResponse(req.ID, json.RawMessage(`{"ok":true}`)))
			return out
		})

		serveWS(t, ":18932", counting)

		for i := 0; i < 3; i++ {
			calls.Add(1)
			go func() {
				defer calls.Done()

				conn, _, err := websocket.DefaultDialer.Dial("ws://localhost:18932/", nil)
				if err != nil {
					t.Errorf("dial: %v", err)
					return
				}
				defer conn.Close()

				if err := conn.WriteJSON(protocol.Request{JSONRPC: "2.0", ID: protocol.IDFromInt(1), Method: "work"}); err != nil {
					t.Errorf("write: %v", err)
					return
				}
				var resp protocol.Response
				if err := conn.ReadJSON(&resp); err != nil {
					t.Errorf("read: %v", err)
				}
			}()
		}
		calls.Wait()

		mu.Lock()
		defer mu.Unlock()
		if served != 3 {
			t.Errorf("served %d connections, want 3", served)
		}
	})

	t.Run("pushes notifications before the reply", func(t *testing.T) {
		progressing := transport.HandlerFunc(func(ctx context.Context, data []byte) []byte {
			var req protocol.Request
			_ = json.Unmarshal(data, &req)

			if sender := transport.NotificationSenderFromContext(ctx); sender != nil {
				_ = sender.SendNotification("job/progress", map[string]any{
					"progress": 50,
					"total":    100,
				})
			}

			out, _ := json.Marshal(protocol.NewResponse(req.ID, json.RawMessage(`"done"`)))
			return out
		})

		serveWS(t, ":18933", progressing)
		conn := dialWS(t, "ws://localhost:18933/")

		if err := conn.WriteJSON(protocol.Request{JSONRPC: "2.0", ID: protocol.IDFromInt(1), Method: "job/run"}); err != nil {
			t.Fatalf("write: %v", err)
		}

		var notif transport.Notification
		if err := conn.ReadJSON(&notif); err != nil {
			t.Fatalf("read notification: %v", err)
		}
		if notif.Method != "job/progress" {
			t.Errorf("first frame method = %q, want the progress notification", notif.Method)
		}

		var resp protocol.Response
		if err := conn.ReadJSON(&resp); err != nil {
			t.Fatalf("read reply: %v", err)
		}
		if resp.Error != nil {
			t.Errorf("reply error = %v", resp.Error)
		}
	})
}
