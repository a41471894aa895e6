// Package transport provides JSON-RPC transport implementations.
//
// This package implements the communication layer for JSON-RPC servers,
// supporting multiple transport protocols. Transports carry raw payloads;
// parsing, batching, and error mapping all happen behind the Handler.
//
// # Stdio Transport
//
// The stdio transport communicates via newline-delimited JSON on
// stdin/stdout, suitable for local tools and subprocess integrations:
//
//	t := transport.NewStdio()
//	err := t.Serve(ctx, handler)
//
// # HTTP Transport
//
// The HTTP transport serves one payload per POST request:
//
//	t := transport.NewHTTP(":8080",
//	    transport.WithReadTimeout(30*time.Second),
//	    transport.WithWriteTimeout(30*time.Second),
//	)
//	err := t.Serve(ctx, handler)
//
// The HTTP transport exposes the following endpoints:
//   - POST /jsonrpc - Handle JSON-RPC payloads
//   - GET /health - Health check endpoint, draining-aware
//
// Replies are returned in the response body with 200 OK; payloads that owe
// no reply (notifications) produce 204 No Content.
//
// # WebSocket Transport
//
// The WebSocket transport handles one payload per message over persistent
// connections and supports server-initiated notifications:
//
//	t := transport.NewWebSocket(":8081")
//	err := t.Serve(ctx, handler)
//
// # In-Memory Transport
//
// The in-memory transport connects two endpoints in the same process over
// channels, useful for tests and embedded wiring:
//
//	serverSide, clientSide := transport.NewInMemoryPair()
//	go serverSide.Serve(ctx, handler)
//	reply, err := clientSide.SendAndReceive(ctx, payload)
//
// # Handler Interface
//
// All transports expect a Handler that processes raw payloads:
//
//	type Handler interface {
//	    Call(ctx context.Context, data []byte) []byte
//	}
//
// A nil return means no reply is owed and nothing is written.
//
// # Usage with jsonrpc Package
//
// Most users should use the jsonrpc package's convenience functions:
//
//	jsonrpc.ServeStdio(ctx, srv)
//	jsonrpc.ServeHTTP(ctx, srv, ":8080")
package transport
