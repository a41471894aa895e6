package jsonrpc_test

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/jsonrpc-go"
)

// Example demonstrates creating a server with typed and builder-registered methods.
func Example() {
	srv := jsonrpc.New(jsonrpc.WithDiscover())

	// Register a typed method
	type AddParams struct {
		A int `json:"a"`
		B int `json:"b"`
	}

	srv.Register("math/add", func(ctx context.Context, p AddParams) (int, error) {
		return p.A + p.B, nil
	})

	// The builder form adds a description and params validation
	type SearchParams struct {
		Query string `json:"query" jsonschema:"required"`
		Limit int    `json:"limit" jsonschema:"maximum=100"`
	}

	srv.Method("docs/search").
		Description("Search for documents").
		ValidateParams().
		Handler(func(ctx context.Context, p SearchParams) ([]string, error) {
			return []string{"result1", "result2"}, nil
		})

	fmt.Printf("Server with %d methods\n", len(srv.Methods()))
	// Output: Server with 3 methods
}

// ExampleServer_Call shows the byte-level request cycle a transport drives.
func ExampleServer_Call() {
	srv := jsonrpc.New()

	type AddParams struct {
		A int `json:"a"`
		B int `json:"b"`
	}

	srv.Register("math/add", func(ctx context.Context, p AddParams) (int, error) {
		return p.A + p.B, nil
	})

	reply := srv.Call(context.Background(), []byte(`{"jsonrpc":"2.0","method":"math/add","params":{"a":5,"b":3},"id":1}`))
	fmt.Println(string(reply))

	// Notifications owe no reply
	reply = srv.Call(context.Background(), []byte(`{"jsonrpc":"2.0","method":"math/add","params":{"a":5,"b":3}}`))
	fmt.Println(reply == nil)

	// Output:
	// {"jsonrpc":"2.0","result":8,"id":1}
	// true
}

// ExampleDefaultMiddlewareWithTimeout shows using the production middleware stack.
func ExampleDefaultMiddlewareWithTimeout() {
	srv := jsonrpc.New()

	// Create a logger (implement jsonrpc.Logger interface)
	var logger jsonrpc.Logger // = yourLogger

	// Use default production middleware: recover, request ID, timeout, logging
	_ = logger
	_ = srv
	// jsonrpc.ServeStdio(ctx, srv, jsonrpc.WithMiddleware(
	//     jsonrpc.DefaultMiddlewareWithTimeout(logger, 30*time.Second)...,
	// ))

	fmt.Println("Server configured with default middleware")
	// Output: Server configured with default middleware
}
