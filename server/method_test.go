package server

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/jsonrpc-go/protocol"
)

func TestMethodBuilder(t *testing.T) {
	t.Run("registers method with description", func(t *testing.T) {
		srv := New()

		type Params struct {
			Query string `json:"query"`
		}

		srv.Method("search").
			Description("Search for items").
			Handler(func(params Params) (string, error) {
				return "ok", nil
			})

		methods := srv.Methods()
		if len(methods) != 1 {
			t.Fatalf("expected 1 method, got %d", len(methods))
		}
		if methods[0].Name != "search" {
			t.Errorf("Name = %q, want %q", methods[0].Name, "search")
		}
		if methods[0].Description != "Search for items" {
			t.Errorf("Description = %q, want %q", methods[0].Description, "Search for items")
		}
	})

	t.Run("handles various handler signatures", func(t *testing.T) {
		srv := New()

		type Params struct {
			Value int `json:"value"`
		}

		srv.Method("with-context").
			Handler(func(ctx context.Context, params Params) (int, error) {
				return params.Value * 2, nil
			})

		srv.Method("without-context").
			Handler(func(params Params) (int, error) {
				return params.Value * 3, nil
			})

		srv.Method("pointer-params").
			Handler(func(params *Params) (int, error) {
				return params.Value * 4, nil
			})

		if len(srv.Methods()) != 3 {
			t.Fatalf("expected 3 methods, got %d", len(srv.Methods()))
		}
	})

	t.Run("rejects invalid handlers", func(t *testing.T) {
		tests := []struct {
			name    string
			handler any
		}{
			{"not a function", 42},
			{"nil handler", nil},
			{"no parameters", func() (int, error) { return 0, nil }},
			{"too many parameters", func(a, b, c int) (int, error) { return 0, nil }},
			{"first of two not context", func(a int, b int) (int, error) { return 0, nil }},
			{"single return", func(p int) int { return p }},
			{"second return not error", func(p int) (int, string) { return 0, "" }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				srv := New()
				b := srv.Method("bad").Handler(tt.handler)
				if b.Err() == nil {
					t.Error("expected builder error, got nil")
				}
				if len(srv.Methods()) != 0 {
					t.Error("invalid handler must not register")
				}
			})
		}
	})

	t.Run("builder error short-circuits later calls", func(t *testing.T) {
		srv := New()
		b := srv.Method("bad").Handler(42).Description("ignored")
		if b.Err() == nil {
			t.Error("expected builder error to persist")
		}
	})

	t.Run("empty method name is rejected", func(t *testing.T) {
		srv := New()
		b := srv.Method("").Handler(func(p struct{}) (string, error) { return "", nil })
		if b.Err() == nil {
			t.Error("expected error for empty name")
		}
	})
}

func TestMethodBuilder_ReservedPrefix(t *testing.T) {
	handler := func(p struct{}) (string, error) { return "ok", nil }

	t.Run("allowed by default", func(t *testing.T) {
		srv := New()
		b := srv.Method("rpc.custom").Handler(handler)
		if b.Err() != nil {
			t.Fatalf("unexpected error: %v", b.Err())
		}
		if _, ok := srv.GetMethod("rpc.custom"); !ok {
			t.Error("method should be registered")
		}
	})

	t.Run("rejected when check enabled", func(t *testing.T) {
		srv := New(WithReservedPrefixCheck())
		b := srv.Method("rpc.custom").Handler(handler)
		if b.Err() == nil {
			t.Fatal("expected error for reserved prefix")
		}
		if !strings.Contains(b.Err().Error(), "reserved") {
			t.Errorf("error = %v, want mention of reserved prefix", b.Err())
		}
		if _, ok := srv.GetMethod("rpc.custom"); ok {
			t.Error("method should not be registered")
		}
	})

	t.Run("check does not affect plain names", func(t *testing.T) {
		srv := New(WithReservedPrefixCheck())
		if err := srv.Method("rpcish").Handler(handler).Err(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestMethod_Call(t *testing.T) {
	t.Run("invokes handler with decoded params", func(t *testing.T) {
		srv := New()

		type Params struct {
			A int `json:"a"`
			B int `json:"b"`
		}

		srv.Method("add").
			Handler(func(params Params) (int, error) {
				return params.A + params.B, nil
			})

		m, ok := srv.getMethod("add")
		if !ok {
			t.Fatal("method not found")
		}

		result, err := m.Call(context.Background(), []byte(`{"a":5,"b":3}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(result) != "8" {
			t.Errorf("result = %s, want 8", result)
		}
	})

	t.Run("passes context through", func(t *testing.T) {
		srv := New()

		type key struct{}
		ctx := context.WithValue(context.Background(), key{}, "present")

		srv.Method("probe").
			Handler(func(ctx context.Context, _ struct{}) (string, error) {
				v, _ := ctx.Value(key{}).(string)
				return v, nil
			})

		m, _ := srv.getMethod("probe")
		result, err := m.Call(ctx, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(result) != `"present"` {
			t.Errorf("result = %s, want \"present\"", result)
		}
	})

	t.Run("absent params decode as zero value", func(t *testing.T) {
		srv := New()

		type Params struct {
			Name string `json:"name"`
		}

		srv.Method("greet").
			Handler(func(params Params) (string, error) {
				if params.Name == "" {
					return "hello, anonymous", nil
				}
				return "hello, " + params.Name, nil
			})

		m, _ := srv.getMethod("greet")
		result, err := m.Call(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(result) != `"hello, anonymous"` {
			t.Errorf("result = %s, want greeting for zero params", result)
		}
	})

	t.Run("positional params decode into slice", func(t *testing.T) {
		srv := New()

		srv.Method("sum").
			Handler(func(nums []int) (int, error) {
				total := 0
				for _, n := range nums {
					total += n
				}
				return total, nil
			})

		m, _ := srv.getMethod("sum")
		result, err := m.Call(context.Background(), []byte(`[1,2,3,4]`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(result) != "10" {
			t.Errorf("result = %s, want 10", result)
		}
	})

	t.Run("tuple params reject object shape", func(t *testing.T) {
		srv := New()

		srv.Method("pair").
			Handler(func(pair [2]float64) (float64, error) {
				return pair[0] + pair[1], nil
			})

		m, _ := srv.getMethod("pair")
		_, err := m.Call(context.Background(), []byte(`{"a":1,"b":2}`))
		if err == nil {
			t.Fatal("expected error for object params")
		}

		var rpcErr *protocol.Error
		if !errors.As(err, &rpcErr) {
			t.Fatalf("error type = %T, want *protocol.Error", err)
		}
		if rpcErr.Code != protocol.CodeInvalidParams {
			t.Errorf("Code = %d, want %d", rpcErr.Code, protocol.CodeInvalidParams)
		}
		if rpcErr.Data == nil {
			t.Error("invalid params should carry the decoder message as data")
		}
	})

	t.Run("returns handler error unchanged", func(t *testing.T) {
		srv := New()

		appErr := protocol.NewError(-32042, "quota exceeded")
		srv.Method("limited").
			Handler(func(_ struct{}) (string, error) {
				return "", appErr
			})

		m, _ := srv.getMethod("limited")
		_, err := m.Call(context.Background(), nil)
		if !errors.Is(err, appErr) {
			t.Errorf("error = %v, want %v", err, appErr)
		}
	})

	t.Run("recovers handler panic as internal error", func(t *testing.T) {
		srv := New()

		srv.Method("explode").
			Handler(func(_ struct{}) (string, error) {
				panic("boom")
			})

		m, _ := srv.getMethod("explode")
		result, err := m.Call(context.Background(), nil)
		if result != nil {
			t.Errorf("result = %s, want nil after panic", result)
		}

		var rpcErr *protocol.Error
		if !errors.As(err, &rpcErr) {
			t.Fatalf("error type = %T, want *protocol.Error", err)
		}
		if rpcErr.Code != protocol.CodeInternalError {
			t.Errorf("Code = %d, want %d", rpcErr.Code, protocol.CodeInternalError)
		}
		if !strings.Contains(rpcErr.Message, "boom") {
			t.Errorf("Message = %q, want panic value included", rpcErr.Message)
		}
	})

	t.Run("validates params against schema when enabled", func(t *testing.T) {
		srv := New()

		type Params struct {
			Query string `json:"query" jsonschema:"required"`
		}

		srv.Method("search").
			ValidateParams().
			Handler(func(params Params) (string, error) {
				return params.Query, nil
			})

		m, _ := srv.getMethod("search")

		if _, err := m.Call(context.Background(), []byte(`{"query":"x"}`)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err := m.Call(context.Background(), []byte(`{}`))
		var rpcErr *protocol.Error
		if !errors.As(err, &rpcErr) || rpcErr.Code != protocol.CodeInvalidParams {
			t.Errorf("error = %v, want invalid params", err)
		}
	})
}
