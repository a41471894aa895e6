package protocol

import (
	"errors"
	"testing"
)

func TestParse_SingleRequest(t *testing.T) {
	payload, err := Parse([]byte(`{"jsonrpc":"2.0","id":1,"method":"echo","params":"hi"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if payload.Batch {
		t.Error("single object should not be a batch")
	}
	if len(payload.Envelopes) != 1 {
		t.Fatalf("envelopes = %d, want 1", len(payload.Envelopes))
	}

	env := payload.Envelopes[0]
	if env.Request == nil {
		t.Fatalf("Request is nil, Invalid = %v", env.Invalid)
	}
	if env.Request.Method != "echo" {
		t.Errorf("Method = %q, want %q", env.Request.Method, "echo")
	}
	if string(env.Request.ID) != "1" {
		t.Errorf("ID = %s, want 1", env.Request.ID)
	}
	if env.Request.IsNotification() {
		t.Error("request with id should not be a notification")
	}
}

func TestParse_Notification(t *testing.T) {
	payload, err := Parse([]byte(`{"jsonrpc":"2.0","method":"log","params":["line"]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	env := payload.Envelopes[0]
	if env.Request == nil {
		t.Fatalf("Request is nil, Invalid = %v", env.Invalid)
	}
	if !env.Request.IsNotification() {
		t.Error("request without id should be a notification")
	}
}

func TestParse_TopLevelFailures(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode int
	}{
		{
			name:     "not json at all",
			input:    `not json`,
			wantCode: CodeParseError,
		},
		{
			name:     "truncated object",
			input:    `{"jsonrpc":"2.0","method"`,
			wantCode: CodeParseError,
		},
		{
			name:     "truncated batch collapses to one parse error",
			input:    `[{"jsonrpc":"2.0","method":"a","id":1},`,
			wantCode: CodeParseError,
		},
		{
			name:     "trailing garbage after object",
			input:    `{"jsonrpc":"2.0","method":"a","id":1} extra`,
			wantCode: CodeParseError,
		},
		{
			name:     "empty input",
			input:    ``,
			wantCode: CodeParseError,
		},
		{
			name:     "empty batch",
			input:    `[]`,
			wantCode: CodeInvalidRequest,
		},
		{
			name:     "bare string",
			input:    `"hello"`,
			wantCode: CodeInvalidRequest,
		},
		{
			name:     "bare number",
			input:    `42`,
			wantCode: CodeInvalidRequest,
		},
		{
			name:     "bare null",
			input:    `null`,
			wantCode: CodeInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := Parse([]byte(tt.input))
			if err == nil {
				t.Fatalf("expected error, got payload %+v", payload)
			}

			var rpcErr *Error
			if !errors.As(err, &rpcErr) {
				t.Fatalf("error type = %T, want *Error", err)
			}
			if rpcErr.Code != tt.wantCode {
				t.Errorf("Code = %d, want %d", rpcErr.Code, tt.wantCode)
			}
		})
	}
}

func TestParse_InvalidSingleObjects(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantID string
	}{
		{
			name:   "missing jsonrpc member",
			input:  `{"id":1,"method":"echo"}`,
			wantID: `1`,
		},
		{
			name:   "wrong jsonrpc literal",
			input:  `{"jsonrpc":"1.0","id":1,"method":"echo"}`,
			wantID: `1`,
		},
		{
			name:   "missing method",
			input:  `{"jsonrpc":"2.0","id":2}`,
			wantID: `2`,
		},
		{
			name:   "empty method string",
			input:  `{"jsonrpc":"2.0","id":3,"method":""}`,
			wantID: `3`,
		},
		{
			name:   "numeric method recovers id",
			input:  `{"jsonrpc":"2.0","id":"x","method":5}`,
			wantID: `"x"`,
		},
		{
			name:   "object id is unrecoverable",
			input:  `{"jsonrpc":"2.0","id":{"a":1},"method":"echo"}`,
			wantID: ``,
		},
		{
			name:   "boolean id is unrecoverable",
			input:  `{"jsonrpc":"2.0","id":true,"method":"echo"}`,
			wantID: ``,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			env := payload.Envelopes[0]
			if env.Invalid == nil {
				t.Fatalf("Invalid is nil, Request = %+v", env.Request)
			}
			if env.Invalid.Code != CodeInvalidRequest {
				t.Errorf("Code = %d, want %d", env.Invalid.Code, CodeInvalidRequest)
			}
			if string(env.ID) != tt.wantID {
				t.Errorf("recovered ID = %q, want %q", env.ID, tt.wantID)
			}
		})
	}
}

func TestParse_Batch(t *testing.T) {
	input := `[
		{"jsonrpc":"2.0","id":"1","method":"add","params":[1,2]},
		{"jsonrpc":"2.0","method":"log"},
		{"jsonrpc":"2.0","id":"2","method":"add","params":[3,4]}
	]`

	payload, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !payload.Batch {
		t.Error("array payload should be a batch")
	}
	if len(payload.Envelopes) != 3 {
		t.Fatalf("envelopes = %d, want 3", len(payload.Envelopes))
	}

	if payload.Envelopes[0].Request == nil || string(payload.Envelopes[0].Request.ID) != `"1"` {
		t.Errorf("element 0 = %+v, want request with id \"1\"", payload.Envelopes[0])
	}
	if payload.Envelopes[1].Request == nil || !payload.Envelopes[1].Request.IsNotification() {
		t.Errorf("element 1 = %+v, want notification", payload.Envelopes[1])
	}
	if payload.Envelopes[2].Request == nil || string(payload.Envelopes[2].Request.ID) != `"2"` {
		t.Errorf("element 2 = %+v, want request with id \"2\"", payload.Envelopes[2])
	}
}

func TestParse_BatchIsolatesBadElements(t *testing.T) {
	input := `[
		{"jsonrpc":"2.0","id":1,"method":"ok"},
		{"jsonrpc":"1.0","id":2,"method":"bad"},
		[{"jsonrpc":"2.0","id":3,"method":"nested"}],
		"scalar",
		{"jsonrpc":"2.0","method":"note"}
	]`

	payload, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payload.Envelopes) != 5 {
		t.Fatalf("envelopes = %d, want 5", len(payload.Envelopes))
	}

	if payload.Envelopes[0].Request == nil {
		t.Error("element 0 should be a valid request")
	}
	if payload.Envelopes[1].Invalid == nil || string(payload.Envelopes[1].ID) != "2" {
		t.Errorf("element 1 = %+v, want invalid with id 2", payload.Envelopes[1])
	}
	if payload.Envelopes[2].Invalid == nil || payload.Envelopes[2].ID != nil {
		t.Errorf("element 2 = %+v, want invalid with no id", payload.Envelopes[2])
	}
	if payload.Envelopes[3].Invalid == nil {
		t.Error("element 3 should be invalid")
	}
	if payload.Envelopes[4].Request == nil || !payload.Envelopes[4].Request.IsNotification() {
		t.Errorf("element 4 = %+v, want notification", payload.Envelopes[4])
	}
}

func TestParse_AllScalarBatch(t *testing.T) {
	payload, err := Parse([]byte(`[1,2,3]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payload.Envelopes) != 3 {
		t.Fatalf("envelopes = %d, want 3", len(payload.Envelopes))
	}
	for i, env := range payload.Envelopes {
		if env.Invalid == nil || env.Invalid.Code != CodeInvalidRequest {
			t.Errorf("element %d = %+v, want invalid request", i, env)
		}
	}
}

func TestParse_ResponseShapedElement(t *testing.T) {
	// A response object arriving where a request belongs is a shape
	// violation; the id is still recovered for the error entry.
	payload, err := Parse([]byte(`{"jsonrpc":"2.0","result":42,"id":9}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	env := payload.Envelopes[0]
	if env.Invalid == nil {
		t.Fatalf("Invalid is nil, Request = %+v", env.Request)
	}
	if string(env.ID) != "9" {
		t.Errorf("recovered ID = %s, want 9", env.ID)
	}
}

func TestParse_WhitespaceTolerated(t *testing.T) {
	payload, err := Parse([]byte("\n\t {\"jsonrpc\":\"2.0\",\"id\":1,\"method\":\"echo\"} \n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Envelopes[0].Request == nil {
		t.Fatal("expected valid request")
	}
}
