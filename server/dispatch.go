package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/jsonrpc-go/protocol"
)

// Call processes one raw JSON-RPC payload and returns the serialized reply.
//
// A nil return means no reply is owed: the input was a notification, or a
// batch containing only notifications. Everything else, including parse
// failures, produces protocol-compliant JSON text. Call never panics; handler
// failures of every kind are mapped onto the error-code taxonomy.
//
// Batch elements run concurrently, one goroutine per element, and their
// replies are reassembled in the original element order. Call returns only
// after every element, notifications included, has finished.
func (s *Server) Call(ctx context.Context, data []byte) []byte {
	payload, err := protocol.Parse(data)
	if err != nil {
		return marshalResponse(protocol.NewErrorResponse(nil, protocol.FromError(err)))
	}

	if payload.Batch {
		return s.callBatch(ctx, payload.Envelopes)
	}

	resp := s.callOne(ctx, payload.Envelopes[0])
	if resp == nil {
		return nil
	}
	return marshalResponse(resp)
}

// callBatch fans the elements out and reassembles replies by position.
func (s *Server) callBatch(ctx context.Context, envelopes []protocol.Envelope) []byte {
	responses := make([]*protocol.Response, len(envelopes))

	var wg sync.WaitGroup
	for i, env := range envelopes {
		wg.Add(1)
		go func(i int, env protocol.Envelope) {
			defer wg.Done()
			responses[i] = s.callOne(protocol.ContextWithBatchIndex(ctx, i), env)
		}(i, env)
	}
	wg.Wait()

	replies := make([]*protocol.Response, 0, len(responses))
	for _, resp := range responses {
		if resp != nil {
			replies = append(replies, resp)
		}
	}
	if len(replies) == 0 {
		return nil
	}
	return marshalBatch(replies)
}

// callOne resolves a single envelope to a response, or nil for
// notifications.
func (s *Server) callOne(ctx context.Context, env protocol.Envelope) *protocol.Response {
	if env.Invalid != nil {
		return protocol.NewErrorResponse(env.ID, env.Invalid)
	}

	req := env.Request
	if req.IsNotification() {
		// Outcome discarded; the protocol forbids answering a notification.
		_, _ = s.handle(ctx, req)
		return nil
	}

	resp, err := s.handle(ctx, req)
	if err != nil {
		return protocol.NewErrorResponse(req.ID, protocol.FromError(err))
	}
	if resp == nil {
		return protocol.NewErrorResponse(req.ID, protocol.NewInternalError(protocol.MessageInternalError))
	}
	return resp
}

// handle runs the middleware chain around the terminal invoke step.
func (s *Server) handle(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	s.mu.RLock()
	middleware := s.middleware
	s.mu.RUnlock()

	if len(middleware) == 0 {
		return s.invoke(ctx, req)
	}
	return Chain(middleware...)(s.invoke)(ctx, req)
}

// invoke is the terminal handler: method lookup and execution.
func (s *Server) invoke(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	method, ok := s.getMethod(req.Method)
	if !ok {
		return nil, protocol.NewMethodNotFound(fmt.Sprintf("Unknown method: %s", req.Method))
	}

	result, err := method.Call(ctx, req.Params)
	if err != nil {
		return nil, err
	}
	return protocol.NewResponse(req.ID, result), nil
}

// marshalResponse serializes a response, falling back to a bare internal
// error when the attached data cannot be encoded.
func marshalResponse(resp *protocol.Response) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(protocol.NewErrorResponse(resp.ID, protocol.NewInternalError(protocol.MessageInternalError)))
	}
	return data
}

// marshalBatch serializes the reply array element by element so one
// unencodable reply cannot take down its siblings.
func marshalBatch(responses []*protocol.Response) []byte {
	parts := make([]json.RawMessage, len(responses))
	for i, resp := range responses {
		parts[i] = marshalResponse(resp)
	}
	data, _ := json.Marshal(parts)
	return data
}
