// Package server provides the JSON-RPC 2.0 method registry and dispatcher.
package server

import (
	"context"
	"sort"
	"sync"

	"github.com/felixgeelhaar/jsonrpc-go/protocol"
)

// MethodInfo represents metadata about a registered method, as reported by
// the built-in rpc.discover method.
type MethodInfo struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	ParamsSchema any    `json:"paramsSchema,omitempty"`
}

// Option configures a Server.
type Option func(*Server)

// WithReservedPrefixCheck makes registration reject method names using the
// "rpc." prefix the protocol reserves for internal extensions. The check
// is off by default; the prefix is reserved by convention only.
func WithReservedPrefixCheck() Option {
	return func(s *Server) {
		s.checkReservedPrefix = true
	}
}

// WithDiscover registers the built-in rpc.discover method, which lists the
// registered methods with their descriptions and parameter schemas.
func WithDiscover() Option {
	return func(s *Server) {
		s.discover = true
	}
}

// Server routes JSON-RPC requests to registered methods.
//
// Register every method before the first call; once the server is handed
// to a transport it is shared read-only by any number of concurrent calls.
type Server struct {
	mu sync.RWMutex

	methods             map[string]*Method
	middleware          []Middleware
	checkReservedPrefix bool
	discover            bool
}

// New creates a new server with the given options.
func New(opts ...Option) *Server {
	s := &Server{
		methods: make(map[string]*Method),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.discover {
		s.registerDiscover()
	}

	return s
}

// Use registers middleware executed around every method invocation,
// including each element of a batch.
func (s *Server) Use(middleware ...Middleware) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.middleware = append(s.middleware, middleware...)
}

// Method starts building a new method with the given name.
func (s *Server) Method(name string) *MethodBuilder {
	return &MethodBuilder{
		method: &Method{
			name: name,
		},
		server: s,
	}
}

// Register adds a method with the given handler and returns the server for
// chaining:
//
//	srv := server.New().
//	    Register("echo", echo).
//	    Register("add", add)
//
// It is shorthand for Method(name).Handler(fn). An invalid handler or a
// rejected name panics so misregistration fails at startup, not at call
// time; use the builder and its Err method to handle errors instead.
func (s *Server) Register(name string, fn any) *Server {
	if err := s.Method(name).Handler(fn).Err(); err != nil {
		panic(err)
	}
	return s
}

// Methods returns info about all registered methods, sorted by name.
func (s *Server) Methods() []MethodInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]MethodInfo, 0, len(s.methods))
	for _, m := range s.methods {
		result = append(result, MethodInfo{
			Name:         m.name,
			Description:  m.description,
			ParamsSchema: m.paramsSchema,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// registerMethod adds a method to the server, overwriting any method
// already registered under the same name.
func (s *Server) registerMethod(m *Method) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.methods[m.name] = m
}

// getMethod retrieves a method by name (internal).
func (s *Server) getMethod(name string) (*Method, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.methods[name]
	return m, ok
}

// GetMethod retrieves a method by name (public).
func (s *Server) GetMethod(name string) (*Method, bool) {
	return s.getMethod(name)
}

// registerDiscover installs the rpc.discover built-in. Built-ins bypass the
// reserved prefix check; the prefix is reserved exactly so the protocol
// layer can claim names like this one.
func (s *Server) registerDiscover() {
	b := &MethodBuilder{
		method: &Method{
			name:        protocol.MethodDiscover,
			description: "List the methods this server exposes.",
		},
		server:  s,
		builtin: true,
	}
	b.Handler(func(ctx context.Context, _ struct{}) ([]MethodInfo, error) {
		return s.Methods(), nil
	})
}
