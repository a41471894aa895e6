package server

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/felixgeelhaar/jsonrpc-go/protocol"
	"github.com/felixgeelhaar/jsonrpc-go/schema"
)

// Method represents a registered JSON-RPC method.
type Method struct {
	name           string
	description    string
	paramsType     reflect.Type
	paramsIsPtr    bool
	paramsSchema   *schema.Schema
	validateParams bool
	handler        any
	hasContext     bool
}

// Name returns the method name.
func (m *Method) Name() string {
	return m.name
}

// MethodBuilder provides a fluent API for registering methods.
type MethodBuilder struct {
	method  *Method
	server  *Server
	builtin bool
	err     error
}

// Description sets the method description, surfaced by rpc.discover.
func (b *MethodBuilder) Description(desc string) *MethodBuilder {
	if b.err != nil {
		return b
	}
	b.method.description = desc
	return b
}

// ValidateParams enables schema validation of params before decoding.
// When enabled, params are checked against the schema generated from the
// handler's parameter type, and violations are reported as an invalid
// params error (-32602) without invoking the handler.
func (b *MethodBuilder) ValidateParams() *MethodBuilder {
	if b.err != nil {
		return b
	}
	b.method.validateParams = true
	return b
}

// Err returns the first registration error, or nil. A builder with a
// pending error never registers its method.
func (b *MethodBuilder) Err() error {
	return b.err
}

// Handler sets the method handler and registers the method.
// Handler signature must be one of:
//   - func(params P) (R, error)
//   - func(ctx context.Context, params P) (R, error)
//
// Registering a name twice overwrites the earlier method.
func (b *MethodBuilder) Handler(fn any) *MethodBuilder {
	if b.err != nil {
		return b
	}

	if err := b.checkName(); err != nil {
		b.err = err
		return b
	}

	if err := b.validateHandler(fn); err != nil {
		b.err = err
		return b
	}

	b.method.handler = fn
	b.server.registerMethod(b.method)
	return b
}

// checkName enforces the optional reserved prefix rule. Built-in methods
// bypass it.
func (b *MethodBuilder) checkName() error {
	name := b.method.name
	if name == "" {
		return fmt.Errorf("method name must not be empty")
	}
	if b.builtin || !b.server.checkReservedPrefix {
		return nil
	}
	if strings.HasPrefix(name, protocol.ReservedMethodPrefix) {
		return fmt.Errorf("method name %q uses the reserved %q prefix", name, protocol.ReservedMethodPrefix)
	}
	return nil
}

// validateHandler validates the handler function signature.
func (b *MethodBuilder) validateHandler(fn any) error {
	fnType := reflect.TypeOf(fn)

	if fnType == nil || fnType.Kind() != reflect.Func {
		return fmt.Errorf("handler must be a function, got %T", fn)
	}

	numIn := fnType.NumIn()
	if numIn < 1 || numIn > 2 {
		return fmt.Errorf("handler must have 1 or 2 parameters, got %d", numIn)
	}

	var paramsIdx int
	if numIn == 2 {
		if !fnType.In(0).Implements(reflect.TypeOf((*context.Context)(nil)).Elem()) {
			return fmt.Errorf("first parameter must be context.Context when using 2 parameters")
		}
		b.method.hasContext = true
		paramsIdx = 1
	}

	paramsType := fnType.In(paramsIdx)
	if paramsType.Kind() == reflect.Ptr {
		b.method.paramsIsPtr = true
		paramsType = paramsType.Elem()
	}
	b.method.paramsType = paramsType

	paramsSchema, err := schema.GenerateFromType(paramsType)
	if err != nil {
		return fmt.Errorf("failed to generate params schema: %w", err)
	}
	b.method.paramsSchema = paramsSchema

	if fnType.NumOut() != 2 {
		return fmt.Errorf("handler must return (result, error), got %d return values", fnType.NumOut())
	}

	errType := reflect.TypeOf((*error)(nil)).Elem()
	if !fnType.Out(1).Implements(errType) {
		return fmt.Errorf("second return value must be error")
	}

	return nil
}

// Call invokes the method with the raw params and returns the marshaled
// result.
//
// Absent params behave as the JSON null, so value handlers see their zero
// value. A panic in the handler is recovered and reported as an internal
// error; no failure escapes to the calling goroutine.
func (m *Method) Call(ctx context.Context, params json.RawMessage) (result json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = protocol.NewInternalError(fmt.Sprintf("panic in method %s: %v", m.name, r))
		}
	}()

	if len(params) == 0 {
		params = json.RawMessage("null")
	}

	if m.validateParams && m.paramsSchema != nil {
		if verr := m.paramsSchema.Validate(params); verr != nil {
			return nil, protocol.NewInvalidParams(protocol.MessageInvalidParams).WithData(verr.Error())
		}
	}

	paramsPtr := reflect.New(m.paramsType)
	if uerr := json.Unmarshal(params, paramsPtr.Interface()); uerr != nil {
		return nil, protocol.NewInvalidParams(protocol.MessageInvalidParams).WithData(uerr.Error())
	}

	fnVal := reflect.ValueOf(m.handler)
	var args []reflect.Value

	if m.hasContext {
		args = append(args, reflect.ValueOf(ctx))
	}
	if m.paramsIsPtr {
		args = append(args, paramsPtr)
	} else {
		args = append(args, paramsPtr.Elem())
	}

	results := fnVal.Call(args)

	if errVal := results[1].Interface(); errVal != nil {
		return nil, errVal.(error)
	}

	raw, merr := json.Marshal(results[0].Interface())
	if merr != nil {
		return nil, protocol.NewInternalError(fmt.Sprintf("failed to encode result for %s: %v", m.name, merr))
	}
	return raw, nil
}
