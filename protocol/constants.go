package protocol

// ReservedMethodPrefix marks method names the JSON-RPC 2.0 specification
// reserves for protocol-internal extensions.
const ReservedMethodPrefix = "rpc."

// Built-in method names.
const (
	// MethodDiscover is the service introspection method, modeled after the
	// OpenRPC rpc.discover convention.
	MethodDiscover = "rpc.discover"
)
