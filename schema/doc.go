// Package schema provides JSON Schema generation from Go types.
//
// Method params declared as Go structs get a schema generated from their
// fields, which the server uses for discovery listings and for optional
// params validation before a handler runs.
//
// # Basic Usage
//
// Generate a schema from a Go value:
//
//	type TransferParams struct {
//	    From   string  `json:"from" jsonschema:"required"`
//	    To     string  `json:"to" jsonschema:"required"`
//	    Amount float64 `json:"amount" jsonschema:"minimum=0"`
//	}
//
//	schema, err := schema.Generate(TransferParams{})
//
// # Supported Types
//
// Struct fields become object properties. Strings, booleans and the
// integer and float kinds become the corresponding JSON Schema scalar
// types. Slices become arrays, and fixed-size Go arrays additionally pin
// minItems and maxItems to their length, matching positional params of
// fixed arity. Maps become open objects, and pointers are dereferenced
// before any of the above applies.
//
// # Struct Tags
//
// Field names come from the json tag, falling back to the Go name, with
// json:"-" excluding a field entirely. The jsonschema tag carries the
// constraints:
//
//	type Example struct {
//	    Required string `json:"required" jsonschema:"required"`
//	    Desc     string `json:"desc" jsonschema:"description=What this field holds"`
//	    Count    int    `json:"count" jsonschema:"minimum=1,maximum=100"`
//	    Level    string `json:"level" jsonschema:"enum=debug|info|error"`
//	}
//
// # Validation
//
// A generated (or hand-built) schema validates raw JSON:
//
//	if err := schema.Validate(req.Params); err != nil {
//	    // err lists every violated constraint with its JSON path
//	}
package schema
