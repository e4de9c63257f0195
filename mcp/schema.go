package mcp

import (
	"sort"

	"github.com/invopop/jsonschema"
)

// Schema names accepted by Schema.
const (
	SchemaInitializeRequest = "initialize.request"
	SchemaInitializeResult  = "initialize.result"
	SchemaPingResult        = "ping.result"
)

var schemaTypes = map[string]func() any{
	SchemaInitializeRequest: func() any { return new(InitializeRequest) },
	SchemaInitializeResult:  func() any { return new(InitializeResult) },
	SchemaPingResult:        func() any { return new(PingResult) },
}

// SchemaNames returns the names of the available schemas in sorted order.
func SchemaNames() []string {
	names := make([]string, 0, len(schemaTypes))
	for name := range schemaTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schema reflects the JSON Schema of the named payload. Definitions are
// inlined so each document stands alone.
func Schema(name string) (*jsonschema.Schema, bool) {
	mk, ok := schemaTypes[name]
	if !ok {
		return nil, false
	}
	r := &jsonschema.Reflector{
		DoNotReference: true, // inline defs
		ExpandedStruct: true, // put struct at root
	}
	return r.Reflect(mk()), true
}
