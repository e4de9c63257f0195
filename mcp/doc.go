// Package mcp contains the protocol data types and constants of the Model
// Context Protocol handshake. It mirrors the wire representation of the
// initialize and ping exchanges while keeping the surface Go-friendly
// (exported structs with json tags, string constants for method names).
//
// The package is intentionally free of transport and dispatch logic: the
// mcpserver package builds responses from these types and the stdio,
// streaminghttp and redisstream transports only move bytes.
//
// # Method Names
//
// JSON-RPC method and notification names are enumerated as Method constants
// (e.g. InitializeMethod). Using the constants avoids typographical mistakes
// and ensures a single point of truth.
//
// # Capabilities
//
// ServerCapabilities is a static declaration of the optional feature groups a
// server advertises. Its sub-flags describe the ability to notify of changes,
// not runtime state. DefaultServerCapabilities advertises logging, prompts,
// resources and tools with every flag false.
//
// # Schemas
//
// Schema returns the JSON Schema document reflected from one wire type, looked
// up by a name from SchemaNames. The documents are useful for client authors
// and for validating captured traffic.
//
// # Compatibility
//
// ProtocolVersion is the only protocol revision the server answers with.
// The version offered by a client during initialize is not negotiated.
package mcp
