// Package mcpserver implements the message dispatcher of an MCP server: it
// takes one raw JSON-RPC message, decides whether it is a request or a
// notification, and produces the serialized response (or nothing).
//
// Quick start:
//
//	srv := mcpserver.NewServer(
//	    mcpserver.WithServerInfo(mcp.ImplementationInfo{Name: "example", Version: "1.0.0"}),
//	)
//	out, err := srv.HandleMessage(ctx, []byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
//	// out == {"jsonrpc":"2.0","id":1,"result":{}}
//
// Supported requests are initialize and ping; every other method is answered
// with a Method not found (-32601) error. Notifications are accepted and
// produce no output. No handshake order is enforced: each call is
// independent.
//
// A Server holds no per-call state. Transports (see the stdio, streaminghttp
// and redisstream packages) call HandleMessage once per framed inbound
// message and may do so concurrently.
package mcpserver
