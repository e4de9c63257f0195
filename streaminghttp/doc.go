// Package streaminghttp exposes an MCP message handler over HTTP using the
// request/response half of the MCP streamable HTTP transport. It mounts as a
// standard net/http handler.
//
// Behavior
//   - POST: the body is one JSON-RPC message (Content-Type application/json).
//     Requests are answered with 200 and the JSON response; notifications with
//     202 and no body. Messages the handler rejects get 400 and a small JSON
//     error body that is not a JSON-RPC response.
//   - GET: opens a text/event-stream that carries no events, since the server
//     never initiates messages. It stays open until the client disconnects or
//     Close is called.
//   - Any other method: 405.
//
// Construction
//
//	srv := mcpserver.NewServer(mcpserver.WithServerInfo(info))
//	h := streaminghttp.New(srv, streaminghttp.WithPath("/mcp"))
//	defer h.Close()
//	http.ListenAndServe("127.0.0.1:8080", h)
//
// Sessions are not issued: every message is handled independently, so no
// Mcp-Session-Id header is returned and DELETE is not supported.
package streaminghttp
