package mcp

// Method is an MCP method identifier used in JSON-RPC messages.
type Method string

// MCP method names and notifications.
const (
	// Initialization
	InitializeMethod              Method = "initialize"
	InitializedNotificationMethod Method = "notifications/initialized"

	// General
	PingMethod                  Method = "ping"
	CancelledNotificationMethod Method = "notifications/cancelled"
	ProgressNotificationMethod  Method = "notifications/progress"

	// Roots
	RootsListChangedNotificationMethod Method = "notifications/roots/list_changed"
)

// IsKnownNotification reports whether m is a notification this server
// recognizes. Unrecognized notifications are still accepted.
func IsKnownNotification(m Method) bool {
	switch m {
	case InitializedNotificationMethod,
		CancelledNotificationMethod,
		ProgressNotificationMethod,
		RootsListChangedNotificationMethod:
		return true
	default:
		return false
	}
}

// InitializeRequest starts the MCP initialization handshake.
type InitializeRequest struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      ImplementationInfo `json:"clientInfo"`
}

// InitializeResult returns the server's protocol version, capabilities and
// identity.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ImplementationInfo `json:"serverInfo"`
}

// PingResult is the empty result of a ping request.
type PingResult struct{}
