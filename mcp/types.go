package mcp

// ProtocolVersion is the protocol revision advertised in initialize results.
const ProtocolVersion = "2024-11-05"

// ClientCapabilities advertises client features. The server records them for
// logging only.
type ClientCapabilities struct {
	Roots *struct {
		ListChanged bool `json:"listChanged"`
	} `json:"roots,omitempty"`
	Sampling     *struct{}      `json:"sampling,omitempty"`
	Experimental map[string]any `json:"experimental,omitempty"`
}

// LoggingCapability advertises support for log message notifications.
type LoggingCapability struct{}

// PromptsCapability advertises prompt support.
type PromptsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ResourcesCapability advertises resource support.
type ResourcesCapability struct {
	Subscribe   bool `json:"subscribe"`
	ListChanged bool `json:"listChanged"`
}

// ToolsCapability advertises tool support.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ServerCapabilities advertises server features. A nil group is omitted from
// the wire form.
type ServerCapabilities struct {
	Logging   *LoggingCapability   `json:"logging,omitempty"`
	Prompts   *PromptsCapability   `json:"prompts,omitempty"`
	Resources *ResourcesCapability `json:"resources,omitempty"`
	Tools     *ToolsCapability     `json:"tools,omitempty"`
}

// DefaultServerCapabilities advertises all four feature groups with every
// change-notification flag disabled.
func DefaultServerCapabilities() ServerCapabilities {
	return ServerCapabilities{
		Logging:   &LoggingCapability{},
		Prompts:   &PromptsCapability{},
		Resources: &ResourcesCapability{},
		Tools:     &ToolsCapability{},
	}
}

// Clone returns a deep copy so callers cannot mutate a server's advertised
// capabilities through shared pointers.
func (c ServerCapabilities) Clone() ServerCapabilities {
	var out ServerCapabilities
	if c.Logging != nil {
		out.Logging = &LoggingCapability{}
	}
	if c.Prompts != nil {
		p := *c.Prompts
		out.Prompts = &p
	}
	if c.Resources != nil {
		r := *c.Resources
		out.Resources = &r
	}
	if c.Tools != nil {
		t := *c.Tools
		out.Tools = &t
	}
	return out
}

// ImplementationInfo describes the implementation name and version.
type ImplementationInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}
