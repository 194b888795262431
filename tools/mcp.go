package tools

// MCP server identity for the exposed Slack tools.
const (
	MCPServerName    = "slack-agent-mcp"
	MCPServerVersion = "0.1.0"
)

// ToolDescriptor describes one tool for MCP registration.
type ToolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ServerConfig describes a standalone HTTP/SSE MCP server exposing the
// registry's tools.
type ServerConfig struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Transport string   `json:"transport"`
	Host      string   `json:"host"`
	Port      int      `json:"port"`
	Tools     []string `json:"tools"`
}

// SDKConfig describes the registry for agent SDK MCP integration.
type SDKConfig struct {
	Description string           `json:"description"`
	Version     string           `json:"version"`
	ToolNames   []string         `json:"tool_names"`
	Tools       []ToolDescriptor `json:"tools"`
}

// StandaloneServerConfig builds the configuration for serving the
// registry's tools over HTTP with SSE transport.
func StandaloneServerConfig(registry *Registry, host string, port int) ServerConfig {
	return ServerConfig{
		Name:      MCPServerName,
		Version:   MCPServerVersion,
		Transport: "sse",
		Host:      host,
		Port:      port,
		Tools:     registry.Names(),
	}
}

// SDKMCPConfig builds the MCP configuration handed to the agent SDK.
func SDKMCPConfig(registry *Registry) SDKConfig {
	names := registry.Names()
	descriptors := make([]ToolDescriptor, 0, len(names))
	for _, name := range names {
		tool, _ := registry.Get(name)
		descriptors = append(descriptors, ToolDescriptor{
			Name:        tool.Name,
			Description: tool.Description,
		})
	}
	return SDKConfig{
		Description: "Slack Agent MCP tools for messaging operations",
		Version:     MCPServerVersion,
		ToolNames:   names,
		Tools:       descriptors,
	}
}
