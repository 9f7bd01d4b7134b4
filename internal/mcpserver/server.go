package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all ChainCheck tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("chaincheck", "1.0.0")
	client := NewChainCheckClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolCheckEntity, h.HandleCheckEntity)
	s.AddTool(ToolReportEntity, h.HandleReportEntity)
	s.AddTool(ToolGetReports, h.HandleGetReports)
	if cfg.AdminSecret != "" {
		s.AddTool(ToolListBlacklist, h.HandleListBlacklist)
	}

	return s
}
