package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates a new MCP server with meshcheck tools registered.
func NewServer(version string) *server.MCPServer {
	s := server.NewMCPServer(
		"meshcheck",
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("meshcheck/validate",
			mcp.WithDescription("Validate a solution file: references, grant flow, handoff cycles, reachability and, with a store, connector bindings"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the solution YAML or JSON file")),
			mcp.WithString("store", mcp.Description("Store directory supplying skills, connectors and mcp-store sources (optional)")),
		),
		HandleValidate,
	)

	s.AddTool(
		mcp.NewTool("meshcheck/report",
			mcp.WithDescription("Generate the leveled validation report for a stored solution"),
			mcp.WithString("store", mcp.Required(), mcp.Description("Store directory")),
			mcp.WithString("solution", mcp.Required(), mcp.Description("Solution id within the store")),
			mcp.WithString("gate", mcp.Description("Release gate expression evaluated against the report summary (optional)")),
		),
		HandleReport,
	)

	s.AddTool(
		mcp.NewTool("meshcheck/schema",
			mcp.WithDescription("Export meshcheck JSON Schema (solution or skill)"),
			mcp.WithString("type", mcp.Required(), mcp.Description("Schema type: 'solution' or 'skill'")),
		),
		HandleSchema,
	)

	s.AddTool(
		mcp.NewTool("meshcheck/diagram",
			mcp.WithDescription("Render the handoff graph of a solution file"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the solution YAML or JSON file")),
			mcp.WithString("format", mcp.Description("Diagram format: 'mermaid' (default) or 'ascii'")),
		),
		HandleDiagram,
	)

	return s
}
