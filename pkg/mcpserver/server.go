// Package mcpserver exposes the assessment tools over the Model Context
// Protocol. It only adapts adk.Tool values; the tools hold the logic.
package mcpserver

import (
	"context"
	"sort"

	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/user/hecvat-adk/pkg/adk"
)

// Version is set at build time via ldflags.
var Version = "dev"

const instructions = `HECVAT assessment tools for the repository in the working directory.
Start with ShowScores, then ShowRemediationPlan. LookupQuestion explains a single answer.
Weighted scores are percentages; raw and confidence-adjusted scores are fractions.`

// New creates an MCP server with one MCP tool per adk.Tool.
func New(tools []adk.Tool, logger hclog.Logger) *server.MCPServer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	s := server.NewMCPServer(
		"hecvat-adk",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	for _, t := range tools {
		s.AddTool(Definition(t), Handler(t, logger))
	}
	return s
}

// Definition builds the MCP tool definition from the tool's JSON schema.
// Properties are added in name order.
func Definition(t adk.Tool) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(t.Description())}

	props, _ := t.Schema()["properties"].(map[string]interface{})
	required := map[string]bool{}
	if req, ok := t.Schema()["required"].([]string); ok {
		for _, r := range req {
			required[r] = true
		}
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p, _ := props[name].(map[string]interface{})
		var popts []mcp.PropertyOption
		if d, ok := p["description"].(string); ok {
			popts = append(popts, mcp.Description(d))
		}
		if required[name] {
			popts = append(popts, mcp.Required())
		}
		switch p["type"] {
		case "boolean":
			opts = append(opts, mcp.WithBoolean(name, popts...))
		case "number", "integer":
			opts = append(opts, mcp.WithNumber(name, popts...))
		case "object":
			opts = append(opts, mcp.WithObject(name, popts...))
		default:
			opts = append(opts, mcp.WithString(name, popts...))
		}
	}
	return mcp.NewTool(t.Name(), opts...)
}

// Handler runs the tool and turns its output into a text result. Tool
// errors are returned as error results so the client can show them.
func Handler(t adk.Tool, logger hclog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger.Debug("tool call", "tool", t.Name(), "args", req.GetArguments())
		out, err := t.Execute(ctx, req.GetArguments(), nil)
		if err != nil {
			logger.Warn("tool failed", "tool", t.Name(), "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}
