// Package server exposes the dispatcher over the Model Context Protocol.
// Tool schemas are declared here; all semantics live in the dispatcher.
package server

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tobyash86/pkgmgr-mcp/internal/dispatcher"
)

// Name identifies this server to MCP clients.
const Name = "pkgmgr-mcp"

// toolDispatcher is what the RPC layer needs from the pipeline.
type toolDispatcher interface {
	Dispatch(ctx context.Context, tool string, args map[string]any) dispatcher.Response
}

// New assembles the MCP server with the five package-manager tools
// registered against the dispatcher.
func New(d toolDispatcher, version string) *server.MCPServer {
	s := server.NewMCPServer(
		Name,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	managerParam := func() mcp.ToolOption {
		return mcp.WithString("manager",
			mcp.Description("Package manager to use. Defaults to the configured Python manager."),
			mcp.Enum("npm", "uv", "pip"),
		)
	}
	pathParam := func(desc string) mcp.ToolOption {
		return mcp.WithString("path", mcp.Required(), mcp.Description(desc))
	}

	s.AddTool(mcp.NewTool("install",
		mcp.WithDescription("Install a package into a project. Accepts a plain name, a versioned spec like requests==2.31, or \"-r requirements.txt\"."),
		pathParam("Project directory, relative to the configured project root."),
		mcp.WithString("package", mcp.Required(), mcp.Description("Package spec or \"-r <file>\" for a requirements file.")),
		managerParam(),
	), handler(d, "install"))

	s.AddTool(mcp.NewTool("uninstall",
		mcp.WithDescription("Remove a package from a project."),
		pathParam("Project directory, relative to the configured project root."),
		mcp.WithString("package", mcp.Required(), mcp.Description("Name of the package to remove.")),
		managerParam(),
	), handler(d, "uninstall"))

	s.AddTool(mcp.NewTool("init",
		mcp.WithDescription("Initialize a new project (uv init or npm init -y). Creates the directory when missing."),
		pathParam("Directory to initialize, relative to the configured project root."),
		managerParam(),
	), handler(d, "init"))

	s.AddTool(mcp.NewTool("create_venv",
		mcp.WithDescription("Create a Python virtual environment with uv."),
		pathParam("Project directory, relative to the configured project root."),
		mcp.WithString("venv_name", mcp.Description("Environment directory name. Defaults to .venv.")),
	), handler(d, "create_venv"))

	s.AddTool(mcp.NewTool("add",
		mcp.WithDescription("Run uv add with arbitrary arguments, e.g. [\"--dev\", \"pytest\"]. Package arguments are whitelist-checked."),
		pathParam("Project directory, relative to the configured project root."),
		mcp.WithArray("args", mcp.Required(),
			mcp.Description("Arguments passed to uv add."),
			mcp.Items(map[string]any{"type": "string"}),
		),
	), handler(d, "add"))

	return s
}

// handler adapts one tool name onto the dispatcher. The response is a
// JSON document either way; protocol-level IsError mirrors the status so
// clients that only look at the flag still see failures.
func handler(d toolDispatcher, tool string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]any)

		resp := d.Dispatch(ctx, tool, args)

		payload, err := json.Marshal(resp)
		if err != nil {
			return mcp.NewToolResultError("encode response: " + err.Error()), nil
		}
		if resp.Status != "ok" {
			return mcp.NewToolResultError(string(payload)), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}
