// Package mcp 暴露只读的 MCP 工具面
// 供 AI 客户端通过 stdio 查询工作区、版本历史与协作状态
package mcp

import (
	"github.com/haierkeys/prompt-workspace-service/internal/app"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

var toolRegistry = map[string]toolEntry{
	"workspace_get": {
		def: mcp.NewTool("workspace_get",
			mcp.WithDescription("Get a workspace by ID, including its read-only flag and head sequence"),
			mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWorkspaceGet },
	},
	"workspace_list": {
		def: mcp.NewTool("workspace_list",
			mcp.WithDescription("List workspaces with pagination"),
			mcp.WithNumber("page", mcp.Description("Page number, starts at 1")),
			mcp.WithNumber("page_size", mcp.Description("Entries per page")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWorkspaceList },
	},
	"version_head": {
		def: mcp.NewTool("version_head",
			mcp.WithDescription("Get the latest committed version of a workspace"),
			mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleVersionHead },
	},
	"version_get": {
		def: mcp.NewTool("version_get",
			mcp.WithDescription("Get a specific version by ID or sequence number"),
			mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
			mcp.WithString("version_id", mcp.Description("Version ID")),
			mcp.WithNumber("seq", mcp.Description("Version sequence number")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleVersionGet },
	},
	"version_list": {
		def: mcp.NewTool("version_list",
			mcp.WithDescription("List version history of a workspace, newest first"),
			mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
			mcp.WithNumber("page", mcp.Description("Page number, starts at 1")),
			mcp.WithNumber("page_size", mcp.Description("Entries per page")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleVersionList },
	},
	"version_diff": {
		def: mcp.NewTool("version_diff",
			mcp.WithDescription("Compute the deterministic diff between two versions of a workspace"),
			mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
			mcp.WithString("from", mcp.Required(), mcp.Description("Base version ID")),
			mcp.WithString("to", mcp.Required(), mcp.Description("Target version ID")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleVersionDiff },
	},
	"lock_list": {
		def: mcp.NewTool("lock_list",
			mcp.WithDescription("List active field locks held in a workspace"),
			mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLockList },
	},
	"presence_list": {
		def: mcp.NewTool("presence_list",
			mcp.WithDescription("List actors currently present in a workspace"),
			mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePresenceList },
	},
	"comment_list": {
		def: mcp.NewTool("comment_list",
			mcp.WithDescription("List comments of a workspace"),
			mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace ID")),
			mcp.WithNumber("page", mcp.Description("Page number, starts at 1")),
			mcp.WithNumber("page_size", mcp.Description("Entries per page")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCommentList },
	},
}

// NewServer 创建 MCP 服务并注册全部工具
func NewServer(a *app.App) *server.MCPServer {
	s := server.NewMCPServer(
		"prompt-workspace-service",
		a.Version().Version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(a)
	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run 以 stdio 传输方式运行 MCP 服务
func Run(a *app.App) error {
	return server.ServeStdio(NewServer(a))
}
