package mcp

import (
	"context"
	stderrors "errors"

	"github.com/haierkeys/prompt-workspace-service/internal/app"
	"github.com/haierkeys/prompt-workspace-service/pkg/code"

	"github.com/bytedance/sonic"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers MCP 工具处理器集合，依赖 App Container 注入
type Handlers struct {
	app *app.App
}

// NewHandlers 创建 Handlers 实例
func NewHandlers(a *app.App) *Handlers {
	return &Handlers{app: a}
}

// 各工具的入参类型

type WorkspaceGetRequest struct {
	WorkspaceID string `json:"workspace_id"`
}

type WorkspaceListRequest struct {
	Page     int `json:"page,omitempty"`
	PageSize int `json:"page_size,omitempty"`
}

type VersionGetRequest struct {
	WorkspaceID string `json:"workspace_id"`
	VersionID   string `json:"version_id,omitempty"`
	Seq         int64  `json:"seq,omitempty"`
}

type VersionListRequest struct {
	WorkspaceID string `json:"workspace_id"`
	Page        int    `json:"page,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}

type VersionDiffRequest struct {
	WorkspaceID string `json:"workspace_id"`
	From        string `json:"from"`
	To          string `json:"to"`
}

type CommentListRequest struct {
	WorkspaceID string `json:"workspace_id"`
	Page        int    `json:"page,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}

// HandleWorkspaceGet 查询单个工作区
func (h *Handlers) HandleWorkspaceGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[WorkspaceGetRequest](req)
	if err != nil {
		return errorResult(code.ErrorInvalidParams.WithDetails(err.Error())), nil
	}

	ws, err := h.app.WorkspaceService.Get(ctx, input.WorkspaceID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(ws)
}

// HandleWorkspaceList 分页列出工作区
func (h *Handlers) HandleWorkspaceList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[WorkspaceListRequest](req)
	if err != nil {
		return errorResult(code.ErrorInvalidParams.WithDetails(err.Error())), nil
	}

	page, pageSize := normalizePage(input.Page, input.PageSize)
	list, total, err := h.app.WorkspaceService.List(ctx, page, pageSize)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"list": list, "total": total})
}

// HandleVersionHead 查询头版本
func (h *Handlers) HandleVersionHead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[WorkspaceGetRequest](req)
	if err != nil {
		return errorResult(code.ErrorInvalidParams.WithDetails(err.Error())), nil
	}

	version, err := h.app.VersionService.Head(ctx, input.WorkspaceID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(version)
}

// HandleVersionGet 按版本 ID 或序号查询版本，两者都缺省时返回头版本
func (h *Handlers) HandleVersionGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[VersionGetRequest](req)
	if err != nil {
		return errorResult(code.ErrorInvalidParams.WithDetails(err.Error())), nil
	}

	var version any
	switch {
	case input.VersionID != "":
		version, err = h.app.VersionService.Get(ctx, input.WorkspaceID, input.VersionID)
	case input.Seq > 0:
		version, err = h.app.VersionService.GetBySeq(ctx, input.WorkspaceID, input.Seq)
	default:
		version, err = h.app.VersionService.Head(ctx, input.WorkspaceID)
	}
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(version)
}

// HandleVersionList 分页列出版本历史
func (h *Handlers) HandleVersionList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[VersionListRequest](req)
	if err != nil {
		return errorResult(code.ErrorInvalidParams.WithDetails(err.Error())), nil
	}

	page, pageSize := normalizePage(input.Page, input.PageSize)
	list, total, err := h.app.VersionService.List(ctx, input.WorkspaceID, page, pageSize)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"list": list, "total": total})
}

// HandleVersionDiff 计算两个版本之间的确定性差异
func (h *Handlers) HandleVersionDiff(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[VersionDiffRequest](req)
	if err != nil {
		return errorResult(code.ErrorInvalidParams.WithDetails(err.Error())), nil
	}

	diffResult, err := h.app.VersionService.Diff(ctx, input.WorkspaceID, input.From, input.To)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(diffResult)
}

// HandleLockList 列出工作区内的活跃字段锁
func (h *Handlers) HandleLockList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[WorkspaceGetRequest](req)
	if err != nil {
		return errorResult(code.ErrorInvalidParams.WithDetails(err.Error())), nil
	}

	locks, err := h.app.LockService.List(ctx, input.WorkspaceID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(locks)
}

// HandlePresenceList 列出工作区内的在线操作者
func (h *Handlers) HandlePresenceList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[WorkspaceGetRequest](req)
	if err != nil {
		return errorResult(code.ErrorInvalidParams.WithDetails(err.Error())), nil
	}

	presence, err := h.app.PresenceService.List(ctx, input.WorkspaceID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(presence)
}

// HandleCommentList 分页列出工作区评论
func (h *Handlers) HandleCommentList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CommentListRequest](req)
	if err != nil {
		return errorResult(code.ErrorInvalidParams.WithDetails(err.Error())), nil
	}

	page, pageSize := normalizePage(input.Page, input.PageSize)
	list, total, err := h.app.CommentService.List(ctx, input.WorkspaceID, page, pageSize)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"list": list, "total": total})
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return page, pageSize
}

// errorResult 将错误转换为 MCP 错误结果
// 业务错误保留码与消息，其余错误不向客户端暴露内部细节
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var codeErr *code.Code
	if stderrors.As(err, &codeErr) {
		errorObj := map[string]any{
			"code":    codeErr.Code(),
			"message": codeErr.Msg(),
		}
		if codeErr.HaveDetails() {
			errorObj["details"] = codeErr.Details()
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    code.ErrorInternal.Code(),
				"message": "an internal error occurred",
			},
		}
	}

	content, _ := sonic.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
