package websocket_router

import (
	"errors"

	"github.com/haierkeys/prompt-workspace-service/internal/app"
	"github.com/haierkeys/prompt-workspace-service/internal/dto"
	"github.com/haierkeys/prompt-workspace-service/internal/service"
	pkgapp "github.com/haierkeys/prompt-workspace-service/pkg/app"
	"github.com/haierkeys/prompt-workspace-service/pkg/code"
)

// 版本操作的响应动作类型
const (
	ActionVersionCommit = "VersionCommit"
	ActionStateResync   = "StateResync"
)

// VersionWSHandler WebSocket 版本处理器
// 使用 App Container 注入依赖
type VersionWSHandler struct {
	*WSHandler
}

// NewVersionWSHandler 创建 VersionWSHandler 实例
func NewVersionWSHandler(a *app.App) *VersionWSHandler {
	return &VersionWSHandler{WSHandler: NewWSHandler(a)}
}

// VersionCommit 处理版本提交消息
// 所有变更字段必须由提交者持有对应字段锁；提交结果通过事件广播推送
func (h *VersionWSHandler) VersionCommit(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.WSVersionCommitRequest{}
	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		c.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...), ActionVersionCommit)
		return
	}

	ctx := c.Context()

	version, err := h.App.VersionService.Commit(ctx, c.WorkspaceID, c.ActorID, &service.CommitParams{
		Message:            params.Message,
		PromptText:         params.PromptText,
		ModelConfiguration: params.ModelConfiguration,
		Tools:              params.Tools,
		Scratchpad:         params.Scratchpad,
	})
	if err != nil {
		h.respondError(c, err, ActionVersionCommit, "websocket_router.version.VersionCommit")
		return
	}

	c.ToResponse(code.Success.WithData(version), ActionVersionCommit)
}

// StateResync 处理状态重同步消息
// 断线重连后客户端以快照重建本地状态；事件不回放，lastEventSeq 标记快照位置
func (h *VersionWSHandler) StateResync(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	ctx := c.Context()

	ws, err := h.App.WorkspaceService.Get(ctx, c.WorkspaceID)
	if err != nil {
		h.respondError(c, err, ActionStateResync, "websocket_router.version.StateResync.Workspace")
		return
	}

	// 工作区尚无版本时快照不含头版本
	head, err := h.App.VersionService.Head(ctx, c.WorkspaceID)
	if err != nil {
		var codeErr *code.Code
		if !errors.As(err, &codeErr) || codeErr.Code() != code.ErrorVersionNotFound.Code() {
			h.respondError(c, err, ActionStateResync, "websocket_router.version.StateResync.Head")
			return
		}
		head = nil
	}

	locks, err := h.App.LockService.List(ctx, c.WorkspaceID)
	if err != nil {
		h.respondError(c, err, ActionStateResync, "websocket_router.version.StateResync.Locks")
		return
	}

	presence, err := h.App.PresenceService.List(ctx, c.WorkspaceID)
	if err != nil {
		h.respondError(c, err, ActionStateResync, "websocket_router.version.StateResync.Presence")
		return
	}

	snapshot := dto.StateResyncResponse{
		Workspace:    ws,
		Locks:        locks,
		Presence:     presence,
		LastEventSeq: h.App.EventService.LastSeq(c.WorkspaceID),
	}
	if head != nil {
		snapshot.Head = head
	}

	c.ToResponse(code.Success.WithData(snapshot), ActionStateResync)
}
