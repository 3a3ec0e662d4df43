package websocket_router

import (
	"github.com/haierkeys/prompt-workspace-service/internal/app"
	pkgapp "github.com/haierkeys/prompt-workspace-service/pkg/app"
	"github.com/haierkeys/prompt-workspace-service/pkg/code"
)

// 在线状态操作的响应动作类型
const (
	ActionHeartbeat    = "Heartbeat"
	ActionPresenceList = "PresenceList"
)

// PresenceWSHandler WebSocket 在线状态处理器
// 加入与离开由连接钩子处理，这里只处理心跳与查询
type PresenceWSHandler struct {
	*WSHandler
}

// NewPresenceWSHandler 创建 PresenceWSHandler 实例
func NewPresenceWSHandler(a *app.App) *PresenceWSHandler {
	return &PresenceWSHandler{WSHandler: NewWSHandler(a)}
}

// Heartbeat 刷新在线有效期；不产生事件
func (h *PresenceWSHandler) Heartbeat(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	ctx := c.Context()

	p, err := h.App.PresenceService.Heartbeat(ctx, c.WorkspaceID, c.ActorID, c.ActorName)
	if err != nil {
		h.respondError(c, err, ActionHeartbeat, "websocket_router.presence.Heartbeat")
		return
	}

	c.ToResponse(code.Success.WithData(p), ActionHeartbeat)
}

// PresenceList 列出工作区内所有未超时的在线操作者
func (h *PresenceWSHandler) PresenceList(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	ctx := c.Context()

	list, err := h.App.PresenceService.List(ctx, c.WorkspaceID)
	if err != nil {
		h.respondError(c, err, ActionPresenceList, "websocket_router.presence.PresenceList")
		return
	}

	c.ToResponse(code.Success.WithData(list), ActionPresenceList)
}
