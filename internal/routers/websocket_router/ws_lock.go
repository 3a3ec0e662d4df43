package websocket_router

import (
	"github.com/haierkeys/prompt-workspace-service/internal/app"
	"github.com/haierkeys/prompt-workspace-service/internal/dto"
	pkgapp "github.com/haierkeys/prompt-workspace-service/pkg/app"
	"github.com/haierkeys/prompt-workspace-service/pkg/code"
)

// 锁操作的响应动作类型
const (
	ActionLockAcquire = "LockAcquire"
	ActionLockRelease = "LockRelease"
	ActionLockRenew   = "LockRenew"
	ActionLockList    = "LockList"
)

// LockWSHandler WebSocket 字段锁处理器
// 使用 App Container 注入依赖
type LockWSHandler struct {
	*WSHandler
}

// NewLockWSHandler 创建 LockWSHandler 实例
func NewLockWSHandler(a *app.App) *LockWSHandler {
	return &LockWSHandler{WSHandler: NewWSHandler(a)}
}

// LockAcquire 处理字段锁获取消息
// 字段已被他人持有时返回锁拒绝响应，Data 携带当前持有者
func (h *LockWSHandler) LockAcquire(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.WSLockAcquireRequest{}
	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		c.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...), ActionLockAcquire)
		return
	}

	ctx := c.Context()

	lock, err := h.App.LockService.Acquire(ctx, c.WorkspaceID, params.Field, c.ActorID, params.TTL)
	if err != nil {
		h.respondError(c, err, ActionLockAcquire, "websocket_router.lock.LockAcquire")
		return
	}

	c.ToResponse(code.Success.WithData(lock), ActionLockAcquire)
}

// LockRelease 处理字段锁释放消息；锁已不存在时幂等成功
func (h *LockWSHandler) LockRelease(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.WSLockReleaseRequest{}
	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		c.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...), ActionLockRelease)
		return
	}

	ctx := c.Context()

	if err := h.App.LockService.Release(ctx, c.WorkspaceID, params.Field, c.ActorID); err != nil {
		h.respondError(c, err, ActionLockRelease, "websocket_router.lock.LockRelease")
		return
	}

	c.ToResponse(code.Success, ActionLockRelease)
}

// LockRenew 处理字段锁续期消息；到期时间从当前时刻重新计算
func (h *LockWSHandler) LockRenew(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.WSLockAcquireRequest{}
	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		c.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...), ActionLockRenew)
		return
	}

	ctx := c.Context()

	lock, err := h.App.LockService.Renew(ctx, c.WorkspaceID, params.Field, c.ActorID, params.TTL)
	if err != nil {
		h.respondError(c, err, ActionLockRenew, "websocket_router.lock.LockRenew")
		return
	}

	c.ToResponse(code.Success.WithData(lock), ActionLockRenew)
}

// LockList 列出工作区内所有未过期的锁
func (h *LockWSHandler) LockList(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	ctx := c.Context()

	locks, err := h.App.LockService.List(ctx, c.WorkspaceID)
	if err != nil {
		h.respondError(c, err, ActionLockList, "websocket_router.lock.LockList")
		return
	}

	c.ToResponse(code.Success.WithData(locks), ActionLockList)
}
