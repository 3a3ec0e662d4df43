package api_router

import (
	"github.com/haierkeys/prompt-workspace-service/internal/app"
	"github.com/haierkeys/prompt-workspace-service/internal/dto"
	pkgapp "github.com/haierkeys/prompt-workspace-service/pkg/app"
	"github.com/haierkeys/prompt-workspace-service/pkg/code"
	apperrors "github.com/haierkeys/prompt-workspace-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LockHandler 字段锁 API 路由处理器
type LockHandler struct {
	*Handler
}

// NewLockHandler 创建 LockHandler 实例
func NewLockHandler(a *app.App) *LockHandler {
	return &LockHandler{Handler: NewHandler(a)}
}

// Acquire 获取字段锁
// 字段已被他人持有时返回锁拒绝错误，Data 携带当前持有者
func (h *LockHandler) Acquire(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.LockAcquireRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("LockHandler.Acquire.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	actorID := pkgapp.GetActorID(c)
	ctx := c.Request.Context()

	lock, err := h.App.LockService.Acquire(ctx, params.WorkspaceID, params.Field, actorID, params.TTL)
	if err != nil {
		h.logError(ctx, "LockHandler.Acquire", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(lock))
}

// Renew 续期已持有的锁；到期时间从当前时刻重新计算
func (h *LockHandler) Renew(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.LockRenewRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("LockHandler.Renew.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	actorID := pkgapp.GetActorID(c)
	ctx := c.Request.Context()

	lock, err := h.App.LockService.Renew(ctx, params.WorkspaceID, params.Field, actorID, params.TTL)
	if err != nil {
		h.logError(ctx, "LockHandler.Renew", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(lock))
}

// Release 释放锁；锁已不存在时幂等成功
func (h *LockHandler) Release(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.LockReleaseRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("LockHandler.Release.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	actorID := pkgapp.GetActorID(c)
	ctx := c.Request.Context()

	if err := h.App.LockService.Release(ctx, params.WorkspaceID, params.Field, actorID); err != nil {
		h.logError(ctx, "LockHandler.Release", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success)
}

// List 列出工作区内所有未过期的锁
func (h *LockHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.LockListRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("LockHandler.List.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	ctx := c.Request.Context()

	locks, err := h.App.LockService.List(ctx, params.WorkspaceID)
	if err != nil {
		h.logError(ctx, "LockHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(locks))
}
