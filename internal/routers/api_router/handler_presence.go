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

// PresenceHandler 在线状态 API 路由处理器
// WebSocket 连接的加入/离开由连接钩子处理，这里提供轮询客户端使用的 HTTP 入口
type PresenceHandler struct {
	*Handler
}

// NewPresenceHandler 创建 PresenceHandler 实例
func NewPresenceHandler(a *app.App) *PresenceHandler {
	return &PresenceHandler{Handler: NewHandler(a)}
}

// Heartbeat 刷新在线有效期；不产生事件
func (h *PresenceHandler) Heartbeat(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.WorkspaceGetRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("PresenceHandler.Heartbeat.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	actorID := pkgapp.GetActorID(c)
	actorName := c.GetString("actor_name")
	ctx := c.Request.Context()

	p, err := h.App.PresenceService.Heartbeat(ctx, params.ID, actorID, actorName)
	if err != nil {
		h.logError(ctx, "PresenceHandler.Heartbeat", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(p))
}

// Leave 操作者主动离开工作区
func (h *PresenceHandler) Leave(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.WorkspaceGetRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("PresenceHandler.Leave.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	actorID := pkgapp.GetActorID(c)
	ctx := c.Request.Context()

	if err := h.App.PresenceService.Leave(ctx, params.ID, actorID); err != nil {
		h.logError(ctx, "PresenceHandler.Leave", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success)
}

// List 列出工作区内所有未超时的在线操作者
func (h *PresenceHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.WorkspaceGetRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("PresenceHandler.List.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	ctx := c.Request.Context()

	list, err := h.App.PresenceService.List(ctx, params.ID)
	if err != nil {
		h.logError(ctx, "PresenceHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(list))
}
