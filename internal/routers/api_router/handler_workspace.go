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

// WorkspaceHandler 工作区 API 路由处理器
// 使用 App Container 注入依赖，支持统一错误处理
type WorkspaceHandler struct {
	*Handler
}

// NewWorkspaceHandler 创建 WorkspaceHandler 实例
func NewWorkspaceHandler(a *app.App) *WorkspaceHandler {
	return &WorkspaceHandler{Handler: NewHandler(a)}
}

// Create 创建工作区
func (h *WorkspaceHandler) Create(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.WorkspaceCreateRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("WorkspaceHandler.Create.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	ctx := c.Request.Context()

	ws, err := h.App.WorkspaceService.Create(ctx, params.Name, params.Description)
	if err != nil {
		h.logError(ctx, "WorkspaceHandler.Create", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(ws))
}

// Get 获取工作区详情
func (h *WorkspaceHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.WorkspaceGetRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("WorkspaceHandler.Get.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	ctx := c.Request.Context()

	ws, err := h.App.WorkspaceService.Get(ctx, params.ID)
	if err != nil {
		h.logError(ctx, "WorkspaceHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(ws))
}

// Update 更新工作区名称与描述
func (h *WorkspaceHandler) Update(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.WorkspaceUpdateRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("WorkspaceHandler.Update.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	ctx := c.Request.Context()

	ws, err := h.App.WorkspaceService.Update(ctx, params.ID, params.Name, params.Description)
	if err != nil {
		h.logError(ctx, "WorkspaceHandler.Update", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(ws))
}

// List 分页获取工作区列表
func (h *WorkspaceHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	page := pkgapp.GetPage(c)
	pageSize := pkgapp.GetPageSize(c)

	list, total, err := h.App.WorkspaceService.List(ctx, page, pageSize)
	if err != nil {
		h.logError(ctx, "WorkspaceHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponseList(code.Success, list, int(total))
}

// Delete 删除工作区及其全部版本与评论
func (h *WorkspaceHandler) Delete(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.WorkspaceGetRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("WorkspaceHandler.Delete.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	ctx := c.Request.Context()

	if err := h.App.WorkspaceService.Delete(ctx, params.ID); err != nil {
		h.logError(ctx, "WorkspaceHandler.Delete", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success)
}
