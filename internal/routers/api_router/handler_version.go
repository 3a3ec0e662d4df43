package api_router

import (
	"github.com/haierkeys/prompt-workspace-service/internal/app"
	"github.com/haierkeys/prompt-workspace-service/internal/dto"
	"github.com/haierkeys/prompt-workspace-service/internal/service"
	pkgapp "github.com/haierkeys/prompt-workspace-service/pkg/app"
	"github.com/haierkeys/prompt-workspace-service/pkg/code"
	"github.com/haierkeys/prompt-workspace-service/pkg/convert"
	apperrors "github.com/haierkeys/prompt-workspace-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VersionHandler 版本 API 路由处理器
// 提交、读取、比较与回滚工作区版本
type VersionHandler struct {
	*Handler
}

// NewVersionHandler 创建 VersionHandler 实例
func NewVersionHandler(a *app.App) *VersionHandler {
	return &VersionHandler{Handler: NewHandler(a)}
}

// Commit 提交新版本
// 所有变更字段必须由提交者持有对应字段锁
func (h *VersionHandler) Commit(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.VersionCommitRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("VersionHandler.Commit.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	actorID := pkgapp.GetActorID(c)
	ctx := c.Request.Context()

	commitParams := convert.StructAssign(params, &service.CommitParams{}).(*service.CommitParams)

	version, err := h.App.VersionService.Commit(ctx, params.WorkspaceID, actorID, commitParams)
	if err != nil {
		h.logError(ctx, "VersionHandler.Commit", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(version))
}

// Get 获取版本；versionId 与 seq 二选一，均缺省时返回头版本
func (h *VersionHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.VersionGetRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("VersionHandler.Get.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	ctx := c.Request.Context()

	var version *service.VersionDTO
	var err error
	switch {
	case params.VersionID != "":
		version, err = h.App.VersionService.Get(ctx, params.WorkspaceID, params.VersionID)
	case params.Seq > 0:
		version, err = h.App.VersionService.GetBySeq(ctx, params.WorkspaceID, params.Seq)
	default:
		version, err = h.App.VersionService.Head(ctx, params.WorkspaceID)
	}
	if err != nil {
		h.logError(ctx, "VersionHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(version))
}

// List 分页获取版本列表（按序号倒序）
func (h *VersionHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.VersionListRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("VersionHandler.List.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	ctx := c.Request.Context()

	page := pkgapp.GetPage(c)
	pageSize := pkgapp.GetPageSize(c)

	list, total, err := h.App.VersionService.List(ctx, params.WorkspaceID, page, pageSize)
	if err != nil {
		h.logError(ctx, "VersionHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponseList(code.Success, list, int(total))
}

// Diff 计算两个版本之间的结构化差异
func (h *VersionHandler) Diff(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.VersionDiffRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("VersionHandler.Diff.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	ctx := c.Request.Context()

	d, err := h.App.VersionService.Diff(ctx, params.WorkspaceID, params.From, params.To)
	if err != nil {
		h.logError(ctx, "VersionHandler.Diff", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(d))
}

// Revert 以历史版本内容创建新版本；历史记录不被改写
func (h *VersionHandler) Revert(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.VersionRevertRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("VersionHandler.Revert.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	actorID := pkgapp.GetActorID(c)
	ctx := c.Request.Context()

	version, err := h.App.VersionService.Revert(ctx, params.WorkspaceID, actorID, params.VersionID, params.Message)
	if err != nil {
		h.logError(ctx, "VersionHandler.Revert", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(version))
}
