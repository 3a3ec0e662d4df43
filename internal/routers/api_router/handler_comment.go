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

// CommentHandler 评论 API 路由处理器
type CommentHandler struct {
	*Handler
}

// NewCommentHandler 创建 CommentHandler 实例
func NewCommentHandler(a *app.App) *CommentHandler {
	return &CommentHandler{Handler: NewHandler(a)}
}

// Add 添加评论
func (h *CommentHandler) Add(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.CommentAddRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("CommentHandler.Add.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	actorID := pkgapp.GetActorID(c)
	ctx := c.Request.Context()

	comment, err := h.App.CommentService.Add(ctx, params.WorkspaceID, actorID, params.Field, params.Body)
	if err != nil {
		h.logError(ctx, "CommentHandler.Add", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(comment))
}

// Resolve 标记评论为已解决
func (h *CommentHandler) Resolve(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.CommentResolveRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("CommentHandler.Resolve.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	ctx := c.Request.Context()

	comment, err := h.App.CommentService.Resolve(ctx, params.WorkspaceID, params.CommentID)
	if err != nil {
		h.logError(ctx, "CommentHandler.Resolve", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(comment))
}

// List 分页获取工作区评论
func (h *CommentHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.CommentListRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("CommentHandler.List.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	ctx := c.Request.Context()

	page := pkgapp.GetPage(c)
	pageSize := pkgapp.GetPageSize(c)

	list, total, err := h.App.CommentService.List(ctx, params.WorkspaceID, page, pageSize)
	if err != nil {
		h.logError(ctx, "CommentHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponseList(code.Success, list, int(total))
}
