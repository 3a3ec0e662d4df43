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

// AdminHandler 管理接口路由处理器
type AdminHandler struct {
	*Handler
}

// NewAdminHandler 创建 AdminHandler 实例
func NewAdminHandler(a *app.App) *AdminHandler {
	return &AdminHandler{Handler: NewHandler(a)}
}

// SetReadOnly 切换工作区只读开关
// 只读期间提交、回滚与优化被拒绝，锁释放与续期仍然放行
func (h *AdminHandler) SetReadOnly(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.ReadOnlySetRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("AdminHandler.SetReadOnly.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	ctx := c.Request.Context()

	if err := h.App.WorkspaceService.SetReadOnly(ctx, params.ID, *params.ReadOnly); err != nil {
		h.logError(ctx, "AdminHandler.SetReadOnly", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	ws, err := h.App.WorkspaceService.Get(ctx, params.ID)
	if err != nil {
		h.logError(ctx, "AdminHandler.SetReadOnly.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(ws))
}
