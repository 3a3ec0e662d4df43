package api_router

import (
	"github.com/haierkeys/prompt-workspace-service/internal/app"
	"github.com/haierkeys/prompt-workspace-service/internal/dto"
	"github.com/haierkeys/prompt-workspace-service/internal/service"
	pkgapp "github.com/haierkeys/prompt-workspace-service/pkg/app"
	"github.com/haierkeys/prompt-workspace-service/pkg/code"
	apperrors "github.com/haierkeys/prompt-workspace-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RefineryHandler 提示词优化 API 路由处理器
type RefineryHandler struct {
	*Handler
}

// NewRefineryHandler 创建 RefineryHandler 实例
func NewRefineryHandler(a *app.App) *RefineryHandler {
	return &RefineryHandler{Handler: NewHandler(a)}
}

// Optimize 基于调用方提供的示例优化提示词
// 产生改进时通过常规提交路径生成新版本，要求调用方已持有 prompt_text 字段锁
func (h *RefineryHandler) Optimize(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.OptimizeRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("RefineryHandler.Optimize.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	actorID := pkgapp.GetActorID(c)
	ctx := c.Request.Context()

	examples := make([]service.OptimizationExample, 0, len(params.Examples))
	for _, e := range params.Examples {
		examples = append(examples, service.OptimizationExample{
			InputText:      e.InputText,
			ExpectedOutput: e.ExpectedOutput,
		})
	}

	result, err := h.App.RefineryService.Optimize(ctx, params.WorkspaceID, actorID, examples, params.Iterations)
	if err != nil {
		h.logError(ctx, "RefineryHandler.Optimize", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(result))
}
