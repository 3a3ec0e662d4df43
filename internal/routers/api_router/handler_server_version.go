package api_router

import (
	"github.com/haierkeys/prompt-workspace-service/internal/app"
	pkgapp "github.com/haierkeys/prompt-workspace-service/pkg/app"
	"github.com/haierkeys/prompt-workspace-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// ServerVersionHandler 服务版本信息处理器
type ServerVersionHandler struct {
	*Handler
}

// NewServerVersionHandler 创建 ServerVersionHandler 实例
func NewServerVersionHandler(a *app.App) *ServerVersionHandler {
	return &ServerVersionHandler{Handler: NewHandler(a)}
}

// ServerVersionResponse 版本信息响应
type ServerVersionResponse struct {
	pkgapp.VersionInfo
	Check pkgapp.CheckVersionInfo `json:"check"`
}

// ServerVersion 返回服务版本号与更新检查结果
func (h *ServerVersionHandler) ServerVersion(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	response.ToResponse(code.Success.WithData(ServerVersionResponse{
		VersionInfo: h.App.Version(),
		Check:       h.App.CheckVersion(),
	}))
}
