package api_router

import (
	"runtime"
	"time"

	"github.com/haierkeys/prompt-workspace-service/internal/app"
	pkgapp "github.com/haierkeys/prompt-workspace-service/pkg/app"
	"github.com/haierkeys/prompt-workspace-service/pkg/code"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/mem"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a)}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status        string  `json:"status"`        // "healthy" 或 "unhealthy"
	Version       string  `json:"version"`       // 服务版本号
	Uptime        float64 `json:"uptime"`        // 运行时间（秒）
	Database      string  `json:"database"`      // "connected" 或 "error"
	Goroutines    int     `json:"goroutines"`    // 协程数量
	MemoryPercent float64 `json:"memoryPercent"` // 系统内存使用率
}

// Check 健康检查接口
// 检查服务健康状态，包括数据库连接与运行时指标
func (h *HealthHandler) Check(c *gin.Context) {
	response := HealthResponse{
		Status:     "healthy",
		Version:    h.App.Version().Version,
		Uptime:     time.Since(h.App.StartTime).Seconds(),
		Database:   "connected",
		Goroutines: runtime.NumGoroutine(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		response.MemoryPercent = vm.UsedPercent
	}

	// 检查数据库连接
	if err := h.App.DB.Raw("SELECT 1").Error; err != nil {
		response.Status = "unhealthy"
		response.Database = "error"
		pkgapp.NewResponse(c).ToResponse(code.ErrorInternal.WithData(response))
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(response))
}
