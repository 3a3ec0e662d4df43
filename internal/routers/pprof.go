package routers

import (
	"net/http"
	"net/http/pprof"

	"github.com/haierkeys/prompt-workspace-service/internal/middleware"
	"github.com/haierkeys/prompt-workspace-service/internal/routers/api_router"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewPrivateRouterWithLogger 创建私有路由（使用注入的日志器）
// 挂载运行时指标与调试端点，只应监听在内网地址上
func NewPrivateRouterWithLogger(runMode string, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	if runMode == "debug" {
		r.Use(gin.Recovery())
	} else {
		r.Use(middleware.RecoveryWithLogger(logger))
	}

	r.GET("/debug/vars", api_router.Expvar)
	r.GET("metrics", gin.WrapH(promhttp.Handler()))

	// pprof 仅在 debug 模式开放
	if runMode == "debug" {
		p := r.Group("/debug/pprof")
		{
			p.GET("/", wrapPprof(pprof.Index))
			p.GET("/cmdline", wrapPprof(pprof.Cmdline))
			p.GET("/profile", wrapPprof(pprof.Profile))
			p.POST("/symbol", wrapPprof(pprof.Symbol))
			p.GET("/symbol", wrapPprof(pprof.Symbol))
			p.GET("/trace", wrapPprof(pprof.Trace))
			for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
				p.GET("/"+name, wrapPprof(pprof.Handler(name).ServeHTTP))
			}
		}
	}

	return r
}

func wrapPprof(h http.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
