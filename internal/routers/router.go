// Package routers 组装 HTTP 与 WebSocket 路由
package routers

import (
	"time"

	"github.com/haierkeys/prompt-workspace-service/internal/app"
	"github.com/haierkeys/prompt-workspace-service/internal/middleware"
	"github.com/haierkeys/prompt-workspace-service/internal/routers/api_router"
	"github.com/haierkeys/prompt-workspace-service/internal/routers/websocket_router"
	pkgapp "github.com/haierkeys/prompt-workspace-service/pkg/app"
	"github.com/haierkeys/prompt-workspace-service/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

var methodLimiters = limiter.NewMethodLimiter().AddBuckets(
	limiter.BucketRule{
		Key:          "/api/optimize",
		FillInterval: time.Second,
		Capacity:     5,
		Quantum:      5,
	},
	limiter.BucketRule{
		Key:          "/api/workspace",
		FillInterval: time.Second,
		Capacity:     50,
		Quantum:      50,
	},
)

// NewRouter 创建主路由
// WebSocket 服务由 App Container 持有（事件扇出依赖它），这里只负责注册动作处理器
func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()

	wss := appContainer.WsServer

	// 创建 WebSocket Handlers（注入 App Container）
	lockWSHandler := websocket_router.NewLockWSHandler(appContainer)
	versionWSHandler := websocket_router.NewVersionWSHandler(appContainer)
	presenceWSHandler := websocket_router.NewPresenceWSHandler(appContainer)

	// 字段锁
	wss.Use("LockAcquire", lockWSHandler.LockAcquire)
	wss.Use("LockRelease", lockWSHandler.LockRelease)
	wss.Use("LockRenew", lockWSHandler.LockRenew)
	wss.Use("LockList", lockWSHandler.LockList)

	// 版本提交与状态重同步
	wss.Use("VersionCommit", versionWSHandler.VersionCommit)
	wss.Use("StateResync", versionWSHandler.StateResync)

	// 在线状态
	wss.Use("Heartbeat", presenceWSHandler.Heartbeat)
	wss.Use("PresenceList", presenceWSHandler.PresenceList)

	// 加入前强制校验工作区存在
	wss.WorkspaceValidateUse(func(c *pkgapp.WebsocketClient, workspaceID string) error {
		_, err := appContainer.WorkspaceService.MustGet(c.Context(), workspaceID)
		return err
	})

	// 加入后登记在线状态并广播 PRESENCE_JOINED
	wss.JoinHookUse(func(c *pkgapp.WebsocketClient) {
		if _, err := appContainer.PresenceService.Join(c.Context(), c.WorkspaceID, c.ActorID, c.ActorName); err != nil {
			appContainer.Logger().Warn("websocket join hook: presence join failed")
		}
	})

	// 连接断开后注销在线状态并广播 PRESENCE_LEFT
	wss.LeaveHookUse(func(c *pkgapp.WebsocketClient) {
		if err := appContainer.PresenceService.Leave(c.Context(), c.WorkspaceID, c.ActorID); err != nil {
			appContainer.Logger().Warn("websocket leave hook: presence leave failed")
		}
	})

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfo(app.Name, appContainer.Version().Version))
		api.Use(gin.Logger())
		api.Use(middleware.TraceMiddleware(cfg.Tracer.Enabled, cfg.Tracer.Header)) // Trace ID 中间件
		api.Use(middleware.RateLimiter(methodLimiters))
		api.Use(middleware.ContextTimeout(time.Duration(cfg.App.DefaultContextTimeout) * time.Second))
		api.Use(middleware.Cors())
		api.Use(middleware.LangWithTranslator(uni))
		api.Use(middleware.AccessLog(appContainer.Logger()))
		api.Use(middleware.RecoveryWithLogger(appContainer.Logger()))

		// 创建 Handlers（注入 App Container）
		workspaceHandler := api_router.NewWorkspaceHandler(appContainer)
		versionHandler := api_router.NewVersionHandler(appContainer)
		lockHandler := api_router.NewLockHandler(appContainer)
		presenceHandler := api_router.NewPresenceHandler(appContainer)
		commentHandler := api_router.NewCommentHandler(appContainer)
		refineryHandler := api_router.NewRefineryHandler(appContainer)
		adminHandler := api_router.NewAdminHandler(appContainer)
		healthHandler := api_router.NewHealthHandler(appContainer)
		serverVersionHandler := api_router.NewServerVersionHandler(appContainer)

		// 无需操作者身份的接口
		api.GET("/health", healthHandler.Check)
		api.GET("/version", serverVersionHandler.ServerVersion)
		api.GET("/workspaces", workspaceHandler.List)
		api.GET("/workspace", workspaceHandler.Get)
		api.GET("/versions", versionHandler.List)
		api.GET("/version/get", versionHandler.Get)
		api.GET("/version/diff", versionHandler.Diff)
		api.GET("/locks", lockHandler.List)
		api.GET("/presence", presenceHandler.List)
		api.GET("/comments", commentHandler.List)

		// WebSocket 入口（加入时在帧内携带操作者身份）
		api.GET("/workspace/sync", wss.Run())

		// 以下接口要求 X-Actor-Id 请求头
		api.Use(middleware.ActorAuth())

		api.POST("/workspace", workspaceHandler.Create)
		api.PUT("/workspace", workspaceHandler.Update)
		api.DELETE("/workspace", workspaceHandler.Delete)
		api.POST("/workspace/readonly", adminHandler.SetReadOnly)

		api.POST("/version", versionHandler.Commit)
		api.POST("/version/revert", versionHandler.Revert)

		api.POST("/lock", lockHandler.Acquire)
		api.PUT("/lock", lockHandler.Renew)
		api.DELETE("/lock", lockHandler.Release)

		api.POST("/presence/heartbeat", presenceHandler.Heartbeat)
		api.DELETE("/presence", presenceHandler.Leave)

		api.POST("/comment", commentHandler.Add)
		api.PUT("/comment/resolve", commentHandler.Resolve)

		api.POST("/optimize", refineryHandler.Optimize)
	}

	r.Use(middleware.Cors())
	r.NoRoute(middleware.NoFound())

	return r
}
