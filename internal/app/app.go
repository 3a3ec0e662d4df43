// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/prompt-workspace-service/internal/dao"
	"github.com/haierkeys/prompt-workspace-service/internal/domain"
	"github.com/haierkeys/prompt-workspace-service/internal/registry"
	"github.com/haierkeys/prompt-workspace-service/internal/service"
	pkgapp "github.com/haierkeys/prompt-workspace-service/pkg/app"
	"github.com/haierkeys/prompt-workspace-service/pkg/workerpool"
	"github.com/haierkeys/prompt-workspace-service/pkg/writequeue"

	"github.com/lxzan/gws"
	"go.uber.org/zap"
	"golang.org/x/mod/semver"
	"gorm.io/gorm"
)

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB
	Dao    *dao.Dao

	// StartTime 服务启动时间
	StartTime time.Time

	// 并发控制组件
	workerPool    *workerpool.Pool
	writeQueueMgr *writequeue.Manager

	// WebSocket 服务（事件扇出通道）
	WsServer *pkgapp.WebsocketServer

	// 瞬态状态基座（锁与在线状态）
	LockRegistry     domain.LockRegistry
	PresenceRegistry domain.PresenceRegistry
	Compactor        registry.Compactor

	// Repository 层
	WorkspaceRepo domain.WorkspaceRepository
	VersionRepo   domain.VersionRepository
	CommentRepo   domain.CommentRepository

	// Service 层
	EventService     service.EventService
	WorkspaceService service.WorkspaceService
	LockService      service.LockService
	VersionService   service.VersionService
	PresenceService  service.PresenceService
	CommentService   service.CommentService
	RefineryService  service.RefineryService

	// 关闭控制
	shutdownCh chan struct{}
	wg         sync.WaitGroup

	// 版本检查信息
	checkVersionMu sync.RWMutex
	checkVersion   pkgapp.CheckVersionInfo
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入
// cfg: 应用配置（必须）
// logger: zap 日志器（必须）
// db: 数据库连接（必须）
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	a := &App{
		config:     cfg,
		logger:     logger,
		DB:         db,
		StartTime:  time.Now(),
		shutdownCh: make(chan struct{}),
	}

	// 初始化 Worker Pool
	wpConfig := cfg.GetWorkerPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, logger)

	// 初始化 Write Queue Manager
	wqConfig := cfg.GetWriteQueueConfig()
	a.writeQueueMgr = writequeue.New(&wqConfig, logger)

	// 创建 DatabaseConfig 用于 DAO
	dbConfig := &dao.DatabaseConfig{
		Type:            cfg.Database.Type,
		Path:            cfg.Database.Path,
		UserName:        cfg.Database.UserName,
		Password:        cfg.Database.Password,
		Host:            cfg.Database.Host,
		Name:            cfg.Database.Name,
		TablePrefix:     cfg.Database.TablePrefix,
		AutoMigrate:     cfg.Database.AutoMigrate,
		Charset:         cfg.Database.Charset,
		ParseTime:       cfg.Database.ParseTime,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.durationOr(cfg.Database.ConnMaxLifetime, 30*time.Minute),
		ConnMaxIdleTime: cfg.durationOr(cfg.Database.ConnMaxIdleTime, 10*time.Minute),
		RunMode:         cfg.Server.RunMode,
	}

	// 初始化 DAO（使用依赖注入）
	a.Dao = dao.New(db, context.Background(),
		dao.WithConfig(dbConfig),
		dao.WithLogger(logger),
	)

	// 初始化瞬态状态基座
	if err := a.initEphemeral(cfg); err != nil {
		return nil, err
	}

	// 初始化 WebSocket 服务，作为事件扇出的 Broadcaster
	a.WsServer = pkgapp.NewWebsocketServer(pkgapp.WebsocketServerConfig{
		GWSOption: gws.ServerOption{
			CheckUtf8Enabled:    true,
			ParallelEnabled:     true,                                 // 开启并行消息处理
			Recovery:            gws.Recovery,                         // 开启异常恢复
			PermessageDeflate:   gws.PermessageDeflate{Enabled: true}, // 开启压缩
			ParallelGolimit:     8,
			ReadMaxPayloadSize:  1024 * 1024 * 16,
			WriteMaxPayloadSize: 1024 * 1024 * 16,
		},
	})

	// 初始化 Repository 层
	a.WorkspaceRepo = dao.NewWorkspaceRepository(a.Dao)
	a.VersionRepo = dao.NewVersionRepository(a.Dao)
	a.CommentRepo = dao.NewCommentRepository(a.Dao)

	// 创建 ServiceConfig（从 AppConfig 提取 Service 层需要的配置）
	svcConfig := cfg.GetServiceConfig()

	// 初始化 Service 层（依赖注入）
	a.EventService = service.NewEventService(a.WsServer, a.workerPool, logger)
	a.WorkspaceService = service.NewWorkspaceService(a.WorkspaceRepo, a.EventService)
	a.LockService = service.NewLockService(a.LockRegistry, a.WorkspaceService, a.EventService, logger, &svcConfig.Lock)
	a.VersionService = service.NewVersionService(a.VersionRepo, a.LockRegistry, a.WorkspaceService, a.EventService, a.writeQueueMgr, logger)
	a.PresenceService = service.NewPresenceService(a.PresenceRegistry, a.WorkspaceService, a.EventService, logger, &svcConfig.Presence)
	a.CommentService = service.NewCommentService(a.CommentRepo, a.WorkspaceService, a.EventService)
	a.RefineryService = service.NewRefineryService(a.VersionService, a.WorkspaceService, logger)

	logger.Info("App container initialized successfully",
		zap.String("ephemeralType", cfg.Ephemeral.Type),
		zap.Int("workerPoolMaxWorkers", wpConfig.MaxWorkers),
		zap.Int("writeQueueCapacity", wqConfig.QueueCapacity))

	return a, nil
}

// initEphemeral 根据配置选择锁与在线状态的存储基座
// memory 基座附带过期清理器，redis 基座依赖键 TTL 自然过期
func (a *App) initEphemeral(cfg *AppConfig) error {
	switch cfg.Ephemeral.Type {
	case "", "memory":
		mem := registry.NewMemoryRegistry()
		a.LockRegistry = mem.LockRegistry()
		a.PresenceRegistry = mem.PresenceRegistry()
		a.Compactor = mem
	case "redis":
		client, err := registry.NewRedisClient(&registry.Config{
			Addr:      cfg.Ephemeral.Redis.Addr,
			Password:  cfg.Ephemeral.Redis.Password,
			DB:        cfg.Ephemeral.Redis.DB,
			KeyPrefix: cfg.Ephemeral.Redis.KeyPrefix,
		})
		if err != nil {
			return fmt.Errorf("connect redis ephemeral store: %w", err)
		}
		r := registry.NewRedisRegistry(client, cfg.Ephemeral.Redis.KeyPrefix)
		a.LockRegistry = r.LockRegistry()
		a.PresenceRegistry = r.PresenceRegistry()
	default:
		return fmt.Errorf("unsupported ephemeral store type: %s", cfg.Ephemeral.Type)
	}
	return nil
}

// Close 释放应用容器持有的资源
func (a *App) Close() error {
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
		a.logger.Info("Database connection closed")
	}
	return nil
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// SubmitTask 提交任务到 Worker Pool
// 返回错误如果池已满或已关闭
func (a *App) SubmitTask(ctx context.Context, task func(context.Context) error) error {
	return a.workerPool.Submit(ctx, task)
}

// SubmitTaskAsync 异步提交任务到 Worker Pool（不等待结果）
// 返回错误如果池已满或已关闭
func (a *App) SubmitTaskAsync(ctx context.Context, task func(context.Context) error) error {
	return a.workerPool.SubmitAsync(ctx, task)
}

// Version 获取版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}

// CheckVersion 获取版本检查信息
func (a *App) CheckVersion() pkgapp.CheckVersionInfo {
	a.checkVersionMu.RLock()
	defer a.checkVersionMu.RUnlock()

	cv := a.checkVersion

	if !cv.VersionIsNew {
		cv.VersionNewName = ""
	}

	// 返回给客户端的版本号不带 v 前缀
	cv.VersionNewName = strings.TrimPrefix(cv.VersionNewName, "v")
	if cv.VersionNewLink == "" && cv.VersionNewName != "" {
		cv.VersionNewLink = "https://github.com/haierkeys/prompt-workspace-service/releases/tag/" + cv.VersionNewName
	}

	return cv
}

// SetLatestReleaseTag 记录最新发布版本并与当前版本比较
func (a *App) SetLatestReleaseTag(tag string, link string) {
	latest := tag
	if !strings.HasPrefix(latest, "v") {
		latest = "v" + latest
	}
	current := Version
	if !strings.HasPrefix(current, "v") {
		current = "v" + current
	}

	a.checkVersionMu.Lock()
	defer a.checkVersionMu.Unlock()
	a.checkVersion = pkgapp.CheckVersionInfo{
		VersionIsNew:   semver.Compare(latest, current) > 0,
		VersionNewName: tag,
		VersionNewLink: link,
	}
}

// IsProductionMode 是否为生产模式
// 根据日志配置中的 Production 字段判断
func (a *App) IsProductionMode() bool {
	return a.config.Log.Production
}

// ExecuteWrite 执行写操作（通过 Write Queue 串行化）
// workspaceID: 工作区 ID，用于确定写队列
// fn: 写操作函数
func (a *App) ExecuteWrite(ctx context.Context, workspaceID string, fn func() error) error {
	return a.writeQueueMgr.Execute(ctx, workspaceID, fn)
}

// WorkerPool 获取 Worker Pool（用于高级操作）
func (a *App) WorkerPool() *workerpool.Pool {
	return a.workerPool
}

// WriteQueueManager 获取 Write Queue Manager（用于高级操作）
func (a *App) WriteQueueManager() *writequeue.Manager {
	return a.writeQueueMgr
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// Shutdown 优雅关闭应用容器
// 按顺序关闭：Worker Pool -> Write Queue Manager -> Database
// ctx 用于控制关闭超时，如果为 nil 则使用默认 30 秒超时
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("App container shutting down...")

	// 如果没有提供 context，使用默认超时
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}

	// 标记关闭
	select {
	case <-a.shutdownCh:
		// 已经关闭
		return nil
	default:
		close(a.shutdownCh)
	}

	var errs []error

	// 1. 关闭 Worker Pool（停止接受新任务，等待现有任务完成）
	if a.workerPool != nil {
		a.logger.Info("Shutting down worker pool...")
		if err := a.workerPool.Shutdown(ctx); err != nil {
			a.logger.Warn("Worker pool shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("worker pool shutdown: %w", err))
		} else {
			a.logger.Info("Worker pool shutdown completed")
		}
	}

	// 2. 关闭 Write Queue Manager（排空所有队列）
	if a.writeQueueMgr != nil {
		a.logger.Info("Shutting down write queue manager...")
		if err := a.writeQueueMgr.Shutdown(ctx); err != nil {
			a.logger.Warn("write queue manager shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("write queue manager shutdown: %w", err))
		} else {
			a.logger.Info("write queue manager shutdown completed")
		}
	}

	// 3. 等待所有后台操作完成
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("All background operations completed")
	case <-ctx.Done():
		a.logger.Warn("Shutdown timeout waiting for background operations")
		errs = append(errs, fmt.Errorf("background operations timeout: %w", ctx.Err()))
	}

	// 4. 关闭数据库连接
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		a.logger.Warn("App container shutdown completed with errors",
			zap.Int("errorCount", len(errs)))
		return fmt.Errorf("shutdown completed with %d errors: %v", len(errs), errs)
	}

	a.logger.Info("App container shutdown completed successfully")
	return nil
}

// IsShuttingDown 检查应用是否正在关闭
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownCh 返回关闭信号通道（用于监听关闭事件）
func (a *App) ShutdownCh() <-chan struct{} {
	return a.shutdownCh
}

// TrackOperation 跟踪后台操作（用于优雅关闭时等待）
// 返回一个函数，在操作完成时调用
func (a *App) TrackOperation() func() {
	a.wg.Add(1)
	return func() {
		a.wg.Done()
	}
}
