// Package task 提供后台定时任务调度
package task

import (
	"fmt"

	"github.com/haierkeys/prompt-workspace-service/internal/app"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler 后台任务调度器
// 基于 cron 运行周期性维护任务：过期锁清理、版本更新检查
type Scheduler struct {
	cron   *cron.Cron
	app    *app.App
	logger *zap.Logger
}

// NewScheduler 创建调度器并注册全部任务
func NewScheduler(a *app.App) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(),
		app:    a,
		logger: a.Logger(),
	}

	if err := s.register(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) register() error {
	// 内存基座需要周期清理过期的锁与在线状态；redis 基座依赖键 TTL 自然过期
	if s.app.Compactor != nil {
		spec := fmt.Sprintf("@every %s", s.app.Config().GetCompactInterval())
		if _, err := s.cron.AddFunc(spec, s.runCompact); err != nil {
			return fmt.Errorf("register compact task: %w", err)
		}
	}

	// 每天检查一次新版本
	if _, err := s.cron.AddFunc("@every 24h", s.runCheckVersion); err != nil {
		return fmt.Errorf("register version check task: %w", err)
	}

	return nil
}

// Start 启动调度器
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Task scheduler started")
}

// Stop 停止调度器并等待运行中的任务结束
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Task scheduler stopped")
}
