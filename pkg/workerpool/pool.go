// Package workerpool 提供固定容量的后台任务池
// 用于限制事件扇出与后台任务的并发数量
package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrWorkerPoolFull 任务队列已满
	ErrWorkerPoolFull = errors.New("worker pool queue is full")
	// ErrWorkerPoolClosed 任务池已关闭
	ErrWorkerPoolClosed = errors.New("worker pool is closed")
)

// Config Worker Pool 配置
type Config struct {
	// MaxWorkers 最大并发 worker 数量，默认 100
	MaxWorkers int
	// QueueSize 任务队列大小，默认 1000
	QueueSize int
	// WarningPercent 队列占用告警阈值，默认 0.8
	WarningPercent float64
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		MaxWorkers:     100,
		QueueSize:      1000,
		WarningPercent: 0.8,
	}
}

type poolTask struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error // 同步提交时接收执行结果，异步提交为 nil
}

// Pool 固定 worker 数量的任务池
type Pool struct {
	config Config
	logger *zap.Logger

	tasks  chan poolTask
	wg     sync.WaitGroup
	closed atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New 创建任务池并启动 worker
// cfg 为 nil 时使用默认配置，logger 为 nil 时静默
func New(cfg *Config, logger *zap.Logger) *Pool {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.MaxWorkers > 0 {
			c.MaxWorkers = cfg.MaxWorkers
		}
		if cfg.QueueSize > 0 {
			c.QueueSize = cfg.QueueSize
		}
		if cfg.WarningPercent > 0 && cfg.WarningPercent <= 1 {
			c.WarningPercent = cfg.WarningPercent
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		config: c,
		logger: logger,
		tasks:  make(chan poolTask, c.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < c.MaxWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	logger.Info("worker pool started",
		zap.Int("maxWorkers", c.MaxWorkers),
		zap.Int("queueSize", c.QueueSize))

	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			err := task.ctx.Err()
			if err == nil {
				err = task.fn(task.ctx)
			}
			if task.done != nil {
				task.done <- err
			}
		}
	}
}

// enqueue 尝试入队；队列满或池已关闭时立即失败
func (p *Pool) enqueue(task poolTask) error {
	if p.closed.Load() {
		return ErrWorkerPoolClosed
	}

	queued := len(p.tasks)
	if float64(queued) >= float64(p.config.QueueSize)*p.config.WarningPercent {
		p.logger.Warn("worker pool queue approaching capacity",
			zap.Int("queued", queued),
			zap.Int("capacity", p.config.QueueSize))
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrWorkerPoolFull
	}
}

// Submit 提交任务并等待执行完成
func (p *Pool) Submit(ctx context.Context, fn func(context.Context) error) error {
	done := make(chan error, 1)
	if err := p.enqueue(poolTask{ctx: ctx, fn: fn, done: done}); err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrWorkerPoolClosed
	}
}

// SubmitAsync 提交任务，不等待结果
func (p *Pool) SubmitAsync(ctx context.Context, fn func(context.Context) error) error {
	return p.enqueue(poolTask{ctx: ctx, fn: fn})
}

// Shutdown 停止接收新任务并等待在途任务完成；超时后强制取消
func (p *Pool) Shutdown(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}

	p.logger.Info("worker pool shutting down", zap.Int("queued", len(p.tasks)))
	close(p.tasks)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool shutdown completed")
		return nil
	case <-ctx.Done():
		p.cancel()
		p.logger.Warn("worker pool shutdown timeout, forcing cancellation")
		return ctx.Err()
	}
}
