package service

import (
	"context"
	"sort"
	"time"

	"github.com/haierkeys/prompt-workspace-service/internal/domain"
	"github.com/haierkeys/prompt-workspace-service/pkg/code"

	"go.uber.org/zap"
)

// LockService 定义字段锁业务服务接口
// 锁仅存在于临态存储，TTL 到期自动失效；所有接口先校验工作区存在
type LockService interface {
	// Acquire 获取字段锁；字段已被他人持有时返回 ErrorLockDenied，Data 携带当前持有者
	Acquire(ctx context.Context, workspaceID, field, actorID string, ttlSeconds int) (*LockDTO, error)

	// Renew 续期已持有的锁；到期时间从当前时刻重新计算
	Renew(ctx context.Context, workspaceID, field, actorID string, ttlSeconds int) (*LockDTO, error)

	// Release 释放锁；锁已不存在时幂等成功，被他人持有时返回 ErrorLockOwnershipMismatch
	Release(ctx context.Context, workspaceID, field, actorID string) error

	// List 列出工作区内所有未过期的锁
	List(ctx context.Context, workspaceID string) ([]*LockDTO, error)
}

// LockDTO 锁数据传输对象
type LockDTO struct {
	WorkspaceID string `json:"workspaceId"`
	Field       string `json:"field"`
	ActorID     string `json:"actorId"`
	ExpiresAt   string `json:"expiresAt"`
}

// lockService 实现 LockService 接口
type lockService struct {
	registry   domain.LockRegistry
	workspaces WorkspaceService
	events     EventService
	logger     *zap.Logger
	config     *LockServiceConfig
}

// NewLockService 创建 LockService 实例
func NewLockService(registry domain.LockRegistry, workspaces WorkspaceService, events EventService, logger *zap.Logger, config *LockServiceConfig) LockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &lockService{
		registry:   registry,
		workspaces: workspaces,
		events:     events,
		logger:     logger,
		config:     config,
	}
}

func lockToDTO(l *domain.Lock) *LockDTO {
	if l == nil {
		return nil
	}
	return &LockDTO{
		WorkspaceID: l.WorkspaceID,
		Field:       l.Field,
		ActorID:     l.ActorID,
		ExpiresAt:   l.ExpiresAt.Format(time.RFC3339),
	}
}

// Acquire 获取字段锁
func (s *lockService) Acquire(ctx context.Context, workspaceID, field, actorID string, ttlSeconds int) (*LockDTO, error) {
	if !domain.IsKnownField(field) {
		return nil, code.ErrorInvalidParams.WithDetails("unknown field: " + field)
	}

	ws, err := s.workspaces.MustGet(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws.ReadOnly {
		commitRejectedTotal.WithLabelValues("readonly").Inc()
		return nil, code.ErrorReadOnlyMode
	}

	ttl := s.config.NormalizeTTL(ttlSeconds)
	lock, acquired, err := s.registry.Acquire(ctx, workspaceID, field, actorID, ttl)
	if err != nil {
		substrateErrorsTotal.Inc()
		return nil, code.ErrorSubstrateUnavailable.WithDetails(err.Error())
	}
	if !acquired {
		locksDeniedTotal.WithLabelValues(field).Inc()
		denied := code.ErrorLockDenied
		if lock != nil {
			denied = denied.WithData(lockToDTO(lock))
		}
		return nil, denied
	}

	locksAcquiredTotal.WithLabelValues(field).Inc()
	s.logger.Info("lock acquired",
		zap.String("workspaceId", workspaceID),
		zap.String("field", field),
		zap.String("actorId", actorID),
		zap.Duration("ttl", ttl))

	if s.events != nil {
		s.events.Publish(ctx, workspaceID, domain.EventLockAcquired, lockToDTO(lock))
	}
	return lockToDTO(lock), nil
}

// Renew 续期已持有的锁
func (s *lockService) Renew(ctx context.Context, workspaceID, field, actorID string, ttlSeconds int) (*LockDTO, error) {
	if !domain.IsKnownField(field) {
		return nil, code.ErrorInvalidParams.WithDetails("unknown field: " + field)
	}

	if _, err := s.workspaces.MustGet(ctx, workspaceID); err != nil {
		return nil, err
	}

	ttl := s.config.NormalizeTTL(ttlSeconds)
	lock, renewed, err := s.registry.Renew(ctx, workspaceID, field, actorID, ttl)
	if err != nil {
		substrateErrorsTotal.Inc()
		return nil, code.ErrorSubstrateUnavailable.WithDetails(err.Error())
	}
	if !renewed {
		return nil, code.ErrorLockOwnershipMismatch
	}
	return lockToDTO(lock), nil
}

// Release 释放锁
// 锁已过期或不存在时视为成功；被其他操作者持有时报告归属不符，且不影响持有者
func (s *lockService) Release(ctx context.Context, workspaceID, field, actorID string) error {
	if !domain.IsKnownField(field) {
		return code.ErrorInvalidParams.WithDetails("unknown field: " + field)
	}

	if _, err := s.workspaces.MustGet(ctx, workspaceID); err != nil {
		return err
	}

	released, err := s.registry.Release(ctx, workspaceID, field, actorID)
	if err != nil {
		substrateErrorsTotal.Inc()
		return code.ErrorSubstrateUnavailable.WithDetails(err.Error())
	}

	if !released {
		owner, err := s.registry.Owner(ctx, workspaceID, field)
		if err != nil {
			substrateErrorsTotal.Inc()
			return code.ErrorSubstrateUnavailable.WithDetails(err.Error())
		}
		if owner != nil {
			return code.ErrorLockOwnershipMismatch
		}
		// 锁已自然过期，幂等成功
		return nil
	}

	s.logger.Info("lock released",
		zap.String("workspaceId", workspaceID),
		zap.String("field", field),
		zap.String("actorId", actorID))

	if s.events != nil {
		s.events.Publish(ctx, workspaceID, domain.EventLockReleased, map[string]interface{}{
			"workspaceId": workspaceID,
			"field":       field,
			"actorId":     actorID,
		})
	}
	return nil
}

// List 列出工作区内所有未过期的锁
func (s *lockService) List(ctx context.Context, workspaceID string) ([]*LockDTO, error) {
	if _, err := s.workspaces.MustGet(ctx, workspaceID); err != nil {
		return nil, err
	}

	locks, err := s.registry.List(ctx, workspaceID)
	if err != nil {
		substrateErrorsTotal.Inc()
		return nil, code.ErrorSubstrateUnavailable.WithDetails(err.Error())
	}

	sort.Slice(locks, func(i, j int) bool { return locks[i].Field < locks[j].Field })

	var list []*LockDTO
	for _, l := range locks {
		list = append(list, lockToDTO(l))
	}
	return list, nil
}

// 确保 lockService 实现了 LockService 接口
var _ LockService = (*lockService)(nil)
