package service

import (
	"context"
	"sort"
	"time"

	"github.com/haierkeys/prompt-workspace-service/internal/domain"
	"github.com/haierkeys/prompt-workspace-service/pkg/code"

	"go.uber.org/zap"
)

// PresenceService 定义在线状态业务服务接口
// 在线记录仅存在于临态存储，心跳超时后自动消失
type PresenceService interface {
	// Join 操作者加入工作区并广播 PRESENCE_JOINED
	Join(ctx context.Context, workspaceID, actorID, actorName string) (*PresenceDTO, error)

	// Heartbeat 刷新在线有效期；不产生事件
	Heartbeat(ctx context.Context, workspaceID, actorID, actorName string) (*PresenceDTO, error)

	// Leave 操作者主动离开工作区并广播 PRESENCE_LEFT
	Leave(ctx context.Context, workspaceID, actorID string) error

	// List 列出工作区内所有未超时的在线操作者
	List(ctx context.Context, workspaceID string) ([]*PresenceDTO, error)
}

// PresenceDTO 在线状态数据传输对象
type PresenceDTO struct {
	WorkspaceID string `json:"workspaceId"`
	ActorID     string `json:"actorId"`
	ActorName   string `json:"actorName"`
	ExpiresAt   string `json:"expiresAt"`
}

// presenceService 实现 PresenceService 接口
type presenceService struct {
	registry   domain.PresenceRegistry
	workspaces WorkspaceService
	events     EventService
	logger     *zap.Logger
	config     *PresenceServiceConfig
}

// NewPresenceService 创建 PresenceService 实例
func NewPresenceService(registry domain.PresenceRegistry, workspaces WorkspaceService, events EventService, logger *zap.Logger, config *PresenceServiceConfig) PresenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &presenceService{
		registry:   registry,
		workspaces: workspaces,
		events:     events,
		logger:     logger,
		config:     config,
	}
}

func presenceToDTO(p *domain.Presence) *PresenceDTO {
	if p == nil {
		return nil
	}
	return &PresenceDTO{
		WorkspaceID: p.WorkspaceID,
		ActorID:     p.ActorID,
		ActorName:   p.ActorName,
		ExpiresAt:   p.ExpiresAt.Format(time.RFC3339),
	}
}

// Join 操作者加入工作区
func (s *presenceService) Join(ctx context.Context, workspaceID, actorID, actorName string) (*PresenceDTO, error) {
	if _, err := s.workspaces.MustGet(ctx, workspaceID); err != nil {
		return nil, err
	}

	presence, err := s.registry.Heartbeat(ctx, workspaceID, actorID, actorName, s.config.TTL)
	if err != nil {
		substrateErrorsTotal.Inc()
		return nil, code.ErrorSubstrateUnavailable.WithDetails(err.Error())
	}

	s.logger.Info("actor joined workspace",
		zap.String("workspaceId", workspaceID),
		zap.String("actorId", actorID),
		zap.String("actorName", actorName))

	dto := presenceToDTO(presence)
	if s.events != nil {
		s.events.Publish(ctx, workspaceID, domain.EventPresenceJoined, dto)
	}
	return dto, nil
}

// Heartbeat 刷新在线有效期
func (s *presenceService) Heartbeat(ctx context.Context, workspaceID, actorID, actorName string) (*PresenceDTO, error) {
	if _, err := s.workspaces.MustGet(ctx, workspaceID); err != nil {
		return nil, err
	}

	presence, err := s.registry.Heartbeat(ctx, workspaceID, actorID, actorName, s.config.TTL)
	if err != nil {
		substrateErrorsTotal.Inc()
		return nil, code.ErrorSubstrateUnavailable.WithDetails(err.Error())
	}
	return presenceToDTO(presence), nil
}

// Leave 操作者主动离开工作区
// 记录已超时消失时幂等成功，不重复广播
func (s *presenceService) Leave(ctx context.Context, workspaceID, actorID string) error {
	if _, err := s.workspaces.MustGet(ctx, workspaceID); err != nil {
		return err
	}

	removed, err := s.registry.Remove(ctx, workspaceID, actorID)
	if err != nil {
		substrateErrorsTotal.Inc()
		return code.ErrorSubstrateUnavailable.WithDetails(err.Error())
	}
	if !removed {
		return nil
	}

	s.logger.Info("actor left workspace",
		zap.String("workspaceId", workspaceID),
		zap.String("actorId", actorID))

	if s.events != nil {
		s.events.Publish(ctx, workspaceID, domain.EventPresenceLeft, map[string]interface{}{
			"workspaceId": workspaceID,
			"actorId":     actorID,
		})
	}
	return nil
}

// List 列出工作区内所有未超时的在线操作者
func (s *presenceService) List(ctx context.Context, workspaceID string) ([]*PresenceDTO, error) {
	if _, err := s.workspaces.MustGet(ctx, workspaceID); err != nil {
		return nil, err
	}

	presences, err := s.registry.List(ctx, workspaceID)
	if err != nil {
		substrateErrorsTotal.Inc()
		return nil, code.ErrorSubstrateUnavailable.WithDetails(err.Error())
	}

	sort.Slice(presences, func(i, j int) bool { return presences[i].ActorID < presences[j].ActorID })

	var list []*PresenceDTO
	for _, p := range presences {
		list = append(list, presenceToDTO(p))
	}
	return list, nil
}

// 确保 presenceService 实现了 PresenceService 接口
var _ PresenceService = (*presenceService)(nil)
