package service

import (
	"context"
	"sync"
	"time"

	"github.com/haierkeys/prompt-workspace-service/internal/domain"
	"github.com/haierkeys/prompt-workspace-service/pkg/workerpool"

	"go.uber.org/zap"
)

// Broadcaster 事件推送出口，由 WebSocket 服务实现
type Broadcaster interface {
	// Broadcast 将内容以 "Action|payload" 帧推送给工作区全部成员
	Broadcast(workspaceID string, actionType string, content any)
}

// EventService 工作区事件定序与扇出
// 同一工作区内事件序号严格单调递增，推送顺序与序号一致
type EventService interface {
	// Publish 分配事件序号并异步推送给工作区成员
	Publish(ctx context.Context, workspaceID string, eventType domain.EventType, payload interface{}) *domain.Event

	// LastSeq 返回工作区当前最大事件序号
	LastSeq(workspaceID string) int64
}

type workspaceSequencer struct {
	mu  sync.Mutex
	seq int64
}

// eventService 实现 EventService 接口
type eventService struct {
	broadcaster Broadcaster
	pool        *workerpool.Pool
	logger      *zap.Logger

	mu         sync.Mutex
	sequencers map[string]*workspaceSequencer
}

// NewEventService 创建 EventService 实例
// broadcaster 可为 nil（测试场景），此时事件仅定序不推送
func NewEventService(broadcaster Broadcaster, pool *workerpool.Pool, logger *zap.Logger) EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &eventService{
		broadcaster: broadcaster,
		pool:        pool,
		logger:      logger,
		sequencers:  make(map[string]*workspaceSequencer),
	}
}

func (s *eventService) sequencer(workspaceID string) *workspaceSequencer {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.sequencers[workspaceID]
	if seq == nil {
		seq = &workspaceSequencer{}
		s.sequencers[workspaceID] = seq
	}
	return seq
}

// Publish 分配事件序号并推送
// 序号分配与推送在工作区定序器的互斥锁内完成，保证到达顺序与序号一致
func (s *eventService) Publish(ctx context.Context, workspaceID string, eventType domain.EventType, payload interface{}) *domain.Event {
	seq := s.sequencer(workspaceID)

	seq.mu.Lock()
	defer seq.mu.Unlock()

	seq.seq++
	event := &domain.Event{
		EventSeq:    seq.seq,
		Type:        eventType,
		WorkspaceID: workspaceID,
		Payload:     payload,
		OccurredAt:  time.Now(),
	}

	eventsPublishedTotal.WithLabelValues(string(eventType)).Inc()

	if s.broadcaster == nil {
		return event
	}

	// 推送放入 worker pool；定序锁未释放前下一事件不会分配序号，
	// 因此同一工作区的帧按序入队
	submit := func(c context.Context) error {
		s.broadcaster.Broadcast(workspaceID, string(eventType), event)
		return nil
	}
	if s.pool != nil {
		if err := s.pool.Submit(ctx, submit); err != nil {
			s.logger.Warn("event broadcast submit failed, delivering inline",
				zap.String("workspaceId", workspaceID),
				zap.String("event", string(eventType)),
				zap.Error(err))
			s.broadcaster.Broadcast(workspaceID, string(eventType), event)
		}
	} else {
		s.broadcaster.Broadcast(workspaceID, string(eventType), event)
	}

	return event
}

// LastSeq 返回工作区当前最大事件序号
func (s *eventService) LastSeq(workspaceID string) int64 {
	seq := s.sequencer(workspaceID)
	seq.mu.Lock()
	defer seq.mu.Unlock()
	return seq.seq
}

// 确保 eventService 实现了 EventService 接口
var _ EventService = (*eventService)(nil)
