// Package registry 实现字段锁与在线状态的临态存储
// 提供 memory 与 redis 两种后端，语义一致：TTL 到期即失效
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/haierkeys/prompt-workspace-service/internal/domain"
)

// Compactor 支持主动清理已过期条目的注册表
// memory 后端惰性过期，由定时任务调用 Compact 回收内存
type Compactor interface {
	Compact(ctx context.Context) (int, error)
}

type memoryLockEntry struct {
	actorID   string
	expiresAt time.Time
}

type memoryPresenceEntry struct {
	actorName string
	expiresAt time.Time
}

// MemoryRegistry 进程内注册表，同时实现 LockRegistry 与 PresenceRegistry
// 读路径惰性剔除过期条目，单机部署时无需外部依赖
type MemoryRegistry struct {
	mu       sync.Mutex
	locks    map[string]map[string]*memoryLockEntry    // workspaceID -> field -> entry
	presence map[string]map[string]*memoryPresenceEntry // workspaceID -> actorID -> entry
	now      func() time.Time
}

// NewMemoryRegistry 创建进程内注册表
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		locks:    make(map[string]map[string]*memoryLockEntry),
		presence: make(map[string]map[string]*memoryPresenceEntry),
		now:      time.Now,
	}
}

// Acquire 尝试获取字段锁
func (m *MemoryRegistry) Acquire(ctx context.Context, workspaceID, field, actorID string, ttl time.Duration) (*domain.Lock, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	fields := m.locks[workspaceID]
	if fields == nil {
		fields = make(map[string]*memoryLockEntry)
		m.locks[workspaceID] = fields
	}

	entry := fields[field]
	if entry != nil && entry.expiresAt.After(now) && entry.actorID != actorID {
		return &domain.Lock{
			WorkspaceID: workspaceID,
			Field:       field,
			ActorID:     entry.actorID,
			ExpiresAt:   entry.expiresAt,
		}, false, nil
	}

	// 未持有、已过期或自身重入，均重新写入
	expiresAt := now.Add(ttl)
	fields[field] = &memoryLockEntry{actorID: actorID, expiresAt: expiresAt}
	return &domain.Lock{
		WorkspaceID: workspaceID,
		Field:       field,
		ActorID:     actorID,
		ExpiresAt:   expiresAt,
	}, true, nil
}

// Renew 续期已持有的锁
func (m *MemoryRegistry) Renew(ctx context.Context, workspaceID, field, actorID string, ttl time.Duration) (*domain.Lock, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry := m.locks[workspaceID][field]
	if entry == nil || !entry.expiresAt.After(now) || entry.actorID != actorID {
		return nil, false, nil
	}

	entry.expiresAt = now.Add(ttl)
	return &domain.Lock{
		WorkspaceID: workspaceID,
		Field:       field,
		ActorID:     actorID,
		ExpiresAt:   entry.expiresAt,
	}, true, nil
}

// Release 释放锁；仅持有者可释放
func (m *MemoryRegistry) Release(ctx context.Context, workspaceID, field, actorID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry := m.locks[workspaceID][field]
	if entry == nil || !entry.expiresAt.After(now) || entry.actorID != actorID {
		return false, nil
	}

	delete(m.locks[workspaceID], field)
	return true, nil
}

// Owner 查询字段当前持有者
func (m *MemoryRegistry) Owner(ctx context.Context, workspaceID, field string) (*domain.Lock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry := m.locks[workspaceID][field]
	if entry == nil || !entry.expiresAt.After(now) {
		return nil, nil
	}

	return &domain.Lock{
		WorkspaceID: workspaceID,
		Field:       field,
		ActorID:     entry.actorID,
		ExpiresAt:   entry.expiresAt,
	}, nil
}

// List 列出工作区内所有未过期的锁
func (m *MemoryRegistry) List(ctx context.Context, workspaceID string) ([]*domain.Lock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var list []*domain.Lock
	for field, entry := range m.locks[workspaceID] {
		if !entry.expiresAt.After(now) {
			continue
		}
		list = append(list, &domain.Lock{
			WorkspaceID: workspaceID,
			Field:       field,
			ActorID:     entry.actorID,
			ExpiresAt:   entry.expiresAt,
		})
	}
	return list, nil
}

// Heartbeat 登记或刷新在线状态
func (m *MemoryRegistry) Heartbeat(ctx context.Context, workspaceID, actorID, actorName string, ttl time.Duration) (*domain.Presence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	actors := m.presence[workspaceID]
	if actors == nil {
		actors = make(map[string]*memoryPresenceEntry)
		m.presence[workspaceID] = actors
	}
	expiresAt := m.now().Add(ttl)
	actors[actorID] = &memoryPresenceEntry{
		actorName: actorName,
		expiresAt: expiresAt,
	}
	return &domain.Presence{
		WorkspaceID: workspaceID,
		ActorID:     actorID,
		ActorName:   actorName,
		ExpiresAt:   expiresAt,
	}, nil
}

// Remove 主动下线
func (m *MemoryRegistry) Remove(ctx context.Context, workspaceID, actorID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.presence[workspaceID][actorID]
	if !ok {
		return false, nil
	}
	delete(m.presence[workspaceID], actorID)
	return entry.expiresAt.After(m.now()), nil
}

// ListPresence 列出工作区内所有在线成员
func (m *MemoryRegistry) ListPresence(ctx context.Context, workspaceID string) ([]*domain.Presence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var list []*domain.Presence
	for actorID, entry := range m.presence[workspaceID] {
		if !entry.expiresAt.After(now) {
			continue
		}
		list = append(list, &domain.Presence{
			WorkspaceID: workspaceID,
			ActorID:     actorID,
			ActorName:   entry.actorName,
			ExpiresAt:   entry.expiresAt,
		})
	}
	return list, nil
}

// Compact 清除所有已过期条目，返回清除数量
func (m *MemoryRegistry) Compact(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0

	for workspaceID, fields := range m.locks {
		for field, entry := range fields {
			if !entry.expiresAt.After(now) {
				delete(fields, field)
				removed++
			}
		}
		if len(fields) == 0 {
			delete(m.locks, workspaceID)
		}
	}

	for workspaceID, actors := range m.presence {
		for actorID, entry := range actors {
			if !entry.expiresAt.After(now) {
				delete(actors, actorID)
				removed++
			}
		}
		if len(actors) == 0 {
			delete(m.presence, workspaceID)
		}
	}

	return removed, nil
}

// memoryLockRegistry / memoryPresenceRegistry 将 MemoryRegistry 拆分为两个领域接口
type memoryLockRegistry struct{ *MemoryRegistry }

type memoryPresenceRegistry struct{ *MemoryRegistry }

func (p memoryPresenceRegistry) List(ctx context.Context, workspaceID string) ([]*domain.Presence, error) {
	return p.ListPresence(ctx, workspaceID)
}

// LockRegistry 返回锁注册表视图
func (m *MemoryRegistry) LockRegistry() domain.LockRegistry {
	return memoryLockRegistry{m}
}

// PresenceRegistry 返回在线状态注册表视图
func (m *MemoryRegistry) PresenceRegistry() domain.PresenceRegistry {
	return memoryPresenceRegistry{m}
}

var _ domain.LockRegistry = (*memoryLockRegistry)(nil)
var _ domain.PresenceRegistry = (*memoryPresenceRegistry)(nil)
