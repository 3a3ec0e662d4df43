package domain

import (
	"context"
	"errors"
	"time"
)

// ErrSubstrateUnavailable 临态存储不可达时返回
// 调用方必须视为失败，不允许降级为"无锁放行"
var ErrSubstrateUnavailable = errors.New("ephemeral substrate unavailable")

// LockRegistry TTL 字段锁注册表接口
// 实现必须保证同一 (workspace, field) 上的互斥：成功获取者唯一
type LockRegistry interface {
	// Acquire 尝试获取字段锁
	// 成功时返回 (lock, true, nil)；已被他人持有时返回 (当前持有者, false, nil)
	// 同一 actor 重复获取视为续期
	Acquire(ctx context.Context, workspaceID, field, actorID string, ttl time.Duration) (*Lock, bool, error)

	// Renew 续期已持有的锁；非持有者续期返回 (nil, false, nil)
	Renew(ctx context.Context, workspaceID, field, actorID string, ttl time.Duration) (*Lock, bool, error)

	// Release 释放锁；仅持有者可释放，非持有者释放返回 (false, nil) 且不产生任何效果
	Release(ctx context.Context, workspaceID, field, actorID string) (bool, error)

	// Owner 查询字段当前持有者；未持有或已过期返回 (nil, nil)
	Owner(ctx context.Context, workspaceID, field string) (*Lock, error)

	// List 列出工作区内所有未过期的锁
	List(ctx context.Context, workspaceID string) ([]*Lock, error)
}

// PresenceRegistry 在线状态注册表接口
// 心跳刷新 TTL，超时即视为离线
type PresenceRegistry interface {
	// Heartbeat 登记或刷新在线状态，返回刷新后的记录
	Heartbeat(ctx context.Context, workspaceID, actorID, actorName string, ttl time.Duration) (*Presence, error)

	// Remove 主动下线；记录已不存在时返回 (false, nil)
	Remove(ctx context.Context, workspaceID, actorID string) (bool, error)

	// List 列出工作区内所有在线成员
	List(ctx context.Context, workspaceID string) ([]*Presence, error)
}
