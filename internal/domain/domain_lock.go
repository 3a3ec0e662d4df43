package domain

import "time"

// Lock 字段锁领域模型（仅存在于临态存储，不落库）
type Lock struct {
	WorkspaceID string
	Field       string
	ActorID     string
	ExpiresAt   time.Time
}

// Expired 判断锁是否已过期
func (l *Lock) Expired(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}

// Presence 在线状态领域模型（仅存在于临态存储，不落库）
type Presence struct {
	WorkspaceID string
	ActorID     string
	ActorName   string
	ExpiresAt   time.Time
}

// Expired 判断在线状态是否已超时
func (p *Presence) Expired(now time.Time) bool {
	return !p.ExpiresAt.After(now)
}
