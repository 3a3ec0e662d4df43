// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

import "time"

// ServiceConfig service layer configuration
// ServiceConfig 服务层配置
type ServiceConfig struct {
	Lock     LockServiceConfig     // Lock related config // 锁相关配置
	Presence PresenceServiceConfig // Presence related config // 在线状态相关配置
}

// LockServiceConfig lock service configuration
// LockServiceConfig 锁服务配置
type LockServiceConfig struct {
	// DefaultTTL 未指定时的锁持有时长
	DefaultTTL time.Duration
	// MaxTTL 单次获取或续期允许的最大时长
	MaxTTL time.Duration
}

// PresenceServiceConfig presence service configuration
// PresenceServiceConfig 在线状态服务配置
type PresenceServiceConfig struct {
	// TTL 心跳超时时长，超过未续约即视为离线
	TTL time.Duration
}

// NormalizeTTL 将请求的 TTL 秒数收敛到配置允许的范围
func (c *LockServiceConfig) NormalizeTTL(seconds int) time.Duration {
	ttl := time.Duration(seconds) * time.Second
	if ttl <= 0 {
		ttl = c.DefaultTTL
	}
	if c.MaxTTL > 0 && ttl > c.MaxTTL {
		ttl = c.MaxTTL
	}
	return ttl
}
