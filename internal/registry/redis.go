package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/haierkeys/prompt-workspace-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Config redis 后端配置
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// 锁脚本：仅当值等于请求者时才操作，保证释放/续期的持有者校验原子性
var (
	releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`)

	renewScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end`)
)

// NewRedisClient 创建 redis 客户端并验证连通性
func NewRedisClient(c *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSubstrateUnavailable, err)
	}
	return client, nil
}

// RedisRegistry 基于 redis 的注册表，锁与在线状态共用一个客户端
// 多副本部署时以 redis 为唯一事实来源，TTL 由服务端维护
type RedisRegistry struct {
	client *redis.Client
	prefix string
}

// NewRedisRegistry 创建 redis 注册表
func NewRedisRegistry(client *redis.Client, keyPrefix string) *RedisRegistry {
	if keyPrefix == "" {
		keyPrefix = "pws"
	}
	return &RedisRegistry{client: client, prefix: keyPrefix}
}

func (r *RedisRegistry) lockKey(workspaceID, field string) string {
	return fmt.Sprintf("lock:%s:workspace:%s:field:%s", r.prefix, workspaceID, field)
}

func (r *RedisRegistry) lockPattern(workspaceID string) string {
	return fmt.Sprintf("lock:%s:workspace:%s:field:*", r.prefix, workspaceID)
}

func (r *RedisRegistry) presenceKey(workspaceID, actorID string) string {
	return fmt.Sprintf("presence:%s:workspace:%s:actor:%s", r.prefix, workspaceID, actorID)
}

func (r *RedisRegistry) presencePattern(workspaceID string) string {
	return fmt.Sprintf("presence:%s:workspace:%s:actor:*", r.prefix, workspaceID)
}

func wrapUnavailable(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrSubstrateUnavailable, err)
}

// Acquire 尝试获取字段锁（SET NX PX）
func (r *RedisRegistry) Acquire(ctx context.Context, workspaceID, field, actorID string, ttl time.Duration) (*domain.Lock, bool, error) {
	key := r.lockKey(workspaceID, field)

	// SetNX 失败后持有者可能恰好过期，重读一次避免误报冲突
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := r.client.SetNX(ctx, key, actorID, ttl).Result()
		if err != nil {
			return nil, false, wrapUnavailable(err)
		}
		if ok {
			return &domain.Lock{
				WorkspaceID: workspaceID,
				Field:       field,
				ActorID:     actorID,
				ExpiresAt:   time.Now().Add(ttl),
			}, true, nil
		}

		owner, err := r.client.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, false, wrapUnavailable(err)
		}

		if owner == actorID {
			// 自身重入视为续期
			return r.Renew(ctx, workspaceID, field, actorID, ttl)
		}

		pttl, err := r.client.PTTL(ctx, key).Result()
		if err != nil {
			return nil, false, wrapUnavailable(err)
		}
		return &domain.Lock{
			WorkspaceID: workspaceID,
			Field:       field,
			ActorID:     owner,
			ExpiresAt:   time.Now().Add(pttl),
		}, false, nil
	}

	return nil, false, nil
}

// Renew 续期已持有的锁
func (r *RedisRegistry) Renew(ctx context.Context, workspaceID, field, actorID string, ttl time.Duration) (*domain.Lock, bool, error) {
	key := r.lockKey(workspaceID, field)

	n, err := renewScript.Run(ctx, r.client, []string{key}, actorID, ttl.Milliseconds()).Int64()
	if err != nil {
		return nil, false, wrapUnavailable(err)
	}
	if n == 0 {
		return nil, false, nil
	}
	return &domain.Lock{
		WorkspaceID: workspaceID,
		Field:       field,
		ActorID:     actorID,
		ExpiresAt:   time.Now().Add(ttl),
	}, true, nil
}

// Release 释放锁；get-check-del 由 Lua 脚本原子执行
func (r *RedisRegistry) Release(ctx context.Context, workspaceID, field, actorID string) (bool, error) {
	key := r.lockKey(workspaceID, field)

	n, err := releaseScript.Run(ctx, r.client, []string{key}, actorID).Int64()
	if err != nil {
		return false, wrapUnavailable(err)
	}
	return n > 0, nil
}

// Owner 查询字段当前持有者
func (r *RedisRegistry) Owner(ctx context.Context, workspaceID, field string) (*domain.Lock, error) {
	key := r.lockKey(workspaceID, field)

	owner, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, wrapUnavailable(err)
	}

	pttl, err := r.client.PTTL(ctx, key).Result()
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	return &domain.Lock{
		WorkspaceID: workspaceID,
		Field:       field,
		ActorID:     owner,
		ExpiresAt:   time.Now().Add(pttl),
	}, nil
}

// List 列出工作区内所有未过期的锁
func (r *RedisRegistry) List(ctx context.Context, workspaceID string) ([]*domain.Lock, error) {
	var list []*domain.Lock

	iter := r.client.Scan(ctx, 0, r.lockPattern(workspaceID), 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		owner, err := r.client.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, wrapUnavailable(err)
		}
		pttl, err := r.client.PTTL(ctx, key).Result()
		if err != nil {
			return nil, wrapUnavailable(err)
		}

		list = append(list, &domain.Lock{
			WorkspaceID: workspaceID,
			Field:       fieldFromLockKey(key),
			ActorID:     owner,
			ExpiresAt:   time.Now().Add(pttl),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, wrapUnavailable(err)
	}
	return list, nil
}

// Heartbeat 登记或刷新在线状态
func (r *RedisRegistry) Heartbeat(ctx context.Context, workspaceID, actorID, actorName string, ttl time.Duration) (*domain.Presence, error) {
	key := r.presenceKey(workspaceID, actorID)
	if err := r.client.Set(ctx, key, actorName, ttl).Err(); err != nil {
		return nil, wrapUnavailable(err)
	}
	return &domain.Presence{
		WorkspaceID: workspaceID,
		ActorID:     actorID,
		ActorName:   actorName,
		ExpiresAt:   time.Now().Add(ttl),
	}, nil
}

// Remove 主动下线
func (r *RedisRegistry) Remove(ctx context.Context, workspaceID, actorID string) (bool, error) {
	key := r.presenceKey(workspaceID, actorID)
	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return false, wrapUnavailable(err)
	}
	return n > 0, nil
}

// ListPresence 列出工作区内所有在线成员
func (r *RedisRegistry) ListPresence(ctx context.Context, workspaceID string) ([]*domain.Presence, error) {
	var list []*domain.Presence

	iter := r.client.Scan(ctx, 0, r.presencePattern(workspaceID), 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		name, err := r.client.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, wrapUnavailable(err)
		}
		pttl, err := r.client.PTTL(ctx, key).Result()
		if err != nil {
			return nil, wrapUnavailable(err)
		}

		list = append(list, &domain.Presence{
			WorkspaceID: workspaceID,
			ActorID:     actorFromPresenceKey(key),
			ActorName:   name,
			ExpiresAt:   time.Now().Add(pttl),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, wrapUnavailable(err)
	}
	return list, nil
}

func fieldFromLockKey(key string) string {
	return lastSegmentAfter(key, ":field:")
}

func actorFromPresenceKey(key string) string {
	return lastSegmentAfter(key, ":actor:")
}

func lastSegmentAfter(s, sep string) string {
	for i := len(s) - len(sep); i >= 0; i-- {
		if s[i:i+len(sep)] == sep {
			return s[i+len(sep):]
		}
	}
	return s
}

// redisLockRegistry / redisPresenceRegistry 将 RedisRegistry 拆分为两个领域接口
type redisLockRegistry struct{ *RedisRegistry }

type redisPresenceRegistry struct{ *RedisRegistry }

func (p redisPresenceRegistry) List(ctx context.Context, workspaceID string) ([]*domain.Presence, error) {
	return p.ListPresence(ctx, workspaceID)
}

// LockRegistry 返回锁注册表视图
func (r *RedisRegistry) LockRegistry() domain.LockRegistry {
	return redisLockRegistry{r}
}

// PresenceRegistry 返回在线状态注册表视图
func (r *RedisRegistry) PresenceRegistry() domain.PresenceRegistry {
	return redisPresenceRegistry{r}
}

var _ domain.LockRegistry = redisLockRegistry{}
var _ domain.PresenceRegistry = redisPresenceRegistry{}
