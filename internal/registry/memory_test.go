package registry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistry_AcquireMutualExclusion(t *testing.T) {
	m := NewMemoryRegistry()
	ctx := context.Background()

	lock, ok, err := m.Acquire(ctx, "ws-1", "prompt_text", "alice", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", lock.ActorID)

	// 第二个请求者必须被拒绝，并得到当前持有者
	held, ok, err := m.Acquire(ctx, "ws-1", "prompt_text", "bob", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "alice", held.ActorID)

	// 其他字段不受影响
	_, ok, err = m.Acquire(ctx, "ws-1", "scratchpad", "bob", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// 其他工作区不受影响
	_, ok, err = m.Acquire(ctx, "ws-2", "prompt_text", "bob", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryRegistry_AcquireSingleWinner(t *testing.T) {
	m := NewMemoryRegistry()
	ctx := context.Background()

	const goroutines = 32
	var wins atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			// 每个竞争者使用唯一身份，避免同名重入被计为第二次获胜
			actor := fmt.Sprintf("actor-%d", n)
			_, ok, err := m.Acquire(ctx, "ws-1", "prompt_text", actor, time.Minute)
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins.Load())
}

func TestMemoryRegistry_ReentrantAcquireExtends(t *testing.T) {
	m := NewMemoryRegistry()
	ctx := context.Background()

	first, ok, err := m.Acquire(ctx, "ws-1", "tools", "alice", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	second, ok, err := m.Acquire(ctx, "ws-1", "tools", "alice", 2*time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, second.ExpiresAt.After(first.ExpiresAt))
}

func TestMemoryRegistry_ReleaseOwnershipCheck(t *testing.T) {
	m := NewMemoryRegistry()
	ctx := context.Background()

	_, ok, err := m.Acquire(ctx, "ws-1", "prompt_text", "alice", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// 非持有者释放无效果
	released, err := m.Release(ctx, "ws-1", "prompt_text", "bob")
	require.NoError(t, err)
	assert.False(t, released)

	owner, err := m.Owner(ctx, "ws-1", "prompt_text")
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, "alice", owner.ActorID)

	released, err = m.Release(ctx, "ws-1", "prompt_text", "alice")
	require.NoError(t, err)
	assert.True(t, released)

	owner, err = m.Owner(ctx, "ws-1", "prompt_text")
	require.NoError(t, err)
	assert.Nil(t, owner)
}

func TestMemoryRegistry_TTLExpiryAllowsTakeover(t *testing.T) {
	m := NewMemoryRegistry()
	ctx := context.Background()

	current := time.Now()
	m.now = func() time.Time { return current }

	_, ok, err := m.Acquire(ctx, "ws-1", "prompt_text", "alice", 30*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	// TTL 内抢占失败
	current = current.Add(29 * time.Second)
	_, ok, err = m.Acquire(ctx, "ws-1", "prompt_text", "bob", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	// TTL 过后锁自动失效，新请求者成功
	current = current.Add(2 * time.Second)
	lock, ok, err := m.Acquire(ctx, "ws-1", "prompt_text", "bob", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bob", lock.ActorID)

	// 原持有者的续期与释放此时均无效
	_, renewed, err := m.Renew(ctx, "ws-1", "prompt_text", "alice", time.Minute)
	require.NoError(t, err)
	assert.False(t, renewed)

	released, err := m.Release(ctx, "ws-1", "prompt_text", "alice")
	require.NoError(t, err)
	assert.False(t, released)
}

func TestMemoryRegistry_PresenceHeartbeat(t *testing.T) {
	m := NewMemoryRegistry()
	ctx := context.Background()

	current := time.Now()
	m.now = func() time.Time { return current }

	p, err := m.Heartbeat(ctx, "ws-1", "alice", "Alice", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, current.Add(time.Minute), p.ExpiresAt)
	_, err = m.Heartbeat(ctx, "ws-1", "bob", "Bob", time.Minute)
	require.NoError(t, err)

	list, err := m.ListPresence(ctx, "ws-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// 心跳超时视为离线
	current = current.Add(2 * time.Minute)
	list, err = m.ListPresence(ctx, "ws-1")
	require.NoError(t, err)
	assert.Len(t, list, 0)

	// 重新心跳恢复在线
	_, err = m.Heartbeat(ctx, "ws-1", "alice", "Alice", time.Minute)
	require.NoError(t, err)
	list, err = m.ListPresence(ctx, "ws-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].ActorID)

	removed, err := m.Remove(ctx, "ws-1", "alice")
	require.NoError(t, err)
	assert.True(t, removed)
	list, err = m.ListPresence(ctx, "ws-1")
	require.NoError(t, err)
	assert.Len(t, list, 0)

	// 重复下线幂等
	removed, err = m.Remove(ctx, "ws-1", "alice")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestMemoryRegistry_Compact(t *testing.T) {
	m := NewMemoryRegistry()
	ctx := context.Background()

	current := time.Now()
	m.now = func() time.Time { return current }

	_, _, err := m.Acquire(ctx, "ws-1", "prompt_text", "alice", 10*time.Second)
	require.NoError(t, err)
	_, err = m.Heartbeat(ctx, "ws-1", "alice", "Alice", 10*time.Second)
	require.NoError(t, err)
	_, _, err = m.Acquire(ctx, "ws-2", "tools", "bob", time.Hour)
	require.NoError(t, err)

	current = current.Add(time.Minute)

	removed, err := m.Compact(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	// 未过期的锁保留
	owner, err := m.Owner(ctx, "ws-2", "tools")
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, "bob", owner.ActorID)
}
