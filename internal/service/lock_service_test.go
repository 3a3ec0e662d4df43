package service

import (
	"context"
	"testing"
	"time"

	"github.com/haierkeys/prompt-workspace-service/internal/domain"
	"github.com/haierkeys/prompt-workspace-service/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockService_AcquireDeniedCarriesHolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ws := env.createWorkspace(t, "lock-holder")

	lock, err := env.locks.Acquire(ctx, ws.ID, string(domain.FieldPromptText), "alice", 60)
	require.NoError(t, err)
	assert.Equal(t, "alice", lock.ActorID)

	_, err = env.locks.Acquire(ctx, ws.ID, string(domain.FieldPromptText), "bob", 60)
	requireCode(t, err, code.ErrorLockDenied)

	// 拒绝响应的 Data 携带当前持有者
	var c *code.Code
	require.ErrorAs(t, err, &c)
	require.True(t, c.HaveData())
	holder, ok := c.Data().(*LockDTO)
	require.True(t, ok)
	assert.Equal(t, "alice", holder.ActorID)

	// 不同字段互不影响
	_, err = env.locks.Acquire(ctx, ws.ID, string(domain.FieldScratchpad), "bob", 60)
	require.NoError(t, err)
}

func TestLockService_UnknownFieldRejected(t *testing.T) {
	env := newTestEnv(t)
	ws := env.createWorkspace(t, "lock-field")

	_, err := env.locks.Acquire(context.Background(), ws.ID, "title", "alice", 60)
	requireCode(t, err, code.ErrorInvalidParams)
}

func TestLockService_RenewOwnershipMismatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ws := env.createWorkspace(t, "lock-renew")

	_, err := env.locks.Acquire(ctx, ws.ID, string(domain.FieldTools), "alice", 60)
	require.NoError(t, err)

	_, err = env.locks.Renew(ctx, ws.ID, string(domain.FieldTools), "bob", 60)
	requireCode(t, err, code.ErrorLockOwnershipMismatch)

	renewed, err := env.locks.Renew(ctx, ws.ID, string(domain.FieldTools), "alice", 120)
	require.NoError(t, err)
	assert.Equal(t, "alice", renewed.ActorID)
}

func TestLockService_ReleaseSemantics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ws := env.createWorkspace(t, "lock-release")

	_, err := env.locks.Acquire(ctx, ws.ID, string(domain.FieldPromptText), "alice", 60)
	require.NoError(t, err)

	// 非持有者释放报告归属不符，且不影响持有者
	err = env.locks.Release(ctx, ws.ID, string(domain.FieldPromptText), "bob")
	requireCode(t, err, code.ErrorLockOwnershipMismatch)

	owner, err := env.memory.Owner(ctx, ws.ID, string(domain.FieldPromptText))
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, "alice", owner.ActorID)

	require.NoError(t, env.locks.Release(ctx, ws.ID, string(domain.FieldPromptText), "alice"))

	// 锁已不存在时释放幂等成功
	require.NoError(t, env.locks.Release(ctx, ws.ID, string(domain.FieldPromptText), "alice"))
}

func TestLockService_ListSortedByField(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ws := env.createWorkspace(t, "lock-list")

	env.acquireAll(t, ws.ID, "alice", string(domain.FieldTools), string(domain.FieldPromptText))

	list, err := env.locks.List(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, string(domain.FieldPromptText), list[0].Field)
	assert.Equal(t, string(domain.FieldTools), list[1].Field)
}

func TestLockService_WorkspaceNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.locks.Acquire(context.Background(), "missing", string(domain.FieldPromptText), "alice", 60)
	requireCode(t, err, code.ErrorWorkspaceNotFound)
}

func TestLockService_TTLClampedToMax(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ws := env.createWorkspace(t, "lock-ttl")

	// 超出上限的 TTL 被收敛到 MaxTTL (5m)
	_, err := env.locks.Acquire(ctx, ws.ID, string(domain.FieldPromptText), "alice", 3600)
	require.NoError(t, err)

	owner, err := env.memory.Owner(ctx, ws.ID, string(domain.FieldPromptText))
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.True(t, owner.ExpiresAt.Before(time.Now().Add(5*time.Minute+time.Second)))

	// 未指定 TTL 时使用默认值 (30s)
	_, err = env.locks.Acquire(ctx, ws.ID, string(domain.FieldScratchpad), "alice", 0)
	require.NoError(t, err)
	owner, err = env.memory.Owner(ctx, ws.ID, string(domain.FieldScratchpad))
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.True(t, owner.ExpiresAt.Before(time.Now().Add(31*time.Second)))
}
