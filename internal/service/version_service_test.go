package service

import (
	"context"
	"testing"
	"time"

	"github.com/haierkeys/prompt-workspace-service/internal/dao"
	"github.com/haierkeys/prompt-workspace-service/internal/domain"
	"github.com/haierkeys/prompt-workspace-service/pkg/code"
	"github.com/haierkeys/prompt-workspace-service/pkg/diff"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionService_CommitRequiresLock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ws := env.createWorkspace(t, "req-lock")

	// 未持锁提交被拒绝
	_, err := env.versions.Commit(ctx, ws.ID, "alice", &CommitParams{
		Message:    "initial",
		PromptText: strPtr("You are a helpful assistant."),
	})
	requireCode(t, err, code.ErrorLockRequired)

	// 锁被他人持有时提交被拒绝
	env.acquireAll(t, ws.ID, "bob", string(domain.FieldPromptText))
	_, err = env.versions.Commit(ctx, ws.ID, "alice", &CommitParams{
		Message:    "initial",
		PromptText: strPtr("You are a helpful assistant."),
	})
	requireCode(t, err, code.ErrorLockDenied)

	// 持有者本人提交成功
	v, err := env.versions.Commit(ctx, ws.ID, "bob", &CommitParams{
		Message:    "initial",
		PromptText: strPtr("You are a helpful assistant."),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Seq)
	assert.Equal(t, "bob", v.ActorID)
}

func TestVersionService_CommitChecksEveryChangedField(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ws := env.createWorkspace(t, "all-fields")

	// 只持有 prompt_text，同时改动 scratchpad 应被拒绝
	env.acquireAll(t, ws.ID, "alice", string(domain.FieldPromptText))
	_, err := env.versions.Commit(ctx, ws.ID, "alice", &CommitParams{
		PromptText: strPtr("prompt"),
		Scratchpad: strPtr("notes"),
	})
	requireCode(t, err, code.ErrorLockRequired)

	env.acquireAll(t, ws.ID, "alice", string(domain.FieldScratchpad))
	v, err := env.versions.Commit(ctx, ws.ID, "alice", &CommitParams{
		PromptText: strPtr("prompt"),
		Scratchpad: strPtr("notes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "prompt", v.Content.PromptText)
	assert.Equal(t, "notes", v.Content.Scratchpad)
}

func TestVersionService_CommitReleasesLocksAndOrdersEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ws := env.createWorkspace(t, "event-order")

	env.acquireAll(t, ws.ID, "alice", string(domain.FieldPromptText))
	_, err := env.versions.Commit(ctx, ws.ID, "alice", &CommitParams{
		PromptText: strPtr("v1"),
	})
	require.NoError(t, err)

	// 提交占用的锁已释放
	owner, err := env.memory.Owner(ctx, ws.ID, string(domain.FieldPromptText))
	require.NoError(t, err)
	assert.Nil(t, owner)

	// LOCK_RELEASED 先于 VERSION_COMMITTED 到达
	actions := env.broadcast.actions(ws.ID)
	released, committed := -1, -1
	for i, a := range actions {
		switch a {
		case string(domain.EventLockReleased):
			released = i
		case string(domain.EventVersionCommitted):
			committed = i
		}
	}
	require.GreaterOrEqual(t, released, 0, "missing lock released frame: %v", actions)
	require.GreaterOrEqual(t, committed, 0, "missing version committed frame: %v", actions)
	assert.Less(t, released, committed)
}

func TestVersionService_EmptyCommitRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ws := env.createWorkspace(t, "empty-commit")

	env.acquireAll(t, ws.ID, "alice", string(domain.FieldPromptText))
	v, err := env.versions.Commit(ctx, ws.ID, "alice", &CommitParams{
		PromptText: strPtr("v1"),
	})
	require.NoError(t, err)

	// 与头版本完全一致的提交被拒绝
	env.acquireAll(t, ws.ID, "alice", string(domain.FieldPromptText))
	_, err = env.versions.Commit(ctx, ws.ID, "alice", &CommitParams{
		PromptText: strPtr(v.Content.PromptText),
	})
	requireCode(t, err, code.ErrorInvalidParams)
}

func TestVersionService_ReadOnlyBlocksCommit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ws := env.createWorkspace(t, "readonly")

	require.NoError(t, env.workspaces.SetReadOnly(ctx, ws.ID, true))

	_, err := env.versions.Commit(ctx, ws.ID, "alice", &CommitParams{
		PromptText: strPtr("v1"),
	})
	requireCode(t, err, code.ErrorReadOnlyMode)

	// 只读模式同样禁止获取锁
	_, err = env.locks.Acquire(ctx, ws.ID, string(domain.FieldPromptText), "alice", 60)
	requireCode(t, err, code.ErrorReadOnlyMode)

	// 解除后恢复可写
	require.NoError(t, env.workspaces.SetReadOnly(ctx, ws.ID, false))
	env.acquireAll(t, ws.ID, "alice", string(domain.FieldPromptText))
	_, err = env.versions.Commit(ctx, ws.ID, "alice", &CommitParams{
		PromptText: strPtr("v1"),
	})
	require.NoError(t, err)
}

func TestVersionService_HeadAndHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ws := env.createWorkspace(t, "history")

	for _, text := range []string{"v1", "v2", "v3"} {
		env.acquireAll(t, ws.ID, "alice", string(domain.FieldPromptText))
		_, err := env.versions.Commit(ctx, ws.ID, "alice", &CommitParams{PromptText: strPtr(text)})
		require.NoError(t, err)
	}

	head, err := env.versions.Head(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), head.Seq)
	assert.Equal(t, "v3", head.Content.PromptText)

	second, err := env.versions.GetBySeq(ctx, ws.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "v2", second.Content.PromptText)

	list, count, err := env.versions.List(ctx, ws.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	require.Len(t, list, 3)
	assert.Equal(t, int64(3), list[0].Seq)
	assert.Equal(t, int64(1), list[2].Seq)

	_, err = env.versions.GetBySeq(ctx, ws.ID, 99)
	requireCode(t, err, code.ErrorVersionNotFound)
}

func TestVersionService_RevertCreatesNewVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ws := env.createWorkspace(t, "revert")

	env.acquireAll(t, ws.ID, "alice", string(domain.FieldPromptText))
	v1, err := env.versions.Commit(ctx, ws.ID, "alice", &CommitParams{PromptText: strPtr("original")})
	require.NoError(t, err)

	env.acquireAll(t, ws.ID, "alice", string(domain.FieldPromptText))
	_, err = env.versions.Commit(ctx, ws.ID, "alice", &CommitParams{PromptText: strPtr("changed")})
	require.NoError(t, err)

	// 回滚走常规提交路径，同样要求持锁
	_, err = env.versions.Revert(ctx, ws.ID, "alice", v1.ID, "")
	requireCode(t, err, code.ErrorLockRequired)

	env.acquireAll(t, ws.ID, "alice", string(domain.FieldPromptText))
	v3, err := env.versions.Revert(ctx, ws.ID, "alice", v1.ID, "")
	require.NoError(t, err)

	// 历史不被改写：产生新版本，内容取自目标版本
	assert.Equal(t, int64(3), v3.Seq)
	assert.Equal(t, "original", v3.Content.PromptText)
	assert.Contains(t, v3.Message, "revert to version 1")

	head, err := env.versions.Head(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, v3.ID, head.ID)
}

func TestVersionService_Diff(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ws := env.createWorkspace(t, "diff")

	env.acquireAll(t, ws.ID, "alice",
		string(domain.FieldPromptText), string(domain.FieldModelConfiguration), string(domain.FieldTools))
	v1, err := env.versions.Commit(ctx, ws.ID, "alice", &CommitParams{
		PromptText:         strPtr("line one\nline two\n"),
		ModelConfiguration: map[string]interface{}{"temperature": 0.2, "model": "m-1"},
		Tools:              []string{"search", "calculator"},
	})
	require.NoError(t, err)

	env.acquireAll(t, ws.ID, "alice",
		string(domain.FieldPromptText), string(domain.FieldModelConfiguration), string(domain.FieldTools))
	v2, err := env.versions.Commit(ctx, ws.ID, "alice", &CommitParams{
		PromptText:         strPtr("line one\nline two changed\n"),
		ModelConfiguration: map[string]interface{}{"temperature": 0.7, "model": "m-1"},
		Tools:              []string{"search", "browser"},
	})
	require.NoError(t, err)

	d, err := env.versions.Diff(ctx, ws.ID, v1.ID, v2.ID)
	require.NoError(t, err)

	// 行级差异可重放：apply(from, diff) == to
	applied, ok := diff.ApplyLines(v1.Content.PromptText, d.PromptText)
	require.True(t, ok)
	assert.Equal(t, v2.Content.PromptText, applied)

	assert.ElementsMatch(t, []string{"browser"}, d.ToolsAdded)
	assert.ElementsMatch(t, []string{"calculator"}, d.ToolsRemoved)

	var changedKeys []string
	for _, delta := range d.ModelConfiguration {
		changedKeys = append(changedKeys, delta.Key)
	}
	assert.Equal(t, []string{"temperature"}, changedKeys)

	_, err = env.versions.Diff(ctx, ws.ID, v1.ID, "missing")
	requireCode(t, err, code.ErrorVersionNotFound)
}

func TestVersionService_SubstrateUnavailableBlocksCommit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ws := env.createWorkspace(t, "substrate-down")

	versions := NewVersionService(
		dao.NewVersionRepository(env.dao),
		failingLockRegistry{},
		env.workspaces, env.events, nil, nil)

	_, err := versions.Commit(ctx, ws.ID, "alice", &CommitParams{PromptText: strPtr("v1")})
	requireCode(t, err, code.ErrorSubstrateUnavailable)
}

// failingLockRegistry 模拟临态存储不可达
type failingLockRegistry struct{}

func (failingLockRegistry) Acquire(context.Context, string, string, string, time.Duration) (*domain.Lock, bool, error) {
	return nil, false, domain.ErrSubstrateUnavailable
}

func (failingLockRegistry) Renew(context.Context, string, string, string, time.Duration) (*domain.Lock, bool, error) {
	return nil, false, domain.ErrSubstrateUnavailable
}

func (failingLockRegistry) Release(context.Context, string, string, string) (bool, error) {
	return false, domain.ErrSubstrateUnavailable
}

func (failingLockRegistry) Owner(context.Context, string, string) (*domain.Lock, error) {
	return nil, domain.ErrSubstrateUnavailable
}

func (failingLockRegistry) List(context.Context, string) ([]*domain.Lock, error) {
	return nil, domain.ErrSubstrateUnavailable
}
