package service

import (
	"context"
	"testing"

	"github.com/haierkeys/prompt-workspace-service/internal/domain"
	"github.com/haierkeys/prompt-workspace-service/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceCreateAndGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ws, err := env.workspaces.Create(ctx, "agent-prompts", "shared agent prompts")
	require.NoError(t, err)
	assert.NotEmpty(t, ws.ID)
	assert.Equal(t, "agent-prompts", ws.Name)
	assert.False(t, ws.ReadOnly)
	assert.Zero(t, ws.HeadSeq)

	got, err := env.workspaces.Get(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, ws.ID, got.ID)
}

func TestWorkspaceCreateDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.workspaces.Create(ctx, "dup", "")
	require.NoError(t, err)

	_, err = env.workspaces.Create(ctx, "dup", "")
	requireCode(t, err, code.ErrorWorkspaceExist)
}

func TestWorkspaceGetNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.workspaces.Get(context.Background(), "missing")
	requireCode(t, err, code.ErrorWorkspaceNotFound)
}

func TestWorkspaceUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ws := env.createWorkspace(t, "before")

	updated, err := env.workspaces.Update(ctx, ws.ID, "after", "new description")
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Name)
	assert.Equal(t, "new description", updated.Description)
}

func TestWorkspaceSetReadOnlyPublishesEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ws := env.createWorkspace(t, "ro")

	require.NoError(t, env.workspaces.SetReadOnly(ctx, ws.ID, true))

	got, err := env.workspaces.Get(ctx, ws.ID)
	require.NoError(t, err)
	assert.True(t, got.ReadOnly)

	actions := env.broadcast.actions(ws.ID)
	require.NotEmpty(t, actions)
	assert.Equal(t, string(domain.EventReadOnlyChanged), actions[len(actions)-1])

	// 再次开放
	require.NoError(t, env.workspaces.SetReadOnly(ctx, ws.ID, false))
	got, err = env.workspaces.Get(ctx, ws.ID)
	require.NoError(t, err)
	assert.False(t, got.ReadOnly)
}

func TestWorkspaceSetReadOnlyNotFound(t *testing.T) {
	env := newTestEnv(t)

	err := env.workspaces.SetReadOnly(context.Background(), "missing", true)
	requireCode(t, err, code.ErrorWorkspaceNotFound)
}

func TestWorkspaceList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, name := range []string{"w1", "w2", "w3"} {
		env.createWorkspace(t, name)
	}

	list, total, err := env.workspaces.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, list, 2)

	list, _, err = env.workspaces.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestWorkspaceDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ws := env.createWorkspace(t, "gone")

	require.NoError(t, env.workspaces.Delete(ctx, ws.ID))

	_, err := env.workspaces.Get(ctx, ws.ID)
	requireCode(t, err, code.ErrorWorkspaceNotFound)

	err = env.workspaces.Delete(ctx, ws.ID)
	requireCode(t, err, code.ErrorWorkspaceNotFound)
}
