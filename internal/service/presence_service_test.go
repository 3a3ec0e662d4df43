package service

import (
	"context"
	"testing"

	"github.com/haierkeys/prompt-workspace-service/internal/domain"
	"github.com/haierkeys/prompt-workspace-service/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceService_JoinHeartbeatLeave(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ws := env.createWorkspace(t, "presence")

	joined, err := env.presence.Join(ctx, ws.ID, "alice", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", joined.ActorID)
	assert.Equal(t, "Alice", joined.ActorName)

	_, err = env.presence.Join(ctx, ws.ID, "bob", "Bob")
	require.NoError(t, err)

	list, err := env.presence.List(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alice", list[0].ActorID)
	assert.Equal(t, "bob", list[1].ActorID)

	// 心跳刷新不产生事件
	before := len(env.broadcast.actions(ws.ID))
	_, err = env.presence.Heartbeat(ctx, ws.ID, "alice", "Alice")
	require.NoError(t, err)
	assert.Equal(t, before, len(env.broadcast.actions(ws.ID)))

	require.NoError(t, env.presence.Leave(ctx, ws.ID, "alice"))
	list, err = env.presence.List(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "bob", list[0].ActorID)

	// 加入与离开各广播一次
	actions := env.broadcast.actions(ws.ID)
	joinedCount, leftCount := 0, 0
	for _, a := range actions {
		switch a {
		case string(domain.EventPresenceJoined):
			joinedCount++
		case string(domain.EventPresenceLeft):
			leftCount++
		}
	}
	assert.Equal(t, 2, joinedCount)
	assert.Equal(t, 1, leftCount)
}

func TestPresenceService_LeaveIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ws := env.createWorkspace(t, "presence-leave")

	_, err := env.presence.Join(ctx, ws.ID, "alice", "Alice")
	require.NoError(t, err)
	require.NoError(t, env.presence.Leave(ctx, ws.ID, "alice"))

	// 记录已消失时幂等成功，不重复广播 PRESENCE_LEFT
	before := len(env.broadcast.actions(ws.ID))
	require.NoError(t, env.presence.Leave(ctx, ws.ID, "alice"))
	assert.Equal(t, before, len(env.broadcast.actions(ws.ID)))
}

func TestPresenceService_WorkspaceNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.presence.Join(context.Background(), "missing", "alice", "Alice")
	requireCode(t, err, code.ErrorWorkspaceNotFound)
}
