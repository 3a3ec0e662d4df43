package service

import (
	"context"
	"testing"

	"github.com/haierkeys/prompt-workspace-service/internal/domain"
	"github.com/haierkeys/prompt-workspace-service/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_AddAndResolve(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ws := env.createWorkspace(t, "comments")

	c, err := env.comments.Add(ctx, ws.ID, "alice", string(domain.FieldPromptText), "tighten the persona section")
	require.NoError(t, err)
	assert.False(t, c.Resolved)
	assert.Equal(t, "alice", c.ActorID)

	resolved, err := env.comments.Resolve(ctx, ws.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)

	// 添加与解决各广播一次
	actions := env.broadcast.actions(ws.ID)
	assert.Contains(t, actions, string(domain.EventCommentAdded))
	assert.Contains(t, actions, string(domain.EventCommentResolved))
}

func TestCommentService_FieldOptionalButValidated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ws := env.createWorkspace(t, "comment-field")

	// 不挂字段的全局评论允许
	_, err := env.comments.Add(ctx, ws.ID, "alice", "", "general note")
	require.NoError(t, err)

	_, err = env.comments.Add(ctx, ws.ID, "alice", "title", "bad field")
	requireCode(t, err, code.ErrorInvalidParams)
}

func TestCommentService_ListIsAppendOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ws := env.createWorkspace(t, "comment-list")

	first, err := env.comments.Add(ctx, ws.ID, "alice", "", "first")
	require.NoError(t, err)
	_, err = env.comments.Add(ctx, ws.ID, "bob", "", "second")
	require.NoError(t, err)

	list, count, err := env.comments.List(ctx, ws.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Len(t, list, 2)

	// 解决评论只翻转状态，记录保留在列表中
	_, err = env.comments.Resolve(ctx, ws.ID, first.ID)
	require.NoError(t, err)

	list, count, err = env.comments.List(ctx, ws.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Len(t, list, 2)

	_, err = env.comments.Resolve(ctx, ws.ID, "missing")
	requireCode(t, err, code.ErrorCommentNotFound)
}
