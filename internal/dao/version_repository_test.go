package dao

import (
	"context"
	"testing"

	"github.com/haierkeys/prompt-workspace-service/internal/domain"
	"github.com/haierkeys/prompt-workspace-service/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDao 创建内存数据库的 Dao 实例
func newTestDao(t *testing.T) *Dao {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	for _, key := range []string{"Workspace", "Version", "Comment"} {
		require.NoError(t, model.AutoMigrate(db, key))
	}

	return New(db, context.Background())
}

func newTestWorkspace(t *testing.T, d *Dao, name string) *domain.Workspace {
	t.Helper()
	ws, err := NewWorkspaceRepository(d).Create(context.Background(), &domain.Workspace{
		Name:        name,
		Description: "test workspace",
	})
	require.NoError(t, err)
	return ws
}

func TestVersionRepository_CommitAssignsSequentialSeq(t *testing.T) {
	d := newTestDao(t)
	ws := newTestWorkspace(t, d, "alpha")
	repo := NewVersionRepository(d)
	ctx := context.Background()

	v1, err := repo.Commit(ctx, &domain.Version{
		WorkspaceID: ws.ID,
		ActorID:     "actor-1",
		Message:     "initial",
		Content: domain.Content{
			PromptText:         "You are a helpful assistant.\n",
			ModelConfiguration: map[string]interface{}{"temperature": 0.7},
			Tools:              []string{"search"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), v1.Seq)
	assert.True(t, v1.IsRoot())

	v2, err := repo.Commit(ctx, &domain.Version{
		WorkspaceID: ws.ID,
		ActorID:     "actor-2",
		Message:     "tighten prompt",
		Content: domain.Content{
			PromptText: "You are a terse assistant.\n",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), v2.Seq)
	assert.Equal(t, v1.ID, v2.ParentVersionID)

	// 头指针必须随提交推进
	wsAfter, err := NewWorkspaceRepository(d).GetByID(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, v2.ID, wsAfter.HeadVersionID)
	assert.Equal(t, int64(2), wsAfter.HeadSeq)
}

func TestVersionRepository_CommitRoundTripsContent(t *testing.T) {
	d := newTestDao(t)
	ws := newTestWorkspace(t, d, "beta")
	repo := NewVersionRepository(d)
	ctx := context.Background()

	content := domain.Content{
		PromptText:         "line one\nline two\n",
		ModelConfiguration: map[string]interface{}{"model": "gpt-4", "topP": 0.9},
		Tools:              []string{"search", "calculator"},
		Scratchpad:         "draft notes",
	}

	committed, err := repo.Commit(ctx, &domain.Version{
		WorkspaceID: ws.ID,
		ActorID:     "actor-1",
		Content:     content,
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, committed.ID, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, content.PromptText, got.Content.PromptText)
	assert.Equal(t, content.Tools, got.Content.Tools)
	assert.Equal(t, content.Scratchpad, got.Content.Scratchpad)
	assert.Equal(t, "gpt-4", got.Content.ModelConfiguration["model"])
}

func TestVersionRepository_GetHeadAndBySeq(t *testing.T) {
	d := newTestDao(t)
	ws := newTestWorkspace(t, d, "gamma")
	repo := NewVersionRepository(d)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Commit(ctx, &domain.Version{
			WorkspaceID: ws.ID,
			ActorID:     "actor-1",
			Content:     domain.Content{PromptText: "v\n"},
		})
		require.NoError(t, err)
	}

	head, err := repo.GetHead(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), head.Seq)

	v2, err := repo.GetBySeq(ctx, ws.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v2.Seq)

	count, err := repo.ListCount(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	list, err := repo.List(ctx, ws.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	// 列表按序号倒序
	assert.Equal(t, int64(3), list[0].Seq)
	assert.Equal(t, int64(1), list[2].Seq)
}

func TestVersionRepository_CommitUnknownWorkspace(t *testing.T) {
	d := newTestDao(t)
	repo := NewVersionRepository(d)

	_, err := repo.Commit(context.Background(), &domain.Version{
		WorkspaceID: "missing",
		ActorID:     "actor-1",
	})
	assert.True(t, IsNotFound(err))
}
