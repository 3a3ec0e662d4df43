package dao

import (
	"context"
	"testing"

	"github.com/haierkeys/prompt-workspace-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestWorkspaceRepository_CreateAndGet(t *testing.T) {
	d := newTestDao(t)
	repo := NewWorkspaceRepository(d)
	ctx := context.Background()

	ws, err := repo.Create(ctx, &domain.Workspace{
		Name:        "prompt-lab",
		Description: "shared tuning workspace",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, ws.ID)
	assert.False(t, ws.HasHead())

	got, err := repo.GetByID(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, "prompt-lab", got.Name)

	byName, err := repo.GetByName(ctx, "prompt-lab")
	require.NoError(t, err)
	assert.Equal(t, ws.ID, byName.ID)
}

func TestWorkspaceRepository_DuplicateName(t *testing.T) {
	d := newTestDao(t)
	repo := NewWorkspaceRepository(d)
	ctx := context.Background()

	_, err := repo.Create(ctx, &domain.Workspace{Name: "dup"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &domain.Workspace{Name: "dup"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestWorkspaceRepository_SetReadOnly(t *testing.T) {
	d := newTestDao(t)
	repo := NewWorkspaceRepository(d)
	ctx := context.Background()

	ws, err := repo.Create(ctx, &domain.Workspace{Name: "ro"})
	require.NoError(t, err)

	require.NoError(t, repo.SetReadOnly(ctx, ws.ID, true))

	got, err := repo.GetByID(ctx, ws.ID)
	require.NoError(t, err)
	assert.True(t, got.ReadOnly)

	err = repo.SetReadOnly(ctx, "missing", true)
	assert.True(t, IsNotFound(err))
}

func TestWorkspaceRepository_DeleteCascades(t *testing.T) {
	d := newTestDao(t)
	wsRepo := NewWorkspaceRepository(d)
	versionRepo := NewVersionRepository(d)
	commentRepo := NewCommentRepository(d)
	ctx := context.Background()

	ws, err := wsRepo.Create(ctx, &domain.Workspace{Name: "doomed"})
	require.NoError(t, err)

	_, err = versionRepo.Commit(ctx, &domain.Version{WorkspaceID: ws.ID, ActorID: "a"})
	require.NoError(t, err)
	_, err = commentRepo.Create(ctx, &domain.Comment{WorkspaceID: ws.ID, ActorID: "a", Body: "note"})
	require.NoError(t, err)

	require.NoError(t, wsRepo.Delete(ctx, ws.ID))

	_, err = wsRepo.GetByID(ctx, ws.ID)
	assert.True(t, IsNotFound(err))

	count, err := versionRepo.ListCount(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	cCount, err := commentRepo.ListCount(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cCount)
}
