package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/haierkeys/prompt-workspace-service/internal/dao"
	"github.com/haierkeys/prompt-workspace-service/internal/model"
	"github.com/haierkeys/prompt-workspace-service/internal/registry"
	"github.com/haierkeys/prompt-workspace-service/pkg/code"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// recordingBroadcaster 按推送顺序记录事件帧
type recordingBroadcaster struct {
	mu     sync.Mutex
	frames []recordedFrame
}

type recordedFrame struct {
	WorkspaceID string
	ActionType  string
	Content     any
}

func (b *recordingBroadcaster) Broadcast(workspaceID string, actionType string, content any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, recordedFrame{WorkspaceID: workspaceID, ActionType: actionType, Content: content})
}

func (b *recordingBroadcaster) actions(workspaceID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, f := range b.frames {
		if f.WorkspaceID == workspaceID {
			out = append(out, f.ActionType)
		}
	}
	return out
}

// testEnv 服务层测试环境：内存数据库 + 内存注册表 + 记录型事件出口
type testEnv struct {
	dao        *dao.Dao
	memory     *registry.MemoryRegistry
	broadcast  *recordingBroadcaster
	events     EventService
	workspaces WorkspaceService
	locks      LockService
	versions   VersionService
	presence   PresenceService
	comments   CommentService
	refinery   RefineryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	for _, key := range []string{"Workspace", "Version", "Comment"} {
		require.NoError(t, model.AutoMigrate(db, key))
	}

	d := dao.New(db, context.Background())
	mem := registry.NewMemoryRegistry()
	broadcast := &recordingBroadcaster{}

	// pool 传 nil，推送在定序锁内同步完成，帧顺序即事件顺序
	events := NewEventService(broadcast, nil, nil)
	workspaces := NewWorkspaceService(dao.NewWorkspaceRepository(d), events)
	lockConfig := &LockServiceConfig{DefaultTTL: 30 * time.Second, MaxTTL: 5 * time.Minute}
	locks := NewLockService(mem.LockRegistry(), workspaces, events, nil, lockConfig)
	versions := NewVersionService(dao.NewVersionRepository(d), mem.LockRegistry(), workspaces, events, nil, nil)
	presence := NewPresenceService(mem.PresenceRegistry(), workspaces, events, nil, &PresenceServiceConfig{TTL: time.Minute})
	comments := NewCommentService(dao.NewCommentRepository(d), workspaces, events)
	refinery := NewRefineryService(versions, workspaces, nil)

	return &testEnv{
		dao:        d,
		memory:     mem,
		broadcast:  broadcast,
		events:     events,
		workspaces: workspaces,
		locks:      locks,
		versions:   versions,
		presence:   presence,
		comments:   comments,
		refinery:   refinery,
	}
}

func (e *testEnv) createWorkspace(t *testing.T, name string) *WorkspaceDTO {
	t.Helper()
	ws, err := e.workspaces.Create(context.Background(), name, "test workspace")
	require.NoError(t, err)
	return ws
}

// acquireAll 为指定操作者获取全部给定字段的锁
func (e *testEnv) acquireAll(t *testing.T, workspaceID, actorID string, fields ...string) {
	t.Helper()
	for _, field := range fields {
		_, err := e.locks.Acquire(context.Background(), workspaceID, field, actorID, 60)
		require.NoError(t, err)
	}
}

// requireCode 断言错误携带指定业务码
func requireCode(t *testing.T, err error, want *code.Code) {
	t.Helper()
	require.Error(t, err)
	var c *code.Code
	require.True(t, errors.As(err, &c), "expected business code error, got %v", err)
	require.Equal(t, want.Code(), c.Code(), "unexpected business code, got %d (%s)", c.Code(), c.Msg())
}

func strPtr(s string) *string { return &s }
