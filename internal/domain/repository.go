// Package domain 定义领域模型和接口
package domain

import "context"

// WorkspaceRepository 工作区仓储接口
type WorkspaceRepository interface {
	// GetByID 根据ID获取工作区
	GetByID(ctx context.Context, id string) (*Workspace, error)

	// GetByName 根据名称获取工作区
	GetByName(ctx context.Context, name string) (*Workspace, error)

	// Create 创建工作区
	Create(ctx context.Context, workspace *Workspace) (*Workspace, error)

	// Update 更新工作区名称与描述
	Update(ctx context.Context, workspace *Workspace) error

	// SetReadOnly 设置工作区只读开关
	SetReadOnly(ctx context.Context, id string, readOnly bool) error

	// List 分页获取工作区列表
	List(ctx context.Context, page, pageSize int) ([]*Workspace, error)

	// ListCount 获取工作区数量
	ListCount(ctx context.Context) (int64, error)

	// Delete 删除工作区
	Delete(ctx context.Context, id string) error
}

// VersionRepository 版本仓储接口
// Commit 为唯一的写入口：分配序号、插入版本并推进头指针在同一事务内完成
type VersionRepository interface {
	// GetByID 根据版本ID获取版本
	GetByID(ctx context.Context, id, workspaceID string) (*Version, error)

	// GetBySeq 根据序号获取版本
	GetBySeq(ctx context.Context, workspaceID string, seq int64) (*Version, error)

	// GetHead 获取工作区当前头版本
	GetHead(ctx context.Context, workspaceID string) (*Version, error)

	// Commit 提交新版本：分配下一个序号、写入版本并推进工作区头指针
	Commit(ctx context.Context, version *Version) (*Version, error)

	// List 分页获取版本列表（按序号倒序）
	List(ctx context.Context, workspaceID string, page, pageSize int) ([]*Version, error)

	// ListCount 获取版本数量
	ListCount(ctx context.Context, workspaceID string) (int64, error)
}

// CommentRepository 评论仓储接口
type CommentRepository interface {
	// GetByID 根据ID获取评论
	GetByID(ctx context.Context, id, workspaceID string) (*Comment, error)

	// Create 创建评论
	Create(ctx context.Context, comment *Comment) (*Comment, error)

	// SetResolved 更新评论解决状态
	SetResolved(ctx context.Context, id, workspaceID string, resolved bool) error

	// List 分页获取工作区评论列表
	List(ctx context.Context, workspaceID string, page, pageSize int) ([]*Comment, error)

	// ListCount 获取评论数量
	ListCount(ctx context.Context, workspaceID string) (int64, error)
}
