package dao

import (
	"context"
	"time"

	"github.com/haierkeys/prompt-workspace-service/internal/domain"
	"github.com/haierkeys/prompt-workspace-service/internal/model"
	"github.com/haierkeys/prompt-workspace-service/pkg/timex"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// commentRepository 实现 domain.CommentRepository 接口
type commentRepository struct {
	dao *Dao
}

// NewCommentRepository 创建 CommentRepository 实例
func NewCommentRepository(dao *Dao) domain.CommentRepository {
	return &commentRepository{dao: dao}
}

func (r *commentRepository) toDomain(m *model.Comment) *domain.Comment {
	if m == nil {
		return nil
	}
	return &domain.Comment{
		ID:          m.ID,
		WorkspaceID: m.WorkspaceID,
		ActorID:     m.ActorID,
		Field:       m.Field,
		Body:        m.Body,
		Resolved:    m.Resolved,
		CreatedAt:   time.Time(m.CreatedAt),
		UpdatedAt:   time.Time(m.UpdatedAt),
	}
}

// GetByID 根据ID获取评论
func (r *commentRepository) GetByID(ctx context.Context, id, workspaceID string) (*domain.Comment, error) {
	var m model.Comment
	err := r.dao.db.WithContext(ctx).
		Where("id = ? AND workspace_id = ?", id, workspaceID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// Create 创建评论
func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	m := &model.Comment{
		ID:          comment.ID,
		WorkspaceID: comment.WorkspaceID,
		ActorID:     comment.ActorID,
		Field:       comment.Field,
		Body:        comment.Body,
		CreatedAt:   timex.Now(),
		UpdatedAt:   timex.Now(),
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	err := r.dao.db.WithContext(ctx).Create(m).Error
	if err != nil {
		return nil, err
	}
	return r.toDomain(m), nil
}

// SetResolved 更新评论解决状态
func (r *commentRepository) SetResolved(ctx context.Context, id, workspaceID string, resolved bool) error {
	result := r.dao.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("id = ? AND workspace_id = ?", id, workspaceID).
		Updates(map[string]interface{}{
			"resolved":   resolved,
			"updated_at": timex.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List 分页获取工作区评论列表
func (r *commentRepository) List(ctx context.Context, workspaceID string, page, pageSize int) ([]*domain.Comment, error) {
	var modelList []*model.Comment
	offset := 0
	if page > 0 {
		offset = (page - 1) * pageSize
	}
	err := r.dao.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}

	var list []*domain.Comment
	for _, m := range modelList {
		list = append(list, r.toDomain(m))
	}
	return list, nil
}

// ListCount 获取评论数量
func (r *commentRepository) ListCount(ctx context.Context, workspaceID string) (int64, error) {
	var count int64
	err := r.dao.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("workspace_id = ?", workspaceID).
		Count(&count).Error
	return count, err
}


// 确保 commentRepository 实现了 domain.CommentRepository 接口
var _ domain.CommentRepository = (*commentRepository)(nil)
