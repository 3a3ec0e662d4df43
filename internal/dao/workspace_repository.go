package dao

import (
	"context"
	"errors"
	"time"

	"github.com/haierkeys/prompt-workspace-service/internal/domain"
	"github.com/haierkeys/prompt-workspace-service/internal/model"
	"github.com/haierkeys/prompt-workspace-service/pkg/timex"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// workspaceRepository 实现 domain.WorkspaceRepository 接口
type workspaceRepository struct {
	dao *Dao
}

// NewWorkspaceRepository 创建 WorkspaceRepository 实例
func NewWorkspaceRepository(dao *Dao) domain.WorkspaceRepository {
	return &workspaceRepository{dao: dao}
}

// toDomain 将数据库模型转换为领域模型
func (r *workspaceRepository) toDomain(m *model.Workspace) *domain.Workspace {
	if m == nil {
		return nil
	}
	return &domain.Workspace{
		ID:            m.ID,
		Name:          m.Name,
		Description:   m.Description,
		HeadVersionID: m.HeadVersionID,
		HeadSeq:       m.HeadSeq,
		ReadOnly:      m.ReadOnly,
		CreatedAt:     time.Time(m.CreatedAt),
		UpdatedAt:     time.Time(m.UpdatedAt),
	}
}

// GetByID 根据ID获取工作区
func (r *workspaceRepository) GetByID(ctx context.Context, id string) (*domain.Workspace, error) {
	var m model.Workspace
	err := r.dao.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// GetByName 根据名称获取工作区
func (r *workspaceRepository) GetByName(ctx context.Context, name string) (*domain.Workspace, error) {
	var m model.Workspace
	err := r.dao.db.WithContext(ctx).Where("name = ?", name).First(&m).Error
	if err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// Create 创建工作区
func (r *workspaceRepository) Create(ctx context.Context, workspace *domain.Workspace) (*domain.Workspace, error) {
	m := &model.Workspace{
		ID:          workspace.ID,
		Name:        workspace.Name,
		Description: workspace.Description,
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

// Update 更新工作区名称与描述
func (r *workspaceRepository) Update(ctx context.Context, workspace *domain.Workspace) error {
	return r.dao.db.WithContext(ctx).
		Model(&model.Workspace{}).
		Where("id = ?", workspace.ID).
		Updates(map[string]interface{}{
			"name":        workspace.Name,
			"description": workspace.Description,
			"updated_at":  timex.Now(),
		}).Error
}

// SetReadOnly 设置工作区只读开关
func (r *workspaceRepository) SetReadOnly(ctx context.Context, id string, readOnly bool) error {
	result := r.dao.db.WithContext(ctx).
		Model(&model.Workspace{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"read_only":  readOnly,
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

// List 分页获取工作区列表
func (r *workspaceRepository) List(ctx context.Context, page, pageSize int) ([]*domain.Workspace, error) {
	var modelList []*model.Workspace
	offset := 0
	if page > 0 {
		offset = (page - 1) * pageSize
	}
	err := r.dao.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}

	var list []*domain.Workspace
	for _, m := range modelList {
		list = append(list, r.toDomain(m))
	}
	return list, nil
}

// ListCount 获取工作区数量
func (r *workspaceRepository) ListCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.dao.db.WithContext(ctx).Model(&model.Workspace{}).Count(&count).Error
	return count, err
}

// Delete 删除工作区
func (r *workspaceRepository) Delete(ctx context.Context, id string) error {
	return r.dao.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workspace_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workspace_id = ?", id).Delete(&model.Version{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&model.Workspace{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// IsNotFound 判断是否为记录不存在错误
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// 确保 workspaceRepository 实现了 domain.WorkspaceRepository 接口
var _ domain.WorkspaceRepository = (*workspaceRepository)(nil)
