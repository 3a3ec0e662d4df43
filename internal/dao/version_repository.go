package dao

import (
	"context"
	"errors"
	"time"

	"github.com/haierkeys/prompt-workspace-service/internal/domain"
	"github.com/haierkeys/prompt-workspace-service/internal/model"
	"github.com/haierkeys/prompt-workspace-service/pkg/timex"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrSequenceConflict 并发提交撞号时返回；调用方可重试
var ErrSequenceConflict = errors.New("version sequence conflict")

// commitMaxRetries 撞号重试次数上限
const commitMaxRetries = 3

// versionRepository 实现 domain.VersionRepository 接口
type versionRepository struct {
	dao *Dao
}

// NewVersionRepository 创建 VersionRepository 实例
func NewVersionRepository(dao *Dao) domain.VersionRepository {
	return &versionRepository{dao: dao}
}

// toDomain 将数据库模型转换为领域模型
func (r *versionRepository) toDomain(m *model.Version) (*domain.Version, error) {
	if m == nil {
		return nil, nil
	}

	content := domain.Content{
		PromptText: m.PromptText,
		Scratchpad: m.Scratchpad,
	}
	if m.ModelConfiguration != "" {
		if err := sonic.UnmarshalString(m.ModelConfiguration, &content.ModelConfiguration); err != nil {
			return nil, err
		}
	}
	if m.Tools != "" {
		if err := sonic.UnmarshalString(m.Tools, &content.Tools); err != nil {
			return nil, err
		}
	}

	return &domain.Version{
		ID:              m.ID,
		WorkspaceID:     m.WorkspaceID,
		Seq:             m.Seq,
		ParentVersionID: m.ParentVersionID,
		ActorID:         m.ActorID,
		Message:         m.Message,
		Content:         content,
		CreatedAt:       time.Time(m.CreatedAt),
	}, nil
}

// toModel 将领域模型转换为数据库模型（序列化配置与工具列表）
func (r *versionRepository) toModel(v *domain.Version) (*model.Version, error) {
	m := &model.Version{
		ID:              v.ID,
		WorkspaceID:     v.WorkspaceID,
		Seq:             v.Seq,
		ParentVersionID: v.ParentVersionID,
		ActorID:         v.ActorID,
		Message:         v.Message,
		PromptText:      v.Content.PromptText,
		Scratchpad:      v.Content.Scratchpad,
		CreatedAt:       timex.Time(v.CreatedAt),
	}
	if v.Content.ModelConfiguration != nil {
		s, err := sonic.MarshalString(v.Content.ModelConfiguration)
		if err != nil {
			return nil, err
		}
		m.ModelConfiguration = s
	}
	if v.Content.Tools != nil {
		s, err := sonic.MarshalString(v.Content.Tools)
		if err != nil {
			return nil, err
		}
		m.Tools = s
	}
	return m, nil
}

// GetByID 根据版本ID获取版本
func (r *versionRepository) GetByID(ctx context.Context, id, workspaceID string) (*domain.Version, error) {
	var m model.Version
	err := r.dao.db.WithContext(ctx).
		Where("id = ? AND workspace_id = ?", id, workspaceID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return r.toDomain(&m)
}

// GetBySeq 根据序号获取版本
func (r *versionRepository) GetBySeq(ctx context.Context, workspaceID string, seq int64) (*domain.Version, error) {
	var m model.Version
	err := r.dao.db.WithContext(ctx).
		Where("workspace_id = ? AND seq = ?", workspaceID, seq).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return r.toDomain(&m)
}

// GetHead 获取工作区当前头版本
func (r *versionRepository) GetHead(ctx context.Context, workspaceID string) (*domain.Version, error) {
	var m model.Version
	err := r.dao.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("seq DESC").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return r.toDomain(&m)
}

// Commit 提交新版本
// 单事务内完成：读取头序号、写入 seq=head+1 的版本、推进工作区头指针
// 头指针推进带旧值条件，并发撞号时由唯一索引或受影响行数兜底，重试后仍失败返回 ErrSequenceConflict
func (r *versionRepository) Commit(ctx context.Context, version *domain.Version) (*domain.Version, error) {

	for attempt := 0; attempt < commitMaxRetries; attempt++ {
		m, err := r.toModel(version)
		if err != nil {
			return nil, err
		}
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if time.Time(m.CreatedAt).IsZero() {
			m.CreatedAt = timex.Now()
		}

		err = r.dao.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var ws model.Workspace
			if err := tx.Where("id = ?", version.WorkspaceID).First(&ws).Error; err != nil {
				return err
			}

			m.Seq = ws.HeadSeq + 1
			if m.ParentVersionID == "" {
				m.ParentVersionID = ws.HeadVersionID
			}

			if err := tx.Create(m).Error; err != nil {
				return err
			}

			result := tx.Model(&model.Workspace{}).
				Where("id = ? AND head_seq = ?", ws.ID, ws.HeadSeq).
				Updates(map[string]interface{}{
					"head_version_id": m.ID,
					"head_seq":        m.Seq,
					"updated_at":      timex.Now(),
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrSequenceConflict
			}
			return nil
		})

		if err == nil {
			return r.toDomain(m)
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrSequenceConflict) {
			continue
		}
		return nil, err
	}

	return nil, ErrSequenceConflict
}

// List 分页获取版本列表（按序号倒序）
func (r *versionRepository) List(ctx context.Context, workspaceID string, page, pageSize int) ([]*domain.Version, error) {
	var modelList []*model.Version
	offset := 0
	if page > 0 {
		offset = (page - 1) * pageSize
	}
	err := r.dao.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("seq DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}

	var list []*domain.Version
	for _, m := range modelList {
		v, err := r.toDomain(m)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, nil
}

// ListCount 获取版本数量
func (r *versionRepository) ListCount(ctx context.Context, workspaceID string) (int64, error) {
	var count int64
	err := r.dao.db.WithContext(ctx).
		Model(&model.Version{}).
		Where("workspace_id = ?", workspaceID).
		Count(&count).Error
	return count, err
}

// 确保 versionRepository 实现了 domain.VersionRepository 接口
var _ domain.VersionRepository = (*versionRepository)(nil)
