package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/haierkeys/prompt-workspace-service/internal/domain"
	"github.com/haierkeys/prompt-workspace-service/pkg/code"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// WorkspaceService 定义工作区业务服务接口
type WorkspaceService interface {
	// Create 创建工作区
	Create(ctx context.Context, name, description string) (*WorkspaceDTO, error)

	// Get 根据 ID 获取工作区
	Get(ctx context.Context, id string) (*WorkspaceDTO, error)

	// MustGet 获取工作区领域对象；不存在返回 ErrorWorkspaceNotFound
	// 使用 Singleflight 合并并发请求
	MustGet(ctx context.Context, id string) (*domain.Workspace, error)

	// Update 更新工作区名称与描述
	Update(ctx context.Context, id, name, description string) (*WorkspaceDTO, error)

	// SetReadOnly 切换工作区只读开关
	SetReadOnly(ctx context.Context, id string, readOnly bool) error

	// List 分页获取工作区列表
	List(ctx context.Context, page, pageSize int) ([]*WorkspaceDTO, int64, error)

	// Delete 删除工作区及其全部版本与评论
	Delete(ctx context.Context, id string) error
}

// WorkspaceDTO 工作区数据传输对象
type WorkspaceDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	HeadVersionID string `json:"headVersionId"`
	HeadSeq       int64  `json:"headSeq"`
	ReadOnly      bool   `json:"readOnly"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

// workspaceService 实现 WorkspaceService 接口
type workspaceService struct {
	repo   domain.WorkspaceRepository
	events EventService
	sf     *singleflight.Group
}

// NewWorkspaceService 创建 WorkspaceService 实例
func NewWorkspaceService(repo domain.WorkspaceRepository, events EventService) WorkspaceService {
	return &workspaceService{
		repo:   repo,
		events: events,
		sf:     &singleflight.Group{},
	}
}

func (s *workspaceService) domainToDTO(ws *domain.Workspace) *WorkspaceDTO {
	if ws == nil {
		return nil
	}
	return &WorkspaceDTO{
		ID:            ws.ID,
		Name:          ws.Name,
		Description:   ws.Description,
		HeadVersionID: ws.HeadVersionID,
		HeadSeq:       ws.HeadSeq,
		ReadOnly:      ws.ReadOnly,
		CreatedAt:     ws.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     ws.UpdatedAt.Format(time.RFC3339),
	}
}

// Create 创建工作区
func (s *workspaceService) Create(ctx context.Context, name, description string) (*WorkspaceDTO, error) {
	created, err := s.repo.Create(ctx, &domain.Workspace{
		Name:        name,
		Description: description,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, code.ErrorWorkspaceExist
		}
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	return s.domainToDTO(created), nil
}

// Get 根据 ID 获取工作区
func (s *workspaceService) Get(ctx context.Context, id string) (*WorkspaceDTO, error) {
	ws, err := s.MustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.domainToDTO(ws), nil
}

// MustGet 获取工作区领域对象
func (s *workspaceService) MustGet(ctx context.Context, id string) (*domain.Workspace, error) {
	key := fmt.Sprintf("workspace_get_%s", id)

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		ws, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, code.ErrorWorkspaceNotFound
			}
			return nil, code.ErrorDBQuery.WithDetails(err.Error())
		}
		return ws, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Workspace), nil
}

// Update 更新工作区名称与描述
func (s *workspaceService) Update(ctx context.Context, id, name, description string) (*WorkspaceDTO, error) {
	ws, err := s.MustGet(ctx, id)
	if err != nil {
		return nil, err
	}

	ws.Name = name
	ws.Description = description
	if err := s.repo.Update(ctx, ws); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, code.ErrorWorkspaceExist
		}
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	return s.domainToDTO(updated), nil
}

// SetReadOnly 切换工作区只读开关并广播状态变更
func (s *workspaceService) SetReadOnly(ctx context.Context, id string, readOnly bool) error {
	if err := s.repo.SetReadOnly(ctx, id, readOnly); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return code.ErrorWorkspaceNotFound
		}
		return code.ErrorDBQuery.WithDetails(err.Error())
	}

	if s.events != nil {
		s.events.Publish(ctx, id, domain.EventReadOnlyChanged, map[string]interface{}{
			"workspaceId": id,
			"readOnly":    readOnly,
		})
	}
	return nil
}

// List 分页获取工作区列表
func (s *workspaceService) List(ctx context.Context, page, pageSize int) ([]*WorkspaceDTO, int64, error) {
	count, err := s.repo.ListCount(ctx)
	if err != nil {
		return nil, 0, code.ErrorDBQuery.WithDetails(err.Error())
	}

	list, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, code.ErrorDBQuery.WithDetails(err.Error())
	}

	var results []*WorkspaceDTO
	for _, ws := range list {
		results = append(results, s.domainToDTO(ws))
	}
	return results, count, nil
}

// Delete 删除工作区
func (s *workspaceService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return code.ErrorWorkspaceNotFound
		}
		return code.ErrorDBQuery.WithDetails(err.Error())
	}
	return nil
}

// 确保 workspaceService 实现了 WorkspaceService 接口
var _ WorkspaceService = (*workspaceService)(nil)
