package service

import (
	"context"
	"errors"
	"time"

	"github.com/haierkeys/prompt-workspace-service/internal/domain"
	"github.com/haierkeys/prompt-workspace-service/pkg/code"

	"gorm.io/gorm"
)

// CommentService 定义评论业务服务接口
type CommentService interface {
	// Add 添加评论并广播 COMMENT_ADDED
	Add(ctx context.Context, workspaceID, actorID, field, body string) (*CommentDTO, error)

	// Resolve 标记评论为已解决并广播 COMMENT_RESOLVED
	Resolve(ctx context.Context, workspaceID, commentID string) (*CommentDTO, error)

	// List 分页获取工作区评论（按创建时间倒序）
	List(ctx context.Context, workspaceID string, page, pageSize int) ([]*CommentDTO, int64, error)
}

// CommentDTO 评论数据传输对象
type CommentDTO struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspaceId"`
	ActorID     string `json:"actorId"`
	Field       string `json:"field"`
	Body        string `json:"body"`
	Resolved    bool   `json:"resolved"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// commentService 实现 CommentService 接口
type commentService struct {
	repo       domain.CommentRepository
	workspaces WorkspaceService
	events     EventService
}

// NewCommentService 创建 CommentService 实例
func NewCommentService(repo domain.CommentRepository, workspaces WorkspaceService, events EventService) CommentService {
	return &commentService{
		repo:       repo,
		workspaces: workspaces,
		events:     events,
	}
}

func commentToDTO(c *domain.Comment) *CommentDTO {
	if c == nil {
		return nil
	}
	return &CommentDTO{
		ID:          c.ID,
		WorkspaceID: c.WorkspaceID,
		ActorID:     c.ActorID,
		Field:       c.Field,
		Body:        c.Body,
		Resolved:    c.Resolved,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339),
	}
}

// Add 添加评论
func (s *commentService) Add(ctx context.Context, workspaceID, actorID, field, body string) (*CommentDTO, error) {
	if field != "" && !domain.IsKnownField(field) {
		return nil, code.ErrorInvalidParams.WithDetails("unknown field: " + field)
	}
	if _, err := s.workspaces.MustGet(ctx, workspaceID); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &domain.Comment{
		WorkspaceID: workspaceID,
		ActorID:     actorID,
		Field:       field,
		Body:        body,
	})
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	dto := commentToDTO(created)
	if s.events != nil {
		s.events.Publish(ctx, workspaceID, domain.EventCommentAdded, dto)
	}
	return dto, nil
}

// Resolve 标记评论为已解决
func (s *commentService) Resolve(ctx context.Context, workspaceID, commentID string) (*CommentDTO, error) {
	if _, err := s.workspaces.MustGet(ctx, workspaceID); err != nil {
		return nil, err
	}

	if err := s.repo.SetResolved(ctx, commentID, workspaceID, true); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorCommentNotFound
		}
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	comment, err := s.repo.GetByID(ctx, commentID, workspaceID)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	dto := commentToDTO(comment)
	if s.events != nil {
		s.events.Publish(ctx, workspaceID, domain.EventCommentResolved, dto)
	}
	return dto, nil
}

// List 分页获取工作区评论
func (s *commentService) List(ctx context.Context, workspaceID string, page, pageSize int) ([]*CommentDTO, int64, error) {
	if _, err := s.workspaces.MustGet(ctx, workspaceID); err != nil {
		return nil, 0, err
	}

	count, err := s.repo.ListCount(ctx, workspaceID)
	if err != nil {
		return nil, 0, code.ErrorDBQuery.WithDetails(err.Error())
	}

	comments, err := s.repo.List(ctx, workspaceID, page, pageSize)
	if err != nil {
		return nil, 0, code.ErrorDBQuery.WithDetails(err.Error())
	}

	var list []*CommentDTO
	for _, c := range comments {
		list = append(list, commentToDTO(c))
	}
	return list, count, nil
}

// 确保 commentService 实现了 CommentService 接口
var _ CommentService = (*commentService)(nil)
