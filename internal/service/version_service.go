package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/haierkeys/prompt-workspace-service/internal/dao"
	"github.com/haierkeys/prompt-workspace-service/internal/domain"
	"github.com/haierkeys/prompt-workspace-service/pkg/code"
	"github.com/haierkeys/prompt-workspace-service/pkg/diff"
	"github.com/haierkeys/prompt-workspace-service/pkg/writequeue"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VersionService 定义版本业务服务接口
// 提交协议：校验变更字段的锁归属 -> 串行化提交 -> 释放锁 -> 广播事件
// 事件顺序保证 LOCK_RELEASED 先于对应的 VERSION_COMMITTED
type VersionService interface {
	// Commit 提交新版本；nil 字段表示沿用头版本内容
	Commit(ctx context.Context, workspaceID, actorID string, params *CommitParams) (*VersionDTO, error)

	// Get 根据版本 ID 获取版本
	Get(ctx context.Context, workspaceID, versionID string) (*VersionDTO, error)

	// GetBySeq 根据序号获取版本
	GetBySeq(ctx context.Context, workspaceID string, seq int64) (*VersionDTO, error)

	// Head 获取当前头版本
	Head(ctx context.Context, workspaceID string) (*VersionDTO, error)

	// List 分页获取版本列表（按序号倒序）
	List(ctx context.Context, workspaceID string, page, pageSize int) ([]*VersionDTO, int64, error)

	// Diff 计算两个版本之间的结构化差异
	Diff(ctx context.Context, workspaceID, fromVersionID, toVersionID string) (*DiffDTO, error)

	// Revert 以历史版本内容创建新版本；历史记录不被改写
	Revert(ctx context.Context, workspaceID, actorID, targetVersionID, message string) (*VersionDTO, error)
}

// CommitParams 提交参数；指针/nil 区分"未修改"与"改为空值"
type CommitParams struct {
	Message            string
	PromptText         *string
	ModelConfiguration map[string]interface{}
	Tools              []string
	Scratchpad         *string
}

// ContentDTO 版本内容数据传输对象
type ContentDTO struct {
	PromptText         string                 `json:"promptText"`
	ModelConfiguration map[string]interface{} `json:"modelConfiguration"`
	Tools              []string               `json:"tools"`
	Scratchpad         string                 `json:"scratchpad"`
}

// VersionDTO 版本数据传输对象
type VersionDTO struct {
	ID              string     `json:"id"`
	WorkspaceID     string     `json:"workspaceId"`
	Seq             int64      `json:"seq"`
	ParentVersionID string     `json:"parentVersionId"`
	ActorID         string     `json:"actorId"`
	Message         string     `json:"message"`
	Content         ContentDTO `json:"content"`
	CreatedAt       string     `json:"createdAt"`
}

// DiffDTO 版本差异数据传输对象
type DiffDTO struct {
	WorkspaceID        string            `json:"workspaceId"`
	FromVersionID      string            `json:"fromVersionId"`
	ToVersionID        string            `json:"toVersionId"`
	PromptText         []diff.LineChange `json:"promptText,omitempty"`
	Scratchpad         []diff.LineChange `json:"scratchpad,omitempty"`
	ModelConfiguration []diff.KeyDelta   `json:"modelConfiguration,omitempty"`
	ToolsAdded         []string          `json:"toolsAdded,omitempty"`
	ToolsRemoved       []string          `json:"toolsRemoved,omitempty"`
}

// versionService 实现 VersionService 接口
type versionService struct {
	repo       domain.VersionRepository
	registry   domain.LockRegistry
	workspaces WorkspaceService
	events     EventService
	writeQueue *writequeue.Manager
	logger     *zap.Logger
}

// NewVersionService 创建 VersionService 实例
func NewVersionService(
	repo domain.VersionRepository,
	registry domain.LockRegistry,
	workspaces WorkspaceService,
	events EventService,
	writeQueue *writequeue.Manager,
	logger *zap.Logger,
) VersionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &versionService{
		repo:       repo,
		registry:   registry,
		workspaces: workspaces,
		events:     events,
		writeQueue: writeQueue,
		logger:     logger,
	}
}

func versionToDTO(v *domain.Version) *VersionDTO {
	if v == nil {
		return nil
	}
	return &VersionDTO{
		ID:              v.ID,
		WorkspaceID:     v.WorkspaceID,
		Seq:             v.Seq,
		ParentVersionID: v.ParentVersionID,
		ActorID:         v.ActorID,
		Message:         v.Message,
		Content: ContentDTO{
			PromptText:         v.Content.PromptText,
			ModelConfiguration: v.Content.ModelConfiguration,
			Tools:              v.Content.Tools,
			Scratchpad:         v.Content.Scratchpad,
		},
		CreatedAt: v.CreatedAt.Format(time.RFC3339),
	}
}

// headContent 获取头版本内容；无版本时返回零值内容
func (s *versionService) headContent(ctx context.Context, workspaceID string) (domain.Content, string, error) {
	head, err := s.repo.GetHead(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Content{}, "", nil
		}
		return domain.Content{}, "", code.ErrorDBQuery.WithDetails(err.Error())
	}
	return head.Content, head.ID, nil
}

// changedFields 比较两份内容，返回发生变化的字段
func changedFields(base, next domain.Content) []domain.Field {
	var changed []domain.Field
	if base.PromptText != next.PromptText {
		changed = append(changed, domain.FieldPromptText)
	}
	if !reflect.DeepEqual(base.ModelConfiguration, next.ModelConfiguration) {
		changed = append(changed, domain.FieldModelConfiguration)
	}
	if !reflect.DeepEqual(base.Tools, next.Tools) {
		changed = append(changed, domain.FieldTools)
	}
	if base.Scratchpad != next.Scratchpad {
		changed = append(changed, domain.FieldScratchpad)
	}
	return changed
}

// Commit 提交新版本
func (s *versionService) Commit(ctx context.Context, workspaceID, actorID string, params *CommitParams) (*VersionDTO, error) {
	return s.commitContent(ctx, workspaceID, actorID, func(base domain.Content) domain.Content {
		next := base
		if params.PromptText != nil {
			next.PromptText = *params.PromptText
		}
		if params.ModelConfiguration != nil {
			next.ModelConfiguration = params.ModelConfiguration
		}
		if params.Tools != nil {
			next.Tools = params.Tools
		}
		if params.Scratchpad != nil {
			next.Scratchpad = *params.Scratchpad
		}
		return next
	}, params.Message)
}

// commitContent 共享提交路径（Commit 与 Revert 复用）
// buildNext 基于头版本内容生成新内容；空工作区以零值内容为基线
func (s *versionService) commitContent(ctx context.Context, workspaceID, actorID string, buildNext func(base domain.Content) domain.Content, message string) (*VersionDTO, error) {
	ws, err := s.workspaces.MustGet(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws.ReadOnly {
		commitRejectedTotal.WithLabelValues("readonly").Inc()
		return nil, code.ErrorReadOnlyMode
	}

	base, _, err := s.headContent(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	next := buildNext(base)

	changed := changedFields(base, next)
	if len(changed) == 0 {
		commitRejectedTotal.WithLabelValues("empty").Inc()
		return nil, code.ErrorInvalidParams.WithDetails("commit contains no changes")
	}

	// 提交前必须持有全部变更字段的锁；锁存储不可达时拒绝提交
	for _, field := range changed {
		owner, err := s.registry.Owner(ctx, workspaceID, string(field))
		if err != nil {
			substrateErrorsTotal.Inc()
			commitRejectedTotal.WithLabelValues("substrate").Inc()
			return nil, code.ErrorSubstrateUnavailable.WithDetails(err.Error())
		}
		if owner == nil {
			commitRejectedTotal.WithLabelValues("lock_required").Inc()
			return nil, code.ErrorLockRequired.WithContext(string(field))
		}
		if owner.ActorID != actorID {
			commitRejectedTotal.WithLabelValues("lock_denied").Inc()
			return nil, code.ErrorLockDenied.WithData(lockToDTO(owner))
		}
	}

	version := &domain.Version{
		WorkspaceID: workspaceID,
		ActorID:     actorID,
		Message:     message,
		Content:     next,
	}

	var committed *domain.Version
	commit := func() error {
		var err error
		committed, err = s.repo.Commit(ctx, version)
		return err
	}

	if s.writeQueue != nil {
		err = s.writeQueue.Execute(ctx, workspaceID, commit)
	} else {
		err = commit()
	}
	if err != nil {
		switch {
		case errors.Is(err, dao.ErrSequenceConflict):
			commitRejectedTotal.WithLabelValues("seq_conflict").Inc()
			return nil, code.ErrorSequenceConflict
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, code.ErrorWorkspaceNotFound
		case errors.Is(err, writequeue.ErrWriteQueueFull), errors.Is(err, writequeue.ErrWriteTimeout):
			commitRejectedTotal.WithLabelValues("queue").Inc()
			return nil, code.ErrorTooManyRequest.WithDetails(err.Error())
		default:
			return nil, code.ErrorDBQuery.WithDetails(err.Error())
		}
	}

	versionsCommittedTotal.Inc()
	s.logger.Info("version committed",
		zap.String("workspaceId", workspaceID),
		zap.String("versionId", committed.ID),
		zap.Int64("seq", committed.Seq),
		zap.String("actorId", actorID))

	// 提交完成后释放变更字段的锁并按序广播：
	// 先 LOCK_RELEASED（该提交占用的锁已可用），后 VERSION_COMMITTED
	for _, field := range changed {
		released, err := s.registry.Release(ctx, workspaceID, string(field), actorID)
		if err != nil {
			substrateErrorsTotal.Inc()
			s.logger.Warn("post-commit lock release failed, lock will expire by TTL",
				zap.String("workspaceId", workspaceID),
				zap.String("field", string(field)),
				zap.Error(err))
			continue
		}
		if released && s.events != nil {
			s.events.Publish(ctx, workspaceID, domain.EventLockReleased, map[string]interface{}{
				"workspaceId": workspaceID,
				"field":       string(field),
				"actorId":     actorID,
			})
		}
	}

	dto := versionToDTO(committed)
	if s.events != nil {
		s.events.Publish(ctx, workspaceID, domain.EventVersionCommitted, map[string]interface{}{
			"workspaceId": workspaceID,
			"versionId":   committed.ID,
			"seq":         committed.Seq,
			"actorId":     actorID,
			"message":     message,
		})
	}
	return dto, nil
}

// Get 根据版本 ID 获取版本
func (s *versionService) Get(ctx context.Context, workspaceID, versionID string) (*VersionDTO, error) {
	if _, err := s.workspaces.MustGet(ctx, workspaceID); err != nil {
		return nil, err
	}

	v, err := s.repo.GetByID(ctx, versionID, workspaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorVersionNotFound
		}
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	return versionToDTO(v), nil
}

// GetBySeq 根据序号获取版本
func (s *versionService) GetBySeq(ctx context.Context, workspaceID string, seq int64) (*VersionDTO, error) {
	if _, err := s.workspaces.MustGet(ctx, workspaceID); err != nil {
		return nil, err
	}

	v, err := s.repo.GetBySeq(ctx, workspaceID, seq)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorVersionNotFound
		}
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	return versionToDTO(v), nil
}

// Head 获取当前头版本
func (s *versionService) Head(ctx context.Context, workspaceID string) (*VersionDTO, error) {
	if _, err := s.workspaces.MustGet(ctx, workspaceID); err != nil {
		return nil, err
	}

	v, err := s.repo.GetHead(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorVersionNotFound
		}
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	return versionToDTO(v), nil
}

// List 分页获取版本列表
func (s *versionService) List(ctx context.Context, workspaceID string, page, pageSize int) ([]*VersionDTO, int64, error) {
	if _, err := s.workspaces.MustGet(ctx, workspaceID); err != nil {
		return nil, 0, err
	}

	count, err := s.repo.ListCount(ctx, workspaceID)
	if err != nil {
		return nil, 0, code.ErrorDBQuery.WithDetails(err.Error())
	}

	versions, err := s.repo.List(ctx, workspaceID, page, pageSize)
	if err != nil {
		return nil, 0, code.ErrorDBQuery.WithDetails(err.Error())
	}

	var list []*VersionDTO
	for _, v := range versions {
		list = append(list, versionToDTO(v))
	}
	return list, count, nil
}

// Diff 计算两个版本之间的结构化差异
// 行级差异满足：apply(from, diff) == to，且交换方向后增删互换
func (s *versionService) Diff(ctx context.Context, workspaceID, fromVersionID, toVersionID string) (*DiffDTO, error) {
	if _, err := s.workspaces.MustGet(ctx, workspaceID); err != nil {
		return nil, err
	}

	from, err := s.repo.GetByID(ctx, fromVersionID, workspaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorVersionNotFound.WithContext(fromVersionID)
		}
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	to, err := s.repo.GetByID(ctx, toVersionID, workspaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorVersionNotFound.WithContext(toVersionID)
		}
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	added, removed := toolsDiff(from.Content.Tools, to.Content.Tools)

	return &DiffDTO{
		WorkspaceID:        workspaceID,
		FromVersionID:      from.ID,
		ToVersionID:        to.ID,
		PromptText:         diff.Lines(from.Content.PromptText, to.Content.PromptText),
		Scratchpad:         diff.Lines(from.Content.Scratchpad, to.Content.Scratchpad),
		ModelConfiguration: diff.Keys(from.Content.ModelConfiguration, to.Content.ModelConfiguration),
		ToolsAdded:         added,
		ToolsRemoved:       removed,
	}, nil
}

// toolsDiff 计算工具列表的集合差异，保持输入顺序
func toolsDiff(from, to []string) (added, removed []string) {
	fromSet := make(map[string]struct{}, len(from))
	for _, t := range from {
		fromSet[t] = struct{}{}
	}
	toSet := make(map[string]struct{}, len(to))
	for _, t := range to {
		toSet[t] = struct{}{}
	}

	for _, t := range to {
		if _, ok := fromSet[t]; !ok {
			added = append(added, t)
		}
	}
	for _, t := range from {
		if _, ok := toSet[t]; !ok {
			removed = append(removed, t)
		}
	}
	return added, removed
}

// Revert 以历史版本内容创建新版本
// 走常规提交路径：变更字段的锁必须由请求者持有，头指针只会前进
func (s *versionService) Revert(ctx context.Context, workspaceID, actorID, targetVersionID, message string) (*VersionDTO, error) {
	target, err := s.repo.GetByID(ctx, targetVersionID, workspaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorVersionNotFound
		}
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	if message == "" {
		message = fmt.Sprintf("revert to version %d", target.Seq)
	}
	return s.commitContent(ctx, workspaceID, actorID, func(domain.Content) domain.Content {
		return target.Content
	}, message)
}

// 确保 versionService 实现了 VersionService 接口
var _ VersionService = (*versionService)(nil)
