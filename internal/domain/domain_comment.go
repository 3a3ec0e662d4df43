package domain

import "time"

// Comment 工作区字段评论领域模型
type Comment struct {
	ID          string
	WorkspaceID string
	ActorID     string
	Field       string
	Body        string
	Resolved    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
