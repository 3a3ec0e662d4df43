package model

import "github.com/haierkeys/prompt-workspace-service/pkg/timex"

const TableNameComment = "comment"

// Comment mapped from table <comment>
type Comment struct {
	ID          string     `gorm:"column:id;primaryKey" json:"id" form:"id"`
	WorkspaceID string     `gorm:"column:workspace_id;not null;index:idx_comment_workspace" json:"workspaceId" form:"workspaceId"`
	ActorID     string     `gorm:"column:actor_id;not null" json:"actorId" form:"actorId"`
	Field       string     `gorm:"column:field" json:"field" form:"field"`
	Body        string     `gorm:"column:body;not null" json:"body" form:"body"`
	Resolved    bool       `gorm:"column:resolved;default:false" json:"resolved" form:"resolved"`
	CreatedAt   timex.Time `gorm:"column:created_at;type:datetime;default:NULL;autoCreateTime:false" json:"createdAt" form:"createdAt"`
	UpdatedAt   timex.Time `gorm:"column:updated_at;type:datetime;default:NULL;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
}

// TableName Comment's table name
func (*Comment) TableName() string {
	return TableNameComment
}
