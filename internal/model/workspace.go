package model

import "github.com/haierkeys/prompt-workspace-service/pkg/timex"

const TableNameWorkspace = "workspace"

// Workspace mapped from table <workspace>
type Workspace struct {
	ID            string     `gorm:"column:id;primaryKey" json:"id" form:"id"`
	Name          string     `gorm:"column:name;not null;uniqueIndex:idx_workspace_name" json:"name" form:"name"`
	Description   string     `gorm:"column:description" json:"description" form:"description"`
	HeadVersionID string     `gorm:"column:head_version_id" json:"headVersionId" form:"headVersionId"`
	HeadSeq       int64      `gorm:"column:head_seq;not null;default:0" json:"headSeq" form:"headSeq"`
	ReadOnly      bool       `gorm:"column:read_only;default:false" json:"readOnly" form:"readOnly"`
	CreatedAt     timex.Time `gorm:"column:created_at;type:datetime;default:NULL;autoCreateTime:false" json:"createdAt" form:"createdAt"`
	UpdatedAt     timex.Time `gorm:"column:updated_at;type:datetime;default:NULL;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
}

// TableName Workspace's table name
func (*Workspace) TableName() string {
	return TableNameWorkspace
}
